package storage

import (
	"errors"
	"time"

	"github.com/dep2p/go-distobj/config"
)

// ErrInvalidConfig 配置无效
var ErrInvalidConfig = errors.New("invalid storage config")

// Config 存储引擎配置
type Config struct {
	// Path 数据库目录，为空表示内存模式
	Path string

	// SyncWrites 每次写入是否同步落盘
	SyncWrites bool

	// GCInterval value log GC 间隔，0 表示不做 GC；内存模式忽略
	GCInterval time.Duration

	// GCDiscardRatio GC 丢弃比例
	GCDiscardRatio float64
}

// DefaultConfig 返回内存模式的默认配置
func DefaultConfig() Config {
	return Config{
		GCInterval:     10 * time.Minute,
		GCDiscardRatio: 0.5,
	}
}

// ConfigFromUnified 从统一配置转换
func ConfigFromUnified(cfg *config.Config) Config {
	c := DefaultConfig()
	if cfg != nil {
		c.Path = cfg.Storage.DBPath()
	}
	return c
}

// Validate 校验配置
func (c Config) Validate() error {
	if c.GCDiscardRatio <= 0 || c.GCDiscardRatio >= 1 {
		return ErrInvalidConfig
	}
	if c.GCInterval < 0 {
		return ErrInvalidConfig
	}
	return nil
}

// InMemory 是否为内存模式
func (c Config) InMemory() bool {
	return c.Path == ""
}
