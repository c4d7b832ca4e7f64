package communicator

import (
	"time"

	"github.com/dep2p/go-distobj/config"
	"github.com/dep2p/go-distobj/internal/codec"
)

// Config 管道管理器配置
type Config struct {
	// SendTimeout 单次 SendData 的最长等待，0 表示不限制
	SendTimeout time.Duration

	// CloseWaitTimeout Stop 等待回调退出的最长时间
	CloseWaitTimeout time.Duration

	// CompressThreshold 载荷压缩阈值，0 表示不压缩
	CompressThreshold int

	// EnableMetrics 是否把指标注册到 Registry
	EnableMetrics bool
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		SendTimeout:       30 * time.Second,
		CloseWaitTimeout:  5 * time.Second,
		CompressThreshold: codec.DefaultCompressThreshold,
		EnableMetrics:     true,
	}
}

// ConfigFromUnified 从统一配置转换
func ConfigFromUnified(cfg *config.Config) *Config {
	c := DefaultConfig()
	if cfg == nil {
		return c
	}
	cc := cfg.Communicator
	c.SendTimeout = cc.SendTimeout.Duration()
	c.CloseWaitTimeout = cc.CloseWaitTimeout.OrDefault(c.CloseWaitTimeout)
	c.CompressThreshold = cc.CompressThreshold
	c.EnableMetrics = cc.EnableMetrics
	return c
}

// Option 配置选项
type Option func(*Config)

// WithConfig 整体替换配置
func WithConfig(cfg *Config) Option {
	return func(c *Config) {
		if cfg != nil {
			*c = *cfg
		}
	}
}

// WithSendTimeout 设置发送超时
func WithSendTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.SendTimeout = d
	}
}

// WithCloseWaitTimeout 设置 Stop 等待回调退出的时间
func WithCloseWaitTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.CloseWaitTimeout = d
	}
}

// WithCompressThreshold 设置压缩阈值
func WithCompressThreshold(n int) Option {
	return func(c *Config) {
		c.CompressThreshold = n
	}
}

// WithMetrics 是否启用指标
func WithMetrics(enabled bool) Option {
	return func(c *Config) {
		c.EnableMetrics = enabled
	}
}
