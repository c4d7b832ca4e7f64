package config

import (
	"fmt"
	"time"
)

// ObjectConfig 分布式对象配置
type ObjectConfig struct {
	// PipeName 对象快照收发使用的管道
	PipeName string `json:"pipe_name"`

	// SaveTimeout Save/RevokeSave 推送到对端的超时
	SaveTimeout Duration `json:"save_timeout"`

	// MaxSessionIDLen 会话 ID 最大长度
	MaxSessionIDLen int `json:"max_session_id_len"`
}

// DefaultObjectConfig 返回默认的对象配置
func DefaultObjectConfig() ObjectConfig {
	return ObjectConfig{
		PipeName:        "distobj_object_store",
		SaveTimeout:     Duration(10 * time.Second),
		MaxSessionIDLen: 128,
	}
}

// Validate 验证对象配置
func (c *ObjectConfig) Validate() error {
	if c.PipeName == "" {
		return fmt.Errorf("object: pipe_name cannot be empty")
	}
	if c.SaveTimeout <= 0 {
		return fmt.Errorf("object: save_timeout must be positive")
	}
	if c.MaxSessionIDLen <= 0 {
		return fmt.Errorf("object: max_session_id_len must be positive")
	}
	return nil
}
