package config

import (
	"fmt"
	"time"
)

// CommunicatorConfig 管道通信配置
type CommunicatorConfig struct {
	// SendTimeout 单次发送的最长等待时间，0 表示不限制
	SendTimeout Duration `json:"send_timeout"`

	// CloseWaitTimeout Stop 等待回调退出的最长时间
	CloseWaitTimeout Duration `json:"close_wait_timeout"`

	// CompressThreshold 载荷压缩阈值（字节），0 表示不压缩
	CompressThreshold int `json:"compress_threshold"`

	// EnableMetrics 是否采集 Prometheus 指标
	EnableMetrics bool `json:"enable_metrics"`
}

// DefaultCommunicatorConfig 返回默认管道通信配置
func DefaultCommunicatorConfig() CommunicatorConfig {
	return CommunicatorConfig{
		SendTimeout:       Duration(30 * time.Second),
		CloseWaitTimeout:  Duration(5 * time.Second),
		CompressThreshold: 64 * 1024,
		EnableMetrics:     true,
	}
}

// Validate 验证管道通信配置
func (c *CommunicatorConfig) Validate() error {
	if c.SendTimeout < 0 {
		return fmt.Errorf("communicator: send_timeout cannot be negative")
	}
	if c.CloseWaitTimeout < 0 {
		return fmt.Errorf("communicator: close_wait_timeout cannot be negative")
	}
	if c.CompressThreshold < 0 {
		return fmt.Errorf("communicator: compress_threshold cannot be negative")
	}
	return nil
}
