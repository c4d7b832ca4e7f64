package config

import (
	"fmt"
	"time"
)

// DeviceConfig 设备配置
//
// UUID 为空时启动时随机生成；Peers 为静态的节点 ID 到设备 UUID 映射，
// 在没有平台设备服务时使用。
type DeviceConfig struct {
	// UUID 本机设备 UUID
	UUID string `json:"uuid,omitempty"`

	// NetworkID 本机网络 ID，为空时与 UUID 相同
	NetworkID string `json:"network_id,omitempty"`

	// DeviceName 设备名，为空时使用主机名
	DeviceName string `json:"device_name,omitempty"`

	// DeviceType 设备类型
	DeviceType string `json:"device_type"`

	// Peers 节点 ID -> 设备 UUID
	Peers map[string]string `json:"peers,omitempty"`

	// CacheSize 对端 UUID 缓存容量
	CacheSize int `json:"cache_size"`

	// CacheTTL 对端 UUID 缓存有效期
	CacheTTL Duration `json:"cache_ttl"`
}

// DefaultDeviceConfig 返回默认设备配置
func DefaultDeviceConfig() DeviceConfig {
	return DeviceConfig{
		DeviceType: "default",
		CacheSize:  256,
		CacheTTL:   Duration(30 * time.Second),
	}
}

// Validate 验证设备配置
func (c *DeviceConfig) Validate() error {
	if c.CacheSize <= 0 {
		return fmt.Errorf("device: cache_size must be positive")
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("device: cache_ttl must be positive")
	}
	for node, id := range c.Peers {
		if node == "" || id == "" {
			return fmt.Errorf("device: peers entries cannot be empty")
		}
	}
	return nil
}
