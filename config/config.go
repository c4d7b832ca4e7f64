// Package config 提供统一的配置管理
//
// 主 Config 结构体嵌入所有子配置，每个子配置在独立文件中定义，
// 支持从 JSON 加载和保存。
//
// 使用示例：
//
//	cfg := config.NewConfig()
//	cfg.Transport.Kind = config.TransportTCP
//	cfg.Transport.ListenAddr = "0.0.0.0:7946"
//
//	// 从文件加载
//	cfg, err := config.LoadFile("distobj.json")
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config 是 distobj 的完整配置结构
//
//   - Device: 本机设备身份与对端 UUID 缓存
//   - Communicator: 管道管理器
//   - Transport: 会话传输（内存/TCP+yamux）
//   - Storage: 对象持久化
//   - Object: 分布式对象
//   - Log: 日志输出
type Config struct {
	// Device 设备配置
	Device DeviceConfig `json:"device"`

	// Communicator 管道通信配置
	Communicator CommunicatorConfig `json:"communicator"`

	// Transport 传输层配置
	Transport TransportConfig `json:"transport"`

	// Storage 存储配置
	Storage StorageConfig `json:"storage"`

	// Object 分布式对象配置
	Object ObjectConfig `json:"object"`

	// Log 日志配置
	Log LogConfig `json:"log"`
}

// NewConfig 创建默认配置
func NewConfig() *Config {
	return &Config{
		Device:       DefaultDeviceConfig(),
		Communicator: DefaultCommunicatorConfig(),
		Transport:    DefaultTransportConfig(),
		Storage:      DefaultStorageConfig(),
		Object:       DefaultObjectConfig(),
		Log:          DefaultLogConfig(),
	}
}

// Validate 验证配置的有效性
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config is nil")
	}
	if err := c.Device.Validate(); err != nil {
		return err
	}
	if err := c.Communicator.Validate(); err != nil {
		return err
	}
	if err := c.Transport.Validate(); err != nil {
		return err
	}
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	if err := c.Object.Validate(); err != nil {
		return err
	}
	return c.Log.Validate()
}

// FromJSON 从 JSON 数据创建配置，未出现的字段保持默认值
func FromJSON(data []byte) (*Config, error) {
	cfg := NewConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// ToJSON 序列化为缩进 JSON
func (c *Config) ToJSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

// LoadFile 从文件加载并验证配置
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	cfg, err := FromJSON(data)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveFile 保存配置到文件
func (c *Config) SaveFile(path string) error {
	data, err := c.ToJSON()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
