package device

import "time"

// Config 设备注册表配置
type Config struct {
	// CacheSize 对端 UUID 缓存容量
	CacheSize int

	// CacheTTL 对端 UUID 缓存有效期
	CacheTTL time.Duration
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		CacheSize: 256,
		CacheTTL:  30 * time.Second,
	}
}

// Option 配置选项
type Option func(*Config)

// WithCacheSize 设置缓存容量
func WithCacheSize(n int) Option {
	return func(c *Config) {
		c.CacheSize = n
	}
}

// WithCacheTTL 设置缓存有效期
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Config) {
		c.CacheTTL = ttl
	}
}
