package tcp

import (
	"io"
	"time"

	"github.com/hashicorp/yamux"

	"github.com/dep2p/go-distobj/config"
)

// Config TCP 传输配置
type Config struct {
	// ListenAddr 监听地址
	ListenAddr string

	// DialTimeout 拨号超时
	DialTimeout time.Duration

	// HandshakeTimeout hello 交换和 open 应答的超时
	HandshakeTimeout time.Duration

	// Peers 设备 ID -> 拨号地址
	Peers map[string]string

	// Yamux 多路复用参数
	Yamux *yamux.Config
}

// DefaultYamuxConfig 返回默认的 yamux 配置
func DefaultYamuxConfig() *yamux.Config {
	cfg := yamux.DefaultConfig()
	cfg.AcceptBacklog = 256
	cfg.EnableKeepAlive = true
	cfg.KeepAliveInterval = 30 * time.Second
	cfg.ConnectionWriteTimeout = 10 * time.Second
	cfg.MaxStreamWindowSize = 256 * 1024
	cfg.LogOutput = io.Discard
	return cfg
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		ListenAddr:       "127.0.0.1:0",
		DialTimeout:      10 * time.Second,
		HandshakeTimeout: 5 * time.Second,
		Peers:            make(map[string]string),
		Yamux:            DefaultYamuxConfig(),
	}
}

// ConfigFromUnified 从统一配置转换
func ConfigFromUnified(cfg *config.Config) Config {
	c := DefaultConfig()
	if cfg == nil {
		return c
	}
	t := cfg.Transport
	c.ListenAddr = t.ListenAddr
	c.DialTimeout = t.DialTimeout.OrDefault(c.DialTimeout)
	c.HandshakeTimeout = t.HandshakeTimeout.OrDefault(c.HandshakeTimeout)
	for _, p := range t.KnownPeers {
		c.Peers[p.DeviceID] = p.Addr
	}
	if t.Yamux.AcceptBacklog > 0 {
		c.Yamux.AcceptBacklog = t.Yamux.AcceptBacklog
	}
	c.Yamux.KeepAliveInterval = t.Yamux.KeepAliveInterval.OrDefault(c.Yamux.KeepAliveInterval)
	c.Yamux.ConnectionWriteTimeout = t.Yamux.ConnectionWriteTimeout.OrDefault(c.Yamux.ConnectionWriteTimeout)
	if t.Yamux.MaxStreamWindowSize > 0 {
		c.Yamux.MaxStreamWindowSize = t.Yamux.MaxStreamWindowSize
	}
	return c
}

// Option 传输选项
type Option func(*Config)

// WithConfig 整体替换配置
func WithConfig(cfg Config) Option {
	return func(c *Config) {
		*c = cfg
	}
}

// WithListenAddr 设置监听地址
func WithListenAddr(addr string) Option {
	return func(c *Config) {
		c.ListenAddr = addr
	}
}

// WithPeer 登记对端拨号地址
func WithPeer(device, addr string) Option {
	return func(c *Config) {
		if c.Peers == nil {
			c.Peers = make(map[string]string)
		}
		c.Peers[device] = addr
	}
}

// WithDialTimeout 设置拨号超时
func WithDialTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.DialTimeout = d
	}
}

// WithHandshakeTimeout 设置握手超时
func WithHandshakeTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.HandshakeTimeout = d
	}
}
