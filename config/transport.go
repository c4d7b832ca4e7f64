package config

import (
	"fmt"
	"net"
	"time"
)

// 传输类型
const (
	// TransportMemory 进程内传输
	TransportMemory = "memory"
	// TransportTCP TCP + yamux
	TransportTCP = "tcp"
)

// KnownPeer 已知对端
//
// TCP 传输按设备 ID 查找拨号地址。
type KnownPeer struct {
	// DeviceID 对端设备 ID
	DeviceID string `json:"device_id"`

	// Addr 对端监听地址，host:port
	Addr string `json:"addr"`
}

// YamuxConfig yamux 多路复用参数
type YamuxConfig struct {
	// AcceptBacklog 未接受的流上限
	AcceptBacklog int `json:"accept_backlog"`

	// KeepAliveInterval 心跳间隔
	KeepAliveInterval Duration `json:"keep_alive_interval"`

	// ConnectionWriteTimeout 写超时
	ConnectionWriteTimeout Duration `json:"connection_write_timeout"`

	// MaxStreamWindowSize 单流最大窗口
	MaxStreamWindowSize uint32 `json:"max_stream_window_size"`
}

// TransportConfig 传输层配置
type TransportConfig struct {
	// Kind 传输类型：memory 或 tcp
	Kind string `json:"kind"`

	// ListenAddr TCP 监听地址
	ListenAddr string `json:"listen_addr"`

	// DialTimeout 拨号超时
	DialTimeout Duration `json:"dial_timeout"`

	// HandshakeTimeout 握手超时
	HandshakeTimeout Duration `json:"handshake_timeout"`

	// KnownPeers 已知对端地址簿
	KnownPeers []KnownPeer `json:"known_peers,omitempty"`

	// Yamux 多路复用参数
	Yamux YamuxConfig `json:"yamux"`
}

// DefaultTransportConfig 返回默认传输配置
func DefaultTransportConfig() TransportConfig {
	return TransportConfig{
		Kind:             TransportMemory,
		ListenAddr:       "127.0.0.1:0",
		DialTimeout:      Duration(10 * time.Second),
		HandshakeTimeout: Duration(5 * time.Second),
		Yamux: YamuxConfig{
			AcceptBacklog:          256,
			KeepAliveInterval:      Duration(30 * time.Second),
			ConnectionWriteTimeout: Duration(10 * time.Second),
			MaxStreamWindowSize:    256 * 1024,
		},
	}
}

// Validate 验证传输配置
func (c *TransportConfig) Validate() error {
	switch c.Kind {
	case TransportMemory:
	case TransportTCP:
		if _, _, err := net.SplitHostPort(c.ListenAddr); err != nil {
			return fmt.Errorf("transport: invalid listen_addr %q: %w", c.ListenAddr, err)
		}
	default:
		return fmt.Errorf("transport: unknown kind %q", c.Kind)
	}
	if c.DialTimeout <= 0 || c.HandshakeTimeout <= 0 {
		return fmt.Errorf("transport: timeouts must be positive")
	}
	for _, p := range c.KnownPeers {
		if p.DeviceID == "" {
			return fmt.Errorf("transport: known peer without device_id")
		}
		if _, _, err := net.SplitHostPort(p.Addr); err != nil {
			return fmt.Errorf("transport: invalid addr for peer %q: %w", p.DeviceID, err)
		}
	}
	if c.Yamux.AcceptBacklog <= 0 {
		return fmt.Errorf("transport: yamux accept_backlog must be positive")
	}
	if c.Yamux.MaxStreamWindowSize < 256*1024 {
		return fmt.Errorf("transport: yamux max_stream_window_size must be at least 256KiB")
	}
	return nil
}
