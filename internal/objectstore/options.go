package objectstore

import (
	"time"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-distobj/config"
	"github.com/dep2p/go-distobj/internal/notifier"
)

// Config Store 配置
type Config struct {
	// PipeName 快照收发管道
	PipeName string

	// SaveTimeout 推送快照的超时
	SaveTimeout time.Duration

	// MaxSessionIDLen 会话 ID 最大长度
	MaxSessionIDLen int

	// Clock 保存时间戳来源
	Clock clock.Clock

	// Notifier 会话 Watcher 表，为 nil 时使用进程级实例
	Notifier *notifier.Notifier
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	d := config.DefaultObjectConfig()
	return Config{
		PipeName:        d.PipeName,
		SaveTimeout:     d.SaveTimeout.Duration(),
		MaxSessionIDLen: d.MaxSessionIDLen,
		Clock:           clock.New(),
	}
}

// ConfigFromUnified 从统一配置转换
func ConfigFromUnified(cfg *config.Config) Config {
	c := DefaultConfig()
	if cfg == nil {
		return c
	}
	if cfg.Object.PipeName != "" {
		c.PipeName = cfg.Object.PipeName
	}
	c.SaveTimeout = cfg.Object.SaveTimeout.OrDefault(c.SaveTimeout)
	if cfg.Object.MaxSessionIDLen > 0 {
		c.MaxSessionIDLen = cfg.Object.MaxSessionIDLen
	}
	return c
}

// Option Store 选项
type Option func(*Config)

// WithConfig 整体替换配置
func WithConfig(cfg Config) Option {
	return func(c *Config) {
		*c = cfg
	}
}

// WithPipeName 设置快照管道
func WithPipeName(name string) Option {
	return func(c *Config) {
		c.PipeName = name
	}
}

// WithSaveTimeout 设置推送超时
func WithSaveTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.SaveTimeout = d
	}
}

// WithClock 设置时钟，测试中传入 clock.NewMock()
func WithClock(clk clock.Clock) Option {
	return func(c *Config) {
		c.Clock = clk
	}
}

// WithNotifier 设置 Watcher 表
func WithNotifier(n *notifier.Notifier) Option {
	return func(c *Config) {
		c.Notifier = n
	}
}
