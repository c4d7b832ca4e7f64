package distobj

import (
	"errors"
	"time"

	"go.uber.org/fx"

	"github.com/dep2p/go-distobj/config"
	"github.com/dep2p/go-distobj/internal/transport/memory"
	pkgif "github.com/dep2p/go-distobj/pkg/interfaces"
)

// MemoryNetwork 进程内网络，多个 Store 共享时互为对端
type MemoryNetwork = memory.Network

// NewMemoryNetwork 创建进程内网络
func NewMemoryNetwork() *MemoryNetwork {
	return memory.NewNetwork()
}

// Option 配置选项
type Option func(*options) error

type options struct {
	config    *config.Config
	network   *memory.Network
	deviceMgr pkgif.DeviceManager
	fxOptions []fx.Option
}

func newOptions() *options {
	return &options{config: config.NewConfig()}
}

// WithConfig 使用完整配置，之后的选项在其基础上修改
func WithConfig(cfg *config.Config) Option {
	return func(o *options) error {
		if cfg == nil {
			return errors.New("nil config")
		}
		c := *cfg
		c.Transport.KnownPeers = append([]config.KnownPeer(nil), cfg.Transport.KnownPeers...)
		o.config = &c
		return nil
	}
}

// WithMemoryNetwork 使用进程内传输并加入给定网络
func WithMemoryNetwork(n *MemoryNetwork) Option {
	return func(o *options) error {
		if n == nil {
			return errors.New("nil memory network")
		}
		o.network = n
		o.config.Transport.Kind = config.TransportMemory
		return nil
	}
}

// WithDeviceManager 使用平台提供的设备管理器
func WithDeviceManager(m pkgif.DeviceManager) Option {
	return func(o *options) error {
		o.deviceMgr = m
		return nil
	}
}

// WithDeviceID 设置本机网络 ID
func WithDeviceID(id string) Option {
	return func(o *options) error {
		o.config.Device.NetworkID = id
		if o.config.Device.UUID == "" {
			o.config.Device.UUID = id
		}
		return nil
	}
}

// WithTCP 使用 TCP 传输并监听 addr
func WithTCP(addr string) Option {
	return func(o *options) error {
		o.config.Transport.Kind = config.TransportTCP
		o.config.Transport.ListenAddr = addr
		return nil
	}
}

// WithPeer 登记 TCP 对端地址
func WithPeer(deviceID, addr string) Option {
	return func(o *options) error {
		o.config.Transport.KnownPeers = append(o.config.Transport.KnownPeers,
			config.KnownPeer{DeviceID: deviceID, Addr: addr})
		return nil
	}
}

// WithDataDir 持久化到磁盘目录
func WithDataDir(dir string) Option {
	return func(o *options) error {
		o.config.Storage.DataDir = dir
		o.config.Storage.InMemory = false
		return nil
	}
}

// WithSendTimeout 设置管道发送超时
func WithSendTimeout(d time.Duration) Option {
	return func(o *options) error {
		o.config.Communicator.SendTimeout = config.Duration(d)
		return nil
	}
}

// WithFxOption 追加自定义 Fx 选项
func WithFxOption(opts ...fx.Option) Option {
	return func(o *options) error {
		o.fxOptions = append(o.fxOptions, opts...)
		return nil
	}
}
