package device

import (
	"go.uber.org/fx"

	"github.com/dep2p/go-distobj/config"
	pkgif "github.com/dep2p/go-distobj/pkg/interfaces"
)

// Params 设备模块依赖
type Params struct {
	fx.In

	UnifiedCfg *config.Config      `optional:"true"`
	Manager    pkgif.DeviceManager `optional:"true"`
}

// Result 设备模块输出
type Result struct {
	fx.Out

	Registry *Registry
}

// Module 返回设备 Fx 模块
//
// 未注入 DeviceManager 时按配置构造 StaticManager。
// 构造出的注册表同时登记为进程级单例。
func Module() fx.Option {
	return fx.Module("device",
		fx.Provide(ProvideRegistry),
		fx.Invoke(SetInstance),
	)
}

// ProvideRegistry 提供设备注册表
func ProvideRegistry(p Params) (Result, error) {
	cfg := config.DefaultDeviceConfig()
	if p.UnifiedCfg != nil {
		cfg = p.UnifiedCfg.Device
	}

	mgr := p.Manager
	if mgr == nil {
		mgr = ManagerFromConfig(cfg)
	}

	r, err := NewRegistry(mgr,
		WithCacheSize(cfg.CacheSize),
		WithCacheTTL(cfg.CacheTTL.OrDefault(DefaultConfig().CacheTTL)),
	)
	if err != nil {
		return Result{}, err
	}
	return Result{Registry: r}, nil
}

// ManagerFromConfig 按配置构造静态设备管理器，缺省字段自动补全
func ManagerFromConfig(cfg config.DeviceConfig) *StaticManager {
	local := DefaultLocalDevice()
	if cfg.UUID != "" {
		local.UUID = cfg.UUID
		local.NetworkID = cfg.UUID
	}
	if cfg.NetworkID != "" {
		local.NetworkID = cfg.NetworkID
	}
	if cfg.DeviceName != "" {
		local.DeviceName = cfg.DeviceName
	}
	if cfg.DeviceType != "" {
		local.DeviceType = cfg.DeviceType
	}

	m := NewStaticManager(local)
	for node, id := range cfg.Peers {
		m.AddPeer(node, id)
	}
	return m
}
