package communicator

import (
	"context"

	"go.uber.org/fx"

	"github.com/dep2p/go-distobj/config"
	pkgif "github.com/dep2p/go-distobj/pkg/interfaces"
)

// Params 管道模块依赖
type Params struct {
	fx.In

	UnifiedCfg *config.Config `optional:"true"`
	Transport  pkgif.SessionTransport
	Bus        pkgif.EventBus `optional:"true"`
}

// Result 管道模块输出
type Result struct {
	fx.Out

	Manager *Manager
}

// Module 返回管道 Fx 模块
//
// 生命周期:
//   - OnStop: 停止全部管道
func Module() fx.Option {
	return fx.Module("communicator",
		fx.Provide(ProvideManager),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideManager 提供管道管理器
func ProvideManager(p Params) (Result, error) {
	cfg := ConfigFromUnified(p.UnifiedCfg)
	m, err := NewManager(p.Transport, p.Bus, WithConfig(cfg))
	if err != nil {
		return Result{}, err
	}
	return Result{Manager: m}, nil
}

func registerLifecycle(lc fx.Lifecycle, m *Manager) {
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			logger.Info("正在停止管道管理器", "pipes", m.Count())
			return m.Close()
		},
	})
}
