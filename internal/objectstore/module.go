package objectstore

import (
	"context"

	"go.uber.org/fx"

	"github.com/dep2p/go-distobj/config"
	"github.com/dep2p/go-distobj/internal/communicator"
	"github.com/dep2p/go-distobj/internal/device"
	"github.com/dep2p/go-distobj/internal/notifier"
	pkgif "github.com/dep2p/go-distobj/pkg/interfaces"
)

// Params 对象存储模块依赖
type Params struct {
	fx.In

	UnifiedCfg *config.Config `optional:"true"`
	Pipes      *communicator.Manager
	Registry   *device.Registry
	Engine     pkgif.Engine
	Bus        pkgif.EventBus     `optional:"true"`
	Notifier   *notifier.Notifier `optional:"true"`
}

// Result 对象存储模块输出
type Result struct {
	fx.Out

	Store *Store
}

// Module 返回对象存储 Fx 模块
//
// 生命周期:
//   - OnStart: 启动快照管道
//   - OnStop:  销毁对象并停止管道
func Module() fx.Option {
	return fx.Module("objectstore",
		fx.Provide(ProvideStore),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideStore 提供对象存储
func ProvideStore(p Params) (Result, error) {
	cfg := ConfigFromUnified(p.UnifiedCfg)
	cfg.Notifier = p.Notifier
	s, err := NewStore(p.Pipes, p.Registry, p.Engine, p.Bus, WithConfig(cfg))
	if err != nil {
		return Result{}, err
	}
	return Result{Store: s}, nil
}

func registerLifecycle(lc fx.Lifecycle, s *Store) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			return s.Start()
		},
		OnStop: func(_ context.Context) error {
			logger.Info("正在关闭对象存储", "objects", len(s.Sessions()))
			return s.Close()
		},
	})
}
