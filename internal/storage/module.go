package storage

import (
	"context"

	"go.uber.org/fx"

	"github.com/dep2p/go-distobj/config"
	pkgif "github.com/dep2p/go-distobj/pkg/interfaces"
)

// Params 存储模块依赖
type Params struct {
	fx.In

	UnifiedCfg *config.Config `optional:"true"`
}

// Result 存储模块输出
type Result struct {
	fx.Out

	Engine pkgif.Engine
}

// Module 返回存储 Fx 模块
//
// 生命周期:
//   - OnStop: 关闭引擎
func Module() fx.Option {
	return fx.Module("storage",
		fx.Provide(ProvideStorage),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideStorage 按配置打开存储引擎
func ProvideStorage(p Params) (Result, error) {
	eng, err := Open(ConfigFromUnified(p.UnifiedCfg))
	if err != nil {
		return Result{}, err
	}
	return Result{Engine: eng}, nil
}

func registerLifecycle(lc fx.Lifecycle, eng pkgif.Engine) {
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			logger.Info("正在关闭存储引擎")
			if err := eng.Close(); err != nil {
				logger.Warn("存储引擎关闭失败", "error", err)
				return err
			}
			return nil
		},
	})
}
