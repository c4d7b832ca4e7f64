package eventbus

import (
	"context"

	"go.uber.org/fx"

	pkgif "github.com/dep2p/go-distobj/pkg/interfaces"
)

// Result 事件总线模块输出
type Result struct {
	fx.Out

	Bus      *Bus
	EventBus pkgif.EventBus
}

// Module 返回事件总线 Fx 模块
func Module() fx.Option {
	return fx.Module("eventbus",
		fx.Provide(ProvideEventBus),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideEventBus 提供进程内事件总线
func ProvideEventBus() Result {
	b := NewBus()
	return Result{Bus: b, EventBus: b}
}

func registerLifecycle(lc fx.Lifecycle, b *Bus) {
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			if n := b.Dropped(); n > 0 {
				logger.Warn("事件总线存在丢弃", "dropped", n)
			}
			return nil
		},
	})
}
