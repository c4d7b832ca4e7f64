package notifier

import (
	"go.uber.org/fx"

	pkgif "github.com/dep2p/go-distobj/pkg/interfaces"
)

// Result 模块输出
type Result struct {
	fx.Out

	Notifier *Notifier
	Status   pkgif.StatusNotifier
}

// Module 返回 notifier Fx 模块，提供进程级 Notifier
func Module() fx.Option {
	return fx.Module("notifier",
		fx.Provide(ProvideNotifier),
	)
}

// ProvideNotifier 提供进程级 Notifier
func ProvideNotifier() Result {
	n := Instance()
	return Result{Notifier: n, Status: n}
}
