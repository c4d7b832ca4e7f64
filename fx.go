package distobj

import (
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/dep2p/go-distobj/internal/communicator"
	"github.com/dep2p/go-distobj/internal/core/eventbus"
	"github.com/dep2p/go-distobj/internal/device"
	"github.com/dep2p/go-distobj/internal/notifier"
	"github.com/dep2p/go-distobj/internal/objectstore"
	"github.com/dep2p/go-distobj/internal/storage"
	"github.com/dep2p/go-distobj/internal/transport"
	pkgif "github.com/dep2p/go-distobj/pkg/interfaces"
)

// buildFxApp 构建 Fx 应用
//
// 模块顺序即 OnStart 顺序，OnStop 逆序：
//  1. 基础：EventBus, Device, Storage
//  2. 传输：memory 或 tcp
//  3. 服务：Notifier, Communicator, ObjectStore
func buildFxApp(o *options, s *Store) (*fx.App, error) {
	if err := o.config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	modules := []fx.Option{
		fx.Supply(o.config),

		eventbus.Module(),
		device.Module(),
		storage.Module(),
	}

	if mgr := o.deviceMgr; mgr != nil {
		modules = append(modules, fx.Provide(func() pkgif.DeviceManager { return mgr }))
	}
	if o.network != nil {
		modules = append(modules, fx.Supply(o.network))
	}

	modules = append(modules,
		transport.Module(),
		notifier.Module(),
		communicator.Module(),
		objectstore.Module(),
	)
	modules = append(modules, o.fxOptions...)

	modules = append(modules,
		fx.Populate(&s.registry, &s.transport, &s.pipes, &s.notifier, &s.objects),
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: zap.NewNop()}
		}),
	)

	app := fx.New(modules...)
	if err := app.Err(); err != nil {
		return nil, err
	}
	return app, nil
}
