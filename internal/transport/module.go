// Package transport 按配置选择会话传输实现
//
//   - memory: 进程内网络，多个 Store 可共享同一个 *memory.Network
//   - tcp:    TCP + yamux
package transport

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/fx"

	"github.com/dep2p/go-distobj/config"
	"github.com/dep2p/go-distobj/internal/device"
	"github.com/dep2p/go-distobj/internal/transport/memory"
	"github.com/dep2p/go-distobj/internal/transport/tcp"
	pkgif "github.com/dep2p/go-distobj/pkg/interfaces"
	"github.com/dep2p/go-distobj/pkg/lib/log"
)

var logger = log.Logger("transport")

// Params 传输模块依赖
type Params struct {
	fx.In

	UnifiedCfg *config.Config `optional:"true"`
	Registry   *device.Registry
	Network    *memory.Network `optional:"true"`
}

// Result 传输模块输出
type Result struct {
	fx.Out

	Transport pkgif.SessionTransport
}

// Module 返回传输 Fx 模块
//
// 生命周期:
//   - OnStop: 关闭传输
func Module() fx.Option {
	return fx.Module("transport",
		fx.Provide(ProvideTransport),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideTransport 以本机网络 ID 创建传输
func ProvideTransport(p Params) (Result, error) {
	local, err := p.Registry.LocalDevice()
	if err != nil {
		return Result{}, err
	}

	kind := config.TransportMemory
	if p.UnifiedCfg != nil {
		kind = p.UnifiedCfg.Transport.Kind
	}

	switch kind {
	case config.TransportMemory:
		n := p.Network
		if n == nil {
			n = memory.NewNetwork()
		}
		return Result{Transport: n.Endpoint(local.NetworkID)}, nil
	case config.TransportTCP:
		t, err := tcp.New(local.NetworkID, tcp.WithConfig(tcp.ConfigFromUnified(p.UnifiedCfg)))
		if err != nil {
			return Result{}, err
		}
		return Result{Transport: t}, nil
	default:
		return Result{}, fmt.Errorf("unknown transport kind %q", kind)
	}
}

func registerLifecycle(lc fx.Lifecycle, t pkgif.SessionTransport) {
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			c, ok := t.(io.Closer)
			if !ok {
				return nil
			}
			logger.Info("正在关闭传输", "device", log.Anonymize(t.LocalDevice()))
			return c.Close()
		},
	})
}
