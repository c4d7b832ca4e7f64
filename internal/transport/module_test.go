package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/dep2p/go-distobj/config"
	"github.com/dep2p/go-distobj/internal/device"
	"github.com/dep2p/go-distobj/internal/transport/memory"
	"github.com/dep2p/go-distobj/internal/transport/tcp"
	pkgif "github.com/dep2p/go-distobj/pkg/interfaces"
)

func newConfig(kind, networkID string) *config.Config {
	cfg := config.NewConfig()
	cfg.Transport.Kind = kind
	cfg.Device.UUID = networkID
	return cfg
}

func TestModule_Memory(t *testing.T) {
	n := memory.NewNetwork()
	var tr pkgif.SessionTransport
	app := fxtest.New(t,
		fx.Supply(newConfig(config.TransportMemory, "dev-a"), n),
		device.Module(),
		Module(),
		fx.Populate(&tr),
	)
	app.RequireStart()

	ep, ok := tr.(*memory.Endpoint)
	require.True(t, ok)
	assert.Equal(t, "dev-a", ep.LocalDevice())
	assert.Same(t, ep, n.Endpoint("dev-a"), "使用注入的网络")

	app.RequireStop()
	assert.Zero(t, n.Devices())
}

func TestModule_TCP(t *testing.T) {
	var tr pkgif.SessionTransport
	app := fxtest.New(t,
		fx.Supply(newConfig(config.TransportTCP, "dev-a")),
		device.Module(),
		Module(),
		fx.Populate(&tr),
	)
	app.RequireStart()

	tt, ok := tr.(*tcp.Transport)
	require.True(t, ok)
	assert.Equal(t, "dev-a", tt.LocalDevice())
	assert.NotNil(t, tt.Addr())

	app.RequireStop()
	_, err := tt.CreateSessionServer("pipe", nil)
	assert.Error(t, err)
}

func TestModule_UnknownKind(t *testing.T) {
	app := fx.New(
		fx.NopLogger,
		fx.Supply(newConfig("carrier-pigeon", "dev-a")),
		device.Module(),
		Module(),
		fx.Invoke(func(pkgif.SessionTransport) {}),
	)
	assert.Error(t, app.Err())
}
