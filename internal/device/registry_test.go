package device

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/dep2p/go-distobj/config"
	"github.com/dep2p/go-distobj/pkg/types"
)

var testLocal = types.DeviceDetail{
	UUID:       "uuid-local",
	NetworkID:  "net-local",
	DeviceName: "phone",
	DeviceType: "smartphone",
}

func TestNewRegistry_NilManager(t *testing.T) {
	_, err := NewRegistry(nil)
	assert.ErrorIs(t, err, ErrNilManager)
}

func TestRegistry_LocalDeviceResolvedOnce(t *testing.T) {
	m := &mockManager{}
	m.On("GetLocalDeviceInfo").Return(testLocal, nil).Once()

	r, err := NewRegistry(m)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := r.LocalDevice()
			assert.NoError(t, err)
			assert.Equal(t, testLocal, d)
		}()
	}
	wg.Wait()

	m.AssertNumberOfCalls(t, "GetLocalDeviceInfo", 1)
}

func TestRegistry_LocalDeviceRetriesAfterFailure(t *testing.T) {
	m := &mockManager{}
	m.On("GetLocalDeviceInfo").Return(types.DeviceDetail{}, errors.New("service down")).Once()
	m.On("GetLocalDeviceInfo").Return(testLocal, nil).Once()

	r, err := NewRegistry(m)
	require.NoError(t, err)

	_, err = r.LocalDevice()
	assert.ErrorIs(t, err, ErrLocalDeviceUnavailable)

	d, err := r.LocalDevice()
	require.NoError(t, err)
	assert.Equal(t, "uuid-local", d.UUID)
	m.AssertExpectations(t)
}

func TestRegistry_ResolveUUID(t *testing.T) {
	m := &mockManager{}
	m.On("GetUUIDByNodeID", "node-1").Return("uuid-1")
	m.On("GetUUIDByNodeID", "node-x").Return("")

	r, err := NewRegistry(m)
	require.NoError(t, err)

	t.Run("已知设备被缓存", func(t *testing.T) {
		assert.Equal(t, "uuid-1", r.ResolveUUID("node-1"))
		assert.Equal(t, "uuid-1", r.ResolveUUID("node-1"))
		m.AssertNumberOfCalls(t, "GetUUIDByNodeID", 1)
		assert.Equal(t, 1, r.CachedPeers())
	})

	t.Run("未知设备返回空串且不缓存", func(t *testing.T) {
		assert.Empty(t, r.ResolveUUID("node-x"))
		assert.Empty(t, r.ResolveUUID("node-x"))
		assert.Equal(t, 1, r.CachedPeers())
	})

	t.Run("空节点 ID", func(t *testing.T) {
		assert.Empty(t, r.ResolveUUID(""))
		m.AssertNotCalled(t, "GetUUIDByNodeID", "")
	})

	t.Run("Forget 后重新查询", func(t *testing.T) {
		r.Forget("node-1")
		assert.Equal(t, "uuid-1", r.ResolveUUID("node-1"))
		assert.Equal(t, 2, countCalls(m, "node-1"))
	})
}

func countCalls(m *mockManager, nodeID string) int {
	n := 0
	for _, c := range m.Calls {
		if c.Method == "GetUUIDByNodeID" && c.Arguments.String(0) == nodeID {
			n++
		}
	}
	return n
}

func TestRegistry_CacheExpires(t *testing.T) {
	m := &mockManager{}
	m.On("GetUUIDByNodeID", "node-1").Return("uuid-1")

	r, err := NewRegistry(m, WithCacheTTL(20*time.Millisecond))
	require.NoError(t, err)

	assert.Equal(t, "uuid-1", r.ResolveUUID("node-1"))
	assert.Eventually(t, func() bool { return r.CachedPeers() == 0 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, "uuid-1", r.ResolveUUID("node-1"))
	m.AssertNumberOfCalls(t, "GetUUIDByNodeID", 2)
}

func TestRegistry_ResolveDeduplicates(t *testing.T) {
	release := make(chan struct{})
	m := &mockManager{}
	m.On("GetUUIDByNodeID", "node-slow").
		WaitUntil(time.After(50 * time.Millisecond)).
		Return("uuid-slow")

	r, err := NewRegistry(m)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-release
			assert.Equal(t, "uuid-slow", r.ResolveUUID("node-slow"))
		}()
	}
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, countCalls(m, "node-slow"), 8)
	m.AssertCalled(t, "GetUUIDByNodeID", "node-slow")
}

func TestStaticManager(t *testing.T) {
	m := NewStaticManager(testLocal)
	assert.Equal(t, "uuid-local", m.GetUUIDByNodeID("net-local"))

	m.AddPeer("node-2", "uuid-2")
	assert.Equal(t, "uuid-2", m.GetUUIDByNodeID("node-2"))
	m.RemovePeer("node-2")
	assert.Empty(t, m.GetUUIDByNodeID("node-2"))

	_, err := NewStaticManager(types.DeviceDetail{}).GetLocalDeviceInfo()
	assert.ErrorIs(t, err, ErrLocalDeviceUnavailable)
}

func TestInstance(t *testing.T) {
	SetInstance(nil)
	t.Cleanup(func() { SetInstance(nil) })

	a := Instance()
	b := Instance()
	assert.Same(t, a, b)

	d, err := a.LocalDevice()
	require.NoError(t, err)
	assert.NotEmpty(t, d.UUID)

	custom, err := NewRegistry(NewStaticManager(testLocal))
	require.NoError(t, err)
	SetInstance(custom)
	assert.Same(t, custom, Instance())
}

func TestModule(t *testing.T) {
	t.Cleanup(func() { SetInstance(nil) })

	cfg := config.NewConfig()
	cfg.Device.UUID = "uuid-cfg"
	cfg.Device.Peers = map[string]string{"node-9": "uuid-9"}

	var r *Registry
	app := fxtest.New(t,
		fx.Supply(cfg),
		Module(),
		fx.Populate(&r),
	)
	app.RequireStart()
	defer app.RequireStop()

	d, err := r.LocalDevice()
	require.NoError(t, err)
	assert.Equal(t, "uuid-cfg", d.UUID)
	assert.Equal(t, "uuid-9", r.ResolveUUID("node-9"))
	assert.Same(t, r, Instance())
}
