package objectstore

import (
	"sync"
	"testing"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-distobj/internal/communicator"
	"github.com/dep2p/go-distobj/internal/core/eventbus"
	"github.com/dep2p/go-distobj/internal/device"
	"github.com/dep2p/go-distobj/internal/notifier"
	"github.com/dep2p/go-distobj/internal/storage"
	"github.com/dep2p/go-distobj/internal/transport/memory"
	"github.com/dep2p/go-distobj/pkg/types"
)

// node 一台测试设备上的完整对象存储
type node struct {
	store    *Store
	notifier *notifier.Notifier
	clock    *clock.Mock
}

func newNode(t *testing.T, net *memory.Network, id string) *node {
	t.Helper()

	reg, err := device.NewRegistry(device.NewStaticManager(types.DeviceDetail{
		UUID:       "uuid-" + id,
		NetworkID:  id,
		DeviceName: id,
		DeviceType: device.DefaultDeviceType,
	}))
	require.NoError(t, err)

	bus := eventbus.NewBus()
	pipes, err := communicator.NewManager(net.Endpoint(id), bus)
	require.NoError(t, err)

	eng, err := storage.Open(storage.DefaultConfig())
	require.NoError(t, err)

	n := notifier.New()
	clk := clock.NewMock()
	s, err := NewStore(pipes, reg, eng, bus, WithNotifier(n), WithClock(clk))
	require.NoError(t, err)
	require.NoError(t, s.Start())

	t.Cleanup(func() {
		_ = s.Close()
		_ = pipes.Close()
		_ = eng.Close()
	})
	return &node{store: s, notifier: n, clock: clk}
}

// eventLog 记录 Watcher 事件
type eventLog struct {
	mu     sync.Mutex
	events []notifier.Event
}

func (l *eventLog) OnEvent(e notifier.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) snapshot() []notifier.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]notifier.Event(nil), l.events...)
}

// statusLog 记录 StatusNotifier 调用
type statusLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *statusLog) OnChanged(sessionID, networkID, status string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, sessionID+"/"+networkID+"/"+status)
}

func (l *statusLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

// gatedStatus 在 gate 关闭前阻塞每次回调
type gatedStatus struct {
	statusLog
	gate chan struct{}
}

func (g *gatedStatus) OnChanged(sessionID, networkID, status string) {
	<-g.gate
	g.statusLog.OnChanged(sessionID, networkID, status)
}
