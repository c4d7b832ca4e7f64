package communicator

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-distobj/internal/codec"
	"github.com/dep2p/go-distobj/internal/transport/memory"
	pkgif "github.com/dep2p/go-distobj/pkg/interfaces"
	"github.com/dep2p/go-distobj/pkg/types"
)

// received 一条收到的消息
type received struct {
	pipe types.PipeInfo
	from types.DeviceID
	data []byte
	info types.MessageInfo
}

// recordingObserver 记录收到的消息
type recordingObserver struct {
	mu   sync.Mutex
	msgs []received
}

func (o *recordingObserver) OnMessage(pipe types.PipeInfo, from types.DeviceID, data []byte, info types.MessageInfo) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.msgs = append(o.msgs, received{pipe: pipe, from: from, data: data, info: info})
}

func (o *recordingObserver) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.msgs)
}

func (o *recordingObserver) last() received {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.msgs[len(o.msgs)-1]
}

// panickingObserver 每次回调都 panic
type panickingObserver struct{}

func (*panickingObserver) OnMessage(types.PipeInfo, types.DeviceID, []byte, types.MessageInfo) {
	panic("observer failure")
}

// sliceObserver 不可比较的监听器类型
type sliceObserver []int

func (sliceObserver) OnMessage(types.PipeInfo, types.DeviceID, []byte, types.MessageInfo) {}

// stallTransport SendBytes 一直阻塞到 ctx 结束
type stallTransport struct {
	pkgif.SessionTransport
}

func (s stallTransport) SendBytes(ctx context.Context, _ pkgif.Connection, _ []byte) error {
	<-ctx.Done()
	return ctx.Err()
}

// testPeers 同一内存网络上的两台设备
type testPeers struct {
	net *memory.Network
	a   *Manager
	b   *Manager
}

const (
	deviceA = "device-a"
	deviceB = "device-b"
)

func newTestPeers(t *testing.T, opts ...Option) *testPeers {
	t.Helper()
	return newTestPeersOn(t, memory.NewNetwork(), opts...)
}

func newTestPeersOn(t *testing.T, n *memory.Network, opts ...Option) *testPeers {
	t.Helper()
	a, err := NewManager(n.Endpoint(deviceA), nil, opts...)
	require.NoError(t, err)
	b, err := NewManager(n.Endpoint(deviceB), nil, opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = a.Close()
		_ = b.Close()
	})
	return &testPeers{net: n, a: a, b: b}
}

func payload(s string) types.DataInfo {
	return types.DataInfo{Data: []byte(s), Length: uint32(len(s))}
}

// codecEnvelope 测试中构造信封
type codecEnvelope = codec.Envelope

// fakeConn 手工构造的连接
type fakeConn struct {
	id      uint64
	peer    string
	inbound bool
}

func (c fakeConn) ID() uint64          { return c.id }
func (c fakeConn) SessionName() string { return "pipe" }
func (c fakeConn) PeerDevice() string  { return c.peer }
func (c fakeConn) Inbound() bool       { return c.inbound }
