package tcp

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	pkgif "github.com/dep2p/go-distobj/pkg/interfaces"
)

// recorder 记录会话回调
type recorder struct {
	mu       sync.Mutex
	opened   []pkgif.Connection
	closed   []pkgif.Connection
	received [][]byte
}

func (r *recorder) OnSessionOpened(c pkgif.Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.opened = append(r.opened, c)
}

func (r *recorder) OnSessionClosed(c pkgif.Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = append(r.closed, c)
}

func (r *recorder) OnBytesReceived(_ pkgif.Connection, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.received = append(r.received, data)
}

func (r *recorder) counts() (opened, closed, received int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.opened), len(r.closed), len(r.received)
}

func (r *recorder) firstOpened() pkgif.Connection {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.opened) == 0 {
		return nil
	}
	return r.opened[0]
}

// newPair 创建互相登记了地址的两个传输
func newPair(t *testing.T) (*Transport, *Transport) {
	t.Helper()
	a, err := New("dev-a", WithHandshakeTimeout(2*time.Second))
	require.NoError(t, err)
	b, err := New("dev-b", WithHandshakeTimeout(2*time.Second))
	require.NoError(t, err)
	a.AddPeer("dev-b", b.Addr().String())
	b.AddPeer("dev-a", a.Addr().String())
	t.Cleanup(func() {
		_ = a.Close()
		_ = b.Close()
	})
	return a, b
}

const waitFor = 3 * time.Second
const tick = 10 * time.Millisecond
