package memory

import (
	"sync"

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
