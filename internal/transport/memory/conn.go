package memory

import (
	"sync/atomic"

	pkgif "github.com/dep2p/go-distobj/pkg/interfaces"
)

// conn 一条会话连接的一端
type conn struct {
	id      uint64
	srv     *server
	peer    string
	inbound bool

	other  *conn
	closed atomic.Bool
}

var _ pkgif.Connection = (*conn)(nil)

func (c *conn) ID() uint64          { return c.id }
func (c *conn) SessionName() string { return c.srv.name }
func (c *conn) PeerDevice() string  { return c.peer }
func (c *conn) Inbound() bool       { return c.inbound }

func (c *conn) isClosed() bool {
	return c.closed.Load()
}

// detach 标记关闭并从端点摘除，只有第一次调用返回 true
func (c *conn) detach() bool {
	if !c.closed.CompareAndSwap(false, true) {
		return false
	}
	ep := c.srv.ep
	ep.mu.Lock()
	delete(ep.conns, c.id)
	ep.mu.Unlock()
	return true
}

// shutdown 本端被动关闭：两端都摘除，并通知仍存活的另一端
//
// 本端监听器不会收到回调，由调用方负责自身状态。
func (c *conn) shutdown() {
	c.detach()
	if c.other != nil && c.other.detach() {
		c.other.srv.listener.OnSessionClosed(c.other)
	}
}
