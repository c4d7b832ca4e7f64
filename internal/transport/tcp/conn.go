package tcp

import (
	"sync"
	"sync/atomic"

	"github.com/hashicorp/yamux"

	pkgif "github.com/dep2p/go-distobj/pkg/interfaces"
)

// server 会话服务端
type server struct {
	t        *Transport
	name     string
	listener pkgif.SessionListener
}

// Name 返回会话名称
func (s *server) Name() string { return s.name }

// conn 一条管道连接，对应一条 yamux 流
type conn struct {
	id      uint64
	srv     *server
	peer    string
	inbound bool
	stream  *yamux.Stream

	writeMu sync.Mutex
	closed  atomic.Bool
}

var _ pkgif.Connection = (*conn)(nil)

func (c *conn) ID() uint64          { return c.id }
func (c *conn) SessionName() string { return c.srv.name }
func (c *conn) PeerDevice() string  { return c.peer }
func (c *conn) Inbound() bool       { return c.inbound }

// detach 标记关闭、摘除并关闭流，只有第一次调用返回 true
func (c *conn) detach() bool {
	if !c.closed.CompareAndSwap(false, true) {
		return false
	}
	t := c.srv.t
	t.mu.Lock()
	delete(t.conns, c.id)
	t.mu.Unlock()
	_ = c.stream.Close()
	return true
}
