package memory

import (
	"context"
	"fmt"
	"sync"

	pkgif "github.com/dep2p/go-distobj/pkg/interfaces"
	"github.com/dep2p/go-distobj/pkg/lib/log"
)

// server 会话服务端
type server struct {
	ep       *Endpoint
	name     string
	listener pkgif.SessionListener
}

// Name 返回会话名称
func (s *server) Name() string { return s.name }

// Endpoint 单个设备在进程内网络上的端点
type Endpoint struct {
	net    *Network
	device string

	mu      sync.Mutex
	servers map[string]*server
	conns   map[uint64]*conn
	closed  bool
}

var _ pkgif.SessionTransport = (*Endpoint)(nil)

func newEndpoint(n *Network, device string) *Endpoint {
	return &Endpoint{
		net:     n,
		device:  device,
		servers: make(map[string]*server),
		conns:   make(map[uint64]*conn),
	}
}

// LocalDevice 本端设备 ID
func (e *Endpoint) LocalDevice() string {
	return e.device
}

// CreateSessionServer 创建会话服务端
func (e *Endpoint) CreateSessionServer(name string, listener pkgif.SessionListener) (pkgif.ServerHandle, error) {
	if err := pkgif.ValidateSessionName(name); err != nil {
		return nil, err
	}
	if e.net.isRejected(name) {
		return nil, fmt.Errorf("%w: %q", pkgif.ErrInvalidSessionName, name)
	}
	if listener == nil {
		return nil, fmt.Errorf("nil session listener")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, pkgif.ErrTransportClosed
	}
	if _, ok := e.servers[name]; ok {
		return nil, pkgif.ErrSessionServerExists
	}
	s := &server{ep: e, name: name, listener: listener}
	e.servers[name] = s
	return s, nil
}

// RemoveSessionServer 移除会话服务端并关闭其连接
//
// 注入的移除失败只影响返回值，服务端和连接照常释放。
func (e *Endpoint) RemoveSessionServer(h pkgif.ServerHandle) error {
	s, err := e.ownServer(h)
	if err != nil {
		return err
	}

	e.mu.Lock()
	if e.servers[s.name] != s {
		e.mu.Unlock()
		return pkgif.ErrSessionServerNotFound
	}
	delete(e.servers, s.name)
	var doomed []*conn
	for _, c := range e.conns {
		if c.srv == s {
			doomed = append(doomed, c)
		}
	}
	e.mu.Unlock()

	for _, c := range doomed {
		c.shutdown()
	}
	if e.net.failsRemove(s.name) {
		return fmt.Errorf("%w: %q", ErrRemoveFailed, s.name)
	}
	return nil
}

// OpenSession 打开到对端的同名会话
func (e *Endpoint) OpenSession(ctx context.Context, h pkgif.ServerHandle, peer string) (pkgif.Connection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s, err := e.ownServer(h)
	if err != nil {
		return nil, err
	}
	if peer == e.device {
		return nil, fmt.Errorf("%w: self", pkgif.ErrPeerUnreachable)
	}

	remote := e.net.lookup(peer)
	if remote == nil {
		return nil, fmt.Errorf("%w: %s", pkgif.ErrPeerUnreachable, log.Anonymize(peer))
	}

	remote.mu.Lock()
	rs, ok := remote.servers[s.name]
	if remote.closed || !ok {
		remote.mu.Unlock()
		return nil, fmt.Errorf("%w: %s has no session %q", pkgif.ErrPeerUnreachable, log.Anonymize(peer), s.name)
	}
	in := &conn{id: e.net.nextConnID.Add(1), srv: rs, peer: e.device, inbound: true}
	out := &conn{id: e.net.nextConnID.Add(1), srv: s, peer: peer}
	out.other, in.other = in, out
	remote.conns[in.id] = in
	remote.mu.Unlock()

	e.mu.Lock()
	if e.closed || e.servers[s.name] != s {
		e.mu.Unlock()
		in.detach()
		return nil, pkgif.ErrSessionServerNotFound
	}
	e.conns[out.id] = out
	e.mu.Unlock()

	if out.isClosed() {
		// 对端在建立过程中移除了服务端
		e.mu.Lock()
		delete(e.conns, out.id)
		e.mu.Unlock()
		return nil, fmt.Errorf("%w: %s closed during open", pkgif.ErrPeerUnreachable, log.Anonymize(peer))
	}
	rs.listener.OnSessionOpened(in)
	s.listener.OnSessionOpened(out)
	return out, nil
}

// CloseSession 关闭会话，对端收到 OnSessionClosed
func (e *Endpoint) CloseSession(c pkgif.Connection) error {
	mc, ok := c.(*conn)
	if !ok || mc.srv.ep != e {
		return pkgif.ErrConnectionClosed
	}
	if !mc.detach() {
		return pkgif.ErrConnectionClosed
	}
	if mc.other.detach() {
		mc.other.srv.listener.OnSessionClosed(mc.other)
	}
	return nil
}

// SendBytes 将数据同步投递给对端监听器
func (e *Endpoint) SendBytes(ctx context.Context, c pkgif.Connection, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	mc, ok := c.(*conn)
	if !ok || mc.srv.ep != e {
		return pkgif.ErrConnectionClosed
	}
	if mc.isClosed() || mc.other.isClosed() {
		return pkgif.ErrConnectionClosed
	}

	buf := make([]byte, len(data))
	copy(buf, data)
	mc.other.srv.listener.OnBytesReceived(mc.other, buf)
	return nil
}

// Close 关闭端点：移除全部会话服务端并从网络中摘除
func (e *Endpoint) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	conns := make([]*conn, 0, len(e.conns))
	for _, c := range e.conns {
		conns = append(conns, c)
	}
	e.servers = make(map[string]*server)
	e.mu.Unlock()

	for _, c := range conns {
		c.shutdown()
	}
	e.net.detach(e.device)
	return nil
}

func (e *Endpoint) ownServer(h pkgif.ServerHandle) (*server, error) {
	s, ok := h.(*server)
	if !ok || s == nil || s.ep != e {
		return nil, pkgif.ErrSessionServerNotFound
	}
	return s, nil
}
