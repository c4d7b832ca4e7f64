package tcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dep2p/go-distobj/internal/codec"
	pkgif "github.com/dep2p/go-distobj/pkg/interfaces"
	"github.com/dep2p/go-distobj/pkg/lib/log"
)

var logger = log.Logger("transport/tcp")

// ErrOpenRejected 对端拒绝打开会话
var ErrOpenRejected = errors.New("open rejected by peer")

// Transport TCP + yamux 会话传输
type Transport struct {
	device string
	cfg    Config
	ln     net.Listener

	mu       sync.Mutex
	servers  map[string]*server
	conns    map[uint64]*conn
	sessions map[string]*peerSession
	all      map[*peerSession]struct{}
	book     map[string]string
	closed   bool

	dials      singleflight.Group
	nextConnID atomic.Uint64
	wg         sync.WaitGroup
}

var _ pkgif.SessionTransport = (*Transport)(nil)

// New 创建传输并开始监听
func New(device string, opts ...Option) (*Transport, error) {
	if device == "" {
		return nil, errors.New("empty local device id")
	}
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Yamux == nil {
		cfg.Yamux = DefaultYamuxConfig()
	}

	ln, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", cfg.ListenAddr, err)
	}

	t := &Transport{
		device:   device,
		cfg:      cfg,
		ln:       ln,
		servers:  make(map[string]*server),
		conns:    make(map[uint64]*conn),
		sessions: make(map[string]*peerSession),
		all:      make(map[*peerSession]struct{}),
		book:     make(map[string]string, len(cfg.Peers)),
	}
	for id, addr := range cfg.Peers {
		t.book[id] = addr
	}

	t.wg.Add(1)
	go t.acceptLoop()

	logger.Info("TCP 传输已启动", "device", log.Anonymize(device), "addr", ln.Addr().String())
	return t, nil
}

// Addr 实际监听地址
func (t *Transport) Addr() net.Addr {
	return t.ln.Addr()
}

// AddPeer 登记或更新对端拨号地址
func (t *Transport) AddPeer(device, addr string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.book[device] = addr
}

// ConnectedPeers 返回当前有会话的对端设备
func (t *Transport) ConnectedPeers() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, 0, len(t.sessions))
	for id := range t.sessions {
		out = append(out, id)
	}
	return out
}

// LocalDevice 本端设备 ID
func (t *Transport) LocalDevice() string {
	return t.device
}

func (t *Transport) acceptLoop() {
	defer t.wg.Done()
	for {
		nc, err := t.ln.Accept()
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				logger.Warn("accept 失败", "error", err)
			}
			return
		}
		t.wg.Add(1)
		go t.handleInbound(nc)
	}
}

func (t *Transport) peerAddr(device string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	addr, ok := t.book[device]
	return addr, ok
}

func (t *Transport) addSession(ps *peerSession) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return false
	}
	t.sessions[ps.device] = ps
	t.all[ps] = struct{}{}
	t.wg.Add(1)
	go t.serve(ps)
	return true
}

func (t *Transport) removeSession(ps *peerSession) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.all, ps)
	if t.sessions[ps.device] == ps {
		delete(t.sessions, ps.device)
	}
}

// session 返回到对端的会话，没有时拨号；并发拨号同一设备只拨一次
func (t *Transport) session(ctx context.Context, device string) (*peerSession, error) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil, pkgif.ErrTransportClosed
	}
	ps, ok := t.sessions[device]
	t.mu.Unlock()
	if ok && !ps.sess.IsClosed() {
		return ps, nil
	}

	ch := t.dials.DoChan(device, func() (any, error) {
		return t.dial(ctx, device)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(*peerSession), nil
	}
}

// CreateSessionServer 创建会话服务端
func (t *Transport) CreateSessionServer(name string, listener pkgif.SessionListener) (pkgif.ServerHandle, error) {
	if err := pkgif.ValidateSessionName(name); err != nil {
		return nil, err
	}
	if listener == nil {
		return nil, errors.New("nil session listener")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil, pkgif.ErrTransportClosed
	}
	if _, ok := t.servers[name]; ok {
		return nil, pkgif.ErrSessionServerExists
	}
	s := &server{t: t, name: name, listener: listener}
	t.servers[name] = s
	return s, nil
}

// RemoveSessionServer 移除会话服务端并关闭其连接，本端监听器不会收到回调
func (t *Transport) RemoveSessionServer(h pkgif.ServerHandle) error {
	s, err := t.ownServer(h)
	if err != nil {
		return err
	}

	t.mu.Lock()
	if t.servers[s.name] != s {
		t.mu.Unlock()
		return pkgif.ErrSessionServerNotFound
	}
	delete(t.servers, s.name)
	var doomed []*conn
	for _, c := range t.conns {
		if c.srv == s {
			doomed = append(doomed, c)
		}
	}
	t.mu.Unlock()

	for _, c := range doomed {
		c.detach()
	}
	return nil
}

// OpenSession 在到对端的 yamux 会话上打开一条流
func (t *Transport) OpenSession(ctx context.Context, h pkgif.ServerHandle, peer string) (pkgif.Connection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s, err := t.ownServer(h)
	if err != nil {
		return nil, err
	}
	if peer == t.device {
		return nil, fmt.Errorf("%w: self", pkgif.ErrPeerUnreachable)
	}

	ps, err := t.session(ctx, peer)
	if err != nil {
		return nil, err
	}
	st, err := ps.sess.OpenStream()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", pkgif.ErrPeerUnreachable, err)
	}

	deadline := time.Now().Add(t.cfg.HandshakeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = st.SetDeadline(deadline)

	if err := codec.WriteFrame(st, codec.FrameOpen, []byte(s.name)); err != nil {
		st.Close()
		return nil, fmt.Errorf("%w: %w", pkgif.ErrPeerUnreachable, err)
	}
	kind, body, err := codec.ReadFrame(st)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("%w: %w", pkgif.ErrPeerUnreachable, err)
	}
	switch kind {
	case codec.FrameOpenAck:
	case codec.FrameOpenReject:
		st.Close()
		return nil, fmt.Errorf("%w: %w: %s", pkgif.ErrPeerUnreachable, ErrOpenRejected, body)
	default:
		st.Close()
		return nil, fmt.Errorf("%w: unexpected %s frame", pkgif.ErrPeerUnreachable, kind)
	}
	_ = st.SetDeadline(time.Time{})

	c := &conn{id: t.nextConnID.Add(1), srv: s, peer: peer, stream: st}
	t.mu.Lock()
	if t.closed || t.servers[s.name] != s {
		t.mu.Unlock()
		st.Close()
		return nil, pkgif.ErrSessionServerNotFound
	}
	t.conns[c.id] = c
	t.wg.Add(1)
	t.mu.Unlock()

	s.listener.OnSessionOpened(c)
	go func() {
		defer t.wg.Done()
		t.readLoop(c)
	}()
	return c, nil
}

// CloseSession 关闭会话，对端收到 OnSessionClosed
func (t *Transport) CloseSession(c pkgif.Connection) error {
	tc, ok := c.(*conn)
	if !ok || tc.srv.t != t {
		return pkgif.ErrConnectionClosed
	}
	if !tc.detach() {
		return pkgif.ErrConnectionClosed
	}
	return nil
}

// SendBytes 写一个 data 帧
func (t *Transport) SendBytes(ctx context.Context, c pkgif.Connection, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tc, ok := c.(*conn)
	if !ok || tc.srv.t != t || tc.closed.Load() {
		return pkgif.ErrConnectionClosed
	}

	tc.writeMu.Lock()
	defer tc.writeMu.Unlock()

	if d, ok := ctx.Deadline(); ok {
		_ = tc.stream.SetWriteDeadline(d)
		defer tc.stream.SetWriteDeadline(time.Time{})
	}
	if err := codec.WriteFrame(tc.stream, codec.FrameData, data); err != nil {
		if errors.Is(err, codec.ErrFrameTooLarge) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %w", pkgif.ErrConnectionClosed, err)
	}
	return nil
}

// Close 关闭监听和全部会话，等待后台 goroutine 退出
func (t *Transport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	conns := make([]*conn, 0, len(t.conns))
	for _, c := range t.conns {
		conns = append(conns, c)
	}
	sessions := make([]*peerSession, 0, len(t.all))
	for ps := range t.all {
		sessions = append(sessions, ps)
	}
	t.servers = make(map[string]*server)
	t.mu.Unlock()

	err := t.ln.Close()
	for _, c := range conns {
		c.detach()
	}
	for _, ps := range sessions {
		_ = ps.sess.Close()
	}
	t.wg.Wait()

	logger.Info("TCP 传输已关闭", "device", log.Anonymize(t.device))
	return err
}

func (t *Transport) ownServer(h pkgif.ServerHandle) (*server, error) {
	s, ok := h.(*server)
	if !ok || s == nil || s.t != t {
		return nil, pkgif.ErrSessionServerNotFound
	}
	return s, nil
}
