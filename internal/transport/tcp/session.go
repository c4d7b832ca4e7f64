package tcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/hashicorp/yamux"

	"github.com/dep2p/go-distobj/internal/codec"
	pkgif "github.com/dep2p/go-distobj/pkg/interfaces"
	"github.com/dep2p/go-distobj/pkg/lib/log"
)

// ErrHandshake hello 交换失败
var ErrHandshake = errors.New("handshake failed")

// peerSession 到一个对端设备的 yamux 会话
type peerSession struct {
	device string
	sess   *yamux.Session
}

// handshake 在原始连接上交换 hello 帧，返回对端设备 ID
//
// 拨号方先写后读，接受方先读后写。
func (t *Transport) handshake(nc net.Conn, dialer bool) (string, error) {
	if err := nc.SetDeadline(time.Now().Add(t.cfg.HandshakeTimeout)); err != nil {
		return "", err
	}
	defer nc.SetDeadline(time.Time{})

	if dialer {
		if err := codec.WriteFrame(nc, codec.FrameHello, []byte(t.device)); err != nil {
			return "", err
		}
	}
	kind, body, err := codec.ReadFrame(nc)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrHandshake, err)
	}
	if kind != codec.FrameHello || len(body) == 0 {
		return "", fmt.Errorf("%w: unexpected %s frame", ErrHandshake, kind)
	}
	if !dialer {
		if err := codec.WriteFrame(nc, codec.FrameHello, []byte(t.device)); err != nil {
			return "", err
		}
	}
	return string(body), nil
}

// dial 拨号并建立 yamux 客户端会话
func (t *Transport) dial(ctx context.Context, device string) (*peerSession, error) {
	addr, ok := t.peerAddr(device)
	if !ok {
		return nil, fmt.Errorf("%w: no address for %s", pkgif.ErrPeerUnreachable, log.Anonymize(device))
	}

	d := net.Dialer{Timeout: t.cfg.DialTimeout}
	nc, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", pkgif.ErrPeerUnreachable, err)
	}

	remote, err := t.handshake(nc, true)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("%w: %w", pkgif.ErrPeerUnreachable, err)
	}
	if remote != device {
		nc.Close()
		return nil, fmt.Errorf("%w: %s answered as %s", pkgif.ErrPeerUnreachable,
			log.Anonymize(device), log.Anonymize(remote))
	}

	sess, err := yamux.Client(nc, t.cfg.Yamux)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create yamux session: %w", err)
	}
	ps := &peerSession{device: device, sess: sess}
	if !t.addSession(ps) {
		sess.Close()
		return nil, pkgif.ErrTransportClosed
	}
	logger.Debug("已连接对端", "peer", log.Anonymize(device), "addr", addr)
	return ps, nil
}

// handleInbound 处理入站 TCP 连接
func (t *Transport) handleInbound(nc net.Conn) {
	defer t.wg.Done()

	remote, err := t.handshake(nc, false)
	if err != nil {
		logger.Debug("入站握手失败", "remote", nc.RemoteAddr(), "error", err)
		nc.Close()
		return
	}
	if remote == t.device {
		nc.Close()
		return
	}

	sess, err := yamux.Server(nc, t.cfg.Yamux)
	if err != nil {
		logger.Warn("创建 yamux 会话失败", "error", err)
		nc.Close()
		return
	}
	ps := &peerSession{device: remote, sess: sess}
	if !t.addSession(ps) {
		sess.Close()
		return
	}
	logger.Debug("接受对端连接", "peer", log.Anonymize(remote))
}

// serve 接受对端打开的流，会话结束时摘除
func (t *Transport) serve(ps *peerSession) {
	defer t.wg.Done()
	defer t.removeSession(ps)

	for {
		st, err := ps.sess.AcceptStream()
		if err != nil {
			return
		}
		t.wg.Add(1)
		go t.handleStream(ps, st)
	}
}

// handleStream 应答 open 帧并进入读循环
func (t *Transport) handleStream(ps *peerSession, st *yamux.Stream) {
	defer t.wg.Done()

	_ = st.SetDeadline(time.Now().Add(t.cfg.HandshakeTimeout))
	kind, body, err := codec.ReadFrame(st)
	if err != nil || kind != codec.FrameOpen {
		st.Close()
		return
	}
	name := string(body)

	t.mu.Lock()
	s, ok := t.servers[name]
	if t.closed {
		ok = false
	}
	var c *conn
	if ok {
		c = &conn{id: t.nextConnID.Add(1), srv: s, peer: ps.device, inbound: true, stream: st}
		t.conns[c.id] = c
	}
	t.mu.Unlock()

	if !ok {
		_ = codec.WriteFrame(st, codec.FrameOpenReject, []byte("no session "+name))
		st.Close()
		return
	}
	if err := codec.WriteFrame(st, codec.FrameOpenAck, nil); err != nil {
		c.detach()
		return
	}
	_ = st.SetDeadline(time.Time{})

	s.listener.OnSessionOpened(c)
	t.readLoop(c)
}

// readLoop 读取 data 帧直到流结束
//
// 流被对端关闭或出错时通知本端 OnSessionClosed；本端主动关闭的不通知。
func (t *Transport) readLoop(c *conn) {
	for {
		kind, body, err := codec.ReadFrame(c.stream)
		if err != nil {
			break
		}
		if kind != codec.FrameData {
			logger.Debug("忽略未知帧", "kind", kind, "conn", c.id)
			continue
		}
		if c.closed.Load() {
			break
		}
		c.srv.listener.OnBytesReceived(c, body)
	}
	if c.detach() {
		c.srv.listener.OnSessionClosed(c)
	}
}
