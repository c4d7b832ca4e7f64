package communicator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/dep2p/go-distobj/internal/codec"
	pkgif "github.com/dep2p/go-distobj/pkg/interfaces"
	"github.com/dep2p/go-distobj/pkg/lib/log"
	"github.com/dep2p/go-distobj/pkg/types"
)

// PipeHandler 单个管道的会话持有者
//
// 持有一个会话服务端，跟踪每个对端设备的连接，并作为该服务端的
// SessionListener 接收传输层回调。
type PipeHandler struct {
	pipe      types.PipeInfo
	transport pkgif.SessionTransport
	codec     *codec.Codec
	emitter   pkgif.Emitter
	metrics   *metrics
	listeners *listenerRegistry

	mu     sync.RWMutex
	server pkgif.ServerHandle
	// peers 每个设备的主连接；conns 全部连接（同一设备可能有入站和出站各一条）
	peers  map[string]pkgif.Connection
	conns  map[uint64]pkgif.Connection
	closed bool

	// inflight 正在执行的传输回调，Close 后不再增加
	inflight sync.WaitGroup
}

var _ pkgif.SessionListener = (*PipeHandler)(nil)

func newPipeHandler(pipe types.PipeInfo, transport pkgif.SessionTransport, c *codec.Codec, emitter pkgif.Emitter, m *metrics) *PipeHandler {
	return &PipeHandler{
		pipe:      pipe,
		transport: transport,
		codec:     c,
		emitter:   emitter,
		metrics:   m,
		listeners: newListenerRegistry(),
		peers:     make(map[string]pkgif.Connection),
		conns:     make(map[uint64]pkgif.Connection),
	}
}

// Pipe 返回管道标识
func (h *PipeHandler) Pipe() types.PipeInfo {
	return h.pipe
}

// Open 创建会话服务端
//
// 传输层拒绝时返回 StatusIllegalState。
func (h *PipeHandler) Open() error {
	server, err := h.transport.CreateSessionServer(h.pipe.PipeID, h)
	if err != nil {
		return withStatus(types.StatusIllegalState, err)
	}

	h.mu.Lock()
	h.server = server
	h.mu.Unlock()
	return nil
}

// Close 关闭所有对端连接并移除会话服务端
//
// 关闭总会完成；返回的错误只用于记录日志。
func (h *PipeHandler) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	server := h.server
	h.server = nil
	conns := make([]pkgif.Connection, 0, len(h.conns))
	for _, c := range h.conns {
		conns = append(conns, c)
	}
	devices := make([]string, 0, len(h.peers))
	for dev := range h.peers {
		devices = append(devices, dev)
	}
	h.conns = make(map[uint64]pkgif.Connection)
	h.peers = make(map[string]pkgif.Connection)
	h.mu.Unlock()

	var err error
	for _, c := range conns {
		if cerr := h.transport.CloseSession(c); cerr != nil && !errors.Is(cerr, pkgif.ErrConnectionClosed) {
			err = multierr.Append(err, cerr)
		}
	}
	h.metrics.peerConnections.Sub(float64(len(conns)))
	if server != nil {
		err = multierr.Append(err, h.transport.RemoveSessionServer(server))
	}
	for _, dev := range devices {
		h.emitStatus(dev, false)
	}
	return err
}

// waitQuiescent 等待已进入的回调退出，超时返回 false
func (h *PipeHandler) waitQuiescent(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		h.inflight.Wait()
		close(done)
	}()
	if timeout <= 0 {
		<-done
		return true
	}

	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-done:
		return true
	case <-t.C:
		return false
	}
}

// Send 把载荷发给对端设备，首次发送时建立连接
func (h *PipeHandler) Send(ctx context.Context, device string, payload []byte, totalLength uint32, info types.MessageInfo) error {
	conn, err := h.connect(ctx, device)
	if err != nil {
		h.metrics.sendFailures.Inc()
		return err
	}

	data, err := h.codec.Encode(&codec.Envelope{
		ID:          uuid.NewString(),
		Type:        info.MessageType,
		TotalLength: totalLength,
		Payload:     payload,
	})
	if err != nil {
		h.metrics.sendFailures.Inc()
		return withStatus(types.StatusError, err)
	}

	if err := h.transport.SendBytes(ctx, conn, data); err != nil {
		h.metrics.sendFailures.Inc()
		if errors.Is(err, pkgif.ErrConnectionClosed) {
			h.OnSessionClosed(conn)
		}
		logger.Debug("发送失败", "pipe", h.pipe.PipeID, "device", log.Anonymize(device), "error", err)
		return withStatus(types.StatusError, err)
	}

	h.metrics.messagesSent.Inc()
	h.metrics.bytesSent.Add(float64(len(payload)))
	return nil
}

// connect 返回到设备的连接，不存在时打开
func (h *PipeHandler) connect(ctx context.Context, device string) (pkgif.Connection, error) {
	h.mu.RLock()
	if h.closed {
		h.mu.RUnlock()
		return nil, withStatus(types.StatusError, ErrHandlerClosed)
	}
	server := h.server
	conn := h.peers[device]
	h.mu.RUnlock()

	if conn != nil {
		return conn, nil
	}

	conn, err := h.transport.OpenSession(ctx, server, device)
	if err != nil {
		return nil, withStatus(types.StatusError, err)
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = h.transport.CloseSession(conn)
		return nil, withStatus(types.StatusError, ErrHandlerClosed)
	}
	if existing, ok := h.peers[device]; ok && existing.ID() != conn.ID() {
		// 并发打开产生了重复连接，保留已登记的那条
		h.mu.Unlock()
		h.OnSessionClosed(conn)
		_ = h.transport.CloseSession(conn)
		return existing, nil
	}
	_, known := h.conns[conn.ID()]
	h.conns[conn.ID()] = conn
	h.peers[device] = conn
	h.mu.Unlock()

	if !known {
		h.metrics.peerConnections.Inc()
		h.emitStatus(device, true)
	}
	return conn, nil
}

// HasPeer 是否存在到设备的活动连接
func (h *PipeHandler) HasPeer(device string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return false
	}
	_, ok := h.peers[device]
	return ok
}

// Peers 返回当前已连接的设备
func (h *PipeHandler) Peers() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, 0, len(h.peers))
	for dev := range h.peers {
		out = append(out, dev)
	}
	return out
}

// enter 登记一次回调，handler 已关闭时返回 false
func (h *PipeHandler) enter() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return false
	}
	h.inflight.Add(1)
	return true
}

// OnSessionOpened 实现 SessionListener
func (h *PipeHandler) OnSessionOpened(conn pkgif.Connection) {
	if !h.enter() {
		return
	}
	defer h.inflight.Done()

	dev := conn.PeerDevice()
	h.mu.Lock()
	if _, ok := h.conns[conn.ID()]; ok {
		h.mu.Unlock()
		return
	}
	h.conns[conn.ID()] = conn
	_, had := h.peers[dev]
	if !had {
		h.peers[dev] = conn
	}
	h.mu.Unlock()

	h.metrics.peerConnections.Inc()
	logger.Debug("会话已打开",
		"pipe", h.pipe.PipeID,
		"device", log.Anonymize(dev),
		"inbound", conn.Inbound())
	if !had {
		h.emitStatus(dev, true)
	}
}

// OnSessionClosed 实现 SessionListener
func (h *PipeHandler) OnSessionClosed(conn pkgif.Connection) {
	if !h.enter() {
		return
	}
	defer h.inflight.Done()

	dev := conn.PeerDevice()
	h.mu.Lock()
	if _, ok := h.conns[conn.ID()]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.conns, conn.ID())
	offline := false
	if primary, ok := h.peers[dev]; ok && primary.ID() == conn.ID() {
		delete(h.peers, dev)
		offline = true
		for _, c := range h.conns {
			if c.PeerDevice() == dev {
				h.peers[dev] = c
				offline = false
				break
			}
		}
	}
	h.mu.Unlock()

	h.metrics.peerConnections.Dec()
	logger.Debug("会话已关闭", "pipe", h.pipe.PipeID, "device", log.Anonymize(dev))
	if offline {
		h.emitStatus(dev, false)
	}
}

// OnBytesReceived 实现 SessionListener：解码后分发给全部监听器
func (h *PipeHandler) OnBytesReceived(conn pkgif.Connection, data []byte) {
	if !h.enter() {
		return
	}
	defer h.inflight.Done()

	env, err := h.codec.Decode(data)
	if err != nil {
		h.metrics.decodeFailures.Inc()
		logger.Warn("丢弃无法解码的数据",
			"pipe", h.pipe.PipeID,
			"device", log.Anonymize(conn.PeerDevice()),
			"size", len(data),
			"error", err)
		return
	}
	h.metrics.messagesReceived.Inc()
	h.metrics.bytesReceived.Add(float64(len(env.Payload)))

	from := types.DeviceID{DeviceID: conn.PeerDevice()}
	info := types.MessageInfo{MessageType: env.Type}
	panics := h.listeners.notifyAll(func(l pkgif.DataChangeListener) {
		l.OnMessage(h.pipe, from, env.Payload, info)
	})
	if panics > 0 {
		h.metrics.observerPanics.Add(float64(panics))
	}
}

// emitStatus 发布对端在线状态变化
func (h *PipeHandler) emitStatus(device string, online bool) {
	if h.emitter == nil {
		return
	}
	evt := types.EvtPeerStatusChanged{
		Pipe:   h.pipe,
		Device: types.DeviceID{DeviceID: device},
		Online: online,
		Time:   time.Now(),
	}
	if err := h.emitter.Emit(evt); err != nil {
		logger.Debug("发布状态事件失败", "pipe", h.pipe.PipeID, "error", err)
	}
}
