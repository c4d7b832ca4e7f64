package communicator

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dep2p/go-distobj/internal/codec"
	pkgif "github.com/dep2p/go-distobj/pkg/interfaces"
	"github.com/dep2p/go-distobj/pkg/lib/log"
	"github.com/dep2p/go-distobj/pkg/types"
)

var logger = log.Logger("communicator/pipe")

// Manager 管道目录
type Manager struct {
	cfg       *Config
	transport pkgif.SessionTransport
	codec     *codec.Codec
	emitter   pkgif.Emitter
	metrics   *metrics

	mu     sync.Mutex
	pipes  map[string]*PipeHandler
	closed bool
}

// NewManager 创建管道管理器
//
// bus 可为 nil；非 nil 时对端上下线以 types.EvtPeerStatusChanged 发布。
func NewManager(transport pkgif.SessionTransport, bus pkgif.EventBus, opts ...Option) (*Manager, error) {
	if transport == nil {
		return nil, ErrNilTransport
	}

	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	c, err := codec.NewCodec(codec.WithCompressThreshold(cfg.CompressThreshold))
	if err != nil {
		return nil, err
	}

	var emitter pkgif.Emitter
	if bus != nil {
		emitter, err = bus.Emitter(new(types.EvtPeerStatusChanged))
		if err != nil {
			c.Close()
			return nil, err
		}
	}

	return &Manager{
		cfg:       cfg,
		transport: transport,
		codec:     c,
		emitter:   emitter,
		metrics:   newMetrics(cfg.EnableMetrics),
		pipes:     make(map[string]*PipeHandler),
	}, nil
}

// Start 启动管道
func (m *Manager) Start(pipe types.PipeInfo) error {
	if !pipe.IsValid() {
		return types.Errorf(types.StatusInvalidArgument, "empty pipe name")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return withStatus(types.StatusIllegalState, ErrManagerClosed)
	}
	if _, ok := m.pipes[pipe.PipeID]; ok {
		return withStatus(types.StatusRepeatedRegister, ErrPipeStarted)
	}

	h := newPipeHandler(pipe, m.transport, m.codec, m.emitter, m.metrics)
	if err := h.Open(); err != nil {
		logger.Warn("创建会话服务端失败", "pipe", pipe.PipeID, "error", err)
		return err
	}
	m.pipes[pipe.PipeID] = h
	m.metrics.pipesActive.Inc()

	logger.Info("管道已启动", "pipe", pipe.PipeID)
	return nil
}

// Stop 停止管道
//
// 目录项存在时总是成功：关闭失败只记录日志并计入 close_failures_total。
// 目录项先在锁内删除并关闭 handler，释放锁之后才等待已进入的回调退出
// （最多 CloseWaitTimeout）。等待期间 handler 已不在目录中，仍在执行的
// 回调持有它的引用，同名管道可以立即重新 Start。
func (m *Manager) Stop(pipe types.PipeInfo) error {
	m.mu.Lock()
	h, ok := m.pipes[pipe.PipeID]
	if !ok {
		m.mu.Unlock()
		return withStatus(types.StatusKeyNotFound, ErrPipeNotStarted)
	}
	delete(m.pipes, pipe.PipeID)
	err := h.Close()
	m.mu.Unlock()

	m.metrics.pipesActive.Dec()
	if err != nil {
		m.metrics.closeFailures.Inc()
		logger.Warn("关闭管道时传输层出错", "pipe", pipe.PipeID, "error", err)
	}
	if !h.waitQuiescent(m.cfg.CloseWaitTimeout) {
		logger.Warn("等待管道回调退出超时", "pipe", pipe.PipeID, "timeout", m.cfg.CloseWaitTimeout)
	}

	logger.Info("管道已停止", "pipe", pipe.PipeID)
	return nil
}

// StartWatchDataChange 在已启动的管道上注册数据变化监听器
//
// 重复注册同一监听器为成功的空操作。
func (m *Manager) StartWatchDataChange(observer pkgif.DataChangeListener, pipe types.PipeInfo) error {
	if err := checkObserver(observer); err != nil {
		return err
	}
	if !pipe.IsValid() {
		return types.Errorf(types.StatusInvalidArgument, "empty pipe name")
	}

	h := m.lookup(pipe.PipeID)
	if h == nil {
		return withStatus(types.StatusError, ErrPipeNotStarted)
	}
	if h.listeners.register(observer) {
		logger.Debug("注册数据监听器", "pipe", pipe.PipeID, "observers", h.listeners.Len())
	}
	return nil
}

// StopWatchDataChange 注销数据变化监听器，未注册时为成功的空操作
func (m *Manager) StopWatchDataChange(observer pkgif.DataChangeListener, pipe types.PipeInfo) error {
	if err := checkObserver(observer); err != nil {
		return err
	}

	h := m.lookup(pipe.PipeID)
	if h == nil {
		return withStatus(types.StatusError, ErrPipeNotStarted)
	}
	if h.listeners.unregister(observer) {
		logger.Debug("注销数据监听器", "pipe", pipe.PipeID, "observers", h.listeners.Len())
	}
	return nil
}

// SendData 向对端设备发送数据
//
// 参数在访问目录前按顺序校验：管道名、设备 ID、长度范围、缓冲区，
// 任一非法返回 StatusError。成功表示传输层已接受，不代表已送达。
// Config.SendTimeout 大于 0 时作为发送的截止时间。
func (m *Manager) SendData(ctx context.Context, pipe types.PipeInfo, device types.DeviceID, data types.DataInfo, totalLength uint32, info types.MessageInfo) error {
	switch {
	case !pipe.IsValid():
		return types.Errorf(types.StatusError, "empty pipe name")
	case !device.IsValid():
		return types.Errorf(types.StatusError, "empty device id")
	case data.Length == 0 || data.Length > types.MaxTransferSize:
		return withStatus(types.StatusError, ErrInvalidPayload)
	case data.Data == nil || int(data.Length) > len(data.Data):
		return withStatus(types.StatusError, ErrInvalidPayload)
	}

	h := m.lookup(pipe.PipeID)
	if h == nil {
		return withStatus(types.StatusKeyNotFound, ErrPipeNotStarted)
	}

	if m.cfg.SendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.cfg.SendTimeout)
		defer cancel()
	}
	return h.Send(ctx, device.DeviceID, data.Bytes(), totalLength, info)
}

// IsSameStartedOnPeer 对端是否在同名管道上与本端保持连接
func (m *Manager) IsSameStartedOnPeer(pipe types.PipeInfo, peer types.DeviceID) bool {
	if !pipe.IsValid() || !peer.IsValid() {
		return false
	}
	h := m.lookup(pipe.PipeID)
	if h == nil {
		return false
	}
	return h.HasPeer(peer.DeviceID)
}

// Count 返回已启动的管道数
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pipes)
}

// Pipes 返回已启动的管道名
func (m *Manager) Pipes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.pipes))
	for name := range m.pipes {
		out = append(out, name)
	}
	return out
}

// Registry 返回指标注册表，未启用指标时为 nil
func (m *Manager) Registry() *prometheus.Registry {
	return m.metrics.registry
}

// Close 停止全部管道并释放编解码器，之后 Start 返回 StatusIllegalState
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	names := make([]string, 0, len(m.pipes))
	for name := range m.pipes {
		names = append(names, name)
	}
	m.mu.Unlock()

	for _, name := range names {
		_ = m.Stop(types.PipeInfo{PipeID: name})
	}
	if m.emitter != nil {
		_ = m.emitter.Close()
	}
	m.codec.Close()
	return nil
}

// lookup 在锁内取出 handler
func (m *Manager) lookup(name string) *PipeHandler {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pipes[name]
}
