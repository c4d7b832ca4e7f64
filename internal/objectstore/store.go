package objectstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/dep2p/go-distobj/internal/communicator"
	"github.com/dep2p/go-distobj/internal/device"
	"github.com/dep2p/go-distobj/internal/notifier"
	"github.com/dep2p/go-distobj/internal/storage"
	pkgif "github.com/dep2p/go-distobj/pkg/interfaces"
	"github.com/dep2p/go-distobj/pkg/lib/log"
	"github.com/dep2p/go-distobj/pkg/types"
)

var logger = log.Logger("objectstore")

// recordPrefix 快照在存储引擎中的键前缀
var recordPrefix = []byte("obj/")

// Store 本机分布式对象集合
type Store struct {
	cfg      Config
	pipe     types.PipeInfo
	pipes    *communicator.Manager
	registry *device.Registry
	records  pkgif.Engine
	bus      pkgif.EventBus
	clock    clock.Clock
	notifier *notifier.Notifier
	local    string

	mu      sync.RWMutex
	objects map[string]*DistributedObject
	status  pkgif.StatusNotifier
	started bool
	closed  bool

	sub  pkgif.Subscription
	done chan struct{}
}

var _ pkgif.DataChangeListener = (*Store)(nil)

// NewStore 创建 Store
//
// bus 可为 nil，此时不转发对端上下线。
func NewStore(pipes *communicator.Manager, registry *device.Registry, eng pkgif.Engine, bus pkgif.EventBus, opts ...Option) (*Store, error) {
	if pipes == nil || registry == nil || eng == nil {
		return nil, errors.New("objectstore: nil dependency")
	}
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.PipeName == "" {
		return nil, types.Errorf(types.StatusInvalidArgument, "empty pipe name")
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	if cfg.Notifier == nil {
		cfg.Notifier = notifier.Instance()
	}

	local, err := registry.LocalDevice()
	if err != nil {
		return nil, err
	}

	return &Store{
		cfg:      cfg,
		pipe:     types.PipeInfo{PipeID: cfg.PipeName},
		pipes:    pipes,
		registry: registry,
		records:  storage.Prefixed(eng, recordPrefix),
		bus:      bus,
		clock:    cfg.Clock,
		notifier: cfg.Notifier,
		status:   cfg.Notifier,
		local:    local.NetworkID,
		objects:  make(map[string]*DistributedObject),
	}, nil
}

// LocalDevice 本机网络 ID
func (s *Store) LocalDevice() string {
	return s.local
}

// Pipe 快照管道
func (s *Store) Pipe() types.PipeInfo {
	return s.pipe
}

// Notifier 返回 Watcher 表
func (s *Store) Notifier() *notifier.Notifier {
	return s.notifier
}

// Start 启动快照管道并开始转发上下线事件
func (s *Store) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	if s.started {
		return nil
	}
	if err := s.pipes.Start(s.pipe); err != nil {
		return err
	}
	if err := s.pipes.StartWatchDataChange(s, s.pipe); err != nil {
		_ = s.pipes.Stop(s.pipe)
		return err
	}
	if s.bus != nil {
		sub, err := s.bus.Subscribe(new(types.EvtPeerStatusChanged), pkgif.Lossless())
		if err != nil {
			_ = s.pipes.Stop(s.pipe)
			return err
		}
		s.sub = sub
		s.done = make(chan struct{})
		go s.forwardStatus(sub, s.done)
	}
	s.started = true
	logger.Info("对象存储已启动", "pipe", s.pipe.PipeID, "device", log.Anonymize(s.local))
	return nil
}

// forwardStatus 把本管道的对端上下线转发给每个会话
func (s *Store) forwardStatus(sub pkgif.Subscription, done chan struct{}) {
	defer close(done)
	for e := range sub.Out() {
		evt, ok := e.(types.EvtPeerStatusChanged)
		if !ok || evt.Pipe != s.pipe {
			continue
		}
		s.mu.RLock()
		sn := s.status
		sessions := make([]string, 0, len(s.objects))
		for id := range s.objects {
			sessions = append(sessions, id)
		}
		s.mu.RUnlock()

		if sn == nil {
			continue
		}
		for _, id := range sessions {
			sn.OnChanged(id, evt.Device.DeviceID, evt.Status())
		}
	}
}

// Close 停止管道并销毁全部对象，可重复调用
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	started := s.started
	sub, done := s.sub, s.done
	objects := s.objects
	s.objects = make(map[string]*DistributedObject)
	s.mu.Unlock()

	for _, o := range objects {
		o.destroy()
	}
	if sub != nil {
		_ = sub.Close()
		<-done
	}
	if !started {
		return nil
	}
	_ = s.pipes.StopWatchDataChange(s, s.pipe)
	return s.pipes.Stop(s.pipe)
}

// SetStatusNotifier 替换上下线通知目标，nil 表示不通知
func (s *Store) SetStatusNotifier(n pkgif.StatusNotifier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = n
}

// GenerateSessionID 生成随机会话 ID
func (s *Store) GenerateSessionID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func (s *Store) validSessionID(id string) error {
	if id == "" || len(id) > s.cfg.MaxSessionIDLen {
		return fmt.Errorf("%w: %w: length %d", types.StatusInvalidArgument, ErrInvalidSessionID, len(id))
	}
	for _, r := range id {
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return fmt.Errorf("%w: %w: %q", types.StatusInvalidArgument, ErrInvalidSessionID, id)
		}
	}
	return nil
}

// CreateObject 创建会话对象，存在已保存的快照时从快照恢复
func (s *Store) CreateObject(sessionID string) (*DistributedObject, error) {
	if err := s.validSessionID(sessionID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStoreClosed
	}
	if _, ok := s.objects[sessionID]; ok {
		return nil, fmt.Errorf("%w: %w", types.StatusRepeatedRegister, ErrSessionExists)
	}

	o := newObject(s, sessionID)
	if snap, err := s.loadRecord(sessionID); err == nil {
		for k, v := range snap.fields {
			o.fields[k] = v
		}
		logger.Debug("对象从快照恢复", "session", sessionID, "fields", len(snap.fields))
	} else if !errors.Is(err, pkgif.ErrNotFound) {
		logger.Warn("读取快照失败", "session", sessionID, "error", err)
	}
	s.objects[sessionID] = o
	return o, nil
}

// GetObject 返回会话对象
func (s *Store) GetObject(sessionID string) (*DistributedObject, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.objects[sessionID]
	return o, ok
}

// DeleteObject 销毁会话对象，已保存的快照保留
func (s *Store) DeleteObject(sessionID string) error {
	s.mu.Lock()
	o, ok := s.objects[sessionID]
	delete(s.objects, sessionID)
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %w", types.StatusKeyNotFound, ErrObjectNotFound)
	}
	o.destroy()
	return nil
}

// Sessions 返回排序后的会话 ID
func (s *Store) Sessions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.objects))
	for id := range s.objects {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Wrap 为对象创建包装器
func (s *Store) Wrap(o *DistributedObject) *ObjectWrapper {
	return newObjectWrapper(s, o)
}

// ============================================================================
//                              快照
// ============================================================================

func (s *Store) loadRecord(sessionID string) (*snapshot, error) {
	data, err := s.records.Get([]byte(sessionID))
	if err != nil {
		return nil, err
	}
	return unmarshalSnapshot(data)
}

// save 推送到目标设备并持久化
//
// 持久化记录中的 device 始终是保存目标。
func (s *Store) save(ctx context.Context, snap *snapshot) error {
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return ErrStoreClosed
	}

	if snap.device != s.local {
		msg := *snap
		msg.device = s.local
		if err := s.send(ctx, snap.device, msg.marshal(), types.MessageTypeDefault); err != nil {
			return err
		}
	}
	if err := s.records.Put([]byte(snap.session), snap.marshal()); err != nil {
		return fmt.Errorf("%w: persist snapshot: %w", types.StatusError, err)
	}
	logger.Debug("对象已保存",
		"session", snap.session,
		"target", log.Anonymize(snap.device),
		"version", snap.version)
	return nil
}

// revoke 删除本地快照，目标为远端时通知对端删除
func (s *Store) revoke(ctx context.Context, sessionID, target string) error {
	if target == "" {
		snap, err := s.loadRecord(sessionID)
		if err != nil {
			if errors.Is(err, pkgif.ErrNotFound) {
				return fmt.Errorf("%w: %w", types.StatusKeyNotFound, ErrNotSaved)
			}
			return err
		}
		target = snap.device
	}

	if target != s.local {
		msg := snapshot{kind: kindRevoke, session: sessionID, device: s.local, savedAt: s.clock.Now()}
		if err := s.send(ctx, target, msg.marshal(), types.MessageTypeControl); err != nil {
			return err
		}
	}
	if err := s.records.Delete([]byte(sessionID)); err != nil {
		return fmt.Errorf("%w: delete snapshot: %w", types.StatusError, err)
	}
	return nil
}

func (s *Store) send(ctx context.Context, target string, data []byte, mt types.MessageType) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.SaveTimeout)
	defer cancel()
	return s.pipes.SendData(ctx, s.pipe,
		types.DeviceID{DeviceID: target},
		types.DataInfo{Data: data, Length: uint32(len(data))},
		uint32(len(data)),
		types.MessageInfo{MessageType: mt})
}

// OnMessage 处理对端推送的快照
func (s *Store) OnMessage(pipe types.PipeInfo, from types.DeviceID, data []byte, _ types.MessageInfo) {
	if pipe != s.pipe {
		return
	}
	snap, err := unmarshalSnapshot(data)
	if err != nil {
		logger.Warn("丢弃无法解析的快照", "from", log.Anonymize(from.DeviceID), "error", err)
		return
	}

	switch snap.kind {
	case kindSave:
		snap.device = s.local
		if err := s.records.Put([]byte(snap.session), snap.marshal()); err != nil {
			logger.Warn("保存收到的快照失败", "session", snap.session, "error", err)
		}
		if o, ok := s.GetObject(snap.session); ok {
			changed := o.apply(snap)
			logger.Debug("应用对端快照",
				"session", snap.session,
				"from", log.Anonymize(from.DeviceID),
				"uuid", log.Anonymize(s.registry.ResolveUUID(from.DeviceID)),
				"changed", len(changed))
		}
	case kindRevoke:
		if err := s.records.Delete([]byte(snap.session)); err != nil {
			logger.Warn("删除快照失败", "session", snap.session, "error", err)
		}
	}
}
