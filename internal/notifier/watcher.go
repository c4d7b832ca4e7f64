package notifier

import (
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"weak"

	"github.com/dep2p/go-distobj/pkg/types"
)

// 事件类型
const (
	EventChange   = "change"
	EventStatus   = "status"
	EventProgress = "progress"
)

// Event 投递给处理器的事件
type Event struct {
	Type      string
	SessionID string

	// change
	ChangedKeys []string

	// status
	NetworkID string
	Status    string

	// progress
	Progress types.ProgressCode
}

// Handler 事件处理器，以接口值作为身份
type Handler interface {
	OnEvent(e Event)
}

type funcHandler struct {
	fn func(Event)
}

func (h *funcHandler) OnEvent(e Event) { h.fn(e) }

// NewHandler 把函数包装为处理器，每次调用返回新的身份
func NewHandler(fn func(Event)) Handler {
	return &funcHandler{fn: fn}
}

// Watcher 一个对象包装器的事件订阅集合
type Watcher struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	closed   atomic.Bool

	change   *ChangeEventListener
	status   *StatusEventListener
	progress *ProgressEventListener
}

// NewWatcher 创建 Watcher
func NewWatcher() *Watcher {
	w := &Watcher{handlers: make(map[string][]Handler)}
	ref := weak.Make(w)
	w.change = &ChangeEventListener{watcher: ref}
	w.status = &StatusEventListener{watcher: ref}
	w.progress = &ProgressEventListener{watcher: ref}
	return w
}

func validEventType(t string) bool {
	switch t {
	case EventChange, EventStatus, EventProgress:
		return true
	default:
		return false
	}
}

// On 订阅事件
//
// 未知事件类型、空处理器、不可比较的处理器或已关闭的 Watcher 返回 false。
// 重复订阅同一处理器返回 true 且不产生第二个绑定。
func (w *Watcher) On(eventType string, h Handler) bool {
	if !validEventType(eventType) || h == nil || w.closed.Load() {
		return false
	}
	if !reflect.TypeOf(h).Comparable() {
		return false
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	for _, existing := range w.handlers[eventType] {
		if existing == h {
			return true
		}
	}
	w.handlers[eventType] = append(w.handlers[eventType], h)
	return true
}

// Off 取消订阅，h 为 nil 时移除该类型的全部处理器
func (w *Watcher) Off(eventType string, h Handler) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if h == nil {
		delete(w.handlers, eventType)
		return
	}
	if !reflect.TypeOf(h).Comparable() {
		return
	}
	list := w.handlers[eventType]
	for i, existing := range list {
		if existing == h {
			list = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(w.handlers, eventType)
	} else {
		w.handlers[eventType] = list
	}
}

// IsEmpty 是否没有任何处理器
func (w *Watcher) IsEmpty() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.handlers) == 0
}

// Emit 在调用方 goroutine 上同步调用该类型的处理器
//
// 处理器 panic 被恢复并记录。
func (w *Watcher) Emit(eventType string, e Event) {
	if w.closed.Load() {
		return
	}
	e.Type = eventType

	w.mu.RLock()
	handlers := append([]Handler(nil), w.handlers[eventType]...)
	w.mu.RUnlock()

	for _, h := range handlers {
		if err := safeHandle(h, e); err != nil {
			logger.Error("事件处理器 panic", "event", eventType, "error", err)
		}
	}
}

func safeHandle(h Handler, e Event) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	h.OnEvent(e)
	return nil
}

// Close 关闭 Watcher，之后视为已失效
func (w *Watcher) Close() {
	if !w.closed.CompareAndSwap(false, true) {
		return
	}
	w.mu.Lock()
	w.handlers = make(map[string][]Handler)
	w.mu.Unlock()
}

// IsClosed 是否已关闭
func (w *Watcher) IsClosed() bool {
	return w.closed.Load()
}

// ChangeListener 返回数据变化监听器
func (w *Watcher) ChangeListener() *ChangeEventListener { return w.change }

// StatusListener 返回在线状态监听器
func (w *Watcher) StatusListener() *StatusEventListener { return w.status }

// ProgressListener 返回同步进度监听器
func (w *Watcher) ProgressListener() *ProgressEventListener { return w.progress }
