package notifier

import (
	"sync"
	"sync/atomic"
	"weak"

	pkgif "github.com/dep2p/go-distobj/pkg/interfaces"
	"github.com/dep2p/go-distobj/pkg/lib/log"
)

var logger = log.Logger("notifier")

// Notifier 会话到 Watcher 的弱引用表
type Notifier struct {
	mu       sync.RWMutex
	watchers map[string]weak.Pointer[Watcher]
}

var _ pkgif.StatusNotifier = (*Notifier)(nil)

// New 创建 Notifier
func New() *Notifier {
	return &Notifier{watchers: make(map[string]weak.Pointer[Watcher])}
}

// AddWatcher 绑定会话与 Watcher，已有绑定被替换
func (n *Notifier) AddWatcher(sessionID string, w *Watcher) {
	if sessionID == "" || w == nil {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.watchers[sessionID] = weak.Make(w)
}

// DelWatcher 解除绑定，不存在时为空操作
func (n *Notifier) DelWatcher(sessionID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.watchers, sessionID)
}

// OnChanged 向会话的 Watcher 同步发出 status 事件
//
// Watcher 已被回收或关闭是正常情况，只记录日志并删除该失效绑定。
func (n *Notifier) OnChanged(sessionID, networkID, status string) {
	n.mu.RLock()
	ref, ok := n.watchers[sessionID]
	n.mu.RUnlock()
	if !ok {
		logger.Debug("会话没有 Watcher", "session", sessionID)
		return
	}

	w := live(ref)
	if w == nil {
		n.prune(sessionID, ref)
		logger.Info("Watcher 已失效，忽略状态变化",
			"session", sessionID,
			"networkID", log.Anonymize(networkID),
			"status", status)
		return
	}
	w.Emit(EventStatus, Event{SessionID: sessionID, NetworkID: networkID, Status: status})
}

// prune 删除失效绑定，期间被 AddWatcher 替换过则保留新绑定
func (n *Notifier) prune(sessionID string, ref weak.Pointer[Watcher]) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if cur, ok := n.watchers[sessionID]; ok && cur == ref {
		delete(n.watchers, sessionID)
	}
}

// Len 当前绑定数，失效绑定在下一次 OnChanged 时删除
func (n *Notifier) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.watchers)
}

var (
	instance   atomic.Pointer[Notifier]
	instanceMu sync.Mutex
)

// Instance 返回进程级 Notifier，首次访问时创建，不会销毁
func Instance() *Notifier {
	if n := instance.Load(); n != nil {
		return n
	}

	instanceMu.Lock()
	defer instanceMu.Unlock()

	if n := instance.Load(); n != nil {
		return n
	}
	n := New()
	instance.Store(n)
	return n
}
