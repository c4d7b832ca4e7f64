package objectstore

import (
	"sync"

	"github.com/dep2p/go-distobj/internal/notifier"
)

// ObjectWrapper 对象的事件订阅入口
//
// Watcher 在第一次 AddWatch 时创建并登记到 Notifier，
// 最后一个处理器移除时关闭。
type ObjectWrapper struct {
	store *Store

	mu      sync.Mutex
	object  *DistributedObject
	watcher *notifier.Watcher
}

func newObjectWrapper(s *Store, o *DistributedObject) *ObjectWrapper {
	return &ObjectWrapper{store: s, object: o}
}

// Object 返回对象，Destroy 后为 nil
func (w *ObjectWrapper) Object() *DistributedObject {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.object
}

// Watcher 返回当前 Watcher，没有处理器时为 nil
func (w *ObjectWrapper) Watcher() *notifier.Watcher {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.watcher
}

// AddWatch 订阅 change/status/progress 事件
func (w *ObjectWrapper) AddWatch(eventType string, h notifier.Handler) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.object == nil {
		return false
	}
	if w.watcher == nil {
		wt := notifier.NewWatcher()
		w.watcher = wt
		w.store.notifier.AddWatcher(w.object.SessionID(), wt)
		w.object.SetChangeListener(wt.ChangeListener())
		w.object.SetProgressListener(wt.ProgressListener())
	}
	ok := w.watcher.On(eventType, h)
	if w.watcher.IsEmpty() {
		w.releaseLocked()
	}
	return ok
}

// DeleteWatch 取消订阅，h 为 nil 时取消该类型的全部处理器
func (w *ObjectWrapper) DeleteWatch(eventType string, h notifier.Handler) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.watcher == nil {
		logger.Debug("DeleteWatch 时没有 Watcher", "event", eventType)
		return
	}
	w.watcher.Off(eventType, h)
	if w.watcher.IsEmpty() {
		w.releaseLocked()
	}
}

func (w *ObjectWrapper) releaseLocked() {
	w.watcher.Close()
	w.watcher = nil
	if w.object != nil {
		w.store.notifier.DelWatcher(w.object.SessionID())
		w.object.SetChangeListener(nil)
		w.object.SetProgressListener(nil)
	}
}

// Destroy 释放 Watcher 并从 Store 中删除对象
func (w *ObjectWrapper) Destroy() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.object == nil {
		return nil
	}
	if w.watcher != nil {
		w.releaseLocked()
	}
	id := w.object.SessionID()
	w.object = nil
	return w.store.DeleteObject(id)
}
