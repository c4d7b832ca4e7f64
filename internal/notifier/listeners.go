package notifier

import (
	"weak"

	pkgif "github.com/dep2p/go-distobj/pkg/interfaces"
	"github.com/dep2p/go-distobj/pkg/types"
)

// live 返回仍然存活且未关闭的 Watcher
func live(ref weak.Pointer[Watcher]) *Watcher {
	w := ref.Value()
	if w == nil || w.IsClosed() {
		return nil
	}
	return w
}

// ChangeEventListener 把字段变化转发为 change 事件
type ChangeEventListener struct {
	watcher weak.Pointer[Watcher]
}

var _ pkgif.ChangeListener = (*ChangeEventListener)(nil)

// OnChanged 实现 interfaces.ChangeListener
func (l *ChangeEventListener) OnChanged(sessionID string, changedKeys []string) {
	if w := live(l.watcher); w != nil {
		w.Emit(EventChange, Event{SessionID: sessionID, ChangedKeys: changedKeys})
	}
}

// StatusEventListener 把在线状态转发为 status 事件
type StatusEventListener struct {
	watcher weak.Pointer[Watcher]
}

var _ pkgif.StatusListener = (*StatusEventListener)(nil)

// OnStatus 实现 interfaces.StatusListener
func (l *StatusEventListener) OnStatus(sessionID, networkID, status string) {
	if w := live(l.watcher); w != nil {
		w.Emit(EventStatus, Event{SessionID: sessionID, NetworkID: networkID, Status: status})
	}
}

// ProgressEventListener 把同步进度转发为 progress 事件
type ProgressEventListener struct {
	watcher weak.Pointer[Watcher]
}

var _ pkgif.ProgressListener = (*ProgressEventListener)(nil)

// OnProgress 实现 interfaces.ProgressListener
func (l *ProgressEventListener) OnProgress(sessionID string, code types.ProgressCode) {
	if w := live(l.watcher); w != nil {
		w.Emit(EventProgress, Event{SessionID: sessionID, Progress: code})
	}
}
