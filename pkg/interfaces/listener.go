package interfaces

import "github.com/dep2p/go-distobj/pkg/types"

// DataChangeListener 管道数据变化监听器
//
// 监听器以接口值作为身份，实现类型必须可比较（通常为指针）。
type DataChangeListener interface {
	OnMessage(pipe types.PipeInfo, from types.DeviceID, data []byte, info types.MessageInfo)
}

// ChangeListener 对象字段变化
type ChangeListener interface {
	OnChanged(sessionID string, changedKeys []string)
}

// StatusListener 对端设备在线状态变化
type StatusListener interface {
	OnStatus(sessionID, networkID, status string)
}

// ProgressListener 同步进度
type ProgressListener interface {
	OnProgress(sessionID string, code types.ProgressCode)
}

// StatusNotifier 接收按会话分发的状态变化（由 notifier 实现）
type StatusNotifier interface {
	OnChanged(sessionID, networkID, status string)
}
