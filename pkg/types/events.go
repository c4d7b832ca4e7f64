package types

import "time"

// EvtPeerStatusChanged 管道上某个对端设备的连接状态变化
//
// 由 PipeHandler 在会话打开/关闭时发射。
type EvtPeerStatusChanged struct {
	Pipe   PipeInfo
	Device DeviceID
	Online bool
	Time   time.Time
}

// Status 返回状态字符串（online/offline）
func (e EvtPeerStatusChanged) Status() string {
	if e.Online {
		return PeerOnline
	}
	return PeerOffline
}
