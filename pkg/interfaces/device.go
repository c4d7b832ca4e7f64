package interfaces

import "github.com/dep2p/go-distobj/pkg/types"

// DeviceManager 设备管理能力
//
// 由平台提供，distobj 只通过它查询设备身份。
type DeviceManager interface {
	// GetUUIDByNodeID 将网络节点 ID 解析为稳定的设备 UUID，未知设备返回空串
	GetUUIDByNodeID(nodeID string) string

	// GetLocalDeviceInfo 返回本机设备信息
	GetLocalDeviceInfo() (types.DeviceDetail, error)
}
