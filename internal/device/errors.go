package device

import "errors"

var (
	// ErrNilManager 未提供设备管理器
	ErrNilManager = errors.New("device manager is nil")

	// ErrLocalDeviceUnavailable 本机设备信息不可用
	ErrLocalDeviceUnavailable = errors.New("local device info unavailable")
)
