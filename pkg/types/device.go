package types

// DeviceDetail 设备详细信息
type DeviceDetail struct {
	UUID       string `json:"uuid"`
	NetworkID  string `json:"network_id"`
	DeviceName string `json:"device_name"`
	DeviceType string `json:"device_type"`
}

// IsZero 是否为未解析的空信息
func (d DeviceDetail) IsZero() bool {
	return d == DeviceDetail{}
}
