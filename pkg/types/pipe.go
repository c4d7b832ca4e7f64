package types

// MaxTransferSize 单次发送的最大字节数（含上界）
const MaxTransferSize = 5 * 1024 * 1024

// PipeInfo 管道标识
type PipeInfo struct {
	// PipeID 管道名称，空串非法
	PipeID string
}

// IsValid 管道名称非空
func (p PipeInfo) IsValid() bool {
	return p.PipeID != ""
}

// DeviceID 对端设备标识
type DeviceID struct {
	// DeviceID 不透明的设备 ID，空串非法
	DeviceID string
}

// IsValid 设备 ID 非空
func (d DeviceID) IsValid() bool {
	return d.DeviceID != ""
}

// DataInfo 待发送的数据
type DataInfo struct {
	Data   []byte
	Length uint32
}

// Bytes 返回有效载荷切片
func (d DataInfo) Bytes() []byte {
	if int(d.Length) > len(d.Data) {
		return d.Data
	}
	return d.Data[:d.Length]
}

// MessageType 载荷类别，只影响接收方的解释，不影响路由
type MessageType int32

const (
	// MessageTypeDefault 普通数据
	MessageTypeDefault MessageType = iota
	// MessageTypeControl 控制消息
	MessageTypeControl
)

// String 返回类别名称
func (t MessageType) String() string {
	switch t {
	case MessageTypeDefault:
		return "default"
	case MessageTypeControl:
		return "control"
	default:
		return "unknown"
	}
}

// MessageInfo 随载荷携带的元信息
type MessageInfo struct {
	MessageType MessageType
}
