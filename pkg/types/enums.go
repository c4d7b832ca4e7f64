package types

// ============================================================================
//                              SyncMode - 同步模式
// ============================================================================

// SyncMode 协同编辑的同步方向
type SyncMode int

const (
	// SyncModePush 仅推送
	SyncModePush SyncMode = iota
	// SyncModePull 仅拉取
	SyncModePull
	// SyncModePullPush 先拉后推
	SyncModePullPush
)

// String 返回同步模式名称
func (m SyncMode) String() string {
	switch m {
	case SyncModePush:
		return "push"
	case SyncModePull:
		return "pull"
	case SyncModePullPush:
		return "pull_push"
	default:
		return "unknown"
	}
}

// ============================================================================
//                              ProgressCode - 同步进度
// ============================================================================

// ProgressCode 同步进度结果
type ProgressCode int

const (
	// ProgressSyncSuccess 同步成功
	ProgressSyncSuccess ProgressCode = iota
	// ProgressCloudNotSet 未配置云端
	ProgressCloudNotSet
	// ProgressInternalError 内部错误
	ProgressInternalError
	// ProgressExternalError 外部错误
	ProgressExternalError
)

// String 返回进度码名称
func (c ProgressCode) String() string {
	switch c {
	case ProgressSyncSuccess:
		return "sync_success"
	case ProgressCloudNotSet:
		return "cloud_not_set"
	case ProgressInternalError:
		return "internal_error"
	case ProgressExternalError:
		return "external_error"
	default:
		return "unknown"
	}
}

// ============================================================================
//                              OnlineStatus - 在线状态
// ============================================================================

// 设备在线状态，与状态事件中的字符串一致
const (
	PeerOnline  = "online"
	PeerOffline = "offline"
)

// ============================================================================
//                              FieldType - 对象字段类型
// ============================================================================

// FieldType 分布式对象字段的值类型
type FieldType int

const (
	// FieldString 字符串
	FieldString FieldType = iota
	// FieldDouble 浮点数
	FieldDouble
	// FieldBoolean 布尔值
	FieldBoolean
	// FieldComplex 序列化后的复杂对象
	FieldComplex
)

// String 返回字段类型名称
func (f FieldType) String() string {
	switch f {
	case FieldString:
		return "string"
	case FieldDouble:
		return "double"
	case FieldBoolean:
		return "boolean"
	case FieldComplex:
		return "complex"
	default:
		return "unknown"
	}
}
