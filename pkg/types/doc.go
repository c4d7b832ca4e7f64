// Package types 定义 distobj 的公共数据结构
//
// 这是整个系统的最底层包，不依赖任何其他内部包。
//
// # 文件组织
//
//   - status.go - Status 结果码（同时实现 error）
//   - pipe.go   - PipeInfo, DeviceID, DataInfo, MessageType, MessageInfo
//   - device.go - DeviceDetail
//   - enums.go  - SyncMode, ProgressCode, OnlineStatus, FieldType
//   - events.go - 事件总线上传递的事件类型
package types
