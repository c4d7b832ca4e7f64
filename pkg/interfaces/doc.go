// Package interfaces 定义 distobj 的公共接口
//
// 接口按能力划分，一个接口文件对应一个实现目录：
//
//   - transport.go - 会话传输能力（internal/transport/memory, internal/transport/tcp）
//   - device.go    - 设备管理能力（internal/device）
//   - listener.go  - 数据变化 / 状态 / 进度监听能力（internal/communicator, internal/notifier）
//   - eventbus.go  - 事件总线（internal/core/eventbus）
//   - storage.go   - 存储引擎（internal/storage）
//
// # 依赖方向
//
//	objectstore → communicator → transport
//	           ↘ notifier      ↘ device
//
// 禁止反向依赖。
package interfaces
