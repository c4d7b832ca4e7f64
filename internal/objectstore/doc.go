// Package objectstore 实现分布式数据对象
//
// Store 管理本机的 DistributedObject，每个对象以会话 ID 标识。
// 对象字段只在本地修改；Save 把当前字段快照持久化并推送到目标设备，
// 目标设备上同一会话的对象应用快照后触发 change 事件，尚未创建的
// 对象在 CreateObject 时从快照恢复。RevokeSave 撤销本地和目标设备上的快照。
//
// 快照经 Store 的专用管道收发，对端上下线经事件总线转换为
// StatusNotifier.OnChanged(sessionID, networkID, "online"|"offline")。
//
// ObjectWrapper 持有对象的 Watcher 强引用：最后一个处理器移除时
// Watcher 随之关闭，Notifier 中的弱引用即失效。
package objectstore
