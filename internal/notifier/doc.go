// Package notifier 按协同会话分发在线状态和数据变化
//
// Notifier 保存 sessionID 到 Watcher 的弱引用：Watcher 的生命周期由
// 持有它的对象包装器决定，Notifier 不延长它。Watcher 被回收或 Close
// 之后，OnChanged 记录日志并直接返回。
//
// Watcher 按事件类型（change/status/progress）保存处理器，
// ChangeEventListener、StatusEventListener、ProgressEventListener
// 分别以弱引用回指 Watcher，实现 interfaces 中对应的监听器接口。
package notifier
