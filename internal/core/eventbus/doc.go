// Package eventbus 实现进程内事件总线
//
// 按事件类型分发，发射方从不阻塞：订阅者缓冲区满时事件被丢弃，
// 并按丢弃次数节流告警。
//
//	bus := eventbus.NewBus()
//	sub, _ := bus.Subscribe(new(types.EvtPeerStatusChanged))
//	defer sub.Close()
//
//	em, _ := bus.Emitter(new(types.EvtPeerStatusChanged))
//	em.Emit(types.EvtPeerStatusChanged{...})
//
// # 并发安全
//
//   - 类型节点表：Bus.mu 保护
//   - 单个节点的订阅者列表：node.mu 保护
//   - 订阅关闭：closeOnce 防止重复关闭通道
package eventbus
