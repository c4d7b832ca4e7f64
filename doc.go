// Package distobj 提供设备间的分布式数据对象
//
// Store 组装以下组件：
//
//   - 设备注册表：本机身份、节点 ID 到设备 UUID 的解析
//   - 会话传输：进程内网络或 TCP + yamux
//   - 管道管理器：按名称启动管道，向对端设备发送字节，监听数据变化
//   - Notifier：会话到 Watcher 的弱引用表，分发上下线状态
//   - 对象存储：分布式对象的字段读写、Save/RevokeSave 和快照持久化
//
// # 快速开始
//
//	store, err := distobj.New(distobj.WithConfig(cfg))
//	if err != nil {
//	    return err
//	}
//	if err := store.Start(ctx); err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	obj, _ := store.Objects().CreateObject(store.Objects().GenerateSessionID())
//	_ = obj.PutString("title", "draft")
//	_, err = obj.Save(ctx, peerNetworkID, 1)
//
// 同一进程内的多个 Store 可以通过 WithMemoryNetwork 共享一个进程内网络。
package distobj
