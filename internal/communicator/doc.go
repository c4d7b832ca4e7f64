// Package communicator 实现分布式对象的管道层
//
// # 组件
//
//   - Manager：管道目录（名称 -> PipeHandler），所有对外操作的入口
//   - PipeHandler：每个管道一个，持有一个会话服务端，跟踪对端连接，
//     把收到的字节解码后分发给监听器
//   - listenerRegistry：单个管道上的数据变化监听器集合
//
// # 结果码
//
// 所有操作返回 error，nil 即成功；失败时可用 types.StatusOf 还原结果码。
//
// # 加锁约定
//
// 目录由一把互斥锁保护。Start/Stop 持锁完成会话服务端的创建/移除，
// 目录的插入和删除因此是原子的。Send、监听注册、IsSameStartedOnPeer
// 在锁内取出 handler 指针后立即释放锁，再调用 handler。
//
// Stop 在锁内删除目录项并关闭 handler（之后不再有新回调进入），
// 释放锁后再等待已进入的回调退出。回调中调用 Stop 同一管道时，
// 等待会在 CloseWaitTimeout 后放弃并告警。
package communicator
