// Package memory 提供进程内会话传输
//
// Network 是一个设备 ID 到 Endpoint 的集线器，每个 Endpoint 实现
// interfaces.SessionTransport。回调在调用方 goroutine 上同步执行，
// 适合单元测试和单进程多设备演示。
//
// 打开会话要求对端已创建同名会话服务端；连接成功后两端都会收到
// OnSessionOpened，CloseSession 只通知对端 OnSessionClosed。
package memory
