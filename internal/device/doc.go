// Package device 解析和缓存设备身份
//
// Registry 在 interfaces.DeviceManager 之上提供：
//
//   - LocalDevice：本机设备信息只解析一次，之后进程内常驻
//   - ResolveUUID：节点 ID 到设备 UUID 的查询，并发请求合并（singleflight），
//     结果放入带 TTL 的 LRU，不会无限期缓存
//
// Instance 返回进程级单例，首次访问时懒加载。
package device
