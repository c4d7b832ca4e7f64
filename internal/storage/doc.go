// Package storage 提供基于 BadgerDB 的键值存储
//
// Engine 实现 interfaces.Engine。Path 为空时以内存模式打开，
// 否则落盘并在后台周期性执行 value log GC。
//
// 不同组件通过 Prefixed 以键前缀隔离数据：
//
//	eng, _ := storage.Open(storage.DefaultConfig())
//	objects := storage.Prefixed(eng, []byte("obj/"))
package storage
