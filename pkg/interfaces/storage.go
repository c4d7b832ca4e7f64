package interfaces

import "errors"

// ErrNotFound 键不存在
var ErrNotFound = errors.New("key not found")

// Engine 键值存储引擎
//
// 线程安全：实现必须保证所有方法的线程安全性。
type Engine interface {
	// Get 获取值的副本，键不存在时返回 ErrNotFound
	Get(key []byte) ([]byte, error)

	// Put 设置键值对
	Put(key, value []byte) error

	// Delete 删除键，键不存在不报错
	Delete(key []byte) error

	// Scan 按前缀遍历，fn 返回 false 时停止
	Scan(prefix []byte, fn func(key, value []byte) bool) error

	// Close 关闭引擎
	Close() error
}
