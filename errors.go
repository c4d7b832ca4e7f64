package distobj

import "errors"

var (
	// ErrNotStarted Store 未启动
	ErrNotStarted = errors.New("store not started")

	// ErrAlreadyStarted Store 已启动
	ErrAlreadyStarted = errors.New("store already started")

	// ErrStoreClosed Store 已关闭
	ErrStoreClosed = errors.New("store closed")
)
