package objectstore

import "errors"

var (
	// ErrStoreClosed Store 已关闭
	ErrStoreClosed = errors.New("object store closed")

	// ErrInvalidSessionID 会话 ID 非法
	ErrInvalidSessionID = errors.New("invalid session id")

	// ErrSessionExists 会话已有对象
	ErrSessionExists = errors.New("session already has an object")

	// ErrObjectNotFound 会话没有对象
	ErrObjectNotFound = errors.New("object not found")

	// ErrObjectDestroyed 对象已销毁
	ErrObjectDestroyed = errors.New("object destroyed")

	// ErrFieldNotFound 字段不存在
	ErrFieldNotFound = errors.New("field not found")

	// ErrTypeMismatch 字段类型不符
	ErrTypeMismatch = errors.New("field type mismatch")

	// ErrNotSaved 对象没有可撤销的保存
	ErrNotSaved = errors.New("object not saved")

	// ErrInvalidSnapshot 快照格式错误
	ErrInvalidSnapshot = errors.New("invalid snapshot")
)
