package types

import (
	"errors"
	"fmt"
)

// Status 操作结果码
//
// Status 实现 error 接口：所有对外操作返回 error，成功返回 nil，
// 失败时错误链中包含且只包含一个 Status，StatusOf 可无损还原。
type Status int32

const (
	// StatusSuccess 成功
	StatusSuccess Status = iota
	// StatusError 通用错误（传输失败、对未启动的管道注册监听等）
	StatusError
	// StatusInvalidArgument 调用方参数非法
	StatusInvalidArgument
	// StatusIllegalState 传输层拒绝了格式正确的请求
	StatusIllegalState
	// StatusRepeatedRegister 重复启动
	StatusRepeatedRegister
	// StatusKeyNotFound 目标管道不存在
	StatusKeyNotFound
)

// String 返回结果码名称
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "SUCCESS"
	case StatusError:
		return "ERROR"
	case StatusInvalidArgument:
		return "INVALID_ARGUMENT"
	case StatusIllegalState:
		return "ILLEGAL_STATE"
	case StatusRepeatedRegister:
		return "REPEATED_REGISTER"
	case StatusKeyNotFound:
		return "KEY_NOT_FOUND"
	default:
		return fmt.Sprintf("STATUS(%d)", int32(s))
	}
}

// Error 实现 error 接口
func (s Status) Error() string {
	return s.String()
}

// StatusOf 从错误链中提取结果码
//
// nil 返回 StatusSuccess；错误链中没有 Status 时返回 StatusError。
func StatusOf(err error) Status {
	if err == nil {
		return StatusSuccess
	}
	var s Status
	if errors.As(err, &s) {
		return s
	}
	return StatusError
}

// Errorf 构造包装了结果码的错误
func Errorf(s Status, format string, args ...any) error {
	return fmt.Errorf("%w: %s", s, fmt.Sprintf(format, args...))
}
