package communicator

import (
	"errors"
	"fmt"

	"github.com/dep2p/go-distobj/pkg/types"
)

var (
	// ErrNilTransport 未提供会话传输
	ErrNilTransport = errors.New("session transport is nil")

	// ErrManagerClosed 管理器已关闭
	ErrManagerClosed = errors.New("pipe manager closed")

	// ErrHandlerClosed 管道已停止
	ErrHandlerClosed = errors.New("pipe handler closed")

	// ErrNilObserver 监听器为空
	ErrNilObserver = errors.New("observer is nil")

	// ErrUncomparableObserver 监听器类型不可比较，无法作为身份
	ErrUncomparableObserver = errors.New("observer type is not comparable")

	// ErrPipeNotStarted 管道未启动
	ErrPipeNotStarted = errors.New("pipe not started")

	// ErrPipeStarted 管道已启动
	ErrPipeStarted = errors.New("pipe already started")

	// ErrInvalidPayload 载荷长度或缓冲区非法
	ErrInvalidPayload = errors.New("invalid payload")
)

// withStatus 给错误附加结果码，保留原错误链
func withStatus(s types.Status, err error) error {
	return fmt.Errorf("%w: %w", s, err)
}
