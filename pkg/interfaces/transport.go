package interfaces

import (
	"context"
	"errors"
	"unicode"
)

// MaxSessionNameLen 会话名称最大字节数
const MaxSessionNameLen = 255

var (
	// ErrInvalidSessionName 传输层拒绝会话名称
	ErrInvalidSessionName = errors.New("invalid session name")

	// ErrSessionServerExists 同名会话服务端已存在
	ErrSessionServerExists = errors.New("session server already exists")

	// ErrSessionServerNotFound 会话服务端不存在
	ErrSessionServerNotFound = errors.New("session server not found")

	// ErrPeerUnreachable 对端设备不可达或未启动同名会话
	ErrPeerUnreachable = errors.New("peer unreachable")

	// ErrConnectionClosed 连接已关闭
	ErrConnectionClosed = errors.New("connection closed")

	// ErrTransportClosed 传输已关闭
	ErrTransportClosed = errors.New("transport closed")
)

// ServerHandle 会话服务端句柄
type ServerHandle interface {
	// Name 返回会话名称
	Name() string
}

// Connection 到一个对端设备的会话连接
type Connection interface {
	// ID 连接 ID，在同一传输实例内唯一
	ID() uint64

	// SessionName 会话名称（即管道名称）
	SessionName() string

	// PeerDevice 对端设备 ID
	PeerDevice() string

	// Inbound 是否由对端发起
	Inbound() bool
}

// SessionListener 会话事件回调
//
// 回调在传输层的 goroutine 上执行，实现必须并发安全。
type SessionListener interface {
	OnSessionOpened(conn Connection)
	OnSessionClosed(conn Connection)
	OnBytesReceived(conn Connection, data []byte)
}

// SessionTransport 会话传输能力
//
// 对应软总线的会话 API：以名称创建服务端，向对端打开同名会话，
// 在会话上收发字节。
type SessionTransport interface {
	// LocalDevice 本端设备 ID
	LocalDevice() string

	// CreateSessionServer 创建会话服务端
	//
	// 名称非法时返回 ErrInvalidSessionName。
	CreateSessionServer(name string, listener SessionListener) (ServerHandle, error)

	// RemoveSessionServer 移除会话服务端，并关闭其上的所有连接
	RemoveSessionServer(h ServerHandle) error

	// OpenSession 打开到对端设备的会话
	OpenSession(ctx context.Context, h ServerHandle, peer string) (Connection, error)

	// CloseSession 关闭会话
	CloseSession(conn Connection) error

	// SendBytes 在会话上发送字节，返回即表示传输层已接受
	SendBytes(ctx context.Context, conn Connection, data []byte) error
}

// ValidateSessionName 检查会话名称
//
// 名称长度为 1..MaxSessionNameLen 字节，不含空白和控制字符。
func ValidateSessionName(name string) error {
	if name == "" || len(name) > MaxSessionNameLen {
		return ErrInvalidSessionName
	}
	for _, r := range name {
		if unicode.IsSpace(r) || unicode.IsControl(r) || r == unicode.ReplacementChar {
			return ErrInvalidSessionName
		}
	}
	return nil
}
