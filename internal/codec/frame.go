package codec

import (
	"errors"
	"fmt"
	"io"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/dep2p/go-distobj/pkg/types"
)

// FrameKind 帧类型
type FrameKind byte

const (
	// FrameHello 连接握手，正文为本端设备 ID
	FrameHello FrameKind = iota + 1
	// FrameOpen 打开管道会话，正文为会话名称
	FrameOpen
	// FrameOpenAck 接受打开
	FrameOpenAck
	// FrameOpenReject 拒绝打开，正文为原因
	FrameOpenReject
	// FrameData 数据
	FrameData
)

// String 返回帧类型名称
func (k FrameKind) String() string {
	switch k {
	case FrameHello:
		return "hello"
	case FrameOpen:
		return "open"
	case FrameOpenAck:
		return "open-ack"
	case FrameOpenReject:
		return "open-reject"
	case FrameData:
		return "data"
	default:
		return fmt.Sprintf("frame(%d)", byte(k))
	}
}

// MaxFrameSize 帧正文上限：最大载荷加信封头部余量
const MaxFrameSize = types.MaxTransferSize + 4096

// ErrFrameTooLarge 帧超过上限
var ErrFrameTooLarge = errors.New("frame too large")

// WriteFrame 写入一帧
//
// 长度前缀、类型和正文在一次 Write 中写出；并发写同一流需调用方加锁。
func WriteFrame(w io.Writer, kind FrameKind, body []byte) error {
	if len(body) > MaxFrameSize {
		return ErrFrameTooLarge
	}
	buf := make([]byte, 0, len(body)+protowire.SizeVarint(uint64(len(body)+1))+1)
	buf = protowire.AppendVarint(buf, uint64(len(body)+1))
	buf = append(buf, byte(kind))
	buf = append(buf, body...)
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("write %s frame: %w", kind, err)
	}
	return nil
}

// ReadFrame 读取一帧
func ReadFrame(r io.Reader) (FrameKind, []byte, error) {
	length, err := readVarint(r)
	if err != nil {
		return 0, nil, err
	}
	if length == 0 {
		return 0, nil, fmt.Errorf("%w: empty frame", ErrInvalidEnvelope)
	}
	if length > MaxFrameSize+1 {
		return 0, nil, ErrFrameTooLarge
	}

	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return 0, nil, err
	}
	return FrameKind(buf[0]), buf[1:], nil
}

// readVarint 逐字节读取 uvarint
func readVarint(r io.Reader) (uint64, error) {
	var x uint64
	var s uint
	b := make([]byte, 1)
	for i := 0; i < 10; i++ {
		if _, err := io.ReadFull(r, b); err != nil {
			return 0, err
		}
		if b[0] < 0x80 {
			if i == 9 && b[0] > 1 {
				return 0, fmt.Errorf("varint overflow")
			}
			return x | uint64(b[0])<<s, nil
		}
		x |= uint64(b[0]&0x7f) << s
		s += 7
	}
	return 0, fmt.Errorf("varint too long")
}
