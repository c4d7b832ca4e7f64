package codec

import (
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/dep2p/go-distobj/pkg/types"
)

// 信封字段编号
const (
	fieldID          protowire.Number = 1
	fieldType        protowire.Number = 2
	fieldTotalLength protowire.Number = 3
	fieldCompressed  protowire.Number = 4
	fieldPayload     protowire.Number = 5
)

// DefaultCompressThreshold 默认压缩阈值，载荷达到该大小才压缩
const DefaultCompressThreshold = 64 * 1024

var (
	// ErrInvalidEnvelope 信封格式错误
	ErrInvalidEnvelope = errors.New("invalid envelope")

	// ErrPayloadTooLarge 载荷超过 MaxTransferSize
	ErrPayloadTooLarge = errors.New("payload too large")
)

// Envelope 管道消息信封
type Envelope struct {
	ID          string
	Type        types.MessageType
	TotalLength uint32
	Compressed  bool
	Payload     []byte
}

// Codec 信封编解码器，并发安全
type Codec struct {
	threshold int
	enc       *zstd.Encoder
	dec       *zstd.Decoder
}

// Option 编解码器选项
type Option func(*Codec)

// WithCompressThreshold 设置压缩阈值，<= 0 表示禁用压缩
func WithCompressThreshold(n int) Option {
	return func(c *Codec) {
		c.threshold = n
	}
}

// NewCodec 创建编解码器
func NewCodec(opts ...Option) (*Codec, error) {
	c := &Codec{threshold: DefaultCompressThreshold}
	for _, opt := range opts {
		opt(c)
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(types.MaxTransferSize+4096))
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	c.enc = enc
	c.dec = dec
	return c, nil
}

// Close 释放压缩器资源
func (c *Codec) Close() {
	_ = c.enc.Close()
	c.dec.Close()
}

// Encode 编码信封
//
// 载荷不小于阈值时尝试压缩，压缩后不变小则保持原样。
func (c *Codec) Encode(env *Envelope) ([]byte, error) {
	if env == nil {
		return nil, fmt.Errorf("%w: nil envelope", ErrInvalidEnvelope)
	}
	if len(env.Payload) > types.MaxTransferSize {
		return nil, ErrPayloadTooLarge
	}

	payload := env.Payload
	compressed := false
	if c.threshold > 0 && len(payload) >= c.threshold {
		if z := c.enc.EncodeAll(payload, nil); len(z) < len(payload) {
			payload = z
			compressed = true
		}
	}

	b := make([]byte, 0, len(payload)+len(env.ID)+24)
	if env.ID != "" {
		b = protowire.AppendTag(b, fieldID, protowire.BytesType)
		b = protowire.AppendString(b, env.ID)
	}
	if env.Type != types.MessageTypeDefault {
		b = protowire.AppendTag(b, fieldType, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(env.Type))
	}
	b = protowire.AppendTag(b, fieldTotalLength, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(env.TotalLength))
	if compressed {
		b = protowire.AppendTag(b, fieldCompressed, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeBool(true))
	}
	b = protowire.AppendTag(b, fieldPayload, protowire.BytesType)
	b = protowire.AppendBytes(b, payload)
	return b, nil
}

// Decode 解码信封，压缩载荷会被解压
//
// 未知字段被跳过，以便向前兼容。
func (c *Codec) Decode(data []byte) (*Envelope, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty data", ErrInvalidEnvelope)
	}

	env := &Envelope{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, protowire.ParseError(n))
		}
		data = data[n:]

		switch {
		case num == fieldID && typ == protowire.BytesType:
			v, m := protowire.ConsumeString(data)
			if m < 0 {
				return nil, fmt.Errorf("%w: id: %v", ErrInvalidEnvelope, protowire.ParseError(m))
			}
			env.ID = v
			n = m
		case num == fieldType && typ == protowire.VarintType:
			v, m := protowire.ConsumeVarint(data)
			if m < 0 {
				return nil, fmt.Errorf("%w: type: %v", ErrInvalidEnvelope, protowire.ParseError(m))
			}
			env.Type = types.MessageType(v)
			n = m
		case num == fieldTotalLength && typ == protowire.VarintType:
			v, m := protowire.ConsumeVarint(data)
			if m < 0 {
				return nil, fmt.Errorf("%w: total length: %v", ErrInvalidEnvelope, protowire.ParseError(m))
			}
			env.TotalLength = uint32(v)
			n = m
		case num == fieldCompressed && typ == protowire.VarintType:
			v, m := protowire.ConsumeVarint(data)
			if m < 0 {
				return nil, fmt.Errorf("%w: compressed: %v", ErrInvalidEnvelope, protowire.ParseError(m))
			}
			env.Compressed = protowire.DecodeBool(v)
			n = m
		case num == fieldPayload && typ == protowire.BytesType:
			v, m := protowire.ConsumeBytes(data)
			if m < 0 {
				return nil, fmt.Errorf("%w: payload: %v", ErrInvalidEnvelope, protowire.ParseError(m))
			}
			env.Payload = append([]byte(nil), v...)
			n = m
		default:
			n = protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return nil, fmt.Errorf("%w: field %d: %v", ErrInvalidEnvelope, num, protowire.ParseError(n))
			}
		}
		data = data[n:]
	}

	if env.Compressed {
		raw, err := c.dec.DecodeAll(env.Payload, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: decompress: %v", ErrInvalidEnvelope, err)
		}
		env.Payload = raw
		env.Compressed = false
	}
	if len(env.Payload) > types.MaxTransferSize {
		return nil, ErrPayloadTooLarge
	}
	return env, nil
}
