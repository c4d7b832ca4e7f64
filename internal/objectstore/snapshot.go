package objectstore

import (
	"fmt"
	"math"
	"sort"
	"time"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/dep2p/go-distobj/pkg/types"
)

// snapshotKind 快照消息类别
type snapshotKind uint64

const (
	kindSave snapshotKind = iota + 1
	kindRevoke
)

// 快照字段编号
const (
	snapKind    protowire.Number = 1
	snapSession protowire.Number = 2
	snapVersion protowire.Number = 3
	snapDevice  protowire.Number = 4
	snapSavedAt protowire.Number = 5
	snapField   protowire.Number = 6
)

// 字段条目编号
const (
	entryKey    protowire.Number = 1
	entryType   protowire.Number = 2
	entryString protowire.Number = 3
	entryDouble protowire.Number = 4
	entryBool   protowire.Number = 5
	entryRaw    protowire.Number = 6
)

// value 一个字段值
type value struct {
	typ types.FieldType
	str string
	num float64
	b   bool
	raw []byte
}

func (v value) equal(o value) bool {
	if v.typ != o.typ {
		return false
	}
	switch v.typ {
	case types.FieldString:
		return v.str == o.str
	case types.FieldDouble:
		return v.num == o.num || (math.IsNaN(v.num) && math.IsNaN(o.num))
	case types.FieldBoolean:
		return v.b == o.b
	default:
		return string(v.raw) == string(o.raw)
	}
}

// snapshot 对象快照，也用作持久化记录
//
// Device 在持久化记录中是保存的目标设备，在线上消息中是发送方。
type snapshot struct {
	kind    snapshotKind
	session string
	version float64
	device  string
	savedAt time.Time
	fields  map[string]value
}

func (s *snapshot) marshal() []byte {
	b := protowire.AppendTag(nil, snapKind, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(s.kind))
	b = protowire.AppendTag(b, snapSession, protowire.BytesType)
	b = protowire.AppendString(b, s.session)
	b = protowire.AppendTag(b, snapVersion, protowire.Fixed64Type)
	b = protowire.AppendFixed64(b, math.Float64bits(s.version))
	if s.device != "" {
		b = protowire.AppendTag(b, snapDevice, protowire.BytesType)
		b = protowire.AppendString(b, s.device)
	}
	if !s.savedAt.IsZero() {
		b = protowire.AppendTag(b, snapSavedAt, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(s.savedAt.UnixNano()))
	}

	keys := make([]string, 0, len(s.fields))
	for k := range s.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b = protowire.AppendTag(b, snapField, protowire.BytesType)
		b = protowire.AppendBytes(b, marshalEntry(k, s.fields[k]))
	}
	return b
}

func marshalEntry(key string, v value) []byte {
	b := protowire.AppendTag(nil, entryKey, protowire.BytesType)
	b = protowire.AppendString(b, key)
	b = protowire.AppendTag(b, entryType, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(v.typ))
	switch v.typ {
	case types.FieldString:
		b = protowire.AppendTag(b, entryString, protowire.BytesType)
		b = protowire.AppendString(b, v.str)
	case types.FieldDouble:
		b = protowire.AppendTag(b, entryDouble, protowire.Fixed64Type)
		b = protowire.AppendFixed64(b, math.Float64bits(v.num))
	case types.FieldBoolean:
		b = protowire.AppendTag(b, entryBool, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeBool(v.b))
	case types.FieldComplex:
		b = protowire.AppendTag(b, entryRaw, protowire.BytesType)
		b = protowire.AppendBytes(b, v.raw)
	}
	return b
}

// walk 依次回调每个字段，未被 fn 消费的字段被跳过
//
// fn 返回消费的字节数，0 表示跳过，负数表示解析错误。
func walk(data []byte, fn func(num protowire.Number, typ protowire.Type, data []byte) int) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return fmt.Errorf("%w: %v", ErrInvalidSnapshot, protowire.ParseError(n))
		}
		data = data[n:]

		m := fn(num, typ, data)
		if m == 0 {
			m = protowire.ConsumeFieldValue(num, typ, data)
		}
		if m < 0 {
			return fmt.Errorf("%w: field %d: %v", ErrInvalidSnapshot, num, protowire.ParseError(m))
		}
		data = data[m:]
	}
	return nil
}

func unmarshalSnapshot(data []byte) (*snapshot, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrInvalidSnapshot)
	}
	s := &snapshot{fields: make(map[string]value)}
	var entryErr error

	err := walk(data, func(num protowire.Number, typ protowire.Type, data []byte) int {
		switch {
		case num == snapKind && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			s.kind = snapshotKind(v)
			return n
		case num == snapSession && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(data)
			s.session = v
			return n
		case num == snapVersion && typ == protowire.Fixed64Type:
			v, n := protowire.ConsumeFixed64(data)
			s.version = math.Float64frombits(v)
			return n
		case num == snapDevice && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(data)
			s.device = v
			return n
		case num == snapSavedAt && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			s.savedAt = time.Unix(0, int64(v))
			return n
		case num == snapField && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return n
			}
			key, val, err := unmarshalEntry(v)
			if err != nil {
				entryErr = err
				return n
			}
			s.fields[key] = val
			return n
		}
		return 0
	})
	if err != nil {
		return nil, err
	}
	if entryErr != nil {
		return nil, entryErr
	}
	if s.session == "" || (s.kind != kindSave && s.kind != kindRevoke) {
		return nil, fmt.Errorf("%w: missing session or kind", ErrInvalidSnapshot)
	}
	return s, nil
}

func unmarshalEntry(data []byte) (string, value, error) {
	var key string
	var v value
	err := walk(data, func(num protowire.Number, typ protowire.Type, data []byte) int {
		switch {
		case num == entryKey && typ == protowire.BytesType:
			s, n := protowire.ConsumeString(data)
			key = s
			return n
		case num == entryType && typ == protowire.VarintType:
			t, n := protowire.ConsumeVarint(data)
			v.typ = types.FieldType(t)
			return n
		case num == entryString && typ == protowire.BytesType:
			s, n := protowire.ConsumeString(data)
			v.str = s
			return n
		case num == entryDouble && typ == protowire.Fixed64Type:
			f, n := protowire.ConsumeFixed64(data)
			v.num = math.Float64frombits(f)
			return n
		case num == entryBool && typ == protowire.VarintType:
			x, n := protowire.ConsumeVarint(data)
			v.b = protowire.DecodeBool(x)
			return n
		case num == entryRaw && typ == protowire.BytesType:
			r, n := protowire.ConsumeBytes(data)
			v.raw = append([]byte(nil), r...)
			return n
		}
		return 0
	})
	if err != nil {
		return "", value{}, err
	}
	if key == "" || v.typ < types.FieldString || v.typ > types.FieldComplex {
		return "", value{}, fmt.Errorf("%w: bad field entry", ErrInvalidSnapshot)
	}
	return key, v, nil
}
