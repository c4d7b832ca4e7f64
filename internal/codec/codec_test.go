package codec

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/dep2p/go-distobj/pkg/types"
)

func newTestCodec(t *testing.T, opts ...Option) *Codec {
	t.Helper()
	c, err := NewCodec(opts...)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestCodec_EncodeDecode(t *testing.T) {
	c := newTestCodec(t)

	env := &Envelope{
		ID:          "msg-1",
		Type:        types.MessageTypeControl,
		TotalLength: 5,
		Payload:     []byte("hello"),
	}
	data, err := c.Encode(env)
	require.NoError(t, err)

	got, err := c.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, env.ID, got.ID)
	assert.Equal(t, types.MessageTypeControl, got.Type)
	assert.Equal(t, uint32(5), got.TotalLength)
	assert.Equal(t, []byte("hello"), got.Payload)
	assert.False(t, got.Compressed)
}

func TestCodec_CompressesLargePayload(t *testing.T) {
	c := newTestCodec(t, WithCompressThreshold(1024))

	payload := bytes.Repeat([]byte("distobj "), 4096)
	data, err := c.Encode(&Envelope{TotalLength: uint32(len(payload)), Payload: payload})
	require.NoError(t, err)
	assert.Less(t, len(data), len(payload), "重复数据应被压缩")

	got, err := c.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, payload, got.Payload)
	assert.False(t, got.Compressed)
}

func TestCodec_CompressionDisabled(t *testing.T) {
	c := newTestCodec(t, WithCompressThreshold(0))

	payload := bytes.Repeat([]byte{0}, 128*1024)
	data, err := c.Encode(&Envelope{Payload: payload})
	require.NoError(t, err)
	assert.Greater(t, len(data), len(payload))
}

func TestCodec_SkipsUnknownFields(t *testing.T) {
	c := newTestCodec(t)

	data, err := c.Encode(&Envelope{ID: "x", Payload: []byte("p")})
	require.NoError(t, err)

	data = protowire.AppendTag(data, 99, protowire.VarintType)
	data = protowire.AppendVarint(data, 7)

	got, err := c.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, []byte("p"), got.Payload)
}

func TestCodec_Errors(t *testing.T) {
	c := newTestCodec(t)

	_, err := c.Encode(nil)
	assert.ErrorIs(t, err, ErrInvalidEnvelope)

	_, err = c.Encode(&Envelope{Payload: make([]byte, types.MaxTransferSize+1)})
	assert.ErrorIs(t, err, ErrPayloadTooLarge)

	_, err = c.Decode(nil)
	assert.ErrorIs(t, err, ErrInvalidEnvelope)

	_, err = c.Decode([]byte{0xff})
	assert.ErrorIs(t, err, ErrInvalidEnvelope)
}

func TestFrame_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, FrameOpen, []byte("pipe-a")))
	require.NoError(t, WriteFrame(&buf, FrameData, nil))

	kind, body, err := ReadFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, FrameOpen, kind)
	assert.Equal(t, []byte("pipe-a"), body)

	kind, body, err = ReadFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, FrameData, kind)
	assert.Empty(t, body)

	_, _, err = ReadFrame(&buf)
	assert.ErrorIs(t, err, io.EOF)
}

func TestFrame_TooLarge(t *testing.T) {
	assert.ErrorIs(t, WriteFrame(io.Discard, FrameData, make([]byte, MaxFrameSize+1)), ErrFrameTooLarge)

	var buf bytes.Buffer
	buf.Write(protowire.AppendVarint(nil, MaxFrameSize+10))
	_, _, err := ReadFrame(&buf)
	assert.ErrorIs(t, err, ErrFrameTooLarge)
}

func TestFrameKind_String(t *testing.T) {
	assert.Equal(t, "open-ack", FrameOpenAck.String())
	assert.Equal(t, "frame(99)", FrameKind(99).String())
}
