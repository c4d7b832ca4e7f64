package log

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnonymize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"空串", "", ""},
		{"短ID", "abc", "a**"},
		{"八位", "abcdefgh", "a**"},
		{"长ID", "0123456789abcdef", "0123**cdef"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Anonymize(tt.in))
		})
	}
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, LevelWarn, ParseLevel("warning"))
	assert.Equal(t, LevelError, ParseLevel(" error "))
	assert.Equal(t, LevelInfo, ParseLevel("bogus"))
}

func TestLazyLogger_FollowsDefault(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	l := Logger("test/lazy")

	var buf bytes.Buffer
	SetOutputWithLevel(&buf, LevelDebug)
	l.Debug("hello", "k", "v")

	out := buf.String()
	assert.Contains(t, out, "component=test/lazy")
	assert.Contains(t, out, "hello")
	assert.Contains(t, out, "k=v")
}
