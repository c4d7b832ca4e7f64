package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Status
	}{
		{"nil为成功", nil, StatusSuccess},
		{"直接返回", StatusKeyNotFound, StatusKeyNotFound},
		{"包装一层", fmt.Errorf("stop: %w", StatusRepeatedRegister), StatusRepeatedRegister},
		{"Errorf", Errorf(StatusIllegalState, "name %q rejected", "x"), StatusIllegalState},
		{"普通错误", errors.New("boom"), StatusError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusOf(tt.err))
		})
	}
}

func TestStatus_Distinguishable(t *testing.T) {
	all := []Status{
		StatusSuccess, StatusError, StatusInvalidArgument,
		StatusIllegalState, StatusRepeatedRegister, StatusKeyNotFound,
	}
	seen := make(map[string]bool)
	for _, s := range all {
		assert.False(t, seen[s.String()], "duplicate name %s", s)
		seen[s.String()] = true
	}
	assert.True(t, errors.Is(Errorf(StatusKeyNotFound, "x"), StatusKeyNotFound))
	assert.False(t, errors.Is(Errorf(StatusKeyNotFound, "x"), StatusError))
}

func TestDataInfo_Bytes(t *testing.T) {
	d := DataInfo{Data: []byte("hello"), Length: 3}
	assert.Equal(t, []byte("hel"), d.Bytes())

	d = DataInfo{Data: []byte("hi"), Length: 9}
	assert.Equal(t, []byte("hi"), d.Bytes())
}

func TestEvtPeerStatusChanged_Status(t *testing.T) {
	assert.Equal(t, PeerOnline, EvtPeerStatusChanged{Online: true}.Status())
	assert.Equal(t, PeerOffline, EvtPeerStatusChanged{}.Status())
}
