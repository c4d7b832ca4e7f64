package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnumStrings(t *testing.T) {
	assert.Equal(t, "push", SyncModePush.String())
	assert.Equal(t, "pull_push", SyncModePullPush.String())
	assert.Equal(t, "unknown", SyncMode(99).String())

	for _, c := range []ProgressCode{ProgressSyncSuccess, ProgressCloudNotSet, ProgressInternalError, ProgressExternalError} {
		assert.NotEqual(t, "unknown", c.String(), int(c))
	}
	for _, f := range []FieldType{FieldString, FieldDouble, FieldBoolean, FieldComplex} {
		assert.NotEqual(t, "unknown", f.String(), int(f))
	}
	assert.Equal(t, "control", MessageTypeControl.String())
}
