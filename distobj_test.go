package distobj

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-distobj/config"
	"github.com/dep2p/go-distobj/internal/transport/tcp"
)

func newStarted(t *testing.T, opts ...Option) *Store {
	t.Helper()
	s, err := New(opts...)
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_Lifecycle(t *testing.T) {
	s, err := New(WithMemoryNetwork(NewMemoryNetwork()), WithDeviceID("dev-a"))
	require.NoError(t, err)

	assert.Equal(t, "dev-a", s.LocalDevice())
	assert.NotNil(t, s.Pipes())
	assert.NotNil(t, s.Devices())
	assert.NotNil(t, s.Notifier())
	assert.NotNil(t, s.Transport())
	assert.Equal(t, config.TransportMemory, s.Config().Transport.Kind)

	require.NoError(t, s.Start(context.Background()))
	assert.ErrorIs(t, s.Start(context.Background()), ErrAlreadyStarted)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.Start(context.Background()), ErrStoreClosed)
}

func TestStore_CloseWithoutStart(t *testing.T) {
	s, err := New()
	require.NoError(t, err)
	assert.NoError(t, s.Close())
}

func TestNew_InvalidOptions(t *testing.T) {
	_, err := New(WithConfig(nil))
	assert.Error(t, err)

	_, err = New(WithMemoryNetwork(nil))
	assert.Error(t, err)

	cfg := config.NewConfig()
	cfg.Transport.Kind = "carrier-pigeon"
	_, err = New(WithConfig(cfg))
	assert.Error(t, err)

	cfg = config.NewConfig()
	cfg.Log.Format = "xml"
	_, err = New(WithConfig(cfg))
	assert.Error(t, err)
}

func TestWithConfig_CopiesPeers(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Transport.KnownPeers = []config.KnownPeer{{DeviceID: "dev-b", Addr: "127.0.0.1:1"}}

	o := newOptions()
	require.NoError(t, WithConfig(cfg)(o))
	require.NoError(t, WithPeer("dev-c", "127.0.0.1:2")(o))

	assert.Len(t, cfg.Transport.KnownPeers, 1)
	assert.Len(t, o.config.Transport.KnownPeers, 2)
}

func TestStore_SaveAcrossMemoryNetwork(t *testing.T) {
	net := NewMemoryNetwork()
	a := newStarted(t, WithMemoryNetwork(net), WithDeviceID("dev-a"))
	b := newStarted(t, WithMemoryNetwork(net), WithDeviceID("dev-b"))

	oa, err := a.Objects().CreateObject("s1")
	require.NoError(t, err)
	require.NoError(t, oa.PutString("name", "Amy"))
	require.NoError(t, oa.PutDouble("age", 18))

	res, err := oa.Save(context.Background(), "dev-b", 1)
	require.NoError(t, err)
	assert.Equal(t, "dev-b", res.DeviceID)

	ob, err := b.Objects().CreateObject("s1")
	require.NoError(t, err)
	name, err := ob.GetString("name")
	require.NoError(t, err)
	assert.Equal(t, "Amy", name)
	age, err := ob.GetDouble("age")
	require.NoError(t, err)
	assert.Equal(t, 18.0, age)
}

func TestStore_PersistsToDataDir(t *testing.T) {
	dir := t.TempDir()
	net := NewMemoryNetwork()

	s := newStarted(t, WithMemoryNetwork(net), WithDeviceID("dev-a"), WithDataDir(dir))
	o, err := s.Objects().CreateObject("s1")
	require.NoError(t, err)
	require.NoError(t, o.PutBoolean("done", true))
	_, err = o.Save(context.Background(), "dev-a", 1)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s = newStarted(t, WithMemoryNetwork(net), WithDeviceID("dev-a"), WithDataDir(dir))
	o, err = s.Objects().CreateObject("s1")
	require.NoError(t, err)
	done, err := o.GetBoolean("done")
	require.NoError(t, err)
	assert.True(t, done)
}

func TestStore_LogFile(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	cfg := config.NewConfig()
	cfg.Log.File = filepath.Join(t.TempDir(), "distobj.log")
	cfg.Log.Format = "json"

	s, err := New(WithConfig(cfg), WithMemoryNetwork(NewMemoryNetwork()))
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Close())
	assert.FileExists(t, cfg.Log.File)
}

func TestStore_SaveOverTCP(t *testing.T) {
	a := newStarted(t, WithTCP("127.0.0.1:0"), WithDeviceID("dev-a"))
	b := newStarted(t, WithTCP("127.0.0.1:0"), WithDeviceID("dev-b"))

	ta, ok := a.Transport().(*tcp.Transport)
	require.True(t, ok)
	tb, ok := b.Transport().(*tcp.Transport)
	require.True(t, ok)
	ta.AddPeer("dev-b", tb.Addr().String())
	tb.AddPeer("dev-a", ta.Addr().String())

	ob, err := b.Objects().CreateObject("s1")
	require.NoError(t, err)

	oa, err := a.Objects().CreateObject("s1")
	require.NoError(t, err)
	require.NoError(t, oa.PutComplex("blob", []byte{1, 2, 3}))
	_, err = oa.Save(context.Background(), "dev-b", 3)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		v, err := ob.GetComplex("blob")
		return err == nil && assert.ObjectsAreEqual([]byte{1, 2, 3}, v)
	}, 5*time.Second, 20*time.Millisecond)
}
