package memory

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgif "github.com/dep2p/go-distobj/pkg/interfaces"
)

func TestEndpoint_CreateSessionServer(t *testing.T) {
	n := NewNetwork(WithRejectedNames("INVALID_SESSION_NAME"))
	ep := n.Endpoint("dev-a")

	t.Run("正常创建", func(t *testing.T) {
		h, err := ep.CreateSessionServer("pipe", &recorder{})
		require.NoError(t, err)
		assert.Equal(t, "pipe", h.Name())
	})

	t.Run("重名", func(t *testing.T) {
		_, err := ep.CreateSessionServer("pipe", &recorder{})
		assert.ErrorIs(t, err, pkgif.ErrSessionServerExists)
	})

	t.Run("非法名称", func(t *testing.T) {
		for _, name := range []string{"", "has space", strings.Repeat("x", pkgif.MaxSessionNameLen+1), "INVALID_SESSION_NAME"} {
			_, err := ep.CreateSessionServer(name, &recorder{})
			assert.ErrorIs(t, err, pkgif.ErrInvalidSessionName, name)
		}
	})
}

func TestEndpoint_OpenSendClose(t *testing.T) {
	n := NewNetwork()
	a, b := n.Endpoint("dev-a"), n.Endpoint("dev-b")
	ra, rb := &recorder{}, &recorder{}

	ha, err := a.CreateSessionServer("pipe", ra)
	require.NoError(t, err)
	_, err = b.CreateSessionServer("pipe", rb)
	require.NoError(t, err)

	ctx := context.Background()
	conn, err := a.OpenSession(ctx, ha, "dev-b")
	require.NoError(t, err)
	assert.Equal(t, "dev-b", conn.PeerDevice())
	assert.False(t, conn.Inbound())

	opened, _, _ := ra.counts()
	assert.Equal(t, 1, opened)
	require.Len(t, rb.opened, 1)
	assert.Equal(t, "dev-a", rb.opened[0].PeerDevice())
	assert.True(t, rb.opened[0].Inbound())

	payload := []byte("hello")
	require.NoError(t, a.SendBytes(ctx, conn, payload))
	payload[0] = 'X'
	require.Len(t, rb.received, 1)
	assert.Equal(t, []byte("hello"), rb.received[0], "接收方拿到的是副本")

	require.NoError(t, a.CloseSession(conn))
	_, closedB, _ := rb.counts()
	assert.Equal(t, 1, closedB)
	_, closedA, _ := ra.counts()
	assert.Equal(t, 0, closedA, "主动关闭方不回调")

	assert.ErrorIs(t, a.SendBytes(ctx, conn, payload), pkgif.ErrConnectionClosed)
	assert.ErrorIs(t, a.CloseSession(conn), pkgif.ErrConnectionClosed)
}

func TestEndpoint_OpenRequiresPeerServer(t *testing.T) {
	n := NewNetwork()
	a := n.Endpoint("dev-a")
	n.Endpoint("dev-b")

	h, err := a.CreateSessionServer("pipe", &recorder{})
	require.NoError(t, err)

	_, err = a.OpenSession(context.Background(), h, "dev-b")
	assert.ErrorIs(t, err, pkgif.ErrPeerUnreachable)

	_, err = a.OpenSession(context.Background(), h, "dev-unknown")
	assert.ErrorIs(t, err, pkgif.ErrPeerUnreachable)

	_, err = a.OpenSession(context.Background(), h, "dev-a")
	assert.ErrorIs(t, err, pkgif.ErrPeerUnreachable)
}

func TestEndpoint_RemoveSessionServer(t *testing.T) {
	n := NewNetwork(WithRemoveFailures("REMOVE_FAILED_SESSION_NAME"))
	a, b := n.Endpoint("dev-a"), n.Endpoint("dev-b")
	rb := &recorder{}

	ha, err := a.CreateSessionServer("pipe", &recorder{})
	require.NoError(t, err)
	_, err = b.CreateSessionServer("pipe", rb)
	require.NoError(t, err)
	_, err = a.OpenSession(context.Background(), ha, "dev-b")
	require.NoError(t, err)

	require.NoError(t, a.RemoveSessionServer(ha))
	_, closed, _ := rb.counts()
	assert.Equal(t, 1, closed, "移除服务端会关闭其连接")
	assert.ErrorIs(t, a.RemoveSessionServer(ha), pkgif.ErrSessionServerNotFound)

	hf, err := a.CreateSessionServer("REMOVE_FAILED_SESSION_NAME", &recorder{})
	require.NoError(t, err)
	rf := &recorder{}
	hbf, err := b.CreateSessionServer("REMOVE_FAILED_SESSION_NAME", rf)
	require.NoError(t, err)
	_, err = a.OpenSession(context.Background(), hf, "dev-b")
	require.NoError(t, err)

	assert.ErrorIs(t, a.RemoveSessionServer(hf), ErrRemoveFailed)
	_, closed, _ = rf.counts()
	assert.Equal(t, 1, closed, "移除失败也会关闭连接")
	_, err = b.OpenSession(context.Background(), hbf, "dev-a")
	assert.ErrorIs(t, err, pkgif.ErrPeerUnreachable, "服务端已释放")
	_, err = a.CreateSessionServer("REMOVE_FAILED_SESSION_NAME", &recorder{})
	assert.NoError(t, err, "移除失败后同名服务端可以重建")

	assert.ErrorIs(t, b.RemoveSessionServer(ha), pkgif.ErrSessionServerNotFound, "其他端点的句柄")
}

func TestEndpoint_Close(t *testing.T) {
	n := NewNetwork()
	a, b := n.Endpoint("dev-a"), n.Endpoint("dev-b")
	rb := &recorder{}

	ha, err := a.CreateSessionServer("pipe", &recorder{})
	require.NoError(t, err)
	_, err = b.CreateSessionServer("pipe", rb)
	require.NoError(t, err)
	_, err = a.OpenSession(context.Background(), ha, "dev-b")
	require.NoError(t, err)

	require.NoError(t, a.Close())
	require.NoError(t, a.Close())
	assert.Equal(t, 1, n.Devices())

	_, closed, _ := rb.counts()
	assert.Equal(t, 1, closed)

	_, err = a.CreateSessionServer("other", &recorder{})
	assert.ErrorIs(t, err, pkgif.ErrTransportClosed)
}

func TestEndpoint_ContextCanceled(t *testing.T) {
	n := NewNetwork()
	a := n.Endpoint("dev-a")
	h, err := a.CreateSessionServer("pipe", &recorder{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = a.OpenSession(ctx, h, "dev-b")
	assert.ErrorIs(t, err, context.Canceled)
}
