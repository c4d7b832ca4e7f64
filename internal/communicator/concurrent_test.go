package communicator

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-distobj/pkg/types"
)

func TestConcurrent_StartSamePipe(t *testing.T) {
	p := newTestPeers(t)
	pipe := types.PipeInfo{PipeID: "pipe"}

	const n = 64
	var success, repeated, other atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			switch types.StatusOf(p.a.Start(pipe)) {
			case types.StatusSuccess:
				success.Add(1)
			case types.StatusRepeatedRegister:
				repeated.Add(1)
			default:
				other.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), success.Load())
	assert.Equal(t, int32(n-1), repeated.Load())
	assert.Equal(t, int32(0), other.Load())
	assert.Equal(t, 1, p.a.Count())
}

func TestConcurrent_StartStopSameName(t *testing.T) {
	p := newTestPeers(t)
	pipe := types.PipeInfo{PipeID: "pipe"}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				s := types.StatusOf(p.a.Start(pipe))
				assert.Contains(t, []types.Status{types.StatusSuccess, types.StatusRepeatedRegister}, s)
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				s := types.StatusOf(p.a.Stop(pipe))
				assert.Contains(t, []types.Status{types.StatusSuccess, types.StatusKeyNotFound}, s)
			}
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, p.a.Count(), 1)
	_ = p.a.Stop(pipe)
	assert.Equal(t, 0, p.a.Count())
	require.NoError(t, p.a.Start(pipe), "会话服务端已随 Stop 释放")
}

func TestConcurrent_SendWatchStop(t *testing.T) {
	p := newTestPeers(t)
	const pipes = 4
	for i := 0; i < pipes; i++ {
		pipe := types.PipeInfo{PipeID: fmt.Sprintf("pipe-%d", i)}
		require.NoError(t, p.a.Start(pipe))
		require.NoError(t, p.b.Start(pipe))
	}

	var wg sync.WaitGroup
	for i := 0; i < pipes; i++ {
		pipe := types.PipeInfo{PipeID: fmt.Sprintf("pipe-%d", i)}
		obs := &recordingObserver{}

		wg.Add(3)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = p.a.SendData(ctx, pipe, types.DeviceID{DeviceID: deviceB}, payload("x"), 1, types.MessageInfo{})
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = p.b.StartWatchDataChange(obs, pipe)
				_ = p.b.StopWatchDataChange(obs, pipe)
				_ = p.b.IsSameStartedOnPeer(pipe, types.DeviceID{DeviceID: deviceA})
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				_ = p.b.Stop(pipe)
				_ = p.b.Start(pipe)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, pipes, p.a.Count())
	assert.Equal(t, pipes, p.b.Count())
}
