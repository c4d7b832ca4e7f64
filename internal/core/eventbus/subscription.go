package eventbus

import (
	"sync"
	"sync/atomic"

	pkgif "github.com/dep2p/go-distobj/pkg/interfaces"
)

// Subscription 订阅
//
// 普通订阅直接写入带缓冲的 out，满了就丢弃。Lossless 订阅先进入
// 无界队列，由 pump 按序搬运到 out。
type Subscription struct {
	node      *node
	out       chan any
	closeOnce sync.Once

	qmu   sync.Mutex
	queue []any
	wake  chan struct{}
	quit  chan struct{}
	done  chan struct{}
}

var _ pkgif.Subscription = (*Subscription)(nil)

// Out 返回事件通道
func (s *Subscription) Out() <-chan any {
	return s.out
}

// Close 取消订阅，可重复调用
//
// 先从节点移除（之后不会再有投递），再关闭通道。
// emit 持有 node.mu 投递，remove 同样需要 node.mu，因此关闭时不存在并发写入。
// Lossless 订阅未送出的事件随之丢弃。
func (s *Subscription) Close() error {
	s.closeOnce.Do(func() {
		s.node.remove(s)
		if s.lossless() {
			close(s.quit)
			<-s.done
			return
		}
		close(s.out)
	})
	return nil
}

func (s *Subscription) lossless() bool {
	return s.wake != nil
}

// enqueue 追加到无界队列，不阻塞发射方
func (s *Subscription) enqueue(event any) {
	s.qmu.Lock()
	s.queue = append(s.queue, event)
	s.qmu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Subscription) pump() {
	defer close(s.done)
	defer close(s.out)

	for {
		s.qmu.Lock()
		if len(s.queue) == 0 {
			s.qmu.Unlock()
			select {
			case <-s.wake:
				continue
			case <-s.quit:
				return
			}
		}
		event := s.queue[0]
		s.queue[0] = nil
		s.queue = s.queue[1:]
		s.qmu.Unlock()

		select {
		case s.out <- event:
		case <-s.quit:
			return
		}
	}
}

// Emitter 事件发射器
type Emitter struct {
	node   *node
	closed atomic.Bool
}

var _ pkgif.Emitter = (*Emitter)(nil)

// Emit 发射事件
func (e *Emitter) Emit(event any) error {
	if e.closed.Load() {
		return ErrEmitterClosed
	}
	e.node.emit(event)
	return nil
}

// Close 关闭发射器
func (e *Emitter) Close() error {
	e.closed.Store(true)
	return nil
}
