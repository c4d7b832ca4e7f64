package interfaces

// EventBus 进程内事件总线
//
// 事件类型以指针形式传入：bus.Subscribe(new(types.EvtPeerStatusChanged))。
type EventBus interface {
	// Subscribe 订阅指定类型的事件
	Subscribe(eventType any, opts ...SubscriptionOpt) (Subscription, error)

	// Emitter 获取指定事件类型的发射器
	Emitter(eventType any) (Emitter, error)
}

// Subscription 事件订阅
type Subscription interface {
	// Out 返回接收事件的通道，Close 后关闭
	Out() <-chan any

	// Close 取消订阅
	Close() error
}

// Emitter 事件发射器
type Emitter interface {
	// Emit 发射事件，慢订阅者的事件会被丢弃而不是阻塞发射方
	Emit(event any) error

	// Close 关闭发射器
	Close() error
}

// SubscriptionSettings 订阅设置
type SubscriptionSettings struct {
	Buffer int

	// Lossless 为 true 时订阅者使用无界队列，事件按序全部送达
	Lossless bool
}

// SubscriptionOpt 订阅选项
type SubscriptionOpt func(*SubscriptionSettings)

// BufSize 设置订阅缓冲区大小
func BufSize(size int) SubscriptionOpt {
	return func(s *SubscriptionSettings) {
		s.Buffer = size
	}
}

// Lossless 订阅者使用无界队列，慢消费时不丢弃事件
func Lossless() SubscriptionOpt {
	return func(s *SubscriptionSettings) {
		s.Lossless = true
	}
}
