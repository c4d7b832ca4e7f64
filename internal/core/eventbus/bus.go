package eventbus

import (
	"errors"
	"reflect"
	"sync"
	"sync/atomic"

	pkgif "github.com/dep2p/go-distobj/pkg/interfaces"
	"github.com/dep2p/go-distobj/pkg/lib/log"
)

var logger = log.Logger("core/eventbus")

var (
	// ErrInvalidEventType 无效的事件类型
	ErrInvalidEventType = errors.New("invalid event type")
	// ErrNonPointerType 事件类型必须以指针传入
	ErrNonPointerType = errors.New("event type must be a pointer")
	// ErrEmitterClosed 发射器已关闭
	ErrEmitterClosed = errors.New("emitter closed")
)

const defaultBuffer = 16

// Bus 事件总线
type Bus struct {
	mu    sync.Mutex
	nodes map[reflect.Type]*node
}

var _ pkgif.EventBus = (*Bus)(nil)

// node 单个事件类型的订阅者集合
type node struct {
	mu      sync.Mutex
	typ     reflect.Type
	sinks   []*Subscription
	dropped atomic.Int64
}

// NewBus 创建事件总线
func NewBus() *Bus {
	return &Bus{nodes: make(map[reflect.Type]*node)}
}

// Subscribe 订阅事件
func (b *Bus) Subscribe(eventType any, opts ...pkgif.SubscriptionOpt) (pkgif.Subscription, error) {
	typ, err := elemType(eventType)
	if err != nil {
		return nil, err
	}

	settings := pkgif.SubscriptionSettings{Buffer: defaultBuffer}
	for _, opt := range opts {
		opt(&settings)
	}
	if settings.Buffer < 0 {
		settings.Buffer = 0
	}

	n := b.nodeFor(typ)
	sub := &Subscription{
		node: n,
		out:  make(chan any, settings.Buffer),
	}
	if settings.Lossless {
		sub.wake = make(chan struct{}, 1)
		sub.quit = make(chan struct{})
		sub.done = make(chan struct{})
		go sub.pump()
	}

	n.mu.Lock()
	n.sinks = append(n.sinks, sub)
	n.mu.Unlock()

	return sub, nil
}

// Emitter 获取发射器
func (b *Bus) Emitter(eventType any) (pkgif.Emitter, error) {
	typ, err := elemType(eventType)
	if err != nil {
		return nil, err
	}
	return &Emitter{node: b.nodeFor(typ)}, nil
}

// nodeFor 返回（必要时创建）类型节点
func (b *Bus) nodeFor(typ reflect.Type) *node {
	b.mu.Lock()
	defer b.mu.Unlock()

	n, ok := b.nodes[typ]
	if !ok {
		n = &node{typ: typ}
		b.nodes[typ] = n
	}
	return n
}

// elemType 校验事件类型并返回其元素类型
func elemType(eventType any) (reflect.Type, error) {
	if eventType == nil {
		return nil, ErrInvalidEventType
	}
	typ := reflect.TypeOf(eventType)
	if typ.Kind() != reflect.Ptr {
		return nil, ErrNonPointerType
	}
	return typ.Elem(), nil
}

// emit 投递到所有订阅者，缓冲区满则丢弃
func (n *node) emit(event any) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for _, sub := range n.sinks {
		if sub.lossless() {
			sub.enqueue(event)
			continue
		}
		select {
		case sub.out <- event:
		default:
			// 每丢弃 100 个事件告警一次
			if dropped := n.dropped.Add(1); dropped%100 == 1 {
				logger.Warn("慢消费者检测", "type", n.typ.String(), "dropped", dropped)
			}
		}
	}
}

// remove 移除订阅者
func (n *node) remove(sub *Subscription) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for i, s := range n.sinks {
		if s == sub {
			n.sinks = append(n.sinks[:i], n.sinks[i+1:]...)
			return
		}
	}
}

// subscribers 当前订阅者数量
func (n *node) subscribers() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sinks)
}

// Dropped 返回因订阅者缓冲区已满而丢弃的事件总数
func (b *Bus) Dropped() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	var total int64
	for _, n := range b.nodes {
		total += n.dropped.Load()
	}
	return total
}
