package memory

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/dep2p/go-distobj/pkg/lib/log"
)

var logger = log.Logger("transport/memory")

// ErrRemoveFailed 注入的移除失败
var ErrRemoveFailed = errors.New("remove session server failed")

// Network 进程内网络
type Network struct {
	mu        sync.Mutex
	endpoints map[string]*Endpoint

	rejected   map[string]struct{}
	removeFail map[string]struct{}

	nextConnID atomic.Uint64
}

// NewNetwork 创建进程内网络
func NewNetwork(opts ...Option) *Network {
	n := &Network{
		endpoints:  make(map[string]*Endpoint),
		rejected:   make(map[string]struct{}),
		removeFail: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Endpoint 返回设备的端点，不存在时创建
func (n *Network) Endpoint(device string) *Endpoint {
	n.mu.Lock()
	defer n.mu.Unlock()

	if ep, ok := n.endpoints[device]; ok {
		return ep
	}
	ep := newEndpoint(n, device)
	n.endpoints[device] = ep
	logger.Debug("创建内存端点", "device", log.Anonymize(device))
	return ep
}

// Devices 返回网络中的设备数量
func (n *Network) Devices() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.endpoints)
}

func (n *Network) lookup(device string) *Endpoint {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.endpoints[device]
}

func (n *Network) detach(device string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.endpoints, device)
}

func (n *Network) isRejected(name string) bool {
	_, ok := n.rejected[name]
	return ok
}

func (n *Network) failsRemove(name string) bool {
	_, ok := n.removeFail[name]
	return ok
}
