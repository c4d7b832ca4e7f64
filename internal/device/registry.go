package device

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	pkgif "github.com/dep2p/go-distobj/pkg/interfaces"
	"github.com/dep2p/go-distobj/pkg/lib/log"
	"github.com/dep2p/go-distobj/pkg/types"
)

var logger = log.Logger("device/registry")

// Registry 设备注册表
type Registry struct {
	mgr pkgif.DeviceManager

	// local 解析成功后只写一次；initMu 只串行化首次解析
	local  atomic.Pointer[types.DeviceDetail]
	initMu sync.Mutex

	group singleflight.Group
	peers *expirable.LRU[string, string]
}

// NewRegistry 创建设备注册表
func NewRegistry(mgr pkgif.DeviceManager, opts ...Option) (*Registry, error) {
	if mgr == nil {
		return nil, ErrNilManager
	}
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = DefaultConfig().CacheSize
	}

	return &Registry{
		mgr:   mgr,
		peers: expirable.NewLRU[string, string](cfg.CacheSize, nil, cfg.CacheTTL),
	}, nil
}

// LocalDevice 返回本机设备信息
//
// 并发的首次调用方阻塞等待同一次解析；解析失败不缓存，下次调用重试。
func (r *Registry) LocalDevice() (types.DeviceDetail, error) {
	if d := r.local.Load(); d != nil {
		return *d, nil
	}

	r.initMu.Lock()
	defer r.initMu.Unlock()

	if d := r.local.Load(); d != nil {
		return *d, nil
	}

	d, err := r.mgr.GetLocalDeviceInfo()
	if err != nil {
		return types.DeviceDetail{}, fmt.Errorf("%w: %v", ErrLocalDeviceUnavailable, err)
	}
	if d.IsZero() {
		return types.DeviceDetail{}, ErrLocalDeviceUnavailable
	}
	r.local.Store(&d)
	logger.Info("本机设备信息已解析",
		"uuid", log.Anonymize(d.UUID),
		"networkID", log.Anonymize(d.NetworkID),
		"type", d.DeviceType)
	return d, nil
}

// ResolveUUID 将节点 ID 解析为设备 UUID，未知设备返回空串
func (r *Registry) ResolveUUID(nodeID string) string {
	if nodeID == "" {
		return ""
	}
	if id, ok := r.peers.Get(nodeID); ok {
		return id
	}

	v, _, _ := r.group.Do(nodeID, func() (any, error) {
		id := r.mgr.GetUUIDByNodeID(nodeID)
		if id != "" {
			r.peers.Add(nodeID, id)
		} else {
			logger.Debug("未知设备", "nodeID", log.Anonymize(nodeID))
		}
		return id, nil
	})
	return v.(string)
}

// Forget 丢弃某个节点的缓存结果
func (r *Registry) Forget(nodeID string) {
	r.peers.Remove(nodeID)
}

// CachedPeers 返回当前缓存条目数
func (r *Registry) CachedPeers() int {
	return r.peers.Len()
}

// ============================================================================
//                              进程级单例
// ============================================================================

var (
	instance   atomic.Pointer[Registry]
	instanceMu sync.Mutex
)

// Instance 返回进程级注册表
//
// 未通过 SetInstance 注入时，首次访问以 NewStaticManager 生成的本机身份创建。
func Instance() *Registry {
	if r := instance.Load(); r != nil {
		return r
	}

	instanceMu.Lock()
	defer instanceMu.Unlock()

	if r := instance.Load(); r != nil {
		return r
	}
	r, _ := NewRegistry(NewStaticManager(DefaultLocalDevice()))
	instance.Store(r)
	return r
}

// SetInstance 替换进程级注册表，nil 表示重置为懒加载
func SetInstance(r *Registry) {
	instanceMu.Lock()
	defer instanceMu.Unlock()
	instance.Store(r)
}
