package device

import (
	"os"
	"sync"

	"github.com/google/uuid"

	pkgif "github.com/dep2p/go-distobj/pkg/interfaces"
	"github.com/dep2p/go-distobj/pkg/types"
)

// DefaultDeviceType 未配置时的设备类型
const DefaultDeviceType = "default"

// StaticManager 基于静态表的设备管理器
//
// 用于没有平台设备服务的场景（CLI、测试），节点 ID 到 UUID 的映射由配置给出。
type StaticManager struct {
	local types.DeviceDetail

	mu    sync.RWMutex
	peers map[string]string
}

var _ pkgif.DeviceManager = (*StaticManager)(nil)

// NewStaticManager 创建静态设备管理器
func NewStaticManager(local types.DeviceDetail) *StaticManager {
	m := &StaticManager{
		local: local,
		peers: make(map[string]string),
	}
	if local.NetworkID != "" && local.UUID != "" {
		m.peers[local.NetworkID] = local.UUID
	}
	return m
}

// DefaultLocalDevice 生成本机设备信息：随机 UUID，主机名作为设备名
func DefaultLocalDevice() types.DeviceDetail {
	id := uuid.NewString()
	name, err := os.Hostname()
	if err != nil || name == "" {
		name = "localhost"
	}
	return types.DeviceDetail{
		UUID:       id,
		NetworkID:  id,
		DeviceName: name,
		DeviceType: DefaultDeviceType,
	}
}

// AddPeer 登记对端节点
func (m *StaticManager) AddPeer(nodeID, deviceUUID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.peers[nodeID] = deviceUUID
}

// RemovePeer 删除对端节点
func (m *StaticManager) RemovePeer(nodeID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.peers, nodeID)
}

// GetUUIDByNodeID 查询设备 UUID
func (m *StaticManager) GetUUIDByNodeID(nodeID string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.peers[nodeID]
}

// GetLocalDeviceInfo 返回本机设备信息
func (m *StaticManager) GetLocalDeviceInfo() (types.DeviceDetail, error) {
	if m.local.IsZero() {
		return types.DeviceDetail{}, ErrLocalDeviceUnavailable
	}
	return m.local, nil
}
