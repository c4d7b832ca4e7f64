package device

import (
	"github.com/stretchr/testify/mock"

	"github.com/dep2p/go-distobj/pkg/types"
)

// mockManager 基于 testify/mock 的设备管理器
type mockManager struct {
	mock.Mock
}

func (m *mockManager) GetUUIDByNodeID(nodeID string) string {
	args := m.Called(nodeID)
	return args.String(0)
}

func (m *mockManager) GetLocalDeviceInfo() (types.DeviceDetail, error) {
	args := m.Called()
	return args.Get(0).(types.DeviceDetail), args.Error(1)
}
