package config

import (
	"fmt"
	"path/filepath"
)

// StorageConfig 存储配置
//
// 对象快照持久化在 BadgerDB 中：
//
//	${DataDir}/
//	└── distobj.db/
type StorageConfig struct {
	// DataDir 数据目录
	DataDir string `json:"data_dir"`

	// InMemory 使用内存模式，不落盘
	InMemory bool `json:"in_memory"`
}

// DefaultStorageConfig 返回默认的存储配置
func DefaultStorageConfig() StorageConfig {
	return StorageConfig{
		DataDir:  "./data",
		InMemory: true,
	}
}

// Validate 验证存储配置的有效性
func (c *StorageConfig) Validate() error {
	if !c.InMemory && c.DataDir == "" {
		return fmt.Errorf("storage: data_dir cannot be empty")
	}
	return nil
}

// DBPath 返回 BadgerDB 数据库路径，内存模式返回空串
func (c *StorageConfig) DBPath() string {
	if c.InMemory {
		return ""
	}
	return filepath.Join(c.DataDir, "distobj.db")
}
