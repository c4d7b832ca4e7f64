package objectstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	pkgif "github.com/dep2p/go-distobj/pkg/interfaces"
	"github.com/dep2p/go-distobj/pkg/types"
)

// SaveResult Save 的结果
type SaveResult struct {
	SessionID string
	Version   float64
	DeviceID  string
}

// RevokeSaveResult RevokeSave 的结果
type RevokeSaveResult struct {
	SessionID string
}

// DistributedObject 一个会话的分布式对象
type DistributedObject struct {
	store     *Store
	sessionID string

	mu        sync.RWMutex
	fields    map[string]value
	undefined []string
	savedTo   string

	change    atomic.Pointer[pkgif.ChangeListener]
	progress  atomic.Pointer[pkgif.ProgressListener]
	destroyed atomic.Bool
}

func newObject(s *Store, sessionID string) *DistributedObject {
	return &DistributedObject{
		store:     s,
		sessionID: sessionID,
		fields:    make(map[string]value),
	}
}

// SessionID 返回会话 ID
func (o *DistributedObject) SessionID() string {
	return o.sessionID
}

// ============================================================================
//                              字段读写
// ============================================================================

func (o *DistributedObject) put(key string, v value) error {
	if key == "" {
		return types.Errorf(types.StatusInvalidArgument, "empty field key")
	}
	if o.destroyed.Load() {
		return ErrObjectDestroyed
	}
	o.mu.Lock()
	o.fields[key] = v
	o.mu.Unlock()
	return nil
}

func (o *DistributedObject) get(key string, want types.FieldType) (value, error) {
	if o.destroyed.Load() {
		return value{}, ErrObjectDestroyed
	}
	o.mu.RLock()
	v, ok := o.fields[key]
	o.mu.RUnlock()
	if !ok {
		return value{}, fmt.Errorf("%w: %q", ErrFieldNotFound, key)
	}
	if v.typ != want {
		return value{}, fmt.Errorf("%w: %q is %s", ErrTypeMismatch, key, v.typ)
	}
	return v, nil
}

// PutString 设置字符串字段
func (o *DistributedObject) PutString(key, v string) error {
	return o.put(key, value{typ: types.FieldString, str: v})
}

// PutDouble 设置浮点字段
func (o *DistributedObject) PutDouble(key string, v float64) error {
	return o.put(key, value{typ: types.FieldDouble, num: v})
}

// PutBoolean 设置布尔字段
func (o *DistributedObject) PutBoolean(key string, v bool) error {
	return o.put(key, value{typ: types.FieldBoolean, b: v})
}

// PutComplex 设置序列化后的复杂字段，v 被复制
func (o *DistributedObject) PutComplex(key string, v []byte) error {
	return o.put(key, value{typ: types.FieldComplex, raw: append([]byte(nil), v...)})
}

// GetString 读取字符串字段
func (o *DistributedObject) GetString(key string) (string, error) {
	v, err := o.get(key, types.FieldString)
	return v.str, err
}

// GetDouble 读取浮点字段
func (o *DistributedObject) GetDouble(key string) (float64, error) {
	v, err := o.get(key, types.FieldDouble)
	return v.num, err
}

// GetBoolean 读取布尔字段
func (o *DistributedObject) GetBoolean(key string) (bool, error) {
	v, err := o.get(key, types.FieldBoolean)
	return v.b, err
}

// GetComplex 读取复杂字段的副本
func (o *DistributedObject) GetComplex(key string) ([]byte, error) {
	v, err := o.get(key, types.FieldComplex)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), v.raw...), nil
}

// GetType 返回字段类型
func (o *DistributedObject) GetType(key string) (types.FieldType, error) {
	if o.destroyed.Load() {
		return 0, ErrObjectDestroyed
	}
	o.mu.RLock()
	defer o.mu.RUnlock()
	v, ok := o.fields[key]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrFieldNotFound, key)
	}
	return v.typ, nil
}

// Keys 返回排序后的字段名
func (o *DistributedObject) Keys() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	keys := make([]string, 0, len(o.fields))
	for k := range o.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ============================================================================
//                              未定义属性
// ============================================================================

// AddUndefined 记录被赋值为 undefined 的属性
func (o *DistributedObject) AddUndefined(key string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, k := range o.undefined {
		if k == key {
			return
		}
	}
	o.undefined = append(o.undefined, key)
}

// IsUndefined 属性是否为 undefined
func (o *DistributedObject) IsUndefined(key string) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	for _, k := range o.undefined {
		if k == key {
			return true
		}
	}
	return false
}

// DeleteUndefined 取消 undefined 标记
func (o *DistributedObject) DeleteUndefined(key string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i, k := range o.undefined {
		if k == key {
			o.undefined = append(o.undefined[:i], o.undefined[i+1:]...)
			return
		}
	}
}

// ============================================================================
//                              保存
// ============================================================================

// Save 把当前字段保存到目标设备
//
// 目标不是本机时快照先经管道推送，推送成功后才在本地持久化；
// 推送失败不留下记录。结果以 progress 事件通知。
func (o *DistributedObject) Save(ctx context.Context, deviceID string, version float64) (SaveResult, error) {
	if deviceID == "" {
		return SaveResult{}, types.Errorf(types.StatusInvalidArgument, "empty device id")
	}
	if o.destroyed.Load() {
		return SaveResult{}, ErrObjectDestroyed
	}

	o.mu.Lock()
	snap := &snapshot{
		kind:    kindSave,
		session: o.sessionID,
		version: version,
		device:  deviceID,
		savedAt: o.store.clock.Now(),
		fields:  make(map[string]value, len(o.fields)),
	}
	for k, v := range o.fields {
		snap.fields[k] = v
	}
	o.mu.Unlock()

	err := o.store.save(ctx, snap)
	o.reportProgress(err)
	if err != nil {
		return SaveResult{}, err
	}

	o.mu.Lock()
	o.savedTo = deviceID
	o.mu.Unlock()
	return SaveResult{SessionID: o.sessionID, Version: version, DeviceID: deviceID}, nil
}

// RevokeSave 撤销最近一次保存
func (o *DistributedObject) RevokeSave(ctx context.Context) (RevokeSaveResult, error) {
	if o.destroyed.Load() {
		return RevokeSaveResult{}, ErrObjectDestroyed
	}
	o.mu.Lock()
	target := o.savedTo
	o.savedTo = ""
	o.mu.Unlock()

	if err := o.store.revoke(ctx, o.sessionID, target); err != nil {
		return RevokeSaveResult{}, err
	}
	return RevokeSaveResult{SessionID: o.sessionID}, nil
}

func (o *DistributedObject) reportProgress(err error) {
	p := o.progress.Load()
	if p == nil {
		return
	}
	code := types.ProgressSyncSuccess
	switch types.StatusOf(err) {
	case types.StatusSuccess:
	case types.StatusInvalidArgument, types.StatusIllegalState:
		code = types.ProgressInternalError
	default:
		code = types.ProgressExternalError
	}
	(*p).OnProgress(o.sessionID, code)
}

// ============================================================================
//                              监听
// ============================================================================

// SetChangeListener 设置字段变化监听器，nil 表示清除
func (o *DistributedObject) SetChangeListener(l pkgif.ChangeListener) {
	if l == nil {
		o.change.Store(nil)
		return
	}
	o.change.Store(&l)
}

// SetProgressListener 设置同步进度监听器，nil 表示清除
func (o *DistributedObject) SetProgressListener(l pkgif.ProgressListener) {
	if l == nil {
		o.progress.Store(nil)
		return
	}
	o.progress.Store(&l)
}

// apply 用收到的快照覆盖字段，返回发生变化的字段名
func (o *DistributedObject) apply(snap *snapshot) []string {
	o.mu.Lock()
	var changed []string
	for k, v := range snap.fields {
		if old, ok := o.fields[k]; !ok || !old.equal(v) {
			o.fields[k] = v
			changed = append(changed, k)
		}
	}
	o.mu.Unlock()

	sort.Strings(changed)
	if len(changed) > 0 {
		if l := o.change.Load(); l != nil {
			(*l).OnChanged(o.sessionID, changed)
		}
	}
	return changed
}

func (o *DistributedObject) destroy() {
	o.destroyed.Store(true)
	o.change.Store(nil)
	o.progress.Store(nil)
}
