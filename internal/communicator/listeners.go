package communicator

import (
	"fmt"
	"reflect"
	"runtime/debug"
	"sync"

	pkgif "github.com/dep2p/go-distobj/pkg/interfaces"
	"github.com/dep2p/go-distobj/pkg/types"
)

// listenerRegistry 单个管道的数据变化监听器集合
//
// 以接口值作为身份，同一监听器最多绑定一次。
type listenerRegistry struct {
	mu        sync.RWMutex
	observers []pkgif.DataChangeListener
}

func newListenerRegistry() *listenerRegistry {
	return &listenerRegistry{}
}

// checkObserver 校验监听器可作为身份使用
func checkObserver(l pkgif.DataChangeListener) error {
	if l == nil {
		return withStatus(types.StatusInvalidArgument, ErrNilObserver)
	}
	v := reflect.ValueOf(l)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Chan, reflect.Func, reflect.Slice, reflect.Interface:
		if v.IsNil() {
			return withStatus(types.StatusInvalidArgument, ErrNilObserver)
		}
	}
	if !v.Type().Comparable() {
		return withStatus(types.StatusInvalidArgument, ErrUncomparableObserver)
	}
	return nil
}

// register 注册监听器，重复注册为空操作
func (r *listenerRegistry) register(l pkgif.DataChangeListener) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, o := range r.observers {
		if o == l {
			return false
		}
	}
	r.observers = append(r.observers, l)
	return true
}

// unregister 注销监听器，不存在时为空操作
func (r *listenerRegistry) unregister(l pkgif.DataChangeListener) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, o := range r.observers {
		if o == l {
			r.observers = append(r.observers[:i:i], r.observers[i+1:]...)
			return true
		}
	}
	return false
}

// snapshot 返回当前监听器的副本
func (r *listenerRegistry) snapshot() []pkgif.DataChangeListener {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]pkgif.DataChangeListener, len(r.observers))
	copy(out, r.observers)
	return out
}

// Len 当前监听器数量
func (r *listenerRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.observers)
}

// notifyAll 对快照中的每个监听器调用 fn
//
// 单个监听器 panic 被恢复并记录，不影响其余监听器。返回 panic 次数。
func (r *listenerRegistry) notifyAll(fn func(pkgif.DataChangeListener)) int {
	panics := 0
	for _, l := range r.snapshot() {
		if err := safeCall(l, fn); err != nil {
			panics++
			logger.Error("监听器回调 panic", "observer", fmt.Sprintf("%T", l), "error", err)
		}
	}
	return panics
}

func safeCall(l pkgif.DataChangeListener, fn func(pkgif.DataChangeListener)) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v\n%s", rec, debug.Stack())
		}
	}()
	fn(l)
	return nil
}
