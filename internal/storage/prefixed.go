package storage

import (
	pkgif "github.com/dep2p/go-distobj/pkg/interfaces"
)

// prefixed 给所有键加上固定前缀
type prefixed struct {
	eng    pkgif.Engine
	prefix []byte
}

// Prefixed 返回以 prefix 隔离的视图；Close 不关闭底层引擎
func Prefixed(eng pkgif.Engine, prefix []byte) pkgif.Engine {
	return &prefixed{eng: eng, prefix: append([]byte(nil), prefix...)}
}

func (p *prefixed) key(k []byte) []byte {
	out := make([]byte, 0, len(p.prefix)+len(k))
	out = append(out, p.prefix...)
	return append(out, k...)
}

func (p *prefixed) Get(key []byte) ([]byte, error) {
	return p.eng.Get(p.key(key))
}

func (p *prefixed) Put(key, value []byte) error {
	return p.eng.Put(p.key(key), value)
}

func (p *prefixed) Delete(key []byte) error {
	return p.eng.Delete(p.key(key))
}

func (p *prefixed) Scan(prefix []byte, fn func(key, value []byte) bool) error {
	n := len(p.prefix)
	return p.eng.Scan(p.key(prefix), func(k, v []byte) bool {
		return fn(k[n:], v)
	})
}

func (p *prefixed) Close() error {
	return nil
}
