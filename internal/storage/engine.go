package storage

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"

	pkgif "github.com/dep2p/go-distobj/pkg/interfaces"
	"github.com/dep2p/go-distobj/pkg/lib/log"
)

var logger = log.Logger("storage/badger")

var (
	// ErrClosed 引擎已关闭
	ErrClosed = errors.New("storage engine closed")

	// ErrEmptyKey 键为空
	ErrEmptyKey = errors.New("empty key")
)

// Engine BadgerDB 存储引擎
type Engine struct {
	db     *badger.DB
	cfg    Config
	closed atomic.Bool

	gcCancel context.CancelFunc
	gcWg     sync.WaitGroup
}

var _ pkgif.Engine = (*Engine)(nil)

// Open 打开存储引擎
func Open(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var opts badger.Options
	if cfg.InMemory() {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
			return nil, err
		}
		opts = badger.DefaultOptions(cfg.Path).WithSyncWrites(cfg.SyncWrites)
	}
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{db: db, cfg: cfg, gcCancel: cancel}
	if !cfg.InMemory() && cfg.GCInterval > 0 {
		e.startGC(ctx)
	}

	logger.Debug("存储引擎已打开", "path", cfg.Path, "inMemory", cfg.InMemory())
	return e, nil
}

func (e *Engine) startGC(ctx context.Context) {
	e.gcWg.Add(1)
	go func() {
		defer e.gcWg.Done()

		ticker := time.NewTicker(e.cfg.GCInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				// 一直回收到没有可回收的文件
				for e.db.RunValueLogGC(e.cfg.GCDiscardRatio) == nil {
				}
			}
		}
	}()
}

// Get 获取值的副本
func (e *Engine) Get(key []byte) ([]byte, error) {
	if e.closed.Load() {
		return nil, ErrClosed
	}
	if len(key) == 0 {
		return nil, ErrEmptyKey
	}

	var value []byte
	err := e.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return pkgif.ErrNotFound
			}
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Put 设置键值对
func (e *Engine) Put(key, value []byte) error {
	if e.closed.Load() {
		return ErrClosed
	}
	if len(key) == 0 {
		return ErrEmptyKey
	}
	return e.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
}

// Delete 删除键
func (e *Engine) Delete(key []byte) error {
	if e.closed.Load() {
		return ErrClosed
	}
	if len(key) == 0 {
		return ErrEmptyKey
	}
	return e.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

// Scan 按前缀遍历，fn 收到的切片只在回调内有效
func (e *Engine) Scan(prefix []byte, fn func(key, value []byte) bool) error {
	if e.closed.Load() {
		return ErrClosed
	}
	return e.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			var cont bool
			if err := item.Value(func(v []byte) error {
				cont = fn(item.Key(), v)
				return nil
			}); err != nil {
				return err
			}
			if !cont {
				return nil
			}
		}
		return nil
	})
}

// Close 关闭引擎，可重复调用
func (e *Engine) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}
	e.gcCancel()
	e.gcWg.Wait()
	return e.db.Close()
}
