package distobj

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/fx"
	"go.uber.org/multierr"

	"github.com/dep2p/go-distobj/config"
	"github.com/dep2p/go-distobj/internal/communicator"
	"github.com/dep2p/go-distobj/internal/device"
	"github.com/dep2p/go-distobj/internal/notifier"
	"github.com/dep2p/go-distobj/internal/objectstore"
	pkgif "github.com/dep2p/go-distobj/pkg/interfaces"
	"github.com/dep2p/go-distobj/pkg/lib/log"
)

var logger = log.Logger("distobj")

// Version 当前版本
const Version = "v0.1.0"

const (
	startTimeout = 30 * time.Second
	stopTimeout  = 15 * time.Second
)

// Store 分布式对象存储的入口
type Store struct {
	cfg *config.Config
	app *fx.App
	log io.Closer

	registry  *device.Registry
	transport pkgif.SessionTransport
	pipes     *communicator.Manager
	notifier  *notifier.Notifier
	objects   *objectstore.Store

	mu      sync.Mutex
	started bool
	closed  bool
}

// New 按选项组装 Store，组件在 Start 时启动
func New(opts ...Option) (*Store, error) {
	o := newOptions()
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, fmt.Errorf("apply option: %w", err)
		}
	}

	closer, err := setupLogging(o.config.Log)
	if err != nil {
		return nil, fmt.Errorf("setup logging: %w", err)
	}

	s := &Store{cfg: o.config, log: closer}
	app, err := buildFxApp(o, s)
	if err != nil {
		if closer != nil {
			closer.Close()
		}
		return nil, err
	}
	s.app = app
	return s, nil
}

// Start 启动全部组件
func (s *Store) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	if s.started {
		return ErrAlreadyStarted
	}

	startCtx, cancel := context.WithTimeout(ctx, startTimeout)
	defer cancel()
	if err := s.app.Start(startCtx); err != nil {
		logger.Error("启动失败", "error", err)
		return fmt.Errorf("start: %w", err)
	}
	s.started = true

	logger.Info("distobj 已启动",
		"version", Version,
		"device", log.Anonymize(s.objects.LocalDevice()),
		"transport", s.cfg.Transport.Kind)
	return nil
}

// Close 停止全部组件，可重复调用
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	var err error
	if s.started {
		ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
		err = s.app.Stop(ctx)
		cancel()
		logger.Info("distobj 已关闭")
	}
	if s.log != nil {
		err = multierr.Append(err, s.log.Close())
	}
	return err
}

// Config 返回生效的配置
func (s *Store) Config() *config.Config {
	return s.cfg
}

// LocalDevice 本机网络 ID
func (s *Store) LocalDevice() string {
	return s.objects.LocalDevice()
}

// Pipes 返回管道管理器
func (s *Store) Pipes() *communicator.Manager {
	return s.pipes
}

// Devices 返回设备注册表
func (s *Store) Devices() *device.Registry {
	return s.registry
}

// Notifier 返回会话 Watcher 表
func (s *Store) Notifier() *notifier.Notifier {
	return s.notifier
}

// Objects 返回对象存储
func (s *Store) Objects() *objectstore.Store {
	return s.objects
}

// Transport 返回会话传输
func (s *Store) Transport() pkgif.SessionTransport {
	return s.transport
}
