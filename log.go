package distobj

import (
	"io"
	"log/slog"
	"os"

	"github.com/dep2p/go-distobj/config"
	"github.com/dep2p/go-distobj/pkg/lib/log"
)

// setupLogging 按配置设置默认 logger，返回需要在关闭时释放的文件
func setupLogging(cfg config.LogConfig) (io.Closer, error) {
	var w io.Writer = os.Stderr
	var closer io.Closer
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, err
		}
		w, closer = f, f
	}

	opts := &slog.HandlerOptions{Level: log.ParseLevel(cfg.Level)}
	if cfg.Format == "json" {
		log.SetDefault(log.NewJSON(w, opts))
	} else {
		log.SetDefault(log.New(w, opts))
	}
	return closer, nil
}
