// Package main 提供 distobj 命令行入口
//
// 启动一个 TCP 节点，打开指定管道，打印收到的消息，
// 并把标准输入的每一行发送给 -to 指定的设备。
//
//	distobj -device dev-a -listen 127.0.0.1:7001 -peer dev-b=127.0.0.1:7002 -to dev-b
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	distobj "github.com/dep2p/go-distobj"
	"github.com/dep2p/go-distobj/config"
	"github.com/dep2p/go-distobj/pkg/lib/log"
	"github.com/dep2p/go-distobj/pkg/types"
)

var logger = log.Logger("distobj/cmd")

// peerFlags 可重复的 -peer id=addr
type peerFlags []config.KnownPeer

func (p *peerFlags) String() string {
	parts := make([]string, 0, len(*p))
	for _, kp := range *p {
		parts = append(parts, kp.DeviceID+"="+kp.Addr)
	}
	return strings.Join(parts, ",")
}

func (p *peerFlags) Set(v string) error {
	id, addr, ok := strings.Cut(v, "=")
	if !ok || id == "" || addr == "" {
		return fmt.Errorf("peer 格式应为 id=addr: %q", v)
	}
	*p = append(*p, config.KnownPeer{DeviceID: id, Addr: addr})
	return nil
}

var (
	configFile = flag.String("config", "", "配置文件路径")
	listen     = flag.String("listen", "", "TCP 监听地址（host:port）")
	pipeName   = flag.String("pipe", "distobj_chat", "管道名称")
	deviceID   = flag.String("device", "", "本机设备 ID")
	sendTo     = flag.String("to", "", "标准输入发送的目标设备")
	logLevel   = flag.String("log-level", "", "日志级别 (debug/info/warn/error)")
	showVer    = flag.Bool("version", false, "显示版本信息")
	peers      peerFlags
)

func init() {
	flag.Var(&peers, "peer", "对端地址 id=addr，可重复")
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flag.Parse()

	if *showVer {
		fmt.Println("distobj", distobj.Version)
		return nil
	}

	opts, err := buildOptions()
	if err != nil {
		return fmt.Errorf("配置错误: %w", err)
	}

	store, err := distobj.New(opts...)
	if err != nil {
		return fmt.Errorf("创建失败: %w", err)
	}
	defer func() { _ = store.Close() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := store.Start(ctx); err != nil {
		return err
	}

	pipe := types.PipeInfo{PipeID: *pipeName}
	watcher := &printer{}
	if err := store.Pipes().Start(pipe); err != nil {
		return fmt.Errorf("启动管道: %w", err)
	}
	if err := store.Pipes().StartWatchDataChange(watcher, pipe); err != nil {
		return fmt.Errorf("监听管道: %w", err)
	}
	defer func() {
		_ = store.Pipes().StopWatchDataChange(watcher, pipe)
		_ = store.Pipes().Stop(pipe)
	}()

	fmt.Printf("设备 %s 已启动，管道 %s\n", store.LocalDevice(), pipe.PipeID)

	if *sendTo != "" {
		go pump(ctx, store, pipe, *sendTo)
	}

	<-ctx.Done()
	fmt.Println("\n正在关闭...")
	return nil
}

// buildOptions 配置文件在前，命令行参数覆盖
func buildOptions() ([]distobj.Option, error) {
	cfg := config.NewConfig()
	if *configFile != "" {
		var err error
		cfg, err = config.LoadFile(*configFile)
		if err != nil {
			return nil, fmt.Errorf("加载配置文件失败: %w", err)
		}
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}

	opts := []distobj.Option{distobj.WithConfig(cfg)}
	if *deviceID != "" {
		opts = append(opts, distobj.WithDeviceID(*deviceID))
	}
	if *listen != "" {
		opts = append(opts, distobj.WithTCP(*listen))
	} else if cfg.Transport.Kind != config.TransportTCP {
		return nil, errors.New("需要 -listen 或 tcp 配置")
	}
	for _, p := range peers {
		opts = append(opts, distobj.WithPeer(p.DeviceID, p.Addr))
	}
	return opts, nil
}

// pump 把标准输入逐行发送给 to
func pump(ctx context.Context, store *distobj.Store, pipe types.PipeInfo, to string) {
	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		line := append([]byte(nil), sc.Bytes()...)
		if len(line) == 0 {
			continue
		}
		sendCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err := store.Pipes().SendData(sendCtx, pipe, types.DeviceID{DeviceID: to},
			types.DataInfo{Data: line, Length: uint32(len(line))}, uint32(len(line)), types.MessageInfo{})
		cancel()
		if err != nil {
			logger.Warn("发送失败", "to", log.Anonymize(to), "error", err)
			fmt.Fprintf(os.Stderr, "发送失败: %v\n", err)
		}
	}
}

type printer struct{}

func (*printer) OnMessage(pipe types.PipeInfo, from types.DeviceID, data []byte, info types.MessageInfo) {
	fmt.Printf("[%s] %s (%s): %s\n", pipe.PipeID, from.DeviceID, info.MessageType, data)
}
