package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"sectorwar/config"
	"sectorwar/logging"
	"sectorwar/server"
)

// sectorwar 中继入口：启动 HTTP + WebSocket 服务，只转发锁步命令批次
func main() {
	var cfgPath, addr string
	flag.StringVar(&cfgPath, "config", "", "config file (json/yaml/toml), optional")
	flag.StringVar(&addr, "addr", "", "listen address override, e.g. :8080")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		panic(err)
	}
	if addr != "" {
		cfg.Listen = addr
	}

	// 使用 zap 日志写入文件（带滚动）
	if err := logging.InitLogger(logging.Options{File: cfg.Log.File, Level: cfg.Log.Level, Console: cfg.Log.Console}); err != nil {
		panic(err)
	}
	defer logging.SyncLogger()

	relay, err := server.NewRelay(server.Options{
		TurnInterval:  cfg.Match.TurnInterval,
		JoinPerSecond: cfg.Limits.JoinPerSecond,
		JoinBurst:     cfg.Limits.JoinBurst,
		MaxRooms:      cfg.Limits.MaxRooms,
	})
	if err != nil {
		logging.Log.Fatalf("relay: %v", err)
	}

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{Addr: cfg.Listen, Handler: relay.Router()}

	go func() {
		logging.Log.Infof("sectorwar relay listening on %s", cfg.Listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Log.Fatalf("listen: %v", err)
		}
	}()

	// 优雅退出（Ctrl+C）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logging.Log.Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logging.Log.Warnf("shutdown: %v", err)
	}
}
