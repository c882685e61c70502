package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log 是全局可用的 SugaredLogger。未初始化时为 Nop，库代码和测试可以直接调用
var Log = zap.NewNop().Sugar()

// Options 日志输出配置
type Options struct {
	File       string // 日志文件路径，如 "relay.log"；为空则只输出到控制台
	Level      string // debug / info / warn / error
	Console    bool   // 同时输出到 stderr
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

func (o Options) withDefaults() Options {
	if o.Level == "" {
		o.Level = "info"
	}
	if o.MaxSizeMB <= 0 {
		o.MaxSizeMB = 10
	}
	if o.MaxBackups <= 0 {
		o.MaxBackups = 3
	}
	if o.MaxAgeDays <= 0 {
		o.MaxAgeDays = 7
	}
	return o
}

// InitLogger 初始化 zap 日志：文件按大小滚动，可选同时输出到控制台
func InitLogger(opts Options) error {
	opts = opts.withDefaults()
	level, err := zapcore.ParseLevel(opts.Level)
	if err != nil {
		return fmt.Errorf("parse log level %q: %w", opts.Level, err)
	}

	encCfg := zapcore.EncoderConfig{
		TimeKey:       "ts",
		LevelKey:      "level",
		NameKey:       "logger",
		CallerKey:     "caller",
		MessageKey:    "msg",
		StacktraceKey: "stack",
		LineEnding:    zapcore.DefaultLineEnding,
		EncodeLevel:   zapcore.CapitalLevelEncoder,
		EncodeTime:    zapcore.ISO8601TimeEncoder,
		EncodeCaller:  zapcore.ShortCallerEncoder,
	}
	encoder := zapcore.NewConsoleEncoder(encCfg)

	var cores []zapcore.Core
	if opts.File != "" {
		lj := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB, // MB
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays, // days
			Compress:   false,
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(lj), level))
	}
	if opts.Console || opts.File == "" {
		cores = append(cores, zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), level))
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	Log = logger.Sugar()
	return nil
}

// SyncLogger 清理和同步缓冲
func SyncLogger() {
	if Log != nil {
		_ = Log.Sync()
	}
}
