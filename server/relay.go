package server

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"sectorwar/logging"
)

// Options 中继的可调参数，运行中可通过 /admin/config 修改（只影响之后新建的房间与连接）
type Options struct {
	TurnInterval  int     `json:"turnInterval"`
	JoinPerSecond float64 `json:"joinPerSecond"`
	JoinBurst     int     `json:"joinBurst"`
	MaxRooms      int     `json:"maxRooms"`
}

// DefaultOptions 默认参数
func DefaultOptions() Options {
	return Options{TurnInterval: 5, JoinPerSecond: 2, JoinBurst: 5, MaxRooms: 1000}
}

// Validate 检查参数是否可用
func (o Options) Validate() error {
	switch {
	case o.TurnInterval < 1:
		return fmt.Errorf("turnInterval must be >= 1, got %d", o.TurnInterval)
	case o.JoinPerSecond <= 0:
		return fmt.Errorf("joinPerSecond must be > 0, got %v", o.JoinPerSecond)
	case o.JoinBurst < 1:
		return fmt.Errorf("joinBurst must be >= 1, got %d", o.JoinBurst)
	case o.MaxRooms < 1:
		return fmt.Errorf("maxRooms must be >= 1, got %d", o.MaxRooms)
	}
	return nil
}

// Relay 锁步中继：房间注册表 + WebSocket 接入 + 管理接口
type Relay struct {
	rooms   *RoomManager
	metrics *RelayMetrics

	mu   sync.RWMutex
	opts Options

	upgrader websocket.Upgrader
}

// NewRelay 创建中继
func NewRelay(opts Options) (*Relay, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("relay options: %w", err)
	}
	metrics := &RelayMetrics{}
	return &Relay{
		rooms:   NewRoomManager(metrics),
		metrics: metrics,
		opts:    opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// 客户端不是浏览器页面，不做来源限制
				return true
			},
		},
	}, nil
}

func (s *Relay) Options() Options {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.opts
}

// SetOptions 热更新参数
func (s *Relay) SetOptions(o Options) error {
	if err := o.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.opts = o
	s.mu.Unlock()
	return nil
}

func (s *Relay) Rooms() *RoomManager { return s.rooms }

func (s *Relay) Metrics() *RelayMetrics { return s.metrics }

// Router 组装 HTTP 路由：/ws 接入，其余为健康检查、监控与管理接口
func (s *Relay) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/ws", s.HandleWS)
	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	r.GET("/metrics", s.HandleMetrics)

	admin := r.Group("/admin")
	admin.GET("/config", s.HandleGetConfig)
	admin.POST("/config", s.HandleUpdateConfig)
	admin.GET("/rooms", s.HandleRooms)
	return r
}

// requestLogger 以 debug 级别记录 HTTP 请求
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logging.Log.Debugw("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"elapsed", time.Since(start),
		)
	}
}
