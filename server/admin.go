package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sectorwar/logging"
)

// HandleGetConfig 返回当前中继参数
// GET /admin/config
func (s *Relay) HandleGetConfig(c *gin.Context) {
	c.JSON(http.StatusOK, s.Options())
}

// HandleUpdateConfig 以 JSON 载荷更新部分字段（热更新，只影响之后的新房间 / 新连接）
// POST /admin/config
func (s *Relay) HandleUpdateConfig(c *gin.Context) {
	type cfg struct {
		TurnInterval  *int     `json:"turnInterval,omitempty"`
		JoinPerSecond *float64 `json:"joinPerSecond,omitempty"`
		JoinBurst     *int     `json:"joinBurst,omitempty"`
		MaxRooms      *int     `json:"maxRooms,omitempty"`
	}
	var body cfg
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	next := s.Options()
	if body.TurnInterval != nil {
		next.TurnInterval = *body.TurnInterval
	}
	if body.JoinPerSecond != nil {
		next.JoinPerSecond = *body.JoinPerSecond
	}
	if body.JoinBurst != nil {
		next.JoinBurst = *body.JoinBurst
	}
	if body.MaxRooms != nil {
		next.MaxRooms = *body.MaxRooms
	}
	if err := s.SetOptions(next); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	logging.Log.Infof("config updated: turnInterval=%d join=%.2f/s burst=%d maxRooms=%d",
		next.TurnInterval, next.JoinPerSecond, next.JoinBurst, next.MaxRooms)
	c.JSON(http.StatusOK, gin.H{"ok": true, "config": next})
}

// HandleRooms 列出当前打开的房间
// GET /admin/rooms
func (s *Relay) HandleRooms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rooms": s.rooms.Rooms()})
}

// HandleMetrics 输出中继运行指标
// GET /metrics
func (s *Relay) HandleMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"rooms":   s.rooms.Len(),
		"metrics": s.metrics.Snapshot(),
	})
}
