package server

import (
	"sync/atomic"
)

// RelayMetrics 记录中继运行期的关键指标（用于监控与调试）
type RelayMetrics struct {
	ConnectionsOpen  int64 // 当前 WebSocket 连接数
	RoomsCreated     int64
	RoomsClosed      int64
	JoinsAccepted    int64 // 成功入座（含创建者）
	JoinsRejected    int64 // 房间不存在 / 已满
	RateLimited      int64 // 因创建 / 加入过于频繁被拒绝
	TurnsFlushed     int64 // 广播的 turnData 数
	CommandsRelayed  int64 // turnData 中转发的命令总数
	MalformedIgnored int64 // 无法解析而被忽略的消息
	SlowClients      int64 // 发送队列满被断开的连接
}

func (m *RelayMetrics) IncConnOpen()         { atomic.AddInt64(&m.ConnectionsOpen, 1) }
func (m *RelayMetrics) IncConnClosed()       { atomic.AddInt64(&m.ConnectionsOpen, -1) }
func (m *RelayMetrics) IncRoomCreated()      { atomic.AddInt64(&m.RoomsCreated, 1) }
func (m *RelayMetrics) IncRoomClosed()       { atomic.AddInt64(&m.RoomsClosed, 1) }
func (m *RelayMetrics) IncJoinAccepted()     { atomic.AddInt64(&m.JoinsAccepted, 1) }
func (m *RelayMetrics) IncJoinRejected()     { atomic.AddInt64(&m.JoinsRejected, 1) }
func (m *RelayMetrics) IncRateLimited()      { atomic.AddInt64(&m.RateLimited, 1) }
func (m *RelayMetrics) IncMalformedIgnored() { atomic.AddInt64(&m.MalformedIgnored, 1) }
func (m *RelayMetrics) IncSlowClient()       { atomic.AddInt64(&m.SlowClients, 1) }
func (m *RelayMetrics) IncTurnFlushed(commands int) {
	atomic.AddInt64(&m.TurnsFlushed, 1)
	atomic.AddInt64(&m.CommandsRelayed, int64(commands))
}

func (m *RelayMetrics) AddMalformedIgnored(n int) {
	atomic.AddInt64(&m.MalformedIgnored, int64(n))
}

// Snapshot 返回只读副本，便于 HTTP 输出
func (m *RelayMetrics) Snapshot() map[string]any {
	return map[string]any{
		"connections_open":  atomic.LoadInt64(&m.ConnectionsOpen),
		"rooms_created":     atomic.LoadInt64(&m.RoomsCreated),
		"rooms_closed":      atomic.LoadInt64(&m.RoomsClosed),
		"joins_accepted":    atomic.LoadInt64(&m.JoinsAccepted),
		"joins_rejected":    atomic.LoadInt64(&m.JoinsRejected),
		"rate_limited":      atomic.LoadInt64(&m.RateLimited),
		"turns_flushed":     atomic.LoadInt64(&m.TurnsFlushed),
		"commands_relayed":  atomic.LoadInt64(&m.CommandsRelayed),
		"malformed_ignored": atomic.LoadInt64(&m.MalformedIgnored),
		"slow_clients":      atomic.LoadInt64(&m.SlowClients),
	}
}
