package server

import "time"

// 两个座位：创建者为 1 号阵营，加入者为 2 号阵营
const (
	TeamCreator = 1
	TeamJoiner  = 2
	seatCount   = 2
)

// Peer 房间向玩家推送消息的出口，由 ClientConn 实现
type Peer interface {
	Enqueue(b []byte)
}

// Player 房间内的一个座位
type Player struct {
	Team     int
	Conn     Peer
	JoinedAt time.Time
}
