package server

import (
	"encoding/json"
	"sync"
	"time"

	"sectorwar/logging"
	"sectorwar/protocol"
)

// maxTurnLead 允许提前提交的回合数，超出的提交丢弃
const maxTurnLead = 8

// Room 一局对战的中继状态：两个座位 + 按回合累积的命令。
// 每个房间独立加锁，不同房间之间没有共享状态；中继从不接触模拟状态。
type Room struct {
	Code         string
	Seed         uint32
	TurnInterval int
	CreatedAt    time.Time

	mu      sync.Mutex
	players [seatCount]*Player
	started bool
	ended   bool
	turn    int
	// pending[turn][team] 该回合各方已提交的命令
	pending map[int]map[int][]json.RawMessage

	metrics *RelayMetrics
}

// RoomInfo 房间的只读快照，用于 /admin/rooms
type RoomInfo struct {
	Code      string    `json:"code"`
	Players   int       `json:"players"`
	Started   bool      `json:"started"`
	Ended     bool      `json:"ended"`
	Turn      int       `json:"turn"`
	Seed      uint32    `json:"seed"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewRoom 创建房间，初始化数据结构
func NewRoom(code string, seed uint32, turnInterval int, metrics *RelayMetrics) *Room {
	if metrics == nil {
		metrics = &RelayMetrics{}
	}
	return &Room{
		Code:         code,
		Seed:         seed,
		TurnInterval: turnInterval,
		CreatedAt:    time.Now(),
		pending:      make(map[int]map[int][]json.RawMessage),
		metrics:      metrics,
	}
}

// Join 占用下一个空座位并回复 roomCreated / roomJoined。
// 第二名玩家入座的同时向双方广播 gameStart，这是中继唯一一次下发对局参数。
func (r *Room) Join(conn Peer) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started || r.ended {
		return 0, ErrRoomFull
	}
	seat := -1
	for i, p := range r.players {
		if p == nil {
			seat = i
			break
		}
	}
	if seat < 0 {
		return 0, ErrRoomFull
	}
	team := seat + 1
	r.players[seat] = &Player{Team: team, Conn: conn, JoinedAt: time.Now()}

	if team == TeamCreator {
		conn.Enqueue(protocol.Encode(protocol.NewRoomCreated(r.Code, team)))
	} else {
		conn.Enqueue(protocol.Encode(protocol.NewRoomJoined(r.Code, team)))
	}

	if r.playerCountLocked() == seatCount {
		r.started = true
		r.broadcastLocked(protocol.Encode(protocol.NewGameStart(r.Seed, r.TurnInterval)))
		logging.Log.Infow("match started", "room", r.Code, "seed", r.Seed, "turnInterval", r.TurnInterval)
	}
	return team, nil
}

// Submit 记录 team 对 turn 的命令批次。双方都到齐后按 1 号、2 号阵营的顺序拼接并广播 turnData，
// 然后推进回合；后续回合若已提前到齐则连续刷新。
// 未开局、已结束、已过期、过于超前或重复的提交直接忽略。
// 每条命令的 team 字段按提交方座位改写，不是 JSON 对象的命令被丢弃。
func (r *Room) Submit(team, turn int, cmds []json.RawMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.started || r.ended || turn < r.turn || turn > r.turn+maxTurnLead || team < TeamCreator || team > seatCount {
		return
	}
	byTeam, ok := r.pending[turn]
	if !ok {
		byTeam = make(map[int][]json.RawMessage, seatCount)
		r.pending[turn] = byTeam
	}
	if _, dup := byTeam[team]; dup {
		return
	}
	stamped, dropped := stampTeam(team, cmds)
	if dropped > 0 {
		r.metrics.AddMalformedIgnored(dropped)
		logging.Log.Warnf("room %s: dropped %d malformed commands from team %d", r.Code, dropped, team)
	}
	byTeam[team] = stamped

	for {
		batch, ok := r.pending[r.turn]
		if !ok || len(batch) < seatCount {
			return
		}
		merged := make([]json.RawMessage, 0, len(batch[TeamCreator])+len(batch[TeamJoiner]))
		merged = append(merged, batch[TeamCreator]...)
		merged = append(merged, batch[TeamJoiner]...)
		r.broadcastLocked(protocol.Encode(protocol.NewTurnData(r.turn, merged)))
		r.metrics.IncTurnFlushed(len(merged))
		logging.Log.Debugf("room %s flushed turn %d (%d commands)", r.Code, r.turn, len(merged))

		delete(r.pending, r.turn)
		r.turn++
	}
}

// stampTeam 把命令的 team 改写为 seat，返回改写结果与丢弃条数
func stampTeam(seat int, cmds []json.RawMessage) ([]json.RawMessage, int) {
	out := make([]json.RawMessage, 0, len(cmds))
	team, _ := json.Marshal(seat)
	dropped := 0
	for _, c := range cmds {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(c, &fields); err != nil || fields == nil {
			dropped++
			continue
		}
		fields["team"] = team
		b, err := json.Marshal(fields)
		if err != nil {
			dropped++
			continue
		}
		out = append(out, b)
	}
	return out, dropped
}

// Leave 移出 team 并通知仍在房间里的玩家；对局从此结束。返回房间是否已空。
func (r *Room) Leave(team int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if team < TeamCreator || team > seatCount || r.players[team-1] == nil {
		return r.playerCountLocked() == 0
	}
	r.players[team-1] = nil
	if r.started && !r.ended {
		r.ended = true
		r.pending = make(map[int]map[int][]json.RawMessage)
		r.broadcastLocked(protocol.Encode(protocol.NewOpponentDisconnected()))
		logging.Log.Infow("match ended by disconnect", "room", r.Code, "team", team, "turn", r.turn)
	}
	return r.playerCountLocked() == 0
}

// Turn 当前等待中的回合
func (r *Room) Turn() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.turn
}

// Info 只读快照
func (r *Room) Info() RoomInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return RoomInfo{
		Code:      r.Code,
		Players:   r.playerCountLocked(),
		Started:   r.started,
		Ended:     r.ended,
		Turn:      r.turn,
		Seed:      r.Seed,
		CreatedAt: r.CreatedAt,
	}
}

func (r *Room) playerCountLocked() int {
	n := 0
	for _, p := range r.players {
		if p != nil {
			n++
		}
	}
	return n
}

// broadcastLocked 将消息推送给房间内所有玩家（调用方持有 r.mu）
func (r *Room) broadcastLocked(b []byte) {
	for _, p := range r.players {
		if p != nil && p.Conn != nil {
			p.Conn.Enqueue(b)
		}
	}
}
