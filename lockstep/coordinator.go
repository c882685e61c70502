// Package lockstep 实现客户端侧的锁步同步：把本地命令按回合提交给中继，
// 收到合并后的命令批次才推进模拟。
package lockstep

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"sectorwar/logging"
	"sectorwar/protocol"
	"sectorwar/sim"
)

// ErrMatchEnded 对局已结束（胜负已分、对手断开或本方离开）
var ErrMatchEnded = errors.New("match ended")

// Phase 协调器状态
type Phase int

const (
	PhaseConnecting Phase = iota
	PhaseWaitingForOpponent
	PhaseRunning
	PhaseEnded
)

func (p Phase) String() string {
	switch p {
	case PhaseConnecting:
		return "connecting"
	case PhaseWaitingForOpponent:
		return "waitingForOpponent"
	case PhaseRunning:
		return "running"
	default:
		return "ended"
	}
}

// RelayError 中继返回的 error 消息
type RelayError struct {
	Message string
}

func (e *RelayError) Error() string { return "relay: " + e.Message }

// Coordinator 一场联网对局的客户端状态机。
// 不是并发安全的：HandleMessage / Poll / Step / Queue 都应在驱动循环的同一协程里调用。
type Coordinator struct {
	transport Transport
	pending   *sim.CommandQueue

	phase        Phase
	team         sim.Team
	roomCode     string
	seed         uint32
	turnInterval int
	endReason    string

	engine     *sim.Engine
	state      *sim.GameState
	turn       int // 当前（或等待中的）回合
	windowTick int // 当前回合已推进的 tick 数
	received   map[int][]sim.Command

	undecodable int
}

// NewCoordinator 创建处于 connecting 阶段的协调器
func NewCoordinator(t Transport) *Coordinator {
	return &Coordinator{
		transport: t,
		pending:   sim.NewCommandQueue(),
		received:  make(map[int][]sim.Command),
	}
}

func (c *Coordinator) Phase() Phase { return c.phase }

func (c *Coordinator) Team() sim.Team { return c.team }

func (c *Coordinator) RoomCode() string { return c.roomCode }

func (c *Coordinator) Seed() uint32 { return c.seed }

func (c *Coordinator) Turn() int { return c.turn }

// EndReason 对局结束的原因，未结束时为空
func (c *Coordinator) EndReason() string { return c.endReason }

// State 最近一次完成的 tick 的快照；开局前为 nil
func (c *Coordinator) State() *sim.GameState { return c.state }

// Dropped 引擎丢弃的非法命令数 + 无法解析的命令数
func (c *Coordinator) Dropped() int {
	n := c.undecodable
	if c.engine != nil {
		n += c.engine.Dropped()
	}
	return n
}

// CreateRoom 请求中继新建房间
func (c *Coordinator) CreateRoom() error {
	if c.phase != PhaseConnecting {
		return fmt.Errorf("create room in phase %s", c.phase)
	}
	return c.transport.Send(protocol.NewCreateRoom())
}

// JoinRoom 请求加入已有房间
func (c *Coordinator) JoinRoom(code string) error {
	if c.phase != PhaseConnecting {
		return fmt.Errorf("join room in phase %s", c.phase)
	}
	return c.transport.Send(protocol.NewJoinRoom(code))
}

// Leave 离开房间，对局随之结束
func (c *Coordinator) Leave() error {
	if c.phase == PhaseEnded {
		return nil
	}
	c.end("left")
	return c.transport.Send(protocol.NewLeave())
}

// Queue 缓存一条本地命令，在下一个回合边界提交
func (c *Coordinator) Queue(cmd sim.Command) error {
	if c.phase == PhaseEnded {
		return ErrMatchEnded
	}
	c.pending.Push(cmd)
	return nil
}

// HandleMessage 处理一条中继消息。中继的 error 消息以 *RelayError 返回
func (c *Coordinator) HandleMessage(m protocol.Message) error {
	switch m.Type {
	case protocol.TypeRoomCreated, protocol.TypeRoomJoined:
		if c.phase != PhaseConnecting {
			return nil
		}
		c.team = teamFromSeat(m.Team)
		c.roomCode = m.RoomCode
		c.phase = PhaseWaitingForOpponent
		logging.Log.Infow("seated", "room", c.roomCode, "team", c.team)

	case protocol.TypeGameStart:
		if c.phase != PhaseWaitingForOpponent {
			return nil
		}
		c.start(m.Seed, m.TurnInterval)

	case protocol.TypeTurnData:
		if c.phase != PhaseRunning || m.Turn < c.turn {
			return nil
		}
		c.received[m.Turn] = c.decode(m.Commands)

	case protocol.TypeOpponentDisconnected:
		c.end("opponent disconnected")

	case protocol.TypeError:
		logging.Log.Warnf("relay error: %s", m.Message)
		return &RelayError{Message: m.Message}
	}
	return nil
}

func teamFromSeat(seat int) sim.Team {
	if seat == 2 {
		return sim.TeamBlue
	}
	return sim.TeamRed
}

func (c *Coordinator) start(seed uint32, turnInterval int) {
	if turnInterval < 1 {
		turnInterval = 1
	}
	c.seed = seed
	c.turnInterval = turnInterval
	c.engine = sim.NewEngine(seed, sim.Options{Networked: true, LocalTeam: c.team})
	c.state = c.engine.State()
	c.turn = 0
	c.windowTick = 0
	c.phase = PhaseRunning
	logging.Log.Infow("match started", "room", c.roomCode, "seed", seed, "turnInterval", turnInterval)
	c.submit(0)
}

// submit 把缓存的本地命令作为 turn 回合提交，命令阵营强制为本方
func (c *Coordinator) submit(turn int) {
	cmds := c.pending.Drain()
	batch := make([]json.RawMessage, 0, len(cmds))
	for _, cmd := range cmds {
		cmd.Team = c.team
		b, err := json.Marshal(cmd)
		if err != nil {
			continue
		}
		batch = append(batch, b)
	}
	if err := c.transport.Send(protocol.NewTurnCommands(turn, batch)); err != nil {
		logging.Log.Warnf("submit turn %d: %v", turn, err)
		c.end("connection lost")
	}
}

func (c *Coordinator) decode(raw []json.RawMessage) []sim.Command {
	out := make([]sim.Command, 0, len(raw))
	for _, r := range raw {
		var cmd sim.Command
		if err := json.Unmarshal(r, &cmd); err != nil {
			c.undecodable++
			continue
		}
		out = append(out, cmd)
	}
	return out
}

func (c *Coordinator) end(reason string) {
	if c.phase == PhaseEnded {
		return
	}
	c.phase = PhaseEnded
	c.endReason = reason
	logging.Log.Infow("match ended", "room", c.roomCode, "reason", reason, "turn", c.turn)
}

// Step 推进一个 tick。回合的合并命令尚未到达、或对局未在进行时返回 false。
// 合并命令只在回合的第一个 tick 应用，其余 tick 传入空命令。
func (c *Coordinator) Step() bool {
	if c.phase != PhaseRunning {
		return false
	}
	var cmds []sim.Command
	if c.windowTick == 0 {
		batch, ok := c.received[c.turn]
		if !ok {
			return false
		}
		delete(c.received, c.turn)
		cmds = batch
	}
	c.state = c.engine.Tick(cmds)
	c.windowTick++

	if !c.state.IsRunning {
		c.end(fmt.Sprintf("winner %s", c.state.Winner))
		return true
	}
	if c.windowTick == c.turnInterval {
		logging.Log.Debugw("turn complete", "room", c.roomCode, "turn", c.turn, "tick", c.state.Tick, "digest", c.state.Digest())
		c.windowTick = 0
		c.turn++
		c.submit(c.turn)
	}
	return true
}

// Poll 非阻塞地处理所有已到达的中继消息，返回遇到的第一个中继错误
func (c *Coordinator) Poll() error {
	var first error
	for {
		select {
		case m, ok := <-c.transport.Incoming():
			if !ok {
				c.end("connection lost")
				return first
			}
			if err := c.HandleMessage(m); err != nil && first == nil {
				first = err
			}
		default:
			return first
		}
	}
}

// Await 阻塞处理入站消息，直到 cond 成立、ctx 结束或收到中继错误
func (c *Coordinator) Await(ctx context.Context, cond func() bool) error {
	for !cond() {
		if c.phase == PhaseEnded {
			return ErrMatchEnded
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-c.transport.Incoming():
			if !ok {
				c.end("connection lost")
				return ErrMatchEnded
			}
			if err := c.HandleMessage(m); err != nil {
				return err
			}
		}
	}
	return nil
}
