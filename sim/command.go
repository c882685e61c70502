package sim

import "sync"

// CommandKind 命令标签
type CommandKind string

const (
	CmdMove      CommandKind = "move"
	CmdAttack    CommandKind = "attack"
	CmdProduce   CommandKind = "produce"
	CmdSelect    CommandKind = "select"
	CmdBoxSelect CommandKind = "boxSelect"
)

// Command 带标签的联合体；Team 用于在引擎内校验归属
//
//	move:      UnitIDs + Target
//	attack:    UnitIDs + TargetID（单位或建筑）
//	produce:   BuildingID + UnitType
//	select:    UnitIDs
//	boxSelect: Box
type Command struct {
	Kind       CommandKind `json:"kind"`
	Team       Team        `json:"team"`
	UnitIDs    []EntityID  `json:"unitIds,omitempty"`
	Target     Vec2        `json:"target"`
	TargetID   EntityID    `json:"targetId,omitempty"`
	BuildingID EntityID    `json:"buildingId,omitempty"`
	UnitType   UnitType    `json:"unitType,omitempty"`
	Box        Rect        `json:"box"`
}

func MoveCommand(team Team, ids []EntityID, target Vec2) Command {
	return Command{Kind: CmdMove, Team: team, UnitIDs: ids, Target: target}
}

func AttackCommand(team Team, ids []EntityID, targetID EntityID) Command {
	return Command{Kind: CmdAttack, Team: team, UnitIDs: ids, TargetID: targetID}
}

func ProduceCommand(team Team, building EntityID, t UnitType) Command {
	return Command{Kind: CmdProduce, Team: team, BuildingID: building, UnitType: t}
}

func SelectCommand(team Team, ids []EntityID) Command {
	return Command{Kind: CmdSelect, Team: team, UnitIDs: ids}
}

func BoxSelectCommand(team Team, box Rect) Command {
	return Command{Kind: CmdBoxSelect, Team: team, Box: box}
}

// CommandQueue 在两个 tick 之间收集用户 / AI 意图。
// 可被多个生产者并发写入，由驱动循环单独消费。
type CommandQueue struct {
	mu   sync.Mutex
	cmds []Command
}

func NewCommandQueue() *CommandQueue {
	return &CommandQueue{}
}

// Push 追加一条命令
func (q *CommandQueue) Push(cmd Command) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.cmds = append(q.cmds, cmd)
}

// Drain 按 FIFO 取出并清空；已取出的命令不会再次出现
func (q *CommandQueue) Drain() []Command {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.cmds) == 0 {
		return nil
	}
	out := q.cmds
	q.cmds = nil
	return out
}

func (q *CommandQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.cmds)
}
