package sim

// System 一个固定顺序的状态变换阶段
type System func(*GameState)

// Options 引擎运行模式
type Options struct {
	// Networked 联机锁步模式：完全关闭 AI，双方只由中继命令驱动
	Networked bool
	// LocalTeam 单机模式下玩家所在阵营，AI 控制另一方
	LocalTeam Team
}

// Engine 持有唯一可写的 GameState，每次 Tick 在副本上推进，对外只暴露快照
type Engine struct {
	state   *GameState
	opts    Options
	dropped int
}

// NewEngine 以种子生成地图并创建引擎
func NewEngine(seed uint32, opts Options) *Engine {
	return NewEngineFromState(GenerateMap(seed), opts)
}

// NewEngineFromState 从给定状态启动（测试与自定义场景）
func NewEngineFromState(s *GameState, opts Options) *Engine {
	if opts.LocalTeam == TeamNone {
		opts.LocalTeam = TeamRed
	}
	return &Engine{state: s.Clone(), opts: opts}
}

// State 返回当前状态快照，调用方可以随意读取，修改不会影响引擎
func (e *Engine) State() *GameState { return e.state.Clone() }

// Dropped 因归属或目标无效而被丢弃的命令累计数
func (e *Engine) Dropped() int { return e.dropped }

// AITeam 单机模式下 AI 控制的阵营；联机模式为 TeamNone
func (e *Engine) AITeam() Team {
	if e.opts.Networked {
		return TeamNone
	}
	return e.opts.LocalTeam.Opponent()
}

// Tick 推进一步，顺序固定：清事件 → 应用命令 → 移动 → 战斗 → 生产 → 占领 → AI → 胜负 → tick+1。
// 任何重排都会改变结果并破坏对端一致性。
func (e *Engine) Tick(commands []Command) *GameState {
	s := e.state.Clone()
	s.Events = s.Events[:0]
	s.Effects = s.Effects[:0]

	if !s.IsRunning {
		e.state = s
		return s.Clone()
	}

	e.apply(s, commands)

	for _, sys := range []System{Movement, Combat, Production, Capture} {
		sys(s)
	}

	if !e.opts.Networked && s.Tick%AIInterval == 0 {
		ai := e.AITeam()
		e.apply(s, AICommands(s, ai))
		// AI 的移动命令立即生效，不落后一个 tick
		Movement(s)
	}

	if s.Tick >= WinCheckStartTick {
		WinCondition(s)
	}

	s.Tick++
	e.state = s
	return s.Clone()
}

func (e *Engine) apply(s *GameState, commands []Command) {
	for _, cmd := range commands {
		if !ApplyCommand(s, cmd) {
			e.dropped++
		}
	}
}

// ApplyCommand 应用单条命令；无效命令返回 false，状态不变
func ApplyCommand(s *GameState, cmd Command) bool {
	switch cmd.Kind {
	case CmdMove:
		return applyMove(s, cmd)
	case CmdAttack:
		return applyAttack(s, cmd)
	case CmdProduce:
		return applyProduce(s, cmd)
	case CmdSelect:
		return applySelect(s, cmd)
	case CmdBoxSelect:
		return applyBoxSelect(s, cmd)
	default:
		return false
	}
}

// ownedUnits 只返回属于命令阵营的单位，按命令中的顺序
func ownedUnits(s *GameState, cmd Command) []*Unit {
	out := make([]*Unit, 0, len(cmd.UnitIDs))
	for _, id := range cmd.UnitIDs {
		if u, ok := s.Units[id]; ok && u.Team == cmd.Team {
			out = append(out, u)
		}
	}
	return out
}

func applyMove(s *GameState, cmd Command) bool {
	units := ownedUnits(s, cmd)
	if len(units) == 0 {
		return false
	}
	for _, u := range units {
		u.Path = FindPath(s.Grid, u.Pos, cmd.Target)
		u.AttackTarget = 0
		if len(u.Path) > 0 {
			u.State = StateMoving
		} else {
			u.State = StateIdle
		}
	}
	return true
}

func applyAttack(s *GameState, cmd Command) bool {
	units := ownedUnits(s, cmd)
	if len(units) == 0 {
		return false
	}
	pos, team, ok := s.targetPosition(cmd.TargetID)
	if !ok || !isEnemy(cmd.Team, team) {
		return false
	}
	for _, u := range units {
		u.AttackTarget = cmd.TargetID
		u.Path = FindPath(s.Grid, u.Pos, pos)
		if len(u.Path) == 0 {
			u.State = StateAttacking
		} else {
			u.State = StateMoving
		}
	}
	return true
}

func applyProduce(s *GameState, cmd Command) bool {
	b, ok := s.Buildings[cmd.BuildingID]
	if !ok || b.Team != cmd.Team || cmd.Team == TeamNone {
		return false
	}
	if !cmd.UnitType.Valid() {
		return false
	}
	b.Producing = cmd.UnitType
	b.ProductionTimer = 0
	return true
}

func applySelect(s *GameState, cmd Command) bool {
	if cmd.Team == TeamNone {
		return false
	}
	for _, u := range s.Units {
		if u.Team == cmd.Team {
			u.Selected = false
		}
	}
	for _, u := range ownedUnits(s, cmd) {
		u.Selected = true
	}
	return true
}

func applyBoxSelect(s *GameState, cmd Command) bool {
	if cmd.Team == TeamNone {
		return false
	}
	box := cmd.Box.Normalize()
	for _, u := range s.Units {
		if u.Team == cmd.Team {
			u.Selected = box.Contains(u.Pos)
		}
	}
	return true
}
