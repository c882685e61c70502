package lockstep

import "sectorwar/sim"

// Solo 单机对局：本方命令直接进入引擎，对手由 AI 控制，不经过中继
type Solo struct {
	team   sim.Team
	engine *sim.Engine
	queue  *sim.CommandQueue
	state  *sim.GameState
}

func NewSolo(seed uint32, team sim.Team) *Solo {
	e := sim.NewEngine(seed, sim.Options{LocalTeam: team})
	return &Solo{team: team, engine: e, queue: sim.NewCommandQueue(), state: e.State()}
}

// Queue 缓存一条本方命令，下一个 tick 生效
func (s *Solo) Queue(cmd sim.Command) error {
	if !s.state.IsRunning {
		return ErrMatchEnded
	}
	cmd.Team = s.team
	s.queue.Push(cmd)
	return nil
}

// Step 推进一个 tick，对局结束后返回 false
func (s *Solo) Step() bool {
	if !s.state.IsRunning {
		return false
	}
	s.state = s.engine.Tick(s.queue.Drain())
	return true
}

func (s *Solo) Frame() bool {
	s.Step()
	return !s.state.IsRunning
}

func (s *Solo) State() *sim.GameState { return s.state }

func (s *Solo) Team() sim.Team { return s.team }

func (s *Solo) AITeam() sim.Team { return s.engine.AITeam() }

func (s *Solo) Dropped() int { return s.engine.Dropped() }
