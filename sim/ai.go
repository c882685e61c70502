package sim

// Strategy AI 宏观策略
type Strategy int

const (
	StrategyExpand Strategy = iota
	StrategyAttack
)

func (st Strategy) String() string {
	if st == StrategyAttack {
		return "attack"
	}
	return "expand"
}

// 工厂期望的兵种构成（按比例）
var desiredComposition = []struct {
	Type  UnitType
	Share float64
}{
	{UnitGrunt, 0.5},
	{UnitRocketeer, 0.3},
	{UnitTank, 0.2},
}

// ChooseStrategy 仍有中立扇区且兵力不占明显优势时扩张，否则进攻
func ChooseStrategy(s *GameState, team Team) Strategy {
	own := s.UnitCount(team)
	enemy := s.UnitCount(team.Opponent())
	neutral := s.SectorsOwned(TeamNone)
	if neutral == 0 || own >= enemy+4 || (own >= 12 && own > enemy) {
		return StrategyAttack
	}
	return StrategyExpand
}

// AICommands 为 team 生成本轮命令（不修改状态）
func AICommands(s *GameState, team Team) []Command {
	var cmds []Command
	idle := make([]*Unit, 0)
	for _, u := range s.SortedUnits() {
		if u.Team == team && u.State == StateIdle && u.AttackTarget == 0 {
			idle = append(idle, u)
		}
	}

	switch ChooseStrategy(s, team) {
	case StrategyExpand:
		cmds = append(cmds, expandCommands(s, team, idle)...)
	case StrategyAttack:
		cmds = append(cmds, attackCommands(s, team, idle)...)
	}
	cmds = append(cmds, productionCommands(s, team)...)
	return cmds
}

// expandCommands 把空闲单位派往最近的非己方扇区旗点
func expandCommands(s *GameState, team Team, idle []*Unit) []Command {
	var cmds []Command
	for _, u := range idle {
		var best *Sector
		bestDist := 0.0
		for _, sec := range s.Sectors {
			if sec.Owner == team {
				continue
			}
			if d := u.Pos.Dist(sec.Flag); best == nil || d < bestDist {
				best, bestDist = sec, d
			}
		}
		if best == nil || bestDist <= CaptureRange/2 {
			continue
		}
		cmds = append(cmds, MoveCommand(team, []EntityID{u.ID}, best.Flag))
	}
	return cmds
}

// attackCommands 空闲单位攻击最近的敌方单位；敌方无单位时攻击其要塞
func attackCommands(s *GameState, team Team, idle []*Unit) []Command {
	enemy := team.Opponent()
	var enemies []*Unit
	for _, u := range s.SortedUnits() {
		if u.Team == enemy {
			enemies = append(enemies, u)
		}
	}
	var fort *Building
	for _, b := range s.SortedBuildings() {
		if b.Team == enemy && b.Type == BuildingFort {
			fort = b
			break
		}
	}

	var cmds []Command
	for _, u := range idle {
		var target EntityID
		bestDist := 0.0
		for _, e := range enemies {
			if d := u.Pos.Dist(e.Pos); target == 0 || d < bestDist {
				target, bestDist = e.ID, d
			}
		}
		if target == 0 && fort != nil {
			target = fort.ID
		}
		if target == 0 {
			continue
		}
		cmds = append(cmds, AttackCommand(team, []EntityID{u.ID}, target))
	}
	return cmds
}

// productionCommands 每座工厂按构成缺口选择期望兵种，当前订单与期望不同则重新下单；要塞只出步兵。
// 期望兵种带滞回：当前订单的缺口与最优缺口相差不到一个单位时，期望兵种就是当前订单，
// 因此不会重新下单，生产计时也不会被反复重置。
func productionCommands(s *GameState, team Team) []Command {
	counts := make(map[UnitType]int)
	total := 0
	for _, u := range s.Units {
		if u.Team == team {
			counts[u.Type]++
			total++
		}
	}
	var cmds []Command
	for _, b := range s.SortedBuildings() {
		if b.Team != team {
			continue
		}
		want := UnitGrunt
		if b.Type == BuildingFactory {
			want = mostNeeded(counts, total)
			if b.Producing.Valid() && compositionGap(counts, total, b.Producing) >= compositionGap(counts, total, want)-1 {
				want = b.Producing
			}
			// 本轮已分配的订单也计入，避免所有工厂扎堆同一兵种
			counts[want]++
			total++
		}
		if b.Producing != want {
			cmds = append(cmds, ProduceCommand(team, b.ID, want))
		}
	}
	return cmds
}

func compositionGap(counts map[UnitType]int, total int, t UnitType) float64 {
	for _, c := range desiredComposition {
		if c.Type == t {
			return c.Share*float64(total+1) - float64(counts[t])
		}
	}
	return -1e9
}

func mostNeeded(counts map[UnitType]int, total int) UnitType {
	best := desiredComposition[0].Type
	bestGap := -1e9
	for _, c := range desiredComposition {
		if gap := compositionGap(counts, total, c.Type); gap > bestGap {
			best, bestGap = c.Type, gap
		}
	}
	return best
}
