package sim

import "math"

// targetPosition 攻击目标的位置：先查单位，再查建筑
func (s *GameState) targetPosition(id EntityID) (Vec2, Team, bool) {
	if u, ok := s.Units[id]; ok {
		return u.Pos, u.Team, true
	}
	if b, ok := s.Buildings[id]; ok {
		return b.Pos, b.Team, true
	}
	return Vec2{}, TeamNone, false
}

// stepToward 以固定步长朝 target 前进，不越过目标点
func stepToward(from, to Vec2, speed float64) Vec2 {
	d := to.Sub(from)
	l := d.Len()
	if l <= speed || l == 0 {
		return to
	}
	return from.Add(d.Scale(speed / l))
}

// Movement 路径跟随 → 追击 / 原地开火 → 分离 → 边界裁剪 → 清理死亡单位
func Movement(s *GameState) {
	units := s.SortedUnits()

	for _, u := range units {
		speed := u.Stats().Speed
		// 目标已不是敌方（建筑随扇区易主）时放弃攻击
		if u.AttackTarget != 0 {
			if _, team, ok := s.targetPosition(u.AttackTarget); ok && !isEnemy(u.Team, team) {
				u.AttackTarget = 0
				u.Path = nil
				u.State = StateIdle
				continue
			}
		}
		// 沿路径接敌时，目标一进射程就停下开火
		if len(u.Path) > 0 && u.AttackTarget != 0 {
			if pos, _, ok := s.targetPosition(u.AttackTarget); ok && u.Pos.Dist(pos) <= u.Stats().Range {
				u.Path = nil
				u.State = StateAttacking
				continue
			}
		}
		switch {
		case len(u.Path) > 0:
			next := u.Path[0]
			if u.Pos.Dist(next) <= speed {
				u.Pos = next
				u.Path = u.Path[1:]
			} else {
				u.Pos = stepToward(u.Pos, next, speed)
			}
			if len(u.Path) == 0 {
				u.Path = nil
				if u.AttackTarget != 0 {
					u.State = StateMoving
				} else {
					u.State = StateIdle
				}
			} else {
				u.State = StateMoving
			}
		case u.AttackTarget != 0:
			pos, _, ok := s.targetPosition(u.AttackTarget)
			if !ok {
				u.AttackTarget = 0
				u.State = StateIdle
				continue
			}
			if u.Pos.Dist(pos) > u.Stats().Range {
				u.Pos = stepToward(u.Pos, pos, speed)
				u.State = StateMoving
			} else {
				u.State = StateAttacking
			}
		}
	}

	separate(s, units)

	for _, u := range units {
		u.Pos = s.Grid.Clamp(u.Pos)
	}

	for _, u := range units {
		if u.HP <= 0 {
			s.killUnit(u)
		}
	}
}

// separate 同阵营单位过近时互相推开。推力全部基于快照位置计算，结果与遍历顺序无关
func separate(s *GameState, units []*Unit) {
	if len(units) < 2 {
		return
	}
	origin := make([]Vec2, len(units))
	for i, u := range units {
		origin[i] = u.Pos
	}
	push := make([]Vec2, len(units))
	for i := range units {
		for j := i + 1; j < len(units); j++ {
			if units[i].Team != units[j].Team {
				continue
			}
			d := origin[i].Sub(origin[j])
			dist := d.Len()
			if dist >= SeparationDistance {
				continue
			}
			var dir Vec2
			if dist == 0 {
				// 完全重合时按 id 顺序沿 x 轴分开
				dir = Vec2{X: 1}
			} else {
				dir = d.Scale(1 / dist)
			}
			amount := (SeparationDistance - dist) * SeparationStrength / 2
			push[i] = push[i].Add(dir.Scale(amount))
			push[j] = push[j].Sub(dir.Scale(amount))
		}
	}
	for i, u := range units {
		u.Pos = origin[i].Add(push[i])
	}
}

// killUnit 移除单位：发出死亡事件并生成爆炸效果
func (s *GameState) killUnit(u *Unit) {
	if _, ok := s.Units[u.ID]; !ok {
		return
	}
	s.emit(GameEvent{Kind: EventUnitDied, UnitID: u.ID, Team: u.Team, UnitType: u.Type, Pos: u.Pos})
	s.spawnExplosion(u.Pos, 1)
	delete(s.Units, u.ID)
}

func (s *GameState) destroyBuilding(b *Building) {
	if _, ok := s.Buildings[b.ID]; !ok {
		return
	}
	s.emit(GameEvent{Kind: EventBuildingDestroyed, BuildingID: b.ID, Team: b.Team, SectorID: b.SectorID, Pos: b.Pos})
	s.spawnExplosion(b.Pos, 3)
	delete(s.Buildings, b.ID)
}

// spawnExplosion 粒子方向取自对局 RNG，各对端消耗顺序一致
func (s *GameState) spawnExplosion(pos Vec2, size float64) {
	e := Effect{Pos: pos, Size: size, Particles: make([]Particle, explosionParticles)}
	for i := range e.Particles {
		angle := s.RNG.Float() * 2 * math.Pi
		speed := s.RNG.Range(0.5, 2.5) * size
		e.Particles[i] = Particle{
			Vel:  Vec2{X: math.Cos(angle) * speed, Y: math.Sin(angle) * speed},
			Life: 20 + s.RNG.Intn(20),
		}
	}
	s.Effects = append(s.Effects, e)
}
