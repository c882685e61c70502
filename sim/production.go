package sim

import "math"

// ProductionCeiling 生产所需 tick：占领扇区越多越快，最低 MinProductionTicks
func ProductionCeiling(t UnitType, sectorsOwned int) int {
	base := float64(t.Stats().BuildTime)
	ceiling := int(math.Floor(base / (1 + float64(sectorsOwned-1)*ProductionBonus)))
	if ceiling < MinProductionTicks {
		ceiling = MinProductionTicks
	}
	return ceiling
}

// spawnJitter 出生点偏移取自下一个实体 id，而非对局 RNG
func spawnJitter(next EntityID) Vec2 {
	n := int(next)
	return Vec2{
		X: float64((n*37)%41) - 20,
		Y: float64((n*53)%41) - 20,
	}
}

// Production 推进所有在产建筑的计时器，到点即在集结点生成单位
func Production(s *GameState) {
	for _, b := range s.SortedBuildings() {
		if b.Team == TeamNone || !b.Producing.Valid() {
			continue
		}
		b.ProductionCeiling = ProductionCeiling(b.Producing, s.SectorsOwned(b.Team))
		if b.ProductionTimer < b.ProductionCeiling {
			b.ProductionTimer++
		}
		if b.ProductionTimer < b.ProductionCeiling {
			continue
		}
		// 人口已满：保持完成状态，等有空位再出兵
		if s.UnitCount(b.Team) >= MaxUnitsPerTeam {
			continue
		}
		pos := s.Grid.Clamp(b.RallyPoint.Add(spawnJitter(s.NextEntityID)))
		u := s.AddUnit(b.Producing, b.Team, pos)
		b.ProductionTimer = 0
		s.emit(GameEvent{Kind: EventUnitProduced, UnitID: u.ID, BuildingID: b.ID, Team: b.Team, UnitType: u.Type, Pos: u.Pos})
	}
}
