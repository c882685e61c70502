package sim

// EventKind 一次性事件类型，外部音频 / UI 读取一次即丢弃
type EventKind string

const (
	EventUnitFired         EventKind = "unitFired"
	EventUnitDied          EventKind = "unitDied"
	EventSectorCaptured    EventKind = "sectorCaptured"
	EventUnitProduced      EventKind = "unitProduced"
	EventBuildingDestroyed EventKind = "buildingDestroyed"
	EventGameOver          EventKind = "gameOver"
)

// GameEvent 事件载荷，按类型只填充相关字段
type GameEvent struct {
	Kind       EventKind `json:"kind"`
	UnitID     EntityID  `json:"unitId,omitempty"`
	BuildingID EntityID  `json:"buildingId,omitempty"`
	SectorID   int       `json:"sectorId,omitempty"`
	Team       Team      `json:"team,omitempty"`
	UnitType   UnitType  `json:"unitType,omitempty"`
	Pos        Vec2      `json:"pos"`
}

func (s *GameState) emit(e GameEvent) {
	s.Events = append(s.Events, e)
}
