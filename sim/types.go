package sim

import "math"

// Team 阵营标识（0 为中立）
type Team int

const (
	TeamNone Team = iota
	TeamRed
	TeamBlue
)

// Opponent 返回对方阵营；中立没有对手
func (t Team) Opponent() Team {
	switch t {
	case TeamRed:
		return TeamBlue
	case TeamBlue:
		return TeamRed
	default:
		return TeamNone
	}
}

func (t Team) String() string {
	switch t {
	case TeamRed:
		return "red"
	case TeamBlue:
		return "blue"
	default:
		return "none"
	}
}

// EntityID 单位与建筑共用同一个递增计数器，保证两者 id 不冲突
type EntityID int

// Vec2 世界坐标（像素）
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (v Vec2) Add(o Vec2) Vec2 { return Vec2{X: v.X + o.X, Y: v.Y + o.Y} }

func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{X: v.X - o.X, Y: v.Y - o.Y} }

func (v Vec2) Scale(k float64) Vec2 { return Vec2{X: v.X * k, Y: v.Y * k} }

func (v Vec2) Len() float64 { return math.Hypot(v.X, v.Y) }

// Dist 两点间欧氏距离
func (v Vec2) Dist(o Vec2) float64 { return math.Hypot(v.X-o.X, v.Y-o.Y) }

// Rect 轴对齐矩形（框选、扇区边界）
type Rect struct {
	MinX float64 `json:"minX"`
	MinY float64 `json:"minY"`
	MaxX float64 `json:"maxX"`
	MaxY float64 `json:"maxY"`
}

// Normalize 允许从任意两个角构造矩形
func (r Rect) Normalize() Rect {
	if r.MinX > r.MaxX {
		r.MinX, r.MaxX = r.MaxX, r.MinX
	}
	if r.MinY > r.MaxY {
		r.MinY, r.MaxY = r.MaxY, r.MinY
	}
	return r
}

func (r Rect) Contains(p Vec2) bool {
	return p.X >= r.MinX && p.X <= r.MaxX && p.Y >= r.MinY && p.Y <= r.MaxY
}

func (r Rect) Center() Vec2 {
	return Vec2{X: (r.MinX + r.MaxX) / 2, Y: (r.MinY + r.MaxY) / 2}
}

// UnitType 封闭的单位类型枚举，索引 unitCatalog
type UnitType int

const (
	UnitNone UnitType = iota
	UnitGrunt
	UnitRocketeer
	UnitTank
)

// UnitStats 单位静态数值
type UnitStats struct {
	Name            string
	MaxHP           float64
	Speed           float64 // 像素 / tick
	Range           float64
	Damage          float64
	FireRate        int // 两次开火间隔（tick）
	ProjectileSpeed float64
	Rocket          bool
	BuildTime       int // 基础生产时间（tick）
}

var unitCatalog = [...]UnitStats{
	UnitNone:      {Name: "none"},
	UnitGrunt:     {Name: "grunt", MaxHP: 60, Speed: 2.0, Range: 160, Damage: 8, FireRate: 30, ProjectileSpeed: 10, BuildTime: 180},
	UnitRocketeer: {Name: "rocketeer", MaxHP: 50, Speed: 1.6, Range: 220, Damage: 30, FireRate: 75, ProjectileSpeed: 7, Rocket: true, BuildTime: 300},
	UnitTank:      {Name: "tank", MaxHP: 220, Speed: 1.2, Range: 200, Damage: 24, FireRate: 55, ProjectileSpeed: 9, BuildTime: 480},
}

// Valid 是否为可生产的单位类型
func (u UnitType) Valid() bool { return u > UnitNone && int(u) < len(unitCatalog) }

// Stats 返回该类型的数值表项；非法类型返回零值
func (u UnitType) Stats() UnitStats {
	if !u.Valid() {
		return unitCatalog[UnitNone]
	}
	return unitCatalog[u]
}

func (u UnitType) String() string { return u.Stats().Name }

// ParseUnitType 按名称查找单位类型
func ParseUnitType(name string) UnitType {
	for i := range unitCatalog {
		if UnitType(i).Valid() && unitCatalog[i].Name == name {
			return UnitType(i)
		}
	}
	return UnitNone
}

// BuildingType 封闭的建筑类型枚举
type BuildingType int

const (
	BuildingFort BuildingType = iota + 1
	BuildingFactory
)

type BuildingStats struct {
	Name  string
	MaxHP float64
}

var buildingCatalog = map[BuildingType]BuildingStats{
	BuildingFort:    {Name: "fort", MaxHP: 1200},
	BuildingFactory: {Name: "factory", MaxHP: 600},
}

func (b BuildingType) Stats() BuildingStats { return buildingCatalog[b] }

func (b BuildingType) String() string { return buildingCatalog[b].Name }

// UnitState 单位状态机：只由 Movement / Combat 驱动
type UnitState int

const (
	StateIdle UnitState = iota
	StateMoving
	StateAttacking
)

func (s UnitState) String() string {
	switch s {
	case StateMoving:
		return "moving"
	case StateAttacking:
		return "attacking"
	default:
		return "idle"
	}
}
