package sim

import (
	"encoding/binary"
	"hash/fnv"
	"math"
	"sort"
)

// Unit 单位实体
type Unit struct {
	ID           EntityID  `json:"id"`
	Type         UnitType  `json:"type"`
	Team         Team      `json:"team"`
	Pos          Vec2      `json:"pos"`
	HP           float64   `json:"hp"`
	MaxHP        float64   `json:"maxHp"`
	State        UnitState `json:"state"`
	Path         []Vec2    `json:"path,omitempty"`
	Cooldown     int       `json:"cooldown"`
	AttackTarget EntityID  `json:"attackTarget,omitempty"`
	Selected     bool      `json:"selected,omitempty"`
}

func (u *Unit) Stats() UnitStats { return u.Type.Stats() }

func (u *Unit) clone() *Unit {
	c := *u
	if u.Path != nil {
		c.Path = append([]Vec2(nil), u.Path...)
	}
	return &c
}

// Building 建筑；Team 为 TeamNone 表示中立
type Building struct {
	ID                EntityID     `json:"id"`
	Type              BuildingType `json:"type"`
	Team              Team         `json:"team"`
	SectorID          int          `json:"sectorId"`
	Pos               Vec2         `json:"pos"`
	HP                float64      `json:"hp"`
	MaxHP             float64      `json:"maxHp"`
	Producing         UnitType     `json:"producing"`
	ProductionTimer   int          `json:"productionTimer"`
	ProductionCeiling int          `json:"productionCeiling"`
	RallyPoint        Vec2         `json:"rallyPoint"`
}

// Sector 可占领扇区
type Sector struct {
	ID              int  `json:"id"`
	Bounds          Rect `json:"bounds"`
	Flag            Vec2 `json:"flag"`
	Owner           Team `json:"owner"`
	CaptureProgress int  `json:"captureProgress"`
	Contesting      Team `json:"contesting"`
}

// TargetKind 投射物锁定的目标类别
type TargetKind int

const (
	TargetNone TargetKind = iota
	TargetUnit
	TargetBuilding
)

// Projectile 投射物；Alive 置 false 后同一 tick 内被移除
type Projectile struct {
	ID         EntityID   `json:"id"`
	Pos        Vec2       `json:"pos"`
	Target     Vec2       `json:"target"`
	TargetID   EntityID   `json:"targetId,omitempty"`
	TargetKind TargetKind `json:"targetKind"`
	Speed      float64    `json:"speed"`
	Damage     float64    `json:"damage"`
	Team       Team       `json:"team"`
	Rocket     bool       `json:"rocket"`
	Trail      []Vec2     `json:"trail,omitempty"`
	TTL        int        `json:"ttl"`
	Alive      bool       `json:"alive"`
}

func (p *Projectile) clone() *Projectile {
	c := *p
	if p.Trail != nil {
		c.Trail = append([]Vec2(nil), p.Trail...)
	}
	return &c
}

// Particle 爆炸粒子，仅供渲染
type Particle struct {
	Vel  Vec2 `json:"vel"`
	Life int  `json:"life"`
}

// Effect 一次性视觉效果（只保留一个 tick，由外部渲染器接管）
type Effect struct {
	Pos       Vec2       `json:"pos"`
	Size      float64    `json:"size"`
	Particles []Particle `json:"particles"`
}

// GameState 聚合根，只由 Engine 持有和写入
type GameState struct {
	Tick      int  `json:"tick"`
	IsRunning bool `json:"isRunning"`
	Winner    Team `json:"winner"`

	Grid        *Grid                    `json:"grid"`
	Units       map[EntityID]*Unit       `json:"units"`
	Buildings   map[EntityID]*Building   `json:"buildings"`
	Projectiles map[EntityID]*Projectile `json:"projectiles"`
	Sectors     []*Sector                `json:"sectors"`

	NextEntityID     EntityID `json:"nextEntityId"`
	NextProjectileID EntityID `json:"nextProjectileId"`
	RNG              RNG      `json:"rng"`

	Events  []GameEvent `json:"events"`
	Effects []Effect    `json:"effects"`
}

// NewGameState 创建空状态（无单位、无建筑）
func NewGameState(grid *Grid, seed uint32) *GameState {
	return &GameState{
		IsRunning:        true,
		Grid:             grid,
		Units:            make(map[EntityID]*Unit),
		Buildings:        make(map[EntityID]*Building),
		Projectiles:      make(map[EntityID]*Projectile),
		NextEntityID:     1,
		NextProjectileID: 1,
		RNG:              NewRNG(seed),
	}
}

// Clone 深拷贝。地形网格不可变，共享指针
func (s *GameState) Clone() *GameState {
	c := *s
	c.Units = make(map[EntityID]*Unit, len(s.Units))
	for id, u := range s.Units {
		c.Units[id] = u.clone()
	}
	c.Buildings = make(map[EntityID]*Building, len(s.Buildings))
	for id, b := range s.Buildings {
		bc := *b
		c.Buildings[id] = &bc
	}
	c.Projectiles = make(map[EntityID]*Projectile, len(s.Projectiles))
	for id, p := range s.Projectiles {
		c.Projectiles[id] = p.clone()
	}
	c.Sectors = make([]*Sector, len(s.Sectors))
	for i, sec := range s.Sectors {
		sc := *sec
		c.Sectors[i] = &sc
	}
	c.Events = append([]GameEvent(nil), s.Events...)
	c.Effects = make([]Effect, len(s.Effects))
	for i, e := range s.Effects {
		e.Particles = append([]Particle(nil), e.Particles...)
		c.Effects[i] = e
	}
	return &c
}

// AddUnit 分配 id 并放入一个满血单位
func (s *GameState) AddUnit(t UnitType, team Team, pos Vec2) *Unit {
	st := t.Stats()
	u := &Unit{ID: s.NextEntityID, Type: t, Team: team, Pos: pos, HP: st.MaxHP, MaxHP: st.MaxHP}
	s.NextEntityID++
	s.Units[u.ID] = u
	return u
}

// AddBuilding 分配 id 并放入一座满血建筑
func (s *GameState) AddBuilding(t BuildingType, team Team, sectorID int, pos Vec2) *Building {
	st := t.Stats()
	b := &Building{
		ID: s.NextEntityID, Type: t, Team: team, SectorID: sectorID, Pos: pos,
		HP: st.MaxHP, MaxHP: st.MaxHP, RallyPoint: pos.Add(Vec2{X: 0, Y: TileSize}),
	}
	s.NextEntityID++
	s.Buildings[b.ID] = b
	return b
}

// 以下排序辅助保证所有 map 遍历顺序与运行时无关

func (s *GameState) unitIDs() []EntityID {
	ids := make([]EntityID, 0, len(s.Units))
	for id := range s.Units {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (s *GameState) buildingIDs() []EntityID {
	ids := make([]EntityID, 0, len(s.Buildings))
	for id := range s.Buildings {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (s *GameState) projectileIDs() []EntityID {
	ids := make([]EntityID, 0, len(s.Projectiles))
	for id := range s.Projectiles {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// SortedUnits 按 id 升序返回单位
func (s *GameState) SortedUnits() []*Unit {
	ids := s.unitIDs()
	out := make([]*Unit, len(ids))
	for i, id := range ids {
		out[i] = s.Units[id]
	}
	return out
}

// SortedBuildings 按 id 升序返回建筑
func (s *GameState) SortedBuildings() []*Building {
	ids := s.buildingIDs()
	out := make([]*Building, len(ids))
	for i, id := range ids {
		out[i] = s.Buildings[id]
	}
	return out
}

// SectorsOwned 统计阵营当前拥有的扇区数
func (s *GameState) SectorsOwned(team Team) int {
	n := 0
	for _, sec := range s.Sectors {
		if sec.Owner == team {
			n++
		}
	}
	return n
}

// UnitCount 统计阵营存活单位数
func (s *GameState) UnitCount(team Team) int {
	n := 0
	for _, u := range s.Units {
		if u.Team == team {
			n++
		}
	}
	return n
}

// Digest 对除 Events / Effects 之外的全部状态做 FNV-64a 摘要，用于对端一致性比对
func (s *GameState) Digest() uint64 {
	h := fnv.New64a()
	var buf [8]byte
	putInt := func(v int) {
		binary.LittleEndian.PutUint64(buf[:], uint64(int64(v)))
		h.Write(buf[:])
	}
	putFloat := func(v float64) {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		h.Write(buf[:])
	}
	putVec := func(v Vec2) {
		putFloat(v.X)
		putFloat(v.Y)
	}
	putBool := func(b bool) {
		if b {
			putInt(1)
		} else {
			putInt(0)
		}
	}
	putPath := func(path []Vec2) {
		putInt(len(path))
		for _, p := range path {
			putVec(p)
		}
	}

	putInt(s.Tick)
	putBool(s.IsRunning)
	putInt(int(s.Winner))
	putInt(int(s.NextEntityID))
	putInt(int(s.NextProjectileID))
	putInt(int(s.RNG.State))

	if g := s.Grid; g != nil {
		putInt(g.Cols)
		putInt(g.Rows)
		putFloat(g.TileSize)
		for _, t := range g.Tiles {
			putInt(int(t))
		}
	}

	for _, u := range s.SortedUnits() {
		putInt(int(u.ID))
		putInt(int(u.Type))
		putInt(int(u.Team))
		putVec(u.Pos)
		putFloat(u.HP)
		putFloat(u.MaxHP)
		putInt(int(u.State))
		putPath(u.Path)
		putInt(u.Cooldown)
		putInt(int(u.AttackTarget))
		putBool(u.Selected)
	}
	for _, b := range s.SortedBuildings() {
		putInt(int(b.ID))
		putInt(int(b.Type))
		putInt(int(b.Team))
		putInt(b.SectorID)
		putVec(b.Pos)
		putFloat(b.HP)
		putFloat(b.MaxHP)
		putInt(int(b.Producing))
		putInt(b.ProductionTimer)
		putInt(b.ProductionCeiling)
		putVec(b.RallyPoint)
	}
	for _, id := range s.projectileIDs() {
		p := s.Projectiles[id]
		putInt(int(p.ID))
		putVec(p.Pos)
		putVec(p.Target)
		putInt(int(p.TargetID))
		putInt(int(p.TargetKind))
		putFloat(p.Speed)
		putFloat(p.Damage)
		putInt(int(p.Team))
		putBool(p.Rocket)
		putPath(p.Trail)
		putInt(p.TTL)
		putBool(p.Alive)
	}
	for _, sec := range s.Sectors {
		putInt(sec.ID)
		putFloat(sec.Bounds.MinX)
		putFloat(sec.Bounds.MinY)
		putFloat(sec.Bounds.MaxX)
		putFloat(sec.Bounds.MaxY)
		putVec(sec.Flag)
		putInt(int(sec.Owner))
		putInt(sec.CaptureProgress)
		putInt(int(sec.Contesting))
	}
	return h.Sum64()
}
