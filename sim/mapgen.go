package sim

// 地图左右镜像：红方在西，蓝方在东，中间四个中立扇区

const (
	rockClusters    = 9
	maxClusterSize  = 3
	sectorTileGuard = 1
)

type sectorLayout struct {
	bounds   Rect
	owner    Team
	fort     bool
	factory  Vec2
	rallyDir float64
}

func tileRect(c0, r0, c1, r1 int) Rect {
	return Rect{MinX: float64(c0) * TileSize, MinY: float64(r0) * TileSize, MaxX: float64(c1) * TileSize, MaxY: float64(r1) * TileSize}
}

func defaultLayout() []sectorLayout {
	return []sectorLayout{
		{bounds: tileRect(0, 8, 10, 22), owner: TeamRed, fort: true, factory: Vec2{X: 448, Y: 704}, rallyDir: 1},
		{bounds: tileRect(12, 2, 20, 12), factory: Vec2{X: 1024, Y: 320}},
		{bounds: tileRect(20, 2, 28, 12), factory: Vec2{X: 1536, Y: 320}},
		{bounds: tileRect(12, 18, 20, 28), factory: Vec2{X: 1024, Y: 1600}},
		{bounds: tileRect(20, 18, 28, 28), factory: Vec2{X: 1536, Y: 1600}},
		{bounds: tileRect(30, 8, 40, 22), owner: TeamBlue, fort: true, factory: Vec2{X: 2112, Y: 704}, rallyDir: -1},
	}
}

// GenerateMap 由种子生成初始地形、扇区、建筑与起始单位。同一种子在任何对端结果一致。
func GenerateMap(seed uint32) *GameState {
	grid := NewGrid(GridCols, GridRows, TileSize)
	s := NewGameState(grid, seed)
	layout := defaultLayout()

	for i, l := range layout {
		s.Sectors = append(s.Sectors, &Sector{ID: i + 1, Bounds: l.bounds, Flag: l.bounds.Center(), Owner: l.owner})
	}

	placeObstacles(s, layout)

	for i, l := range layout {
		sec := s.Sectors[i]
		if l.fort {
			fortPos := Vec2{X: sec.Flag.X - l.rallyDir*128, Y: sec.Flag.Y}
			fort := s.AddBuilding(BuildingFort, l.owner, sec.ID, fortPos)
			fort.RallyPoint = fortPos.Add(Vec2{X: l.rallyDir * 96})
		}
		f := s.AddBuilding(BuildingFactory, l.owner, sec.ID, l.factory)
		if l.rallyDir != 0 {
			f.RallyPoint = l.factory.Add(Vec2{X: l.rallyDir * 96})
		}
	}

	for _, team := range []Team{TeamRed, TeamBlue} {
		sec := s.Sectors[0]
		dir := 1.0
		if team == TeamBlue {
			sec = s.Sectors[len(s.Sectors)-1]
			dir = -1
		}
		for i := 0; i < 4; i++ {
			pos := Vec2{X: sec.Flag.X + dir*48, Y: sec.Flag.Y - 72 + float64(i)*48}
			s.AddUnit(UnitGrunt, team, pos)
		}
	}
	return s
}

// placeObstacles 只在西半边撒岩石 / 水团并镜像到东半边，扇区及其外一圈保持空地
func placeObstacles(s *GameState, layout []sectorLayout) {
	g := s.Grid
	reserved := func(col, row int) bool {
		c := g.Center(col, row)
		for _, l := range layout {
			guard := Rect{
				MinX: l.bounds.MinX - sectorTileGuard*TileSize, MinY: l.bounds.MinY - sectorTileGuard*TileSize,
				MaxX: l.bounds.MaxX + sectorTileGuard*TileSize, MaxY: l.bounds.MaxY + sectorTileGuard*TileSize,
			}
			if guard.Contains(c) {
				return true
			}
		}
		return false
	}

	half := g.Cols / 2
	for i := 0; i < rockClusters; i++ {
		cc := s.RNG.Intn(half)
		cr := s.RNG.Intn(g.Rows)
		size := 1 + s.RNG.Intn(maxClusterSize)
		terrain := TerrainRock
		if s.RNG.Float() < 0.3 {
			terrain = TerrainWater
		}
		for dr := -size; dr <= size; dr++ {
			for dc := -size; dc <= size; dc++ {
				if dc*dc+dr*dr > size*size {
					continue
				}
				col, row := cc+dc, cr+dr
				if col < 0 || col >= half || !g.InBounds(col, row) || reserved(col, row) {
					continue
				}
				g.Set(col, row, terrain)
				g.Set(g.Cols-1-col, row, terrain)
			}
		}
	}
}
