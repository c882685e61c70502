package sim

import "math"

// Terrain 地块类型
type Terrain uint8

const (
	TerrainGrass Terrain = iota
	TerrainRock
	TerrainWater
)

// Passable 草地可通行，岩石与水不可通行
func (t Terrain) Passable() bool { return t == TerrainGrass }

// Grid 地形网格，生成后不再修改，因此克隆状态时共享同一指针
type Grid struct {
	Cols     int       `json:"cols"`
	Rows     int       `json:"rows"`
	TileSize float64   `json:"tileSize"`
	Tiles    []Terrain `json:"tiles"`
}

// NewGrid 创建一张全草地网格
func NewGrid(cols, rows int, tileSize float64) *Grid {
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	return &Grid{Cols: cols, Rows: rows, TileSize: tileSize, Tiles: make([]Terrain, cols*rows)}
}

func (g *Grid) InBounds(col, row int) bool {
	return col >= 0 && row >= 0 && col < g.Cols && row < g.Rows
}

func (g *Grid) index(col, row int) int { return row*g.Cols + col }

// At 越界视为岩石
func (g *Grid) At(col, row int) Terrain {
	if !g.InBounds(col, row) {
		return TerrainRock
	}
	return g.Tiles[g.index(col, row)]
}

func (g *Grid) Set(col, row int, t Terrain) {
	if g.InBounds(col, row) {
		g.Tiles[g.index(col, row)] = t
	}
}

func (g *Grid) Passable(col, row int) bool { return g.At(col, row).Passable() }

// Width / Height 世界像素尺寸
func (g *Grid) Width() float64 { return float64(g.Cols) * g.TileSize }

func (g *Grid) Height() float64 { return float64(g.Rows) * g.TileSize }

// TileOf 世界坐标所在的格子（可能越界，调用方自行判断）
func (g *Grid) TileOf(p Vec2) (int, int) {
	return int(math.Floor(p.X / g.TileSize)), int(math.Floor(p.Y / g.TileSize))
}

// Center 格子中心的世界坐标
func (g *Grid) Center(col, row int) Vec2 {
	return Vec2{X: (float64(col) + 0.5) * g.TileSize, Y: (float64(row) + 0.5) * g.TileSize}
}

// PassableAt 世界坐标是否落在可通行格子
func (g *Grid) PassableAt(p Vec2) bool {
	col, row := g.TileOf(p)
	return g.Passable(col, row)
}

// Clamp 将坐标限制在世界范围内（右 / 下边界向内收一点，保证仍落在网格内）
func (g *Grid) Clamp(p Vec2) Vec2 {
	return Vec2{X: clamp(p.X, 0, g.Width()-edgeInset), Y: clamp(p.Y, 0, g.Height()-edgeInset)}
}

const edgeInset = 0.01

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
