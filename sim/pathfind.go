package sim

import (
	"container/heap"
	"math"
)

type tile struct {
	col int
	row int
}

type neighbor struct {
	dc, dr   int
	cost     float64
	diagonal bool
}

var neighborOffsets = [...]neighbor{
	{dc: 0, dr: -1, cost: 1},
	{dc: 1, dr: 0, cost: 1},
	{dc: 0, dr: 1, cost: 1},
	{dc: -1, dr: 0, cost: 1},
	{dc: 1, dr: -1, cost: math.Sqrt2, diagonal: true},
	{dc: 1, dr: 1, cost: math.Sqrt2, diagonal: true},
	{dc: -1, dr: 1, cost: math.Sqrt2, diagonal: true},
	{dc: -1, dr: -1, cost: math.Sqrt2, diagonal: true},
}

type pathNode struct {
	at     tile
	g, h   float64
	f      float64
	index  int
	parent *pathNode
}

// openSet 小顶堆。f 相同依次比较 h、col、row，保证不同运行时下弹出顺序一致
type openSet []*pathNode

func (o openSet) Len() int { return len(o) }

func (o openSet) Less(i, j int) bool {
	a, b := o[i], o[j]
	if a.f != b.f {
		return a.f < b.f
	}
	if a.h != b.h {
		return a.h < b.h
	}
	if a.at.col != b.at.col {
		return a.at.col < b.at.col
	}
	return a.at.row < b.at.row
}

func (o openSet) Swap(i, j int) {
	o[i], o[j] = o[j], o[i]
	o[i].index = i
	o[j].index = j
}

func (o *openSet) Push(x any) {
	n := x.(*pathNode)
	n.index = len(*o)
	*o = append(*o, n)
}

func (o *openSet) Pop() any {
	old := *o
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*o = old[:n-1]
	return item
}

func euclid(a, b tile) float64 {
	return math.Hypot(float64(a.col-b.col), float64(a.row-b.row))
}

// canStepDiagonal 两侧正交格任一不可通行即禁止斜走（不切角）
func canStepDiagonal(g *Grid, from tile, n neighbor) bool {
	if !n.diagonal {
		return true
	}
	return g.Passable(from.col+n.dc, from.row) && g.Passable(from.col, from.row+n.dr)
}

// nearestPassable 从 t 向外逐圈螺旋搜索最近的可通行格；同一圈内取欧氏距离最小者
func nearestPassable(g *Grid, t tile) (tile, bool) {
	if g.Passable(t.col, t.row) {
		return t, true
	}
	maxRadius := g.Cols
	if g.Rows > maxRadius {
		maxRadius = g.Rows
	}
	for r := 1; r <= maxRadius; r++ {
		best := tile{}
		bestDist := math.Inf(1)
		found := false
		for dr := -r; dr <= r; dr++ {
			for dc := -r; dc <= r; dc++ {
				if abs(dc) != r && abs(dr) != r {
					continue
				}
				c := tile{col: t.col + dc, row: t.row + dr}
				if !g.Passable(c.col, c.row) {
					continue
				}
				if d := euclid(t, c); d < bestDist {
					best, bestDist, found = c, d, true
				}
			}
		}
		if found {
			return best, true
		}
	}
	return tile{}, false
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// astar 有界 A*；超出迭代预算或开放集耗尽时返回 nil
func astar(g *Grid, start, goal tile) []tile {
	open := &openSet{}
	heap.Init(open)
	heap.Push(open, &pathNode{at: start, h: euclid(start, goal), f: euclid(start, goal)})
	gScore := map[tile]float64{start: 0}
	closed := make(map[tile]struct{})

	expanded := 0
	for open.Len() > 0 {
		current := heap.Pop(open).(*pathNode)
		if _, seen := closed[current.at]; seen {
			continue
		}
		// 预算按实际展开的节点计，过期的堆项不计入
		if expanded >= PathIterationBudget {
			return nil
		}
		expanded++
		closed[current.at] = struct{}{}
		if current.at == goal {
			return reconstruct(current)
		}
		for _, n := range neighborOffsets {
			next := tile{col: current.at.col + n.dc, row: current.at.row + n.dr}
			if !g.Passable(next.col, next.row) || !canStepDiagonal(g, current.at, n) {
				continue
			}
			if _, seen := closed[next]; seen {
				continue
			}
			tentative := current.g + n.cost
			if prev, ok := gScore[next]; ok && tentative >= prev {
				continue
			}
			gScore[next] = tentative
			h := euclid(next, goal)
			heap.Push(open, &pathNode{at: next, g: tentative, h: h, f: tentative + h, parent: current})
		}
	}
	return nil
}

func reconstruct(end *pathNode) []tile {
	var out []tile
	for n := end; n != nil; n = n.parent {
		out = append(out, n.at)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// lineOfSight 以 1/4 格的步长采样线段，任一采样点落在不可通行格即视为遮挡
func lineOfSight(g *Grid, a, b Vec2) bool {
	dist := a.Dist(b)
	steps := int(math.Ceil(dist / losSampleStep))
	if steps < 1 {
		steps = 1
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		p := Vec2{X: a.X + (b.X-a.X)*t, Y: a.Y + (b.Y-a.Y)*t}
		if !g.PassableAt(p) {
			return false
		}
	}
	return true
}

// simplify 视线裁剪：从上一个保留点能直接看到下一点时丢弃当前点
func simplify(g *Grid, from Vec2, raw []Vec2) []Vec2 {
	if len(raw) <= 1 {
		return raw
	}
	out := make([]Vec2, 0, len(raw))
	anchor := from
	for i := 0; i < len(raw); i++ {
		if i == len(raw)-1 || !lineOfSight(g, anchor, raw[i+1]) {
			out = append(out, raw[i])
			anchor = raw[i]
		}
	}
	return out
}

// FindPath 计算 from 到 to 的简化路径点（不含起点）。
// 起终点同格、无法到达或超出预算时返回空路径。
func FindPath(g *Grid, from, to Vec2) []Vec2 {
	if g == nil {
		return nil
	}
	sc, sr := g.TileOf(from)
	gc, gr := g.TileOf(to)
	if !g.InBounds(sc, sr) || !g.InBounds(gc, gr) {
		return nil
	}
	start := tile{col: sc, row: sr}
	goal := tile{col: gc, row: gr}
	exactGoal := true
	if !g.Passable(goal.col, goal.row) {
		relocated, ok := nearestPassable(g, goal)
		if !ok {
			return nil
		}
		goal = relocated
		exactGoal = false
	}
	if start == goal {
		return nil
	}

	tiles := astar(g, start, goal)
	if len(tiles) < 2 {
		return nil
	}
	raw := make([]Vec2, 0, len(tiles)-1)
	for _, t := range tiles[1:] {
		raw = append(raw, g.Center(t.col, t.row))
	}
	if exactGoal {
		raw[len(raw)-1] = to
	}
	return simplify(g, from, raw)
}
