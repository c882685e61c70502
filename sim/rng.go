package sim

// RNG 线性同余随机数（Numerical Recipes 参数），所有对端以同一种子得到同一序列。
// 状态是一个 uint32，直接存放在 GameState 中随状态一起复制。
type RNG struct {
	State uint32 `json:"state"`
}

const (
	lcgMultiplier = 1664525
	lcgIncrement  = 1013904223
)

// NewRNG 以对局种子初始化
func NewRNG(seed uint32) RNG {
	return RNG{State: seed}
}

// Next 推进一步并返回新状态
func (r *RNG) Next() uint32 {
	r.State = r.State*lcgMultiplier + lcgIncrement
	return r.State
}

// Float 返回 [0,1)
func (r *RNG) Float() float64 {
	return float64(r.Next()) / 4294967296.0
}

// Intn 返回 [0,n)，n<=0 时返回 0
func (r *RNG) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return int(r.Float() * float64(n))
}

// Range 返回 [min,max)
func (r *RNG) Range(min, max float64) float64 {
	if max <= min {
		return min
	}
	return min + r.Float()*(max-min)
}
