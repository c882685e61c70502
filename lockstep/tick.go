package lockstep

import (
	"context"
	"sync/atomic"
	"time"
)

// TicksPerSecond 默认模拟推进频率（30 TPS）
const TicksPerSecond = 30

// Framer 驱动循环每个节拍调用一次 Frame，返回 true 表示对局结束、循环退出
type Framer interface {
	Frame() bool
}

// Driver 固定频率的节拍循环（单协程推进模拟）
type Driver struct {
	interval time.Duration

	frames  int64 // 已执行的节拍数
	totalNs int64 // 节拍累计耗时（纳秒）
}

// NewDriver tps<=0 时使用 TicksPerSecond
func NewDriver(tps int) *Driver {
	if tps <= 0 {
		tps = TicksPerSecond
	}
	return &Driver{interval: time.Second / time.Duration(tps)}
}

// Run 阻塞运行，直到 Frame 返回 true 或 ctx 结束
func (d *Driver) Run(ctx context.Context, f Framer) error {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			// 核心循环：处理消息 → 推进模拟 → 输出
			start := time.Now()
			done := f.Frame()
			atomic.AddInt64(&d.frames, 1)
			atomic.AddInt64(&d.totalNs, time.Since(start).Nanoseconds())
			if done {
				return nil
			}
		}
	}
}

// Frames 已执行的节拍数
func (d *Driver) Frames() int64 { return atomic.LoadInt64(&d.frames) }

// AvgFrame 平均每个节拍的耗时
func (d *Driver) AvgFrame() time.Duration {
	n := atomic.LoadInt64(&d.frames)
	if n == 0 {
		return 0
	}
	return time.Duration(atomic.LoadInt64(&d.totalNs) / n)
}

// Frame 处理已到达的中继消息后尝试推进一个 tick
func (c *Coordinator) Frame() bool {
	_ = c.Poll()
	c.Step()
	return c.phase == PhaseEnded
}
