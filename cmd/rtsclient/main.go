// rtsclient 无界面客户端：单机对 AI，或通过中继进行锁步对战。
// 本方同样由 AI 自动操作，便于验证同步与结算。
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sectorwar/config"
	"sectorwar/lockstep"
	"sectorwar/logging"
	"sectorwar/sim"
)

// match 单机与联网对局的共同接口
type match interface {
	lockstep.Framer
	Queue(cmd sim.Command) error
	State() *sim.GameState
}

// autopilot 每隔 AIInterval 个 tick 为本方生成一轮 AI 命令
type autopilot struct {
	m        match
	team     sim.Team
	maxTicks int
	lastTick int
}

func (a *autopilot) Frame() bool {
	done := a.m.Frame()
	st := a.m.State()
	if st == nil || st.Tick == a.lastTick {
		return done
	}
	a.lastTick = st.Tick
	if st.Tick%sim.AIInterval == 0 {
		for _, cmd := range sim.AICommands(st, a.team) {
			_ = a.m.Queue(cmd)
		}
	}
	if st.Tick%300 == 0 {
		logging.Log.Infow("progress",
			"tick", st.Tick,
			"units", fmt.Sprintf("%d/%d", st.UnitCount(sim.TeamRed), st.UnitCount(sim.TeamBlue)),
			"sectors", fmt.Sprintf("%d/%d", st.SectorsOwned(sim.TeamRed), st.SectorsOwned(sim.TeamBlue)),
		)
	}
	return done || (a.maxTicks > 0 && st.Tick >= a.maxTicks)
}

func main() {
	var (
		cfgPath  string
		mode     string
		room     string
		seed     uint
		maxTicks int
		logFile  string
	)
	flag.StringVar(&cfgPath, "config", "", "config file, optional")
	flag.StringVar(&mode, "mode", "solo", "solo | create | join")
	flag.StringVar(&room, "room", "", "room code for -mode join")
	flag.UintVar(&seed, "seed", 0, "map seed for solo mode (0 = random)")
	flag.IntVar(&maxTicks, "ticks", 0, "stop after this many ticks (0 = until the match ends)")
	flag.StringVar(&logFile, "log", "", "log file (default: console only)")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := logging.InitLogger(logging.Options{File: logFile, Level: cfg.Log.Level, Console: true}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logging.SyncLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, mode, room, uint32(seed), maxTicks); err != nil {
		logging.Log.Errorf("rtsclient: %v", err)
		logging.SyncLogger()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, mode, room string, seed uint32, maxTicks int) error {
	driver := lockstep.NewDriver(cfg.Match.TicksPerSecond)

	if mode == "solo" {
		if seed == 0 {
			seed = rand.Uint32()
		}
		solo := lockstep.NewSolo(seed, sim.TeamRed)
		logging.Log.Infow("solo match", "seed", seed, "team", solo.Team(), "ai", solo.AITeam())
		err := driver.Run(ctx, &autopilot{m: solo, team: solo.Team(), maxTicks: maxTicks})
		report(solo.State(), "", driver)
		return ignoreCanceled(err)
	}

	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	tr, err := lockstep.Dial(dialCtx, cfg.Relay.URL)
	if err != nil {
		return err
	}
	defer tr.Close()

	c := lockstep.NewCoordinator(tr)
	switch mode {
	case "create":
		err = c.CreateRoom()
	case "join":
		if room == "" {
			return fmt.Errorf("-room is required for -mode join")
		}
		err = c.JoinRoom(room)
	default:
		return fmt.Errorf("unknown mode %q", mode)
	}
	if err != nil {
		return err
	}
	if err := c.Await(ctx, func() bool { return c.Phase() != lockstep.PhaseConnecting }); err != nil {
		return err
	}
	logging.Log.Infof("room %s, team %s; waiting for opponent", c.RoomCode(), c.Team())
	if err := c.Await(ctx, func() bool { return c.Phase() == lockstep.PhaseRunning }); err != nil {
		return err
	}

	err = driver.Run(ctx, &autopilot{m: c, team: c.Team(), maxTicks: maxTicks})
	if c.Phase() != lockstep.PhaseEnded {
		_ = c.Leave()
	}
	report(c.State(), c.EndReason(), driver)
	return ignoreCanceled(err)
}

// ignoreCanceled Ctrl+C 属于正常退出
func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func report(st *sim.GameState, reason string, d *lockstep.Driver) {
	if st == nil {
		return
	}
	winner := "none"
	if !st.IsRunning {
		winner = st.Winner.String()
	}
	logging.Log.Infow("match finished",
		"tick", st.Tick,
		"winner", winner,
		"reason", reason,
		"digest", fmt.Sprintf("%016x", st.Digest()),
		"avgFrame", d.AvgFrame(),
	)
}
