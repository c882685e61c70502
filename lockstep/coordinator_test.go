package lockstep

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sectorwar/protocol"
	"sectorwar/sim"
)

// memTransport 记录发送的消息，入站消息由测试直接写入
type memTransport struct {
	sent []any
	in   chan protocol.Message
}

func newMemTransport() *memTransport {
	return &memTransport{in: make(chan protocol.Message, 16)}
}

func (m *memTransport) Send(msg any) error {
	m.sent = append(m.sent, msg)
	return nil
}

func (m *memTransport) Incoming() <-chan protocol.Message { return m.in }

func (m *memTransport) Close() error { return nil }

func (m *memTransport) lastTurn(t *testing.T) protocol.TurnCommands {
	t.Helper()
	require.NotEmpty(t, m.sent)
	tc, ok := m.sent[len(m.sent)-1].(protocol.TurnCommands)
	require.True(t, ok, "last message is %T", m.sent[len(m.sent)-1])
	return tc
}

func turnData(t *testing.T, turn int, cmds ...sim.Command) protocol.Message {
	t.Helper()
	raw := make([]json.RawMessage, 0, len(cmds))
	for _, c := range cmds {
		b, err := json.Marshal(c)
		require.NoError(t, err)
		raw = append(raw, b)
	}
	return protocol.Message{Type: protocol.TypeTurnData, Turn: turn, Commands: raw}
}

func runningCoordinator(t *testing.T, seat int) (*Coordinator, *memTransport) {
	t.Helper()
	tr := newMemTransport()
	c := NewCoordinator(tr)
	require.Equal(t, PhaseConnecting, c.Phase())
	require.NoError(t, c.CreateRoom())
	require.NoError(t, c.HandleMessage(protocol.Message{Type: protocol.TypeRoomCreated, RoomCode: "ABCD", Team: seat}))
	require.Equal(t, PhaseWaitingForOpponent, c.Phase())
	require.NoError(t, c.HandleMessage(protocol.Message{Type: protocol.TypeGameStart, Seed: 42, TurnInterval: 5}))
	require.Equal(t, PhaseRunning, c.Phase())
	return c, tr
}

func firstUnit(s *sim.GameState, team sim.Team) *sim.Unit {
	for _, u := range s.SortedUnits() {
		if u.Team == team {
			return u
		}
	}
	return nil
}

func TestCoordinator_PhasesAndTurnZeroSubmission(t *testing.T) {
	c, tr := runningCoordinator(t, 1)
	assert.Equal(t, sim.TeamRed, c.Team())
	assert.Equal(t, "ABCD", c.RoomCode())
	assert.Equal(t, uint32(42), c.Seed())
	assert.Equal(t, protocol.NewCreateRoom(), tr.sent[0])

	tc := tr.lastTurn(t)
	assert.Equal(t, 0, tc.Turn)
	assert.Empty(t, tc.Commands)
	require.NotNil(t, c.State())
	assert.Equal(t, 0, c.State().Tick)
}

func TestCoordinator_BlocksUntilTurnData(t *testing.T) {
	c, tr := runningCoordinator(t, 1)
	assert.False(t, c.Step())
	assert.False(t, c.Step())
	assert.Equal(t, 0, c.State().Tick)

	require.NoError(t, c.HandleMessage(turnData(t, 0)))
	for i := 0; i < 5; i++ {
		require.True(t, c.Step(), "tick %d", i)
	}
	assert.Equal(t, 5, c.State().Tick)
	assert.Equal(t, 1, c.Turn())
	assert.Equal(t, 1, tr.lastTurn(t).Turn)

	assert.False(t, c.Step())
	assert.Equal(t, 5, c.State().Tick)
}

func TestCoordinator_MergedCommandsOnlyOnFirstTick(t *testing.T) {
	c, _ := runningCoordinator(t, 1)
	grunt := firstUnit(c.State(), sim.TeamRed)
	require.NotNil(t, grunt)
	move := sim.MoveCommand(sim.TeamRed, []sim.EntityID{grunt.ID}, sim.Vec2{X: 900, Y: 900})

	require.NoError(t, c.HandleMessage(turnData(t, 0, move)))
	require.NoError(t, c.HandleMessage(turnData(t, 1)))
	for i := 0; i < 10; i++ {
		require.True(t, c.Step())
	}

	ref := sim.NewEngine(42, sim.Options{Networked: true})
	ref.Tick([]sim.Command{move})
	for i := 1; i < 10; i++ {
		ref.Tick(nil)
	}
	assert.Equal(t, ref.State().Digest(), c.State().Digest())
	assert.Zero(t, c.Dropped())
}

func TestCoordinator_QueuedCommandsGoToNextTurnWithLocalTeam(t *testing.T) {
	c, tr := runningCoordinator(t, 2)
	require.Equal(t, sim.TeamBlue, c.Team())

	require.NoError(t, c.Queue(sim.SelectCommand(sim.TeamRed, []sim.EntityID{1})))
	require.NoError(t, c.HandleMessage(turnData(t, 0)))
	for i := 0; i < 5; i++ {
		require.True(t, c.Step())
	}

	tc := tr.lastTurn(t)
	assert.Equal(t, 1, tc.Turn)
	require.Len(t, tc.Commands, 1)
	var cmd sim.Command
	require.NoError(t, json.Unmarshal(tc.Commands[0], &cmd))
	assert.Equal(t, sim.CmdSelect, cmd.Kind)
	assert.Equal(t, sim.TeamBlue, cmd.Team)
}

func TestCoordinator_UndecodableCommandsCounted(t *testing.T) {
	c, _ := runningCoordinator(t, 1)
	msg := turnData(t, 0)
	msg.Commands = []json.RawMessage{json.RawMessage(`"not a command"`)}
	require.NoError(t, c.HandleMessage(msg))
	require.True(t, c.Step())
	assert.Equal(t, 1, c.Dropped())
}

func TestCoordinator_OpponentDisconnectEndsMatch(t *testing.T) {
	c, _ := runningCoordinator(t, 1)
	require.NoError(t, c.HandleMessage(turnData(t, 0)))
	require.NoError(t, c.HandleMessage(protocol.Message{Type: protocol.TypeOpponentDisconnected}))

	assert.Equal(t, PhaseEnded, c.Phase())
	assert.Equal(t, "opponent disconnected", c.EndReason())
	assert.False(t, c.Step())
	assert.ErrorIs(t, c.Queue(sim.SelectCommand(sim.TeamRed, nil)), ErrMatchEnded)
	assert.True(t, c.Frame())
}

func TestCoordinator_RelayErrorReturned(t *testing.T) {
	tr := newMemTransport()
	c := NewCoordinator(tr)
	require.NoError(t, c.JoinRoom("QQQQ"))

	tr.in <- protocol.Message{Type: protocol.TypeError, Message: "room not found"}
	err := c.Await(context.Background(), func() bool { return c.Phase() == PhaseRunning })
	var relayErr *RelayError
	require.True(t, errors.As(err, &relayErr))
	assert.Equal(t, "room not found", relayErr.Message)
	assert.Equal(t, PhaseConnecting, c.Phase())
}

func TestCoordinator_ConnectionLoss(t *testing.T) {
	c, tr := runningCoordinator(t, 1)
	close(tr.in)
	require.NoError(t, c.Poll())
	assert.Equal(t, PhaseEnded, c.Phase())
	assert.Equal(t, "connection lost", c.EndReason())
}

func TestCoordinator_AwaitHonoursContext(t *testing.T) {
	c := NewCoordinator(newMemTransport())
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := c.Await(ctx, func() bool { return false })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSolo_RunsAIOpponent(t *testing.T) {
	s := NewSolo(7, sim.TeamRed)
	assert.Equal(t, sim.TeamBlue, s.AITeam())

	u := firstUnit(s.State(), sim.TeamRed)
	require.NotNil(t, u)
	require.NoError(t, s.Queue(sim.MoveCommand(sim.TeamBlue, []sim.EntityID{u.ID}, sim.Vec2{X: 900, Y: 900})))

	assert.False(t, s.Frame())
	st := s.State()
	assert.Equal(t, 1, st.Tick)
	assert.NotEmpty(t, st.Units[u.ID].Path)
	assert.Zero(t, s.Dropped())
}

type countingFramer struct {
	n, stopAt int
}

func (f *countingFramer) Frame() bool {
	f.n++
	return f.n >= f.stopAt
}

func TestDriver_RunsUntilDone(t *testing.T) {
	d := NewDriver(1000)
	f := &countingFramer{stopAt: 3}
	require.NoError(t, d.Run(context.Background(), f))
	assert.Equal(t, 3, f.n)
	assert.EqualValues(t, 3, d.Frames())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, d.Run(ctx, &countingFramer{stopAt: 1 << 30}), context.Canceled)
}
