package lockstep

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sectorwar/server"
	"sectorwar/sim"
)

func TestLockstep_TwoPeersOverRelayStayInSync(t *testing.T) {
	gin.SetMode(gin.TestMode)
	relay, err := server.NewRelay(server.DefaultOptions())
	require.NoError(t, err)
	srv := httptest.NewServer(relay.Router())
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	ta, err := Dial(ctx, url)
	require.NoError(t, err)
	defer ta.Close()
	a := NewCoordinator(ta)
	require.NoError(t, a.CreateRoom())
	require.NoError(t, a.Await(ctx, func() bool { return a.Phase() != PhaseConnecting }))
	require.Len(t, a.RoomCode(), 4)

	tb, err := Dial(ctx, url)
	require.NoError(t, err)
	defer tb.Close()
	b := NewCoordinator(tb)
	require.NoError(t, b.JoinRoom(a.RoomCode()))
	require.NoError(t, b.Await(ctx, func() bool { return b.Phase() == PhaseRunning }))
	require.NoError(t, a.Await(ctx, func() bool { return a.Phase() == PhaseRunning }))

	assert.Equal(t, sim.TeamRed, a.Team())
	assert.Equal(t, sim.TeamBlue, b.Team())
	assert.Equal(t, a.Seed(), b.Seed())

	red := firstUnit(a.State(), sim.TeamRed)
	blue := firstUnit(b.State(), sim.TeamBlue)
	require.NotNil(t, red)
	require.NotNil(t, blue)
	redStart := red.Pos
	require.NoError(t, a.Queue(sim.MoveCommand(sim.TeamRed, []sim.EntityID{red.ID}, sim.Vec2{X: 700, Y: 960})))
	require.NoError(t, b.Queue(sim.MoveCommand(sim.TeamBlue, []sim.EntityID{blue.ID}, sim.Vec2{X: 1860, Y: 960})))

	const target = 60
	digestsA := map[int]uint64{}
	digestsB := map[int]uint64{}
	for ctx.Err() == nil && (a.State().Tick < target || b.State().Tick < target) {
		require.NoError(t, a.Poll())
		require.NoError(t, b.Poll())
		advanced := false
		if a.State().Tick < target && a.Step() {
			digestsA[a.State().Tick] = a.State().Digest()
			advanced = true
		}
		if b.State().Tick < target && b.Step() {
			digestsB[b.State().Tick] = b.State().Digest()
			advanced = true
		}
		if !advanced {
			time.Sleep(time.Millisecond)
		}
	}
	require.Equal(t, target, a.State().Tick)
	require.Equal(t, target, b.State().Tick)
	for tick := 1; tick <= target; tick++ {
		require.Equal(t, digestsA[tick], digestsB[tick], "peers diverged at tick %d", tick)
	}

	// 双方的命令都在第 1 回合（tick 5）生效
	assert.NotEqual(t, redStart, b.State().Units[red.ID].Pos)
	assert.Equal(t, a.State().Units[blue.ID].Pos, b.State().Units[blue.ID].Pos)

	require.NoError(t, a.Leave())
	require.NoError(t, b.Await(ctx, func() bool { return b.Phase() == PhaseEnded }))
	assert.Equal(t, "opponent disconnected", b.EndReason())
}
