package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCombat_RocketSplashConservation(t *testing.T) {
	s := openState(11)
	primary := s.AddUnit(UnitTank, TeamRed, Vec2{X: 600, Y: 600})
	nearby := s.AddUnit(UnitTank, TeamRed, Vec2{X: 640, Y: 600})
	far := s.AddUnit(UnitTank, TeamRed, Vec2{X: 900, Y: 600})
	ally := s.AddUnit(UnitTank, TeamBlue, Vec2{X: 610, Y: 610})
	ally.Cooldown = 1000
	primary.Cooldown, nearby.Cooldown, far.Cooldown = 1000, 1000, 1000

	s.Projectiles[1] = &Projectile{
		ID: 1, Pos: Vec2{X: 598, Y: 600}, Target: primary.Pos, TargetID: primary.ID,
		TargetKind: TargetUnit, Speed: 7, Damage: 30, Team: TeamBlue, Rocket: true,
		TTL: ProjectileLifetime, Alive: true,
	}
	s.NextProjectileID = 2

	Combat(s)

	assert.InDelta(t, UnitTank.Stats().MaxHP-30, s.Units[primary.ID].HP, 1e-9)
	assert.InDelta(t, UnitTank.Stats().MaxHP-30*SplashFraction, s.Units[nearby.ID].HP, 1e-9)
	assert.Equal(t, UnitTank.Stats().MaxHP, s.Units[far.ID].HP)
	assert.Equal(t, UnitTank.Stats().MaxHP, s.Units[ally.ID].HP)
	assert.Empty(t, s.Projectiles)
}

func TestCombat_TargetPriority(t *testing.T) {
	s := openState(12)
	shooter := s.AddUnit(UnitGrunt, TeamRed, Vec2{X: 500, Y: 500})
	near := s.AddUnit(UnitGrunt, TeamBlue, Vec2{X: 560, Y: 500})
	explicit := s.AddUnit(UnitGrunt, TeamBlue, Vec2{X: 640, Y: 500})
	near.Cooldown, explicit.Cooldown = 1000, 1000
	fort := s.AddBuilding(BuildingFort, TeamBlue, 0, Vec2{X: 520, Y: 540})

	kind, id, _, ok := s.resolveTarget(shooter)
	require.True(t, ok)
	assert.Equal(t, TargetUnit, kind)
	assert.Equal(t, near.ID, id)

	shooter.AttackTarget = explicit.ID
	kind, id, _, ok = s.resolveTarget(shooter)
	require.True(t, ok)
	assert.Equal(t, TargetUnit, kind)
	assert.Equal(t, explicit.ID, id)

	shooter.AttackTarget = 0
	delete(s.Units, near.ID)
	delete(s.Units, explicit.ID)
	kind, id, _, ok = s.resolveTarget(shooter)
	require.True(t, ok)
	assert.Equal(t, TargetBuilding, kind)
	assert.Equal(t, fort.ID, id)

	fort.Team = TeamNone
	_, _, _, ok = s.resolveTarget(shooter)
	assert.False(t, ok)
}

func TestCombat_FireResetsCooldown(t *testing.T) {
	s := openState(13)
	shooter := s.AddUnit(UnitGrunt, TeamRed, Vec2{X: 500, Y: 500})
	target := s.AddUnit(UnitGrunt, TeamBlue, Vec2{X: 600, Y: 500})
	target.Cooldown = 1000

	Combat(s)
	assert.Equal(t, UnitGrunt.Stats().FireRate, s.Units[shooter.ID].Cooldown)
	fired := eventsOfKind(s.Events, EventUnitFired)
	require.Len(t, fired, 1)
	assert.Equal(t, shooter.ID, fired[0].UnitID)
	require.Len(t, s.Projectiles, 1)
	assert.Equal(t, EntityID(2), s.NextProjectileID)

	s.Events = nil
	Combat(s)
	assert.Empty(t, eventsOfKind(s.Events, EventUnitFired))
	assert.Equal(t, UnitGrunt.Stats().FireRate-1, s.Units[shooter.ID].Cooldown)
}

func TestCombat_BuildingDestroyed(t *testing.T) {
	s := openState(14)
	b := s.AddBuilding(BuildingFactory, TeamBlue, 0, Vec2{X: 700, Y: 700})
	b.HP = 5
	s.Projectiles[1] = &Projectile{
		ID: 1, Pos: Vec2{X: 699, Y: 700}, Target: b.Pos, TargetID: b.ID, TargetKind: TargetBuilding,
		Speed: 10, Damage: 8, Team: TeamRed, TTL: ProjectileLifetime, Alive: true,
	}

	Combat(s)
	assert.NotContains(t, s.Buildings, b.ID)
	destroyed := eventsOfKind(s.Events, EventBuildingDestroyed)
	require.Len(t, destroyed, 1)
	assert.Equal(t, b.ID, destroyed[0].BuildingID)
}

func TestCombat_ProjectileExpires(t *testing.T) {
	s := openState(15)
	s.Projectiles[1] = &Projectile{
		ID: 1, Pos: Vec2{X: 100, Y: 100}, Target: Vec2{X: 2000, Y: 100}, Speed: 5, Damage: 8,
		Team: TeamRed, Rocket: true, TTL: 3, Alive: true,
	}
	for i := 0; i < 2; i++ {
		Combat(s)
		require.Contains(t, s.Projectiles, EntityID(1))
	}
	assert.Len(t, s.Projectiles[1].Trail, 2)
	Combat(s)
	assert.Empty(t, s.Projectiles)
}

func captureState() (*GameState, *Sector, *Building) {
	s := openState(21)
	sec := &Sector{ID: 1, Bounds: Rect{MinX: 400, MinY: 400, MaxX: 800, MaxY: 800}, Flag: Vec2{X: 600, Y: 600}}
	s.Sectors = append(s.Sectors, sec)
	b := s.AddBuilding(BuildingFactory, TeamNone, sec.ID, Vec2{X: 500, Y: 500})
	return s, sec, b
}

func TestCapture_TransfersSectorAndBuildings(t *testing.T) {
	s, sec, b := captureState()
	for i := 0; i < 4; i++ {
		s.AddUnit(UnitGrunt, TeamRed, Vec2{X: 590 + float64(i)*5, Y: 600})
	}

	for i := 0; i < CaptureTime/CaptureSpeedCap-1; i++ {
		Capture(s)
		require.Equal(t, TeamNone, sec.Owner)
	}
	assert.Equal(t, CaptureTime-CaptureSpeedCap, sec.CaptureProgress)
	assert.Equal(t, TeamRed, sec.Contesting)

	Capture(s)
	assert.Equal(t, TeamRed, sec.Owner)
	assert.Equal(t, 0, sec.CaptureProgress)
	assert.Equal(t, TeamRed, b.Team)
	captured := eventsOfKind(s.Events, EventSectorCaptured)
	require.Len(t, captured, 1)
	assert.Equal(t, sec.ID, captured[0].SectorID)
}

func TestCapture_TieDecaysAndContesterChangeResets(t *testing.T) {
	s, sec, _ := captureState()
	red := s.AddUnit(UnitGrunt, TeamRed, Vec2{X: 600, Y: 600})
	for i := 0; i < 10; i++ {
		Capture(s)
	}
	assert.Equal(t, 10, sec.CaptureProgress)

	s.AddUnit(UnitGrunt, TeamBlue, Vec2{X: 610, Y: 600})
	Capture(s)
	assert.Equal(t, 10-CaptureDecay, sec.CaptureProgress)
	assert.Equal(t, TeamRed, sec.Contesting)

	delete(s.Units, red.ID)
	s.AddUnit(UnitGrunt, TeamBlue, Vec2{X: 620, Y: 600})
	Capture(s)
	assert.Equal(t, TeamBlue, sec.Contesting)
	assert.Equal(t, 2, sec.CaptureProgress)
}

func TestCapture_ProgressStaysInBounds(t *testing.T) {
	s, sec, _ := captureState()
	rng := NewRNG(77)
	for tick := 0; tick < 3000; tick++ {
		if tick%50 == 0 {
			for id := range s.Units {
				delete(s.Units, id)
			}
			for i, n := 0, rng.Intn(6); i < n; i++ {
				team := TeamRed
				if rng.Float() < 0.5 {
					team = TeamBlue
				}
				s.AddUnit(UnitGrunt, team, Vec2{X: rng.Range(450, 750), Y: rng.Range(450, 750)})
			}
		}
		Capture(s)
		require.GreaterOrEqual(t, sec.CaptureProgress, 0)
		require.LessOrEqual(t, sec.CaptureProgress, CaptureTime)
	}
}

func TestProductionCeiling(t *testing.T) {
	assert.Equal(t, 180, ProductionCeiling(UnitGrunt, 1))
	assert.Equal(t, 120, ProductionCeiling(UnitGrunt, 3))
	assert.Equal(t, 240, ProductionCeiling(UnitGrunt, 0))
	assert.Equal(t, MinProductionTicks, ProductionCeiling(UnitGrunt, 20))
	assert.Equal(t, 320, ProductionCeiling(UnitTank, 3))
}

func TestProduction_SpawnsAtRallyWithIDJitter(t *testing.T) {
	s := openState(31)
	s.Sectors = append(s.Sectors, &Sector{ID: 1, Owner: TeamRed})
	b := s.AddBuilding(BuildingFactory, TeamRed, 1, Vec2{X: 800, Y: 800})
	b.RallyPoint = Vec2{X: 900, Y: 800}
	b.Producing = UnitGrunt
	rngBefore := s.RNG

	for i := 0; i < 179; i++ {
		Production(s)
	}
	assert.Empty(t, s.Units)
	assert.Equal(t, 179, b.ProductionTimer)
	assert.Equal(t, 180, b.ProductionCeiling)

	nextID := s.NextEntityID
	Production(s)
	require.Len(t, s.Units, 1)
	u := s.Units[nextID]
	require.NotNil(t, u)
	assert.Equal(t, b.RallyPoint.Add(spawnJitter(nextID)), u.Pos)
	assert.Equal(t, TeamRed, u.Team)
	assert.Equal(t, 0, b.ProductionTimer)
	assert.Equal(t, rngBefore, s.RNG)

	produced := eventsOfKind(s.Events, EventUnitProduced)
	require.Len(t, produced, 1)
	assert.Equal(t, u.ID, produced[0].UnitID)
}

func TestProduction_NeutralBuildingIdle(t *testing.T) {
	s := openState(32)
	b := s.AddBuilding(BuildingFactory, TeamNone, 1, Vec2{X: 800, Y: 800})
	b.Producing = UnitGrunt
	for i := 0; i < 500; i++ {
		Production(s)
	}
	assert.Empty(t, s.Units)
	assert.Equal(t, 0, b.ProductionTimer)
}

func TestMovement_SeparationIsSymmetric(t *testing.T) {
	s := openState(41)
	a := s.AddUnit(UnitGrunt, TeamRed, Vec2{X: 500, Y: 500})
	b := s.AddUnit(UnitGrunt, TeamRed, Vec2{X: 510, Y: 500})
	enemy := s.AddUnit(UnitGrunt, TeamBlue, Vec2{X: 505, Y: 505})

	Movement(s)
	assert.InDelta(t, 500-(SeparationDistance-10)*SeparationStrength/2, a.Pos.X, 1e-9)
	assert.InDelta(t, 510+(SeparationDistance-10)*SeparationStrength/2, b.Pos.X, 1e-9)
	assert.Equal(t, Vec2{X: 505, Y: 505}, enemy.Pos)
}

func TestMovement_HoldPositionAndChase(t *testing.T) {
	s := openState(42)
	u := s.AddUnit(UnitGrunt, TeamRed, Vec2{X: 500, Y: 500})
	target := s.AddUnit(UnitGrunt, TeamBlue, Vec2{X: 600, Y: 500})
	u.AttackTarget = target.ID

	Movement(s)
	assert.Equal(t, StateAttacking, u.State)
	assert.Equal(t, Vec2{X: 500, Y: 500}, u.Pos)

	target.Pos = Vec2{X: 900, Y: 500}
	Movement(s)
	assert.Equal(t, StateMoving, u.State)
	assert.InDelta(t, 500+UnitGrunt.Stats().Speed, u.Pos.X, 1e-9)

	delete(s.Units, target.ID)
	Movement(s)
	assert.Equal(t, StateIdle, u.State)
	assert.Zero(t, u.AttackTarget)
}

func TestMovement_DropsTargetCapturedByOwnTeam(t *testing.T) {
	s, sec, factory := captureState()
	sec.Owner = TeamBlue
	factory.Team = TeamBlue

	var grunts []*Unit
	for i := 0; i < 4; i++ {
		u := s.AddUnit(UnitGrunt, TeamRed, Vec2{X: 590 + float64(i)*5, Y: 600})
		u.AttackTarget = factory.ID
		u.State = StateAttacking
		grunts = append(grunts, u)
	}
	// 沿路径行进中的单位同样要放弃
	grunts[0].Path = []Vec2{{X: 560, Y: 560}, factory.Pos}
	grunts[0].State = StateMoving

	for i := 0; i < CaptureTime && sec.Owner != TeamRed; i++ {
		Capture(s)
	}
	require.Equal(t, TeamRed, sec.Owner)
	require.Equal(t, TeamRed, factory.Team)

	Movement(s)
	for _, u := range grunts {
		assert.Equal(t, StateIdle, u.State, "unit %d", u.ID)
		assert.Zero(t, u.AttackTarget)
		assert.Empty(t, u.Path)
	}

	// 重新回到空闲，AI 可以再次派遣
	enemy := s.AddUnit(UnitGrunt, TeamBlue, Vec2{X: 1500, Y: 1500})
	assert.Contains(t, AICommands(s, TeamRed), AttackCommand(TeamRed, []EntityID{grunts[0].ID}, enemy.ID))
}

func TestMovement_ClampsAndSweepsDead(t *testing.T) {
	s := openState(43)
	edge := s.AddUnit(UnitGrunt, TeamRed, Vec2{X: -40, Y: 5000})
	dead := s.AddUnit(UnitGrunt, TeamBlue, Vec2{X: 800, Y: 800})
	dead.HP = 0

	Movement(s)
	assert.Equal(t, 0.0, edge.Pos.X)
	assert.Less(t, edge.Pos.Y, WorldHeight)
	assert.NotContains(t, s.Units, dead.ID)
	require.Len(t, eventsOfKind(s.Events, EventUnitDied), 1)
	require.Len(t, s.Effects, 1)
	assert.Len(t, s.Effects[0].Particles, explosionParticles)
}
