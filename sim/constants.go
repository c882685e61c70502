package sim

const (
	// 世界尺寸（像素）与网格
	WorldWidth  = 2560.0
	WorldHeight = 1920.0
	TileSize    = 64.0
	GridCols    = 40
	GridRows    = 30

	// AIInterval 单机模式下 AI 每隔多少 tick 决策一次
	AIInterval = 30
	// WinCheckStartTick 从该 tick 起才做胜负判定
	WinCheckStartTick = 120

	// 占领
	CaptureTime     = 300
	CaptureRange    = 96.0
	CaptureSpeedCap = 3
	CaptureDecay    = 1

	// 生产：每多占一个扇区加速 25%，下限 60 tick
	ProductionBonus    = 0.25
	MinProductionTicks = 60
	MaxUnitsPerTeam    = 60

	// 移动
	SeparationDistance = 24.0
	SeparationStrength = 0.5

	// 战斗
	SplashRadius       = 64.0
	SplashFraction     = 0.3
	ProjectileLifetime = 240
	RocketTrailLength  = 8

	// 寻路
	PathIterationBudget = 500
	losSampleStep       = TileSize / 4

	explosionParticles = 8
)
