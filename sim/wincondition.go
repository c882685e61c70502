package sim

// WinCondition 失去全部要塞（被摧毁或随扇区被占领）的一方落败。
// 双方都没有要塞的状态（沙盒 / 测试场景）不做判定。
func WinCondition(s *GameState) {
	if !s.IsRunning {
		return
	}
	forts := map[Team]int{}
	for _, b := range s.Buildings {
		if b.Type == BuildingFort {
			forts[b.Team]++
		}
	}
	red, blue := forts[TeamRed], forts[TeamBlue]
	var winner Team
	switch {
	case red > 0 && blue == 0:
		winner = TeamRed
	case blue > 0 && red == 0:
		winner = TeamBlue
	default:
		return
	}
	s.IsRunning = false
	s.Winner = winner
	s.emit(GameEvent{Kind: EventGameOver, Team: winner})
}
