package sim

// Capture 按旗点附近的兵力对比推进或回退每个扇区的占领进度
func Capture(s *GameState) {
	for _, sec := range s.Sectors {
		var red, blue int
		for _, u := range s.Units {
			if u.HP <= 0 || u.Pos.Dist(sec.Flag) > CaptureRange {
				continue
			}
			switch u.Team {
			case TeamRed:
				red++
			case TeamBlue:
				blue++
			}
		}

		contesting, count := TeamNone, 0
		switch {
		case red > blue:
			contesting, count = TeamRed, red
		case blue > red:
			contesting, count = TeamBlue, blue
		}

		if contesting != TeamNone && contesting != sec.Contesting {
			sec.CaptureProgress = 0
			sec.Contesting = contesting
		}

		if contesting != TeamNone && contesting != sec.Owner {
			step := count
			if step > CaptureSpeedCap {
				step = CaptureSpeedCap
			}
			sec.CaptureProgress += step
		} else {
			sec.CaptureProgress -= CaptureDecay
		}

		if sec.CaptureProgress < 0 {
			sec.CaptureProgress = 0
		}
		if sec.CaptureProgress >= CaptureTime {
			transferSector(s, sec, contesting)
		}
	}
}

func transferSector(s *GameState, sec *Sector, to Team) {
	sec.Owner = to
	sec.CaptureProgress = 0
	sec.Contesting = TeamNone
	for _, b := range s.SortedBuildings() {
		if b.SectorID == sec.ID {
			b.Team = to
			b.ProductionTimer = 0
		}
	}
	s.emit(GameEvent{Kind: EventSectorCaptured, SectorID: sec.ID, Team: to, Pos: sec.Flag})
}
