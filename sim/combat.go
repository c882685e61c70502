package sim

// Combat 冷却 → 选目标 → 开火；随后推进所有投射物
func Combat(s *GameState) {
	for _, u := range s.SortedUnits() {
		if _, alive := s.Units[u.ID]; !alive {
			continue
		}
		if u.Cooldown > 0 {
			u.Cooldown--
		}
		kind, id, pos, ok := s.resolveTarget(u)
		if !ok || u.Cooldown > 0 {
			continue
		}
		s.fire(u, kind, id, pos)
	}
	updateProjectiles(s)
}

// resolveTarget 优先级：显式目标（存活、敌方、射程内）→ 最近敌方单位 → 最近敌方建筑
func (s *GameState) resolveTarget(u *Unit) (TargetKind, EntityID, Vec2, bool) {
	rng := u.Stats().Range
	if u.AttackTarget != 0 {
		if t, ok := s.Units[u.AttackTarget]; ok && t.Team != u.Team && t.HP > 0 && u.Pos.Dist(t.Pos) <= rng {
			return TargetUnit, t.ID, t.Pos, true
		}
		if b, ok := s.Buildings[u.AttackTarget]; ok && isEnemy(u.Team, b.Team) && u.Pos.Dist(b.Pos) <= rng {
			return TargetBuilding, b.ID, b.Pos, true
		}
	}

	var best *Unit
	bestDist := rng
	for _, t := range s.SortedUnits() {
		if t.Team == u.Team || t.HP <= 0 {
			continue
		}
		if d := u.Pos.Dist(t.Pos); d <= bestDist && (best == nil || d < bestDist) {
			best, bestDist = t, d
		}
	}
	if best != nil {
		return TargetUnit, best.ID, best.Pos, true
	}

	var bestB *Building
	bestDist = rng
	for _, b := range s.SortedBuildings() {
		if !isEnemy(u.Team, b.Team) {
			continue
		}
		if d := u.Pos.Dist(b.Pos); d <= bestDist && (bestB == nil || d < bestDist) {
			bestB, bestDist = b, d
		}
	}
	if bestB != nil {
		return TargetBuilding, bestB.ID, bestB.Pos, true
	}
	return TargetNone, 0, Vec2{}, false
}

// isEnemy 中立建筑不是任何人的敌人
func isEnemy(team, other Team) bool {
	return other != TeamNone && other != team
}

func (s *GameState) fire(u *Unit, kind TargetKind, targetID EntityID, target Vec2) {
	st := u.Stats()
	p := &Projectile{
		ID:         s.NextProjectileID,
		Pos:        u.Pos,
		Target:     target,
		TargetID:   targetID,
		TargetKind: kind,
		Speed:      st.ProjectileSpeed,
		Damage:     st.Damage,
		Team:       u.Team,
		Rocket:     st.Rocket,
		TTL:        ProjectileLifetime,
		Alive:      true,
	}
	s.NextProjectileID++
	s.Projectiles[p.ID] = p
	u.Cooldown = st.FireRate
	s.emit(GameEvent{Kind: EventUnitFired, UnitID: u.ID, Team: u.Team, UnitType: u.Type, Pos: u.Pos})
}

func updateProjectiles(s *GameState) {
	for _, id := range s.projectileIDs() {
		p := s.Projectiles[id]
		if !p.Alive {
			continue
		}
		if p.TargetKind == TargetUnit {
			if t, ok := s.Units[p.TargetID]; ok {
				p.Target = t.Pos
			}
		}
		if p.Pos.Dist(p.Target) < p.Speed {
			p.Pos = p.Target
			s.impact(p)
			p.Alive = false
			continue
		}
		p.Pos = stepToward(p.Pos, p.Target, p.Speed)
		if p.Rocket {
			p.Trail = append(p.Trail, p.Pos)
			if len(p.Trail) > RocketTrailLength {
				p.Trail = p.Trail[len(p.Trail)-RocketTrailLength:]
			}
		}
		p.TTL--
		if p.TTL <= 0 {
			p.Alive = false
		}
	}
	for _, id := range s.projectileIDs() {
		if !s.Projectiles[id].Alive {
			delete(s.Projectiles, id)
		}
	}
}

// impact 直击伤害只作用于锁定目标；火箭再对半径内其余敌方造成溅射
func (s *GameState) impact(p *Projectile) {
	var directUnit, directBuilding EntityID
	switch p.TargetKind {
	case TargetUnit:
		if t, ok := s.Units[p.TargetID]; ok && t.Team != p.Team {
			directUnit = t.ID
			s.damageUnit(t, p.Damage)
		}
	case TargetBuilding:
		if b, ok := s.Buildings[p.TargetID]; ok && isEnemy(p.Team, b.Team) {
			directBuilding = b.ID
			s.damageBuilding(b, p.Damage)
		}
	}
	if !p.Rocket {
		return
	}
	splash := p.Damage * SplashFraction
	for _, u := range s.SortedUnits() {
		if u.ID == directUnit || u.Team == p.Team {
			continue
		}
		if u.Pos.Dist(p.Pos) <= SplashRadius {
			s.damageUnit(u, splash)
		}
	}
	for _, b := range s.SortedBuildings() {
		if b.ID == directBuilding || !isEnemy(p.Team, b.Team) {
			continue
		}
		if b.Pos.Dist(p.Pos) <= SplashRadius {
			s.damageBuilding(b, splash)
		}
	}
}

// damageUnit 生命值跌破 0 的那一击立即移除单位，之后不会再承受伤害
func (s *GameState) damageUnit(u *Unit, amount float64) {
	if u.HP <= 0 {
		return
	}
	u.HP -= amount
	if u.HP <= 0 {
		s.killUnit(u)
	}
}

func (s *GameState) damageBuilding(b *Building, amount float64) {
	if b.HP <= 0 {
		return
	}
	b.HP -= amount
	if b.HP <= 0 {
		s.destroyBuilding(b)
	}
}
