package main

// broadcastState builds one personalized delta per connected client:
// entities inside the AOI radius at full precision, everything else at
// reduced precision on a slower cadence. The shared metadata block is
// computed once and reused across every payload.
func (g *Game) broadcastState() {
	if len(g.clients) == 0 {
		return
	}

	aoi2 := g.cfg.AOIRadius * g.cfg.AOIRadius
	includeFar := g.tick%uint64(g.cfg.FarTickEvery) == 0

	shared := StateMsg{
		Phase:     int(g.round.Phase),
		Round:     g.round.Number,
		Tick:      g.tick,
		ArenaSize: g.storm.Extent,
		Count:     len(g.players),
		Alive:     g.aliveCount(),
	}
	switch g.round.Phase {
	case PhaseActive:
		shared.TimeLeft = round1(g.round.TimeLeft)
	case PhaseStarting:
		shared.NextRound = round1(g.round.CountdownT)
	case PhaseEnded:
		shared.NextRound = round1(g.round.IntermissionT)
	}
	if g.round.Phase == PhaseWaiting || g.round.Phase == PhaseStarting {
		shared.Lobby = make([]string, 0, len(g.players))
		for _, p := range g.players {
			shared.Lobby = append(shared.Lobby, p.Name)
		}
	}

	for pid, client := range g.clients {
		msg := shared
		refX, refY := g.viewRef(pid)

		msg.Players = make([]PlayerState, 0, 8)
		if includeFar {
			msg.Far = make([]FarPlayerState, 0, 8)
		}
		for _, p := range g.players {
			dx := p.X - refX
			dy := p.Y - refY
			if dx*dx+dy*dy <= aoi2 || p.ID == pid {
				msg.Players = append(msg.Players, p.ToState())
			} else if includeFar {
				msg.Far = append(msg.Far, p.ToFarState())
			}
		}

		msg.Bullets = make([]BulletState, 0, 16)
		g.bullets.Active(func(b *Bullet) {
			dx := b.X - refX
			dy := b.Y - refY
			if dx*dx+dy*dy > aoi2 {
				return
			}
			msg.Bullets = append(msg.Bullets, BulletState{
				ID: b.ID, X: round1(b.X), Y: round1(b.Y),
				VX: round1(b.VX), VY: round1(b.VY), Color: b.Color,
			})
		})

		msg.Loot = make([]LootState, 0, 8)
		g.loot.Active(func(l *Loot) {
			dx := l.X - refX
			dy := l.Y - refY
			if dx*dx+dy*dy > aoi2 {
				return
			}
			msg.Loot = append(msg.Loot, LootState{
				ID: l.ID, Type: l.Type, Weapon: l.Weapon,
				X: round1(l.X), Y: round1(l.Y),
			})
		})

		client.SendStateFrame(&msg)
	}
}

// viewRef picks the viewer's reference point: own position while alive,
// the spectated target's position while dead, else the arena center.
func (g *Game) viewRef(pid string) (float64, float64) {
	p, ok := g.players[pid]
	if !ok {
		return 0, 0
	}
	if p.Alive {
		return p.X, p.Y
	}
	if p.SpectateID != "" {
		if t, ok := g.players[p.SpectateID]; ok && t.Alive {
			return t.X, t.Y
		}
	}
	return 0, 0
}
