package main

import "fmt"

// resolveBullets integrates every active bullet, retires the ones leaving
// the world, and scans the spatial grid for hits. One bullet claims at
// most one casualty; tie-break is scan order within the 3x3 neighborhood.
// Releases are batched after the scan — the active list is never mutated
// mid-iteration.
func (g *Game) resolveBullets(dt float64) {
	half := g.cfg.ArenaHalfExtent
	hitR2 := g.cfg.HitRadius * g.cfg.HitRadius
	g.releaseBuf = g.releaseBuf[:0]

	g.bullets.Active(func(b *Bullet) {
		b.X += b.VX * dt
		b.Y += b.VY * dt

		if b.X < -half || b.X > half || b.Y < -half || b.Y > half {
			g.releaseBuf = append(g.releaseBuf, b.ID)
			return
		}

		g.nearBuf = g.grid.Nearby(b.X, b.Y, g.nearBuf[:0])
		for _, p := range g.nearBuf {
			if p.ID == b.OwnerID || !p.Alive {
				continue
			}
			dx := p.X - b.X
			dy := p.Y - b.Y
			if dx*dx+dy*dy > hitR2 {
				continue
			}

			g.hitPlayer(p, b.Damage, b.OwnerID, b.OwnerName, b.X, b.Y)
			g.releaseBuf = append(g.releaseBuf, b.ID)
			break
		}
	})

	for _, id := range g.releaseBuf {
		g.bullets.Release(id)
	}
}

// hitPlayer applies damage shield-first and emits hit/kill events. Used by
// bullets and by the storm (attackerID "storm"), so both share one kill
// and winner-check path.
func (g *Game) hitPlayer(p *Player, damage int, attackerID, attackerName string, hx, hy float64) {
	died := p.TakeDamage(damage)

	g.broadcastMsg(Envelope{T: MsgHit, Data: HitMsg{
		X: round1(hx), Y: round1(hy), Damage: damage,
		VictimID: p.ID, AttackerID: attackerID,
	}})
	if !died {
		return
	}

	if killer, ok := g.players[attackerID]; ok {
		killer.Kills++
	}
	g.broadcastMsg(Envelope{T: MsgKill, Data: KillMsg{
		KillerID: attackerID, KillerName: attackerName,
		VictimID: p.ID, VictimName: p.Name,
	}})
	g.broadcastMsg(Envelope{T: MsgFlavor, Data: FlavorMsg{Text: killFlavor(attackerName, p.Name)}})
	if g.journal != nil {
		g.journal.Track(EvtKill, g.round.ID, fmt.Sprintf(`{"killer":%q,"victim":%q}`, attackerName, p.Name))
	}
	// The winner check runs at the end of the same tick, after all bullets
	// and storm damage have been resolved.
}

// resolveLoot hands nearby loot to the first alive player inside the
// pickup radius, using the same grid the bullets query.
func (g *Game) resolveLoot() {
	pickup2 := lootPickupRadius * lootPickupRadius
	g.releaseBuf = g.releaseBuf[:0]

	g.loot.Active(func(l *Loot) {
		g.nearBuf = g.grid.Nearby(l.X, l.Y, g.nearBuf[:0])
		for _, p := range g.nearBuf {
			if !p.Alive {
				continue
			}
			dx := p.X - l.X
			dy := p.Y - l.Y
			if dx*dx+dy*dy > pickup2 {
				continue
			}

			g.applyLoot(p, l)
			g.broadcastMsg(Envelope{T: MsgLootPickup, Data: LootPickupMsg{
				PlayerID: p.ID, LootID: l.ID, Type: l.Type,
			}})
			g.releaseBuf = append(g.releaseBuf, l.ID)
			break
		}
	})

	for _, id := range g.releaseBuf {
		g.loot.Release(id)
	}
}

func (g *Game) applyLoot(p *Player, l *Loot) {
	switch l.Type {
	case LootHealth:
		p.Health += lootHealAmount
		if p.Health > g.cfg.MaxHealth {
			p.Health = g.cfg.MaxHealth
		}
	case LootShield:
		p.Shield += lootShieldAmount
		if p.Shield > g.cfg.MaxShield {
			p.Shield = g.cfg.MaxShield
		}
	case LootWeapon:
		p.Weapon = l.Weapon
	}
}
