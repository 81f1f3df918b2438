package main

import "fmt"

// Storm is the shrinking safe zone: a square centered on the arena origin
// whose half-extent steps down on a player-count-scaled schedule.
type Storm struct {
	Extent      float64
	nextShrinkT float64 // seconds until the next warning
	graceT      float64 // counts down once a warning is out
	warned      bool
}

// stormInterval is a step function of the alive count: fewer players,
// faster shrinks.
func (g *Game) stormInterval() float64 {
	switch alive := g.aliveCount(); {
	case alive <= g.cfg.StormLowAlive:
		return g.cfg.StormIntervalLow
	case alive <= g.cfg.StormMidAlive:
		return g.cfg.StormIntervalMid
	default:
		return g.cfg.StormIntervalHigh
	}
}

// resetStorm re-arms the zone at full size for a new round.
func (g *Game) resetStorm() {
	g.storm.Extent = g.cfg.ArenaHalfExtent
	g.storm.warned = false
	g.storm.nextShrinkT = g.stormInterval()
}

// updateStorm drives the shrink schedule and applies zone damage. Each
// shrink is announced, held for the grace period, then applied, and the
// next one is scheduled from the then-current player count.
func (g *Game) updateStorm(dt float64) {
	s := &g.storm

	if !s.warned {
		s.nextShrinkT -= dt
		if s.nextShrinkT <= 0 {
			s.warned = true
			s.graceT = g.cfg.StormGraceSecs
			g.broadcastMsg(Envelope{T: MsgFlavor, Data: FlavorMsg{
				Text: stormFlavor(g.cfg.StormGraceSecs),
			}})
		}
	} else {
		s.graceT -= dt
		if s.graceT <= 0 {
			s.warned = false
			s.Extent -= g.cfg.StormStep
			if s.Extent < g.cfg.StormMinExtent {
				s.Extent = g.cfg.StormMinExtent
			}
			g.broadcastMsg(Envelope{T: MsgArenaSize, Data: ArenaSizeMsg{Size: s.Extent}})
			g.broadcastMsg(Envelope{T: MsgFlavor, Data: FlavorMsg{
				Text: fmt.Sprintf("The storm closes in. Safe zone is now %.0f units.", s.Extent*2),
			}})
			s.nextShrinkT = g.stormInterval()
		}
	}

	g.applyStormDamage(dt)
}

// applyStormDamage drains players outside the zone proportionally to how
// far out they stand, clamped to a max rate. Fractional damage accumulates
// so low rates still bite at 30 Hz. Storm deaths go through the same kill
// path as combat, credited to "storm".
func (g *Game) applyStormDamage(dt float64) {
	for _, p := range g.players {
		if !p.Alive {
			continue
		}
		out := chebyshevOutside(p.X, p.Y, g.storm.Extent)
		if out <= 0 {
			p.StormAcc = 0
			continue
		}
		dps := out * g.cfg.StormDmgPerUnit
		if dps > g.cfg.StormDmgCap {
			dps = g.cfg.StormDmgCap
		}
		p.StormAcc += dps * dt
		dmg := int(p.StormAcc)
		if dmg == 0 {
			continue
		}
		p.StormAcc -= float64(dmg)
		g.hitPlayer(p, dmg, "storm", "The Storm", p.X, p.Y)
	}
}

// chebyshevOutside returns how far (x, y) sits outside the square zone of
// the given half-extent, 0 when inside.
func chebyshevOutside(x, y, extent float64) float64 {
	ax, ay := x, y
	if ax < 0 {
		ax = -ax
	}
	if ay < 0 {
		ay = -ay
	}
	m := ax
	if ay > m {
		m = ay
	}
	return m - extent
}
