package main

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"
)

// RoundPhase is the lifecycle of a round
type RoundPhase int

const (
	PhaseWaiting  RoundPhase = 0 // below minimum player count
	PhaseStarting RoundPhase = 1 // countdown running
	PhaseActive   RoundPhase = 2 // combat enabled
	PhaseEnded    RoundPhase = 3 // intermission
)

// RoundState is the singleton match state, mutated only by the round FSM.
type RoundState struct {
	Phase             RoundPhase
	Number            int
	ID                string // uuid, keys the claim for this round
	CountdownT        float64
	TimeLeft          float64
	IntermissionT     float64
	FinalTwoAnnounced bool
	StartedAt         time.Time
}

const claimMintTimeout = 10 * time.Second

// updateRound advances the phase timers and transitions. Runs every tick
// under the game lock.
func (g *Game) updateRound(dt float64) {
	switch g.round.Phase {
	case PhaseWaiting:
		if len(g.players) >= g.cfg.MinPlayers {
			g.enterStarting()
		}

	case PhaseStarting:
		if len(g.players) < g.cfg.MinPlayers {
			g.round.Phase = PhaseWaiting
			return
		}
		g.round.CountdownT -= dt
		if g.round.CountdownT <= 0 {
			g.startRound()
		}

	case PhaseActive:
		g.round.TimeLeft -= dt
		if g.round.TimeLeft <= 0 {
			// Attrition failed to settle it; nobody takes the crown.
			g.endRound(nil)
		}

	case PhaseEnded:
		g.round.IntermissionT -= dt
		if g.round.IntermissionT <= 0 {
			if len(g.players) >= g.cfg.MinPlayers {
				g.enterStarting()
			} else {
				g.round.Phase = PhaseWaiting
			}
		}
	}
}

func (g *Game) enterStarting() {
	g.round.Phase = PhaseStarting
	g.round.CountdownT = g.cfg.CountdownSecs
	g.broadcastMsg(Envelope{T: MsgFlavor, Data: FlavorMsg{
		Text: fmt.Sprintf("Round starting in %.0f seconds", g.cfg.CountdownSecs),
	}})
}

// startRound enters the active phase: every player is reset and scattered,
// bullets cleared, loot respawned, the storm re-armed.
func (g *Game) startRound() {
	g.round.Phase = PhaseActive
	g.round.Number++
	g.round.ID = uuid.NewString()
	g.round.TimeLeft = g.cfg.RoundLimitSecs
	g.round.FinalTwoAnnounced = false
	g.round.StartedAt = time.Now()

	g.bullets.Clear()
	g.spawnPlayers()
	g.spawnLoot()
	g.resetStorm()

	g.broadcastMsg(Envelope{T: MsgRoundStart, Data: RoundStartMsg{
		Round:   g.round.Number,
		Weapons: WeaponTable,
	}})
	metricRoundsTotal.Inc()
	if g.journal != nil {
		g.journal.Track(EvtRoundStart, g.round.ID, fmt.Sprintf(`{"round":%d,"players":%d}`, g.round.Number, len(g.players)))
	}
}

// spawnPlayers scatters everyone with a minimum separation so nobody
// spawns inside someone else's hit radius.
func (g *Game) spawnPlayers() {
	margin := g.cfg.ArenaHalfExtent * 0.85
	minSep := g.cfg.HitRadius * 4
	var placed [][2]float64

	for _, p := range g.players {
		var x, y float64
		for attempt := 0; attempt < 16; attempt++ {
			x = randRange(-margin, margin)
			y = randRange(-margin, margin)
			clear := true
			for _, q := range placed {
				if Distance(x, y, q[0], q[1]) < minSep {
					clear = false
					break
				}
			}
			if clear {
				break
			}
		}
		placed = append(placed, [2]float64{x, y})
		p.SpawnAt(x, y, g.cfg)
	}
}

// spawnLoot bulk-places loot scaled with the player count, capped by the
// pool.
func (g *Game) spawnLoot() {
	g.loot.Clear()
	count := len(g.players) * 3
	if count < 8 {
		count = 8
	}
	if count > 48 {
		count = 48
	}
	margin := g.cfg.ArenaHalfExtent * 0.9
	for i := 0; i < count; i++ {
		x := randRange(-margin, margin)
		y := randRange(-margin, margin)
		switch i % 3 {
		case 0:
			g.loot.Spawn(LootHealth, 0, x, y)
		case 1:
			g.loot.Spawn(LootShield, 0, x, y)
		default:
			// Anything but the starting pistol
			wid := 1 + int(randFloat()*float64(len(WeaponTable)-1))
			g.loot.Spawn(LootWeapon, wid, x, y)
		}
	}
}

// checkWinner inspects the alive set: announces the final two once per
// round, and ends the round when at most one player remains.
func (g *Game) checkWinner() {
	if g.round.Phase != PhaseActive {
		return
	}
	var last *Player
	alive := 0
	for _, p := range g.players {
		if p.Alive {
			alive++
			last = p
		}
	}

	if alive == 2 && !g.round.FinalTwoAnnounced {
		g.round.FinalTwoAnnounced = true
		g.broadcastMsg(Envelope{T: MsgFlavor, Data: FlavorMsg{Text: finalTwoFlavor()}})
		return
	}
	if alive > 1 {
		return
	}
	g.endRound(last) // last == nil when zero remain
}

// endRound enters the intermission: bullets cleared, leaderboard updated
// for every participant, round broadcast, and the claim minted for the
// winner without ever blocking a tick.
func (g *Game) endRound(winner *Player) {
	g.round.Phase = PhaseEnded
	g.round.IntermissionT = g.cfg.IntermissionSecs
	g.bullets.Clear()

	duration := time.Since(g.round.StartedAt).Seconds()
	roundID := g.round.ID

	for _, p := range g.players {
		won := winner != nil && p.ID == winner.ID
		g.bumpBoard(p.Name, won, p.Kills)
		p.Alive = false
	}

	end := RoundEndMsg{
		Kills: 0,
		Round: g.round.Number,
		Board: g.topBoard(10),
	}
	if winner != nil {
		end.WinnerID = winner.ID
		end.WinnerName = winner.Name
		end.Kills = winner.Kills
		if g.claims != nil {
			end.Claim = &ClaimSummary{Amount: g.cfg.RewardAmount, Symbol: g.cfg.RewardSymbol}
		}
		g.broadcastMsg(Envelope{T: MsgFlavor, Data: FlavorMsg{Text: winFlavor(winner.Name)}})

		g.winners = append([]RecentWinner{{
			Round: g.round.Number, Name: winner.Name, Kills: winner.Kills, Amount: g.cfg.RewardAmount,
		}}, g.winners...)
		if len(g.winners) > 10 {
			g.winners = g.winners[:10]
		}
	}
	g.broadcastMsg(Envelope{T: MsgRoundEnd, Data: end})

	if g.journal != nil {
		name := ""
		if winner != nil {
			name = winner.Name
		}
		g.journal.Track(EvtRoundEnd, roundID, fmt.Sprintf(`{"round":%d,"winner":%q,"duration":%.1f}`, g.round.Number, name, duration))
	}

	if g.db != nil {
		number := g.round.Number
		var wName string
		var wKills int
		var winnerClient Broadcaster
		if winner != nil {
			wName = winner.Name
			wKills = winner.Kills
			winnerClient = g.clients[winner.ID]
		}
		gw := g.claims
		// The claim row references the round row, so the round record must
		// land before the mint; one goroutine keeps that order off the tick.
		go func() {
			if err := g.db.RecordRound(roundID, number, wName, wKills, duration); err != nil {
				log.Printf("record round: %v", err)
				return
			}
			if winner != nil && gw != nil {
				g.mintClaim(gw, roundID, wName, wKills, winnerClient)
			}
		}()
	}
}

// mintClaim creates the claim and delivers the credential on the winner's
// own connection. The round has already transitioned and broadcast; this
// runs off the tick path, and a failure means no claim this round, logged
// and not fatal.
func (g *Game) mintClaim(gw *ClaimGateway, roundID, winnerName string, kills int, client Broadcaster) {
	ctx, cancel := context.WithTimeout(context.Background(), claimMintTimeout)
	defer cancel()
	claim, token, err := gw.CreateClaim(ctx, roundID, winnerName, kills)
	if err != nil {
		log.Printf("claim mint failed for round %s: %v", roundID, err)
		return
	}
	metricClaimsTotal.Inc()
	if client != nil {
		// Private delivery only; the credential is never broadcast.
		client.SendJSON(Envelope{T: MsgClaimToken, Data: ClaimTokenMsg{
			RoundID: roundID,
			ClaimID: claim.ID,
			Token:   token,
			Amount:  claim.Amount,
		}})
	}
}

// bumpBoard updates the in-memory leaderboard and mirrors the change to
// the database off the tick path.
func (g *Game) bumpBoard(name string, won bool, kills int) {
	e, ok := g.board[name]
	if !ok {
		e = &LeaderboardEntry{Name: name}
		g.board[name] = e
	}
	e.Games++
	e.Kills += kills
	if won {
		e.Wins++
	}
	if g.db != nil {
		wins := 0
		if won {
			wins = 1
		}
		go func(name string, wins, kills int) {
			if err := g.db.BumpLeaderboard(name, wins, kills); err != nil {
				log.Printf("leaderboard update: %v", err)
			}
		}(name, wins, kills)
	}
}

// topBoard returns the best entries by wins, then kills.
func (g *Game) topBoard(limit int) []LeaderboardEntry {
	out := make([]LeaderboardEntry, 0, len(g.board))
	for _, e := range g.board {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Wins != out[j].Wins {
			return out[i].Wins > out[j].Wins
		}
		return out[i].Kills > out[j].Kills
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
