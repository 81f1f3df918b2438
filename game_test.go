package main

import (
	"sync"
	"testing"
)

// mockBroadcaster captures sent messages for testing
type mockBroadcaster struct {
	mu       sync.Mutex
	messages []interface{}
	frames   []StateMsg
}

func (m *mockBroadcaster) SendJSON(msg interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
}

func (m *mockBroadcaster) SendStateFrame(s *StateMsg) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frames = append(m.frames, *s)
}

// envelopes returns the captured JSON messages with a given type tag
func (m *mockBroadcaster) envelopes(tag string) []Envelope {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Envelope
	for _, msg := range m.messages {
		if env, ok := msg.(Envelope); ok && env.T == tag {
			out = append(out, env)
		}
	}
	return out
}

func (m *mockBroadcaster) lastFrame() *StateMsg {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.frames) == 0 {
		return nil
	}
	f := m.frames[len(m.frames)-1]
	return &f
}

// testConfig returns a deterministic config with short timers so the
// round FSM can be driven through a handful of ticks
func testConfig() *Config {
	return &Config{
		TickRate:     30,
		FarTickEvery: 4,

		ArenaHalfExtent: 2000,
		AOIRadius:       1200,
		HitRadius:       30,
		CellSize:        160,
		MoveTolerance:   120,

		MaxHealth: 150,
		MaxShield: 100,

		MinPlayers:       2,
		CountdownSecs:    0.1,
		RoundLimitSecs:   300,
		IntermissionSecs: 0.1,

		StormStep:       150,
		StormGraceSecs:  5,
		StormMinExtent:  250,
		StormDmgPerUnit: 0.05,
		StormDmgCap:     60,

		StormIntervalLow:  20,
		StormIntervalMid:  35,
		StormIntervalHigh: 50,
		StormLowAlive:     3,
		StormMidAlive:     6,

		BulletPoolSize: 64,
		LootPoolSize:   16,

		RewardAmount: 1000,
		RewardSymbol: "STRM",
	}
}

func newTestGame() *Game {
	return NewGame(testConfig(), nil, nil, nil)
}

func addTestPlayer(g *Game, name string) (*Player, *mockBroadcaster) {
	mock := &mockBroadcaster{}
	p, _ := g.AddPlayer(name, 0, "", mock)
	return p, mock
}

func TestGameAddRemovePlayer(t *testing.T) {
	g := newTestGame()
	p, _ := addTestPlayer(g, "TestDrifter")
	if p == nil {
		t.Fatal("expected a player, got nil")
	}
	if p.Name != "TestDrifter" {
		t.Errorf("expected name TestDrifter, got %s", p.Name)
	}
	if g.PlayerCount() != 1 {
		t.Errorf("expected 1 player, got %d", g.PlayerCount())
	}

	g.RemovePlayer(p.ID)
	if g.PlayerCount() != 0 {
		t.Errorf("expected 0 players, got %d", g.PlayerCount())
	}
}

func TestGameArenaFull(t *testing.T) {
	g := newTestGame()
	for i := 0; i < maxPlayers; i++ {
		p, _ := addTestPlayer(g, "P")
		if p == nil {
			t.Fatalf("player %d rejected below the cap", i)
		}
	}
	p, _ := addTestPlayer(g, "Overflow")
	if p != nil {
		t.Error("expected nil player above the cap")
	}
}

func TestHandleMoveFirstSyncBypass(t *testing.T) {
	g := newTestGame()
	p, _ := addTestPlayer(g, "Mover")
	p.SpawnAt(0, 0, g.cfg)

	// First update after spawn is accepted no matter the distance
	ack, ok := g.HandleMove(p.ID, MoveMsg{X: 800, Y: 600, Seq: 1})
	if !ok {
		t.Fatal("expected move to be handled")
	}
	if ack.X != 800 || ack.Y != 600 {
		t.Errorf("first move should sync unconditionally, ack pos (%v, %v)", ack.X, ack.Y)
	}
	if !p.Synced {
		t.Error("player should be synced after the first move")
	}
}

func TestHandleMoveRejectsTeleport(t *testing.T) {
	g := newTestGame()
	p, _ := addTestPlayer(g, "Mover")
	p.SpawnAt(0, 0, g.cfg)
	g.HandleMove(p.ID, MoveMsg{X: 0, Y: 0, Seq: 1})

	// Within tolerance: accepted
	ack, _ := g.HandleMove(p.ID, MoveMsg{X: 100, Y: 0, Seq: 2})
	if ack.X != 100 {
		t.Errorf("in-tolerance move rejected, ack x=%v", ack.X)
	}

	// Beyond tolerance: rejected, ack carries the held position
	ack, _ = g.HandleMove(p.ID, MoveMsg{X: 500, Y: 500, Seq: 3})
	if ack.Seq != 3 {
		t.Errorf("ack should echo seq 3, got %d", ack.Seq)
	}
	if ack.X != 100 || ack.Y != 0 {
		t.Errorf("teleport should be rejected, ack pos (%v, %v)", ack.X, ack.Y)
	}
	if p.X != 100 || p.Y != 0 {
		t.Errorf("player position mutated by rejected move: (%v, %v)", p.X, p.Y)
	}
}

func TestHandleMoveClampsToArena(t *testing.T) {
	g := newTestGame()
	p, _ := addTestPlayer(g, "Edge")
	p.SpawnAt(0, 0, g.cfg)

	ack, _ := g.HandleMove(p.ID, MoveMsg{X: 99999, Y: -99999, Seq: 1})
	half := g.cfg.ArenaHalfExtent
	if ack.X != half || ack.Y != -half {
		t.Errorf("expected clamp to (%v, %v), got (%v, %v)", half, -half, ack.X, ack.Y)
	}
}

func TestHandleMoveAngleAlwaysAccepted(t *testing.T) {
	g := newTestGame()
	p, _ := addTestPlayer(g, "Turner")
	p.SpawnAt(0, 0, g.cfg)
	g.HandleMove(p.ID, MoveMsg{X: 0, Y: 0, Seq: 1})

	g.HandleMove(p.ID, MoveMsg{X: 5000, Y: 5000, Angle: 1.5, Seq: 2})
	if p.Angle != 1.5 {
		t.Errorf("angle should update even on a rejected move, got %v", p.Angle)
	}
}

func TestHandleShootCooldown(t *testing.T) {
	g := newTestGame()
	p, _ := addTestPlayer(g, "Shooter")
	p.SpawnAt(0, 0, g.cfg)
	g.round.Phase = PhaseActive

	g.HandleShoot(p.ID)
	if g.bullets.Len() != 1 {
		t.Fatalf("expected 1 bullet, got %d", g.bullets.Len())
	}

	// Immediate second shot is inside the pistol cooldown
	g.HandleShoot(p.ID)
	if g.bullets.Len() != 1 {
		t.Errorf("cooldown not enforced, got %d bullets", g.bullets.Len())
	}
}

func TestHandleShootShotgunPellets(t *testing.T) {
	g := newTestGame()
	p, _ := addTestPlayer(g, "Scatter")
	p.SpawnAt(0, 0, g.cfg)
	p.Weapon = WeaponShotgun
	g.round.Phase = PhaseActive

	g.HandleShoot(p.ID)
	if got := g.bullets.Len(); got != WeaponTable[WeaponShotgun].Pellets {
		t.Errorf("expected %d pellets, got %d", WeaponTable[WeaponShotgun].Pellets, got)
	}
}

func TestHandleShootIgnoredOutsideActivePhase(t *testing.T) {
	g := newTestGame()
	p, _ := addTestPlayer(g, "Eager")
	p.SpawnAt(0, 0, g.cfg)
	g.round.Phase = PhaseWaiting

	g.HandleShoot(p.ID)
	if g.bullets.Len() != 0 {
		t.Errorf("shot should be ignored outside the active phase, got %d bullets", g.bullets.Len())
	}
}

func TestHandleSpectate(t *testing.T) {
	g := newTestGame()
	dead, _ := addTestPlayer(g, "Ghost")
	alive, _ := addTestPlayer(g, "Target")
	alive.SpawnAt(100, 100, g.cfg)

	g.HandleSpectate(dead.ID, alive.ID)
	if dead.SpectateID != alive.ID {
		t.Error("dead player should be able to spectate")
	}

	// Alive players can't spectate
	alive.SpectateID = ""
	g.HandleSpectate(alive.ID, dead.ID)
	if alive.SpectateID != "" {
		t.Error("alive player should not be able to spectate")
	}

	// Unknown target is ignored
	dead.SpectateID = ""
	g.HandleSpectate(dead.ID, "nope")
	if dead.SpectateID != "" {
		t.Error("unknown spectate target should be ignored")
	}
}
