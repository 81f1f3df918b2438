package main

import (
	"log"
	"sync"
	"time"
)

const (
	maxPlayers       = 40
	moveRejectLogGap = 2 * time.Second
)

// Broadcaster is the non-owning handle the simulation uses to push
// messages to a connection.
type Broadcaster interface {
	SendJSON(msg interface{})
	SendStateFrame(s *StateMsg)
}

// Game holds the entire authoritative state for the arena. All mutation
// happens under one coarse mutex, taken by the tick loop and by the
// message handlers; partial updates (mid-iteration pool mutation) are
// invariant-breaking, so nothing escapes the lock.
type Game struct {
	mu  sync.Mutex
	cfg *Config

	players map[string]*Player
	clients map[string]Broadcaster

	bullets *BulletPool
	loot    *LootPool
	grid    *SpatialGrid

	round RoundState
	storm Storm

	board   map[string]*LeaderboardEntry // in-memory, keyed by name
	winners []RecentWinner               // most recent first, capped

	db      *DB           // nil in tests
	claims  *ClaimGateway // nil disables reward minting
	journal *EventJournal // nil disables the event journal

	tick    uint64
	running bool
	stop    chan struct{}

	nearBuf    []*Player // reused spatial query buffer
	releaseBuf []uint64  // bullets marked for release this tick

	lastMoveRejectLog time.Time
}

// NewGame creates the arena. db, claims and journal may be nil.
func NewGame(cfg *Config, db *DB, claims *ClaimGateway, journal *EventJournal) *Game {
	g := &Game{
		cfg:     cfg,
		players: make(map[string]*Player),
		clients: make(map[string]Broadcaster),
		bullets: NewBulletPool(cfg.BulletPoolSize),
		loot:    NewLootPool(cfg.LootPoolSize),
		grid:    NewSpatialGrid(cfg.ArenaHalfExtent, cfg.CellSize),
		round:   RoundState{Phase: PhaseWaiting},
		db:      db,
		claims:  claims,
		journal: journal,
		stop:    make(chan struct{}),
	}
	g.storm.Extent = cfg.ArenaHalfExtent
	g.board = make(map[string]*LeaderboardEntry)
	g.loadPersisted()
	return g
}

// loadPersisted warms the in-memory leaderboard and recent-winner list
// from the database.
func (g *Game) loadPersisted() {
	if g.db == nil {
		return
	}
	if entries, err := g.db.TopLeaderboard(100); err == nil {
		for i := range entries {
			e := entries[i]
			g.board[e.Name] = &e
		}
	}
	if winners, err := g.db.RecentWinners(10); err == nil {
		g.winners = winners
	}
}

// Run starts the authoritative tick loop.
func (g *Game) Run() {
	g.mu.Lock()
	g.running = true
	g.mu.Unlock()

	ticker := time.NewTicker(time.Second / time.Duration(g.cfg.TickRate))
	defer ticker.Stop()

	dt := 1.0 / float64(g.cfg.TickRate)
	for {
		select {
		case <-ticker.C:
			g.update(dt)
		case <-g.stop:
			return
		}
	}
}

// Stop terminates the tick loop.
func (g *Game) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running {
		g.running = false
		close(g.stop)
	}
}

// update runs one tick: round FSM, storm, combat, loot, broadcast.
func (g *Game) update(dt float64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	start := time.Now()
	g.tick++

	g.updateRound(dt)

	if g.round.Phase == PhaseActive {
		g.updateStorm(dt)
		g.grid.Rebuild(g.players)
		g.resolveBullets(dt)
		g.resolveLoot()
		g.checkWinner()
	}

	g.broadcastState()

	metricTickDuration.Observe(time.Since(start).Seconds())
	metricActiveBullets.Set(float64(g.bullets.Len()))
	metricAlivePlayers.Set(float64(g.aliveCount()))
}

// AddPlayer allocates a player record for a new connection. A valid
// session token from a previous connection restores the same identity.
// Returns nil when the arena is full.
func (g *Game) AddPlayer(name string, character int, token string, client Broadcaster) (*Player, string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.players) >= maxPlayers {
		return nil, ""
	}

	p := NewPlayer(name, character, g.cfg)

	if token != "" && g.claims != nil {
		if pid, prevName, err := g.claims.ValidateSession(token); err == nil {
			if _, taken := g.players[pid]; !taken {
				p.ID = pid
				p.Name = prevName
			}
		}
	}

	g.players[p.ID] = p
	g.clients[p.ID] = client
	metricClients.Set(float64(len(g.clients)))

	fresh := ""
	if g.claims != nil {
		if t, err := g.claims.SessionToken(p.ID, p.Name); err == nil {
			fresh = t
		}
	}
	return p, fresh
}

// JoinSnapshot assembles the full initial state for a join ack.
func (g *Game) JoinSnapshot(p *Player, token string) JoinedMsg {
	g.mu.Lock()
	defer g.mu.Unlock()
	return JoinedMsg{
		ID:        p.ID,
		Token:     token,
		Player:    p.ToState(),
		Weapons:   WeaponTable,
		Board:     g.topBoard(10),
		Winners:   append([]RecentWinner(nil), g.winners...),
		Phase:     int(g.round.Phase),
		Round:     g.round.Number,
		ArenaSize: g.storm.Extent,
	}
}

// AnnounceJoin tells the arena someone dropped in.
func (g *Game) AnnounceJoin(p *Player) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.broadcastMsg(Envelope{T: MsgFlavor, Data: FlavorMsg{Text: joinFlavor(p.Name)}})
}

// RemovePlayer drops a player on disconnect, tells the arena, and re-runs
// the winner check: a disconnect can end a round exactly like a kill.
func (g *Game) RemovePlayer(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, ok := g.players[id]
	if !ok {
		return
	}
	delete(g.players, id)
	delete(g.clients, id)
	metricClients.Set(float64(len(g.clients)))

	g.broadcastMsg(Envelope{T: MsgFlavor, Data: FlavorMsg{Text: departFlavor(p.Name)}})
	if g.round.Phase == PhaseActive {
		g.checkWinner()
	}
}

// HandleMove validates a proposed position. The position is clamped to
// world bounds; the first post-spawn update is accepted unconditionally
// exactly once; after that the displacement from the last accepted
// position must stay within the tolerance. Angle updates are always
// accepted. The returned ack echoes the sequence number and the position
// the server actually holds.
func (g *Game) HandleMove(id string, m MoveMsg) (AckMsg, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, ok := g.players[id]
	if !ok {
		return AckMsg{}, false
	}

	p.Angle = m.Angle

	if !p.Alive {
		return AckMsg{Seq: m.Seq, X: round1(p.X), Y: round1(p.Y)}, true
	}

	half := g.cfg.ArenaHalfExtent
	x := Clamp(m.X, -half, half)
	y := Clamp(m.Y, -half, half)

	if !p.Synced {
		p.X, p.Y = x, y
		p.LastX, p.LastY = x, y
		p.Synced = true
	} else {
		dx := x - p.LastX
		dy := y - p.LastY
		tol := g.cfg.MoveTolerance
		if dx*dx+dy*dy <= tol*tol {
			p.X, p.Y = x, y
			p.LastX, p.LastY = x, y
		} else if time.Since(g.lastMoveRejectLog) > moveRejectLogGap {
			// Rejected silently on the wire; the ack below carries the
			// authoritative position for client reconciliation.
			log.Printf("move rejected for %s: displacement %.0f > %.0f", p.Name, Distance(p.LastX, p.LastY, x, y), tol)
			g.lastMoveRejectLog = time.Now()
		}
	}

	return AckMsg{Seq: m.Seq, X: round1(p.X), Y: round1(p.Y)}, true
}

// HandleShoot enforces the weapon cooldown server-side and spawns the
// weapon's pellets. Pool exhaustion silently drops pellets.
func (g *Game) HandleShoot(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.round.Phase != PhaseActive {
		return
	}
	p, ok := g.players[id]
	if !ok {
		return
	}
	now := time.Now()
	if !p.CanFire(now) {
		return
	}
	p.LastShot = now

	w := WeaponByID(p.Weapon)
	for i := 0; i < w.Pellets; i++ {
		angle := p.Angle
		if w.Pellets > 1 {
			angle += w.Spread * (float64(i)/float64(w.Pellets-1) - 0.5)
		} else if w.Spread > 0 {
			angle += randRange(-w.Spread/2, w.Spread/2)
		}
		g.bullets.Spawn(p, w, angle)
	}
}

// HandleSpectate points a dead player's camera at another player.
func (g *Game) HandleSpectate(id, targetID string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, ok := g.players[id]
	if !ok || p.Alive {
		return
	}
	if _, exists := g.players[targetID]; exists {
		p.SpectateID = targetID
	}
}

// PlayerCount returns the number of connected players.
func (g *Game) PlayerCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.players)
}

func (g *Game) aliveCount() int {
	n := 0
	for _, p := range g.players {
		if p.Alive {
			n++
		}
	}
	return n
}

// broadcastMsg sends a message to every connected client. Callers hold the
// game lock; sends are non-blocking channel pushes.
func (g *Game) broadcastMsg(msg Envelope) {
	for _, client := range g.clients {
		client.SendJSON(msg)
	}
}

// sendTo sends a message to one player's connection, if still present.
func (g *Game) sendTo(id string, msg Envelope) {
	if client, ok := g.clients[id]; ok {
		client.SendJSON(msg)
	}
}
