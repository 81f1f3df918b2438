package main

import "time"

const maxNameLen = 15

// Player represents one connected identity for the current match. The
// client drives its own movement; the server validates and is authoritative.
type Player struct {
	ID        string
	Name      string
	Character int
	X, Y      float64
	Angle     float64
	Health    int
	Shield    int
	Weapon    int
	Alive     bool
	Kills     int

	LastShot time.Time // fire-rate cooldown gate

	// Anti-teleport baseline: the last position the server accepted.
	// Synced=false lets the first post-spawn move bypass the speed check
	// exactly once.
	LastX, LastY float64
	Synced       bool

	StormAcc float64 // fractional storm damage carried between ticks

	SpectateID string // target id while dead, "" = arena center

	JoinedAt time.Time
}

// NewPlayer creates a player record for a fresh connection. Players joining
// mid-round spectate until the next round spawns them.
func NewPlayer(name string, character int, cfg *Config) *Player {
	if len(name) > maxNameLen {
		name = name[:maxNameLen]
	}
	if name == "" {
		name = "Drifter_" + GenerateID(2)
	}
	return &Player{
		ID:        GenerateID(8),
		Name:      name,
		Character: character,
		Health:    cfg.MaxHealth,
		Shield:    0,
		Weapon:    WeaponPistol,
		Alive:     false,
		JoinedAt:  time.Now(),
	}
}

// SpawnAt resets the per-round mutable fields and places the player. The
// identity (id, name, kill count within the round reset separately) persists
// across rounds.
func (p *Player) SpawnAt(x, y float64, cfg *Config) {
	p.X = x
	p.Y = y
	p.LastX = x
	p.LastY = y
	p.Health = cfg.MaxHealth
	p.Shield = 0
	p.Weapon = WeaponPistol
	p.Alive = true
	p.Kills = 0
	p.Synced = false
	p.LastShot = time.Time{}
	p.StormAcc = 0
	p.SpectateID = ""
}

// TakeDamage applies damage shield-first and returns true if the player
// died. Shield absorbs up to its full value; the remainder spills to health.
func (p *Player) TakeDamage(dmg int) bool {
	if !p.Alive || dmg <= 0 {
		return false
	}
	absorbed := dmg
	if absorbed > p.Shield {
		absorbed = p.Shield
	}
	p.Shield -= absorbed
	p.Health -= dmg - absorbed
	if p.Health <= 0 {
		p.Health = 0
		p.Alive = false
		return true
	}
	return false
}

// CanFire reports whether the weapon cooldown has elapsed.
func (p *Player) CanFire(now time.Time) bool {
	if !p.Alive {
		return false
	}
	w := WeaponByID(p.Weapon)
	return now.Sub(p.LastShot) >= w.FireRate
}

// ToState converts to the full-precision wire representation.
func (p *Player) ToState() PlayerState {
	return PlayerState{
		ID:        p.ID,
		Name:      p.Name,
		X:         round1(p.X),
		Y:         round1(p.Y),
		Angle:     round1(p.Angle),
		Health:    p.Health,
		Shield:    p.Shield,
		Weapon:    p.Weapon,
		Alive:     p.Alive,
		Color:     CharacterColor(p.Character),
		Character: p.Character,
		Kills:     p.Kills,
	}
}

// ToFarState converts to the reduced-precision representation used for
// entities outside the viewer's area of interest.
func (p *Player) ToFarState() FarPlayerState {
	return FarPlayerState{
		ID: p.ID,
		X:  float64(int(p.X)),
		Y:  float64(int(p.Y)),
	}
}
