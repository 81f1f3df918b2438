package main

import "time"

// Weapon ids. Loot of type LootWeapon carries one of these.
const (
	WeaponPistol  = 0
	WeaponSMG     = 1
	WeaponShotgun = 2
	WeaponSniper  = 3
)

// WeaponDef is an immutable per-weapon config, shared and never mutated
// at runtime.
type WeaponDef struct {
	ID       int           `json:"id"`
	Name     string        `json:"name"`
	Damage   int           `json:"dmg"`
	FireRate time.Duration `json:"-"`
	RateMs   int           `json:"rate"` // FireRate in ms, for the client
	Speed    float64       `json:"spd"`  // bullet speed, units/s
	Spread   float64       `json:"sprd"` // total spread arc, radians
	Pellets  int           `json:"cnt"`  // bullets per shot
	Color    string        `json:"col"`
}

// WeaponTable is the full catalog, indexed by weapon id.
var WeaponTable = []WeaponDef{
	{ID: WeaponPistol, Name: "Pistol", Damage: 18, FireRate: 400 * time.Millisecond, RateMs: 400,
		Speed: 900, Spread: 0, Pellets: 1, Color: "#ffd24d"},
	{ID: WeaponSMG, Name: "SMG", Damage: 7, FireRate: 120 * time.Millisecond, RateMs: 120,
		Speed: 1000, Spread: 0.08, Pellets: 1, Color: "#4dd2ff"},
	{ID: WeaponShotgun, Name: "Shotgun", Damage: 9, FireRate: 900 * time.Millisecond, RateMs: 900,
		Speed: 750, Spread: 0.35, Pellets: 6, Color: "#ff8c4d"},
	{ID: WeaponSniper, Name: "Sniper", Damage: 72, FireRate: 1200 * time.Millisecond, RateMs: 1200,
		Speed: 1600, Spread: 0, Pellets: 1, Color: "#c84dff"},
}

// WeaponByID returns the definition for a weapon id, falling back to the
// pistol for anything out of range.
func WeaponByID(id int) WeaponDef {
	if id < 0 || id >= len(WeaponTable) {
		return WeaponTable[WeaponPistol]
	}
	return WeaponTable[id]
}

// Character palette, picked by the join message's character choice.
var characterColors = []string{"#ff5555", "#55aaff", "#66dd66", "#ffcc44", "#cc77ff", "#ff9955"}

// CharacterColor maps a character choice to its display color.
func CharacterColor(choice int) string {
	if choice < 0 || choice >= len(characterColors) {
		choice = 0
	}
	return characterColors[choice]
}
