package main

// Loot types
const (
	LootHealth = 0
	LootShield = 1
	LootWeapon = 2
)

const (
	lootPickupRadius = 40.0
	lootHealAmount   = 25
	lootShieldAmount = 50
)

// Loot is a static pickup: bulk-spawned at round start, released on
// pickup, bulk-cleared by the next round's respawn.
type Loot struct {
	ID     uint64
	Type   int
	Weapon int // weapon id when Type == LootWeapon
	X, Y   float64
}

// LootPool mirrors the bullet pool: fixed capacity, free-list acquire,
// swap-remove release, id map for O(1) pickup.
type LootPool struct {
	slots  []Loot
	sp     slotPool
	byID   map[uint64]int
	nextID uint64
}

// NewLootPool preallocates capacity slots.
func NewLootPool(capacity int) *LootPool {
	return &LootPool{
		slots: make([]Loot, capacity),
		sp:    newSlotPool(capacity),
		byID:  make(map[uint64]int, capacity),
	}
}

// Spawn places a loot item. Returns nil when the pool is exhausted, which
// silently caps the per-round loot count.
func (lp *LootPool) Spawn(lootType, weapon int, x, y float64) *Loot {
	slot, ok := lp.sp.acquire()
	if !ok {
		return nil
	}
	lp.nextID++
	l := &lp.slots[slot]
	*l = Loot{ID: lp.nextID, Type: lootType, Weapon: weapon, X: x, Y: y}
	lp.byID[l.ID] = slot
	return l
}

// Release frees a loot item by id (pickup).
func (lp *LootPool) Release(id uint64) {
	slot, ok := lp.byID[id]
	if !ok {
		return
	}
	delete(lp.byID, id)
	lp.sp.release(slot)
}

// Active invokes fn for each live loot item.
func (lp *LootPool) Active(fn func(*Loot)) {
	for _, slot := range lp.sp.active {
		fn(&lp.slots[slot])
	}
}

// Len returns the number of live loot items.
func (lp *LootPool) Len() int { return lp.sp.len() }

// Clear bulk-releases everything (round respawn).
func (lp *LootPool) Clear() {
	lp.sp.reset()
	for id := range lp.byID {
		delete(lp.byID, id)
	}
}
