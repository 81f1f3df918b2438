package main

import "math"

// Bullet is an ephemeral projectile living in one pool slot. A bullet is
// either active (in exactly one slot, present in the active list and id
// map) or fully released; never partially both.
type Bullet struct {
	ID        uint64
	OwnerID   string
	OwnerName string
	X, Y      float64
	VX, VY    float64
	Damage    int
	Color     string
}

// BulletPool is a fixed-capacity preallocated pool. Acquire and release
// are O(1); iteration walks the active list. Exhaustion drops the shot
// rather than growing the pool.
type BulletPool struct {
	slots  []Bullet
	sp     slotPool
	byID   map[uint64]int // bullet id -> slot
	nextID uint64
}

// NewBulletPool preallocates capacity slots.
func NewBulletPool(capacity int) *BulletPool {
	return &BulletPool{
		slots: make([]Bullet, capacity),
		sp:    newSlotPool(capacity),
		byID:  make(map[uint64]int, capacity),
	}
}

// Spawn acquires a slot and initializes a bullet fired by owner at the
// given angle. Returns nil when the pool is exhausted.
func (bp *BulletPool) Spawn(owner *Player, w WeaponDef, angle float64) *Bullet {
	slot, ok := bp.sp.acquire()
	if !ok {
		return nil
	}
	bp.nextID++
	b := &bp.slots[slot]
	*b = Bullet{
		ID:        bp.nextID,
		OwnerID:   owner.ID,
		OwnerName: owner.Name,
		X:         owner.X,
		Y:         owner.Y,
		VX:        math.Cos(angle) * w.Speed,
		VY:        math.Sin(angle) * w.Speed,
		Damage:    w.Damage,
		Color:     w.Color,
	}
	bp.byID[b.ID] = slot
	return b
}

// Release frees the bullet by id. Safe to call for ids already released.
func (bp *BulletPool) Release(id uint64) {
	slot, ok := bp.byID[id]
	if !ok {
		return
	}
	delete(bp.byID, id)
	bp.sp.release(slot)
}

// Active invokes fn for each live bullet. fn must not acquire or release
// mid-iteration; combat batches its releases instead.
func (bp *BulletPool) Active(fn func(*Bullet)) {
	for _, slot := range bp.sp.active {
		fn(&bp.slots[slot])
	}
}

// Len returns the number of active bullets.
func (bp *BulletPool) Len() int { return bp.sp.len() }

// Clear bulk-releases every bullet (round transitions).
func (bp *BulletPool) Clear() {
	bp.sp.reset()
	for id := range bp.byID {
		delete(bp.byID, id)
	}
}
