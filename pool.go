package main

// slotPool is the index bookkeeping shared by the bullet and loot pools:
// a fixed set of slots, a free-list stack for O(1) acquire, and a
// swap-remove active list for O(1) release. Iteration order over active
// slots is unspecified but stable between mutations.
type slotPool struct {
	free   []int // free slot indices (stack)
	active []int // active slot indices, order mutated by swap-remove
	pos    []int // slot -> index in active, -1 when free
}

func newSlotPool(capacity int) slotPool {
	sp := slotPool{
		free:   make([]int, 0, capacity),
		active: make([]int, 0, capacity),
		pos:    make([]int, capacity),
	}
	for i := capacity - 1; i >= 0; i-- {
		sp.free = append(sp.free, i)
	}
	for i := range sp.pos {
		sp.pos[i] = -1
	}
	return sp
}

// acquire pops a free slot. Exhaustion is not an error: the caller treats
// ok=false as "effect silently did not happen".
func (sp *slotPool) acquire() (int, bool) {
	if len(sp.free) == 0 {
		return 0, false
	}
	slot := sp.free[len(sp.free)-1]
	sp.free = sp.free[:len(sp.free)-1]
	sp.pos[slot] = len(sp.active)
	sp.active = append(sp.active, slot)
	return slot, true
}

// release returns a slot to the free list, swap-removing it from the
// active list.
func (sp *slotPool) release(slot int) {
	p := sp.pos[slot]
	if p < 0 {
		return // already free
	}
	last := len(sp.active) - 1
	moved := sp.active[last]
	sp.active[p] = moved
	sp.pos[moved] = p
	sp.active = sp.active[:last]
	sp.pos[slot] = -1
	sp.free = append(sp.free, slot)
}

// reset releases every active slot at once (round-end bulk clear).
func (sp *slotPool) reset() {
	for _, slot := range sp.active {
		sp.pos[slot] = -1
		sp.free = append(sp.free, slot)
	}
	sp.active = sp.active[:0]
}

func (sp *slotPool) len() int { return len(sp.active) }
