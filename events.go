package main

import (
	"log"
	"sync"
	"time"
)

// Journal event types
const (
	EvtRoundStart = "round_start"
	EvtRoundEnd   = "round_end"
	EvtKill       = "kill"
)

// RoundEvent is a single journal entry
type RoundEvent struct {
	Type      string
	RoundID   string
	Data      string // JSON metadata (optional)
	Timestamp time.Time
}

// EventJournal persists round events with batched background writes so
// the tick loop never waits on the database.
type EventJournal struct {
	db     *DB
	events chan RoundEvent
	stop   chan struct{}
	wg     sync.WaitGroup

	mu      sync.Mutex
	stopped bool
}

// NewEventJournal creates and starts the background writer
func NewEventJournal(db *DB) *EventJournal {
	j := &EventJournal{
		db:     db,
		events: make(chan RoundEvent, 1024),
		stop:   make(chan struct{}),
	}
	j.wg.Add(1)
	go j.writer()
	return j
}

// Track enqueues an event without blocking; a full channel drops it.
// Connection goroutines can still call this during shutdown, so events
// arriving after Stop are dropped rather than sent.
func (j *EventJournal) Track(evtType, roundID, data string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.stopped {
		return
	}
	select {
	case j.events <- RoundEvent{
		Type:      evtType,
		RoundID:   roundID,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}:
	default:
	}
}

// Stop flushes what remains and shuts the writer down. Safe to call more
// than once.
func (j *EventJournal) Stop() {
	j.mu.Lock()
	if j.stopped {
		j.mu.Unlock()
		return
	}
	j.stopped = true
	j.mu.Unlock()

	close(j.stop)
	j.wg.Wait()
}

func (j *EventJournal) writer() {
	defer j.wg.Done()

	batch := make([]RoundEvent, 0, 64)
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case evt := <-j.events:
			batch = append(batch, evt)
			if len(batch) >= 50 {
				j.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				j.flush(batch)
				batch = batch[:0]
			}
		case <-j.stop:
			// Drain without closing the send side; Track guards itself
			// with the stopped flag.
			for {
				select {
				case evt := <-j.events:
					batch = append(batch, evt)
				default:
					if len(batch) > 0 {
						j.flush(batch)
					}
					return
				}
			}
		}
	}
}

func (j *EventJournal) flush(events []RoundEvent) {
	if j.db == nil || len(events) == 0 {
		return
	}
	if err := j.db.InsertRoundEvents(events); err != nil {
		log.Printf("journal flush error: %v", err)
	}
}
