package main

import (
	"sync"
	"time"
)

// Event types for the operational log
const (
	EvtPlayerJoin  = "player_join"
	EvtPlayerLeave = "player_leave"
	EvtRoundStart  = "round_start"
	EvtRoundEnd    = "round_end"
	EvtPlayerOut   = "player_out"
)

const (
	analyticsBuffer    = 1024
	analyticsBatchSize = 50
	analyticsFlush     = time.Second
)

// AnalyticsEvent represents a single trackable event
type AnalyticsEvent struct {
	Type      string
	RoomID    string
	PlayerID  string
	Data      string
	Timestamp time.Time
}

// Analytics records events with batched background writes. A nil
// *Analytics is valid and discards everything.
type Analytics struct {
	db       *DB
	events   chan AnalyticsEvent
	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewAnalytics creates and starts the background writer. It returns nil
// when db is nil.
func NewAnalytics(db *DB) *Analytics {
	if db == nil {
		return nil
	}
	a := &Analytics{
		db:     db,
		events: make(chan AnalyticsEvent, analyticsBuffer),
		stop:   make(chan struct{}),
	}
	a.wg.Add(1)
	go a.writer()
	return a
}

// Track enqueues an event for async persistence (non-blocking)
func (a *Analytics) Track(evtType, roomID, playerID, data string) {
	if a == nil {
		return
	}
	select {
	case <-a.stop:
		return
	default:
	}
	select {
	case a.events <- AnalyticsEvent{
		Type:      evtType,
		RoomID:    roomID,
		PlayerID:  playerID,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}:
	default:
		// Full: drop rather than stall a room worker
	}
}

// Stop flushes pending events and shuts down the writer
func (a *Analytics) Stop() {
	if a == nil {
		return
	}
	a.stopOnce.Do(func() { close(a.stop) })
	a.wg.Wait()
}

// writer is the background goroutine that batches and writes events to DB
func (a *Analytics) writer() {
	defer a.wg.Done()

	batch := make([]AnalyticsEvent, 0, analyticsBatchSize)
	ticker := time.NewTicker(analyticsFlush)
	defer ticker.Stop()

	for {
		select {
		case evt := <-a.events:
			batch = append(batch, evt)
			if len(batch) >= analyticsBatchSize {
				a.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				a.flush(batch)
				batch = batch[:0]
			}
		case <-a.stop:
		drain:
			for {
				select {
				case evt := <-a.events:
					batch = append(batch, evt)
				default:
					break drain
				}
			}
			if len(batch) > 0 {
				a.flush(batch)
			}
			return
		}
	}
}

func (a *Analytics) flush(events []AnalyticsEvent) {
	if err := a.db.InsertEvents(events); err != nil {
		Log.Errorw("analytics flush", "events", len(events), "err", err)
	}
}

// EventCounts returns counts of each event type recorded since the given time
func (a *Analytics) EventCounts(since time.Time) (map[string]int, error) {
	if a == nil {
		return map[string]int{}, nil
	}
	return a.db.CountEventsSince(since)
}

// Recent returns the newest stored events
func (a *Analytics) Recent(limit int) ([]EventRow, error) {
	if a == nil {
		return nil, nil
	}
	return a.db.RecentEvents(limit)
}
