package main

import (
	"database/sql"
	"encoding/json"
	"log"
	"sync"
	"time"
)

// Event types for run tracking
const (
	EvtSpawn         = "spawn"
	EvtContamination = "contamination"
	EvtSample        = "sample"
	EvtReset         = "reset"
)

// SpawnEvent is the payload of EvtSpawn
type SpawnEvent struct {
	ID           int  `json:"id"`
	X            int  `json:"x"`
	Y            int  `json:"y"`
	Contaminated bool `json:"c"`
}

// ContaminationEvent is the payload of EvtContamination
type ContaminationEvent struct {
	Src int `json:"src"`
	Dst int `json:"dst"`
	X   int `json:"x"`
	Y   int `json:"y"`
}

// SampleEvent is the payload of EvtSample, read back by Samples
type SampleEvent struct {
	Population   int `json:"population"`
	Contaminated int `json:"contaminated"`
	Nodes        int `json:"nodes"`
	Depth        int `json:"depth"`
}

// eventData encodes an event payload for Track
func eventData(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("analytics: marshal %T: %v", v, err)
		return ""
	}
	return string(data)
}

// RunEvent represents a single trackable event
type RunEvent struct {
	Type      string
	RunID     int64
	Step      uint64
	Data      string // JSON metadata (optional)
	Timestamp time.Time
}

// Analytics handles event tracking with batched background writes
type Analytics struct {
	db     *DB
	events chan RunEvent
	stop   chan struct{}
	wg     sync.WaitGroup

	mu      sync.Mutex
	dropped int
}

// NewAnalytics creates and starts the analytics background writer
func NewAnalytics(db *DB) *Analytics {
	a := &Analytics{
		db:     db,
		events: make(chan RunEvent, 4096),
		stop:   make(chan struct{}),
	}
	a.wg.Add(1)
	go a.writer()
	return a
}

// Track enqueues an event for async persistence (non-blocking)
func (a *Analytics) Track(evtType string, runID int64, step uint64, data string) {
	if a == nil {
		return
	}
	select {
	case a.events <- RunEvent{
		Type:      evtType,
		RunID:     runID,
		Step:      step,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}:
	default:
		// Channel full, drop event rather than blocking the step loop
		a.mu.Lock()
		a.dropped++
		a.mu.Unlock()
	}
}

// Dropped returns how many events were discarded because the queue was full
func (a *Analytics) Dropped() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dropped
}

// Stop gracefully shuts down the analytics writer
func (a *Analytics) Stop() {
	close(a.stop)
	a.wg.Wait()
}

// writer is the background goroutine that batches and writes events to DB
func (a *Analytics) writer() {
	defer a.wg.Done()

	batch := make([]RunEvent, 0, 256)
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case evt := <-a.events:
			batch = append(batch, evt)
			// Flush immediately if batch is large
			if len(batch) >= 200 {
				a.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				a.flush(batch)
				batch = batch[:0]
			}
		case <-a.stop:
			// Drain remaining events
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

// flush writes a batch of events to the database
func (a *Analytics) flush(events []RunEvent) {
	if a.db == nil || len(events) == 0 {
		return
	}
	tx, err := a.db.conn.Begin()
	if err != nil {
		log.Printf("analytics: begin tx error: %v", err)
		return
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO run_events (run_id, event_type, step, data, created_at) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		log.Printf("analytics: prepare error: %v", err)
		return
	}
	defer stmt.Close()

	for _, evt := range events {
		data := sql.NullString{String: evt.Data, Valid: evt.Data != ""}
		_, err := stmt.Exec(evt.RunID, evt.Type, int64(evt.Step), data, evt.Timestamp)
		if err != nil {
			log.Printf("analytics: insert error: %v", err)
		}
	}
	if err := tx.Commit(); err != nil {
		log.Printf("analytics: commit error: %v", err)
	}
}

// --- Query methods for the API ---

// EventCounts returns counts of each event type for a run
func (a *Analytics) EventCounts(runID int64) (map[string]int, error) {
	if a == nil || a.db == nil {
		return nil, nil
	}
	rows, err := a.db.conn.Query(`
		SELECT event_type, COUNT(*) FROM run_events
		WHERE run_id = ?
		GROUP BY event_type ORDER BY COUNT(*) DESC
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]int)
	for rows.Next() {
		var evtType string
		var count int
		if err := rows.Scan(&evtType, &count); err != nil {
			continue
		}
		result[evtType] = count
	}
	return result, rows.Err()
}

// Samples returns the periodic population samples of a run in step order
func (a *Analytics) Samples(runID int64, limit int) ([]Sample, error) {
	if a == nil || a.db == nil {
		return nil, nil
	}
	rows, err := a.db.conn.Query(`
		SELECT step,
			COALESCE(json_extract(data, '$.population'), 0),
			COALESCE(json_extract(data, '$.contaminated'), 0),
			COALESCE(json_extract(data, '$.nodes'), 0),
			COALESCE(json_extract(data, '$.depth'), 0)
		FROM run_events
		WHERE run_id = ? AND event_type = ? AND json_valid(data)
		ORDER BY step LIMIT ?
	`, runID, EvtSample, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Sample
	for rows.Next() {
		var s Sample
		var step int64
		if err := rows.Scan(&step, &s.Population, &s.Contaminated, &s.Nodes, &s.Depth); err != nil {
			continue
		}
		s.Step = uint64(step)
		result = append(result, s)
	}
	return result, rows.Err()
}

// Sample is one periodic snapshot of a run
type Sample struct {
	Step         uint64 `json:"step"`
	Population   int    `json:"population"`
	Contaminated int    `json:"contaminated"`
	Nodes        int    `json:"nodes"`
	Depth        int    `json:"depth"`
}
