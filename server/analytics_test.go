package main

import (
	"encoding/json"
	"testing"
)

func TestAnalyticsFlushOnStop(t *testing.T) {
	db := openTestDB(t)
	runID, err := db.StartRun(testSimConfig(), 1, 0)
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}

	a := NewAnalytics(db)
	a.Track(EvtSpawn, runID, 1, `{"id":0,"x":1,"y":1,"c":false}`)
	a.Track(EvtContamination, runID, 2, `{"src":0,"dst":1,"x":2,"y":2}`)
	a.Track(EvtContamination, runID, 3, `{"src":0,"dst":2,"x":3,"y":3}`)
	a.Track(EvtSample, runID, 150, `{"population":3,"contaminated":3,"nodes":1,"depth":0}`)
	a.Track(EvtSample, runID, 300, `{"population":4,"contaminated":3,"nodes":5,"depth":1}`)
	a.Stop()

	counts, err := a.EventCounts(runID)
	if err != nil {
		t.Fatalf("EventCounts: %v", err)
	}
	if counts[EvtContamination] != 2 || counts[EvtSpawn] != 1 || counts[EvtSample] != 2 {
		t.Errorf("unexpected counts %v", counts)
	}

	samples, err := a.Samples(runID, 10)
	if err != nil {
		t.Fatalf("Samples: %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(samples))
	}
	if samples[0].Step != 150 || samples[1].Step != 300 {
		t.Errorf("samples out of order: %+v", samples)
	}
	if samples[1].Population != 4 || samples[1].Nodes != 5 || samples[1].Depth != 1 {
		t.Errorf("unexpected sample %+v", samples[1])
	}
	if a.Dropped() != 0 {
		t.Errorf("expected no dropped events, got %d", a.Dropped())
	}
}

func TestAnalyticsNilIsNoop(t *testing.T) {
	var a *Analytics
	a.Track(EvtReset, 1, 0, "")
	counts, err := a.EventCounts(1)
	if err != nil || counts != nil {
		t.Errorf("nil analytics should return nothing, got %v %v", counts, err)
	}
}

func TestSimulationTracksContamination(t *testing.T) {
	db := openTestDB(t)
	a := NewAnalytics(db)
	s, err := NewSimulation(testSimConfig(), db, a)
	if err != nil {
		t.Fatalf("NewSimulation: %v", err)
	}
	s.rng = zeroRand()
	s.Spawn(50, 50, true)
	s.Spawn(51, 51, false)
	s.Step()
	a.Stop()

	counts, err := a.EventCounts(s.RunID())
	if err != nil {
		t.Fatalf("EventCounts: %v", err)
	}
	if counts[EvtSpawn] != 2 || counts[EvtContamination] != 1 {
		t.Errorf("unexpected counts %v", counts)
	}
}

func TestSimulationEventPayloads(t *testing.T) {
	db := openTestDB(t)
	a := NewAnalytics(db)
	cfg := testSimConfig()
	cfg.SampleEvery = 1
	s, err := NewSimulation(cfg, db, a)
	if err != nil {
		t.Fatalf("NewSimulation: %v", err)
	}
	s.rng = zeroRand()
	s.Spawn(50, 50, true)
	s.Spawn(51, 51, false)
	s.Step()
	a.Stop()

	var spawn SpawnEvent
	row := db.conn.QueryRow(`SELECT data FROM run_events WHERE run_id = ? AND event_type = ? ORDER BY id LIMIT 1`,
		s.RunID(), EvtSpawn)
	var raw string
	if err := row.Scan(&raw); err != nil {
		t.Fatalf("scan spawn event: %v", err)
	}
	if err := json.Unmarshal([]byte(raw), &spawn); err != nil {
		t.Fatalf("spawn payload is not JSON: %v", err)
	}
	if spawn != (SpawnEvent{ID: 0, X: 50, Y: 50, Contaminated: true}) {
		t.Errorf("unexpected spawn payload %+v", spawn)
	}

	var hit ContaminationEvent
	row = db.conn.QueryRow(`SELECT data FROM run_events WHERE run_id = ? AND event_type = ?`,
		s.RunID(), EvtContamination)
	if err := row.Scan(&raw); err != nil {
		t.Fatalf("scan contamination event: %v", err)
	}
	if err := json.Unmarshal([]byte(raw), &hit); err != nil {
		t.Fatalf("contamination payload is not JSON: %v", err)
	}
	if hit != (ContaminationEvent{Src: 0, Dst: 1, X: 50, Y: 50}) {
		t.Errorf("unexpected contamination payload %+v", hit)
	}

	samples, err := a.Samples(s.RunID(), 10)
	if err != nil {
		t.Fatalf("Samples: %v", err)
	}
	if len(samples) != 1 || samples[0].Population != 2 || samples[0].Contaminated != 2 {
		t.Errorf("unexpected samples %+v", samples)
	}
}
