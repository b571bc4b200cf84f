package main

import (
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("OpenDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSettings(t *testing.T) {
	db := openTestDB(t)
	if v := db.GetSetting("missing"); v != "" {
		t.Errorf("expected empty value, got %q", v)
	}
	if err := db.SetSetting("k", "one"); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}
	if err := db.SetSetting("k", "two"); err != nil {
		t.Fatalf("SetSetting overwrite: %v", err)
	}
	if v := db.GetSetting("k"); v != "two" {
		t.Errorf("expected two, got %q", v)
	}
}

func TestRunLifecycle(t *testing.T) {
	db := openTestDB(t)
	cfg := testSimConfig()

	id, err := db.StartRun(cfg, 42, 100)
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	run, err := db.GetRun(id)
	if err != nil || run == nil {
		t.Fatalf("GetRun: %v %v", run, err)
	}
	if run.Seed != 42 || run.Population != 100 || run.Width != cfg.Width || run.Capacity != cfg.Capacity {
		t.Errorf("unexpected run row %+v", run)
	}
	if run.EndedAt != nil {
		t.Error("open run should have no end time")
	}

	if err := db.FinishRun(id, 300, 101, 57); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}
	run, _ = db.GetRun(id)
	if run.Steps != 300 || run.Population != 101 || run.Contaminated != 57 {
		t.Errorf("final counters not stored: %+v", run)
	}
	if run.EndedAt == nil {
		t.Error("finished run should have an end time")
	}
}

func TestGetRunMissing(t *testing.T) {
	db := openTestDB(t)
	run, err := db.GetRun(12345)
	if err != nil || run != nil {
		t.Errorf("expected nil run and nil error, got %v %v", run, err)
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	db := openTestDB(t)
	cfg := testSimConfig()
	for seed := int64(1); seed <= 3; seed++ {
		if _, err := db.StartRun(cfg, seed, 10); err != nil {
			t.Fatalf("StartRun: %v", err)
		}
	}
	runs, err := db.ListRuns(2)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].Seed != 3 || runs[1].Seed != 2 {
		t.Errorf("expected seeds 3,2 got %d,%d", runs[0].Seed, runs[1].Seed)
	}
}

func TestSimulationRecordsRuns(t *testing.T) {
	db := openTestDB(t)
	cfg := testSimConfig()
	cfg.Population = 4
	s, err := NewSimulation(cfg, db, nil)
	if err != nil {
		t.Fatalf("NewSimulation: %v", err)
	}
	first := s.RunID()
	if first == 0 {
		t.Fatal("expected a run to be recorded")
	}
	s.Step()
	s.Step()
	second, _ := s.Reset(7)
	if second == first {
		t.Error("reset should start a new run")
	}

	run, _ := db.GetRun(first)
	if run == nil || run.EndedAt == nil || run.Steps != 2 {
		t.Errorf("first run should be closed after 2 steps, got %+v", run)
	}
	run, _ = db.GetRun(second)
	if run == nil || run.Seed != 7 || run.EndedAt != nil {
		t.Errorf("second run should be open with seed 7, got %+v", run)
	}
}
