package main

import (
	"net"
	"net/http"
	"testing"
	"time"
)

func TestShutdownClosesServerBeforeStorage(t *testing.T) {
	db := openTestDB(t)
	analytics := NewAnalytics(db)
	auth, err := NewAuth(db, OperatorConfig{})
	if err != nil {
		t.Fatalf("NewAuth: %v", err)
	}
	cfg := testSimConfig()
	cfg.Population = 3
	sim, err := NewSimulation(cfg, db, analytics)
	if err != nil {
		t.Fatalf("NewSimulation: %v", err)
	}
	hub := NewHub(sim, db, auth, analytics)
	go hub.Run()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	server := &http.Server{Handler: SetupRoutes(hub, "")}
	served := make(chan error, 1)
	go func() { served <- server.Serve(ln) }()

	base := "http://" + ln.Addr().String()
	resp, err := http.Get(base + "/api/runs")
	if err != nil {
		t.Fatalf("GET /api/runs before shutdown: %v", err)
	}
	resp.Body.Close()
	runID := sim.RunID()

	shutdown(server, sim, analytics, db)

	select {
	case err := <-served:
		if err != http.ErrServerClosed {
			t.Errorf("Serve returned %v, want ErrServerClosed", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server still serving after shutdown")
	}
	if _, err := http.Get(base + "/api/runs"); err == nil {
		t.Error("requests should be refused after shutdown")
	}
	if err := db.conn.Ping(); err == nil {
		t.Error("database should be closed after shutdown")
	}
	if runID == 0 {
		t.Fatal("expected a recorded run")
	}
	// Stopping again is harmless and Run no longer starts a loop
	sim.Stop()
	sim.Run()
}
