package main

import (
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/handlers"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file")
	addr := flag.String("addr", ":8080", "HTTP listen address")
	dbPath := flag.String("db", "contagion.db", "SQLite database path (empty disables persistence)")
	clientDir := flag.String("client", "", "Path to a static viewer directory")
	flag.Parse()

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	// Flags given explicitly win over file and environment
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.Addr = *addr
		case "db":
			cfg.DBPath = *dbPath
		case "client":
			cfg.ClientDir = *clientDir
		}
	})

	var db *DB
	if cfg.DBPath != "" {
		db, err = OpenDB(cfg.DBPath)
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		log.Printf("Database opened at %s", cfg.DBPath)
	}

	var analytics *Analytics
	if db != nil {
		analytics = NewAnalytics(db)
	}

	auth, err := NewAuth(db, cfg.Operator)
	if err != nil {
		log.Fatalf("auth: %v", err)
	}
	if auth.Enabled() {
		log.Printf("Operator login enabled")
	}

	sim, err := NewSimulation(cfg.Sim, db, analytics)
	if err != nil {
		log.Fatalf("simulation: %v", err)
	}

	hub := NewHub(sim, db, auth, analytics)
	go hub.Run()
	go sim.Run()

	router := SetupRoutes(hub, cfg.ClientDir)

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	server := &http.Server{Addr: cfg.Addr, Handler: handlers.LoggingHandler(os.Stdout, router)}

	go func() {
		log.Printf("Server starting on %s (%dx%d world, %d carriers)",
			cfg.Addr, cfg.Sim.Width, cfg.Sim.Height, cfg.Sim.Population)
		if cfg.ClientDir != "" {
			log.Printf("Serving viewer files from %s", cfg.ClientDir)
		}
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down...")
	shutdown(server, sim, analytics, db)
}

// shutdown stops accepting requests before tearing down what handlers use
func shutdown(server *http.Server, sim *Simulation, analytics *Analytics, db *DB) {
	if err := server.Close(); err != nil {
		log.Printf("server close: %v", err)
	}
	sim.Stop()
	if analytics != nil {
		analytics.Stop()
	}
	if db != nil {
		db.Close()
	}
}
