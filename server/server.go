package main

import (
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/handlers"
	"github.com/gorilla/websocket"
	"github.com/skip2/go-qrcode"
)

const (
	qrSize        = 256
	runListLimit  = 50
	sampleLimit   = 1000
	maxLoginBytes = 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true // Non-browser clients don't send Origin
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return u.Host == r.Host
	},
}

func extractIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// SetupRoutes configures HTTP routes
func SetupRoutes(hub *Hub, clientDir string) http.Handler {
	mux := http.NewServeMux()

	if clientDir != "" {
		fs := http.FileServer(http.Dir(clientDir))
		mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "no-cache")
			fs.ServeHTTP(w, r)
		}))
	}

	// WebSocket endpoint
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ip := extractIP(r)
		if !hub.CanAccept(ip) {
			http.Error(w, "too many connections", http.StatusServiceUnavailable)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("upgrade error: %v", err)
			return
		}

		hub.TrackConnect(ip)

		client := NewClient(hub, conn, ip)
		hub.register <- client

		go client.WritePump()
		go client.ReadPump()
	})

	// QR code pointing phones at the viewer page
	mux.HandleFunc("GET /qr", func(w http.ResponseWriter, r *http.Request) {
		target := r.URL.Query().Get("url")
		if target == "" {
			scheme := "http"
			if r.TLS != nil {
				scheme = "https"
			}
			target = scheme + "://" + r.Host + "/"
		}
		png, err := qrcode.Encode(target, qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr encode failed", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-cache")
		w.Write(png)
	})

	mux.HandleFunc("POST /api/login", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Password string `json:"password"`
		}
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxLoginBytes)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		token, err := hub.auth.Login(req.Password, extractIP(r))
		switch {
		case errors.Is(err, ErrAuthDisabled):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, ErrRateLimited):
			writeError(w, http.StatusTooManyRequests, err.Error())
		case errors.Is(err, ErrBadCredentials):
			writeError(w, http.StatusUnauthorized, err.Error())
		case err != nil:
			log.Printf("login: %v", err)
			writeError(w, http.StatusInternalServerError, "login failed")
		default:
			writeJSON(w, http.StatusOK, map[string]string{"token": token})
		}
	})

	mux.HandleFunc("GET /api/stats", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, struct {
			SimStats
			Viewers int `json:"viewers"`
			Dropped int `json:"dropped"`
		}{hub.sim.Stats(), hub.ClientCount(), analyticsDropped(hub.analytics)})
	})

	mux.HandleFunc("GET /api/runs", func(w http.ResponseWriter, r *http.Request) {
		if hub.db == nil {
			writeJSON(w, http.StatusOK, []RunRow{})
			return
		}
		runs, err := hub.db.ListRuns(runListLimit)
		if err != nil {
			log.Printf("list runs: %v", err)
			writeError(w, http.StatusInternalServerError, "could not list runs")
			return
		}
		if runs == nil {
			runs = []RunRow{}
		}
		writeJSON(w, http.StatusOK, runs)
	})

	mux.HandleFunc("GET /api/runs/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil || id < 1 {
			writeError(w, http.StatusBadRequest, "invalid run id")
			return
		}
		if hub.db == nil {
			writeError(w, http.StatusNotFound, "run not found")
			return
		}
		run, err := hub.db.GetRun(id)
		if err != nil {
			log.Printf("get run %d: %v", id, err)
			writeError(w, http.StatusInternalServerError, "could not load run")
			return
		}
		if run == nil {
			writeError(w, http.StatusNotFound, "run not found")
			return
		}
		counts, err := hub.analytics.EventCounts(id)
		if err != nil {
			log.Printf("event counts %d: %v", id, err)
		}
		samples, err := hub.analytics.Samples(id, sampleLimit)
		if err != nil {
			log.Printf("samples %d: %v", id, err)
		}
		writeJSON(w, http.StatusOK, struct {
			*RunRow
			Events  map[string]int `json:"events"`
			Samples []Sample       `json:"samples"`
		}{run, counts, samples})
	})

	return handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)(mux)
}

func analyticsDropped(a *Analytics) int {
	if a == nil {
		return 0
	}
	return a.Dropped()
}
