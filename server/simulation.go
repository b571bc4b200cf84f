package main

import (
	"errors"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"contagion-sim/quadtree"
)

var (
	ErrOutsideWorld   = errors.New("position outside the world")
	ErrPopulationFull = errors.New("population limit reached")
)

// Broadcaster interface for sending messages to viewers
type Broadcaster interface {
	SendJSON(msg interface{})
	SendBinary(data []byte)
}

// Simulation owns the carriers and advances them one step per tick.
// Each step builds a quadtree over the current positions, uses it to find
// the carriers within reach of every spreading carrier, then releases it.
type Simulation struct {
	mu           sync.RWMutex
	cfg          SimConfig
	boundary     quadtree.Partition
	rng          *rand.Rand
	seed         int64
	carriers     []*Carrier
	clients      map[string]Broadcaster // client ID -> viewer
	tick         uint64
	running      bool
	stopped      bool
	stop         chan struct{}
	nextID       int
	contaminated int
	last         SimStats   // index figures of the latest step
	reach        []*Carrier // query buffer reused across steps

	db        *DB
	analytics *Analytics
	runID     int64
	finished  bool
}

// NewSimulation populates a world and records the run. db and analytics
// may be nil.
func NewSimulation(cfg SimConfig, db *DB, analytics *Analytics) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Simulation{
		cfg:       cfg,
		boundary:  WorldBoundary(cfg.Width, cfg.Height),
		clients:   make(map[string]Broadcaster),
		stop:      make(chan struct{}),
		db:        db,
		analytics: analytics,
	}
	s.populate(cfg.Seed)
	s.startRun()
	return s, nil
}

// populate replaces every carrier with a fresh random population
func (s *Simulation) populate(seed int64) {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	s.seed = seed
	s.rng = rand.New(rand.NewSource(seed))
	s.carriers = make([]*Carrier, 0, s.cfg.Population)
	s.nextID = 0
	s.tick = 0
	s.contaminated = 0
	s.last = SimStats{}
	for i := 0; i < s.cfg.Population; i++ {
		x := s.rng.Intn(s.cfg.Width)
		y := s.rng.Intn(s.cfg.Height)
		s.addCarrier(x, y, i < s.cfg.InitialContaminated)
	}
}

func (s *Simulation) addCarrier(x, y int, contaminated bool) *Carrier {
	c := NewCarrier(s.nextID, x, y, contaminated, s.cfg.Potency, s.rng)
	s.nextID++
	s.carriers = append(s.carriers, c)
	if contaminated {
		s.contaminated++
	}
	return c
}

func (s *Simulation) startRun() {
	s.runID = 0
	s.finished = false
	if s.db == nil {
		return
	}
	id, err := s.db.StartRun(s.cfg, s.seed, len(s.carriers))
	if err != nil {
		log.Printf("sim: start run: %v", err)
		return
	}
	s.runID = id
	log.Printf("sim: run %d started (seed %d, %d carriers)", id, s.seed, len(s.carriers))
}

func (s *Simulation) finishRun() {
	if s.finished {
		return
	}
	s.finished = true
	if s.db == nil || s.runID == 0 {
		return
	}
	if err := s.db.FinishRun(s.runID, s.tick, len(s.carriers), s.contaminated); err != nil {
		log.Printf("sim: finish run %d: %v", s.runID, err)
		return
	}
	log.Printf("sim: run %d finished after %d steps, %d/%d contaminated",
		s.runID, s.tick, s.contaminated, len(s.carriers))
}

// Run starts the step loop
func (s *Simulation) Run() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.running = true
	tickDuration := time.Second / time.Duration(s.cfg.TickRate)
	s.mu.Unlock()

	ticker := time.NewTicker(tickDuration)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.update()
		case <-s.stop:
			return
		}
	}
}

// Stop terminates the step loop and closes the current run. A Run started
// after Stop returns immediately.
func (s *Simulation) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.stopped {
		s.stopped = true
		s.running = false
		close(s.stop)
	}
	s.finishRun()
}

// AddClient attaches a viewer to the state broadcast
func (s *Simulation) AddClient(id string, b Broadcaster) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[id] = b
}

// RemoveClient detaches a viewer
func (s *Simulation) RemoveClient(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, id)
}

// ClientCount returns the number of attached viewers
func (s *Simulation) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Spawn adds a carrier at (x, y)
func (s *Simulation) Spawn(x, y int, contaminated bool) (*Carrier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if x < 0 || x >= s.cfg.Width || y < 0 || y >= s.cfg.Height {
		return nil, ErrOutsideWorld
	}
	if len(s.carriers) >= s.cfg.MaxPopulation {
		return nil, ErrPopulationFull
	}
	c := s.addCarrier(x, y, contaminated)
	s.analytics.Track(EvtSpawn, s.runID, s.tick,
		eventData(SpawnEvent{ID: c.ID, X: x, Y: y, Contaminated: contaminated}))
	return c, nil
}

// Reset closes the current run and starts a new one with a fresh
// population. A zero seed picks one from the clock.
func (s *Simulation) Reset(seed int64) (int64, int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.analytics.Track(EvtReset, s.runID, s.tick, "")
	s.finishRun()
	s.populate(seed)
	s.startRun()
	return s.runID, s.seed
}

// Step advances the simulation by one tick without broadcasting
func (s *Simulation) Step() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.advance()
}

// update runs one tick of the loop
func (s *Simulation) update() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}

	if err := s.advance(); err != nil {
		log.Printf("sim: step %d: %v", s.tick, err)
		return
	}
	broadcastEvery := max(1, s.cfg.TickRate/s.cfg.BroadcastRate)
	if s.tick%uint64(broadcastEvery) == 0 {
		s.broadcastState()
	}
}

func (s *Simulation) advance() error {
	s.tick++
	if err := s.step(); err != nil {
		return err
	}
	if s.tick%uint64(s.cfg.SampleEvery) == 0 {
		st := s.statsLocked()
		s.analytics.Track(EvtSample, s.runID, s.tick,
			eventData(SampleEvent{
				Population:   st.Population,
				Contaminated: st.Contaminated,
				Nodes:        st.Nodes,
				Depth:        st.Depth,
			}))
	}
	return nil
}

// step moves every carrier, indexes the new positions and spreads the
// contamination from carriers that are active this step
func (s *Simulation) step() error {
	for _, c := range s.carriers {
		c.Update(s.cfg.Width, s.cfg.Height, s.rng)
	}

	idx, indexed, err := BuildIndex(s.carriers, s.boundary, s.cfg.Capacity)
	if err != nil {
		return err
	}
	defer idx.Release()

	for _, c := range s.carriers {
		if !c.CanSpread(s.rng) {
			continue
		}
		s.reach = QueryBuf(idx, c, s.cfg.Radius, s.reach[:0])
		for _, other := range s.reach {
			if other == c || other.Contaminated {
				continue
			}
			other.Contaminated = true
			s.contaminated++
			s.analytics.Track(EvtContamination, s.runID, s.tick,
				eventData(ContaminationEvent{Src: c.ID, Dst: other.ID, X: other.Pos.X, Y: other.Pos.Y}))
		}
	}
	clear(s.reach)

	s.last = SimStats{
		Indexed: indexed,
		Nodes:   idx.NodeCount(),
		Depth:   idx.Depth(),
	}
	return nil
}

// Stats returns the counters of the latest step
func (s *Simulation) Stats() SimStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.statsLocked()
}

func (s *Simulation) statsLocked() SimStats {
	return SimStats{
		Tick:         s.tick,
		Run:          s.runID,
		Population:   len(s.carriers),
		Contaminated: s.contaminated,
		Indexed:      s.last.Indexed,
		Nodes:        s.last.Nodes,
		Depth:        s.last.Depth,
	}
}

// World returns the world size
func (s *Simulation) World() (int, int) {
	return s.cfg.Width, s.cfg.Height
}

// RunID returns the ID of the current run, 0 without a database
func (s *Simulation) RunID() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.runID
}

// Snapshot returns the full state
func (s *Simulation) Snapshot() SimState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Simulation) snapshotLocked() SimState {
	state := SimState{
		Stats:    s.statsLocked(),
		Carriers: make([]CarrierState, 0, len(s.carriers)),
	}
	for _, c := range s.carriers {
		state.Carriers = append(state.Carriers, c.ToState())
	}
	return state
}

// broadcastState sends the current state to all viewers as msgpack
func (s *Simulation) broadcastState() {
	if len(s.clients) == 0 {
		return
	}
	data, err := msgpack.Marshal(s.snapshotLocked())
	if err != nil {
		log.Printf("sim: marshal state: %v", err)
		return
	}
	for _, client := range s.clients {
		client.SendBinary(data)
	}
}
