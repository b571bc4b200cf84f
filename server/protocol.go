package main

import "encoding/json"

// Client -> Server message types
const (
	MsgSpawn = "spawn" // add a carrier at a pointer position
	MsgAuth  = "auth"  // present an operator token
	MsgReset = "reset" // repopulate the world
	MsgStats = "stats" // request current stats
)

// Server -> Client message types
const (
	MsgWelcome   = "welcome"
	MsgState     = "state" // sent as binary msgpack, never as JSON
	MsgSpawned   = "spawned"
	MsgAuthOK    = "auth_ok"
	MsgResetOK   = "reset_ok"
	MsgStatsData = "stats_data"
	MsgError     = "error"
)

// Envelope wraps all outgoing JSON messages with a type field
type Envelope struct {
	T    string      `json:"t"`
	Data interface{} `json:"d,omitempty"`
}

// InEnvelope is used for incoming messages; json.RawMessage avoids a double unmarshal
type InEnvelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d,omitempty"`
}

// SpawnMsg mirrors a pointer click: left spawns a healthy carrier, right a
// contaminated one
type SpawnMsg struct {
	X            int  `json:"x"`
	Y            int  `json:"y"`
	Contaminated bool `json:"c"`
}

// AuthMsg carries a token obtained from /api/login
type AuthMsg struct {
	Token string `json:"token"`
}

// ResetMsg restarts the simulation; a zero seed picks one
type ResetMsg struct {
	Seed int64 `json:"seed"`
}

// WelcomeMsg is sent to a viewer when it connects
type WelcomeMsg struct {
	ID           string `json:"id"`
	Width        int    `json:"w"`
	Height       int    `json:"h"`
	Run          int64  `json:"run"`
	AuthRequired bool   `json:"auth"`
}

// SpawnedMsg confirms a spawn
type SpawnedMsg struct {
	ID int `json:"id"`
	X  int `json:"x"`
	Y  int `json:"y"`
}

// AuthOKMsg confirms operator access
type AuthOKMsg struct {
	Operator bool `json:"op"`
}

// ResetOKMsg confirms a reset and names the new run
type ResetOKMsg struct {
	Run  int64 `json:"run"`
	Seed int64 `json:"seed"`
}

// ErrorMsg sends error to client
type ErrorMsg struct {
	Msg string `json:"msg"`
}

// CarrierState is broadcast per carrier
type CarrierState struct {
	ID int  `json:"id" msgpack:"id"`
	X  int  `json:"x" msgpack:"x"`
	Y  int  `json:"y" msgpack:"y"`
	C  bool `json:"c" msgpack:"c"`
}

// SimStats summarises one step
type SimStats struct {
	Tick         uint64 `json:"tick" msgpack:"tick"`
	Run          int64  `json:"run" msgpack:"run"`
	Population   int    `json:"population" msgpack:"pop"`
	Contaminated int    `json:"contaminated" msgpack:"cont"`
	Indexed      int    `json:"indexed" msgpack:"idx"`
	Nodes        int    `json:"nodes" msgpack:"nodes"`
	Depth        int    `json:"depth" msgpack:"depth"`
}

// SimState is the full state broadcast
type SimState struct {
	Stats    SimStats       `json:"s" msgpack:"s"`
	Carriers []CarrierState `json:"cs" msgpack:"cs"`
}
