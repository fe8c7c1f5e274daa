package server

import (
	"sync"
)

// All server kinds share one numeric id space. Game shards use small
// integers; connect and chat server ids live in disjoint ranges above
// these offsets.
const (
	// ConnectIDOffset first connect-server id
	ConnectIDOffset = uint32(10000)
	// ChatIDOffset first chat-server id
	ChatIDOffset = uint32(20000)
)

// Presence sentinels. Neither identifies a real shard.
const (
	// IDOffline the character/account is not in game
	IDOffline = uint32(0)
	// IDInvisible logged in but hidden from friends
	IDInvisible = ^uint32(0)
)

// Type server type
type Type uint8

// server types
const (
	TypeGame Type = iota + 1
	TypeConnect
	TypeChat
)

func (t Type) String() string {
	switch t {
	case TypeGame:
		return "Game"
	case TypeConnect:
		return "Connect"
	case TypeChat:
		return "Chat"
	}
	return "Unknown"
}

// State lifecycle state
type State uint8

// lifecycle states
const (
	StateStopped State = iota
	StateStarting
	StateStarted
	StateStopping
	StateTimeout
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "Stopped"
	case StateStarting:
		return "Starting"
	case StateStarted:
		return "Started"
	case StateStopping:
		return "Stopping"
	case StateTimeout:
		return "Timeout"
	}
	return "Unknown"
}

// Descriptor is the manageable identity every server exposes for
// health reporting and dashboards. Connection counters are mutated by
// accept loops while management tooling reads snapshots.
type Descriptor struct {
	mu sync.Mutex

	ID          uint32
	ConfigName  string
	Description string
	Type        Type

	state    State
	curConns int
	maxConns int
}

// NewDescriptor NewDescriptor
func NewDescriptor(id uint32, typ Type, configName, description string, maxConns int) *Descriptor {
	return &Descriptor{
		ID:          id,
		ConfigName:  configName,
		Description: description,
		Type:        typ,
		maxConns:    maxConns,
	}
}

// Info is a point-in-time copy of the mutable descriptor fields.
type Info struct {
	ID          uint32
	ConfigName  string
	Description string
	Type        Type
	State       State
	CurConns    int
	MaxConns    int
}

// Snapshot copy the descriptor for the admin surface
func (d *Descriptor) Snapshot() Info {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Info{
		ID:          d.ID,
		ConfigName:  d.ConfigName,
		Description: d.Description,
		Type:        d.Type,
		State:       d.state,
		CurConns:    d.curConns,
		MaxConns:    d.maxConns,
	}
}

// SetState SetState
func (d *Descriptor) SetState(s State) {
	d.mu.Lock()
	d.state = s
	d.mu.Unlock()
}

// State current lifecycle state
func (d *Descriptor) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// AddConn count one accepted connection. Returns false when the server
// is full; the caller must drop the connection.
func (d *Descriptor) AddConn() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.maxConns > 0 && d.curConns >= d.maxConns {
		return false
	}
	d.curConns++
	return true
}

// RemoveConn count one closed connection
func (d *Descriptor) RemoveConn() {
	d.mu.Lock()
	if d.curConns > 0 {
		d.curConns--
	}
	d.mu.Unlock()
}

// CurConns current connection count
func (d *Descriptor) CurConns() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.curConns
}

// MaxConns connection ceiling, zero means unlimited
func (d *Descriptor) MaxConns() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.maxConns
}
