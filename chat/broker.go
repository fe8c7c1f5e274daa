// Package chat brokers short-lived chat rooms: a shard asks for a
// room, both participants get single-use tokens, and the room is torn
// down unless two of them authenticate before the deadline.
package chat

import (
	"crypto/rand"
	"encoding/binary"
	"log"
	"sync"
	"time"
)

const (
	// defaultSlotCount auth slots per room: two participants plus one
	// invited friend
	defaultSlotCount = 3
	// defaultDeadline window for two clients to authenticate
	defaultDeadline = 30 * time.Second
	// defaultTokenTTL how long one issued token stays valid
	defaultTokenTTL = 20 * time.Second
	// defaultMaxRoomAge idle ceiling for rooms that went Active
	defaultMaxRoomAge = time.Hour

	sweepInterval = 5 * time.Second
)

// RoomState room lifecycle
type RoomState uint8

// room states
const (
	// RoomCreated no client authenticated yet
	RoomCreated RoomState = iota
	// RoomPartiallyAuthenticated one client authenticated
	RoomPartiallyAuthenticated
	// RoomActive two or more clients authenticated
	RoomActive
)

// AuthInfo is issued to exactly one client per registration. The token
// is single-use and refused after ExpireAt.
type AuthInfo struct {
	Index      uint8
	RoomID     uint16
	ClientName string
	Token      uint32
	Host       string
	ExpireAt   time.Time
}

type slot struct {
	name     string
	token    uint32
	expireAt time.Time
}

type room struct {
	id       uint16
	slots    []slot
	createAt time.Time
	deadline time.Time
}

func (r *room) state() RoomState {
	switch {
	case len(r.slots) == 0:
		return RoomCreated
	case len(r.slots) == 1:
		return RoomPartiallyAuthenticated
	}
	return RoomActive
}

// Config broker tunables, zero values take defaults
type Config struct {
	Host       string
	SlotCount  int
	Deadline   time.Duration
	TokenTTL   time.Duration
	MaxRoomAge time.Duration
}

// Broker owns the room table. One periodic sweep closes rooms whose
// deadline passed without two authentications, rather than one timer
// per room.
type Broker struct {
	config Config

	mu     sync.Mutex
	rooms  map[uint16]*room
	nextID uint16

	quit chan struct{}
	once sync.Once
}

// NewBroker create a broker and start its sweep loop
func NewBroker(config Config) *Broker {
	if config.SlotCount == 0 {
		config.SlotCount = defaultSlotCount
	}
	if config.Deadline == 0 {
		config.Deadline = defaultDeadline
	}
	if config.TokenTTL == 0 {
		config.TokenTTL = defaultTokenTTL
	}
	if config.MaxRoomAge == 0 {
		config.MaxRoomAge = defaultMaxRoomAge
	}
	b := &Broker{
		config: config,
		rooms:  make(map[uint16]*room),
		quit:   make(chan struct{}),
	}
	go b.sweeper()
	return b
}

// CreateRoom allocate a fresh room id. Returns false only when every
// id is taken by a still-open room.
func (b *Broker) CreateRoom() (uint16, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	for i := 0; i < 1<<16; i++ {
		b.nextID++
		if b.nextID == 0 {
			b.nextID = 1
		}
		if _, open := b.rooms[b.nextID]; open {
			continue
		}
		b.rooms[b.nextID] = &room{
			id:       b.nextID,
			slots:    make([]slot, 0, b.config.SlotCount),
			createAt: now,
			deadline: now.Add(b.config.Deadline),
		}
		return b.nextID, true
	}
	return 0, false
}

// RegisterClient issue an auth slot for a client. Nil when the room is
// unknown, closed, or full.
func (b *Broker) RegisterClient(roomID uint16, clientName string) *AuthInfo {
	b.mu.Lock()
	defer b.mu.Unlock()

	r, ok := b.rooms[roomID]
	if !ok {
		return nil
	}
	now := time.Now()
	// the deadline is enforced here; the sweep only reclaims. An
	// expired room is indistinguishable from an unknown one.
	if r.state() != RoomActive && now.After(r.deadline) {
		delete(b.rooms, roomID)
		return nil
	}
	if len(r.slots) >= b.config.SlotCount {
		return nil
	}

	expire := now.Add(b.config.TokenTTL)
	token := randToken()
	r.slots = append(r.slots, slot{name: clientName, token: token, expireAt: expire})

	return &AuthInfo{
		Index:      uint8(len(r.slots) - 1),
		RoomID:     roomID,
		ClientName: clientName,
		Token:      token,
		Host:       b.config.Host,
		ExpireAt:   expire,
	}
}

// State room state, false when the room does not exist
func (b *Broker) State(roomID uint16) (RoomState, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.rooms[roomID]
	if !ok {
		return 0, false
	}
	return r.state(), true
}

// CloseRoom explicit teardown, freeing the id for reuse
func (b *Broker) CloseRoom(roomID uint16) {
	b.mu.Lock()
	delete(b.rooms, roomID)
	b.mu.Unlock()
}

// Close stop the sweep loop
func (b *Broker) Close() {
	b.once.Do(func() { close(b.quit) })
}

func (b *Broker) sweeper() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			b.sweep(time.Now())
		case <-b.quit:
			return
		}
	}
}

func (b *Broker) sweep(now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, r := range b.rooms {
		if r.state() != RoomActive && now.After(r.deadline) {
			delete(b.rooms, id)
			log.Printf("chat room %v expired with %v authenticated", id, len(r.slots))
			continue
		}
		if now.Sub(r.createAt) > b.config.MaxRoomAge {
			delete(b.rooms, id)
		}
	}
}

func randToken() uint32 {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand failing is a process-level fault; fall back to
		// the clock rather than handing out a zero token
		return uint32(time.Now().UnixNano())
	}
	return binary.LittleEndian.Uint32(buf[:])
}
