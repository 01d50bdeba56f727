package services

import (
	"math/rand"
	"sort"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"pongo_server/models"
)

// RoomRegistry maps room ids to rooms. A room is created on first join,
// ticks while it has occupants and is stopped and forgotten when the last
// one leaves. Lock order is registry then room.
type RoomRegistry struct {
	mu      sync.Mutex
	rooms   map[string]*Room
	opts    RoomOptions
	seeds   *rand.Rand
	metrics *Metrics
	closed  bool
}

// NewRoomRegistry builds an empty registry. opts is the template for every
// room it creates; MaxPlayers is overridden per room by its creator. opts.Rand
// only seeds the rooms: each room gets a generator of its own since rooms tick
// on separate goroutines.
func NewRoomRegistry(opts RoomOptions) *RoomRegistry {
	seeds := opts.Rand
	if seeds == nil {
		seeds = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	opts.Rand = nil
	return &RoomRegistry{
		rooms:   make(map[string]*Room),
		opts:    opts,
		seeds:   seeds,
		metrics: opts.Metrics,
	}
}

// GetOrCreate returns the room for id, creating it if needed. maxPlayers is
// only honoured on creation.
func (g *RoomRegistry) GetOrCreate(id string, maxPlayers int) *Room {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.getOrCreateLocked(id, maxPlayers)
}

func (g *RoomRegistry) getOrCreateLocked(id string, maxPlayers int) *Room {
	if r, ok := g.rooms[id]; ok {
		return r
	}
	opts := g.opts
	opts.MaxPlayers = maxPlayers
	opts.Rand = rand.New(rand.NewSource(g.seeds.Int63()))
	r := NewRoom(id, opts)
	g.rooms[id] = r
	g.metrics.SetActiveRooms(len(g.rooms))
	log.WithFields(log.Fields{"room": id, "maxPlayers": r.MaxPlayers()}).Info("🆕 Room created")
	return r
}

func (g *RoomRegistry) Get(id string) (*Room, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	r, ok := g.rooms[id]
	return r, ok
}

// Join seats or adds peer to room id and starts its ticker. The lookup and
// join happen under the registry lock so a concurrent leave cannot destroy
// the room in between. Announcements go out after the lock is released.
func (g *RoomRegistry) Join(id string, maxPlayers int, peer Peer, name string) (*Room, models.JoinAck) {
	r, ack, out := g.join(id, maxPlayers, peer, name)
	out.flush()
	return r, ack
}

func (g *RoomRegistry) join(id string, maxPlayers int, peer Peer, name string) (*Room, models.JoinAck, outbox) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return nil, models.JoinAck{OK: false, Error: "server shutting down"}, nil
	}
	r := g.getOrCreateLocked(id, maxPlayers)
	ack, out := r.join(peer, name)
	r.Start()
	return r, ack, out
}

// Watch adds a read-only spectator to an existing room.
func (g *RoomRegistry) Watch(id string, peer Peer) (*Room, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	r, ok := g.rooms[id]
	if !ok || g.closed {
		return nil, false
	}
	r.Watch(peer)
	return r, true
}

// Leave removes peer from r and destroys r if that emptied it. The
// player:leave notice is sent once the registry lock is released.
func (g *RoomRegistry) Leave(r *Room, peerID string) {
	if r == nil {
		return
	}
	g.mu.Lock()
	_, out := r.leave(peerID)
	g.removeIfEmptyLocked(r)
	g.mu.Unlock()
	out.flush()
}

// RemoveIfEmpty stops and forgets r when it has no occupants.
func (g *RoomRegistry) RemoveIfEmpty(r *Room) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.removeIfEmptyLocked(r)
}

func (g *RoomRegistry) removeIfEmptyLocked(r *Room) bool {
	if r.Occupants() > 0 {
		return false
	}
	if cur, ok := g.rooms[r.ID]; ok && cur == r {
		delete(g.rooms, r.ID)
	}
	r.Stop()
	g.metrics.SetActiveRooms(len(g.rooms))
	log.WithField("room", r.ID).Info("🧹 Room destroyed")
	return true
}

// List returns room summaries sorted by id.
func (g *RoomRegistry) List() []models.RoomInfo {
	g.mu.Lock()
	rooms := make([]*Room, 0, len(g.rooms))
	for _, r := range g.rooms {
		rooms = append(rooms, r)
	}
	g.mu.Unlock()

	out := make([]models.RoomInfo, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, r.Info())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RoomID < out[j].RoomID })
	return out
}

func (g *RoomRegistry) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.rooms)
}

// Close stops every room and refuses further joins.
func (g *RoomRegistry) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
	for id, r := range g.rooms {
		r.Stop()
		delete(g.rooms, id)
	}
	g.metrics.SetActiveRooms(0)
}
