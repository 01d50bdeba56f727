package socket

import (
	"sync"

	log "github.com/sirupsen/logrus"

	"pongo_server/models"
	"pongo_server/services"
)

// Session is the per-connection state of a /game socket. It replaces
// closure-captured locals so handlers can be driven without a transport.
type Session struct {
	Peer services.Peer

	mu     sync.Mutex
	name   string
	roomID string
	room   *services.Room
	slot   models.Slot
	role   string
}

func NewSession(peer services.Peer) *Session {
	return &Session{Peer: peer}
}

func (s *Session) ID() string {
	return s.Peer.ID()
}

// Room returns the room this connection is in, if any.
func (s *Session) Room() *services.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room
}

func (s *Session) Seat() (models.Slot, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slot, s.role
}

// Fields describes the session for log entries.
func (s *Session) Fields() log.Fields {
	s.mu.Lock()
	defer s.mu.Unlock()
	return log.Fields{
		"peer": s.Peer.ID(),
		"room": s.roomID,
		"name": s.name,
		"side": s.slot,
		"role": s.role,
	}
}

func (s *Session) assign(room *services.Room, name string, ack models.JoinAck) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.room = room
	s.roomID = room.ID
	s.name = name
	s.slot = ack.Side
	s.role = ack.Role
}

// detach clears the membership and returns the room that was left.
func (s *Session) detach() *services.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	room := s.room
	s.room, s.roomID, s.slot, s.role = nil, "", models.SlotNone, ""
	return room
}
