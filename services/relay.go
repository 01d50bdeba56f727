package services

import (
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"pongo_server/models"
)

// RelayHub forwards opaque input and state payloads between peers sharing a
// room id. It keeps no game state.
type RelayHub struct {
	groups *PeerGroups

	mu      sync.Mutex
	members map[string]string // peer id -> room id
}

func NewRelayHub() *RelayHub {
	return &RelayHub{groups: NewPeerGroups(), members: make(map[string]string)}
}

// Join puts peer in roomID, leaving any room it was in before.
func (h *RelayHub) Join(peer Peer, payload map[string]interface{}) models.RelayJoinAck {
	req, err := models.ParseJoin(payload)
	if err != nil {
		return models.RelayJoinAck{OK: false, Error: err.Error()}
	}
	h.Leave(peer.ID())

	h.mu.Lock()
	h.members[peer.ID()] = req.RoomID
	h.mu.Unlock()
	h.groups.Add(req.RoomID, peer)

	log.WithFields(log.Fields{"room": req.RoomID, "peer": peer.ID(), "name": req.Name}).Info("🔗 Relay peer joined")
	return models.RelayJoinAck{OK: true, RoomID: req.RoomID, UserID: peer.ID()}
}

// Forward sends payload to the other members of peer's room with a "from"
// field naming the sender.
func (h *RelayHub) Forward(peerID string, payload map[string]interface{}) error {
	room, ok := h.roomOf(peerID)
	if !ok {
		return fmt.Errorf("relay peer %s has not joined a room", peerID)
	}
	msg := make(map[string]interface{}, len(payload)+1)
	for k, v := range payload {
		msg[k] = v
	}
	msg["from"] = peerID
	h.groups.Emit(room, peerID, models.EventInput, msg)
	return nil
}

// Broadcast re-emits a state payload unchanged to the rest of the room.
func (h *RelayHub) Broadcast(peerID string, payload interface{}) error {
	room, ok := h.roomOf(peerID)
	if !ok {
		return fmt.Errorf("relay peer %s has not joined a room", peerID)
	}
	h.groups.Emit(room, peerID, models.EventState, payload)
	return nil
}

// Leave removes peerID and tells the rest of its room.
func (h *RelayHub) Leave(peerID string) {
	h.mu.Lock()
	room, ok := h.members[peerID]
	delete(h.members, peerID)
	h.mu.Unlock()
	if !ok {
		return
	}
	h.groups.Remove(room, peerID)
	h.groups.Emit(room, peerID, models.EventUserLeave, models.UserLeft{UserID: peerID})
	log.WithFields(log.Fields{"room": room, "peer": peerID}).Info("👋 Relay peer left")
}

func (h *RelayHub) roomOf(peerID string) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.members[peerID]
	return room, ok
}
