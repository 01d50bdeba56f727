package socket

import (
	log "github.com/sirupsen/logrus"

	"pongo_server/models"
	"pongo_server/services"
)

// RelayHandler implements the /relay pass-through namespace.
type RelayHandler struct {
	hub *services.RelayHub
}

func NewRelayHandler(hub *services.RelayHub) *RelayHandler {
	return &RelayHandler{hub: hub}
}

func (h *RelayHandler) Join(peer services.Peer, payload map[string]interface{}) models.RelayJoinAck {
	return h.hub.Join(peer, payload)
}

func (h *RelayHandler) Input(peer services.Peer, payload map[string]interface{}) {
	if err := h.hub.Forward(peer.ID(), payload); err != nil {
		log.Debugf("🗑️ Relay input dropped: %v", err)
	}
}

func (h *RelayHandler) State(peer services.Peer, payload interface{}) {
	if err := h.hub.Broadcast(peer.ID(), payload); err != nil {
		log.Debugf("🗑️ Relay state dropped: %v", err)
	}
}

func (h *RelayHandler) Disconnect(peer services.Peer) {
	h.hub.Leave(peer.ID())
}
