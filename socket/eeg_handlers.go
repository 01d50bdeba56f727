package socket

import (
	"pongo_server/models"
	"pongo_server/services"
)

// SignalHandler implements the /eeg producer/observer namespace.
type SignalHandler struct {
	hub *services.SignalHub
}

func NewSignalHandler(hub *services.SignalHub) *SignalHandler {
	return &SignalHandler{hub: hub}
}

func (h *SignalHandler) Hello(peer services.Peer, payload map[string]interface{}) models.HelloAck {
	return h.hub.Hello(peer, payload)
}

func (h *SignalHandler) Sample(peer services.Peer, payload map[string]interface{}) {
	h.hub.Sample(peer.ID(), payload)
}

func (h *SignalHandler) Chunk(peer services.Peer, data []byte) {
	h.hub.Chunk(peer.ID(), data)
}

func (h *SignalHandler) Observe(peer services.Peer, id string) models.ObserveAck {
	return h.hub.Observe(peer, id)
}

func (h *SignalHandler) Disconnect(peer services.Peer) {
	h.hub.Leave(peer.ID())
}
