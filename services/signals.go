package services

import (
	"fmt"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"pongo_server/models"
	"pongo_server/utils"
)

// SignalHub groups an EEG producer with its observers under a session id and
// fans sample packets out to them.
type SignalHub struct {
	groups *PeerGroups
	now    func() time.Time

	mu       sync.Mutex
	meta     map[string]models.SignalMeta // session id -> producer meta
	producer map[string]string            // peer id -> session id it produces
	watching map[string][]string          // peer id -> sessions it is in
}

func NewSignalHub(now func() time.Time) *SignalHub {
	if now == nil {
		now = time.Now
	}
	return &SignalHub{
		groups:   NewPeerGroups(),
		now:      now,
		meta:     make(map[string]models.SignalMeta),
		producer: make(map[string]string),
		watching: make(map[string][]string),
	}
}

// Hello registers peer as the producer of a session and announces the
// metadata to observers already waiting on it.
func (h *SignalHub) Hello(peer Peer, payload map[string]interface{}) models.HelloAck {
	meta, err := models.ParseHello(payload, peer.ID())
	if err != nil {
		return models.HelloAck{OK: false, Error: err.Error()}
	}
	meta.T0 = h.now().UnixMilli()

	h.mu.Lock()
	h.meta[meta.SessionID] = meta
	h.producer[peer.ID()] = meta.SessionID
	h.trackLocked(peer.ID(), meta.SessionID)
	h.mu.Unlock()

	h.groups.Add(meta.SessionID, peer)
	h.groups.Emit(meta.SessionID, peer.ID(), models.EventMeta, meta)
	log.WithFields(log.Fields{
		"session":  meta.SessionID,
		"channels": len(meta.Channels),
		"srate":    meta.Srate,
		"device":   meta.DeviceID,
	}).Info("🧠 EEG producer hello")
	return models.HelloAck{OK: true, SessionID: meta.SessionID, Meta: &meta}
}

// Sample fans a sample packet out to the producer's session. Packets before
// hello, or with no samples, are ignored.
func (h *SignalHub) Sample(peerID string, payload map[string]interface{}) bool {
	h.mu.Lock()
	session, ok := h.producer[peerID]
	h.mu.Unlock()
	if !ok || payload == nil {
		return false
	}
	samples, ok := payload["samples"].([]interface{})
	if !ok || len(samples) == 0 || len(samples) > models.MaxSamplesPerPacket {
		return false
	}
	t, ok := utils.ToFloat(payload["t"])
	if !ok {
		t = float64(h.now().UnixMilli())
	}
	h.groups.Emit(session, "", models.EventSample, models.SignalSample{T: t, Samples: samples, Seq: payload["seq"]})
	return true
}

// Chunk fans a binary sample block out to the producer's session verbatim.
// Chunks before hello, empty or over MaxChunkBytes are ignored.
func (h *SignalHub) Chunk(peerID string, data []byte) bool {
	h.mu.Lock()
	session, ok := h.producer[peerID]
	h.mu.Unlock()
	if !ok || len(data) == 0 || len(data) > models.MaxChunkBytes {
		return false
	}
	h.groups.Emit(session, "", models.EventChunk, data)
	return true
}

// Observe subscribes peer to a session. The session's metadata is returned,
// and also emitted to peer, when the producer has already said hello.
func (h *SignalHub) Observe(peer Peer, id interface{}) models.ObserveAck {
	session, _ := utils.ToString(id)
	session = strings.TrimSpace(session)
	if session == "" {
		return models.ObserveAck{OK: false, Error: "missing session id"}
	}
	h.mu.Lock()
	h.trackLocked(peer.ID(), session)
	meta, known := h.meta[session]
	h.mu.Unlock()

	h.groups.Add(session, peer)
	log.WithFields(log.Fields{"session": session, "peer": peer.ID()}).Info("👀 EEG observer joined")
	if !known {
		return models.ObserveAck{OK: true}
	}
	peer.Emit(models.EventMeta, meta)
	return models.ObserveAck{OK: true, Meta: &meta}
}

// Leave drops peerID from every session it joined. A departing producer
// takes its session metadata with it.
func (h *SignalHub) Leave(peerID string) {
	h.mu.Lock()
	sessions := h.watching[peerID]
	delete(h.watching, peerID)
	if session, ok := h.producer[peerID]; ok {
		delete(h.producer, peerID)
		delete(h.meta, session)
	}
	h.mu.Unlock()

	for _, s := range sessions {
		h.groups.Remove(s, peerID)
	}
}

// Meta returns the metadata of a live session.
func (h *SignalHub) Meta(session string) (models.SignalMeta, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	meta, ok := h.meta[session]
	if !ok {
		return models.SignalMeta{}, fmt.Errorf("no producer for session %q", session)
	}
	return meta, nil
}

func (h *SignalHub) trackLocked(peerID, session string) {
	for _, s := range h.watching[peerID] {
		if s == session {
			return
		}
	}
	h.watching[peerID] = append(h.watching[peerID], session)
}
