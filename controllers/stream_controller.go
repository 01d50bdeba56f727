package controllers

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"pongo_server/services"
	"pongo_server/utils"
)

const (
	streamSendBuffer = 64
	streamWriteWait  = 5 * time.Second
)

// StreamController upgrades spectators to a raw websocket that receives the
// room's broadcasts as JSON or msgpack frames.
type StreamController struct {
	Rooms    *services.RoomRegistry
	upgrader websocket.Upgrader
}

func NewStreamController(rooms *services.RoomRegistry, corsOrigin string) *StreamController {
	return &StreamController{
		Rooms: rooms,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     utils.OriginChecker(corsOrigin),
		},
	}
}

type streamFrame struct {
	data   []byte
	binary bool
}

// streamPeer adapts a websocket spectator to services.Peer. Emit never
// blocks the room: frames are dropped when the client falls behind.
type streamPeer struct {
	id     string
	format services.FrameFormat
	send   chan streamFrame
	done   chan struct{}
	once   sync.Once

	mu      sync.Mutex
	dropped int
}

func newStreamPeer(format services.FrameFormat) *streamPeer {
	return &streamPeer{
		id:     "stream-" + uuid.NewString(),
		format: format,
		send:   make(chan streamFrame, streamSendBuffer),
		done:   make(chan struct{}),
	}
}

func (p *streamPeer) ID() string {
	return p.id
}

func (p *streamPeer) Emit(event string, args ...interface{}) {
	var payload interface{}
	if len(args) > 0 {
		payload = args[0]
	}
	data, binary, err := services.EncodeFrame(p.format, event, payload)
	if err != nil {
		log.WithField("peer", p.id).Errorf("❌ %v", err)
		return
	}
	select {
	case <-p.done:
	case p.send <- streamFrame{data: data, binary: binary}:
	default:
		p.mu.Lock()
		p.dropped++
		p.mu.Unlock()
	}
}

func (p *streamPeer) droppedFrames() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dropped
}

func (p *streamPeer) close() {
	p.once.Do(func() { close(p.done) })
}

// Stream handles GET /game/rooms/{roomId}/stream?format=json|msgpack.
func (sc *StreamController) Stream(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["roomId"]
	format, err := services.ParseFrameFormat(r.URL.Query().Get("format"))
	if err != nil {
		utils.WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, ok := sc.Rooms.Get(roomID); !ok {
		utils.WriteJSONError(w, http.StatusNotFound, "room not found")
		return
	}

	conn, err := sc.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithField("room", roomID).Errorf("❌ Stream upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	peer := newStreamPeer(format)
	defer peer.close()
	room, ok := sc.Rooms.Watch(roomID, peer)
	if !ok {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "room closed"))
		return
	}
	defer sc.Rooms.Leave(room, peer.ID())

	logger := log.WithFields(log.Fields{"room": roomID, "peer": peer.ID(), "format": format})
	logger.Info("📺 Spectator stream opened")

	// Spectators are read-only; reading only detects the close.
	go func() {
		defer peer.close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-peer.done:
			logger.WithField("dropped", peer.droppedFrames()).Info("📴 Spectator stream closed")
			return
		case f := <-peer.send:
			msgType := websocket.TextMessage
			if f.binary {
				msgType = websocket.BinaryMessage
			}
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteMessage(msgType, f.data); err != nil {
				logger.Warnf("⚠️ Stream write failed: %v", err)
				return
			}
		}
	}
}
