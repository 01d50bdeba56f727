package socket

import (
	socketio "github.com/googollee/go-socket.io"
	"github.com/googollee/go-socket.io/engineio"
	"github.com/googollee/go-socket.io/engineio/transport"
	"github.com/googollee/go-socket.io/engineio/transport/polling"
	"github.com/googollee/go-socket.io/engineio/transport/websocket"
	"github.com/googollee/go-socket.io/parser"
	log "github.com/sirupsen/logrus"

	"pongo_server/models"
	"pongo_server/services"
	"pongo_server/utils"
)

// Handlers bundles the namespace implementations mounted on the server.
type Handlers struct {
	Game    *GameHandler
	Relay   *RelayHandler
	Signals *SignalHandler
	Metrics *services.Metrics
}

// NewSocketServer initializes the Socket.IO server and registers the /, /game,
// /relay and /eeg namespaces. The caller runs Serve and Close.
func NewSocketServer(h Handlers, corsOrigin string) *socketio.Server {
	checkOrigin := utils.OriginChecker(corsOrigin)
	server := socketio.NewServer(&engineio.Options{
		Transports: []transport.Transport{
			&polling.Transport{CheckOrigin: checkOrigin},
			&websocket.Transport{CheckOrigin: checkOrigin},
		},
	})

	registerRoot(server)
	registerGame(server, h.Game, h.Metrics)
	registerRelay(server, h.Relay, h.Metrics)
	registerSignals(server, h.Signals, h.Metrics)
	return server
}

func registerRoot(server *socketio.Server) {
	ns := models.NamespaceRoot
	server.OnConnect(ns, func(s socketio.Conn) error {
		log.WithField("peer", s.ID()).Debug("✅ Socket connected")
		return nil
	})
	server.OnEvent(ns, models.EventPing, func(s socketio.Conn, payload interface{}) {
		guardVoid(models.EventPing, s, func() { s.Emit(models.EventPong, payload) })
	})
	server.OnError(ns, logSocketError(ns))
	server.OnDisconnect(ns, func(s socketio.Conn, reason string) {
		log.WithFields(log.Fields{"peer": s.ID(), "reason": reason}).Debug("❌ Socket disconnected")
	})
}

func registerGame(server *socketio.Server, h *GameHandler, metrics *services.Metrics) {
	ns := models.NamespaceGame
	server.OnConnect(ns, func(s socketio.Conn) error {
		s.SetContext(NewSession(newConnPeer(s, ns, metrics)))
		log.WithField("peer", s.ID()).Info("✅ Game socket connected")
		return nil
	})

	server.OnEvent(ns, models.EventJoin, func(s socketio.Conn, payload map[string]interface{}) models.JoinAck {
		fail := models.JoinAck{OK: false, Error: "internal error"}
		return guard(models.EventJoin, s, fail, func() models.JoinAck {
			sess, err := sessionOf(s)
			if err != nil {
				return models.JoinAck{OK: false, Error: err.Error()}
			}
			return h.Join(sess, payload)
		})
	})
	server.OnEvent(ns, models.EventInput, func(s socketio.Conn, payload map[string]interface{}) {
		withSession(models.EventInput, s, func(sess *Session) { h.Input(sess, payload) })
	})
	server.OnEvent(ns, models.EventTime, func(s socketio.Conn, payload map[string]interface{}) models.TimeReply {
		return guard(models.EventTime, s, models.TimeReply{}, func() models.TimeReply { return h.Time(payload) })
	})
	server.OnEvent(ns, models.EventRestart, func(s socketio.Conn, _ map[string]interface{}) models.Ack {
		return guard(models.EventRestart, s, models.Ack{Error: "internal error"}, func() models.Ack {
			sess, err := sessionOf(s)
			if err != nil {
				return models.Ack{Error: err.Error()}
			}
			return h.Restart(sess)
		})
	})
	server.OnEvent(ns, models.EventTestSet, func(s socketio.Conn, payload map[string]interface{}) models.Ack {
		return guard(models.EventTestSet, s, models.Ack{Error: "internal error"}, func() models.Ack {
			sess, err := sessionOf(s)
			if err != nil {
				return models.Ack{Error: err.Error()}
			}
			return h.TestSet(sess, payload)
		})
	})
	server.OnEvent(ns, models.EventHit, func(s socketio.Conn, payload map[string]interface{}) {
		withSession(models.EventHit, s, func(sess *Session) { h.Hit(sess, payload) })
	})
	server.OnEvent(ns, models.EventScore, func(s socketio.Conn, payload map[string]interface{}) {
		withSession(models.EventScore, s, func(sess *Session) { h.Score(sess, payload) })
	})
	server.OnEvent(ns, models.EventClientLog, func(s socketio.Conn, payload map[string]interface{}) {
		withSession(models.EventClientLog, s, func(sess *Session) { h.ClientLog(sess, payload) })
	})

	server.OnError(ns, logSocketError(ns))
	server.OnDisconnect(ns, func(s socketio.Conn, reason string) {
		withSession("disconnect", s, func(sess *Session) {
			h.Disconnect(sess, reason)
			closePeer(sess.Peer)
		})
	})
}

func registerRelay(server *socketio.Server, h *RelayHandler, metrics *services.Metrics) {
	ns := models.NamespaceRelay
	server.OnConnect(ns, func(s socketio.Conn) error {
		s.SetContext(newConnPeer(s, ns, metrics))
		log.WithField("peer", s.ID()).Info("✅ Relay socket connected")
		return nil
	})
	server.OnEvent(ns, models.EventJoin, func(s socketio.Conn, payload map[string]interface{}) models.RelayJoinAck {
		return guard(models.EventJoin, s, models.RelayJoinAck{Error: "internal error"}, func() models.RelayJoinAck {
			return h.Join(peerOf(s), payload)
		})
	})
	server.OnEvent(ns, models.EventInput, func(s socketio.Conn, payload map[string]interface{}) {
		guardVoid(models.EventInput, s, func() { h.Input(peerOf(s), payload) })
	})
	server.OnEvent(ns, models.EventState, func(s socketio.Conn, payload interface{}) {
		guardVoid(models.EventState, s, func() { h.State(peerOf(s), payload) })
	})
	server.OnError(ns, logSocketError(ns))
	server.OnDisconnect(ns, func(s socketio.Conn, reason string) {
		guardVoid("disconnect", s, func() {
			h.Disconnect(peerOf(s))
			closePeer(peerOf(s))
		})
	})
}

func registerSignals(server *socketio.Server, h *SignalHandler, metrics *services.Metrics) {
	ns := models.NamespaceEEG
	server.OnConnect(ns, func(s socketio.Conn) error {
		s.SetContext(newConnPeer(s, ns, metrics))
		log.WithField("peer", s.ID()).Info("✅ EEG socket connected")
		return nil
	})
	server.OnEvent(ns, models.EventHello, func(s socketio.Conn, payload map[string]interface{}) models.HelloAck {
		return guard(models.EventHello, s, models.HelloAck{Error: "bad hello payload"}, func() models.HelloAck {
			return h.Hello(peerOf(s), payload)
		})
	})
	server.OnEvent(ns, models.EventSample, func(s socketio.Conn, payload map[string]interface{}) {
		guardVoid(models.EventSample, s, func() { h.Sample(peerOf(s), payload) })
	})
	server.OnEvent(ns, models.EventChunk, func(s socketio.Conn, buf parser.Buffer) {
		guardVoid(models.EventChunk, s, func() { h.Chunk(peerOf(s), buf.Data) })
	})
	server.OnEvent(ns, models.EventObserve, func(s socketio.Conn, id string) models.ObserveAck {
		return guard(models.EventObserve, s, models.ObserveAck{Error: "invalid room"}, func() models.ObserveAck {
			return h.Observe(peerOf(s), id)
		})
	})
	server.OnError(ns, logSocketError(ns))
	server.OnDisconnect(ns, func(s socketio.Conn, reason string) {
		guardVoid("disconnect", s, func() {
			h.Disconnect(peerOf(s))
			closePeer(peerOf(s))
		})
	})
}

func sessionOf(s socketio.Conn) (*Session, error) {
	sess, ok := s.Context().(*Session)
	if !ok || sess == nil {
		return nil, errNoSession
	}
	return sess, nil
}

// peerOf returns the queued peer set up on connect, or the bare connection
// if the namespace never stored one.
func peerOf(s socketio.Conn) services.Peer {
	if p, ok := s.Context().(*connPeer); ok && p != nil {
		return p
	}
	return s
}

func withSession(event string, s socketio.Conn, fn func(*Session)) {
	guardVoid(event, s, func() {
		sess, err := sessionOf(s)
		if err != nil {
			log.WithFields(log.Fields{"event": event, "peer": s.ID()}).Warn(err)
			return
		}
		fn(sess)
	})
}

// guard runs one message handler, turning a panic into fallback so a bad
// message cannot take down the server or other rooms.
func guard[T any](event string, s socketio.Conn, fallback T, fn func() T) (out T) {
	defer func() {
		if rec := recover(); rec != nil {
			log.WithFields(log.Fields{"event": event, "peer": s.ID(), "panic": rec}).Error("❌ Socket handler panicked")
			out = fallback
		}
	}()
	return fn()
}

func guardVoid(event string, s socketio.Conn, fn func()) {
	guard(event, s, struct{}{}, func() struct{} {
		fn()
		return struct{}{}
	})
}

func logSocketError(ns string) func(socketio.Conn, error) {
	return func(s socketio.Conn, err error) {
		fields := log.Fields{"namespace": ns}
		if s != nil {
			fields["peer"] = s.ID()
		}
		log.WithFields(fields).Errorf("❌ Socket error: %v", err)
	}
}
