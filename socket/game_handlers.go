package socket

import (
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"pongo_server/config"
	"pongo_server/models"
	"pongo_server/services"
	"pongo_server/utils"
)

// GameHandler implements the /game namespace on top of a room registry.
type GameHandler struct {
	rooms   *services.RoomRegistry
	metrics *services.Metrics
	cfg     config.Config
	now     func() time.Time
}

func NewGameHandler(rooms *services.RoomRegistry, metrics *services.Metrics, cfg config.Config) *GameHandler {
	return &GameHandler{rooms: rooms, metrics: metrics, cfg: cfg, now: time.Now}
}

// Join validates the payload and seats the session, leaving any previous
// room first. Malformed payloads get {ok:false}; the socket stays open.
func (h *GameHandler) Join(sess *Session, payload map[string]interface{}) models.JoinAck {
	req, err := models.ParseJoin(payload)
	if err != nil {
		log.WithField("peer", sess.ID()).Warnf("❌ Rejected join: %v", err)
		return models.JoinAck{OK: false, Error: err.Error()}
	}

	if prev := sess.detach(); prev != nil {
		h.rooms.Leave(prev, sess.ID())
	}

	room, ack := h.rooms.Join(req.RoomID, req.MaxPlayers, sess.Peer, req.Name)
	if room == nil {
		return ack
	}
	sess.assign(room, req.Name, ack)
	log.WithFields(log.Fields{
		"peer": sess.ID(),
		"room": req.RoomID,
		"side": ack.Side,
		"role": ack.Role,
	}).Info("👥 Joined game room")
	return ack
}

// Input parses one of the wire input shapes and hands it to the room.
// Invalid payloads are dropped without a reply.
func (h *GameHandler) Input(sess *Session, payload map[string]interface{}) {
	room := sess.Room()
	if room == nil {
		return
	}
	in, err := models.ParseInput(payload)
	if err != nil {
		h.metrics.InputDropped(models.DropFormat)
		log.WithField("peer", sess.ID()).Debugf("🗑️ Ignored input: %v", err)
		return
	}
	room.HandleInput(sess.ID(), in)
}

// Time answers a clock sync request with the server's Unix milliseconds.
func (h *GameHandler) Time(payload map[string]interface{}) models.TimeReply {
	reply := models.TimeReply{ServerNow: h.now().UnixMilli()}
	if payload != nil {
		reply.C0, _ = utils.ToFloat(payload["c0"])
	}
	return reply
}

func (h *GameHandler) Restart(sess *Session) models.Ack {
	room := sess.Room()
	if room == nil {
		return models.Ack{OK: false, Error: "not in a room"}
	}
	room.Restart()
	return models.Ack{OK: true}
}

// TestSet forces ball and round state. Only available with ENABLE_TEST_HOOKS.
func (h *GameHandler) TestSet(sess *Session, payload map[string]interface{}) models.Ack {
	if !h.cfg.EnableTestHooks {
		return models.Ack{OK: false, Error: "test hooks disabled"}
	}
	room := sess.Room()
	if room == nil {
		return models.Ack{OK: false, Error: "not in a room"}
	}
	o, err := models.ParseOverride(payload)
	if err != nil {
		return models.Ack{OK: false, Error: err.Error()}
	}
	room.ApplyOverride(o)
	return models.Ack{OK: true}
}

func (h *GameHandler) Hit(sess *Session, payload map[string]interface{}) {
	h.report(sess, payload, "sideHit", (*services.Room).ReportHit)
}

func (h *GameHandler) Score(sess *Session, payload map[string]interface{}) {
	h.report(sess, payload, "for", (*services.Room).ReportScore)
}

func (h *GameHandler) report(sess *Session, payload map[string]interface{}, sideKey string, apply func(*services.Room, string, models.ClientReport)) {
	if !h.cfg.ClientAuthBall {
		return
	}
	room := sess.Room()
	if room == nil {
		return
	}
	rep, err := models.ParseReport(payload, sideKey)
	if err != nil {
		log.WithField("peer", sess.ID()).Debugf("🗑️ Ignored client report: %v", err)
		return
	}
	apply(room, sess.ID(), rep)
}

// ClientLog sinks client diagnostics into the server log when DEBUG_MP is on.
func (h *GameHandler) ClientLog(sess *Session, payload map[string]interface{}) {
	if !h.cfg.DebugMP {
		return
	}
	log.WithFields(sess.Fields()).WithField("client", payload).Debug("📝 client:log")
}

// Disconnect vacates the session's seat or spectator entry.
func (h *GameHandler) Disconnect(sess *Session, reason string) {
	fields := sess.Fields()
	room := sess.detach()
	if room == nil {
		return
	}
	h.rooms.Leave(room, sess.ID())
	log.WithFields(fields).WithField("reason", reason).Info("❌ Game socket disconnected")
}

var errNoSession = errors.New("connection has no session")
