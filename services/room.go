package services

import (
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"pongo_server/models"
)

// Peer is anything a room can push events to: a socket.io connection or a
// raw websocket spectator.
type Peer interface {
	ID() string
	Emit(event string, args ...interface{})
}

type delivery struct {
	peer    Peer
	event   string
	payload interface{}
}

// outbox collects emissions made under the room lock so they can be sent
// after it is released.
type outbox []delivery

func (o *outbox) to(p Peer, event string, payload interface{}) {
	*o = append(*o, delivery{peer: p, event: event, payload: payload})
}

func (o outbox) flush() {
	for _, d := range o {
		d.peer.Emit(d.event, d.payload)
	}
}

type player struct {
	id        string
	name      string
	slot      models.Slot
	admission *Admission
	peer      Peer
}

// RoomOptions carries the per-room policies and the injected clock and RNG.
type RoomOptions struct {
	MaxPlayers       int
	Assist           AssistPolicy
	ClientAuth       bool
	ClientAuthWindow time.Duration
	Now              func() time.Time
	// Rand is owned by the room's ticker and must not be shared between rooms.
	Rand             *rand.Rand
	Metrics          *Metrics
	Logger           *log.Entry
}

func (o RoomOptions) withDefaults() RoomOptions {
	if o.MaxPlayers < 1 || o.MaxPlayers > len(models.Slots) {
		o.MaxPlayers = models.DefaultMaxPlayers
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Rand == nil {
		o.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if o.Logger == nil {
		o.Logger = log.NewEntry(log.StandardLogger())
	}
	if o.ClientAuthWindow <= 0 {
		o.ClientAuthWindow = 150 * time.Millisecond
	}
	return o
}

// Room is the authoritative simulation of one match. Socket handlers and the
// tick goroutine both go through mu; emissions are flushed after unlocking.
type Room struct {
	ID         string
	InstanceID string

	mu         sync.Mutex
	maxPlayers int
	sides      models.SlotPair[string]
	players    map[string]*player
	spectators map[string]Peer
	court      Court
	assist     AssistPolicy
	arbiter    *Arbiter

	now     func() time.Time
	rng     *rand.Rand
	metrics *Metrics
	logger  *log.Entry

	runMu   sync.Mutex
	running bool
	stopped bool
	quit    chan struct{}
	done    chan struct{}
}

func NewRoom(id string, opts RoomOptions) *Room {
	opts = opts.withDefaults()
	r := &Room{
		ID:         id,
		InstanceID: uuid.NewString(),
		maxPlayers: opts.MaxPlayers,
		players:    make(map[string]*player),
		spectators: make(map[string]Peer),
		court:      NewCourt(),
		assist:     opts.Assist,
		now:        opts.Now,
		rng:        opts.Rand,
		metrics:    opts.Metrics,
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	if opts.ClientAuth {
		r.arbiter = NewArbiter(opts.ClientAuthWindow)
	}
	r.logger = opts.Logger.WithFields(log.Fields{"room": id, "instance": r.InstanceID})
	return r
}

func (r *Room) MaxPlayers() int {
	return r.maxPlayers
}

// Join seats peer in the first free slot, or adds it as a spectator once
// every slot up to maxPlayers is taken. Joining twice returns the same seat.
func (r *Room) Join(peer Peer, name string) models.JoinAck {
	ack, out := r.join(peer, name)
	out.flush()
	return ack
}

// join does the work of Join and hands back the emissions instead of
// sending them, so callers holding other locks can flush after releasing.
func (r *Room) join(peer Peer, name string) (models.JoinAck, outbox) {
	var out outbox
	r.mu.Lock()
	defer r.mu.Unlock()

	id := peer.ID()
	if p, ok := r.players[id]; ok {
		return r.ackLocked(p.id, p.slot, models.RolePlayer), out
	}
	if _, ok := r.spectators[id]; ok {
		return r.ackLocked(id, models.SlotNone, models.RoleSpectator), out
	}

	slot := r.freeSlotLocked()
	if slot == models.SlotNone {
		r.spectators[id] = peer
		r.logger.WithField("peer", id).Info("👀 Spectator joined")
		return r.ackLocked(id, models.SlotNone, models.RoleSpectator), out
	}

	p := &player{id: id, name: name, slot: slot, admission: NewDefaultAdmission(), peer: peer}
	r.players[id] = p
	r.sides.Set(slot, id)
	r.broadcastLocked(&out, id, models.EventPlayerJoin, models.PlayerJoined{PlayerID: id, Side: slot, Name: name})

	if r.seatedLocked() == 2 && r.court.RoundState == models.RoundWaiting {
		r.court.StartCountdown()
		r.logger.Info("⏱️ Both seats filled, countdown started")
	}
	r.logger.WithFields(log.Fields{"peer": id, "side": slot, "name": name}).Info("✅ Player seated")
	return r.ackLocked(id, slot, models.RolePlayer), out
}

// Watch adds peer as a spectator regardless of free seats.
func (r *Room) Watch(peer Peer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.spectators[peer.ID()] = peer
}

// Leave vacates peer's seat or spectator entry. Dropping below two seated
// players parks the match in waiting with scores kept.
func (r *Room) Leave(peerID string) bool {
	ok, out := r.leave(peerID)
	out.flush()
	return ok
}

func (r *Room) leave(peerID string) (bool, outbox) {
	var out outbox
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.spectators[peerID]; ok {
		delete(r.spectators, peerID)
		return true, out
	}
	p, ok := r.players[peerID]
	if !ok {
		return false, out
	}
	delete(r.players, peerID)
	r.sides.Set(p.slot, "")
	r.broadcastLocked(&out, peerID, models.EventPlayerLeave, models.PlayerLeft{PlayerID: peerID, Side: p.slot})

	if r.seatedLocked() < 2 && r.court.RoundState != models.RoundWaiting {
		r.court.Freeze()
		if r.arbiter != nil {
			r.arbiter.Reset()
		}
		r.logger.Info("⏸️ Player left mid-match, room back to waiting")
	}
	r.logger.WithFields(log.Fields{"peer": peerID, "side": p.slot}).Info("🚪 Player left")
	return true, out
}

// HandleInput applies or queues a parsed input. Inputs from spectators and
// unknown peers are ignored; admission rejections are dropped silently and
// only counted. The returned reason is empty on acceptance.
func (r *Room) HandleInput(peerID string, in models.Input) (bool, string) {
	var out outbox
	defer func() { out.flush() }()

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[peerID]
	if !ok {
		return false, ""
	}
	now := r.now()

	switch in.Kind {
	case models.InputSequencedMove:
		accepted, reason := p.admission.AdmitSequenced(in.Seq, in.Direction, now)
		if !accepted {
			r.dropLocked(p, reason, in)
		}
		return accepted, reason

	case models.InputAbsolute:
		r.court.SetPaddle(p.slot, in.Position)
		r.broadcastLocked(&out, p.id, models.EventInput, models.InputEcho{Side: p.slot, PaddleY: r.court.Paddles.Get(p.slot)})
		return true, ""

	case models.InputLegacyDirectional:
		accepted, reason := p.admission.AdmitUnsequenced(now)
		if !accepted {
			r.dropLocked(p, reason, in)
			return false, reason
		}
		r.court.MovePaddle(p.slot, in.Direction*in.Step)
		r.broadcastLocked(&out, p.id, models.EventInput, models.InputEcho{Side: p.slot, PaddleY: r.court.Paddles.Get(p.slot), Dir: in.Dir})
		return true, ""
	}

	r.dropLocked(p, models.DropFormat, in)
	return false, models.DropFormat
}

func (r *Room) dropLocked(p *player, reason string, in models.Input) {
	r.metrics.InputDropped(reason)
	r.logger.WithFields(log.Fields{
		"peer":   p.id,
		"reason": reason,
		"kind":   in.Kind.String(),
		"seq":    in.Seq,
	}).Debug("🗑️ Input dropped")
}

// Step advances the room by one fixed tick and broadcasts the result.
func (r *Room) Step() {
	var out outbox
	defer func() { out.flush() }()

	r.mu.Lock()
	defer r.mu.Unlock()

	dt := 1.0 / float64(models.TickRate)
	for _, p := range r.players {
		for _, dir := range p.admission.Drain() {
			r.court.MovePaddle(p.slot, dir*models.PaddleSpeed*dt)
		}
	}

	ev := r.court.Step(dt, r.rng, r.assist)
	r.metrics.Tick()
	if ev.Served {
		r.logger.WithField("vx", r.court.Ball.VX).Debug("🏓 Serve")
	}
	if ev.Rescued != models.SlotNone {
		r.metrics.Rescue()
		r.logger.WithField("side", ev.Rescued).Debug("🛟 Near miss rescued")
	}
	if ev.Scored != models.SlotNone {
		r.metrics.Goal(string(ev.Scored))
		r.logger.WithFields(log.Fields{"for": ev.Scored, "scores": r.court.Scores}).Info("🎯 Point scored")
	}

	now := r.now()
	if r.arbiter != nil {
		if v := r.arbiter.Expire(now); v.Kind == VerdictCommitScore {
			r.commitScoreLocked(&out, v.Side, v.Reports)
		}
	}

	snap := EncodeSnapshot(r.court, r.lastSeqLocked(), now)
	for _, p := range r.players {
		out.to(p.peer, models.EventState, snap)
	}
	for _, s := range r.spectators {
		out.to(s, models.EventState, snap)
	}
	for _, p := range r.players {
		out.to(p.peer, models.EventRectify, EncodeRectify(r.court, p.slot, p.admission.LastSeq(), now))
	}
}

// Snapshot returns the current wire snapshot without advancing the room.
func (r *Room) Snapshot() models.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return EncodeSnapshot(r.court, r.lastSeqLocked(), r.now())
}

// Restart resets scores and starts a fresh round.
func (r *Room) Restart() {
	var out outbox
	defer func() { out.flush() }()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.court.Scores = models.SlotPair[int]{}
	if r.seatedLocked() == 2 {
		r.court.StartCountdown()
	} else {
		r.court.Freeze()
	}
	if r.arbiter != nil {
		r.arbiter.Reset()
	}
	r.broadcastLocked(&out, "", models.EventSystemRestart, models.Ack{OK: true})
	r.logger.Info("🔄 Room restarted")
}

// ApplyOverride forces round state and ball fields. Test hook only.
func (r *Room) ApplyOverride(o models.Override) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if o.RoundState != "" {
		r.court.RoundState = o.RoundState
		if o.RoundState == models.RoundCountdown {
			r.court.RoundTimer = models.CountdownSeconds
		}
	}
	b := &r.court.Ball
	for _, f := range []struct {
		src *float64
		dst *float64
	}{{o.BallX, &b.X}, {o.BallY, &b.Y}, {o.BallVX, &b.VX}, {o.BallVY, &b.VY}} {
		if f.src != nil {
			*f.dst = *f.src
		}
	}
	r.logger.WithField("ball", r.court.Ball).Debug("🧪 Override applied")
}

// ReportHit feeds a client-reported paddle hit to the arbiter. It is a no-op
// unless client-authoritative mode is on.
func (r *Room) ReportHit(peerID string, rep models.ClientReport) {
	var out outbox
	defer func() { out.flush() }()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.arbiter == nil || !r.isMemberLocked(peerID) {
		return
	}
	v := r.arbiter.ReportHit(rep, r.now())
	if v.Kind == VerdictPreferHit {
		r.court.Ball = v.Ball
		r.broadcastLocked(&out, "", models.EventRectifyDecision, models.RectifyDecision{
			T:      r.now().UnixMilli(),
			Reason: models.ReasonPreferHit,
			Ball:   v.Ball,
		})
		r.logger.WithField("side", v.Side).Info("🤝 Hit preferred over pending score")
	}
}

// ReportScore feeds a client-reported score to the arbiter. Commits happen
// on the tick once the window has passed.
func (r *Room) ReportScore(peerID string, rep models.ClientReport) {
	var out outbox
	defer func() { out.flush() }()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.arbiter == nil || !r.isMemberLocked(peerID) {
		return
	}
	v := r.arbiter.ReportScore(rep, r.now())
	if v.Kind == VerdictPreferHit {
		r.court.Ball = v.Ball
		r.broadcastLocked(&out, "", models.EventRectifyDecision, models.RectifyDecision{
			T:      r.now().UnixMilli(),
			Reason: models.ReasonPreferHit,
			Ball:   v.Ball,
		})
	}
}

func (r *Room) commitScoreLocked(out *outbox, side models.Slot, reports int) {
	r.court.Scores.Set(side, r.court.Scores.Get(side)+1)
	r.court.StartCountdown()
	r.metrics.Goal(string(side))
	r.broadcastLocked(out, "", models.EventScoreUpdate, models.ScoreUpdate{For: side, Scores: r.court.Scores})
	r.logger.WithFields(log.Fields{"for": side, "scores": r.court.Scores, "reports": reports}).Info("🎯 Client-reported point committed")
}

// Occupants counts seated players and spectators.
func (r *Room) Occupants() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.occupantsLocked()
}

func (r *Room) Info() models.RoomInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return models.RoomInfo{
		RoomID:     r.ID,
		InstanceID: r.InstanceID,
		Players:    len(r.players),
		Spectators: len(r.spectators),
		MaxPlayers: r.maxPlayers,
		RoundState: r.court.RoundState,
	}
}

// Drops returns the admission drop counters of a seated player.
func (r *Room) Drops(peerID string) (DropCounts, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[peerID]
	if !ok {
		return DropCounts{}, false
	}
	return p.admission.Drops(), true
}

// Start launches the tick goroutine. Calling it again, or after Stop, does
// nothing.
func (r *Room) Start() {
	r.runMu.Lock()
	defer r.runMu.Unlock()
	if r.running || r.stopped {
		return
	}
	r.running = true
	go r.run()
	r.logger.Info("▶️ Room ticker started")
}

// Stop ends the tick goroutine and waits for it to exit. Safe to call more
// than once.
func (r *Room) Stop() {
	r.runMu.Lock()
	if r.stopped {
		r.runMu.Unlock()
		return
	}
	r.stopped = true
	wasRunning := r.running
	close(r.quit)
	r.runMu.Unlock()

	if wasRunning {
		<-r.done
		r.logger.Info("⏹️ Room ticker stopped")
	}
}

func (r *Room) Running() bool {
	r.runMu.Lock()
	defer r.runMu.Unlock()
	return r.running && !r.stopped
}

func (r *Room) run() {
	defer close(r.done)
	ticker := time.NewTicker(time.Second / time.Duration(models.TickRate))
	defer ticker.Stop()

	for {
		select {
		case <-r.quit:
			return
		case <-ticker.C:
			r.safeStep()
		}
	}
}

func (r *Room) safeStep() {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.WithField("panic", rec).Error("❌ Room tick panicked")
		}
	}()
	r.Step()
}

func (r *Room) freeSlotLocked() models.Slot {
	for i, slot := range models.Slots {
		if i >= r.maxPlayers {
			break
		}
		if r.sides.Get(slot) == "" {
			return slot
		}
	}
	return models.SlotNone
}

func (r *Room) seatedLocked() int {
	n := 0
	for _, slot := range models.Slots {
		if r.sides.Get(slot) != "" {
			n++
		}
	}
	return n
}

func (r *Room) occupantsLocked() int {
	return len(r.players) + len(r.spectators)
}

func (r *Room) isMemberLocked(peerID string) bool {
	if _, ok := r.players[peerID]; ok {
		return true
	}
	_, ok := r.spectators[peerID]
	return ok
}

func (r *Room) lastSeqLocked() models.SlotPair[int64] {
	var seqs models.SlotPair[int64]
	for _, p := range r.players {
		seqs.Set(p.slot, p.admission.LastSeq())
	}
	return seqs
}

func (r *Room) ackLocked(id string, slot models.Slot, role string) models.JoinAck {
	return models.JoinAck{
		OK:          true,
		PlayerID:    id,
		RoomID:      r.ID,
		Side:        slot,
		Role:        role,
		MaxPlayers:  r.maxPlayers,
		PlayerCount: len(r.players),
	}
}

// broadcastLocked queues event for every occupant except the one with id
// except. An empty except reaches everyone.
func (r *Room) broadcastLocked(out *outbox, except, event string, payload interface{}) {
	for id, p := range r.players {
		if id != except {
			out.to(p.peer, event, payload)
		}
	}
	for id, s := range r.spectators {
		if id != except {
			out.to(s, event, payload)
		}
	}
}
