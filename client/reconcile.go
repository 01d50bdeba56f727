// Package client is the rendering-side counterpart of the room engine: it
// buffers server snapshots, interpolates remote entities behind a fixed
// render delay and predicts the local paddle from the server baseline plus
// unacknowledged inputs.
package client

import (
	"math"

	"pongo_server/models"
	"pongo_server/utils"
)

// PendingInput is a sequenced move the server has not acknowledged yet.
type PendingInput struct {
	Seq       int64
	Direction float64
}

// Baseline is the last rectify received for the local slot.
type Baseline struct {
	SelfY   float64
	OppY    float64
	AckSeq  int64
	ServerT float64
}

// RenderState is what one frame should draw.
type RenderState struct {
	Side       models.Slot
	Paddles    models.SlotPair[float64]
	Ball       models.Ball
	Scores     models.SlotPair[int]
	RoundState string
	RoundTimer float64
	ServerT    float64
}

// ReconciliationState is owned by the render loop. Network callbacks call
// Push and OnRectify; the frame callback calls Frame. It is not safe for
// concurrent use.
type ReconciliationState struct {
	Tunables Tunables
	Time     *TimeSync

	side     models.Slot
	buffer   *SnapshotBuffer
	pending  []PendingInput
	nextSeq  int64
	baseline *Baseline

	selfEase *Easer
	ballX    *Easer
	ballY    *Easer
	jump     JumpDetector

	lastFrame float64
	hasFrame  bool
	last      RenderState
}

func NewReconciliationState(t Tunables) *ReconciliationState {
	return &ReconciliationState{
		Tunables: t,
		Time:     NewTimeSync(),
		buffer:   NewSnapshotBuffer(t.BufferSize),
		selfEase: NewEaser(t.PaddleEaseMs),
		ballX:    NewEaser(t.BallEaseMs),
		ballY:    NewEaser(t.BallEaseMs),
		jump:     NewJumpDetector(t.BallJumpFraction),
	}
}

// SetSide records the slot from the join ack. SlotNone means spectating.
func (s *ReconciliationState) SetSide(side models.Slot) {
	s.side = side
}

func (s *ReconciliationState) Side() models.Slot {
	return s.side
}

// Push buffers a state snapshot and prunes inputs it acknowledges.
func (s *ReconciliationState) Push(snap models.Snapshot) bool {
	if !s.buffer.Push(snap) {
		return false
	}
	if s.side != models.SlotNone {
		s.prune(snap.LastSeq.Get(s.side))
	}
	return true
}

// OnRectify stores the server baseline for the local paddle.
func (s *ReconciliationState) OnRectify(r models.Rectify) {
	if s.side != models.SlotNone && r.Side != s.side {
		return
	}
	if !utils.IsFinite(r.SelfY) {
		return
	}
	s.baseline = &Baseline{
		SelfY:   utils.Clamp01(r.SelfY),
		OppY:    r.OppY,
		AckSeq:  r.AckSeq,
		ServerT: float64(r.T),
	}
	s.prune(r.AckSeq)
}

// RecordInput assigns the next sequence number to a move about to be sent.
func (s *ReconciliationState) RecordInput(direction float64) PendingInput {
	s.nextSeq++
	in := PendingInput{Seq: s.nextSeq, Direction: direction}
	s.pending = append(s.pending, in)
	return in
}

func (s *ReconciliationState) Pending() []PendingInput {
	out := make([]PendingInput, len(s.pending))
	copy(out, s.pending)
	return out
}

func (s *ReconciliationState) Buffered() int {
	return s.buffer.Len()
}

func (s *ReconciliationState) prune(ack int64) {
	kept := s.pending[:0]
	for _, in := range s.pending {
		if in.Seq > ack {
			kept = append(kept, in)
		}
	}
	s.pending = kept
}

// Frame computes the state to draw at localNowMs. It returns false with the
// last rendered state when nothing has been buffered.
func (s *ReconciliationState) Frame(localNowMs float64) (RenderState, bool) {
	if s.buffer.Len() == 0 {
		return s.last, false
	}

	serverNow := s.Time.ServerNow(localNowMs)
	target := serverNow - s.Tunables.RenderDelayMs
	s0, s1, _ := s.buffer.Bracket(target)
	interp := Interpolate(s0, s1, float64(s0.T), float64(s1.T), target)

	dt := 0.0
	if s.hasFrame {
		dt = localNowMs - s.lastFrame
	}
	s.lastFrame, s.hasFrame = localNowMs, true

	out := RenderState{
		Side:       s.side,
		Paddles:    interp.Paddles,
		Scores:     interp.Scores,
		RoundState: interp.RoundState,
		RoundTimer: interp.RoundTimer,
		ServerT:    target,
		Ball:       interp.Ball,
	}

	if s.side != models.SlotNone {
		base := interp.Paddles.Get(s.side)
		if s.baseline != nil && math.Abs(serverNow-s.baseline.ServerT) < s.Tunables.BaselineFreshMs {
			base = s.baseline.SelfY
		}
		out.Paddles.Set(s.side, s.selfEase.Step(s.predict(base), dt))
	}

	if prevX, ok := s.ballX.Value(); ok {
		prevY, _ := s.ballY.Value()
		if s.jump.IsJump(prevX, prevY, interp.Ball.X, interp.Ball.Y) {
			s.ballX.Reset()
			s.ballY.Reset()
		}
	}
	out.Ball.X = s.ballX.Step(interp.Ball.X, dt)
	out.Ball.Y = s.ballY.Step(interp.Ball.Y, dt)

	s.last = out
	return out, true
}

// predict replays unacknowledged moves on top of base.
func (s *ReconciliationState) predict(base float64) float64 {
	half := s.Tunables.HalfExtent()
	step := s.Tunables.PaddleSpeed * s.Tunables.DT()
	y := base
	for _, in := range s.pending {
		y = utils.Clamp(y+in.Direction*step, half, 1-half)
	}
	return y
}

// Reconnect discards everything tied to the old connection. The caller
// must run a fresh time sync before trusting Frame again.
func (s *ReconciliationState) Reconnect() {
	s.buffer.Clear()
	s.pending = nil
	s.nextSeq = 0
	s.baseline = nil
	s.selfEase.Reset()
	s.ballX.Reset()
	s.ballY.Reset()
	s.hasFrame = false
	s.last = RenderState{}
	s.Time.Reset()
}
