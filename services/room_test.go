package services

import (
	"testing"
	"time"

	"pongo_server/models"
)

func newTestRoom(clock *fakeClock, opts RoomOptions) *Room {
	opts.Now = clock.Now
	opts.Rand = testRand()
	return NewRoom("R", opts)
}

func seatTwo(t *testing.T, r *Room) (*fakePeer, *fakePeer) {
	t.Helper()
	a, b := newFakePeer("a"), newFakePeer("b")
	if ack := r.Join(a, "A"); ack.Role != models.RolePlayer {
		t.Fatalf("a not seated: %+v", ack)
	}
	if ack := r.Join(b, "B"); ack.Role != models.RolePlayer {
		t.Fatalf("b not seated: %+v", ack)
	}
	return a, b
}

func TestRoomSeatsThenSpectates(t *testing.T) {
	r := newTestRoom(newFakeClock(), RoomOptions{})
	a, b := newFakePeer("a"), newFakePeer("b")
	c := newFakePeer("c")

	ackA := r.Join(a, "A")
	ackB := r.Join(b, "B")
	ackC := r.Join(c, "C")

	if ackA.Side == ackB.Side || ackA.Side == models.SlotNone || ackB.Side == models.SlotNone {
		t.Fatalf("seats not distinct: %v %v", ackA.Side, ackB.Side)
	}
	if ackC.Role != models.RoleSpectator || ackC.Side != models.SlotNone {
		t.Fatalf("third joiner: %+v", ackC)
	}
	if ackC.PlayerCount != 2 || ackC.MaxPlayers != 2 {
		t.Fatalf("ack counts: %+v", ackC)
	}
	if a.count(models.EventPlayerJoin) != 1 {
		t.Fatalf("a saw %d player:join events", a.count(models.EventPlayerJoin))
	}
	if info := r.Info(); info.RoundState != models.RoundCountdown || info.Spectators != 1 {
		t.Fatalf("info = %+v", info)
	}
}

func TestRoomRejoinKeepsSeat(t *testing.T) {
	r := newTestRoom(newFakeClock(), RoomOptions{})
	a := newFakePeer("a")
	first := r.Join(a, "A")
	second := r.Join(a, "A")
	if first.Side != second.Side || r.Occupants() != 1 {
		t.Fatalf("rejoin changed seat: %+v -> %+v", first, second)
	}
}

func TestRoomMaxPlayersOne(t *testing.T) {
	r := newTestRoom(newFakeClock(), RoomOptions{MaxPlayers: 1})
	if ack := r.Join(newFakePeer("a"), "A"); ack.Side != models.SlotLeft {
		t.Fatalf("ack = %+v", ack)
	}
	if ack := r.Join(newFakePeer("b"), "B"); ack.Role != models.RoleSpectator {
		t.Fatalf("ack = %+v", ack)
	}
	if r.Info().RoundState != models.RoundWaiting {
		t.Fatal("single-seat room left waiting")
	}
}

func TestRoomSequencedMovesClampAtEdge(t *testing.T) {
	clock := newFakeClock()
	r := newTestRoom(clock, RoomOptions{})
	a, _ := seatTwo(t, r)

	prev := r.Snapshot().Paddles.Left
	for seq := int64(1); seq <= 40; seq++ {
		if ok, reason := r.HandleInput(a.ID(), models.Input{Kind: models.InputSequencedMove, Seq: seq, Direction: 1}); !ok {
			t.Fatalf("seq %d dropped: %s", seq, reason)
		}
		r.Step()
		clock.Advance(100 * time.Millisecond)

		cur := r.Snapshot().Paddles.Left
		if cur < prev {
			t.Fatalf("paddle moved backwards: %v -> %v", prev, cur)
		}
		prev = cur
	}
	if !near(prev, 1-models.PaddleHalfExtent) {
		t.Fatalf("paddle = %v, want clamp at %v", prev, 1-models.PaddleHalfExtent)
	}
}

func TestRoomKMovesAdvanceByPaddleSpeed(t *testing.T) {
	r := newTestRoom(newFakeClock(), RoomOptions{})
	a, _ := seatTwo(t, r)

	for seq := int64(1); seq <= 5; seq++ {
		r.HandleInput(a.ID(), models.Input{Kind: models.InputSequencedMove, Seq: seq, Direction: 1})
	}
	r.Step()

	want := ClampPaddle(0.5 + 5*models.PaddleSpeed/float64(models.TickRate))
	snap, ok := a.last(models.EventState)
	if !ok {
		t.Fatal("no state broadcast")
	}
	if got := snap.(models.Snapshot).Paddles.Left; !near(got, want) {
		t.Fatalf("paddle = %v, want %v", got, want)
	}
	if seq := snap.(models.Snapshot).LastSeq.Left; seq != 5 {
		t.Fatalf("lastSeq = %d", seq)
	}
}

func TestRoomAbsoluteInputClamped(t *testing.T) {
	r := newTestRoom(newFakeClock(), RoomOptions{})
	a, b := seatTwo(t, r)

	r.HandleInput(a.ID(), models.Input{Kind: models.InputAbsolute, Position: 2})
	r.Step()
	snap, _ := b.last(models.EventState)
	if got := snap.(models.Snapshot).Paddles.Left; got != 1-models.PaddleHalfExtent {
		t.Fatalf("paddleY 2 broadcast as %v", got)
	}

	r.HandleInput(a.ID(), models.Input{Kind: models.InputAbsolute, Position: -5})
	echo, ok := b.last(models.EventInput)
	if !ok || echo.(models.InputEcho).PaddleY != models.PaddleHalfExtent {
		t.Fatalf("echo = %+v", echo)
	}
	if a.count(models.EventInput) != 0 {
		t.Fatal("sender received its own echo")
	}
}

func TestRoomAbsoluteBypassesBucket(t *testing.T) {
	r := newTestRoom(newFakeClock(), RoomOptions{})
	a, _ := seatTwo(t, r)
	for i := 0; i < 50; i++ {
		if ok, _ := r.HandleInput(a.ID(), models.Input{Kind: models.InputAbsolute, Position: 0.3}); !ok {
			t.Fatalf("absolute input %d dropped", i)
		}
	}
}

func TestRoomLegacyDirectional(t *testing.T) {
	r := newTestRoom(newFakeClock(), RoomOptions{})
	a, b := seatTwo(t, r)

	r.HandleInput(a.ID(), models.Input{Kind: models.InputLegacyDirectional, Direction: -1, Step: 0.04, Dir: "up"})
	echo, ok := b.last(models.EventInput)
	if !ok {
		t.Fatal("no echo")
	}
	if e := echo.(models.InputEcho); !near(e.PaddleY, 0.46) || e.Dir != "up" {
		t.Fatalf("echo = %+v", e)
	}
}

func TestRoomFloodIsBounded(t *testing.T) {
	r := newTestRoom(newFakeClock(), RoomOptions{})
	a, _ := seatTwo(t, r)

	const sent = 100
	for seq := int64(1); seq <= sent; seq++ {
		r.HandleInput(a.ID(), models.Input{Kind: models.InputSequencedMove, Seq: seq, Direction: 1})
		if seq%4 == 0 {
			r.Step()
		}
	}
	last := r.Snapshot().LastSeq.Left
	if last >= sent {
		t.Fatalf("lastSeq %d not below %d", last, sent)
	}
	if last > models.InputBurst+1 {
		t.Fatalf("lastSeq %d above burst bound", last)
	}
	drops, _ := r.Drops(a.ID())
	if drops.Rate == 0 {
		t.Fatalf("no rate drops recorded: %+v", drops)
	}
}

func TestRoomSpectatorInputIgnored(t *testing.T) {
	r := newTestRoom(newFakeClock(), RoomOptions{})
	seatTwo(t, r)
	s := newFakePeer("s")
	r.Join(s, "S")
	before := r.Snapshot().Paddles
	if ok, _ := r.HandleInput(s.ID(), models.Input{Kind: models.InputAbsolute, Position: 0.2}); ok {
		t.Fatal("spectator input accepted")
	}
	if r.Snapshot().Paddles != before {
		t.Fatal("spectator moved a paddle")
	}
}

func TestRoomBroadcastsStateAndRectify(t *testing.T) {
	r := newTestRoom(newFakeClock(), RoomOptions{})
	a, b := seatTwo(t, r)
	s := newFakePeer("s")
	r.Watch(s)

	r.Step()
	for _, p := range []*fakePeer{a, b, s} {
		if p.count(models.EventState) != 1 {
			t.Fatalf("%s got %d state events", p.id, p.count(models.EventState))
		}
	}
	if s.count(models.EventRectify) != 0 {
		t.Fatal("spectator got rectify")
	}
	rect, ok := b.last(models.EventRectify)
	if !ok || rect.(models.Rectify).Side != models.SlotRight {
		t.Fatalf("rectify = %+v", rect)
	}
}

func TestRoomLeaveMidMatchFreezes(t *testing.T) {
	r := newTestRoom(newFakeClock(), RoomOptions{})
	a, b := seatTwo(t, r)
	v := 0.3
	r.ApplyOverride(models.Override{RoundState: models.RoundPlaying, BallVX: &v})
	r.court.Scores.Left = 3

	r.Leave(b.ID())
	snap := r.Snapshot()
	if snap.RoundState != models.RoundWaiting || snap.Ball.VX != 0 || snap.Ball.X != 0.5 {
		t.Fatalf("snapshot after leave = %+v", snap)
	}
	if snap.Scores.Left != 3 {
		t.Fatal("scores lost on leave")
	}
	left, ok := a.last(models.EventPlayerLeave)
	if !ok || left.(models.PlayerLeft).Side != models.SlotRight {
		t.Fatalf("player:leave = %+v", left)
	}

	c := newFakePeer("c")
	if ack := r.Join(c, "C"); ack.Side != models.SlotRight {
		t.Fatalf("vacated seat not reused: %+v", ack)
	}
	if r.Info().RoundState != models.RoundCountdown {
		t.Fatal("refilled room did not restart countdown")
	}
}

func TestRoomNearMissRescue(t *testing.T) {
	x, vx, y := -0.02, -0.3, 0.9
	override := models.Override{RoundState: models.RoundPlaying, BallX: &x, BallVX: &vx, BallY: &y}

	r := newTestRoom(newFakeClock(), RoomOptions{Assist: AssistPolicy{Enabled: true, Probability: 1, MaxOvershoot: 0.05}})
	seatTwo(t, r)
	r.ApplyOverride(override)
	r.Step()
	if snap := r.Snapshot(); snap.Ball.VX <= 0 || snap.Scores.Right != 0 {
		t.Fatalf("expected rescue, got %+v", snap)
	}

	r = newTestRoom(newFakeClock(), RoomOptions{Assist: AssistPolicy{Enabled: true, Probability: 0, MaxOvershoot: 0.05}})
	seatTwo(t, r)
	r.ApplyOverride(override)
	r.Step()
	snap := r.Snapshot()
	if snap.Scores.Right != 1 || snap.RoundState != models.RoundCountdown || snap.Ball.VX != 0 {
		t.Fatalf("expected score, got %+v", snap)
	}
}

func TestRoomRestart(t *testing.T) {
	r := newTestRoom(newFakeClock(), RoomOptions{})
	a, _ := seatTwo(t, r)
	r.court.Scores = models.SlotPair[int]{Left: 4, Right: 2}

	r.Restart()
	snap := r.Snapshot()
	if snap.Scores.Left != 0 || snap.Scores.Right != 0 || snap.RoundState != models.RoundCountdown {
		t.Fatalf("after restart: %+v", snap)
	}
	if a.count(models.EventSystemRestart) != 1 {
		t.Fatal("no system:restart")
	}
}

func TestRoomClientAuthPrefersHit(t *testing.T) {
	clock := newFakeClock()
	r := newTestRoom(clock, RoomOptions{ClientAuth: true, ClientAuthWindow: 150 * time.Millisecond})
	a, b := seatTwo(t, r)

	r.ReportScore(a.ID(), report(models.SlotRight, 1.05))
	clock.Advance(10 * time.Millisecond)
	r.ReportHit(b.ID(), report(models.SlotLeft, 0.1))

	msg, ok := a.last(models.EventRectifyDecision)
	if !ok || msg.(models.RectifyDecision).Reason != models.ReasonPreferHit {
		t.Fatalf("rectifyDecision = %+v", msg)
	}
	clock.Advance(time.Second)
	r.Step()
	if a.count(models.EventScoreUpdate) != 0 {
		t.Fatal("cancelled score was committed")
	}
}

func TestRoomClientAuthScoreAfterHitRestoresHitBall(t *testing.T) {
	clock := newFakeClock()
	r := newTestRoom(clock, RoomOptions{ClientAuth: true, ClientAuthWindow: 150 * time.Millisecond})
	a, b := seatTwo(t, r)

	r.ReportHit(b.ID(), report(models.SlotLeft, 0.1))
	clock.Advance(30 * time.Millisecond)
	r.ReportScore(a.ID(), report(models.SlotRight, 1))

	msg, ok := a.last(models.EventRectifyDecision)
	if !ok {
		t.Fatal("no rectifyDecision")
	}
	decided := msg.(models.RectifyDecision).Ball
	if got := r.Snapshot().Ball; got != decided || got.X != 0.1 {
		t.Fatalf("court ball %+v, decision ball %+v", got, decided)
	}
}

func TestRoomClientAuthCommitsScoreOnce(t *testing.T) {
	clock := newFakeClock()
	r := newTestRoom(clock, RoomOptions{ClientAuth: true, ClientAuthWindow: 150 * time.Millisecond})
	a, b := seatTwo(t, r)

	r.ReportScore(a.ID(), report(models.SlotRight, 1.05))
	r.ReportScore(b.ID(), report(models.SlotRight, 1.01))
	clock.Advance(200 * time.Millisecond)
	r.Step()
	r.Step()

	if n := a.count(models.EventScoreUpdate); n != 1 {
		t.Fatalf("scoreUpdate sent %d times", n)
	}
	up, _ := b.last(models.EventScoreUpdate)
	if up.(models.ScoreUpdate).Scores.Right != 1 {
		t.Fatalf("scoreUpdate = %+v", up)
	}
}

func TestRoomClientAuthDisabledIgnoresReports(t *testing.T) {
	r := newTestRoom(newFakeClock(), RoomOptions{})
	a, _ := seatTwo(t, r)
	r.ReportHit(a.ID(), report(models.SlotLeft, 0.1))
	if a.count(models.EventRectifyDecision) != 0 {
		t.Fatal("report handled with client auth off")
	}
}

func TestRoomStartStopIdempotent(t *testing.T) {
	r := newTestRoom(newFakeClock(), RoomOptions{})
	a := newFakePeer("a")
	r.Join(a, "A")

	r.Start()
	r.Start()
	if !r.Running() {
		t.Fatal("room not running")
	}
	deadline := time.After(2 * time.Second)
	for a.count(models.EventState) == 0 {
		select {
		case <-deadline:
			t.Fatal("ticker never broadcast")
		case <-time.After(10 * time.Millisecond):
		}
	}

	r.Stop()
	r.Stop()
	if r.Running() {
		t.Fatal("room still running")
	}
	r.Start()
	if r.Running() {
		t.Fatal("stopped room restarted")
	}
}
