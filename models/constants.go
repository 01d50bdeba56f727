package models

// Round states
const (
	RoundWaiting   = "waiting"
	RoundCountdown = "countdown"
	RoundPlaying   = "playing"
)

// Roles handed out on join
const (
	RolePlayer    = "player"
	RoleSpectator = "spectator"
)

// Slot is one of the competitive positions in a room.
type Slot string

const (
	SlotNone  Slot = ""
	SlotLeft  Slot = "left"
	SlotRight Slot = "right"
)

// Slots lists seatable positions in assignment order.
var Slots = []Slot{SlotLeft, SlotRight}

// Opponent returns the slot facing s.
func (s Slot) Opponent() Slot {
	switch s {
	case SlotLeft:
		return SlotRight
	case SlotRight:
		return SlotLeft
	}
	return SlotNone
}

// Gameplay tunables in normalized court units. Clients read them from
// GET /game/config rather than hardcoding.
const (
	TickRate          = 30
	PaddleHeight      = 0.2
	PaddleWidth       = 0.2
	PaddleHalfExtent  = PaddleHeight / 2
	PaddleSpeed       = 0.5
	BallRadius        = 0.015
	BallInitialSpeed  = 0.4
	BallSpeedGrowth   = 1.05
	BallMaxSpeed      = 1.5
	ServeSpread       = 0.2
	SpinFactor        = 0.25
	CountdownSeconds  = 3.0
	LeftDefenseLine   = 0.05
	RightDefenseLine  = 0.95
	InputsPerSec      = 20
	InputBurst        = 10
	MaxInputQueue     = 8
	DefaultMaxPlayers = 2
	LegacyStep        = 0.04
)

// Socket.io namespaces
const (
	NamespaceRoot  = "/"
	NamespaceGame  = "/game"
	NamespaceRelay = "/relay"
	NamespaceEEG   = "/eeg"
)

// Event names
const (
	EventJoin            = "join"
	EventInput           = "input"
	EventState           = "state"
	EventRectify         = "rectify"
	EventTime            = "time"
	EventRestart         = "game:restart"
	EventSystemRestart   = "system:restart"
	EventTestSet         = "test:set"
	EventPlayerJoin      = "player:join"
	EventPlayerLeave     = "player:leave"
	EventHit             = "hit"
	EventScore           = "score"
	EventRectifyDecision = "rectifyDecision"
	EventScoreUpdate     = "scoreUpdate"
	EventClientLog       = "client:log"
	EventUserLeave       = "user:leave"
	EventPing            = "ping"
	EventPong            = "pong"
	EventHello           = "hello"
	EventMeta            = "meta"
	EventSample          = "eeg:sample"
	EventChunk           = "eeg:chunk"
	EventObserve         = "observe"
)

// Reasons attached to dropped inputs
const (
	DropRate   = "rate"
	DropStale  = "stale"
	DropQueue  = "queue"
	DropFormat = "format"
)

// ReasonPreferHit is sent with rectifyDecision when a client-reported hit
// overrides a conflicting score report.
const ReasonPreferHit = "prefer_hit_over_score"
