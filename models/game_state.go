package models

// SlotPair holds one value per seat, serialized as {"left":…, "right":…}.
type SlotPair[T any] struct {
	Left  T `json:"left" msgpack:"left"`
	Right T `json:"right" msgpack:"right"`
}

// Get returns the value for slot; the zero value for SlotNone.
func (p SlotPair[T]) Get(slot Slot) T {
	switch slot {
	case SlotLeft:
		return p.Left
	case SlotRight:
		return p.Right
	}
	var zero T
	return zero
}

// Set stores v for slot. SlotNone is ignored.
func (p *SlotPair[T]) Set(slot Slot, v T) {
	switch slot {
	case SlotLeft:
		p.Left = v
	case SlotRight:
		p.Right = v
	}
}

// Ball position and velocity in normalized units (per second for velocity).
type Ball struct {
	X  float64 `json:"x" msgpack:"x"`
	Y  float64 `json:"y" msgpack:"y"`
	VX float64 `json:"vx" msgpack:"vx"`
	VY float64 `json:"vy" msgpack:"vy"`
}

// Snapshot is one broadcast of complete room state, stamped with server time
// in Unix milliseconds.
type Snapshot struct {
	T          int64             `json:"t" msgpack:"t"`
	Paddles    SlotPair[float64] `json:"paddles" msgpack:"paddles"`
	Ball       Ball              `json:"ball" msgpack:"ball"`
	Scores     SlotPair[int]     `json:"scores" msgpack:"scores"`
	RoundState string            `json:"roundState" msgpack:"roundState"`
	RoundTimer float64           `json:"roundTimer" msgpack:"roundTimer"`
	LastSeq    SlotPair[int64]   `json:"lastSeq" msgpack:"lastSeq"`
}

// Rectify is the per-player authoritative baseline sent every tick.
type Rectify struct {
	T      int64   `json:"t"`
	Side   Slot    `json:"side"`
	AckSeq int64   `json:"ackSeq"`
	SelfY  float64 `json:"selfY"`
	OppY   float64 `json:"oppY"`
}

// JoinAck answers a /game join.
type JoinAck struct {
	OK          bool   `json:"ok"`
	PlayerID    string `json:"playerId,omitempty"`
	RoomID      string `json:"roomId,omitempty"`
	Side        Slot   `json:"side"`
	Role        string `json:"role,omitempty"`
	MaxPlayers  int    `json:"maxPlayers,omitempty"`
	PlayerCount int    `json:"playerCount"`
	Error       string `json:"error,omitempty"`
}

// Ack is the generic {ok, error} reply.
type Ack struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type PlayerJoined struct {
	PlayerID string `json:"playerId"`
	Side     Slot   `json:"side"`
	Name     string `json:"name"`
}

type PlayerLeft struct {
	PlayerID string `json:"playerId"`
	Side     Slot   `json:"side"`
}

// InputEcho relays a legacy input to the other occupants so they can animate
// before the next snapshot.
type InputEcho struct {
	Side    Slot    `json:"side"`
	PaddleY float64 `json:"paddleY"`
	Dir     string  `json:"dir,omitempty"`
}

// TimeReply answers the time sync RPC.
type TimeReply struct {
	ServerNow int64   `json:"serverNow"`
	C0        float64 `json:"c0,omitempty"`
}

// RectifyDecision announces that a client-reported hit overrode a score.
type RectifyDecision struct {
	T      int64  `json:"t"`
	Reason string `json:"reason"`
	Ball   Ball   `json:"ball"`
}

type ScoreUpdate struct {
	For    Slot          `json:"for"`
	Scores SlotPair[int] `json:"scores"`
}

// RoomInfo is returned by GET /game/rooms.
type RoomInfo struct {
	RoomID     string `json:"roomId"`
	InstanceID string `json:"instanceId"`
	Players    int    `json:"players"`
	Spectators int    `json:"spectators"`
	MaxPlayers int    `json:"maxPlayers"`
	RoundState string `json:"roundState"`
}

// GameConfig is served at GET /game/config.
type GameConfig struct {
	TickRate          int     `json:"TICK_RATE"`
	PaddleSpeed       float64 `json:"PADDLE_SPEED"`
	PaddleHeight      float64 `json:"PADDLE_HEIGHT"`
	PaddleWidth       float64 `json:"PADDLE_WIDTH"`
	BallRadius        float64 `json:"BALL_RADIUS"`
	InputsPerSec      int     `json:"INPUTS_PER_SEC"`
	InputBurst        int     `json:"INPUT_BURST"`
	MaxInputQueue     int     `json:"MAX_INPUT_QUEUE"`
	DefaultMaxPlayers int     `json:"DEFAULT_MAX_PLAYERS"`
	CountdownSeconds  float64 `json:"COUNTDOWN_SECONDS"`
	BallInitialSpeed  float64 `json:"BALL_INITIAL_SPEED"`
	BallMaxSpeed      float64 `json:"BALL_MAX_SPEED"`
}

// DefaultGameConfig mirrors the server constants.
func DefaultGameConfig() GameConfig {
	return GameConfig{
		TickRate:          TickRate,
		PaddleSpeed:       PaddleSpeed,
		PaddleHeight:      PaddleHeight,
		PaddleWidth:       PaddleWidth,
		BallRadius:        BallRadius,
		InputsPerSec:      InputsPerSec,
		InputBurst:        InputBurst,
		MaxInputQueue:     MaxInputQueue,
		DefaultMaxPlayers: DefaultMaxPlayers,
		CountdownSeconds:  CountdownSeconds,
		BallInitialSpeed:  BallInitialSpeed,
		BallMaxSpeed:      BallMaxSpeed,
	}
}
