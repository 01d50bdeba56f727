package models

import (
	"errors"
	"fmt"
	"strings"

	"pongo_server/utils"
)

var (
	ErrInvalidJoin  = errors.New("bad join payload")
	ErrInvalidInput = errors.New("bad input payload")
)

// JoinRequest is the validated form of a /game or /relay join payload.
type JoinRequest struct {
	RoomID     string
	Name       string
	MaxPlayers int
}

// ParseJoin validates a join payload. roomId is required; name defaults to
// "anon"; maxPlayers is optional and only honoured by the room's creator.
func ParseJoin(payload map[string]interface{}) (JoinRequest, error) {
	if payload == nil {
		return JoinRequest{}, fmt.Errorf("%w: empty payload", ErrInvalidJoin)
	}
	roomID, ok := utils.ToString(payload["roomId"])
	roomID = strings.TrimSpace(roomID)
	if !ok || roomID == "" {
		return JoinRequest{}, fmt.Errorf("%w: missing roomId", ErrInvalidJoin)
	}
	req := JoinRequest{RoomID: roomID, Name: "anon"}
	if name, ok := utils.ToString(payload["name"]); ok && strings.TrimSpace(name) != "" {
		req.Name = strings.TrimSpace(name)
	}
	if mp, ok := utils.ToFloat(payload["maxPlayers"]); ok && mp >= 1 {
		req.MaxPlayers = int(mp)
	}
	return req, nil
}

// InputKind tags the variants of Input.
type InputKind int

const (
	InputSequencedMove InputKind = iota + 1
	InputAbsolute
	InputLegacyDirectional
)

func (k InputKind) String() string {
	switch k {
	case InputSequencedMove:
		return "move"
	case InputAbsolute:
		return "absolute"
	case InputLegacyDirectional:
		return "legacy"
	}
	return "unknown"
}

// Input is the canonical paddle input. Only the fields of its Kind are set:
//
//	InputSequencedMove:     Seq, Direction
//	InputAbsolute:          Position
//	InputLegacyDirectional: Direction, Step, Dir
type Input struct {
	Kind      InputKind
	Seq       int64
	Direction float64
	Position  float64
	Step      float64
	Dir       string
}

// ParseDirection maps a direction word onto the paddle axis. up/left move
// toward 0, down/right toward 1.
func ParseDirection(v interface{}) (float64, string, bool) {
	s, ok := v.(string)
	if !ok {
		return 0, "", false
	}
	d := strings.ToLower(strings.TrimSpace(s))
	switch d {
	case "up", "left":
		return -1, d, true
	case "down", "right":
		return 1, d, true
	}
	return 0, d, false
}

// ParseInput converts one of the three wire shapes into an Input:
//
//	{action:"move", direction, seq}   sequenced, queued, rate limited
//	{paddleY|paddleX: number}         absolute, clamped, not rate limited
//	{dir, step?}                      legacy directional, rate limited
func ParseInput(payload map[string]interface{}) (Input, error) {
	if payload == nil {
		return Input{}, fmt.Errorf("%w: empty payload", ErrInvalidInput)
	}

	if action, _ := payload["action"].(string); action == "move" {
		dir, _, ok := ParseDirection(payload["direction"])
		if !ok {
			return Input{}, fmt.Errorf("%w: bad direction", ErrInvalidInput)
		}
		seq, ok := utils.ToFloat(payload["seq"])
		if !ok || seq < 1 || seq != float64(int64(seq)) {
			return Input{}, fmt.Errorf("%w: bad seq", ErrInvalidInput)
		}
		return Input{Kind: InputSequencedMove, Seq: int64(seq), Direction: dir}, nil
	}

	if raw, present := payload["dir"]; present {
		dir, word, ok := ParseDirection(raw)
		if !ok {
			return Input{}, fmt.Errorf("%w: bad dir %q", ErrInvalidInput, word)
		}
		step, ok := utils.ToFloat(payload["step"])
		if !ok || step < 0 {
			step = LegacyStep
		}
		return Input{Kind: InputLegacyDirectional, Direction: dir, Step: step, Dir: word}, nil
	}

	for _, key := range []string{"paddleY", "paddleX"} {
		raw, present := payload[key]
		if !present {
			continue
		}
		pos, ok := utils.ToFloat(raw)
		if !ok {
			return Input{}, fmt.Errorf("%w: non-finite %s", ErrInvalidInput, key)
		}
		return Input{Kind: InputAbsolute, Position: pos}, nil
	}

	return Input{}, fmt.Errorf("%w: unrecognised shape", ErrInvalidInput)
}

// Override is the test-only state injection accepted on test:set.
type Override struct {
	RoundState string
	BallX      *float64
	BallY      *float64
	BallVX     *float64
	BallVY     *float64
}

func ParseOverride(payload map[string]interface{}) (Override, error) {
	var o Override
	if payload == nil {
		return o, fmt.Errorf("%w: empty override", ErrInvalidInput)
	}
	if rs, ok := payload["roundState"].(string); ok {
		switch rs {
		case RoundWaiting, RoundCountdown, RoundPlaying:
			o.RoundState = rs
		default:
			return o, fmt.Errorf("%w: unknown roundState %q", ErrInvalidInput, rs)
		}
	}
	if ball, ok := payload["ball"].(map[string]interface{}); ok {
		o.BallX = optionalFloat(ball, "x")
		o.BallY = optionalFloat(ball, "y")
		o.BallVX = optionalFloat(ball, "vx")
		o.BallVY = optionalFloat(ball, "vy")
	}
	return o, nil
}

func optionalFloat(m map[string]interface{}, key string) *float64 {
	if f, ok := utils.ToFloat(m[key]); ok {
		return &f
	}
	return nil
}

// ClientReport is a client-authoritative hit or score claim.
type ClientReport struct {
	T    float64
	Side Slot
	Ball Ball
}

// ParseReport reads {t, <sideKey>, ball{x,y,vx,vy}}; sideKey is "sideHit" for
// hits and "for" for scores.
func ParseReport(payload map[string]interface{}, sideKey string) (ClientReport, error) {
	var r ClientReport
	if payload == nil {
		return r, fmt.Errorf("%w: empty report", ErrInvalidInput)
	}
	side, _ := payload[sideKey].(string)
	switch Slot(side) {
	case SlotLeft, SlotRight:
		r.Side = Slot(side)
	default:
		return r, fmt.Errorf("%w: bad %s", ErrInvalidInput, sideKey)
	}
	r.T, _ = utils.ToFloat(payload["t"])
	ball, ok := payload["ball"].(map[string]interface{})
	if !ok {
		return r, fmt.Errorf("%w: missing ball", ErrInvalidInput)
	}
	x, okX := utils.ToFloat(ball["x"])
	y, okY := utils.ToFloat(ball["y"])
	if !okX || !okY {
		return r, fmt.Errorf("%w: bad ball position", ErrInvalidInput)
	}
	vx, _ := utils.ToFloat(ball["vx"])
	vy, _ := utils.ToFloat(ball["vy"])
	r.Ball = Ball{X: utils.Clamp01(x), Y: utils.Clamp01(y), VX: vx, VY: vy}
	return r, nil
}
