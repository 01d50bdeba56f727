package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"pongo_server/models"
)

// EncodeSnapshot builds the wire snapshot broadcast after every tick.
func EncodeSnapshot(c Court, lastSeq models.SlotPair[int64], now time.Time) models.Snapshot {
	return models.Snapshot{
		T:          now.UnixMilli(),
		Paddles:    c.Paddles,
		Ball:       c.Ball,
		Scores:     c.Scores,
		RoundState: c.RoundState,
		RoundTimer: c.RoundTimer,
		LastSeq:    lastSeq,
	}
}

// EncodeRectify builds the per-player baseline for slot.
func EncodeRectify(c Court, slot models.Slot, ackSeq int64, now time.Time) models.Rectify {
	return models.Rectify{
		T:      now.UnixMilli(),
		Side:   slot,
		AckSeq: ackSeq,
		SelfY:  c.Paddles.Get(slot),
		OppY:   c.Paddles.Get(slot.Opponent()),
	}
}

// FrameFormat selects the raw websocket spectator encoding.
type FrameFormat string

const (
	FormatJSON    FrameFormat = "json"
	FormatMsgpack FrameFormat = "msgpack"
)

// ParseFrameFormat defaults to JSON.
func ParseFrameFormat(s string) (FrameFormat, error) {
	switch FrameFormat(s) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatMsgpack:
		return FormatMsgpack, nil
	}
	return "", fmt.Errorf("unknown frame format %q", s)
}

// Frame wraps one event for raw websocket spectators.
type Frame struct {
	Event string      `json:"event" msgpack:"event"`
	Data  interface{} `json:"data" msgpack:"data"`
}

// EncodeFrame serialises an event. binary is true for msgpack frames.
func EncodeFrame(format FrameFormat, event string, payload interface{}) (data []byte, binary bool, err error) {
	frame := Frame{Event: event, Data: payload}
	switch format {
	case FormatMsgpack:
		var buf bytes.Buffer
		enc := msgpack.NewEncoder(&buf)
		// Payload structs carry json tags; reuse them as msgpack keys.
		enc.SetCustomStructTag("json")
		if err = enc.Encode(&frame); err != nil {
			return nil, false, fmt.Errorf("failed to encode msgpack frame %q: %w", event, err)
		}
		return buf.Bytes(), true, nil
	default:
		data, err = json.Marshal(frame)
		if err != nil {
			return nil, false, fmt.Errorf("failed to encode json frame %q: %w", event, err)
		}
		return data, false, nil
	}
}
