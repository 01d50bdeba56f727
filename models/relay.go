package models

import (
	"fmt"

	"pongo_server/utils"
)

// RelayJoinAck answers a /relay join.
type RelayJoinAck struct {
	OK     bool   `json:"ok"`
	RoomID string `json:"roomId,omitempty"`
	UserID string `json:"userId,omitempty"`
	Error  string `json:"error,omitempty"`
}

type UserLeft struct {
	UserID string `json:"userId"`
}

// SignalMeta describes an EEG producer's stream.
type SignalMeta struct {
	Channels  []string `json:"channels"`
	Srate     float64  `json:"srate"`
	Units     string   `json:"units,omitempty"`
	DeviceID  string   `json:"deviceId,omitempty"`
	SessionID string   `json:"sessionId"`
	T0        int64    `json:"t0"`
}

type HelloAck struct {
	OK        bool        `json:"ok"`
	SessionID string      `json:"sessionId,omitempty"`
	Meta      *SignalMeta `json:"meta,omitempty"`
	Error     string      `json:"error,omitempty"`
}

type ObserveAck struct {
	OK    bool        `json:"ok"`
	Meta  *SignalMeta `json:"meta"`
	Error string      `json:"error,omitempty"`
}

// SignalSample is one fan-out packet on the EEG namespace.
type SignalSample struct {
	T       float64     `json:"t"`
	Samples interface{} `json:"samples"`
	Seq     interface{} `json:"seq,omitempty"`
}

// MaxSamplesPerPacket guards fan-out of absurd payloads.
const MaxSamplesPerPacket = 1_000_000

// MaxChunkBytes bounds a binary eeg:chunk.
const MaxChunkBytes = 2 << 20

// ParseHello validates producer metadata; channels[] and srate are required.
// sessionID is used when the payload does not name one.
func ParseHello(payload map[string]interface{}, sessionID string) (SignalMeta, error) {
	meta := SignalMeta{SessionID: sessionID}
	if payload == nil {
		return meta, fmt.Errorf("invalid hello: requires channels[] and srate")
	}
	if raw, ok := payload["channels"].([]interface{}); ok {
		for _, c := range raw {
			if s, ok := utils.ToString(c); ok {
				meta.Channels = append(meta.Channels, s)
			}
		}
	}
	srate, ok := utils.ToFloat(payload["srate"])
	if len(meta.Channels) == 0 || !ok || srate <= 0 {
		return meta, fmt.Errorf("invalid hello: requires channels[] and srate")
	}
	meta.Srate = srate
	meta.Units, _ = payload["units"].(string)
	meta.DeviceID, _ = utils.ToString(payload["deviceId"])
	if id, ok := utils.ToString(payload["sessionId"]); ok && id != "" {
		meta.SessionID = id
	}
	return meta, nil
}
