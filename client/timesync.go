package client

import "math"

// DefaultSyncAlpha weights each new offset estimate.
const DefaultSyncAlpha = 0.3

// TimeSync estimates serverClock - localClock in milliseconds from time RPC
// round trips. The offset only maps snapshot times onto the local clock.
type TimeSync struct {
	Alpha float64

	offset  float64
	rtt     float64
	samples int
}

func NewTimeSync() *TimeSync {
	return &TimeSync{Alpha: DefaultSyncAlpha}
}

// Sample folds one round trip into the offset: localSend and localRecv
// bracket the request, serverNow is the server's reply. The first sample
// seeds the estimate directly.
func (ts *TimeSync) Sample(localSend, localRecv, serverNow float64) float64 {
	rtt := math.Max(0, localRecv-localSend)
	estimate := serverNow - (localSend + rtt/2)
	ts.rtt = rtt
	if ts.samples == 0 {
		ts.offset = estimate
	} else {
		ts.offset = (1-ts.Alpha)*ts.offset + ts.Alpha*estimate
	}
	ts.samples++
	return ts.offset
}

func (ts *TimeSync) Offset() float64 {
	return ts.offset
}

func (ts *TimeSync) RTT() float64 {
	return ts.rtt
}

func (ts *TimeSync) Synced() bool {
	return ts.samples > 0
}

// ServerNow maps a local clock reading onto the server clock.
func (ts *TimeSync) ServerNow(local float64) float64 {
	return local + ts.offset
}

// Reset forgets every sample, e.g. after a reconnect.
func (ts *TimeSync) Reset() {
	ts.offset, ts.rtt, ts.samples = 0, 0, 0
}
