package services

import (
	"time"

	"golang.org/x/time/rate"

	"pongo_server/models"
)

// DropCounts tallies silently dropped inputs for one player.
type DropCounts struct {
	Rate  int `json:"rate"`
	Stale int `json:"stale"`
	Queue int `json:"queue"`
}

// Admission gates one seated player's inputs: a lazily refilled token bucket,
// a monotonic sequence filter and a bounded queue drained by the room tick.
// Not safe for concurrent use; the owning Room serialises access.
type Admission struct {
	limiter  *rate.Limiter
	lastSeq  int64
	queue    []float64
	maxQueue int
	drops    DropCounts
}

// NewAdmission creates a gate whose bucket starts full.
func NewAdmission(perSec float64, burst, maxQueue int) *Admission {
	return &Admission{
		limiter:  rate.NewLimiter(rate.Limit(perSec), burst),
		queue:    make([]float64, 0, maxQueue),
		maxQueue: maxQueue,
	}
}

// NewDefaultAdmission uses the published INPUTS_PER_SEC / INPUT_BURST / MAX_INPUT_QUEUE.
func NewDefaultAdmission() *Admission {
	return NewAdmission(models.InputsPerSec, models.InputBurst, models.MaxInputQueue)
}

// AdmitSequenced queues a move if seq is new, the queue has room and a token
// is available. lastSeq advances on acceptance, before the move is simulated.
// The returned reason is empty on acceptance.
func (a *Admission) AdmitSequenced(seq int64, direction float64, now time.Time) (bool, string) {
	if seq <= a.lastSeq {
		a.drops.Stale++
		return false, models.DropStale
	}
	if len(a.queue) >= a.maxQueue {
		a.drops.Queue++
		return false, models.DropQueue
	}
	if !a.limiter.AllowN(now, 1) {
		a.drops.Rate++
		return false, models.DropRate
	}
	a.lastSeq = seq
	a.queue = append(a.queue, direction)
	return true, ""
}

// AdmitUnsequenced spends one token for a legacy directional input.
func (a *Admission) AdmitUnsequenced(now time.Time) (bool, string) {
	if !a.limiter.AllowN(now, 1) {
		a.drops.Rate++
		return false, models.DropRate
	}
	return true, ""
}

// Drain returns the queued directions and empties the queue.
func (a *Admission) Drain() []float64 {
	if len(a.queue) == 0 {
		return nil
	}
	out := make([]float64, len(a.queue))
	copy(out, a.queue)
	a.queue = a.queue[:0]
	return out
}

func (a *Admission) LastSeq() int64 {
	return a.lastSeq
}

func (a *Admission) Pending() int {
	return len(a.queue)
}

func (a *Admission) Drops() DropCounts {
	return a.drops
}
