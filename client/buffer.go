package client

import (
	"math"

	"pongo_server/models"
	"pongo_server/utils"
)

// SnapshotBuffer keeps the most recent server snapshots in time order.
type SnapshotBuffer struct {
	capacity int
	items    []models.Snapshot
}

func NewSnapshotBuffer(capacity int) *SnapshotBuffer {
	if capacity < 2 {
		capacity = 2
	}
	return &SnapshotBuffer{capacity: capacity, items: make([]models.Snapshot, 0, capacity)}
}

// Push appends s, dropping it if it is not newer than the latest snapshot.
// The oldest entries are discarded beyond capacity.
func (b *SnapshotBuffer) Push(s models.Snapshot) bool {
	if n := len(b.items); n > 0 && s.T <= b.items[n-1].T {
		return false
	}
	b.items = append(b.items, s)
	if over := len(b.items) - b.capacity; over > 0 {
		b.items = append(b.items[:0], b.items[over:]...)
	}
	return true
}

func (b *SnapshotBuffer) Len() int {
	return len(b.items)
}

func (b *SnapshotBuffer) Latest() (models.Snapshot, bool) {
	if len(b.items) == 0 {
		return models.Snapshot{}, false
	}
	return b.items[len(b.items)-1], true
}

func (b *SnapshotBuffer) Clear() {
	b.items = b.items[:0]
}

// Bracket returns the adjacent pair straddling target. Outside the buffered
// span it returns the first and last snapshots, which Interpolate clamps to
// the nearest end.
func (b *SnapshotBuffer) Bracket(target float64) (models.Snapshot, models.Snapshot, bool) {
	n := len(b.items)
	if n == 0 {
		return models.Snapshot{}, models.Snapshot{}, false
	}
	for i := 0; i < n-1; i++ {
		if float64(b.items[i].T) <= target && target <= float64(b.items[i+1].T) {
			return b.items[i], b.items[i+1], true
		}
	}
	first, last := b.items[0], b.items[n-1]
	if target < float64(first.T) {
		return first, first, true
	}
	return last, last, true
}

// Interpolate blends two snapshots at tRender. Continuous fields are lerped
// with a = clamp((tRender-t0)/(t1-t0), 0, 1); scores, round state and
// sequence acks come from the nearer snapshot.
func Interpolate(s0, s1 models.Snapshot, t0, t1, tRender float64) models.Snapshot {
	span := math.Max(1, t1-t0)
	a := utils.Clamp01((tRender - t0) / span)
	lerp := func(x0, x1 float64) float64 { return utils.Lerp(x0, x1, a) }

	out := s0
	if a >= 0.5 {
		out = s1
	}
	out.T = int64(math.Round(lerp(t0, t1)))
	out.Paddles = models.SlotPair[float64]{
		Left:  lerp(s0.Paddles.Left, s1.Paddles.Left),
		Right: lerp(s0.Paddles.Right, s1.Paddles.Right),
	}
	out.Ball = models.Ball{
		X:  lerp(s0.Ball.X, s1.Ball.X),
		Y:  lerp(s0.Ball.Y, s1.Ball.Y),
		VX: lerp(s0.Ball.VX, s1.Ball.VX),
		VY: lerp(s0.Ball.VY, s1.Ball.VY),
	}
	out.RoundTimer = lerp(s0.RoundTimer, s1.RoundTimer)
	return out
}
