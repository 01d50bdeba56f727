package services

import (
	"time"

	"pongo_server/models"
)

// VerdictKind is the outcome of a client-authoritative report.
type VerdictKind int

const (
	VerdictNone VerdictKind = iota
	VerdictHit
	VerdictPreferHit
	VerdictCommitScore
)

// Verdict tells the room what to apply after a report or window expiry.
type Verdict struct {
	Kind VerdictKind
	Side models.Slot
	Ball models.Ball
	// Reports counts the agreeing score reports merged into a commit.
	Reports int
}

type pendingScore struct {
	side    models.Slot
	at      time.Time
	reports int
}

// Arbiter settles client-reported hit and score events. A score is held for
// window; a hit inside that window cancels it. Not safe for concurrent use.
type Arbiter struct {
	window  time.Duration
	pending *pendingScore
	lastHit time.Time
	hitBall models.Ball
	hasHit  bool
}

func NewArbiter(window time.Duration) *Arbiter {
	return &Arbiter{window: window}
}

// ReportHit records a hit. It overrides a pending score within the window.
func (a *Arbiter) ReportHit(r models.ClientReport, now time.Time) Verdict {
	a.lastHit, a.hitBall, a.hasHit = now, r.Ball, true
	if a.pending != nil && now.Sub(a.pending.at) <= a.window {
		a.pending = nil
		return Verdict{Kind: VerdictPreferHit, Side: r.Side, Ball: r.Ball}
	}
	return Verdict{Kind: VerdictHit, Side: r.Side, Ball: r.Ball}
}

// ReportScore opens, or joins, a pending score. A score reported right after
// a hit is rejected in the hit's favour.
func (a *Arbiter) ReportScore(r models.ClientReport, now time.Time) Verdict {
	if a.hasHit && now.Sub(a.lastHit) <= a.window {
		return Verdict{Kind: VerdictPreferHit, Side: r.Side, Ball: a.hitBall}
	}
	if a.pending != nil {
		if a.pending.side == r.Side {
			a.pending.reports++
		}
		return Verdict{}
	}
	a.pending = &pendingScore{side: r.Side, at: now, reports: 1}
	return Verdict{}
}

// Expire commits a pending score once its window has elapsed.
func (a *Arbiter) Expire(now time.Time) Verdict {
	if a.pending == nil || now.Sub(a.pending.at) <= a.window {
		return Verdict{}
	}
	p := a.pending
	a.pending = nil
	return Verdict{Kind: VerdictCommitScore, Side: p.side, Reports: p.reports}
}

// Reset discards pending state, e.g. on restart.
func (a *Arbiter) Reset() {
	a.pending = nil
	a.hasHit = false
}
