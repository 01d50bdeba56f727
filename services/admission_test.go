package services

import (
	"testing"
	"time"

	"pongo_server/models"
)

func TestAdmissionBurstThenRate(t *testing.T) {
	clock := newFakeClock()
	a := NewAdmission(20, 10, 100)

	accepted := 0
	for seq := int64(1); seq <= 30; seq++ {
		if ok, _ := a.AdmitSequenced(seq, 1, clock.Now()); ok {
			accepted++
		}
	}
	if accepted != 10 {
		t.Fatalf("accepted %d inputs from a full bucket of 10", accepted)
	}
	if d := a.Drops(); d.Rate != 20 {
		t.Fatalf("rate drops = %d, want 20", d.Rate)
	}

	clock.Advance(500 * time.Millisecond)
	refilled := 0
	for seq := int64(31); seq <= 60; seq++ {
		if ok, _ := a.AdmitSequenced(seq, 1, clock.Now()); ok {
			refilled++
		}
	}
	if refilled != 10 {
		t.Fatalf("accepted %d after 500ms at 20/s, want 10", refilled)
	}
}

func TestAdmissionRejectsStaleBeforeSpendingTokens(t *testing.T) {
	now := newFakeClock().Now()
	a := NewAdmission(20, 2, 8)

	if ok, _ := a.AdmitSequenced(5, 1, now); !ok {
		t.Fatal("first input rejected")
	}
	for _, seq := range []int64{5, 3, 1} {
		if ok, reason := a.AdmitSequenced(seq, 1, now); ok || reason != models.DropStale {
			t.Fatalf("seq %d: ok=%v reason=%q", seq, ok, reason)
		}
	}
	if ok, _ := a.AdmitSequenced(6, -1, now); !ok {
		t.Fatal("stale rejections consumed tokens")
	}
	if a.LastSeq() != 6 {
		t.Fatalf("lastSeq = %d", a.LastSeq())
	}
}

func TestAdmissionQueueBound(t *testing.T) {
	now := newFakeClock().Now()
	a := NewAdmission(1000, 1000, 3)
	for seq := int64(1); seq <= 5; seq++ {
		a.AdmitSequenced(seq, 1, now)
	}
	if a.Pending() != 3 {
		t.Fatalf("pending = %d", a.Pending())
	}
	if d := a.Drops(); d.Queue != 2 {
		t.Fatalf("queue drops = %d", d.Queue)
	}
	if a.LastSeq() != 3 {
		t.Fatalf("lastSeq advanced past dropped inputs: %d", a.LastSeq())
	}

	moves := a.Drain()
	if len(moves) != 3 || a.Pending() != 0 {
		t.Fatalf("drain returned %v, pending %d", moves, a.Pending())
	}
	if a.Drain() != nil {
		t.Fatal("second drain should be empty")
	}
}

func TestAdmissionUnsequencedSharesBucket(t *testing.T) {
	now := newFakeClock().Now()
	a := NewAdmission(20, 3, 8)
	for i := 0; i < 3; i++ {
		if ok, _ := a.AdmitUnsequenced(now); !ok {
			t.Fatalf("input %d rejected", i)
		}
	}
	if ok, reason := a.AdmitUnsequenced(now); ok || reason != models.DropRate {
		t.Fatalf("ok=%v reason=%q", ok, reason)
	}
	if ok, _ := a.AdmitSequenced(1, 1, now); ok {
		t.Fatal("sequenced input got a token from an empty bucket")
	}
}

func TestAssistPolicy(t *testing.T) {
	rng := testRand()
	off := AssistPolicy{Probability: 1, MaxOvershoot: 0.05}
	if off.Rescue(0.01, rng) {
		t.Fatal("disabled policy rescued")
	}
	on := AssistPolicy{Enabled: true, Probability: 1, MaxOvershoot: 0.05}
	if !on.Rescue(0.05, rng) {
		t.Fatal("overshoot at the threshold not rescued")
	}
	if on.Rescue(0.051, rng) {
		t.Fatal("overshoot past the threshold rescued")
	}
	on.Probability = 0
	if on.Rescue(0.01, rng) {
		t.Fatal("zero probability rescued")
	}
}
