package services

import (
	"math/rand"
	"sync"
	"time"
)

type emitted struct {
	event   string
	payload interface{}
}

type fakePeer struct {
	id string

	mu     sync.Mutex
	events []emitted
}

func newFakePeer(id string) *fakePeer {
	return &fakePeer{id: id}
}

func (f *fakePeer) ID() string { return f.id }

func (f *fakePeer) Emit(event string, args ...interface{}) {
	var payload interface{}
	if len(args) > 0 {
		payload = args[0]
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, emitted{event: event, payload: payload})
}

func (f *fakePeer) count(event string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.events {
		if e.event == event {
			n++
		}
	}
	return n
}

func (f *fakePeer) last(event string) (interface{}, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.events) - 1; i >= 0; i-- {
		if f.events[i].event == event {
			return f.events[i].payload, true
		}
	}
	return nil, false
}

// stalledPeer blocks in Emit until release is closed, like a socket.io
// connection whose writer is stuck.
type stalledPeer struct {
	id      string
	release chan struct{}
}

func newStalledPeer(id string) *stalledPeer {
	return &stalledPeer{id: id, release: make(chan struct{})}
}

func (p *stalledPeer) ID() string { return p.id }

func (p *stalledPeer) Emit(string, ...interface{}) {
	<-p.release
}

func (p *stalledPeer) unblock() {
	close(p.release)
}

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func testRand() *rand.Rand {
	return rand.New(rand.NewSource(42))
}
