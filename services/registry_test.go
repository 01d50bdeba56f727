package services

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"pongo_server/models"
)

func newTestRegistry() *RoomRegistry {
	clock := newFakeClock()
	return NewRoomRegistry(RoomOptions{Now: clock.Now, Rand: testRand(), Metrics: NewMetrics()})
}

func TestRegistryJoinCreatesAndStarts(t *testing.T) {
	g := newTestRegistry()
	defer g.Close()

	r, ack := g.Join("R", 0, newFakePeer("a"), "A")
	if !ack.OK || ack.RoomID != "R" || ack.Side != models.SlotLeft {
		t.Fatalf("ack = %+v", ack)
	}
	if !r.Running() {
		t.Fatal("room ticker not started on first join")
	}
	again, _ := g.Join("R", 1, newFakePeer("b"), "B")
	if again != r {
		t.Fatal("second join created a new room")
	}
	if r.MaxPlayers() != models.DefaultMaxPlayers {
		t.Fatalf("later joiner changed maxPlayers to %d", r.MaxPlayers())
	}
}

func TestRegistryCreatorSetsMaxPlayers(t *testing.T) {
	g := newTestRegistry()
	defer g.Close()
	r := g.GetOrCreate("solo", 1)
	if r.MaxPlayers() != 1 {
		t.Fatalf("maxPlayers = %d", r.MaxPlayers())
	}
	if r := g.GetOrCreate("big", 9); r.MaxPlayers() != models.DefaultMaxPlayers {
		t.Fatalf("oversized maxPlayers kept: %d", r.MaxPlayers())
	}
}

func TestRegistryLastLeaveDestroysRoom(t *testing.T) {
	g := newTestRegistry()
	defer g.Close()

	a, b := newFakePeer("a"), newFakePeer("b")
	r, _ := g.Join("R", 0, a, "A")
	g.Join("R", 0, b, "B")

	g.Leave(r, a.ID())
	if _, ok := g.Get("R"); !ok {
		t.Fatal("room destroyed with an occupant left")
	}
	g.Leave(r, b.ID())
	if _, ok := g.Get("R"); ok {
		t.Fatal("empty room still registered")
	}
	if r.Running() {
		t.Fatal("empty room still ticking")
	}

	fresh, _ := g.Join("R", 0, newFakePeer("c"), "C")
	if fresh == r || fresh.InstanceID == r.InstanceID {
		t.Fatal("destroyed room was reused")
	}
}

func TestRegistryRepeatedJoinLeave(t *testing.T) {
	g := newTestRegistry()
	defer g.Close()
	for i := 0; i < 20; i++ {
		p := newFakePeer("p")
		r, _ := g.Join("R", 0, p, "P")
		g.Leave(r, p.ID())
	}
	if g.Len() != 0 {
		t.Fatalf("rooms left behind: %d", g.Len())
	}
}

func TestRegistryWatchAndList(t *testing.T) {
	g := newTestRegistry()
	defer g.Close()

	if _, ok := g.Watch("nope", newFakePeer("w")); ok {
		t.Fatal("watched a room that does not exist")
	}
	g.Join("b-room", 0, newFakePeer("a"), "A")
	g.Join("a-room", 0, newFakePeer("b"), "B")
	if _, ok := g.Watch("b-room", newFakePeer("w")); !ok {
		t.Fatal("watch failed")
	}

	list := g.List()
	if len(list) != 2 || list[0].RoomID != "a-room" {
		t.Fatalf("list = %+v", list)
	}
	if list[1].Spectators != 1 || list[1].Players != 1 {
		t.Fatalf("b-room info = %+v", list[1])
	}
}

func TestRegistryCloseStopsRooms(t *testing.T) {
	g := newTestRegistry()
	r, _ := g.Join("R", 0, newFakePeer("a"), "A")
	g.Close()
	if r.Running() || g.Len() != 0 {
		t.Fatal("close left rooms running")
	}
	if _, ack := g.Join("R", 0, newFakePeer("b"), "B"); ack.OK {
		t.Fatal("join accepted after close")
	}
}

func TestRegistryRoomsServeIndependently(t *testing.T) {
	g := newTestRegistry()
	defer g.Close()

	rooms := make([]*Room, 4)
	for i := range rooms {
		id := fmt.Sprintf("R%d", i)
		rooms[i] = g.GetOrCreate(id, 0)
		rooms[i].Join(newFakePeer(id+"-a"), "A")
		rooms[i].Join(newFakePeer(id+"-b"), "B")
	}
	for i := range rooms {
		for j := i + 1; j < len(rooms); j++ {
			if rooms[i].rng == rooms[j].rng {
				t.Fatalf("rooms %d and %d share a generator", i, j)
			}
		}
	}

	ticks := int(models.CountdownSeconds*models.TickRate) + 2
	var wg sync.WaitGroup
	for _, r := range rooms {
		wg.Add(1)
		go func(r *Room) {
			defer wg.Done()
			for i := 0; i < 5; i++ {
				r.ApplyOverride(models.Override{RoundState: models.RoundCountdown})
				for k := 0; k < ticks; k++ {
					r.Step()
				}
			}
		}(r)
	}
	wg.Wait()

	for _, r := range rooms {
		if snap := r.Snapshot(); snap.RoundState != models.RoundPlaying || snap.Ball.VX == 0 {
			t.Fatalf("room %s did not serve: %+v", r.ID, snap)
		}
	}
}

func TestRegistryStalledPeerDoesNotBlockOtherRooms(t *testing.T) {
	g := newTestRegistry()
	stalled := newStalledPeer("stuck")
	defer g.Close()
	defer stalled.unblock()

	r := g.GetOrCreate("A", 0)
	b := newFakePeer("b")
	r.Join(b, "B")
	r.Join(stalled, "S")

	go g.Leave(r, b.ID())

	deadline := time.Now().Add(2 * time.Second)
	for r.Occupants() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("leave never applied")
		}
		time.Sleep(time.Millisecond)
	}

	joined := make(chan models.JoinAck, 1)
	go func() {
		_, ack := g.Join("B", 0, newFakePeer("c"), "C")
		joined <- ack
	}()
	select {
	case ack := <-joined:
		if !ack.OK {
			t.Fatalf("ack = %+v", ack)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("join in another room waited on a stalled peer")
	}
}
