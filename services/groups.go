package services

import "sync"

// PeerGroups is a set of named peer groups with fan-out. A peer may belong
// to several groups.
type PeerGroups struct {
	mu     sync.RWMutex
	groups map[string]map[string]Peer
}

func NewPeerGroups() *PeerGroups {
	return &PeerGroups{groups: make(map[string]map[string]Peer)}
}

func (g *PeerGroups) Add(group string, p Peer) {
	g.mu.Lock()
	defer g.mu.Unlock()
	members, ok := g.groups[group]
	if !ok {
		members = make(map[string]Peer)
		g.groups[group] = members
	}
	members[p.ID()] = p
}

// Remove drops peerID from group and forgets the group once it is empty.
func (g *PeerGroups) Remove(group, peerID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	members, ok := g.groups[group]
	if !ok {
		return
	}
	delete(members, peerID)
	if len(members) == 0 {
		delete(g.groups, group)
	}
}

func (g *PeerGroups) Size(group string) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.groups[group])
}

// Emit sends event to every member of group except the peer with id except.
func (g *PeerGroups) Emit(group, except, event string, payload interface{}) int {
	g.mu.RLock()
	targets := make([]Peer, 0, len(g.groups[group]))
	for id, p := range g.groups[group] {
		if id != except {
			targets = append(targets, p)
		}
	}
	g.mu.RUnlock()

	for _, p := range targets {
		p.Emit(event, payload)
	}
	return len(targets)
}
