package socket

import (
	"sync"

	"github.com/googollee/go-socket.io/parser"
	log "github.com/sirupsen/logrus"

	"pongo_server/services"
)

const peerSendBuffer = 64

type emission struct {
	event string
	args  []interface{}
}

// connPeer queues emissions for one socket.io connection and writes them
// from its own goroutine. go-socket.io's Emit waits for the connection's
// writer, so a room must never call it directly: when the queue is full the
// event is dropped and counted.
type connPeer struct {
	conn      services.Peer
	namespace string
	metrics   *services.Metrics

	send chan emission
	done chan struct{}
	once sync.Once

	mu      sync.Mutex
	dropped int
}

func newConnPeer(conn services.Peer, namespace string, metrics *services.Metrics) *connPeer {
	p := &connPeer{
		conn:      conn,
		namespace: namespace,
		metrics:   metrics,
		send:      make(chan emission, peerSendBuffer),
		done:      make(chan struct{}),
	}
	go p.writeLoop()
	return p
}

func (p *connPeer) ID() string {
	return p.conn.ID()
}

func (p *connPeer) Emit(event string, args ...interface{}) {
	select {
	case <-p.done:
	case p.send <- emission{event: event, args: args}:
	default:
		p.mu.Lock()
		p.dropped++
		first := p.dropped == 1
		p.mu.Unlock()
		p.metrics.EmitDropped(p.namespace)
		if first {
			log.WithFields(log.Fields{"peer": p.ID(), "namespace": p.namespace}).Warn("🐢 Client falling behind, dropping events")
		}
	}
}

func (p *connPeer) writeLoop() {
	for {
		select {
		case <-p.done:
			return
		case e := <-p.send:
			p.conn.Emit(e.event, binaryArgs(e.args)...)
		}
	}
}

// binaryArgs wraps raw byte payloads so they travel as socket.io binary
// attachments. Each write gets its own buffer since the encoder mutates it.
func binaryArgs(args []interface{}) []interface{} {
	out := make([]interface{}, len(args))
	for i, a := range args {
		if b, ok := a.([]byte); ok {
			a = &parser.Buffer{Data: b}
		}
		out[i] = a
	}
	return out
}

func (p *connPeer) droppedEmits() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dropped
}

func (p *connPeer) close() {
	p.once.Do(func() { close(p.done) })
}

// closePeer stops the writer behind a queued peer, if there is one.
func closePeer(p services.Peer) {
	if c, ok := p.(*connPeer); ok {
		c.close()
	}
}
