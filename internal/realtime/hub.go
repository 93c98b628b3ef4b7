package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/Shivanand-hulikatti/eventpulse/internal/model"
)

var lastID int64

// NextID returns a new process-unique connection id.
func NextID() int64 { return atomic.AddInt64(&lastID, 1) }

// Conn is a participant connected to the hub.
type Conn interface {
	// ID is the connection identifier, unique for the process lifetime.
	ID() int64
	// Chan returns the connection's send queue. The hub closes it when the
	// connection is signed off or dropped.
	Chan() chan<- *Msg
}

// Router handles a message received from a connection.
type Router interface {
	Route(*Msg)
}

// Hub keeps the set of signed-on connections, routes their messages and
// broadcasts to all of them. Delivery is best effort: a connection whose
// send queue is full is dropped rather than allowed to stall the others.
type Hub struct {
	mu    sync.Mutex
	conns map[int64]Conn
	mque  chan *Msg
	done  chan struct{}
	once  sync.Once
	log   *slog.Logger
}

// NewHub creates and returns a new hub.
func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		conns: make(map[int64]Conn, 64),
		mque:  make(chan *Msg, 128),
		done:  make(chan struct{}),
		log:   log,
	}
}

// Run routes received messages with r until ctx is done or the hub is
// closed. It is usually run in a goroutine.
func (h *Hub) Run(ctx context.Context, r Router) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-h.done:
			return
		case m := <-h.mque:
			r.Route(m)
		}
	}
}

// Deliver queues m for routing. It reports false once the hub is closed.
func (h *Hub) Deliver(m *Msg) bool {
	select {
	case h.mque <- m:
		return true
	case <-h.done:
		return false
	}
}

// Signon registers c so it receives broadcasts.
func (h *Hub) Signon(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	select {
	case <-h.done:
		close(c.Chan())
		return
	default:
	}
	h.conns[c.ID()] = c
	h.log.Debug("channel connected", slog.Int64("conn", c.ID()), slog.Int("connected", len(h.conns)))
}

// Signoff unregisters c and closes its send queue. It is safe to call for
// a connection that was already dropped.
func (h *Hub) Signoff(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.remove(c.ID()) {
		h.log.Debug("channel disconnected", slog.Int64("conn", c.ID()), slog.Int("connected", len(h.conns)))
	}
}

// Len returns the number of connected channels.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Send queues m for the single connection c. It reports whether m was
// queued.
func (h *Hub) Send(c Conn, m *Msg) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conns[c.ID()]; !ok {
		return false
	}
	return h.offer(c, m)
}

// Broadcast queues m for every connected channel and returns how many
// accepted it. Delivery order across channels is unspecified.
func (h *Hub) Broadcast(m *Msg) int {
	if len(m.Raw) == 0 && m.Data != nil {
		// Encode once for all receivers.
		raw, err := json.Marshal(m.Data)
		if err != nil {
			h.log.Error("broadcast encode failed", slog.String("subject", m.Subj), slog.Any("error", err))
			return 0
		}
		m = &Msg{From: m.From, Subj: m.Subj, Raw: raw}
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, c := range h.conns {
		if h.offer(c, m) {
			n++
		}
	}
	return n
}

// BroadcastAttendees sends an updateAttendees message to every channel.
func (h *Hub) BroadcastAttendees(u model.AttendeesUpdate) {
	n := h.Broadcast(&Msg{Subj: SubjUpdateAttendees, Data: u})
	h.log.Debug("attendees broadcast",
		slog.String("event_id", u.EventID),
		slog.Int("attendees", u.Attendees),
		slog.Int("receivers", n),
	)
}

// Close drops every connection and stops routing.
func (h *Hub) Close() {
	h.once.Do(func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		close(h.done)
		for id := range h.conns {
			h.remove(id)
		}
	})
}

// offer must be called with mu held.
func (h *Hub) offer(c Conn, m *Msg) bool {
	select {
	case c.Chan() <- m:
		return true
	default:
		h.log.Warn("dropping slow channel", slog.Int64("conn", c.ID()))
		h.remove(c.ID())
		return false
	}
}

// remove must be called with mu held.
func (h *Hub) remove(id int64) bool {
	c, ok := h.conns[id]
	if !ok {
		return false
	}
	delete(h.conns, id)
	close(c.Chan())
	return true
}
