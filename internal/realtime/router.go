package realtime

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/Shivanand-hulikatti/eventpulse/internal/model"
	"github.com/Shivanand-hulikatti/eventpulse/internal/repository"
	"github.com/Shivanand-hulikatti/eventpulse/internal/service"
)

// Joiner performs a join and its broadcast.
type Joiner interface {
	Join(ctx context.Context, eventID string) (model.AttendeesUpdate, error)
}

// JoinRouter handles joinEvent messages. Joins run off the hub's routing
// loop, at most limit at a time; once the limit is reached Route blocks,
// which backs up the hub queue and in turn the channels' read loops. A
// failed join is reported to the initiating channel only.
type JoinRouter struct {
	ctx    context.Context
	hub    *Hub
	joiner Joiner
	joins  errgroup.Group
	log    *slog.Logger
}

// NewJoinRouter constructs a JoinRouter. ctx bounds the in-flight joins and
// limit caps how many run concurrently.
func NewJoinRouter(ctx context.Context, h *Hub, j Joiner, limit int, log *slog.Logger) *JoinRouter {
	r := &JoinRouter{ctx: ctx, hub: h, joiner: j, log: log}
	if limit < 1 {
		limit = 1
	}
	r.joins.SetLimit(limit)
	return r
}

// Route dispatches m by subject.
func (r *JoinRouter) Route(m *Msg) {
	switch m.Subj {
	case SubjJoinEvent:
		r.joins.Go(func() error {
			r.join(m)
			return nil
		})
	default:
		r.log.Debug("ignoring message", slog.String("subject", m.Subj))
	}
}

// Wait blocks until every started join has finished.
func (r *JoinRouter) Wait() {
	_ = r.joins.Wait()
}

func (r *JoinRouter) join(m *Msg) {
	var req model.JoinEventRequest
	if err := m.Decode(&req); err != nil {
		r.fail(m.From, "", "invalid join request")
		return
	}
	if _, err := r.joiner.Join(r.ctx, req.EventID); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			r.fail(m.From, req.EventID, "event not found")
		case errors.Is(err, service.ErrValidation):
			r.fail(m.From, req.EventID, "invalid join request")
		default:
			r.log.Error("join failed", slog.String("event_id", req.EventID), slog.Any("error", err))
			r.fail(m.From, req.EventID, "join failed")
		}
	}
}

func (r *JoinRouter) fail(c Conn, eventID, reason string) {
	if c == nil {
		return
	}
	r.hub.Send(c, &Msg{
		Subj: SubjJoinEventFailed,
		Data: model.JoinEventFailure{EventID: eventID, Error: reason},
	})
}
