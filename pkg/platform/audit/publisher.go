package audit

import (
	"context"
	"log/slog"
)

// ChannelPublisher decouples emitters from storage by pushing events onto a
// buffered channel consumed by a Worker. Emit stamps the category and never
// blocks the request path: when the buffer is full the event is dropped and
// logged, since audit backpressure must not fail decisions.
type ChannelPublisher struct {
	inbox  chan Event
	logger *slog.Logger
}

func NewChannelPublisher(buffer int, logger *slog.Logger) *ChannelPublisher {
	return &ChannelPublisher{
		inbox:  make(chan Event, buffer),
		logger: logger,
	}
}

// Inbox exposes the read side for the Worker.
func (p *ChannelPublisher) Inbox() <-chan Event {
	return p.inbox
}

func (p *ChannelPublisher) Emit(ctx context.Context, event Event) error {
	if event.Category == "" {
		event.Category = CategoryFor(event.Action)
	}

	select {
	case p.inbox <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		if p.logger != nil {
			p.logger.WarnContext(ctx, "audit buffer full, dropping event",
				"action", event.Action,
				"decision_id", event.DecisionID,
			)
		}
		return nil
	}
}
