package audit

import (
	"context"
	"log/slog"
)

// Worker consumes audit events from a channel and persists them, optionally
// mirroring each event to a secondary sink (e.g. Kafka). Persistence errors
// are logged and skipped; a broken sink must not wedge the inbox.
type Worker struct {
	store  Store
	sink   Publisher
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(store Store, inbox <-chan Event, logger *slog.Logger) *Worker {
	return &Worker{store: store, inbox: inbox, logger: logger}
}

// WithSink attaches a secondary publisher mirrored on every event.
func (w *Worker) WithSink(sink Publisher) *Worker {
	w.sink = sink
	return w
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				if w.logger != nil {
					w.logger.ErrorContext(ctx, "audit append failed",
						"action", event.Action,
						"error", err,
					)
				}
				continue
			}
			if w.sink != nil {
				if err := w.sink.Emit(ctx, event); err != nil && w.logger != nil {
					w.logger.WarnContext(ctx, "audit sink emit failed",
						"action", event.Action,
						"error", err,
					)
				}
			}
		}
	}
}
