package audit

import "context"

// Store persists audit events. The store owns retention and uniqueness;
// emitters only append.
type Store interface {
	Append(ctx context.Context, event Event) error
	List(ctx context.Context, category EventCategory) ([]Event, error)
}

// Publisher is the write side exposed to domain services.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}
