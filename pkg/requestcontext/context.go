// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// Middleware sets these values; services and stores read them. Keeping the
// package free of net/http lets the pipeline depend only on context.Context.
package requestcontext

import (
	"context"
	"time"

	id "credex/pkg/domain"
)

type (
	actorIDKey     struct{}
	actorRoleKey   struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// Exported context keys for tests that need raw context.WithValue.
var (
	ContextKeyActorID     = actorIDKey{}
	ContextKeyActorRole   = actorRoleKey{}
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
)

// ActorID retrieves the authenticated actor from the context.
func ActorID(ctx context.Context) id.ActorID {
	if actor, ok := ctx.Value(ContextKeyActorID).(id.ActorID); ok {
		return actor
	}
	return ""
}

// WithActorID injects an actor identity into the context.
func WithActorID(ctx context.Context, actor id.ActorID) context.Context {
	return context.WithValue(ctx, ContextKeyActorID, actor)
}

// ActorRole retrieves the authenticated actor's role name from the context.
func ActorRole(ctx context.Context) string {
	if role, ok := ctx.Value(ContextKeyActorRole).(string); ok {
		return role
	}
	return ""
}

// WithActorRole injects an actor role into the context.
func WithActorRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, ContextKeyActorRole, role)
}

// RequestID retrieves the request correlation ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request correlation ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// Now retrieves the request-scoped time from the context.
// Falls back to time.Now() for non-HTTP contexts (workers, tests, CLI).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a fixed time into a context. Tests and what-if runs use
// this to keep both pipeline passes on the same clock reading.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
