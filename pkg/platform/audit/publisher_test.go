package audit

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "credex/pkg/domain"
)

func TestChannelPublisher(t *testing.T) {
	ctx := context.Background()

	t.Run("emit stamps the category", func(t *testing.T) {
		publisher := NewChannelPublisher(1, slog.Default())
		require.NoError(t, publisher.Emit(ctx, Event{Action: EventDecisionMade}))

		event := <-publisher.Inbox()
		assert.Equal(t, CategoryCompliance, event.Category)
	})

	t.Run("explicit category preserved", func(t *testing.T) {
		publisher := NewChannelPublisher(1, slog.Default())
		require.NoError(t, publisher.Emit(ctx, Event{Action: EventDecisionMade, Category: CategoryOperations}))

		event := <-publisher.Inbox()
		assert.Equal(t, CategoryOperations, event.Category)
	})

	t.Run("full buffer drops instead of blocking", func(t *testing.T) {
		publisher := NewChannelPublisher(1, slog.Default())
		require.NoError(t, publisher.Emit(ctx, Event{Action: EventDecisionMade}))

		done := make(chan error, 1)
		go func() {
			done <- publisher.Emit(ctx, Event{Action: EventSimulationRun})
		}()

		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatal("emit blocked on a full buffer")
		}

		// Only the first event made it through.
		event := <-publisher.Inbox()
		assert.Equal(t, EventDecisionMade, event.Action)
		select {
		case extra := <-publisher.Inbox():
			t.Fatalf("unexpected event %s", extra.Action)
		default:
		}
	})
}

func TestCategoryFor(t *testing.T) {
	assert.Equal(t, CategoryCompliance, CategoryFor(EventDecisionMade))
	assert.Equal(t, CategoryCompliance, CategoryFor(EventDecisionOverridden))
	assert.Equal(t, CategorySecurity, CategoryFor(EventOverrideRejected))
	assert.Equal(t, CategoryOperations, CategoryFor(EventCatalogReloaded))
	assert.Equal(t, CategoryOperations, CategoryFor(EventSimulationRun))
	assert.Equal(t, CategoryOperations, CategoryFor(AuditEvent("unknown")))
}

type failingStore struct {
	calls int
}

func (s *failingStore) Append(context.Context, Event) error {
	s.calls++
	if s.calls == 1 {
		return errors.New("disk full")
	}
	return nil
}

func (s *failingStore) List(context.Context, EventCategory) ([]Event, error) { return nil, nil }

type sinkSpy struct {
	events chan Event
}

func (s *sinkSpy) Emit(_ context.Context, event Event) error {
	s.events <- event
	return nil
}

func TestWorker(t *testing.T) {
	t.Run("persists events from the inbox", func(t *testing.T) {
		store := NewInMemoryStore()
		publisher := NewChannelPublisher(8, slog.Default())
		worker := NewWorker(store, publisher.Inbox(), slog.Default())

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			_ = worker.Run(ctx)
			close(done)
		}()

		require.NoError(t, publisher.Emit(ctx, Event{
			Action:        EventDecisionMade,
			ApplicationID: id.ApplicationID("APP-1"),
		}))

		require.Eventually(t, func() bool {
			events, err := store.List(context.Background(), CategoryCompliance)
			return err == nil && len(events) == 1
		}, time.Second, 10*time.Millisecond)

		cancel()
		<-done
	})

	t.Run("mirrors events to the sink and survives store errors", func(t *testing.T) {
		store := &failingStore{}
		sink := &sinkSpy{events: make(chan Event, 8)}
		publisher := NewChannelPublisher(8, slog.Default())
		worker := NewWorker(store, publisher.Inbox(), slog.Default()).WithSink(sink)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() { _ = worker.Run(ctx) }()

		// First append fails; the event is skipped, not retried.
		require.NoError(t, publisher.Emit(ctx, Event{Action: EventDecisionMade}))
		require.NoError(t, publisher.Emit(ctx, Event{Action: EventCatalogReloaded}))

		select {
		case event := <-sink.events:
			assert.Equal(t, EventCatalogReloaded, event.Action)
		case <-time.After(time.Second):
			t.Fatal("sink never received the surviving event")
		}
	})
}

func TestInMemoryStoreList(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, Event{Action: EventDecisionMade, Category: CategoryCompliance}))
	require.NoError(t, store.Append(ctx, Event{Action: EventOverrideRejected, Category: CategorySecurity}))

	all, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	security, err := store.List(ctx, CategorySecurity)
	require.NoError(t, err)
	require.Len(t, security, 1)
	assert.Equal(t, EventOverrideRejected, security[0].Action)
}
