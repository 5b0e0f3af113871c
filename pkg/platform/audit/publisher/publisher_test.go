package publisher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "lectern/pkg/domain"
	audit "lectern/pkg/platform/audit"
	"lectern/pkg/platform/audit/store/memory"
	"lectern/pkg/platform/circuit"
)

type failingSink struct{ calls int }

func (f *failingSink) Append(context.Context, audit.Event) error {
	f.calls++
	return errors.New("broker unavailable")
}

func TestPublisher_SyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	recordID := id.NewRecordID()
	require.NoError(t, pub.Emit(context.Background(), audit.Event{RecordID: recordID, Action: "approved"}))

	events, err := pub.List(context.Background(), recordID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "approved", events[0].Action)
	assert.Equal(t, audit.CategoryCompliance, events[0].Category)
	assert.NotEmpty(t, events[0].ID)
}

func TestPublisher_AsyncDrainsOnClose(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(100))

	recordID := id.NewRecordID()
	for range 10 {
		require.NoError(t, pub.Emit(context.Background(), audit.Event{RecordID: recordID, Action: "code_sent"}))
	}
	pub.Close()

	events, err := store.ListByRecord(context.Background(), recordID)
	require.NoError(t, err)
	assert.Len(t, events, 10, "all events should be drained on close")
}

func TestPublisher_AsyncSurvivesCancelledRequest(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(4))

	ctx, cancel := context.WithCancel(context.Background())
	recordID := id.NewRecordID()
	require.NoError(t, pub.Emit(ctx, audit.Event{RecordID: recordID, Action: "initialized"}))
	cancel()
	pub.Close()

	events, err := store.ListByRecord(context.Background(), recordID)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestPublisher_BufferFullDropsEvent(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(1))

	recordID := id.NewRecordID()
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = pub.Emit(context.Background(), audit.Event{RecordID: recordID, Action: "code_sent"})
		}()
	}
	wg.Wait()
	pub.Close()

	events, err := store.ListByRecord(context.Background(), recordID)
	require.NoError(t, err)
	assert.Equal(t, int64(50), int64(len(events))+pub.Dropped())
}

func TestPublisher_EmitAfterCloseIsSynchronous(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(1))
	pub.Close()
	pub.Close()

	recordID := id.NewRecordID()
	require.NoError(t, pub.Emit(context.Background(), audit.Event{RecordID: recordID, Action: "rejected"}))
	events, _ := store.ListByRecord(context.Background(), recordID)
	assert.Len(t, events, 1)
}

func TestPublisher_Timestamps(t *testing.T) {
	fixed := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithClock(func() time.Time { return fixed }))

	recordID := id.NewRecordID()
	custom := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, pub.Emit(context.Background(), audit.Event{RecordID: recordID, Action: "code_sent"}))
	require.NoError(t, pub.Emit(context.Background(), audit.Event{RecordID: recordID, Action: "code_verified", Timestamp: custom}))

	events, err := pub.List(context.Background(), recordID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, fixed, events[0].Timestamp)
	assert.Equal(t, custom, events[1].Timestamp)
}

func TestPublisher_SinkFailureDoesNotFailEmit(t *testing.T) {
	store := memory.NewInMemoryStore()
	sink := &failingSink{}
	pub := NewPublisher(store, WithSink(sink))

	recordID := id.NewRecordID()
	require.NoError(t, pub.Emit(context.Background(), audit.Event{RecordID: recordID, Action: "code_rejected"}))
	assert.Equal(t, 1, sink.calls)

	events, _ := pub.List(context.Background(), recordID)
	require.Len(t, events, 1)
	assert.Equal(t, audit.CategorySecurity, events[0].Category)
}

func TestPublisher_SeparatesRecords(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)

	first, second := id.NewRecordID(), id.NewRecordID()
	require.NoError(t, pub.Emit(context.Background(), audit.Event{RecordID: first, Action: "initialized"}))
	require.NoError(t, pub.Emit(context.Background(), audit.Event{RecordID: second, Action: "suspended"}))

	events1, _ := pub.List(context.Background(), first)
	events2, _ := pub.List(context.Background(), second)
	require.Len(t, events1, 1)
	require.Len(t, events2, 1)
	assert.Equal(t, audit.CategoryOperations, events1[0].Category)
	assert.Equal(t, "suspended", events2[0].Action)
}

func TestPublisher_OpenSinkCircuitSkipsSink(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	store := memory.NewInMemoryStore()
	sink := &failingSink{}
	pub := NewPublisher(store, WithSink(sink,
		circuit.WithFailureThreshold(2),
		circuit.WithCooldown(time.Minute),
		circuit.WithClock(clock),
	))

	recordID := id.NewRecordID()
	for range 5 {
		require.NoError(t, pub.Emit(context.Background(), audit.Event{RecordID: recordID, Action: "step_completed"}))
	}
	assert.Equal(t, 2, sink.calls, "sink skipped once the circuit opens")

	events, _ := pub.List(context.Background(), recordID)
	assert.Len(t, events, 5, "store still receives every event")

	now = now.Add(time.Minute)
	require.NoError(t, pub.Emit(context.Background(), audit.Event{RecordID: recordID, Action: "step_completed"}))
	assert.Equal(t, 3, sink.calls, "probe after cooldown")
}
