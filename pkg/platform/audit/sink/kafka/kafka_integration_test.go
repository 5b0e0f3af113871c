//go:build integration

package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	id "lectern/pkg/domain"
	audit "lectern/pkg/platform/audit"
	"lectern/pkg/testutil/containers"
)

func TestSinkAgainstBroker(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping kafka integration test in short mode")
	}
	broker := containers.NewKafkaBroker(t)
	const topic = "verification.events.it"

	producer, err := kgo.NewClient(kgo.SeedBrokers(broker), kgo.AllowAutoTopicCreation())
	require.NoError(t, err)
	t.Cleanup(producer.Close)

	recordID := id.NewRecordID()
	sink := New(producer, topic)
	for _, action := range []string{"initialized", "code_sent", "code_verified"} {
		require.NoError(t, sink.Append(context.Background(), audit.Event{
			ID: action, RecordID: recordID, Action: action, Timestamp: time.Now(),
		}))
	}

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	t.Cleanup(consumer.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var actions []string
	for len(actions) < 3 {
		fetches := consumer.PollFetches(ctx)
		require.NoError(t, ctx.Err())
		fetches.EachRecord(func(r *kgo.Record) {
			var e audit.Event
			require.NoError(t, json.Unmarshal(r.Value, &e))
			actions = append(actions, e.Action)
		})
	}
	require.Equal(t, []string{"initialized", "code_sent", "code_verified"}, actions)
}
