package eventbus_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/felixgeelhaar/taskrank/internal/shared/infrastructure/eventbus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestInProcessBus_Publish(t *testing.T) {
	bus := eventbus.NewInProcessBus(testLogger())

	var got []string
	bus.Subscribe("taskrank.tasks.*", func(_ context.Context, key string, payload []byte) error {
		got = append(got, key+"="+string(payload))
		return nil
	})
	bus.Subscribe("other.#", func(context.Context, string, []byte) error {
		t.Fatal("unexpected delivery")
		return nil
	})

	ctx := context.Background()
	require.NoError(t, eventbus.PublishJSON(ctx, bus, "taskrank.tasks.analyzed", map[string]int{"task_count": 2}))

	assert.Equal(t, []string{`taskrank.tasks.analyzed={"task_count":2}`}, got)
}

func TestInProcessBus_HandlerErrors(t *testing.T) {
	bus := eventbus.NewInProcessBus(testLogger())
	boom := errors.New("boom")
	calls := 0

	bus.Subscribe("#", func(context.Context, string, []byte) error { calls++; return boom })
	bus.Subscribe("#", func(context.Context, string, []byte) error { calls++; return nil })

	err := bus.Publish(context.Background(), "taskrank.tasks.analyzed", []byte("{}"))

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls, "later subscribers still run")
}

func TestInProcessBus_Close(t *testing.T) {
	bus := eventbus.NewInProcessBus(testLogger())
	require.NoError(t, bus.Close())

	err := bus.Publish(context.Background(), "taskrank.tasks.analyzed", nil)
	assert.ErrorIs(t, err, eventbus.ErrPublisherClosed)
}

func TestMatchTopic(t *testing.T) {
	tests := []struct {
		pattern string
		key     string
		want    bool
	}{
		{"taskrank.tasks.analyzed", "taskrank.tasks.analyzed", true},
		{"taskrank.*.analyzed", "taskrank.tasks.analyzed", true},
		{"taskrank.*", "taskrank.tasks.analyzed", false},
		{"taskrank.#", "taskrank.tasks.analyzed", true},
		{"#", "anything.at.all", true},
		{"#.analyzed", "taskrank.tasks.analyzed", true},
		{"taskrank.#.analyzed", "taskrank.analyzed", true},
		{"taskrank.tasks", "taskrank.tasks.analyzed", false},
		{"taskrank.tasks.*", "taskrank.tasks", false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"->"+tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, eventbus.MatchTopic(tt.pattern, tt.key))
		})
	}
}

func TestNoopPublisher(t *testing.T) {
	p := eventbus.NewNoopPublisher(nil)
	assert.NoError(t, p.Publish(context.Background(), "k", []byte("x")))
	assert.NoError(t, p.Close())
}
