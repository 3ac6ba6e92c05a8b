package memory

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestPublisherKeepsOrder(t *testing.T) {
	ctx := context.Background()
	p := NewPublisher(nil)

	for i := 0; i < 3; i++ {
		require.NoError(t, p.Publish(ctx, "ledger.income_recorded", strconv.Itoa(i), i))
	}

	msgs := p.Messages()
	require.Len(t, msgs, 3)
	for i, m := range msgs {
		assert.Equal(t, strconv.Itoa(i), m.Key)
	}
	assert.Zero(t, p.Dropped())
}

func TestPublisherRetentionIsBounded(t *testing.T) {
	ctx := context.Background()
	p := NewPublisher(nil, WithRetention(4))

	for i := 0; i < 10; i++ {
		require.NoError(t, p.Publish(ctx, "ledger.expense_recorded", strconv.Itoa(i), i))
	}

	msgs := p.Messages()
	require.Len(t, msgs, 4)
	for i, m := range msgs {
		assert.Equal(t, strconv.Itoa(6+i), m.Key, "newest four, oldest first")
	}
	assert.Equal(t, 6, p.Dropped())
}

func TestPublisherDefaultRetention(t *testing.T) {
	ctx := context.Background()
	p := NewPublisher(nil, WithRetention(0))

	for i := 0; i < DefaultRetention+5; i++ {
		require.NoError(t, p.Publish(ctx, "ledger.admin_added", strconv.Itoa(i), nil))
	}
	assert.Len(t, p.Messages(), DefaultRetention)
	assert.Equal(t, 5, p.Dropped())
}

func TestPublisherLogsEvents(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	p := NewPublisher(zap.New(core))

	require.NoError(t, p.Publish(context.Background(), "ledger.admin_removed", "0xabc", map[string]string{"address": "0xabc"}))

	entries := logs.FilterMessage("ledger event").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "ledger.admin_removed", entries[0].ContextMap()["topic"])
	assert.Equal(t, "0xabc", entries[0].ContextMap()["key"])
}
