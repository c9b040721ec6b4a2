package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trogers1052/mandi-price-service/internal/models"
)

type mockWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *mockWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *mockWriter) Close() error { return nil }

func TestProducer_PublishPricesSynced(t *testing.T) {
	w := &mockWriter{}
	p := &Producer{writer: w, topic: "mandi-price-events"}

	require.NoError(t, p.PublishPricesSynced(context.Background(), "Onion", "Pune", 4))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "Onion|Pune", string(w.msgs[0].Key))

	var event models.PriceEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &event))
	assert.Equal(t, models.EventPricesSynced, event.EventType)
	assert.Equal(t, EventSource, event.Source)
	assert.Equal(t, "Onion", event.Crop)
	assert.Equal(t, "Pune", event.Mandi)
	assert.Equal(t, int64(4), event.RowsSaved)
	assert.NotEmpty(t, event.EventID)
	assert.False(t, event.Timestamp.IsZero())
}

func TestProducer_writeError(t *testing.T) {
	p := &Producer{writer: &mockWriter{err: errors.New("no brokers")}}
	err := p.PublishPricesSynced(context.Background(), "Onion", "Pune", 1)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to write message to kafka")
}
