package kafka

import (
	"context"
	"encoding/json"
	"testing"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chemforge/molpipe/internal/infrastructure/logging"
	"github.com/chemforge/molpipe/pkg/errors"
)

type captureWriter struct {
	messages []kafkago.Message
	err      error
	closed   bool
}

func (w *captureWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *captureWriter) Close() error {
	w.closed = true
	return nil
}

func TestEventProducerPublish(t *testing.T) {
	w := &captureWriter{}
	p := NewProducerWithWriter(w, logging.NewNopLogger())

	err := p.Publish(context.Background(), EventBuildCompleted, "qm9", map[string]string{
		"rows": "9",
	})
	require.NoError(t, err)
	require.Len(t, w.messages, 1)

	msg := w.messages[0]
	assert.Equal(t, []byte("qm9"), msg.Key)

	var evt Event
	require.NoError(t, json.Unmarshal(msg.Value, &evt))
	assert.Equal(t, EventBuildCompleted, evt.Type)
	assert.Equal(t, "qm9", evt.Dataset)
	assert.Equal(t, "9", evt.Fields["rows"])
	assert.NotEmpty(t, evt.ID)
	assert.False(t, evt.Timestamp.IsZero())
}

func TestEventProducerPublishFailure(t *testing.T) {
	w := &captureWriter{err: errors.New(errors.ErrCodeMessageQueue, "broker down")}
	p := NewProducerWithWriter(w, logging.NewNopLogger())

	err := p.Publish(context.Background(), EventBuildStarted, "qm9", nil)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeMessageQueue))

	// Best-effort swallows the same failure and reports the drop.
	assert.False(t, p.PublishBestEffort(context.Background(), EventBuildStarted, "qm9", nil))
}

func TestPublishBestEffortReportsDelivery(t *testing.T) {
	p := NewProducerWithWriter(&captureWriter{}, logging.NewNopLogger())
	assert.True(t, p.PublishBestEffort(context.Background(), EventBuildStarted, "qm9", nil))
}

func TestDisabledProducerDropsEvents(t *testing.T) {
	p := NewDisabledProducer(logging.NewNopLogger())
	require.NoError(t, p.Publish(context.Background(), EventPublished, "qm9", nil))
	// Intentional discard is not a delivery failure.
	assert.True(t, p.PublishBestEffort(context.Background(), EventPublished, "qm9", nil))
	require.NoError(t, p.Close())
}
