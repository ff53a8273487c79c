package kafka

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"etickets/internal/logger"
)

type recordingWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *recordingWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublishSetsTopicAndKey(t *testing.T) {
	w := &recordingWriter{}
	p := &Producer{Writer: w, Logger: logger.NewWithWriter(io.Discard)}

	require.NoError(t, p.Publish(context.Background(), "etickets.order.created", "ORD-ABCD2345", []byte(`{"ok":true}`)))

	require.Len(t, w.messages, 1)
	assert.Equal(t, "etickets.order.created", w.messages[0].Topic)
	assert.Equal(t, []byte("ORD-ABCD2345"), w.messages[0].Key)
	assert.JSONEq(t, `{"ok":true}`, string(w.messages[0].Value))

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPublishWrapsWriterError(t *testing.T) {
	boom := errors.New("broker down")
	p := &Producer{Writer: &recordingWriter{err: boom}}

	err := p.Publish(context.Background(), "etickets.order.created", "k", nil)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "etickets.order.created")
}
