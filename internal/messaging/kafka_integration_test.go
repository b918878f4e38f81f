//go:build integration

package messaging

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joao-fontenele/meyshop/internal/testutil"
)

func TestKafkaRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	brokers, cleanup := testutil.SetupKafka(ctx, t)
	defer cleanup()

	const topic = "order.events.it"

	producer := NewProducer(brokers, topic)
	defer func() { _ = producer.Close() }()

	event := sampleEvent()
	require.Eventually(t, func() bool {
		return producer.PublishOrderEvent(ctx, event) == nil
	}, 30*time.Second, time.Second, "topic never became writable")

	consumer := NewConsumer(brokers, topic, "it-group", WithStartOffset(kafka.FirstOffset))
	defer func() { _ = consumer.Close() }()

	done := errors.New("done")
	var got Delivery
	err := consumer.Consume(ctx, func(_ context.Context, d Delivery) error {
		got = d
		return done
	})

	require.ErrorIs(t, err, done)
	assert.Equal(t, event.OrderID, got.Key)
	assert.Equal(t, string(event.Type), got.EventType)
}
