package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/joao-fontenele/meyshop/internal/domain"
)

var (
	tracingOnce sync.Once
	testTracer  trace.Tracer
)

// withTracing installs a recording tracer provider and the W3C propagator once for the
// package. The messaging tracers bind to the first provider set, so it is never swapped.
func withTracing(t *testing.T) trace.Tracer {
	t.Helper()

	tracingOnce.Do(func() {
		tp := sdktrace.NewTracerProvider()
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(propagation.TraceContext{})
		testTracer = tp.Tracer("test")
	})

	return testTracer
}

type fakeWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

type fakeReader struct {
	msgs      []kafka.Message
	committed []kafka.Message
}

func (r *fakeReader) FetchMessage(_ context.Context) (kafka.Message, error) {
	if len(r.msgs) == 0 {
		return kafka.Message{}, io.EOF
	}
	msg := r.msgs[0]
	r.msgs = r.msgs[1:]
	return msg, nil
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *fakeReader) Close() error { return nil }

func sampleEvent() domain.OrderEvent {
	return domain.OrderEvent{
		Type:       domain.OrderEventPaid,
		OrderID:    "order-1",
		AccountID:  "account-1",
		Name:       "Ada",
		Email:      "ada@example.com",
		ItemCount:  2,
		TotalPrice: decimal.RequireFromString("47.00"),
		Timestamp:  time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC),
	}
}

func TestHeaderCarrier(t *testing.T) {
	msg := kafka.Message{Headers: []kafka.Header{{Key: "a", Value: []byte("1")}}}
	c := carrierFor(&msg)

	c.Set("b", "2")
	c.Set("a", "3")

	assert.Equal(t, "3", c.Get("a"))
	assert.Equal(t, "2", c.Get("b"))
	assert.Equal(t, "", c.Get("missing"))
	assert.Equal(t, []string{"a", "b"}, c.Keys())
	assert.Len(t, msg.Headers, 2)
}

func TestProducer_PublishOrderEvent(t *testing.T) {
	tracer := withTracing(t)
	ctx, span := tracer.Start(context.Background(), "request")
	defer span.End()

	w := &fakeWriter{}
	p := &Producer{writer: w, topic: "order.events"}

	event := sampleEvent()
	require.NoError(t, p.PublishOrderEvent(ctx, event))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]

	assert.Equal(t, "order-1", string(msg.Key))
	assert.Equal(t, "order.paid", headerValue(msg.Headers, EventTypeHeader))
	assert.Contains(t, headerValue(msg.Headers, "traceparent"), span.SpanContext().TraceID().String())

	var got domain.OrderEvent
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, event.OrderID, got.OrderID)
	assert.True(t, event.TotalPrice.Equal(got.TotalPrice))
}

func TestProducer_WriteError(t *testing.T) {
	p := &Producer{writer: &fakeWriter{err: errors.New("leader not available")}, topic: "order.events"}

	err := p.PublishOrderEvent(context.Background(), sampleEvent())
	assert.EqualError(t, err, "leader not available")
}

func TestConsumer_PropagatesTraceAndCommits(t *testing.T) {
	tracer := withTracing(t)
	ctx, span := tracer.Start(context.Background(), "request")
	span.End()

	w := &fakeWriter{}
	p := &Producer{writer: w, topic: "order.events"}
	require.NoError(t, p.PublishOrderEvent(ctx, sampleEvent()))

	r := &fakeReader{msgs: w.msgs}
	c := &Consumer{reader: r, topic: "order.events", groupID: "test"}

	var got []Delivery
	var traceIDs []trace.TraceID
	err := c.Consume(context.Background(), func(ctx context.Context, d Delivery) error {
		got = append(got, d)
		traceIDs = append(traceIDs, trace.SpanContextFromContext(ctx).TraceID())
		return nil
	})

	require.ErrorIs(t, err, io.EOF)
	require.Len(t, got, 1)
	assert.Equal(t, "order-1", got[0].Key)
	assert.Equal(t, "order.paid", got[0].EventType)
	assert.Equal(t, span.SpanContext().TraceID(), traceIDs[0])
	assert.Len(t, r.committed, 1)
}

func TestConsumer_HandlerErrorStopsWithoutCommit(t *testing.T) {
	r := &fakeReader{msgs: []kafka.Message{{Key: []byte("order-1")}, {Key: []byte("order-2")}}}
	c := &Consumer{reader: r, topic: "order.events", groupID: "test"}

	calls := 0
	err := c.Consume(context.Background(), func(context.Context, Delivery) error {
		calls++
		return errors.New("email service down")
	})

	assert.EqualError(t, err, "email service down")
	assert.Equal(t, 1, calls)
	assert.Empty(t, r.committed)
}
