package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"

	"storefront-be/internal/order"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	fail   error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fail != nil {
		return w.fail
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func TestProducer_FlushesOnClose(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, 4)
	p.Start(context.Background())

	ctx := context.Background()
	require.NoError(t, p.Publish(ctx, []byte("1"), []byte("a")))
	require.NoError(t, p.Publish(ctx, []byte("2"), []byte("b")))

	p.Close()
	p.WaitClosed()

	assert.Len(t, w.msgs, 2)
	assert.True(t, w.closed)
	assert.ErrorIs(t, p.Publish(ctx, nil, nil), ErrProducerClosed)

	// closing twice is harmless
	p.Close()
}

func TestProducer_StopsWithContext(t *testing.T) {
	w := &fakeWriter{fail: errors.New("broker down")}
	p := newProducer(w, 1)

	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)
	require.NoError(t, p.Publish(context.Background(), nil, []byte("x")))

	cancel()
	p.WaitClosed()
	assert.True(t, w.closed)
}

func TestProducer_BufferFull(t *testing.T) {
	p := newProducer(&fakeWriter{}, 1)

	require.NoError(t, p.Publish(context.Background(), nil, []byte("a")))
	assert.ErrorIs(t, p.Publish(context.Background(), nil, []byte("b")), ErrBufferFull)
}

type capture struct {
	key, value []byte
	headers    []kafka.Header
}

func (c *capture) Publish(_ context.Context, key, value []byte, headers ...kafka.Header) error {
	c.key, c.value, c.headers = key, value, headers
	return nil
}

func TestOrderEvents_PublishOrderCreated(t *testing.T) {
	c := &capture{}
	ev := &OrderEvents{p: c, producer: "storefront-be"}

	o := &order.Order{ID: 101, UserID: 3, TotalAmount: 200, Items: []order.Item{{ProductID: 7, Quantity: 2, Price: 100}}}
	require.NoError(t, ev.PublishOrderCreated(context.Background(), o))

	assert.Equal(t, "101", string(c.key))
	require.Len(t, c.headers, 1)
	assert.Equal(t, order.EventOrderCreated, string(c.headers[0].Value))

	var env order.Envelope
	require.NoError(t, UnmarshalEnvelope(c.value, &env))
	payload, err := UnwrapPayload[order.OrderCreatedPayload](env.Payload)
	require.NoError(t, err)
	assert.Equal(t, int64(101), payload.OrderID)
	assert.Equal(t, 2, payload.Items[0].Qty)
}
