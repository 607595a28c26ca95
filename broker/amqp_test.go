package broker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/zllovesuki/custsync/customer"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

type published struct {
	exchange, key string
	msg           amqp.Publishing
}

type fakeChannel struct {
	declared   []string
	kinds      []string
	published  []published
	publishErr error
	closed     bool
}

func (f *fakeChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	f.declared = append(f.declared, name)
	f.kinds = append(f.kinds, kind)
	return nil
}

func (f *fakeChannel) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, published{exchange, key, msg})
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestPublishSynced(t *testing.T) {
	ch := &fakeChannel{}
	b, err := newAMQPBroker(ch)
	require.NoError(t, err)
	assert.Equal(t, []string{customerEventsExchange}, ch.declared)
	assert.Equal(t, []string{"topic"}, ch.kinds)

	ev := customer.SyncedEvent{
		Email:                   "ada@example.com",
		StripeCustomerID:        "cus_1",
		SanityCustomerID:        "doc-a",
		CreatedPaymentsCustomer: true,
	}
	require.NoError(t, b.PublishSynced(context.Background(), ev))

	require.Len(t, ch.published, 1)
	p := ch.published[0]
	assert.Equal(t, customerEventsExchange, p.exchange)
	assert.Equal(t, syncedRoutingKey, p.key)
	assert.Equal(t, "application/x-protobuf", p.msg.ContentType)

	var s structpb.Struct
	require.NoError(t, proto.Unmarshal(p.msg.Body, &s))
	assert.Equal(t, ev, DecodeSynced(&s))

	b.Close()
	assert.True(t, ch.closed)
}

func TestPublishSyncedErrors(t *testing.T) {
	ch := &fakeChannel{publishErr: errors.New("channel closed")}
	b, err := newAMQPBroker(ch)
	require.NoError(t, err)

	assert.Error(t, b.PublishSynced(context.Background(), customer.SyncedEvent{Email: "ada@example.com"}))
	assert.Empty(t, ch.published)
}

// writes have already committed by the time the event goes out
func TestPublishSyncedIgnoresCancelledContext(t *testing.T) {
	ch := &fakeChannel{}
	b, err := newAMQPBroker(ch)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, b.PublishSynced(ctx, customer.SyncedEvent{Email: "ada@example.com"}))
	assert.Len(t, ch.published, 1)
}

func TestCloseWaitsForPublish(t *testing.T) {
	ch := &fakeChannel{}
	b, err := newAMQPBroker(ch)
	require.NoError(t, err)

	b.mu.Lock()
	done := make(chan struct{})
	go func() {
		b.Close()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Close returned while a publish held the channel")
	case <-time.After(50 * time.Millisecond):
	}

	b.mu.Unlock()
	<-done
	assert.True(t, ch.closed)
}
