package broker

import (
	"context"
	"sync"

	"github.com/zllovesuki/custsync/customer"

	extErrors "github.com/pkg/errors"
	"github.com/streadway/amqp"
	"google.golang.org/protobuf/proto"
)

var _ Publisher = &AMQPBroker{}

type amqpChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPBroker describes a message broker via RabbitMQ
type AMQPBroker struct {
	connection *amqp.Connection
	channel    amqpChannel
	mu         sync.Mutex
}

// NewAMQPBroker returns a Message Broker over RabbitMQ
func NewAMQPBroker(amqpURI string) (*AMQPBroker, error) {
	amqpConn, err := amqp.Dial(amqpURI)
	if err != nil {
		return nil, extErrors.Wrap(err, "Cannot connect to Message Broker")
	}
	amqpChan, err := amqpConn.Channel()
	if err != nil {
		amqpConn.Close()
		return nil, extErrors.Wrap(err, "Cannot create broker channel")
	}
	broker, err := newAMQPBroker(amqpChan)
	if err != nil {
		amqpConn.Close()
		return nil, err
	}
	broker.connection = amqpConn
	return broker, nil
}

func newAMQPBroker(ch amqpChannel) (*AMQPBroker, error) {
	broker := &AMQPBroker{
		channel: ch,
	}
	if err := broker.setupCustomerExchange(); err != nil {
		return nil, extErrors.Wrap(err, "Cannot declare exchange for customer events")
	}
	return broker, nil
}

func (a *AMQPBroker) setupCustomerExchange() error {
	return a.channel.ExchangeDeclare(
		customerEventsExchange, // name
		"topic",                // type
		true,                   // durable
		false,                  // auto-deleted
		false,                  // internal
		false,                  // no-wait
		nil,                    // arguments
	)
}

// Close will close the channel and connection to release resources
func (a *AMQPBroker) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.channel.Close()
	if a.connection != nil {
		a.connection.Close()
	}
}

func (a *AMQPBroker) publishViaRoutingKey(exchange, routingKey string, body []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.channel.Publish(
		exchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/x-protobuf",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

// PublishSynced will announce a completed customer reconciliation
func (a *AMQPBroker) PublishSynced(ctx context.Context, ev customer.SyncedEvent) error {
	msg, err := encodeSynced(ev)
	if err != nil {
		return extErrors.Wrap(err, "Cannot encode synced event")
	}
	protoBytes, err := proto.Marshal(msg)
	if err != nil {
		return extErrors.Wrap(err, "Cannot encode message into bytes")
	}
	if err := a.publishViaRoutingKey(customerEventsExchange, syncedRoutingKey, protoBytes); err != nil {
		return extErrors.Wrap(err, "Cannot publish synced event")
	}
	return nil
}
