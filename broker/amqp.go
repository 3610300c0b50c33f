package broker

import (
	"context"
	"encoding/json"

	"github.com/Shockvaluemedia/directfanz-billing/notification"

	extErrors "github.com/pkg/errors"
	"github.com/streadway/amqp"
)

var _ Producer = &AMQPBroker{}
var _ Consumer = &AMQPBroker{}

const (
	notificationExchange string = "notification_email"
	notificationQueue           = "notification_email_outbound"
	notificationKey             = "email"
)

// AMQPBroker queues notification messages via RabbitMQ so that delivery can
// happen outside the webhook request path
type AMQPBroker struct {
	connection *amqp.Connection
	channel    *amqp.Channel
}

// NewAMQPBroker returns a message broker over RabbitMQ
func NewAMQPBroker(amqpURI string) (*AMQPBroker, error) {
	amqpConn, err := amqp.Dial(amqpURI)
	if err != nil {
		return nil, extErrors.Wrap(err, "Cannot connect to Message Broker")
	}
	amqpChan, err := amqpConn.Channel()
	if err != nil {
		return nil, extErrors.Wrap(err, "Cannot create broker channel")
	}
	broker := &AMQPBroker{
		connection: amqpConn,
		channel:    amqpChan,
	}
	if err := broker.setupNotificationExchange(); err != nil {
		return nil, extErrors.Wrap(err, "Cannot declare exchange for notifications")
	}
	return broker, nil
}

func (a *AMQPBroker) setupNotificationExchange() error {
	return a.channel.ExchangeDeclare(
		notificationExchange, // name
		"direct",             // type
		true,                 // durable
		false,                // auto-deleted
		false,                // internal
		false,                // no-wait
		nil,                  // arguments
	)
}

// Close will close the channel and connection to release resources
func (a *AMQPBroker) Close() {
	a.channel.Close()
	a.connection.Close()
}

// Send queues the message for delivery by the mailer worker. It satisfies
// notification.Sender so the webhook engine can use the broker in place of
// a synchronous SMTP mailer.
func (a *AMQPBroker) Send(ctx context.Context, msg notification.Message) error {
	body, err := json.Marshal(&msg)
	if err != nil {
		return extErrors.Wrap(err, "Cannot encode message into bytes")
	}
	if err := a.channel.Publish(
		notificationExchange,
		notificationKey,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	); err != nil {
		return extErrors.Wrap(err, "Cannot publish notification")
	}
	return nil
}

// ReceiveMessages returns a channel of queued notifications. Deliveries are
// acked once decoded; undecodable deliveries are nacked without requeue.
func (a *AMQPBroker) ReceiveMessages(ctx context.Context) (<-chan notification.Message, error) {
	if _, err := a.channel.QueueDeclare(
		notificationQueue,
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		return nil, extErrors.Wrap(err, "Cannot setup queue")
	}
	if err := a.channel.QueueBind(
		notificationQueue,
		notificationKey,
		notificationExchange,
		false,
		nil,
	); err != nil {
		return nil, extErrors.Wrap(err, "Cannot bind queue")
	}
	msgChan, err := a.channel.Consume(
		notificationQueue,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, extErrors.Wrap(err, "Cannot setup consumer")
	}
	rChan := make(chan notification.Message)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case d := <-msgChan:
				var msg notification.Message
				if err := json.Unmarshal(d.Body, &msg); err != nil {
					d.Nack(false, false)
					continue
				}
				rChan <- msg
				d.Ack(false)
			}
		}
	}()
	return rChan, nil
}
