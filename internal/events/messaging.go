package events

import (
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	EventsExchange             = "talktocart.events"
	CartUpdatedRoutingKey      = "cart.updated.v1"
	InvoiceGeneratedRoutingKey = "invoice.generated.v1"
)

func declareEventsExchange(ch *amqp.Channel) error {
	return ch.ExchangeDeclare(
		EventsExchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
}
