package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/GitwithRaj/talktocart/internal/cart"
	"github.com/GitwithRaj/talktocart/internal/contracts"
	"github.com/GitwithRaj/talktocart/internal/invoice"
)

// EventMeta carries tracing identifiers from the request into the envelope.
type EventMeta struct {
	CorrelationID string
	CausationID   string
}

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type Publisher struct {
	ch       channel
	seqRepo  SequenceRepository
	producer string
	now      func() time.Time
}

type PublisherOptions struct {
	Producer string
}

func NewPublisher(conn *amqp.Connection, seqRepo SequenceRepository, opts PublisherOptions) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := declareEventsExchange(ch); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare events exchange: %w", err)
	}

	return newPublisher(ch, seqRepo, opts), nil
}

func newPublisher(ch channel, seqRepo SequenceRepository, opts PublisherOptions) *Publisher {
	producer := opts.Producer
	if producer == "" {
		producer = contracts.TalkToCartProducer
	}
	return &Publisher{
		ch:       ch,
		seqRepo:  seqRepo,
		producer: producer,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}

func (p *Publisher) PublishCartUpdated(ctx context.Context, meta EventMeta, userID string, c cart.Cart, source contracts.CartUpdateSource, advisories []string) error {
	opts, err := p.envelopeOptions(ctx, meta, userID)
	if err != nil {
		return err
	}
	env := contracts.BuildCartUpdatedEvent(userID, c, source, advisories, opts)
	return p.publish(ctx, CartUpdatedRoutingKey, env.EventName, env.EventID, env.CorrelationID, env)
}

func (p *Publisher) PublishInvoiceGenerated(ctx context.Context, meta EventMeta, userID, number string, inv invoice.Invoice) error {
	opts, err := p.envelopeOptions(ctx, meta, userID)
	if err != nil {
		return err
	}
	env := contracts.BuildInvoiceGeneratedEvent(userID, number, inv, opts)
	return p.publish(ctx, InvoiceGeneratedRoutingKey, env.EventName, env.EventID, env.CorrelationID, env)
}

func (p *Publisher) envelopeOptions(ctx context.Context, meta EventMeta, userID string) (contracts.EnvelopeOptions, error) {
	seq, err := p.seqRepo.NextSequence(ctx, userID)
	if err != nil {
		return contracts.EnvelopeOptions{}, fmt.Errorf("reserve sequence: %w", err)
	}
	return contracts.EnvelopeOptions{
		PartitionKey:  userID,
		Sequence:      seq,
		Producer:      p.producer,
		CorrelationID: meta.CorrelationID,
		CausationID:   meta.CausationID,
		OccurredAt:    p.now(),
	}, nil
}

func (p *Publisher) publish(ctx context.Context, routingKey, eventName, eventID, correlationID string, env any) error {
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal %s envelope: %w", eventName, err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	err = p.ch.PublishWithContext(
		pubCtx,
		EventsExchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:   "application/json",
			DeliveryMode:  amqp.Persistent,
			MessageId:     eventID,
			CorrelationId: correlationID,
			Type:          eventName,
			AppId:         p.producer,
			Timestamp:     p.now(),
			Body:          body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", eventName, err)
	}
	return nil
}

// NopPublisher drops every event. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishCartUpdated(context.Context, EventMeta, string, cart.Cart, contracts.CartUpdateSource, []string) error {
	return nil
}

func (NopPublisher) PublishInvoiceGenerated(context.Context, EventMeta, string, string, invoice.Invoice) error {
	return nil
}

func (NopPublisher) Close() error { return nil }
