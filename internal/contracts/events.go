package contracts

import (
	"time"

	"github.com/google/uuid"

	"github.com/GitwithRaj/talktocart/internal/cart"
	"github.com/GitwithRaj/talktocart/internal/invoice"
)

const (
	CartUpdatedEventName           = "CartUpdated"
	CartUpdatedEventVersion        = 1
	CartUpdatedEnvelopedSchemaPath = "contracts/events/cart/CartUpdated.v1.enveloped.schema.json"

	InvoiceGeneratedEventName           = "InvoiceGenerated"
	InvoiceGeneratedEventVersion        = 1
	InvoiceGeneratedEnvelopedSchemaPath = "contracts/events/invoice/InvoiceGenerated.v1.enveloped.schema.json"

	TalkToCartProducer = "talktocart"
)

type EventEnvelope[P any] struct {
	EventName     string    `json:"eventName"`
	EventVersion  int       `json:"eventVersion"`
	EventID       string    `json:"eventId"`
	CorrelationID string    `json:"correlationId,omitempty"`
	CausationID   string    `json:"causationId,omitempty"`
	Producer      string    `json:"producer"`
	PartitionKey  string    `json:"partitionKey"`
	Sequence      int64     `json:"sequence"`
	OccurredAt    time.Time `json:"occurredAt"`
	Schema        string    `json:"schema"`
	Payload       P         `json:"payload"`
}

// CartUpdateSource says which path changed the cart.
type CartUpdateSource string

const (
	SourceCommand CartUpdateSource = "command"
	SourceManual  CartUpdateSource = "manual"
	SourceReset   CartUpdateSource = "reset"
)

type CartUpdatedPayload struct {
	UserID     string           `json:"userId"`
	Source     CartUpdateSource `json:"source"`
	Items      []cart.Line      `json:"items"`
	Advisories []string         `json:"advisories,omitempty"`
	UpdatedAt  time.Time        `json:"updatedAt"`
}

type InvoiceGeneratedPayload struct {
	UserID        string         `json:"userId"`
	InvoiceNumber string         `json:"invoiceNumber"`
	Lines         []invoice.Line `json:"lines"`
	Subtotal      float64        `json:"subtotal"`
	TaxRate       float64        `json:"taxRate"`
	TaxAmount     float64        `json:"taxAmount"`
	GrandTotal    float64        `json:"grandTotal"`
	GeneratedAt   time.Time      `json:"generatedAt"`
}

type EnvelopeOptions struct {
	PartitionKey  string
	Sequence      int64
	Producer      string
	SchemaPath    string
	CorrelationID string
	CausationID   string
	EventID       string
	OccurredAt    time.Time
}

// BuildCartUpdatedEvent wraps a cart snapshot. The partition key defaults to
// the user id so that per-user sequences stay ordered.
func BuildCartUpdatedEvent(userID string, c cart.Cart, source CartUpdateSource, advisories []string, opts EnvelopeOptions) EventEnvelope[CartUpdatedPayload] {
	env := newEnvelope[CartUpdatedPayload](CartUpdatedEventName, CartUpdatedEventVersion, CartUpdatedEnvelopedSchemaPath, userID, opts)
	env.Payload = CartUpdatedPayload{
		UserID:     userID,
		Source:     source,
		Items:      c.Lines(),
		Advisories: advisories,
		UpdatedAt:  env.OccurredAt,
	}
	return env
}

func BuildInvoiceGeneratedEvent(userID, number string, inv invoice.Invoice, opts EnvelopeOptions) EventEnvelope[InvoiceGeneratedPayload] {
	env := newEnvelope[InvoiceGeneratedPayload](InvoiceGeneratedEventName, InvoiceGeneratedEventVersion, InvoiceGeneratedEnvelopedSchemaPath, userID, opts)
	env.Payload = InvoiceGeneratedPayload{
		UserID:        userID,
		InvoiceNumber: number,
		Lines:         inv.Lines,
		Subtotal:      inv.Subtotal,
		TaxRate:       invoice.TaxRate,
		TaxAmount:     inv.TaxAmount,
		GrandTotal:    inv.GrandTotal,
		GeneratedAt:   env.OccurredAt,
	}
	return env
}

func newEnvelope[P any](name string, version int, schema, userID string, opts EnvelopeOptions) EventEnvelope[P] {
	eventID := opts.EventID
	if eventID == "" {
		eventID = uuid.NewString()
	}

	occurredAt := opts.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	if opts.SchemaPath != "" {
		schema = opts.SchemaPath
	}

	producer := opts.Producer
	if producer == "" {
		producer = TalkToCartProducer
	}

	partitionKey := opts.PartitionKey
	if partitionKey == "" {
		partitionKey = userID
	}

	return EventEnvelope[P]{
		EventName:     name,
		EventVersion:  version,
		EventID:       eventID,
		CorrelationID: opts.CorrelationID,
		CausationID:   opts.CausationID,
		Producer:      producer,
		PartitionKey:  partitionKey,
		Sequence:      opts.Sequence,
		OccurredAt:    occurredAt,
		Schema:        schema,
	}
}
