package contracts

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/GitwithRaj/talktocart/internal/cart"
	"github.com/GitwithRaj/talktocart/internal/catalog"
	"github.com/GitwithRaj/talktocart/internal/invoice"
)

func TestBuildCartUpdatedEvent(t *testing.T) {
	now := time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC)
	c := cart.New(cart.Line{Item: "shirt", Quantity: 2}, cart.Line{Item: "hat", Quantity: 1})

	env := BuildCartUpdatedEvent("user-1", c, SourceCommand, []string{"cannot remove boots — not in cart"}, EnvelopeOptions{
		Sequence:      42,
		CorrelationID: "53b0fd3e-8d6b-49af-8c1f-12cf4182c2f7",
		CausationID:   "63b0fd3e-8d6b-49af-8c1f-12cf4182c2f7",
		EventID:       "73b0fd3e-8d6b-49af-8c1f-12cf4182c2f7",
		OccurredAt:    now,
	})

	require.Equal(t, CartUpdatedEventName, env.EventName)
	require.Equal(t, CartUpdatedEventVersion, env.EventVersion)
	require.Equal(t, "73b0fd3e-8d6b-49af-8c1f-12cf4182c2f7", env.EventID)
	require.Equal(t, "user-1", env.PartitionKey, "partition key defaults to the user id")
	require.Equal(t, int64(42), env.Sequence)
	require.Equal(t, TalkToCartProducer, env.Producer)
	require.Equal(t, CartUpdatedEnvelopedSchemaPath, env.Schema)
	require.Equal(t, now, env.Payload.UpdatedAt)
	require.Equal(t, c.Lines(), env.Payload.Items)
	require.Equal(t, SourceCommand, env.Payload.Source)
}

func TestBuildEventDefaults(t *testing.T) {
	env := BuildCartUpdatedEvent("user-2", cart.Cart{}, SourceReset, nil, EnvelopeOptions{PartitionKey: "custom"})

	_, err := uuid.Parse(env.EventID)
	require.NoError(t, err)
	require.False(t, env.OccurredAt.IsZero())
	require.Equal(t, "custom", env.PartitionKey)
	require.NotNil(t, env.Payload.Items)
}

func TestCartUpdatedEnvelopeSchemaValidation(t *testing.T) {
	makeEnvelope := func() EventEnvelope[CartUpdatedPayload] {
		c := cart.New(cart.Line{Item: "boots", Quantity: 1}, cart.Line{Item: "socks", Quantity: 5})
		return BuildCartUpdatedEvent("f8f98928-87f6-4fce-8c55-7a7a62012f1a", c, SourceManual, nil, EnvelopeOptions{
			Sequence:      1,
			CorrelationID: uuid.NewString(),
			OccurredAt:    time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC),
		})
	}

	require.NoError(t, validateAgainstSchema(CartUpdatedEnvelopedSchemaPath, makeEnvelope()))

	t.Run("empty cart after reset", func(t *testing.T) {
		env := BuildCartUpdatedEvent("u", cart.Cart{}, SourceReset, nil, EnvelopeOptions{Sequence: 3})
		require.NoError(t, validateAgainstSchema(CartUpdatedEnvelopedSchemaPath, env))
	})

	invalid := map[string]func(*EventEnvelope[CartUpdatedPayload]){
		"event name mismatch":   func(e *EventEnvelope[CartUpdatedPayload]) { e.EventName = "WrongEvent" },
		"missing partition key": func(e *EventEnvelope[CartUpdatedPayload]) { e.PartitionKey = "" },
		"missing sequence":      func(e *EventEnvelope[CartUpdatedPayload]) { e.Sequence = 0 },
		"wrong schema path": func(e *EventEnvelope[CartUpdatedPayload]) {
			e.Schema = "contracts/events/cart/CartUpdated.v1.payload.schema.json"
		},
		"unknown source":       func(e *EventEnvelope[CartUpdatedPayload]) { e.Payload.Source = "voice" },
		"payload missing user": func(e *EventEnvelope[CartUpdatedPayload]) { e.Payload.UserID = "" },
		"non-uuid event id":    func(e *EventEnvelope[CartUpdatedPayload]) { e.EventID = "evt-1" },
	}
	for name, mutate := range invalid {
		t.Run(name, func(t *testing.T) {
			env := makeEnvelope()
			mutate(&env)
			require.Error(t, validateAgainstSchema(CartUpdatedEnvelopedSchemaPath, env))
		})
	}
}

func TestInvoiceGeneratedEnvelopeSchemaValidation(t *testing.T) {
	c := cart.New(cart.Line{Item: "shirt", Quantity: 2}, cart.Line{Item: "hat", Quantity: 1})
	inv, err := invoice.Compute(c, catalog.Default())
	require.NoError(t, err)

	env := BuildInvoiceGeneratedEvent("user-9", "INV-20240301-abc", inv, EnvelopeOptions{Sequence: 7})
	require.Equal(t, InvoiceGeneratedEventName, env.EventName)
	require.Equal(t, invoice.TaxRate, env.Payload.TaxRate)
	require.InDelta(t, 59, env.Payload.GrandTotal, 1e-9)
	require.NoError(t, validateAgainstSchema(InvoiceGeneratedEnvelopedSchemaPath, env))

	t.Run("no lines", func(t *testing.T) {
		bad := env
		bad.Payload.Lines = []invoice.Line{}
		require.Error(t, validateAgainstSchema(InvoiceGeneratedEnvelopedSchemaPath, bad))
	})

	t.Run("missing invoice number", func(t *testing.T) {
		bad := env
		bad.Payload.InvoiceNumber = ""
		require.Error(t, validateAgainstSchema(InvoiceGeneratedEnvelopedSchemaPath, bad))
	})
}
