// Package dispatch classifies an interpreter response into exactly one of
// three requests: reconcile the cart, generate an invoice, or restyle the UI.
package dispatch

import (
	"encoding/json"

	"github.com/GitwithRaj/talktocart/internal/cart"
	"github.com/GitwithRaj/talktocart/internal/contracts"
	"github.com/GitwithRaj/talktocart/internal/invoice"
)

const DefaultInvoiceMessage = "Generating your invoice..."

// Request is one of ReconcileRequest, InvoiceRequest or StyleRequest.
type Request interface {
	isRequest()
}

type ReconcileRequest struct {
	Add     cart.Intents
	Remove  cart.Intents
	Message string
}

type InvoiceRequest struct {
	Message string
}

// StyleRequest carries style directives through untouched. Applying them
// is up to the presentation layer.
type StyleRequest struct {
	CSSChanges json.RawMessage
	Message    string
}

func (ReconcileRequest) isRequest() {}
func (InvoiceRequest) isRequest()   {}
func (StyleRequest) isRequest()     {}

// Dispatch routes resp by its action. Unknown actions fall through to a
// reconcile request. Invoicing an empty cart fails with
// invoice.ErrEmptyCartInvoice.
func Dispatch(resp contracts.ParseResponse, c cart.Cart) (Request, error) {
	switch {
	case resp.Action == contracts.ActionGenerateInvoice:
		if c.IsEmpty() {
			return nil, invoice.ErrEmptyCartInvoice
		}
		msg := resp.Message
		if msg == "" {
			msg = DefaultInvoiceMessage
		}
		return InvoiceRequest{Message: msg}, nil

	case resp.Action == contracts.ActionUpdateUI && resp.HasCSSChanges():
		return StyleRequest{CSSChanges: resp.CSSChanges, Message: resp.Message}, nil

	default:
		add, remove := resp.Add, resp.Remove
		if add == nil {
			add = cart.Intents{}
		}
		if remove == nil {
			remove = cart.Intents{}
		}
		return ReconcileRequest{Add: add, Remove: remove, Message: resp.Message}, nil
	}
}
