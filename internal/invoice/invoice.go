package invoice

import (
	"errors"

	"github.com/GitwithRaj/talktocart/internal/cart"
)

const (
	TaxPercent = 18
	TaxRate    = TaxPercent / 100.0

	CurrencySymbol = "$"
)

var ErrEmptyCartInvoice = errors.New("cannot generate an invoice for an empty cart")

// PriceLookup resolves a unit price for an item identifier.
type PriceLookup interface {
	PriceOf(id string) (float64, error)
}

type Line struct {
	ID        string  `json:"id"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
	LineTotal float64 `json:"lineTotal"`
}

// Invoice holds unrounded amounts. Rounding happens only when a Document
// is built from it.
type Invoice struct {
	Lines      []Line  `json:"lines"`
	Subtotal   float64 `json:"subtotal"`
	TaxAmount  float64 `json:"taxAmount"`
	GrandTotal float64 `json:"grandTotal"`
}

// Compute prices every cart line in cart order. An item the price lookup
// does not know is billed at 0.
func Compute(c cart.Cart, prices PriceLookup) (Invoice, error) {
	if c.IsEmpty() {
		return Invoice{}, ErrEmptyCartInvoice
	}

	inv := Invoice{Lines: make([]Line, 0, c.Len())}
	for _, l := range c.Lines() {
		unit, err := prices.PriceOf(l.Item)
		if err != nil {
			unit = 0
		}
		total := unit * float64(l.Quantity)
		inv.Lines = append(inv.Lines, Line{
			ID:        l.Item,
			Quantity:  l.Quantity,
			UnitPrice: unit,
			LineTotal: total,
		})
		inv.Subtotal += total
	}
	inv.TaxAmount = inv.Subtotal * TaxRate
	inv.GrandTotal = inv.Subtotal + inv.TaxAmount
	return inv, nil
}
