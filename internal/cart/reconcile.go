package cart

import (
	"fmt"
	"strings"
)

type AdvisoryKind string

const (
	// QuantityCapped: only part of an addition fit under MaxItemQty.
	QuantityCapped AdvisoryKind = "quantity_capped"
	// QuantityCapExceeded: the item was already at MaxItemQty.
	QuantityCapExceeded AdvisoryKind = "quantity_cap_exceeded"
	// RemoveFromAbsentItem: a removal named an item the cart does not hold.
	RemoveFromAbsentItem AdvisoryKind = "remove_from_absent_item"
	// Override: the interpreter supplied its own message.
	Override AdvisoryKind = "override"
)

// Advisory is a non-fatal, per-item note produced during reconciliation.
type Advisory struct {
	Kind    AdvisoryKind `json:"kind"`
	Item    string       `json:"item,omitempty"`
	Message string       `json:"message"`
}

type Outcome struct {
	Cart       Cart
	Advisories []Advisory
}

// Message joins the advisories into the single string shown to the user.
func (o Outcome) Message() string {
	msgs := make([]string, 0, len(o.Advisories))
	for _, a := range o.Advisories {
		msgs = append(msgs, a.Message)
	}
	return strings.Join(msgs, "\n")
}

// Reconciler merges add/remove intents into a cart under the MaxItemQty cap.
type Reconciler struct {
	items ItemValidator
}

func NewReconciler(items ItemValidator) *Reconciler {
	return &Reconciler{items: items}
}

// Reconcile applies all additions, then all removals, to a copy of c and
// returns the copy. c itself is never modified. A non-empty override
// replaces every advisory the reconciliation produced.
func (r *Reconciler) Reconcile(c Cart, add, remove Intents, override string) Outcome {
	working := c.Clone()
	var advisories []Advisory

	for _, l := range Filter(r.items, add) {
		cur := working.Quantity(l.Item)
		next := cur + l.Quantity
		switch {
		case next <= MaxItemQty:
			working.set(l.Item, next)
		case cur < MaxItemQty:
			working.set(l.Item, MaxItemQty)
			advisories = append(advisories, Advisory{
				Kind:    QuantityCapped,
				Item:    l.Item,
				Message: fmt.Sprintf("only %d unit(s) of %s added, limit is %d", MaxItemQty-cur, l.Item, MaxItemQty),
			})
		default:
			advisories = append(advisories, Advisory{
				Kind:    QuantityCapExceeded,
				Item:    l.Item,
				Message: fmt.Sprintf("cannot add more than %d of %s", MaxItemQty, l.Item),
			})
		}
	}

	for _, l := range Filter(r.items, remove) {
		cur := working.Quantity(l.Item)
		if cur == 0 {
			advisories = append(advisories, Advisory{
				Kind:    RemoveFromAbsentItem,
				Item:    l.Item,
				Message: fmt.Sprintf("cannot remove %s — not in cart", l.Item),
			})
			continue
		}
		if next := cur - l.Quantity; next > 0 {
			working.set(l.Item, next)
		} else {
			working.remove(l.Item)
		}
	}

	if override != "" {
		advisories = []Advisory{{Kind: Override, Message: override}}
	}

	return Outcome{Cart: working, Advisories: advisories}
}

// One is a single-unit intent for item, as sent by the manual +/- controls.
func One(item string) Intents {
	return Intents{{Label: item, Quantity: 1}}
}
