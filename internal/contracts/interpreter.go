package contracts

import (
	"encoding/json"

	"github.com/GitwithRaj/talktocart/internal/cart"
)

const (
	ActionGenerateInvoice = "generate_invoice"
	ActionUpdateUI        = "update_ui"
)

// ParseRequest is the body POSTed to the interpreter's /parse endpoint.
type ParseRequest struct {
	Prompt string    `json:"prompt"`
	Cart   cart.Cart `json:"cart"`
}

// ParseResponse is the interpreter's reply. Every field is optional.
type ParseResponse struct {
	Add        cart.Intents    `json:"add,omitempty"`
	Remove     cart.Intents    `json:"remove,omitempty"`
	Message    string          `json:"message,omitempty"`
	Action     string          `json:"action,omitempty"`
	CSSChanges json.RawMessage `json:"cssChanges,omitempty"`
}

// HasCSSChanges reports whether the response carries a style payload, which
// must be a JSON object. Scalars, arrays and null do not count.
func (r ParseResponse) HasCSSChanges() bool {
	var rules map[string]json.RawMessage
	if len(r.CSSChanges) == 0 || json.Unmarshal(r.CSSChanges, &rules) != nil {
		return false
	}
	return rules != nil
}
