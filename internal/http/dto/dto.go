// Package dto holds the JSON bodies of the cart HTTP API, shared by the
// server handlers and the command-line client.
package dto

import (
	"encoding/json"

	"github.com/GitwithRaj/talktocart/internal/cart"
	"github.com/GitwithRaj/talktocart/internal/catalog"
	"github.com/GitwithRaj/talktocart/internal/invoice"
)

type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

type CatalogResponse struct {
	Items []catalog.Entry `json:"items"`
}

type CartResponse struct {
	UserID string    `json:"userId"`
	Cart   cart.Cart `json:"cart"`
}

type CommandRequest struct {
	Prompt string `json:"prompt"`
}

const (
	ItemActionAdd    = "add"
	ItemActionRemove = "remove"
)

type ItemRequest struct {
	Item   string `json:"item"`
	Action string `json:"action"`
}

type CommandResponse struct {
	Kind       string            `json:"kind"`
	Cart       cart.Cart         `json:"cart"`
	Message    string            `json:"message"`
	Advisories []cart.Advisory   `json:"advisories"`
	Invoice    *invoice.Document `json:"invoice,omitempty"`
	CSSChanges json.RawMessage   `json:"cssChanges,omitempty"`
}

type ErrorResponse struct {
	Error         string `json:"error"`
	CorrelationID string `json:"correlationId,omitempty"`
}
