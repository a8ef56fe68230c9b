package clients

import (
	"context"
	"io"
	"net/http"

	"github.com/GitwithRaj/talktocart/internal/http/dto"
	"github.com/GitwithRaj/talktocart/internal/invoice"
)

// CartClient talks to the cart service HTTP API.
type CartClient struct{ c *Client }

func NewCartClient(c *Client) *CartClient { return &CartClient{c: c} }

func cartPath(userID string) string {
	return "/api/cart/" + userID
}

func (cc *CartClient) Command(ctx context.Context, userID, prompt string) (dto.CommandResponse, error) {
	var out dto.CommandResponse
	err := cc.c.doJSON(ctx, http.MethodPost, cartPath(userID)+"/commands", "", dto.CommandRequest{Prompt: prompt}, &out)
	return out, err
}

// Adjust adds or removes a single unit of item. action is dto.ItemActionAdd
// or dto.ItemActionRemove.
func (cc *CartClient) Adjust(ctx context.Context, userID, item, action string) (dto.CommandResponse, error) {
	var out dto.CommandResponse
	err := cc.c.doJSON(ctx, http.MethodPost, cartPath(userID)+"/items", "", dto.ItemRequest{Item: item, Action: action}, &out)
	return out, err
}

func (cc *CartClient) GetCart(ctx context.Context, userID string) (dto.CartResponse, error) {
	var out dto.CartResponse
	err := cc.c.doJSON(ctx, http.MethodGet, cartPath(userID), "", nil, &out)
	return out, err
}

func (cc *CartClient) Reset(ctx context.Context, userID string) (dto.CartResponse, error) {
	var out dto.CartResponse
	err := cc.c.doJSON(ctx, http.MethodDelete, cartPath(userID), "", nil, &out)
	return out, err
}

func (cc *CartClient) Invoice(ctx context.Context, userID string) (invoice.Document, error) {
	var out invoice.Document
	err := cc.c.doJSON(ctx, http.MethodGet, cartPath(userID)+"/invoice", "", nil, &out)
	return out, err
}

// InvoiceText returns the server-rendered plain-text invoice.
func (cc *CartClient) InvoiceText(ctx context.Context, userID string) (string, error) {
	resp, err := cc.c.Do(ctx, http.MethodGet, cartPath(userID)+"/invoice", "format=text", nil, http.Header{"Accept": {"text/plain"}})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if err := checkStatus(cc.c.Name, resp); err != nil {
		return "", err
	}
	body, err := io.ReadAll(resp.Body)
	return string(body), err
}

func (cc *CartClient) Catalog(ctx context.Context) (dto.CatalogResponse, error) {
	var out dto.CatalogResponse
	err := cc.c.doJSON(ctx, http.MethodGet, "/api/catalog", "", nil, &out)
	return out, err
}
