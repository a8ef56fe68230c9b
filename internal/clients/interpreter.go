package clients

import (
	"context"
	"net/http"

	"github.com/GitwithRaj/talktocart/internal/cart"
	"github.com/GitwithRaj/talktocart/internal/contracts"
)

// InterpreterClient calls the external natural-language interpreter.
type InterpreterClient struct{ c *Client }

func NewInterpreterClient(c *Client) *InterpreterClient { return &InterpreterClient{c: c} }

// Parse sends the prompt together with the current cart and returns the
// decoded response. Transport failures, non-2xx statuses and undecodable
// bodies are all returned as errors.
func (ic *InterpreterClient) Parse(ctx context.Context, prompt string, c cart.Cart) (contracts.ParseResponse, error) {
	var out contracts.ParseResponse
	err := ic.c.doJSON(ctx, http.MethodPost, "/parse", "", contracts.ParseRequest{Prompt: prompt, Cart: c}, &out)
	if err != nil {
		return contracts.ParseResponse{}, err
	}
	return out, nil
}
