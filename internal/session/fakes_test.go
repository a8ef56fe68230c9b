package session

import (
	"context"
	"errors"
	"sync"

	"github.com/GitwithRaj/talktocart/internal/cart"
	"github.com/GitwithRaj/talktocart/internal/contracts"
	"github.com/GitwithRaj/talktocart/internal/events"
	"github.com/GitwithRaj/talktocart/internal/invoice"
)

type interpreterFunc func(ctx context.Context, prompt string, c cart.Cart) (contracts.ParseResponse, error)

func (f interpreterFunc) Parse(ctx context.Context, prompt string, c cart.Cart) (contracts.ParseResponse, error) {
	return f(ctx, prompt, c)
}

func replying(resp contracts.ParseResponse) interpreterFunc {
	return func(context.Context, string, cart.Cart) (contracts.ParseResponse, error) {
		return resp, nil
	}
}

type memoryRepo struct {
	mu       sync.Mutex
	carts    map[string]cart.Cart
	upserts  int
	failNext error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{carts: make(map[string]cart.Cart)}
}

func (m *memoryRepo) GetCart(_ context.Context, userID string) (cart.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.carts[userID].Clone(), nil
}

func (m *memoryRepo) UpsertCart(_ context.Context, userID string, c cart.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failNext; err != nil {
		m.failNext = nil
		return err
	}
	m.upserts++
	m.carts[userID] = c.Clone()
	return nil
}

func (m *memoryRepo) ClearCart(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, userID)
	return nil
}

type cartEvent struct {
	userID     string
	cart       cart.Cart
	source     contracts.CartUpdateSource
	advisories []string
	meta       events.EventMeta
}

type invoiceEvent struct {
	userID string
	number string
	inv    invoice.Invoice
}

type recordingPublisher struct {
	mu       sync.Mutex
	carts    []cartEvent
	invoices []invoiceEvent
	fail     bool
}

func (p *recordingPublisher) PublishCartUpdated(_ context.Context, meta events.EventMeta, userID string, c cart.Cart, source contracts.CartUpdateSource, advisories []string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("broker unavailable")
	}
	p.carts = append(p.carts, cartEvent{userID: userID, cart: c, source: source, advisories: advisories, meta: meta})
	return nil
}

func (p *recordingPublisher) PublishInvoiceGenerated(_ context.Context, _ events.EventMeta, userID, number string, inv invoice.Invoice) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("broker unavailable")
	}
	p.invoices = append(p.invoices, invoiceEvent{userID: userID, number: number, inv: inv})
	return nil
}
