// Package session runs user commands against the cart engine: it loads the
// stored cart, asks the interpreter what the user meant, applies the
// result and persists it. At most one mutating call runs per user at a time.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/GitwithRaj/talktocart/internal/cart"
	"github.com/GitwithRaj/talktocart/internal/catalog"
	"github.com/GitwithRaj/talktocart/internal/contracts"
	"github.com/GitwithRaj/talktocart/internal/dispatch"
	"github.com/GitwithRaj/talktocart/internal/events"
	"github.com/GitwithRaj/talktocart/internal/invoice"
	"github.com/GitwithRaj/talktocart/internal/middleware"
)

var (
	ErrCommandInFlight        = errors.New("a command is already in flight for this user")
	ErrInterpreterUnavailable = errors.New("failed to fetch or parse from interpreter")
	ErrEmptyPrompt            = errors.New("prompt is required")
	ErrInvalidAction          = errors.New("action must be add or remove")
)

type Interpreter interface {
	Parse(ctx context.Context, prompt string, c cart.Cart) (contracts.ParseResponse, error)
}

type EventPublisher interface {
	PublishCartUpdated(ctx context.Context, meta events.EventMeta, userID string, c cart.Cart, source contracts.CartUpdateSource, advisories []string) error
	PublishInvoiceGenerated(ctx context.Context, meta events.EventMeta, userID, number string, inv invoice.Invoice) error
}

// Catalog validates item identifiers and prices them.
type Catalog interface {
	cart.ItemValidator
	invoice.PriceLookup
}

type Kind string

const (
	KindCart    Kind = "cart"
	KindInvoice Kind = "invoice"
	KindStyle   Kind = "style"
)

// Result is what a command produced. Invoice is set for KindInvoice and
// CSSChanges for KindStyle.
type Result struct {
	Kind       Kind
	Cart       cart.Cart
	Message    string
	Advisories []cart.Advisory
	Invoice    *invoice.Document
	CSSChanges json.RawMessage
}

type Deps struct {
	Interpreter Interpreter
	Repo        cart.Repository
	Catalog     Catalog
	Events      EventPublisher
	Logger      *zap.Logger
}

type Service struct {
	interpreter Interpreter
	repo        cart.Repository
	catalog     Catalog
	reconciler  *cart.Reconciler
	events      EventPublisher
	logger      *zap.Logger
	now         func() time.Time

	mu   sync.Mutex
	busy map[string]struct{}
}

func NewService(d Deps) *Service {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	var pub EventPublisher = events.NopPublisher{}
	if d.Events != nil {
		pub = d.Events
	}
	return &Service{
		interpreter: d.Interpreter,
		repo:        d.Repo,
		catalog:     d.Catalog,
		reconciler:  cart.NewReconciler(d.Catalog),
		events:      pub,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
		busy:        make(map[string]struct{}),
	}
}

// Command interprets prompt against the user's cart and applies the result.
// If the interpreter fails the stored cart is left untouched.
func (s *Service) Command(ctx context.Context, userID, prompt string) (Result, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return Result{}, ErrEmptyPrompt
	}

	release, err := s.acquire(userID)
	if err != nil {
		return Result{}, err
	}
	defer release()

	current, err := s.repo.GetCart(ctx, userID)
	if err != nil {
		return Result{}, fmt.Errorf("load cart: %w", err)
	}

	resp, err := s.interpreter.Parse(ctx, prompt, current)
	if err != nil {
		s.logger.Warn("interpreter call failed", zap.String("user_id", userID), zap.Error(err))
		return Result{}, fmt.Errorf("%w: %v", ErrInterpreterUnavailable, err)
	}

	req, err := dispatch.Dispatch(resp, current)
	if err != nil {
		return Result{}, err
	}

	switch r := req.(type) {
	case dispatch.InvoiceRequest:
		doc, err := s.issueInvoice(ctx, userID, current)
		if err != nil {
			return Result{}, err
		}
		return Result{Kind: KindInvoice, Cart: current, Message: r.Message, Invoice: &doc}, nil

	case dispatch.StyleRequest:
		return Result{Kind: KindStyle, Cart: current, Message: r.Message, CSSChanges: r.CSSChanges}, nil

	case dispatch.ReconcileRequest:
		out := s.reconciler.Reconcile(current, r.Add, r.Remove, r.Message)
		if err := s.save(ctx, userID, out, contracts.SourceCommand); err != nil {
			return Result{}, err
		}
		return Result{Kind: KindCart, Cart: out.Cart, Message: out.Message(), Advisories: out.Advisories}, nil

	default:
		return Result{}, fmt.Errorf("unhandled request %T", req)
	}
}

// Adjust adds or removes one unit of item, bypassing the interpreter.
func (s *Service) Adjust(ctx context.Context, userID, item, action string) (Result, error) {
	if !s.catalog.IsValidItem(item) {
		return Result{}, fmt.Errorf("%w: %q", catalog.ErrUnknownItem, item)
	}

	var add, remove cart.Intents
	switch action {
	case "add":
		add = cart.One(item)
	case "remove":
		remove = cart.One(item)
	default:
		return Result{}, ErrInvalidAction
	}

	release, err := s.acquire(userID)
	if err != nil {
		return Result{}, err
	}
	defer release()

	current, err := s.repo.GetCart(ctx, userID)
	if err != nil {
		return Result{}, fmt.Errorf("load cart: %w", err)
	}

	out := s.reconciler.Reconcile(current, add, remove, "")
	if err := s.save(ctx, userID, out, contracts.SourceManual); err != nil {
		return Result{}, err
	}
	return Result{Kind: KindCart, Cart: out.Cart, Message: out.Message(), Advisories: out.Advisories}, nil
}

func (s *Service) Cart(ctx context.Context, userID string) (cart.Cart, error) {
	c, err := s.repo.GetCart(ctx, userID)
	if err != nil {
		return cart.Cart{}, fmt.Errorf("load cart: %w", err)
	}
	return c, nil
}

// Reset empties the user's cart.
func (s *Service) Reset(ctx context.Context, userID string) error {
	release, err := s.acquire(userID)
	if err != nil {
		return err
	}
	defer release()

	if err := s.repo.ClearCart(ctx, userID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	s.publishCart(ctx, userID, cart.Cart{}, contracts.SourceReset, nil)
	return nil
}

// Invoice prices the stored cart. An empty cart yields
// invoice.ErrEmptyCartInvoice.
func (s *Service) Invoice(ctx context.Context, userID string) (invoice.Document, error) {
	c, err := s.repo.GetCart(ctx, userID)
	if err != nil {
		return invoice.Document{}, fmt.Errorf("load cart: %w", err)
	}
	return s.issueInvoice(ctx, userID, c)
}

func (s *Service) issueInvoice(ctx context.Context, userID string, c cart.Cart) (invoice.Document, error) {
	inv, err := invoice.Compute(c, s.catalog)
	if err != nil {
		return invoice.Document{}, err
	}

	issued := s.now()
	number := invoiceNumber(issued)
	doc := invoice.NewDocument(inv, invoice.Meta{Number: number, Customer: userID, IssuedAt: issued})

	if err := s.events.PublishInvoiceGenerated(ctx, eventMeta(ctx), userID, number, inv); err != nil {
		s.logger.Warn("publish invoice generated", zap.String("user_id", userID), zap.Error(err))
	}
	return doc, nil
}

func (s *Service) save(ctx context.Context, userID string, out cart.Outcome, source contracts.CartUpdateSource) error {
	if err := s.repo.UpsertCart(ctx, userID, out.Cart); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}

	var notes []string
	for _, a := range out.Advisories {
		notes = append(notes, a.Message)
	}
	s.publishCart(ctx, userID, out.Cart, source, notes)
	return nil
}

// publishCart never fails the caller; the cart is already persisted.
func (s *Service) publishCart(ctx context.Context, userID string, c cart.Cart, source contracts.CartUpdateSource, notes []string) {
	if err := s.events.PublishCartUpdated(ctx, eventMeta(ctx), userID, c, source, notes); err != nil {
		s.logger.Warn("publish cart updated",
			zap.String("user_id", userID),
			zap.String("source", string(source)),
			zap.Error(err),
		)
	}
}

func (s *Service) acquire(userID string) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, busy := s.busy[userID]; busy {
		return nil, ErrCommandInFlight
	}
	s.busy[userID] = struct{}{}

	return func() {
		s.mu.Lock()
		delete(s.busy, userID)
		s.mu.Unlock()
	}, nil
}

func eventMeta(ctx context.Context) events.EventMeta {
	return events.EventMeta{CorrelationID: middleware.GetCorrelationID(ctx)}
}

func invoiceNumber(t time.Time) string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "INV-" + t.Format("20060102") + "-" + id[:8]
}
