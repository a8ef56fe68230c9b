package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/GitwithRaj/talktocart/internal/cart"
	"github.com/GitwithRaj/talktocart/internal/catalog"
	"github.com/GitwithRaj/talktocart/internal/http/dto"
	"github.com/GitwithRaj/talktocart/internal/invoice"
	"github.com/GitwithRaj/talktocart/internal/session"
)

const serviceName = "talktocart"

// CartService is the subset of *session.Service the handlers call.
type CartService interface {
	Command(ctx context.Context, userID, prompt string) (session.Result, error)
	Adjust(ctx context.Context, userID, item, action string) (session.Result, error)
	Cart(ctx context.Context, userID string) (cart.Cart, error)
	Reset(ctx context.Context, userID string) error
	Invoice(ctx context.Context, userID string) (invoice.Document, error)
}

type CatalogLister interface {
	Entries() []catalog.Entry
}

type Handler struct {
	svc     CartService
	catalog CatalogLister
	logger  *zap.Logger

	// timeout bounds plain reads and writes; commandTimeout also covers
	// the interpreter round trip.
	timeout        time.Duration
	commandTimeout time.Duration
}

type HandlerOptions struct {
	Logger         *zap.Logger
	Timeout        time.Duration
	CommandTimeout time.Duration
}

func NewHandler(svc CartService, cat CatalogLister, opts HandlerOptions) *Handler {
	h := &Handler{
		svc:            svc,
		catalog:        cat,
		logger:         opts.Logger,
		timeout:        opts.Timeout,
		commandTimeout: opts.CommandTimeout,
	}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}
	if h.timeout <= 0 {
		h.timeout = 5 * time.Second
	}
	if h.commandTimeout <= 0 {
		h.commandTimeout = 20 * time.Second
	}
	return h
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.HealthResponse{Status: "ok", Service: serviceName})
}

func (h *Handler) Catalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.CatalogResponse{Items: h.catalog.Entries()})
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	c, err := h.svc.Cart(ctx, userID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.CartResponse{UserID: userID, Cart: c})
}

func (h *Handler) ResetCart(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.svc.Reset(ctx, userID); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.CartResponse{UserID: userID, Cart: cart.Cart{}})
}

func (h *Handler) Command(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	var body dto.CommandRequest
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(body.Prompt) == "" {
		writeError(w, r, http.StatusBadRequest, "prompt is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.commandTimeout)
	defer cancel()

	res, err := h.svc.Command(ctx, userID, body.Prompt)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, commandResponse(res))
}

func (h *Handler) AdjustItem(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	var body dto.ItemRequest
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json")
		return
	}
	if body.Item == "" {
		writeError(w, r, http.StatusBadRequest, "item is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	res, err := h.svc.Adjust(ctx, userID, body.Item, strings.ToLower(body.Action))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, commandResponse(res))
}

// Invoice returns the invoice document as JSON, or as plain text with
// ?format=text.
func (h *Handler) Invoice(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	doc, err := h.svc.Invoice(ctx, userID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if err := doc.WriteText(w); err != nil {
			h.logger.Warn("write text invoice", zap.String("user_id", userID), zap.Error(err))
		}
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func commandResponse(res session.Result) dto.CommandResponse {
	advisories := res.Advisories
	if advisories == nil {
		advisories = []cart.Advisory{}
	}
	return dto.CommandResponse{
		Kind:       string(res.Kind),
		Cart:       res.Cart,
		Message:    res.Message,
		Advisories: advisories,
		Invoice:    res.Invoice,
		CSSChanges: res.CSSChanges,
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10))
	return dec.Decode(v)
}
