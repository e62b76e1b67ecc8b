package sales

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/attarpos/attarpos/internal/auth"
	"github.com/attarpos/attarpos/internal/invoicing"
	"github.com/attarpos/attarpos/internal/platform/httpx"
	"github.com/attarpos/attarpos/internal/shared"
)

// Handler wires HTTP endpoints for the sales module.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	invoices  *invoicing.Service
	validator *validator.Validate
	mw        auth.Middleware
}

// NewHandler constructs sales handler.
func NewHandler(logger *slog.Logger, service *Service, invoices *invoicing.Service, mw auth.Middleware) *Handler {
	return &Handler{logger: logger, service: service, invoices: invoices, validator: validator.New(), mw: mw}
}

// MountRoutes registers sales routes. Every endpoint requires authentication;
// recording is open to cashiers and admins alike.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(h.mw.RequireAuth)
	r.Get("/", h.handleList)
	r.Post("/", h.handleRecord)
	r.Get("/summary", h.handleSummary)
	r.Get("/invoice-number", h.handlePeekInvoiceNumber)
	r.Post("/increment-invoice", h.handleIncrementInvoice)
}

func (h *Handler) handleRecord(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.IdentityFromContext(r.Context())
	var req recordSaleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	lines := make([]LineInput, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, LineInput{
			ItemID: item.ItemID,
			Name:   item.Name,
			Qty:    item.Qty,
			Rate:   item.Rate,
			Amount: item.Amount,
		})
	}
	sale, err := h.service.RecordSale(r.Context(), RecordInput{
		InvoiceNumber:   req.InvoiceNumber,
		InvoiceDate:     req.InvoiceDate,
		CustomerName:    req.CustomerName,
		CustomerMobile:  req.CustomerMobile,
		Lines:           lines,
		Subtotal:        req.Subtotal,
		DiscountPercent: req.DiscountPercent,
		DiscountAmount:  req.DiscountAmount,
		Taxable:         req.Taxable,
		TaxPercent:      req.TaxPercent,
		TaxAmount:       req.TaxAmount,
		GrandTotal:      req.GrandTotal,
	}, actor)
	if err != nil {
		h.logger.Error("record sale", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, sale)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	sales, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list sales", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sales)
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	summary, err := h.service.Summary(r.Context(), filter)
	if err != nil {
		h.logger.Error("summarize sales", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

// handlePeekInvoiceNumber previews the next number without burning it. The
// sale transaction re-checks it, so a stale preview is only cosmetic.
func (h *Handler) handlePeekInvoiceNumber(w http.ResponseWriter, r *http.Request) {
	next, err := h.invoices.PeekNext(r.Context(), time.Now().Year())
	if err != nil {
		h.logger.Error("peek invoice number", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, next)
}

func (h *Handler) handleIncrementInvoice(w http.ResponseWriter, r *http.Request) {
	year := time.Now().Year()
	sequence, err := h.invoices.CommitIncrement(r.Context(), year)
	if err != nil {
		h.logger.Error("increment invoice sequence", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, invoicing.NextNumber{
		InvoiceNumber: invoicing.FormatNumber(year, sequence),
		Sequence:      sequence,
	})
}

func filterFromQuery(r *http.Request) (ListFilter, error) {
	var filter ListFilter
	parse := func(name string) (*time.Time, error) {
		raw := r.URL.Query().Get(name)
		if raw == "" {
			return nil, nil
		}
		t, err := time.ParseInLocation("2006-01-02", raw, time.Local)
		if err != nil {
			return nil, shared.ErrValidation
		}
		return &t, nil
	}
	var err error
	if filter.Date, err = parse("date"); err != nil {
		return ListFilter{}, err
	}
	if filter.StartDate, err = parse("startDate"); err != nil {
		return ListFilter{}, err
	}
	if filter.EndDate, err = parse("endDate"); err != nil {
		return ListFilter{}, err
	}
	return filter, nil
}
