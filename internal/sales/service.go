package sales

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/attarpos/attarpos/internal/invoicing"
	"github.com/attarpos/attarpos/internal/shared"
)

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// MetricsPort counts recorded sales.
type MetricsPort interface {
	SaleRecorded()
}

// SummaryCachePort caches per-day summaries.
type SummaryCachePort interface {
	Get(ctx context.Context, day time.Time) (*Summary, error)
	Set(ctx context.Context, day time.Time, summary Summary) error
	Invalidate(ctx context.Context, day time.Time) error
}

// Service coordinates sale recording and reporting.
type Service struct {
	repo    RepositoryPort
	audit   AuditPort
	cache   SummaryCachePort
	metrics MetricsPort
	now     func() time.Time
}

// NewService builds Service. audit, cache and metrics may be nil.
func NewService(repo RepositoryPort, audit AuditPort, cache SummaryCachePort, metrics MetricsPort) *Service {
	return &Service{repo: repo, audit: audit, cache: cache, metrics: metrics, now: time.Now}
}

// RecordInput is a sale as submitted by the till. Totals are trusted and
// stored verbatim.
type RecordInput struct {
	InvoiceNumber   string
	InvoiceDate     *time.Time
	CustomerName    string
	CustomerMobile  string
	Lines           []LineInput
	Subtotal        float64
	DiscountPercent float64
	DiscountAmount  float64
	Taxable         float64
	TaxPercent      float64
	TaxAmount       float64
	GrandTotal      float64
}

// LineInput is one product entry of a sale being recorded.
type LineInput struct {
	ItemID int64
	Name   string
	Qty    int64
	Rate   float64
	Amount float64
}

// RecordSale persists a sale in one transaction: the invoice number is
// allocated (or a previewed one verified and burned), every line's stock is
// decremented conditionally, and the sale with its line snapshots is
// inserted. Any failure rolls everything back.
func (s *Service) RecordSale(ctx context.Context, input RecordInput, actor shared.Identity) (*Sale, error) {
	if err := validateRecordInput(input); err != nil {
		return nil, err
	}

	invoiceDate := s.now()
	if input.InvoiceDate != nil {
		invoiceDate = *input.InvoiceDate
	}
	customer := input.CustomerName
	if customer == "" {
		customer = "Customer"
	}

	sale := Sale{
		InvoiceNumber:   input.InvoiceNumber,
		InvoiceDate:     invoiceDate,
		CustomerName:    customer,
		CustomerMobile:  input.CustomerMobile,
		Subtotal:        input.Subtotal,
		DiscountPercent: input.DiscountPercent,
		DiscountAmount:  input.DiscountAmount,
		Taxable:         input.Taxable,
		TaxPercent:      input.TaxPercent,
		TaxAmount:       input.TaxAmount,
		GrandTotal:      input.GrandTotal,
		RecordedBy:      actor.Username,
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		year := invoiceDate.Year()
		if sale.InvoiceNumber == "" {
			sequence, err := tx.AllocateInvoiceSequence(ctx, year)
			if err != nil {
				return err
			}
			sale.InvoiceNumber = invoicing.FormatNumber(year, sequence)
		} else {
			exists, err := tx.InvoiceNumberExists(ctx, sale.InvoiceNumber)
			if err != nil {
				return err
			}
			if exists {
				return fmt.Errorf("%w: %s", shared.ErrDuplicateInvoice, sale.InvoiceNumber)
			}
			// A previewed number was never committed; advance the counter past
			// it so the next allocation cannot collide.
			if numberYear, sequence, ok := invoicing.ParseNumber(sale.InvoiceNumber); ok {
				if err := tx.EnsureSequenceAtLeast(ctx, numberYear, sequence); err != nil {
					return err
				}
			}
		}

		for _, line := range input.Lines {
			if _, err := tx.DecrementStock(ctx, line.ItemID, line.Qty); err != nil {
				return fmt.Errorf("item %q: %w", line.Name, err)
			}
		}

		saleID, err := tx.InsertSale(ctx, sale)
		if err != nil {
			return err
		}
		sale.ID = saleID

		lines := make([]SaleLine, 0, len(input.Lines))
		for _, line := range input.Lines {
			itemID := line.ItemID
			lines = append(lines, SaleLine{
				SaleID: saleID,
				ItemID: &itemID,
				Name:   line.Name,
				Qty:    line.Qty,
				Rate:   line.Rate,
				Amount: line.Amount,
			})
		}
		if err := tx.InsertSaleLines(ctx, saleID, lines); err != nil {
			return err
		}
		sale.Lines = lines
		return nil
	})
	if err != nil {
		return nil, err
	}

	sale.CreatedAt = s.now()
	if s.metrics != nil {
		s.metrics.SaleRecorded()
	}
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, invoiceDate)
	}
	s.recordAudit(ctx, actor, sale)
	return &sale, nil
}

// List returns sales matching the filter, newest first.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Sale, error) {
	if err := validateFilter(filter); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, filter)
}

// Summary aggregates sales for the filter. Single-day summaries are served
// from the cache when warm.
func (s *Service) Summary(ctx context.Context, filter ListFilter) (Summary, error) {
	if err := validateFilter(filter); err != nil {
		return Summary{}, err
	}
	if filter.Date != nil && s.cache != nil {
		if cached, err := s.cache.Get(ctx, *filter.Date); err == nil && cached != nil {
			return *cached, nil
		}
	}
	summary, err := s.repo.Summarize(ctx, filter)
	if err != nil {
		return Summary{}, err
	}
	if filter.Date != nil && s.cache != nil {
		_ = s.cache.Set(ctx, *filter.Date, summary)
	}
	return summary, nil
}

func validateRecordInput(input RecordInput) error {
	if len(input.Lines) == 0 {
		return fmt.Errorf("%w: at least one item required", shared.ErrValidation)
	}
	for _, line := range input.Lines {
		if line.ItemID <= 0 {
			return fmt.Errorf("%w: item id required", shared.ErrValidation)
		}
		if line.Name == "" {
			return fmt.Errorf("%w: item name required", shared.ErrValidation)
		}
		if line.Qty <= 0 {
			return fmt.Errorf("%w: qty must be positive", shared.ErrValidation)
		}
	}
	for name, value := range map[string]float64{
		"subtotal":       input.Subtotal,
		"discountAmount": input.DiscountAmount,
		"taxable":        input.Taxable,
		"taxAmount":      input.TaxAmount,
		"grandTotal":     input.GrandTotal,
	} {
		if value < 0 {
			return fmt.Errorf("%w: %s must not be negative", shared.ErrValidation, name)
		}
	}
	return nil
}

func validateFilter(filter ListFilter) error {
	if filter.Date != nil && (filter.StartDate != nil || filter.EndDate != nil) {
		return fmt.Errorf("%w: date cannot be combined with a range", shared.ErrValidation)
	}
	if filter.StartDate != nil && filter.EndDate != nil && filter.EndDate.Before(*filter.StartDate) {
		return fmt.Errorf("%w: endDate before startDate", shared.ErrValidation)
	}
	return nil
}

func (s *Service) recordAudit(ctx context.Context, actor shared.Identity, sale Sale) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.UserID,
		Action:   "sales:record",
		Entity:   "sale",
		EntityID: strconv.FormatInt(sale.ID, 10),
		Meta: map[string]any{
			"invoiceNumber": sale.InvoiceNumber,
			"grandTotal":    sale.GrandTotal,
			"lines":         len(sale.Lines),
		},
	})
}
