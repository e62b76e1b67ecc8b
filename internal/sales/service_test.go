package sales

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/attarpos/attarpos/internal/inventory"
	"github.com/attarpos/attarpos/internal/invoicing"
	"github.com/attarpos/attarpos/internal/shared"
)

type memoryRepo struct {
	stocks    map[int64]int64
	sequences map[int]int
	sales     []Sale
	nextID    int64

	// staleExistsCheck makes InvoiceNumberExists answer as if a concurrent
	// insert of the same number had not committed yet.
	staleExistsCheck bool
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{stocks: make(map[int64]int64), sequences: make(map[int]int)}
}

type memoryTx struct {
	repo *memoryRepo
}

// WithTx snapshots state up front and restores it when fn fails, mirroring a
// database rollback.
func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	stocks := make(map[int64]int64, len(r.stocks))
	for id, stock := range r.stocks {
		stocks[id] = stock
	}
	sequences := make(map[int]int, len(r.sequences))
	for year, seq := range r.sequences {
		sequences[year] = seq
	}
	salesLen := len(r.sales)

	if err := fn(ctx, &memoryTx{repo: r}); err != nil {
		r.stocks = stocks
		r.sequences = sequences
		r.sales = r.sales[:salesLen]
		return err
	}
	return nil
}

func (r *memoryRepo) List(ctx context.Context, filter ListFilter) ([]Sale, error) {
	result := make([]Sale, len(r.sales))
	copy(result, r.sales)
	return result, nil
}

func (r *memoryRepo) Summarize(ctx context.Context, filter ListFilter) (Summary, error) {
	var summary Summary
	for _, sale := range r.sales {
		summary.TotalSales++
		summary.TotalRevenue += sale.GrandTotal
		for _, line := range sale.Lines {
			summary.TotalItems += line.Qty
		}
	}
	return summary, nil
}

func (tx *memoryTx) InvoiceNumberExists(ctx context.Context, invoiceNumber string) (bool, error) {
	if tx.repo.staleExistsCheck {
		return false, nil
	}
	for _, sale := range tx.repo.sales {
		if sale.InvoiceNumber == invoiceNumber {
			return true, nil
		}
	}
	return false, nil
}

func (tx *memoryTx) AllocateInvoiceSequence(ctx context.Context, year int) (int, error) {
	tx.repo.sequences[year]++
	return tx.repo.sequences[year], nil
}

func (tx *memoryTx) EnsureSequenceAtLeast(ctx context.Context, year, seq int) error {
	if tx.repo.sequences[year] < seq {
		tx.repo.sequences[year] = seq
	}
	return nil
}

func (tx *memoryTx) DecrementStock(ctx context.Context, itemID, qty int64) (*inventory.Item, error) {
	stock, ok := tx.repo.stocks[itemID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	if stock < qty {
		return nil, fmt.Errorf("%w: available %d, requested %d", shared.ErrInsufficientStock, stock, qty)
	}
	tx.repo.stocks[itemID] = stock - qty
	return &inventory.Item{ID: itemID, Stock: stock - qty}, nil
}

func (tx *memoryTx) InsertSale(ctx context.Context, sale Sale) (int64, error) {
	// Mirror the unique index on invoice_number.
	for _, existing := range tx.repo.sales {
		if existing.InvoiceNumber == sale.InvoiceNumber {
			return 0, fmt.Errorf("%w: %s", shared.ErrDuplicateInvoice, sale.InvoiceNumber)
		}
	}
	tx.repo.nextID++
	sale.ID = tx.repo.nextID
	tx.repo.sales = append(tx.repo.sales, sale)
	return sale.ID, nil
}

func (tx *memoryTx) InsertSaleLines(ctx context.Context, saleID int64, lines []SaleLine) error {
	for i := range tx.repo.sales {
		if tx.repo.sales[i].ID == saleID {
			tx.repo.sales[i].Lines = lines
			return nil
		}
	}
	return shared.ErrNotFound
}

// deleteItem mimics removing an inventory row: the FK on sale_lines.item_id
// is ON DELETE SET NULL, so stored lines keep their snapshot fields.
func (r *memoryRepo) deleteItem(id int64) {
	delete(r.stocks, id)
	for i := range r.sales {
		for j := range r.sales[i].Lines {
			if itemID := r.sales[i].Lines[j].ItemID; itemID != nil && *itemID == id {
				r.sales[i].Lines[j].ItemID = nil
			}
		}
	}
}

type memoryCache struct {
	summaries map[string]Summary
	hits      int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{summaries: make(map[string]Summary)}
}

func (c *memoryCache) Get(ctx context.Context, day time.Time) (*Summary, error) {
	if summary, ok := c.summaries[day.Format("2006-01-02")]; ok {
		c.hits++
		return &summary, nil
	}
	return nil, nil
}

func (c *memoryCache) Set(ctx context.Context, day time.Time, summary Summary) error {
	c.summaries[day.Format("2006-01-02")] = summary
	return nil
}

func (c *memoryCache) Invalidate(ctx context.Context, day time.Time) error {
	delete(c.summaries, day.Format("2006-01-02"))
	return nil
}

type countingMetrics struct {
	recorded int
}

func (m *countingMetrics) SaleRecorded() { m.recorded++ }

var cashier = shared.Identity{UserID: 2, Username: "cashier", Role: shared.RoleCashier}

var fixedNow = time.Date(2025, time.March, 14, 11, 30, 0, 0, time.UTC)

func newTestService(repo *memoryRepo) (*Service, *countingMetrics) {
	metrics := &countingMetrics{}
	svc := NewService(repo, nil, nil, metrics)
	svc.now = func() time.Time { return fixedNow }
	return svc, metrics
}

func TestRecordSaleAllocatesInvoiceAndDecrementsStock(t *testing.T) {
	repo := newMemoryRepo()
	repo.stocks[1] = 10
	svc, metrics := newTestService(repo)
	ctx := context.Background()

	sale, err := svc.RecordSale(ctx, RecordInput{
		Lines:      []LineInput{{ItemID: 1, Name: "Rose Attar", Qty: 3, Rate: 450, Amount: 1350}},
		Subtotal:   1350,
		GrandTotal: 1350,
	}, cashier)
	require.NoError(t, err)

	require.Equal(t, "INV-2025-001", sale.InvoiceNumber)
	require.Equal(t, "Customer", sale.CustomerName)
	require.Equal(t, "cashier", sale.RecordedBy)
	require.Equal(t, int64(7), repo.stocks[1])
	require.Len(t, repo.sales, 1)
	require.Equal(t, 1, metrics.recorded)

	// Next sale gets the following number.
	sale, err = svc.RecordSale(ctx, RecordInput{
		Lines:      []LineInput{{ItemID: 1, Name: "Rose Attar", Qty: 1, Rate: 450, Amount: 450}},
		Subtotal:   450,
		GrandTotal: 450,
	}, cashier)
	require.NoError(t, err)
	require.Equal(t, "INV-2025-002", sale.InvoiceNumber)
}

func TestRecordSaleStoresTotalsVerbatim(t *testing.T) {
	repo := newMemoryRepo()
	repo.stocks[1] = 5
	svc, _ := newTestService(repo)

	// Totals deliberately do not add up; the ledger trusts the till.
	sale, err := svc.RecordSale(context.Background(), RecordInput{
		CustomerName:    "Ayesha",
		CustomerMobile:  "0301",
		Lines:           []LineInput{{ItemID: 1, Name: "Oud Attar", Qty: 1, Rate: 900, Amount: 900}},
		Subtotal:        900,
		DiscountPercent: 10,
		DiscountAmount:  90,
		Taxable:         810,
		TaxPercent:      5,
		TaxAmount:       40.5,
		GrandTotal:      999,
	}, cashier)
	require.NoError(t, err)
	require.Equal(t, "Ayesha", sale.CustomerName)
	require.InDelta(t, 999, sale.GrandTotal, 0.0001)
	require.InDelta(t, 40.5, repo.sales[0].TaxAmount, 0.0001)
}

func TestRecordSaleRollsBackOnInsufficientStock(t *testing.T) {
	repo := newMemoryRepo()
	repo.stocks[1] = 10
	repo.stocks[2] = 1
	svc, metrics := newTestService(repo)

	_, err := svc.RecordSale(context.Background(), RecordInput{
		Lines: []LineInput{
			{ItemID: 1, Name: "Rose Attar", Qty: 3, Rate: 450, Amount: 1350},
			{ItemID: 2, Name: "Musk Perfume", Qty: 2, Rate: 650, Amount: 1300},
		},
		Subtotal:   2650,
		GrandTotal: 2650,
	}, cashier)
	require.ErrorIs(t, err, shared.ErrInsufficientStock)
	require.Contains(t, err.Error(), "Musk Perfume")

	// The first line's decrement must not survive the failure.
	require.Equal(t, int64(10), repo.stocks[1])
	require.Equal(t, int64(1), repo.stocks[2])
	require.Empty(t, repo.sales)
	require.Zero(t, repo.sequences[2025])
	require.Zero(t, metrics.recorded)
}

func TestRecordSaleRejectsUnknownItem(t *testing.T) {
	repo := newMemoryRepo()
	svc, _ := newTestService(repo)

	_, err := svc.RecordSale(context.Background(), RecordInput{
		Lines:      []LineInput{{ItemID: 7, Name: "Ghost Item", Qty: 1}},
		GrandTotal: 100,
	}, cashier)
	require.ErrorIs(t, err, shared.ErrNotFound)
	require.Contains(t, err.Error(), "Ghost Item")
}

func TestRecordSaleRejectsDuplicateInvoiceNumber(t *testing.T) {
	repo := newMemoryRepo()
	repo.stocks[1] = 10
	svc, _ := newTestService(repo)
	ctx := context.Background()

	input := RecordInput{
		InvoiceNumber: "INV-2025-001",
		Lines:         []LineInput{{ItemID: 1, Name: "Rose Attar", Qty: 1, Rate: 450, Amount: 450}},
		Subtotal:      450,
		GrandTotal:    450,
	}
	_, err := svc.RecordSale(ctx, input, cashier)
	require.NoError(t, err)

	_, err = svc.RecordSale(ctx, input, cashier)
	require.ErrorIs(t, err, shared.ErrDuplicateInvoice)
	require.Equal(t, int64(9), repo.stocks[1])
	require.Len(t, repo.sales, 1)
}

func TestRecordSaleDuplicateInsertRaceMapsToDuplicateInvoice(t *testing.T) {
	repo := newMemoryRepo()
	repo.stocks[1] = 10
	svc, _ := newTestService(repo)
	ctx := context.Background()

	input := RecordInput{
		InvoiceNumber: "INV-2025-001",
		Lines:         []LineInput{{ItemID: 1, Name: "Rose Attar", Qty: 1, Rate: 450, Amount: 450}},
		Subtotal:      450,
		GrandTotal:    450,
	}
	_, err := svc.RecordSale(ctx, input, cashier)
	require.NoError(t, err)

	// The loser of two racing inserts passes the existence check but hits the
	// unique index; that must still surface as a duplicate, not a storage fault.
	repo.staleExistsCheck = true
	_, err = svc.RecordSale(ctx, input, cashier)
	require.ErrorIs(t, err, shared.ErrDuplicateInvoice)
	require.Equal(t, int64(9), repo.stocks[1])
	require.Len(t, repo.sales, 1)
}

func TestSaleLinesSurviveItemDeletion(t *testing.T) {
	repo := newMemoryRepo()
	repo.stocks[1] = 10
	svc, _ := newTestService(repo)
	ctx := context.Background()

	_, err := svc.RecordSale(ctx, RecordInput{
		Lines:      []LineInput{{ItemID: 1, Name: "Rose Attar", Qty: 2, Rate: 450, Amount: 900}},
		Subtotal:   900,
		GrandTotal: 900,
	}, cashier)
	require.NoError(t, err)

	repo.deleteItem(1)

	listed, err := svc.List(ctx, ListFilter{})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Len(t, listed[0].Lines, 1)

	line := listed[0].Lines[0]
	require.Nil(t, line.ItemID)
	require.Equal(t, "Rose Attar", line.Name)
	require.Equal(t, int64(2), line.Qty)
	require.InDelta(t, 450, line.Rate, 0.0001)
	require.InDelta(t, 900, line.Amount, 0.0001)
}

func TestRecordSaleBurnsPreviewedNumber(t *testing.T) {
	repo := newMemoryRepo()
	repo.stocks[1] = 10
	svc, _ := newTestService(repo)
	ctx := context.Background()

	sale, err := svc.RecordSale(ctx, RecordInput{
		InvoiceNumber: invoicing.FormatNumber(2025, 1),
		Lines:         []LineInput{{ItemID: 1, Name: "Rose Attar", Qty: 1, Rate: 450, Amount: 450}},
		Subtotal:      450,
		GrandTotal:    450,
	}, cashier)
	require.NoError(t, err)
	require.Equal(t, "INV-2025-001", sale.InvoiceNumber)
	require.Equal(t, 1, repo.sequences[2025])

	// The next auto-allocated number must skip past the burned preview.
	sale, err = svc.RecordSale(ctx, RecordInput{
		Lines:      []LineInput{{ItemID: 1, Name: "Rose Attar", Qty: 1, Rate: 450, Amount: 450}},
		Subtotal:   450,
		GrandTotal: 450,
	}, cashier)
	require.NoError(t, err)
	require.Equal(t, "INV-2025-002", sale.InvoiceNumber)
}

func TestRecordSaleValidation(t *testing.T) {
	svc, _ := newTestService(newMemoryRepo())
	ctx := context.Background()

	_, err := svc.RecordSale(ctx, RecordInput{}, cashier)
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.RecordSale(ctx, RecordInput{
		Lines: []LineInput{{ItemID: 1, Name: "Rose Attar", Qty: 0}},
	}, cashier)
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.RecordSale(ctx, RecordInput{
		Lines:      []LineInput{{ItemID: 1, Name: "Rose Attar", Qty: 1}},
		GrandTotal: -1,
	}, cashier)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestSummaryUsesCacheForSingleDay(t *testing.T) {
	repo := newMemoryRepo()
	repo.stocks[1] = 10
	cache := newMemoryCache()
	svc := NewService(repo, nil, cache, nil)
	svc.now = func() time.Time { return fixedNow }
	ctx := context.Background()

	_, err := svc.RecordSale(ctx, RecordInput{
		Lines:      []LineInput{{ItemID: 1, Name: "Rose Attar", Qty: 2, Rate: 450, Amount: 900}},
		Subtotal:   900,
		GrandTotal: 900,
	}, cashier)
	require.NoError(t, err)

	day := fixedNow
	first, err := svc.Summary(ctx, ListFilter{Date: &day})
	require.NoError(t, err)
	require.Equal(t, 1, first.TotalSales)
	require.InDelta(t, 900, first.TotalRevenue, 0.0001)
	require.Equal(t, int64(2), first.TotalItems)
	require.Zero(t, cache.hits)

	second, err := svc.Summary(ctx, ListFilter{Date: &day})
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, cache.hits)
}

func TestFilterValidation(t *testing.T) {
	svc, _ := newTestService(newMemoryRepo())
	ctx := context.Background()

	day := fixedNow
	_, err := svc.List(ctx, ListFilter{Date: &day, StartDate: &day})
	require.ErrorIs(t, err, shared.ErrValidation)

	start := fixedNow
	end := fixedNow.AddDate(0, 0, -1)
	_, err = svc.Summary(ctx, ListFilter{StartDate: &start, EndDate: &end})
	require.ErrorIs(t, err, shared.ErrValidation)
}
