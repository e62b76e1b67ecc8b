package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/attarpos/attarpos/internal/inventory"
	"github.com/attarpos/attarpos/internal/invoicing"
	"github.com/attarpos/attarpos/internal/platform/db"
	"github.com/attarpos/attarpos/internal/shared"
)

// Repository persists sales in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside one database transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("sales repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

// List returns sales newest first, optionally narrowed by day or date range.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Sale, error) {
	where, args := filterClause(filter)
	rows, err := r.pool.Query(ctx, `SELECT s.id, s.invoice_number, s.invoice_date, s.customer_name, s.customer_mobile,
s.subtotal, s.discount_percent, s.discount_amount, s.taxable, s.tax_percent, s.tax_amount, s.grand_total, s.recorded_by, s.created_at
FROM sales s`+where+` ORDER BY s.created_at DESC, s.id DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sales := []Sale{}
	byID := map[int64]int{}
	for rows.Next() {
		var s Sale
		if err := rows.Scan(&s.ID, &s.InvoiceNumber, &s.InvoiceDate, &s.CustomerName, &s.CustomerMobile,
			&s.Subtotal, &s.DiscountPercent, &s.DiscountAmount, &s.Taxable, &s.TaxPercent, &s.TaxAmount,
			&s.GrandTotal, &s.RecordedBy, &s.CreatedAt); err != nil {
			return nil, err
		}
		byID[s.ID] = len(sales)
		sales = append(sales, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(sales) == 0 {
		return sales, nil
	}

	lineRows, err := r.pool.Query(ctx, `SELECT l.id, l.sale_id, l.item_id, l.name, l.qty, l.rate, l.amount
FROM sale_lines l JOIN sales s ON s.id = l.sale_id`+where+` ORDER BY l.id ASC`, args...)
	if err != nil {
		return nil, err
	}
	defer lineRows.Close()
	for lineRows.Next() {
		var line SaleLine
		if err := lineRows.Scan(&line.ID, &line.SaleID, &line.ItemID, &line.Name, &line.Qty, &line.Rate, &line.Amount); err != nil {
			return nil, err
		}
		if idx, ok := byID[line.SaleID]; ok {
			sales[idx].Lines = append(sales[idx].Lines, line)
		}
	}
	return sales, lineRows.Err()
}

// Summarize aggregates sale count, revenue and item quantity for the filter.
func (r *Repository) Summarize(ctx context.Context, filter ListFilter) (Summary, error) {
	where, args := filterClause(filter)
	var summary Summary
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*), COALESCE(SUM(s.grand_total), 0),
COALESCE((SELECT SUM(l.qty) FROM sale_lines l JOIN sales s ON s.id = l.sale_id`+where+`), 0)
FROM sales s`+where, args...).
		Scan(&summary.TotalSales, &summary.TotalRevenue, &summary.TotalItems)
	return summary, err
}

func (r *txRepository) InvoiceNumberExists(ctx context.Context, invoiceNumber string) (bool, error) {
	var exists bool
	err := r.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM sales WHERE invoice_number = $1)`, invoiceNumber).Scan(&exists)
	return exists, err
}

func (r *txRepository) AllocateInvoiceSequence(ctx context.Context, year int) (int, error) {
	return invoicing.CommitIncrementIn(ctx, r.tx, year)
}

func (r *txRepository) EnsureSequenceAtLeast(ctx context.Context, year, seq int) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO invoice_sequences (year, sequence, created_at, updated_at)
VALUES ($1, $2, NOW(), NOW())
ON CONFLICT (year) DO UPDATE SET sequence = GREATEST(invoice_sequences.sequence, EXCLUDED.sequence), updated_at = NOW()`, year, seq)
	return err
}

func (r *txRepository) DecrementStock(ctx context.Context, itemID, qty int64) (*inventory.Item, error) {
	return inventory.AdjustStockIn(ctx, r.tx, itemID, -qty)
}

func (r *txRepository) InsertSale(ctx context.Context, sale Sale) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO sales (invoice_number, invoice_date, customer_name, customer_mobile,
subtotal, discount_percent, discount_amount, taxable, tax_percent, tax_amount, grand_total, recorded_by, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,NOW()) RETURNING id`,
		sale.InvoiceNumber, sale.InvoiceDate, sale.CustomerName, sale.CustomerMobile,
		sale.Subtotal, sale.DiscountPercent, sale.DiscountAmount, sale.Taxable,
		sale.TaxPercent, sale.TaxAmount, sale.GrandTotal, sale.RecordedBy).Scan(&id)
	if err != nil {
		// The existence check cannot see a concurrent uncommitted insert; the
		// unique index on invoice_number is the backstop for that race.
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%w: %s", shared.ErrDuplicateInvoice, sale.InvoiceNumber)
		}
		return 0, err
	}
	return id, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *txRepository) InsertSaleLines(ctx context.Context, saleID int64, lines []SaleLine) error {
	for _, line := range lines {
		if _, err := r.tx.Exec(ctx, `INSERT INTO sale_lines (sale_id, item_id, name, qty, rate, amount)
VALUES ($1,$2,$3,$4,$5,$6)`, saleID, line.ItemID, line.Name, line.Qty, line.Rate, line.Amount); err != nil {
			return err
		}
	}
	return nil
}

func filterClause(filter ListFilter) (string, []any) {
	var conditions []string
	var args []any
	argPos := 1
	if filter.Date != nil {
		d := *filter.Date
		day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
		conditions = append(conditions, fmt.Sprintf("s.invoice_date >= $%d AND s.invoice_date < $%d", argPos, argPos+1))
		args = append(args, day, day.AddDate(0, 0, 1))
		argPos += 2
	} else {
		if filter.StartDate != nil {
			conditions = append(conditions, fmt.Sprintf("s.invoice_date >= $%d", argPos))
			args = append(args, *filter.StartDate)
			argPos++
		}
		if filter.EndDate != nil {
			e := *filter.EndDate
			end := time.Date(e.Year(), e.Month(), e.Day(), 0, 0, 0, 0, e.Location()).AddDate(0, 0, 1)
			conditions = append(conditions, fmt.Sprintf("s.invoice_date < $%d", argPos))
			args = append(args, end)
			argPos++
		}
	}
	if len(conditions) == 0 {
		return "", nil
	}
	where := " WHERE " + conditions[0]
	for i := 1; i < len(conditions); i++ {
		where += " AND " + conditions[i]
	}
	return where, args
}
