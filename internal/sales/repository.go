package sales

import (
	"context"

	"github.com/attarpos/attarpos/internal/inventory"
)

// RepositoryPort abstracts sale persistence for the service.
type RepositoryPort interface {
	// WithTx runs fn inside one database transaction. Stock decrements,
	// sequence allocation and the sale insert all commit or roll back together.
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	List(ctx context.Context, filter ListFilter) ([]Sale, error)
	Summarize(ctx context.Context, filter ListFilter) (Summary, error)
}

// TxRepository exposes the operations available inside a sale transaction.
type TxRepository interface {
	InvoiceNumberExists(ctx context.Context, invoiceNumber string) (bool, error)
	// AllocateInvoiceSequence atomically burns and returns the next sequence
	// value for the year.
	AllocateInvoiceSequence(ctx context.Context, year int) (int, error)
	// EnsureSequenceAtLeast advances the year's counter to at least seq, so a
	// previewed number recorded by the caller is burned exactly once.
	EnsureSequenceAtLeast(ctx context.Context, year, seq int) error
	// DecrementStock runs the inventory ledger's conditional adjustment
	// inside this transaction.
	DecrementStock(ctx context.Context, itemID, qty int64) (*inventory.Item, error)
	InsertSale(ctx context.Context, sale Sale) (int64, error)
	InsertSaleLines(ctx context.Context, saleID int64, lines []SaleLine) error
}
