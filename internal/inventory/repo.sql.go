package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/attarpos/attarpos/internal/shared"
)

const itemColumns = "id, name, item_type, price, stock, created_at, updated_at"

// Repository persists inventory items in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns all items, newest first.
func (r *Repository) List(ctx context.Context) ([]Item, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+itemColumns+` FROM inventory_items ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Get loads a single item by id.
func (r *Repository) Get(ctx context.Context, id int64) (*Item, error) {
	item, err := scanItem(r.pool.QueryRow(ctx, `SELECT `+itemColumns+` FROM inventory_items WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// Create inserts a new item.
func (r *Repository) Create(ctx context.Context, item Item) (*Item, error) {
	created, err := scanItem(r.pool.QueryRow(ctx, `INSERT INTO inventory_items (name, item_type, price, stock, created_at, updated_at)
VALUES ($1, $2, $3, $4, NOW(), NOW())
RETURNING `+itemColumns, item.Name, string(item.Type), item.Price, item.Stock))
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// Update applies a partial field update built from the supplied map.
// Recognised keys: name, item_type, price, stock.
func (r *Repository) Update(ctx context.Context, id int64, updates map[string]any) (*Item, error) {
	query := "UPDATE inventory_items SET updated_at = NOW()"
	var args []any
	argPos := 1
	for _, column := range []string{"name", "item_type", "price", "stock"} {
		if v, ok := updates[column]; ok {
			query += fmt.Sprintf(", %s = $%d", column, argPos)
			args = append(args, v)
			argPos++
		}
	}
	query += fmt.Sprintf(" WHERE id = $%d RETURNING %s", argPos, itemColumns)
	args = append(args, id)

	item, err := scanItem(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// AdjustStock applies delta in one conditional statement so two concurrent
// adjustments can never both read the same stale value and oversell.
func (r *Repository) AdjustStock(ctx context.Context, id int64, delta int64) (*Item, error) {
	return AdjustStockIn(ctx, r.pool, id, delta)
}

// Delete removes an item. Historical sale lines keep their snapshot because
// sale_lines.item_id is declared ON DELETE SET NULL.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM inventory_items WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Querier matches both *pgxpool.Pool and pgx.Tx.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// AdjustStockIn is shared with the sales transaction repository so the same
// conditional decrement runs inside a sale's transaction.
func AdjustStockIn(ctx context.Context, q Querier, id int64, delta int64) (*Item, error) {
	item, err := scanItem(q.QueryRow(ctx, `UPDATE inventory_items
SET stock = stock + $2, updated_at = NOW()
WHERE id = $1 AND stock + $2 >= 0
RETURNING `+itemColumns, id, delta))
	if err == nil {
		return &item, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	// The guard rejected the row: distinguish a missing item from short stock.
	var stock int64
	if err := q.QueryRow(ctx, `SELECT stock FROM inventory_items WHERE id = $1`, id).Scan(&stock); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return nil, fmt.Errorf("%w: available %d, requested %d", shared.ErrInsufficientStock, stock, -delta)
}

func scanItem(row pgx.Row) (Item, error) {
	var item Item
	var itemType string
	if err := row.Scan(&item.ID, &item.Name, &itemType, &item.Price, &item.Stock, &item.CreatedAt, &item.UpdatedAt); err != nil {
		return Item{}, err
	}
	item.Type = ItemType(itemType)
	return item, nil
}
