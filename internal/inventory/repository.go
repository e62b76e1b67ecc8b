package inventory

import "context"

// RepositoryPort abstracts item persistence for the service.
type RepositoryPort interface {
	List(ctx context.Context) ([]Item, error)
	Get(ctx context.Context, id int64) (*Item, error)
	Create(ctx context.Context, item Item) (*Item, error)
	Update(ctx context.Context, id int64, updates map[string]any) (*Item, error)
	// AdjustStock applies delta as a single conditional read-modify-write.
	// It fails without mutating anything when stock + delta would be negative.
	AdjustStock(ctx context.Context, id int64, delta int64) (*Item, error)
	Delete(ctx context.Context, id int64) error
}
