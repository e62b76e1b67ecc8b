package inventory

import (
	"context"
	"fmt"
	"strconv"

	"github.com/attarpos/attarpos/internal/shared"
)

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates inventory operations.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

// List returns all items, newest first.
func (s *Service) List(ctx context.Context) ([]Item, error) {
	return s.repo.List(ctx)
}

// CreateInput describes a new item request.
type CreateInput struct {
	Name  string
	Type  string
	Price float64
	Stock int64
}

// Create validates and stores a new item.
func (s *Service) Create(ctx context.Context, input CreateInput, actor shared.Identity) (*Item, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("%w: name required", shared.ErrValidation)
	}
	itemType, err := ParseItemType(input.Type)
	if err != nil {
		return nil, err
	}
	if input.Price < 0 {
		return nil, fmt.Errorf("%w: price must not be negative", shared.ErrValidation)
	}
	if input.Stock < 0 {
		return nil, fmt.Errorf("%w: stock must not be negative", shared.ErrValidation)
	}
	item, err := s.repo.Create(ctx, Item{
		Name:  input.Name,
		Type:  itemType,
		Price: input.Price,
		Stock: input.Stock,
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actor, "inventory:create", item.ID, map[string]any{"name": item.Name, "stock": item.Stock})
	return item, nil
}

// UpdateInput carries optional field updates; nil fields are left untouched.
type UpdateInput struct {
	Name  *string
	Type  *string
	Price *float64
	Stock *int64
}

// Update applies a partial update after re-validating every supplied field.
func (s *Service) Update(ctx context.Context, id int64, input UpdateInput, actor shared.Identity) (*Item, error) {
	updates := make(map[string]any)
	if input.Name != nil {
		if *input.Name == "" {
			return nil, fmt.Errorf("%w: name must not be empty", shared.ErrValidation)
		}
		updates["name"] = *input.Name
	}
	if input.Type != nil {
		itemType, err := ParseItemType(*input.Type)
		if err != nil {
			return nil, err
		}
		updates["item_type"] = string(itemType)
	}
	if input.Price != nil {
		if *input.Price < 0 {
			return nil, fmt.Errorf("%w: price must not be negative", shared.ErrValidation)
		}
		updates["price"] = *input.Price
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			return nil, fmt.Errorf("%w: stock must not be negative", shared.ErrValidation)
		}
		updates["stock"] = *input.Stock
	}
	if len(updates) == 0 {
		return nil, fmt.Errorf("%w: no fields to update", shared.ErrValidation)
	}
	item, err := s.repo.Update(ctx, id, updates)
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actor, "inventory:update", id, map[string]any{"fields": len(updates)})
	return item, nil
}

// AdjustStock applies a positive or negative delta atomically.
func (s *Service) AdjustStock(ctx context.Context, id int64, delta int64, actor shared.Identity) (*Item, error) {
	if delta == 0 {
		return nil, fmt.Errorf("%w: delta must not be zero", shared.ErrValidation)
	}
	item, err := s.repo.AdjustStock(ctx, id, delta)
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actor, "inventory:adjust_stock", id, map[string]any{"delta": delta, "stock": item.Stock})
	return item, nil
}

// Delete removes an item. Sale history keeps its snapshots.
func (s *Service) Delete(ctx context.Context, id int64, actor shared.Identity) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, actor, "inventory:delete", id, nil)
	return nil
}

func (s *Service) recordAudit(ctx context.Context, actor shared.Identity, action string, itemID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.UserID,
		Action:   action,
		Entity:   "inventory_item",
		EntityID: strconv.FormatInt(itemID, 10),
		Meta:     meta,
	})
}
