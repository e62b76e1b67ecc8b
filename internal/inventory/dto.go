package inventory

type createItemRequest struct {
	Name  string   `json:"name" validate:"required"`
	Type  string   `json:"type" validate:"required"`
	Price *float64 `json:"price" validate:"required,gte=0"`
	Stock *int64   `json:"stock" validate:"required,gte=0"`
}

type updateItemRequest struct {
	Name  *string  `json:"name,omitempty"`
	Type  *string  `json:"type,omitempty"`
	Price *float64 `json:"price,omitempty" validate:"omitempty,gte=0"`
	Stock *int64   `json:"stock,omitempty" validate:"omitempty,gte=0"`
}

type adjustStockRequest struct {
	Delta *int64 `json:"delta" validate:"required"`
}
