package inventory

import (
	"fmt"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/attarpos/attarpos/internal/shared"
)

// ItemType enumerates the product categories sold at the counter.
type ItemType string

const (
	ItemTypeAttar    ItemType = "Attar"
	ItemTypePerfume  ItemType = "Perfume"
	ItemTypeBodyMist ItemType = "Body Mist"
	ItemTypeOthers   ItemType = "Others"
)

var titler = cases.Title(language.English)

// ParseItemType normalises free-form input ("attar", "BODY MIST") into a known type.
func ParseItemType(value string) (ItemType, error) {
	switch ItemType(titler.String(value)) {
	case ItemTypeAttar:
		return ItemTypeAttar, nil
	case ItemTypePerfume:
		return ItemTypePerfume, nil
	case ItemTypeBodyMist:
		return ItemTypeBodyMist, nil
	case ItemTypeOthers:
		return ItemTypeOthers, nil
	}
	return "", fmt.Errorf("%w: unknown item type %q", shared.ErrValidation, value)
}

// Item is a sellable product with its current stock count.
// Stock never goes negative; the repository enforces that on every adjustment.
type Item struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Type      ItemType  `json:"type"`
	Price     float64   `json:"price"`
	Stock     int64     `json:"stock"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
