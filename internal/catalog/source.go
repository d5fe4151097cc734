// Package catalog supplies product configurations and delivery slots to the
// pricing and order services. Sources are read-only; the services decide when
// to reload.
package catalog

import (
	"context"

	domain "github.com/flourish-bakery/api/internal/domain"
)

// Source provides the product catalog and bookable delivery windows.
type Source interface {
	Products(ctx context.Context) ([]domain.ProductConfig, error)
	DeliverySlots(ctx context.Context) ([]domain.DeliverySlot, error)
}
