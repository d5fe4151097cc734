package services

import (
	"context"

	domain "github.com/flourish-bakery/api/internal/domain"
)

// Type aliases expose domain models to the services package without reversing dependency direction.
type (
	ProductConfig      = domain.ProductConfig
	SizeOption         = domain.SizeOption
	AddOnOption        = domain.AddOnOption
	Order              = domain.Order
	OrderItem          = domain.OrderItem
	OrderStatus        = domain.OrderStatus
	Customizations     = domain.Customizations
	IcingSelection     = domain.IcingSelection
	PricingCalculation = domain.PricingCalculation
	PriceComponent     = domain.PriceComponent
	ProductOption      = domain.ProductOption
	ValidationMessage  = domain.ValidationMessage
	ValidationResult   = domain.ValidationResult
	FormErrors         = domain.FormErrors
	DeliverySlot       = domain.DeliverySlot
)

// PricingService prices individual order lines and whole orders against the
// loaded product catalog.
type PricingService interface {
	LoadConfigs(configs []ProductConfig)
	CalculateItemPrice(ctx context.Context, item OrderItem) (PricingCalculation, error)
	CalculateOrderTotal(ctx context.Context, items []OrderItem) float64
	AvailableOptions(productID string) ([]ProductOption, error)
}

// OrderValidationService checks order drafts against acceptance rules without
// mutating them.
type OrderValidationService interface {
	ValidateOrder(ctx context.Context, order Order) ValidationResult
	ValidateFormData(ctx context.Context, order Order) FormErrors
}

// CatalogService serves product and delivery-slot reads and keeps the pricing
// registry in sync with the catalog source.
type CatalogService interface {
	ListProducts(ctx context.Context) ([]ProductConfig, error)
	GetProduct(ctx context.Context, productID string) (ProductConfig, error)
	DeliverySlots(ctx context.Context) ([]DeliverySlot, error)
	Reload(ctx context.Context) error
}
