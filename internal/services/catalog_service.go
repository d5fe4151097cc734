package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/flourish-bakery/api/internal/catalog"
)

var (
	// ErrCatalogProductNotFound indicates the requested product is not in the catalog.
	ErrCatalogProductNotFound = errors.New("catalog service: product not found")
	// ErrCatalogNotLoaded indicates the catalog source has not been read yet.
	ErrCatalogNotLoaded = errors.New("catalog service: catalog not loaded")
)

// CatalogServiceDeps bundles constructor inputs for the catalog service.
type CatalogServiceDeps struct {
	Source  catalog.Source
	Pricing PricingService
	Logger  func(context.Context, string, map[string]any)
}

type catalogService struct {
	source  catalog.Source
	pricing PricingService
	logger  func(context.Context, string, map[string]any)

	mu       sync.RWMutex
	loaded   bool
	products []ProductConfig
	byID     map[string]ProductConfig
	slots    []DeliverySlot
}

// NewCatalogService constructs the catalog service and performs the initial
// catalog load, feeding the pricing registry.
func NewCatalogService(ctx context.Context, deps CatalogServiceDeps) (CatalogService, error) {
	if deps.Source == nil {
		return nil, fmt.Errorf("catalog service: source is required")
	}
	if deps.Pricing == nil {
		return nil, fmt.Errorf("catalog service: pricing service is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	svc := &catalogService{
		source:  deps.Source,
		pricing: deps.Pricing,
		logger:  logger,
	}
	if err := svc.Reload(ctx); err != nil {
		return nil, err
	}
	return svc, nil
}

func (s *catalogService) ListProducts(ctx context.Context) ([]ProductConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return nil, ErrCatalogNotLoaded
	}
	out := make([]ProductConfig, len(s.products))
	copy(out, s.products)
	return out, nil
}

func (s *catalogService) GetProduct(ctx context.Context, productID string) (ProductConfig, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return ProductConfig{}, fmt.Errorf("%w: product id is required", ErrCatalogProductNotFound)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return ProductConfig{}, ErrCatalogNotLoaded
	}
	cfg, ok := s.byID[productID]
	if !ok {
		return ProductConfig{}, fmt.Errorf("%w: %s", ErrCatalogProductNotFound, productID)
	}
	return cfg, nil
}

func (s *catalogService) DeliverySlots(ctx context.Context) ([]DeliverySlot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return nil, ErrCatalogNotLoaded
	}
	out := make([]DeliverySlot, len(s.slots))
	copy(out, s.slots)
	return out, nil
}

// Reload re-reads the source and swaps both the local cache and the pricing
// registry. On source failure the previous catalog stays in effect.
func (s *catalogService) Reload(ctx context.Context) error {
	products, err := s.source.Products(ctx)
	if err != nil {
		return fmt.Errorf("catalog service: load products: %w", err)
	}
	slots, err := s.source.DeliverySlots(ctx)
	if err != nil {
		return fmt.Errorf("catalog service: load delivery slots: %w", err)
	}

	byID := make(map[string]ProductConfig, len(products))
	for _, cfg := range products {
		byID[cfg.ID] = cfg
	}

	s.pricing.LoadConfigs(products)

	s.mu.Lock()
	s.loaded = true
	s.products = products
	s.byID = byID
	s.slots = slots
	s.mu.Unlock()

	s.logger(ctx, "catalog_loaded", map[string]any{"products": len(products), "deliverySlots": len(slots)})
	return nil
}
