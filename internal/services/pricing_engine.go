package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	domain "github.com/flourish-bakery/api/internal/domain"
)

var (
	// ErrPricingConfigNotFound is returned when an item references a product
	// absent from the pricing registry.
	ErrPricingConfigNotFound = errors.New("pricing: product configuration not found")
)

// PricingEngine holds the product configuration registry and prices order
// lines against it. All methods except LoadConfigs are read-only; the
// registry lock exists because a catalog reload may race concurrent pricing
// calls.
type PricingEngine struct {
	mu      sync.RWMutex
	configs map[string]ProductConfig
	logger  func(context.Context, string, map[string]any)
}

// PricingEngineDeps bundles constructor inputs for the pricing engine.
type PricingEngineDeps struct {
	Logger func(context.Context, string, map[string]any)
}

// NewPricingEngine constructs a pricing engine with an empty registry.
func NewPricingEngine(deps PricingEngineDeps) *PricingEngine {
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &PricingEngine{
		configs: make(map[string]ProductConfig),
		logger:  logger,
	}
}

// LoadConfigs replaces the entire registry. Duplicate product identifiers are
// resolved last-write-wins; calling twice with the same slice is a no-op.
func (e *PricingEngine) LoadConfigs(configs []ProductConfig) {
	next := make(map[string]ProductConfig, len(configs))
	for _, cfg := range configs {
		id := strings.TrimSpace(cfg.ID)
		if id == "" {
			continue
		}
		next[id] = cfg
	}
	e.mu.Lock()
	e.configs = next
	e.mu.Unlock()
}

// CalculateItemPrice prices a single order line. A missing product
// configuration is the only hard error; size, icing, and topping identifiers
// that do not resolve against the config contribute no surcharge so stale
// selections cannot abort pricing.
func (e *PricingEngine) CalculateItemPrice(ctx context.Context, item OrderItem) (PricingCalculation, error) {
	cfg, ok := e.lookupConfig(item.ProductID)
	if !ok {
		return PricingCalculation{}, fmt.Errorf("%w: %s", ErrPricingConfigNotFound, item.ProductID)
	}

	quantity := item.Quantity
	if quantity < 1 {
		quantity = 1
	}

	breakdown := []PriceComponent{{Description: fmt.Sprintf("%s base price", cfg.Name), Amount: cfg.BasePrice}}

	multiplier := 1.0
	if item.Customizations != nil && item.Customizations.SizeID != "" {
		if size, found := findSize(cfg, item.Customizations.SizeID); found {
			multiplier = size.Multiplier
			if multiplier != 1.0 {
				breakdown = append(breakdown, PriceComponent{
					Description: fmt.Sprintf("Size: %s", size.Name),
					Amount:      cfg.BasePrice * (multiplier - 1),
				})
			}
		}
	}

	flavorCount := 1
	if item.Customizations != nil && len(item.Customizations.FlavorIDs) > 0 {
		flavorCount = len(item.Customizations.FlavorIDs)
	}
	flavorSurcharge := 0.0
	if flavorCount > 1 {
		if surcharge, found := cfg.FlavorSurcharges[flavorCount]; found {
			flavorSurcharge = surcharge
			breakdown = append(breakdown, PriceComponent{
				Description: fmt.Sprintf("%d flavors", flavorCount),
				Amount:      surcharge,
			})
		}
	}

	addOnTotal := 0.0
	if item.Customizations != nil {
		if icing := item.Customizations.Icing; icing != nil {
			if option, found := findAddOn(cfg.AvailableIcings, icing.TypeID); found && option.AdditionalCost != 0 {
				addOnTotal += option.AdditionalCost
				breakdown = append(breakdown, PriceComponent{
					Description: fmt.Sprintf("Icing: %s", option.Name),
					Amount:      option.AdditionalCost,
				})
			}
		}
		for _, toppingID := range item.Customizations.ToppingIDs {
			option, found := findAddOn(cfg.AvailableToppings, toppingID)
			if !found || option.AdditionalCost == 0 {
				continue
			}
			addOnTotal += option.AdditionalCost
			breakdown = append(breakdown, PriceComponent{
				Description: fmt.Sprintf("Topping: %s", option.Name),
				Amount:      option.AdditionalCost,
			})
		}
	}

	unitPrice := cfg.BasePrice*multiplier + flavorSurcharge + addOnTotal
	total := unitPrice * float64(quantity)
	breakdown = append(breakdown, PriceComponent{
		Description: fmt.Sprintf("Quantity × %d", quantity),
		Amount:      total - unitPrice,
	})

	return PricingCalculation{
		ProductID:       cfg.ID,
		BasePrice:       cfg.BasePrice,
		SizeMultiplier:  multiplier,
		FlavorSurcharge: flavorSurcharge,
		AddOnTotal:      addOnTotal,
		UnitPrice:       unitPrice,
		Quantity:        quantity,
		Total:           total,
		Breakdown:       breakdown,
	}, nil
}

// CalculateOrderTotal sums line totals over all items. A line whose product
// configuration is missing degrades to its snapshotted base price times
// quantity so one stale line cannot sink the whole estimate.
func (e *PricingEngine) CalculateOrderTotal(ctx context.Context, items []OrderItem) float64 {
	var total float64
	for _, item := range items {
		calc, err := e.CalculateItemPrice(ctx, item)
		if err != nil {
			if errors.Is(err, ErrPricingConfigNotFound) {
				quantity := item.Quantity
				if quantity < 1 {
					quantity = 1
				}
				fallback := item.UnitBasePrice * float64(quantity)
				e.logger(ctx, "pricing_fallback_applied", map[string]any{
					"productId": item.ProductID,
					"quantity":  quantity,
					"fallback":  fallback,
				})
				total += fallback
				continue
			}
			// CalculateItemPrice has no other failure mode today; skip the
			// line rather than guess at a price.
			e.logger(ctx, "pricing_item_skipped", map[string]any{"productId": item.ProductID, "error": err.Error()})
			continue
		}
		total += calc.Total
	}
	return total
}

// AvailableOptions flattens a product's size, icing, and topping options into
// one display list. Size costs are derived from the current base price on
// every call.
func (e *PricingEngine) AvailableOptions(productID string) ([]ProductOption, error) {
	cfg, ok := e.lookupConfig(productID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPricingConfigNotFound, productID)
	}

	options := make([]ProductOption, 0, len(cfg.AvailableSizes)+len(cfg.AvailableIcings)+len(cfg.AvailableToppings))
	for _, size := range cfg.AvailableSizes {
		options = append(options, ProductOption{
			Type:           domain.ProductOptionSize,
			ID:             size.ID,
			Name:           size.Name,
			AdditionalCost: cfg.BasePrice * (size.Multiplier - 1),
		})
	}
	for _, icing := range cfg.AvailableIcings {
		options = append(options, ProductOption{
			Type:           domain.ProductOptionIcing,
			ID:             icing.ID,
			Name:           icing.Name,
			AdditionalCost: icing.AdditionalCost,
		})
	}
	for _, topping := range cfg.AvailableToppings {
		options = append(options, ProductOption{
			Type:           domain.ProductOptionTopping,
			ID:             topping.ID,
			Name:           topping.Name,
			AdditionalCost: topping.AdditionalCost,
		})
	}
	return options, nil
}

func (e *PricingEngine) lookupConfig(productID string) (ProductConfig, bool) {
	id := strings.TrimSpace(productID)
	e.mu.RLock()
	cfg, ok := e.configs[id]
	e.mu.RUnlock()
	return cfg, ok
}

func findSize(cfg ProductConfig, sizeID string) (SizeOption, bool) {
	for _, size := range cfg.AvailableSizes {
		if size.ID == sizeID {
			return size, true
		}
	}
	return SizeOption{}, false
}

func findAddOn(options []AddOnOption, optionID string) (AddOnOption, bool) {
	for _, option := range options {
		if option.ID == optionID {
			return option, true
		}
	}
	return AddOnOption{}, false
}
