package catalog

import (
	"context"

	domain "github.com/flourish-bakery/api/internal/domain"
)

// StaticSource serves the built-in catalog. It backs local development and
// acts as the fallback when no catalog file is configured.
type StaticSource struct{}

// NewStaticSource returns the built-in catalog source.
func NewStaticSource() *StaticSource {
	return &StaticSource{}
}

// Products returns a fresh copy of the built-in product configurations.
func (s *StaticSource) Products(ctx context.Context) ([]domain.ProductConfig, error) {
	return seedProducts(), nil
}

// DeliverySlots returns the built-in delivery windows.
func (s *StaticSource) DeliverySlots(ctx context.Context) ([]domain.DeliverySlot, error) {
	return seedDeliverySlots(), nil
}

func cakeSizes() []domain.SizeOption {
	return []domain.SizeOption{
		{ID: "small", Name: "Small (6\" - 8 servings)", Multiplier: 1.0},
		{ID: "medium", Name: "Medium (8\" - 16 servings)", Multiplier: 1.4},
		{ID: "large", Name: "Large (10\" - 24 servings)", Multiplier: 1.8},
		{ID: "xl", Name: "Extra Large (12\" - 36 servings)", Multiplier: 2.3},
		{ID: "tiered", Name: "Two Tier (50+ servings)", Multiplier: 3.1},
	}
}

func cakeIcings() []domain.AddOnOption {
	return []domain.AddOnOption{
		{ID: "buttercream", Name: "Buttercream", AdditionalCost: 0},
		{ID: "fondant", Name: "Fondant", AdditionalCost: 12.00},
		{ID: "cream-cheese", Name: "Cream Cheese", AdditionalCost: 8.00},
		{ID: "royal", Name: "Royal Icing", AdditionalCost: 10.00},
		{ID: "ganache", Name: "Chocolate Ganache", AdditionalCost: 9.00},
	}
}

func cakeToppings() []domain.AddOnOption {
	return []domain.AddOnOption{
		{ID: "fresh-berries", Name: "Fresh Berries", AdditionalCost: 6.00},
		{ID: "chocolate-shavings", Name: "Chocolate Shavings", AdditionalCost: 4.00},
		{ID: "edible-flowers", Name: "Edible Flowers", AdditionalCost: 8.00},
		{ID: "sprinkles", Name: "Sprinkles", AdditionalCost: 1.50},
		{ID: "macarons", Name: "Macaron Crown", AdditionalCost: 9.00},
	}
}

func seedProducts() []domain.ProductConfig {
	return []domain.ProductConfig{
		{
			ID:                "classic-cake",
			Name:              "The Classic",
			BasePrice:         35.00,
			AvailableSizes:    cakeSizes(),
			AvailableIcings:   cakeIcings(),
			AvailableToppings: cakeToppings(),
			FlavorSurcharges:  map[int]float64{2: 4.00, 3: 7.00},
		},
		{
			ID:                "chocolate-delight",
			Name:              "Chocolate Delight",
			BasePrice:         42.00,
			AvailableSizes:    cakeSizes(),
			AvailableIcings:   cakeIcings(),
			AvailableToppings: cakeToppings(),
			FlavorSurcharges:  map[int]float64{2: 4.50, 3: 8.00},
		},
		{
			ID:                "strawberry-dreams",
			Name:              "Strawberry Dreams",
			BasePrice:         45.00,
			AvailableSizes:    cakeSizes(),
			AvailableIcings:   cakeIcings(),
			AvailableToppings: cakeToppings(),
			FlavorSurcharges:  map[int]float64{2: 5.00, 3: 9.00},
		},
		{
			ID:        "cookies",
			Name:      "Signature Cookies",
			BasePrice: 2.50,
			AvailableSizes: []domain.SizeOption{
				{ID: "regular", Name: "Regular", Multiplier: 1.0},
				{ID: "large", Name: "Large", Multiplier: 1.5},
			},
			AvailableToppings: []domain.AddOnOption{
				{ID: "sprinkles", Name: "Sprinkles", AdditionalCost: 0.25},
				{ID: "chocolate-drizzle", Name: "Chocolate Drizzle", AdditionalCost: 0.50},
			},
			FlavorSurcharges: map[int]float64{2: 1.00, 3: 1.75},
		},
	}
}

func seedDeliverySlots() []domain.DeliverySlot {
	return []domain.DeliverySlot{
		{ID: "morning", Name: "9:00 AM - 12:00 PM", Start: "09:00", End: "12:00", Capacity: 8},
		{ID: "afternoon", Name: "12:00 PM - 4:00 PM", Start: "12:00", End: "16:00", Capacity: 8},
		{ID: "evening", Name: "4:00 PM - 7:00 PM", Start: "16:00", End: "19:00", Capacity: 4},
		{ID: "next-day", Name: "Next Day Delivery", Start: "", End: "", Capacity: 12},
	}
}
