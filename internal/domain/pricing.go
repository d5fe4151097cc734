package domain

// PriceComponent is one line of a pricing audit trail. Surcharge lines are
// never negative: size multipliers are at least 1 and add-on costs at least 0,
// so a line total never drops below base price times quantity.
type PriceComponent struct {
	Description string
	Amount      float64
}

// PricingCalculation captures the full pricing outcome for one order line.
// The Breakdown lines sum to Total.
type PricingCalculation struct {
	ProductID       string
	BasePrice       float64
	SizeMultiplier  float64
	FlavorSurcharge float64
	AddOnTotal      float64
	UnitPrice       float64
	Quantity        int
	Total           float64
	Breakdown       []PriceComponent
}

// ProductOptionType discriminates the flattened option listing.
type ProductOptionType string

const (
	// ProductOptionSize marks a size option.
	ProductOptionSize ProductOptionType = "size"
	// ProductOptionIcing marks an icing option.
	ProductOptionIcing ProductOptionType = "icing"
	// ProductOptionTopping marks a topping option.
	ProductOptionTopping ProductOptionType = "topping"
)

// ProductOption is one selectable choice for a product, flattened across
// option kinds for display. For sizes AdditionalCost is derived from the
// current base price and multiplier rather than stored.
type ProductOption struct {
	Type           ProductOptionType
	ID             string
	Name           string
	AdditionalCost float64
}
