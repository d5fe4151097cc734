package domain

import (
	"time"
)

// SizeOption describes a selectable product size and its price multiplier
// relative to the product base price.
type SizeOption struct {
	ID         string
	Name       string
	Multiplier float64
}

// AddOnOption describes an icing or topping choice with a flat surcharge.
type AddOnOption struct {
	ID             string
	Name           string
	AdditionalCost float64
}

// ProductConfig is the pricing and option catalog entry for one product.
// FlavorSurcharges maps a selected flavor count to a flat surcharge; counts
// without an entry cost nothing extra.
type ProductConfig struct {
	ID                string
	Name              string
	BasePrice         float64
	AvailableSizes    []SizeOption
	AvailableIcings   []AddOnOption
	AvailableToppings []AddOnOption
	FlavorSurcharges  map[int]float64
}

// IcingSelection captures the customer's icing choice plus optional
// personalization text piped onto the product.
type IcingSelection struct {
	TypeID  string
	Flavor  string
	Message string
}

// Customizations holds everything a customer chose for an order line beyond
// the product itself. All fields are optional.
type Customizations struct {
	SizeID              string
	FlavorIDs           []string
	Icing               *IcingSelection
	ToppingIDs          []string
	SpecialInstructions string
	DesignNotes         string
	InspirationImage    string
}

// OrderItem is one line of an order. UnitBasePrice is the catalog base price
// snapshotted when the line was added; it backs the degraded price estimate
// when the product configuration has since disappeared.
type OrderItem struct {
	ProductID      string
	Quantity       int
	UnitBasePrice  float64
	Customizations *Customizations
}

// OrderStatus describes the lifecycle state of a submitted order.
type OrderStatus string

const (
	// OrderStatusNew marks an order that has been drafted but not accepted.
	OrderStatusNew OrderStatus = "new"
	// OrderStatusPending marks an accepted order awaiting production.
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusInProgress marks an order currently being prepared.
	OrderStatusInProgress OrderStatus = "in_progress"
	// OrderStatusCompleted marks a fulfilled order.
	OrderStatusCompleted OrderStatus = "completed"
	// OrderStatusCancelled marks an order cancelled before fulfilment.
	OrderStatusCancelled OrderStatus = "cancelled"
)

// DeliveryDateLayout is the wire format for delivery dates.
const DeliveryDateLayout = "2006-01-02"

// Order is a customer order draft as submitted for validation or pricing.
// DeliveryDate stays a string in DeliveryDateLayout form; parsing it is a
// validation concern, not a transport one.
type Order struct {
	ID                  string
	CustomerName        string
	DeliveryDate        string
	DeliverySlot        string
	Location            string
	EstimatedTravelTime int
	Status              OrderStatus
	Items               []OrderItem
	CreatedAt           time.Time
}

// DeliverySlot describes a bookable delivery window.
type DeliverySlot struct {
	ID       string
	Name     string
	Start    string
	End      string
	Capacity int
}
