package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	domain "github.com/flourish-bakery/api/internal/domain"
)

// Rule identifiers carried on validation messages so callers can react to a
// specific rule without parsing message text.
const (
	RuleCustomerNameRequired = "customer_name_required"
	RuleDeliveryDateRequired = "delivery_date_required"
	RuleDeliveryDateFormat   = "delivery_date_format"
	RuleDeliveryDatePast     = "delivery_date_past"
	RuleDeliveryDateTooFar   = "delivery_date_too_far"
	RuleDeliverySlotRequired = "delivery_slot_required"
	RuleLocationRequired     = "delivery_location_required"
	RuleSameDayNotice        = "same_day_notice"
	RuleRushFeeNotice        = "rush_fee_notice"
	RuleWeekendNotice        = "weekend_notice"
	RuleItemsRequired        = "items_required"
	RuleItemQuantityRange    = "item_quantity_range"
	RuleItemFlavorLimit      = "item_flavor_limit"
	RuleItemToppingLimit     = "item_topping_limit"
)

const (
	maxItemQuantity = 100
	maxItemFlavors  = 3
	maxItemToppings = 5
	maxBookingLead  = 30
	rushFeeLeadDays = 3
	rushFeePercent  = 25
)

// OrderValidator classifies draft orders as acceptable or not. Every call is
// a pure function of the order and the injected clock.
type OrderValidator struct {
	now func() time.Time
}

// OrderValidatorDeps bundles constructor inputs for the order validator.
type OrderValidatorDeps struct {
	Now func() time.Time
}

// NewOrderValidator constructs an order validator. A nil clock falls back to
// time.Now.
func NewOrderValidator(deps OrderValidatorDeps) *OrderValidator {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &OrderValidator{
		now: func() time.Time { return now().UTC() },
	}
}

// ValidateOrder runs the fixed rule pipeline (required fields, delivery-date
// policy, item limits) and merges the messages in evaluation order. The order
// is valid iff no blocking message was produced.
func (v *OrderValidator) ValidateOrder(ctx context.Context, order Order) ValidationResult {
	var messages []ValidationMessage
	messages = append(messages, v.checkRequiredFields(order)...)
	messages = append(messages, v.checkDeliveryDate(order, true)...)
	messages = append(messages, v.checkItems(order)...)

	valid := true
	for _, msg := range messages {
		if msg.Kind == domain.MessageError {
			valid = false
			break
		}
	}
	return ValidationResult{Valid: valid, Messages: messages}
}

// ValidateFormData applies the blocking rules only and keys the messages by
// form field for inline display. Advisory notices are a confirmation-screen
// concern and are not evaluated here.
func (v *OrderValidator) ValidateFormData(ctx context.Context, order Order) FormErrors {
	fields := make(FormErrors)

	appendField := func(field string, msgs []ValidationMessage) {
		for _, msg := range msgs {
			if msg.Kind != domain.MessageError {
				continue
			}
			fields[field] = append(fields[field], msg.Text)
		}
	}

	if strings.TrimSpace(order.CustomerName) == "" {
		fields["customerName"] = append(fields["customerName"], "Customer name is required")
	}
	if strings.TrimSpace(order.DeliveryDate) == "" {
		fields["deliveryDate"] = append(fields["deliveryDate"], "Delivery date is required")
	} else {
		appendField("deliveryDate", v.checkDeliveryDate(order, false))
	}
	if strings.TrimSpace(order.DeliverySlot) == "" {
		fields["deliverySlot"] = append(fields["deliverySlot"], "Delivery slot is required")
	}
	if strings.TrimSpace(order.Location) == "" {
		fields["location"] = append(fields["location"], "Delivery location is required")
	}
	appendField("items", v.checkItems(order))

	return fields
}

func (v *OrderValidator) checkRequiredFields(order Order) []ValidationMessage {
	var messages []ValidationMessage
	if strings.TrimSpace(order.CustomerName) == "" {
		messages = append(messages, blocking(RuleCustomerNameRequired, "Customer name is required"))
	}
	if strings.TrimSpace(order.DeliveryDate) == "" {
		messages = append(messages, blocking(RuleDeliveryDateRequired, "Delivery date is required"))
	}
	if strings.TrimSpace(order.DeliverySlot) == "" {
		messages = append(messages, blocking(RuleDeliverySlotRequired, "Delivery slot is required"))
	}
	if strings.TrimSpace(order.Location) == "" {
		messages = append(messages, blocking(RuleLocationRequired, "Delivery location is required"))
	}
	return messages
}

// checkDeliveryDate evaluates the date policy tiers independently. A missing
// date is reported by the required-field check, never here. The advisory
// tiers are skipped in form mode.
func (v *OrderValidator) checkDeliveryDate(order Order, includeAdvisories bool) []ValidationMessage {
	raw := strings.TrimSpace(order.DeliveryDate)
	if raw == "" {
		return nil
	}

	deliveryDay, err := time.ParseInLocation(domain.DeliveryDateLayout, raw, time.UTC)
	if err != nil {
		return []ValidationMessage{blocking(RuleDeliveryDateFormat, "Delivery date must be a valid date in YYYY-MM-DD format")}
	}

	today := truncateToDay(v.now())
	leadDays := int(deliveryDay.Sub(today).Hours() / 24)

	var messages []ValidationMessage
	if leadDays < 0 {
		messages = append(messages, blocking(RuleDeliveryDatePast, "Delivery date cannot be in the past"))
	}
	if includeAdvisories && leadDays == 0 {
		messages = append(messages, advisory(RuleSameDayNotice, "Same-day orders require special arrangements, please call the bakery to confirm"))
	}
	if includeAdvisories && leadDays >= 1 && leadDays < rushFeeLeadDays {
		messages = append(messages, advisory(RuleRushFeeNotice, fmt.Sprintf("Orders within %d days incur a %d%% rush fee", rushFeeLeadDays, rushFeePercent)))
	}
	if leadDays > maxBookingLead {
		messages = append(messages, blocking(RuleDeliveryDateTooFar, fmt.Sprintf("Delivery date cannot be more than %d days ahead", maxBookingLead)))
	}
	if includeAdvisories {
		switch deliveryDay.Weekday() {
		case time.Saturday, time.Sunday:
			messages = append(messages, advisory(RuleWeekendNotice, "Weekend delivery slots are limited, book early to secure your preferred time"))
		}
	}
	return messages
}

func (v *OrderValidator) checkItems(order Order) []ValidationMessage {
	active := 0
	for _, item := range order.Items {
		if item.Quantity > 0 {
			active++
		}
	}
	if active == 0 {
		return []ValidationMessage{blocking(RuleItemsRequired, "Select at least one item")}
	}

	var messages []ValidationMessage
	for idx, item := range order.Items {
		if item.Quantity <= 0 {
			continue
		}
		position := idx + 1
		if item.Quantity > maxItemQuantity {
			messages = append(messages, blocking(RuleItemQuantityRange,
				fmt.Sprintf("Item %d: quantity must be between 1 and %d", position, maxItemQuantity)))
		}
		if item.Customizations == nil {
			continue
		}
		if len(item.Customizations.FlavorIDs) > maxItemFlavors {
			messages = append(messages, blocking(RuleItemFlavorLimit,
				fmt.Sprintf("Item %d: at most %d flavors may be selected", position, maxItemFlavors)))
		}
		if len(item.Customizations.ToppingIDs) > maxItemToppings {
			messages = append(messages, blocking(RuleItemToppingLimit,
				fmt.Sprintf("Item %d: at most %d toppings may be selected", position, maxItemToppings)))
		}
	}
	return messages
}

func blocking(rule, text string) ValidationMessage {
	return ValidationMessage{Kind: domain.MessageError, Rule: rule, Text: text}
}

func advisory(rule, text string) ValidationMessage {
	return ValidationMessage{Kind: domain.MessageAdvisory, Rule: rule, Text: text}
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
