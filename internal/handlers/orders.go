package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/microcosm-cc/bluemonday"
	"github.com/oklog/ulid/v2"

	domain "github.com/flourish-bakery/api/internal/domain"
	"github.com/flourish-bakery/api/internal/platform/httpx"
	"github.com/flourish-bakery/api/internal/services"
)

const (
	maxOrderBodySize        = 256 * 1024
	maxIcingMessageLen      = 50
	maxInstructionsLen      = 200
	quoteIDPrefix           = "prq_"
	quoteCurrency           = "USD"
	errorCodeInvalidBody    = "invalid_request"
	errorCodeProductMissing = "product_config_not_found"
)

// OrderHandlers exposes the order validation and pricing endpoints.
type OrderHandlers struct {
	validator services.OrderValidationService
	pricing   services.PricingService
	sanitizer *bluemonday.Policy
	idGen     func() string
	limiter   *pricingLimiter
}

// OrderHandlerOption customises an OrderHandlers instance.
type OrderHandlerOption func(*OrderHandlers)

// WithOrderIDGenerator overrides quote id generation, primarily for tests.
func WithOrderIDGenerator(gen func() string) OrderHandlerOption {
	return func(h *OrderHandlers) {
		if gen != nil {
			h.idGen = gen
		}
	}
}

// WithOrderRateLimit throttles pricing requests per client within the window.
func WithOrderRateLimit(limit int, window time.Duration) OrderHandlerOption {
	return func(h *OrderHandlers) {
		h.limiter = newPricingLimiter(limit, window, time.Now)
	}
}

// NewOrderHandlers constructs a new OrderHandlers instance.
func NewOrderHandlers(validator services.OrderValidationService, pricing services.PricingService, opts ...OrderHandlerOption) *OrderHandlers {
	h := &OrderHandlers{
		validator: validator,
		pricing:   pricing,
		sanitizer: bluemonday.StrictPolicy(),
		idGen: func() string {
			return quoteIDPrefix + ulid.Make().String()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes registers the /orders endpoints.
func (h *OrderHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/validate", h.validateOrder)
	r.Post("/validate-form", h.validateOrderForm)
	r.Post("/quote", h.quoteOrder)
	r.Post("/items/price", h.priceItem)
}

type orderRequest struct {
	CustomerName        string             `json:"customer_name"`
	DeliveryDate        string             `json:"delivery_date"`
	DeliverySlot        string             `json:"delivery_slot"`
	Location            string             `json:"location"`
	EstimatedTravelTime int                `json:"estimated_travel_time"`
	Items               []orderItemRequest `json:"items"`
}

type orderItemRequest struct {
	ProductID      string                 `json:"product_id"`
	Quantity       int                    `json:"quantity"`
	UnitBasePrice  float64                `json:"unit_base_price"`
	Customizations *customizationsRequest `json:"customizations"`
}

type customizationsRequest struct {
	Size                string        `json:"size"`
	Flavors             []string      `json:"flavors"`
	Icing               *icingRequest `json:"icing"`
	Toppings            []string      `json:"toppings"`
	SpecialInstructions string        `json:"special_instructions"`
	DesignNotes         string        `json:"design_notes"`
	InspirationImage    string        `json:"inspiration_image"`
}

type icingRequest struct {
	Type    string `json:"type"`
	Flavor  string `json:"flavor"`
	Message string `json:"message"`
}

type priceItemRequest struct {
	ProductID      string                 `json:"product_id"`
	Quantity       int                    `json:"quantity"`
	Customizations *customizationsRequest `json:"customizations"`
}

type validationMessagePayload struct {
	Kind string `json:"kind"`
	Rule string `json:"rule"`
	Text string `json:"text"`
}

type validateOrderResponse struct {
	IsValid    bool                       `json:"is_valid"`
	Messages   []validationMessagePayload `json:"messages"`
	Errors     []string                   `json:"errors"`
	Advisories []string                   `json:"advisories"`
}

type validateFormResponse struct {
	Valid       bool                `json:"valid"`
	FieldErrors map[string][]string `json:"field_errors"`
}

type priceComponentPayload struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}

type priceCalculationPayload struct {
	ProductID       string                  `json:"product_id"`
	BasePrice       float64                 `json:"base_price"`
	SizeMultiplier  float64                 `json:"size_multiplier"`
	FlavorSurcharge float64                 `json:"flavor_surcharge"`
	AddOnTotal      float64                 `json:"add_on_total"`
	UnitPrice       float64                 `json:"unit_price"`
	Quantity        int                     `json:"quantity"`
	Total           float64                 `json:"total"`
	Breakdown       []priceComponentPayload `json:"breakdown"`
}

type quoteLinePayload struct {
	ProductID   string                  `json:"product_id"`
	Quantity    int                     `json:"quantity"`
	UnitPrice   float64                 `json:"unit_price"`
	LineTotal   float64                 `json:"line_total"`
	Approximate bool                    `json:"approximate"`
	Breakdown   []priceComponentPayload `json:"breakdown,omitempty"`
}

type quoteOrderResponse struct {
	QuoteID  string             `json:"quote_id"`
	Currency string             `json:"currency"`
	Total    float64            `json:"total"`
	Items    []quoteLinePayload `json:"items"`
}

func (h *OrderHandlers) validateOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.validator == nil {
		httpx.WriteError(ctx, w, httpx.NewError("validation_service_unavailable", "validation service unavailable", http.StatusServiceUnavailable))
		return
	}

	req, ok := h.decodeOrderRequest(w, r)
	if !ok {
		return
	}

	result := h.validator.ValidateOrder(ctx, h.toDomainOrder(req))
	writeJSONResponse(w, http.StatusOK, buildValidationResponse(result))
}

func (h *OrderHandlers) validateOrderForm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.validator == nil {
		httpx.WriteError(ctx, w, httpx.NewError("validation_service_unavailable", "validation service unavailable", http.StatusServiceUnavailable))
		return
	}

	req, ok := h.decodeOrderRequest(w, r)
	if !ok {
		return
	}

	fieldErrors := h.validator.ValidateFormData(ctx, h.toDomainOrder(req))
	payload := validateFormResponse{
		Valid:       !fieldErrors.HasErrors(),
		FieldErrors: map[string][]string{},
	}
	for field, messages := range fieldErrors {
		payload.FieldErrors[field] = append([]string(nil), messages...)
	}
	writeJSONResponse(w, http.StatusOK, payload)
}

func (h *OrderHandlers) quoteOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.pricing == nil {
		httpx.WriteError(ctx, w, httpx.NewError("pricing_service_unavailable", "pricing service unavailable", http.StatusServiceUnavailable))
		return
	}
	if ok, retryAfter := h.limiter.allow(r); !ok {
		writeRateLimited(w, r, retryAfter)
		return
	}

	req, ok := h.decodeOrderRequest(w, r)
	if !ok {
		return
	}

	order := h.toDomainOrder(req)
	lines := make([]quoteLinePayload, 0, len(order.Items))
	activeItems := make([]domain.OrderItem, 0, len(order.Items))
	for _, item := range order.Items {
		if item.Quantity <= 0 {
			continue
		}
		line := quoteLinePayload{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		}
		calc, err := h.pricing.CalculateItemPrice(ctx, item)
		switch {
		case err == nil:
			line.UnitPrice = calc.UnitPrice
			line.LineTotal = calc.Total
			line.Breakdown = buildBreakdownPayload(calc.Breakdown)
		case errors.Is(err, services.ErrPricingConfigNotFound):
			line.UnitPrice = item.UnitBasePrice
			line.LineTotal = item.UnitBasePrice * float64(item.Quantity)
			line.Approximate = true
		default:
			httpx.WriteError(ctx, w, httpx.NewError("pricing_failed", "failed to price order", http.StatusInternalServerError))
			return
		}
		activeItems = append(activeItems, item)
		lines = append(lines, line)
	}

	writeJSONResponse(w, http.StatusOK, quoteOrderResponse{
		QuoteID:  h.idGen(),
		Currency: quoteCurrency,
		Total:    h.pricing.CalculateOrderTotal(ctx, activeItems),
		Items:    lines,
	})
}

func (h *OrderHandlers) priceItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.pricing == nil {
		httpx.WriteError(ctx, w, httpx.NewError("pricing_service_unavailable", "pricing service unavailable", http.StatusServiceUnavailable))
		return
	}
	if ok, retryAfter := h.limiter.allow(r); !ok {
		writeRateLimited(w, r, retryAfter)
		return
	}

	body, err := readLimitedBody(r, maxOrderBodySize)
	if err != nil {
		writeBodyError(w, r, err)
		return
	}

	var req priceItemRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError(errorCodeInvalidBody, "invalid JSON body", http.StatusBadRequest))
		return
	}

	productID := strings.TrimSpace(req.ProductID)
	if productID == "" {
		httpx.WriteError(ctx, w, httpx.NewError(errorCodeInvalidBody, "product_id is required", http.StatusBadRequest))
		return
	}

	customizations, err := h.toDomainCustomizations(req.Customizations)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError(errorCodeInvalidBody, err.Error(), http.StatusBadRequest))
		return
	}

	calc, err := h.pricing.CalculateItemPrice(ctx, domain.OrderItem{
		ProductID:      productID,
		Quantity:       req.Quantity,
		Customizations: customizations,
	})
	if err != nil {
		if errors.Is(err, services.ErrPricingConfigNotFound) {
			httpx.WriteError(ctx, w, httpx.NewError(errorCodeProductMissing, "product configuration not found", http.StatusNotFound))
			return
		}
		httpx.WriteError(ctx, w, httpx.NewError("pricing_failed", "failed to price item", http.StatusInternalServerError))
		return
	}

	writeJSONResponse(w, http.StatusOK, buildCalculationPayload(calc))
}

func (h *OrderHandlers) decodeOrderRequest(w http.ResponseWriter, r *http.Request) (orderRequest, bool) {
	var req orderRequest

	body, err := readLimitedBody(r, maxOrderBodySize)
	if err != nil {
		writeBodyError(w, r, err)
		return req, false
	}
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(r.Context(), w, httpx.NewError(errorCodeInvalidBody, "invalid JSON body", http.StatusBadRequest))
		return req, false
	}

	for i, item := range req.Items {
		if item.Customizations == nil {
			continue
		}
		if err := validateCustomizationLimits(item.Customizations); err != nil {
			httpx.WriteError(r.Context(), w, httpx.NewError(errorCodeInvalidBody, fmt.Sprintf("item %d: %s", i+1, err.Error()), http.StatusBadRequest))
			return req, false
		}
	}
	return req, true
}

func validateCustomizationLimits(c *customizationsRequest) error {
	if c.Icing != nil && len([]rune(c.Icing.Message)) > maxIcingMessageLen {
		return fmt.Errorf("icing message must be at most %d characters", maxIcingMessageLen)
	}
	if len([]rune(c.SpecialInstructions)) > maxInstructionsLen {
		return fmt.Errorf("special instructions must be at most %d characters", maxInstructionsLen)
	}
	return nil
}

func (h *OrderHandlers) toDomainOrder(req orderRequest) domain.Order {
	order := domain.Order{
		CustomerName:        h.cleanText(req.CustomerName),
		DeliveryDate:        strings.TrimSpace(req.DeliveryDate),
		DeliverySlot:        strings.TrimSpace(req.DeliverySlot),
		Location:            h.cleanText(req.Location),
		EstimatedTravelTime: req.EstimatedTravelTime,
		Items:               make([]domain.OrderItem, 0, len(req.Items)),
	}
	for _, item := range req.Items {
		customizations, err := h.toDomainCustomizations(item.Customizations)
		if err != nil {
			// Length limits are checked before conversion.
			continue
		}
		order.Items = append(order.Items, domain.OrderItem{
			ProductID:      strings.TrimSpace(item.ProductID),
			Quantity:       item.Quantity,
			UnitBasePrice:  item.UnitBasePrice,
			Customizations: customizations,
		})
	}
	return order
}

func (h *OrderHandlers) toDomainCustomizations(req *customizationsRequest) (*domain.Customizations, error) {
	if req == nil {
		return nil, nil
	}
	if err := validateCustomizationLimits(req); err != nil {
		return nil, err
	}

	customizations := &domain.Customizations{
		SizeID:              strings.TrimSpace(req.Size),
		FlavorIDs:           trimAll(req.Flavors),
		ToppingIDs:          trimAll(req.Toppings),
		SpecialInstructions: h.cleanText(req.SpecialInstructions),
		DesignNotes:         h.cleanText(req.DesignNotes),
		InspirationImage:    strings.TrimSpace(req.InspirationImage),
	}
	if req.Icing != nil {
		customizations.Icing = &domain.IcingSelection{
			TypeID:  strings.TrimSpace(req.Icing.Type),
			Flavor:  strings.TrimSpace(req.Icing.Flavor),
			Message: h.cleanText(req.Icing.Message),
		}
	}
	return customizations, nil
}

func (h *OrderHandlers) cleanText(value string) string {
	return strings.TrimSpace(h.sanitizer.Sanitize(value))
}

func trimAll(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	result := make([]string, 0, len(values))
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func buildValidationResponse(result services.ValidationResult) validateOrderResponse {
	payload := validateOrderResponse{
		IsValid:    result.Valid,
		Messages:   make([]validationMessagePayload, 0, len(result.Messages)),
		Errors:     make([]string, 0),
		Advisories: make([]string, 0),
	}
	for _, message := range result.Messages {
		payload.Messages = append(payload.Messages, validationMessagePayload{
			Kind: string(message.Kind),
			Rule: message.Rule,
			Text: message.Text,
		})
		switch message.Kind {
		case domain.MessageError:
			payload.Errors = append(payload.Errors, message.Text)
		case domain.MessageAdvisory:
			payload.Advisories = append(payload.Advisories, message.Text)
		}
	}
	return payload
}

func buildCalculationPayload(calc services.PricingCalculation) priceCalculationPayload {
	return priceCalculationPayload{
		ProductID:       calc.ProductID,
		BasePrice:       calc.BasePrice,
		SizeMultiplier:  calc.SizeMultiplier,
		FlavorSurcharge: calc.FlavorSurcharge,
		AddOnTotal:      calc.AddOnTotal,
		UnitPrice:       calc.UnitPrice,
		Quantity:        calc.Quantity,
		Total:           calc.Total,
		Breakdown:       buildBreakdownPayload(calc.Breakdown),
	}
}

func buildBreakdownPayload(components []services.PriceComponent) []priceComponentPayload {
	result := make([]priceComponentPayload, 0, len(components))
	for _, component := range components {
		result = append(result, priceComponentPayload{
			Description: component.Description,
			Amount:      component.Amount,
		})
	}
	return result
}

func writeRateLimited(w http.ResponseWriter, r *http.Request, retryAfter time.Duration) {
	seconds := int(retryAfter / time.Second)
	if retryAfter%time.Second > 0 {
		seconds++
	}
	if seconds < 1 {
		seconds = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(seconds))
	httpx.WriteError(r.Context(), w, httpx.NewError("rate_limited", "too many pricing requests, slow down", http.StatusTooManyRequests))
}

func writeBodyError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	switch {
	case errors.Is(err, errBodyTooLarge):
		httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "request body exceeds allowed size", http.StatusRequestEntityTooLarge))
	case errors.Is(err, errEmptyBody):
		httpx.WriteError(ctx, w, httpx.NewError(errorCodeInvalidBody, "request body is required", http.StatusBadRequest))
	default:
		httpx.WriteError(ctx, w, httpx.NewError(errorCodeInvalidBody, err.Error(), http.StatusBadRequest))
	}
}
