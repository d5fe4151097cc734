package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/flourish-bakery/api/internal/domain"
	"github.com/flourish-bakery/api/internal/services"
)

type fakeValidationService struct {
	result    services.ValidationResult
	fields    services.FormErrors
	lastOrder services.Order
}

func (f *fakeValidationService) ValidateOrder(_ context.Context, order services.Order) services.ValidationResult {
	f.lastOrder = order
	return f.result
}

func (f *fakeValidationService) ValidateFormData(_ context.Context, order services.Order) services.FormErrors {
	f.lastOrder = order
	return f.fields
}

type fakePricingService struct {
	calculations map[string]services.PricingCalculation
	options      map[string][]services.ProductOption
}

func (f *fakePricingService) LoadConfigs([]services.ProductConfig) {}

func (f *fakePricingService) CalculateItemPrice(_ context.Context, item services.OrderItem) (services.PricingCalculation, error) {
	calc, ok := f.calculations[item.ProductID]
	if !ok {
		return services.PricingCalculation{}, services.ErrPricingConfigNotFound
	}
	calc.Quantity = item.Quantity
	calc.Total = calc.UnitPrice * float64(item.Quantity)
	return calc, nil
}

func (f *fakePricingService) CalculateOrderTotal(ctx context.Context, items []services.OrderItem) float64 {
	total := 0.0
	for _, item := range items {
		calc, err := f.CalculateItemPrice(ctx, item)
		if err != nil {
			total += item.UnitBasePrice * float64(item.Quantity)
			continue
		}
		total += calc.Total
	}
	return total
}

func (f *fakePricingService) AvailableOptions(productID string) ([]services.ProductOption, error) {
	options, ok := f.options[productID]
	if !ok {
		return nil, services.ErrPricingConfigNotFound
	}
	return options, nil
}

func newOrderTestRouter(h *OrderHandlers) chi.Router {
	r := chi.NewRouter()
	r.Route("/orders", h.Routes)
	return r
}

func TestOrderHandlersValidateOrder(t *testing.T) {
	validator := &fakeValidationService{
		result: services.ValidationResult{
			Valid: false,
			Messages: []services.ValidationMessage{
				{Kind: domain.MessageError, Rule: "delivery_date_past", Text: "Delivery date cannot be in the past"},
				{Kind: domain.MessageAdvisory, Rule: "weekend_notice", Text: "Weekend delivery slots are limited, book early to secure your preferred time"},
			},
		},
	}
	handlers := NewOrderHandlers(validator, &fakePricingService{})
	router := newOrderTestRouter(handlers)

	payload := `{
		"customer_name": "<b>Jane</b> Doe",
		"delivery_date": "2024-10-01",
		"delivery_slot": "morning",
		"location": "Main St 1",
		"items": [{"product_id": "classic-cake", "quantity": 1}]
	}`
	req := httptest.NewRequest(http.MethodPost, "/orders/validate", strings.NewReader(payload))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var body validateOrderResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if body.IsValid {
		t.Fatalf("expected is_valid false")
	}
	if len(body.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(body.Messages))
	}
	if len(body.Errors) != 1 || body.Errors[0] != "Delivery date cannot be in the past" {
		t.Fatalf("unexpected errors: %v", body.Errors)
	}
	if len(body.Advisories) != 1 {
		t.Fatalf("unexpected advisories: %v", body.Advisories)
	}
	if body.Messages[0].Rule != "delivery_date_past" || body.Messages[0].Kind != "error" {
		t.Fatalf("unexpected first message: %+v", body.Messages[0])
	}

	if validator.lastOrder.CustomerName != "Jane Doe" {
		t.Fatalf("expected markup stripped from customer name, got %q", validator.lastOrder.CustomerName)
	}
	if len(validator.lastOrder.Items) != 1 || validator.lastOrder.Items[0].ProductID != "classic-cake" {
		t.Fatalf("unexpected items passed to validator: %+v", validator.lastOrder.Items)
	}
}

func TestOrderHandlersValidateOrderRejectsOversizedFields(t *testing.T) {
	handlers := NewOrderHandlers(&fakeValidationService{}, &fakePricingService{})
	router := newOrderTestRouter(handlers)

	longMessage := strings.Repeat("a", maxIcingMessageLen+1)
	payload := `{
		"customer_name": "Jane",
		"items": [{"product_id": "classic-cake", "quantity": 1, "customizations": {"icing": {"type": "fondant", "message": "` + longMessage + `"}}}]
	}`
	req := httptest.NewRequest(http.MethodPost, "/orders/validate", strings.NewReader(payload))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d: %s", rr.Code, rr.Body.String())
	}

	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if body["error"] != "invalid_request" {
		t.Fatalf("unexpected error code: %v", body["error"])
	}
}

func TestOrderHandlersValidateOrderEmptyBody(t *testing.T) {
	handlers := NewOrderHandlers(&fakeValidationService{}, &fakePricingService{})
	router := newOrderTestRouter(handlers)

	req := httptest.NewRequest(http.MethodPost, "/orders/validate", strings.NewReader("   "))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestOrderHandlersValidateOrderForm(t *testing.T) {
	validator := &fakeValidationService{
		fields: services.FormErrors{
			"deliveryDate": {"Delivery date cannot be in the past"},
		},
	}
	handlers := NewOrderHandlers(validator, &fakePricingService{})
	router := newOrderTestRouter(handlers)

	payload := `{"customer_name": "Jane", "delivery_date": "2024-01-01"}`
	req := httptest.NewRequest(http.MethodPost, "/orders/validate-form", strings.NewReader(payload))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var body validateFormResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if body.Valid {
		t.Fatalf("expected valid false")
	}
	messages, ok := body.FieldErrors["deliveryDate"]
	if !ok || len(messages) != 1 {
		t.Fatalf("unexpected field errors: %v", body.FieldErrors)
	}
}

func TestOrderHandlersQuote(t *testing.T) {
	pricing := &fakePricingService{
		calculations: map[string]services.PricingCalculation{
			"cookies": {
				ProductID: "cookies",
				BasePrice: 2.50,
				UnitPrice: 4.75,
				Breakdown: []services.PriceComponent{
					{Description: "Classic Cookies base price", Amount: 2.50},
				},
			},
		},
	}
	handlers := NewOrderHandlers(&fakeValidationService{}, pricing,
		WithOrderIDGenerator(func() string { return "prq_test" }),
	)
	router := newOrderTestRouter(handlers)

	payload := `{
		"customer_name": "Jane",
		"items": [
			{"product_id": "cookies", "quantity": 6},
			{"product_id": "mystery", "quantity": 2, "unit_base_price": 3.00},
			{"product_id": "ignored", "quantity": 0}
		]
	}`
	req := httptest.NewRequest(http.MethodPost, "/orders/quote", strings.NewReader(payload))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var body quoteOrderResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if body.QuoteID != "prq_test" {
		t.Fatalf("unexpected quote id: %q", body.QuoteID)
	}
	if body.Currency != "USD" {
		t.Fatalf("unexpected currency: %q", body.Currency)
	}
	if len(body.Items) != 2 {
		t.Fatalf("expected 2 quote lines, got %d", len(body.Items))
	}

	priced := body.Items[0]
	if priced.ProductID != "cookies" || priced.Approximate {
		t.Fatalf("unexpected priced line: %+v", priced)
	}
	if priced.UnitPrice != 4.75 || priced.LineTotal != 28.50 {
		t.Fatalf("unexpected priced amounts: %+v", priced)
	}
	if len(priced.Breakdown) != 1 {
		t.Fatalf("expected breakdown on priced line, got %+v", priced.Breakdown)
	}

	fallback := body.Items[1]
	if fallback.ProductID != "mystery" || !fallback.Approximate {
		t.Fatalf("expected approximate fallback line, got %+v", fallback)
	}
	if fallback.LineTotal != 6.00 {
		t.Fatalf("unexpected fallback total: %v", fallback.LineTotal)
	}

	if body.Total != 34.50 {
		t.Fatalf("unexpected order total: %v", body.Total)
	}
}

func TestOrderHandlersQuoteRateLimited(t *testing.T) {
	pricing := &fakePricingService{
		calculations: map[string]services.PricingCalculation{
			"cookies": {ProductID: "cookies", UnitPrice: 2.50},
		},
	}
	handlers := NewOrderHandlers(&fakeValidationService{}, pricing,
		WithOrderRateLimit(1, time.Minute),
	)
	router := newOrderTestRouter(handlers)

	payload := `{"items": [{"product_id": "cookies", "quantity": 1}]}`

	req := httptest.NewRequest(http.MethodPost, "/orders/quote", strings.NewReader(payload))
	req.RemoteAddr = "192.0.2.1:1234"
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected first request to pass, got %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/orders/quote", strings.NewReader(payload))
	req.RemoteAddr = "192.0.2.1:5678"
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status 429, got %d", rr.Code)
	}
	retry, err := strconv.Atoi(rr.Header().Get("Retry-After"))
	if err != nil || retry < 1 || retry > 60 {
		t.Fatalf("expected Retry-After within the window, got %q", rr.Header().Get("Retry-After"))
	}
}

func TestOrderHandlersPriceItem(t *testing.T) {
	pricing := &fakePricingService{
		calculations: map[string]services.PricingCalculation{
			"cookies": {
				ProductID:      "cookies",
				BasePrice:      2.50,
				SizeMultiplier: 1.5,
				UnitPrice:      4.75,
				Breakdown: []services.PriceComponent{
					{Description: "Classic Cookies base price", Amount: 2.50},
				},
			},
		},
	}
	handlers := NewOrderHandlers(&fakeValidationService{}, pricing)
	router := newOrderTestRouter(handlers)

	payload := `{"product_id": "cookies", "quantity": 6, "customizations": {"size": "large", "flavors": ["chocolate-chip", "oatmeal"]}}`
	req := httptest.NewRequest(http.MethodPost, "/orders/items/price", strings.NewReader(payload))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var body priceCalculationPayload
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if body.ProductID != "cookies" || body.Quantity != 6 {
		t.Fatalf("unexpected calculation: %+v", body)
	}
	if body.Total != 28.50 {
		t.Fatalf("unexpected total: %v", body.Total)
	}
	if len(body.Breakdown) != 1 {
		t.Fatalf("expected breakdown, got %+v", body.Breakdown)
	}
}

func TestOrderHandlersPriceItemUnknownProduct(t *testing.T) {
	handlers := NewOrderHandlers(&fakeValidationService{}, &fakePricingService{})
	router := newOrderTestRouter(handlers)

	req := httptest.NewRequest(http.MethodPost, "/orders/items/price", strings.NewReader(`{"product_id": "mystery", "quantity": 1}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if body["error"] != "product_config_not_found" {
		t.Fatalf("unexpected error code: %v", body["error"])
	}
}

func TestOrderHandlersPriceItemMissingProductID(t *testing.T) {
	handlers := NewOrderHandlers(&fakeValidationService{}, &fakePricingService{})
	router := newOrderTestRouter(handlers)

	req := httptest.NewRequest(http.MethodPost, "/orders/items/price", strings.NewReader(`{"quantity": 1}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}
