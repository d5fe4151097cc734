package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/flourish-bakery/api/internal/platform/httpx"
	"github.com/flourish-bakery/api/internal/services"
)

// CatalogHandlers exposes read-only product catalog endpoints.
type CatalogHandlers struct {
	catalog services.CatalogService
	pricing services.PricingService
}

// NewCatalogHandlers constructs a new CatalogHandlers instance.
func NewCatalogHandlers(catalog services.CatalogService, pricing services.PricingService) *CatalogHandlers {
	return &CatalogHandlers{
		catalog: catalog,
		pricing: pricing,
	}
}

// Routes registers the /catalog endpoints.
func (h *CatalogHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/products", h.listProducts)
	r.Get("/products/{productID}/options", h.productOptions)
	r.Get("/delivery-slots", h.deliverySlots)
}

type productSummaryPayload struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	BasePrice float64 `json:"base_price"`
}

type productListResponse struct {
	Products []productSummaryPayload `json:"products"`
}

type productOptionPayload struct {
	Type           string  `json:"type"`
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	AdditionalCost float64 `json:"additional_cost"`
}

type productOptionsResponse struct {
	ProductID string                 `json:"product_id"`
	Options   []productOptionPayload `json:"options"`
}

type deliverySlotPayload struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Start    string `json:"start_time"`
	End      string `json:"end_time"`
	Capacity int    `json:"capacity"`
}

type deliverySlotsResponse struct {
	Slots []deliverySlotPayload `json:"slots"`
}

func (h *CatalogHandlers) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	products, err := h.catalog.ListProducts(ctx)
	if err != nil {
		writeCatalogError(w, r, err)
		return
	}

	payload := productListResponse{Products: make([]productSummaryPayload, 0, len(products))}
	for _, product := range products {
		payload.Products = append(payload.Products, productSummaryPayload{
			ID:        product.ID,
			Name:      product.Name,
			BasePrice: product.BasePrice,
		})
	}
	writeJSONResponse(w, http.StatusOK, payload)
}

func (h *CatalogHandlers) productOptions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.pricing == nil {
		httpx.WriteError(ctx, w, httpx.NewError("pricing_service_unavailable", "pricing service unavailable", http.StatusServiceUnavailable))
		return
	}

	productID := strings.TrimSpace(chi.URLParam(r, "productID"))
	if productID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "product id is required", http.StatusBadRequest))
		return
	}

	options, err := h.pricing.AvailableOptions(productID)
	if err != nil {
		writeCatalogError(w, r, err)
		return
	}

	payload := productOptionsResponse{
		ProductID: productID,
		Options:   make([]productOptionPayload, 0, len(options)),
	}
	for _, option := range options {
		payload.Options = append(payload.Options, productOptionPayload{
			Type:           string(option.Type),
			ID:             option.ID,
			Name:           option.Name,
			AdditionalCost: option.AdditionalCost,
		})
	}
	writeJSONResponse(w, http.StatusOK, payload)
}

func (h *CatalogHandlers) deliverySlots(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	slots, err := h.catalog.DeliverySlots(ctx)
	if err != nil {
		writeCatalogError(w, r, err)
		return
	}

	payload := deliverySlotsResponse{Slots: make([]deliverySlotPayload, 0, len(slots))}
	for _, slot := range slots {
		payload.Slots = append(payload.Slots, deliverySlotPayload{
			ID:       slot.ID,
			Name:     slot.Name,
			Start:    slot.Start,
			End:      slot.End,
			Capacity: slot.Capacity,
		})
	}
	writeJSONResponse(w, http.StatusOK, payload)
}

func writeCatalogError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	switch {
	case errors.Is(err, services.ErrCatalogProductNotFound), errors.Is(err, services.ErrPricingConfigNotFound):
		httpx.WriteError(ctx, w, httpx.NewError(errorCodeProductMissing, "product configuration not found", http.StatusNotFound))
	case errors.Is(err, services.ErrCatalogNotLoaded):
		httpx.WriteError(ctx, w, httpx.NewError("catalog_not_loaded", "catalog has not been loaded", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("catalog_error", "failed to read catalog", http.StatusInternalServerError))
	}
}
