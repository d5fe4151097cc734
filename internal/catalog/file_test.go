package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleCatalog = `{
  "products": [
    {
      "id": "cookies",
      "name": "Signature Cookies",
      "basePrice": 2.5,
      "availableSizes": [
        {"id": "regular", "name": "Regular"},
        {"id": "large", "name": "Large", "multiplier": 1.5}
      ],
      "availableIcings": [
        {"id": "royal", "name": "Royal Icing", "additionalCost": 0.75}
      ],
      "availableToppings": [
        {"id": "sprinkles", "name": "Sprinkles", "additionalCost": 0.25}
      ],
      "flavorMultipliers": {"2": 1.0, "3": 1.75}
    }
  ],
  "deliverySlots": [
    {"id": "morning", "name": "9:00 AM - 12:00 PM", "startTime": "09:00", "endTime": "12:00", "capacity": 8}
  ]
}`

func writeCatalogFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.json")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write catalog file: %v", err)
	}
	return path
}

func TestFileSource_Products(t *testing.T) {
	ctx := context.Background()
	source, err := NewFileSource(writeCatalogFile(t, sampleCatalog))
	if err != nil {
		t.Fatalf("NewFileSource error: %v", err)
	}

	products, err := source.Products(ctx)
	if err != nil {
		t.Fatalf("Products error: %v", err)
	}
	if len(products) != 1 {
		t.Fatalf("expected one product, got %d", len(products))
	}

	cookies := products[0]
	if cookies.ID != "cookies" || cookies.BasePrice != 2.5 {
		t.Fatalf("unexpected product %+v", cookies)
	}
	if len(cookies.AvailableSizes) != 2 {
		t.Fatalf("expected two sizes, got %+v", cookies.AvailableSizes)
	}
	if cookies.AvailableSizes[0].Multiplier != 1.0 {
		t.Fatalf("omitted multiplier should default to 1.0, got %v", cookies.AvailableSizes[0].Multiplier)
	}
	if cookies.AvailableSizes[1].Multiplier != 1.5 {
		t.Fatalf("unexpected large multiplier %v", cookies.AvailableSizes[1].Multiplier)
	}
	if cookies.FlavorSurcharges[2] != 1.0 || cookies.FlavorSurcharges[3] != 1.75 {
		t.Fatalf("unexpected flavor surcharges %+v", cookies.FlavorSurcharges)
	}

	slots, err := source.DeliverySlots(ctx)
	if err != nil {
		t.Fatalf("DeliverySlots error: %v", err)
	}
	if len(slots) != 1 || slots[0].Start != "09:00" || slots[0].Capacity != 8 {
		t.Fatalf("unexpected slots %+v", slots)
	}
}

func TestFileSource_InvalidDocuments(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name     string
		contents string
	}{
		{name: "malformed json", contents: `{"products": [`},
		{name: "unknown field", contents: `{"catalogue": []}`},
		{name: "missing product id", contents: `{"products": [{"name": "Nameless", "basePrice": 1}]}`},
		{name: "negative base price", contents: `{"products": [{"id": "x", "basePrice": -1}]}`},
		{name: "negative multiplier", contents: `{"products": [{"id": "x", "basePrice": 1, "availableSizes": [{"id": "s", "multiplier": -2}]}]}`},
		{name: "multiplier below one", contents: `{"products": [{"id": "x", "basePrice": 1, "availableSizes": [{"id": "s", "multiplier": 0.5}]}]}`},
		{name: "negative icing cost", contents: `{"products": [{"id": "x", "basePrice": 1, "availableIcings": [{"id": "i", "additionalCost": -2}]}]}`},
		{name: "negative topping cost", contents: `{"products": [{"id": "x", "basePrice": 1, "availableToppings": [{"id": "t", "additionalCost": -0.5}]}]}`},
		{name: "flavor count below two", contents: `{"products": [{"id": "x", "basePrice": 1, "flavorMultipliers": {"1": 0.5}}]}`},
		{name: "flavor count not an integer", contents: `{"products": [{"id": "x", "basePrice": 1, "flavorMultipliers": {"two": 0.5}}]}`},
		{name: "negative flavor surcharge", contents: `{"products": [{"id": "x", "basePrice": 1, "flavorMultipliers": {"2": -1.0}}]}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			source, err := NewFileSource(writeCatalogFile(t, tc.contents))
			if err != nil {
				t.Fatalf("NewFileSource error: %v", err)
			}
			if _, err := source.Products(ctx); !errors.Is(err, ErrCatalogInvalid) {
				t.Fatalf("expected ErrCatalogInvalid, got %v", err)
			}
		})
	}
}

func TestFileSource_MissingFile(t *testing.T) {
	source, err := NewFileSource(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("NewFileSource error: %v", err)
	}
	if _, err := source.Products(context.Background()); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestNewFileSource_RequiresPath(t *testing.T) {
	if _, err := NewFileSource("  "); err == nil {
		t.Fatal("expected error for blank path")
	}
}

func TestStaticSource(t *testing.T) {
	ctx := context.Background()
	source := NewStaticSource()

	products, err := source.Products(ctx)
	if err != nil {
		t.Fatalf("Products error: %v", err)
	}
	if len(products) == 0 {
		t.Fatal("expected built-in products")
	}
	seen := make(map[string]bool)
	for _, product := range products {
		if strings.TrimSpace(product.ID) == "" {
			t.Fatalf("product without id: %+v", product)
		}
		if seen[product.ID] {
			t.Fatalf("duplicate product id %s", product.ID)
		}
		seen[product.ID] = true
		if product.BasePrice < 0 {
			t.Fatalf("negative base price on %s", product.ID)
		}
	}

	slots, err := source.DeliverySlots(ctx)
	if err != nil {
		t.Fatalf("DeliverySlots error: %v", err)
	}
	if len(slots) == 0 {
		t.Fatal("expected built-in delivery slots")
	}
}
