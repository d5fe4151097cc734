package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	domain "github.com/flourish-bakery/api/internal/domain"
)

// ErrCatalogInvalid indicates a catalog document that could not be decoded or
// failed a structural check.
var ErrCatalogInvalid = errors.New("catalog: invalid document")

// FileSource reads the catalog from a JSON document on disk. The file is
// re-read on every call so a reload picks up operator edits without a
// restart.
type FileSource struct {
	path string
}

// NewFileSource returns a source backed by the JSON document at path.
func NewFileSource(path string) (*FileSource, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("catalog: file path is required")
	}
	return &FileSource{path: path}, nil
}

type catalogDocument struct {
	Products      []productDocument      `json:"products"`
	DeliverySlots []deliverySlotDocument `json:"deliverySlots"`
}

type productDocument struct {
	ID                string             `json:"id"`
	Name              string             `json:"name"`
	BasePrice         float64            `json:"basePrice"`
	AvailableSizes    []sizeDocument     `json:"availableSizes"`
	AvailableIcings   []addOnDocument    `json:"availableIcings"`
	AvailableToppings []addOnDocument    `json:"availableToppings"`
	FlavorMultipliers map[string]float64 `json:"flavorMultipliers"`
}

type sizeDocument struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Multiplier *float64 `json:"multiplier"`
}

type addOnDocument struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	AdditionalCost float64 `json:"additionalCost"`
}

type deliverySlotDocument struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Start    string `json:"startTime"`
	End      string `json:"endTime"`
	Capacity int    `json:"capacity"`
}

// Products decodes the document and returns its product configurations.
func (s *FileSource) Products(ctx context.Context) ([]domain.ProductConfig, error) {
	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	configs := make([]domain.ProductConfig, 0, len(doc.Products))
	for _, product := range doc.Products {
		cfg, err := product.toConfig()
		if err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	return configs, nil
}

// DeliverySlots decodes the document and returns its delivery windows.
func (s *FileSource) DeliverySlots(ctx context.Context) ([]domain.DeliverySlot, error) {
	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	slots := make([]domain.DeliverySlot, 0, len(doc.DeliverySlots))
	for _, slot := range doc.DeliverySlots {
		slots = append(slots, domain.DeliverySlot{
			ID:       slot.ID,
			Name:     slot.Name,
			Start:    slot.Start,
			End:      slot.End,
			Capacity: slot.Capacity,
		})
	}
	return slots, nil
}

func (s *FileSource) load() (catalogDocument, error) {
	file, err := os.Open(s.path)
	if err != nil {
		return catalogDocument{}, fmt.Errorf("catalog: open %s: %w", s.path, err)
	}
	defer file.Close()
	return decodeDocument(file)
}

func decodeDocument(r io.Reader) (catalogDocument, error) {
	var doc catalogDocument
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&doc); err != nil {
		return catalogDocument{}, fmt.Errorf("%w: %v", ErrCatalogInvalid, err)
	}
	return doc, nil
}

func (p productDocument) toConfig() (domain.ProductConfig, error) {
	id := strings.TrimSpace(p.ID)
	if id == "" {
		return domain.ProductConfig{}, fmt.Errorf("%w: product id is required", ErrCatalogInvalid)
	}
	if p.BasePrice < 0 {
		return domain.ProductConfig{}, fmt.Errorf("%w: product %s base price cannot be negative", ErrCatalogInvalid, id)
	}

	cfg := domain.ProductConfig{
		ID:        id,
		Name:      strings.TrimSpace(p.Name),
		BasePrice: p.BasePrice,
	}

	for _, size := range p.AvailableSizes {
		multiplier := 1.0
		if size.Multiplier != nil {
			multiplier = *size.Multiplier
		}
		if multiplier < 1 {
			return domain.ProductConfig{}, fmt.Errorf("%w: product %s size %s multiplier must be at least 1", ErrCatalogInvalid, id, size.ID)
		}
		cfg.AvailableSizes = append(cfg.AvailableSizes, domain.SizeOption{
			ID:         size.ID,
			Name:       size.Name,
			Multiplier: multiplier,
		})
	}
	icings, err := decodeAddOns(id, "icing", p.AvailableIcings)
	if err != nil {
		return domain.ProductConfig{}, err
	}
	toppings, err := decodeAddOns(id, "topping", p.AvailableToppings)
	if err != nil {
		return domain.ProductConfig{}, err
	}
	cfg.AvailableIcings = icings
	cfg.AvailableToppings = toppings

	if len(p.FlavorMultipliers) > 0 {
		cfg.FlavorSurcharges = make(map[int]float64, len(p.FlavorMultipliers))
		for key, surcharge := range p.FlavorMultipliers {
			count, err := strconv.Atoi(key)
			if err != nil || count < 2 {
				return domain.ProductConfig{}, fmt.Errorf("%w: product %s flavor count %q must be an integer >= 2", ErrCatalogInvalid, id, key)
			}
			if surcharge < 0 {
				return domain.ProductConfig{}, fmt.Errorf("%w: product %s flavor surcharge for %d flavors cannot be negative", ErrCatalogInvalid, id, count)
			}
			cfg.FlavorSurcharges[count] = surcharge
		}
	}
	return cfg, nil
}

func decodeAddOns(productID, kind string, docs []addOnDocument) ([]domain.AddOnOption, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	options := make([]domain.AddOnOption, 0, len(docs))
	for _, doc := range docs {
		if doc.AdditionalCost < 0 {
			return nil, fmt.Errorf("%w: product %s %s %s cost cannot be negative", ErrCatalogInvalid, productID, kind, doc.ID)
		}
		options = append(options, domain.AddOnOption{
			ID:             doc.ID,
			Name:           doc.Name,
			AdditionalCost: doc.AdditionalCost,
		})
	}
	return options, nil
}
