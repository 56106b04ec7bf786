package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/cocobubble/storefront/internal/promotions"
)

// ErrProductNotFound is returned when a product id is unknown to the catalog.
var ErrProductNotFound = errors.New("product not found")

// Product is a menu entry with per-size prices.
type Product struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	PriceReg float64 `json:"priceReg"`
	PriceLrg float64 `json:"priceLrg"`
	ImageURL string  `json:"image,omitempty"`
}

// Price returns the unit price for size.
func (p Product) Price(size promotions.Size) float64 {
	if size == promotions.SizeLarge {
		return p.PriceLrg
	}
	return p.PriceReg
}

type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Reader is the read-only catalog surface the cart depends on.
type Reader interface {
	Product(ctx context.Context, id string) (Product, error)
	Products(ctx context.Context) ([]Product, error)
	Categories(ctx context.Context) ([]Category, error)
}

// Memory is an in-process catalog, used for local runs and tests.
type Memory struct {
	products   []Product
	byID       map[string]Product
	categories []Category
}

func NewMemory(products []Product, categories []Category) *Memory {
	byID := make(map[string]Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return &Memory{products: products, byID: byID, categories: categories}
}

func (m *Memory) Product(_ context.Context, id string) (Product, error) {
	p, ok := m.byID[strings.TrimSpace(id)]
	if !ok {
		return Product{}, ErrProductNotFound
	}
	return p, nil
}

func (m *Memory) Products(context.Context) ([]Product, error) {
	out := make([]Product, len(m.products))
	copy(out, m.products)
	return out, nil
}

func (m *Memory) Categories(context.Context) ([]Category, error) {
	out := make([]Category, len(m.categories))
	copy(out, m.categories)
	return out, nil
}
