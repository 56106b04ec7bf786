package promotions

import (
	"encoding/json"
	"strings"
)

// Size is a cup size. Prices and promotions are keyed by it.
type Size string

const (
	SizeRegular Size = "reg"
	SizeLarge   Size = "lrg"
)

// ParseSize normalizes the spellings seen in catalog and promotion documents.
func ParseSize(raw string) (Size, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "reg", "regular", "r":
		return SizeRegular, true
	case "lrg", "large", "l":
		return SizeLarge, true
	default:
		return "", false
	}
}

// Valid reports whether s is one of the known sizes.
func (s Size) Valid() bool {
	return s == SizeRegular || s == SizeLarge
}

// Promotion is a multi-buy rule: RequiredQuantity units of Category in Size
// are charged a fixed bundle price.
type Promotion struct {
	ID               string  `json:"id"`
	Category         string  `json:"category"`
	Size             Size    `json:"size"`
	RequiredQuantity int     `json:"requiredQuantity"`
	PriceReg         float64 `json:"priceReg"`
	PriceLrg         float64 `json:"priceLrg"`
	Active           bool    `json:"active"`
	Description      string  `json:"description"`
}

// Required is the bundle size, never below one.
func (p Promotion) Required() int {
	if p.RequiredQuantity < 1 {
		return 1
	}
	return p.RequiredQuantity
}

// BundlePrice returns the bundle price charged for size.
func (p Promotion) BundlePrice(size Size) float64 {
	if size == SizeRegular {
		return p.PriceReg
	}
	return p.PriceLrg
}

// Key is the index key of the promotion.
func (p Promotion) Key() Key {
	return Key{Category: p.Category, Size: p.Size}
}

// Key identifies a promotion group.
type Key struct {
	Category string
	Size     Size
}

func (k Key) String() string {
	return k.Category + "-" + string(k.Size)
}

// document accepts the capitalized field spellings older admin tooling wrote.
type document struct {
	ID               string   `json:"id"`
	Category         string   `json:"category"`
	CategoryAlt      string   `json:"Category"`
	Size             string   `json:"size"`
	SizeAlt          string   `json:"Size"`
	RequiredQuantity *float64 `json:"requiredQuantity"`
	PriceReg         float64  `json:"priceReg"`
	PriceLrg         float64  `json:"priceLrg"`
	Active           bool     `json:"active"`
	ActiveAlt        bool     `json:"Active"`
	Description      string   `json:"description"`
}

// UnmarshalJSON decodes a promotion document leniently. Unknown sizes are kept
// verbatim so the index can skip them.
func (p *Promotion) UnmarshalJSON(data []byte) error {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	category := doc.Category
	if category == "" {
		category = doc.CategoryAlt
	}
	rawSize := doc.Size
	if rawSize == "" {
		rawSize = doc.SizeAlt
	}
	size, ok := ParseSize(rawSize)
	if !ok {
		size = Size(rawSize)
	}
	required := 1
	if doc.RequiredQuantity != nil && *doc.RequiredQuantity >= 1 {
		required = int(*doc.RequiredQuantity)
	}

	*p = Promotion{
		ID:               doc.ID,
		Category:         strings.TrimSpace(category),
		Size:             size,
		RequiredQuantity: required,
		PriceReg:         doc.PriceReg,
		PriceLrg:         doc.PriceLrg,
		Active:           doc.Active || doc.ActiveAlt,
		Description:      doc.Description,
	}
	return nil
}

// DecodeSnapshot parses a JSON array of promotion documents.
func DecodeSnapshot(data []byte) ([]Promotion, error) {
	var promos []Promotion
	if err := json.Unmarshal(data, &promos); err != nil {
		return nil, err
	}
	return promos, nil
}
