package cart

import (
	"math"
	"strings"

	"github.com/cocobubble/storefront/internal/promotions"
)

// DefaultFallbackName is used for line items added without a name.
const DefaultFallbackName = "Unknown Item"

// LineItem is one cart entry. Identity for merging is (Name, Size).
type LineItem struct {
	ProductID string                `json:"id,omitempty"`
	Name      string                `json:"name"`
	Category  string                `json:"category"`
	Size      promotions.Size       `json:"size"`
	UnitPrice float64               `json:"price"`
	Quantity  int                   `json:"quantity"`
	Promotion *promotions.Promotion `json:"promotion"`
}

// LineTotal is UnitPrice*Quantity in float arithmetic; pricing uses decimals.
func (l LineItem) LineTotal() float64 {
	return l.UnitPrice * float64(l.Quantity)
}

func (l LineItem) sameEntry(name string, size promotions.Size) bool {
	return l.Name == name && l.Size == size
}

func (l LineItem) clone() LineItem {
	if l.Promotion != nil {
		p := *l.Promotion
		l.Promotion = &p
	}
	return l
}

// Selector picks line items by product id, or by (Name, Size) when no id is
// given. An empty selector matches nothing.
type Selector struct {
	ID   string          `json:"id,omitempty"`
	Name string          `json:"name,omitempty"`
	Size promotions.Size `json:"size,omitempty"`
}

func ByID(id string) Selector { return Selector{ID: id} }

func ByNameSize(name string, size promotions.Size) Selector {
	return Selector{Name: name, Size: size}
}

func (s Selector) Matches(item LineItem) bool {
	if id := strings.TrimSpace(s.ID); id != "" {
		return item.ProductID == id
	}
	if s.Name != "" && s.Size != "" {
		return item.sameEntry(s.Name, s.Size)
	}
	return false
}

// normalize applies the add-time defaults: fallback name, quantity of at
// least one and a price no lower than zero. Non-finite prices are kept so
// pricing can report them.
func normalize(item LineItem, fallbackName string) LineItem {
	item.Name = strings.TrimSpace(item.Name)
	if item.Name == "" {
		item.Name = fallbackName
	}
	if item.Quantity < 1 {
		item.Quantity = 1
	}
	if item.UnitPrice < 0 {
		item.UnitPrice = 0
	}
	return item
}

func finiteOrZero(v float64) (float64, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
