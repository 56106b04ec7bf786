package pricing

import (
	"fmt"

	"github.com/cocobubble/storefront/internal/cart"
	"github.com/cocobubble/storefront/internal/promotions"
	"github.com/shopspring/decimal"
)

// LineProgress tells a shopper where a promoted line stands against its
// promotion.
type LineProgress struct {
	Index         int
	Name          string
	Key           promotions.Key
	Description   string
	GroupQuantity int
	Required      int
	Applied       bool
	// Remaining is the number of units still needed for the first bundle.
	Remaining int
	// BundleTotal is what the group's complete bundles cost.
	BundleTotal decimal.Decimal
	Message     string
}

// Progress reports, for every promoted line item, whether its group currently
// forms a bundle and how many more units it needs otherwise. Lines without a
// promotion snapshot are omitted.
func Progress(items []cart.LineItem) []LineProgress {
	groups, _ := partition(items)

	var out []LineProgress
	for i, item := range items {
		if item.Promotion == nil {
			continue
		}
		g := groups[promotions.Key{Category: item.Category, Size: item.Size}]
		p := LineProgress{
			Index:         i,
			Name:          item.Name,
			Key:           g.Key,
			Description:   g.Promotion.Description,
			GroupQuantity: g.Quantity,
			Required:      g.Promotion.Required(),
			Applied:       g.Applied(),
		}
		if p.Applied {
			sums := priceGroup(items, g)
			p.BundleTotal = sums.bundle.Value()
		} else {
			p.Remaining = p.Required - p.GroupQuantity
			p.Message = encouragement(p.Remaining, p.Description)
		}
		out = append(out, p)
	}
	return out
}

func encouragement(remaining int, description string) string {
	noun := "item"
	if remaining > 1 {
		noun = "items"
	}
	return fmt.Sprintf("Add %d more %s to get %s!", remaining, noun, description)
}
