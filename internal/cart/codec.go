package cart

import (
	"encoding/json"
	"fmt"
)

// encode serializes the full item list. JSON has no NaN or Inf, so such
// prices are written as zero; the second return reports whether that happened.
func encode(items []LineItem) ([]byte, bool, error) {
	clamped := false
	out := make([]LineItem, len(items))
	for i, item := range items {
		item = item.clone()
		var ok bool
		if item.UnitPrice, ok = finiteOrZero(item.UnitPrice); !ok {
			clamped = true
		}
		if item.Promotion != nil {
			if item.Promotion.PriceReg, ok = finiteOrZero(item.Promotion.PriceReg); !ok {
				clamped = true
			}
			if item.Promotion.PriceLrg, ok = finiteOrZero(item.Promotion.PriceLrg); !ok {
				clamped = true
			}
		}
		out[i] = item
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, clamped, fmt.Errorf("encode cart: %w", err)
	}
	return data, clamped, nil
}

// decode parses a persisted cart and re-applies the line item defaults.
func decode(data []byte, fallbackName string) ([]LineItem, error) {
	var items []LineItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	out := items[:0]
	for _, item := range items {
		out = append(out, normalize(item, fallbackName))
	}
	return out, nil
}
