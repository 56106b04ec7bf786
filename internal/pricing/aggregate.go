// Package pricing computes cart subtotal, promotion total and discount under
// multi-buy promotions.
//
// Line items carrying a promotion snapshot are grouped by (category, size).
// A group with totalQuantity units and a rule of required units forms
// floor(totalQuantity/required) bundles charged at the bundle price; the
// leftover units keep their regular unit price. Arithmetic is decimal and
// results are rounded only when presented.
package pricing

import (
	"github.com/cocobubble/storefront/internal/cart"
	"github.com/cocobubble/storefront/internal/promotions"
	"github.com/cocobubble/storefront/pkg/money"
	"github.com/shopspring/decimal"
)

// Figure names used when reporting non-finite aggregates.
const (
	FigureSubtotal = "subtotal"
	FigureTotal    = "total"
	FigureDiscount = "discount"
)

// Totals is the result of pricing one cart.
type Totals struct {
	Subtotal decimal.Decimal
	Total    decimal.Decimal
	Discount decimal.Decimal
	Groups   []Group
	// NonFinite lists the figures that were replaced with zero.
	NonFinite []string
}

// Group describes one promotion group.
type Group struct {
	Key            promotions.Key
	Promotion      promotions.Promotion
	Quantity       int
	QualifyingSets int
	PromotedUnits  int
	RemainderUnits int
	// RegularPromoted is the regular price of exactly the PromotedUnits.
	RegularPromoted decimal.Decimal
	BundleTotal     decimal.Decimal
	Subtotal        decimal.Decimal
	Total           decimal.Decimal
	Discount        decimal.Decimal

	members []int
}

// Applied reports whether at least one bundle is formed.
func (g Group) Applied() bool {
	return g.QualifyingSets > 0
}

type groupSums struct {
	subtotal, total, discount money.Sum
	regularPromoted, bundle   money.Sum
}

// Aggregate prices items. It never fails: non-finite inputs make the
// subtotal and total they feed report zero, and a promotion group with a
// non-finite price contributes no discount.
func Aggregate(items []cart.LineItem) Totals {
	var subtotal, total, discount money.Sum
	var promoBundles, promoRegular money.Sum

	groups, order := partition(items)
	for i := range items {
		if items[i].Promotion == nil {
			subtotal.AddLine(items[i].UnitPrice, items[i].Quantity)
			total.AddLine(items[i].UnitPrice, items[i].Quantity)
		}
	}

	out := make([]Group, 0, len(order))
	for _, key := range order {
		g := groups[key]
		sums := priceGroup(items, g)

		subtotal.Merge(sums.subtotal)
		total.Merge(sums.total)
		discount.Merge(sums.discount)
		// A group with a non-finite price saves nothing and stays out of the
		// clamp, so the other groups keep their discount.
		if g.Applied() && sums.comparable() {
			promoBundles.Merge(sums.bundle)
			promoRegular.Merge(sums.regularPromoted)
		}

		g.Subtotal = sums.subtotal.Value()
		g.Total = sums.total.Value()
		g.Discount = sums.discount.Value()
		g.RegularPromoted = sums.regularPromoted.Value()
		g.BundleTotal = sums.bundle.Value()
		out = append(out, *g)
	}

	// The clamp compares aggregates across all groups, so a favourable group
	// can mask an unfavourable one. Total is reported as computed.
	if promoBundles.Value().GreaterThan(promoRegular.Value()) {
		discount = money.Sum{}
	}

	t := Totals{Groups: out}
	t.Subtotal = settle(subtotal, FigureSubtotal, &t.NonFinite)
	t.Total = settle(total, FigureTotal, &t.NonFinite)
	t.Discount = settle(discount, FigureDiscount, &t.NonFinite)
	return t
}

func settle(s money.Sum, figure string, nonFinite *[]string) decimal.Decimal {
	if !s.Finite() {
		*nonFinite = append(*nonFinite, figure)
	}
	return s.Value()
}

// partition groups promoted line items by (category, size) in order of first
// appearance. The first member's snapshot is the group's rule.
func partition(items []cart.LineItem) (map[promotions.Key]*Group, []promotions.Key) {
	groups := map[promotions.Key]*Group{}
	var order []promotions.Key
	for i, item := range items {
		if item.Promotion == nil {
			continue
		}
		key := promotions.Key{Category: item.Category, Size: item.Size}
		g, ok := groups[key]
		if !ok {
			g = &Group{Key: key, Promotion: *item.Promotion}
			groups[key] = g
			order = append(order, key)
		}
		g.Quantity += item.Quantity
		g.members = append(g.members, i)
	}
	for _, g := range groups {
		required := g.Promotion.Required()
		g.QualifyingSets = g.Quantity / required
		g.PromotedUnits = g.QualifyingSets * required
		g.RemainderUnits = g.Quantity - g.PromotedUnits
	}
	return groups, order
}

// priceGroup walks members in cart order. The first PromotedUnits units are
// covered by bundles; the units left on each member after that are charged
// at that member's unit price.
func priceGroup(items []cart.LineItem, g *Group) groupSums {
	var s groupSums
	for _, idx := range g.members {
		s.subtotal.AddLine(items[idx].UnitPrice, items[idx].Quantity)
	}

	if !g.Applied() {
		s.total = s.subtotal
		return s
	}

	remaining := g.PromotedUnits
	for _, idx := range g.members {
		item := items[idx]
		use := min(item.Quantity, remaining)
		remaining -= use
		if use > 0 {
			s.regularPromoted.AddLine(item.UnitPrice, use)
		}
		if left := item.Quantity - use; left > 0 {
			s.total.AddLine(item.UnitPrice, left)
		}
	}

	s.bundle.AddLine(g.Promotion.BundlePrice(g.Key.Size), g.QualifyingSets)
	s.total.Merge(s.bundle)

	if s.comparable() {
		if saved := s.regularPromoted.Value().Sub(s.bundle.Value()); saved.IsPositive() {
			s.discount.Add(saved)
		}
	}
	return s
}

func (s groupSums) comparable() bool {
	return s.regularPromoted.Finite() && s.bundle.Finite()
}
