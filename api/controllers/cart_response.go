package controllers

import (
	"github.com/cocobubble/storefront/internal/cart"
	"github.com/cocobubble/storefront/internal/pricing"
	"github.com/cocobubble/storefront/internal/promotions"
	"github.com/cocobubble/storefront/internal/storefront"
	"github.com/cocobubble/storefront/pkg/money"
	"github.com/shopspring/decimal"
)

type lineItemResponse struct {
	Index     int                   `json:"index"`
	ID        string                `json:"id,omitempty"`
	Name      string                `json:"name"`
	Category  string                `json:"category"`
	Size      promotions.Size       `json:"size"`
	Price     string                `json:"price"`
	Quantity  int                   `json:"quantity"`
	LineTotal string                `json:"lineTotal"`
	Promotion *promotions.Promotion `json:"promotion,omitempty"`
}

type groupResponse struct {
	Category       string          `json:"category"`
	Size           promotions.Size `json:"size"`
	Description    string          `json:"description"`
	Quantity       int             `json:"quantity"`
	Required       int             `json:"requiredQuantity"`
	QualifyingSets int             `json:"qualifyingSets"`
	PromotedUnits  int             `json:"promotedUnits"`
	RemainderUnits int             `json:"remainderUnits"`
	BundleTotal    string          `json:"bundleTotal"`
	Subtotal       string          `json:"subtotal"`
	Total          string          `json:"total"`
	Discount       string          `json:"discount"`
}

type totalsResponse struct {
	Subtotal             string          `json:"subtotal"`
	Total                string          `json:"total"`
	TotalWithoutDiscount string          `json:"totalWithoutDiscount"`
	Discount             string          `json:"discount"`
	ItemCount            int             `json:"itemCount"`
	Groups               []groupResponse `json:"groups"`
}

type progressResponse struct {
	Index         int    `json:"index"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	GroupQuantity int    `json:"groupQuantity"`
	Required      int    `json:"requiredQuantity"`
	Applied       bool   `json:"applied"`
	Remaining     int    `json:"remaining"`
	BundleTotal   string `json:"bundleTotal,omitempty"`
	Message       string `json:"message,omitempty"`
}

type cartResponse struct {
	Items    []lineItemResponse `json:"items"`
	Totals   totalsResponse     `json:"totals"`
	Progress []progressResponse `json:"progress"`
}

func newCartResponse(f *storefront.Facade, totals pricing.Totals) cartResponse {
	items := f.Items()
	out := cartResponse{
		Items:    make([]lineItemResponse, 0, len(items)),
		Totals:   newTotalsResponse(totals, f.ItemCount()),
		Progress: []progressResponse{},
	}
	for i, item := range items {
		out.Items = append(out.Items, newLineItemResponse(i, item))
	}
	for _, p := range f.Progress() {
		resp := progressResponse{
			Index:         p.Index,
			Name:          p.Name,
			Description:   p.Description,
			GroupQuantity: p.GroupQuantity,
			Required:      p.Required,
			Applied:       p.Applied,
			Remaining:     p.Remaining,
			Message:       p.Message,
		}
		if p.Applied {
			resp.BundleTotal = money.Format(p.BundleTotal)
		}
		out.Progress = append(out.Progress, resp)
	}
	return out
}

func newLineItemResponse(index int, item cart.LineItem) lineItemResponse {
	price := formatFloat(item.UnitPrice)
	line := decimal.Zero
	if p, ok := money.FromFloat(item.UnitPrice); ok {
		line = p.Mul(decimal.NewFromInt(int64(item.Quantity)))
	}
	return lineItemResponse{
		Index:     index,
		ID:        item.ProductID,
		Name:      item.Name,
		Category:  item.Category,
		Size:      item.Size,
		Price:     price,
		Quantity:  item.Quantity,
		LineTotal: money.Format(line),
		Promotion: item.Promotion,
	}
}

func newTotalsResponse(totals pricing.Totals, itemCount int) totalsResponse {
	out := totalsResponse{
		Subtotal:             money.Format(totals.Subtotal),
		Total:                money.Format(totals.Total),
		TotalWithoutDiscount: money.Format(totals.Subtotal),
		Discount:             money.Format(totals.Discount),
		ItemCount:            itemCount,
		Groups:               make([]groupResponse, 0, len(totals.Groups)),
	}
	for _, g := range totals.Groups {
		out.Groups = append(out.Groups, groupResponse{
			Category:       g.Key.Category,
			Size:           g.Key.Size,
			Description:    g.Promotion.Description,
			Quantity:       g.Quantity,
			Required:       g.Promotion.Required(),
			QualifyingSets: g.QualifyingSets,
			PromotedUnits:  g.PromotedUnits,
			RemainderUnits: g.RemainderUnits,
			BundleTotal:    money.Format(g.BundleTotal),
			Subtotal:       money.Format(g.Subtotal),
			Total:          money.Format(g.Total),
			Discount:       money.Format(g.Discount),
		})
	}
	return out
}

func formatFloat(v float64) string {
	d, _ := money.FromFloat(v)
	return money.Format(d)
}
