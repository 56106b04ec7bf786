package checkout

import (
	"context"
	"strings"

	"github.com/cocobubble/storefront/internal/cart"
	"github.com/cocobubble/storefront/internal/promotions"
	pkgerrors "github.com/cocobubble/storefront/pkg/errors"
	"github.com/cocobubble/storefront/pkg/money"
	"github.com/shopspring/decimal"
)

// Item is one line of a checkout submission.
type Item struct {
	ID       string          `json:"id,omitempty"`
	Name     string          `json:"name"`
	Size     promotions.Size `json:"size"`
	Price    float64         `json:"price"`
	Quantity int             `json:"quantity"`
}

// Handoff is the payload given to the payment redirect service.
type Handoff struct {
	CartItems   []Item  `json:"cartItems"`
	TotalAmount float64 `json:"totalAmount"`
}

// Redirector creates a hosted payment session and returns where to send the
// shopper.
type Redirector interface {
	CreateSession(ctx context.Context, handoff Handoff) (string, error)
}

// PaymentVerifier confirms that a hosted payment session was paid.
type PaymentVerifier interface {
	VerifySession(ctx context.Context, sessionID string) error
}

// BuildHandoff sanitizes line items for submission and attaches the
// promotion-adjusted total. Only items with a positive price and quantity
// survive; a cart with none left is a precondition failure.
func BuildHandoff(items []cart.LineItem, total decimal.Decimal, fallbackName string) (Handoff, error) {
	if fallbackName == "" {
		fallbackName = cart.DefaultFallbackName
	}

	out := make([]Item, 0, len(items))
	for _, li := range items {
		item := sanitize(li, fallbackName)
		if item.Price > 0 && item.Quantity > 0 {
			out = append(out, item)
		}
	}

	if len(out) == 0 {
		return Handoff{}, pkgerrors.New(pkgerrors.CodePrecondition, "no valid items in cart").
			WithDetails(map[string]any{"items": len(items)})
	}
	return Handoff{CartItems: out, TotalAmount: money.Float(total)}, nil
}

func sanitize(li cart.LineItem, fallbackName string) Item {
	item := Item{
		ID:       strings.TrimSpace(li.ProductID),
		Name:     strings.TrimSpace(li.Name),
		Size:     li.Size,
		Quantity: li.Quantity,
	}
	if item.Name == "" {
		item.Name = fallbackName
	}
	if item.Size == "" {
		item.Size = promotions.SizeRegular
	}
	if price, ok := money.FromFloat(li.UnitPrice); ok {
		item.Price = money.Float(price)
	}
	if item.Quantity < 1 {
		item.Quantity = 1
	}
	return item
}
