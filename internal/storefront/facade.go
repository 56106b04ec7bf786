package storefront

import (
	"context"
	"errors"
	"strings"

	"github.com/cocobubble/storefront/internal/cart"
	"github.com/cocobubble/storefront/internal/catalog"
	"github.com/cocobubble/storefront/internal/checkout"
	"github.com/cocobubble/storefront/internal/pricing"
	"github.com/cocobubble/storefront/internal/promotions"
	pkgerrors "github.com/cocobubble/storefront/pkg/errors"
	"github.com/cocobubble/storefront/pkg/logger"
	"github.com/cocobubble/storefront/pkg/metrics"
	"github.com/cocobubble/storefront/pkg/money"
	"github.com/shopspring/decimal"
)

type promotionLookup interface {
	Lookup(category string, size promotions.Size) (promotions.Promotion, bool)
}

// Dependencies are the collaborators a Facade delegates to. Only Promotions
// is required; the others disable the operations that need them when nil.
type Dependencies struct {
	Promotions   promotionLookup
	Catalog      catalog.Reader
	Redirector   checkout.Redirector
	Verifier     checkout.PaymentVerifier
	FallbackName string
	Logger       *logger.Logger
	Metrics      *metrics.Storefront
}

// Facade is the cart surface consumed by request handlers. Reads re-run the
// aggregator over the current items every time.
type Facade struct {
	store *cart.Store
	deps  Dependencies
}

// NewFacade wraps an opened cart store.
func NewFacade(store *cart.Store, deps Dependencies) *Facade {
	if deps.FallbackName == "" {
		deps.FallbackName = cart.DefaultFallbackName
	}
	return &Facade{store: store, deps: deps}
}

func (f *Facade) Items() []cart.LineItem {
	return f.store.Items()
}

// Add inserts a raw line item at the price it carries. It trusts the caller,
// so request handlers go through AddProduct instead. When the item carries no
// promotion snapshot the index is consulted once, now, and the result is kept
// on the line.
func (f *Facade) Add(ctx context.Context, item cart.LineItem) error {
	if item.Size == "" {
		item.Size = promotions.SizeRegular
	}
	if item.Promotion == nil && f.deps.Promotions != nil {
		if promo, ok := f.deps.Promotions.Lookup(item.Category, item.Size); ok {
			item.Promotion = &promo
		}
	}
	return f.store.Add(ctx, item)
}

// AddProduct resolves a catalog product and size into a line item priced at
// insertion time.
func (f *Facade) AddProduct(ctx context.Context, productID string, size promotions.Size, quantity int) error {
	if f.deps.Catalog == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "catalog not configured")
	}
	parsed, ok := promotions.ParseSize(string(size))
	if !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid size").
			WithDetails(map[string]any{"size": size})
	}

	product, err := f.deps.Catalog.Product(ctx, strings.TrimSpace(productID))
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	return f.Add(ctx, cart.LineItem{
		ProductID: product.ID,
		Name:      product.Name,
		Category:  product.Category,
		Size:      parsed,
		UnitPrice: product.Price(parsed),
		Quantity:  quantity,
	})
}

func (f *Facade) Remove(ctx context.Context, sel cart.Selector) error {
	return f.store.Remove(ctx, sel)
}

func (f *Facade) SetQuantity(ctx context.Context, sel cart.Selector, quantity int) error {
	return f.store.SetQuantity(ctx, sel, quantity)
}

func (f *Facade) Increase(ctx context.Context, index int) error {
	return f.store.Increase(ctx, index)
}

func (f *Facade) Decrease(ctx context.Context, index int) error {
	return f.store.Decrease(ctx, index)
}

func (f *Facade) Clear(ctx context.Context) error {
	return f.store.Clear(ctx)
}

// Totals prices the cart and reports any aggregate that had to be zeroed.
func (f *Facade) Totals(ctx context.Context) pricing.Totals {
	totals := pricing.Aggregate(f.store.Items())
	for _, figure := range totals.NonFinite {
		f.deps.Metrics.NonFinite(figure)
		f.deps.Logger.Warn(f.deps.Logger.WithField(ctx, "figure", figure), "pricing.non_finite_clamped")
	}
	return totals
}

// Subtotal is the cart price with no promotions applied.
func (f *Facade) Subtotal() decimal.Decimal {
	return pricing.Aggregate(f.store.Items()).Subtotal
}

// Total returns the promotion-aggregated total, or the raw subtotal when
// includeDiscount is false.
func (f *Facade) Total(includeDiscount bool) decimal.Decimal {
	totals := pricing.Aggregate(f.store.Items())
	if !includeDiscount {
		return totals.Subtotal
	}
	return totals.Total
}

func (f *Facade) Discount() decimal.Decimal {
	return pricing.Aggregate(f.store.Items()).Discount
}

// ItemCount is the number of units in the cart.
func (f *Facade) ItemCount() int {
	count := 0
	for _, item := range f.store.Items() {
		count += item.Quantity
	}
	return count
}

func (f *Facade) Progress() []pricing.LineProgress {
	return pricing.Progress(f.store.Items())
}

// Checkout builds the handoff from the current cart and returns the payment
// redirect URL. The cart is left as is until payment is confirmed.
func (f *Facade) Checkout(ctx context.Context) (string, error) {
	if f.deps.Redirector == nil {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "checkout not configured")
	}

	items := f.store.Items()
	totals := f.Totals(ctx)
	handoff, err := checkout.BuildHandoff(items, totals.Total, f.deps.FallbackName)
	if err != nil {
		return "", err
	}

	redirect, err := f.deps.Redirector.CreateSession(ctx, handoff)
	if err != nil {
		f.deps.Logger.Error(ctx, "checkout.session.failed", err)
		return "", err
	}
	f.deps.Metrics.ObserveDiscount(money.Float(totals.Discount))
	f.deps.Logger.Info(f.deps.Logger.WithFields(ctx, map[string]any{
		"items":    len(handoff.CartItems),
		"total":    money.Format(totals.Total),
		"discount": money.Format(totals.Discount),
	}), "checkout.session.created")
	return redirect, nil
}

// ConfirmPayment clears the cart once the payment session is verified. A
// failed verification leaves the cart untouched.
func (f *Facade) ConfirmPayment(ctx context.Context, sessionID string) error {
	if f.deps.Verifier == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "payment verification not configured")
	}
	if err := f.deps.Verifier.VerifySession(ctx, sessionID); err != nil {
		f.deps.Logger.Warn(f.deps.Logger.WithField(ctx, "error", err.Error()), "checkout.verify.failed")
		return err
	}
	return f.store.Clear(ctx)
}
