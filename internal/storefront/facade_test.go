package storefront

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/cocobubble/storefront/internal/cart"
	"github.com/cocobubble/storefront/internal/catalog"
	"github.com/cocobubble/storefront/internal/checkout"
	"github.com/cocobubble/storefront/internal/pricing"
	"github.com/cocobubble/storefront/internal/promotions"
	pkgerrors "github.com/cocobubble/storefront/pkg/errors"
	"github.com/cocobubble/storefront/pkg/money"
)

type stubRedirector struct {
	url      string
	err      error
	calls    int
	received checkout.Handoff
}

func (s *stubRedirector) CreateSession(_ context.Context, handoff checkout.Handoff) (string, error) {
	s.calls++
	s.received = handoff
	return s.url, s.err
}

type stubVerifier struct {
	err     error
	session string
}

func (s *stubVerifier) VerifySession(_ context.Context, sessionID string) error {
	s.session = sessionID
	return s.err
}

var milkTeaPromo = promotions.Promotion{
	ID:               "promo-1",
	Category:         "milk-teas",
	Size:             promotions.SizeRegular,
	RequiredQuantity: 3,
	PriceReg:         5,
	PriceLrg:         7,
	Active:           true,
	Description:      "3 milk teas for £5",
}

func testCatalog() *catalog.Memory {
	return catalog.NewMemory([]catalog.Product{
		{ID: "taro", Name: "Taro Milk Tea", Category: "milk-teas", PriceReg: 2, PriceLrg: 3},
		{ID: "brown-sugar", Name: "Brown Sugar Milk Tea", Category: "milk-teas", PriceReg: 2, PriceLrg: 3},
		{ID: "mango", Name: "Mango Tea", Category: "fruit-teas", PriceReg: 3.5, PriceLrg: 4.5},
	}, nil)
}

func newTestFacade(t *testing.T, deps Dependencies) (*Facade, *promotions.Index) {
	t.Helper()

	index := promotions.NewIndex()
	index.Refresh([]promotions.Promotion{milkTeaPromo})
	if deps.Promotions == nil {
		deps.Promotions = index
	}
	if deps.Catalog == nil {
		deps.Catalog = testCatalog()
	}

	store, err := cart.Open(context.Background(), cart.NewMemoryStorage(), cart.Key{Session: "s1", Name: "cartItems"})
	if err != nil {
		t.Fatalf("open cart: %v", err)
	}
	return NewFacade(store, deps), index
}

func assertAmount(t *testing.T, label string, got interface{ StringFixed(int32) string }, want string) {
	t.Helper()
	if got.StringFixed(money.Places) != want {
		t.Fatalf("%s: expected %s, got %s", label, want, got.StringFixed(money.Places))
	}
}

func TestBundleMath(t *testing.T) {
	ctx := context.Background()
	f, _ := newTestFacade(t, Dependencies{})

	if err := f.AddProduct(ctx, "taro", promotions.SizeRegular, 4); err != nil {
		t.Fatalf("add taro: %v", err)
	}
	if err := f.AddProduct(ctx, "brown-sugar", promotions.SizeRegular, 3); err != nil {
		t.Fatalf("add brown sugar: %v", err)
	}

	assertAmount(t, "subtotal", f.Subtotal(), "14.00")
	assertAmount(t, "total(false)", f.Total(false), "14.00")
	assertAmount(t, "total(true)", f.Total(true), "12.00")
	assertAmount(t, "discount", f.Discount(), "2.00")
	if f.ItemCount() != 7 {
		t.Fatalf("expected 7 units, got %d", f.ItemCount())
	}

	totals := f.Totals(ctx)
	if len(totals.Groups) != 1 {
		t.Fatalf("expected one group, got %d", len(totals.Groups))
	}
	g := totals.Groups[0]
	if g.QualifyingSets != 2 || g.PromotedUnits != 6 || g.RemainderUnits != 1 {
		t.Fatalf("unexpected group %+v", g)
	}
}

func TestNoQualifyingSet(t *testing.T) {
	ctx := context.Background()
	f, _ := newTestFacade(t, Dependencies{})

	if err := f.AddProduct(ctx, "taro", promotions.SizeRegular, 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	assertAmount(t, "subtotal", f.Subtotal(), "4.00")
	assertAmount(t, "total", f.Total(true), "4.00")
	assertAmount(t, "discount", f.Discount(), "0.00")

	progress := f.Progress()
	if len(progress) != 1 || progress[0].Remaining != 1 || progress[0].Applied {
		t.Fatalf("unexpected progress %+v", progress)
	}
	if progress[0].Message != "Add 1 more item to get 3 milk teas for £5!" {
		t.Fatalf("unexpected message %q", progress[0].Message)
	}
}

func TestPromotionSnapshotCapturedAtAdd(t *testing.T) {
	ctx := context.Background()
	f, index := newTestFacade(t, Dependencies{})

	if err := f.AddProduct(ctx, "taro", promotions.SizeRegular, 3); err != nil {
		t.Fatalf("add: %v", err)
	}

	cheaper := milkTeaPromo
	cheaper.PriceReg = 4
	index.Refresh([]promotions.Promotion{cheaper})

	assertAmount(t, "total keeps stale snapshot", f.Total(true), "5.00")

	index.Refresh(nil)
	if err := f.AddProduct(ctx, "mango", promotions.SizeRegular, 1); err != nil {
		t.Fatalf("add mango: %v", err)
	}
	items := f.Items()
	if items[0].Promotion == nil || items[0].Promotion.PriceReg != 5 {
		t.Fatalf("existing line lost its snapshot: %+v", items[0])
	}
	if items[1].Promotion != nil {
		t.Fatalf("expected no snapshot for mango, got %+v", items[1].Promotion)
	}
}

func TestMergeOnAdd(t *testing.T) {
	ctx := context.Background()
	f, _ := newTestFacade(t, Dependencies{})

	if err := f.Add(ctx, cart.LineItem{Name: "Mango Tea", Size: "reg", Quantity: 2, UnitPrice: 3.5}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := f.Add(ctx, cart.LineItem{Name: "Mango Tea", Size: "reg", Quantity: 1, UnitPrice: 3.5}); err != nil {
		t.Fatalf("add: %v", err)
	}

	items := f.Items()
	if len(items) != 1 || items[0].Quantity != 3 {
		t.Fatalf("expected one line of 3, got %+v", items)
	}
}

func TestAddAttachesIndexPromotion(t *testing.T) {
	ctx := context.Background()
	f, _ := newTestFacade(t, Dependencies{})

	if err := f.Add(ctx, cart.LineItem{Name: "House Milk Tea", Category: "milk-teas", UnitPrice: 2, Quantity: 1}); err != nil {
		t.Fatalf("add: %v", err)
	}
	items := f.Items()
	if items[0].Size != promotions.SizeRegular {
		t.Fatalf("expected default size reg, got %q", items[0].Size)
	}
	if items[0].Promotion == nil || items[0].Promotion.ID != "promo-1" {
		t.Fatalf("expected index promotion, got %+v", items[0].Promotion)
	}
}

func TestSetQuantityFloor(t *testing.T) {
	ctx := context.Background()
	f, _ := newTestFacade(t, Dependencies{})

	if err := f.AddProduct(ctx, "mango", promotions.SizeLarge, 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := f.SetQuantity(ctx, cart.ByID("mango"), 0); err != nil {
		t.Fatalf("set quantity: %v", err)
	}
	if got := f.Items()[0].Quantity; got != 1 {
		t.Fatalf("expected quantity 1, got %d", got)
	}
	assertAmount(t, "large price", f.Subtotal(), "4.50")
}

func TestClearResets(t *testing.T) {
	ctx := context.Background()
	f, _ := newTestFacade(t, Dependencies{})

	if err := f.AddProduct(ctx, "taro", promotions.SizeRegular, 6); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := f.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if len(f.Items()) != 0 || f.ItemCount() != 0 {
		t.Fatalf("expected empty cart")
	}
	assertAmount(t, "subtotal", f.Subtotal(), "0.00")
	assertAmount(t, "total", f.Total(true), "0.00")
	assertAmount(t, "discount", f.Discount(), "0.00")
}

func TestAddProductErrors(t *testing.T) {
	ctx := context.Background()
	f, _ := newTestFacade(t, Dependencies{})

	if err := f.AddProduct(ctx, "missing", promotions.SizeRegular, 1); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := f.AddProduct(ctx, "taro", "medium", 1); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	bare := NewFacade(f.store, Dependencies{})
	if err := bare.AddProduct(ctx, "taro", promotions.SizeRegular, 1); !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error without catalog, got %v", err)
	}
}

func TestNonFiniteAggregateReportsZero(t *testing.T) {
	ctx := context.Background()
	f, _ := newTestFacade(t, Dependencies{})

	if err := f.Add(ctx, cart.LineItem{Name: "Broken", Category: "misc", UnitPrice: math.Inf(1), Quantity: 1}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := f.Add(ctx, cart.LineItem{Name: "Fine", Category: "misc", UnitPrice: 2, Quantity: 1}); err != nil {
		t.Fatalf("add: %v", err)
	}

	totals := f.Totals(ctx)
	assertAmount(t, "subtotal", totals.Subtotal, "0.00")
	if len(totals.NonFinite) == 0 || totals.NonFinite[0] != pricing.FigureSubtotal {
		t.Fatalf("expected subtotal reported as non-finite, got %v", totals.NonFinite)
	}
}

func TestCheckout(t *testing.T) {
	ctx := context.Background()
	redirector := &stubRedirector{url: "https://pay.test/s/1"}
	f, _ := newTestFacade(t, Dependencies{Redirector: redirector})

	if err := f.AddProduct(ctx, "taro", promotions.SizeRegular, 7); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := f.Add(ctx, cart.LineItem{Name: "Free Straw", Category: "extras", UnitPrice: 0, Quantity: 1}); err != nil {
		t.Fatalf("add: %v", err)
	}

	redirect, err := f.Checkout(ctx)
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if redirect != "https://pay.test/s/1" {
		t.Fatalf("unexpected redirect %q", redirect)
	}
	if len(redirector.received.CartItems) != 1 || redirector.received.TotalAmount != 12 {
		t.Fatalf("unexpected handoff %+v", redirector.received)
	}
	if f.ItemCount() != 8 {
		t.Fatalf("checkout must not clear the cart")
	}
}

func TestCheckoutWithoutValidItems(t *testing.T) {
	ctx := context.Background()
	redirector := &stubRedirector{url: "https://pay.test/s/1"}
	f, _ := newTestFacade(t, Dependencies{Redirector: redirector})

	if _, err := f.Checkout(ctx); !pkgerrors.IsCode(err, pkgerrors.CodePrecondition) {
		t.Fatalf("expected precondition error, got %v", err)
	}
	if redirector.calls != 0 {
		t.Fatalf("redirector must not be called")
	}
}

func TestCheckoutRedirectFailure(t *testing.T) {
	ctx := context.Background()
	redirector := &stubRedirector{err: pkgerrors.New(pkgerrors.CodeDependency, "down")}
	f, _ := newTestFacade(t, Dependencies{Redirector: redirector})

	if err := f.AddProduct(ctx, "taro", promotions.SizeRegular, 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := f.Checkout(ctx); !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestConfirmPayment(t *testing.T) {
	ctx := context.Background()
	verifier := &stubVerifier{}
	f, _ := newTestFacade(t, Dependencies{Verifier: verifier})

	if err := f.AddProduct(ctx, "taro", promotions.SizeRegular, 2); err != nil {
		t.Fatalf("add: %v", err)
	}

	verifier.err = errors.New("not paid")
	if err := f.ConfirmPayment(ctx, "cs_1"); err == nil {
		t.Fatalf("expected verification error")
	}
	if f.ItemCount() != 2 {
		t.Fatalf("failed verification must keep the cart")
	}

	verifier.err = nil
	if err := f.ConfirmPayment(ctx, "cs_1"); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if verifier.session != "cs_1" || f.ItemCount() != 0 {
		t.Fatalf("expected cleared cart after verified payment")
	}
}
