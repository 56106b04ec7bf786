package cart

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/cocobubble/storefront/internal/promotions"
	pkgerrors "github.com/cocobubble/storefront/pkg/errors"
	"github.com/cocobubble/storefront/pkg/logger"
)

var testKey = Key{Session: "s1", Name: "cartItems"}

func openStore(t *testing.T, storage Storage) *Store {
	t.Helper()
	s, err := Open(context.Background(), storage, testKey, WithLogger(logger.Nop()))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s
}

func TestAddMergesByNameAndSize(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, NewMemoryStorage())

	if err := s.Add(ctx, LineItem{Name: "Mango Tea", Size: promotions.SizeRegular, UnitPrice: 4, Quantity: 2}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.Add(ctx, LineItem{Name: "Mango Tea", Size: promotions.SizeRegular, UnitPrice: 4, Quantity: 1}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.Add(ctx, LineItem{Name: "Mango Tea", Size: promotions.SizeLarge, UnitPrice: 5, Quantity: 1}); err != nil {
		t.Fatalf("add: %v", err)
	}

	items := s.Items()
	if len(items) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(items))
	}
	if items[0].Quantity != 3 {
		t.Fatalf("expected merged quantity 3, got %d", items[0].Quantity)
	}
}

func TestAddKeepsFirstPromotionSnapshotOnMerge(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, NewMemoryStorage())

	first := &promotions.Promotion{ID: "p1", Category: "milk-teas", Size: promotions.SizeRegular, RequiredQuantity: 3}
	later := &promotions.Promotion{ID: "p2", Category: "milk-teas", Size: promotions.SizeRegular, RequiredQuantity: 2}
	_ = s.Add(ctx, LineItem{Name: "Taro", Category: "milk-teas", Size: promotions.SizeRegular, Quantity: 1, Promotion: first})
	_ = s.Add(ctx, LineItem{Name: "Taro", Category: "milk-teas", Size: promotions.SizeRegular, Quantity: 1, Promotion: later})

	items := s.Items()
	if items[0].Promotion == nil || items[0].Promotion.ID != "p1" {
		t.Fatalf("expected add-time snapshot to be kept, got %+v", items[0].Promotion)
	}

	first.RequiredQuantity = 99
	if s.Items()[0].Promotion.RequiredQuantity != 3 {
		t.Fatal("store must not alias caller promotion snapshots")
	}
}

func TestAddAppliesDefaults(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, NewMemoryStorage(), testKey, WithFallbackName("Mystery Drink"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	_ = s.Add(ctx, LineItem{Size: promotions.SizeRegular, UnitPrice: -3, Quantity: 0})

	item := s.Items()[0]
	if item.Name != "Mystery Drink" || item.Quantity != 1 || item.UnitPrice != 0 {
		t.Fatalf("defaults not applied: %+v", item)
	}
}

func TestRemoveBySelector(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, NewMemoryStorage())
	_ = s.Add(ctx, LineItem{ProductID: "a", Name: "Mango Tea", Size: promotions.SizeRegular, Quantity: 1})
	_ = s.Add(ctx, LineItem{ProductID: "a", Name: "Mango Tea", Size: promotions.SizeLarge, Quantity: 1})
	_ = s.Add(ctx, LineItem{ProductID: "b", Name: "Taro", Size: promotions.SizeRegular, Quantity: 1})

	_ = s.Remove(ctx, ByNameSize("Taro", promotions.SizeRegular))
	if s.Len() != 2 {
		t.Fatalf("expected 2 after name/size remove, got %d", s.Len())
	}
	_ = s.Remove(ctx, ByID("a"))
	if s.Len() != 0 {
		t.Fatalf("expected id remove to drop every size, got %d", s.Len())
	}
	if err := s.Remove(ctx, Selector{}); err != nil {
		t.Fatalf("empty selector should be a no-op, got %v", err)
	}
}

func TestSetQuantityFloorsAtOne(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, NewMemoryStorage())
	_ = s.Add(ctx, LineItem{Name: "Mango Tea", Size: promotions.SizeRegular, Quantity: 4})

	for _, q := range []int{0, -5} {
		_ = s.SetQuantity(ctx, ByNameSize("Mango Tea", promotions.SizeRegular), q)
		if got := s.Items()[0].Quantity; got != 1 {
			t.Fatalf("SetQuantity(%d) left quantity %d", q, got)
		}
	}
	_ = s.SetQuantity(ctx, ByNameSize("Mango Tea", promotions.SizeRegular), 6)
	if got := s.Items()[0].Quantity; got != 6 {
		t.Fatalf("expected 6, got %d", got)
	}
}

func TestIncreaseDecreaseByIndex(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, NewMemoryStorage())
	_ = s.Add(ctx, LineItem{Name: "Mango Tea", Size: promotions.SizeRegular, Quantity: 1})

	_ = s.Increase(ctx, 0)
	_ = s.Increase(ctx, 0)
	if got := s.Items()[0].Quantity; got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}
	for i := 0; i < 5; i++ {
		_ = s.Decrease(ctx, 0)
	}
	if got := s.Items()[0].Quantity; got != 1 {
		t.Fatalf("expected decrease to stop at 1, got %d", got)
	}
	if err := s.Increase(ctx, 7); err != nil {
		t.Fatalf("out of range index should be a no-op, got %v", err)
	}
}

func TestPersistenceRoundTrip(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	s := openStore(t, storage)
	promo := &promotions.Promotion{ID: "p1", Category: "milk-teas", Size: promotions.SizeRegular, RequiredQuantity: 3, PriceReg: 5, Active: true}
	_ = s.Add(ctx, LineItem{ProductID: "a", Name: "Taro", Category: "milk-teas", Size: promotions.SizeRegular, UnitPrice: 2, Quantity: 7, Promotion: promo})

	reopened := openStore(t, storage)
	items := reopened.Items()
	if len(items) != 1 || items[0].Quantity != 7 || items[0].Promotion == nil || items[0].Promotion.PriceReg != 5 {
		t.Fatalf("unexpected reloaded cart %+v", items)
	}
}

func TestOpenRecoversFromCorruptPayload(t *testing.T) {
	storage := NewMemoryStorage()
	_ = storage.Save(context.Background(), testKey, []byte(`{"not":"an array"`))

	s := openStore(t, storage)
	if s.Len() != 0 {
		t.Fatalf("expected corrupt cart to load empty, got %d items", s.Len())
	}
}

func TestClearRemovesRecordAndSkipsWhenEmpty(t *testing.T) {
	ctx := context.Background()
	storage := &countingStorage{Storage: NewMemoryStorage()}
	s := openStore(t, storage)

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if storage.removes != 0 {
		t.Fatal("clearing an empty cart must not touch storage")
	}

	_ = s.Add(ctx, LineItem{Name: "Mango Tea", Size: promotions.SizeRegular, Quantity: 1})
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if storage.removes != 1 || s.Len() != 0 {
		t.Fatalf("expected one remove and empty cart, got removes=%d len=%d", storage.removes, s.Len())
	}
	if _, err := storage.Load(ctx, testKey); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected record to be removed, got %v", err)
	}
}

func TestMutationAppliesEvenWhenStorageFails(t *testing.T) {
	ctx := context.Background()
	storage := &failingStorage{}
	s := openStore(t, storage)

	err := s.Add(ctx, LineItem{Name: "Mango Tea", Size: promotions.SizeRegular, Quantity: 1})
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if s.Len() != 1 {
		t.Fatal("expected in-memory mutation to stand")
	}
}

func TestOpenSurfacesStorageFailure(t *testing.T) {
	_, err := Open(context.Background(), &failingStorage{loadErr: errors.New("down")}, testKey)
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestNonFinitePriceWrittenAsZero(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	s := openStore(t, storage)

	if err := s.Add(ctx, LineItem{Name: "Glitch", Size: promotions.SizeRegular, UnitPrice: math.NaN(), Quantity: 1}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if !math.IsNaN(s.Items()[0].UnitPrice) {
		t.Fatal("in-memory price should be kept for pricing to report")
	}
	if got := openStore(t, storage).Items()[0].UnitPrice; got != 0 {
		t.Fatalf("expected persisted price 0, got %v", got)
	}
}

type countingStorage struct {
	Storage
	removes int
}

func (c *countingStorage) Remove(ctx context.Context, key Key) error {
	c.removes++
	return c.Storage.Remove(ctx, key)
}

type failingStorage struct {
	loadErr error
}

func (f *failingStorage) Load(context.Context, Key) ([]byte, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return nil, ErrNotFound
}

func (f *failingStorage) Save(context.Context, Key, []byte) error {
	return errors.New("disk full")
}

func (f *failingStorage) Remove(context.Context, Key) error {
	return errors.New("disk full")
}
