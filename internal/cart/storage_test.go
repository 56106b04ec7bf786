package cart

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/cocobubble/storefront/pkg/db/models"
	pkgredis "github.com/cocobubble/storefront/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func exerciseStorage(t *testing.T, storage Storage) {
	t.Helper()
	ctx := context.Background()
	key := Key{Session: "abc", Name: "cartItems"}

	_, err := storage.Load(ctx, key)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, storage.Save(ctx, key, []byte(`[1]`)))
	require.NoError(t, storage.Save(ctx, key, []byte(`[2]`)))
	got, err := storage.Load(ctx, key)
	require.NoError(t, err)
	require.Equal(t, `[2]`, string(got))

	other := Key{Session: "xyz", Name: "cartItems"}
	_, err = storage.Load(ctx, other)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, storage.Remove(ctx, key))
	_, err = storage.Load(ctx, key)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStorage(t *testing.T) {
	exerciseStorage(t, NewMemoryStorage())
}

func TestRedisStorage(t *testing.T) {
	srv := miniredis.RunT(t)
	client := pkgredis.NewFromClient(goredis.NewClient(&goredis.Options{Addr: srv.Addr()}))
	t.Cleanup(func() { _ = client.Close() })

	storage := NewRedisStorage(client, time.Hour)
	exerciseStorage(t, storage)

	require.NoError(t, storage.Save(context.Background(), Key{Session: "abc", Name: "cartItems"}, []byte(`[]`)))
	require.True(t, srv.Exists("sf:cart:abc:cartItems"))
	require.Equal(t, time.Hour, srv.TTL("sf:cart:abc:cartItems"))
}

func TestDBStorage(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.CartSnapshot{}))

	exerciseStorage(t, NewDBStorage(db))
}

func TestStoreOverRedisSurvivesReopen(t *testing.T) {
	srv := miniredis.RunT(t)
	client := pkgredis.NewFromClient(goredis.NewClient(&goredis.Options{Addr: srv.Addr()}))
	t.Cleanup(func() { _ = client.Close() })
	storage := NewRedisStorage(client, 0)

	ctx := context.Background()
	s, err := Open(ctx, storage, testKey)
	require.NoError(t, err)
	require.NoError(t, s.Add(ctx, LineItem{Name: "Mango Tea", Size: "reg", UnitPrice: 4, Quantity: 2}))

	reopened, err := Open(ctx, storage, testKey)
	require.NoError(t, err)
	require.Len(t, reopened.Items(), 1)
	require.Equal(t, 2, reopened.Items()[0].Quantity)
}
