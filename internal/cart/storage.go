package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cocobubble/storefront/pkg/db/models"
	pkgredis "github.com/cocobubble/storefront/pkg/redis"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound is returned by Storage.Load when no cart is stored under a key.
var ErrNotFound = errors.New("cart not stored")

// Key addresses one persisted cart: the session it belongs to and the fixed
// record name.
type Key struct {
	Session string
	Name    string
}

func (k Key) String() string {
	if k.Session == "" {
		return k.Name
	}
	return k.Session + ":" + k.Name
}

// Storage is the durable key-value record behind a Store.
type Storage interface {
	Load(ctx context.Context, key Key) ([]byte, error)
	Save(ctx context.Context, key Key, payload []byte) error
	Remove(ctx context.Context, key Key) error
}

// MemoryStorage keeps carts in process memory.
type MemoryStorage struct {
	mu   sync.RWMutex
	data map[Key][]byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: map[Key][]byte{}}
}

func (m *MemoryStorage) Load(_ context.Context, key Key) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	payload, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), payload...), nil
}

func (m *MemoryStorage) Save(_ context.Context, key Key, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), payload...)
	return nil
}

func (m *MemoryStorage) Remove(_ context.Context, key Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

type redisStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CartKey(session, name string) string
}

// RedisStorage stores each cart as a string value with a sliding TTL.
type RedisStorage struct {
	client redisStore
	ttl    time.Duration
}

func NewRedisStorage(client *pkgredis.Client, ttl time.Duration) *RedisStorage {
	return &RedisStorage{client: client, ttl: ttl}
}

func (r *RedisStorage) Load(ctx context.Context, key Key) ([]byte, error) {
	raw, err := r.client.Get(ctx, r.client.CartKey(key.Session, key.Name))
	if err != nil {
		if pkgredis.IsMissing(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("redis get cart: %w", err)
	}
	return []byte(raw), nil
}

func (r *RedisStorage) Save(ctx context.Context, key Key, payload []byte) error {
	if err := r.client.Set(ctx, r.client.CartKey(key.Session, key.Name), string(payload), r.ttl); err != nil {
		return fmt.Errorf("redis set cart: %w", err)
	}
	return nil
}

func (r *RedisStorage) Remove(ctx context.Context, key Key) error {
	if err := r.client.Del(ctx, r.client.CartKey(key.Session, key.Name)); err != nil {
		return fmt.Errorf("redis del cart: %w", err)
	}
	return nil
}

// DBStorage stores carts in the cart_snapshots table.
type DBStorage struct {
	db *gorm.DB
}

func NewDBStorage(db *gorm.DB) *DBStorage {
	return &DBStorage{db: db}
}

func (d *DBStorage) Load(ctx context.Context, key Key) ([]byte, error) {
	var row models.CartSnapshot
	err := d.db.WithContext(ctx).Where("cart_key = ?", key.String()).Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load cart snapshot: %w", err)
	}
	return []byte(row.Payload), nil
}

func (d *DBStorage) Save(ctx context.Context, key Key, payload []byte) error {
	row := models.CartSnapshot{Key: key.String(), Payload: string(payload)}
	err := d.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cart_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("save cart snapshot: %w", err)
	}
	return nil
}

func (d *DBStorage) Remove(ctx context.Context, key Key) error {
	if err := d.db.WithContext(ctx).Where("cart_key = ?", key.String()).Delete(&models.CartSnapshot{}).Error; err != nil {
		return fmt.Errorf("remove cart snapshot: %w", err)
	}
	return nil
}
