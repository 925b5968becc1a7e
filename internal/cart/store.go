package cart

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/mintmotion/mintmotion-backend/pkg/logger"
)

// cartStore is the slice of the redis client the cart needs.
type cartStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CartKey(userID string) string
}

// document is the stored cart payload. Version guards future layout changes.
type document struct {
	Version int    `json:"version"`
	Items   []Item `json:"items"`
}

const documentVersion = 1

// Store persists one cart document per user. Carts have no TTL; they live
// until cleared or overwritten.
type Store struct {
	redis cartStore
	logg  *logger.Logger
}

// NewStore builds a redis-backed cart store.
func NewStore(redis cartStore, logg *logger.Logger) (*Store, error) {
	if redis == nil {
		return nil, errors.New("redis store required")
	}
	return &Store{redis: redis, logg: logg}, nil
}

// Load returns the user's cart items. Malformed stored data is discarded
// and treated as an empty cart, never a fatal error.
func (s *Store) Load(ctx context.Context, userID string) ([]Item, error) {
	key := s.redis.CartKey(userID)
	raw, err := s.redis.Get(ctx, key)
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return []Item{}, nil
		}
		return nil, err
	}

	var doc document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil || doc.Version != documentVersion {
		if s.logg != nil {
			s.logg.Warn(ctx, "discarding malformed cart document")
		}
		_ = s.redis.Del(ctx, key)
		return []Item{}, nil
	}
	if doc.Items == nil {
		return []Item{}, nil
	}
	return doc.Items, nil
}

// Save overwrites the user's cart with the given items.
func (s *Store) Save(ctx context.Context, userID string, items []Item) error {
	doc := document{Version: documentVersion, Items: items}
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, s.redis.CartKey(userID), string(raw), 0)
}

// Clear removes the user's cart document entirely.
func (s *Store) Clear(ctx context.Context, userID string) error {
	return s.redis.Del(ctx, s.redis.CartKey(userID))
}
