package cart

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/ariefcatur/go-storefront.git/internal/redisx"
)

// Store keeps session carts in a redis hash per session id.
// The session id is always an explicit input; nothing here is ambient.
type Store struct{ Redis *redis.Client }

func (s *Store) Get(ctx context.Context, sessionID string) (Cart, error) {
	key := fmt.Sprintf(redisx.KeyCart, sessionID)
	fields, err := s.Redis.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	c := Cart{}
	for pid, v := range fields {
		if q := ParseQty(v); q > 0 {
			c[pid] = q
		}
	}
	return c, nil
}

func (s *Store) Add(ctx context.Context, sessionID, productID string, qty int) error {
	if qty <= 0 {
		return nil
	}
	key := fmt.Sprintf(redisx.KeyCart, sessionID)
	if err := s.Redis.HIncrBy(ctx, key, productID, int64(qty)).Err(); err != nil {
		return err
	}
	return s.Redis.Expire(ctx, key, redisx.TTLCart).Err()
}

// Save replaces the stored cart wholesale (bulk update semantics).
func (s *Store) Save(ctx context.Context, sessionID string, c Cart) error {
	key := fmt.Sprintf(redisx.KeyCart, sessionID)
	if err := s.Redis.Del(ctx, key).Err(); err != nil {
		return err
	}
	if len(c) == 0 {
		return nil
	}
	fields := make(map[string]string, len(c))
	for pid, qty := range c {
		fields[pid] = strconv.Itoa(qty)
	}
	if err := s.Redis.HSet(ctx, key, fields).Err(); err != nil {
		return err
	}
	return s.Redis.Expire(ctx, key, redisx.TTLCart).Err()
}

func (s *Store) Clear(ctx context.Context, sessionID string) error {
	return s.Redis.Del(ctx, fmt.Sprintf(redisx.KeyCart, sessionID)).Err()
}
