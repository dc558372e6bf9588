package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/storefront-labs/storefront-api/internal/core/ports"
)

const idempotencyTTL = 24 * time.Hour

// IdempotencyStore maps client-supplied idempotency keys to the order they
// produced. Keys are scoped per owner and expire after idempotencyTTL.
// Key format: idem:order:<owner_id>:<key>
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)

func NewIdempotencyStore(client *redis.Client) *IdempotencyStore {
	return &IdempotencyStore{client: client, ttl: idempotencyTTL}
}

// releaseScript deletes a key only while it still holds the caller's value.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Reserve binds the key to orderID with SET NX. The first caller wins; later
// callers get the winning order id back.
func (s *IdempotencyStore) Reserve(ctx context.Context, ownerID, key, orderID string) (string, bool, error) {
	k := s.key(ownerID, key)
	for attempt := 0; attempt < 2; attempt++ {
		ok, err := s.client.SetNX(ctx, k, orderID, s.ttl).Result()
		if err != nil {
			return "", false, fmt.Errorf("idempotency reserve: %w", err)
		}
		if ok {
			return orderID, true, nil
		}

		existing, err := s.client.Get(ctx, k).Result()
		if errors.Is(err, redis.Nil) {
			// Expired or released between the two calls.
			continue
		}
		if err != nil {
			return "", false, fmt.Errorf("idempotency reserve: %w", err)
		}
		return existing, false, nil
	}
	return "", false, fmt.Errorf("idempotency reserve: key %q keeps changing", k)
}

// Release drops the key if it still points at orderID.
func (s *IdempotencyStore) Release(ctx context.Context, ownerID, key, orderID string) error {
	if err := releaseScript.Run(ctx, s.client, []string{s.key(ownerID, key)}, orderID).Err(); err != nil {
		return fmt.Errorf("idempotency release: %w", err)
	}
	return nil
}

func (s *IdempotencyStore) key(ownerID, key string) string {
	return fmt.Sprintf("idem:order:%s:%s", ownerID, key)
}
