package ports

import (
	"context"
	"time"
)

// TokenDenylist records revoked session tokens until they would have expired
// anyway.
type TokenDenylist interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// IdempotencyStore binds a client-supplied idempotency key to the order it
// produces, scoped per owner.
type IdempotencyStore interface {
	// Reserve atomically binds (ownerID, key) to orderID. When the key is
	// already bound it returns the existing order id and reserved=false.
	Reserve(ctx context.Context, ownerID, key, orderID string) (existing string, reserved bool, err error)
	// Release drops the binding, but only while it still points at orderID.
	Release(ctx context.Context, ownerID, key, orderID string) error
}
