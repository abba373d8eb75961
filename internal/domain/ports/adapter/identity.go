package adapter

import (
	"context"
	"time"
)

// Identity is what the core learns about a caller: who they are, plus the
// token id and expiry so a session can be revoked.
type Identity struct {
	OwnerID   string
	TokenID   string
	ExpiresAt time.Time
}

// IdentityVerifier validates a bearer credential ("Bearer <token>" or the raw token).
type IdentityVerifier interface {
	Verify(ctx context.Context, credential string) (Identity, error)
}

// RevocationStore remembers logged-out token ids until they expire.
type RevocationStore interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
