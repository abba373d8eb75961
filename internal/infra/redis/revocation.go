package redis

import (
	"context"
	"fmt"
	"time"

	"ocr-pro/internal/domain/ports/adapter"
)

var _ adapter.RevocationStore = (*RevocationStore)(nil)

// RevocationStore keeps revoked token ids until the token would have expired anyway.
type RevocationStore struct {
	client RedisClient
}

func NewRevocationStore(client RedisClient) *RevocationStore {
	return &RevocationStore{client: client}
}

func revokedKey(tokenID string) string { return fmt.Sprintf("auth:revoked:%s", tokenID) }

func (s *RevocationStore) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, revokedKey(tokenID), 1, ttl)
}

func (s *RevocationStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	return s.client.Exists(ctx, revokedKey(tokenID))
}
