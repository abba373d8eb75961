// File: internal/infra/security/token_service.go
package security

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"ocr-pro/internal/domain"
	"ocr-pro/internal/domain/ports/adapter"
)

var _ adapter.IdentityVerifier = (*TokenService)(nil)

// TokenService mints and verifies HS256 bearer tokens. The subject claim is
// the owner id; the jti claim is checked against the revocation store.
type TokenService struct {
	secret  []byte
	issuer  string
	ttl     time.Duration
	revoked adapter.RevocationStore
	now     func() time.Time
}

// NewTokenService requires a non-empty secret. revoked may be nil, in which
// case logout has no effect on outstanding tokens.
func NewTokenService(secret, issuer string, ttl time.Duration, revoked adapter.RevocationStore) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("token secret empty")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenService{
		secret:  []byte(secret),
		issuer:  issuer,
		ttl:     ttl,
		revoked: revoked,
		now:     time.Now,
	}, nil
}

// Mint issues a token for ownerID.
func (s *TokenService) Mint(ownerID string) (string, adapter.Identity, error) {
	if strings.TrimSpace(ownerID) == "" {
		return "", adapter.Identity{}, domain.ErrInvalidArgument
	}
	now := s.now()
	id := adapter.Identity{
		OwnerID:   ownerID,
		TokenID:   uuid.NewString(),
		ExpiresAt: now.Add(s.ttl).Truncate(time.Second),
	}
	claims := jwt.RegisteredClaims{
		Subject:   id.OwnerID,
		ID:        id.TokenID,
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(id.ExpiresAt),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", adapter.Identity{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, id, nil
}

// Verify accepts "Bearer <token>" or the bare token.
func (s *TokenService) Verify(ctx context.Context, credential string) (adapter.Identity, error) {
	raw := bearerToken(credential)
	if raw == "" {
		return adapter.Identity{}, domain.ErrUnauthorized
	}

	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return adapter.Identity{}, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	if claims.Subject == "" || claims.ID == "" {
		return adapter.Identity{}, domain.ErrUnauthorized
	}

	if s.revoked != nil {
		revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
		if err != nil {
			return adapter.Identity{}, fmt.Errorf("%w: revocation lookup: %w", domain.ErrInternal, err)
		}
		if revoked {
			return adapter.Identity{}, domain.ErrUnauthorized
		}
	}

	return adapter.Identity{
		OwnerID:   claims.Subject,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func bearerToken(credential string) string {
	c := strings.TrimSpace(credential)
	if len(c) >= 7 && strings.EqualFold(c[:7], "bearer ") {
		c = strings.TrimSpace(c[7:])
	}
	return c
}
