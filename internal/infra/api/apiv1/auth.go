package apiv1

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"ocr-pro/internal/domain"
	"ocr-pro/internal/domain/ports/adapter"
	"ocr-pro/internal/infra/api"
	"ocr-pro/internal/infra/logging"
)

type identityKey struct{}

func withIdentity(ctx context.Context, id adapter.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func identityFrom(ctx context.Context) adapter.Identity {
	id, _ := ctx.Value(identityKey{}).(adapter.Identity)
	return id
}

// authenticate rejects requests without a valid bearer token and stores the
// caller's identity on the request context.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cred := r.Header.Get("Authorization")
		if strings.TrimSpace(cred) == "" {
			api.WriteErrorMessage(w, http.StatusUnauthorized, "Missing authorization header")
			return
		}
		who, err := s.identity.Verify(r.Context(), cred)
		if err != nil {
			if errors.Is(err, domain.ErrInternal) {
				logging.With(r.Context(), s.log).Error().Err(err).Msg("verify credential failed")
				api.WriteError(w, err)
				return
			}
			api.WriteError(w, domain.ErrUnauthorized)
			return
		}
		ctx := logging.WithOwnerID(withIdentity(r.Context(), who), who.OwnerID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
