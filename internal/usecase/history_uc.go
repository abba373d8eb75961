// File: internal/usecase/history_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"ocr-pro/internal/domain"
	"ocr-pro/internal/domain/model"
	"ocr-pro/internal/domain/ports/adapter"
	"ocr-pro/internal/domain/ports/repository"
	"ocr-pro/internal/infra/logging"
	"ocr-pro/internal/infra/metrics"
)

// Compile-time check
var _ HistoryUseCase = (*historyUC)(nil)

// HistoryUseCase covers everything an owner does with their own jobs besides processing.
type HistoryUseCase interface {
	Create(ctx context.Context, ownerID, imageRef, language string) (*model.OCRJob, error)
	List(ctx context.Context, ownerID string, limit int) ([]*model.OCRJob, error)
	Get(ctx context.Context, ownerID, id string) (*model.OCRJob, error)
	Delete(ctx context.Context, ownerID, id string) error
	Clear(ctx context.Context, ownerID string) (int64, error)
	Logout(ctx context.Context, who adapter.Identity) error
}

// RateLimiter is satisfied by the redis fixed-window limiter.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type HistoryOptions struct {
	DefaultLimit     int
	MaxLimit         int
	CreateRateLimit  int // 0 disables
	CreateRateWindow time.Duration
}

type historyUC struct {
	jobs    repository.OCRJobRepository
	limiter RateLimiter
	revoker adapter.RevocationStore
	opts    HistoryOptions
	log     *zerolog.Logger
}

// NewHistoryUseCase accepts a nil limiter or revoker; the matching feature is then off.
func NewHistoryUseCase(jobs repository.OCRJobRepository, limiter RateLimiter, revoker adapter.RevocationStore, opts HistoryOptions, logger *zerolog.Logger) *historyUC {
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = 20
	}
	if opts.MaxLimit < opts.DefaultLimit {
		opts.MaxLimit = opts.DefaultLimit
	}
	return &historyUC{jobs: jobs, limiter: limiter, revoker: revoker, opts: opts, log: logger}
}

func createRateKey(ownerID string) string {
	return fmt.Sprintf("rate_limit:ocr_create:%s", ownerID)
}

func (u *historyUC) Create(ctx context.Context, ownerID, imageRef, language string) (*model.OCRJob, error) {
	defer logging.TraceDuration(u.log, "HistoryUC.Create")()

	if strings.TrimSpace(imageRef) == "" {
		return nil, fmt.Errorf("%w: missing image", domain.ErrBadRequest)
	}
	log := logging.With(logging.WithOwnerID(ctx, ownerID), u.log)

	if u.limiter != nil && u.opts.CreateRateLimit > 0 {
		ok, err := u.limiter.Allow(ctx, createRateKey(ownerID), u.opts.CreateRateLimit, u.opts.CreateRateWindow)
		if err != nil {
			// limiter outage must not block uploads
			log.Warn().Err(err).Msg("rate limiter unavailable")
		} else if !ok {
			return nil, domain.ErrRateLimited
		}
	}

	job, err := model.NewOCRJob(ownerID, imageRef, language)
	if err != nil {
		return nil, err
	}
	if err := u.jobs.Insert(ctx, nil, job); err != nil {
		log.Error().Err(err).Msg("insert job failed")
		return nil, fmt.Errorf("%w: %w", domain.ErrInternal, err)
	}
	metrics.IncOCRJobCreated()
	log.Info().Str("job_id", job.ID).Msg("job created")
	return job, nil
}

// List returns the newest jobs first. limit <= 0 selects the default page
// size and anything above the maximum is capped.
func (u *historyUC) List(ctx context.Context, ownerID string, limit int) ([]*model.OCRJob, error) {
	if limit <= 0 {
		limit = u.opts.DefaultLimit
	}
	if limit > u.opts.MaxLimit {
		limit = u.opts.MaxLimit
	}
	jobs, err := u.jobs.ListByOwner(ctx, nil, ownerID, limit)
	if err != nil {
		u.log.Error().Err(err).Str("owner_id", ownerID).Msg("list jobs failed")
		return nil, fmt.Errorf("%w: %w", domain.ErrInternal, err)
	}
	return jobs, nil
}

func (u *historyUC) Get(ctx context.Context, ownerID, id string) (*model.OCRJob, error) {
	job, err := u.jobs.FindByID(ctx, nil, id, ownerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		u.log.Error().Err(err).Str("owner_id", ownerID).Str("job_id", id).Msg("load job failed")
		return nil, fmt.Errorf("%w: %w", domain.ErrInternal, err)
	}
	return job, nil
}

func (u *historyUC) Delete(ctx context.Context, ownerID, id string) error {
	n, err := u.jobs.Delete(ctx, nil, id, ownerID)
	if err != nil {
		u.log.Error().Err(err).Str("owner_id", ownerID).Str("job_id", id).Msg("delete job failed")
		return fmt.Errorf("%w: %w", domain.ErrInternal, err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (u *historyUC) Clear(ctx context.Context, ownerID string) (int64, error) {
	n, err := u.jobs.DeleteAllByOwner(ctx, nil, ownerID)
	if err != nil {
		u.log.Error().Err(err).Str("owner_id", ownerID).Msg("clear history failed")
		return 0, fmt.Errorf("%w: %w", domain.ErrInternal, err)
	}
	u.log.Info().Str("owner_id", ownerID).Int64("deleted", n).Msg("history cleared")
	return n, nil
}

func (u *historyUC) Logout(ctx context.Context, who adapter.Identity) error {
	if u.revoker == nil || who.TokenID == "" {
		return nil
	}
	if err := u.revoker.Revoke(ctx, who.TokenID, who.ExpiresAt); err != nil {
		u.log.Error().Err(err).Str("owner_id", who.OwnerID).Msg("revoke token failed")
		return fmt.Errorf("%w: %w", domain.ErrInternal, err)
	}
	return nil
}
