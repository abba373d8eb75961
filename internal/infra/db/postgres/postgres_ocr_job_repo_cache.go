package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"ocr-pro/internal/domain/model"
	"ocr-pro/internal/domain/ports/repository"
	"ocr-pro/internal/infra/metrics"
	red "ocr-pro/internal/infra/redis"
)

var _ repository.OCRJobRepository = (*ocrJobRepoCacheDecorator)(nil)

// ocrJobRepoCacheDecorator caches history pages per owner. Every write bumps a
// per-owner generation counter that is part of the page key, so a page cached
// before the write is never served after it.
type ocrJobRepoCacheDecorator struct {
	inner repository.OCRJobRepository
	cache red.RedisClient
	ttl   time.Duration
	log   *zerolog.Logger
}

func NewOCRJobRepoCacheDecorator(inner repository.OCRJobRepository, cache red.RedisClient, ttl time.Duration, logger *zerolog.Logger) repository.OCRJobRepository {
	if ttl <= 0 {
		ttl = time.Minute
	}
	l := logger.With().Str("component", "OCRJobCache").Logger()
	return &ocrJobRepoCacheDecorator{inner: inner, cache: cache, ttl: ttl, log: &l}
}

func historyGenKey(ownerID string) string { return fmt.Sprintf("ocr:history:gen:%s", ownerID) }

func historyPageKey(ownerID, gen string, limit int) string {
	return fmt.Sprintf("ocr:history:%s:%s:%d", ownerID, gen, limit)
}

func (d *ocrJobRepoCacheDecorator) invalidate(ctx context.Context, ownerID string) {
	if _, err := d.cache.Incr(ctx, historyGenKey(ownerID)); err != nil {
		d.log.Warn().Err(err).Str("owner_id", ownerID).Msg("history cache invalidation failed")
	}
}

func (d *ocrJobRepoCacheDecorator) Insert(ctx context.Context, tx repository.Tx, job *model.OCRJob) error {
	if err := d.inner.Insert(ctx, tx, job); err != nil {
		return err
	}
	d.invalidate(ctx, job.OwnerID)
	return nil
}

func (d *ocrJobRepoCacheDecorator) FindByID(ctx context.Context, tx repository.Tx, id, ownerID string) (*model.OCRJob, error) {
	return d.inner.FindByID(ctx, tx, id, ownerID)
}

func (d *ocrJobRepoCacheDecorator) UpdateTerminal(ctx context.Context, tx repository.Tx, job *model.OCRJob) (int64, error) {
	n, err := d.inner.UpdateTerminal(ctx, tx, job)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		d.invalidate(ctx, job.OwnerID)
	}
	return n, nil
}

func (d *ocrJobRepoCacheDecorator) ListByOwner(ctx context.Context, tx repository.Tx, ownerID string, limit int) ([]*model.OCRJob, error) {
	// reads inside a transaction must see that transaction's writes
	if tx != nil {
		return d.inner.ListByOwner(ctx, tx, ownerID, limit)
	}

	gen, err := d.cache.Get(ctx, historyGenKey(ownerID))
	if errors.Is(err, redis.Nil) {
		gen = "0"
	} else if err != nil {
		metrics.IncCacheRequest("history", "error")
		return d.inner.ListByOwner(ctx, tx, ownerID, limit)
	}

	key := historyPageKey(ownerID, gen, limit)
	if val, err := d.cache.Get(ctx, key); err == nil {
		var jobs []*model.OCRJob
		if json.Unmarshal([]byte(val), &jobs) == nil {
			metrics.IncCacheRequest("history", "hit")
			return jobs, nil
		}
	}

	metrics.IncCacheRequest("history", "miss")
	jobs, err := d.inner.ListByOwner(ctx, tx, ownerID, limit)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(jobs); err == nil {
		_ = d.cache.Set(ctx, key, b, d.ttl)
	}
	return jobs, nil
}

func (d *ocrJobRepoCacheDecorator) Delete(ctx context.Context, tx repository.Tx, id, ownerID string) (int64, error) {
	n, err := d.inner.Delete(ctx, tx, id, ownerID)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		d.invalidate(ctx, ownerID)
	}
	return n, nil
}

func (d *ocrJobRepoCacheDecorator) DeleteAllByOwner(ctx context.Context, tx repository.Tx, ownerID string) (int64, error) {
	n, err := d.inner.DeleteAllByOwner(ctx, tx, ownerID)
	if err != nil {
		return 0, err
	}
	d.invalidate(ctx, ownerID)
	return n, nil
}

func (d *ocrJobRepoCacheDecorator) CountPendingOlderThan(ctx context.Context, tx repository.Tx, before time.Time) (int, error) {
	return d.inner.CountPendingOlderThan(ctx, tx, before)
}
