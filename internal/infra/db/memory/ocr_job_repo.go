// Package memory holds an in-process record store used in dev mode and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"ocr-pro/internal/domain"
	"ocr-pro/internal/domain/model"
	"ocr-pro/internal/domain/ports/repository"
)

var _ repository.OCRJobRepository = (*OCRJobRepo)(nil)

type OCRJobRepo struct {
	mu   sync.RWMutex
	jobs map[string]*model.OCRJob
	seq  int64
}

func NewOCRJobRepo() *OCRJobRepo {
	return &OCRJobRepo{jobs: map[string]*model.OCRJob{}}
}

func clone(j *model.OCRJob) *model.OCRJob {
	cp := *j
	if j.ErrorMessage != nil {
		msg := *j.ErrorMessage
		cp.ErrorMessage = &msg
	}
	if j.ProcessedAt != nil {
		at := *j.ProcessedAt
		cp.ProcessedAt = &at
	}
	return &cp
}

func (r *OCRJobRepo) Insert(ctx context.Context, tx repository.Tx, job *model.OCRJob) error {
	if job.Status != model.OCRJobStatusPending {
		return domain.ErrInvalidArgument
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if _, ok := r.jobs[job.ID]; ok {
		return domain.ErrInvalidArgument
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	r.seq++
	job.Seq = r.seq
	r.jobs[job.ID] = clone(job)
	return nil
}

func (r *OCRJobRepo) FindByID(ctx context.Context, tx repository.Tx, id, ownerID string) (*model.OCRJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	j, ok := r.jobs[id]
	if !ok || j.OwnerID != ownerID {
		return nil, domain.ErrNotFound
	}
	return clone(j), nil
}

func (r *OCRJobRepo) UpdateTerminal(ctx context.Context, tx repository.Tx, job *model.OCRJob) (int64, error) {
	if !job.Status.IsTerminal() {
		return 0, domain.ErrInvalidTransition
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.jobs[job.ID]
	if !ok || stored.OwnerID != job.OwnerID || stored.Status != model.OCRJobStatusPending {
		return 0, nil
	}
	next := clone(stored)
	next.Status = job.Status
	next.ExtractedText = job.ExtractedText
	next.Confidence = job.Confidence
	next.ErrorMessage = job.ErrorMessage
	next.ProcessedAt = job.ProcessedAt
	r.jobs[job.ID] = clone(next)
	return 1, nil
}

func (r *OCRJobRepo) ListByOwner(ctx context.Context, tx repository.Tx, ownerID string, limit int) ([]*model.OCRJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*model.OCRJob, 0)
	for _, j := range r.jobs {
		if j.OwnerID == ownerID {
			out = append(out, clone(j))
		}
	}
	sort.Slice(out, func(a, b int) bool {
		if !out[a].CreatedAt.Equal(out[b].CreatedAt) {
			return out[a].CreatedAt.After(out[b].CreatedAt)
		}
		return out[a].Seq > out[b].Seq
	})
	if limit < 0 {
		limit = 0
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *OCRJobRepo) Delete(ctx context.Context, tx repository.Tx, id, ownerID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok || j.OwnerID != ownerID {
		return 0, nil
	}
	delete(r.jobs, id)
	return 1, nil
}

func (r *OCRJobRepo) DeleteAllByOwner(ctx context.Context, tx repository.Tx, ownerID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, j := range r.jobs {
		if j.OwnerID == ownerID {
			delete(r.jobs, id)
			n++
		}
	}
	return n, nil
}

func (r *OCRJobRepo) CountPendingOlderThan(ctx context.Context, tx repository.Tx, before time.Time) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, j := range r.jobs {
		if j.Status == model.OCRJobStatusPending && j.CreatedAt.Before(before) {
			n++
		}
	}
	return n, nil
}
