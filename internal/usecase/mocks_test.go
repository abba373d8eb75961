//go:build !integration

package usecase_test

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"ocr-pro/internal/domain"
	"ocr-pro/internal/domain/model"
	"ocr-pro/internal/domain/ports/adapter"
	"ocr-pro/internal/domain/ports/repository"
	"ocr-pro/internal/infra/db/memory"
)

// =============================
// Adapters
// =============================

// ---- MockOCRProvider ----

type MockOCRProvider struct {
	calls int32

	RecognizeFunc func(ctx context.Context, image, language string) model.RecognitionOutcome
}

var _ adapter.OCRProvider = (*MockOCRProvider)(nil)

func (m *MockOCRProvider) Name() string { return "mock" }

func (m *MockOCRProvider) Recognize(ctx context.Context, image, language string) model.RecognitionOutcome {
	atomic.AddInt32(&m.calls, 1)
	if m.RecognizeFunc != nil {
		return m.RecognizeFunc(ctx, image, language)
	}
	return model.RecognitionSuccess{Text: "Hello", Confidence: model.HighConfidence}
}

func (m *MockOCRProvider) Calls() int { return int(atomic.LoadInt32(&m.calls)) }

// ---- MockVerifier ----

// MockVerifier accepts "Bearer token-<owner>" and rejects everything else.
type MockVerifier struct {
	Err error
}

var _ adapter.IdentityVerifier = (*MockVerifier)(nil)

func (m *MockVerifier) Verify(ctx context.Context, credential string) (adapter.Identity, error) {
	if m.Err != nil {
		return adapter.Identity{}, m.Err
	}
	tok := strings.TrimPrefix(credential, "Bearer ")
	if !strings.HasPrefix(tok, "token-") {
		return adapter.Identity{}, domain.ErrUnauthorized
	}
	owner := strings.TrimPrefix(tok, "token-")
	return adapter.Identity{OwnerID: owner, TokenID: "jti-" + owner, ExpiresAt: time.Now().Add(time.Hour)}, nil
}

// =============================
// Repositories
// =============================

// MockJobRepo delegates to the in-memory store unless a Func override is set.
type MockJobRepo struct {
	*memory.OCRJobRepo

	mu      sync.Mutex
	updates int

	FindByIDFunc       func(ctx context.Context, tx repository.Tx, id, ownerID string) (*model.OCRJob, error)
	UpdateTerminalFunc func(ctx context.Context, tx repository.Tx, job *model.OCRJob) (int64, error)
	InsertFunc         func(ctx context.Context, tx repository.Tx, job *model.OCRJob) error
	ListByOwnerFunc    func(ctx context.Context, tx repository.Tx, ownerID string, limit int) ([]*model.OCRJob, error)
}

var _ repository.OCRJobRepository = (*MockJobRepo)(nil)

func NewMockJobRepo() *MockJobRepo {
	return &MockJobRepo{OCRJobRepo: memory.NewOCRJobRepo()}
}

func (m *MockJobRepo) FindByID(ctx context.Context, tx repository.Tx, id, ownerID string) (*model.OCRJob, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, tx, id, ownerID)
	}
	return m.OCRJobRepo.FindByID(ctx, tx, id, ownerID)
}

func (m *MockJobRepo) UpdateTerminal(ctx context.Context, tx repository.Tx, job *model.OCRJob) (int64, error) {
	m.mu.Lock()
	m.updates++
	m.mu.Unlock()
	if m.UpdateTerminalFunc != nil {
		return m.UpdateTerminalFunc(ctx, tx, job)
	}
	return m.OCRJobRepo.UpdateTerminal(ctx, tx, job)
}

func (m *MockJobRepo) Insert(ctx context.Context, tx repository.Tx, job *model.OCRJob) error {
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, tx, job)
	}
	return m.OCRJobRepo.Insert(ctx, tx, job)
}

func (m *MockJobRepo) ListByOwner(ctx context.Context, tx repository.Tx, ownerID string, limit int) ([]*model.OCRJob, error) {
	if m.ListByOwnerFunc != nil {
		return m.ListByOwnerFunc(ctx, tx, ownerID, limit)
	}
	return m.OCRJobRepo.ListByOwner(ctx, tx, ownerID, limit)
}

func (m *MockJobRepo) Updates() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updates
}

// seedPending stores a pending job for owner and returns it.
func seedPending(repo repository.OCRJobRepository, owner string) *model.OCRJob {
	job, err := model.NewOCRJob(owner, "data:image/png;base64,AAAA", "eng")
	if err != nil {
		panic(err)
	}
	if err := repo.Insert(context.Background(), nil, job); err != nil {
		panic(err)
	}
	return job
}

// ---- MockLimiter ----

type MockLimiter struct {
	AllowFunc func(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

func (m *MockLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	return m.AllowFunc(ctx, key, limit, window)
}
