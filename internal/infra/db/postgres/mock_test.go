//go:build !integration

package postgres

import (
	"context"
	"time"

	"ocr-pro/internal/domain/model"
	"ocr-pro/internal/domain/ports/repository"
	red "ocr-pro/internal/infra/redis"
)

// --- Mocks for Cache Decorator Tests ---

// mockInnerOCRJobRepo mocks the database repository that the history decorator wraps.
type mockInnerOCRJobRepo struct {
	InsertFunc                func(ctx context.Context, tx repository.Tx, job *model.OCRJob) error
	FindByIDFunc              func(ctx context.Context, tx repository.Tx, id, ownerID string) (*model.OCRJob, error)
	UpdateTerminalFunc        func(ctx context.Context, tx repository.Tx, job *model.OCRJob) (int64, error)
	ListByOwnerFunc           func(ctx context.Context, tx repository.Tx, ownerID string, limit int) ([]*model.OCRJob, error)
	DeleteFunc                func(ctx context.Context, tx repository.Tx, id, ownerID string) (int64, error)
	DeleteAllByOwnerFunc      func(ctx context.Context, tx repository.Tx, ownerID string) (int64, error)
	CountPendingOlderThanFunc func(ctx context.Context, tx repository.Tx, before time.Time) (int, error)
}

var _ repository.OCRJobRepository = &mockInnerOCRJobRepo{}

func (m *mockInnerOCRJobRepo) Insert(ctx context.Context, tx repository.Tx, job *model.OCRJob) error {
	return m.InsertFunc(ctx, tx, job)
}
func (m *mockInnerOCRJobRepo) FindByID(ctx context.Context, tx repository.Tx, id, ownerID string) (*model.OCRJob, error) {
	return m.FindByIDFunc(ctx, tx, id, ownerID)
}
func (m *mockInnerOCRJobRepo) UpdateTerminal(ctx context.Context, tx repository.Tx, job *model.OCRJob) (int64, error) {
	return m.UpdateTerminalFunc(ctx, tx, job)
}
func (m *mockInnerOCRJobRepo) ListByOwner(ctx context.Context, tx repository.Tx, ownerID string, limit int) ([]*model.OCRJob, error) {
	return m.ListByOwnerFunc(ctx, tx, ownerID, limit)
}
func (m *mockInnerOCRJobRepo) Delete(ctx context.Context, tx repository.Tx, id, ownerID string) (int64, error) {
	return m.DeleteFunc(ctx, tx, id, ownerID)
}
func (m *mockInnerOCRJobRepo) DeleteAllByOwner(ctx context.Context, tx repository.Tx, ownerID string) (int64, error) {
	return m.DeleteAllByOwnerFunc(ctx, tx, ownerID)
}
func (m *mockInnerOCRJobRepo) CountPendingOlderThan(ctx context.Context, tx repository.Tx, before time.Time) (int, error) {
	return m.CountPendingOlderThanFunc(ctx, tx, before)
}

// mockRedisClient mocks our Redis client wrapper.
type mockRedisClient struct {
	GetFunc    func(ctx context.Context, key string) (string, error)
	SetFunc    func(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	DelFunc    func(ctx context.Context, keys ...string) error
	PingFunc   func(ctx context.Context) error
	ExistsFunc func(ctx context.Context, key string) (bool, error)
	IncrFunc   func(ctx context.Context, key string) (int64, error)
	ExpireFunc func(ctx context.Context, key string, expiration time.Duration) error
	CloseFunc  func() error
}

var _ red.RedisClient = &mockRedisClient{}

func (m *mockRedisClient) Get(ctx context.Context, key string) (string, error) {
	return m.GetFunc(ctx, key)
}
func (m *mockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return m.SetFunc(ctx, key, value, expiration)
}
func (m *mockRedisClient) Del(ctx context.Context, keys ...string) error {
	return m.DelFunc(ctx, keys...)
}
func (m *mockRedisClient) Ping(ctx context.Context) error { return m.PingFunc(ctx) }
func (m *mockRedisClient) Exists(ctx context.Context, key string) (bool, error) {
	return m.ExistsFunc(ctx, key)
}
func (m *mockRedisClient) Incr(ctx context.Context, key string) (int64, error) {
	return m.IncrFunc(ctx, key)
}
func (m *mockRedisClient) Expire(ctx context.Context, key string, expiration time.Duration) error {
	return m.ExpireFunc(ctx, key, expiration)
}
func (m *mockRedisClient) Close() error { return m.CloseFunc() }
