package repository

import (
	"context"
	"time"

	"ocr-pro/internal/domain/model"
)

// OCRJobRepository is the record store contract. Every method that reads or
// mutates a single job is scoped by both id and owner.
type OCRJobRepository interface {
	// Insert stores a pending job and fills in store-assigned fields (Seq).
	Insert(ctx context.Context, tx Tx, job *model.OCRJob) error
	FindByID(ctx context.Context, tx Tx, id, ownerID string) (*model.OCRJob, error)
	// UpdateTerminal persists a terminal transition only while the stored row
	// is still pending. It returns the number of affected rows; 0 means the
	// job was already terminal or belongs to someone else.
	UpdateTerminal(ctx context.Context, tx Tx, job *model.OCRJob) (int64, error)
	ListByOwner(ctx context.Context, tx Tx, ownerID string, limit int) ([]*model.OCRJob, error)
	Delete(ctx context.Context, tx Tx, id, ownerID string) (int64, error)
	DeleteAllByOwner(ctx context.Context, tx Tx, ownerID string) (int64, error)
	CountPendingOlderThan(ctx context.Context, tx Tx, before time.Time) (int, error)
}
