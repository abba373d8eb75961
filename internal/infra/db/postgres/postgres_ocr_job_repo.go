package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"ocr-pro/internal/domain"
	"ocr-pro/internal/domain/model"
	"ocr-pro/internal/domain/ports/repository"
	"ocr-pro/internal/infra/metrics"
)

var _ repository.OCRJobRepository = (*OCRJobRepo)(nil)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var ocrJobColumns = []string{
	"id", "owner_id", "image_ref", "language", "status", "extracted_text",
	"confidence", "error_message", "created_at", "processed_at", "seq",
}

type OCRJobRepo struct {
	pool *pgxpool.Pool
}

func NewOCRJobRepo(pool *pgxpool.Pool) *OCRJobRepo {
	return &OCRJobRepo{pool: pool}
}

func (r *OCRJobRepo) Insert(ctx context.Context, tx repository.Tx, job *model.OCRJob) error {
	if job.Status != model.OCRJobStatusPending {
		return domain.ErrInvalidArgument
	}
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	q, args, err := psql.Insert("ocr_jobs").
		Columns("id", "owner_id", "image_ref", "language", "status", "created_at").
		Values(job.ID, job.OwnerID, job.ImageRef, job.Language, string(job.Status), job.CreatedAt).
		Suffix("RETURNING seq").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	row, err := pickRow(ctx, r.pool, tx, q, args...)
	if err != nil {
		return err
	}
	if err := row.Scan(&job.Seq); err != nil {
		metrics.IncDBError("insert")
		return fmt.Errorf("insert ocr job: %w", err)
	}
	return nil
}

func (r *OCRJobRepo) FindByID(ctx context.Context, tx repository.Tx, id, ownerID string) (*model.OCRJob, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	q, args, err := psql.Select(ocrJobColumns...).
		From("ocr_jobs").
		Where(sq.Eq{"id": id, "owner_id": ownerID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	row, err := pickRow(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, err
	}
	job, err := scanOCRJob(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		metrics.IncDBError("find")
		return nil, fmt.Errorf("%w: %v", domain.ErrReadDatabaseRow, err)
	}
	return job, nil
}

// UpdateTerminal writes the terminal fields guarded by id, owner and status = 'pending'.
func (r *OCRJobRepo) UpdateTerminal(ctx context.Context, tx repository.Tx, job *model.OCRJob) (int64, error) {
	if !job.Status.IsTerminal() {
		return 0, domain.ErrInvalidTransition
	}
	if _, err := uuid.Parse(job.ID); err != nil {
		return 0, nil
	}
	q, args, err := psql.Update("ocr_jobs").
		SetMap(sq.Eq{
			"status":         string(job.Status),
			"extracted_text": job.ExtractedText,
			"confidence":     job.Confidence,
			"error_message":  job.ErrorMessage,
			"processed_at":   job.ProcessedAt,
		}).
		Where(sq.Eq{
			"id":       job.ID,
			"owner_id": job.OwnerID,
			"status":   string(model.OCRJobStatusPending),
		}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build update: %w", err)
	}
	tag, err := execSQL(ctx, r.pool, tx, q, args...)
	if err != nil {
		metrics.IncDBError("update_terminal")
		return 0, fmt.Errorf("update ocr job: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *OCRJobRepo) ListByOwner(ctx context.Context, tx repository.Tx, ownerID string, limit int) ([]*model.OCRJob, error) {
	if limit <= 0 {
		return []*model.OCRJob{}, nil
	}
	q, args, err := psql.Select(ocrJobColumns...).
		From("ocr_jobs").
		Where(sq.Eq{"owner_id": ownerID}).
		OrderBy("created_at DESC", "seq DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list: %w", err)
	}
	rows, err := queryRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		metrics.IncDBError("list")
		return nil, fmt.Errorf("list ocr jobs: %w", err)
	}
	defer rows.Close()

	out := make([]*model.OCRJob, 0, limit)
	for rows.Next() {
		job, err := scanOCRJob(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrReadDatabaseRow, err)
		}
		out = append(out, job)
	}
	if err := rows.Err(); err != nil {
		metrics.IncDBError("list")
		return nil, fmt.Errorf("list ocr jobs: %w", err)
	}
	return out, nil
}

func (r *OCRJobRepo) Delete(ctx context.Context, tx repository.Tx, id, ownerID string) (int64, error) {
	if _, err := uuid.Parse(id); err != nil {
		return 0, nil
	}
	q, args, err := psql.Delete("ocr_jobs").
		Where(sq.Eq{"id": id, "owner_id": ownerID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete: %w", err)
	}
	tag, err := execSQL(ctx, r.pool, tx, q, args...)
	if err != nil {
		metrics.IncDBError("delete")
		return 0, fmt.Errorf("delete ocr job: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *OCRJobRepo) DeleteAllByOwner(ctx context.Context, tx repository.Tx, ownerID string) (int64, error) {
	q, args, err := psql.Delete("ocr_jobs").
		Where(sq.Eq{"owner_id": ownerID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete all: %w", err)
	}
	tag, err := execSQL(ctx, r.pool, tx, q, args...)
	if err != nil {
		metrics.IncDBError("delete_all")
		return 0, fmt.Errorf("delete ocr jobs: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *OCRJobRepo) CountPendingOlderThan(ctx context.Context, tx repository.Tx, before time.Time) (int, error) {
	q, args, err := psql.Select("COUNT(*)").
		From("ocr_jobs").
		Where(sq.And{
			sq.Eq{"status": string(model.OCRJobStatusPending)},
			sq.Lt{"created_at": before},
		}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count: %w", err)
	}
	row, err := pickRow(ctx, r.pool, tx, q, args...)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		metrics.IncDBError("count_pending")
		return 0, fmt.Errorf("count pending: %w", err)
	}
	return n, nil
}

func scanOCRJob(row pgx.Row) (*model.OCRJob, error) {
	var (
		job    model.OCRJob
		status string
	)
	if err := row.Scan(
		&job.ID, &job.OwnerID, &job.ImageRef, &job.Language, &status, &job.ExtractedText,
		&job.Confidence, &job.ErrorMessage, &job.CreatedAt, &job.ProcessedAt, &job.Seq,
	); err != nil {
		return nil, err
	}
	job.Status = model.OCRJobStatus(status)
	return &job, nil
}
