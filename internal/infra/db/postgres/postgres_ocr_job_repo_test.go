//go:build integration

package postgres

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"ocr-pro/internal/domain"
	"ocr-pro/internal/domain/model"
)

func TestOCRJobRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	ctx := context.Background()
	repo := NewOCRJobRepo(testPool)

	newJob := func(t *testing.T, owner string) *model.OCRJob {
		t.Helper()
		job, err := model.NewOCRJob(owner, "data:image/png;base64,AAAA", "eng")
		if err != nil {
			t.Fatalf("NewOCRJob: %v", err)
		}
		if err := repo.Insert(ctx, nil, job); err != nil {
			t.Fatalf("failed to insert job: %v", err)
		}
		return job
	}

	t.Run("should insert a pending job and read it back", func(t *testing.T) {
		cleanup(t)
		job := newJob(t, "owner-a")
		if job.Seq == 0 {
			t.Error("expected seq to be assigned")
		}

		got, err := repo.FindByID(ctx, nil, job.ID, "owner-a")
		if err != nil {
			t.Fatalf("FindByID: %v", err)
		}
		if got.Status != model.OCRJobStatusPending || got.ProcessedAt != nil || got.ErrorMessage != nil {
			t.Errorf("unexpected stored job: %+v", got)
		}
	})

	t.Run("should apply a terminal write exactly once", func(t *testing.T) {
		cleanup(t)
		job := newJob(t, "owner-a")

		done := *job
		_ = done.ApplySuccess("Hello", model.HighConfidence, time.Now().UTC())
		n, err := repo.UpdateTerminal(ctx, nil, &done)
		if err != nil || n != 1 {
			t.Fatalf("first update: n=%d err=%v", n, err)
		}

		failed := *job
		_ = failed.ApplyFailure("late", time.Now().UTC())
		n, err = repo.UpdateTerminal(ctx, nil, &failed)
		if err != nil || n != 0 {
			t.Fatalf("second update should be skipped: n=%d err=%v", n, err)
		}

		var status, text string
		err = testPool.QueryRow(ctx, "SELECT status, extracted_text FROM ocr_jobs WHERE id = $1", job.ID).Scan(&status, &text)
		if err != nil {
			t.Fatalf("failed to query job: %v", err)
		}
		if status != "completed" || text != "Hello" {
			t.Errorf("expected completed/Hello, got %s/%s", status, text)
		}
	})

	t.Run("should race terminal writes to a single winner", func(t *testing.T) {
		cleanup(t)
		job := newJob(t, "owner-a")

		var wins int64
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				cp := *job
				if i%2 == 0 {
					_ = cp.ApplySuccess("text", model.HighConfidence, time.Now().UTC())
				} else {
					_ = cp.ApplyFailure("boom", time.Now().UTC())
				}
				n, err := repo.UpdateTerminal(ctx, nil, &cp)
				if err != nil {
					t.Errorf("update: %v", err)
				}
				atomic.AddInt64(&wins, n)
			}(i)
		}
		wg.Wait()
		if wins != 1 {
			t.Errorf("expected exactly one winner, got %d", wins)
		}
	})

	t.Run("should isolate owners", func(t *testing.T) {
		cleanup(t)
		jobB := newJob(t, "owner-b")

		if _, err := repo.FindByID(ctx, nil, jobB.ID, "owner-a"); err != domain.ErrNotFound {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		forged := *jobB
		forged.OwnerID = "owner-a"
		_ = forged.ApplySuccess("x", model.HighConfidence, time.Now().UTC())
		if n, _ := repo.UpdateTerminal(ctx, nil, &forged); n != 0 {
			t.Errorf("cross-owner update affected %d rows", n)
		}
		if n, _ := repo.Delete(ctx, nil, jobB.ID, "owner-a"); n != 0 {
			t.Errorf("cross-owner delete affected %d rows", n)
		}
	})

	t.Run("should treat malformed ids as not found", func(t *testing.T) {
		cleanup(t)
		if _, err := repo.FindByID(ctx, nil, "not-a-uuid", "owner-a"); err != domain.ErrNotFound {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		if _, err := repo.FindByID(ctx, nil, uuid.NewString(), "owner-a"); err != domain.ErrNotFound {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("should list newest first and honour the limit", func(t *testing.T) {
		cleanup(t)
		first := newJob(t, "owner-a")
		second := newJob(t, "owner-a")
		third := newJob(t, "owner-a")

		list, err := repo.ListByOwner(ctx, nil, "owner-a", 2)
		if err != nil {
			t.Fatalf("ListByOwner: %v", err)
		}
		if len(list) != 2 {
			t.Fatalf("expected 2 jobs, got %d", len(list))
		}
		if list[0].ID != third.ID || list[1].ID != second.ID {
			t.Errorf("unexpected order: %s, %s (first=%s)", list[0].ID, list[1].ID, first.ID)
		}
	})

	t.Run("should delete and clear history", func(t *testing.T) {
		cleanup(t)
		a := newJob(t, "owner-a")
		newJob(t, "owner-a")
		newJob(t, "owner-b")

		if n, err := repo.Delete(ctx, nil, a.ID, "owner-a"); err != nil || n != 1 {
			t.Fatalf("Delete: n=%d err=%v", n, err)
		}
		if n, err := repo.DeleteAllByOwner(ctx, nil, "owner-a"); err != nil || n != 1 {
			t.Fatalf("DeleteAllByOwner: n=%d err=%v", n, err)
		}
		if list, _ := repo.ListByOwner(ctx, nil, "owner-b", 20); len(list) != 1 {
			t.Errorf("other owner lost jobs: %d", len(list))
		}
	})

	t.Run("should count stale pending jobs", func(t *testing.T) {
		cleanup(t)
		old, _ := model.NewOCRJob("owner-a", "ref", "eng")
		old.CreatedAt = time.Now().UTC().Add(-time.Hour)
		if err := repo.Insert(ctx, nil, old); err != nil {
			t.Fatal(err)
		}
		newJob(t, "owner-a")

		n, err := repo.CountPendingOlderThan(ctx, nil, time.Now().UTC().Add(-30*time.Minute))
		if err != nil || n != 1 {
			t.Errorf("expected 1, got %d (%v)", n, err)
		}
	})
}
