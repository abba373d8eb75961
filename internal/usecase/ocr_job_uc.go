// File: internal/usecase/ocr_job_uc.go
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
var _ OCRJobUseCase = (*ocrJobUC)(nil)

// ProcessResult is what a caller sees after a job completes.
type ProcessResult struct {
	Text       string
	Confidence float64
}

type OCRJobUseCase interface {
	// Process recognizes the image of a pending job owned by the caller and
	// records the terminal outcome. A job that is already terminal is not
	// sent to the provider again; its stored outcome is returned instead.
	//
	// Errors: domain.ErrUnauthorized, domain.ErrBadRequest, domain.ErrNotFound,
	// *domain.ProviderError (job moved to failed) and domain.ErrInternal
	// (job left pending).
	Process(ctx context.Context, credential, jobID, image string) (*ProcessResult, error)
}

type ocrJobUC struct {
	jobs     repository.OCRJobRepository
	provider adapter.OCRProvider
	identity adapter.IdentityVerifier
	log      *zerolog.Logger
	now      func() time.Time
}

func NewOCRJobUseCase(jobs repository.OCRJobRepository, provider adapter.OCRProvider, identity adapter.IdentityVerifier, logger *zerolog.Logger) *ocrJobUC {
	return &ocrJobUC{
		jobs:     jobs,
		provider: provider,
		identity: identity,
		log:      logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (u *ocrJobUC) Process(ctx context.Context, credential, jobID, image string) (*ProcessResult, error) {
	defer logging.TraceDuration(u.log, "OCRJobUC.Process")()

	if strings.TrimSpace(credential) == "" {
		return nil, domain.ErrUnauthorized
	}
	who, err := u.identity.Verify(ctx, credential)
	if err != nil {
		if errors.Is(err, domain.ErrInternal) {
			u.log.Error().Err(err).Msg("verify credential failed")
			return nil, err
		}
		return nil, domain.ErrUnauthorized
	}

	if strings.TrimSpace(jobID) == "" || strings.TrimSpace(image) == "" {
		return nil, fmt.Errorf("%w: missing image or job id", domain.ErrBadRequest)
	}

	ctx = logging.WithJobID(logging.WithOwnerID(ctx, who.OwnerID), jobID)
	log := logging.With(ctx, u.log)

	job, err := u.jobs.FindByID(ctx, nil, jobID, who.OwnerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		log.Error().Err(err).Msg("load job failed")
		return nil, fmt.Errorf("%w: %w", domain.ErrInternal, err)
	}
	if job.Status.IsTerminal() {
		log.Info().Str("status", string(job.Status)).Msg("job already terminal; replaying stored outcome")
		metrics.IncTransitionSkipped()
		return replay(job)
	}

	outcome := u.provider.Recognize(ctx, image, job.Language)

	next := *job
	switch o := outcome.(type) {
	case model.RecognitionSuccess:
		err = next.ApplySuccess(o.Text, o.Confidence, u.now())
	case model.RecognitionFailure:
		log.Debug().Str("provider", u.provider.Name()).Str("reason", o.Message).Msg("ocr provider reported failure")
		err = next.ApplyFailure(o.Message, u.now())
	default:
		err = fmt.Errorf("unexpected recognition outcome %T", outcome)
	}
	if err != nil {
		log.Error().Err(err).Msg("apply outcome failed")
		return nil, fmt.Errorf("%w: %w", domain.ErrInternal, err)
	}

	n, err := u.jobs.UpdateTerminal(ctx, nil, &next)
	if err != nil {
		log.Error().Err(err).Msg("persist terminal outcome failed; job stays pending")
		return nil, fmt.Errorf("%w: %w", domain.ErrInternal, err)
	}
	if n == 0 {
		// another request finished the job first
		metrics.IncTransitionSkipped()
		stored, err := u.jobs.FindByID(ctx, nil, jobID, who.OwnerID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, domain.ErrNotFound
			}
			log.Error().Err(err).Msg("reload after skipped write failed")
			return nil, fmt.Errorf("%w: %w", domain.ErrInternal, err)
		}
		if !stored.Status.IsTerminal() {
			log.Error().Msg("terminal write skipped but job still pending")
			return nil, fmt.Errorf("%w: job %s not updated", domain.ErrInternal, jobID)
		}
		log.Info().Str("status", string(stored.Status)).Msg("concurrent terminal write won")
		return replay(stored)
	}

	metrics.IncOCRJob(string(next.Status))
	log.Info().Str("status", string(next.Status)).Float64("confidence", next.Confidence).Msg("job processed")
	return replay(&next)
}

func replay(job *model.OCRJob) (*ProcessResult, error) {
	if job.Status == model.OCRJobStatusFailed {
		return nil, &domain.ProviderError{Message: job.FailureMessage()}
	}
	return &ProcessResult{Text: job.ExtractedText, Confidence: job.Confidence}, nil
}
