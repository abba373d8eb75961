package model

import (
	"strings"
	"time"

	"ocr-pro/internal/domain"

	"github.com/google/uuid"
)

type OCRJobStatus string

const (
	OCRJobStatusPending   OCRJobStatus = "pending"
	OCRJobStatusCompleted OCRJobStatus = "completed"
	OCRJobStatusFailed    OCRJobStatus = "failed"
)

// IsTerminal reports whether no further transition may leave s.
func (s OCRJobStatus) IsTerminal() bool {
	return s == OCRJobStatusCompleted || s == OCRJobStatusFailed
}

const (
	DefaultLanguage       = "eng"
	DefaultFailureMessage = "OCR processing failed"
)

// OCRJob is one request to extract text from a single image.
type OCRJob struct {
	ID            string
	OwnerID       string
	ImageRef      string
	Language      string
	Status        OCRJobStatus
	ExtractedText string
	Confidence    float64
	ErrorMessage  *string
	CreatedAt     time.Time
	ProcessedAt   *time.Time

	// Seq is assigned by the store and breaks created_at ties in history order.
	Seq int64
}

// NewOCRJob builds a pending job for owner. The id is generated here so the
// caller can reference it before the row is visible to anyone else.
func NewOCRJob(ownerID, imageRef, language string) (*OCRJob, error) {
	if strings.TrimSpace(ownerID) == "" || strings.TrimSpace(imageRef) == "" {
		return nil, domain.ErrInvalidArgument
	}
	if strings.TrimSpace(language) == "" {
		language = DefaultLanguage
	}
	return &OCRJob{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		ImageRef:  imageRef,
		Language:  language,
		Status:    OCRJobStatusPending,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// ApplySuccess moves a pending job to completed.
func (j *OCRJob) ApplySuccess(text string, confidence float64, now time.Time) error {
	if j.Status != OCRJobStatusPending {
		return domain.ErrInvalidTransition
	}
	j.Status = OCRJobStatusCompleted
	j.ExtractedText = text
	j.Confidence = clampConfidence(confidence)
	j.ErrorMessage = nil
	j.ProcessedAt = &now
	return nil
}

// ApplyFailure moves a pending job to failed. Text and confidence keep their zero values.
func (j *OCRJob) ApplyFailure(message string, now time.Time) error {
	if j.Status != OCRJobStatusPending {
		return domain.ErrInvalidTransition
	}
	if strings.TrimSpace(message) == "" {
		message = DefaultFailureMessage
	}
	j.Status = OCRJobStatusFailed
	j.ExtractedText = ""
	j.Confidence = 0
	j.ErrorMessage = &message
	j.ProcessedAt = &now
	return nil
}

// FailureMessage returns the failure message, or "" for non-failed jobs.
func (j *OCRJob) FailureMessage() string {
	if j.Status != OCRJobStatusFailed || j.ErrorMessage == nil {
		return ""
	}
	return *j.ErrorMessage
}

func clampConfidence(c float64) float64 {
	switch {
	case c < 0:
		return 0
	case c > 1:
		return 1
	default:
		return c
	}
}
