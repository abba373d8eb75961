package ocr

import (
	"context"
	"time"

	"ocr-pro/internal/domain/model"
	"ocr-pro/internal/domain/ports/adapter"
)

var _ adapter.OCRProvider = (*NoopOCRAdapter)(nil)

// NoopOCRAdapter implements adapter.OCRProvider for local/dev testing.
// It never calls out and reports a fixed low-confidence result.
type NoopOCRAdapter struct {
	delay time.Duration
}

func NewNoopOCRAdapter() *NoopOCRAdapter {
	return &NoopOCRAdapter{delay: 100 * time.Millisecond}
}

func (a *NoopOCRAdapter) Name() string { return "noop" }

func (a *NoopOCRAdapter) Recognize(ctx context.Context, image, language string) model.RecognitionOutcome {
	select {
	case <-time.After(a.delay):
	case <-ctx.Done():
		return model.RecognitionFailure{Message: ctx.Err().Error()}
	}
	if image == "" {
		return model.RecognitionFailure{Message: "empty image"}
	}
	return model.RecognitionSuccess{Text: "This is a noop OCR result.", Confidence: model.LowConfidence}
}
