package ocr

import (
	"context"
	"time"

	"ocr-pro/internal/domain/model"
	"ocr-pro/internal/domain/ports/adapter"
	"ocr-pro/internal/infra/metrics"
)

// Compile-time check
var _ adapter.OCRProvider = (*instrumentedOCR)(nil)

type instrumentedOCR struct {
	inner adapter.OCRProvider
	sem   chan struct{}
}

// NewInstrumented records call latency and outcome per provider and, when
// maxConcurrent > 0, caps the number of in-flight provider calls. The cap is
// opt-in; with 0 callers never wait for each other.
func NewInstrumented(inner adapter.OCRProvider, maxConcurrent int) adapter.OCRProvider {
	w := &instrumentedOCR{inner: inner}
	if maxConcurrent > 0 {
		w.sem = make(chan struct{}, maxConcurrent)
	}
	return w
}

func (i *instrumentedOCR) Name() string { return i.inner.Name() }

func (i *instrumentedOCR) Recognize(ctx context.Context, image, language string) model.RecognitionOutcome {
	if i.sem != nil {
		select {
		case i.sem <- struct{}{}:
			defer func() { <-i.sem }()
		case <-ctx.Done():
			return model.RecognitionFailure{Message: ctx.Err().Error()}
		}
	}
	start := time.Now()
	out := i.inner.Recognize(ctx, image, language)
	outcome := "success"
	if _, failed := out.(model.RecognitionFailure); failed {
		outcome = "failure"
	}
	metrics.ObserveProviderCall(i.inner.Name(), outcome, time.Since(start).Milliseconds())
	return out
}
