package adapter

import (
	"context"

	"ocr-pro/internal/domain/model"
)

// OCRProvider is the port for the remote text-recognition service.
// Implementations make a single attempt per call and report every failure
// (transport, HTTP status, malformed body) as model.RecognitionFailure.
type OCRProvider interface {
	Recognize(ctx context.Context, image, language string) model.RecognitionOutcome
	Name() string
}
