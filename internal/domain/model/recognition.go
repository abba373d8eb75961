package model

// Confidence tiers. The provider only reports whether the parse fully
// succeeded, so confidence is a coarse two-level signal.
const (
	HighConfidence = 0.95
	LowConfidence  = 0.5
)

// ConfidenceForParse maps the provider's parse-success indicator to a confidence.
func ConfidenceForParse(fullParse bool) float64 {
	if fullParse {
		return HighConfidence
	}
	return LowConfidence
}

// RecognitionOutcome is either RecognitionSuccess or RecognitionFailure.
type RecognitionOutcome interface {
	isRecognitionOutcome()
}

type RecognitionSuccess struct {
	Text       string
	Confidence float64
}

type RecognitionFailure struct {
	Message string
}

func (RecognitionSuccess) isRecognitionOutcome() {}
func (RecognitionFailure) isRecognitionOutcome() {}
