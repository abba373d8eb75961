package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"ocr-pro/internal/config"
	"ocr-pro/internal/domain/model"
	"ocr-pro/internal/domain/ports/adapter"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.OCRProvider = (*OCRSpaceAdapter)(nil)

// maxResponseBytes bounds how much of a provider response is read.
const maxResponseBytes = 4 << 20

// responseSchema covers only the fields the adapter reads.
const responseSchema = `{
  "type": "object",
  "properties": {
    "IsErroredOnProcessing": {"type": "boolean"},
    "ErrorMessage": {
      "anyOf": [
        {"type": "string"},
        {"type": "array", "items": {"type": "string"}},
        {"type": "null"}
      ]
    },
    "ParsedResults": {
      "anyOf": [
        {
          "type": "array",
          "items": {
            "type": "object",
            "properties": {
              "ParsedText": {"type": ["string", "null"]},
              "FileParseExitCode": {"type": ["integer", "string"]}
            }
          }
        },
        {"type": "null"}
      ]
    }
  }
}`

var compiledResponseSchema = jsonschema.MustCompileString("ocrspace-response.json", responseSchema)

// OCRSpaceAdapter calls the OCR.space parse/image endpoint.
type OCRSpaceAdapter struct {
	endpoint          string
	apiKey            string
	language          string
	detectOrientation bool
	scale             bool
	client            *http.Client
	log               *zerolog.Logger
}

func NewOCRSpaceAdapter(cfg config.OCRConfig, logger *zerolog.Logger) (*OCRSpaceAdapter, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("ocr.space api key empty")
	}
	if cfg.Endpoint == "" {
		return nil, errors.New("ocr.space endpoint empty")
	}
	client := &http.Client{}
	if cfg.Timeout > 0 {
		client.Timeout = cfg.Timeout
	}
	lang := cfg.Language
	if lang == "" {
		lang = model.DefaultLanguage
	}
	l := logger.With().Str("component", "OCRSpaceAdapter").Logger()
	return &OCRSpaceAdapter{
		endpoint:          cfg.Endpoint,
		apiKey:            cfg.APIKey,
		language:          lang,
		detectOrientation: cfg.DetectOrientation,
		scale:             cfg.Scale,
		client:            client,
		log:               &l,
	}, nil
}

func (o *OCRSpaceAdapter) Name() string { return "ocrspace" }

// Recognize submits the image once. Every failure mode is reported as
// model.RecognitionFailure; the method never returns a Go error.
func (o *OCRSpaceAdapter) Recognize(ctx context.Context, image, language string) model.RecognitionOutcome {
	if language == "" {
		language = o.language
	}

	body, contentType, err := o.buildForm(image, language)
	if err != nil {
		return model.RecognitionFailure{Message: fmt.Sprintf("build request: %v", err)}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint, body)
	if err != nil {
		return model.RecognitionFailure{Message: fmt.Sprintf("build request: %v", err)}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("apikey", o.apiKey)

	resp, err := o.client.Do(req)
	if err != nil {
		o.log.Debug().Err(err).Msg("ocr.space request failed")
		return model.RecognitionFailure{Message: fmt.Sprintf("ocr provider unreachable: %v", err)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return model.RecognitionFailure{Message: fmt.Sprintf("read ocr response: %v", err)}
	}

	parsed, perr := decodeResponse(raw)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		o.log.Debug().Int("status", resp.StatusCode).Msg("ocr.space returned non-2xx")
		if perr == nil {
			if msg := parsed.ErrorMessage.First(); msg != "" {
				return model.RecognitionFailure{Message: msg}
			}
		}
		return model.RecognitionFailure{Message: fmt.Sprintf("ocr provider http %d", resp.StatusCode)}
	}
	if perr != nil {
		o.log.Debug().Err(perr).Msg("ocr.space response rejected")
		return model.RecognitionFailure{Message: "malformed ocr provider response"}
	}
	return parsed.outcome()
}

func (o *OCRSpaceAdapter) buildForm(image, language string) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fields := [][2]string{
		{"base64Image", image},
		{"language", language},
		{"isOverlayRequired", "false"},
		{"detectOrientation", strconv.FormatBool(o.detectOrientation)},
		{"scale", strconv.FormatBool(o.scale)},
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

// errorMessage accepts both the string and the array form the provider emits.
type errorMessage []string

func (m *errorMessage) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*m = nil
		return nil
	}
	var one string
	if err := json.Unmarshal(b, &one); err == nil {
		*m = errorMessage{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(b, &many); err != nil {
		return err
	}
	*m = many
	return nil
}

func (m errorMessage) First() string {
	for _, s := range m {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

type parsedResult struct {
	ParsedText        *string         `json:"ParsedText"`
	FileParseExitCode json.RawMessage `json:"FileParseExitCode"`
}

// fullParse is true only for the numeric exit code 1.
func (p parsedResult) fullParse() bool {
	var code float64
	if err := json.Unmarshal(p.FileParseExitCode, &code); err != nil {
		return false
	}
	return code == 1
}

type ocrSpaceResponse struct {
	IsErroredOnProcessing bool           `json:"IsErroredOnProcessing"`
	ErrorMessage          errorMessage   `json:"ErrorMessage"`
	ParsedResults         []parsedResult `json:"ParsedResults"`
}

func decodeResponse(raw []byte) (*ocrSpaceResponse, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if err := compiledResponseSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}
	var out ocrSpaceResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return &out, nil
}

func (r *ocrSpaceResponse) outcome() model.RecognitionOutcome {
	if r.IsErroredOnProcessing {
		msg := r.ErrorMessage.First()
		if msg == "" {
			msg = model.DefaultFailureMessage
		}
		return model.RecognitionFailure{Message: msg}
	}
	if len(r.ParsedResults) == 0 {
		return model.RecognitionSuccess{Text: "", Confidence: model.LowConfidence}
	}
	first := r.ParsedResults[0]
	text := ""
	if first.ParsedText != nil {
		text = *first.ParsedText
	}
	return model.RecognitionSuccess{Text: text, Confidence: model.ConfidenceForParse(first.fullParse())}
}
