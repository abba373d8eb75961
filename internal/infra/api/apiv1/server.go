// Package apiv1 serves the versioned JSON API under /api/v1.
package apiv1

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"ocr-pro/internal/domain"
	"ocr-pro/internal/domain/model"
	"ocr-pro/internal/domain/ports/adapter"
	"ocr-pro/internal/infra/api"
	"ocr-pro/internal/usecase"
)

// maxBodyBytes bounds request bodies; images travel inline as base64.
const maxBodyBytes = 16 << 20

type Server struct {
	ocr            usecase.OCRJobUseCase
	history        usecase.HistoryUseCase
	identity       adapter.IdentityVerifier
	requestTimeout time.Duration
	log            *zerolog.Logger
}

func NewServer(ocr usecase.OCRJobUseCase, history usecase.HistoryUseCase, identity adapter.IdentityVerifier, requestTimeout time.Duration, logger *zerolog.Logger) *Server {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Server{ocr: ocr, history: history, identity: identity, requestTimeout: requestTimeout, log: logger}
}

// RegisterAPIV1 mounts every /api/v1 route on r.
func RegisterAPIV1(r chi.Router, s *Server) {
	r.Route("/api/v1", func(r chi.Router) {
		// process verifies the credential itself and is not bound by the request timeout
		r.Post("/process-ocr", s.handleProcess)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)
			if s.requestTimeout > 0 {
				r.Use(api.Timeout(s.requestTimeout))
			}
			r.Post("/jobs", s.handleCreateJob)
			r.Get("/jobs", s.handleListJobs)
			r.Delete("/jobs", s.handleClearJobs)
			r.Get("/jobs/{id}", s.handleGetJob)
			r.Delete("/jobs/{id}", s.handleDeleteJob)
			r.Post("/auth/logout", s.handleLogout)
		})
	})
}

// ---- DTOs ----

type ProcessRequest struct {
	Image string `json:"image"`
	JobID string `json:"jobId"`

	// legacy field names
	ImageData string `json:"imageData,omitempty"`
	ResultID  string `json:"resultId,omitempty"`
}

func (p ProcessRequest) image() string {
	if p.Image != "" {
		return p.Image
	}
	return p.ImageData
}

func (p ProcessRequest) jobID() string {
	if p.JobID != "" {
		return p.JobID
	}
	return p.ResultID
}

type ProcessResponse struct {
	Success    bool    `json:"success"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

type CreateJobRequest struct {
	Image    string `json:"image"`
	Language string `json:"language,omitempty"`
}

type Job struct {
	ID            string     `json:"id"`
	Status        string     `json:"status"`
	Language      string     `json:"language"`
	ExtractedText string     `json:"extractedText"`
	Confidence    float64    `json:"confidence"`
	ErrorMessage  *string    `json:"errorMessage"`
	CreatedAt     time.Time  `json:"createdAt"`
	ProcessedAt   *time.Time `json:"processedAt"`
}

type JobList struct {
	Items []Job `json:"items"`
}

type ClearResponse struct {
	Deleted int64 `json:"deleted"`
}

func toJob(j *model.OCRJob) Job {
	return Job{
		ID:            j.ID,
		Status:        string(j.Status),
		Language:      j.Language,
		ExtractedText: j.ExtractedText,
		Confidence:    j.Confidence,
		ErrorMessage:  j.ErrorMessage,
		CreatedAt:     j.CreatedAt,
		ProcessedAt:   j.ProcessedAt,
	}
}

// ---- handlers ----

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	cred := r.Header.Get("Authorization")
	if strings.TrimSpace(cred) == "" {
		api.WriteErrorMessage(w, http.StatusUnauthorized, "Missing authorization header")
		return
	}

	// an unreadable body leaves both fields empty; the credential is still checked first
	var req ProcessRequest
	if err := decodeBody(r, &req); err != nil {
		req = ProcessRequest{}
	}

	// a client disconnect must not abandon a job half way
	ctx := context.WithoutCancel(r.Context())
	res, err := s.ocr.Process(ctx, cred, req.jobID(), req.image())
	if err != nil {
		if errors.Is(err, domain.ErrBadRequest) {
			api.WriteErrorMessage(w, http.StatusBadRequest, "Missing image or jobId")
			return
		}
		api.WriteError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, ProcessResponse{Success: true, Text: res.Text, Confidence: res.Confidence})
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	who := identityFrom(r.Context())
	var req CreateJobRequest
	if err := decodeBody(r, &req); err != nil {
		api.WriteErrorMessage(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	job, err := s.history.Create(r.Context(), who.OwnerID, req.Image, req.Language)
	if err != nil {
		api.WriteError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, toJob(job))
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	who := identityFrom(r.Context())
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			api.WriteErrorMessage(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	jobs, err := s.history.List(r.Context(), who.OwnerID, limit)
	if err != nil {
		api.WriteError(w, err)
		return
	}
	out := JobList{Items: make([]Job, 0, len(jobs))}
	for _, j := range jobs {
		out.Items = append(out.Items, toJob(j))
	}
	api.WriteJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	who := identityFrom(r.Context())
	job, err := s.history.Get(r.Context(), who.OwnerID, chi.URLParam(r, "id"))
	if err != nil {
		api.WriteError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, toJob(job))
}

func (s *Server) handleDeleteJob(w http.ResponseWriter, r *http.Request) {
	who := identityFrom(r.Context())
	if err := s.history.Delete(r.Context(), who.OwnerID, chi.URLParam(r, "id")); err != nil {
		api.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearJobs(w http.ResponseWriter, r *http.Request) {
	who := identityFrom(r.Context())
	n, err := s.history.Clear(r.Context(), who.OwnerID)
	if err != nil {
		api.WriteError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, ClearResponse{Deleted: n})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.history.Logout(r.Context(), identityFrom(r.Context())); err != nil {
		api.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- helpers ----

func decodeBody(r *http.Request, v any) error {
	if r.Body == nil {
		return io.EOF
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	return dec.Decode(v)
}
