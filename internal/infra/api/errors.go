package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"ocr-pro/internal/domain"
)

type errorBody struct {
	Error string `json:"error"`
}

// StatusFor maps a domain error to its HTTP status and client-facing message.
// Internal details never reach the client.
func StatusFor(err error) (int, string) {
	var perr *domain.ProviderError
	switch {
	case errors.As(err, &perr):
		msg := perr.Message
		if msg == "" {
			msg = "OCR processing failed"
		}
		return http.StatusBadGateway, msg
	case errors.Is(err, domain.ErrInternal):
		return http.StatusInternalServerError, "Internal server error"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, domain.ErrBadRequest), errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest, "Missing or invalid request fields"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "Job not found"
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests, "Too many requests"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func WriteError(w http.ResponseWriter, err error) {
	code, msg := StatusFor(err)
	WriteJSON(w, code, errorBody{Error: msg})
}

func WriteErrorMessage(w http.ResponseWriter, code int, msg string) {
	WriteJSON(w, code, errorBody{Error: msg})
}

func WriteJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}
