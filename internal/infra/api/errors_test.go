//go:build !integration

package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"ocr-pro/internal/domain"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		code int
		msg  string
	}{
		{&domain.ProviderError{Message: "bad format"}, http.StatusBadGateway, "bad format"},
		{fmt.Errorf("%w: db down", domain.ErrInternal), http.StatusInternalServerError, "Internal server error"},
		{domain.ErrUnauthorized, http.StatusUnauthorized, "Unauthorized"},
		{fmt.Errorf("%w: missing", domain.ErrBadRequest), http.StatusBadRequest, "Missing or invalid request fields"},
		{domain.ErrNotFound, http.StatusNotFound, "Job not found"},
		{domain.ErrRateLimited, http.StatusTooManyRequests, "Too many requests"},
		{errors.New("boom"), http.StatusInternalServerError, "Internal server error"},
	}
	for _, tc := range cases {
		code, msg := StatusFor(tc.err)
		if code != tc.code || msg != tc.msg {
			t.Errorf("StatusFor(%v) = %d %q, want %d %q", tc.err, code, msg, tc.code, tc.msg)
		}
	}
}
