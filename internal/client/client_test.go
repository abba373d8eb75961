//go:build !integration

package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI answers the two upload calls with configurable statuses.
func fakeAPI(t *testing.T, createStatus, processStatus int, processBody string) (*httptest.Server, *[]string) {
	t.Helper()
	var calls []string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/jobs", func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, "create")
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(createStatus)
		if createStatus == http.StatusCreated {
			_, _ = w.Write([]byte(`{"id":"job-1","status":"pending"}`))
			return
		}
		_, _ = w.Write([]byte(`{"error":"Too many requests"}`))
	})
	mux.HandleFunc("/api/v1/process-ocr", func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, "process")
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "job-1", body["jobId"])
		assert.Equal(t, "img", body["image"])
		w.WriteHeader(processStatus)
		_, _ = w.Write([]byte(processBody))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestUploader_Submit_Success(t *testing.T) {
	srv, calls := fakeAPI(t, http.StatusCreated, http.StatusOK, `{"success":true,"text":"Hello","confidence":0.95}`)
	u := NewUploader(New(srv.URL, "tok", srv.Client()))

	var events []RefreshEvent
	u.OnRefresh(func(ev RefreshEvent) { events = append(events, ev) })

	res, err := u.Submit(context.Background(), "img", "")
	require.NoError(t, err)
	assert.Equal(t, &Result{JobID: "job-1", Text: "Hello", Confidence: 0.95}, res)
	assert.Equal(t, []string{"create", "process"}, *calls)
	assert.Equal(t, []RefreshEvent{{JobID: "job-1"}}, events)
}

func TestUploader_Submit_ProcessFailureStillRefreshes(t *testing.T) {
	srv, calls := fakeAPI(t, http.StatusCreated, http.StatusBadGateway, `{"error":"bad format"}`)
	u := NewUploader(New(srv.URL, "tok", srv.Client()))

	var events []RefreshEvent
	u.OnRefresh(func(ev RefreshEvent) { events = append(events, ev) })

	_, err := u.Submit(context.Background(), "img", "")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "bad format", apiErr.Message)
	assert.Equal(t, []string{"create", "process"}, *calls, "no retry")
	assert.Len(t, events, 1)
}

func TestUploader_Submit_CreateFailureEmitsNothing(t *testing.T) {
	srv, calls := fakeAPI(t, http.StatusTooManyRequests, http.StatusOK, `{}`)
	u := NewUploader(New(srv.URL, "tok", srv.Client()))

	fired := false
	u.OnRefresh(func(RefreshEvent) { fired = true })

	_, err := u.Submit(context.Background(), "img", "")
	require.Error(t, err)
	assert.Equal(t, []string{"create"}, *calls)
	assert.False(t, fired)
}

func TestUploader_Unsubscribe(t *testing.T) {
	srv, _ := fakeAPI(t, http.StatusCreated, http.StatusOK, `{"success":true,"text":"x","confidence":0.5}`)
	u := NewUploader(New(srv.URL, "tok", srv.Client()))

	n := 0
	stop := u.OnRefresh(func(RefreshEvent) { n++ })
	_, _ = u.Submit(context.Background(), "img", "")
	stop()
	_, _ = u.Submit(context.Background(), "img", "")
	assert.Equal(t, 1, n)
}

func TestHistory(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/jobs", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`{"items":[{"id":"b","status":"completed","extractedText":"Hi","confidence":0.95},{"id":"a","status":"failed","errorMessage":"bad format"}]}`))
	})
	mux.HandleFunc("DELETE /api/v1/jobs", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"deleted":2}`))
	})
	mux.HandleFunc("DELETE /api/v1/jobs/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") == "missing" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"Job not found"}`))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	h := NewHistory(New(srv.URL, "tok", srv.Client()))
	ctx := context.Background()

	jobs, err := h.List(ctx, 5)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "Hi", jobs[0].ExtractedText)
	require.NotNil(t, jobs[1].ErrorMessage)
	assert.Equal(t, "bad format", *jobs[1].ErrorMessage)

	assert.NoError(t, h.Delete(ctx, "a"))
	var apiErr *APIError
	require.ErrorAs(t, h.Delete(ctx, "missing"), &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)

	n, err := h.Clear(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}
