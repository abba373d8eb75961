package client

import (
	"context"
	"net/http"
	"sync"
)

// RefreshEvent tells history views to re-fetch. JobID is the job the upload created.
type RefreshEvent struct {
	JobID string
}

// Result is a successful recognition.
type Result struct {
	JobID      string
	Text       string
	Confidence float64
}

// Uploader drives one upload: create a pending job, process it, then notify
// listeners. It never retries.
type Uploader struct {
	c *Client

	mu        sync.Mutex
	nextID    int
	listeners map[int]func(RefreshEvent)
}

func NewUploader(c *Client) *Uploader {
	return &Uploader{c: c, listeners: map[int]func(RefreshEvent){}}
}

// OnRefresh registers fn and returns a function that unregisters it.
func (u *Uploader) OnRefresh(fn func(RefreshEvent)) func() {
	u.mu.Lock()
	defer u.mu.Unlock()
	id := u.nextID
	u.nextID++
	u.listeners[id] = fn
	return func() {
		u.mu.Lock()
		defer u.mu.Unlock()
		delete(u.listeners, id)
	}
}

// Submit creates a job for image and processes it. Once the job exists the
// refresh event fires whatever the processing outcome; if creation fails
// nothing is emitted.
func (u *Uploader) Submit(ctx context.Context, image, language string) (*Result, error) {
	var job Job
	if err := u.c.do(ctx, http.MethodPost, "/api/v1/jobs", map[string]string{"image": image, "language": language}, &job); err != nil {
		return nil, err
	}
	defer u.emit(RefreshEvent{JobID: job.ID})

	var res struct {
		Success    bool    `json:"success"`
		Text       string  `json:"text"`
		Confidence float64 `json:"confidence"`
	}
	if err := u.c.do(ctx, http.MethodPost, "/api/v1/process-ocr", map[string]string{"image": image, "jobId": job.ID}, &res); err != nil {
		return nil, err
	}
	return &Result{JobID: job.ID, Text: res.Text, Confidence: res.Confidence}, nil
}

func (u *Uploader) emit(ev RefreshEvent) {
	u.mu.Lock()
	fns := make([]func(RefreshEvent), 0, len(u.listeners))
	for _, fn := range u.listeners {
		fns = append(fns, fn)
	}
	u.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}
