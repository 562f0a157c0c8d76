// ABOUTME: Outbound HTTP logging transport for the REST client.
// ABOUTME: Captures method, path, status, duration, request/response bodies, and stores them in the database.

package logging

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/2389/reco/internal/store"
)

const maxBodySize = 10 * 1024 // 10KB limit for body capture

// RequestIDHeader is set on every outbound request that lacks one
const RequestIDHeader = "X-Request-ID"

// Recorder persists request log entries
type Recorder interface {
	LogRequest(ctx context.Context, log *store.RequestLog) error
}

// Transport is an http.RoundTripper that records every request it forwards.
// Recording happens in the background and never changes the response.
type Transport struct {
	Base     http.RoundTripper
	Recorder Recorder
	Log      *zap.SugaredLogger

	wg sync.WaitGroup
}

// NewTransport wraps base (http.DefaultTransport when nil)
func NewTransport(base http.RoundTripper, recorder Recorder, log *zap.SugaredLogger) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Transport{Base: base, Recorder: recorder, Log: log}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	requestID := req.Header.Get(RequestIDHeader)
	if requestID == "" {
		requestID = uuid.New().String()
		req.Header.Set(RequestIDHeader, requestID)
	}

	var requestBody []byte
	if req.Body != nil && req.Body != http.NoBody {
		body, err := io.ReadAll(req.Body)
		req.Body.Close()
		if err != nil {
			return nil, err
		}
		requestBody = body
		req.Body = io.NopCloser(bytes.NewReader(body))
	}

	start := time.Now()
	resp, err := t.Base.RoundTrip(req)
	duration := time.Since(start).Milliseconds()

	entry := &store.RequestLog{
		RequestID:   requestID,
		Method:      req.Method,
		Path:        req.URL.RequestURI(),
		DurationMs:  int(duration),
		RequestBody: capBody(requestBody),
	}
	if resource, action, ok := ActionFromContext(req.Context()); ok {
		entry.Resource = resource
		entry.Action = action
	} else {
		entry.Resource = ResourceFromPath(req.URL.Path)
	}

	if err != nil {
		entry.Error = err.Error()
		t.record(entry)
		return nil, err
	}

	entry.StatusCode = resp.StatusCode
	if resp.Body != nil {
		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		entry.ResponseBody = capBody(body)
		if readErr != nil {
			entry.Error = readErr.Error()
			t.record(entry)
			return nil, readErr
		}
		resp.Body = io.NopCloser(bytes.NewReader(body))
	}

	t.record(entry)
	return resp, nil
}

// Wait blocks until all pending log writes have finished
func (t *Transport) Wait() {
	t.wg.Wait()
}

func (t *Transport) record(entry *store.RequestLog) {
	if t.Recorder == nil {
		return
	}
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		if err := t.Recorder.LogRequest(context.Background(), entry); err != nil {
			t.Log.Warnw("failed to store request log", "path", entry.Path, "error", err)
		}
	}()
}

func capBody(b []byte) string {
	if len(b) > maxBodySize {
		b = b[:maxBodySize]
	}
	return string(b)
}
