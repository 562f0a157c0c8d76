// ABOUTME: Tests for the JSON REST client.
// ABOUTME: Covers body encoding rules, number decoding, and error message extraction.

package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	apierrors "github.com/2389/reco/internal/errors"
)

type captured struct {
	method      string
	path        string
	contentType string
	body        string
}

func newServer(t *testing.T, status int, response string, got *captured) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		*got = captured{
			method:      r.Method,
			path:        r.URL.RequestURI(),
			contentType: r.Header.Get("Content-Type"),
			body:        string(b),
		}
		w.WriteHeader(status)
		io.WriteString(w, response)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestDo_SendsJSONBody(t *testing.T) {
	tests := []struct {
		name            string
		method          string
		body            any
		wantBody        string
		wantContentType string
	}{
		{
			name:            "post carries body",
			method:          http.MethodPost,
			body:            map[string]any{"name": "Rex"},
			wantBody:        `{"name":"Rex"}`,
			wantContentType: "application/json",
		},
		{
			name:            "put carries body",
			method:          http.MethodPut,
			body:            map[string]any{"rating": int64(4)},
			wantBody:        `{"rating":4}`,
			wantContentType: "application/json",
		},
		{
			name:     "get never sends a body",
			method:   http.MethodGet,
			body:     map[string]any{"ignored": true},
			wantBody: "",
		},
		{
			name:     "delete never sends a body",
			method:   http.MethodDelete,
			body:     map[string]any{"ignored": true},
			wantBody: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got captured
			server := newServer(t, http.StatusOK, `{}`, &got)

			c := New(server.URL, nil)
			if _, err := c.Do(context.Background(), tt.method, "/pets", tt.body); err != nil {
				t.Fatalf("Do() error = %v", err)
			}

			if got.method != tt.method {
				t.Errorf("method = %s, want %s", got.method, tt.method)
			}
			if got.body != tt.wantBody {
				t.Errorf("body = %q, want %q", got.body, tt.wantBody)
			}
			if got.contentType != tt.wantContentType {
				t.Errorf("Content-Type = %q, want %q", got.contentType, tt.wantContentType)
			}
		})
	}
}

func TestDo_DecodesNumbersAsJSONNumber(t *testing.T) {
	var got captured
	server := newServer(t, http.StatusCreated, `{"id":7,"name":"Rex","available":true}`, &got)

	c := New(server.URL+"/", nil)
	resp, err := c.Do(context.Background(), http.MethodPost, "/pets", map[string]any{"name": "Rex"})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}

	want := map[string]any{"id": json.Number("7"), "name": "Rex", "available": true}
	if diff := cmp.Diff(want, resp); diff != "" {
		t.Errorf("response mismatch (-want +got):\n%s", diff)
	}
	if got.path != "/pets" {
		t.Errorf("path = %q, want trailing slash trimmed from base URL", got.path)
	}
}

func TestDo_EmptyBodyReturnsNil(t *testing.T) {
	var got captured
	server := newServer(t, http.StatusNoContent, "", &got)

	resp, err := New(server.URL, nil).Do(context.Background(), http.MethodDelete, "/pets/7", nil)
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if resp != nil {
		t.Errorf("resp = %v, want nil", resp)
	}
}

func TestDo_QueryPassesThroughRaw(t *testing.T) {
	var got captured
	server := newServer(t, http.StatusOK, `[]`, &got)

	resp, err := New(server.URL, nil).Do(context.Background(), http.MethodGet, "/recommendations?user_id=42", nil)
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if got.path != "/recommendations?user_id=42" {
		t.Errorf("path = %q", got.path)
	}
	if diff := cmp.Diff([]any{}, resp); diff != "" {
		t.Errorf("response mismatch (-want +got):\n%s", diff)
	}
}

func TestDo_HTTPErrors(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		body         string
		wantMessage  string
		wantFromBody bool
	}{
		{
			name:         "message from body",
			status:       http.StatusNotFound,
			body:         `{"status":404,"error":"Not Found","message":"Pet with id '9' was not found."}`,
			wantMessage:  "Pet with id '9' was not found.",
			wantFromBody: true,
		},
		{
			name:        "no message field",
			status:      http.StatusBadRequest,
			body:        `{"error":"bad"}`,
			wantMessage: apierrors.GenericMessage,
		},
		{
			name:        "non json body",
			status:      http.StatusInternalServerError,
			body:        "<html>oops</html>",
			wantMessage: apierrors.GenericMessage,
		},
		{
			name:        "empty body",
			status:      http.StatusServiceUnavailable,
			body:        "",
			wantMessage: apierrors.GenericMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got captured
			server := newServer(t, tt.status, tt.body, &got)

			_, err := New(server.URL, nil).Do(context.Background(), http.MethodGet, "/pets/9", nil)
			httpErr, ok := AsHTTPError(err)
			if !ok {
				t.Fatalf("error = %v, want *HTTPError", err)
			}
			if httpErr.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", httpErr.StatusCode, tt.status)
			}
			if httpErr.Message != tt.wantMessage {
				t.Errorf("Message = %q, want %q", httpErr.Message, tt.wantMessage)
			}
			if httpErr.FromBody != tt.wantFromBody {
				t.Errorf("FromBody = %v, want %v", httpErr.FromBody, tt.wantFromBody)
			}
		})
	}
}

func TestDo_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := New(url, nil).Do(context.Background(), http.MethodGet, "/pets", nil)
	httpErr, ok := AsHTTPError(err)
	if !ok {
		t.Fatalf("error = %v, want *HTTPError", err)
	}
	if httpErr.StatusCode != 0 {
		t.Errorf("StatusCode = %d, want 0", httpErr.StatusCode)
	}
	if httpErr.Message != apierrors.GenericMessage {
		t.Errorf("Message = %q, want generic", httpErr.Message)
	}
	if errors.Unwrap(httpErr) == nil {
		t.Error("expected underlying transport error")
	}
}

func TestDo_ContextCanceled(t *testing.T) {
	var got captured
	server := newServer(t, http.StatusOK, `{}`, &got)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(server.URL, nil).Do(ctx, http.MethodGet, "/pets", nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled in chain", err)
	}
}
