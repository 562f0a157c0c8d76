// ABOUTME: JSON REST client the console uses to reach the resource API.
// ABOUTME: Sends one request per call and maps every failure onto *HTTPError.

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	apierrors "github.com/2389/reco/internal/errors"
)

// HTTPError is returned for non-2xx responses and transport failures.
// StatusCode is 0 when no response was received.
type HTTPError struct {
	StatusCode int
	Message    string
	FromBody   bool // Message came from the response body
	Err        error
}

func (e *HTTPError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("request failed: %s", e.Message)
	}
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// AsHTTPError reports whether err wraps an *HTTPError
func AsHTTPError(err error) (*HTTPError, bool) {
	var httpErr *HTTPError
	ok := errors.As(err, &httpErr)
	return httpErr, ok
}

// Client talks to one API base URL
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for baseURL. A nil httpClient uses http.DefaultClient.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// BaseURL returns the API root requests are sent to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do sends method to path with an optional JSON body and returns the decoded
// response. Numbers decode as json.Number. An empty 2xx body returns nil.
// GET and DELETE never carry a body.
func (c *Client) Do(ctx context.Context, method, path string, body any) (any, error) {
	var reader io.Reader
	sendsBody := body != nil && method != http.MethodGet && method != http.MethodDelete
	if sendsBody {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, &HTTPError{Message: apierrors.GenericMessage, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if sendsBody {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &HTTPError{Message: apierrors.GenericMessage, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Message: apierrors.GenericMessage, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		httpErr := &HTTPError{StatusCode: resp.StatusCode, Message: apierrors.GenericMessage}
		if msg, ok := apierrors.MessageFromBody(data); ok {
			httpErr.Message = msg
			httpErr.FromBody = true
		}
		return nil, httpErr
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var decoded any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&decoded); err != nil {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Message: apierrors.GenericMessage, Err: fmt.Errorf("decode response: %w", err)}
	}
	return decoded, nil
}
