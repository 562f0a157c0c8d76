// ABOUTME: Tests for request log storage operations.
// ABOUTME: Covers inserts, filtered queries, aggregate stats, and top endpoints.

package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestLogRequestAndGetRequestLogs(t *testing.T) {
	s := setupTestDB(t)
	defer s.Close()
	ctx := context.Background()

	entry := &RequestLog{
		Resource:     "pets",
		Action:       "create",
		RequestID:    "req-1",
		Method:       "POST",
		Path:         "/pets",
		StatusCode:   201,
		DurationMs:   12,
		RequestBody:  `{"name":"Rex"}`,
		ResponseBody: `{"id":7,"name":"Rex"}`,
	}
	if err := s.LogRequest(ctx, entry); err != nil {
		t.Fatalf("LogRequest() error = %v", err)
	}

	logs, err := s.GetRequestLogs(ctx, &RequestLogQuery{})
	if err != nil {
		t.Fatalf("GetRequestLogs() error = %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("got %d logs, want 1", len(logs))
	}

	got := logs[0]
	if got.Resource != "pets" || got.Action != "create" || got.RequestID != "req-1" {
		t.Errorf("unexpected identity fields: %+v", got)
	}
	if got.Method != "POST" || got.Path != "/pets" || got.StatusCode != 201 {
		t.Errorf("unexpected request fields: %+v", got)
	}
	if got.RequestBody != entry.RequestBody || got.ResponseBody != entry.ResponseBody {
		t.Errorf("bodies not stored: %+v", got)
	}
	if got.Timestamp.IsZero() {
		t.Error("expected timestamp to be set by the database")
	}
}

func TestGetRequestLogsFilters(t *testing.T) {
	s := setupTestDB(t)
	defer s.Close()
	ctx := context.Background()

	now := time.Now().UTC()
	testLogs := []*RequestLog{
		{Resource: "pets", Action: "retrieve", Method: "GET", Path: "/pets/5", StatusCode: 200, Timestamp: now.Add(-1 * time.Minute)},
		{Resource: "pets", Action: "delete", Method: "DELETE", Path: "/pets/9", StatusCode: 404, Timestamp: now.Add(-2 * time.Minute)},
		{Resource: "recommendations", Action: "search", Method: "GET", Path: "/recommendations?user_id=42", StatusCode: 200, Timestamp: now.Add(-3 * time.Minute)},
		{Resource: "recommendations", Action: "search", Method: "GET", Path: "/recommendationsXuser", StatusCode: 200, Timestamp: now.Add(-4 * time.Minute)},
		{Resource: "pets", Action: "create", Method: "POST", Path: "/pets", StatusCode: 0, Error: "connection refused", Timestamp: now.Add(-5 * time.Minute)},
	}
	insertLogs(t, s, testLogs)

	tests := []struct {
		name      string
		query     RequestLogQuery
		wantPaths []string
	}{
		{
			name:      "no filter newest first",
			query:     RequestLogQuery{},
			wantPaths: []string{"/pets/5", "/pets/9", "/recommendations?user_id=42", "/recommendationsXuser", "/pets"},
		},
		{
			name:      "by resource",
			query:     RequestLogQuery{Resource: "recommendations"},
			wantPaths: []string{"/recommendations?user_id=42", "/recommendationsXuser"},
		},
		{
			name:      "by action",
			query:     RequestLogQuery{Action: "delete"},
			wantPaths: []string{"/pets/9"},
		},
		{
			name:      "by method",
			query:     RequestLogQuery{Method: "POST"},
			wantPaths: []string{"/pets"},
		},
		{
			name:      "path prefix treats underscore literally",
			query:     RequestLogQuery{PathPrefix: "/recommendations?user_"},
			wantPaths: []string{"/recommendations?user_id=42"},
		},
		{
			name:      "by status",
			query:     RequestLogQuery{StatusCode: 404},
			wantPaths: []string{"/pets/9"},
		},
		{
			name:      "failed only includes transport failures",
			query:     RequestLogQuery{FailedOnly: true},
			wantPaths: []string{"/pets/9", "/pets"},
		},
		{
			name:      "limit and offset",
			query:     RequestLogQuery{Limit: 2, Offset: 1},
			wantPaths: []string{"/pets/9", "/recommendations?user_id=42"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs, err := s.GetRequestLogs(ctx, &tt.query)
			if err != nil {
				t.Fatalf("GetRequestLogs() error = %v", err)
			}
			if len(logs) != len(tt.wantPaths) {
				t.Fatalf("got %d logs, want %d", len(logs), len(tt.wantPaths))
			}
			for i, want := range tt.wantPaths {
				if logs[i].Path != want {
					t.Errorf("logs[%d].Path = %q, want %q", i, logs[i].Path, want)
				}
			}
		})
	}
}

func TestGetRequestLogStats(t *testing.T) {
	s := setupTestDB(t)
	defer s.Close()
	ctx := context.Background()

	now := time.Now().UTC()
	insertLogs(t, s, []*RequestLog{
		{Method: "GET", Path: "/pets/1", StatusCode: 200, DurationMs: 10, Timestamp: now},
		{Method: "GET", Path: "/pets/1", StatusCode: 500, DurationMs: 30, Timestamp: now},
		{Method: "GET", Path: "/pets", StatusCode: 0, DurationMs: 20, Timestamp: now.Add(-72 * time.Hour)},
	})

	stats, err := s.GetRequestLogStats(ctx)
	if err != nil {
		t.Fatalf("GetRequestLogStats() error = %v", err)
	}
	if stats.TotalRequests != 3 {
		t.Errorf("TotalRequests = %d, want 3", stats.TotalRequests)
	}
	if stats.TodayRequests != 2 {
		t.Errorf("TodayRequests = %d, want 2", stats.TodayRequests)
	}
	if stats.ErrorRequests != 2 {
		t.Errorf("ErrorRequests = %d, want 2", stats.ErrorRequests)
	}
	if stats.AvgDurationMs != 20 {
		t.Errorf("AvgDurationMs = %d, want 20", stats.AvgDurationMs)
	}
	if stats.UniqueEndpoints != 2 {
		t.Errorf("UniqueEndpoints = %d, want 2", stats.UniqueEndpoints)
	}
}

func TestGetRequestLogStatsEmpty(t *testing.T) {
	s := setupTestDB(t)
	defer s.Close()

	stats, err := s.GetRequestLogStats(context.Background())
	if err != nil {
		t.Fatalf("GetRequestLogStats() error = %v", err)
	}
	if stats.TotalRequests != 0 || stats.ErrorRequests != 0 || stats.AvgDurationMs != 0 {
		t.Errorf("expected zero stats, got %+v", stats)
	}
}

func TestGetTopEndpoints(t *testing.T) {
	s := setupTestDB(t)
	defer s.Close()

	now := time.Now().UTC()
	insertLogs(t, s, []*RequestLog{
		{Method: "GET", Path: "/pets", StatusCode: 200, DurationMs: 10, Timestamp: now},
		{Method: "GET", Path: "/pets", StatusCode: 200, DurationMs: 20, Timestamp: now},
		{Method: "GET", Path: "/pets", StatusCode: 200, DurationMs: 30, Timestamp: now},
		{Method: "GET", Path: "/recommendations", StatusCode: 200, DurationMs: 5, Timestamp: now},
		{Method: "GET", Path: "/recommendations", StatusCode: 200, DurationMs: 5, Timestamp: now},
		{Method: "DELETE", Path: "/pets/3", StatusCode: 204, DurationMs: 1, Timestamp: now},
	})

	endpoints, err := s.GetTopEndpoints(context.Background(), 2)
	if err != nil {
		t.Fatalf("GetTopEndpoints() error = %v", err)
	}
	if len(endpoints) != 2 {
		t.Fatalf("got %d endpoints, want 2", len(endpoints))
	}
	if endpoints[0].Path != "/pets" || endpoints[0].Count != 3 || endpoints[0].AvgMs != 20 {
		t.Errorf("endpoints[0] = %+v, want /pets x3 avg 20", endpoints[0])
	}
	if endpoints[1].Path != "/recommendations" || endpoints[1].Count != 2 {
		t.Errorf("endpoints[1] = %+v, want /recommendations x2", endpoints[1])
	}
}

func insertLogs(t *testing.T, s *Store, logs []*RequestLog) {
	t.Helper()
	for _, log := range logs {
		_, err := s.db.Exec(`
			INSERT INTO request_logs (resource, action, method, path, status_code, duration_ms, error, timestamp)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, log.Resource, log.Action, log.Method, log.Path, log.StatusCode, log.DurationMs, log.Error,
			log.Timestamp.Format("2006-01-02 15:04:05.000"))
		if err != nil {
			t.Fatalf("Failed to insert test log: %v", err)
		}
	}
}

// setupTestDB opens a file-backed database so every pooled connection sees the same data
func setupTestDB(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "reco.db"))
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}
