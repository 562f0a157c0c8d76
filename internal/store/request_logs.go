// ABOUTME: Outbound request log storage operations.
// ABOUTME: Records every console request to the REST API and queries them for the logs page.

package store

import (
	"context"
	"time"
)

// RequestLog is one request the console sent to the API
type RequestLog struct {
	ID           int64
	Timestamp    time.Time
	Resource     string
	Action       string
	RequestID    string
	Method       string
	Path         string
	StatusCode   int
	DurationMs   int
	Error        string
	RequestBody  string
	ResponseBody string
}

// LogRequest inserts a request log entry
func (s *Store) LogRequest(ctx context.Context, log *RequestLog) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO request_logs (resource, action, request_id, method, path, status_code, duration_ms, error, request_body, response_body)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, log.Resource, log.Action, log.RequestID, log.Method, log.Path, log.StatusCode, log.DurationMs, log.Error, log.RequestBody, log.ResponseBody)
	return err
}

// RequestLogQuery represents filters for request logs
type RequestLogQuery struct {
	Limit      int
	Offset     int
	Resource   string
	Action     string
	Method     string
	PathPrefix string
	StatusCode int
	FailedOnly bool
}

// RequestLogStats represents aggregate statistics
type RequestLogStats struct {
	TotalRequests   int
	TodayRequests   int
	ErrorRequests   int
	AvgDurationMs   int
	UniqueEndpoints int
}

const requestLogColumns = `id, timestamp, COALESCE(resource, ''), COALESCE(action, ''), COALESCE(request_id, ''),
	method, path, COALESCE(status_code, 0), COALESCE(duration_ms, 0), COALESCE(error, ''),
	COALESCE(request_body, ''), COALESCE(response_body, '')`

// GetRequestLogs retrieves request logs with filtering, newest first
func (s *Store) GetRequestLogs(ctx context.Context, q *RequestLogQuery) ([]*RequestLog, error) {
	query := `SELECT ` + requestLogColumns + ` FROM request_logs WHERE 1=1`
	args := []any{}

	if q.Resource != "" {
		query += " AND resource = ?"
		args = append(args, q.Resource)
	}
	if q.Action != "" {
		query += " AND action = ?"
		args = append(args, q.Action)
	}
	if q.Method != "" {
		query += " AND method = ?"
		args = append(args, q.Method)
	}
	if q.PathPrefix != "" {
		query += ` AND path LIKE ? ESCAPE '\'`
		args = append(args, escapeSQLLike(q.PathPrefix)+"%")
	}
	if q.StatusCode > 0 {
		query += " AND status_code = ?"
		args = append(args, q.StatusCode)
	}
	if q.FailedOnly {
		query += " AND (status_code >= 400 OR status_code = 0)"
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 50
	}
	query += " ORDER BY timestamp DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, limit, q.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*RequestLog
	for rows.Next() {
		log := &RequestLog{}
		var timestamp string
		if err := rows.Scan(&log.ID, &timestamp, &log.Resource, &log.Action, &log.RequestID,
			&log.Method, &log.Path, &log.StatusCode, &log.DurationMs, &log.Error,
			&log.RequestBody, &log.ResponseBody); err != nil {
			return nil, err
		}
		log.Timestamp = parseTimestamp(timestamp)
		logs = append(logs, log)
	}
	return logs, rows.Err()
}

// GetRequestLogStats returns aggregate statistics
func (s *Store) GetRequestLogStats(ctx context.Context) (*RequestLogStats, error) {
	stats := &RequestLogStats{}
	today := time.Now().UTC().Format("2006-01-02")

	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN date(timestamp) = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status_code >= 400 OR status_code = 0 THEN 1 ELSE 0 END), 0),
			COALESCE(CAST(AVG(duration_ms) AS INTEGER), 0),
			COUNT(DISTINCT path)
		FROM request_logs
	`, today).Scan(&stats.TotalRequests, &stats.TodayRequests, &stats.ErrorRequests,
		&stats.AvgDurationMs, &stats.UniqueEndpoints)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// EndpointCount is a path with its request count and mean latency
type EndpointCount struct {
	Path  string
	Count int
	AvgMs int
}

// GetTopEndpoints returns the most frequently requested endpoints
func (s *Store) GetTopEndpoints(ctx context.Context, limit int) ([]EndpointCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT path, COUNT(*) AS count, AVG(duration_ms) AS avg_ms
		FROM request_logs
		GROUP BY path
		ORDER BY count DESC, path ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var endpoints []EndpointCount
	for rows.Next() {
		var e EndpointCount
		var avgMs float64
		if err := rows.Scan(&e.Path, &e.Count, &avgMs); err != nil {
			return nil, err
		}
		e.AvgMs = int(avgMs)
		endpoints = append(endpoints, e)
	}
	return endpoints, rows.Err()
}

// parseTimestamp accepts both SQLite's CURRENT_TIMESTAMP text and RFC 3339
func parseTimestamp(value string) time.Time {
	for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339Nano, "2006-01-02 15:04:05.999999999-07:00"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
