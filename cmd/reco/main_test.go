// ABOUTME: Tests for CLI commands and server wiring.
// ABOUTME: Verifies health check, console routing and the do/resources/logs commands end to end.

package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/2389/reco/internal/apitest"
	"github.com/2389/reco/internal/config"
	"github.com/2389/reco/internal/logger"
	"github.com/2389/reco/plugins/core"
	"github.com/2389/reco/plugins/pets"
	"github.com/2389/reco/plugins/recommendations"
)

func startBackend(t *testing.T) (*apitest.Server, string) {
	t.Helper()
	backend := apitest.New((&pets.PetsPlugin{}).Schema(), (&recommendations.RecommendationsPlugin{}).Schema())
	srv := backend.Start()
	t.Cleanup(srv.Close)
	return backend, srv.URL
}

// execute runs the CLI with fresh configuration and returns its output
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	old := v
	v = config.New()
	t.Cleanup(func() { v = old })
	t.Setenv("OPENAI_API_KEY", "")

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

// field returns the value printed for a form field line such as "ID:   7"
func field(output, display string) (string, bool) {
	for _, line := range strings.Split(output, "\n") {
		if rest, ok := strings.CutPrefix(line, display+":"); ok {
			return strings.TrimSpace(rest), true
		}
	}
	return "", false
}

func TestServer_Healthz(t *testing.T) {
	_, apiURL := startBackend(t)
	a, err := newApp(config.Config{APIURL: apiURL, DBPath: filepath.Join(t.TempDir(), "reco.db")}, logger.Nop(), nil)
	if err != nil {
		t.Fatalf("newApp() error = %v", err)
	}
	defer a.Close()

	req := httptest.NewRequest("GET", "/healthz", nil)
	rr := httptest.NewRecorder()
	newServer(a).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	var resp map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json.Unmarshal() error = %v, response body: %s", err, rr.Body.String())
	}
	if resp["ok"] != true {
		t.Errorf("ok = %v, want true", resp["ok"])
	}
}

func TestServer_RoutesConsole(t *testing.T) {
	backend, apiURL := startBackend(t)
	a, err := newApp(config.Config{APIURL: apiURL}, logger.Nop(), nil)
	if err != nil {
		t.Fatalf("newApp() error = %v", err)
	}
	defer a.Close()
	srv := newServer(a)

	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))
	if rr.Code != http.StatusFound || rr.Header().Get("Location") != "/console/" {
		t.Errorf("GET / = %d %q, want redirect to /console/", rr.Code, rr.Header().Get("Location"))
	}

	rr = httptest.NewRecorder()
	srv.ServeHTTP(rr, httptest.NewRequest("GET", "/console/pets", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("GET /console/pets = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `id="pet_name"`) {
		t.Error("pets page is missing the name input")
	}
	if got := len(backend.Requests()); got != 0 {
		t.Errorf("rendering a page sent %d API requests", got)
	}
}

func TestDoCreate(t *testing.T) {
	backend, apiURL := startBackend(t)

	out, err := execute(t, "do", "pets", "create", "--api-url", apiURL, "--no-log",
		"--set", "name=Rex", "--set", "pet_available=true")
	if err != nil {
		t.Fatalf("do error = %v\n%s", err, out)
	}

	if !strings.Contains(out, "Flash: Success") {
		t.Errorf("output missing success flash:\n%s", out)
	}
	if id, _ := field(out, "ID"); id != "1" {
		t.Errorf("ID = %q, want 1\n%s", id, out)
	}
	if rec, ok := backend.Record("pets", 1); !ok || rec["name"] != "Rex" {
		t.Errorf("backend record = %v", rec)
	}
}

func TestDoSearchPrintsResults(t *testing.T) {
	backend, apiURL := startBackend(t)
	backend.Put("recommendations", core.Record{"id": 1, "user_id": 42, "product_id": 9, "rating": 5, "recommendation_type": "UPSELL"})
	backend.Put("recommendations", core.Record{"id": 2, "user_id": 7, "product_id": 3, "rating": 2, "recommendation_type": "TRENDING"})

	out, err := execute(t, "do", "recommendations", "search", "--api-url", apiURL, "--no-log", "--set", "user_id=42")
	if err != nil {
		t.Fatalf("do error = %v\n%s", err, out)
	}
	if !strings.Contains(out, "Results (1):") {
		t.Errorf("expected one result row:\n%s", out)
	}
	if rating, _ := field(out, "Rating"); rating != "5" {
		t.Errorf("Rating = %q, want the first result applied", rating)
	}
	if !strings.Contains(out, "UPSELL") || strings.Contains(out, "TRENDING") {
		t.Errorf("results table does not match the filter:\n%s", out)
	}
}

func TestDoInvalidInputReportsFlash(t *testing.T) {
	backend, apiURL := startBackend(t)

	out, err := execute(t, "do", "pets", "retrieve", "--api-url", apiURL, "--no-log", "--set", "id=abc")
	if err != nil {
		t.Fatalf("do error = %v", err)
	}
	if !strings.Contains(out, "Flash: Invalid input: ID must be an integer") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if got := len(backend.Requests()); got != 0 {
		t.Errorf("backend saw %d requests, want 0", got)
	}
}

func TestDoErrors(t *testing.T) {
	_, apiURL := startBackend(t)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "unknown resource", args: []string{"do", "owners", "create"}, wantErr: "unknown resource"},
		{name: "unknown action", args: []string{"do", "pets", "explode"}, wantErr: "unknown action"},
		{name: "unknown field", args: []string{"do", "pets", "create", "--set", "colour=red"}, wantErr: `no field "colour"`},
		{name: "malformed set", args: []string{"do", "pets", "create", "--set", "name"}, wantErr: "want name=value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append(tt.args, "--api-url", apiURL, "--no-log")
			_, err := execute(t, args...)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestResourcesLists(t *testing.T) {
	out, err := execute(t, "resources")
	if err != nil {
		t.Fatalf("resources error = %v", err)
	}
	for _, want := range []string{"pets", "/recommendations", "rate"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestLogsShowsRecordedRequests(t *testing.T) {
	_, apiURL := startBackend(t)
	dbPath := filepath.Join(t.TempDir(), "requests.db")

	if out, err := execute(t, "do", "pets", "create", "--api-url", apiURL, "--db", dbPath, "--set", "name=Rex"); err != nil {
		t.Fatalf("do error = %v\n%s", err, out)
	}
	if out, err := execute(t, "do", "pets", "delete", "--api-url", apiURL, "--db", dbPath, "--set", "id=1"); err != nil {
		t.Fatalf("do error = %v\n%s", err, out)
	}

	out, err := execute(t, "logs", "--db", dbPath)
	if err != nil {
		t.Fatalf("logs error = %v", err)
	}
	for _, want := range []string{"POST", "DELETE", "/pets/1", "create", "Total: 2"} {
		if !strings.Contains(out, want) {
			t.Errorf("logs output missing %q:\n%s", want, out)
		}
	}
}

func TestLogsDisabled(t *testing.T) {
	_, err := execute(t, "logs", "--no-log")
	if err == nil || !strings.Contains(err.Error(), "disabled") {
		t.Errorf("error = %v, want request logging disabled", err)
	}
}

func TestTableRows(t *testing.T) {
	markup := `<table><thead><tr><th>ID</th><th>Name</th></tr></thead>` +
		`<tbody><tr id="row_0"><td>1</td><td>Rex &amp; Co</td></tr></tbody></table>`

	rows, err := tableRows(markup)
	if err != nil {
		t.Fatalf("tableRows() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %v", rows)
	}
	if rows[0][1] != "Name" || rows[1][1] != "Rex & Co" {
		t.Errorf("rows = %q", rows)
	}
}
