// ABOUTME: In-memory REST backend for exercising the console against real HTTP.
// ABOUTME: Serves CRUD, search and sub-action routes for any registered resource schema.

package apitest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/2389/reco/internal/errors"
	"github.com/2389/reco/plugins/core"
)

// Request is one call the backend received
type Request struct {
	Method string
	Path   string // includes the raw query
	Body   string
}

type failure struct {
	status  int
	message string
}

// Server holds records per collection and optional forced failures
type Server struct {
	mu       sync.Mutex
	schemas  map[string]core.ResourceSchema
	records  map[string]map[int64]core.Record
	nextID   map[string]int64
	failures map[string]failure
	requests []Request
	router   chi.Router
}

// New builds a backend serving the given schemas
func New(schemas ...core.ResourceSchema) *Server {
	s := &Server{
		schemas:  make(map[string]core.ResourceSchema),
		records:  make(map[string]map[int64]core.Record),
		nextID:   make(map[string]int64),
		failures: make(map[string]failure),
	}

	r := chi.NewRouter()
	r.Use(s.recordRequest)
	r.Use(s.injectFailure)
	for _, schema := range schemas {
		s.schemas[schema.Slug] = schema
		s.records[schema.Slug] = make(map[int64]core.Record)
		s.nextID[schema.Slug] = 1
		s.registerRoutes(r, schema)
	}
	s.router = r
	return s
}

// Start serves the backend on a loopback listener; callers must Close it
func (s *Server) Start() *httptest.Server {
	return httptest.NewServer(s)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) registerRoutes(r chi.Router, schema core.ResourceSchema) {
	slug := schema.Slug
	r.Route(schema.CollectionPath(), func(r chi.Router) {
		r.Get("/", s.list(slug))
		r.Post("/", s.create(slug))
		r.Get("/{id}", s.get(slug))
		r.Put("/{id}", s.update(slug, nil))
		r.Delete("/{id}", s.remove(slug))

		for _, action := range schema.Actions {
			if action.HTTPMethod == "" || len(action.Fields) == 0 {
				continue
			}
			r.Method(action.HTTPMethod, action.Endpoint, s.update(slug, action.Fields))
		}
	})
}

// Fail makes the next and all later requests for method and path fail.
// An empty message produces a body without a message field.
func (s *Server) Fail(method, path string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = failure{status: status, message: message}
}

// Put stores a record under its "id" (assigning one when missing) and returns it
func (s *Server) Put(slug string, record core.Record) core.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.put(slug, record)
}

// Record returns a copy of the stored record
func (s *Server) Record(slug string, id int64) (core.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[slug][id]
	if !ok {
		return nil, false
	}
	return copyRecord(rec), true
}

// Requests returns every request received so far
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

func (s *Server) put(slug string, record core.Record) core.Record {
	rec := copyRecord(record)
	id, ok := asID(rec["id"])
	if !ok {
		id = s.nextID[slug]
	}
	if id >= s.nextID[slug] {
		s.nextID[slug] = id + 1
	}
	rec["id"] = id
	s.records[slug][id] = rec
	return copyRecord(rec)
}

func (s *Server) recordRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			body, _ = io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewReader(body))
		}
		s.mu.Lock()
		s.requests = append(s.requests, Request{Method: r.Method, Path: r.URL.RequestURI(), Body: string(body)})
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) injectFailure(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		f, ok := s.failures[r.Method+" "+r.URL.Path]
		s.mu.Unlock()
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		if f.message == "" {
			w.WriteHeader(f.status)
			io.WriteString(w, http.StatusText(f.status))
			return
		}
		apierrors.WriteError(w, f.status, apierrors.ErrInternal, f.message)
	})
}

func (s *Server) list(slug string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		s.mu.Lock()
		ids := make([]int64, 0, len(s.records[slug]))
		for id := range s.records[slug] {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

		results := make([]core.Record, 0, len(ids))
		for _, id := range ids {
			rec := s.records[slug][id]
			if matches(rec, query) {
				results = append(results, copyRecord(rec))
			}
		}
		s.mu.Unlock()

		writeJSON(w, http.StatusOK, results)
	}
}

func (s *Server) create(slug string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, ok := decodeBody(w, r)
		if !ok {
			return
		}
		delete(payload, "id")
		stampDates(s.schemas[slug], payload, true)

		s.mu.Lock()
		rec := s.put(slug, payload)
		s.mu.Unlock()

		writeJSON(w, http.StatusCreated, rec)
	}
}

func (s *Server) get(slug string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.lookupID(w, r, slug)
		if !ok {
			return
		}
		s.mu.Lock()
		rec := copyRecord(s.records[slug][id])
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, rec)
	}
}

// update merges the payload into the record; fields limits the merge for sub-actions
func (s *Server) update(slug string, fields []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.lookupID(w, r, slug)
		if !ok {
			return
		}
		payload, ok := decodeBody(w, r)
		if !ok {
			return
		}

		s.mu.Lock()
		rec := s.records[slug][id]
		for k, v := range payload {
			if k == "id" || (fields != nil && !contains(fields, k)) {
				continue
			}
			rec[k] = v
		}
		stampDates(s.schemas[slug], rec, false)
		out := copyRecord(rec)
		s.mu.Unlock()

		writeJSON(w, http.StatusOK, out)
	}
}

func (s *Server) remove(slug string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err == nil {
			s.mu.Lock()
			delete(s.records[slug], id)
			s.mu.Unlock()
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) lookupID(w http.ResponseWriter, r *http.Request, slug string) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err == nil {
		s.mu.Lock()
		_, found := s.records[slug][id]
		s.mu.Unlock()
		if found {
			return id, true
		}
	}
	name := s.schemas[slug].Name
	apierrors.WriteError(w, http.StatusNotFound, apierrors.ErrNotFound,
		fmt.Sprintf("%s with id '%s' was not found.", name, raw))
	return 0, false
}

func decodeBody(w http.ResponseWriter, r *http.Request) (core.Record, bool) {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		apierrors.WriteError(w, http.StatusUnsupportedMediaType, apierrors.ErrUnsupportedMedia,
			"Content-Type must be application/json")
		return nil, false
	}
	var payload core.Record
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		apierrors.WriteError(w, http.StatusBadRequest, apierrors.ErrInvalidBody, "Invalid request body")
		return nil, false
	}
	return payload, true
}

// stampDates fills create_date/update_date when the schema declares them
func stampDates(schema core.ResourceSchema, rec core.Record, created bool) {
	today := time.Now().UTC().Format("2006-01-02")
	if _, ok := schema.Field("create_date"); ok && created {
		rec["create_date"] = today
	}
	if _, ok := schema.Field("update_date"); ok {
		rec["update_date"] = today
	}
}

func matches(rec core.Record, query map[string][]string) bool {
	for key, values := range query {
		if len(values) == 0 {
			continue
		}
		if core.FormatValue(rec[key]) != values[0] {
			return false
		}
	}
	return true
}

func asID(v any) (int64, bool) {
	switch id := v.(type) {
	case int:
		return int64(id), true
	case int64:
		return id, true
	case json.Number:
		n, err := id.Int64()
		return n, err == nil
	case string:
		n, err := strconv.ParseInt(id, 10, 64)
		return n, err == nil
	}
	return 0, false
}

func copyRecord(rec core.Record) core.Record {
	out := make(core.Record, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
