// ABOUTME: HTTP handlers for the console UI pages.
// ABOUTME: Binds submitted forms to sessions, dispatches actions and serves state, events and logs.

package admin

import (
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	apierrors "github.com/2389/reco/internal/errors"
	"github.com/2389/reco/internal/console"
	"github.com/2389/reco/internal/form"
	"github.com/2389/reco/internal/store"
)

type Handlers struct {
	console *console.Console
	store   *store.Store
	hub     *Hub
	log     *zap.SugaredLogger
}

// NewHandlers wires the console UI. store and hub may be nil.
func NewHandlers(c *console.Console, s *store.Store, hub *Hub, log *zap.SugaredLogger) *Handlers {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Handlers{console: c, store: s, hub: hub, log: log.Named("admin")}
}

func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Route("/console", func(r chi.Router) {
		r.Get("/", h.index)
		r.Get("/logs", h.logsList)
		r.Get("/{resource}", h.page)
		r.Post("/{resource}", h.submit)
		r.Get("/{resource}/state", h.state)
		r.Get("/{resource}/events", h.events)
	})
}

func (h *Handlers) index(w http.ResponseWriter, r *http.Request) {
	names := h.console.Names()
	if len(names) == 0 {
		http.Error(w, "no resources registered", http.StatusNotFound)
		return
	}
	http.Redirect(w, r, "/console/"+names[0], http.StatusFound)
}

func (h *Handlers) controller(w http.ResponseWriter, r *http.Request) (*console.Controller, bool) {
	ctrl, err := h.console.Controller(chi.URLParam(r, "resource"))
	if err != nil {
		apierrors.WriteError(w, http.StatusNotFound, apierrors.ErrNotFound, err.Error())
		return nil, false
	}
	return ctrl, true
}

func (h *Handlers) page(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.controller(w, r)
	if !ok {
		return
	}
	schema := ctrl.Schema()
	snap := ctrl.Session().Snapshot()

	w.Header().Set("Content-Type", "text/html")
	err := renderPage(w, "console", map[string]any{
		"Title":     schema.Name,
		"Resources": h.console.Names(),
		"Current":   ctrl.Name(),
		"Flash":     snap.Flash,
		"Form":      template.HTML(RenderResourceForm(schema, snap.State)),
		"Actions":   template.HTML(RenderActions(schema.Actions)),
		"Results":   template.HTML(snap.Results),
	})
	if err != nil {
		h.log.Errorw("failed to render console page", "resource", ctrl.Name(), "error", err)
	}
}

// submit takes the posted inputs as the new form state, runs the chosen action and redirects back
func (h *Handlers) submit(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.controller(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		apierrors.WriteError(w, http.StatusBadRequest, apierrors.ErrInvalidBody, "Invalid form body")
		return
	}

	action := r.PostForm.Get("action")
	if action == "" {
		apierrors.WriteError(w, http.StatusBadRequest, apierrors.ErrMissingField, "action is required")
		return
	}
	if _, ok := ctrl.Schema().Action(action); !ok {
		apierrors.WriteError(w, http.StatusBadRequest, apierrors.ErrInvalidRequest, "unknown action: "+action)
		return
	}

	values := make(map[string]string)
	for _, field := range ctrl.Schema().Fields {
		if _, present := r.PostForm[field.Selector]; present {
			values[field.Selector] = r.PostForm.Get(field.Selector)
		}
	}
	ctrl.Session().SetState(form.Restrict(ctrl.Schema(), form.NewState(values)))

	if err := ctrl.Run(r.Context(), action); err != nil {
		if errors.Is(err, console.ErrUnknownAction) {
			apierrors.WriteError(w, http.StatusBadRequest, apierrors.ErrInvalidRequest, err.Error())
			return
		}
		apierrors.WriteError(w, http.StatusInternalServerError, apierrors.ErrInternal, err.Error())
		return
	}

	http.Redirect(w, r, "/console/"+ctrl.Name(), http.StatusSeeOther)
}

// StateResponse is the JSON view of a console session
type StateResponse struct {
	Resource   string            `json:"resource"`
	State      map[string]string `json:"state"`
	Flash      string            `json:"flash"`
	Results    string            `json:"results"`
	Generation uint64            `json:"generation"`
}

func (h *Handlers) state(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.controller(w, r)
	if !ok {
		return
	}
	snap := ctrl.Session().Snapshot()
	writeJSON(w, StateResponse{
		Resource:   ctrl.Name(),
		State:      snap.State.Values(),
		Flash:      snap.Flash,
		Results:    snap.Results,
		Generation: snap.Generation,
	})
}

func (h *Handlers) events(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.controller(w, r)
	if !ok {
		return
	}
	if h.hub == nil {
		apierrors.WriteError(w, http.StatusNotFound, apierrors.ErrNotFound, "event stream is disabled")
		return
	}
	h.hub.Serve(w, r, ctrl.Name())
}

func (h *Handlers) logsList(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{
		"Title":     "Logs",
		"Resources": h.console.Names(),
		"Current":   "logs",
		"Enabled":   h.store != nil,
	}

	if h.store != nil {
		query := &store.RequestLogQuery{
			Limit:      100,
			Resource:   r.URL.Query().Get("resource"),
			Action:     r.URL.Query().Get("action"),
			Method:     r.URL.Query().Get("method"),
			PathPrefix: r.URL.Query().Get("path"),
			FailedOnly: r.URL.Query().Get("failed") == "true",
		}
		if sc, err := strconv.Atoi(r.URL.Query().Get("status")); err == nil {
			query.StatusCode = sc
		}

		logs, err := h.store.GetRequestLogs(r.Context(), query)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		for _, log := range logs {
			log.RequestBody = prettyJSON(log.RequestBody)
			log.ResponseBody = prettyJSON(log.ResponseBody)
		}

		stats, err := h.store.GetRequestLogStats(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		topEndpoints, err := h.store.GetTopEndpoints(r.Context(), 10)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		data["Logs"] = logs
		data["Stats"] = stats
		data["TopEndpoints"] = topEndpoints
		data["SelectedResource"] = query.Resource
		data["PathPrefix"] = query.PathPrefix
		data["FailedOnly"] = query.FailedOnly
	}

	w.Header().Set("Content-Type", "text/html")
	if err := renderPage(w, "logs", data); err != nil {
		h.log.Errorw("failed to render logs page", "error", err)
	}
}

// prettyJSON formats JSON with indentation, or returns original string if not valid JSON
func prettyJSON(s string) string {
	if s == "" {
		return s
	}
	var obj any
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return s
	}
	formatted, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		return s
	}
	return string(formatted)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
