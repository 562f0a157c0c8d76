// ABOUTME: Entry point for the reco admin console.
// ABOUTME: Wires config, request log, REST client and console controllers behind cobra commands.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/2389/reco/internal/admin"
	"github.com/2389/reco/internal/client"
	"github.com/2389/reco/internal/config"
	"github.com/2389/reco/internal/console"
	"github.com/2389/reco/internal/logger"
	"github.com/2389/reco/internal/logging"
	"github.com/2389/reco/internal/seed"
	"github.com/2389/reco/internal/store"
	"github.com/2389/reco/plugins/core"
	_ "github.com/2389/reco/plugins/pets"            // Register pets resource
	_ "github.com/2389/reco/plugins/recommendations" // Register recommendations resource
)

var v = config.New()

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "reco",
		Short: "reco - schema-driven admin console for REST resources",
		Long: `reco is an admin console for REST resource APIs.

Each resource kind (pets, recommendations) is described by a schema: its
form fields, search filters, result columns and actions. reco binds the
form to request payloads, sends them to the API and shows the outcome.

Actions:
  create, update, retrieve, delete, search, clear, sample
  plus resource sub-actions such as "rate" on recommendations

Quick Start:
  reco serve                                   # Web console on port 9000
  reco do pets create --set name=Rex           # One-shot action
  reco shell recommendations                   # Interactive terminal console
  reco logs                                    # Recent API requests`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config.LoadDotEnv()
			return config.BindFlags(v, cmd)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.String("api-url", config.DefaultAPIURL, "Base URL of the REST API")
	pf.StringP("db", "d", "", "Request log database path (default: XDG data dir)")
	pf.Bool("no-log", false, "Do not record outbound requests")
	pf.Bool("unify-errors", false, "Show server messages for delete failures too")
	pf.String("log-level", "info", "Log level (debug, info, warn, error)")
	pf.Bool("log-dev", false, "Human-readable colored logs")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the console web server",
		Long: `Start the reco web console on the specified port.

The server provides:
  • One console page per resource at http://localhost:PORT/console/{resource}
  • Live flash messages over a websocket at /console/{resource}/events
  • Outbound request log at http://localhost:PORT/console/logs
  • Health check at http://localhost:PORT/healthz

Environment Variables:
  RECO_API_URL        REST API base URL (default: http://localhost:8080)
  RECO_PORT           Server port (default: 9000)
  RECO_DB             Request log database path
  RECO_DISCARD_STALE  Drop completions superseded by a newer action
  OPENAI_API_KEY      Enable AI-generated sample records`,
		RunE: runServe,
	}
	serveCmd.Flags().StringP("port", "p", config.DefaultPort, "Port to listen on")
	serveCmd.Flags().Bool("discard-stale", false, "Ignore results of actions overtaken by a newer one")

	rootCmd.AddCommand(serveCmd, newDoCmd(), newShellCmd(), newResourcesCmd(), newLogsCmd())
	return rootCmd
}

// app holds the components shared by every command
type app struct {
	cfg       config.Config
	log       *zap.SugaredLogger
	store     *store.Store
	transport *logging.Transport
	hub       *admin.Hub
	console   *console.Console
}

// newApp builds the console for cfg. notifier receives flash events in
// addition to the websocket hub and may be nil.
func newApp(cfg config.Config, log *zap.SugaredLogger, notifier console.Notifier) (*app, error) {
	a := &app{cfg: cfg, log: log}

	var recorder logging.Recorder
	if cfg.DBPath != "" {
		s, err := store.New(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open request log: %w", err)
		}
		a.store = s
		recorder = s
	}
	a.transport = logging.NewTransport(nil, recorder, log)

	httpClient := &http.Client{Transport: a.transport}
	a.hub = admin.NewHub(log)

	generator := seed.NewGenerator(seed.Config{
		APIKey:  cfg.OpenAIKey,
		Model:   cfg.OpenAIModel,
		BaseURL: cfg.OpenAIURL,
		Logger:  log,
	})

	a.console = console.NewConsole(core.All(), console.Options{
		Client:      client.New(cfg.APIURL, httpClient),
		Notifier:    console.MultiNotifier{a.hub, notifier},
		Render:      admin.RenderSchemaResults,
		Sampler:     generator,
		Logger:      log,
		UnifyErrors: cfg.UnifyErrors,
	}, cfg.DiscardStale)

	return a, nil
}

// Close waits for pending request log writes and closes the store
func (a *app) Close() {
	a.transport.Wait()
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warnw("failed to close request log", "error", err)
		}
	}
	a.log.Sync()
}

// loadApp resolves configuration and builds the app for a command run
func loadApp(notifier console.Notifier) (*app, error) {
	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return newApp(cfg, log, notifier)
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := loadApp(nil)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           newServer(a),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		a.log.Infow("reco console listening", "addr", srv.Addr, "api", a.cfg.APIURL, "request_log", a.cfg.DBPath)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	a.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newServer(a *app) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"ok": true})
	})

	// Favicon
	r.Get("/favicon.ico", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/console/", http.StatusFound)
	})

	admin.NewHandlers(a.console, a.store, a.hub, a.log).RegisterRoutes(r)

	return r
}
