package server

import (
	"context"
	"net/http"
	"sync/atomic"

	jsoniter "github.com/json-iterator/go"
	"github.com/maxbolgarin/erro"
	"github.com/maxbolgarin/logze/v2"
	"github.com/maxbolgarin/perftrend/internal/model"
	"github.com/maxbolgarin/perftrend/internal/report"
	"github.com/maxbolgarin/servex/v2"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Refresher rebuilds the snapshot
type Refresher func(ctx context.Context) error

// Server serves the latest snapshot as a JSON API
type Server struct {
	store   *report.Store
	metrics http.Handler
	refresh Refresher
	config  Config
	log     logze.Logger
	server  *servex.Server

	refreshing atomic.Bool
	baseCtx    atomic.Pointer[context.Context]
}

// New creates an API server. metrics and refresh may be nil, the refresh
// webhook is registered only with a refresher.
func New(cfg Config, store *report.Store, metrics http.Handler, refresh Refresher) (*Server, error) {
	if err := cfg.PrepareAndValidate(); err != nil {
		return nil, erro.Wrap(err, "validate config")
	}
	if store == nil {
		return nil, erro.New("snapshot store is required")
	}

	log := logze.With("module", "server")

	server, err := servex.NewServer(
		servex.WithReadTimeout(cfg.Timeout),
		servex.WithIdleTimeout(cfg.Timeout*2),
		servex.WithLogger(log),
		servex.WithHealthEndpoint(),
		servex.WithCertificate(cfg.Certificate),
	)
	if err != nil {
		return nil, erro.Wrap(err, "failed to create server")
	}

	h := &Server{
		store:   store,
		metrics: metrics,
		refresh: refresh,
		config:  cfg,
		log:     log,
		server:  server,
	}

	server.HandleFunc("/api/snapshot", h.handleSnapshot)
	server.HandleFunc("/api/sets", h.handleSets)
	server.HandleFunc("/api/set", h.handleSet)
	server.HandleFunc("/api/aggregate", h.handleAggregate)
	if metrics != nil {
		server.HandleFunc(cfg.MetricsPath, metrics.ServeHTTP)
	}
	if refresh != nil {
		server.HandleFunc(cfg.WebhookEndpoint, h.handleWebhook)
	}

	return h, nil
}

// Start starts listening on the configured address
func (h *Server) Start(ctx context.Context) error {
	h.baseCtx.Store(&ctx)
	h.log.Info("starting server", "address", h.config.Address, "https", h.config.EnableHTTPS)
	if h.config.EnableHTTPS {
		return h.server.StartHTTPS(h.config.Address)
	}
	return h.server.StartHTTP(h.config.Address)
}

// Stop stops the server
func (h *Server) Stop(ctx context.Context) error {
	return h.server.Shutdown(ctx)
}

type setSummary struct {
	Name    string       `json:"name"`
	Format  model.Format `json:"format,omitempty"`
	Error   string       `json:"error,omitempty"`
	Present int          `json:"present"`
	Missing int          `json:"missing"`
	Failed  int          `json:"failed"`
}

type aggregateResponse struct {
	RunID             string            `json:"run_id"`
	TotalElapsed      report.Chart      `json:"total_elapsed"`
	AverageOutputSize report.Chart      `json:"average_bytecode_size"`
	Aggregates        []model.Aggregate `json:"aggregates"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snapshot, ok := h.loadSnapshot(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, r, http.StatusOK, snapshot)
}

func (h *Server) handleSets(w http.ResponseWriter, r *http.Request) {
	snapshot, ok := h.loadSnapshot(w, r)
	if !ok {
		return
	}

	out := make([]setSummary, 0, len(snapshot.Sets))
	for _, set := range snapshot.Sets {
		out = append(out, setSummary{
			Name:    set.Name,
			Format:  set.Format,
			Error:   set.Error,
			Present: set.Present,
			Missing: len(set.Missing),
			Failed:  len(set.Failed),
		})
	}
	h.writeJSON(w, r, http.StatusOK, out)
}

func (h *Server) handleSet(w http.ResponseWriter, r *http.Request) {
	snapshot, ok := h.loadSnapshot(w, r)
	if !ok {
		return
	}

	name := r.URL.Query().Get("name")
	if name == "" {
		h.writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: "name query parameter is required"})
		return
	}
	set, ok := snapshot.Set(name)
	if !ok {
		h.writeJSON(w, r, http.StatusNotFound, errorResponse{Error: "unknown set: " + name})
		return
	}
	h.writeJSON(w, r, http.StatusOK, set)
}

func (h *Server) handleAggregate(w http.ResponseWriter, r *http.Request) {
	snapshot, ok := h.loadSnapshot(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, r, http.StatusOK, aggregateResponse{
		RunID:             snapshot.RunID,
		TotalElapsed:      snapshot.TotalElapsed,
		AverageOutputSize: snapshot.AverageOutputSize,
		Aggregates:        snapshot.Aggregates,
	})
}

func (h *Server) loadSnapshot(w http.ResponseWriter, r *http.Request) (*report.Snapshot, bool) {
	if r.Method != http.MethodGet {
		h.writeJSON(w, r, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return nil, false
	}
	snapshot := h.store.Load()
	if snapshot == nil {
		h.writeJSON(w, r, http.StatusServiceUnavailable, errorResponse{Error: "no snapshot yet"})
		return nil, false
	}
	return snapshot, true
}

func (h *Server) writeJSON(w http.ResponseWriter, r *http.Request, code int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		servex.NewContext(w, r).InternalServerError(err, "failed to encode response")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(data); err != nil {
		h.log.Debug("failed to write response", "error", err)
	}
}
