// Package server exposes table classification over HTTP.
//
// Routes:
//
//	POST /v1/classify       classify one table
//	POST /v1/aggregate      classify one table and summarize its numeric columns
//	POST /v1/documents      load an uploaded document and classify its tables
//	GET  /v1/tables         list stored tables (?source=name)
//	GET  /v1/tables/{id}    fetch a stored table
//	DELETE /v1/tables/{id}  remove a stored table
//	GET  /healthz
//
// The /v1/tables routes exist only when the service has a store.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/tsawler/tabsift/aggregate"
	"github.com/tsawler/tabsift/export"
	"github.com/tsawler/tabsift/model"
	"github.com/tsawler/tabsift/pipeline"
	"github.com/tsawler/tabsift/score"
	"github.com/tsawler/tabsift/source"
	"github.com/tsawler/tabsift/store"
)

// MaxBodyBytes limits request bodies.
const MaxBodyBytes = 32 << 20

// Service handles the HTTP API.
type Service struct {
	pipeline *pipeline.Pipeline
	store    *store.Store
	logger   *slog.Logger
}

// Option customises a Service.
type Option func(*Service)

// WithStore persists accepted tables and enables the /v1/tables routes.
func WithStore(s *store.Store) Option { return func(svc *Service) { svc.store = s } }

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option { return func(svc *Service) { svc.logger = l } }

// New creates a service that classifies with p.
func New(p *pipeline.Pipeline, opts ...Option) *Service {
	svc := &Service{pipeline: p, logger: slog.Default()}
	for _, o := range opts {
		o(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	return svc
}

// RegisterHTTP adds the API routes to r.
func (s *Service) RegisterHTTP(r chi.Router) {
	r.Get("/healthz", s.handleHealth)
	r.Post("/v1/classify", s.handleClassify)
	r.Post("/v1/aggregate", s.handleAggregate)
	r.Post("/v1/documents", s.handleDocument)
	if s.store != nil {
		r.Get("/v1/tables", s.handleListTables)
		r.Get("/v1/tables/{id}", s.handleGetTable)
		r.Delete("/v1/tables/{id}", s.handleDeleteTable)
	}
}

// Handler returns a router with the API routes and the standard
// middleware: request ids, panic recovery and request logging.
func (s *Service) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	s.RegisterHTTP(r)
	return r
}

// ListenAndServe serves the API on addr until ctx is cancelled, then
// shuts down, giving in-flight requests up to ten seconds.
func (s *Service) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.logger.Info("server started", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

func (s *Service) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// TableRequest is the body of /v1/classify and /v1/aggregate.
type TableRequest struct {
	Rows   source.Cells        `json:"rows"`
	Merges []model.MergeRegion `json:"merges,omitempty"`
	Meta   model.Provenance    `json:"meta"`
}

// ClassifyResponse is returned for an accepted table.
type ClassifyResponse struct {
	ID       string          `json:"id,omitempty"`
	Table    export.Table    `json:"table"`
	Warnings []model.Warning `json:"warnings,omitempty"`
}

// RejectedResponse is returned with status 422 for a rejected table.
type RejectedResponse struct {
	Valid    bool            `json:"valid"`
	Score    float64         `json:"score"`
	Reason   string          `json:"reason,omitempty"`
	Warnings []model.Warning `json:"warnings,omitempty"`
}

// DocumentResponse is returned by /v1/documents.
type DocumentResponse struct {
	IDs []string `json:"ids,omitempty"`
	export.Document
	Stats pipeline.Stats `json:"stats"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// evaluate decodes a table request and runs it through the pipeline. It
// writes the error or rejection response itself and returns nil then.
func (s *Service) evaluate(w http.ResponseWriter, r *http.Request) (*model.ClassifiedTable, []model.Warning) {
	var req TableRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return nil, nil
	}
	if len(req.Rows) == 0 {
		writeError(w, http.StatusBadRequest, "rows required")
		return nil, nil
	}

	ct, res, warnings := s.pipeline.Evaluate(model.Candidate{
		Raw:    model.NewRawTable(req.Rows),
		Merges: req.Merges,
		Meta:   req.Meta,
	})
	if ct == nil {
		writeJSON(w, http.StatusUnprocessableEntity, rejected(res, warnings))
		return nil, nil
	}
	return ct, warnings
}

func rejected(res score.Result, warnings []model.Warning) RejectedResponse {
	return RejectedResponse{Valid: false, Score: res.Score, Reason: res.Reason, Warnings: warnings}
}

func (s *Service) handleClassify(w http.ResponseWriter, r *http.Request) {
	ct, warnings := s.evaluate(w, r)
	if ct == nil {
		return
	}
	resp := ClassifyResponse{Table: export.NewTable(ct), Warnings: warnings}
	if s.store != nil {
		id, err := s.store.SaveTable(r.Context(), ct)
		if err != nil {
			s.logger.Error("saving table", "error", err)
			writeError(w, http.StatusInternalServerError, "saving table failed")
			return
		}
		resp.ID = id
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Service) handleAggregate(w http.ResponseWriter, r *http.Request) {
	ct, _ := s.evaluate(w, r)
	if ct == nil {
		return
	}
	writeJSON(w, http.StatusOK, aggregate.Summarize(s.pipeline.Config(), ct))
}

func (s *Service) handleDocument(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		name = "upload"
	}
	body := http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	data, err := io.ReadAll(body)
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	}

	candidates, warnings, err := source.Read(name, data)
	if errors.Is(err, source.ErrUnsupported) {
		writeError(w, http.StatusUnsupportedMediaType, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tables, more, stats, err := s.pipeline.ProcessAllStats(r.Context(), candidates)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	resp := DocumentResponse{Document: export.NewDocument(tables), Stats: stats}
	resp.Warnings = append(warnings, more...)
	if r.URL.Query().Get("summary") != "" {
		resp.Summarize(s.pipeline.Config(), tables)
	}
	if s.store != nil {
		for _, ct := range tables {
			id, err := s.store.SaveTable(r.Context(), ct)
			if err != nil {
				s.logger.Error("saving table", "error", err)
				writeError(w, http.StatusInternalServerError, "saving table failed")
				return
			}
			resp.IDs = append(resp.IDs, id)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Service) handleListTables(w http.ResponseWriter, r *http.Request) {
	recs, err := s.store.ListTables(r.Context(), r.URL.Query().Get("source"))
	if err != nil {
		s.logger.Error("listing tables", "error", err)
		writeError(w, http.StatusInternalServerError, "listing tables failed")
		return
	}
	if recs == nil {
		recs = []store.Record{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Service) handleGetTable(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.GetTable(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		s.logger.Error("getting table", "error", err)
		writeError(w, http.StatusInternalServerError, "getting table failed")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Service) handleDeleteTable(w http.ResponseWriter, r *http.Request) {
	err := s.store.DeleteTable(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		s.logger.Error("deleting table", "error", err)
		writeError(w, http.StatusInternalServerError, "deleting table failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
