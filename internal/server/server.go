// Package server exposes the enrichment engine over HTTP: job
// submission, live progress via server-sent events, and result
// download. Table parsing and serialization live in internal/tabular;
// everything here is boundary glue.
package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/leadflow/internal/columns"
	"github.com/sells-group/leadflow/internal/jobs"
	"github.com/sells-group/leadflow/internal/model"
	"github.com/sells-group/leadflow/internal/tabular"
)

// maxUploadBytes bounds the submitted table size.
const maxUploadBytes = 32 << 20

// defaultKeepAlive is the SSE keep-alive interval; intermediaries drop
// idle connections well above this.
const defaultKeepAlive = 15 * time.Second

// Server handles the HTTP boundary around the job registry.
type Server struct {
	registry       *jobs.Registry
	overrides      model.ColumnMapping
	defaultKey     string
	allowedOrigins []string
	keepAlive      time.Duration
}

// Option configures the server.
type Option func(*Server)

// WithColumnOverrides installs a role→header mapping that pre-empts
// column detection for the roles it names.
func WithColumnOverrides(m model.ColumnMapping) Option {
	return func(s *Server) {
		s.overrides = m
	}
}

// WithDefaultCredential sets the provider key used when a submission
// carries none.
func WithDefaultCredential(key string) Option {
	return func(s *Server) {
		s.defaultKey = key
	}
}

// WithAllowedOrigins sets the CORS origin allowlist.
func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) {
		s.allowedOrigins = origins
	}
}

// New creates a server around the given registry.
func New(registry *jobs.Registry, opts ...Option) *Server {
	s := &Server{
		registry:       registry,
		allowedOrigins: []string{"*"},
		keepAlive:      defaultKeepAlive,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	}))

	r.Get("/health", s.handleHealth)
	r.Post("/api/jobs", s.handleSubmit)
	r.Get("/api/jobs/{id}/events", s.handleEvents)
	r.Get("/api/jobs/{id}/download", s.handleDownload)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleSubmit accepts a multipart CSV upload plus the provider
// credential and options, and creates a job. Schema and validation
// failures are rejected here and never create a job.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file upload")
		return
	}
	defer file.Close() //nolint:errcheck

	table, err := tabular.ParseCSV(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	mapping, err := columns.Resolve(table.Headers, s.overrides)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	credential := r.FormValue("api_key")
	if credential == "" {
		credential = s.defaultKey
	}
	opts := model.Options{SkipPhone: r.FormValue("skip_phone") == "true"}

	job, err := s.registry.Create(table.Rows, mapping, credential, opts)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"jobId":          job.ID,
		"totalRows":      len(table.Rows),
		"detectedColumn": mapping.CompanyURL,
	})
}

// handleEvents streams status snapshots as server-sent events. The
// current snapshot is sent first, then every update; a keep-alive
// comment goes out on an interval regardless of real progress. The
// stream ends when the client disconnects or after a terminal snapshot.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	job, ok := s.registry.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	subID, ch := job.Subscribe()
	defer job.Unsubscribe(subID)

	ticker := time.NewTicker(s.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		case snap := <-ch:
			data, err := json.Marshal(snap)
			if err != nil {
				zap.L().Error("marshal snapshot", zap.Error(err))
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
			if snap.Phase.Terminal() {
				return
			}
		}
	}
}

// handleDownload serves the result table once the job is done.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	job, ok := s.registry.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}

	results, ready := job.Results()
	if !ready {
		writeError(w, http.StatusConflict, "job not ready")
		return
	}

	switch r.URL.Query().Get("format") {
	case "xlsx":
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "enriched-"+job.ID+".xlsx"))
		if err := tabular.WriteXLSX(w, results); err != nil {
			zap.L().Error("write xlsx download", zap.String("job_id", job.ID), zap.Error(err))
		}
	default:
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "enriched-"+job.ID+".csv"))
		if err := tabular.WriteCSV(w, results); err != nil {
			zap.L().Error("write csv download", zap.String("job_id", job.ID), zap.Error(err))
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
