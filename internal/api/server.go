// Package api serves stored analysis runs over HTTP: JSON for runs and
// their trials, and the echarts summary page per run.
package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/banshee-data/gaze.report/internal/gaze/storage/sqlite"
	"github.com/banshee-data/gaze.report/internal/httputil"
	"github.com/banshee-data/gaze.report/internal/report"
	"github.com/rs/zerolog/log"
)

const (
	defaultRunLimit = 50
	maxRunLimit     = 1000
)

// Server answers read-only queries against a RunStore.
type Server struct {
	store *sqlite.RunStore
}

// NewServer creates a Server over store.
func NewServer(store *sqlite.RunStore) *Server {
	return &Server{store: store}
}

// ServeMux returns the routes of the results API.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.health)
	mux.HandleFunc("/api/runs", s.listRuns)
	mux.HandleFunc("/api/runs/{id}", s.showRun)
	mux.HandleFunc("/api/runs/{id}/trials", s.listTrials)
	mux.HandleFunc("/runs/{id}/summary", s.summaryPage)
	return mux
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware logs method, path, status and duration of every
// request.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		ev := log.Info()
		if lrw.statusCode >= http.StatusInternalServerError {
			ev = log.Error()
		}
		ev.Str("method", r.Method).
			Str("uri", r.RequestURI).
			Int("status", lrw.statusCode).
			Dur("elapsed", time.Since(start)).
			Msg("http request")
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w, http.MethodGet)
		return
	}
	httputil.WriteJSONOK(w, map[string]string{"status": "ok"})
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w, http.MethodGet)
		return
	}
	limit, err := httputil.QueryInt(r, "limit", defaultRunLimit, maxRunLimit)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	runs, err := s.store.ListRuns(r.Context(), limit)
	if err != nil {
		httputil.InternalServerError(w, r, err)
		return
	}
	if runs == nil {
		runs = []*sqlite.Run{}
	}
	httputil.WriteJSONOK(w, runs)
}

func (s *Server) showRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w, http.MethodGet)
		return
	}
	detail, err := LoadRunDetail(r.Context(), s.store, r.PathValue("id"))
	if s.storeError(w, r, err) {
		return
	}
	httputil.WriteJSONOK(w, detail)
}

func (s *Server) listTrials(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w, http.MethodGet)
		return
	}
	results, err := s.store.GetTrials(r.Context(), r.PathValue("id"))
	if s.storeError(w, r, err) {
		return
	}
	httputil.WriteJSONOK(w, trialRows(results))
}

func (s *Server) summaryPage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w, http.MethodGet)
		return
	}
	id := r.PathValue("id")
	run, err := s.store.GetRun(r.Context(), id)
	if s.storeError(w, r, err) {
		return
	}
	summary, err := s.store.GetSummaries(r.Context(), id)
	if s.storeError(w, r, err) {
		return
	}
	title := fmt.Sprintf("%s (%s)", run.Source, run.RunID)
	if run.Source == "" {
		title = run.RunID
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := report.SummaryPage(w, summary, title); err != nil {
		log.Error().Err(err).Str("run_id", id).Msg("failed to render summary page")
	}
}

// storeError writes the response for a failed store call and reports
// whether there was one.
func (s *Server) storeError(w http.ResponseWriter, r *http.Request, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, sqlite.ErrRunNotFound):
		httputil.NotFound(w, err.Error())
	default:
		httputil.InternalServerError(w, r, err)
	}
	return true
}
