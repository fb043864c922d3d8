package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"gridarena.ai/internal/persistence/indexdb"
	"gridarena.ai/internal/sim/world"
)

// StateSource is satisfied by *world.World; PublicState is safe off the sim goroutine.
type StateSource interface {
	PublicState() world.PublicState
}

// RunIndex is the read side of the sqlite index.
type RunIndex interface {
	Runs(limit int) ([]indexdb.RunRow, error)
	Results(runID string) ([]indexdb.ResultRow, error)
	FragsBy(runID string) ([]indexdb.FragCount, error)
}

type Config struct {
	State StateSource
	// WS is mounted at /v1/ws when set.
	WS http.Handler
	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
	Index   RunIndex

	// CORSOrigins defaults to localhost.
	CORSOrigins    []string
	DisableLogging bool
}

// NewRouter builds the HTTP surface. It starts no goroutines, so tests can
// wrap it in httptest.NewServer directly.
func NewRouter(cfg Config) *chi.Mux {
	r := chi.NewRouter()
	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	origins := cfg.CORSOrigins
	if origins == nil {
		origins = []string{"http://localhost:*", "http://127.0.0.1:*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	h := &handlers{state: cfg.State, index: cfg.Index}
	r.Route("/v1", func(r chi.Router) {
		r.Get("/state", h.getState)
		r.Get("/summary", h.summary)
		if cfg.WS != nil {
			r.Handle("/ws", cfg.WS)
		}
		if cfg.Index != nil {
			r.Get("/runs", h.runs)
			r.Get("/runs/{runID}/results", h.results)
			r.Get("/runs/{runID}/frags", h.frags)
		}
	})
	return r
}

type handlers struct {
	state StateSource
	index RunIndex
}

func (h *handlers) getState(w http.ResponseWriter, _ *http.Request) {
	if h.state == nil {
		writeError(w, http.StatusServiceUnavailable, "no world")
		return
	}
	writeJSON(w, http.StatusOK, h.state.PublicState())
}

func (h *handlers) summary(w http.ResponseWriter, _ *http.Request) {
	if h.state == nil {
		writeError(w, http.StatusServiceUnavailable, "no world")
		return
	}
	s := h.state.PublicState()
	if s.Summary == nil {
		writeError(w, http.StatusNotFound, "run still in progress")
		return
	}
	writeJSON(w, http.StatusOK, s.Summary)
}

func (h *handlers) runs(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	rows, err := h.index.Runs(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *handlers) results(w http.ResponseWriter, r *http.Request) {
	rows, err := h.index.Results(chi.URLParam(r, "runID"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *handlers) frags(w http.ResponseWriter, r *http.Request) {
	rows, err := h.index.FragsBy(chi.URLParam(r, "runID"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
