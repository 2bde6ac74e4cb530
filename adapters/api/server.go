// Package api exposes the analysis pipeline over HTTP for plotting and
// notebook consumers: JSON results plus a rendered HTML report.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"dosefit/app"
	"dosefit/domain/dose"
	"dosefit/internal"
	"dosefit/internal/report"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/google/uuid"
)

// Server wires the analysis service behind a chi router.
type Server struct {
	svc    *app.AnalysisService
	store  *Store
	logger *internal.Logger
	router chi.Router
}

// NewServer builds the HTTP surface around an analysis service.
func NewServer(svc *app.AnalysisService, logger *internal.Logger) *Server {
	s := &Server{
		svc:    svc,
		store:  NewStore(),
		logger: logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Post("/api/analyses", s.handleCreateAnalysis)
	r.Get("/api/analyses/{id}", s.handleGetAnalysis)
	r.Get("/api/analyses/{id}/report", s.handleGetReport)
	s.router = r
	return s
}

// Handler returns the root http handler.
func (s *Server) Handler() http.Handler { return s.router }

// analysisRequest is the wide table in JSON form. Null cells are missing
// observations.
type analysisRequest struct {
	Doses   []float64 `json:"doses"`
	Samples []struct {
		Name   string     `json:"name"`
		Values []*float64 `json:"values"`
	} `json:"samples"`
}

func (req analysisRequest) table() dose.Table {
	t := dose.Table{Doses: req.Doses}
	for _, s := range req.Samples {
		col := dose.SampleColumn{Name: s.Name, Values: make([]float64, len(s.Values))}
		for i, v := range s.Values {
			if v == nil {
				col.Values[i] = dose.Missing()
			} else {
				col.Values[i] = *v
			}
		}
		t.Samples = append(t.Samples, col)
	}
	return t
}

type analysisResponse struct {
	ID     string        `json:"id"`
	Result app.ResultDTO `json:"result"`
}

func (s *Server) handleCreateAnalysis(w http.ResponseWriter, r *http.Request) {
	var req analysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := s.svc.Analyze(req.table())
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}

	id := uuid.NewString()
	s.store.Put(id, result)
	s.logger.Info("analysis %s completed (%d observations, %d conditions)",
		id, result.Observations, len(result.Conditions))

	s.writeJSON(w, http.StatusCreated, analysisResponse{ID: id, Result: result.Wire()})
}

func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	result, ok := s.store.Get(id)
	if !ok {
		s.writeError(w, http.StatusNotFound, errors.New("analysis not found"))
		return
	}
	s.writeJSON(w, http.StatusOK, analysisResponse{ID: id, Result: result.Wire()})
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	result, ok := s.store.Get(id)
	if !ok {
		s.writeError(w, http.StatusNotFound, errors.New("analysis not found"))
		return
	}

	md := report.BuildMarkdown(result)
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.CompletePage})
	page := markdown.Render(p.Parse([]byte(md)), renderer)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(page)
}

// statusFor maps domain failures to HTTP statuses: malformed input is the
// client's problem, fit failures are unprocessable data.
func statusFor(err error) int {
	switch {
	case dose.IsParseError(err):
		return http.StatusBadRequest
	case errors.Is(err, dose.ErrMissingReference),
		errors.Is(err, dose.ErrUndefinedSEM),
		dose.IsFitError(err):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadRequest
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError || status == http.StatusUnprocessableEntity {
		s.logger.Warn("request failed (%d): %v", status, err)
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
