// Package server is the thin HTTP adapter in front of the case pipeline.
// It owns routing, payload decoding and error mapping; all case logic lives
// in the casefile service.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/yuin/goldmark"

	"github.com/disinfolab/casetrack/internal/casefile"
	"github.com/disinfolab/casetrack/internal/store"
	"github.com/disinfolab/casetrack/pkg/connector"
	"github.com/disinfolab/casetrack/pkg/product"
)

var md = goldmark.New()

// Server provides the HTTP API.
type Server struct {
	svc  *casefile.Service
	port int
	mux  *http.ServeMux
}

// New creates a new HTTP server.
func New(svc *casefile.Service, port int) *Server {
	if port == 0 {
		port = 8080
	}
	s := &Server{svc: svc, port: port, mux: http.NewServeMux()}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("GET /api/v1/cases", s.handleListCases)
	s.mux.HandleFunc("POST /api/v1/cases", s.handleCreateCase)
	s.mux.HandleFunc("GET /api/v1/cases/{id}", s.handleGetCase)
	s.mux.HandleFunc("POST /api/v1/cases/{id}/collect", s.handleCollect)
	s.mux.HandleFunc("POST /api/v1/cases/{id}/analyze", s.handleAnalyze)
	s.mux.HandleFunc("POST /api/v1/cases/{id}/generate-products", s.handleGenerateProducts)
	s.mux.HandleFunc("POST /api/v1/cases/{id}/run-all", s.handleRunAll)
	s.mux.HandleFunc("GET /api/v1/cases/{id}/items", s.handleItems)
	s.mux.HandleFunc("GET /api/v1/cases/{id}/alerts", s.handleAlerts)
	s.mux.HandleFunc("GET /api/v1/cases/{id}/evidence", s.handleEvidence)
	s.mux.HandleFunc("GET /api/v1/cases/{id}/timeline", s.handleTimeline)
	s.mux.HandleFunc("GET /api/v1/cases/{id}/media-verification", s.handleMediaVerification)
	s.mux.HandleFunc("GET /api/v1/cases/{id}/report", s.handleReport)
	s.mux.HandleFunc("GET /api/v1/cases/{id}/report.html", s.handleReportHTML)
	s.mux.HandleFunc("GET /api/v1/cases/{id}/graph", s.handleGraph)

	s.mux.HandleFunc("GET /api/v1/connectors", s.handleConnectors)
	s.mux.HandleFunc("GET /api/v1/source-catalog", s.handleSourceCatalog)
	s.mux.HandleFunc("GET /api/v1/metrics", s.handleMetrics)
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf(":%d", s.port)
	fmt.Printf("casetrack server listening on %s\n", addr)
	return http.ListenAndServe(addr, s.mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "casetrack",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleListCases(w http.ResponseWriter, r *http.Request) {
	cases, err := s.svc.Cases(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cases)
}

type createCaseRequest struct {
	Title     string               `json:"title"`
	Query     string               `json:"query"`
	Platforms []connector.Platform `json:"platforms"`
}

func (s *Server) handleCreateCase(w http.ResponseWriter, r *http.Request) {
	var payload createCaseRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	c, err := s.svc.CreateCase(r.Context(), payload.Title, payload.Query, payload.Platforms)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleGetCase(w http.ResponseWriter, r *http.Request) {
	s.respondCase(w, r, s.svc.Case)
}

func (s *Server) handleCollect(w http.ResponseWriter, r *http.Request) {
	s.respondCase(w, r, s.svc.Collect)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	s.respondCase(w, r, s.svc.Analyze)
}

func (s *Server) handleGenerateProducts(w http.ResponseWriter, r *http.Request) {
	s.respondCase(w, r, s.svc.GenerateProducts)
}

func (s *Server) handleRunAll(w http.ResponseWriter, r *http.Request) {
	s.respondCase(w, r, s.svc.RunAll)
}

func (s *Server) handleItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.svc.Items(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if items == nil {
		items = []connector.ContentItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := s.svc.Alerts(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if alerts == nil {
		alerts = []product.AlertRecord{}
	}
	writeJSON(w, http.StatusOK, alerts)
}

func (s *Server) handleEvidence(w http.ResponseWriter, r *http.Request) {
	evidence, err := s.svc.Evidence(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if evidence == nil {
		evidence = []product.EvidenceRecord{}
	}
	writeJSON(w, http.StatusOK, evidence)
}

func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	events, err := s.svc.Timeline(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if events == nil {
		events = []store.TimelineEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}

func (s *Server) handleMediaVerification(w http.ResponseWriter, r *http.Request) {
	results, err := s.svc.MediaVerification(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if results == nil {
		results = []product.MediaVerification{}
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.svc.Report(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleReportHTML(w http.ResponseWriter, r *http.Request) {
	report, err := s.svc.Report(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := md.Convert([]byte(product.RenderMarkdown(report)), &buf); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	graph, err := s.svc.Graph(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, graph)
}

func (s *Server) handleConnectors(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, connector.Health())
}

func (s *Server) handleSourceCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, connector.Catalog())
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := s.svc.Metrics(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, metrics)
}

// respondCase runs a case-id-shaped service operation and writes the
// resulting case record.
func (s *Server) respondCase(w http.ResponseWriter, r *http.Request, op func(context.Context, string) (*store.CaseRecord, error)) {
	c, err := op(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// writeError maps the service error taxonomy onto HTTP statuses: unknown
// cases are 404, validation and precondition failures are 400.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, casefile.ErrValidation), errors.Is(err, casefile.ErrNoAnalysis):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
