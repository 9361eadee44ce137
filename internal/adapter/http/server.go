package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cropsight/crop-damage-verifier/internal/domain"
	"github.com/cropsight/crop-damage-verifier/internal/observability"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// AnalysisRunner executes one damage verification run.
type AnalysisRunner interface {
	Run(ctx context.Context, req domain.AnalysisRequest) (domain.Assessment, error)
}

// Sink receives finished assessment records. Delivery is best-effort: a
// failing sink is logged and counted but never fails the request.
type Sink interface {
	Record(ctx context.Context, rec domain.AssessmentRecord) error
	Name() string
}

// Server exposes the assessment API plus health, readiness, and metrics routes.
type Server struct {
	httpServer *http.Server
	runner     AnalysisRunner
	sinks      []Sink
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewServer creates an HTTP server with /v1/assessments, /healthz, /readyz,
// and /metrics routes.
func NewServer(addr string, runner AnalysisRunner, ready ReadinessChecker, sinks []Sink, logger *slog.Logger, metrics *observability.Metrics) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 120 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		runner:  runner,
		sinks:   sinks,
		logger:  logger,
		metrics: metrics,
	}

	mux.HandleFunc("POST /v1/assessments", s.handleAssess)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// assessRequest is the wire shape of an assessment request. Dates are
// calendar days in 2006-01-02 form.
type assessRequest struct {
	EventType     string  `json:"event_type"`
	Lat           float64 `json:"lat"`
	Lon           float64 `json:"lon"`
	RadiusKm      float64 `json:"radius_km"`
	BaselineStart string  `json:"baseline_start"`
	BaselineEnd   string  `json:"baseline_end"`
	EventStart    string  `json:"event_start"`
	EventEnd      string  `json:"event_end"`
}

func (r assessRequest) toDomain() (domain.AnalysisRequest, error) {
	eventType, err := domain.ParseEventType(r.EventType)
	if err != nil {
		return domain.AnalysisRequest{}, err
	}
	aoi, err := domain.NewAreaOfInterest(r.Lat, r.Lon, r.RadiusKm)
	if err != nil {
		return domain.AnalysisRequest{}, err
	}
	baseline, err := parseWindow(r.BaselineStart, r.BaselineEnd)
	if err != nil {
		return domain.AnalysisRequest{}, fmt.Errorf("baseline window: %w", err)
	}
	event, err := parseWindow(r.EventStart, r.EventEnd)
	if err != nil {
		return domain.AnalysisRequest{}, fmt.Errorf("event window: %w", err)
	}
	return domain.AnalysisRequest{
		EventType: eventType,
		AOI:       aoi,
		Baseline:  baseline,
		Event:     event,
	}, nil
}

func parseWindow(start, end string) (domain.TimeWindow, error) {
	s, err := time.Parse(time.DateOnly, start)
	if err != nil {
		return domain.TimeWindow{}, fmt.Errorf("%w: bad start date %q", domain.ErrInvalidWindow, start)
	}
	e, err := time.Parse(time.DateOnly, end)
	if err != nil {
		return domain.TimeWindow{}, fmt.Errorf("%w: bad end date %q", domain.ErrInvalidWindow, end)
	}
	return domain.TimeWindow{Start: s, End: e}, nil
}

func (s *Server) handleAssess(w http.ResponseWriter, r *http.Request) {
	var body assessRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "request body is not valid JSON")
		return
	}

	req, err := body.toDomain()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_window", err.Error())
		return
	}

	asmt, err := s.runner.Run(r.Context(), req)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrInvalidWindow):
		writeError(w, http.StatusBadRequest, "invalid_window", err.Error())
		return
	case errors.Is(err, domain.ErrInsufficientData):
		writeError(w, http.StatusUnprocessableEntity, "insufficient_data", err.Error())
		return
	default:
		s.logger.Error("analysis failed", "id", req.ID(), "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "analysis failed")
		return
	}

	rec := domain.FlattenAssessment(req, asmt)
	s.deliver(r.Context(), rec)

	writeJSON(w, http.StatusOK, rec)
}

// deliver fans the record out to every configured sink.
func (s *Server) deliver(ctx context.Context, rec domain.AssessmentRecord) {
	for _, sink := range s.sinks {
		if err := sink.Record(ctx, rec); err != nil {
			s.metrics.RecordsPublished.WithLabelValues(sink.Name(), "error").Inc()
			s.logger.Error("sink delivery failed", "sink", sink.Name(), "id", rec.ID, "error", err)
			continue
		}
		s.metrics.RecordsPublished.WithLabelValues(sink.Name(), "success").Inc()
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func writeError(w http.ResponseWriter, status int, reason, detail string) {
	writeJSON(w, status, map[string]string{"reason": reason, "error": detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response write
}
