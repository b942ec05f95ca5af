// Package httpapi serves the plant-identification REST surface used by the
// mobile client. The analyze endpoint always answers with a complete result
// object, even when the model reply could not be parsed or the upstream call
// failed outright.
package httpapi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"agrolake/internal/logging"
	"agrolake/internal/plantid"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PlantAnalyzer is the slice of the plantid analyzer the server needs.
type PlantAnalyzer interface {
	Analyze(ctx context.Context, image []byte, mimeType string) (plantid.AnalysisResult, plantid.Status)
}

// Server hosts the analysis API.
type Server struct {
	analyzer PlantAnalyzer
	logger   *logging.AppLogger
	timeout  time.Duration

	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewServer wires the analyzer behind the HTTP mux. Metrics register against
// the provided registry and /metrics serves that same registry; pass a fresh
// one in tests to avoid collisions.
func NewServer(analyzer PlantAnalyzer, logger *logging.AppLogger, reg *prometheus.Registry) *Server {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Server{
		analyzer: analyzer,
		logger:   logger,
		timeout:  60 * time.Second,
		registry: reg,
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "agrolake_analyze_requests_total",
			Help: "Plant analysis requests by outcome.",
		}, []string{"outcome"}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "agrolake_analyze_duration_seconds",
			Help:    "Plant analysis request duration.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// Handler returns the full route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/analyze", s.handleAnalyze)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	return mux
}

// ListenAndServe runs the API until the context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP API listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

type analyzeRequest struct {
	Image    string `json:"image"`
	MimeType string `json:"mime_type"`
}

type errorReply struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleAnalyze accepts a base64 or data-URL image, runs it through the vision
// analyzer, and maps the outcome to HTTP status: 400 for bad input (no model
// call is made), 500 when the upstream call failed, 200 otherwise. The body is
// a complete analysis result in every non-400 case.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	requestID := uuid.NewString()
	logger := s.logger.With("request_id", requestID)

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.requests.WithLabelValues("bad_request").Inc()
		writeJSON(w, http.StatusBadRequest, errorReply{Error: "invalid JSON body"})
		return
	}

	image, mimeType, err := decodeImage(req)
	if err != nil {
		s.requests.WithLabelValues("bad_request").Inc()
		logger.Warn("analyze request rejected", "error", err)
		writeJSON(w, http.StatusBadRequest, errorReply{Error: err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	result, status := s.analyzer.Analyze(ctx, image, mimeType)
	s.duration.Observe(time.Since(start).Seconds())

	switch status {
	case plantid.StatusFailed:
		s.requests.WithLabelValues("failed").Inc()
		logger.Error("analysis failed upstream")
		writeJSON(w, http.StatusInternalServerError, result)
	case plantid.StatusSalvaged:
		s.requests.WithLabelValues("salvaged").Inc()
		logger.Warn("analysis reply salvaged", "plant", result.Name)
		writeJSON(w, http.StatusOK, result)
	default:
		s.requests.WithLabelValues("ok").Inc()
		logger.Info("analysis completed", "plant", result.Name)
		writeJSON(w, http.StatusOK, result)
	}
}

// decodeImage accepts either a bare base64 payload or a data URL
// (data:image/png;base64,...). The data URL's media type wins over the
// mime_type field when both are present.
func decodeImage(req analyzeRequest) ([]byte, string, error) {
	payload := strings.TrimSpace(req.Image)
	if payload == "" {
		return nil, "", fmt.Errorf("image is required")
	}

	mimeType := req.MimeType
	if strings.HasPrefix(payload, "data:") {
		meta, data, found := strings.Cut(payload, ",")
		if !found {
			return nil, "", fmt.Errorf("malformed data URL")
		}
		meta = strings.TrimPrefix(meta, "data:")
		if mt, _, ok := strings.Cut(meta, ";"); ok && mt != "" {
			mimeType = mt
		}
		payload = data
	}

	image, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("image is not valid base64: %w", err)
	}
	if len(image) == 0 {
		return nil, "", fmt.Errorf("image is empty")
	}
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return image, mimeType, nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
