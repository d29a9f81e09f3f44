package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"embedder/internal/core"
	"embedder/internal/flood"
	"embedder/internal/render"
	"embedder/pkg/embed"
)

const (
	shutdownTimeout = 10 * time.Second

	endpointMarkdown = "markdown"
	endpointHTML     = "html"
	endpointClassify = "classify"
)

type Server struct {
	config   *core.ServerConfig
	logger   *zap.Logger
	server   *http.Server
	metrics  *Metrics
	renderer *render.Renderer
	limiter  *flood.Floodgate
}

// Metrics records embed decisions and request outcomes. It implements embed.Observer.
type Metrics struct {
	Registry       *prometheus.Registry
	RequestsTotal  *prometheus.CounterVec
	EmbedsTotal    *prometheus.CounterVec
	SkippedTotal   prometheus.Counter
	RenderDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors on a private registry.
func NewMetrics() *Metrics {
	metrics := &Metrics{
		Registry: prometheus.NewRegistry(),
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "embedder_requests_total",
				Help: "Total number of render and classify requests",
			},
			[]string{"endpoint", "status"},
		),
		EmbedsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "embedder_embeds_total",
				Help: "Total number of links replaced by embeds",
			},
			[]string{"provider", "kind"},
		),
		SkippedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "embedder_skipped_total",
				Help: "Total number of standalone links left unchanged",
			},
		),
		RenderDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "embedder_render_duration_seconds",
				Help:    "Time spent rendering documents",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
	}

	metrics.Registry.MustRegister(
		metrics.RequestsTotal,
		metrics.EmbedsTotal,
		metrics.SkippedTotal,
		metrics.RenderDuration,
	)

	return metrics
}

// Embedded implements embed.Observer.
func (m *Metrics) Embedded(e embed.Embed) {
	m.EmbedsTotal.WithLabelValues(e.Provider, e.Kind).Inc()
}

// Skipped implements embed.Observer.
func (m *Metrics) Skipped(string) {
	m.SkippedTotal.Inc()
}

func NewServer(config *core.ServerConfig, renderConfig *core.RenderConfig, logger *zap.Logger) *Server {
	metrics := NewMetrics()
	renderer := render.NewRenderer(renderConfig, logger.Named("render"), metrics)

	metrics.Registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "embedder_cache_entries",
			Help: "Number of URLs with a memoized embed decision",
		},
		func() float64 { return float64(renderer.Manager().CacheLen()) },
	))

	var limiter *flood.Floodgate
	if config.RateLimitPerMinute > 0 {
		limiter = flood.New(config.RateLimitPerMinute)
	}

	mux := setupRoutes(logger, metrics, renderer, limiter, config.MaxBodyBytes)

	return &Server{
		config:   config,
		logger:   logger,
		server:   createHTTPServer(config, mux),
		metrics:  metrics,
		renderer: renderer,
		limiter:  limiter,
	}
}

func createHTTPServer(config *core.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      handler,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}
}

type handlers struct {
	logger       *zap.Logger
	metrics      *Metrics
	renderer     *render.Renderer
	limiter      *flood.Floodgate
	maxBodyBytes int64
}

// setupRoutes builds the service mux. limiter may be nil.
func setupRoutes(
	logger *zap.Logger,
	metrics *Metrics,
	renderer *render.Renderer,
	limiter *flood.Floodgate,
	maxBodyBytes int64,
) *http.ServeMux {
	if maxBodyBytes <= 0 {
		maxBodyBytes = core.DefaultMaxBodyBytes
	}
	h := &handlers{
		logger:       logger,
		metrics:      metrics,
		renderer:     renderer,
		limiter:      limiter,
		maxBodyBytes: maxBodyBytes,
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "embedder"})
	})

	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready", "service": "embedder"})
	})

	mux.Handle("GET /metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	mux.HandleFunc("POST /render", h.limit(endpointMarkdown, h.render(endpointMarkdown, render.FormatMarkdown)))
	mux.HandleFunc("POST /render/html", h.limit(endpointHTML, h.render(endpointHTML, render.FormatHTML)))
	mux.HandleFunc("GET /classify", h.limit(endpointClassify, h.classify))

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(indexPage))
	})

	return mux
}

func (h *handlers) limit(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	if h.limiter == nil {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.limiter.Allow(clientAddr(r)) {
			h.metrics.RequestsTotal.WithLabelValues(endpoint, "limited").Inc()
			writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
			return
		}
		next(w, r)
	}
}

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (h *handlers) render(endpoint string, format render.Format) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		src, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
		if err != nil {
			status := http.StatusBadRequest
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				status = http.StatusRequestEntityTooLarge
			}
			h.fail(w, endpoint, status, err)
			return
		}

		out, err := h.renderer.Render(format, src)
		if err != nil {
			h.fail(w, endpoint, http.StatusUnprocessableEntity, err)
			return
		}

		h.metrics.RenderDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
		h.metrics.RequestsTotal.WithLabelValues(endpoint, "ok").Inc()

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(out); err != nil {
			h.logger.Debug("Failed to write response", zap.Error(err))
		}
	}
}

// ClassifyResponse is the body of GET /classify.
type ClassifyResponse struct {
	URL       string `json:"url"`
	Match     bool   `json:"match"`
	Provider  string `json:"provider,omitempty"`
	Kind      string `json:"kind,omitempty"`
	IFrameSrc string `json:"iframe_src,omitempty"`
	Markup    string `json:"markup,omitempty"`
}

func (h *handlers) classify(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		h.fail(w, endpointClassify, http.StatusBadRequest, errors.New("missing url parameter"))
		return
	}

	resp := ClassifyResponse{URL: rawURL}
	if e, err := h.renderer.Manager().Embed(rawURL); err == nil {
		resp.Match = true
		resp.Provider = e.Provider
		resp.Kind = e.Kind
		resp.IFrameSrc = e.Src
		resp.Markup = e.Markup
	}

	h.metrics.RequestsTotal.WithLabelValues(endpointClassify, "ok").Inc()
	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) fail(w http.ResponseWriter, endpoint string, status int, err error) {
	h.metrics.RequestsTotal.WithLabelValues(endpoint, "error").Inc()
	h.logger.Debug("Request failed",
		zap.String("endpoint", endpoint),
		zap.Int("status", status),
		zap.Error(err))
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting HTTP server",
		zap.String("addr", s.server.Addr))

	go func() {
		<-ctx.Done()
		s.logger.Info("Shutting down HTTP server")
		if s.limiter != nil {
			s.limiter.Stop()
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("Failed to shutdown HTTP server gracefully", zap.Error(err))
		}
	}()

	if err := s.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	return nil
}

func (s *Server) GetMetrics() *Metrics {
	return s.metrics
}

const indexPage = `<!DOCTYPE html>
<html>
<head>
    <title>embedder</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 40px; }
        .header { color: #333; }
        .endpoint { margin: 10px 0; }
        .endpoint a { text-decoration: none; color: #0066cc; }
        .endpoint a:hover { text-decoration: underline; }
    </style>
</head>
<body>
    <h1 class="header">embedder</h1>
    <p>Turns standalone Spotify links into embedded players.</p>

    <h2>Endpoints</h2>
    <div class="endpoint">POST /render - Markdown in, HTML out</div>
    <div class="endpoint">POST /render/html - HTML in, HTML out</div>
    <div class="endpoint">GET /classify?url= - Embed decision for a single URL</div>
    <div class="endpoint"><a href="/metrics">Metrics</a> - Prometheus metrics</div>
    <div class="endpoint"><a href="/healthz">Health</a> - Health check</div>
    <div class="endpoint"><a href="/readyz">Ready</a> - Readiness check</div>
</body>
</html>`
