package httpx

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"log/slog"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/TiwariV18/FinTrack/internal/domain"
	"github.com/TiwariV18/FinTrack/internal/service/auth"
	"github.com/TiwariV18/FinTrack/internal/service/dashboard"
	"github.com/TiwariV18/FinTrack/internal/service/ledger"
	"github.com/TiwariV18/FinTrack/internal/ws"
	"github.com/TiwariV18/FinTrack/pkg/config"
)

// Router wires HTTP endpoints to services.
type Router struct {
	mux        *http.ServeMux
	logger     *slog.Logger
	auth       auth.Service
	ledger     ledger.Service
	dashboard  dashboard.Service
	hub        *ws.Hub
	upgrader   websocket.Upgrader
	limiter    RateLimiter
	dbHealth   func(context.Context) error
	corsOrigin []string
	maxBody    int64
	heartbeat  time.Duration

	metricsOnce        sync.Once
	metricsInitialized bool
	requestTotal       *prometheus.CounterVec
	requestLatency     *prometheus.HistogramVec
	rateLimitHits      *prometheus.CounterVec
	mutations          *prometheus.CounterVec
}

const (
	rateWindowDefault  = time.Minute
	rateWindowRealtime = 30 * time.Second
	rateLimitSignup    = 5
	rateLimitLogin     = 12
	rateLimitUserWrite = 60
	rateLimitUserRead  = 120
	rateLimitStream    = 30
	healthCheckTimeout = 2 * time.Second
	defaultHeartbeat   = 15 * time.Second
)

// routePrefixes lists the mount points every API route is served under.
var routePrefixes = []string{"", "/api"}

// NewRouter assembles routes with dependencies. hub, limiter and dbHealth may be nil.
func NewRouter(logger *slog.Logger, cfg config.APIConfig, authSvc auth.Service, ledgerSvc ledger.Service, dashboardSvc dashboard.Service, hub *ws.Hub, limiter RateLimiter, dbHealth func(context.Context) error) *Router {
	r := &Router{
		mux:        http.NewServeMux(),
		logger:     logger,
		auth:       authSvc,
		ledger:     ledgerSvc,
		dashboard:  dashboardSvc,
		hub:        hub,
		limiter:    limiter,
		dbHealth:   dbHealth,
		corsOrigin: splitOrigins(cfg.CORSOrigin),
		maxBody:    cfg.MaxBodyBytes,
		heartbeat:  cfg.StreamHeartbeat,
	}
	r.upgrader = websocket.Upgrader{CheckOrigin: r.checkOrigin}
	if r.limiter == nil {
		r.limiter = NewMemoryRateLimiter()
	}
	if r.maxBody <= 0 {
		r.maxBody = 1 << 20
	}
	if r.heartbeat <= 0 {
		r.heartbeat = defaultHeartbeat
	}
	r.initMetrics()
	r.register()
	return r
}

// ServeHTTP applies CORS and delegates to the underlying mux.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if origin := req.Header.Get("Origin"); origin != "" && r.originAllowed(origin) {
		headers := w.Header()
		headers.Set("Access-Control-Allow-Origin", origin)
		headers.Set("Access-Control-Allow-Credentials", "true")
		headers.Add("Vary", "Origin")
		if req.Method == http.MethodOptions && req.Header.Get("Access-Control-Request-Method") != "" {
			headers.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			headers.Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID")
			headers.Set("Access-Control-Max-Age", "600")
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	r.mux.ServeHTTP(w, req)
}

// Close releases background resources.
func (r *Router) Close() {
	if r.limiter != nil {
		r.limiter.Close()
	}
}

func (r *Router) register() {
	r.mux.HandleFunc("/", r.audit("unmatched", r.handleNotFound))
	r.mux.HandleFunc("/healthz", r.audit("/healthz", r.handleHealthz))
	r.mux.Handle("/metrics", promhttp.Handler())

	for _, prefix := range routePrefixes {
		signup := r.withRateLimit("/auth/register", rateLimitSignup, rateWindowDefault, rateLimitKeyIP, r.handleRegister)
		r.mux.HandleFunc(prefix+"/auth/register", r.audit("/auth/register", signup))
		r.mux.HandleFunc(prefix+"/auth/signup", r.audit("/auth/register", signup))
		r.mux.HandleFunc(prefix+"/auth/login", r.audit("/auth/login", r.withRateLimit("/auth/login", rateLimitLogin, rateWindowDefault, rateLimitKeyIP, r.handleLogin)))
		r.mux.HandleFunc(prefix+"/auth/me", r.audit("/auth/me", r.handlerAuthRate("/auth/me", rateLimitUserRead, rateWindowDefault, r.handleMe)))

		for _, kind := range domain.Kinds() {
			base := prefix + "/" + string(kind)
			route := "/" + string(kind)
			r.mux.HandleFunc(base, r.audit(route, r.handlerUserRate(route, r.handleCollection(kind))))
			r.mux.HandleFunc(base+"/", r.audit(route+"/:id", r.handlerUserRate(route+"/:id", r.handleItem(kind))))
		}
		r.mux.HandleFunc(prefix+"/income/add", r.audit("/income", r.handlerUserRate("/income", r.handleCreateOnly(domain.KindIncome))))

		r.mux.HandleFunc(prefix+"/dashboard/stats", r.audit("/dashboard/stats", r.handlerAuthRate("/dashboard/stats", rateLimitUserRead, rateWindowDefault, r.handleStats)))
		r.mux.HandleFunc(prefix+"/dashboard/categories", r.audit("/dashboard/categories", r.handlerAuthRate("/dashboard/categories", rateLimitUserRead, rateWindowDefault, r.handleCategories)))

		r.mux.HandleFunc(prefix+"/ws/transactions", r.audit("/ws/transactions", r.streamAuthRate("/ws/transactions", r.handleTransactionsWS)))
		r.mux.HandleFunc(prefix+"/events/transactions", r.audit("/events/transactions", r.streamAuthRate("/events/transactions", r.handleTransactionsSSE)))
	}
}

func (r *Router) handleHealthz(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	components := make(map[string]any)
	status := "ok"
	if r.dbHealth != nil {
		ctx, cancel := context.WithTimeout(req.Context(), healthCheckTimeout)
		defer cancel()
		if err := r.dbHealth(ctx); err != nil {
			status = "degraded"
			components["database"] = map[string]any{
				"status": "down",
				"error":  err.Error(),
			}
		} else {
			components["database"] = map[string]any{"status": "up"}
		}
	}
	payload := map[string]any{
		"status":     status,
		"components": components,
		"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
	}
	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, payload)
}

func (r *Router) handleNotFound(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusNotFound, "Route not found")
}

func (r *Router) audit(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w}
		start := time.Now()
		next(recorder, req)

		status := recorder.status
		if status == 0 {
			status = http.StatusOK
		}
		ctx := recorder.ctx
		if ctx == nil {
			ctx = req.Context()
		}
		duration := time.Since(start)
		r.recordRequestMetrics(req.Method, route, status, duration)

		actor := "anonymous"
		fields := []any{
			"method", req.Method,
			"path", req.URL.Path,
			"status", status,
			"bytes", recorder.bytes,
			"duration_ms", duration.Milliseconds(),
		}
		if ip := clientIP(req); ip != "" {
			fields = append(fields, "ip", ip)
		}
		if reqID := strings.TrimSpace(req.Header.Get("X-Request-ID")); reqID != "" {
			fields = append(fields, "request_id", reqID)
		}
		if info, ok := authInfoFromContext(ctx); ok {
			actor = "user"
			fields = append(fields, "user_id", info.UserID)
		}
		fields = append(fields, "actor", actor)

		switch {
		case status >= http.StatusInternalServerError:
			r.logger.Error("http_request", fields...)
		case status >= http.StatusBadRequest:
			r.logger.Warn("http_request", fields...)
		default:
			r.logger.Info("http_request", fields...)
		}
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
	ctx    context.Context
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if sr.status == 0 {
		sr.status = http.StatusOK
	}
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += n
	return n, err
}

func (sr *statusRecorder) SetContext(ctx context.Context) {
	sr.ctx = ctx
}

func (sr *statusRecorder) Flush() {
	if f, ok := sr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (sr *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := sr.ResponseWriter.(http.Hijacker); ok {
		conn, rw, err := h.Hijack()
		if err == nil && sr.status == 0 {
			sr.status = http.StatusSwitchingProtocols
		}
		return conn, rw, err
	}
	return nil, nil, errors.New("hijacker not supported")
}

func (sr *statusRecorder) Unwrap() http.ResponseWriter {
	return sr.ResponseWriter
}

func clientIP(req *http.Request) string {
	if forwarded := strings.TrimSpace(req.Header.Get("X-Forwarded-For")); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(req.RemoteAddr))
	if err != nil {
		return strings.TrimSpace(req.RemoteAddr)
	}
	return host
}

func (r *Router) applyRateHeaders(w http.ResponseWriter, limit int, decision rateDecision) {
	if limit <= 0 {
		return
	}
	remaining := limit - decision.count
	if remaining < 0 {
		remaining = 0
	}
	headers := w.Header()
	headers.Set("X-RateLimit-Limit", strconv.Itoa(limit))
	headers.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	if !decision.windowEnd.IsZero() {
		headers.Set("X-RateLimit-Reset", strconv.FormatInt(decision.windowEnd.Unix(), 10))
	}
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimRight(strings.TrimSpace(part), "/"); part != "" {
			origins = append(origins, part)
		}
	}
	return origins
}

func (r *Router) originAllowed(origin string) bool {
	origin = strings.TrimRight(origin, "/")
	for _, allowed := range r.corsOrigin {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

// checkOrigin admits websocket upgrades from non-browser clients and the configured origins.
func (r *Router) checkOrigin(req *http.Request) bool {
	origin := req.Header.Get("Origin")
	return origin == "" || r.originAllowed(origin)
}

func (r *Router) methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
}

func (r *Router) notFound(w http.ResponseWriter) {
	writeError(w, http.StatusNotFound, "Route not found")
}
