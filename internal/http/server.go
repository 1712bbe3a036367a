package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"bahikhata/internal/cache"
	"bahikhata/internal/core"
	"bahikhata/internal/log"
	"bahikhata/internal/middleware/ratelimit"
	"bahikhata/internal/middleware/security"
	"bahikhata/internal/middleware/trace"
	"bahikhata/internal/services"
)

// Ports the server depends on. The concrete implementations live in
// internal/services; tests substitute fakes.
type (
	Authenticator interface {
		Register(ctx context.Context, username, email, password string) (core.User, error)
		Login(ctx context.Context, email, password string) (core.User, error)
	}

	TransactionRecorder interface {
		RecordTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error)
		ListTransactions(ctx context.Context, userID string, limit int) ([]core.Transaction, error)
	}

	ReportGenerator interface {
		GenerateDailyReport(ctx context.Context, userID string, date time.Time) (core.DailyReport, error)
		ListReports(ctx context.Context, userID string, limit int) ([]core.DailyReport, error)
		Analytics(ctx context.Context, userID string, days int) (core.AnalyticsSeries, error)
		Dashboard(ctx context.Context, userID string, days int) (services.DashboardSnapshot, error)
	}

	DocumentScanner interface {
		ScanDocument(ctx context.Context, userID, filename, contentType string, data []byte) (core.DocumentScan, error)
	}
)

type Server struct {
	http.Server

	auth         Authenticator
	transactions TransactionRecorder
	reports      ReportGenerator
	scanner      DocumentScanner

	rateLimiter  *ratelimit.Limiter
	detector     *security.Detector
	corsOrigins  []string
	shutdownOnce sync.Once

	// Read-path caches, invalidated on writes.
	analyticsCache *cache.LRUCache[core.AnalyticsSeries]
	reportsCache   *cache.LRUCache[[]core.DailyReport]
	cacheManager   *cache.Manager
	genMu          sync.Mutex
	generations    map[string]uint64
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, auth Authenticator, tr TransactionRecorder, rg ReportGenerator, sc DocumentScanner, corsOrigins []string) *Server {
	mux := http.NewServeMux()

	s := &Server{
		auth:           auth,
		transactions:   tr,
		reports:        rg,
		scanner:        sc,
		rateLimiter:    ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		detector:       security.NewDetector(),
		corsOrigins:    corsOrigins,
		analyticsCache: cache.NewLRUCache[core.AnalyticsSeries](200, time.Minute),
		reportsCache:   cache.NewLRUCache[[]core.DailyReport](200, time.Minute),
		cacheManager:   cache.NewManager(),
		generations:    make(map[string]uint64),
	}
	s.cacheManager.Register(s.analyticsCache)
	s.cacheManager.Register(s.reportsCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("GET /api/", s.handleRoot)
	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("GET /api/transactions/{user_id}", s.handleListTransactions)
	mux.HandleFunc("POST /api/generate-report/{user_id}", s.handleGenerateReport)
	mux.HandleFunc("GET /api/reports/{user_id}", s.handleListReports)
	mux.HandleFunc("GET /api/analytics/{user_id}", s.handleAnalytics)
	mux.HandleFunc("GET /api/dashboard/{user_id}", s.handleDashboard)
	mux.HandleFunc("POST /api/scan-document", s.handleScanDocument)
	mux.HandleFunc("POST /api/voice/transcribe", s.handleVoiceTranscribe)
	mux.HandleFunc("POST /api/voice/speak", s.handleVoiceSpeak)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	tracer := trace.NewMiddleware(s.detector.ExtractClientIP)
	logMW := log.Middleware(log.New(log.Config{Component: log.ComponentHTTP}))

	var handler http.Handler = mux
	handler = s.withRateLimit(handler)
	handler = s.withCORS(handler)
	handler = s.withDetection(handler)
	handler = headers.Middleware(handler)
	handler = logMW(handler)
	handler = tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Shutdown stops the server along with its background cleanup goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.Stop()
		}
		if s.cacheManager != nil {
			s.cacheManager.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withDetection flags requests matching known probe patterns. Flagged
// requests are logged, not blocked.
func (s *Server) withDetection(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.DetectSuspiciousRequest(r) {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Suspicious request detected",
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path,
				log.FieldClientIP, s.detector.ExtractClientIP(r))
		}
		next.ServeHTTP(w, r)
	})
}

// withRateLimit throttles write endpoints per client IP.
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && !s.rateLimiter.Allow(s.detector.ExtractClientIP(r)) {
			w.Header().Set("Retry-After", "60")
			writeDetail(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && s.originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Vary", "Origin")
		}
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) originAllowed(origin string) bool {
	for _, allowed := range s.corsOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

// Cache keys embed a per-user generation counter, so invalidation is a
// single counter bump instead of enumerating every cached parameter combo.
func (s *Server) analyticsCacheKey(userID string, days int) string {
	return fmt.Sprintf("%s:g%d:d%d", userID, s.cacheGen(userID), days)
}

func (s *Server) reportsCacheKey(userID string, limit int) string {
	return fmt.Sprintf("%s:g%d:l%d", userID, s.cacheGen(userID), limit)
}

func (s *Server) cacheGen(userID string) uint64 {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	return s.generations[userID]
}

// invalidateUserCaches abandons cached read models after a write for the
// user. Stale entries age out via the LRU's TTL.
func (s *Server) invalidateUserCaches(userID string) {
	s.genMu.Lock()
	s.generations[userID]++
	s.genMu.Unlock()
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Bahikhata Portal API"})
}
