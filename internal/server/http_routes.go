package server

import (
	"net/http"
	"strings"
	"time"
)

// setupRoutes configures all HTTP routes and middleware
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	rateLimited := s.createRateLimitMiddleware()
	sizeLimited := s.requestSizeLimitMiddleware()

	// protect composes the middleware chain applied to API endpoints
	protect := func(h http.HandlerFunc) http.HandlerFunc {
		return rateLimited(s.authMiddleware(sizeLimited(h)))
	}

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /ready", s.readyHandler)
	mux.HandleFunc("GET /stats", s.statsHandler)

	mux.HandleFunc("POST /api/v1/analyze", protect(s.analyzeHandler))
	mux.HandleFunc("POST /api/v1/tailor", protect(s.tailorHandler))
	mux.HandleFunc("POST /api/v1/resumes", protect(s.createResumeHandler))
	mux.HandleFunc("GET /api/v1/resumes", protect(s.listResumesHandler))
	mux.HandleFunc("GET /api/v1/resumes/{id}", protect(s.getResumeHandler))
	mux.HandleFunc("GET /api/v1/jds", protect(s.listJDsHandler))
	mux.HandleFunc("GET /api/v1/tailored/{id}", protect(s.getTailoredHandler))
	mux.HandleFunc("PATCH /api/v1/tailored/{id}/bullets/{bulletId}", protect(s.bulletStatusHandler))
	mux.HandleFunc("POST /api/v1/assistant", protect(s.assistantHandler))
	mux.HandleFunc("GET /api/v1/cache/stats", protect(s.cacheStatsHandler))
	mux.HandleFunc("DELETE /api/v1/cache", protect(s.cacheClearHandler))
	mux.HandleFunc("POST /api/v1/ai/reset", protect(s.gatewayResetHandler))

	return mux
}

// requestMetricsMiddleware records one request metric per completed request,
// labeled with the matched route pattern rather than the raw path.
func (s *Server) requestMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapper, r)

		route := r.Pattern
		if route == "" {
			route = r.URL.Path
		}
		om := s.Deps.Observability
		om.GetMetrics().RecordRequest(r.Context(), r.Method, route, wrapper.statusCode, time.Since(start))
	})
}

// authMiddleware provides API key authentication
func (s *Server) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Skip authentication if no API keys are configured
		if len(s.APIKeys) == 0 {
			next(w, r)
			return
		}

		// Check for API key in X-API-Key header
		apiKey := r.Header.Get("X-API-Key")
		if apiKey == "" {
			// Check for Bearer token in Authorization header as fallback
			authHeader := r.Header.Get("Authorization")
			if after, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
				apiKey = after
			}
		}

		if apiKey == "" {
			s.Logger.Info("Authentication failed: missing API key",
				"endpoint", r.URL.Path,
				"client_ip", r.RemoteAddr)
			writeErrorResponse(w, "Missing API key", "X-API-Key header or Authorization Bearer token required", http.StatusUnauthorized)
			return
		}

		// Validate API key
		if !s.APIKeys[apiKey] {
			s.Logger.Info("Authentication failed: invalid API key",
				"endpoint", r.URL.Path,
				"client_ip", r.RemoteAddr,
				"api_key_prefix", maskAPIKey(apiKey))
			writeErrorResponse(w, "Invalid API key", "Unauthorized access", http.StatusUnauthorized)
			return
		}

		s.Logger.Debug("API authentication successful",
			"endpoint", r.URL.Path,
			"client_ip", r.RemoteAddr,
			"api_key_prefix", maskAPIKey(apiKey))

		next(w, r)
	}
}

// requestSizeLimitMiddleware limits the size of incoming requests
func (s *Server) requestSizeLimitMiddleware() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if s.MaxRequestSize > 0 {
				r.Body = http.MaxBytesReader(w, r.Body, s.MaxRequestSize)
			}

			next(w, r)
		}
	}
}

// maskAPIKey masks an API key for logging (shows only first 8 characters)
func maskAPIKey(apiKey string) string {
	if len(apiKey) <= 8 {
		return "****"
	}
	return apiKey[:8] + "****"
}
