package server

import (
	"context"
	"time"

	"resumeforge/internal/ai"
	"resumeforge/internal/assistant"
	"resumeforge/internal/cache"
	"resumeforge/internal/config"
	resumeforgeErrors "resumeforge/internal/errors"
	"resumeforge/internal/extract"
	"resumeforge/internal/observability"
	"resumeforge/internal/store"
	"resumeforge/internal/tailoring"
	"resumeforge/internal/types"
)

// AnalyzeRequest is the body of POST /api/v1/analyze. Callers send either
// raw text or an uploaded file (base64 content plus filename); text wins
// when both are present.
type AnalyzeRequest struct {
	Text        string `json:"text,omitempty"`
	FileContent []byte `json:"fileContent,omitempty"`
	Filename    string `json:"filename,omitempty"`
	Title       string `json:"title,omitempty"`
	Company     string `json:"company,omitempty"`
	SourceURL   string `json:"sourceUrl,omitempty"`
	UserID      string `json:"userId,omitempty"`
}

// AnalyzeResponse wraps the analysis with its cache disposition
type AnalyzeResponse struct {
	JobDescription *types.JobDescription `json:"jobDescription"`
	Cached         bool                  `json:"cached"`
}

// CreateResumeRequest is the body of POST /api/v1/resumes. The resume fields
// are inlined for pre-structured submissions; rawText (or an uploaded file)
// routes the request through the LLM-backed parser instead.
type CreateResumeRequest struct {
	types.MasterResume
	RawText     string `json:"rawText,omitempty"`
	FileContent []byte `json:"fileContent,omitempty"`
	Filename    string `json:"filename,omitempty"`
}

// TailorRequest is the body of POST /api/v1/tailor
type TailorRequest struct {
	MasterResumeID   string `json:"masterResumeId"`
	JobDescriptionID string `json:"jobDescriptionId"`
}

// BulletStatusRequest is the body of PATCH /api/v1/tailored/{id}/bullets/{bulletId}
type BulletStatusRequest struct {
	Status types.OptimizationStatus `json:"status"`
}

// AssistantRequest is the body of POST /api/v1/assistant
type AssistantRequest struct {
	UserID           string `json:"userId"`
	SessionID        string `json:"sessionId,omitempty"`
	Message          string `json:"message"`
	JobDescriptionID string `json:"jobDescriptionId,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// ResumeParser structures raw resume text into a MasterResume
type ResumeParser interface {
	Parse(ctx context.Context, rawText string) (*types.MasterResume, error)
}

// Deps holds the service dependencies injected into the server. Everything
// here is constructed once at startup and shared across requests.
type Deps struct {
	Tailoring     *tailoring.Service
	Gateway       *ai.Manager
	Cache         cache.Cache
	Store         *store.Store
	Assistant     *assistant.Assistant
	Extractor     extract.Extractor
	Parser        ResumeParser
	Observability *observability.Manager
}

// Server holds configuration for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	// Full application configuration
	AppConfig *config.Config

	// Injected services
	Deps Deps

	// TLS Configuration
	TLSConfig config.TLSConfig

	// API Authentication
	APIKeys map[string]bool

	// Timeout configurations
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Request size limit
	MaxRequestSize int64

	// Rate limiting
	RateLimit   *config.RateLimitConfig
	RateLimiter *LimiterManager

	// Logger
	Logger *resumeforgeErrors.Logger
}

// ServerConfig holds configuration for creating a Server instance
type ServerConfig struct {
	Host           string
	Port           string
	Version        string
	TLSConfig      config.TLSConfig
	APIKeys        []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxRequestSize int64
	RateLimit      *config.RateLimitConfig
}

// NewServer creates a new Server instance from a ServerConfig struct
func NewServer(appCfg *config.Config, cfg ServerConfig, deps Deps, logger *resumeforgeErrors.Logger) *Server {
	// Convert API keys slice to map for O(1) lookup
	apiKeyMap := make(map[string]bool)
	for _, key := range cfg.APIKeys {
		if key != "" {
			apiKeyMap[key] = true
		}
	}

	var rateLimiter *LimiterManager
	if cfg.RateLimit != nil && cfg.RateLimit.Enabled {
		rateLimiter = NewLimiterManager(
			cfg.RateLimit.RequestsPerMin,
			cfg.RateLimit.BurstCapacity,
			logger,
		)
	}

	return &Server{
		Host:           cfg.Host,
		Port:           cfg.Port,
		Version:        cfg.Version,
		AppConfig:      appCfg,
		Deps:           deps,
		TLSConfig:      cfg.TLSConfig,
		APIKeys:        apiKeyMap,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxRequestSize: cfg.MaxRequestSize,
		RateLimit:      cfg.RateLimit,
		RateLimiter:    rateLimiter,
		Logger:         logger,
	}
}
