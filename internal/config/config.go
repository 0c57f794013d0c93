package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"

	"resumeforge/internal/errors"
)

// Config holds all configuration for the application
type Config struct {
	AI            AIConfig            `mapstructure:"ai"`
	Cache         CacheConfig         `mapstructure:"cache"`
	Store         StoreConfig         `mapstructure:"store"`
	Selection     SelectionConfig     `mapstructure:"selection"`
	Server        ServerConfig        `mapstructure:"server"`
	App           AppConfig           `mapstructure:"app"`
	Vault         VaultConfig         `mapstructure:"vault"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// AIConfig holds AI backend and gateway configuration
type AIConfig struct {
	// Gateway behavior
	Primary         string        `mapstructure:"primary"`         // Primary backend: "gemini" or "openai"
	Fallback        string        `mapstructure:"fallback"`        // Fallback backend, empty to disable failover
	FailoverEnabled bool          `mapstructure:"failoverEnabled"` // Whether to fail over to the fallback backend
	MaxRetries      int           `mapstructure:"maxRetries"`      // Attempts against the active backend per call
	RetryDelay      time.Duration `mapstructure:"retryDelay"`      // Fixed delay between attempts

	// Global defaults applied to operations
	Timeout          time.Duration `mapstructure:"timeout"`
	Temperature      float32       `mapstructure:"temperature"`
	MaxTokens        int32         `mapstructure:"maxTokens"`
	UseSystemPrompts bool          `mapstructure:"useSystemPrompts"`
	CustomPrompts    PromptConfig  `mapstructure:"customPrompts"`

	// Circuit breaker applied to each backend
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuitBreaker"`

	// Prompt file hot reloading
	PromptReload PromptReloadConfig `mapstructure:"promptReload"`

	// Backend connection settings
	Gemini GeminiConfig `mapstructure:"gemini"`
	OpenAI OpenAIConfig `mapstructure:"openai"`

	// Operation-specific overrides
	Analyze  OperationAIConfig `mapstructure:"analyze"`
	Optimize OperationAIConfig `mapstructure:"optimize"`
	Chat     OperationAIConfig `mapstructure:"chat"`
	Parse    OperationAIConfig `mapstructure:"parse"`
}

// GeminiConfig holds connection settings for the Gemini backend
type GeminiConfig struct {
	APIKey         string `mapstructure:"apiKey"`
	Model          string `mapstructure:"model"`
	EmbeddingModel string `mapstructure:"embeddingModel"`
}

// OpenAIConfig holds connection settings for the OpenAI backend
type OpenAIConfig struct {
	APIKey         string `mapstructure:"apiKey"`
	BaseURL        string `mapstructure:"baseURL"` // Custom endpoint, empty for the default API
	Model          string `mapstructure:"model"`
	EmbeddingModel string `mapstructure:"embeddingModel"`
}

// CircuitBreakerConfig holds circuit breaker configuration for AI backends
type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`          // Whether circuit breaker is enabled
	MaxRequests      uint32        `mapstructure:"maxRequests"`      // Max requests allowed when half-open
	Interval         time.Duration `mapstructure:"interval"`         // Interval to clear counts
	Timeout          time.Duration `mapstructure:"timeout"`          // Timeout for half-open to open
	MinRequests      uint32        `mapstructure:"minRequests"`      // Minimum requests before tripping
	FailureThreshold float64       `mapstructure:"failureThreshold"` // Failure ratio threshold (0.0-1.0)
}

// PromptReloadConfig holds configuration for prompt file watching
type PromptReloadConfig struct {
	Enabled       bool          `mapstructure:"enabled"`       // Watch configured prompt files for changes
	DebounceDelay time.Duration `mapstructure:"debounceDelay"` // Debounce delay for file change events
}

// OperationAIConfig holds per-operation AI configuration overrides.
// Nil pointer fields fall back to the global AI configuration.
type OperationAIConfig struct {
	Timeout          *time.Duration `mapstructure:"timeout"`
	Temperature      *float32       `mapstructure:"temperature"`
	MaxTokens        *int32         `mapstructure:"maxTokens"`
	UseSystemPrompts *bool          `mapstructure:"useSystemPrompts"`
	CustomPrompts    PromptConfig   `mapstructure:"customPrompts"`
}

// PromptConfig holds custom prompt configuration
type PromptConfig struct {
	SystemPrompts SystemPrompts `mapstructure:"systemPrompts"`
	UserPrompts   UserPrompts   `mapstructure:"userPrompts"`
}

// SystemPrompts contains system-level instructions for each operation
type SystemPrompts struct {
	AnalyzeJob         string `mapstructure:"analyzeJob"`
	AnalyzeJobFile     string `mapstructure:"analyzeJobFile"`
	OptimizeBullet     string `mapstructure:"optimizeBullet"`
	OptimizeBulletFile string `mapstructure:"optimizeBulletFile"`
	ChatAssistant      string `mapstructure:"chatAssistant"`
	ChatAssistantFile  string `mapstructure:"chatAssistantFile"`
	ParseResume        string `mapstructure:"parseResume"`
	ParseResumeFile    string `mapstructure:"parseResumeFile"`
}

// UserPrompts contains user-level prompt templates for each operation
type UserPrompts struct {
	AnalyzeJob         string `mapstructure:"analyzeJob"`
	AnalyzeJobFile     string `mapstructure:"analyzeJobFile"`
	OptimizeBullet     string `mapstructure:"optimizeBullet"`
	OptimizeBulletFile string `mapstructure:"optimizeBulletFile"`
	ChatAssistant      string `mapstructure:"chatAssistant"`
	ChatAssistantFile  string `mapstructure:"chatAssistantFile"`
	ParseResume        string `mapstructure:"parseResume"`
	ParseResumeFile    string `mapstructure:"parseResumeFile"`
}

// CacheConfig holds analysis cache configuration
type CacheConfig struct {
	Backend         string        `mapstructure:"backend"`         // "memory" or "redis"
	TTL             time.Duration `mapstructure:"ttl"`             // TTL for fresh analysis results
	RewarmTTL       time.Duration `mapstructure:"rewarmTTL"`       // TTL when re-warming from the store
	CleanupInterval time.Duration `mapstructure:"cleanupInterval"` // Sweep interval for expired memory entries
	Redis           RedisConfig   `mapstructure:"redis"`
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// StoreConfig holds persistence configuration
type StoreConfig struct {
	Backend  string         `mapstructure:"backend"` // "memory" or "postgres"
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// PostgresConfig holds PostgreSQL connection settings
type PostgresConfig struct {
	DSN      string `mapstructure:"dsn"`
	MaxConns int32  `mapstructure:"maxConns"`
}

// SelectionConfig holds content selection limits
type SelectionConfig struct {
	MaxExperiences          int `mapstructure:"maxExperiences"`
	MaxBulletsPerExperience int `mapstructure:"maxBulletsPerExperience"`
	MaxSkills               int `mapstructure:"maxSkills"`
	MaxEducation            int `mapstructure:"maxEducation"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"readTimeout"`
	WriteTimeout time.Duration `mapstructure:"writeTimeout"`
	IdleTimeout  time.Duration `mapstructure:"idleTimeout"`

	// Request body size limit in bytes (0 disables the limit)
	MaxRequestSize int64 `mapstructure:"maxRequestSize"`

	// TLS Configuration
	TLS TLSConfig `mapstructure:"tls"`

	// API Authentication
	APIKeys []string `mapstructure:"apiKeys"` // Valid API keys for authentication

	// Rate Limiting Configuration
	RateLimit RateLimitConfig `mapstructure:"rateLimit"`
}

// TLSConfig holds TLS configuration
type TLSConfig struct {
	Mode     string `mapstructure:"mode"`     // TLS mode: "disabled", "server"
	CertFile string `mapstructure:"certFile"` // Server certificate file (PEM)
	KeyFile  string `mapstructure:"keyFile"`  // Server private key file (PEM)

	// Certificate content (used when loaded from Vault instead of files)
	CertContent string `mapstructure:"certContent"` // Server certificate content (PEM)
	KeyContent  string `mapstructure:"keyContent"`  // Server private key content (PEM)

	MinVersion string `mapstructure:"minVersion"` // Minimum TLS version: "1.2", "1.3"
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled        bool          `mapstructure:"enabled"`        // Enable/disable rate limiting
	RequestsPerMin int           `mapstructure:"requestsPerMin"` // Requests allowed per minute
	BurstCapacity  int           `mapstructure:"burstCapacity"`  // Burst capacity for token bucket
	ByIP           bool          `mapstructure:"byIP"`           // Enable per-IP rate limiting
	ByAPIKey       bool          `mapstructure:"byAPIKey"`       // Enable per-API-key rate limiting
	Window         time.Duration `mapstructure:"window"`         // Rate limiting window duration
}

// AppConfig holds general application configuration
type AppConfig struct {
	LogLevel         string   `mapstructure:"logLevel"`
	DefaultFormat    string   `mapstructure:"defaultFormat"`
	SupportedFormats []string `mapstructure:"supportedFormats"`
	MaxFileSize      int64    `mapstructure:"maxFileSize"`
}

// ObservabilityConfig holds observability configuration
type ObservabilityConfig struct {
	Enabled         bool                `mapstructure:"enabled"`
	ServiceName     string              `mapstructure:"serviceName"`
	ServiceVersion  string              `mapstructure:"serviceVersion"`
	ServiceInstance string              `mapstructure:"serviceInstance"`
	ConsoleOutput   bool                `mapstructure:"consoleOutput"`
	SampleRate      float64             `mapstructure:"sampleRate"`
	Tracing         TracingConfig       `mapstructure:"tracing"`
	Metrics         MetricsConfig       `mapstructure:"metrics"`
	CustomMetrics   CustomMetricsConfig `mapstructure:"customMetrics"`
	Console         ConsoleConfig       `mapstructure:"console"`
	Prometheus      PrometheusConfig    `mapstructure:"prometheus"`
	OTLP            OTLPConfig          `mapstructure:"otlp"`
	HealthCheck     HealthCheckConfig   `mapstructure:"healthCheck"`
}

// TracingConfig holds tracing configuration
type TracingConfig struct {
	Enabled    bool    `mapstructure:"enabled"`
	SampleRate float64 `mapstructure:"sampleRate"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled            bool          `mapstructure:"enabled"`
	Runtime            bool          `mapstructure:"runtime"`
	CollectionInterval time.Duration `mapstructure:"collectionInterval"`
}

// ConsoleConfig holds console output configuration
type ConsoleConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	PrettyPrint bool `mapstructure:"prettyPrint"`
}

// CustomMetricsConfig holds fine-grained custom metrics configuration
type CustomMetricsConfig struct {
	AIOperations    AIOperationsMetricsConfig   `mapstructure:"aiOperations"`
	BusinessMetrics BusinessMetricsConfig       `mapstructure:"businessMetrics"`
	Infrastructure  InfrastructureMetricsConfig `mapstructure:"infrastructure"`
}

// AIOperationsMetricsConfig holds AI operation metrics configuration
type AIOperationsMetricsConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	TrackDuration   bool `mapstructure:"trackDuration"`
	TrackTokenUsage bool `mapstructure:"trackTokenUsage"`
	TrackFailovers  bool `mapstructure:"trackFailovers"`
}

// BusinessMetricsConfig holds business metrics configuration
type BusinessMetricsConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	TrackSuccessRates bool `mapstructure:"trackSuccessRates"`
	TrackScores       bool `mapstructure:"trackScores"`
}

// InfrastructureMetricsConfig holds infrastructure metrics configuration
type InfrastructureMetricsConfig struct {
	Enabled          bool `mapstructure:"enabled"`
	TrackRateLimits  bool `mapstructure:"trackRateLimits"`
	TrackCacheEvents bool `mapstructure:"trackCacheEvents"`
}

// PrometheusConfig holds Prometheus configuration
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
	Port     string `mapstructure:"port"`
}

// OTLPConfig holds OTLP exporter configuration
type OTLPConfig struct {
	Enabled  bool              `mapstructure:"enabled"`
	Endpoint string            `mapstructure:"endpoint"`
	Insecure bool              `mapstructure:"insecure"`
	Headers  map[string]string `mapstructure:"headers"`
}

// HealthCheckConfig holds health check configuration
type HealthCheckConfig struct {
	Timeout             time.Duration `mapstructure:"timeout"`
	AIModelCheckTimeout time.Duration `mapstructure:"aiModelCheckTimeout"`
}

// LoadConfig loads configuration from environment variables and a config file
func LoadConfig() (*Config, error) {
	log.Println("[CONFIG] Starting configuration loading process")

	v := viper.New()

	// Set default values
	setDefaults(v)
	log.Println("[CONFIG] Applied default configuration values")

	// Set up environment variable handling
	v.SetEnvPrefix("RESUMEFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	log.Println("[CONFIG] Configured environment variable handling with prefix 'RESUMEFORGE'")

	// Set up config file handling
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/resumeforge/")
	v.AddConfigPath("$HOME/.resumeforge")
	v.AddConfigPath(".")
	log.Println("[CONFIG] Configured config file search paths: /etc/resumeforge/, $HOME/.resumeforge, .")

	// Read the config file
	configFileUsed := ""
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		log.Println("[CONFIG] No config file found, using defaults and environment variables")
	} else {
		configFileUsed = v.ConfigFileUsed()
		log.Printf("[CONFIG] Successfully loaded config file: %s", configFileUsed)
	}

	// Unmarshal the configuration into the Config struct
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	log.Println("[CONFIG] Successfully unmarshaled configuration")

	// Vault-supplied secrets (provider API keys, TLS material) must land
	// before the fallback pass so a Vault-only fallback key keeps failover on
	// and before Validate so a Vault-only primary key passes its check.
	if config.Vault.Enabled {
		vaultLogger, err := errors.New(config.App.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", config.App.LogLevel, err)
		}
		if err := ApplyVaultSecrets(&config, vaultLogger); err != nil {
			return nil, fmt.Errorf("failed to load secrets from Vault: %w", err)
		}
		log.Println("[CONFIG] Applied secrets from Vault")
	}

	// Apply fallback logic and environment overrides
	config.applyFallbacks()
	log.Println("[CONFIG] Applied configuration fallbacks and environment variable overrides")

	// Log configuration sources summary
	config.logConfigurationSources(configFileUsed)

	// Validate prompt files before attempting to load them
	if err := config.validatePromptFiles(); err != nil {
		return nil, fmt.Errorf("prompt file validation failed: %w", err)
	}

	// Load custom prompts from external files
	if err := config.loadPromptsFromFiles(); err != nil {
		return nil, fmt.Errorf("failed to load custom prompts from files: %w", err)
	}

	// Validate the configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log.Println("[CONFIG] Configuration loading completed successfully")
	return &config, nil
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// AI Gateway defaults
	v.SetDefault("ai.primary", "gemini")
	v.SetDefault("ai.fallback", "openai")
	v.SetDefault("ai.failoverEnabled", true)
	v.SetDefault("ai.maxRetries", 2)
	v.SetDefault("ai.retryDelay", time.Second)

	// AI Configuration - Global defaults
	v.SetDefault("ai.timeout", 60*time.Second)
	v.SetDefault("ai.temperature", 0.3)
	v.SetDefault("ai.maxTokens", 1024)
	v.SetDefault("ai.useSystemPrompts", true)

	// AI Configuration - Gemini backend defaults
	v.SetDefault("ai.gemini.apiKey", "")
	v.SetDefault("ai.gemini.model", "gemini-2.0-flash")
	v.SetDefault("ai.gemini.embeddingModel", "text-embedding-004")

	// AI Configuration - OpenAI backend defaults
	v.SetDefault("ai.openai.apiKey", "")
	v.SetDefault("ai.openai.baseURL", "")
	v.SetDefault("ai.openai.model", "gpt-4o-mini")
	v.SetDefault("ai.openai.embeddingModel", "text-embedding-3-small")

	// AI Configuration - Analyze operation defaults
	v.SetDefault("ai.analyze.timeout", 75*time.Second)
	v.SetDefault("ai.analyze.temperature", 0.3) // Low temperature for consistent analysis
	v.SetDefault("ai.analyze.maxTokens", 2000)
	v.SetDefault("ai.analyze.useSystemPrompts", true)

	// AI Configuration - Optimize operation defaults
	v.SetDefault("ai.optimize.timeout", 30*time.Second)
	v.SetDefault("ai.optimize.temperature", 0.7) // Higher temperature for varied phrasing
	v.SetDefault("ai.optimize.maxTokens", 200)
	v.SetDefault("ai.optimize.useSystemPrompts", true)

	// AI Configuration - Chat operation defaults
	v.SetDefault("ai.chat.timeout", 60*time.Second)
	v.SetDefault("ai.chat.temperature", 0.7)
	v.SetDefault("ai.chat.maxTokens", 500)
	v.SetDefault("ai.chat.useSystemPrompts", true)

	// AI Configuration - Parse operation defaults
	v.SetDefault("ai.parse.timeout", 75*time.Second)
	v.SetDefault("ai.parse.temperature", 0.1) // Low temperature for consistent extraction
	v.SetDefault("ai.parse.maxTokens", 1500)
	v.SetDefault("ai.parse.useSystemPrompts", true)

	// Circuit Breaker Configuration defaults (applied per backend)
	v.SetDefault("ai.circuitBreaker.enabled", true)
	v.SetDefault("ai.circuitBreaker.maxRequests", 3)
	v.SetDefault("ai.circuitBreaker.interval", 60*time.Second)
	v.SetDefault("ai.circuitBreaker.timeout", 60*time.Second)
	v.SetDefault("ai.circuitBreaker.minRequests", 3)
	v.SetDefault("ai.circuitBreaker.failureThreshold", 0.6)

	// Prompt reload defaults
	v.SetDefault("ai.promptReload.enabled", true)
	v.SetDefault("ai.promptReload.debounceDelay", time.Second)

	// Cache Configuration
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.ttl", 24*time.Hour)
	v.SetDefault("cache.rewarmTTL", 7*24*time.Hour)
	v.SetDefault("cache.cleanupInterval", 300*time.Second)
	v.SetDefault("cache.redis.addr", "localhost:6379")
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("cache.redis.db", 0)

	// Store Configuration
	v.SetDefault("store.backend", "memory")
	v.SetDefault("store.postgres.dsn", "")
	v.SetDefault("store.postgres.maxConns", 8)

	// Selection Configuration
	v.SetDefault("selection.maxExperiences", 4)
	v.SetDefault("selection.maxBulletsPerExperience", 4)
	v.SetDefault("selection.maxSkills", 15)
	v.SetDefault("selection.maxEducation", 2)

	// Server Configuration
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.readTimeout", 30*time.Second)
	v.SetDefault("server.writeTimeout", 30*time.Second)
	v.SetDefault("server.idleTimeout", 120*time.Second)
	v.SetDefault("server.maxRequestSize", 1024*1024) // 1MB
	// TLS Configuration defaults
	v.SetDefault("server.tls.mode", "disabled") // disabled, server
	v.SetDefault("server.tls.certFile", "")
	v.SetDefault("server.tls.keyFile", "")
	v.SetDefault("server.tls.minVersion", "1.2") // TLS 1.2 minimum
	// API Authentication defaults
	v.SetDefault("server.apiKeys", []string{})
	// Rate limiting defaults
	v.SetDefault("server.rateLimit.enabled", false)
	v.SetDefault("server.rateLimit.requestsPerMin", 60)
	v.SetDefault("server.rateLimit.burstCapacity", 10)
	v.SetDefault("server.rateLimit.byIP", true)
	v.SetDefault("server.rateLimit.byAPIKey", false)
	v.SetDefault("server.rateLimit.window", time.Minute)

	// App Configuration
	v.SetDefault("app.logLevel", "info")
	v.SetDefault("app.defaultFormat", "json")
	v.SetDefault("app.supportedFormats", []string{"json", "text", "markdown"})
	v.SetDefault("app.maxFileSize", 1024*1024) // 1MB

	// Vault Configuration
	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.address", "")
	v.SetDefault("vault.token", "")
	v.SetDefault("vault.tokenFile", "")
	v.SetDefault("vault.namespace", "")
	v.SetDefault("vault.secrets.apiKeys", "")
	v.SetDefault("vault.secrets.geminiKey", "")
	v.SetDefault("vault.secrets.openaiKey", "")
	v.SetDefault("vault.secrets.tlsCerts", "")

	// Observability Configuration
	v.SetDefault("observability.enabled", true)
	v.SetDefault("observability.serviceName", "resumeforge")
	v.SetDefault("observability.serviceVersion", "")  // Will use app version if empty
	v.SetDefault("observability.serviceInstance", "") // Will be auto-generated if empty
	v.SetDefault("observability.consoleOutput", false)
	v.SetDefault("observability.sampleRate", 1.0)

	// Tracing Configuration
	v.SetDefault("observability.tracing.enabled", true)
	v.SetDefault("observability.tracing.sampleRate", 1.0)

	// Metrics Configuration
	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.runtime", true)
	v.SetDefault("observability.metrics.collectionInterval", 15*time.Second)

	// Custom Metrics Configuration
	v.SetDefault("observability.customMetrics.aiOperations.enabled", true)
	v.SetDefault("observability.customMetrics.aiOperations.trackDuration", true)
	v.SetDefault("observability.customMetrics.aiOperations.trackTokenUsage", true)
	v.SetDefault("observability.customMetrics.aiOperations.trackFailovers", true)
	v.SetDefault("observability.customMetrics.businessMetrics.enabled", true)
	v.SetDefault("observability.customMetrics.businessMetrics.trackSuccessRates", true)
	v.SetDefault("observability.customMetrics.businessMetrics.trackScores", true)
	v.SetDefault("observability.customMetrics.infrastructure.enabled", true)
	v.SetDefault("observability.customMetrics.infrastructure.trackRateLimits", true)
	v.SetDefault("observability.customMetrics.infrastructure.trackCacheEvents", true)

	// Console Configuration
	v.SetDefault("observability.console.enabled", false)
	v.SetDefault("observability.console.prettyPrint", true)

	// Prometheus Configuration
	v.SetDefault("observability.prometheus.enabled", true)
	v.SetDefault("observability.prometheus.endpoint", "/metrics")
	v.SetDefault("observability.prometheus.port", "9090")

	// OTLP Configuration
	v.SetDefault("observability.otlp.enabled", false)
	v.SetDefault("observability.otlp.endpoint", "http://localhost:4318")
	v.SetDefault("observability.otlp.insecure", true)
	v.SetDefault("observability.otlp.headers", map[string]string{})

	// Health Check Configuration
	v.SetDefault("observability.healthCheck.timeout", 15*time.Second)
	v.SetDefault("observability.healthCheck.aiModelCheckTimeout", 10*time.Second)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.AI.Primary {
	case "gemini", "openai":
	default:
		return fmt.Errorf("invalid AI primary backend: %s (must be 'gemini' or 'openai')", c.AI.Primary)
	}

	if c.AI.Fallback != "" {
		switch c.AI.Fallback {
		case "gemini", "openai":
		default:
			return fmt.Errorf("invalid AI fallback backend: %s (must be 'gemini' or 'openai')", c.AI.Fallback)
		}
		if c.AI.FailoverEnabled && c.AI.Fallback == c.AI.Primary {
			return fmt.Errorf("AI fallback backend must differ from the primary backend")
		}
	}

	if c.PrimaryAPIKey() == "" {
		return fmt.Errorf("API key for primary backend %q is required (set RESUMEFORGE_AI_%s_APIKEY environment variable)",
			c.AI.Primary, strings.ToUpper(c.AI.Primary))
	}

	if c.AI.MaxRetries < 1 {
		return fmt.Errorf("AI maxRetries must be at least 1")
	}

	if c.AI.RetryDelay < 0 {
		return fmt.Errorf("AI retryDelay must not be negative")
	}

	if c.AI.Timeout <= 0 {
		return fmt.Errorf("AI timeout must be positive")
	}

	if c.AI.Temperature < 0 || c.AI.Temperature > 2 {
		return fmt.Errorf("AI temperature must be between 0 and 2")
	}

	switch c.Cache.Backend {
	case "memory":
	case "redis":
		if c.Cache.Redis.Addr == "" {
			return fmt.Errorf("redis address is required for redis cache backend")
		}
	default:
		return fmt.Errorf("invalid cache backend: %s (must be 'memory' or 'redis')", c.Cache.Backend)
	}

	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache TTL must be positive")
	}

	switch c.Store.Backend {
	case "memory":
	case "postgres":
		if c.Store.Postgres.DSN == "" {
			return fmt.Errorf("postgres DSN is required for postgres store backend")
		}
	default:
		return fmt.Errorf("invalid store backend: %s (must be 'memory' or 'postgres')", c.Store.Backend)
	}

	if c.Selection.MaxExperiences < 1 || c.Selection.MaxBulletsPerExperience < 1 ||
		c.Selection.MaxSkills < 1 || c.Selection.MaxEducation < 1 {
		return fmt.Errorf("selection limits must all be at least 1")
	}

	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	validFormats := make(map[string]bool)
	for _, format := range c.App.SupportedFormats {
		validFormats[format] = true
	}
	if !validFormats[c.App.DefaultFormat] {
		return fmt.Errorf("invalid default format: %s", c.App.DefaultFormat)
	}

	// Validate TLS configuration
	if err := c.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("TLS configuration error: %w", err)
	}

	return nil
}

// PrimaryAPIKey returns the API key configured for the primary backend
func (c *Config) PrimaryAPIKey() string {
	if c.AI.Primary == "openai" {
		return c.AI.OpenAI.APIKey
	}
	return c.AI.Gemini.APIKey
}

// FallbackAPIKey returns the API key configured for the fallback backend
func (c *Config) FallbackAPIKey() string {
	switch c.AI.Fallback {
	case "gemini":
		return c.AI.Gemini.APIKey
	case "openai":
		return c.AI.OpenAI.APIKey
	}
	return ""
}

// Global configuration instance
var GlobalConfig *Config

// InitConfig initializes the global configuration
func InitConfig() error {
	config, err := LoadConfig()
	if err != nil {
		return err
	}
	GlobalConfig = config
	return nil
}
