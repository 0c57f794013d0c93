package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"resumeforge/internal/config"
	resumeforgeErrors "resumeforge/internal/errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

// GeminiProvider implements Provider for Google Gemini
type GeminiProvider struct {
	client  *genai.Client
	cfg     config.GeminiConfig
	breaker *AICircuitBreaker[*genai.GenerateContentResponse]
	logger  *resumeforgeErrors.Logger
}

// Ensure GeminiProvider implements Provider
var _ Provider = (*GeminiProvider)(nil)

// NewGeminiProvider creates a new Gemini backend instance
func NewGeminiProvider(cfg config.GeminiConfig, breakerCfg config.CircuitBreakerConfig, logger *resumeforgeErrors.Logger) (*GeminiProvider, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, resumeforgeErrors.NewConfigError(resumeforgeErrors.ErrCodeInvalidConfig,
			"Failed to create Gemini client", err)
	}

	return &GeminiProvider{
		client:  client,
		cfg:     cfg,
		breaker: NewAICircuitBreaker[*genai.GenerateContentResponse]("gemini", breakerCfg, logger),
		logger:  logger,
	}, nil
}

// Name implements Provider
func (g *GeminiProvider) Name() string {
	return "gemini"
}

// GenerateText implements Provider with a single generation attempt
func (g *GeminiProvider) GenerateText(ctx context.Context, req GenerateRequest) (string, *TokenUsage, error) {
	tracer := otel.Tracer("resumeforge.ai.gemini")
	ctx, span := tracer.Start(ctx, "gemini."+req.Operation)
	defer span.End()

	span.SetAttributes(
		attribute.String("ai.provider", "gemini"),
		attribute.String("ai.model", g.cfg.Model),
		attribute.String("ai.operation", req.Operation),
		attribute.Float64("ai.temperature", float64(req.Temperature)),
		attribute.Int("input.prompt_length", len(req.Prompt)),
	)

	genaiConfig := &genai.GenerateContentConfig{}
	if req.Temperature > 0 {
		genaiConfig.Temperature = genai.Ptr(req.Temperature)
	}
	if req.MaxTokens > 0 {
		genaiConfig.MaxOutputTokens = req.MaxTokens
	}
	if req.SystemPrompt != "" {
		genaiConfig.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}

	result, err := g.breaker.Execute(func() (*genai.GenerateContentResponse, error) {
		return g.client.Models.GenerateContent(ctx, g.cfg.Model, genai.Text(req.Prompt), genaiConfig)
	})
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return "", nil, g.wrapError(req.Operation, err)
	}

	tokenUsage := extractTokenUsage(result)
	if tokenUsage != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", tokenUsage.InputTokens),
			attribute.Int64("ai.tokens.output", tokenUsage.OutputTokens),
			attribute.Int64("ai.tokens.total", tokenUsage.TotalTokens),
		)
	}

	span.SetAttributes(attribute.Bool("success", true))
	return result.Text(), tokenUsage, nil
}

// EmbedText implements Provider using the configured embedding model
func (g *GeminiProvider) EmbedText(ctx context.Context, text string) ([]float32, error) {
	result, err := g.client.Models.EmbedContent(ctx, g.cfg.EmbeddingModel, genai.Text(text), nil)
	if err != nil {
		return nil, g.wrapError("embed", err)
	}

	if len(result.Embeddings) == 0 || len(result.Embeddings[0].Values) == 0 {
		return nil, resumeforgeErrors.NewMalformedOutputError(resumeforgeErrors.ErrCodeMalformedOutput,
			"Gemini returned an empty embedding", nil)
	}

	return result.Embeddings[0].Values, nil
}

// GetModelInfo checks the readiness and availability of the configured model.
// Callers own the deadline; health checks wrap ctx with their check timeout.
func (g *GeminiProvider) GetModelInfo(ctx context.Context) *ModelInfo {
	modelInfo := &ModelInfo{
		Name:      g.cfg.Model,
		Available: false,
	}

	model, err := g.client.Models.Get(ctx, g.cfg.Model, &genai.GetModelConfig{})
	if err != nil {
		modelInfo.Error = fmt.Sprintf("Failed to get model info: %v", err)

		g.logger.Warn("Model availability check failed",
			"model", g.cfg.Model,
			"provider", "gemini",
			"error", err.Error())
		return modelInfo
	}

	modelInfo.Available = true
	if model.DisplayName != "" {
		modelInfo.DisplayName = model.DisplayName
	}
	if model.Version != "" {
		modelInfo.Version = model.Version
	}

	g.logger.Debug("Model availability check successful",
		"model", g.cfg.Model,
		"provider", "gemini",
		"display_name", modelInfo.DisplayName,
		"version", modelInfo.Version)

	return modelInfo
}

// GetCircuitBreakerStats returns circuit breaker statistics
func (g *GeminiProvider) GetCircuitBreakerStats() map[string]any {
	return map[string]any{
		"generation": g.breaker.GetStats(),
		"healthy":    g.breaker.IsHealthy(),
	}
}

// Close implements Provider
func (g *GeminiProvider) Close() error {
	// Gemini client doesn't have a Close method in current single-shot usage
	// Probably needed in streaming mode
	return nil
}

// wrapError maps a backend failure to the application error taxonomy
func (g *GeminiProvider) wrapError(operation string, err error) error {
	if g.isRetryableError(err) {
		return resumeforgeErrors.NewNetworkError(resumeforgeErrors.ErrCodeNetworkTimeout,
			"Gemini backend unavailable for "+operation, err)
	}
	return resumeforgeErrors.NewGenerationError(resumeforgeErrors.ErrCodeGenerationFailed,
		"Gemini generation failed for "+operation, err)
}

// isRetryableError reports whether the failure is a transient transport or quota fault
func (g *GeminiProvider) isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	// Check for network errors (timeouts, connection issues)
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return true
		}
		// Consider other network errors transient (e.g., connection refused)
		return true
	}

	// Check for Google API errors (HTTP status codes)
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
	}

	return false
}

// extractTokenUsage extracts token usage information from a Gemini API response
func extractTokenUsage(result *genai.GenerateContentResponse) *TokenUsage {
	if result == nil || result.UsageMetadata == nil {
		return nil
	}

	usage := result.UsageMetadata
	return &TokenUsage{
		InputTokens:  int64(usage.PromptTokenCount),
		OutputTokens: int64(usage.CandidatesTokenCount),
		TotalTokens:  int64(usage.TotalTokenCount),
	}
}
