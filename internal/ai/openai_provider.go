package ai

import (
	"context"
	"errors"
	"fmt"
	"net"

	"resumeforge/internal/config"
	resumeforgeErrors "resumeforge/internal/errors"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// OpenAIProvider implements Provider for OpenAI and OpenAI-compatible endpoints
type OpenAIProvider struct {
	client  *openai.Client
	cfg     config.OpenAIConfig
	breaker *AICircuitBreaker[*openai.ChatCompletion]
	logger  *resumeforgeErrors.Logger
}

// Ensure OpenAIProvider implements Provider
var _ Provider = (*OpenAIProvider)(nil)

// NewOpenAIProvider creates a new OpenAI backend instance. A custom BaseURL
// points the client at an OpenAI-compatible endpoint.
func NewOpenAIProvider(cfg config.OpenAIConfig, breakerCfg config.CircuitBreakerConfig, logger *resumeforgeErrors.Logger) (*OpenAIProvider, error) {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIProvider{
		client:  openai.NewClient(opts...),
		cfg:     cfg,
		breaker: NewAICircuitBreaker[*openai.ChatCompletion]("openai", breakerCfg, logger),
		logger:  logger,
	}, nil
}

// Name implements Provider
func (o *OpenAIProvider) Name() string {
	return "openai"
}

// GenerateText implements Provider with a single generation attempt
func (o *OpenAIProvider) GenerateText(ctx context.Context, req GenerateRequest) (string, *TokenUsage, error) {
	tracer := otel.Tracer("resumeforge.ai.openai")
	ctx, span := tracer.Start(ctx, "openai."+req.Operation)
	defer span.End()

	span.SetAttributes(
		attribute.String("ai.provider", "openai"),
		attribute.String("ai.model", o.cfg.Model),
		attribute.String("ai.operation", req.Operation),
		attribute.Float64("ai.temperature", float64(req.Temperature)),
		attribute.Int("input.prompt_length", len(req.Prompt)),
	)

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, openai.SystemMessage(req.SystemPrompt))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	params := openai.ChatCompletionNewParams{
		Model:    openai.F(o.cfg.Model),
		Messages: openai.F(messages),
	}
	if req.Temperature > 0 {
		params.Temperature = openai.F(float64(req.Temperature))
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.F(int64(req.MaxTokens))
	}

	completion, err := o.breaker.Execute(func() (*openai.ChatCompletion, error) {
		return o.client.Chat.Completions.New(ctx, params)
	})
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return "", nil, o.wrapError(req.Operation, err)
	}

	if len(completion.Choices) == 0 {
		err := resumeforgeErrors.NewMalformedOutputError(resumeforgeErrors.ErrCodeMalformedOutput,
			"OpenAI returned no completion choices", nil)
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return "", nil, err
	}

	tokenUsage := &TokenUsage{
		InputTokens:  completion.Usage.PromptTokens,
		OutputTokens: completion.Usage.CompletionTokens,
		TotalTokens:  completion.Usage.TotalTokens,
	}
	span.SetAttributes(
		attribute.Int64("ai.tokens.input", tokenUsage.InputTokens),
		attribute.Int64("ai.tokens.output", tokenUsage.OutputTokens),
		attribute.Int64("ai.tokens.total", tokenUsage.TotalTokens),
	)

	span.SetAttributes(attribute.Bool("success", true))
	return completion.Choices[0].Message.Content, tokenUsage, nil
}

// EmbedText implements Provider using the configured embedding model
func (o *OpenAIProvider) EmbedText(ctx context.Context, text string) ([]float32, error) {
	resp, err := o.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: openai.F(o.cfg.EmbeddingModel),
		Input: openai.F[openai.EmbeddingNewParamsInputUnion](
			openai.EmbeddingNewParamsInputArrayOfStrings([]string{text})),
	})
	if err != nil {
		return nil, o.wrapError("embed", err)
	}

	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, resumeforgeErrors.NewMalformedOutputError(resumeforgeErrors.ErrCodeMalformedOutput,
			"OpenAI returned an empty embedding", nil)
	}

	vector := make([]float32, len(resp.Data[0].Embedding))
	for i, v := range resp.Data[0].Embedding {
		vector[i] = float32(v)
	}
	return vector, nil
}

// GetModelInfo checks the readiness and availability of the configured model.
// Callers own the deadline; health checks wrap ctx with their check timeout.
func (o *OpenAIProvider) GetModelInfo(ctx context.Context) *ModelInfo {
	modelInfo := &ModelInfo{
		Name:      o.cfg.Model,
		Available: false,
	}

	model, err := o.client.Models.Get(ctx, o.cfg.Model)
	if err != nil {
		modelInfo.Error = fmt.Sprintf("Failed to get model info: %v", err)

		o.logger.Warn("Model availability check failed",
			"model", o.cfg.Model,
			"provider", "openai",
			"error", err.Error())
		return modelInfo
	}

	modelInfo.Available = true
	modelInfo.DisplayName = model.ID

	o.logger.Debug("Model availability check successful",
		"model", o.cfg.Model,
		"provider", "openai",
		"owned_by", model.OwnedBy)

	return modelInfo
}

// GetCircuitBreakerStats returns circuit breaker statistics
func (o *OpenAIProvider) GetCircuitBreakerStats() map[string]any {
	return map[string]any{
		"generation": o.breaker.GetStats(),
		"healthy":    o.breaker.IsHealthy(),
	}
}

// Close implements Provider
func (o *OpenAIProvider) Close() error {
	return nil
}

// wrapError maps a backend failure to the application error taxonomy
func (o *OpenAIProvider) wrapError(operation string, err error) error {
	if o.isRetryableError(err) {
		return resumeforgeErrors.NewNetworkError(resumeforgeErrors.ErrCodeNetworkTimeout,
			"OpenAI backend unavailable for "+operation, err)
	}
	return resumeforgeErrors.NewGenerationError(resumeforgeErrors.ErrCodeGenerationFailed,
		"OpenAI generation failed for "+operation, err)
}

// isRetryableError reports whether the failure is a transient transport or quota fault
func (o *OpenAIProvider) isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == 429 || apiErr.StatusCode >= 500 {
			return true
		}
	}

	return false
}
