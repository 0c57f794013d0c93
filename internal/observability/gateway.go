package observability

import (
	"context"

	"resumeforge/internal/ai"
)

// Gateway is the subset of the AI manager the instrumented wrapper covers.
type Gateway interface {
	GenerateText(ctx context.Context, req ai.GenerateRequest) (string, *ai.TokenUsage, error)
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// InstrumentedGateway wraps an AI gateway so every generation call is
// traced and recorded with token usage. Components that consume a
// Generator interface can take this in place of the raw manager.
type InstrumentedGateway struct {
	gateway Gateway
	om      *Manager
}

func NewInstrumentedGateway(gateway Gateway, om *Manager) *InstrumentedGateway {
	return &InstrumentedGateway{gateway: gateway, om: om}
}

func (g *InstrumentedGateway) GenerateText(ctx context.Context, req ai.GenerateRequest) (string, *ai.TokenUsage, error) {
	var (
		text  string
		usage *ai.TokenUsage
	)
	err := g.om.GetMetrics().TrackGenerationWithTokens(ctx, req.Operation, func(ctx context.Context) *GenerationResult {
		var genErr error
		text, usage, genErr = g.gateway.GenerateText(ctx, req)
		result := &GenerationResult{Error: genErr}
		if usage != nil {
			result.TokenUsage = &TokenUsage{
				InputTokens:  usage.InputTokens,
				OutputTokens: usage.OutputTokens,
				TotalTokens:  usage.TotalTokens,
			}
		}
		return result
	}, g.om)
	return text, usage, err
}

func (g *InstrumentedGateway) EmbedText(ctx context.Context, text string) ([]float32, error) {
	tracer := g.om.Tracer("resumeforge.generation")
	ctx, span := tracer.Start(ctx, "generation.embed")
	defer span.End()

	vector, err := g.gateway.EmbedText(ctx, text)
	if err != nil {
		span.RecordError(err)
	}
	return vector, err
}
