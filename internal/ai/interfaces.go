package ai

import (
	"context"
)

// Operation names used for prompt resolution, tracing, and metric labels
const (
	OpAnalyze  = "analyze"
	OpOptimize = "optimize"
	OpChat     = "chat"
	OpParse    = "parse"
)

// GenerateRequest describes a single text-generation call
type GenerateRequest struct {
	Operation    string  // Operation label: "analyze", "optimize", "chat", "parse"
	Prompt       string  // User prompt, fully formatted
	SystemPrompt string  // System instruction, empty to omit
	Temperature  float32 // Sampling temperature, 0 to use the backend default
	MaxTokens    int32   // Response token cap, 0 to use the backend default
}

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// AIOperationResult holds the result of an AI operation including token usage
type AIOperationResult struct {
	Error      error
	TokenUsage *TokenUsage
}

// ModelInfo represents information about an AI model
type ModelInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	Version     string `json:"version,omitempty"`
	Available   bool   `json:"available"`
	Error       string `json:"error,omitempty"`
}

// Provider is a single text-generation backend. Implementations make exactly
// one upstream attempt per call; retries and failover belong to the Manager.
// Generation methods return token usage information - callers can ignore it if not needed
type Provider interface {
	GenerateText(ctx context.Context, req GenerateRequest) (string, *TokenUsage, error)
	EmbedText(ctx context.Context, text string) ([]float32, error)
	Name() string
	GetModelInfo(ctx context.Context) *ModelInfo
	Close() error
}
