package ai

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"resumeforge/internal/config"
	resumeforgeErrors "resumeforge/internal/errors"
)

// fakeProvider is a scriptable Provider: the first failUntil calls fail with
// err, subsequent calls succeed.
type fakeProvider struct {
	name      string
	calls     int
	failUntil int
	err       error
}

func (f *fakeProvider) GenerateText(ctx context.Context, req GenerateRequest) (string, *TokenUsage, error) {
	f.calls++
	if f.calls <= f.failUntil {
		return "", nil, f.err
	}
	return "generated by " + f.name, &TokenUsage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}, nil
}

func (f *fakeProvider) EmbedText(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	if f.calls <= f.failUntil {
		return nil, f.err
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func (f *fakeProvider) Name() string {
	return f.name
}

func (f *fakeProvider) GetModelInfo(ctx context.Context) *ModelInfo {
	return &ModelInfo{Name: f.name, Available: true}
}

func (f *fakeProvider) Close() error {
	return nil
}

func newTestManager(t *testing.T, primary, fallback Provider) *Manager {
	t.Helper()
	logger, err := resumeforgeErrors.New("debug")
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	cfg := &config.AIConfig{
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
	}
	return NewManager(primary, fallback, cfg, logger)
}

func TestManagerFirstAttemptSuccess(t *testing.T) {
	primary := &fakeProvider{name: "gemini"}
	fallback := &fakeProvider{name: "openai"}
	m := newTestManager(t, primary, fallback)

	text, usage, err := m.GenerateText(context.Background(), GenerateRequest{Operation: OpAnalyze, Prompt: "hello"})
	if err != nil {
		t.Fatalf("GenerateText failed: %v", err)
	}
	if text != "generated by gemini" {
		t.Errorf("Expected primary response, got %q", text)
	}
	if usage == nil || usage.TotalTokens != 15 {
		t.Errorf("Expected token usage from primary, got %+v", usage)
	}
	if primary.calls != 1 {
		t.Errorf("Expected 1 primary call, got %d", primary.calls)
	}
	if fallback.calls != 0 {
		t.Errorf("Expected 0 fallback calls, got %d", fallback.calls)
	}
	if got := m.CurrentProvider(); got != "gemini" {
		t.Errorf("Expected active backend gemini, got %s", got)
	}
}

func TestManagerRetriesThenSucceeds(t *testing.T) {
	primary := &fakeProvider{name: "gemini", failUntil: 1, err: errors.New("transient fault")}
	fallback := &fakeProvider{name: "openai"}
	m := newTestManager(t, primary, fallback)

	text, _, err := m.GenerateText(context.Background(), GenerateRequest{Operation: OpAnalyze, Prompt: "hello"})
	if err != nil {
		t.Fatalf("GenerateText failed: %v", err)
	}
	if text != "generated by gemini" {
		t.Errorf("Expected primary response after retry, got %q", text)
	}
	if primary.calls != 2 {
		t.Errorf("Expected 2 primary attempts, got %d", primary.calls)
	}
	if fallback.calls != 0 {
		t.Errorf("Retry success should not touch the fallback, got %d calls", fallback.calls)
	}
	if got := m.CurrentProvider(); got != "gemini" {
		t.Errorf("Expected active backend gemini, got %s", got)
	}
}

func TestManagerFailsOverToFallback(t *testing.T) {
	primary := &fakeProvider{name: "gemini", failUntil: 100, err: errors.New("persistent fault")}
	fallback := &fakeProvider{name: "openai"}
	m := newTestManager(t, primary, fallback)

	text, _, err := m.GenerateText(context.Background(), GenerateRequest{Operation: OpAnalyze, Prompt: "hello"})
	if err != nil {
		t.Fatalf("GenerateText failed: %v", err)
	}
	if text != "generated by openai" {
		t.Errorf("Expected fallback response, got %q", text)
	}
	if primary.calls != 2 {
		t.Errorf("Expected maxRetries (2) primary attempts before failover, got %d", primary.calls)
	}
	if fallback.calls != 1 {
		t.Errorf("Expected exactly 1 fallback attempt, got %d", fallback.calls)
	}
	if got := m.CurrentProvider(); got != "openai" {
		t.Errorf("Expected active backend openai after failover, got %s", got)
	}

	// The switch is sticky: the next call goes straight to the fallback
	_, _, err = m.GenerateText(context.Background(), GenerateRequest{Operation: OpOptimize, Prompt: "again"})
	if err != nil {
		t.Fatalf("GenerateText on fallback failed: %v", err)
	}
	if primary.calls != 2 {
		t.Errorf("Primary should not be retried after failover, got %d calls", primary.calls)
	}
	if fallback.calls != 2 {
		t.Errorf("Expected fallback to serve the second call, got %d calls", fallback.calls)
	}
}

func TestManagerFailoverHook(t *testing.T) {
	primary := &fakeProvider{name: "gemini", failUntil: 100, err: errors.New("persistent fault")}
	fallback := &fakeProvider{name: "openai"}
	m := newTestManager(t, primary, fallback)

	type failover struct {
		operation, from, to string
	}
	var seen []failover
	m.SetFailoverHook(func(operation, from, to string) {
		seen = append(seen, failover{operation, from, to})
	})

	_, _, err := m.GenerateText(context.Background(), GenerateRequest{Operation: OpOptimize, Prompt: "hello"})
	if err != nil {
		t.Fatalf("GenerateText failed: %v", err)
	}
	if len(seen) != 1 {
		t.Fatalf("Expected 1 failover notification, got %d", len(seen))
	}
	if seen[0] != (failover{OpOptimize, "gemini", "openai"}) {
		t.Errorf("Unexpected failover notification: %+v", seen[0])
	}

	// Sticky fallback serves subsequent calls without another notification
	_, _, err = m.GenerateText(context.Background(), GenerateRequest{Operation: OpAnalyze, Prompt: "again"})
	if err != nil {
		t.Fatalf("GenerateText on fallback failed: %v", err)
	}
	if len(seen) != 1 {
		t.Errorf("Expected no further notifications, got %d", len(seen))
	}
}

func TestManagerBothBackendsFail(t *testing.T) {
	primary := &fakeProvider{name: "gemini", failUntil: 100, err: errors.New("primary down")}
	fallback := &fakeProvider{name: "openai", failUntil: 100, err: errors.New("fallback down")}
	m := newTestManager(t, primary, fallback)

	_, _, err := m.GenerateText(context.Background(), GenerateRequest{Operation: OpAnalyze, Prompt: "hello"})
	if err == nil {
		t.Fatal("Expected error when both backends fail")
	}
	if !resumeforgeErrors.IsGeneration(err) {
		t.Errorf("Expected a generation error, got %v", err)
	}

	var appErr *resumeforgeErrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("Expected AppError, got %T", err)
	}
	if appErr.Code != resumeforgeErrors.ErrCodeAllBackendsFailed {
		t.Errorf("Expected code %s, got %s", resumeforgeErrors.ErrCodeAllBackendsFailed, appErr.Code)
	}
	if !strings.Contains(appErr.Message, "gemini") || !strings.Contains(appErr.Message, "openai") {
		t.Errorf("Expected both backend names in message, got %q", appErr.Message)
	}
	if _, ok := appErr.Context["primary_error"]; !ok {
		t.Error("Expected primary_error in error context")
	}
	if _, ok := appErr.Context["fallback_error"]; !ok {
		t.Error("Expected fallback_error in error context")
	}
}

func TestManagerNoFallbackConfigured(t *testing.T) {
	primary := &fakeProvider{name: "gemini", failUntil: 100, err: errors.New("primary down")}
	m := newTestManager(t, primary, nil)

	_, _, err := m.GenerateText(context.Background(), GenerateRequest{Operation: OpAnalyze, Prompt: "hello"})
	if err == nil {
		t.Fatal("Expected error when the only backend fails")
	}

	var appErr *resumeforgeErrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("Expected AppError, got %T", err)
	}
	if appErr.Code != resumeforgeErrors.ErrCodeGenerationFailed {
		t.Errorf("Expected code %s, got %s", resumeforgeErrors.ErrCodeGenerationFailed, appErr.Code)
	}
	if primary.calls != 2 {
		t.Errorf("Expected maxRetries (2) attempts, got %d", primary.calls)
	}
	if got := m.CurrentProvider(); got != "gemini" {
		t.Errorf("Backend should stay on primary with no fallback, got %s", got)
	}
}

func TestManagerResetToPrimary(t *testing.T) {
	primary := &fakeProvider{name: "gemini", failUntil: 2, err: errors.New("temporary outage")}
	fallback := &fakeProvider{name: "openai"}
	m := newTestManager(t, primary, fallback)

	if _, _, err := m.GenerateText(context.Background(), GenerateRequest{Operation: OpAnalyze, Prompt: "hello"}); err != nil {
		t.Fatalf("GenerateText failed: %v", err)
	}
	if got := m.CurrentProvider(); got != "openai" {
		t.Fatalf("Expected failover to openai, got %s", got)
	}

	m.ResetToPrimary()
	if got := m.CurrentProvider(); got != "gemini" {
		t.Errorf("Expected active backend gemini after reset, got %s", got)
	}

	// Primary has recovered (failUntil exhausted), so the next call stays on it
	text, _, err := m.GenerateText(context.Background(), GenerateRequest{Operation: OpAnalyze, Prompt: "hello"})
	if err != nil {
		t.Fatalf("GenerateText after reset failed: %v", err)
	}
	if text != "generated by gemini" {
		t.Errorf("Expected primary response after reset, got %q", text)
	}
}

func TestManagerEmbedTextFailover(t *testing.T) {
	primary := &fakeProvider{name: "gemini", failUntil: 100, err: errors.New("primary down")}
	fallback := &fakeProvider{name: "openai"}
	m := newTestManager(t, primary, fallback)

	vector, err := m.EmbedText(context.Background(), "some text")
	if err != nil {
		t.Fatalf("EmbedText failed: %v", err)
	}
	if len(vector) != 3 {
		t.Errorf("Expected fallback embedding of length 3, got %d", len(vector))
	}
	if got := m.CurrentProvider(); got != "openai" {
		t.Errorf("Expected active backend openai after failover, got %s", got)
	}
}

func TestManagerContextCancelledDuringRetryDelay(t *testing.T) {
	primary := &fakeProvider{name: "gemini", failUntil: 100, err: errors.New("primary down")}
	logger, err := resumeforgeErrors.New("debug")
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	cfg := &config.AIConfig{
		MaxRetries: 3,
		RetryDelay: time.Hour, // Would block without cancellation
	}
	m := NewManager(primary, nil, cfg, logger)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, _, genErr := m.GenerateText(ctx, GenerateRequest{Operation: OpAnalyze, Prompt: "hello"})
	if !errors.Is(genErr, context.Canceled) {
		t.Errorf("Expected context.Canceled during retry delay, got %v", genErr)
	}
	if primary.calls != 1 {
		t.Errorf("Expected a single attempt before cancellation, got %d", primary.calls)
	}
}

func TestManagerUnsupportedBackend(t *testing.T) {
	logger, err := resumeforgeErrors.New("debug")
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	cfg := &config.Config{}
	cfg.AI.Primary = "watson"

	_, mgrErr := NewManagerFromConfig(cfg, logger)
	if mgrErr == nil {
		t.Fatal("Expected error for unsupported backend")
	}
	if !strings.Contains(mgrErr.Error(), "Unsupported AI backend") {
		t.Errorf("Expected unsupported backend error, got %v", mgrErr)
	}
}
