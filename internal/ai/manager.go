package ai

import (
	"context"
	"fmt"
	"sync"
	"time"

	"resumeforge/internal/config"
	resumeforgeErrors "resumeforge/internal/errors"
)

// Manager routes AI calls to the active backend, retrying failed attempts and
// failing over from primary to fallback. Once the manager switches to the
// fallback it stays there until ResetToPrimary is called; a later success does
// not switch back on its own.
type Manager struct {
	mu       sync.RWMutex
	primary  Provider
	fallback Provider
	active   Provider

	maxRetries int
	retryDelay time.Duration
	logger     *resumeforgeErrors.Logger
	onFailover func(operation, from, to string)
}

// NewManager wires already-constructed providers into a gateway. fallback may
// be nil to disable failover.
func NewManager(primary, fallback Provider, cfg *config.AIConfig, logger *resumeforgeErrors.Logger) *Manager {
	maxRetries := cfg.MaxRetries
	if maxRetries < 1 {
		maxRetries = 1
	}

	return &Manager{
		primary:    primary,
		fallback:   fallback,
		active:     primary,
		maxRetries: maxRetries,
		retryDelay: cfg.RetryDelay,
		logger:     logger,
	}
}

// NewManagerFromConfig constructs the configured backends and wires them into
// a gateway
func NewManagerFromConfig(cfg *config.Config, logger *resumeforgeErrors.Logger) (*Manager, error) {
	primary, err := newProvider(cfg.AI.Primary, cfg, logger)
	if err != nil {
		return nil, err
	}

	var fallback Provider
	if cfg.AI.FailoverEnabled && cfg.AI.Fallback != "" {
		fallback, err = newProvider(cfg.AI.Fallback, cfg, logger)
		if err != nil {
			_ = primary.Close()
			return nil, err
		}
	}

	return NewManager(primary, fallback, &cfg.AI, logger), nil
}

// newProvider constructs a single backend by name
func newProvider(backend string, cfg *config.Config, logger *resumeforgeErrors.Logger) (Provider, error) {
	switch backend {
	case "gemini":
		return NewGeminiProvider(cfg.AI.Gemini, cfg.AI.CircuitBreaker, logger)
	case "openai":
		return NewOpenAIProvider(cfg.AI.OpenAI, cfg.AI.CircuitBreaker, logger)
	default:
		return nil, resumeforgeErrors.NewConfigError(resumeforgeErrors.ErrCodeInvalidConfig,
			fmt.Sprintf("Unsupported AI backend: %s", backend), nil)
	}
}

// generateResult bundles the two generation outputs through the generic failover path
type generateResult struct {
	text  string
	usage *TokenUsage
}

// GenerateText generates text on the active backend with retry and failover
func (m *Manager) GenerateText(ctx context.Context, req GenerateRequest) (string, *TokenUsage, error) {
	result, err := executeWithFailover(m, ctx, req.Operation, func(ctx context.Context, p Provider) (generateResult, error) {
		text, usage, err := p.GenerateText(ctx, req)
		return generateResult{text: text, usage: usage}, err
	})
	if err != nil {
		return "", nil, err
	}
	return result.text, result.usage, nil
}

// EmbedText computes an embedding on the active backend with retry and failover
func (m *Manager) EmbedText(ctx context.Context, text string) ([]float32, error) {
	return executeWithFailover(m, ctx, "embed", func(ctx context.Context, p Provider) ([]float32, error) {
		return p.EmbedText(ctx, text)
	})
}

// executeWithFailover runs a call against the active backend with retries.
// When every attempt on the primary fails and a fallback is configured, it
// switches the active backend and makes exactly one attempt on the fallback.
func executeWithFailover[T any](m *Manager, ctx context.Context, operation string, call func(context.Context, Provider) (T, error)) (T, error) {
	var zero T

	m.mu.RLock()
	active := m.active
	m.mu.RUnlock()

	result, activeErr := executeWithRetries(m, ctx, operation, active, call)
	if activeErr == nil {
		return result, nil
	}

	m.mu.RLock()
	isPrimary := m.active == m.primary
	fallback := m.fallback
	m.mu.RUnlock()

	if !isPrimary || fallback == nil {
		return zero, resumeforgeErrors.NewGenerationError(resumeforgeErrors.ErrCodeGenerationFailed,
			fmt.Sprintf("AI backend %s failed %s after %d attempts", active.Name(), operation, m.maxRetries),
			activeErr)
	}

	m.logger.Warn("Primary AI backend exhausted all attempts, switching to fallback",
		"operation", operation,
		"primary", active.Name(),
		"fallback", fallback.Name(),
		"error", activeErr.Error())

	m.mu.Lock()
	m.active = fallback
	hook := m.onFailover
	m.mu.Unlock()

	if hook != nil {
		hook(operation, active.Name(), fallback.Name())
	}

	result, fallbackErr := call(ctx, fallback)
	if fallbackErr == nil {
		return result, nil
	}

	return zero, resumeforgeErrors.NewGenerationError(resumeforgeErrors.ErrCodeAllBackendsFailed,
		fmt.Sprintf("Both primary (%s) and fallback (%s) backends failed for %s", active.Name(), fallback.Name(), operation),
		fallbackErr).
		WithContext("primary_error", activeErr.Error()).
		WithContext("fallback_error", fallbackErr.Error())
}

// executeWithRetries makes up to maxRetries attempts against one backend with
// a fixed delay between attempts
func executeWithRetries[T any](m *Manager, ctx context.Context, operation string, provider Provider, call func(context.Context, Provider) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 1; attempt <= m.maxRetries; attempt++ {
		if attempt > 1 {
			m.logger.Warn("Retrying AI operation",
				"operation", operation,
				"backend", provider.Name(),
				"attempt", attempt,
				"max_retries", m.maxRetries,
				"error", lastErr.Error())

			select {
			case <-time.After(m.retryDelay):
			case <-ctx.Done():
				return zero, ctx.Err()
			}
		}

		result, err := call(ctx, provider)
		if err == nil {
			if attempt > 1 {
				m.logger.Info("AI operation succeeded after retry",
					"operation", operation,
					"backend", provider.Name(),
					"attempt", attempt)
			}
			return result, nil
		}
		lastErr = err
	}

	return zero, lastErr
}

// SetFailoverHook registers a callback invoked each time the gateway switches
// from the primary backend to the fallback. Set it before serving traffic.
func (m *Manager) SetFailoverHook(hook func(operation, from, to string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onFailover = hook
}

// CurrentProvider returns the name of the backend currently serving requests
func (m *Manager) CurrentProvider() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active.Name()
}

// ResetToPrimary switches the gateway back to the primary backend
func (m *Manager) ResetToPrimary() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active != m.primary {
		m.logger.Info("Resetting AI gateway to primary backend",
			"from", m.active.Name(),
			"to", m.primary.Name())
		m.active = m.primary
	}
}

// GetModelInfo reports the availability of the active backend's model
func (m *Manager) GetModelInfo(ctx context.Context) *ModelInfo {
	m.mu.RLock()
	active := m.active
	m.mu.RUnlock()
	return active.GetModelInfo(ctx)
}

// breakerStatsProvider is implemented by backends that expose circuit breaker state
type breakerStatsProvider interface {
	GetCircuitBreakerStats() map[string]any
}

// GetCircuitBreakerStats returns circuit breaker statistics for all backends
func (m *Manager) GetCircuitBreakerStats() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := map[string]any{
		"active": m.active.Name(),
	}
	if sp, ok := m.primary.(breakerStatsProvider); ok {
		stats[m.primary.Name()] = sp.GetCircuitBreakerStats()
	}
	if m.fallback != nil {
		if sp, ok := m.fallback.(breakerStatsProvider); ok {
			stats[m.fallback.Name()] = sp.GetCircuitBreakerStats()
		}
	}
	return stats
}

// Close releases both backends
func (m *Manager) Close() error {
	var firstErr error
	if err := m.primary.Close(); err != nil {
		firstErr = err
	}
	if m.fallback != nil {
		if err := m.fallback.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
