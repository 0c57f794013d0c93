package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"resumeforge/internal/config"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// ObservabilityConfig holds configuration for observability
type ObservabilityConfig struct {
	ServiceName    string
	ServiceVersion string
	Enabled        bool
	ConsoleOutput  bool
	PrettyPrint    bool
	SampleRate     float64
	Prometheus     PrometheusConfig
}

// Metrics holds all custom instruments for the tailoring pipeline
type Metrics struct {
	// HTTP metrics
	RequestCount    metric.Int64Counter
	RequestDuration metric.Float64Histogram

	// Generation metrics
	GenerationCount    metric.Int64Counter
	GenerationDuration metric.Float64Histogram
	GenerationTokens   metric.Int64Histogram
	MatchScores        metric.Float64Histogram

	// Pipeline metrics
	CacheEvents   metric.Int64Counter
	FailoverCount metric.Int64Counter
	RateLimitHits metric.Int64Counter
}

// Manager manages OpenTelemetry setup
type Manager struct {
	config           ObservabilityConfig
	fullConfig       *config.Config // Store full config for access to nested settings
	res              *resource.Resource
	tracerProvider   *trace.TracerProvider
	meterProvider    *sdkmetric.MeterProvider
	metrics          *Metrics
	shutdownFuncs    []func(context.Context) error
	prometheusServer *http.ServeMux
}

// NewManager creates a new observability manager. When observability is
// disabled it returns a manager whose middleware, tracer, and recorders
// are all no-ops.
func NewManager(obsConfig ObservabilityConfig, fullConfig *config.Config) (*Manager, error) {
	if !obsConfig.Enabled {
		return &Manager{config: obsConfig, fullConfig: fullConfig}, nil
	}

	om := &Manager{
		config:        obsConfig,
		fullConfig:    fullConfig,
		shutdownFuncs: make([]func(context.Context) error, 0),
	}

	if err := om.initResource(); err != nil {
		return nil, fmt.Errorf("failed to initialize resource: %w", err)
	}

	if err := om.initTracing(); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	if err := om.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	return om, nil
}

// initResource creates the OpenTelemetry resource shared by traces and metrics
func (om *Manager) initResource() error {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(om.config.ServiceName),
			semconv.ServiceVersion(om.config.ServiceVersion),
			attribute.String("service.instance.id", om.getServiceInstanceID()),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	om.res = res
	return nil
}

// initTracing sets up OpenTelemetry tracing
func (om *Manager) initTracing() error {
	var exporter trace.SpanExporter
	var err error

	if om.config.ConsoleOutput {
		// Console exporter for development
		opts := []stdouttrace.Option{}
		if om.config.PrettyPrint {
			opts = append(opts, stdouttrace.WithPrettyPrint())
		}
		exporter, err = stdouttrace.New(opts...)
	} else if om.fullConfig != nil && om.fullConfig.Observability.OTLP.Enabled {
		// OTLP exporter for production
		exporter, err = om.createOTLPExporter()
	} else {
		// No-op exporter when no production exporter is configured
		exporter = &noOpSpanExporter{}
	}

	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(om.res),
		trace.WithSampler(trace.TraceIDRatioBased(om.config.SampleRate)),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	om.tracerProvider = tp
	om.shutdownFuncs = append(om.shutdownFuncs, tp.Shutdown)

	return nil
}

// initMetrics sets up OpenTelemetry metrics
func (om *Manager) initMetrics() error {
	readers, err := om.setupMetricReaders()
	if err != nil {
		return err
	}

	// Create meter provider with all readers
	meterProviderOptions := []sdkmetric.Option{
		sdkmetric.WithResource(om.res),
	}
	for _, reader := range readers {
		meterProviderOptions = append(meterProviderOptions, sdkmetric.WithReader(reader))
	}

	mp := sdkmetric.NewMeterProvider(meterProviderOptions...)

	otel.SetMeterProvider(mp)
	om.meterProvider = mp
	om.shutdownFuncs = append(om.shutdownFuncs, mp.Shutdown)

	// Go runtime metrics (goroutines, GC, memory) on the same provider
	if om.fullConfig == nil || om.fullConfig.Observability.Metrics.Runtime {
		if err := runtime.Start(runtime.WithMeterProvider(mp)); err != nil {
			return fmt.Errorf("failed to start runtime metrics: %w", err)
		}
	}

	// Initialize custom metrics
	return om.initCustomMetrics()
}

// setupMetricReaders sets up all metric readers based on configuration
func (om *Manager) setupMetricReaders() ([]sdkmetric.Reader, error) {
	var readers []sdkmetric.Reader

	// Console exporter for development
	if err := om.setupConsoleReader(&readers); err != nil {
		return nil, err
	}

	// OTLP exporter for production metrics
	if err := om.setupOTLPReader(&readers); err != nil {
		return nil, err
	}

	// Prometheus exporter for scrape-based collection
	if err := om.setupPrometheusReader(&readers); err != nil {
		return nil, err
	}

	// If no readers configured, use manual reader as fallback
	if len(readers) == 0 {
		readers = append(readers, sdkmetric.NewManualReader())
	}

	return readers, nil
}

// setupConsoleReader sets up console metric reader if enabled
func (om *Manager) setupConsoleReader(readers *[]sdkmetric.Reader) error {
	if !om.config.ConsoleOutput {
		return nil
	}

	exporter, err := stdoutmetric.New()
	if err != nil {
		return fmt.Errorf("failed to create console metric exporter: %w", err)
	}

	// Use configurable collection interval
	interval := om.getMetricsCollectionInterval()
	*readers = append(*readers, sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval)))
	return nil
}

// setupOTLPReader sets up OTLP metric reader if enabled
func (om *Manager) setupOTLPReader(readers *[]sdkmetric.Reader) error {
	if om.fullConfig == nil || !om.fullConfig.Observability.OTLP.Enabled {
		return nil
	}

	otlpReader, err := om.createOTLPMetricsReader()
	if err != nil {
		return fmt.Errorf("failed to create OTLP metrics reader: %w", err)
	}
	if otlpReader != nil {
		*readers = append(*readers, otlpReader)
	}
	return nil
}

// setupPrometheusReader sets up Prometheus metric reader if enabled
func (om *Manager) setupPrometheusReader(readers *[]sdkmetric.Reader) error {
	if !om.config.Prometheus.Enabled {
		return nil
	}

	prometheusReader, prometheusMux, err := SetupPrometheusExporter(om.config.Prometheus)
	if err != nil {
		return fmt.Errorf("failed to create Prometheus exporter: %w", err)
	}
	if prometheusReader != nil {
		*readers = append(*readers, prometheusReader)
		om.prometheusServer = prometheusMux

		// Start Prometheus server
		if err := StartPrometheusServer(prometheusMux, om.config.Prometheus.Port); err != nil {
			return fmt.Errorf("failed to start Prometheus server: %w", err)
		}
	}
	return nil
}

// initCustomMetrics registers every instrument the pipeline records
func (om *Manager) initCustomMetrics() error {
	meter := om.meterProvider.Meter(om.config.ServiceName)
	om.metrics = &Metrics{}

	if err := om.createRequestMetrics(meter); err != nil {
		return err
	}

	if err := om.createGenerationMetrics(meter); err != nil {
		return err
	}

	if err := om.createPipelineMetrics(meter); err != nil {
		return err
	}

	return nil
}

// createRequestMetrics creates HTTP request metrics
func (om *Manager) createRequestMetrics(meter metric.Meter) error {
	var err error

	om.metrics.RequestCount, err = meter.Int64Counter(
		"resumeforge_requests_total",
		metric.WithDescription("Total number of API requests served"),
	)
	if err != nil {
		return fmt.Errorf("failed to create request count metric: %w", err)
	}

	om.metrics.RequestDuration, err = meter.Float64Histogram(
		"resumeforge_request_duration_seconds",
		metric.WithDescription("Time spent serving API requests"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("failed to create request duration metric: %w", err)
	}

	return nil
}

// createGenerationMetrics creates AI generation metrics
func (om *Manager) createGenerationMetrics(meter metric.Meter) error {
	var err error

	om.metrics.GenerationCount, err = meter.Int64Counter(
		"resumeforge_generation_operations_total",
		metric.WithDescription("Total number of generation operations"),
	)
	if err != nil {
		return fmt.Errorf("failed to create generation count metric: %w", err)
	}

	om.metrics.GenerationDuration, err = meter.Float64Histogram(
		"resumeforge_generation_duration_seconds",
		metric.WithDescription("Time spent in AI generation"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("failed to create generation duration metric: %w", err)
	}

	om.metrics.GenerationTokens, err = meter.Int64Histogram(
		"resumeforge_generation_tokens_total",
		metric.WithDescription("Token usage per generation operation (input, output, total)"),
		metric.WithUnit("tokens"),
	)
	if err != nil {
		return fmt.Errorf("failed to create generation tokens metric: %w", err)
	}

	om.metrics.MatchScores, err = meter.Float64Histogram(
		"resumeforge_match_score",
		metric.WithDescription("Match score distribution for tailored resumes"),
	)
	if err != nil {
		return fmt.Errorf("failed to create match score metric: %w", err)
	}

	return nil
}

// createPipelineMetrics creates cache, failover, and rate limiting metrics
func (om *Manager) createPipelineMetrics(meter metric.Meter) error {
	var err error

	om.metrics.CacheEvents, err = meter.Int64Counter(
		"resumeforge_cache_events_total",
		metric.WithDescription("Analysis cache events (hit, miss, store, clear)"),
	)
	if err != nil {
		return fmt.Errorf("failed to create cache events metric: %w", err)
	}

	om.metrics.FailoverCount, err = meter.Int64Counter(
		"resumeforge_failover_total",
		metric.WithDescription("Total number of AI backend failovers"),
	)
	if err != nil {
		return fmt.Errorf("failed to create failover count metric: %w", err)
	}

	om.metrics.RateLimitHits, err = meter.Int64Counter(
		"resumeforge_rate_limit_hits_total",
		metric.WithDescription("Total number of rate limited requests"),
	)
	if err != nil {
		return fmt.Errorf("failed to create rate limit hits metric: %w", err)
	}

	return nil
}

// GetMetrics returns the metrics instance
func (om *Manager) GetMetrics() *Metrics {
	if om.metrics == nil {
		return &Metrics{} // Return empty metrics if not initialized
	}
	return om.metrics
}

// HTTPMiddleware returns HTTP middleware with OpenTelemetry instrumentation
func (om *Manager) HTTPMiddleware() func(http.Handler) http.Handler {
	if !om.config.Enabled {
		return func(h http.Handler) http.Handler { return h }
	}

	return otelhttp.NewMiddleware(
		om.config.ServiceName,
		otelhttp.WithTracerProvider(om.tracerProvider),
		otelhttp.WithMeterProvider(om.meterProvider),
	)
}

// Tracer returns a tracer for the service
func (om *Manager) Tracer(name string) oteltrace.Tracer {
	if !om.config.Enabled {
		return noop.NewTracerProvider().Tracer(name)
	}
	return otel.Tracer(name)
}

// Shutdown gracefully shuts down all observability components
func (om *Manager) Shutdown(ctx context.Context) error {
	for _, shutdown := range om.shutdownFuncs {
		if err := shutdown(ctx); err != nil {
			return err
		}
	}
	return nil
}

// GenerationResult holds the result of a generation operation including token usage
type GenerationResult struct {
	Error      error
	TokenUsage *TokenUsage
}

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// TrackGenerationWithTokens instruments a generation operation with tracing,
// metrics, and token usage
func (m *Metrics) TrackGenerationWithTokens(ctx context.Context, operation string, fn func(context.Context) *GenerationResult, om *Manager) error {
	if m.GenerationCount == nil {
		// Metrics not initialized, just run the function
		result := fn(ctx)
		if result != nil {
			return result.Error
		}
		return nil
	}

	// Check if generation metrics are enabled
	generationMetricsEnabled := m.isGenerationMetricsEnabled(om)

	tracer := otel.Tracer("resumeforge.generation")
	ctx, span := tracer.Start(ctx, "generation."+operation)
	defer span.End()

	start := time.Now()
	result := fn(ctx)
	duration := time.Since(start).Seconds()

	var err error
	if result != nil {
		err = result.Error
	}

	// Record metrics only if generation metrics are enabled
	if generationMetricsEnabled {
		m.recordGenerationMetrics(ctx, operation, err, duration, result, om, span)
	}

	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("error", true))
	}

	return err
}

// isGenerationMetricsEnabled checks if generation metrics are enabled in the configuration
func (m *Metrics) isGenerationMetricsEnabled(om *Manager) bool {
	if om.fullConfig == nil {
		return true
	}
	return om.fullConfig.Observability.CustomMetrics.AIOperations.Enabled
}

// recordGenerationMetrics records all generation-related metrics
func (m *Metrics) recordGenerationMetrics(ctx context.Context, operation string, err error, duration float64, result *GenerationResult, om *Manager, span oteltrace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("operation", operation),
	}
	if om.fullConfig == nil || om.fullConfig.Observability.CustomMetrics.BusinessMetrics.TrackSuccessRates {
		attrs = append(attrs, attribute.Bool("success", err == nil))
	}

	m.recordGenerationDuration(ctx, duration, attrs, om)
	m.GenerationCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.recordTokenUsage(ctx, result, operation, om, span)

	span.SetAttributes(attrs...)
}

// recordGenerationDuration records generation duration if enabled
func (m *Metrics) recordGenerationDuration(ctx context.Context, duration float64, attrs []attribute.KeyValue, om *Manager) {
	if om.fullConfig == nil || om.fullConfig.Observability.CustomMetrics.AIOperations.TrackDuration {
		m.GenerationDuration.Record(ctx, duration, metric.WithAttributes(attrs...))
	}
}

// recordTokenUsage records token usage metrics and span attributes
func (m *Metrics) recordTokenUsage(ctx context.Context, result *GenerationResult, operation string, om *Manager, span oteltrace.Span) {
	if result == nil || result.TokenUsage == nil || m.GenerationTokens == nil {
		return
	}

	trackTokenUsage := om.fullConfig == nil || om.fullConfig.Observability.CustomMetrics.AIOperations.TrackTokenUsage
	if trackTokenUsage {
		m.recordTokenMetrics(ctx, result.TokenUsage, operation)
	}

	// Add token usage to span attributes (always add to traces for debugging)
	span.SetAttributes(
		attribute.Int64("generation.tokens.input", result.TokenUsage.InputTokens),
		attribute.Int64("generation.tokens.output", result.TokenUsage.OutputTokens),
		attribute.Int64("generation.tokens.total", result.TokenUsage.TotalTokens),
	)
}

// recordTokenMetrics records individual token usage metrics
func (m *Metrics) recordTokenMetrics(ctx context.Context, tokenUsage *TokenUsage, operation string) {
	tokenTypes := []struct {
		tokenType string
		value     int64
	}{
		{"input", tokenUsage.InputTokens},
		{"output", tokenUsage.OutputTokens},
		{"total", tokenUsage.TotalTokens},
	}

	for _, tt := range tokenTypes {
		m.GenerationTokens.Record(ctx, tt.value, metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("token_type", tt.tokenType),
		))
	}
}

// RecordRequest counts one served API request and its latency
func (m *Metrics) RecordRequest(ctx context.Context, method, route string, status int, elapsed time.Duration) {
	if m.RequestCount == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.Int("status", status),
	}

	m.RequestCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	if m.RequestDuration != nil {
		m.RequestDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attrs...))
	}
}

// RecordMatchScore tracks the distribution of match scores produced by tailoring
func (m *Metrics) RecordMatchScore(ctx context.Context, operation string, score float64, om *Manager) {
	if m.MatchScores == nil {
		return
	}
	if om != nil && om.fullConfig != nil {
		bm := om.fullConfig.Observability.CustomMetrics.BusinessMetrics
		if !bm.Enabled || !bm.TrackScores {
			return
		}
	}

	m.MatchScores.Record(ctx, score, metric.WithAttributes(
		attribute.String("operation", operation),
	))
}

// RecordCacheEvent counts analysis cache activity. event is one of hit,
// miss, store, or clear.
func (m *Metrics) RecordCacheEvent(ctx context.Context, event string, om *Manager) {
	if m.CacheEvents == nil {
		return
	}
	if om != nil && om.fullConfig != nil {
		infra := om.fullConfig.Observability.CustomMetrics.Infrastructure
		if !infra.Enabled || !infra.TrackCacheEvents {
			return
		}
	}

	m.CacheEvents.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event", event),
	))
}

// RecordFailover counts a switch from the primary AI backend to the fallback
func (m *Metrics) RecordFailover(ctx context.Context, operation, from, to string, om *Manager) {
	if m.FailoverCount == nil {
		return
	}
	if om != nil && om.fullConfig != nil && !om.fullConfig.Observability.CustomMetrics.AIOperations.TrackFailovers {
		return
	}

	m.FailoverCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("from_backend", from),
		attribute.String("to_backend", to),
	))
}

// RecordRateLimitHit counts a request rejected by the rate limiter
func (m *Metrics) RecordRateLimitHit(ctx context.Context, om *Manager, attributes ...attribute.KeyValue) {
	if m.RateLimitHits == nil {
		return
	}
	if om != nil && om.fullConfig != nil {
		infra := om.fullConfig.Observability.CustomMetrics.Infrastructure
		if !infra.Enabled || !infra.TrackRateLimits {
			return
		}
	}

	m.RateLimitHits.Add(ctx, 1, metric.WithAttributes(attributes...))
}

// No-op exporter for when no trace destination is configured
type noOpSpanExporter struct{}

func (n *noOpSpanExporter) ExportSpans(ctx context.Context, spans []trace.ReadOnlySpan) error {
	return nil
}

func (n *noOpSpanExporter) Shutdown(ctx context.Context) error {
	return nil
}

// createOTLPExporter creates an OTLP HTTP trace exporter
func (om *Manager) createOTLPExporter() (trace.SpanExporter, error) {
	if om.fullConfig == nil {
		return nil, fmt.Errorf("config not available for OTLP configuration")
	}

	otlpConfig := om.fullConfig.Observability.OTLP

	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpointURL(otlpConfig.Endpoint),
	}

	if otlpConfig.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	if len(otlpConfig.Headers) > 0 {
		opts = append(opts, otlptracehttp.WithHeaders(otlpConfig.Headers))
	}

	exporter, err := otlptracehttp.New(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}

	return exporter, nil
}

// createOTLPMetricsReader creates an OTLP HTTP metrics reader
func (om *Manager) createOTLPMetricsReader() (sdkmetric.Reader, error) {
	if om.fullConfig == nil {
		return nil, fmt.Errorf("config not available for OTLP configuration")
	}

	otlpConfig := om.fullConfig.Observability.OTLP

	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpointURL(otlpConfig.Endpoint),
	}

	if otlpConfig.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	if len(otlpConfig.Headers) > 0 {
		opts = append(opts, otlpmetrichttp.WithHeaders(otlpConfig.Headers))
	}

	exporter, err := otlpmetrichttp.New(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP metrics exporter: %w", err)
	}

	// Use configurable collection interval for OTLP metrics
	interval := om.getMetricsCollectionInterval()
	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval))

	return reader, nil
}

// getServiceInstanceID returns the service instance ID from config or a default
func (om *Manager) getServiceInstanceID() string {
	if om.fullConfig != nil && om.fullConfig.Observability.ServiceInstance != "" {
		return om.fullConfig.Observability.ServiceInstance
	}
	return "resumeforge-1"
}

// getMetricsCollectionInterval returns the configured metrics collection interval
func (om *Manager) getMetricsCollectionInterval() time.Duration {
	if om.fullConfig != nil && om.fullConfig.Observability.Metrics.CollectionInterval > 0 {
		return om.fullConfig.Observability.Metrics.CollectionInterval
	}
	return 15 * time.Second
}
