package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"resumeforge/internal/ai"
	"resumeforge/internal/analyzer"
	"resumeforge/internal/cache"
	"resumeforge/internal/common"
	"resumeforge/internal/optimizer"
	"resumeforge/internal/store"
	"resumeforge/internal/tailoring"
	"resumeforge/internal/types"

	"github.com/spf13/cobra"
)

var tailorCmd = &cobra.Command{
	Use:   "tailor [master-resume-file] [job-description-file]",
	Short: "Tailor a master resume to a job posting",
	Long: `Tailor a master resume to a specific job posting. The command takes two
arguments: the path to the master resume (JSON, the full career history) and
the path to the job posting (plain text).

The posting is analyzed into weighted keywords, the most relevant experiences
and bullets are selected, each selected bullet is rewritten for keyword and
structural coverage, and the result carries match and ATS scores. A bullet
whose rewrite fails keeps its original text; the run never aborts over one
bullet.`,
	Args: cobra.ExactArgs(2),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		// Apply default format if not specified
		if tailorConfig.OutputFormat == "" {
			tailorConfig.OutputFormat = cfg.App.DefaultFormat
		}
		// Validate format against supported formats
		return common.ValidateOutputFormat(tailorConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runTailor,
}

var tailorConfig common.CommandConfig

// tailorInput is the parsed pair of CLI inputs for one tailoring run
type tailorInput struct {
	resume *types.MasterResume
	rawJD  string
}

func init() {
	tailorCmd.Flags().StringVarP(&tailorConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	tailorCmd.Flags().StringVar(&tailorConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")

	// Add completion for format flag
	_ = tailorCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
}

func runTailor(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	// Create the AI gateway (primary + optional fallback backend)
	gateway, err := ai.NewManagerFromConfig(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create AI gateway: %w", err)
	}
	defer func() {
		if err := gateway.Close(); err != nil {
			logger.Warn("Failed to close AI gateway", "error", err)
		}
	}()

	// One-shot runs keep everything in memory; the serve command is the
	// store-backed surface.
	memCache := cache.NewMemoryCache(cfg.Cache.CleanupInterval, logger)
	defer func() { _ = memCache.Close() }()

	service := tailoring.New(
		analyzer.New(gateway, cfg, logger),
		optimizer.New(gateway, cfg, logger),
		store.NewMemoryStore(),
		memCache,
		cfg,
		logger,
	)

	createInput := func(contents []string) (tailorInput, error) {
		if len(contents) != 2 {
			return tailorInput{}, fmt.Errorf("expected 2 file paths, got %d", len(contents))
		}
		var resume types.MasterResume
		if err := json.Unmarshal([]byte(contents[0]), &resume); err != nil {
			return tailorInput{}, fmt.Errorf("master resume is not valid JSON: %w", err)
		}
		return tailorInput{resume: &resume, rawJD: contents[1]}, nil
	}

	logDetails := func(input tailorInput, cfg common.CommandConfig) {
		logger.Info("Starting resume tailoring",
			"experiences", len(input.resume.Experiences),
			"job_chars", len(input.rawJD),
			"output_format", cfg.OutputFormat)
	}

	tailorOperation := func(ctx context.Context, input tailorInput) (*types.TailoredResume, error) {
		jd, err := service.AnalyzeJD(ctx, input.rawJD)
		if err != nil {
			return nil, err
		}
		return service.Tailor(ctx, input.resume, jd)
	}

	err = common.RunPipelineCommand(
		cmd.Context(),
		logger,
		tailorConfig,
		args,
		createInput,
		tailorOperation,
		logDetails,
	)

	if err != nil {
		return fmt.Errorf("failed to tailor resume: %w", err)
	}
	logger.Info("Resume tailoring completed successfully")
	return nil
}
