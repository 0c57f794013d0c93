package cli

import (
	"context"
	"fmt"

	"resumeforge/internal/ai"
	"resumeforge/internal/analyzer"
	"resumeforge/internal/common"
	"resumeforge/internal/types"

	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [job-description-file]",
	Short: "Analyze a job posting into structured, weighted keywords",
	Long: `Analyze a raw job posting and extract its structure: company, position,
industry, required and preferred skills, responsibilities, qualifications, and
a weighted keyword list used by the tailoring pipeline.

The posting must be plain text of at least 50 characters. The structured
analysis can be saved with --output and fed to the tailor and score commands.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		// Apply default format if not specified
		if analyzeConfig.OutputFormat == "" {
			analyzeConfig.OutputFormat = cfg.App.DefaultFormat
		}
		// Validate format against supported formats
		return common.ValidateOutputFormat(analyzeConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runAnalyze,
}

var analyzeConfig common.CommandConfig

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	analyzeCmd.Flags().StringVar(&analyzeConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")

	// Add completion for format flag
	_ = analyzeCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
}

func runAnalyze(cmd *cobra.Command, args []string) error {
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

	jdAnalyzer := analyzer.New(gateway, cfg, logger)

	createInput := func(contents []string) (string, error) {
		if len(contents) != 1 {
			return "", fmt.Errorf("expected 1 file path, got %d", len(contents))
		}
		return contents[0], nil
	}

	logDetails := func(rawText string, cfg common.CommandConfig) {
		logger.Info("Starting job description analysis",
			"job_chars", len(rawText),
			"output_format", cfg.OutputFormat)
	}

	analyzeOperation := func(ctx context.Context, rawText string) (*types.JobDescription, error) {
		return jdAnalyzer.Analyze(ctx, rawText)
	}

	err = common.RunPipelineCommand(
		cmd.Context(),
		logger,
		analyzeConfig,
		args,
		createInput,
		analyzeOperation,
		logDetails,
	)

	if err != nil {
		return fmt.Errorf("failed to analyze job description: %w", err)
	}
	logger.Info("Job description analysis completed successfully")
	return nil
}
