package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"resumeforge/internal/common"
	"resumeforge/internal/selector"
	"resumeforge/internal/tailoring"
	"resumeforge/internal/types"

	"github.com/spf13/cobra"
)

var scoreCmd = &cobra.Command{
	Use:   "score [master-resume-file] [jd-analysis-file]",
	Short: "Score a master resume against an analyzed job posting",
	Long: `Score a master resume against an analyzed job posting without any AI
calls. The command takes two arguments: the path to the master resume (JSON)
and the path to a saved job description analysis (JSON, as produced by
'analyze --format json').

The report lists every experience with its relevance score, marks the ones
the tailoring pipeline would select, and shows the match score those picks
produce. Scoring is deterministic: identical inputs always rank identically.`,
	Args: cobra.ExactArgs(2),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		// Apply default format if not specified
		if scoreConfig.OutputFormat == "" {
			scoreConfig.OutputFormat = cfg.App.DefaultFormat
		}
		// Validate format against supported formats
		return common.ValidateOutputFormat(scoreConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runScore,
}

var scoreConfig common.CommandConfig

// scoreInput is the parsed pair of CLI inputs for one score report
type scoreInput struct {
	resume *types.MasterResume
	jd     *types.JobDescription
}

func init() {
	scoreCmd.Flags().StringVarP(&scoreConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	scoreCmd.Flags().StringVar(&scoreConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")

	// Add completion for format flag
	_ = scoreCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
}

func runScore(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	maxExperiences := cfg.Selection.MaxExperiences
	if maxExperiences < 1 {
		maxExperiences = tailoring.DefaultMaxExperiences
	}

	createInput := func(contents []string) (scoreInput, error) {
		if len(contents) != 2 {
			return scoreInput{}, fmt.Errorf("expected 2 file paths, got %d", len(contents))
		}
		var resume types.MasterResume
		if err := json.Unmarshal([]byte(contents[0]), &resume); err != nil {
			return scoreInput{}, fmt.Errorf("master resume is not valid JSON: %w", err)
		}
		var jd types.JobDescription
		if err := json.Unmarshal([]byte(contents[1]), &jd); err != nil {
			return scoreInput{}, fmt.Errorf("job description analysis is not valid JSON: %w", err)
		}
		return scoreInput{resume: &resume, jd: &jd}, nil
	}

	logDetails := func(input scoreInput, cfg common.CommandConfig) {
		logger.Info("Starting resume scoring",
			"experiences", len(input.resume.Experiences),
			"jd_keywords", len(input.jd.Keywords),
			"output_format", cfg.OutputFormat)
	}

	scoreOperation := func(ctx context.Context, input scoreInput) (selector.ScoreReport, error) {
		return selector.BuildScoreReport(input.resume, input.jd, maxExperiences), nil
	}

	err := common.RunPipelineCommand(
		cmd.Context(),
		logger,
		scoreConfig,
		args,
		createInput,
		scoreOperation,
		logDetails,
	)

	if err != nil {
		return fmt.Errorf("failed to score resume: %w", err)
	}
	logger.Info("Resume scoring completed successfully")
	return nil
}
