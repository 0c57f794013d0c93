// Package analyzer turns raw job description text into a structured
// JobDescription via a single generation call.
package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"resumeforge/internal/ai"
	"resumeforge/internal/config"
	"resumeforge/internal/errors"
	"resumeforge/internal/types"
	"resumeforge/internal/utils"
)

// MinJDLength is the minimum trimmed length accepted for analysis. Anything
// shorter is rejected before any generation call is made.
const MinJDLength = 50

const unknownPosition = "Unknown Position"

var (
	codeFenceRe      = regexp.MustCompile("```json\\s*|\\s*```")
	positionPrefixRe = regexp.MustCompile(`(?i)^(position:|role:|job title:)\s*`)
)

// Generator is the slice of the AI gateway the analyzer needs
type Generator interface {
	GenerateText(ctx context.Context, req ai.GenerateRequest) (string, *ai.TokenUsage, error)
}

// Analyzer extracts structured data from job descriptions
type Analyzer struct {
	gateway Generator
	cfg     *config.Config
	logger  *errors.Logger
}

// New creates a job description analyzer
func New(gateway Generator, cfg *config.Config, logger *errors.Logger) *Analyzer {
	return &Analyzer{gateway: gateway, cfg: cfg, logger: logger}
}

// analysisPayload mirrors the JSON shape the extraction prompt asks for
type analysisPayload struct {
	Company          string                `json:"company"`
	Position         string                `json:"position"`
	Industry         string                `json:"industry"`
	RequiredSkills   []string              `json:"required_skills"`
	PreferredSkills  []string              `json:"preferred_skills"`
	Responsibilities []string              `json:"responsibilities"`
	Qualifications   []string              `json:"qualifications"`
	Keywords         []types.KeywordWeight `json:"keywords"`
}

// Analyze validates the raw text, runs the extraction prompt, and parses the
// result. Generation failures propagate; malformed model output never does —
// it degrades to a minimal JobDescription with a heuristically extracted
// position, since a hard failure here would be worse than a thin result.
func (a *Analyzer) Analyze(ctx context.Context, rawText string) (*types.JobDescription, error) {
	trimmed := strings.TrimSpace(rawText)
	if len(trimmed) < MinJDLength {
		return nil, errors.NewValidationError(errors.ErrCodeJDTooShort,
			fmt.Sprintf("Job description too short: %d characters (minimum %d)", len(trimmed), MinJDLength), nil)
	}

	opCfg := a.cfg.GetAnalyzeConfig()
	systemPrompt, userPrompt := ai.ResolvePrompts(ai.OpAnalyze, &opCfg)

	if opCfg.Timeout != nil && *opCfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *opCfg.Timeout)
		defer cancel()
	}

	req := ai.GenerateRequest{
		Operation:    ai.OpAnalyze,
		Prompt:       fmt.Sprintf(userPrompt, rawText),
		SystemPrompt: systemPrompt,
	}
	if opCfg.Temperature != nil {
		req.Temperature = *opCfg.Temperature
	}
	if opCfg.MaxTokens != nil {
		req.MaxTokens = *opCfg.MaxTokens
	}

	response, usage, err := a.gateway.GenerateText(ctx, req)
	if err != nil {
		return nil, err
	}

	parsed := a.parseAnalysis(response, rawText)

	jd := &types.JobDescription{
		ID:               uuid.New().String(),
		RawText:          rawText,
		ContentHash:      utils.ContentHash(rawText),
		Company:          parsed.Company,
		Position:         parsed.Position,
		Industry:         parsed.Industry,
		RequiredSkills:   nonNil(parsed.RequiredSkills),
		PreferredSkills:  nonNil(parsed.PreferredSkills),
		Responsibilities: nonNil(parsed.Responsibilities),
		Qualifications:   nonNil(parsed.Qualifications),
		Keywords:         parsed.Keywords,
		AnalyzedAt:       time.Now().UTC(),
	}
	if jd.Keywords == nil {
		jd.Keywords = []types.KeywordWeight{}
	}

	if a.logger != nil {
		fields := []any{
			"position", jd.Position,
			"keyword_count", len(jd.Keywords),
			"required_count", len(jd.RequiredSkills),
		}
		if usage != nil {
			fields = append(fields, "total_tokens", usage.TotalTokens)
		}
		a.logger.Debug("Job description analyzed", fields...)
	}
	return jd, nil
}

// parseAnalysis strips code fences and decodes the extraction JSON. Any
// decode failure falls back to a minimal payload rather than an error.
func (a *Analyzer) parseAnalysis(response, rawText string) analysisPayload {
	jsonText := strings.TrimSpace(codeFenceRe.ReplaceAllString(response, ""))

	var parsed analysisPayload
	if err := json.Unmarshal([]byte(jsonText), &parsed); err != nil {
		if a.logger != nil {
			a.logger.Warn("Failed to parse analysis output, falling back to minimal result",
				"error", err.Error(),
				"response", utils.Truncate(response, 200))
		}
		return analysisPayload{Position: extractPositionFallback(rawText)}
	}
	return parsed
}

// extractPositionFallback guesses the job title from the first few lines of
// the raw text when structured extraction failed.
func extractPositionFallback(text string) string {
	lines := strings.Split(text, "\n")
	if len(lines) > 5 {
		lines = lines[:5]
	}
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || len(line) >= 100 {
			continue
		}
		line = positionPrefixRe.ReplaceAllString(line, "")
		if line != "" {
			return line
		}
	}
	return unknownPosition
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
