// Package optimizer rewrites resume bullets for impact and keyword fit.
// Optimization is strictly best-effort: a failed generation call degrades to
// the original text and never aborts the pipeline.
package optimizer

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"resumeforge/internal/ai"
	"resumeforge/internal/config"
	"resumeforge/internal/errors"
	"resumeforge/internal/types"
)

const (
	// MaxTargetKeywords bounds how many JD keywords become optimization
	// targets; only the first promptKeywordLimit are spelled out in the
	// prompt itself.
	MaxTargetKeywords  = 15
	promptKeywordLimit = 10

	// KeywordWeightFloor filters out low-signal keywords from targeting
	KeywordWeightFloor = 0.6

	lengthGrowthFactor = 1.2
)

var digitRe = regexp.MustCompile(`\d+`)

// strongVerbs is the vocabulary the improvement diff looks for. The prompt
// nudges the model toward verbs like these; detection is substring-based.
var strongVerbs = []string{
	"spearheaded", "architected", "engineered", "orchestrated",
	"pioneered", "transformed", "optimized", "accelerated",
	"championed", "streamlined", "revolutionized",
}

// Generator is the slice of the AI gateway the optimizer needs
type Generator interface {
	GenerateText(ctx context.Context, req ai.GenerateRequest) (string, *ai.TokenUsage, error)
}

// Optimizer rewrites bullets one at a time
type Optimizer struct {
	gateway Generator
	cfg     *config.Config
	logger  *errors.Logger
}

// New creates a bullet optimizer
func New(gateway Generator, cfg *config.Config, logger *errors.Logger) *Optimizer {
	return &Optimizer{gateway: gateway, cfg: cfg, logger: logger}
}

// Optimize rewrites one bullet against the JD's target keywords. usedVerbs
// lists leading verbs already taken elsewhere in the resume; the prompt asks
// the model to avoid them (variety is prompt-enforced, not validated).
// Generation failures fail open: the original text comes back as the
// optimized text and the improvement diff runs over the unchanged pair,
// so a failed bullet still carries the default improvement note.
func (o *Optimizer) Optimize(ctx context.Context, bullet types.BulletPoint, jd *types.JobDescription, experienceContext string, usedVerbs []string) types.BulletOptimization {
	targets := targetKeywords(jd.Keywords)

	optimized, err := o.generateOptimizedText(ctx, bullet.Text, targets, experienceContext, usedVerbs)
	if err != nil {
		if o.logger != nil {
			o.logger.Warn("Bullet optimization failed, keeping original text",
				"bullet_id", bullet.ID,
				"error", err.Error())
		}
		return types.BulletOptimization{
			BulletID:       bullet.ID,
			OriginalText:   bullet.Text,
			OptimizedText:  bullet.Text,
			Improvements:   identifyImprovements(bullet.Text, bullet.Text, targets),
			KeywordMatches: matchedKeywords(targets, bullet.Text),
			Status:         types.OptimizationPending,
		}
	}

	return types.BulletOptimization{
		BulletID:       bullet.ID,
		OriginalText:   bullet.Text,
		OptimizedText:  optimized,
		Improvements:   identifyImprovements(bullet.Text, optimized, targets),
		KeywordMatches: matchedKeywords(targets, optimized),
		Status:         types.OptimizationPending,
	}
}

// targetKeywords takes the first MaxTargetKeywords JD keywords in analysis
// order and keeps those at or above the weight floor.
func targetKeywords(keywords []types.KeywordWeight) []string {
	if len(keywords) > MaxTargetKeywords {
		keywords = keywords[:MaxTargetKeywords]
	}
	targets := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if kw.Weight >= KeywordWeightFloor {
			targets = append(targets, kw.Text)
		}
	}
	return targets
}

func (o *Optimizer) generateOptimizedText(ctx context.Context, originalText string, keywords []string, experienceContext string, usedVerbs []string) (string, error) {
	opCfg := o.cfg.GetOptimizeConfig()
	systemPrompt, userPrompt := ai.ResolvePrompts(ai.OpOptimize, &opCfg)

	contextBlock := ""
	if experienceContext != "" {
		contextBlock = "\n\nContext: " + experienceContext
	}
	promptKeywords := keywords
	if len(promptKeywords) > promptKeywordLimit {
		promptKeywords = promptKeywords[:promptKeywordLimit]
	}

	prompt := fmt.Sprintf(userPrompt, originalText, contextBlock, strings.Join(promptKeywords, ", "))
	if len(usedVerbs) > 0 {
		prompt += fmt.Sprintf("\n\nDo NOT start with any of these verbs (already used in this resume): %s", strings.Join(usedVerbs, ", "))
	}

	if opCfg.Timeout != nil && *opCfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *opCfg.Timeout)
		defer cancel()
	}

	req := ai.GenerateRequest{
		Operation:    ai.OpOptimize,
		Prompt:       prompt,
		SystemPrompt: systemPrompt,
	}
	if opCfg.Temperature != nil {
		req.Temperature = *opCfg.Temperature
	}
	if opCfg.MaxTokens != nil {
		req.MaxTokens = *opCfg.MaxTokens
	}

	response, usage, err := o.gateway.GenerateText(ctx, req)
	if err != nil {
		return "", err
	}

	// Models sometimes re-add list markers despite the prompt
	optimized := strings.TrimSpace(response)
	optimized = strings.TrimSpace(strings.TrimLeft(optimized, "•-*"))
	if optimized == "" {
		return "", errors.NewMalformedOutputError(errors.ErrCodeMalformedOutput, "Optimizer returned an empty rewrite", nil)
	}

	if o.logger != nil && usage != nil {
		o.logger.Debug("Bullet optimized", "total_tokens", usage.TotalTokens)
	}
	return optimized, nil
}

// identifyImprovements diffs the original and optimized texts locally. It
// never consults the model: metrics presence, newly appearing target
// keywords, strong-verb usage, and length growth are all cheap checks.
func identifyImprovements(original, optimized string, keywords []string) []string {
	improvements := []string{}

	if !digitRe.MatchString(original) && digitRe.MatchString(optimized) {
		improvements = append(improvements, "Added quantifiable metrics")
	}

	originalLower := strings.ToLower(original)
	optimizedLower := strings.ToLower(optimized)

	newKeywords := []string{}
	for _, kw := range keywords {
		kwLower := strings.ToLower(kw)
		if !strings.Contains(originalLower, kwLower) && strings.Contains(optimizedLower, kwLower) {
			newKeywords = append(newKeywords, kw)
		}
	}
	if len(newKeywords) > 0 {
		if len(newKeywords) > 3 {
			newKeywords = newKeywords[:3]
		}
		improvements = append(improvements, "Added keywords: "+strings.Join(newKeywords, ", "))
	}

	for _, verb := range strongVerbs {
		if strings.Contains(optimizedLower, verb) {
			improvements = append(improvements, "Used stronger action verb")
			break
		}
	}

	if float64(len(optimized)) > float64(len(original))*lengthGrowthFactor {
		improvements = append(improvements, "Added more specific details")
	}

	if len(improvements) == 0 {
		improvements = append(improvements, "Enhanced clarity and impact")
	}
	return improvements
}

func matchedKeywords(keywords []string, text string) []string {
	textLower := strings.ToLower(text)
	matches := []string{}
	for _, kw := range keywords {
		if strings.Contains(textLower, strings.ToLower(kw)) {
			matches = append(matches, kw)
		}
	}
	return matches
}

// LeadingVerb returns the lowercased first word of an optimized bullet so
// callers can thread it into the usedVerbs accumulator.
func LeadingVerb(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(strings.Trim(fields[0], ".,;:!"))
}
