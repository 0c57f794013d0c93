package formatters

import (
	"encoding/json"
	"fmt"
	"strings"

	"resumeforge/internal/selector"
	"resumeforge/internal/types"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	// Register default formatters
	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", "JobDescription", &AnalysisTextFormatter{})
	registry.RegisterFormatter("markdown", "JobDescription", &AnalysisMarkdownFormatter{})
	registry.RegisterFormatter("text", "TailoredResume", &TailoredTextFormatter{})
	registry.RegisterFormatter("markdown", "TailoredResume", &TailoredMarkdownFormatter{})
	registry.RegisterFormatter("text", "ScoreReport", &ScoreTextFormatter{})
	registry.RegisterFormatter("markdown", "ScoreReport", &ScoreMarkdownFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	// Try specific formatter first
	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		// Fall back to generic formatter
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case *types.JobDescription:
		return "JobDescription"
	case *types.TailoredResume:
		return "TailoredResume"
	case selector.ScoreReport:
		return "ScoreReport"
	default:
		return "any"
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

// AnalysisTextFormatter handles text formatting for analyzed job descriptions
type AnalysisTextFormatter struct{}

func (atf *AnalysisTextFormatter) Format(data any) (string, error) {
	jd, ok := data.(*types.JobDescription)
	if !ok {
		return "", fmt.Errorf("expected *JobDescription, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== JOB DESCRIPTION ANALYSIS ===\n\n")
	output.WriteString(fmt.Sprintf("Position: %s\n", jd.Position))
	if jd.Company != "" {
		output.WriteString(fmt.Sprintf("Company: %s\n", jd.Company))
	}
	if jd.Industry != "" {
		output.WriteString(fmt.Sprintf("Industry: %s\n", jd.Industry))
	}
	output.WriteString("\n")

	writeTextList(&output, "=== REQUIRED SKILLS ===", jd.RequiredSkills)
	writeTextList(&output, "=== PREFERRED SKILLS ===", jd.PreferredSkills)
	writeTextList(&output, "=== RESPONSIBILITIES ===", jd.Responsibilities)
	writeTextList(&output, "=== QUALIFICATIONS ===", jd.Qualifications)

	if len(jd.Keywords) > 0 {
		output.WriteString("=== KEYWORDS ===\n")
		for _, kw := range jd.Keywords {
			output.WriteString(fmt.Sprintf("- %s (weight %.1f, %s)\n", kw.Text, kw.Weight, kw.Category))
		}
	}

	return output.String(), nil
}

func (atf *AnalysisTextFormatter) SupportedType() string {
	return "JobDescription"
}

// AnalysisMarkdownFormatter handles markdown formatting for analyzed job descriptions
type AnalysisMarkdownFormatter struct{}

func (amf *AnalysisMarkdownFormatter) Format(data any) (string, error) {
	jd, ok := data.(*types.JobDescription)
	if !ok {
		return "", fmt.Errorf("expected *JobDescription, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Job Description Analysis\n\n")
	output.WriteString(fmt.Sprintf("**Position:** %s\n\n", jd.Position))
	if jd.Company != "" {
		output.WriteString(fmt.Sprintf("**Company:** %s\n\n", jd.Company))
	}
	if jd.Industry != "" {
		output.WriteString(fmt.Sprintf("**Industry:** %s\n\n", jd.Industry))
	}

	writeMarkdownList(&output, "## Required Skills", jd.RequiredSkills)
	writeMarkdownList(&output, "## Preferred Skills", jd.PreferredSkills)
	writeMarkdownList(&output, "## Responsibilities", jd.Responsibilities)
	writeMarkdownList(&output, "## Qualifications", jd.Qualifications)

	if len(jd.Keywords) > 0 {
		output.WriteString("## Keywords\n\n")
		for _, kw := range jd.Keywords {
			output.WriteString(fmt.Sprintf("- `%s` (weight %.1f, %s)\n", kw.Text, kw.Weight, kw.Category))
		}
	}

	return output.String(), nil
}

func (amf *AnalysisMarkdownFormatter) SupportedType() string {
	return "JobDescription"
}

// TailoredTextFormatter handles text formatting for tailored resumes
type TailoredTextFormatter struct{}

func (ttf *TailoredTextFormatter) Format(data any) (string, error) {
	result, ok := data.(*types.TailoredResume)
	if !ok {
		return "", fmt.Errorf("expected *TailoredResume, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== TAILORED RESUME ===\n\n")
	if result.PersonalInfo != nil {
		output.WriteString(fmt.Sprintf("Candidate: %s", result.PersonalInfo.Name))
		if result.PersonalInfo.Email != "" {
			output.WriteString(fmt.Sprintf(" (%s)", result.PersonalInfo.Email))
		}
		output.WriteString("\n")
	}
	output.WriteString(fmt.Sprintf("Match Score: %.1f/100\n", result.MatchScore))
	output.WriteString(fmt.Sprintf("ATS Score: %.1f/100\n\n", result.ATSScore))

	writeTextList(&output, "=== SELECTED SKILLS ===", result.SelectedSkills)

	if len(result.BulletOptimizations) > 0 {
		output.WriteString("=== OPTIMIZED BULLETS ===\n\n")
		for i, opt := range result.BulletOptimizations {
			output.WriteString(fmt.Sprintf("%d. [%s]\n", i+1, opt.Status))
			output.WriteString(fmt.Sprintf("   Original:  %s\n", opt.OriginalText))
			output.WriteString(fmt.Sprintf("   Optimized: %s\n", opt.OptimizedText))
			for _, improvement := range opt.Improvements {
				output.WriteString(fmt.Sprintf("   - %s\n", improvement))
			}
			if len(opt.KeywordMatches) > 0 {
				output.WriteString(fmt.Sprintf("   Keywords: %s\n", strings.Join(opt.KeywordMatches, ", ")))
			}
			output.WriteString("\n")
		}
	} else {
		output.WriteString("No bullet optimizations.\n")
	}

	return output.String(), nil
}

func (ttf *TailoredTextFormatter) SupportedType() string {
	return "TailoredResume"
}

// TailoredMarkdownFormatter handles markdown formatting for tailored resumes
type TailoredMarkdownFormatter struct{}

func (tmf *TailoredMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(*types.TailoredResume)
	if !ok {
		return "", fmt.Errorf("expected *TailoredResume, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Tailored Resume\n\n")
	if result.PersonalInfo != nil {
		output.WriteString(fmt.Sprintf("**Candidate:** %s", result.PersonalInfo.Name))
		if result.PersonalInfo.Email != "" {
			output.WriteString(fmt.Sprintf(" (%s)", result.PersonalInfo.Email))
		}
		output.WriteString("\n\n")
	}
	output.WriteString(fmt.Sprintf("**Match Score:** %.1f/100\n\n", result.MatchScore))
	output.WriteString(fmt.Sprintf("**ATS Score:** %.1f/100\n\n", result.ATSScore))

	writeMarkdownList(&output, "## Selected Skills", result.SelectedSkills)

	if len(result.BulletOptimizations) > 0 {
		output.WriteString("## Optimized Bullets\n\n")
		for i, opt := range result.BulletOptimizations {
			output.WriteString(fmt.Sprintf("### %d. %s\n\n", i+1, opt.Status))
			output.WriteString(fmt.Sprintf("**Original:** %s\n\n", opt.OriginalText))
			output.WriteString(fmt.Sprintf("**Optimized:** %s\n\n", opt.OptimizedText))
			for _, improvement := range opt.Improvements {
				output.WriteString(fmt.Sprintf("- %s\n", improvement))
			}
			if len(opt.Improvements) > 0 {
				output.WriteString("\n")
			}
			if len(opt.KeywordMatches) > 0 {
				output.WriteString(fmt.Sprintf("**Keywords:** %s\n\n", strings.Join(opt.KeywordMatches, ", ")))
			}
		}
	} else {
		output.WriteString("## No Bullet Optimizations\n\nNo bullets were selected for optimization.\n")
	}

	return output.String(), nil
}

func (tmf *TailoredMarkdownFormatter) SupportedType() string {
	return "TailoredResume"
}

// ScoreTextFormatter handles text formatting for score reports
type ScoreTextFormatter struct{}

func (stf *ScoreTextFormatter) Format(data any) (string, error) {
	report, ok := data.(selector.ScoreReport)
	if !ok {
		return "", fmt.Errorf("expected ScoreReport, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== RESUME SCORE REPORT ===\n\n")
	output.WriteString(fmt.Sprintf("Position: %s\n", report.Position))
	if report.Company != "" {
		output.WriteString(fmt.Sprintf("Company: %s\n", report.Company))
	}
	output.WriteString(fmt.Sprintf("Match Score: %.1f/100\n\n", report.MatchScore))

	if len(report.Experiences) > 0 {
		output.WriteString("=== EXPERIENCE RANKING ===\n")
		for i, row := range report.Experiences {
			marker := "          "
			if row.Selected {
				marker = "[selected]"
			}
			output.WriteString(fmt.Sprintf("%d. %s %s at %s - %.1f\n", i+1, marker, row.Title, row.Company, row.Score))
		}
	} else {
		output.WriteString("No experiences to rank.\n")
	}

	return output.String(), nil
}

func (stf *ScoreTextFormatter) SupportedType() string {
	return "ScoreReport"
}

// ScoreMarkdownFormatter handles markdown formatting for score reports
type ScoreMarkdownFormatter struct{}

func (smf *ScoreMarkdownFormatter) Format(data any) (string, error) {
	report, ok := data.(selector.ScoreReport)
	if !ok {
		return "", fmt.Errorf("expected ScoreReport, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Resume Score Report\n\n")
	output.WriteString(fmt.Sprintf("**Position:** %s\n\n", report.Position))
	if report.Company != "" {
		output.WriteString(fmt.Sprintf("**Company:** %s\n\n", report.Company))
	}
	output.WriteString(fmt.Sprintf("**Match Score:** %.1f/100\n\n", report.MatchScore))

	if len(report.Experiences) > 0 {
		output.WriteString("## Experience Ranking\n\n")
		output.WriteString("| # | Experience | Score | Selected |\n")
		output.WriteString("|---|---|---|---|\n")
		for i, row := range report.Experiences {
			selected := "no"
			if row.Selected {
				selected = "yes"
			}
			output.WriteString(fmt.Sprintf("| %d | %s at %s | %.1f | %s |\n", i+1, row.Title, row.Company, row.Score, selected))
		}
	} else {
		output.WriteString("## No Experiences\n\nThe resume has no experiences to rank.\n")
	}

	return output.String(), nil
}

func (smf *ScoreMarkdownFormatter) SupportedType() string {
	return "ScoreReport"
}

func writeTextList(output *strings.Builder, header string, items []string) {
	if len(items) == 0 {
		return
	}
	output.WriteString(header + "\n")
	for _, item := range items {
		output.WriteString(fmt.Sprintf("- %s\n", item))
	}
	output.WriteString("\n")
}

func writeMarkdownList(output *strings.Builder, header string, items []string) {
	if len(items) == 0 {
		return
	}
	output.WriteString(header + "\n\n")
	for _, item := range items {
		output.WriteString(fmt.Sprintf("- %s\n", item))
	}
	output.WriteString("\n")
}

// Global formatter registry
var GlobalRegistry = NewFormatterRegistry()
