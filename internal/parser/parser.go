// Package parser turns raw resume text into a structured MasterResume via a
// single generation call. The inverse of rendering: free text in, typed
// career history out.
package parser

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

var codeFenceRe = regexp.MustCompile("```json\\s*|\\s*```")

// Generator is the slice of the AI gateway the parser needs
type Generator interface {
	GenerateText(ctx context.Context, req ai.GenerateRequest) (string, *ai.TokenUsage, error)
}

// Parser extracts structured resume data from plain text
type Parser struct {
	gateway Generator
	cfg     *config.Config
	logger  *errors.Logger
}

// New creates a resume parser
func New(gateway Generator, cfg *config.Config, logger *errors.Logger) *Parser {
	return &Parser{gateway: gateway, cfg: cfg, logger: logger}
}

// resumePayload mirrors the JSON shape the extraction prompt asks for
type resumePayload struct {
	PersonalInfo *personalInfoPayload `json:"personal_info"`
	Experiences  []experiencePayload  `json:"experiences"`
	Education    []educationPayload   `json:"education"`
	Skills       []skillPayload       `json:"skills"`
}

type personalInfoPayload struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
	LinkedIn string `json:"linkedin"`
	Website  string `json:"website"`
}

type experiencePayload struct {
	Company    string   `json:"company"`
	Title      string   `json:"title"`
	Location   string   `json:"location"`
	StartDate  string   `json:"start_date"`
	EndDate    string   `json:"end_date"`
	Bullets    []string `json:"bullets"`
	SkillsUsed []string `json:"skills_used"`
	// Older prompt revisions returned one description blob instead of bullets
	Description string `json:"description"`
}

type educationPayload struct {
	Institution    string `json:"institution"`
	Degree         string `json:"degree"`
	Field          string `json:"field"`
	GraduationDate string `json:"graduation_date"`
}

type skillPayload struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

// Parse validates the raw text, runs the extraction prompt, and builds a
// MasterResume with minted ids. Generation failures propagate; malformed
// model output degrades to an empty resume so the caller can decide whether
// a thin result is usable.
func (p *Parser) Parse(ctx context.Context, rawText string) (*types.MasterResume, error) {
	cleaned := utils.CleanText(rawText)
	if cleaned == "" {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"Resume text is empty", nil)
	}

	opCfg := p.cfg.GetParseConfig()
	systemPrompt, userPrompt := ai.ResolvePrompts(ai.OpParse, &opCfg)

	if opCfg.Timeout != nil && *opCfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *opCfg.Timeout)
		defer cancel()
	}

	req := ai.GenerateRequest{
		Operation:    ai.OpParse,
		Prompt:       fmt.Sprintf(userPrompt, cleaned),
		SystemPrompt: systemPrompt,
	}
	if opCfg.Temperature != nil {
		req.Temperature = *opCfg.Temperature
	}
	if opCfg.MaxTokens != nil {
		req.MaxTokens = *opCfg.MaxTokens
	}

	response, usage, err := p.gateway.GenerateText(ctx, req)
	if err != nil {
		return nil, err
	}

	parsed := p.parsePayload(response)
	resume := buildResume(parsed)

	if p.logger != nil {
		fields := []any{
			"experience_count", len(resume.Experiences),
			"education_count", len(resume.Education),
			"skill_count", len(resume.Skills),
		}
		if usage != nil {
			fields = append(fields, "total_tokens", usage.TotalTokens)
		}
		p.logger.Debug("Resume parsed", fields...)
	}
	return resume, nil
}

// parsePayload strips code fences and decodes the extraction JSON. Any
// decode failure falls back to an empty payload rather than an error.
func (p *Parser) parsePayload(response string) resumePayload {
	jsonText := strings.TrimSpace(codeFenceRe.ReplaceAllString(response, ""))

	var parsed resumePayload
	if err := json.Unmarshal([]byte(jsonText), &parsed); err != nil {
		if p.logger != nil {
			p.logger.Warn("Failed to parse resume extraction output, falling back to an empty resume",
				"error", err.Error(),
				"response", utils.Truncate(response, 200))
		}
		return resumePayload{}
	}
	return parsed
}

// buildResume converts the extraction payload into the canonical model,
// minting ids for every entity the model cannot know about.
func buildResume(payload resumePayload) *types.MasterResume {
	resume := &types.MasterResume{
		ID:          uuid.New().String(),
		Experiences: make([]types.Experience, 0, len(payload.Experiences)),
		UpdatedAt:   time.Now().UTC(),
	}

	if pi := payload.PersonalInfo; pi != nil {
		resume.PersonalInfo = &types.PersonalInfo{
			Name:     pi.Name,
			Email:    pi.Email,
			Phone:    pi.Phone,
			Location: pi.Location,
			LinkedIn: pi.LinkedIn,
			Website:  pi.Website,
		}
	}

	for _, exp := range payload.Experiences {
		bullets := exp.Bullets
		if len(bullets) == 0 && strings.TrimSpace(exp.Description) != "" {
			bullets = []string{exp.Description}
		}

		experience := types.Experience{
			ID:         uuid.New().String(),
			Company:    exp.Company,
			Title:      exp.Title,
			Location:   exp.Location,
			StartDate:  exp.StartDate,
			EndDate:    exp.EndDate,
			SkillsUsed: exp.SkillsUsed,
		}
		for _, text := range bullets {
			text = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(text), "•-*"))
			if text == "" {
				continue
			}
			experience.BulletPoints = append(experience.BulletPoints, types.BulletPoint{
				ID:   uuid.New().String(),
				Text: text,
			})
		}
		resume.Experiences = append(resume.Experiences, experience)
	}

	for _, edu := range payload.Education {
		resume.Education = append(resume.Education, types.Education{
			ID:             uuid.New().String(),
			Institution:    edu.Institution,
			Degree:         edu.Degree,
			Field:          edu.Field,
			GraduationDate: edu.GraduationDate,
		})
	}

	for _, skill := range payload.Skills {
		if strings.TrimSpace(skill.Name) == "" {
			continue
		}
		resume.Skills = append(resume.Skills, types.Skill{
			Name:     skill.Name,
			Category: skill.Category,
		})
	}

	return resume
}
