// Package tailoring orchestrates the resume pipeline: content selection,
// bullet optimization, scoring, and the store-facing workflows built on top.
package tailoring

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"resumeforge/internal/analyzer"
	"resumeforge/internal/cache"
	"resumeforge/internal/config"
	"resumeforge/internal/errors"
	"resumeforge/internal/optimizer"
	"resumeforge/internal/selector"
	"resumeforge/internal/store"
	"resumeforge/internal/types"
	"resumeforge/internal/utils"
)

// Selection limits used when the config carries zero values
const (
	DefaultMaxExperiences          = 4
	DefaultMaxBulletsPerExperience = 4
	DefaultMaxSkills               = 15
	DefaultMaxEducation            = 2
)

// ATS score composition. Keyword matching contributes MatchWeight of the
// match score; the two optimization bonuses contribute up to 20 points each.
// KeywordRichTarget matched keywords per bullet reaches the second cap.
const (
	MatchWeight        = 0.6
	MetricsRatioPoints = 20.0
	KeywordRichPoints  = 20.0
	KeywordRichTarget  = 3.0
)

// JDAnalyzer turns raw posting text into a structured JobDescription
type JDAnalyzer interface {
	Analyze(ctx context.Context, rawText string) (*types.JobDescription, error)
}

// BulletOptimizer rewrites one bullet against a JD, failing open to the
// original text on generation errors
type BulletOptimizer interface {
	Optimize(ctx context.Context, bullet types.BulletPoint, jd *types.JobDescription, experienceContext string, usedVerbs []string) types.BulletOptimization
}

// Service wires analysis, selection, optimization, caching, and persistence
// into the workflows exposed to transports.
type Service struct {
	analyzer  JDAnalyzer
	optimizer BulletOptimizer
	store     *store.Store
	cache     cache.Cache
	cfg       *config.Config
	logger    *errors.Logger
}

// New creates a tailoring service around the injected collaborators
func New(jdAnalyzer JDAnalyzer, bulletOptimizer BulletOptimizer, st *store.Store, c cache.Cache, cfg *config.Config, logger *errors.Logger) *Service {
	return &Service{
		analyzer:  jdAnalyzer,
		optimizer: bulletOptimizer,
		store:     st,
		cache:     c,
		cfg:       cfg,
		logger:    logger,
	}
}

// Tailor builds a tailored resume from an in-memory master resume and an
// analyzed JD: select the most relevant experiences and bullets, optimize
// each selected bullet, then score the result. A single bullet's generation
// failure degrades that bullet to its original text and never aborts the run.
func (s *Service) Tailor(ctx context.Context, master *types.MasterResume, jd *types.JobDescription) (*types.TailoredResume, error) {
	if master == nil || jd == nil {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"Tailoring requires a master resume and an analyzed job description", nil)
	}

	maxExperiences := limitOr(s.cfg.Selection.MaxExperiences, DefaultMaxExperiences)
	maxBullets := limitOr(s.cfg.Selection.MaxBulletsPerExperience, DefaultMaxBulletsPerExperience)

	selected, bulletsByExperience := selector.SelectContent(master, jd, maxExperiences, maxBullets)

	// usedVerbs spans the whole resume: each optimized bullet's leading verb
	// joins the avoid list for every later bullet.
	usedVerbs := []string{}
	optimizations := []types.BulletOptimization{}
	selectedIDs := make([]string, 0, len(selected))

	for _, exp := range selected {
		selectedIDs = append(selectedIDs, exp.ID)
		experienceContext := fmt.Sprintf("%s at %s", exp.Title, exp.Company)

		for _, bullet := range bulletsByExperience[exp.ID] {
			opt := s.optimizer.Optimize(ctx, bullet, jd, experienceContext, usedVerbs)
			optimizations = append(optimizations, opt)
			if verb := optimizer.LeadingVerb(opt.OptimizedText); verb != "" {
				usedVerbs = append(usedVerbs, verb)
			}
		}
	}

	matchScore := selector.MatchScore(selected, jd)

	tailored := &types.TailoredResume{
		ID:                    uuid.New().String(),
		MasterResumeID:        master.ID,
		JobDescriptionID:      jd.ID,
		PersonalInfo:          master.PersonalInfo,
		SelectedExperienceIDs: selectedIDs,
		BulletOptimizations:   optimizations,
		SelectedEducationIDs:  selectEducation(master.Education, limitOr(s.cfg.Selection.MaxEducation, DefaultMaxEducation)),
		SelectedSkills:        selectSkills(master.Skills, jd, limitOr(s.cfg.Selection.MaxSkills, DefaultMaxSkills)),
		MatchScore:            matchScore,
		ATSScore:              computeATSScore(matchScore, optimizations),
		CreatedAt:             time.Now().UTC(),
	}

	if s.logger != nil {
		s.logger.Debug("Resume tailored",
			"selected_experiences", len(selectedIDs),
			"optimized_bullets", len(optimizations),
			"match_score", tailored.MatchScore,
			"ats_score", tailored.ATSScore)
	}
	return tailored, nil
}

// AnalyzeJD analyzes a raw posting and persists the result
func (s *Service) AnalyzeJD(ctx context.Context, rawText string) (*types.JobDescription, error) {
	jd, err := s.analyzer.Analyze(ctx, rawText)
	if err != nil {
		return nil, err
	}
	if err := s.store.JobDescriptions.Save(ctx, jd); err != nil {
		return nil, err
	}
	return jd, nil
}

// AnalyzeRequest carries a raw posting plus caller-supplied metadata stored
// alongside the analysis
type AnalyzeRequest struct {
	Text      string
	Title     string
	Company   string
	SourceURL string
	UserID    string
}

// AnalyzeResult is an analysis plus the cache disposition of the call that
// produced it
type AnalyzeResult struct {
	JobDescription *types.JobDescription
	Cached         bool
}

// AnalyzeJDCached analyzes with two read-through layers: the cache first,
// then the store by content hash (re-warming the cache on a hit), and only
// then a live generation call whose result is written through to both.
func (s *Service) AnalyzeJDCached(ctx context.Context, req AnalyzeRequest) (*AnalyzeResult, error) {
	trimmed := strings.TrimSpace(req.Text)
	if len(trimmed) < analyzer.MinJDLength {
		return nil, errors.NewValidationError(errors.ErrCodeJDTooShort,
			fmt.Sprintf("Job description too short: %d characters (minimum %d)", len(trimmed), analyzer.MinJDLength), nil)
	}

	key := cache.JDAnalysisKey(req.Text)

	var cached types.JobDescription
	hit, err := s.cache.GetJSON(ctx, key, &cached)
	if err != nil {
		return nil, err
	}
	if hit {
		if s.logger != nil {
			s.logger.Debug("Job description analysis served from cache", "content_hash", cached.ContentHash)
		}
		return &AnalyzeResult{JobDescription: &cached, Cached: true}, nil
	}

	// A previous run may have persisted this posting after its cache entry
	// expired
	stored, err := s.store.JobDescriptions.GetByHash(ctx, utils.ContentHash(req.Text))
	if err != nil {
		return nil, err
	}
	if stored != nil {
		if err := s.cache.SetJSON(ctx, key, stored, s.cfg.Cache.RewarmTTL); err != nil {
			return nil, err
		}
		if s.logger != nil {
			s.logger.Debug("Job description analysis re-warmed from store", "content_hash", stored.ContentHash)
		}
		return &AnalyzeResult{JobDescription: stored, Cached: true}, nil
	}

	jd, err := s.analyzer.Analyze(ctx, req.Text)
	if err != nil {
		return nil, err
	}
	applyRequestMetadata(jd, req)

	if err := s.store.JobDescriptions.Save(ctx, jd); err != nil {
		return nil, err
	}
	if err := s.cache.SetJSON(ctx, key, jd, s.cfg.Cache.TTL); err != nil {
		return nil, err
	}
	return &AnalyzeResult{JobDescription: jd, Cached: false}, nil
}

// TailorResume loads the referenced records, runs the pipeline, and persists
// the result. Unknown ids surface as NotFoundErrors.
func (s *Service) TailorResume(ctx context.Context, masterResumeID, jobDescriptionID string) (*types.TailoredResume, error) {
	master, err := s.store.MasterResumes.GetByID(ctx, masterResumeID)
	if err != nil {
		return nil, err
	}
	jd, err := s.store.JobDescriptions.GetByID(ctx, jobDescriptionID)
	if err != nil {
		return nil, err
	}

	tailored, err := s.Tailor(ctx, master, jd)
	if err != nil {
		return nil, err
	}
	if err := s.store.TailoredResumes.Save(ctx, tailored); err != nil {
		return nil, err
	}
	return tailored, nil
}

// UpdateBulletStatus applies an explicit review decision to one optimized
// bullet. Only pending bullets may change, and only to accepted or rejected.
func (s *Service) UpdateBulletStatus(ctx context.Context, tailoredID, bulletID string, status types.OptimizationStatus) (*types.TailoredResume, error) {
	if status != types.OptimizationAccepted && status != types.OptimizationRejected {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidStatus,
			fmt.Sprintf("Invalid target status: %s", status), nil)
	}

	tailored, err := s.store.TailoredResumes.GetByID(ctx, tailoredID)
	if err != nil {
		return nil, err
	}

	var current *types.BulletOptimization
	for i := range tailored.BulletOptimizations {
		if tailored.BulletOptimizations[i].BulletID == bulletID {
			current = &tailored.BulletOptimizations[i]
			break
		}
	}
	if current == nil {
		return nil, errors.NewNotFoundError(errors.ErrCodeTailoredNotFound,
			fmt.Sprintf("Bullet optimization not found: %s", bulletID), nil)
	}
	if current.Status != types.OptimizationPending {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidStatus,
			fmt.Sprintf("Bullet %s is already %s", bulletID, current.Status), nil)
	}

	if err := s.store.TailoredResumes.UpdateBulletStatus(ctx, tailoredID, bulletID, status); err != nil {
		return nil, err
	}
	current.Status = status
	return tailored, nil
}

// computeATSScore blends keyword matching with optimization quality and
// clamps the blend to [0,100]
func computeATSScore(matchScore float64, optimizations []types.BulletOptimization) float64 {
	score := matchScore * MatchWeight

	if len(optimizations) > 0 {
		withMetrics := 0
		totalKeywords := 0
		for _, opt := range optimizations {
			if mentionsMetrics(opt.Improvements) {
				withMetrics++
			}
			totalKeywords += len(opt.KeywordMatches)
		}
		score += float64(withMetrics) / float64(len(optimizations)) * MetricsRatioPoints

		avgKeywords := float64(totalKeywords) / float64(len(optimizations))
		score += math.Min(avgKeywords/KeywordRichTarget*KeywordRichPoints, KeywordRichPoints)
	}

	return math.Min(math.Max(score, 0), 100)
}

func mentionsMetrics(improvements []string) bool {
	for _, imp := range improvements {
		lower := strings.ToLower(imp)
		if strings.Contains(lower, "metric") || strings.Contains(lower, "quantif") {
			return true
		}
	}
	return false
}

// selectSkills keeps JD-matched skill names first, then fills with the
// remaining skills in resume order, up to maxSkills total
func selectSkills(skills []types.Skill, jd *types.JobDescription, maxSkills int) []string {
	jdSkills := make(map[string]bool, len(jd.RequiredSkills)+len(jd.PreferredSkills))
	for _, name := range jd.RequiredSkills {
		jdSkills[strings.ToLower(name)] = true
	}
	for _, name := range jd.PreferredSkills {
		jdSkills[strings.ToLower(name)] = true
	}

	matched := []string{}
	unmatched := []string{}
	for _, skill := range skills {
		if skill.Name == "" {
			continue
		}
		if jdSkills[strings.ToLower(skill.Name)] {
			matched = append(matched, skill.Name)
		} else {
			unmatched = append(unmatched, skill.Name)
		}
	}

	if len(matched) > maxSkills {
		matched = matched[:maxSkills]
	}
	selected := matched
	for _, name := range unmatched {
		if len(selected) >= maxSkills {
			break
		}
		selected = append(selected, name)
	}
	return selected
}

// selectEducation keeps the first maxEducation entries in resume order
func selectEducation(education []types.Education, maxEducation int) []string {
	ids := []string{}
	for _, edu := range education {
		if len(ids) >= maxEducation {
			break
		}
		ids = append(ids, edu.ID)
	}
	return ids
}

func limitOr(value, fallback int) int {
	if value > 0 {
		return value
	}
	return fallback
}

func applyRequestMetadata(jd *types.JobDescription, req AnalyzeRequest) {
	if req.Title != "" {
		jd.Title = req.Title
	}
	if req.Company != "" {
		jd.Company = req.Company
	}
	if req.SourceURL != "" {
		jd.SourceURL = req.SourceURL
	}
	if req.UserID != "" {
		jd.UserID = req.UserID
	}
}
