package tailoring

import (
	"context"
	stderrors "errors"
	"math"
	"strings"
	"testing"
	"time"

	"resumeforge/internal/cache"
	"resumeforge/internal/config"
	resumeforgeErrors "resumeforge/internal/errors"
	"resumeforge/internal/store"
	"resumeforge/internal/types"
	"resumeforge/internal/utils"
)

type stubAnalyzer struct {
	result *types.JobDescription
	err    error
	calls  int
}

func (s *stubAnalyzer) Analyze(ctx context.Context, rawText string) (*types.JobDescription, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	jd := *s.result
	jd.RawText = rawText
	jd.ContentHash = utils.ContentHash(rawText)
	return &jd, nil
}

type optimizeCall struct {
	bulletID          string
	experienceContext string
	usedVerbs         []string
}

// stubOptimizer echoes each bullet back (or a configured rewrite) with a
// fixed improvement and keyword match, recording every call.
type stubOptimizer struct {
	rewrites map[string]string
	calls    []optimizeCall
}

func (s *stubOptimizer) Optimize(ctx context.Context, bullet types.BulletPoint, jd *types.JobDescription, experienceContext string, usedVerbs []string) types.BulletOptimization {
	s.calls = append(s.calls, optimizeCall{
		bulletID:          bullet.ID,
		experienceContext: experienceContext,
		usedVerbs:         append([]string(nil), usedVerbs...),
	})

	optimized := bullet.Text
	if text, ok := s.rewrites[bullet.ID]; ok {
		optimized = text
	}
	return types.BulletOptimization{
		BulletID:       bullet.ID,
		OriginalText:   bullet.Text,
		OptimizedText:  optimized,
		Improvements:   []string{"Added quantifiable metrics"},
		KeywordMatches: []string{"kubernetes"},
		Status:         types.OptimizationPending,
	}
}

func newTestConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Selection = config.SelectionConfig{
		MaxExperiences:          4,
		MaxBulletsPerExperience: 4,
		MaxSkills:               15,
		MaxEducation:            2,
	}
	cfg.Cache.TTL = time.Hour
	cfg.Cache.RewarmTTL = 2 * time.Hour
	return cfg
}

func newTestService(t *testing.T, cfg *config.Config) (*Service, *stubAnalyzer, *stubOptimizer, *store.Store, cache.Cache) {
	t.Helper()
	jdAnalyzer := &stubAnalyzer{result: &types.JobDescription{ID: "jd-1", Position: "Platform Engineer"}}
	bulletOptimizer := &stubOptimizer{}
	st := store.NewMemoryStore()
	c := cache.NewMemoryCache(0, nil)
	t.Cleanup(func() { c.Close() })

	return New(jdAnalyzer, bulletOptimizer, st, c, cfg, nil), jdAnalyzer, bulletOptimizer, st, c
}

func testMaster() *types.MasterResume {
	return &types.MasterResume{
		ID:           "m1",
		PersonalInfo: &types.PersonalInfo{Name: "Ada"},
		Experiences: []types.Experience{
			{
				ID:      "exp-a",
				Company: "Acme",
				Title:   "Senior Engineer",
				BulletPoints: []types.BulletPoint{
					{ID: "b1", Text: "Ran Kubernetes clusters"},
					{ID: "b2", Text: "Cut deploy time in half"},
				},
				SkillsUsed: []string{"Kubernetes"},
			},
			{
				ID:      "exp-b",
				Company: "Globex",
				Title:   "Engineer",
				BulletPoints: []types.BulletPoint{
					{ID: "b3", Text: "Automated kubernetes upgrades"},
				},
			},
		},
		Education: []types.Education{
			{ID: "e1", Institution: "MIT"},
			{ID: "e2", Institution: "Stanford"},
			{ID: "e3", Institution: "Berkeley"},
		},
		Skills: []types.Skill{
			{Name: "Kubernetes"},
			{Name: "Excel"},
			{Name: "Go"},
		},
	}
}

func testAnalyzedJD() *types.JobDescription {
	return &types.JobDescription{
		ID:              "j1",
		RequiredSkills:  []string{"kubernetes"},
		PreferredSkills: []string{"go"},
		Keywords:        []types.KeywordWeight{{Text: "kubernetes", Weight: 0.9}},
	}
}

func TestTailorBuildsTailoredResume(t *testing.T) {
	svc, _, opt, _, _ := newTestService(t, newTestConfig())

	tailored, err := svc.Tailor(context.Background(), testMaster(), testAnalyzedJD())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if tailored.ID == "" {
		t.Error("Expected a minted id")
	}
	if tailored.MasterResumeID != "m1" || tailored.JobDescriptionID != "j1" {
		t.Errorf("Record references wrong: %s / %s", tailored.MasterResumeID, tailored.JobDescriptionID)
	}
	if tailored.PersonalInfo == nil || tailored.PersonalInfo.Name != "Ada" {
		t.Error("Personal info must carry over from the master resume")
	}
	if tailored.CreatedAt.IsZero() {
		t.Error("Expected a creation timestamp")
	}

	// exp-a scores skill overlap plus keyword coverage and must rank first
	wantIDs := []string{"exp-a", "exp-b"}
	if len(tailored.SelectedExperienceIDs) != len(wantIDs) {
		t.Fatalf("Expected %v, got %v", wantIDs, tailored.SelectedExperienceIDs)
	}
	for i, id := range wantIDs {
		if tailored.SelectedExperienceIDs[i] != id {
			t.Errorf("Expected %s at rank %d, got %s", id, i, tailored.SelectedExperienceIDs[i])
		}
	}

	if len(tailored.BulletOptimizations) != 3 {
		t.Fatalf("Expected 3 optimizations, got %d", len(tailored.BulletOptimizations))
	}
	if opt.calls[0].experienceContext != "Senior Engineer at Acme" {
		t.Errorf("Unexpected experience context: %q", opt.calls[0].experienceContext)
	}

	wantEducation := []string{"e1", "e2"}
	if len(tailored.SelectedEducationIDs) != 2 || tailored.SelectedEducationIDs[0] != "e1" || tailored.SelectedEducationIDs[1] != "e2" {
		t.Errorf("Expected %v, got %v", wantEducation, tailored.SelectedEducationIDs)
	}

	// JD-matched skills first, remaining resume skills after
	wantSkills := []string{"Kubernetes", "Go", "Excel"}
	if len(tailored.SelectedSkills) != len(wantSkills) {
		t.Fatalf("Expected %v, got %v", wantSkills, tailored.SelectedSkills)
	}
	for i, name := range wantSkills {
		if tailored.SelectedSkills[i] != name {
			t.Errorf("Expected skill %s at %d, got %s", name, i, tailored.SelectedSkills[i])
		}
	}

	if tailored.MatchScore != 100 {
		t.Errorf("Expected match score 100, got %f", tailored.MatchScore)
	}
	// 100*0.6 + metrics on every bullet (+20) + one keyword per bullet (+20/3)
	wantATS := 60 + 20 + 20.0/3
	if math.Abs(tailored.ATSScore-wantATS) > 1e-9 {
		t.Errorf("Expected ATS score %f, got %f", wantATS, tailored.ATSScore)
	}
}

func TestTailorThreadsUsedVerbsAcrossExperiences(t *testing.T) {
	svc, _, opt, _, _ := newTestService(t, newTestConfig())
	opt.rewrites = map[string]string{
		"b1": "Spearheaded the cluster rollout",
		"b2": "Engineered the deploy pipeline",
		"b3": "Optimized upgrade automation",
	}

	// No keyword overlap anywhere keeps all scores at zero, so selection
	// preserves input order and the call sequence is b1, b2, b3.
	master := testMaster()
	jd := &types.JobDescription{ID: "j1", Keywords: []types.KeywordWeight{{Text: "cobol", Weight: 0.9}}}

	if _, err := svc.Tailor(context.Background(), master, jd); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(opt.calls) != 3 {
		t.Fatalf("Expected 3 optimize calls, got %d", len(opt.calls))
	}

	if len(opt.calls[0].usedVerbs) != 0 {
		t.Errorf("First bullet must see an empty avoid list, got %v", opt.calls[0].usedVerbs)
	}
	want1 := []string{"spearheaded"}
	if len(opt.calls[1].usedVerbs) != 1 || opt.calls[1].usedVerbs[0] != want1[0] {
		t.Errorf("Expected %v, got %v", want1, opt.calls[1].usedVerbs)
	}
	want2 := []string{"spearheaded", "engineered"}
	if len(opt.calls[2].usedVerbs) != 2 || opt.calls[2].usedVerbs[0] != want2[0] || opt.calls[2].usedVerbs[1] != want2[1] {
		t.Errorf("Expected %v, got %v", want2, opt.calls[2].usedVerbs)
	}
}

func TestTailorRespectsSelectionLimits(t *testing.T) {
	cfg := newTestConfig()
	cfg.Selection.MaxExperiences = 1
	cfg.Selection.MaxBulletsPerExperience = 1
	svc, _, opt, _, _ := newTestService(t, cfg)

	tailored, err := svc.Tailor(context.Background(), testMaster(), testAnalyzedJD())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(tailored.SelectedExperienceIDs) != 1 {
		t.Errorf("Expected 1 selected experience, got %v", tailored.SelectedExperienceIDs)
	}
	if len(tailored.BulletOptimizations) != 1 || len(opt.calls) != 1 {
		t.Errorf("Expected 1 optimization, got %d (%d calls)", len(tailored.BulletOptimizations), len(opt.calls))
	}
}

func TestTailorRejectsNilInputs(t *testing.T) {
	svc, _, _, _, _ := newTestService(t, newTestConfig())

	for name, args := range map[string]struct {
		master *types.MasterResume
		jd     *types.JobDescription
	}{
		"nil master": {master: nil, jd: testAnalyzedJD()},
		"nil jd":     {master: testMaster(), jd: nil},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Tailor(context.Background(), args.master, args.jd)
			if !resumeforgeErrors.IsValidation(err) {
				t.Fatalf("Expected validation error, got %v", err)
			}
		})
	}
}

func TestComputeATSScore(t *testing.T) {
	withMetrics := types.BulletOptimization{Improvements: []string{"Added quantifiable metrics"}}
	quantified := types.BulletOptimization{Improvements: []string{"Quantified the impact"}}
	plain := types.BulletOptimization{Improvements: []string{"Enhanced clarity and impact"}}
	keywordRich := types.BulletOptimization{
		Improvements:   []string{"Enhanced clarity and impact"},
		KeywordMatches: []string{"a", "b", "c", "d", "e", "f", "g", "h", "i"},
	}

	tests := []struct {
		name          string
		matchScore    float64
		optimizations []types.BulletOptimization
		want          float64
	}{
		{name: "no optimizations", matchScore: 80, want: 48},
		{name: "metrics on half", matchScore: 0, optimizations: []types.BulletOptimization{withMetrics, plain}, want: 10},
		{name: "quantified counts as metrics", matchScore: 0, optimizations: []types.BulletOptimization{quantified}, want: 20},
		{name: "keyword bonus capped", matchScore: 0, optimizations: []types.BulletOptimization{keywordRich}, want: 20},
		{name: "full house clamps to 100", matchScore: 100, optimizations: []types.BulletOptimization{
			{Improvements: []string{"Added quantifiable metrics"}, KeywordMatches: []string{"a", "b", "c"}},
		}, want: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := computeATSScore(tt.matchScore, tt.optimizations)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Expected %f, got %f", tt.want, got)
			}
		})
	}
}

func TestSelectSkills(t *testing.T) {
	jd := &types.JobDescription{
		RequiredSkills:  []string{"go", "postgresql"},
		PreferredSkills: []string{"docker"},
	}
	skills := []types.Skill{
		{Name: "Excel"},
		{Name: "Go"},
		{Name: ""},
		{Name: "Docker"},
		{Name: "PostgreSQL"},
	}

	got := selectSkills(skills, jd, 15)
	want := []string{"Go", "Docker", "PostgreSQL", "Excel"}
	if len(got) != len(want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Expected %s at %d, got %s", want[i], i, got[i])
		}
	}

	// The cap applies to matched skills too
	capped := selectSkills(skills, jd, 2)
	if len(capped) != 2 || capped[0] != "Go" || capped[1] != "Docker" {
		t.Errorf("Expected [Go Docker], got %v", capped)
	}
}

func TestSelectEducation(t *testing.T) {
	education := []types.Education{{ID: "e1"}, {ID: "e2"}, {ID: "e3"}}

	got := selectEducation(education, 2)
	if len(got) != 2 || got[0] != "e1" || got[1] != "e2" {
		t.Errorf("Expected first two entries, got %v", got)
	}
	if got := selectEducation(nil, 2); len(got) != 0 {
		t.Errorf("Expected no ids, got %v", got)
	}
}

func TestAnalyzeJDPersistsResult(t *testing.T) {
	svc, jdAnalyzer, _, st, _ := newTestService(t, newTestConfig())
	rawText := strings.Repeat("Platform engineer wanted. ", 5)

	jd, err := svc.AnalyzeJD(context.Background(), rawText)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if jdAnalyzer.calls != 1 {
		t.Errorf("Expected 1 analyzer call, got %d", jdAnalyzer.calls)
	}

	persisted, err := st.JobDescriptions.GetByID(context.Background(), jd.ID)
	if err != nil {
		t.Fatalf("Analysis was not persisted: %v", err)
	}
	if persisted.Position != "Platform Engineer" {
		t.Errorf("Unexpected persisted position: %s", persisted.Position)
	}
}

func TestAnalyzeJDCachedFlow(t *testing.T) {
	svc, jdAnalyzer, _, st, c := newTestService(t, newTestConfig())
	ctx := context.Background()
	req := AnalyzeRequest{
		Text:      strings.Repeat("Kubernetes platform engineer wanted. ", 3),
		Title:     "Platform Engineer",
		Company:   "Acme",
		SourceURL: "https://jobs.example.com/42",
		UserID:    "u1",
	}

	first, err := svc.AnalyzeJDCached(ctx, req)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if first.Cached {
		t.Error("First call must not report a cache hit")
	}
	if jdAnalyzer.calls != 1 {
		t.Fatalf("Expected 1 analyzer call, got %d", jdAnalyzer.calls)
	}

	jd := first.JobDescription
	if jd.Title != "Platform Engineer" || jd.Company != "Acme" || jd.SourceURL != "https://jobs.example.com/42" || jd.UserID != "u1" {
		t.Errorf("Request metadata not applied: %+v", jd)
	}
	if _, err := st.JobDescriptions.GetByID(ctx, jd.ID); err != nil {
		t.Fatalf("Live analysis was not persisted: %v", err)
	}

	second, err := svc.AnalyzeJDCached(ctx, req)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !second.Cached {
		t.Error("Second call must be served from cache")
	}
	if jdAnalyzer.calls != 1 {
		t.Errorf("Cache hit must not call the analyzer, got %d calls", jdAnalyzer.calls)
	}
	if second.JobDescription.ID != jd.ID {
		t.Errorf("Cached result diverged: %s vs %s", second.JobDescription.ID, jd.ID)
	}

	// Losing the cache entry falls back to the store and re-warms the cache
	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	third, err := svc.AnalyzeJDCached(ctx, req)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !third.Cached {
		t.Error("Store hit must report cached")
	}
	if jdAnalyzer.calls != 1 {
		t.Errorf("Store hit must not call the analyzer, got %d calls", jdAnalyzer.calls)
	}
	stats, err := c.Stats(ctx)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if stats.TotalEntries != 1 {
		t.Errorf("Expected the re-warmed entry in cache, got %d entries", stats.TotalEntries)
	}
}

func TestAnalyzeJDCachedRejectsShortText(t *testing.T) {
	svc, jdAnalyzer, _, _, _ := newTestService(t, newTestConfig())

	_, err := svc.AnalyzeJDCached(context.Background(), AnalyzeRequest{Text: "too short"})
	if !resumeforgeErrors.IsValidation(err) {
		t.Fatalf("Expected validation error, got %v", err)
	}
	var appErr *resumeforgeErrors.AppError
	if !stderrors.As(err, &appErr) || appErr.Code != resumeforgeErrors.ErrCodeJDTooShort {
		t.Errorf("Expected code %s, got %v", resumeforgeErrors.ErrCodeJDTooShort, err)
	}
	if jdAnalyzer.calls != 0 {
		t.Errorf("Validation must run before any analyzer call, got %d calls", jdAnalyzer.calls)
	}
}

func TestTailorResumeWorkflow(t *testing.T) {
	svc, _, _, st, _ := newTestService(t, newTestConfig())
	ctx := context.Background()

	if err := st.MasterResumes.Save(ctx, testMaster()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := st.JobDescriptions.Save(ctx, testAnalyzedJD()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	tailored, err := svc.TailorResume(ctx, "m1", "j1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	persisted, err := st.TailoredResumes.GetByID(ctx, tailored.ID)
	if err != nil {
		t.Fatalf("Tailored resume was not persisted: %v", err)
	}
	if persisted.MasterResumeID != "m1" || persisted.JobDescriptionID != "j1" {
		t.Errorf("Persisted references wrong: %s / %s", persisted.MasterResumeID, persisted.JobDescriptionID)
	}

	if _, err := svc.TailorResume(ctx, "missing", "j1"); !resumeforgeErrors.IsNotFound(err) {
		t.Errorf("Expected not-found for unknown resume, got %v", err)
	}
	if _, err := svc.TailorResume(ctx, "m1", "missing"); !resumeforgeErrors.IsNotFound(err) {
		t.Errorf("Expected not-found for unknown JD, got %v", err)
	}
}

func TestUpdateBulletStatusTransitions(t *testing.T) {
	svc, _, _, st, _ := newTestService(t, newTestConfig())
	ctx := context.Background()

	seed := &types.TailoredResume{
		ID: "t1",
		BulletOptimizations: []types.BulletOptimization{
			{BulletID: "b1", OriginalText: "x", OptimizedText: "y", Status: types.OptimizationPending},
			{BulletID: "b2", OriginalText: "x", OptimizedText: "y", Status: types.OptimizationAccepted},
		},
	}
	if err := st.TailoredResumes.Save(ctx, seed); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	updated, err := svc.UpdateBulletStatus(ctx, "t1", "b1", types.OptimizationAccepted)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if updated.BulletOptimizations[0].Status != types.OptimizationAccepted {
		t.Errorf("Returned record not updated: %s", updated.BulletOptimizations[0].Status)
	}
	persisted, err := st.TailoredResumes.GetByID(ctx, "t1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if persisted.BulletOptimizations[0].Status != types.OptimizationAccepted {
		t.Errorf("Status change was not persisted: %s", persisted.BulletOptimizations[0].Status)
	}

	assertInvalidStatus := func(t *testing.T, err error) {
		t.Helper()
		if !resumeforgeErrors.IsValidation(err) {
			t.Fatalf("Expected validation error, got %v", err)
		}
		var appErr *resumeforgeErrors.AppError
		if !stderrors.As(err, &appErr) || appErr.Code != resumeforgeErrors.ErrCodeInvalidStatus {
			t.Errorf("Expected code %s, got %v", resumeforgeErrors.ErrCodeInvalidStatus, err)
		}
	}

	// b2 is already accepted; only pending bullets may change
	_, err = svc.UpdateBulletStatus(ctx, "t1", "b2", types.OptimizationRejected)
	assertInvalidStatus(t, err)

	// pending is not a valid target even for a pending bullet
	_, err = svc.UpdateBulletStatus(ctx, "t1", "b1", types.OptimizationPending)
	assertInvalidStatus(t, err)

	_, err = svc.UpdateBulletStatus(ctx, "t1", "b1", types.OptimizationStatus("bogus"))
	assertInvalidStatus(t, err)

	if _, err := svc.UpdateBulletStatus(ctx, "t1", "missing", types.OptimizationAccepted); !resumeforgeErrors.IsNotFound(err) {
		t.Errorf("Expected not-found for unknown bullet, got %v", err)
	}
	if _, err := svc.UpdateBulletStatus(ctx, "missing", "b1", types.OptimizationAccepted); !resumeforgeErrors.IsNotFound(err) {
		t.Errorf("Expected not-found for unknown tailored resume, got %v", err)
	}
}
