package optimizer

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"resumeforge/internal/ai"
	"resumeforge/internal/config"
	resumeforgeErrors "resumeforge/internal/errors"
	"resumeforge/internal/types"
)

type fakeGenerator struct {
	response string
	err      error
	calls    int
	lastReq  ai.GenerateRequest
}

func (f *fakeGenerator) GenerateText(ctx context.Context, req ai.GenerateRequest) (string, *ai.TokenUsage, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return "", nil, f.err
	}
	return f.response, &ai.TokenUsage{InputTokens: 80, OutputTokens: 40, TotalTokens: 120}, nil
}

func newTestConfig() *config.Config {
	cfg := &config.Config{}
	cfg.AI.Temperature = 0.7
	cfg.AI.MaxTokens = 200
	cfg.AI.UseSystemPrompts = true
	return cfg
}

func testJD() *types.JobDescription {
	return &types.JobDescription{
		Keywords: []types.KeywordWeight{
			{Text: "deployment", Weight: 0.9},
			{Text: "latency", Weight: 0.8},
			{Text: "meetings", Weight: 0.3},
		},
	}
}

func TestOptimizeSuccess(t *testing.T) {
	gen := &fakeGenerator{response: "Spearheaded deployment automation, cutting release latency by 40%"}
	o := New(gen, newTestConfig(), nil)
	bullet := types.BulletPoint{ID: "b1", Text: "Worked on release tooling"}

	opt := o.Optimize(context.Background(), bullet, testJD(), "Engineer at Acme", nil)

	if opt.BulletID != "b1" {
		t.Errorf("Expected bullet id b1, got %s", opt.BulletID)
	}
	if opt.OriginalText != bullet.Text {
		t.Errorf("Original text must be preserved verbatim, got %q", opt.OriginalText)
	}
	if opt.OptimizedText != gen.response {
		t.Errorf("Unexpected optimized text: %q", opt.OptimizedText)
	}
	if opt.Status != types.OptimizationPending {
		t.Errorf("Expected pending status, got %s", opt.Status)
	}
	if len(opt.KeywordMatches) != 2 || opt.KeywordMatches[0] != "deployment" || opt.KeywordMatches[1] != "latency" {
		t.Errorf("Expected deployment and latency matched, got %v", opt.KeywordMatches)
	}

	wantImprovements := map[string]bool{
		"Added quantifiable metrics":          true,
		"Added keywords: deployment, latency": true,
		"Used stronger action verb":           true,
		"Added more specific details":         true,
	}
	if len(opt.Improvements) != len(wantImprovements) {
		t.Fatalf("Expected %d improvements, got %v", len(wantImprovements), opt.Improvements)
	}
	for _, imp := range opt.Improvements {
		if !wantImprovements[imp] {
			t.Errorf("Unexpected improvement %q", imp)
		}
	}

	if gen.lastReq.Operation != ai.OpOptimize {
		t.Errorf("Expected optimize operation label, got %q", gen.lastReq.Operation)
	}
	if gen.lastReq.Temperature != 0.7 || gen.lastReq.MaxTokens != 200 {
		t.Errorf("Expected temperature 0.7 and 200 max tokens, got %f/%d", gen.lastReq.Temperature, gen.lastReq.MaxTokens)
	}
}

func TestOptimizeFailOpen(t *testing.T) {
	genErr := resumeforgeErrors.NewGenerationError(resumeforgeErrors.ErrCodeAllBackendsFailed, "all backends down", nil)
	gen := &fakeGenerator{err: genErr}
	logger, _ := resumeforgeErrors.New("error")
	o := New(gen, newTestConfig(), logger)
	bullet := types.BulletPoint{ID: "b1", Text: "Improved deployment reliability"}

	opt := o.Optimize(context.Background(), bullet, testJD(), "", nil)

	if opt.OptimizedText != bullet.Text {
		t.Errorf("Fail-open must return the original text verbatim, got %q", opt.OptimizedText)
	}
	if len(opt.Improvements) != 1 || opt.Improvements[0] != "Enhanced clarity and impact" {
		t.Errorf("Expected the default improvement note on fail-open, got %v", opt.Improvements)
	}
	// The keyword already present in the original still counts as matched
	if len(opt.KeywordMatches) != 1 || opt.KeywordMatches[0] != "deployment" {
		t.Errorf("Expected deployment matched from original text, got %v", opt.KeywordMatches)
	}
	if opt.Status != types.OptimizationPending {
		t.Errorf("Expected pending status, got %s", opt.Status)
	}
}

func TestOptimizeStripsListMarkers(t *testing.T) {
	tests := []struct {
		response string
		want     string
	}{
		{response: "• Spearheaded the rollout", want: "Spearheaded the rollout"},
		{response: "- Led the rollout", want: "Led the rollout"},
		{response: "* Drove the rollout", want: "Drove the rollout"},
		{response: "  •- Shipped it  ", want: "Shipped it"},
		{response: "No marker at all", want: "No marker at all"},
	}

	for _, tt := range tests {
		t.Run(tt.response, func(t *testing.T) {
			gen := &fakeGenerator{response: tt.response}
			o := New(gen, newTestConfig(), nil)
			opt := o.Optimize(context.Background(), types.BulletPoint{ID: "b", Text: "x"}, testJD(), "", nil)
			if opt.OptimizedText != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, opt.OptimizedText)
			}
		})
	}
}

func TestOptimizeEmptyResponseFailsOpen(t *testing.T) {
	gen := &fakeGenerator{response: "  •  "}
	o := New(gen, newTestConfig(), nil)
	bullet := types.BulletPoint{ID: "b1", Text: "Kept the lights on"}

	opt := o.Optimize(context.Background(), bullet, testJD(), "", nil)
	if opt.OptimizedText != bullet.Text {
		t.Errorf("Empty rewrite must fall back to the original, got %q", opt.OptimizedText)
	}
	if len(opt.Improvements) != 1 || opt.Improvements[0] != "Enhanced clarity and impact" {
		t.Errorf("Expected the default improvement note, got %v", opt.Improvements)
	}
}

func TestOptimizePromptContents(t *testing.T) {
	gen := &fakeGenerator{response: "Rewrote it"}
	o := New(gen, newTestConfig(), nil)
	bullet := types.BulletPoint{ID: "b1", Text: "Maintained CI pipelines"}

	o.Optimize(context.Background(), bullet, testJD(), "Platform Engineer at Acme", []string{"spearheaded", "led"})

	prompt := gen.lastReq.Prompt
	if !strings.Contains(prompt, bullet.Text) {
		t.Error("Prompt must contain the original bullet")
	}
	if !strings.Contains(prompt, "Context: Platform Engineer at Acme") {
		t.Error("Prompt must contain the experience context")
	}
	if !strings.Contains(prompt, "deployment, latency") {
		t.Error("Prompt must list the target keywords")
	}
	if strings.Contains(prompt, "meetings") {
		t.Error("Low-weight keywords must not be targeted")
	}
	if !strings.Contains(prompt, "already used in this resume") || !strings.Contains(prompt, "spearheaded, led") {
		t.Error("Prompt must carry the used-verb avoid list")
	}

	// Without used verbs there is no avoid block
	gen2 := &fakeGenerator{response: "Rewrote it"}
	o2 := New(gen2, newTestConfig(), nil)
	o2.Optimize(context.Background(), bullet, testJD(), "", nil)
	if strings.Contains(gen2.lastReq.Prompt, "already used in this resume") {
		t.Error("No avoid block expected when usedVerbs is empty")
	}
	if strings.Contains(gen2.lastReq.Prompt, "Context:") {
		t.Error("No context block expected when context is empty")
	}
}

func TestTargetKeywordsOrderAndFilter(t *testing.T) {
	keywords := make([]types.KeywordWeight, 0, 16)
	for i := 0; i < 16; i++ {
		weight := 0.9
		if i == 2 {
			weight = 0.4 // below the floor
		}
		keywords = append(keywords, types.KeywordWeight{Text: fmt.Sprintf("kw%d", i), Weight: weight})
	}

	targets := targetKeywords(keywords)

	// Position 2 is filtered by weight; position 15 falls outside the first 15
	for _, banned := range []string{"kw2", "kw15"} {
		for _, kw := range targets {
			if kw == banned {
				t.Errorf("Keyword %s must not be targeted", banned)
			}
		}
	}
	if len(targets) != 14 {
		t.Errorf("Expected 14 targets, got %d", len(targets))
	}
	if targets[0] != "kw0" || targets[1] != "kw1" || targets[2] != "kw3" {
		t.Errorf("Analysis order not preserved: %v", targets[:3])
	}
}

func TestIdentifyImprovements(t *testing.T) {
	tests := []struct {
		name      string
		original  string
		optimized string
		keywords  []string
		want      []string
	}{
		{
			name:      "metrics added",
			original:  "Improved performance",
			optimized: "Improved performance 40%",
			want:      []string{"Added quantifiable metrics"},
		},
		{
			name:      "metrics already present",
			original:  "Cut cloud spend by 10%",
			optimized: "Cut cloud costs by 15%",
			want:      []string{"Enhanced clarity and impact"},
		},
		{
			name:      "keywords capped at three",
			original:  "Did work",
			optimized: "alpha beta gamma delta",
			keywords:  []string{"alpha", "beta", "gamma", "delta"},
			want:      []string{"Added keywords: alpha, beta, gamma", "Added more specific details"},
		},
		{
			name:      "strong verb detected",
			original:  "Managed the data pipeline for reporting",
			optimized: "Orchestrated the data pipeline for reporting",
			want:      []string{"Used stronger action verb"},
		},
		{
			name:      "nothing changed",
			original:  "Maintained the service",
			optimized: "Maintained the service",
			want:      []string{"Enhanced clarity and impact"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := identifyImprovements(tt.original, tt.optimized, tt.keywords)
			if len(got) != len(tt.want) {
				t.Fatalf("Expected %v, got %v", tt.want, got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Expected %q at %d, got %q", tt.want[i], i, got[i])
				}
			}
		})
	}
}

func TestLeadingVerb(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{text: "Spearheaded the migration", want: "spearheaded"},
		{text: "  Led, with others", want: "led"},
		{text: "", want: ""},
		{text: "   ", want: ""},
	}
	for _, tt := range tests {
		if got := LeadingVerb(tt.text); got != tt.want {
			t.Errorf("LeadingVerb(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}
