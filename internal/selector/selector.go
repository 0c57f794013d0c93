// Package selector ranks resume content against an analyzed job description.
// All scoring is local arithmetic; no generation calls happen here.
package selector

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"resumeforge/internal/types"
)

// Experience scoring weights. The four terms are independent and additive;
// each is capped by its own weight, so a perfect experience scores 100.
const (
	SkillMatchPoints      = 40.0
	KeywordCoveragePoints = 30.0
	IndustryExactPoints   = 15.0
	IndustryPartialPoints = 10.0
	ResponsibilityPoints  = 15.0
)

// Bullet scoring weights
const (
	HighWeightThreshold    = 0.8
	MediumWeightThreshold  = 0.6
	HighWeightMultiplier   = 50.0
	MediumWeightMultiplier = 30.0
	LowWeightMultiplier    = 10.0
	MetricsBonus           = 20.0
)

// DefaultMatchScore is returned when the JD carries no keywords to match
const DefaultMatchScore = 50.0

// metricPatterns recognize quantified impact: percentages, currency,
// multipliers, "N+", K/M/B suffixes, and counts with a unit noun.
var metricPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\d+%`),
	regexp.MustCompile(`\$\d+`),
	regexp.MustCompile(`\d+[xX]`),
	regexp.MustCompile(`\d+\+`),
	regexp.MustCompile(`\d+[KkMmBb]`),
	regexp.MustCompile(`\d+\s*(users|customers|requests|transactions)`),
}

// SelectContent scores every experience, keeps the top maxExperiences in
// descending score order (ties keep input order), and picks up to
// maxBulletsPerExperience bullets for each keeper.
func SelectContent(resume *types.MasterResume, jd *types.JobDescription, maxExperiences, maxBulletsPerExperience int) ([]types.Experience, map[string][]types.BulletPoint) {
	if maxExperiences < 0 {
		maxExperiences = 0
	}

	type rankedExperience struct {
		exp   types.Experience
		score float64
	}
	ranked := make([]rankedExperience, 0, len(resume.Experiences))
	for _, exp := range resume.Experiences {
		ranked = append(ranked, rankedExperience{exp: exp, score: ScoreExperience(exp, jd)})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})
	if len(ranked) > maxExperiences {
		ranked = ranked[:maxExperiences]
	}

	selected := make([]types.Experience, 0, len(ranked))
	bulletsByExperience := make(map[string][]types.BulletPoint, len(ranked))
	for _, r := range ranked {
		selected = append(selected, r.exp)
		bulletsByExperience[r.exp.ID] = SelectBullets(r.exp, jd, maxBulletsPerExperience)
	}
	return selected, bulletsByExperience
}

// ScoreExperience rates one experience 0-100 against the JD
func ScoreExperience(exp types.Experience, jd *types.JobDescription) float64 {
	score := 0.0

	// Skill overlap against the union of required and preferred JD skills
	if len(exp.SkillsUsed) > 0 {
		jdSkills := lowerSet(jd.RequiredSkills, jd.PreferredSkills)
		if len(jdSkills) > 0 {
			overlap := 0
			for skill := range lowerSet(exp.SkillsUsed) {
				if jdSkills[skill] {
					overlap++
				}
			}
			score += float64(overlap) / float64(len(jdSkills)) * SkillMatchPoints
		}
	}

	// Keyword occurrences across bullets, normalized by the densest possible
	// coverage (every keyword in every bullet)
	keywords := lowerKeywords(jd.Keywords)
	if len(keywords) > 0 && len(exp.BulletPoints) > 0 {
		matches := 0
		for _, bullet := range exp.BulletPoints {
			bulletText := strings.ToLower(bullet.Text)
			for _, kw := range keywords {
				if strings.Contains(bulletText, kw) {
					matches++
				}
			}
		}
		maxPossible := len(keywords) * len(exp.BulletPoints)
		coverage := float64(matches) / float64(maxPossible) * 100
		score += math.Min(coverage, KeywordCoveragePoints)
	}

	// Industry: exact match beats substring containment
	if exp.Industry != "" && jd.Industry != "" {
		expIndustry := strings.ToLower(exp.Industry)
		jdIndustry := strings.ToLower(jd.Industry)
		if expIndustry == jdIndustry {
			score += IndustryExactPoints
		} else if strings.Contains(expIndustry, jdIndustry) {
			score += IndustryPartialPoints
		}
	}

	// Responsibility relevance: a responsibility counts when any of its
	// first three words appears in any bullet
	if len(jd.Responsibilities) > 0 && len(exp.BulletPoints) > 0 {
		matched := 0
		for _, resp := range jd.Responsibilities {
			words := strings.Fields(strings.ToLower(resp))
			if len(words) > 3 {
				words = words[:3]
			}
			if anyWordInBullets(words, exp.BulletPoints) {
				matched++
			}
		}
		score += float64(matched) / float64(len(jd.Responsibilities)) * ResponsibilityPoints
	}

	return score
}

// SelectBullets ranks an experience's bullets and keeps the top maxBullets,
// ties keeping input order.
func SelectBullets(exp types.Experience, jd *types.JobDescription, maxBullets int) []types.BulletPoint {
	if len(exp.BulletPoints) == 0 {
		return []types.BulletPoint{}
	}
	if maxBullets < 0 {
		maxBullets = 0
	}

	type rankedBullet struct {
		bullet types.BulletPoint
		score  float64
	}
	ranked := make([]rankedBullet, 0, len(exp.BulletPoints))
	for _, bullet := range exp.BulletPoints {
		ranked = append(ranked, rankedBullet{bullet: bullet, score: ScoreBullet(bullet, jd)})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})
	if len(ranked) > maxBullets {
		ranked = ranked[:maxBullets]
	}

	selected := make([]types.BulletPoint, 0, len(ranked))
	for _, r := range ranked {
		selected = append(selected, r.bullet)
	}
	return selected
}

// ScoreBullet rates one bullet: weighted keyword hits summed without cap,
// plus a flat bonus for quantified impact.
func ScoreBullet(bullet types.BulletPoint, jd *types.JobDescription) float64 {
	score := 0.0
	bulletText := strings.ToLower(bullet.Text)

	for _, kw := range jd.Keywords {
		if !strings.Contains(bulletText, strings.ToLower(kw.Text)) {
			continue
		}
		switch {
		case kw.Weight >= HighWeightThreshold:
			score += HighWeightMultiplier * kw.Weight
		case kw.Weight >= MediumWeightThreshold:
			score += MediumWeightMultiplier * kw.Weight
		default:
			score += LowWeightMultiplier * kw.Weight
		}
	}

	if HasMetrics(bullet.Text) {
		score += MetricsBonus
	}
	return score
}

// HasMetrics reports whether the text contains a quantification pattern
func HasMetrics(text string) bool {
	for _, p := range metricPatterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// MatchScore is the fraction of distinct JD keywords found case-insensitively
// in the selected experiences' skills or bullet text, scaled to 0-100.
// Returns DefaultMatchScore when the JD has no keywords.
func MatchScore(selected []types.Experience, jd *types.JobDescription) float64 {
	if len(jd.Keywords) == 0 {
		return DefaultMatchScore
	}

	jdKeywords := make(map[string]bool, len(jd.Keywords))
	for _, kw := range jd.Keywords {
		jdKeywords[strings.ToLower(kw.Text)] = true
	}

	found := make(map[string]bool)
	for _, exp := range selected {
		for _, skill := range exp.SkillsUsed {
			skillText := strings.ToLower(skill)
			for kw := range jdKeywords {
				if strings.Contains(skillText, kw) {
					found[kw] = true
				}
			}
		}
		for _, bullet := range exp.BulletPoints {
			bulletText := strings.ToLower(bullet.Text)
			for kw := range jdKeywords {
				if strings.Contains(bulletText, kw) {
					found[kw] = true
				}
			}
		}
	}

	return math.Min(float64(len(found))/float64(len(jdKeywords))*100, 100.0)
}

// ExperienceScore is one row of a ScoreReport
type ExperienceScore struct {
	ExperienceID string  `json:"experienceId"`
	Company      string  `json:"company"`
	Title        string  `json:"title"`
	Score        float64 `json:"score"`
	Selected     bool    `json:"selected"`
}

// ScoreReport shows how a resume ranks against a posting without any
// generation calls: every experience scored in descending order, the top
// maxExperiences marked selected, and the match score those picks produce.
type ScoreReport struct {
	Position    string            `json:"position"`
	Company     string            `json:"company,omitempty"`
	MatchScore  float64           `json:"matchScore"`
	Experiences []ExperienceScore `json:"experiences"`
}

// BuildScoreReport ranks experiences exactly like SelectContent and reports
// the scores instead of the content
func BuildScoreReport(resume *types.MasterResume, jd *types.JobDescription, maxExperiences int) ScoreReport {
	if maxExperiences < 0 {
		maxExperiences = 0
	}

	type rankedExperience struct {
		exp   types.Experience
		score float64
	}
	ranked := make([]rankedExperience, 0, len(resume.Experiences))
	for _, exp := range resume.Experiences {
		ranked = append(ranked, rankedExperience{exp: exp, score: ScoreExperience(exp, jd)})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	report := ScoreReport{
		Position:    jd.Position,
		Company:     jd.Company,
		Experiences: make([]ExperienceScore, 0, len(ranked)),
	}
	selected := make([]types.Experience, 0, len(ranked))
	for i, r := range ranked {
		isSelected := i < maxExperiences
		if isSelected {
			selected = append(selected, r.exp)
		}
		report.Experiences = append(report.Experiences, ExperienceScore{
			ExperienceID: r.exp.ID,
			Company:      r.exp.Company,
			Title:        r.exp.Title,
			Score:        r.score,
			Selected:     isSelected,
		})
	}
	report.MatchScore = MatchScore(selected, jd)
	return report
}

func anyWordInBullets(words []string, bullets []types.BulletPoint) bool {
	for _, bullet := range bullets {
		bulletText := strings.ToLower(bullet.Text)
		for _, w := range words {
			if strings.Contains(bulletText, w) {
				return true
			}
		}
	}
	return false
}

func lowerSet(lists ...[]string) map[string]bool {
	set := make(map[string]bool)
	for _, list := range lists {
		for _, s := range list {
			set[strings.ToLower(s)] = true
		}
	}
	return set
}

func lowerKeywords(keywords []types.KeywordWeight) []string {
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		out = append(out, strings.ToLower(kw.Text))
	}
	return out
}
