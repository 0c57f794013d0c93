package types

import "time"

// KeywordCategory classifies how important a JD keyword is for scoring tiers.
type KeywordCategory string

const (
	KeywordRequired   KeywordCategory = "required"
	KeywordPreferred  KeywordCategory = "preferred"
	KeywordNiceToHave KeywordCategory = "nice_to_have"
)

// OptimizationStatus tracks the review state of an optimized bullet.
type OptimizationStatus string

const (
	OptimizationPending  OptimizationStatus = "pending"
	OptimizationAccepted OptimizationStatus = "accepted"
	OptimizationRejected OptimizationStatus = "rejected"
)

// PersonalInfo represents the contact block of a resume
type PersonalInfo struct {
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Location string `json:"location,omitempty"`
	LinkedIn string `json:"linkedin,omitempty"`
	Website  string `json:"website,omitempty"`
	Summary  string `json:"summary,omitempty"`
}

// BulletPoint represents a single achievement line within an experience.
// Text is immutable once created; optimization produces a new text on a
// BulletOptimization, never a mutation here.
type BulletPoint struct {
	ID         string   `json:"id"`
	Text       string   `json:"text"`
	Keywords   []string `json:"keywords,omitempty"`
	SkillsUsed []string `json:"skillsUsed,omitempty"`
}

// Experience represents one position in the career history
type Experience struct {
	ID           string        `json:"id"`
	Company      string        `json:"company"`
	Title        string        `json:"title"`
	Location     string        `json:"location,omitempty"`
	StartDate    string        `json:"startDate,omitempty"`
	EndDate      string        `json:"endDate,omitempty"`
	Description  string        `json:"description,omitempty"` // legacy free text, bullets preferred
	BulletPoints []BulletPoint `json:"bulletPoints,omitempty"`
	SkillsUsed   []string      `json:"skillsUsed,omitempty"`
	Industry     string        `json:"industry,omitempty"`
}

// Education represents one education entry
type Education struct {
	ID             string `json:"id"`
	Institution    string `json:"institution"`
	Degree         string `json:"degree,omitempty"`
	Field          string `json:"field,omitempty"`
	GraduationDate string `json:"graduationDate,omitempty"`
}

// Skill represents a named skill with an optional grouping category
type Skill struct {
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
}

// MasterResume is the user's full career history and the sole source of
// truth for experience content. Derived artifacts reference it by id.
type MasterResume struct {
	ID           string        `json:"id"`
	UserID       string        `json:"userId,omitempty"`
	PersonalInfo *PersonalInfo `json:"personalInfo,omitempty"`
	Experiences  []Experience  `json:"experiences"`
	Education    []Education   `json:"education,omitempty"`
	Skills       []Skill       `json:"skills,omitempty"`
	UpdatedAt    time.Time     `json:"updatedAt,omitempty"`
}

// KeywordWeight represents one weighted keyword extracted from a job posting.
// Weight is in [0,1]; Category is advisory for scoring tiers only.
type KeywordWeight struct {
	Text     string          `json:"text"`
	Weight   float64         `json:"weight"`
	Category KeywordCategory `json:"category,omitempty"`
}

// JobDescription is the structured, analyzed form of a job posting.
// Immutable once analyzed; identified by a stable id and a content hash
// of its raw text.
type JobDescription struct {
	ID               string          `json:"id"`
	UserID           string          `json:"userId,omitempty"`
	RawText          string          `json:"rawText"`
	ContentHash      string          `json:"contentHash,omitempty"`
	Title            string          `json:"title,omitempty"` // posting title as supplied by the caller
	Company          string          `json:"company,omitempty"`
	Position         string          `json:"position,omitempty"`
	Industry         string          `json:"industry,omitempty"`
	RequiredSkills   []string        `json:"requiredSkills,omitempty"`
	PreferredSkills  []string        `json:"preferredSkills,omitempty"`
	Responsibilities []string        `json:"responsibilities,omitempty"`
	Qualifications   []string        `json:"qualifications,omitempty"`
	Keywords         []KeywordWeight `json:"keywords,omitempty"`
	SourceURL        string          `json:"sourceUrl,omitempty"`
	AnalyzedAt       time.Time       `json:"analyzedAt,omitempty"`
}

// BulletOptimization represents the rewrite of one bullet against one JD.
// Created in pending; status changes only through explicit user action.
type BulletOptimization struct {
	BulletID       string             `json:"bulletId"`
	OriginalText   string             `json:"originalText"`
	OptimizedText  string             `json:"optimizedText"`
	Improvements   []string           `json:"improvements,omitempty"`
	KeywordMatches []string           `json:"keywordMatches,omitempty"`
	Status         OptimizationStatus `json:"status"`
}

// TailoredResume is the output of one tailoring run: ranked selections from
// a master resume plus optimized bullets and aggregate scores. Immutable
// after creation except for bullet status edits.
type TailoredResume struct {
	ID                    string               `json:"id"`
	MasterResumeID        string               `json:"masterResumeId"`
	JobDescriptionID      string               `json:"jobDescriptionId"`
	PersonalInfo          *PersonalInfo        `json:"personalInfo,omitempty"`
	SelectedExperienceIDs []string             `json:"selectedExperienceIds"` // ranked, best first
	BulletOptimizations   []BulletOptimization `json:"bulletOptimizations,omitempty"`
	SelectedEducationIDs  []string             `json:"selectedEducationIds,omitempty"`
	SelectedSkills        []string             `json:"selectedSkills,omitempty"`
	MatchScore            float64              `json:"matchScore"` // 0-100
	ATSScore              float64              `json:"atsScore"`   // 0-100
	CreatedAt             time.Time            `json:"createdAt,omitempty"`
}
