package ai

import (
	"resumeforge/internal/config"
)

// SystemPrompts contains all system-level instructions for AI interactions
type SystemPrompts struct {
	AnalyzeJob     string
	OptimizeBullet string
	ChatAssistant  string
	ParseResume    string
}

// UserPrompts contains user-level prompts with placeholders for dynamic content
type UserPrompts struct {
	AnalyzeJob     string
	OptimizeBullet string
	ChatAssistant  string
	ParseResume    string
}

// DefaultSystemPrompts provides the default system instructions
var DefaultSystemPrompts = SystemPrompts{
	AnalyzeJob: `You are an expert at analyzing job descriptions.
Extract key information and return it in JSON format.`,

	OptimizeBullet: `You are a professional resume writer specializing in ATS-optimized resumes.
Your task is to rewrite bullet points to be more impactful and keyword-rich.`,

	ChatAssistant: `You are an expert resume coach helping a candidate tailor their resume for a specific role.
Ground every suggestion in the candidate's actual experience from the provided context.
Never invent experience the candidate does not have. Keep answers specific and actionable.`,

	ParseResume: `You are an expert resume parser. Extract structured information from the resume text.
Keep the original wording of every bullet point exactly as written and return each bullet as a separate string.`,
}

// DefaultUserPrompts provides the default user prompt templates.
// AnalyzeJob takes the job description text. OptimizeBullet takes the original
// bullet, a preformatted context block (may be empty), and the joined keyword
// list. ChatAssistant takes the retrieved context block and the user question.
// ParseResume takes the cleaned resume text.
var DefaultUserPrompts = UserPrompts{
	AnalyzeJob: `Analyze this job description and extract the following information in JSON format:

Job Description:
%s

CRITICAL INSTRUCTIONS:
1. required_skills and preferred_skills = ONLY technical/professional skills (e.g., Python, AWS, Leadership, SQL)
2. keywords = ONLY action verbs and important nouns from responsibilities (e.g., "develop", "design", "architecture", "scalability")
3. NO OVERLAP between skills and keywords

Return JSON:
{
    "company": "Company name (if mentioned)",
    "position": "Job title",
    "industry": "Industry (e.g., Tech, Finance, Healthcare)",
    "required_skills": ["Python", "AWS", "Docker"],
    "preferred_skills": ["Kubernetes", "GraphQL"],
    "responsibilities": ["resp1", "resp2"],
    "qualifications": ["qual1", "qual2"],
    "keywords": [
        {"text": "develop", "weight": 0.9, "category": "required"},
        {"text": "architecture", "weight": 0.8, "category": "required"},
        {"text": "optimize", "weight": 0.7, "category": "preferred"}
    ]
}

Keyword extraction rules:
- Extract ACTION VERBS: develop, design, lead, implement, optimize, manage, build, architect, collaborate, mentor
- Extract KEY NOUNS: architecture, scalability, performance, security, automation, infrastructure, pipelines
- Weight: 0.9-1.0 for most critical, 0.7-0.8 for important, 0.5-0.6 for secondary
- Limit to 10-15 most important keywords

Return ONLY valid JSON, no markdown formatting.`,

	OptimizeBullet: `Rewrite this resume bullet point to make it more impactful and ATS-friendly.

Original bullet:
%s
%s

Target keywords to naturally incorporate (if relevant):
%s

Requirements:
1. Use STAR framework when possible (Situation, Task, Action, Result)
2. Include quantifiable metrics if not already present (estimate if needed)
3. Start with a strong action verb
4. Naturally incorporate 2-3 relevant keywords from the list
5. Keep it concise: 1-2 lines maximum (under 95 characters per line)
6. Make the impact clear and specific
7. DO NOT fabricate information - only enhance what's already there

Return ONLY the optimized bullet point, no explanations.`,

	ChatAssistant: `%s

Question:
%s`,

	ParseResume: `Parse this resume and extract structured data in JSON format:

%s

Return JSON:
{
    "personal_info": {
        "name": "string",
        "email": "string",
        "phone": "string",
        "location": "string",
        "linkedin": "string",
        "website": "string"
    },
    "experiences": [
        {
            "company": "string",
            "title": "string",
            "location": "string",
            "start_date": "string",
            "end_date": "string",
            "bullets": [
                "First bullet point text",
                "Second bullet point text"
            ],
            "skills_used": ["Python", "AWS"]
        }
    ],
    "education": [
        {
            "institution": "string",
            "degree": "string",
            "field": "string",
            "graduation_date": "string"
        }
    ],
    "skills": [
        {"name": "string", "category": "string"}
    ]
}

IMPORTANT RULES:
- Each bullet point must be a SEPARATE string in the "bullets" array
- Remove bullet point symbols from the text
- Keep the original wording exactly as written
- Extract all available information and omit fields that are missing

Return ONLY valid JSON, no markdown formatting.`,
}

// ResolvePrompts returns the effective system and user prompt templates for an
// operation, honoring per-operation overrides. A false UseSystemPrompts clears
// the system prompt entirely.
func ResolvePrompts(operation string, opCfg *config.OperationAIConfig) (systemPrompt, userPrompt string) {
	loaded := config.GetPromptsForOperation(operation)
	configPrompts := &opCfg.CustomPrompts

	switch operation {
	case OpAnalyze:
		systemPrompt = resolvePrompt(
			loaded.SystemPrompts.AnalyzeJob,
			configPrompts.SystemPrompts.AnalyzeJob,
			DefaultSystemPrompts.AnalyzeJob,
		)
		userPrompt = resolvePrompt(
			loaded.UserPrompts.AnalyzeJob,
			configPrompts.UserPrompts.AnalyzeJob,
			DefaultUserPrompts.AnalyzeJob,
		)
	case OpOptimize:
		systemPrompt = resolvePrompt(
			loaded.SystemPrompts.OptimizeBullet,
			configPrompts.SystemPrompts.OptimizeBullet,
			DefaultSystemPrompts.OptimizeBullet,
		)
		userPrompt = resolvePrompt(
			loaded.UserPrompts.OptimizeBullet,
			configPrompts.UserPrompts.OptimizeBullet,
			DefaultUserPrompts.OptimizeBullet,
		)
	case OpChat:
		systemPrompt = resolvePrompt(
			loaded.SystemPrompts.ChatAssistant,
			configPrompts.SystemPrompts.ChatAssistant,
			DefaultSystemPrompts.ChatAssistant,
		)
		userPrompt = resolvePrompt(
			loaded.UserPrompts.ChatAssistant,
			configPrompts.UserPrompts.ChatAssistant,
			DefaultUserPrompts.ChatAssistant,
		)
	case OpParse:
		systemPrompt = resolvePrompt(
			loaded.SystemPrompts.ParseResume,
			configPrompts.SystemPrompts.ParseResume,
			DefaultSystemPrompts.ParseResume,
		)
		userPrompt = resolvePrompt(
			loaded.UserPrompts.ParseResume,
			configPrompts.UserPrompts.ParseResume,
			DefaultUserPrompts.ParseResume,
		)
	}

	if opCfg.UseSystemPrompts != nil && !*opCfg.UseSystemPrompts {
		systemPrompt = ""
	}

	return systemPrompt, userPrompt
}

// resolvePrompt selects the correct prompt string based on a clear priority order:
// 1. A prompt loaded from a file.
// 2. A prompt defined directly in the configuration.
// 3. A hardcoded default prompt.
func resolvePrompt(loadedFromFile, fromConfig, fromDefault string) string {
	if loadedFromFile != "" {
		return loadedFromFile
	}
	if fromConfig != "" {
		return fromConfig
	}
	return fromDefault
}
