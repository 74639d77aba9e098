// Package llm wraps the hosted-model collaborator behind typed calls:
// job-data extraction, fit scoring, and tailored document generation.
//
// Every call sends one prompt and expects strict JSON back (or plain text for
// the cover letter). The model is never trusted for derived values: sub-scores
// are clamped and the overall score and tags are recomputed locally from the
// scoring package.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"findmygig/scan-service/internal/metrics"
	"findmygig/scan-service/internal/model"
	"findmygig/scan-service/internal/scoring"
)

// roleTaxonomy is the fixed ten-tag taxonomy the extractor maps roles onto.
const roleTaxonomy = "RevOps, BizOps, CX Ops, GTM Ops, Strategy & Ops, Sales Ops, Chief of Staff, Product Ops, Data Ops, Marketing Ops"

// Client calls the chat-completions collaborator.
type Client struct {
	api   *openai.Client
	model string
}

// New constructs a Client. baseURL may be empty (hosted default) or point at
// a local mock server.
func New(apiKey, baseURL, modelName string) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	return &Client{api: openai.NewClientWithConfig(cfg), model: modelName}
}

// complete sends a single user prompt and returns the raw text reply.
func (c *Client) complete(ctx context.Context, operation, prompt string, maxTokens int) (string, error) {
	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.model,
		MaxTokens: maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	metrics.ObserveLLMRequest(operation, start, err)
	if err != nil {
		return "", fmt.Errorf("%s: %w", operation, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s: empty completion", operation)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// ─── Extraction ──────────────────────────────────────────────────────────────

// ExtractJobData pulls structured fields out of a raw job description.
// Missing fields come back nil; the prompt forbids fabrication.
func (c *Client) ExtractJobData(ctx context.Context, description string) (model.JobExtraction, error) {
	prompt := fmt.Sprintf(`Extract structured information from this job description. Map the role to one of these taxonomies: %s.

Job Description:
%s

Return ONLY a valid JSON object with this exact structure:
{
  "title": "extracted job title",
  "company": "company name",
  "description": "full description text",
  "locations": ["location1", "location2"],
  "roleTags": ["tag1", "tag2"],
  "postingDate": "YYYY-MM-DD or null",
  "workMode": "Remote|Hybrid|Onsite or null"
}

Rules:
- Never hallucinate or invent information
- Use null for missing fields
- Map role to closest taxonomy match
- Include all mentioned locations
- Return ONLY valid JSON, no markdown or explanations`, roleTaxonomy, description)

	raw, err := c.complete(ctx, "extract_job_data", prompt, 2000)
	if err != nil {
		return model.JobExtraction{}, err
	}

	var out model.JobExtraction
	if err := json.Unmarshal([]byte(stripJSONFence(raw)), &out); err != nil {
		return model.JobExtraction{}, fmt.Errorf("extract_job_data: decode response: %w", err)
	}
	if out.Title == "" || out.Company == "" {
		return model.JobExtraction{}, fmt.Errorf("extract_job_data: response missing title or company")
	}
	return out, nil
}

// ─── Fit scoring ─────────────────────────────────────────────────────────────

// scoreResponse mirrors the JSON shape the scoring prompt asks for. Only the
// two sub-scores and the explanation are consumed; overall and tags are
// recomputed locally.
type scoreResponse struct {
	UserToJobScore float64 `json:"userToJobScore"`
	JobToUserScore float64 `json:"jobToUserScore"`
	OverallScore   float64 `json:"overallScore"`
	Explanation    string  `json:"explanation"`
}

// ScoreJobFit scores the fit between a CV and a job against the user's
// aggregated preferences.
func (c *Client) ScoreJobFit(ctx context.Context, cv, jobDescription string, prefs model.Preferences, meta model.JobMeta) (model.Scoring, error) {
	prompt := fmt.Sprintf(`Score the fit between this candidate's CV and the job description.

CANDIDATE CV:
%s

JOB DESCRIPTION:
Title: %s
Company: %s
Locations: %s
Role Tags: %s

%s

USER PREFERENCES:
Preferred Roles: %s
Preferred Locations: %s
High-Interest Companies: %s

Calculate two scores (0-100):

1. User→Job Fit (60%% weight): How well does the CV match the JD requirements?
   - Consider explicit skills, experience, and qualifications ONLY
   - Never invent experience or metrics
   - Base score purely on what's documented in the CV

2. Job→User Fit (40%% weight): How well does the job match user preferences?
   - Role taxonomy match
   - Location match
   - Company match (high-interest companies boost score)
   - Unlisted companies should lower this score

Overall Score = min(0.6 × User→Job + 0.4 × Job→User, 100)

Provide 5-7 lines of explanation for both scores.

Return ONLY valid JSON:
{
  "userToJobScore": <number 0-100>,
  "jobToUserScore": <number 0-100>,
  "overallScore": <number 0-100>,
  "explanation": "5-7 lines explaining both scores"
}`,
		cv,
		meta.Title, meta.Company,
		strings.Join(meta.Locations, ", "), strings.Join(meta.RoleTags, ", "),
		jobDescription,
		strings.Join(prefs.Roles, ", "), strings.Join(prefs.Locations, ", "), strings.Join(prefs.Companies, ", "),
	)

	raw, err := c.complete(ctx, "score_job_fit", prompt, 1500)
	if err != nil {
		return model.Scoring{}, err
	}

	var resp scoreResponse
	if err := json.Unmarshal([]byte(stripJSONFence(raw)), &resp); err != nil {
		return model.Scoring{}, fmt.Errorf("score_job_fit: decode response: %w", err)
	}

	userToJob := scoring.Clamp(resp.UserToJobScore)
	jobToUser := scoring.Clamp(resp.JobToUserScore)
	return model.Scoring{
		UserToJobScore: userToJob,
		JobToUserScore: jobToUser,
		OverallScore:   scoring.Overall(userToJob, jobToUser),
		Explanation:    resp.Explanation,
		Tags:           scoring.DeriveTags(userToJob, jobToUser),
	}, nil
}

// ─── Document generation ─────────────────────────────────────────────────────

// GenerateTailoredCV rewrites the base CV for one job. Returns the structured
// sections plus a flattened plain-text rendering.
func (c *Client) GenerateTailoredCV(ctx context.Context, baseCV, jobDescription, jobTitle, company string) (model.CVSections, string, error) {
	prompt := fmt.Sprintf(`Rewrite this CV for the "%s" role at %s.

BASE CV (canonical source):
%s

TARGET JOB:
%s

Rules:
1. Use ONLY content from the base CV - never invent experience, metrics, or dates
2. Never alter job titles, dates, or company names
3. Reorder and rephrase content to highlight relevant experience
4. Inject keywords from the JD naturally
5. Keep under 1000 words
6. Make it ATS-friendly
7. Maintain professional tone

Return ONLY valid JSON:
{
  "sections": {
    "summary": "2-3 sentence summary (optional)",
    "experience": ["experience item 1", "experience item 2", ...],
    "education": ["education item 1", ...],
    "skills": ["skill1", "skill2", ...]
  }
}`, jobTitle, company, baseCV, jobDescription)

	raw, err := c.complete(ctx, "generate_cv", prompt, 3000)
	if err != nil {
		return model.CVSections{}, "", err
	}

	var resp struct {
		Sections model.CVSections `json:"sections"`
	}
	if err := json.Unmarshal([]byte(stripJSONFence(raw)), &resp); err != nil {
		return model.CVSections{}, "", fmt.Errorf("generate_cv: decode response: %w", err)
	}

	return resp.Sections, FlattenCV(resp.Sections), nil
}

// GenerateCoverLetter writes a short cover letter in the voice of the given
// style reference. Returns plain text.
func (c *Client) GenerateCoverLetter(ctx context.Context, baseCV, jobDescription, jobTitle, company, userName, styleReference string) (string, error) {
	prompt := fmt.Sprintf(`Write a cover letter for %s applying to the "%s" role at %s.

CANDIDATE CV:
%s

JOB DESCRIPTION:
%s

STYLE REFERENCE (match this tone and voice):
%s

Requirements:
- Maximum 200 words
- Short, punchy, direct
- Match the reference style: confident, a bit salty, no fluff
- Reference specific achievements from CV
- Show genuine interest in the company/role
- No generic platitudes

Return ONLY the cover letter text, no JSON, no markdown.`,
		userName, jobTitle, company, baseCV, jobDescription, styleReference)

	return c.complete(ctx, "generate_cover_letter", prompt, 500)
}

// FlattenCV renders the structured sections as the plain text used for the
// PDF artifact.
func FlattenCV(sections model.CVSections) string {
	var b strings.Builder
	if sections.Summary != "" {
		b.WriteString(sections.Summary)
		b.WriteString("\n\n")
	}
	if len(sections.Experience) > 0 {
		b.WriteString("EXPERIENCE\n")
		b.WriteString(strings.Join(sections.Experience, "\n\n"))
		b.WriteString("\n\n")
	}
	if len(sections.Education) > 0 {
		b.WriteString("EDUCATION\n")
		b.WriteString(strings.Join(sections.Education, "\n"))
		b.WriteString("\n\n")
	}
	if len(sections.Skills) > 0 {
		b.WriteString("SKILLS\n")
		b.WriteString(strings.Join(sections.Skills, ", "))
	}
	return b.String()
}
