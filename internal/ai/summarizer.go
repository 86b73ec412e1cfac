package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	dom "github.com/haflows/tasknotify/internal/domain"
)

// ErrGeneration marks a malformed completion: the model answered but the
// response failed schema validation. Callers treat it as an upstream
// failure scoped to the single operation; there is no retry because a
// second attempt could double-send a digest. Transport and configuration
// errors pass through unchanged so sentinels like ErrNotConfigured stay
// matchable.
var ErrGeneration = errors.New("ai generation failed")

// TextGenerator is the completion API contract: prompt in, text out.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Analysis is the structured suggestion for a draft task.
type Analysis struct {
	Priority          dom.Priority `json:"priority"`
	SuggestedDetail   string       `json:"suggested_detail"`
	DueDateSuggestion *string      `json:"due_date_suggestion"`
}

// Digest is the composed notification content for one user.
type Digest struct {
	Subject     string `json:"subject"`
	HTMLBody    string `json:"html_body"`
	LineMessage string `json:"line_message"`
}

// Summarizer builds prompts, invokes the completion API once, and parses
// the JSON-shaped response.
type Summarizer struct {
	gen TextGenerator
}

func NewSummarizer(gen TextGenerator) *Summarizer {
	return &Summarizer{gen: gen}
}

const analyzePromptTemplate = `
Assuming you are an excellent secretary, please analyze the following tasks and output them in JSON format.

Task Title: %s
Task Details: %s

Please deduce the following information:
1. priority: Importance (High, Medium, Low)
2. suggested_detail: Improved task details (summarized or supplemented to be more clearer)
3. due_date_suggestion: Suggested deadline (e.g. "tomorrow 10:00 AM", or specific date if mentioned in text. If not mentioned, return null)

Output format (JSON only, no markdown code block):
{
  "priority": "High" | "Medium" | "Low",
  "suggested_detail": "string",
  "due_date_suggestion": "string" | null
}
`

// AnalyzeTask suggests priority, improved detail, and a due date for a
// draft task. Any malformed response surfaces as ErrGeneration.
func (s *Summarizer) AnalyzeTask(ctx context.Context, title, detail string) (Analysis, error) {
	prompt := fmt.Sprintf(analyzePromptTemplate, title, detail)
	text, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		return Analysis{}, fmt.Errorf("generate: %w", err)
	}

	var a Analysis
	if err := json.Unmarshal([]byte(stripFences(text)), &a); err != nil {
		return Analysis{}, fmt.Errorf("%w: parse response: %v", ErrGeneration, err)
	}
	if !a.Priority.Valid() {
		return Analysis{}, fmt.Errorf("%w: invalid priority %q", ErrGeneration, a.Priority)
	}
	return a, nil
}

const digestPromptTemplate = `
You are an excellent executive secretary.
Create a daily briefing email for %[1]s様.

[Task List]
%[2]s

[Requirements]
- Subject: Brief & Encouraging (Japanese, include "%[1]s様")
- Body: HTML format. Start with a standard Japanese business greeting "%[1]s様、おはようございます". Highlight critical tasks.
- line_message: Short plain text for chat (max 400 chars). Start with "%[1]s様".

Output JSON:
{
  "subject": "Subject",
  "html_body": "HTML Content",
  "line_message": "Text Content"
}
`

// ComposeDigest turns a user's pending tasks into email and chat content.
// One completion call; no retry.
func (s *Summarizer) ComposeDigest(ctx context.Context, userName string, tasks []dom.Task) (Digest, error) {
	if strings.TrimSpace(userName) == "" {
		userName = "ユーザー"
	}
	prompt := fmt.Sprintf(digestPromptTemplate, userName, formatTaskList(tasks))
	text, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		return Digest{}, fmt.Errorf("generate: %w", err)
	}

	var d Digest
	if err := json.Unmarshal([]byte(stripFences(text)), &d); err != nil {
		return Digest{}, fmt.Errorf("%w: parse response: %v", ErrGeneration, err)
	}
	if d.Subject == "" || d.HTMLBody == "" || d.LineMessage == "" {
		return Digest{}, fmt.Errorf("%w: incomplete digest content", ErrGeneration)
	}
	return d, nil
}

func formatTaskList(tasks []dom.Task) string {
	lines := make([]string, 0, len(tasks))
	for _, t := range tasks {
		due := "None"
		if t.DueDate != nil {
			due = t.DueDate.Format(time.RFC3339)
		}
		lines = append(lines, fmt.Sprintf("- [%s] %s (Due: %s)", t.Priority, t.Title, due))
	}
	return strings.Join(lines, "\n")
}

// stripFences removes leading/trailing markdown code-fence markers the
// model sometimes wraps its JSON output in.
func stripFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}
