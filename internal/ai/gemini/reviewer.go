package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/resume-screener/internal/ai"
	"github.com/spigell/resume-screener/internal/profile"
	"github.com/spigell/resume-screener/internal/scoring"
	"github.com/spigell/resume-screener/internal/utils"
)

const (
	defaultMaxLogLength = 200
	maxFocusRunes       = 300
	systemInstruction   = "You are a concise recruiting assistant. Answer with a single JSON object."
)

//go:embed prompt.md
var promptTemplate string

type contentGenerator interface {
	GenerateContent(ctx context.Context, system, message string) (string, error)
}

// Reviewer asks Gemini to explain a screening result.
type Reviewer struct {
	generator contentGenerator
	focus     string
	logger    *zap.Logger
	maxLogLen int
}

var _ ai.Reviewer = (*Reviewer)(nil)

func NewReviewer(generator contentGenerator, focus string, maxLogLength int, logger *zap.Logger) *Reviewer {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Reviewer{
		generator: generator,
		focus:     sanitizeFocus(focus),
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

func (r *Reviewer) Review(ctx context.Context, job profile.Job, result scoring.Result) (*ai.Review, error) {
	jobJSON, err := json.MarshalIndent(job, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal job payload: %w", err)
	}

	resultJSON, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result payload: %w", err)
	}

	prompt := buildPrompt(string(jobJSON), string(resultJSON), r.focus)

	r.logger.Debug("gemini review request",
		zap.String("job_id", job.ID),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.LogPreview(prompt, r.maxLogLen)),
	)

	raw, err := r.generator.GenerateContent(ctx, systemInstruction, prompt)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("gemini review response",
		zap.String("job_id", job.ID),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.LogPreview(raw, r.maxLogLen)),
	)

	review, err := parseResponse(raw)
	if err != nil {
		return nil, err
	}
	review.Raw = raw
	return review, nil
}

func buildPrompt(jobJSON, resultJSON, focus string) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Job:\n{{JOB_JSON}}\n\nResult:\n{{RESULT_JSON}}\n\nFocus:\n{{FOCUS}}\n\nJSON Response:"
	}
	return strings.NewReplacer(
		"{{JOB_JSON}}", jobJSON,
		"{{RESULT_JSON}}", resultJSON,
		"{{FOCUS}}", focus,
	).Replace(template)
}

// sanitizeFocus renders user supplied focus notes as an indented list,
// neutralizing bracketed role markers and capping the length.
func sanitizeFocus(focus string) string {
	focus = strings.NewReplacer("[", "(", "]", ")", "{{", "(", "}}", ")").Replace(focus)

	var lines []string
	for _, line := range strings.Split(focus, "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return "  - none"
	}

	joined := strings.Join(lines, "\n")
	if runes := []rune(joined); len(runes) > maxFocusRunes {
		joined = strings.TrimSpace(string(runes[:maxFocusRunes]))
	}

	lines = strings.Split(joined, "\n")
	for i, line := range lines {
		lines[i] = "  - " + line
	}
	return strings.Join(lines, "\n")
}

func parseResponse(raw string) (*ai.Review, error) {
	var data struct {
		Summary   any `json:"summary"`
		Strengths any `json:"strengths"`
		Gaps      any `json:"gaps"`
	}
	if err := json.Unmarshal([]byte(extractJSON(raw)), &data); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	return &ai.Review{
		Summary:   coerceString(data.Summary),
		Strengths: coerceStrings(data.Strengths),
		Gaps:      coerceStrings(data.Gaps),
	}, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func coerceString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	default:
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}

// coerceStrings accepts a list or a single string.
func coerceStrings(v any) []string {
	out := make([]string, 0)
	switch val := v.(type) {
	case []any:
		for _, item := range val {
			if s := coerceString(item); s != "" {
				out = append(out, s)
			}
		}
	default:
		if s := coerceString(val); s != "" {
			out = append(out, s)
		}
	}
	return out
}
