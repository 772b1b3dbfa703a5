// Package gemini talks to the Gemini API for embeddings and score reviews.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/resume-screener/internal/utils"
)

const (
	defaultModel      = "gemini-2.5-flash"
	defaultMaxRetries = 3
	baseRetryDelay    = time.Second
	// quota errors asking to wait longer than this are not retried.
	maxQuotaDelay = 30 * time.Second
)

var sleep = utils.WaitFor

var retryAfter = regexp.MustCompile(`(?i)retry (?:after|in) (\d+(?:\.\d+)?)\s*(s|sec|secs|seconds?)\b`)

type chatSession interface {
	SendMessage(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

type chatCreator interface {
	Create(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content) (chatSession, error)
}

type genaiChats struct {
	chats *genai.Chats
}

func (c genaiChats) Create(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content) (chatSession, error) {
	return c.chats.Create(ctx, model, config, history)
}

// Generator sends a system instruction and a message to Gemini and returns
// the text answer, retrying temporary API errors.
type Generator struct {
	chats      chatCreator
	model      string
	maxRetries int
	logger     *zap.Logger
}

func newClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return client, nil
}

// NewGenerator creates a new Generator configured for the Gemini API backend.
func NewGenerator(ctx context.Context, apiKey, model string, maxRetries int, logger *zap.Logger) (*Generator, error) {
	client, err := newClient(ctx, apiKey)
	if err != nil {
		return nil, err
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Generator{
		chats:      genaiChats{chats: client.Chats},
		model:      model,
		maxRetries: maxRetries,
		logger:     logger,
	}, nil
}

// GenerateContent returns the textual answer to message under the system instruction.
func (g *Generator) GenerateContent(ctx context.Context, system, message string) (string, error) {
	if g == nil || g.chats == nil {
		return "", errors.New("gemini generator is not initialized")
	}

	message = strings.TrimSpace(message)
	if message == "" {
		return "", errors.New("message must not be empty")
	}

	cfg := &genai.GenerateContentConfig{ResponseMIMEType: "application/json"}
	if system = strings.TrimSpace(system); system != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}

	var resp *genai.GenerateContentResponse
	err := withRetries(ctx, g.maxRetries, g.logger, func() error {
		chat, err := g.chats.Create(ctx, g.model, cfg, nil)
		if err != nil {
			return fmt.Errorf("create chat: %w", err)
		}
		resp, err = chat.SendMessage(ctx, genai.Part{Text: message})
		return err
	})
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	return responseText(resp)
}

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", errors.New("gemini api returned empty response")
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", errors.New("gemini api returned empty response")
	}
	return output, nil
}

// withRetries runs call up to attempts times while it fails with a temporary error.
func withRetries(ctx context.Context, attempts int, logger *zap.Logger, call func() error) error {
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = call(); err == nil {
			return nil
		}

		delay, retry := retryDelay(err, attempt)
		if !retry || attempt == attempts {
			return err
		}

		logger.Debug("gemini call failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		if waitErr := sleep(ctx, delay); waitErr != nil {
			return waitErr
		}
	}
	return err
}

// retryDelay reports whether err is temporary and how long to wait.
func retryDelay(err error, attempt int) (time.Duration, bool) {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		var apiErrPtr *genai.APIError
		if !errors.As(err, &apiErrPtr) || apiErrPtr == nil {
			return 0, false
		}
		apiErr = *apiErrPtr
	}

	backoff := baseRetryDelay * time.Duration(1<<(attempt-1))

	switch {
	case apiErr.Code == http.StatusTooManyRequests:
		if m := retryAfter.FindStringSubmatch(apiErr.Message); m != nil {
			seconds, parseErr := strconv.ParseFloat(m[1], 64)
			if parseErr == nil {
				wait := time.Duration(seconds * float64(time.Second))
				if wait > maxQuotaDelay {
					return 0, false
				}
				return max(wait, backoff), true
			}
		}
		return backoff, true
	case apiErr.Code >= http.StatusInternalServerError:
		return backoff, true
	default:
		return 0, false
	}
}
