package gemini

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

type fakeChatCreator struct {
	mu    sync.Mutex
	calls []chatCallRecord
	queue map[string][]fakeChatResponse
}

type chatCallRecord struct {
	model  string
	config *genai.GenerateContentConfig
	chat   *fakeChat
}

type fakeChatResponse struct {
	resp *genai.GenerateContentResponse
	err  error
}

type fakeChat struct {
	mu       sync.Mutex
	response fakeChatResponse
	messages []string
}

func (f *fakeChat) SendMessage(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, part := range parts {
		f.messages = append(f.messages, part.Text)
	}
	return f.response.resp, f.response.err
}

func newFakeChatCreator() *fakeChatCreator {
	return &fakeChatCreator{queue: make(map[string][]fakeChatResponse)}
}

func (f *fakeChatCreator) enqueue(model string, resp *genai.GenerateContentResponse, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue[model] = append(f.queue[model], fakeChatResponse{resp: resp, err: err})
}

func (f *fakeChatCreator) Create(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content) (chatSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	responses := f.queue[model]
	if len(responses) == 0 {
		return nil, errors.New("unexpected call")
	}
	res := responses[0]
	f.queue[model] = responses[1:]
	chat := &fakeChat{response: res}
	f.calls = append(f.calls, chatCallRecord{model: model, config: config, chat: chat})
	return chat, nil
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: text}}},
		}},
	}
}

func noSleep(t *testing.T) {
	t.Helper()
	original := sleep
	sleep = func(context.Context, time.Duration) error { return nil }
	t.Cleanup(func() { sleep = original })
}

func TestGeneratorRetriesOnTemporaryError(t *testing.T) {
	noSleep(t)

	chats := newFakeChatCreator()
	tempErr := genai.APIError{Code: http.StatusInternalServerError, Status: "INTERNAL"}
	chats.enqueue("gemini-pro", nil, tempErr)
	chats.enqueue("gemini-pro", textResponse("retry ok"), nil)

	g := &Generator{
		chats:      chats,
		model:      "gemini-pro",
		maxRetries: 2,
		logger:     zap.NewNop(),
	}

	output, err := g.GenerateContent(context.Background(), "system", "message")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if output != "retry ok" {
		t.Fatalf("unexpected output: %q", output)
	}

	if len(chats.calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(chats.calls))
	}

	for _, call := range chats.calls {
		if call.config == nil || call.config.SystemInstruction == nil {
			t.Fatalf("expected system instruction to be set")
		}
		if got := call.config.SystemInstruction.Parts[0].Text; got != "system" {
			t.Fatalf("unexpected system instruction: %q", got)
		}
		if len(call.chat.messages) != 1 || call.chat.messages[0] != "message" {
			t.Fatalf("unexpected chat message: %+v", call.chat.messages)
		}
	}
}

func TestGeneratorStopsAfterRetriesExhausted(t *testing.T) {
	noSleep(t)

	chats := newFakeChatCreator()
	tempErr := genai.APIError{Code: http.StatusInternalServerError, Status: "INTERNAL"}
	chats.enqueue("gemini-pro", nil, tempErr)
	chats.enqueue("gemini-pro", nil, tempErr)

	g := &Generator{
		chats:      chats,
		model:      "gemini-pro",
		maxRetries: 2,
		logger:     zap.NewNop(),
	}

	_, err := g.GenerateContent(context.Background(), "sys", "msg")
	if err == nil {
		t.Fatal("expected error after retries exhausted")
	}

	if len(chats.calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(chats.calls))
	}
}

func TestGeneratorDoesNotRetryOnLongQuotaDelay(t *testing.T) {
	chats := newFakeChatCreator()
	quotaErr := genai.APIError{
		Code:    http.StatusTooManyRequests,
		Status:  "RESOURCE_EXHAUSTED",
		Message: "quota exhausted, retry after 60 seconds",
	}
	chats.enqueue("gemini-pro", nil, quotaErr)

	g := &Generator{
		chats:      chats,
		model:      "gemini-pro",
		maxRetries: 3,
		logger:     zap.NewNop(),
	}

	_, err := g.GenerateContent(context.Background(), "sys", "msg")
	if err == nil {
		t.Fatal("expected error when quota delay too long")
	}

	if len(chats.calls) != 1 {
		t.Fatalf("expected single call, got %d", len(chats.calls))
	}
}

func TestGeneratorDoesNotRetryClientErrors(t *testing.T) {
	chats := newFakeChatCreator()
	chats.enqueue("gemini-pro", nil, genai.APIError{Code: http.StatusBadRequest, Status: "INVALID_ARGUMENT"})

	g := &Generator{chats: chats, model: "gemini-pro", maxRetries: 3, logger: zap.NewNop()}

	if _, err := g.GenerateContent(context.Background(), "", "msg"); err == nil {
		t.Fatal("expected error")
	}
	if len(chats.calls) != 1 {
		t.Fatalf("expected single call, got %d", len(chats.calls))
	}
	if chats.calls[0].config.SystemInstruction != nil {
		t.Fatalf("expected no system instruction for empty system prompt")
	}
}

func TestGeneratorRejectsEmptyInput(t *testing.T) {
	g := &Generator{chats: newFakeChatCreator(), model: "m", maxRetries: 1, logger: zap.NewNop()}
	if _, err := g.GenerateContent(context.Background(), "sys", "   "); err == nil {
		t.Fatal("expected error for empty message")
	}

	var nilGen *Generator
	if _, err := nilGen.GenerateContent(context.Background(), "sys", "msg"); err == nil {
		t.Fatal("expected error for nil generator")
	}
	if nilGen.Model() != "" {
		t.Fatal("expected empty model for nil generator")
	}
}

func TestGeneratorEmptyResponse(t *testing.T) {
	chats := newFakeChatCreator()
	chats.enqueue("m", &genai.GenerateContentResponse{}, nil)

	g := &Generator{chats: chats, model: "m", maxRetries: 1, logger: zap.NewNop()}
	if _, err := g.GenerateContent(context.Background(), "sys", "msg"); err == nil {
		t.Fatal("expected error for empty response")
	}
}

func TestRetryDelay(t *testing.T) {
	cases := []struct {
		name  string
		err   error
		retry bool
		delay time.Duration
	}{
		{name: "plain error", err: errors.New("boom"), retry: false},
		{name: "server error", err: genai.APIError{Code: http.StatusServiceUnavailable}, retry: true, delay: baseRetryDelay},
		{name: "short quota delay", err: genai.APIError{Code: http.StatusTooManyRequests, Message: "Please retry in 5s."}, retry: true, delay: 5 * time.Second},
		{name: "quota without delay", err: genai.APIError{Code: http.StatusTooManyRequests}, retry: true, delay: baseRetryDelay},
		{name: "not found", err: genai.APIError{Code: http.StatusNotFound}, retry: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			delay, retry := retryDelay(tc.err, 1)
			if retry != tc.retry {
				t.Fatalf("expected retry=%v, got %v", tc.retry, retry)
			}
			if delay != tc.delay {
				t.Fatalf("expected delay %v, got %v", tc.delay, delay)
			}
		})
	}
}
