package gemini

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

const (
	defaultEmbeddingModel  = "gemini-embedding-001"
	taskSemanticSimilarity = "SEMANTIC_SIMILARITY"
)

type embedAPI interface {
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

// Embedder encodes text with a Gemini embedding model. Results are memoized
// per text, so each distinct text is sent once per process.
type Embedder struct {
	api        embedAPI
	model      string
	maxRetries int
	logger     *zap.Logger

	cacheMu sync.RWMutex
	cache   map[string][]float64
}

func NewEmbedder(ctx context.Context, apiKey, model string, maxRetries int, logger *zap.Logger) (*Embedder, error) {
	client, err := newClient(ctx, apiKey)
	if err != nil {
		return nil, err
	}
	return newEmbedder(client.Models, model, maxRetries, logger), nil
}

func newEmbedder(api embedAPI, model string, maxRetries int, logger *zap.Logger) *Embedder {
	if model = strings.TrimSpace(model); model == "" {
		model = defaultEmbeddingModel
	}
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Embedder{
		api:        api,
		model:      model,
		maxRetries: maxRetries,
		logger:     logger,
		cache:      make(map[string][]float64),
	}
}

func (e *Embedder) Model() string { return e.model }

// Encode returns the embedding of text. The returned slice must not be modified.
func (e *Embedder) Encode(ctx context.Context, text string) ([]float64, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("text must not be empty")
	}

	sum := sha256.Sum256([]byte(text))
	key := fmt.Sprintf("%x", sum[:])

	e.cacheMu.RLock()
	cached, ok := e.cache[key]
	e.cacheMu.RUnlock()
	if ok {
		return cached, nil
	}

	cfg := &genai.EmbedContentConfig{TaskType: taskSemanticSimilarity}

	var resp *genai.EmbedContentResponse
	err := withRetries(ctx, e.maxRetries, e.logger, func() error {
		var err error
		resp, err = e.api.EmbedContent(ctx, e.model, genai.Text(text), cfg)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("embed content: %w", err)
	}
	if resp == nil || len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil || len(resp.Embeddings[0].Values) == 0 {
		return nil, errors.New("gemini api returned empty embedding")
	}

	values := resp.Embeddings[0].Values
	vec := make([]float64, len(values))
	for i, v := range values {
		vec[i] = float64(v)
	}

	e.cacheMu.Lock()
	e.cache[key] = vec
	e.cacheMu.Unlock()

	e.logger.Debug("text embedded", zap.Int("dimensions", len(vec)))

	return vec, nil
}
