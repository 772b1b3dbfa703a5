package similarity

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrEmptyEmbedding     = errors.New("empty embedding")
	ErrDimensionMismatch  = errors.New("embedding dimensions differ")
	ErrNonFiniteEmbedding = errors.New("embedding has non-finite values")
)

// Encoder turns text into a fixed-length vector.
type Encoder interface {
	Encode(ctx context.Context, text string) ([]float64, error)
}

// WithTimeout bounds every Encode call of next. A non-positive timeout returns
// next unchanged.
func WithTimeout(next Encoder, timeout time.Duration) Encoder {
	if timeout <= 0 || next == nil {
		return next
	}
	return &timeoutEncoder{next: next, timeout: timeout}
}

type timeoutEncoder struct {
	next    Encoder
	timeout time.Duration
}

func (e *timeoutEncoder) Encode(ctx context.Context, text string) ([]float64, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	return e.next.Encode(ctx, text)
}

// Semantic compares embeddings of the two texts. Cosine similarity in [-1,1]
// is remapped to [0,1] with (cos+1)/2.
type Semantic struct {
	name    string
	encoder Encoder
}

func NewSemantic(name string, encoder Encoder) *Semantic {
	if name == "" {
		name = StrategySemantic
	}
	return &Semantic{name: name, encoder: encoder}
}

func (s *Semantic) Name() string { return s.name }

func (s *Semantic) Score(ctx context.Context, a, b string) (float64, error) {
	if s.encoder == nil {
		return 0, errors.New("semantic encoder is not configured")
	}

	va, err := s.encode(ctx, a)
	if err != nil {
		return 0, err
	}
	vb, err := s.encode(ctx, b)
	if err != nil {
		return 0, err
	}
	if len(va) != len(vb) {
		return 0, fmt.Errorf("%w: %d != %d", ErrDimensionMismatch, len(va), len(vb))
	}

	cos := 0.0
	for i := range va {
		cos += va[i] * vb[i]
	}

	return clamp01((cos + 1) / 2), nil
}

// encode returns the unit-normalized embedding of text.
func (s *Semantic) encode(ctx context.Context, text string) ([]float64, error) {
	vec, err := s.encoder.Encode(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	if len(vec) == 0 {
		return nil, ErrEmptyEmbedding
	}

	sum := 0.0
	for _, v := range vec {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, ErrNonFiniteEmbedding
		}
		sum += v * v
	}
	length := math.Sqrt(sum)
	if length == 0 {
		return nil, ErrEmptyEmbedding
	}

	unit := make([]float64, len(vec))
	for i, v := range vec {
		unit[i] = v / length
	}
	return unit, nil
}
