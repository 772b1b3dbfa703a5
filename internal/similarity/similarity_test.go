package similarity

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeEncoder struct {
	vectors map[string][]float64
	err     error
	calls   int
}

func (f *fakeEncoder) Encode(_ context.Context, text string) ([]float64, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.vectors[text], nil
}

func TestLexicalSelfSimilarity(t *testing.T) {
	text := "Design user-centric experiences using Figma, wireframes and prototyping."
	got, err := NewLexical().Score(context.Background(), text, text)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got, 1e-9)
}

func TestLexicalKnownValue(t *testing.T) {
	got, err := NewLexical().Score(context.Background(), "react typescript", "React golang")
	require.NoError(t, err)

	w := math.Log(1.5) + 1
	assert.InDelta(t, 1/(1+w*w), got, 1e-12)
}

func TestLexicalNoSharedTerms(t *testing.T) {
	lex := NewLexical()

	got, err := lex.Score(context.Background(), "kubernetes terraform", "figma wireframes")
	require.NoError(t, err)
	assert.Zero(t, got)

	// only stop words and single letters.
	got, err = lex.Score(context.Background(), "the and a of", "the and a of")
	require.NoError(t, err)
	assert.Zero(t, got)

	got, err = lex.Score(context.Background(), "", "figma")
	require.NoError(t, err)
	assert.Zero(t, got)
}

func TestLexicalIsDeterministic(t *testing.T) {
	lex := NewLexical()
	a := "python pandas sql dashboards tableau power bi etl pipelines"
	b := "sql tableau reporting with python and airflow etl"

	first, _ := lex.Score(context.Background(), a, b)
	for i := 0; i < 20; i++ {
		got, _ := lex.Score(context.Background(), a, b)
		assert.Equal(t, first, got)
	}
}

func TestSemanticScore(t *testing.T) {
	enc := &fakeEncoder{vectors: map[string][]float64{
		"a":        {3, 4},
		"same":     {6, 8},
		"opposite": {-3, -4},
		"orthogo":  {-4, 3},
	}}
	sem := NewSemantic("fake", enc)

	got, err := sem.Score(context.Background(), "a", "a")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got, 1e-12)

	got, err = sem.Score(context.Background(), "a", "same")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got, 1e-12)

	got, err = sem.Score(context.Background(), "a", "opposite")
	require.NoError(t, err)
	assert.InDelta(t, 0.0, got, 1e-12)

	got, err = sem.Score(context.Background(), "a", "orthogo")
	require.NoError(t, err)
	assert.InDelta(t, 0.5, got, 1e-12)
}

func TestSemanticScoreErrors(t *testing.T) {
	enc := &fakeEncoder{vectors: map[string][]float64{
		"a":    {1, 0},
		"long": {1, 0, 0},
		"zero": {0, 0},
		"nan":  {math.NaN(), 1},
	}}
	sem := NewSemantic("", enc)
	assert.Equal(t, StrategySemantic, sem.Name())

	_, err := sem.Score(context.Background(), "a", "missing")
	assert.ErrorIs(t, err, ErrEmptyEmbedding)

	_, err = sem.Score(context.Background(), "a", "long")
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = sem.Score(context.Background(), "zero", "a")
	assert.ErrorIs(t, err, ErrEmptyEmbedding)

	_, err = sem.Score(context.Background(), "nan", "a")
	assert.ErrorIs(t, err, ErrNonFiniteEmbedding)

	_, err = NewSemantic("x", nil).Score(context.Background(), "a", "a")
	assert.Error(t, err)
}

type slowEncoder struct{}

func (slowEncoder) Encode(ctx context.Context, _ string) ([]float64, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestWithTimeout(t *testing.T) {
	enc := &fakeEncoder{}
	assert.Same(t, enc, WithTimeout(enc, 0))

	sem := NewSemantic("", WithTimeout(slowEncoder{}, 10*time.Millisecond))
	_, err := sem.Score(context.Background(), "a", "b")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	chain := NewChain(sem, nil)
	m := chain.Similarity(context.Background(), "react developer", "react developer")
	assert.Equal(t, StrategyLexical, m.Strategy)
}

func TestChainFallsBackOnFailure(t *testing.T) {
	job := "Build performant web apps using React, TypeScript and Next.js"
	resume := "Frontend developer: React, TypeScript, Jest and Tailwind"

	core, logs := observer.New(zapcore.DebugLevel)
	failing := NewSemantic("fake", &fakeEncoder{err: errors.New("model is not loaded")})
	chain := NewChain(failing, zap.New(core))

	assert.Equal(t, StrategySemantic, chain.Strategy())

	got := chain.Similarity(context.Background(), job, resume)
	want, err := NewLexical().Score(context.Background(), job, resume)
	require.NoError(t, err)

	assert.Equal(t, want, got.Value)
	assert.Equal(t, StrategyLexical, got.Strategy)
	assert.Equal(t, 1, logs.FilterMessage("semantic similarity failed, falling back").Len())
}

type constProvider struct{ value float64 }

func (c constProvider) Name() string { return "const" }

func (c constProvider) Score(context.Context, string, string) (float64, error) {
	return c.value, nil
}

func TestChainNonFiniteFallsBack(t *testing.T) {
	chain := NewChain(constProvider{value: math.NaN()}, nil)
	got := chain.Similarity(context.Background(), "react", "react")
	assert.Equal(t, StrategyLexical, got.Strategy)
	assert.InDelta(t, 1.0, got.Value, 1e-9)
}

func TestChainUsesPrimary(t *testing.T) {
	chain := NewChain(constProvider{value: 1.7}, nil)
	got := chain.Similarity(context.Background(), "a", "b")
	assert.Equal(t, StrategySemantic, got.Strategy)
	assert.Equal(t, 1.0, got.Value)
}

func TestResolve(t *testing.T) {
	ctx := context.Background()

	chain := Resolve(ctx, nil, nil)
	assert.Equal(t, StrategyLexical, chain.Strategy())

	chain = Resolve(ctx, func(context.Context) (Provider, error) {
		return nil, errors.New("no api key")
	}, nil)
	assert.Equal(t, StrategyLexical, chain.Strategy())

	enc := &fakeEncoder{vectors: map[string][]float64{"x": {1, 2, 3}}}
	chain = Resolve(ctx, func(context.Context) (Provider, error) {
		return NewSemantic("fake", enc), nil
	}, nil)
	assert.Equal(t, StrategySemantic, chain.Strategy())

	got := chain.Similarity(ctx, "x", "x")
	assert.Equal(t, StrategySemantic, got.Strategy)
	assert.InDelta(t, 1.0, got.Value, 1e-12)
	assert.Equal(t, 2, enc.calls)
}
