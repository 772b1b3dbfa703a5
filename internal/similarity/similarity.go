// Package similarity measures how close a job description and a resume are.
//
// Two strategies exist: a semantic one backed by an embedding Encoder and a
// lexical TF-IDF one that needs nothing but the two texts. A Chain prefers the
// semantic strategy and silently degrades to the lexical one on any failure.
package similarity

import (
	"context"
	"math"

	"go.uber.org/zap"
)

const (
	StrategyLexical  = "lexical"
	StrategySemantic = "semantic"
)

// Provider scores two texts in [0,1].
type Provider interface {
	Name() string
	Score(ctx context.Context, a, b string) (float64, error)
}

// Measurement is a similarity value together with the strategy that produced it.
type Measurement struct {
	Value    float64
	Strategy string
}

// Chain holds an optional primary provider and the lexical fallback. It is
// built once at startup and is safe for concurrent use.
type Chain struct {
	primary  Provider
	fallback *Lexical
	logger   *zap.Logger
}

// NewChain builds a chain. A nil primary makes the chain lexical-only.
func NewChain(primary Provider, logger *zap.Logger) *Chain {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Chain{primary: primary, fallback: NewLexical(), logger: logger}
}

// Resolve constructs the primary provider once. When the factory is nil or
// fails, the chain stays lexical-only for the process lifetime.
func Resolve(ctx context.Context, factory func(context.Context) (Provider, error), logger *zap.Logger) *Chain {
	if logger == nil {
		logger = zap.NewNop()
	}
	if factory == nil {
		logger.Debug("semantic similarity is not configured", zap.String("strategy", StrategyLexical))
		return NewChain(nil, logger)
	}

	primary, err := factory(ctx)
	if err != nil || primary == nil {
		logger.Warn("semantic similarity is unavailable, using lexical strategy", zap.Error(err))
		return NewChain(nil, logger)
	}

	logger.Info("semantic similarity enabled", zap.String("provider", primary.Name()))
	return NewChain(primary, logger)
}

// Strategy names the preferred strategy of the chain.
func (c *Chain) Strategy() string {
	if c.primary != nil {
		return StrategySemantic
	}
	return StrategyLexical
}

// Similarity never fails: a primary error, a non-finite value or a missing
// primary yields the lexical value.
func (c *Chain) Similarity(ctx context.Context, job, resume string) Measurement {
	if c.primary != nil {
		value, err := c.primary.Score(ctx, job, resume)
		switch {
		case err != nil:
			c.logger.Debug("semantic similarity failed, falling back",
				zap.String("provider", c.primary.Name()),
				zap.Error(err),
			)
		case math.IsNaN(value) || math.IsInf(value, 0):
			c.logger.Debug("semantic similarity is not finite, falling back",
				zap.String("provider", c.primary.Name()),
			)
		default:
			return Measurement{Value: clamp01(value), Strategy: StrategySemantic}
		}
	}

	value, _ := c.fallback.Score(ctx, job, resume)
	return Measurement{Value: value, Strategy: StrategyLexical}
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
