package scoring

import (
	"errors"
	"fmt"
	"math"
)

// Weights are the linear weights of the five signals. They must be
// non-negative and sum to 1.
type Weights struct {
	MustHave   float64 `json:"must_have" mapstructure:"must-have"`
	Similarity float64 `json:"similarity" mapstructure:"similarity"`
	Fuzzy      float64 `json:"fuzzy" mapstructure:"fuzzy"`
	Experience float64 `json:"experience" mapstructure:"experience"`
	Skills     float64 `json:"skills" mapstructure:"skills"`
}

// DefaultWeights puts hard requirements first and semantic relevance second.
func DefaultWeights() Weights {
	return Weights{
		MustHave:   0.42,
		Similarity: 0.28,
		Fuzzy:      0.15,
		Experience: 0.10,
		Skills:     0.05,
	}
}

const weightsTolerance = 1e-6

func (w Weights) Validate() error {
	sum := 0.0
	for name, v := range map[string]float64{
		"must-have":  w.MustHave,
		"similarity": w.Similarity,
		"fuzzy":      w.Fuzzy,
		"experience": w.Experience,
		"skills":     w.Skills,
	} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("weight %s must be a non-negative number, got %v", name, v)
		}
		sum += v
	}
	if math.Abs(sum-1) > weightsTolerance {
		return fmt.Errorf("weights must sum to 1, got %.6f", sum)
	}
	return nil
}

// Options tune the aggregator.
type Options struct {
	Weights Weights `mapstructure:"weights"`
	// CanonicalSkillLimit is how many leading bucket skills join the fuzzy keywords.
	CanonicalSkillLimit int `mapstructure:"canonical-skill-limit"`
	// BoostFactor weighs resume skills related to the bucket, company or role.
	BoostFactor float64 `mapstructure:"boost-factor"`
}

func DefaultOptions() Options {
	return Options{
		Weights:             DefaultWeights(),
		CanonicalSkillLimit: 5,
		BoostFactor:         1.25,
	}
}

func (o Options) Validate() error {
	if err := o.Weights.Validate(); err != nil {
		return err
	}
	if o.CanonicalSkillLimit < 0 {
		return errors.New("canonical skill limit must not be negative")
	}
	if o.BoostFactor < 1 || math.IsInf(o.BoostFactor, 0) || math.IsNaN(o.BoostFactor) {
		return fmt.Errorf("boost factor must be a finite number >= 1, got %v", o.BoostFactor)
	}
	return nil
}
