// Package scoring combines the matching signals into one explainable fit score.
package scoring

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/resume-screener/internal/fuzzy"
	"github.com/spigell/resume-screener/internal/profile"
	"github.com/spigell/resume-screener/internal/similarity"
	"github.com/spigell/resume-screener/internal/taxonomy"
)

// Components are the sub-scores behind the accuracy, each in [0,1] and
// rounded to three decimals.
type Components struct {
	MustCoverage float64 `json:"must_cov"`
	Similarity   float64 `json:"similarity"`
	Fuzzy        float64 `json:"fuzzy"`
	Experience   float64 `json:"experience"`
	Weighted     float64 `json:"weighted"`
}

// Result is produced once per job and resume pair and is never mutated.
type Result struct {
	Accuracy           float64         `json:"accuracy"`
	Components         Components      `json:"components"`
	Bucket             taxonomy.Bucket `json:"bucket"`
	SimilarityStrategy string          `json:"similarity_strategy"`
	Skills             []string        `json:"skills"`
	MissingMustHave    []string        `json:"missing_must_have"`
}

// Similarity measures two texts and never fails. *similarity.Chain implements it.
type Similarity interface {
	Similarity(ctx context.Context, job, resume string) similarity.Measurement
}

// Aggregator is stateless after construction and safe for concurrent use.
type Aggregator struct {
	taxonomy   *taxonomy.Taxonomy
	similarity Similarity
	opts       Options
	logger     *zap.Logger
}

func New(t *taxonomy.Taxonomy, sim Similarity, opts Options, logger *zap.Logger) (*Aggregator, error) {
	if t == nil {
		return nil, fmt.Errorf("taxonomy is required")
	}
	if sim == nil {
		return nil, fmt.Errorf("similarity is required")
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("scoring options: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Aggregator{taxonomy: t, similarity: sim, opts: opts, logger: logger}, nil
}

// Aggregate scores the resume against the job. Degenerate inputs resolve to
// defined values, so it never fails.
func (a *Aggregator) Aggregate(ctx context.Context, job profile.Job, resume profile.Resume, text string) Result {
	bucket := a.taxonomy.Classify(job.Role, job.Description)
	canonical := a.taxonomy.Skills(bucket)

	skills := profile.NormalizeTerms(resume.Skills)
	slices.Sort(skills)

	mustCov, missing := mustCoverage(profile.NormalizeTerms(job.MustHave), skills)

	measured := a.similarity.Similarity(ctx, job.Description, text)
	sim := clamp01(measured.Value)

	limit := min(a.opts.CanonicalSkillLimit, len(canonical))
	keywords := union(profile.NormalizeTerms(job.NiceToHave), canonical[:limit])
	fuzzyCov := clamp01(fuzzy.Coverage(keywords, text))

	expFactor := clamp01(experienceFactor(resume.YearsExperience, job.MinExperienceYears))

	boostTerms := append(slices.Clone(canonical), profile.NormalizeTerms([]string{job.Company, job.Role})...)
	weighted := clamp01(a.weightedSkills(skills, boostTerms))

	w := a.opts.Weights
	internal := w.MustHave*mustCov +
		w.Similarity*sim +
		w.Fuzzy*fuzzyCov +
		w.Experience*expFactor +
		w.Skills*weighted

	result := Result{
		Accuracy: roundTo(clamp01(internal)*100, 1),
		Components: Components{
			MustCoverage: roundTo(mustCov, 3),
			Similarity:   roundTo(sim, 3),
			Fuzzy:        roundTo(fuzzyCov, 3),
			Experience:   roundTo(expFactor, 3),
			Weighted:     roundTo(weighted, 3),
		},
		Bucket:             bucket,
		SimilarityStrategy: measured.Strategy,
		Skills:             skills,
		MissingMustHave:    missing,
	}

	a.logger.Debug("resume scored",
		zap.String("job", job.DisplayName()),
		zap.String("bucket", string(bucket)),
		zap.String("similarity_strategy", measured.Strategy),
		zap.Float64("accuracy", result.Accuracy),
	)

	return result
}

// mustCoverage is the share of must-have phrases found among the skills.
// Nothing required means nothing unmet.
func mustCoverage(must, skills []string) (float64, []string) {
	missing := make([]string, 0)
	if len(must) == 0 {
		return 1, missing
	}

	found := 0
	for _, m := range must {
		if _, ok := slices.BinarySearch(skills, m); ok {
			found++
			continue
		}
		missing = append(missing, m)
	}
	return float64(found) / float64(len(must)), missing
}

func experienceFactor(years, required float64) float64 {
	if required <= 0 || math.IsNaN(required) || math.IsInf(required, 0) {
		return 1
	}
	if math.IsNaN(years) || years <= 0 {
		return 0
	}
	return math.Min(1, years/required)
}

// weightedSkills averages per-skill weights and normalizes by the boost factor.
func (a *Aggregator) weightedSkills(skills, boostTerms []string) float64 {
	if len(skills) == 0 {
		return 0
	}

	total := 0.0
	for _, skill := range skills {
		weight := 1.0
		for _, term := range boostTerms {
			if strings.Contains(skill, term) {
				weight = a.opts.BoostFactor
				break
			}
		}
		total += weight
	}

	return total / float64(len(skills)) / a.opts.BoostFactor
}

// union keeps first-seen order.
func union(a, b []string) []string {
	out := slices.Clone(a)
	for _, s := range b {
		if !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.RoundToEven(v*p) / p
}
