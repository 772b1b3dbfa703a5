// Package screening scores candidates' resumes against a job, one at a time
// or in parallel batches.
package screening

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/resume-screener/internal/profile"
	"github.com/spigell/resume-screener/internal/scoring"
)

const defaultConcurrency = 4

// Candidate is a resume already turned into plain text.
type Candidate struct {
	ID     string
	Source string
	Text   string
}

// CandidateIDFromPath uses the file name without extension as an ID.
func CandidateIDFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Screener wires the extractor and the aggregator together.
type Screener struct {
	extractor   *profile.Extractor
	aggregator  *scoring.Aggregator
	concurrency int
	logger      *zap.Logger
}

func New(extractor *profile.Extractor, aggregator *scoring.Aggregator, concurrency int, logger *zap.Logger) *Screener {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Screener{
		extractor:   extractor,
		aggregator:  aggregator,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Screen scores one candidate. It only fails when ctx is done.
func (s *Screener) Screen(ctx context.Context, job profile.Job, candidate Candidate) (*Ranking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(candidate.ID) == "" {
		return nil, errors.New("candidate id is required")
	}

	resume := s.extractor.Extract(candidate.Text)
	result := s.aggregator.Aggregate(ctx, job, resume, candidate.Text)

	s.logger.Debug("candidate screened",
		zap.String("candidate_id", candidate.ID),
		zap.String("job_id", job.ID),
		zap.Float64("accuracy", result.Accuracy),
		zap.Strings("skills", resume.Skills),
	)

	return &Ranking{
		CandidateID: candidate.ID,
		Source:      candidate.Source,
		ContentHash: contentHash(candidate.Text),
		Resume:      resume,
		Result:      result,
	}, nil
}

// ScreenAll scores every candidate with bounded parallelism. The rankings are
// sorted by accuracy descending, then by candidate ID.
func (s *Screener) ScreenAll(ctx context.Context, job profile.Job, candidates []Candidate) (*Rankings, error) {
	items := make([]*Ranking, len(candidates))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, candidate := range candidates {
		g.Go(func() error {
			ranking, err := s.Screen(gCtx, job, candidate)
			if err != nil {
				return fmt.Errorf("screen candidate %q: %w", candidate.ID, err)
			}
			// each goroutine owns its own slot.
			items[i] = ranking
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	rankings := &Rankings{Items: items}
	rankings.Sort()

	s.logger.Info("candidates screened",
		zap.String("job_id", job.ID),
		zap.Int("count", rankings.Len()),
	)

	return rankings, nil
}

func contentHash(text string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(text)))
	return fmt.Sprintf("%x", sum[:])
}
