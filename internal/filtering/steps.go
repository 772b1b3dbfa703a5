package filtering

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/resume-screener/internal/screening"
)

type duplicatesFilter struct {
	toggle
	logger *zap.Logger
}

// NewDuplicates keeps only the best ranked candidate among identical resumes.
// Rankings are expected to be sorted best first.
func NewDuplicates(logger *zap.Logger) Filter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &duplicatesFilter{logger: logger}
}

func (f *duplicatesFilter) Name() string { return "duplicates" }

func (f *duplicatesFilter) Validate() error { return nil }

func (f *duplicatesFilter) Apply(_ context.Context, r *screening.Rankings) (*screening.Rankings, Step, error) {
	initial := r.Len()
	seen := make(map[string]struct{}, initial)

	dropped := r.Keep(func(ranking *screening.Ranking) bool {
		if ranking.ContentHash == "" {
			return true
		}
		if _, ok := seen[ranking.ContentHash]; ok {
			return false
		}
		seen[ranking.ContentHash] = struct{}{}
		return true
	})

	if len(dropped) > 0 {
		f.logger.Info("excluding duplicated resumes",
			zap.Strings("excluded_candidates", dropped),
			zap.Int("candidates_left", r.Len()),
		)
	}

	return r, Step{Initial: initial, Dropped: len(dropped), Left: r.Len()}, nil
}

func (f *duplicatesFilter) Status() Status {
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason}
}

type mustHaveFilter struct {
	toggle
	logger *zap.Logger
}

// NewMustHave drops candidates missing any must-have requirement.
func NewMustHave(enabled bool, logger *zap.Logger) Filter {
	if logger == nil {
		logger = zap.NewNop()
	}
	f := &mustHaveFilter{logger: logger}
	if !enabled {
		f.Disable("require-all-must-have is not set")
	}
	return f
}

func (f *mustHaveFilter) Name() string { return "must_have" }

func (f *mustHaveFilter) Validate() error { return nil }

func (f *mustHaveFilter) Apply(_ context.Context, r *screening.Rankings) (*screening.Rankings, Step, error) {
	initial := r.Len()

	dropped := r.Keep(func(ranking *screening.Ranking) bool {
		return len(ranking.Result.MissingMustHave) == 0
	})

	if len(dropped) > 0 {
		f.logger.Info("excluding candidates with unmet must-have requirements",
			zap.Strings("excluded_candidates", dropped),
			zap.Int("candidates_left", r.Len()),
		)
	}

	return r, Step{Initial: initial, Dropped: len(dropped), Left: r.Len()}, nil
}

func (f *mustHaveFilter) Status() Status {
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason}
}

// MinimumAccuracyConfig configures the threshold step.
type MinimumAccuracyConfig struct {
	Threshold float64
	// ExcludeFile receives rejected candidates when AppendRejected is set.
	ExcludeFile    string
	AppendRejected bool
	JobID          string
}

type minimumAccuracyFilter struct {
	toggle
	cfg    MinimumAccuracyConfig
	logger *zap.Logger
}

// NewMinimumAccuracy drops candidates scoring below the threshold.
func NewMinimumAccuracy(cfg MinimumAccuracyConfig, logger *zap.Logger) Filter {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.ExcludeFile = strings.TrimSpace(cfg.ExcludeFile)
	f := &minimumAccuracyFilter{cfg: cfg, logger: logger}
	if cfg.Threshold <= 0 {
		f.Disable("minimum accuracy is not set")
	}
	return f
}

func (f *minimumAccuracyFilter) Name() string { return "minimum_accuracy" }

func (f *minimumAccuracyFilter) Validate() error {
	if f.cfg.Threshold > 100 {
		return fmt.Errorf("minimum accuracy must be within [0,100], got %v", f.cfg.Threshold)
	}
	if f.cfg.AppendRejected && f.cfg.ExcludeFile == "" {
		return errors.New("exclude file is required to append rejected candidates")
	}
	return nil
}

func (f *minimumAccuracyFilter) Apply(_ context.Context, r *screening.Rankings) (*screening.Rankings, Step, error) {
	initial := r.Len()
	rejected := &screening.Rankings{}

	r.Keep(func(ranking *screening.Ranking) bool {
		if ranking.Result.Accuracy >= f.cfg.Threshold {
			return true
		}
		rejected.Items = append(rejected.Items, ranking)
		return false
	})

	if rejected.Len() > 0 {
		f.logger.Info("excluding candidates below minimum accuracy",
			zap.Float64("threshold", f.cfg.Threshold),
			zap.Strings("excluded_candidates", rejected.IDs()),
			zap.Int("candidates_left", r.Len()),
		)
	}

	if f.cfg.AppendRejected && rejected.Len() > 0 {
		excluded, err := LoadExcluded(f.cfg.ExcludeFile)
		if err != nil {
			return r, Step{}, err
		}
		excluded.Append(ToExcluded(f.cfg.JobID, rejected))
		if err := excluded.ToFile(f.cfg.ExcludeFile); err != nil {
			return r, Step{}, fmt.Errorf("append rejected candidates to exclude file: %w", err)
		}
		f.logger.Info("appended to exclude file", zap.String("filename", f.cfg.ExcludeFile))
	}

	return r, Step{Initial: initial, Dropped: rejected.Len(), Left: r.Len()}, nil
}

func (f *minimumAccuracyFilter) Status() Status {
	details := map[string]string{
		"threshold":       strconv.FormatFloat(f.cfg.Threshold, 'f', 1, 64),
		"append_rejected": strconv.FormatBool(f.cfg.AppendRejected),
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
