// Package filtering narrows a list of screened candidates down with a
// sequence of independent steps.
package filtering

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/resume-screener/internal/screening"
)

// Filter represents a single filtering step applied to rankings.
type Filter interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	Validate() error
	Apply(ctx context.Context, r *screening.Rankings) (*screening.Rankings, Step, error)
}

// Step describes the result of executing a filtering step.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// Status represents runtime information about a filter.
type Status struct {
	Name    string            `json:"name"`
	Enabled bool              `json:"enabled"`
	Reason  string            `json:"reason,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

type statusProvider interface {
	Status() Status
}

type Filtering struct {
	steps  []Filter
	logger *zap.Logger
}

func New(steps []Filter, logger *zap.Logger) *Filtering {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Filtering{steps: steps, logger: logger}
}

// DisableByName marks a filter with the provided name as disabled while keeping it in the list.
func (f *Filtering) DisableByName(name, reason string) {
	for _, step := range f.steps {
		if step.Name() == name {
			step.Disable(reason)
		}
	}
}

// RunFilters validates every enabled step first, then applies them in order.
func (f *Filtering) RunFilters(ctx context.Context, r *screening.Rankings) (*screening.Rankings, error) {
	for _, step := range f.steps {
		if !step.IsEnabled() {
			continue
		}
		if err := step.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}
	}

	for _, step := range f.steps {
		if !step.IsEnabled() {
			f.logger.Info("filter disabled", zap.String("name", step.Name()))
			continue
		}

		next, info, err := step.Apply(ctx, r)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}

		f.logger.Info("filter step",
			zap.String("name", step.Name()),
			zap.Int("initial", info.Initial),
			zap.Int("dropped", info.Dropped),
			zap.Int("left", info.Left),
		)

		r = next
	}

	return r, nil
}

// Describe returns status entries for the filters.
func (f *Filtering) Describe() []Status {
	statuses := make([]Status, 0, len(f.steps))
	for _, step := range f.steps {
		if reporter, ok := step.(statusProvider); ok {
			statuses = append(statuses, reporter.Status())
			continue
		}

		statuses = append(statuses, Status{
			Name:    step.Name(),
			Enabled: step.IsEnabled(),
		})
	}
	return statuses
}

// toggle is embedded by steps that can be switched off at runtime.
type toggle struct {
	disabled bool
	reason   string
}

func (t *toggle) Disable(reason string) {
	t.disabled = true
	t.reason = reason
}

func (t *toggle) IsEnabled() bool { return !t.disabled }
