package filtering

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/resume-screener/internal/screening"
)

// ExcludedCandidates is the content of an exclude file.
type ExcludedCandidates struct {
	Items []*ExcludedCandidate
}

type ExcludedCandidate struct {
	ID         string
	JobID      string
	Accuracy   float64
	ExcludedAt time.Time
}

// LoadExcluded reads an exclude file. A missing or empty file holds nothing.
func LoadExcluded(path string) (*ExcludedCandidates, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &ExcludedCandidates{}, nil
	}
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return &ExcludedCandidates{}, nil
	}

	var excluded ExcludedCandidates
	if err := json.Unmarshal(data, &excluded); err != nil {
		return nil, fmt.Errorf("parse exclude file %q: %w", path, err)
	}
	return &excluded, nil
}

// ToExcluded converts rankings into exclude file entries.
func ToExcluded(jobID string, r *screening.Rankings) *ExcludedCandidates {
	excluded := &ExcludedCandidates{}
	for _, ranking := range r.Items {
		excluded.Items = append(excluded.Items, &ExcludedCandidate{
			ID:         ranking.CandidateID,
			JobID:      jobID,
			Accuracy:   ranking.Result.Accuracy,
			ExcludedAt: time.Now().UTC(),
		})
	}
	return excluded
}

func (e *ExcludedCandidates) Append(s *ExcludedCandidates) {
	e.Items = append(e.Items, s.Items...)
}

func (e *ExcludedCandidates) IDs() []string {
	ids := make([]string, 0, len(e.Items))
	for _, candidate := range e.Items {
		ids = append(ids, candidate.ID)
	}
	return ids
}

// IDsFor returns candidates excluded for the job. Entries without a job apply to every job.
func (e *ExcludedCandidates) IDsFor(jobID string) []string {
	ids := make([]string, 0, len(e.Items))
	for _, candidate := range e.Items {
		if candidate.JobID == "" || candidate.JobID == jobID {
			ids = append(ids, candidate.ID)
		}
	}
	return ids
}

func (e *ExcludedCandidates) ToFile(path string) (err error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing exclude file %q: %w", path, cerr)
		}
	}()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(e)
}

type excludeFileFilter struct {
	toggle
	path   string
	jobID  string
	logger *zap.Logger
}

// NewExcludeFile creates a filter that removes candidates excluded for the job.
func NewExcludeFile(path, jobID string, logger *zap.Logger) Filter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &excludeFileFilter{path: strings.TrimSpace(path), jobID: jobID, logger: logger}
}

func (f *excludeFileFilter) Name() string { return "exclude_file" }

func (f *excludeFileFilter) Validate() error {
	if f.path == "" {
		return nil
	}
	if info, err := os.Stat(f.path); err == nil && info.IsDir() {
		return fmt.Errorf("exclude file %q is a directory", f.path)
	}
	return nil
}

func (f *excludeFileFilter) Apply(_ context.Context, r *screening.Rankings) (*screening.Rankings, Step, error) {
	initial := r.Len()
	if f.path == "" {
		return r, Step{Initial: initial, Left: initial}, nil
	}

	excluded, err := LoadExcluded(f.path)
	if err != nil {
		return r, Step{}, fmt.Errorf("getting excluded candidates from file: %w", err)
	}

	removed := r.Exclude(excluded.IDsFor(f.jobID))
	if len(removed) > 0 {
		f.logger.Info("excluding candidates based on exclude file",
			zap.String("path", f.path),
			zap.String("job_id", f.jobID),
			zap.Strings("excluded_candidates", removed),
			zap.Int("candidates_left", r.Len()),
		)
	}

	return r, Step{Initial: initial, Dropped: len(removed), Left: r.Len()}, nil
}

func (f *excludeFileFilter) Status() Status {
	details := map[string]string{}
	if f.path != "" {
		details["path"] = f.path
	}
	if f.jobID != "" {
		details["job_id"] = f.jobID
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
