package screening

import (
	"cmp"
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"github.com/spigell/resume-screener/internal/profile"
	"github.com/spigell/resume-screener/internal/scoring"
)

type Rankings struct {
	Items []*Ranking `json:"items"`
}

type Ranking struct {
	CandidateID string         `json:"candidate_id"`
	Source      string         `json:"source,omitempty"`
	ContentHash string         `json:"content_hash"`
	Resume      profile.Resume `json:"resume"`
	Result      scoring.Result `json:"analysis"`
}

func (r *Rankings) Len() int {
	return len(r.Items)
}

// Sort orders by accuracy descending, then candidate ID.
func (r *Rankings) Sort() {
	slices.SortStableFunc(r.Items, func(a, b *Ranking) int {
		if c := cmp.Compare(b.Result.Accuracy, a.Result.Accuracy); c != 0 {
			return c
		}
		return cmp.Compare(a.CandidateID, b.CandidateID)
	})
}

func (r *Rankings) FindByID(id string) *Ranking {
	for _, ranking := range r.Items {
		if ranking.CandidateID == id {
			return ranking
		}
	}
	return nil
}

func (r *Rankings) IDs() []string {
	ids := make([]string, 0, len(r.Items))
	for _, ranking := range r.Items {
		ids = append(ids, ranking.CandidateID)
	}
	return ids
}

// Keep retains the rankings accepted by keep, preserving order, and returns
// the IDs of the dropped ones.
func (r *Rankings) Keep(keep func(*Ranking) bool) []string {
	var dropped []string
	kept := r.Items[:0]
	for _, ranking := range r.Items {
		if keep(ranking) {
			kept = append(kept, ranking)
			continue
		}
		dropped = append(dropped, ranking.CandidateID)
	}
	clear(r.Items[len(kept):])
	r.Items = kept
	return dropped
}

// Exclude drops rankings of the given candidates.
func (r *Rankings) Exclude(ids []string) []string {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return r.Keep(func(ranking *Ranking) bool {
		_, found := set[ranking.CandidateID]
		return !found
	})
}

func (r *Rankings) DumpToTmpFile() (string, error) {
	return r.dumpTo(os.TempDir())
}

func (r *Rankings) dumpTo(dir string) (name string, err error) {
	file, err := os.CreateTemp(dir, "rankings_*.json")
	if err != nil {
		return "", err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			name, err = "", fmt.Errorf("closing %q: %w", file.Name(), cerr)
		}
	}()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return "", err
	}
	return file.Name(), nil
}
