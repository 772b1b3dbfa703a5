// Package ai describes optional model-backed helpers around the score.
package ai

import (
	"context"

	"github.com/spigell/resume-screener/internal/profile"
	"github.com/spigell/resume-screener/internal/scoring"
)

// Review is a short human readable explanation of a score.
type Review struct {
	Summary   string   `json:"summary"`
	Strengths []string `json:"strengths"`
	Gaps      []string `json:"gaps"`
	Raw       string   `json:"-"`
}

// Reviewer explains a score. It never changes the score itself.
type Reviewer interface {
	Review(ctx context.Context, job profile.Job, result scoring.Result) (*Review, error)
}
