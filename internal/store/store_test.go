package store

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/resume-screener/internal/profile"
	"github.com/spigell/resume-screener/internal/scoring"
	"github.com/spigell/resume-screener/internal/taxonomy"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "data", "screener.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// steppingClock returns increasing timestamps so ordering by time is stable.
func steppingClock() func() time.Time {
	current := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		current = current.Add(time.Second)
		return current
	}
}

func TestSeedJobs(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	n, err := s.SeedJobs(ctx, DefaultJobs())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// second run is a no-op.
	n, err = s.SeedJobs(ctx, DefaultJobs())
	require.NoError(t, err)
	assert.Zero(t, n)

	jobs, err := s.ListJobs(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	for _, job := range jobs {
		assert.NotEmpty(t, job.ID)
		assert.NotEmpty(t, job.MustHave)
	}
}

func TestUpsertAndGetJob(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	job, err := s.UpsertJob(ctx, profile.Job{Company: "Acme", Role: "SRE", Description: "on-call", MinExperienceYears: 3})
	require.NoError(t, err)
	require.NotEmpty(t, job.ID)

	got, err := s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.Company)
	assert.Empty(t, got.MustHave)
	assert.Equal(t, 3.0, got.MinExperienceYears)

	job.MustHave = []string{"terraform"}
	_, err = s.UpsertJob(ctx, job)
	require.NoError(t, err)

	got, err = s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"terraform"}, got.MustHave)

	_, err = s.GetJob(ctx, "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)

	_, err = s.UpsertJob(ctx, profile.Job{Role: "SRE"})
	assert.Error(t, err)
}

func TestListJobsNewestFirst(t *testing.T) {
	s := openTestStore(t)
	s.now = steppingClock()
	ctx := context.Background()

	first, err := s.UpsertJob(ctx, profile.Job{Role: "A", Description: "a"})
	require.NoError(t, err)
	second, err := s.UpsertJob(ctx, profile.Job{Role: "B", Description: "b"})
	require.NoError(t, err)

	jobs, err := s.ListJobs(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, second.ID, jobs[0].ID)
	assert.Equal(t, first.ID, jobs[1].ID)
}

func TestRankings(t *testing.T) {
	s := openTestStore(t)
	s.now = steppingClock()
	ctx := context.Background()

	text := strings.Repeat("figma ", 100)
	require.NoError(t, s.SaveResume(ctx, "111111", "pdf", profile.Resume{RawText: text, Skills: []string{"figma"}}))

	low := scoring.Result{Accuracy: 40, Bucket: taxonomy.BucketUIUX}
	high := scoring.Result{Accuracy: 80.5, Bucket: taxonomy.BucketUIUX, Skills: []string{"figma"}}

	require.NoError(t, s.SaveRanking(ctx, "job-1", "111111", low))
	require.NoError(t, s.SaveRanking(ctx, "job-1", "222222", high))
	require.NoError(t, s.SaveRanking(ctx, "job-1", "111111", low))
	require.NoError(t, s.SaveRanking(ctx, "job-2", "111111", high))

	all, err := s.ListRankings(ctx, "job-1", "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "222222", all[0].CandidateID)
	assert.Equal(t, high, all[0].Analysis)
	assert.Empty(t, all[0].ResumeExcerpt)

	// equal scores: newest first.
	assert.True(t, all[1].CreatedAt.After(all[2].CreatedAt))
	assert.Len(t, []rune(all[1].ResumeExcerpt), excerptRunes)

	mine, err := s.ListRankings(ctx, "job-1", "111111")
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	none, err := s.ListRankings(ctx, "job-3", "")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestListAllRankings(t *testing.T) {
	s := openTestStore(t)
	s.now = steppingClock()
	ctx := context.Background()

	designer, err := s.UpsertJob(ctx, profile.Job{Company: "Acme", Role: "UX Designer", Description: "figma"})
	require.NoError(t, err)
	frontend, err := s.UpsertJob(ctx, profile.Job{Company: "Globex", Role: "Frontend Engineer", Description: "react"})
	require.NoError(t, err)

	require.NoError(t, s.SaveRanking(ctx, designer.ID, "111111", scoring.Result{Accuracy: 90}))
	require.NoError(t, s.SaveRanking(ctx, frontend.ID, "111111", scoring.Result{Accuracy: 20}))
	require.NoError(t, s.SaveRanking(ctx, "removed-job", "222222", scoring.Result{Accuracy: 50}))

	all, err := s.ListAllRankings(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)

	// newest first regardless of score.
	assert.Equal(t, "removed-job", all[0].JobID)
	assert.Empty(t, all[0].Company)
	assert.Equal(t, frontend.ID, all[1].JobID)
	assert.Equal(t, "Globex", all[1].Company)
	assert.Equal(t, "Frontend Engineer", all[1].Role)
	assert.Equal(t, designer.ID, all[2].JobID)
	assert.Equal(t, "Acme", all[2].Company)

	mine, err := s.ListAllRankings(ctx, "111111")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, []string{frontend.ID, designer.ID}, []string{mine[0].JobID, mine[1].JobID})

	perJob, err := s.ListRankings(ctx, designer.ID, "")
	require.NoError(t, err)
	require.Len(t, perJob, 1)
	assert.Equal(t, "UX Designer", perJob[0].Role)
}
