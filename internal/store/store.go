// Package store persists jobs, resumes and rankings in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/spigell/resume-screener/internal/profile"
	"github.com/spigell/resume-screener/internal/scoring"
)

var ErrJobNotFound = errors.New("job not found")

const excerptRunes = 300

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
	id            TEXT PRIMARY KEY,
	title         TEXT NOT NULL DEFAULT '',
	company       TEXT NOT NULL DEFAULT '',
	role          TEXT NOT NULL,
	description   TEXT NOT NULL,
	must_have     TEXT NOT NULL DEFAULT '[]',
	nice_to_have  TEXT NOT NULL DEFAULT '[]',
	min_exp_years REAL NOT NULL DEFAULT 0,
	location      TEXT NOT NULL DEFAULT '',
	created_at    TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS resumes (
	candidate_id TEXT PRIMARY KEY,
	source       TEXT NOT NULL DEFAULT '',
	raw_text     TEXT NOT NULL,
	parsed_json  TEXT NOT NULL,
	updated_at   TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS rankings (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	job_id       TEXT NOT NULL,
	candidate_id TEXT NOT NULL,
	score        REAL NOT NULL,
	reasons      TEXT NOT NULL,
	created_at   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS rankings_job_idx ON rankings(job_id, score DESC);
`

// Ranking is a stored score of a candidate for a job.
type Ranking struct {
	JobID         string         `json:"job_id"`
	Company       string         `json:"company,omitempty"`
	Role          string         `json:"role,omitempty"`
	CandidateID   string         `json:"candidate_id"`
	Score         float64        `json:"score"`
	Analysis      scoring.Result `json:"analysis"`
	CreatedAt     time.Time      `json:"created_at"`
	ResumeExcerpt string         `json:"resume_excerpt"`
}

type Store struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

// Open opens (creating when needed) the database at path and ensures the schema.
func Open(ctx context.Context, path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database %q: %w", path, err)
	}
	// one connection keeps in-memory databases alive and serializes writes.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, logger: logger, now: func() time.Time { return time.Now().UTC() }}
	if err := s.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// SeedJobs inserts jobs only when the jobs table is empty. It returns the
// number of inserted jobs.
func (s *Store) SeedJobs(ctx context.Context, jobs []profile.Job) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM jobs`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count jobs: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	for _, job := range jobs {
		if _, err := s.UpsertJob(ctx, job); err != nil {
			return 0, err
		}
	}

	s.logger.Info("seeded default jobs", zap.Int("count", len(jobs)))
	return len(jobs), nil
}

// UpsertJob validates and stores the job, assigning a UUID when it has no ID.
func (s *Store) UpsertJob(ctx context.Context, job profile.Job) (profile.Job, error) {
	if err := job.Validate(); err != nil {
		return job, err
	}
	if job.ID == "" {
		job.ID = uuid.NewString()
	}

	must, err := json.Marshal(orEmpty(job.MustHave))
	if err != nil {
		return job, fmt.Errorf("marshal must have: %w", err)
	}
	nice, err := json.Marshal(orEmpty(job.NiceToHave))
	if err != nil {
		return job, fmt.Errorf("marshal nice to have: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO jobs(id, title, company, role, description, must_have, nice_to_have, min_exp_years, location, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			company = excluded.company,
			role = excluded.role,
			description = excluded.description,
			must_have = excluded.must_have,
			nice_to_have = excluded.nice_to_have,
			min_exp_years = excluded.min_exp_years,
			location = excluded.location
	`, job.ID, job.Title, job.Company, job.Role, job.Description, string(must), string(nice),
		job.MinExperienceYears, job.Location, s.now().Format(time.RFC3339Nano))
	if err != nil {
		return job, fmt.Errorf("upsert job %q: %w", job.ID, err)
	}

	return job, nil
}

func (s *Store) GetJob(ctx context.Context, id string) (profile.Job, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, company, role, description, must_have, nice_to_have, min_exp_years, location
		FROM jobs WHERE id = ?
	`, id)

	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return job, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return job, err
}

// ListJobs returns jobs, newest first.
func (s *Store) ListJobs(ctx context.Context) ([]profile.Job, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, company, role, description, must_have, nice_to_have, min_exp_years, location
		FROM jobs
		ORDER BY created_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	jobs := make([]profile.Job, 0)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// SaveResume keeps the latest text and parsed profile of a candidate.
func (s *Store) SaveResume(ctx context.Context, candidateID, source string, resume profile.Resume) error {
	parsed, err := json.Marshal(resume)
	if err != nil {
		return fmt.Errorf("marshal resume: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO resumes(candidate_id, source, raw_text, parsed_json, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, candidateID, source, resume.RawText, string(parsed), s.now().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save resume %q: %w", candidateID, err)
	}
	return nil
}

// SaveRanking stores the result verbatim next to its accuracy.
func (s *Store) SaveRanking(ctx context.Context, jobID, candidateID string, result scoring.Result) error {
	reasons, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO rankings(job_id, candidate_id, score, reasons, created_at) VALUES (?, ?, ?, ?, ?)
	`, jobID, candidateID, result.Accuracy, string(reasons), s.now().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save ranking: %w", err)
	}
	return nil
}

const rankingColumns = `
		SELECT r.job_id, COALESCE(j.company, ''), COALESCE(j.role, ''), r.candidate_id, r.score, r.reasons,
			r.created_at, COALESCE(res.raw_text, '')
		FROM rankings r
		LEFT JOIN jobs j ON j.id = r.job_id
		LEFT JOIN resumes res ON res.candidate_id = r.candidate_id`

// ListRankings returns the rankings of a job, optionally of one candidate,
// best score first and newest first among equal scores.
func (s *Store) ListRankings(ctx context.Context, jobID, candidateID string) ([]Ranking, error) {
	query := rankingColumns + ` WHERE r.job_id = ?`
	args := []any{jobID}
	if candidateID != "" {
		query += ` AND r.candidate_id = ?`
		args = append(args, candidateID)
	}
	query += ` ORDER BY r.score DESC, r.created_at DESC, r.id DESC`

	return s.queryRankings(ctx, query, args...)
}

// ListAllRankings returns rankings across every job, newest first.
func (s *Store) ListAllRankings(ctx context.Context, candidateID string) ([]Ranking, error) {
	query := rankingColumns
	var args []any
	if candidateID != "" {
		query += ` WHERE r.candidate_id = ?`
		args = append(args, candidateID)
	}
	query += ` ORDER BY r.created_at DESC, r.id DESC`

	return s.queryRankings(ctx, query, args...)
}

func (s *Store) queryRankings(ctx context.Context, query string, args ...any) ([]Ranking, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list rankings: %w", err)
	}
	defer rows.Close()

	rankings := make([]Ranking, 0)
	for rows.Next() {
		var (
			r         Ranking
			reasons   string
			createdAt string
			rawText   string
		)
		err := rows.Scan(&r.JobID, &r.Company, &r.Role, &r.CandidateID, &r.Score, &reasons, &createdAt, &rawText)
		if err != nil {
			return nil, fmt.Errorf("scan ranking: %w", err)
		}
		if err := json.Unmarshal([]byte(reasons), &r.Analysis); err != nil {
			return nil, fmt.Errorf("decode ranking analysis: %w", err)
		}
		if r.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("parse ranking time: %w", err)
		}
		r.ResumeExcerpt = excerpt(rawText)
		rankings = append(rankings, r)
	}
	return rankings, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(row scanner) (profile.Job, error) {
	var (
		job        profile.Job
		must, nice string
	)
	err := row.Scan(&job.ID, &job.Title, &job.Company, &job.Role, &job.Description, &must, &nice,
		&job.MinExperienceYears, &job.Location)
	if err != nil {
		return job, err
	}
	if err := json.Unmarshal([]byte(must), &job.MustHave); err != nil {
		return job, fmt.Errorf("decode must have of job %q: %w", job.ID, err)
	}
	if err := json.Unmarshal([]byte(nice), &job.NiceToHave); err != nil {
		return job, fmt.Errorf("decode nice to have of job %q: %w", job.ID, err)
	}
	return job, nil
}

func excerpt(text string) string {
	runes := []rune(text)
	if len(runes) <= excerptRunes {
		return text
	}
	return string(runes[:excerptRunes])
}

func orEmpty(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
