package profile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/resume-screener/internal/taxonomy"
)

func TestExtract(t *testing.T) {
	extractor := NewExtractor(taxonomy.Default())

	text := `Product Designer with 3+ years in Figma and Adobe XD.
Ran user research and usability testing; 5 years total, 1 year freelance.`

	resume := extractor.Extract(text)

	assert.Equal(t, 5.0, resume.YearsExperience)
	assert.Equal(t, text, resume.RawText)
	assert.Equal(t, []string{"adobe xd", "figma", "usability testing", "user research"}, resume.Skills)
}

func TestExtractEmptyText(t *testing.T) {
	resume := NewExtractor(taxonomy.Default()).Extract("")

	assert.Empty(t, resume.Skills)
	assert.NotNil(t, resume.Skills)
	assert.Zero(t, resume.YearsExperience)
}

func TestExtractSubstringMatching(t *testing.T) {
	resume := NewExtractor(taxonomy.Default()).Extract("Senior JavaScript developer")

	// approximate by design: "java" is found inside "javascript".
	assert.Contains(t, resume.Skills, "java")
	assert.Contains(t, resume.Skills, "javascript")
}

func TestYearsOfExperience(t *testing.T) {
	tests := []struct {
		text string
		want float64
	}{
		{text: "", want: 0},
		{text: "no numbers here", want: 0},
		{text: "2 years", want: 2},
		{text: "10+ YEARS of Go", want: 10},
		{text: "7 + year", want: 7},
		{text: "4years and 12 years", want: 12},
		{text: "99999999999999999999999999 years", want: 1e26},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.InDelta(t, tt.want, YearsOfExperience(tt.text), tt.want*1e-9)
		})
	}
}

func TestNormalizeTerms(t *testing.T) {
	got := NormalizeTerms([]string{" Figma ", "figma", "", "  ", "Prototyping"})
	assert.Equal(t, []string{"figma", "prototyping"}, got)
	assert.Empty(t, NormalizeTerms(nil))
}

func TestJobValidate(t *testing.T) {
	job := Job{Role: "Frontend Engineer", Description: "React", MinExperienceYears: 2}
	require.NoError(t, job.Validate())

	job.MinExperienceYears = -1
	assert.Error(t, job.Validate())

	job = Job{Description: "missing role"}
	assert.Error(t, job.Validate())
}

func TestJobDisplayName(t *testing.T) {
	job := Job{Company: "Google", Title: "Product Designer", Role: "UI/UX Designer"}
	assert.Equal(t, "Google - Product Designer (UI/UX Designer)", job.DisplayName())

	job = Job{Role: "Frontend Engineer"}
	assert.Equal(t, "Frontend Engineer", job.DisplayName())
}

func TestDecodeJobs(t *testing.T) {
	raw := []any{
		map[string]any{
			"company":              "Microsoft",
			"role":                 "Frontend Engineer",
			"description":          "Build performant web apps",
			"must_have":            "react, typescript ,html",
			"nice_to_have":         []any{"tailwind", " jest "},
			"min_experience_years": "2",
		},
	}

	jobs, err := DecodeJobs(raw)
	require.NoError(t, err)
	require.Len(t, jobs, 1)

	assert.Equal(t, []string{"react", "typescript", "html"}, jobs[0].MustHave)
	assert.Equal(t, []string{"tailwind", "jest"}, jobs[0].NiceToHave)
	assert.Equal(t, 2.0, jobs[0].MinExperienceYears)
}

func TestDecodeJobsRejectsInvalid(t *testing.T) {
	_, err := DecodeJobs([]any{map[string]any{"role": "Designer", "min_experience_years": -3, "description": "x"}})
	assert.Error(t, err)
}

func TestLoadJobsFile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "jobs.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`
- company: Google
  role: UI/UX Designer
  description: Design user-centric experiences
  must_have: [figma, wireframes]
  min_experience_years: 2
`), 0o644))

	jobs, err := LoadJobsFile(yamlPath)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "Google", jobs[0].Company)
	assert.Equal(t, []string{"figma", "wireframes"}, jobs[0].MustHave)

	jsonPath := filepath.Join(dir, "jobs.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`[{"role":"SRE","description":"on-call","min_experience_years":1}]`), 0o644))

	jobs, err = LoadJobsFile(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, "SRE", jobs[0].Role)

	_, err = LoadJobsFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}
