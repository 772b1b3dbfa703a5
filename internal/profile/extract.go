package profile

import (
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/spigell/resume-screener/internal/taxonomy"
)

var yearsPattern = regexp.MustCompile(`(\d+)\s*\+?\s*years?`)

// Extractor finds vocabulary skills and years of experience in resume text.
type Extractor struct {
	vocabulary []string
}

// NewExtractor builds an extractor over the taxonomy vocabulary.
func NewExtractor(t *taxonomy.Taxonomy) *Extractor {
	return &Extractor{vocabulary: t.Vocabulary()}
}

// Extract never fails: empty text yields an empty profile.
func (e *Extractor) Extract(text string) Resume {
	low := strings.ToLower(text)

	return Resume{
		RawText:         text,
		Skills:          e.skills(low),
		YearsExperience: YearsOfExperience(low),
	}
}

// matching is substring based, "java" also matches "javascript".
func (e *Extractor) skills(low string) []string {
	skills := make([]string, 0)
	if low == "" {
		return skills
	}
	for _, skill := range e.vocabulary {
		if strings.Contains(low, skill) {
			skills = append(skills, skill)
		}
	}
	slices.Sort(skills)
	return skills
}

// YearsOfExperience returns the largest "<N>+ years" figure in the text or 0.
func YearsOfExperience(text string) float64 {
	years := 0.0
	for _, m := range yearsPattern.FindAllStringSubmatch(strings.ToLower(text), -1) {
		n, err := strconv.ParseFloat(m[1], 64)
		if err != nil || math.IsInf(n, 0) {
			continue
		}
		years = max(years, n)
	}
	return years
}
