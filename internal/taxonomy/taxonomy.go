// Package taxonomy holds the role families a job can belong to and the
// canonical skills of each family.
package taxonomy

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Bucket is a role family.
type Bucket string

const (
	BucketUIUX     Bucket = "uiux"
	BucketFrontend Bucket = "frontend"
	BucketData     Bucket = "data"
	BucketML       Bucket = "ml"
	BucketBackend  Bucket = "backend"
	BucketDevOps   Bucket = "devops"
)

// Rule maps a group of keywords to a bucket. Rules are checked in order.
type Rule struct {
	Bucket   Bucket
	Keywords []string
}

// Taxonomy is built once and never mutated afterwards, so a single instance
// can be shared between goroutines.
type Taxonomy struct {
	rules      []Rule
	skills     map[Bucket][]string
	vocabulary []string
	fallback   Bucket
}

var defaultRules = []Rule{
	// design keywords go first: "UX Engineer" is a designer, not a frontend dev.
	{Bucket: BucketUIUX, Keywords: []string{"ui", "ux", "designer", "design"}},
	{Bucket: BucketFrontend, Keywords: []string{"frontend", "react", "next"}},
	{Bucket: BucketData, Keywords: []string{"data analyst", "analytics", "bi"}},
	{Bucket: BucketML, Keywords: []string{"ml", "machine learning", "ai"}},
	{Bucket: BucketBackend, Keywords: []string{"backend", "distributed", "microservices"}},
	{Bucket: BucketDevOps, Keywords: []string{"devops", "sre", "platform"}},
}

var defaultSkills = map[Bucket][]string{
	BucketUIUX: {
		"figma", "sketch", "adobe xd", "wireframes", "prototyping", "user research",
		"usability testing", "design systems", "heuristic evaluation", "component libraries", "design tokens",
	},
	BucketFrontend: {"react", "next.js", "typescript", "javascript", "html", "css", "tailwind", "jest", "playwright", "redux"},
	BucketData:     {"sql", "python", "pandas", "numpy", "power bi", "tableau", "dashboards", "etl"},
	BucketML:       {"python", "pytorch", "tensorflow", "ml pipelines", "feature engineering", "model deployment", "airflow", "mlops"},
	BucketBackend:  {"java", "node", "microservices", "distributed systems", "kafka", "docker", "kubernetes", "postgres"},
	BucketDevOps:   {"ci/cd", "docker", "kubernetes", "terraform", "ansible", "aws", "gcp", "azure", "monitoring"},
}

var defaultGeneric = []string{
	"excel", "sql", "python", "react", "figma", "docker", "kubernetes", "gcp", "aws", "azure", "pandas",
	"power bi", "adobe xd", "tableau", "typescript", "next.js", "wireframes", "prototyping", "user research",
	"usability testing", "design systems",
}

// Default returns the built-in taxonomy.
func Default() *Taxonomy {
	t, err := New(defaultRules, defaultSkills, defaultGeneric, BucketFrontend)
	if err != nil {
		// built-in tables are static; failing here is a programming error.
		panic(fmt.Sprintf("default taxonomy: %v", err))
	}
	return t
}

// New validates and copies the provided tables into an immutable Taxonomy.
func New(rules []Rule, skills map[Bucket][]string, generic []string, fallback Bucket) (*Taxonomy, error) {
	if len(rules) == 0 {
		return nil, errors.New("at least one rule is required")
	}
	if _, ok := skills[fallback]; !ok {
		return nil, fmt.Errorf("fallback bucket %q has no skills", fallback)
	}

	t := &Taxonomy{
		rules:    make([]Rule, 0, len(rules)),
		skills:   make(map[Bucket][]string, len(skills)),
		fallback: fallback,
	}

	for _, rule := range rules {
		if _, ok := skills[rule.Bucket]; !ok {
			return nil, fmt.Errorf("rule bucket %q has no skills", rule.Bucket)
		}
		t.rules = append(t.rules, Rule{Bucket: rule.Bucket, Keywords: lowerAll(rule.Keywords)})
	}

	seen := make(map[string]struct{})
	add := func(skill string) {
		if skill == "" {
			return
		}
		if _, ok := seen[skill]; ok {
			return
		}
		seen[skill] = struct{}{}
		t.vocabulary = append(t.vocabulary, skill)
	}

	for bucket, list := range skills {
		lowered := lowerAll(list)
		t.skills[bucket] = lowered
		for _, skill := range lowered {
			add(skill)
		}
	}
	for _, skill := range lowerAll(generic) {
		add(skill)
	}
	slices.Sort(t.vocabulary)

	return t, nil
}

// Classify returns the bucket of the first rule with a keyword contained in the
// lower-cased role and description. The fallback bucket is returned when
// nothing matches.
func (t *Taxonomy) Classify(role, description string) Bucket {
	text := strings.ToLower(role + " " + description)
	for _, rule := range t.rules {
		for _, keyword := range rule.Keywords {
			if keyword != "" && strings.Contains(text, keyword) {
				return rule.Bucket
			}
		}
	}
	return t.fallback
}

// Skills returns a copy of the ordered canonical skills of the bucket.
func (t *Taxonomy) Skills(b Bucket) []string {
	return slices.Clone(t.skills[b])
}

// Vocabulary returns the sorted union of every bucket's skills and the generic skills.
func (t *Taxonomy) Vocabulary() []string {
	return slices.Clone(t.vocabulary)
}

// Buckets lists buckets in rule order.
func (t *Taxonomy) Buckets() []Bucket {
	buckets := make([]Bucket, 0, len(t.rules))
	for _, rule := range t.rules {
		if !slices.Contains(buckets, rule.Bucket) {
			buckets = append(buckets, rule.Bucket)
		}
	}
	return buckets
}

// Fallback is the bucket used when no rule matches.
func (t *Taxonomy) Fallback() Bucket { return t.fallback }

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
