// Package profile describes jobs and resumes and derives structured resume
// profiles from plain text.
package profile

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Job is a job posting with its requirement lists. It is treated as immutable
// once scoring begins.
type Job struct {
	ID                 string   `json:"id,omitempty" mapstructure:"id"`
	Title              string   `json:"title,omitempty" mapstructure:"title"`
	Company            string   `json:"company" mapstructure:"company"`
	Role               string   `json:"role" mapstructure:"role" validate:"required"`
	Description        string   `json:"description" mapstructure:"description" validate:"required"`
	MustHave           []string `json:"must_have" mapstructure:"must_have" validate:"dive,required"`
	NiceToHave         []string `json:"nice_to_have" mapstructure:"nice_to_have" validate:"dive,required"`
	MinExperienceYears float64  `json:"min_experience_years" mapstructure:"min_experience_years" validate:"gte=0"`
	Location           string   `json:"location,omitempty" mapstructure:"location"`
}

// Resume is the structured profile derived from resume text.
type Resume struct {
	RawText         string   `json:"-"`
	Skills          []string `json:"skills"`
	YearsExperience float64  `json:"years_experience"`
}

var validate = validator.New()

// Validate checks the job at the boundary, before it is stored or scored.
func (j *Job) Validate() error {
	if err := validate.Struct(j); err != nil {
		return fmt.Errorf("invalid job %q: %w", j.DisplayName(), err)
	}
	return nil
}

// DisplayName renders a human readable label in the "Company - Title (Role)" form.
func (j *Job) DisplayName() string {
	title := strings.TrimSpace(j.Title)
	if title == "" {
		title = strings.TrimSpace(j.Role)
	}

	var b strings.Builder
	if company := strings.TrimSpace(j.Company); company != "" {
		b.WriteString(company)
		b.WriteString(" - ")
	}
	b.WriteString(title)
	if role := strings.TrimSpace(j.Role); role != "" && role != title {
		b.WriteString(" (")
		b.WriteString(role)
		b.WriteString(")")
	}
	return b.String()
}

// NormalizeTerms lower-cases and trims phrases, dropping empty and repeated
// entries while keeping the first-seen order.
func NormalizeTerms(terms []string) []string {
	out := make([]string, 0, len(terms))
	seen := make(map[string]struct{}, len(terms))
	for _, term := range terms {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" {
			continue
		}
		if _, ok := seen[term]; ok {
			continue
		}
		seen[term] = struct{}{}
		out = append(out, term)
	}
	return out
}
