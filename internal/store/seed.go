package store

import "github.com/spigell/resume-screener/internal/profile"

// DefaultJobs are seeded into an empty database when no jobs are configured.
func DefaultJobs() []profile.Job {
	return []profile.Job{
		{
			Title:              "Product Designer",
			Company:            "Google",
			Role:               "UI/UX Designer",
			Description:        "Design user-centric experiences using Figma, wireframes, prototyping, usability testing, and design systems.",
			MustHave:           []string{"figma", "wireframes", "prototyping", "usability testing", "design systems"},
			NiceToHave:         []string{"user research", "stakeholder interviews", "component libraries"},
			MinExperienceYears: 2,
			Location:           "Bengaluru",
		},
		{
			Title:              "Frontend Dev (React)",
			Company:            "Microsoft",
			Role:               "Frontend Engineer",
			Description:        "Build performant web apps using React, TypeScript, Next.js, Tailwind CSS and testing.",
			MustHave:           []string{"react", "typescript", "next.js", "html", "css"},
			NiceToHave:         []string{"tailwind", "jest", "playwright"},
			MinExperienceYears: 2,
			Location:           "Hyderabad",
		},
	}
}
