package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/resume-screener/internal/ai"
	"github.com/spigell/resume-screener/internal/document"
	"github.com/spigell/resume-screener/internal/logger"
	"github.com/spigell/resume-screener/internal/scoring"
	"github.com/spigell/resume-screener/internal/screening"
)

type scoreOutput struct {
	JobID       string         `json:"job_id"`
	Job         string         `json:"job"`
	CandidateID string         `json:"candidate_id"`
	Skills      []string       `json:"skills"`
	Years       float64        `json:"years_experience"`
	Result      scoring.Result `json:"analysis"`
	Review      *ai.Review     `json:"review,omitempty"`
}

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score one resume against a job",
	Run: func(cmd *cobra.Command, _ []string) {
		score(cmd)
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().String("job", "", "job ID. Without it a job is chosen interactively")
	scoreCmd.Flags().StringP("resume", "r", "", "resume file (.pdf, .docx, .txt, .md)")
	scoreCmd.Flags().String("candidate", "", "candidate ID. Default is the resume file name")
	scoreCmd.Flags().Bool("save", false, "store the resume and the ranking")
	scoreCmd.Flags().Bool("review", false, "ask the model for a short review of the score")

	scoreCmd.MarkFlagRequired("resume")
}

func score(cmd *cobra.Command) {
	ctx := context.Background()

	env := setup(ctx)
	defer env.close()

	path, _ := cmd.Flags().GetString("resume")
	candidateID, _ := cmd.Flags().GetString("candidate")
	if strings.TrimSpace(candidateID) == "" {
		candidateID = screening.CandidateIDFromPath(path)
	}

	jobID, _ := cmd.Flags().GetString("job")
	job := env.resolveJob(ctx, jobID)

	log := logger.WithScreening(env.logger, job.ID, candidateID)

	text, err := document.ExtractFile(path)
	if err != nil {
		log.Fatal("extracting resume text", zap.Error(err), zap.String("path", path))
	}

	ranking, err := env.screener(ctx).Screen(ctx, job, screening.Candidate{
		ID:     candidateID,
		Source: path,
		Text:   text,
	})
	if err != nil {
		log.Fatal("scoring the resume", zap.Error(err))
	}

	log.Info("resume scored",
		zap.Float64("accuracy", ranking.Result.Accuracy),
		zap.String(logger.FieldStrategy, ranking.Result.SimilarityStrategy),
	)

	if save, _ := cmd.Flags().GetBool("save"); save {
		if err := saveRanking(ctx, env, job.ID, ranking); err != nil {
			log.Fatal("saving the ranking", zap.Error(err))
		}
		log.Info("ranking saved")
	}

	out := scoreOutput{
		JobID:       job.ID,
		Job:         job.DisplayName(),
		CandidateID: candidateID,
		Skills:      ranking.Resume.Skills,
		Years:       ranking.Resume.YearsExperience,
		Result:      ranking.Result,
	}

	force, _ := cmd.Flags().GetBool("review")
	if reviewer := env.reviewer(ctx, force); reviewer != nil {
		review, err := reviewer.Review(ctx, job, ranking.Result)
		if err != nil {
			log.Warn("review failed", zap.Error(err))
		}
		out.Review = review
	}

	if err := printJSON(cmd.OutOrStdout(), out); err != nil {
		log.Fatal("printing the result", zap.Error(err))
	}
}

func saveRanking(ctx context.Context, env *environment, jobID string, ranking *screening.Ranking) error {
	if err := env.store.SaveResume(ctx, ranking.CandidateID, ranking.Source, ranking.Resume); err != nil {
		return err
	}
	return env.store.SaveRanking(ctx, jobID, ranking.CandidateID, ranking.Result)
}
