package cmd

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/resume-screener/internal/document"
	"github.com/spigell/resume-screener/internal/filtering"
	"github.com/spigell/resume-screener/internal/logger"
	"github.com/spigell/resume-screener/internal/screening"
	"github.com/spigell/resume-screener/internal/taxonomy"
)

type batchRow struct {
	Rank            int             `json:"rank"`
	CandidateID     string          `json:"candidate_id"`
	Source          string          `json:"source"`
	Accuracy        float64         `json:"accuracy"`
	Bucket          taxonomy.Bucket `json:"bucket"`
	MissingMustHave []string        `json:"missing_must_have"`
}

type batchOutput struct {
	JobID    string             `json:"job_id"`
	Job      string             `json:"job"`
	Filters  []filtering.Status `json:"filters"`
	Rankings []batchRow         `json:"rankings"`
}

var batchCmd = &cobra.Command{
	Use:   "batch [files...]",
	Short: "Score many resumes against a job and rank them",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		batch(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().String("job", "", "job ID. Without it a job is chosen interactively")
	batchCmd.Flags().Bool("save", false, "store resumes and rankings left after filtering")
	batchCmd.Flags().Bool("dump", false, "dump the rankings to a temporary file")
	batchCmd.Flags().Float64("minimum-accuracy", 0, "drop candidates below this accuracy. Overrides filters.minimum-accuracy")
}

func batch(cmd *cobra.Command, files []string) {
	ctx := context.Background()

	env := setup(ctx)
	defer env.close()

	jobID, _ := cmd.Flags().GetString("job")
	job := env.resolveJob(ctx, jobID)
	log := logger.WithScreening(env.logger, job.ID, "")

	candidates := readCandidates(files, log)
	if len(candidates) == 0 {
		log.Info("exiting", zap.String("reason", "no readable resumes"))
		return
	}

	rankings, err := env.screener(ctx).ScreenAll(ctx, job, candidates)
	if err != nil {
		log.Fatal("screening candidates", zap.Error(err))
	}

	filters := prepareFilters(cmd, env, job.ID, log)

	rankings, err = filters.RunFilters(ctx, rankings)
	if err != nil {
		log.Fatal("filtering failed", zap.Error(err))
	}

	if save, _ := cmd.Flags().GetBool("save"); save {
		for _, ranking := range rankings.Items {
			if err := saveRanking(ctx, env, job.ID, ranking); err != nil {
				log.Fatal("saving the ranking", zap.Error(err), zap.String(logger.FieldCandidate, ranking.CandidateID))
			}
		}
		log.Info("rankings saved", zap.Int("count", rankings.Len()))
	}

	if dump, _ := cmd.Flags().GetBool("dump"); dump {
		filename, err := rankings.DumpToTmpFile()
		if err != nil {
			log.Fatal("dump results to file", zap.Error(err))
		}
		log.Info("dumping result to file", zap.String("filename", filename))
	}

	out := batchOutput{
		JobID:    job.ID,
		Job:      job.DisplayName(),
		Filters:  filters.Describe(),
		Rankings: make([]batchRow, 0, rankings.Len()),
	}
	for i, ranking := range rankings.Items {
		out.Rankings = append(out.Rankings, batchRow{
			Rank:            i + 1,
			CandidateID:     ranking.CandidateID,
			Source:          ranking.Source,
			Accuracy:        ranking.Result.Accuracy,
			Bucket:          ranking.Result.Bucket,
			MissingMustHave: ranking.Result.MissingMustHave,
		})
	}

	if err := printJSON(cmd.OutOrStdout(), out); err != nil {
		log.Fatal("printing the result", zap.Error(err))
	}
}

// readCandidates skips files that cannot be read so one broken resume does not
// stop the batch.
func readCandidates(files []string, log *zap.Logger) []screening.Candidate {
	candidates := make([]screening.Candidate, 0, len(files))
	seen := make(map[string]string, len(files))

	for _, path := range files {
		id := screening.CandidateIDFromPath(path)
		if prev, ok := seen[id]; ok {
			log.Warn("skipping resume with a duplicate candidate id",
				zap.String(logger.FieldCandidate, id),
				zap.String("path", path),
				zap.String("first_path", prev),
			)
			continue
		}

		text, err := document.ExtractFile(path)
		if err != nil {
			level := log.Warn
			if errors.Is(err, document.ErrUnsupportedFormat) {
				level = log.Info
			}
			level("skipping resume", zap.Error(err), zap.String("path", path))
			continue
		}

		seen[id] = path
		candidates = append(candidates, screening.Candidate{ID: id, Source: path, Text: text})
	}

	log.Info("resumes read", zap.Int("count", len(candidates)), zap.Int("files", len(files)))
	return candidates
}

func prepareFilters(cmd *cobra.Command, env *environment, jobID string, log *zap.Logger) *filtering.Filtering {
	cfg := env.config.Filters
	if cfg == nil {
		cfg = &FiltersConfig{}
	}

	threshold := cfg.MinimumAccuracy
	if flag := cmd.Flag("minimum-accuracy"); flag != nil && flag.Changed {
		threshold, _ = cmd.Flags().GetFloat64("minimum-accuracy")
	}

	steps := []filtering.Filter{
		filtering.NewExcludeFile(cfg.ExcludeFile, jobID, log),
		filtering.NewDuplicates(log),
		filtering.NewMustHave(cfg.RequireAllMustHave, log),
		filtering.NewMinimumAccuracy(filtering.MinimumAccuracyConfig{
			Threshold:      threshold,
			ExcludeFile:    cfg.ExcludeFile,
			AppendRejected: cfg.AppendRejected,
			JobID:          jobID,
		}, log),
	}

	filters := filtering.New(steps, log)
	if !cfg.Deduplicate {
		filters.DisableByName("duplicates", "deduplicate is not set")
	}

	return filters
}
