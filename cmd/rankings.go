package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/resume-screener/internal/logger"
	"github.com/spigell/resume-screener/internal/store"
)

var rankingsCmd = &cobra.Command{
	Use:   "rankings",
	Short: "Show stored rankings of a job, best first, or of every job, newest first",
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := context.Background()

		env := setup(ctx)
		defer env.close()

		jobID, _ := cmd.Flags().GetString("job")
		candidateID, _ := cmd.Flags().GetString("candidate")
		log := logger.WithScreening(env.logger, jobID, candidateID)

		var (
			rankings []store.Ranking
			err      error
		)
		if jobID == "" {
			rankings, err = env.store.ListAllRankings(ctx, candidateID)
		} else {
			rankings, err = env.store.ListRankings(ctx, jobID, candidateID)
		}
		if err != nil {
			log.Fatal("listing rankings", zap.Error(err))
		}

		log.Debug("rankings found", zap.Int("count", len(rankings)))

		if err := printJSON(cmd.OutOrStdout(), rankings); err != nil {
			log.Fatal("printing rankings", zap.Error(err))
		}
	},
}

func init() {
	rootCmd.AddCommand(rankingsCmd)

	rankingsCmd.Flags().String("job", "", "job ID, every job when empty")
	rankingsCmd.Flags().String("candidate", "", "only rankings of this candidate")
}
