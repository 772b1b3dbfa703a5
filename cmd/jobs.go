package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/resume-screener/internal/profile"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Manage stored jobs",
}

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored jobs, newest first",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := context.Background()

		env := setup(ctx)
		defer env.close()

		jobs, err := env.store.ListJobs(ctx)
		if err != nil {
			env.logger.Fatal("listing jobs", zap.Error(err))
		}

		if err := printJSON(cmd.OutOrStdout(), jobs); err != nil {
			env.logger.Fatal("printing jobs", zap.Error(err))
		}
	},
}

var jobsImportCmd = &cobra.Command{
	Use:   "import <file.json|file.yaml>",
	Short: "Import jobs from a JSON or YAML file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		env := setup(ctx)
		defer env.close()

		jobs, err := profile.LoadJobsFile(args[0])
		if err != nil {
			env.logger.Fatal("loading jobs", zap.Error(err), zap.String("path", args[0]))
		}

		stored := make([]profile.Job, 0, len(jobs))
		for _, job := range jobs {
			saved, err := env.store.UpsertJob(ctx, job)
			if err != nil {
				env.logger.Fatal("saving the job", zap.Error(err), zap.String("job", job.DisplayName()))
			}
			stored = append(stored, saved)
		}

		env.logger.Info("jobs imported", zap.Int("count", len(stored)), zap.String("path", args[0]))

		if err := printJSON(cmd.OutOrStdout(), stored); err != nil {
			env.logger.Fatal("printing jobs", zap.Error(err))
		}
	},
}

func init() {
	rootCmd.AddCommand(jobsCmd)
	jobsCmd.AddCommand(jobsListCmd, jobsImportCmd)
}
