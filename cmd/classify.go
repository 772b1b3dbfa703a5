package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/resume-screener/internal/taxonomy"
)

type classifyOutput struct {
	Bucket taxonomy.Bucket `json:"bucket"`
	Skills []string        `json:"canonical_skills"`
}

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Print the role family of a job and its canonical skills",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		log := newLogger()

		role, _ := cmd.Flags().GetString("role")
		description, _ := cmd.Flags().GetString("description")

		t := taxonomy.Default()
		bucket := t.Classify(role, description)

		log.Debug("job classified", zap.String("role", role), zap.String("bucket", string(bucket)))

		if err := printJSON(cmd.OutOrStdout(), classifyOutput{Bucket: bucket, Skills: t.Skills(bucket)}); err != nil {
			log.Fatal("printing the result", zap.Error(err))
		}
	},
}

func init() {
	rootCmd.AddCommand(classifyCmd)

	classifyCmd.Flags().String("role", "", "job role")
	classifyCmd.Flags().String("description", "", "job description")
}
