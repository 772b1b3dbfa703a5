package cmd

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/resume-screener/internal/scoring"
)

const (
	app       = "resume-screener"
	envPrefix = "RESUME_SCREENER"
)

type Config struct {
	Database    string          `mapstructure:"database"`
	Concurrency int             `mapstructure:"concurrency"`
	Scoring     scoring.Options `mapstructure:"scoring"`
	Embeddings  *ModelConfig    `mapstructure:"embeddings"`
	Review      *ReviewConfig   `mapstructure:"review"`
	Filters     *FiltersConfig  `mapstructure:"filters"`
}

// ModelConfig describes an optional model-backed component.
type ModelConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Provider string        `mapstructure:"provider"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type ReviewConfig struct {
	ModelConfig `mapstructure:",squash"`
	Focus       string `mapstructure:"focus"`
}

type GeminiConfig struct {
	APIKey       string        `mapstructure:"api-key" json:"-"`
	APIKeyFile   string        `mapstructure:"api-key-file"`
	Model        string        `mapstructure:"model"`
	MaxRetries   int           `mapstructure:"max-retries"`
	MaxLogLength int           `mapstructure:"max-log-length"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

type FiltersConfig struct {
	MinimumAccuracy    float64 `mapstructure:"minimum-accuracy"`
	ExcludeFile        string  `mapstructure:"exclude-file"`
	RequireAllMustHave bool    `mapstructure:"require-all-must-have"`
	Deduplicate        bool    `mapstructure:"deduplicate"`
	AppendRejected     bool    `mapstructure:"append-rejected"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "resume-screener scores resumes against job postings and keeps the rankings",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is resume-screener.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().String("database", "", "path to the sqlite database")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("database", rootCmd.PersistentFlags().Lookup("database"))

	setDefaults()
}

// setDefaults registers every key so that environment variables are picked up
// by Unmarshal even when the config file does not mention them.
func setDefaults() {
	opts := scoring.DefaultOptions()

	viper.SetDefault("database", "data/screener.db")
	viper.SetDefault("concurrency", 4)

	viper.SetDefault("scoring.weights.must-have", opts.Weights.MustHave)
	viper.SetDefault("scoring.weights.similarity", opts.Weights.Similarity)
	viper.SetDefault("scoring.weights.fuzzy", opts.Weights.Fuzzy)
	viper.SetDefault("scoring.weights.experience", opts.Weights.Experience)
	viper.SetDefault("scoring.weights.skills", opts.Weights.Skills)
	viper.SetDefault("scoring.canonical-skill-limit", opts.CanonicalSkillLimit)
	viper.SetDefault("scoring.boost-factor", opts.BoostFactor)

	for _, section := range []string{"embeddings", "review"} {
		viper.SetDefault(section+".enabled", false)
		viper.SetDefault(section+".provider", "gemini")
		viper.SetDefault(section+".gemini.api-key", "")
		viper.SetDefault(section+".gemini.api-key-file", "")
		viper.SetDefault(section+".gemini.model", "")
		viper.SetDefault(section+".gemini.max-retries", 3)
		viper.SetDefault(section+".gemini.max-log-length", 200)
		viper.SetDefault(section+".gemini.timeout", 10*time.Second)
	}
	viper.SetDefault("review.focus", "")

	viper.SetDefault("filters.minimum-accuracy", 0)
	viper.SetDefault("filters.exclude-file", "")
	viper.SetDefault("filters.require-all-must-have", false)
	viper.SetDefault("filters.deduplicate", true)
	viper.SetDefault("filters.append-rejected", false)
}

func initConfig() {
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// The default config file is optional, an explicit one is not.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}
