package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/resume-screener/internal/ai"
	"github.com/spigell/resume-screener/internal/ai/gemini"
	"github.com/spigell/resume-screener/internal/logger"
	"github.com/spigell/resume-screener/internal/profile"
	"github.com/spigell/resume-screener/internal/scoring"
	"github.com/spigell/resume-screener/internal/screening"
	"github.com/spigell/resume-screener/internal/secrets"
	"github.com/spigell/resume-screener/internal/similarity"
	"github.com/spigell/resume-screener/internal/store"
	"github.com/spigell/resume-screener/internal/taxonomy"
)

const providerGemini = "gemini"

// environment is what every command needs: the logger, the config and the
// opened store with seed jobs in place.
type environment struct {
	config   *Config
	logger   *zap.Logger
	store    *store.Store
	taxonomy *taxonomy.Taxonomy
}

func newLogger() *zap.Logger {
	l, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	return l
}

func setup(ctx context.Context) *environment {
	zl := newLogger()

	config, err := getConfig()
	if err != nil {
		zl.Fatal("getting a config", zap.Error(err))
	}
	if config == nil {
		zl.Fatal("config is required")
	}

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	zl.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	st, err := store.Open(ctx, config.Database, zl)
	if err != nil {
		zl.Fatal("opening the database", zap.Error(err), zap.String("path", config.Database))
	}

	seed := store.DefaultJobs()
	if viper.IsSet("jobs") {
		seed, err = profile.DecodeJobs(viper.Get("jobs"))
		if err != nil {
			zl.Fatal("decoding jobs from config", zap.Error(err))
		}
	}

	seeded, err := st.SeedJobs(ctx, seed)
	if err != nil {
		zl.Fatal("seeding jobs", zap.Error(err))
	}
	if seeded > 0 {
		zl.Info("seeded jobs", zap.Int("count", seeded))
	}

	return &environment{
		config:   config,
		logger:   zl,
		store:    st,
		taxonomy: taxonomy.Default(),
	}
}

func (e *environment) close() {
	if err := e.store.Close(); err != nil {
		e.logger.Warn("closing the database", zap.Error(err))
	}
	_ = e.logger.Sync()
}

// screener builds the scoring pipeline. The similarity strategy is chosen
// once here and stays fixed for the process lifetime.
func (e *environment) screener(ctx context.Context) *screening.Screener {
	var factory func(context.Context) (similarity.Provider, error)
	if cfg := e.config.Embeddings; cfg != nil && cfg.Enabled {
		factory = func(ctx context.Context) (similarity.Provider, error) {
			return newSemanticProvider(ctx, cfg, logger.WithModel(e.logger, providerGemini, ""))
		}
	}

	chain := similarity.Resolve(ctx, factory, e.logger)

	aggregator, err := scoring.New(e.taxonomy, chain, e.config.Scoring, e.logger)
	if err != nil {
		e.logger.Fatal("creating the aggregator", zap.Error(err))
	}

	return screening.New(profile.NewExtractor(e.taxonomy), aggregator, e.config.Concurrency, e.logger)
}

func newSemanticProvider(ctx context.Context, cfg *ModelConfig, base *zap.Logger) (similarity.Provider, error) {
	gcfg, err := geminiSection("embeddings", cfg)
	if err != nil {
		return nil, err
	}

	apiKey, err := loadGeminiKey("embeddings", gcfg)
	if err != nil {
		return nil, err
	}

	embedder, err := gemini.NewEmbedder(ctx, apiKey, gcfg.Model, gcfg.MaxRetries, base)
	if err != nil {
		return nil, err
	}

	base.Debug("embedding model configured", logger.ModelFields(providerGemini, embedder.Model())...)

	return similarity.NewSemantic(providerGemini+":"+embedder.Model(), similarity.WithTimeout(embedder, gcfg.Timeout)), nil
}

// reviewer returns nil when review is disabled or cannot be built. A review is
// an extra, so its failures are only logged.
func (e *environment) reviewer(ctx context.Context, force bool) ai.Reviewer {
	cfg := e.config.Review
	if cfg == nil || (!cfg.Enabled && !force) {
		return nil
	}

	gcfg, err := geminiSection("review", &cfg.ModelConfig)
	if err != nil {
		e.logger.Warn("skipping review", zap.Error(err))
		return nil
	}

	apiKey, err := loadGeminiKey("review", gcfg)
	if err != nil {
		e.logger.Warn("skipping review", zap.Error(err))
		return nil
	}

	genLogger := logger.WithModel(e.logger, providerGemini, gcfg.Model).With(
		zap.Int("ai_retry_attempts", gcfg.MaxRetries),
	)

	generator, err := gemini.NewGenerator(ctx, apiKey, gcfg.Model, gcfg.MaxRetries, genLogger)
	if err != nil {
		e.logger.Warn("skipping review", zap.Error(err))
		return nil
	}

	return gemini.NewReviewer(generator, cfg.Focus, gcfg.MaxLogLength, logger.WithModel(e.logger, providerGemini, generator.Model()))
}

func geminiSection(section string, cfg *ModelConfig) (*GeminiConfig, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != providerGemini {
		return nil, fmt.Errorf("unsupported %s provider: %s", section, cfg.Provider)
	}
	if cfg.Gemini == nil {
		return &GeminiConfig{}, nil
	}
	return cfg.Gemini, nil
}

func loadGeminiKey(section string, cfg *GeminiConfig) (string, error) {
	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		File:  cfg.APIKeyFile,
		Value: cfg.APIKey,
		Env:   []string{"GEMINI_API_KEY"},
	})
	if err != nil {
		return "", fmt.Errorf("%w (set %s.gemini.api-key-file or GEMINI_API_KEY)", err, section)
	}
	return apiKey, nil
}

// resolveJob loads the job by ID or, without one, lets the user pick a stored job.
func (e *environment) resolveJob(ctx context.Context, id string) profile.Job {
	if id = strings.TrimSpace(id); id != "" {
		job, err := e.store.GetJob(ctx, id)
		if err != nil {
			e.logger.Fatal("getting the job", zap.Error(err), zap.String("job_id", id))
		}
		return job
	}

	jobs, err := e.store.ListJobs(ctx)
	if err != nil {
		e.logger.Fatal("listing jobs", zap.Error(err))
	}
	if len(jobs) == 0 {
		e.logger.Fatal("there are no jobs, import some with 'jobs import'")
	}

	items := make([]string, 0, len(jobs))
	for _, job := range jobs {
		items = append(items, fmt.Sprintf("%s %s", job.ID, job.DisplayName()))
	}

	jobPrompt := promptui.Select{
		Label: "Choose a job and press ENTER",
		Items: items,
		Size:  10,
	}

	idx, _, err := jobPrompt.Run()
	if err != nil {
		e.logger.Fatal("exiting", zap.Error(err))
	}
	return jobs[idx]
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
