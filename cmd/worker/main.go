package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/MUSTAQ-AHAMMAD/bulk-photo-generation-ai/internal/adapter/repo"
	"github.com/MUSTAQ-AHAMMAD/bulk-photo-generation-ai/internal/domain"
	httpapi "github.com/MUSTAQ-AHAMMAD/bulk-photo-generation-ai/internal/http"
	"github.com/MUSTAQ-AHAMMAD/bulk-photo-generation-ai/internal/http/handlers"
	"github.com/MUSTAQ-AHAMMAD/bulk-photo-generation-ai/internal/identity"
	"github.com/MUSTAQ-AHAMMAD/bulk-photo-generation-ai/internal/infra"
	"github.com/MUSTAQ-AHAMMAD/bulk-photo-generation-ai/internal/infra/credentials"
	"github.com/MUSTAQ-AHAMMAD/bulk-photo-generation-ai/internal/pipeline"
	"github.com/MUSTAQ-AHAMMAD/bulk-photo-generation-ai/internal/providers/engine"
	"github.com/MUSTAQ-AHAMMAD/bulk-photo-generation-ai/internal/providers/insightface"
	"github.com/MUSTAQ-AHAMMAD/bulk-photo-generation-ai/internal/queue"
	"github.com/MUSTAQ-AHAMMAD/bulk-photo-generation-ai/internal/storage"
	"github.com/MUSTAQ-AHAMMAD/bulk-photo-generation-ai/internal/worker"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, "photogen-worker")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer pool.Close()
	runner := infra.NewSQLRunner(pool, logger)

	rdb, err := infra.NewRedisClient(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: redis connection failed")
	}
	defer rdb.Close()

	storagePath := cfg.StoragePath
	if !filepath.IsAbs(storagePath) {
		if abs, err := filepath.Abs(storagePath); err == nil {
			storagePath = abs
		}
	}
	downloadClient := &http.Client{Timeout: cfg.DownloadTimeout}
	fileStore, err := storage.NewFileStore(storage.Options{
		BasePath:        storagePath,
		BaseURL:         cfg.StorageBaseURL,
		HTTPClient:      downloadClient,
		DownloadTimeout: cfg.DownloadTimeout,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure storage")
	}

	keys := credentials.NewStore(runner)
	apiKeys := map[string]string{
		credentials.ProviderOpenAI:    cfg.OpenAIAPIKey,
		credentials.ProviderStability: cfg.StabilityAPIKey,
		credentials.ProviderReplicate: cfg.ReplicateAPIKey,
	}
	for provider, configured := range apiKeys {
		key, err := keys.Resolve(ctx, provider, configured)
		if err != nil {
			logger.Warn().Err(err).Str("provider", provider).Msg("worker: failed to load api key from store")
		}
		if key == "" {
			logger.Warn().Str("provider", provider).Msg("worker: api key missing, preset will fail")
		}
		apiKeys[provider] = key
	}

	engineClient := &http.Client{}
	engines := engine.NewRegistry(cfg.EngineRatePerMinute, map[domain.EnginePreset]engine.Engine{
		domain.EnginePresetBestQuality: engine.NewOpenAI(engine.OpenAIOptions{
			APIKey:          apiKeys[credentials.ProviderOpenAI],
			BaseURL:         cfg.OpenAIBaseURL,
			HTTPClient:      engineClient,
			Logger:          &logger,
			GenerateTimeout: cfg.GenerateTimeout,
		}),
		domain.EnginePresetBalanced: engine.NewStability(engine.StabilityOptions{
			APIKey:          apiKeys[credentials.ProviderStability],
			BaseURL:         cfg.StabilityBaseURL,
			HTTPClient:      engineClient,
			Logger:          &logger,
			GenerateTimeout: cfg.GenerateTimeout,
		}),
		domain.EnginePresetFast: engine.NewReplicate(engine.ReplicateOptions{
			APIKey:          apiKeys[credentials.ProviderReplicate],
			BaseURL:         cfg.ReplicateBaseURL,
			ModelVersion:    cfg.ReplicateModelVersion,
			HTTPClient:      engineClient,
			Logger:          &logger,
			CreateTimeout:   cfg.GenerateTimeout,
			StatusTimeout:   cfg.StatusTimeout,
			PollInterval:    cfg.PollInterval,
			PollMaxAttempts: cfg.PollMaxAttempts,
		}),
	})

	faces := insightface.NewClient(insightface.Options{
		BaseURL:           cfg.InsightFaceURL,
		Logger:            &logger,
		EmbedTimeout:      cfg.EmbeddingTimeout,
		SimilarityTimeout: cfg.SimilarityTimeout,
	})

	generations := repo.NewGenerationRepository(runner)
	controller := pipeline.NewController(pipeline.OptionsFromConfig(cfg), pipeline.Deps{
		Engines:     engines,
		Identity:    identity.NewValidator(faces, &logger),
		Blobs:       fileStore,
		References:  storage.NewCachedStore(fileStore, cfg.ReferenceCacheTTL),
		Generations: generations,
		Ledger:      repo.NewLedgerRepository(runner),
		Logger:      &logger,
	})

	jobs := queue.New(rdb, cfg.QueueName)
	if moved, err := jobs.Recover(ctx); err != nil {
		logger.Fatal().Err(err).Msg("worker: queue recovery failed")
	} else if moved > 0 {
		logger.Warn().Int("moved", moved).Msg("worker: requeued in-flight deliveries")
	}

	app := handlers.NewApp(generations, &logger,
		handlers.Check{Name: "postgres", Probe: runner.Ping},
		handlers.Check{Name: "redis", Probe: jobs.Ping},
		handlers.Check{Name: "insightface", Probe: faces.Health},
	)
	server := infra.NewHTTPServer(cfg, httpapi.NewRouter(app, logger, storagePath))
	go func() {
		logger.Info().Str("addr", server.Addr()).Msg("worker: ops server listening")
		if err := server.Start(); err != nil {
			logger.Error().Err(err).Msg("worker: ops server failed")
			stop()
		}
	}()

	workers := worker.NewPool(jobs, controller, worker.Options{
		Concurrency: cfg.WorkerConcurrency,
		Logger:      &logger,
	})
	if err := workers.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("worker: pool stopped with error")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("worker: failed to shutdown ops server")
	}
	logger.Info().Msg("worker: stopped")
}
