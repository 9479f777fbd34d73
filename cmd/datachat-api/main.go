package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/datachat/datachat/internal/api"
	"github.com/datachat/datachat/internal/api/uistatic"
	"github.com/datachat/datachat/internal/auth"
	"github.com/datachat/datachat/internal/chartgen"
	"github.com/datachat/datachat/internal/chat"
	"github.com/datachat/datachat/internal/config"
	"github.com/datachat/datachat/internal/dataset"
	"github.com/datachat/datachat/internal/dataset/duckdb"
	"github.com/datachat/datachat/internal/insight"
	"github.com/datachat/datachat/internal/llm"
	"github.com/datachat/datachat/internal/nl2sql"
	"github.com/datachat/datachat/internal/observability"
	"github.com/datachat/datachat/internal/session"
	s3store "github.com/datachat/datachat/internal/storage/s3"
)

func main() {
	cfg, err := config.LoadFromEnv("datachat-api")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg, os.Stdout)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	datasetPath, cleanup, err := resolveDatasetSource(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to resolve dataset source", slog.Any("error", err))
		os.Exit(1)
	}
	if cleanup != nil {
		defer cleanup()
	}

	store, err := duckdb.Open(ctx, duckdb.Config{
		Path:         datasetPath,
		Table:        cfg.Dataset.Table,
		SampleRows:   cfg.Dataset.SampleRows,
		QueryTimeout: cfg.Query.Timeout,
	})
	if err != nil {
		logger.Error("failed to load dataset", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	schema := store.Schema()
	logger.Info(
		"dataset loaded",
		slog.String("source", cfg.Dataset.Source),
		slog.String("table", cfg.Dataset.Table),
		slog.Int("columns", len(schema.Columns)),
	)

	client, err := llm.NewOpenAIClient(llm.OpenAIConfig{
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.Model,
		Timeout: cfg.LLM.Timeout,
	})
	if err != nil {
		logger.Error("failed to initialize llm client", slog.Any("error", err))
		os.Exit(1)
	}

	synthesizer := nl2sql.NewLLMSynthesizer(client, nl2sql.Config{
		Model:              cfg.LLM.Model,
		MaxHistoryTurns:    cfg.History.MaxTurns,
		HistoryTokenBudget: cfg.History.TokenBudget,
		CacheTTL:           cfg.LLM.CacheTTL,
	})

	chatService, err := chat.NewService(chat.Options{
		Synthesizer: synthesizer,
		Engine:      store,
		Charts:      chartgen.NewLLMGenerator(client),
		Summaries:   insight.NewLLMSummarizer(client),
		Schema:      schema,
		RowLimit:    cfg.Query.RowLimit,
		Logger:      logger,
	})
	if err != nil {
		logger.Error("failed to initialize chat service", slog.Any("error", err))
		os.Exit(1)
	}

	sessions := session.NewStore(cfg.Sessions.TTL)
	sessions.StartSweeper(ctx, cfg.Sessions.SweepInterval, logger)

	deps := api.Dependencies{
		Logger:          logger,
		Chat:            chatService,
		Sessions:        sessions,
		Schema:          &schema,
		Descriptor:      schema.Describe(),
		QueryEngine:     store,
		DatasetTable:    cfg.Dataset.Table,
		PreviewRowLimit: cfg.Dataset.PreviewRowLimit,
		QueryRowLimit:   cfg.Query.RowLimit,
		UI:              uistatic.Handler(),
		Readiness: api.CombineReadinessChecks(
			store.Ready,
			api.CheckLLMConfig(cfg),
		),
		DependencyTimeout: time.Second,
	}
	if cfg.Auth.Required {
		validator, err := auth.NewStaticAPIKeyValidator(cfg.Auth.StaticKeys)
		if err != nil {
			logger.Error("failed to parse static auth keys", slog.Any("error", err))
			os.Exit(1)
		}
		deps.AuthMiddleware = auth.Middleware(logger, validator)
	}

	handler := api.NewHandler(cfg, deps)
	server := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		logger.Info("starting api server", slog.String("addr", cfg.HTTP.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down api server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		_ = server.Close()
		os.Exit(1)
	}
}

// resolveDatasetSource returns a local path for the configured source,
// downloading it from the object store first when the source is an
// s3:// URL. The returned cleanup removes any temporary copy.
func resolveDatasetSource(ctx context.Context, cfg config.Config, logger *slog.Logger) (string, func(), error) {
	source := cfg.Dataset.Source
	if !dataset.IsObjectSource(source) {
		path, err := dataset.ResolveLocal(source)
		return path, nil, err
	}

	bucket, key, err := dataset.ParseObjectSource(source)
	if err != nil {
		return "", nil, err
	}
	// The API only reads snapshots; a missing bucket is a deployment error,
	// so bucket creation stays with the dataset uploader.
	objectStore, err := s3store.New(ctx, s3store.Config{
		Endpoint:        cfg.ObjectStore.Endpoint,
		Region:          cfg.ObjectStore.Region,
		Bucket:          bucket,
		AccessKeyID:     cfg.ObjectStore.AccessKeyID,
		SecretAccessKey: cfg.ObjectStore.SecretAccessKey,
		UseSSL:          cfg.ObjectStore.UseSSL,
		Prefix:          cfg.ObjectStore.Prefix,
	})
	if err != nil {
		return "", nil, err
	}

	info, err := objectStore.Stat(ctx, key)
	if err != nil {
		return "", nil, fmt.Errorf("dataset object s3://%s/%s: %w", bucket, key, err)
	}
	logger.Info("downloading dataset",
		slog.String("bucket", bucket),
		slog.String("key", key),
		slog.Int64("size_bytes", info.Size),
	)
	return dataset.FetchObject(ctx, objectStore, key)
}
