package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/datachat/datachat/internal/demo/dataset"
	"github.com/datachat/datachat/internal/storage"
	s3store "github.com/datachat/datachat/internal/storage/s3"
)

func main() {
	cfg, err := dataset.LoadConfigFromEnv(os.LookupEnv)
	if err != nil {
		slog.Error("failed to load demo dataset config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store storage.ObjectStore
	if cfg.Upload {
		store, err = openObjectStore(ctx)
		if err != nil {
			logger.Error("failed to initialize object store", slog.Any("error", err))
			os.Exit(1)
		}
	}

	result, err := dataset.Run(ctx, cfg, store, logger)
	if err != nil {
		logger.Error("demo dataset generation failed", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info(
		"demo dataset ready",
		slog.String("path", result.Path),
		slog.Int("rows", result.Rows),
		slog.String("object_key", result.ObjectKey),
		slog.String("snapshot_key", result.SnapshotKey),
	)
}

func openObjectStore(ctx context.Context) (storage.ObjectStore, error) {
	return s3store.New(ctx, s3store.Config{
		Endpoint:         strings.TrimSpace(os.Getenv("DATACHAT_OBJECTSTORE_ENDPOINT")),
		Region:           strings.TrimSpace(os.Getenv("DATACHAT_OBJECTSTORE_REGION")),
		Bucket:           strings.TrimSpace(os.Getenv("DATACHAT_OBJECTSTORE_BUCKET")),
		AccessKeyID:      strings.TrimSpace(os.Getenv("DATACHAT_OBJECTSTORE_ACCESS_KEY")),
		SecretAccessKey:  strings.TrimSpace(os.Getenv("DATACHAT_OBJECTSTORE_SECRET_KEY")),
		UseSSL:           strings.EqualFold(strings.TrimSpace(os.Getenv("DATACHAT_OBJECTSTORE_USE_SSL")), "true"),
		Prefix:           strings.TrimSpace(os.Getenv("DATACHAT_OBJECTSTORE_PREFIX")),
		AutoCreateBucket: strings.EqualFold(strings.TrimSpace(os.Getenv("DATACHAT_OBJECTSTORE_AUTO_CREATE_BUCKET")), "true"),
	})
}
