package dataset

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/datachat/datachat/internal/storage"
)

type Format string

const (
	FormatCSV     Format = "csv"
	FormatParquet Format = "parquet"
)

func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".parquet":
		return FormatParquet, nil
	default:
		return "", fmt.Errorf("unsupported dataset format for %q: expected .csv or .parquet", path)
	}
}

func IsObjectSource(source string) bool {
	return strings.HasPrefix(strings.TrimSpace(source), "s3://")
}

// ParseObjectSource splits an s3://bucket/key source into its bucket and
// object key.
func ParseObjectSource(source string) (string, string, error) {
	trimmed := strings.TrimSpace(source)
	if !strings.HasPrefix(trimmed, "s3://") {
		return "", "", fmt.Errorf("object source must start with s3://, got %q", source)
	}
	rest := strings.TrimPrefix(trimmed, "s3://")
	bucket, key, found := strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", "", fmt.Errorf("object source %q must look like s3://bucket/key", source)
	}
	return bucket, strings.Trim(key, "/"), nil
}

// FetchObject downloads an object-store dataset into a temporary file so the
// embedded engine can load it like any local file. The returned cleanup
// removes the temporary copy.
func FetchObject(ctx context.Context, store storage.ObjectStore, key string) (string, func(), error) {
	if store == nil {
		return "", nil, fmt.Errorf("object store is not configured")
	}

	body, err := store.Get(ctx, key)
	if err != nil {
		return "", nil, fmt.Errorf("fetch dataset object %q: %w", key, err)
	}
	defer func() {
		_ = body.Close()
	}()

	dir, err := os.MkdirTemp("", "datachat-dataset-")
	if err != nil {
		return "", nil, fmt.Errorf("create dataset temp dir: %w", err)
	}
	cleanup := func() {
		_ = os.RemoveAll(dir)
	}

	local := filepath.Join(dir, filepath.Base(key))
	file, err := os.Create(local)
	if err != nil {
		cleanup()
		return "", nil, fmt.Errorf("create dataset temp file: %w", err)
	}
	if _, err := io.Copy(file, body); err != nil {
		_ = file.Close()
		cleanup()
		return "", nil, fmt.Errorf("download dataset object %q: %w", key, err)
	}
	if err := file.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("flush dataset temp file: %w", err)
	}

	return local, cleanup, nil
}

// ResolveLocal validates that a filesystem dataset source exists and is a
// regular file.
func ResolveLocal(source string) (string, error) {
	trimmed := strings.TrimSpace(source)
	if trimmed == "" {
		return "", fmt.Errorf("dataset source is empty")
	}
	info, err := os.Stat(trimmed)
	if err != nil {
		return "", fmt.Errorf("stat dataset source %q: %w", trimmed, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("dataset source %q is a directory", trimmed)
	}
	return trimmed, nil
}
