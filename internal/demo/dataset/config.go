package dataset

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type LookupFunc func(string) (string, bool)

type Config struct {
	OutputPath  string
	Format      string
	Rows        int
	Seed        int64
	DatasetName string
	Upload      bool
	Snapshot    bool
}

func DefaultConfig() Config {
	return Config{
		OutputPath:  "transactions.csv",
		Format:      "",
		Rows:        500,
		Seed:        time.Now().UTC().UnixNano(),
		DatasetName: "transactions",
		Upload:      false,
		Snapshot:    false,
	}
}

func LoadConfigFromEnv(lookup LookupFunc) (Config, error) {
	if lookup == nil {
		return Config{}, fmt.Errorf("lookup function is required")
	}

	cfg := DefaultConfig()
	if err := applyString(lookup, "DATACHAT_DEMO_OUTPUT", &cfg.OutputPath); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "DATACHAT_DEMO_FORMAT", &cfg.Format); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "DATACHAT_DEMO_ROWS", &cfg.Rows); err != nil {
		return Config{}, err
	}
	if err := applyInt64(lookup, "DATACHAT_DEMO_SEED", &cfg.Seed); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "DATACHAT_DEMO_DATASET_NAME", &cfg.DatasetName); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "DATACHAT_DEMO_UPLOAD", &cfg.Upload); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "DATACHAT_DEMO_SNAPSHOT", &cfg.Snapshot); err != nil {
		return Config{}, err
	}

	if strings.TrimSpace(cfg.OutputPath) == "" {
		return Config{}, fmt.Errorf("DATACHAT_DEMO_OUTPUT is required")
	}
	if cfg.Rows <= 0 {
		return Config{}, fmt.Errorf("DATACHAT_DEMO_ROWS must be > 0")
	}
	if strings.TrimSpace(cfg.DatasetName) == "" {
		return Config{}, fmt.Errorf("DATACHAT_DEMO_DATASET_NAME is required")
	}

	if cfg.Format == "" {
		cfg.Format = formatFromExtension(cfg.OutputPath)
	}
	cfg.Format = strings.ToLower(strings.TrimSpace(cfg.Format))
	if cfg.Format != FormatCSV && cfg.Format != FormatParquet {
		return Config{}, fmt.Errorf("unsupported demo dataset format %q", cfg.Format)
	}
	return cfg, nil
}

const (
	FormatCSV     = "csv"
	FormatParquet = "parquet"
)

func formatFromExtension(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet":
		return FormatParquet
	default:
		return FormatCSV
	}
}

func applyString(lookup LookupFunc, key string, dst *string) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	*dst = strings.TrimSpace(raw)
	return nil
}

func applyBool(lookup LookupFunc, key string, dst *bool) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = v
	return nil
}

func applyInt(lookup LookupFunc, key string, dst *int) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = v
	return nil
}

func applyInt64(lookup LookupFunc, key string, dst *int64) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = v
	return nil
}
