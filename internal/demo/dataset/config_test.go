package dataset

import (
	"strings"
	"testing"
)

func TestLoadConfigFromEnvDefaults(t *testing.T) {
	cfg, err := LoadConfigFromEnv(mapLookup(map[string]string{}))
	if err != nil {
		t.Fatalf("LoadConfigFromEnv() error = %v", err)
	}
	if cfg.OutputPath != "transactions.csv" {
		t.Fatalf("OutputPath = %q", cfg.OutputPath)
	}
	if cfg.Format != FormatCSV {
		t.Fatalf("Format = %q", cfg.Format)
	}
	if cfg.Rows != 500 {
		t.Fatalf("Rows = %d", cfg.Rows)
	}
	if cfg.Seed == 0 {
		t.Fatal("Seed = 0, want non-zero default")
	}
	if cfg.DatasetName != "transactions" {
		t.Fatalf("DatasetName = %q", cfg.DatasetName)
	}
	if cfg.Upload || cfg.Snapshot {
		t.Fatalf("Upload = %v, Snapshot = %v, want false", cfg.Upload, cfg.Snapshot)
	}
}

func TestLoadConfigFromEnvOverrides(t *testing.T) {
	cfg, err := LoadConfigFromEnv(mapLookup(map[string]string{
		"DATACHAT_DEMO_OUTPUT":       "/tmp/sales.parquet",
		"DATACHAT_DEMO_ROWS":         "25",
		"DATACHAT_DEMO_SEED":         "12345",
		"DATACHAT_DEMO_DATASET_NAME": "sales",
		"DATACHAT_DEMO_UPLOAD":       "true",
		"DATACHAT_DEMO_SNAPSHOT":     "true",
	}))
	if err != nil {
		t.Fatalf("LoadConfigFromEnv() error = %v", err)
	}
	if cfg.OutputPath != "/tmp/sales.parquet" {
		t.Fatalf("OutputPath = %q", cfg.OutputPath)
	}
	if cfg.Format != FormatParquet {
		t.Fatalf("Format = %q, want parquet inferred from extension", cfg.Format)
	}
	if cfg.Rows != 25 {
		t.Fatalf("Rows = %d", cfg.Rows)
	}
	if cfg.Seed != 12345 {
		t.Fatalf("Seed = %d", cfg.Seed)
	}
	if cfg.DatasetName != "sales" {
		t.Fatalf("DatasetName = %q", cfg.DatasetName)
	}
	if !cfg.Upload {
		t.Fatal("Upload = false, want true")
	}
	if !cfg.Snapshot {
		t.Fatal("Snapshot = false, want true")
	}
}

func TestLoadConfigFromEnvFormatOverridesExtension(t *testing.T) {
	cfg, err := LoadConfigFromEnv(mapLookup(map[string]string{
		"DATACHAT_DEMO_OUTPUT": "/tmp/sales.dat",
		"DATACHAT_DEMO_FORMAT": "parquet",
	}))
	if err != nil {
		t.Fatalf("LoadConfigFromEnv() error = %v", err)
	}
	if cfg.Format != FormatParquet {
		t.Fatalf("Format = %q", cfg.Format)
	}
}

func TestLoadConfigFromEnvRejectsInvalidRows(t *testing.T) {
	_, err := LoadConfigFromEnv(mapLookup(map[string]string{
		"DATACHAT_DEMO_ROWS": "0",
	}))
	if err == nil || !strings.Contains(err.Error(), "DATACHAT_DEMO_ROWS") {
		t.Fatalf("error = %v, want rows validation error", err)
	}
}

func TestLoadConfigFromEnvRejectsUnknownFormat(t *testing.T) {
	_, err := LoadConfigFromEnv(mapLookup(map[string]string{
		"DATACHAT_DEMO_FORMAT": "xlsx",
	}))
	if err == nil || !strings.Contains(err.Error(), "format") {
		t.Fatalf("error = %v, want format validation error", err)
	}
}

func mapLookup(values map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}
