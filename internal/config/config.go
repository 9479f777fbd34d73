package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type LookupFunc func(string) (string, bool)

type Profile string

const (
	ProfileDev  Profile = "dev"
	ProfileTest Profile = "test"
	ProfileProd Profile = "prod"
)

type Config struct {
	Profile       Profile
	Service       ServiceConfig
	HTTP          HTTPConfig
	Dataset       DatasetConfig
	Query         QueryConfig
	LLM           LLMConfig
	History       HistoryConfig
	Sessions      SessionConfig
	ObjectStore   ObjectStoreConfig
	Observability ObservabilityConfig
	Auth          AuthConfig
}

type ServiceConfig struct {
	Name string
}

type HTTPConfig struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DatasetConfig names the single source file the process serves. Source is a
// local path or an s3://bucket/key URL; the table name is the only table the
// synthesized SQL may reference.
type DatasetConfig struct {
	Source          string
	Table           string
	SampleRows      int
	PreviewRowLimit int
}

type QueryConfig struct {
	Timeout  time.Duration
	RowLimit int
}

type LLMConfig struct {
	BaseURL  string
	APIKey   string
	Model    string
	Timeout  time.Duration
	CacheTTL time.Duration
}

type HistoryConfig struct {
	MaxTurns    int
	TokenBudget int
}

type SessionConfig struct {
	TTL           time.Duration
	SweepInterval time.Duration
}

type ObjectStoreConfig struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
	Prefix          string
}

type ObservabilityConfig struct {
	LogLevel slog.Level
	LogJSON  bool
}

type AuthConfig struct {
	Required   bool
	StaticKeys string
}

func LoadFromEnv(serviceName string) (Config, error) {
	return Load(serviceName, os.LookupEnv)
}

func Load(serviceName string, lookup LookupFunc) (Config, error) {
	if lookup == nil {
		return Config{}, fmt.Errorf("lookup function is required")
	}

	profile := ProfileDev
	if raw, ok := lookup("DATACHAT_PROFILE"); ok {
		profile = Profile(strings.ToLower(strings.TrimSpace(raw)))
	}
	if !isValidProfile(profile) {
		return Config{}, fmt.Errorf("invalid DATACHAT_PROFILE: %q", profile)
	}

	cfg := defaultsForProfile(profile)
	if serviceName != "" {
		cfg.Service.Name = serviceName
	}

	if err := applyString(lookup, "DATACHAT_SERVICE_NAME", &cfg.Service.Name); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "DATACHAT_HTTP_ADDR", &cfg.HTTP.Address); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "DATACHAT_HTTP_READ_TIMEOUT", &cfg.HTTP.ReadTimeout); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "DATACHAT_HTTP_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "DATACHAT_HTTP_IDLE_TIMEOUT", &cfg.HTTP.IdleTimeout); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "DATACHAT_DATASET_SOURCE", &cfg.Dataset.Source); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "DATACHAT_DATASET_TABLE", &cfg.Dataset.Table); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "DATACHAT_DATASET_SAMPLE_ROWS", &cfg.Dataset.SampleRows); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "DATACHAT_DATASET_PREVIEW_ROW_LIMIT", &cfg.Dataset.PreviewRowLimit); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "DATACHAT_QUERY_TIMEOUT", &cfg.Query.Timeout); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "DATACHAT_QUERY_ROW_LIMIT", &cfg.Query.RowLimit); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "DATACHAT_LLM_BASE_URL", &cfg.LLM.BaseURL); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "DATACHAT_LLM_API_KEY", &cfg.LLM.APIKey); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "DATACHAT_LLM_MODEL", &cfg.LLM.Model); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "DATACHAT_LLM_TIMEOUT", &cfg.LLM.Timeout); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "DATACHAT_LLM_CACHE_TTL", &cfg.LLM.CacheTTL); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "DATACHAT_HISTORY_MAX_TURNS", &cfg.History.MaxTurns); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "DATACHAT_HISTORY_TOKEN_BUDGET", &cfg.History.TokenBudget); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "DATACHAT_SESSION_TTL", &cfg.Sessions.TTL); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "DATACHAT_SESSION_SWEEP_INTERVAL", &cfg.Sessions.SweepInterval); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "DATACHAT_OBJECTSTORE_ENDPOINT", &cfg.ObjectStore.Endpoint); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "DATACHAT_OBJECTSTORE_REGION", &cfg.ObjectStore.Region); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "DATACHAT_OBJECTSTORE_BUCKET", &cfg.ObjectStore.Bucket); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "DATACHAT_OBJECTSTORE_ACCESS_KEY", &cfg.ObjectStore.AccessKeyID); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "DATACHAT_OBJECTSTORE_SECRET_KEY", &cfg.ObjectStore.SecretAccessKey); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "DATACHAT_OBJECTSTORE_USE_SSL", &cfg.ObjectStore.UseSSL); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "DATACHAT_OBJECTSTORE_PREFIX", &cfg.ObjectStore.Prefix); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "DATACHAT_LOG_JSON", &cfg.Observability.LogJSON); err != nil {
		return Config{}, err
	}
	if err := applyLogLevel(lookup, "DATACHAT_LOG_LEVEL", &cfg.Observability.LogLevel); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "DATACHAT_AUTH_REQUIRED", &cfg.Auth.Required); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "DATACHAT_AUTH_STATIC_KEYS", &cfg.Auth.StaticKeys); err != nil {
		return Config{}, err
	}

	if cfg.Service.Name == "" {
		return Config{}, fmt.Errorf("service name is required")
	}
	if cfg.HTTP.Address == "" {
		return Config{}, fmt.Errorf("http address is required")
	}
	if cfg.Dataset.Table == "" {
		return Config{}, fmt.Errorf("dataset table name is required")
	}
	if cfg.Dataset.SampleRows < 0 {
		return Config{}, fmt.Errorf("DATACHAT_DATASET_SAMPLE_ROWS must be >= 0")
	}
	if cfg.Query.Timeout <= 0 {
		return Config{}, fmt.Errorf("DATACHAT_QUERY_TIMEOUT must be > 0")
	}
	if cfg.Query.RowLimit <= 0 {
		return Config{}, fmt.Errorf("DATACHAT_QUERY_ROW_LIMIT must be > 0")
	}
	if cfg.History.MaxTurns <= 0 {
		return Config{}, fmt.Errorf("DATACHAT_HISTORY_MAX_TURNS must be > 0")
	}
	if cfg.History.TokenBudget <= 0 {
		return Config{}, fmt.Errorf("DATACHAT_HISTORY_TOKEN_BUDGET must be > 0")
	}
	if cfg.Sessions.TTL <= 0 {
		return Config{}, fmt.Errorf("DATACHAT_SESSION_TTL must be > 0")
	}
	if cfg.Sessions.SweepInterval <= 0 {
		return Config{}, fmt.Errorf("DATACHAT_SESSION_SWEEP_INTERVAL must be > 0")
	}
	if cfg.LLM.BaseURL == "" {
		return Config{}, fmt.Errorf("llm base url is required")
	}
	if cfg.LLM.Model == "" {
		return Config{}, fmt.Errorf("llm model is required")
	}
	if cfg.LLM.Timeout <= 0 {
		return Config{}, fmt.Errorf("DATACHAT_LLM_TIMEOUT must be > 0")
	}

	// The LLM credential and the dataset source are startup requirements for
	// the serving profiles; the test profile runs against injected fakes.
	if profile != ProfileTest {
		if cfg.LLM.APIKey == "" {
			return Config{}, fmt.Errorf("DATACHAT_LLM_API_KEY is required")
		}
		if cfg.Dataset.Source == "" {
			return Config{}, fmt.Errorf("DATACHAT_DATASET_SOURCE is required")
		}
	}
	return cfg, nil
}

func defaultsForProfile(profile Profile) Config {
	cfg := Config{
		Profile: profile,
		Service: ServiceConfig{Name: "datachat-api"},
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Dataset: DatasetConfig{
			Source:          "",
			Table:           "dataset",
			SampleRows:      5,
			PreviewRowLimit: 50,
		},
		Query: QueryConfig{
			Timeout:  30 * time.Second,
			RowLimit: 1000,
		},
		LLM: LLMConfig{
			BaseURL:  "https://api.openai.com",
			Model:    "gpt-5",
			Timeout:  15 * time.Second,
			CacheTTL: 10 * time.Minute,
		},
		History: HistoryConfig{
			MaxTurns:    12,
			TokenBudget: 3000,
		},
		Sessions: SessionConfig{
			TTL:           30 * time.Minute,
			SweepInterval: time.Minute,
		},
		ObjectStore: ObjectStoreConfig{
			Endpoint:        "localhost:9000",
			Region:          "us-east-1",
			Bucket:          "datachat",
			AccessKeyID:     "minio",
			SecretAccessKey: "miniostorage",
			UseSSL:          false,
			Prefix:          "",
		},
		Observability: ObservabilityConfig{
			LogLevel: slog.LevelDebug,
			LogJSON:  true,
		},
		Auth: AuthConfig{
			Required:   false,
			StaticKeys: "",
		},
	}

	switch profile {
	case ProfileTest:
		cfg.HTTP.Address = ":18080"
		cfg.Observability.LogLevel = slog.LevelWarn
		cfg.LLM.APIKey = "test-key"
	case ProfileProd:
		cfg.Observability.LogLevel = slog.LevelInfo
		cfg.Auth.Required = true
		cfg.ObjectStore.UseSSL = true
	}

	return cfg
}

func isValidProfile(profile Profile) bool {
	switch profile {
	case ProfileDev, ProfileTest, ProfileProd:
		return true
	default:
		return false
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

func applyDuration(lookup LookupFunc, key string, dst *time.Duration) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyBool(lookup LookupFunc, key string, dst *bool) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyInt(lookup LookupFunc, key string, dst *int) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyLogLevel(lookup LookupFunc, key string, dst *slog.Level) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	level := strings.ToLower(strings.TrimSpace(raw))
	switch level {
	case "debug":
		*dst = slog.LevelDebug
	case "info":
		*dst = slog.LevelInfo
	case "warn", "warning":
		*dst = slog.LevelWarn
	case "error":
		*dst = slog.LevelError
	default:
		return fmt.Errorf("invalid %s: %q", key, raw)
	}
	return nil
}
