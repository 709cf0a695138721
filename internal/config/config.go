package config

import (
	"log/slog"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Spec      SpecConfig      `koanf:"spec"`
	Target    TargetConfig    `koanf:"target"`
	Storage   StorageConfig   `koanf:"storage"`
	Rewrite   RewriteConfig   `koanf:"rewrite"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Log       LogConfig       `koanf:"log"`
}

type ServerConfig struct {
	Addr string `koanf:"addr"`
}

// SpecConfig locates the API description served by this instance.
type SpecConfig struct {
	File string `koanf:"file"`
}

// TargetConfig describes the API the assistant invokes on behalf of users.
type TargetConfig struct {
	BaseURL    string `koanf:"base_url"`
	Timeout    string `koanf:"timeout"`     // Duration string like "30s"
	APIKey     string `koanf:"api_key"`     // Supports ${VAR} substitution
	AuthScheme string `koanf:"auth_scheme"` // "bearer" or "header"
}

type StorageConfig struct {
	Driver string `koanf:"driver"` // sqlite, memory
	DSN    string `koanf:"dsn"`
}

// RewriteConfig controls the optional LLM prompt rephrasing.
type RewriteConfig struct {
	Enabled         bool   `koanf:"enabled"`
	BaseURL         string `koanf:"base_url"`
	APIKey          string `koanf:"api_key"` // Supports ${VAR} substitution
	Model           string `koanf:"model"`
	MaxPromptTokens int    `koanf:"max_prompt_tokens"`
}

type TelemetryConfig struct {
	Enabled bool `koanf:"enabled"`
}

type LogConfig struct {
	Level string `koanf:"level"` // debug, info, warn, error
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Load reads configuration from the YAML file at path, then overlays
// environment variables prefixed ASSISTANT_ (double underscore separates
// nested keys, so ASSISTANT_SERVER__ADDR maps to server.addr). A missing
// file is fine; env vars and defaults carry the rest.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			// File not found is OK, we'll use env vars
			if !os.IsNotExist(err) {
				return nil, err
			}
		}
	}

	// Load environment variables (can override file config)
	if err := k.Load(env.Provider("ASSISTANT_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "ASSISTANT_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	// Default values
	defaults := map[string]any{
		"server.addr":               ":8080",
		"spec.file":                 "openapi.yaml",
		"target.timeout":            "30s",
		"target.auth_scheme":        "bearer",
		"storage.driver":            "sqlite",
		"storage.dsn":               "assistant.db",
		"rewrite.model":             "gpt-4o-mini",
		"rewrite.max_prompt_tokens": 512,
		"log.level":                 "info",
	}
	for key, value := range defaults {
		if !k.Exists(key) {
			k.Set(key, value)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	// Substitute environment variables in secrets
	cfg.Target.APIKey = substituteEnvVars(cfg.Target.APIKey)
	cfg.Rewrite.APIKey = substituteEnvVars(cfg.Rewrite.APIKey)

	return &cfg, nil
}

// LogLevel maps the configured level name to a slog level. Unknown
// names fall back to info.
func (l LogConfig) LogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// TimeoutDuration parses the target timeout, falling back to 30 seconds on
// an empty or malformed value.
func (t TargetConfig) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(t.Timeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

func substituteEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name from ${VAR_NAME}
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}
