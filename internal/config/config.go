package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that decodes from either the
// human-readable form ("30s", "1h") or integer nanoseconds.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, perr := time.ParseDuration(s)
		if perr != nil {
			return fmt.Errorf("invalid duration %q: %w", s, perr)
		}
		*d = Duration(parsed)
		return nil
	}
	var n int64
	if err := value.Decode(&n); err == nil {
		*d = Duration(n)
		return nil
	}
	return fmt.Errorf("invalid duration value %q", value.Value)
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Auth      AuthConfig      `yaml:"auth"`
	Model     ModelConfig     `yaml:"model"`
	Log       LogConfig       `yaml:"log"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

type ServerConfig struct {
	Port         int      `yaml:"port"`
	LogLevel     string   `yaml:"log_level"`
	ReadTimeout  Duration `yaml:"read_timeout"`
	WriteTimeout Duration `yaml:"write_timeout"`
}

type AuthConfig struct {
	JWTSecret string   `yaml:"jwt_secret"`
	TokenTTL  Duration `yaml:"token_ttl"`
}

type ModelConfig struct {
	// ArtifactPath is where the trained model artifact lives. A
	// missing artifact is a recoverable "not loaded" state, not a
	// startup failure.
	ArtifactPath string `yaml:"artifact_path"`
}

type LogConfig struct {
	// Backend is "csv" or "postgres".
	Backend string `yaml:"backend"`
	CSVPath string `yaml:"csv_path"`
	DSN     string `yaml:"dsn"`
}

type RateLimitConfig struct {
	RequestsPerSecond int `yaml:"requests_per_second"`
	Burst             int `yaml:"burst"`
}

// Default returns the configuration used when no file or env override
// says otherwise.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8000,
			LogLevel:     "info",
			ReadTimeout:  Duration(30 * time.Second),
			WriteTimeout: Duration(30 * time.Second),
		},
		Auth: AuthConfig{
			TokenTTL: Duration(time.Hour),
		},
		Model: ModelConfig{
			ArtifactPath: "models_store/waste_model.json",
		},
		Log: LogConfig{
			Backend: "csv",
			CSVPath: "waste_log.csv",
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
		},
	}
}

// Load reads a YAML config file over the defaults, then applies env
// overrides. path may be empty.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path) // #nosec G304 - path comes from operator input
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	LoadFromEnv(cfg)
	return cfg, nil
}
