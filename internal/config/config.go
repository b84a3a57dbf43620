package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	ListenAddr string `yaml:"listen_addr"`
	LogLevel   string `yaml:"log_level"`

	Storage struct {
		Type        string `yaml:"type"` // memory, redis or postgres
		KeyPrefix   string `yaml:"key_prefix"`
		RedisAddr   string `yaml:"redis_addr"`
		DatabaseURL string `yaml:"database_url"`
		Channel     string `yaml:"channel"`
	} `yaml:"storage"`

	Bootstrap struct {
		FallbackURL  string        `yaml:"fallback_url"`
		FallbackFile string        `yaml:"fallback_file"`
		Timeout      time.Duration `yaml:"timeout"`
	} `yaml:"bootstrap"`

	Sync struct {
		Dir      string        `yaml:"dir"`
		Debounce time.Duration `yaml:"debounce"`
	} `yaml:"sync"`
}

func defaults() *Config {
	cfg := &Config{ListenAddr: ":8080", LogLevel: "info"}
	cfg.Storage.Type = "memory"
	cfg.Storage.KeyPrefix = "cq_"
	cfg.Storage.Channel = "cq_changes"
	cfg.Bootstrap.Timeout = 10 * time.Second
	cfg.Sync.Debounce = 500 * time.Millisecond
	return cfg
}

// LoadConfig reads the optional YAML file at path, then .env, then the
// environment. Later sources override earlier ones.
func LoadConfig(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	}

	_ = godotenv.Load()

	setString(&cfg.ListenAddr, "LISTEN_ADDR")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.Storage.Type, "STORAGE_TYPE")
	setString(&cfg.Storage.KeyPrefix, "KEY_PREFIX")
	setString(&cfg.Storage.RedisAddr, "REDIS_ADDR")
	setString(&cfg.Storage.DatabaseURL, "DATABASE_URL")
	setString(&cfg.Storage.Channel, "CHANGE_CHANNEL")
	setString(&cfg.Bootstrap.FallbackURL, "FALLBACK_URL")
	setString(&cfg.Bootstrap.FallbackFile, "FALLBACK_FILE")
	setString(&cfg.Sync.Dir, "SYNC_DIR")
	if err := setDuration(&cfg.Bootstrap.Timeout, "BOOTSTRAP_TIMEOUT"); err != nil {
		return nil, err
	}
	if err := setDuration(&cfg.Sync.Debounce, "SYNC_DEBOUNCE"); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Type {
	case "memory":
	case "redis":
		if c.Storage.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR environment variable not set")
		}
	case "postgres":
		if c.Storage.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL environment variable not set")
		}
	default:
		return fmt.Errorf("unknown storage type %q", c.Storage.Type)
	}
	if c.Bootstrap.Timeout <= 0 {
		return fmt.Errorf("bootstrap timeout must be positive")
	}
	return nil
}

func setString(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}

// setDuration accepts Go durations ("750ms") or plain milliseconds ("750").
func setDuration(dst *time.Duration, env string) error {
	v := os.Getenv(env)
	if v == "" {
		return nil
	}
	if ms, err := strconv.Atoi(v); err == nil {
		*dst = time.Duration(ms) * time.Millisecond
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", env, err)
	}
	*dst = d
	return nil
}
