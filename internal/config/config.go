package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const envPrefix = "ZENFEED_"

type Config struct {
	DBPath          string        `env:"DB_PATH"          envDefault:"zenfeed.db"`
	LogLevel        string        `env:"LOG_LEVEL"        envDefault:"info"`
	SyncConcurrency int           `env:"SYNC_CONCURRENCY" envDefault:"8"`
	Workers         int           `env:"WORKERS"          envDefault:"4"`
	FetchTimeout    time.Duration `env:"FETCH_TIMEOUT"    envDefault:"20s"`
	ExtractTimeout  time.Duration `env:"EXTRACT_TIMEOUT"  envDefault:"30s"`
	HostInterval    time.Duration `env:"HOST_INTERVAL"    envDefault:"500ms"`
	HostConcurrency int           `env:"HOST_CONCURRENCY" envDefault:"2"`
	FetchRetries    uint64        `env:"FETCH_RETRIES"    envDefault:"2"`
	UserAgent       string        `env:"USER_AGENT"       envDefault:"zenfeed/1.0 (+https://github.com/zenfeed)"`
	SyncSchedule    string        `env:"SYNC_SCHEDULE"    envDefault:"@every 30m"`
	BriefingCommand []string      `env:"BRIEFING_COMMAND" envSeparator:" "`
	BriefingLimit   int           `env:"BRIEFING_LIMIT"   envDefault:"15"`
	OpenAIAPIKey    string        `env:"OPENAI_API_KEY"`
}

func Load() (Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](env.Options{Prefix: envPrefix})
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg.DBPath = strings.TrimSpace(cfg.DBPath)
	if cfg.DBPath == "" {
		return Config{}, fmt.Errorf("%sDB_PATH is empty", envPrefix)
	}

	if cfg.SyncConcurrency <= 0 {
		cfg.SyncConcurrency = 1
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.HostConcurrency <= 0 {
		cfg.HostConcurrency = 1
	}
	if cfg.OpenAIAPIKey == "" {
		cfg.OpenAIAPIKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	}

	if cfg.BriefingLimit <= 0 {
		cfg.BriefingLimit = 15
	}

	return cfg, nil
}

func (c Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return slog.LevelInfo
	}

	return level
}
