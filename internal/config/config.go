// Package config は環境変数とランキング設定ファイルの読み込みを提供する。
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// DefaultEnvFile はLoadが最初に読み込む.envファイルのパス。
const DefaultEnvFile = ".env"

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL      string
	PreferenceDBPath string

	// Server
	ServerPort        string
	CORSAllowedOrigin string
	RateLimitGeneral  int
	LogLevel          string

	// Worker
	WorkerMetricsPort   string
	MonitorSchedule     string
	TaggingSchedule     string
	TranslateSchedule   string
	ExpirySweepSchedule string

	// Monitor
	MonitorFetchTimeout  time.Duration
	MonitorFetchMaxSize  int64
	MonitorMaxConcurrent int
	BreakingListLimit    int

	// Ranking
	RankingConfigPath string

	// Recommend
	RecommendTimeout  time.Duration
	RecommendCacheTTL time.Duration
	RecommendCacheMax int
	RecommendMinScore int
	PreferenceMax     int

	// Translation
	AnthropicAPIKey string
	AnthropicModel  string
}

// Load は.envファイル（存在する場合）と環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	return LoadWithEnvFile(DefaultEnvFile)
}

// LoadWithEnvFile はenvFileを読み込んでから環境変数でConfigを組み立てる。
// 既に設定済みの環境変数は.envの値で上書きしない。envFileが存在しない場合は無視する。
func LoadWithEnvFile(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	cfg := &Config{}

	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	cfg.PreferenceDBPath = getEnvString("PREFERENCE_DB_PATH", "newspulse-prefs.db")
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")

	cfg.WorkerMetricsPort = getEnvString("WORKER_METRICS_PORT", "9090")
	cfg.MonitorSchedule = getEnvString("MONITOR_SCHEDULE", "@every 10m")
	cfg.TaggingSchedule = getEnvString("TAGGING_SCHEDULE", "@every 30m")
	cfg.TranslateSchedule = getEnvString("TRANSLATE_SCHEDULE", "@every 1h")
	cfg.ExpirySweepSchedule = getEnvString("EXPIRY_SWEEP_SCHEDULE", "@every 15m")

	cfg.MonitorFetchTimeout = getEnvDuration("MONITOR_FETCH_TIMEOUT", 15*time.Second)
	cfg.MonitorFetchMaxSize = getEnvInt64("MONITOR_FETCH_MAX_SIZE", 5242880)
	cfg.MonitorMaxConcurrent = getEnvInt("MONITOR_MAX_CONCURRENT", 4)
	cfg.BreakingListLimit = getEnvInt("BREAKING_LIST_LIMIT", 6)

	cfg.RankingConfigPath = getEnvString("RANKING_CONFIG_PATH", "")

	cfg.RecommendTimeout = getEnvDuration("RECOMMEND_TIMEOUT", 2*time.Second)
	cfg.RecommendCacheTTL = getEnvDuration("RECOMMEND_CACHE_TTL", 5*time.Minute)
	cfg.RecommendCacheMax = getEnvInt("RECOMMEND_CACHE_MAX", 50)
	cfg.RecommendMinScore = getEnvInt("RECOMMEND_MIN_SCORE", 15)
	cfg.PreferenceMax = getEnvInt("PREFERENCE_MAX", 100)

	cfg.AnthropicAPIKey = getEnvString("ANTHROPIC_API_KEY", "")
	cfg.AnthropicModel = getEnvString("ANTHROPIC_MODEL", "")

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
