// Package config loads runtime settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultChatURL  = "https://api.openai.com/v1/chat/completions"
	DefaultImageURL = "https://api-inference.huggingface.co/models/runwayml/stable-diffusion-v1-5"

	DefaultAITimeout         = 60 * time.Second
	DefaultGenerationTimeout = 90 * time.Second
	DefaultTokenTTL          = 24 * time.Hour
)

// Config aggregates settings for the HTTP server and the services it wires.
type Config struct {
	Port           int
	DBPath         string
	JWTSecret      string
	TokenTTL       time.Duration
	DefaultCredits int

	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string

	ChatURL           string
	ChatAPIKey        string
	ChatModel         string
	ImageURL          string
	ImageAPIKey       string
	AITimeout         time.Duration
	GenerationTimeout time.Duration

	S3Endpoint      string
	S3Region        string
	S3AccessKey     string
	S3SecretKey     string
	S3Bucket        string
	S3PublicBaseURL string
	S3UsePathStyle  bool
	S3Prefix        string

	Logging LoggingConfig
}

// LoggingConfig controls the slog handler. An empty LogDir logs to stdout only.
type LoggingConfig struct {
	Level      string
	LogDir     string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// S3Enabled reports whether enough S3 settings are present to mirror covers.
func (c Config) S3Enabled() bool {
	return c.S3Bucket != "" && c.S3Region != "" && c.S3AccessKey != "" && c.S3SecretKey != "" && c.S3PublicBaseURL != ""
}

// GitHubEnabled reports whether the GitHub OAuth routes should be mounted.
func (c Config) GitHubEnabled() bool {
	return c.GitHubClientID != "" && c.GitHubClientSecret != ""
}

// Load reads configuration from environment variables, applying defaults.
// A .env file is loaded first when one exists; real environment variables win.
func Load() (Config, error) {
	if err := loadEnvFile(); err != nil {
		return Config{}, err
	}

	port, err := strconv.Atoi(getEnv("PORT", "8080"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid PORT: %w", err)
	}

	cfg := Config{
		Port:           port,
		DBPath:         getEnv("DB_PATH", filepath.Join("data", "games.db")),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		TokenTTL:       getDuration("JWT_TTL_HOURS", time.Hour, DefaultTokenTTL),
		DefaultCredits: getInt("DEFAULT_CREDITS", 10),

		GitHubClientID:     os.Getenv("GITHUB_CLIENT_ID"),
		GitHubClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),
		GitHubCallbackURL:  getEnv("GITHUB_CALLBACK_URL", fmt.Sprintf("http://localhost:%d/auth/github/callback", port)),

		ChatURL:           getEnv("OPENAI_URL", DefaultChatURL),
		ChatAPIKey:        os.Getenv("OPENAI_API_KEY"),
		ChatModel:         getEnv("OPENAI_MODEL", "gpt-3.5-turbo"),
		ImageURL:          getEnv("IMAGE_API_URL", DefaultImageURL),
		ImageAPIKey:       os.Getenv("IMAGE_API_KEY"),
		AITimeout:         getDuration("AI_TIMEOUT_SECONDS", time.Second, DefaultAITimeout),
		GenerationTimeout: getDuration("GENERATION_TIMEOUT_SECONDS", time.Second, DefaultGenerationTimeout),

		S3Endpoint:      os.Getenv("S3_ENDPOINT"),
		S3Region:        os.Getenv("S3_REGION"),
		S3AccessKey:     os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:     os.Getenv("S3_SECRET_KEY"),
		S3Bucket:        os.Getenv("S3_BUCKET"),
		S3PublicBaseURL: os.Getenv("S3_PUBLIC_BASE_URL"),
		S3UsePathStyle:  getBool("S3_USE_PATH_STYLE", false),
		S3Prefix:        getEnv("S3_PREFIX", "covers"),

		Logging: LoggingConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			LogDir:     os.Getenv("LOG_DIR"),
			MaxSizeMB:  getInt("LOG_MAX_SIZE_MB", 50),
			MaxBackups: getInt("LOG_MAX_BACKUPS", 5),
			MaxAgeDays: getInt("LOG_MAX_AGE_DAYS", 14),
			Compress:   getBool("LOG_COMPRESS", true),
		},
	}

	var missing []string
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if cfg.ChatAPIKey == "" {
		missing = append(missing, "OPENAI_API_KEY")
	}
	if cfg.ImageAPIKey == "" {
		missing = append(missing, "IMAGE_API_KEY")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment variables: %v", missing)
	}
	if cfg.DefaultCredits < 0 {
		return Config{}, fmt.Errorf("DEFAULT_CREDITS must not be negative, got %d", cfg.DefaultCredits)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

// getDuration reads key as a count of unit. Zero, negative and unparsable
// values fall back, so every consumer sees the same positive duration.
func getDuration(key string, unit, fallback time.Duration) time.Duration {
	n := getInt(key, 0)
	if n <= 0 {
		return fallback
	}
	return time.Duration(n) * unit
}

func getBool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

// loadEnvFile loads CONFIG_ENV_PATH or ./.env when present. A missing file is
// not an error: deployments usually set the environment directly.
func loadEnvFile() error {
	candidates := []string{".env"}
	if custom := os.Getenv("CONFIG_ENV_PATH"); custom != "" {
		candidates = []string{custom}
	}

	for _, path := range candidates {
		info, err := os.Stat(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("access env file %s: %w", path, err)
		}
		if info.IsDir() {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load env file %s: %w", path, err)
		}
		return nil
	}
	return nil
}
