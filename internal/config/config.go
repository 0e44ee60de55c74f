package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Web front end
	Port        string
	CORSOrigins []string

	// Analysis service connection
	ServiceURL    string
	ServiceAPIKey string

	// Request passthrough
	ChallengeID  string
	TestCaseName string

	// Per-phase deadlines
	UploadTimeout  time.Duration
	AnalyzeTimeout time.Duration

	// Intake limit per file
	MaxFileBytes int64

	// Phase latency window
	StatsWindow time.Duration

	// Reference analysis service
	ServicePort    string
	ServiceDataDir string
	TopSections    int
	TopSubsections int
}

// Load reads the configuration from the environment. Variables in a .env
// file in the working directory are applied first without overriding ones
// already set.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "config: ignoring .env: %v\n", err)
	}

	cfg := Config{
		Port:        envOr("PORT", "8091"),
		CORSOrigins: envList("CORS_ORIGINS", []string{"*"}),

		ServiceURL:    envOr("SERVICE_URL", "http://localhost:8000"),
		ServiceAPIKey: os.Getenv("SERVICE_API_KEY"),

		ChallengeID:  envOr("CHALLENGE_ID", "round_1b_002"),
		TestCaseName: envOr("TEST_CASE_NAME", "persona_analysis"),

		UploadTimeout:  envDuration("UPLOAD_TIMEOUT", 2*time.Minute),
		AnalyzeTimeout: envDuration("ANALYZE_TIMEOUT", 5*time.Minute),

		MaxFileBytes: envInt64("MAX_FILE_BYTES", 52428800), // 50MB

		StatsWindow: envDuration("STATS_WINDOW", 15*time.Minute),

		ServicePort:    envOr("SERVICE_PORT", "8000"),
		ServiceDataDir: envOr("SERVICE_DATA_DIR", "./data/input"),
		TopSections:    envInt("TOP_SECTIONS", 15),
		TopSubsections: envInt("TOP_SUBSECTIONS", 5),
	}

	if cfg.UploadTimeout <= 0 {
		cfg.UploadTimeout = 2 * time.Minute
	}
	if cfg.AnalyzeTimeout <= 0 {
		cfg.AnalyzeTimeout = 5 * time.Minute
	}
	if cfg.MaxFileBytes <= 0 {
		cfg.MaxFileBytes = 52428800
	}
	if cfg.StatsWindow <= 0 {
		cfg.StatsWindow = 15 * time.Minute
	}
	if cfg.TopSections <= 0 {
		cfg.TopSections = 15
	}
	if cfg.TopSubsections < 0 {
		cfg.TopSubsections = 5
	}

	return cfg
}

// Validate checks the settings the client needs.
func (c Config) Validate() error {
	u, err := url.Parse(c.ServiceURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("SERVICE_URL must be an absolute http(s) URL, got %q", c.ServiceURL)
	}
	if c.ChallengeID == "" {
		return fmt.Errorf("CHALLENGE_ID is required")
	}
	if c.TopSubsections > c.TopSections {
		return fmt.Errorf("TOP_SUBSECTIONS (%d) cannot exceed TOP_SECTIONS (%d)", c.TopSubsections, c.TopSections)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
