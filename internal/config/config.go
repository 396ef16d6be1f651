package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"

	"github.com/example/hsp-booker/internal/domain/course"
)

const (
	BrowserHeadless = "headless"
	BrowserChrome   = "chrome"
	BrowserStatic   = "static"
)

type Config struct {
	Location     *time.Location
	WindowStart  course.TimeOfDay
	WindowCutoff course.TimeOfDay

	PageTimeout   time.Duration
	SubmitTimeout time.Duration
	SubmitPoll    time.Duration
	RetryInterval time.Duration
	LoadRetries   int

	Browser   string
	UserAgent string

	SnapshotDir     string
	CredentialsPath string
	TargetsPath     string
	// CredKey decrypts password_enc in the credentials file. Optional.
	CredKey []byte

	DaemonCron  string
	DatabaseURL string

	LogLevel  string
	LogFormat string
}

// Load reads a .env file if present and then the environment.
func Load() (Config, error) {
	// a missing .env is fine; existing variables are never overridden
	_ = godotenv.Load()
	return FromEnv()
}

func FromEnv() (Config, error) {
	cfg := Config{
		Browser:         strings.ToLower(getenv("HSP_BROWSER", BrowserHeadless)),
		UserAgent:       getenv("HSP_USER_AGENT", ""),
		SnapshotDir:     getenv("HSP_SNAPSHOT_DIR", "."),
		CredentialsPath: getenv("HSP_CREDENTIALS", "credentials.yaml"),
		TargetsPath:     getenv("HSP_TARGETS", ""),
		DaemonCron:      getenv("HSP_DAEMON_CRON", "0 55 15 * * *"),
		DatabaseURL:     getenv("DATABASE_URL", ""),
		LogLevel:        strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogFormat:       strings.ToLower(getenv("LOG_FORMAT", "console")),
	}

	var err error
	if cfg.Location, err = time.LoadLocation(getenv("HSP_TIMEZONE", "Europe/Berlin")); err != nil {
		return Config{}, fmt.Errorf("invalid HSP_TIMEZONE: %w", err)
	}
	if cfg.WindowStart, err = course.ParseTimeOfDay(getenv("HSP_WINDOW_START", "15:59:45")); err != nil {
		return Config{}, fmt.Errorf("HSP_WINDOW_START: %w", err)
	}
	if cfg.WindowCutoff, err = course.ParseTimeOfDay(getenv("HSP_WINDOW_CUTOFF", "16:02:45")); err != nil {
		return Config{}, fmt.Errorf("HSP_WINDOW_CUTOFF: %w", err)
	}
	if !cfg.WindowStart.Before(cfg.WindowCutoff) {
		return Config{}, fmt.Errorf("HSP_WINDOW_START %s must be before HSP_WINDOW_CUTOFF %s", cfg.WindowStart, cfg.WindowCutoff)
	}

	durations := []struct {
		key string
		def string
		dst *time.Duration
	}{
		{"HSP_PAGE_TIMEOUT", "20s", &cfg.PageTimeout},
		{"HSP_SUBMIT_TIMEOUT", "20s", &cfg.SubmitTimeout},
		{"HSP_SUBMIT_POLL", "250ms", &cfg.SubmitPoll},
		{"HSP_RETRY_INTERVAL", "1s", &cfg.RetryInterval},
	}
	for _, d := range durations {
		v, err := time.ParseDuration(getenv(d.key, d.def))
		if err != nil || v <= 0 {
			return Config{}, fmt.Errorf("invalid %s", d.key)
		}
		*d.dst = v
	}

	if cfg.LoadRetries, err = strconv.Atoi(getenv("HSP_LOAD_RETRIES", "3")); err != nil || cfg.LoadRetries < 0 {
		return Config{}, fmt.Errorf("invalid HSP_LOAD_RETRIES")
	}

	switch cfg.Browser {
	case BrowserHeadless, BrowserChrome, BrowserStatic:
	default:
		return Config{}, fmt.Errorf("invalid HSP_BROWSER %q (want %s, %s or %s)", cfg.Browser, BrowserHeadless, BrowserChrome, BrowserStatic)
	}

	if key := getenv("HSP_CRED_KEY", ""); key != "" {
		if cfg.CredKey, err = decodeB64(key); err != nil {
			return Config{}, fmt.Errorf("HSP_CRED_KEY: %w", err)
		}
		if len(cfg.CredKey) != 32 {
			return Config{}, fmt.Errorf("HSP_CRED_KEY must decode to 32 bytes (got %d)", len(cfg.CredKey))
		}
	}
	return cfg, nil
}

// decodeB64 accepts the key itself or a path to a file holding it.
func decodeB64(s string) ([]byte, error) {
	if b, err := os.ReadFile(s); err == nil {
		s = string(b)
	}
	s = strings.TrimSpace(s)
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.RawStdEncoding.DecodeString(s)
}

func getenv(k, def string) string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	return v
}
