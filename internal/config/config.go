// Package config loads application configuration from the environment.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all runtime settings. It is loaded once at startup and
// treated as immutable afterwards.
type Config struct {
	// Storage
	DBPath string

	// Server
	Addr string

	// Search query template constants
	SearchBaseURL string
	MaxResults    int
	MaxAgeDays    int

	// Fetching
	FetchTimeout time.Duration
	FetchDelay   time.Duration
	PollInterval time.Duration

	// Notification
	OutputLogPath string
	SMTPHost      string
	SMTPPort      int
	SMTPUsername  string
	SMTPPassword  string
	MailFrom      string
	MailTo        string
}

// Load reads the configuration from environment variables, applying
// defaults for anything unset. It never fails: every setting has a
// usable default and SMTP is simply disabled when no host is given.
func Load() *Config {
	return &Config{
		DBPath:        getEnvString("BOOKWATCH_DB_PATH", "bookwatch.db"),
		Addr:          getEnvString("BOOKWATCH_ADDR", ":8080"),
		SearchBaseURL: getEnvString("SEARCH_BASE_URL", "https://binsearch.info/"),
		MaxResults:    getEnvInt("SEARCH_MAX_RESULTS", 100),
		MaxAgeDays:    getEnvInt("SEARCH_MAX_AGE_DAYS", 1100),
		FetchTimeout:  getEnvDuration("FETCH_TIMEOUT", 30*time.Second),
		FetchDelay:    getEnvDuration("FETCH_DELAY", 5*time.Second),
		PollInterval:  getEnvDuration("POLL_INTERVAL", 6*time.Hour),
		OutputLogPath: getEnvString("OUTPUT_LOG_PATH", "output_log.txt"),
		SMTPHost:      getEnvString("SMTP_HOST", ""),
		SMTPPort:      getEnvInt("SMTP_PORT", 587),
		SMTPUsername:  getEnvString("SMTP_USERNAME", ""),
		SMTPPassword:  getEnvString("SMTP_PASSWORD", ""),
		MailFrom:      getEnvString("MAIL_FROM", ""),
		MailTo:        getEnvString("MAIL_TO", ""),
	}
}

// MailEnabled reports whether enough SMTP settings are present to send mail.
func (c *Config) MailEnabled() bool {
	return c.SMTPHost != "" && c.MailFrom != "" && c.MailTo != ""
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
