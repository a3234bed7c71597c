package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Server      ServerConfig    `toml:"server"`
	Logging     LoggingConfig   `toml:"logging"`
	Badger      BadgerConfig    `toml:"badger"`
	Discovery   DiscoveryConfig `toml:"discovery"`
	Crawler     CrawlerConfig   `toml:"crawler"`
	Search      SearchConfig    `toml:"search"`
	DNS         DNSConfig       `toml:"dns"`
	Cache       CacheConfig     `toml:"cache"`
	Jobs        JobsConfig      `toml:"jobs"`
	Scheduler   SchedulerConfig `toml:"scheduler"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Format     string   `toml:"format"`      // "json" or "text"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for log lines (default: "15:04:05")
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

// DiscoveryConfig contains website discovery tuning
type DiscoveryConfig struct {
	HeadTimeout    time.Duration `toml:"head_timeout"`     // HEAD probe timeout
	GetTimeout     time.Duration `toml:"get_timeout"`      // GET fetch timeout
	EarlyExitScore int           `toml:"early_exit_score"` // Domain guessing stops once a candidate reaches this composite score
}

// CrawlerConfig contains email crawler configuration
type CrawlerConfig struct {
	MaxPages       int           `toml:"max_pages"`        // Pages fetched per site
	RequestTimeout time.Duration `toml:"request_timeout"`  // Page fetch timeout
	EarlyExitScore int           `toml:"early_exit_score"` // Crawl stops once the best email reaches this score
}

// SearchConfig contains the HTML search backend configuration
type SearchConfig struct {
	Endpoint   string        `toml:"endpoint"`    // HTML search endpoint URL
	Timeout    time.Duration `toml:"timeout"`     // Per-request timeout
	MaxRetries int           `toml:"max_retries"` // Attempts per query
	MaxLinks   int           `toml:"max_links"`   // Links parsed per result page
}

// DNSConfig contains DNS pre-filter configuration
type DNSConfig struct {
	Resolver      string        `toml:"resolver"`       // "host:port"; empty reads /etc/resolv.conf
	Timeout       time.Duration `toml:"timeout"`        // Query timeout
	MaxConcurrent int           `toml:"max_concurrent"` // Batch check fan-out
}

// CacheConfig contains the TTL per cache namespace
type CacheConfig struct {
	DNSTTL        time.Duration `toml:"dns_ttl"`
	DomainTTL     time.Duration `toml:"domain_ttl"`
	ValidationTTL time.Duration `toml:"validation_ttl"`
	SearchTTL     time.Duration `toml:"search_ttl"`
}

// JobsConfig contains job runner configuration
type JobsConfig struct {
	Workers         int           `toml:"workers"`           // Worker pool size per job
	StaleJobTimeout time.Duration `toml:"stale_job_timeout"` // Running jobs without log activity past this are failed
}

// SchedulerConfig contains cron scheduler configuration
type SchedulerConfig struct {
	Enabled            bool   `toml:"enabled"`
	CacheSweepSchedule string `toml:"cache_sweep_schedule"` // Cron expression for the nightly cache sweep
	BadgerGCSchedule   string `toml:"badger_gc_schedule"`   // Cron expression for Badger value-log GC
}

// NewDefaultConfig returns a Config populated with defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8085,
			Host: "localhost",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     []string{"stdout", "file"},
			TimeFormat: "15:04:05",
		},
		Badger: BadgerConfig{
			Path:           "./data/invenio",
			ResetOnStartup: false,
		},
		Discovery: DiscoveryConfig{
			HeadTimeout:    2 * time.Second,
			GetTimeout:     10 * time.Second,
			EarlyExitScore: 85,
		},
		Crawler: CrawlerConfig{
			MaxPages:       10,
			RequestTimeout: 10 * time.Second,
			EarlyExitScore: 70,
		},
		Search: SearchConfig{
			Endpoint:   "https://html.duckduckgo.com/html/",
			Timeout:    15 * time.Second,
			MaxRetries: 3,
			MaxLinks:   50,
		},
		DNS: DNSConfig{
			Resolver:      "",
			Timeout:       2 * time.Second,
			MaxConcurrent: 10,
		},
		Cache: CacheConfig{
			DNSTTL:        7 * 24 * time.Hour,
			DomainTTL:     7 * 24 * time.Hour,
			ValidationTTL: 7 * 24 * time.Hour,
			SearchTTL:     24 * time.Hour,
		},
		Jobs: JobsConfig{
			Workers:         3,
			StaleJobTimeout: 30 * time.Minute,
		},
		Scheduler: SchedulerConfig{
			Enabled:            true,
			CacheSweepSchedule: "0 3 * * *",
			BadgerGCSchedule:   "30 3 * * *",
		},
	}
}

// LoadFromFile loads configuration from a single file, falling back to defaults
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority: default -> file1 -> file2 -> ... -> env -> CLI
// Later files override earlier files. Priority system: CLI flags > Environment variables > Last config file > ... > First config file > Defaults
// Example: LoadFromFiles("base.toml", "override.toml") - override.toml settings take precedence over base.toml
func LoadFromFiles(paths ...string) (*Config, error) {
	// Start with defaults
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier files)
	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		// Unmarshal into config (merges with existing values, later values override)
		err = toml.Unmarshal(data, config)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	// Apply environment variables (overrides all file configs)
	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	// Environment configuration (highest priority: INVENIO_ENV, fallback: GO_ENV)
	if env := os.Getenv("INVENIO_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("INVENIO_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("INVENIO_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Logging configuration
	if level := os.Getenv("INVENIO_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("INVENIO_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
	if output := os.Getenv("INVENIO_LOG_OUTPUT"); output != "" {
		// Split comma-separated output types
		outputs := []string{}
		for _, o := range splitString(output, ",") {
			trimmed := trimSpace(o)
			if trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Storage configuration
	if badgerPath := os.Getenv("INVENIO_BADGER_PATH"); badgerPath != "" {
		config.Badger.Path = badgerPath
	}
	if reset := os.Getenv("INVENIO_BADGER_RESET"); reset != "" {
		if b, err := strconv.ParseBool(reset); err == nil {
			config.Badger.ResetOnStartup = b
		}
	}

	// Discovery configuration
	if headTimeout := os.Getenv("INVENIO_DISCOVERY_HEAD_TIMEOUT"); headTimeout != "" {
		if d, err := time.ParseDuration(headTimeout); err == nil {
			config.Discovery.HeadTimeout = d
		}
	}
	if getTimeout := os.Getenv("INVENIO_DISCOVERY_GET_TIMEOUT"); getTimeout != "" {
		if d, err := time.ParseDuration(getTimeout); err == nil {
			config.Discovery.GetTimeout = d
		}
	}

	// Crawler configuration
	if maxPages := os.Getenv("INVENIO_CRAWLER_MAX_PAGES"); maxPages != "" {
		if n, err := strconv.Atoi(maxPages); err == nil && n > 0 {
			config.Crawler.MaxPages = n
		}
	}
	if timeout := os.Getenv("INVENIO_CRAWLER_REQUEST_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Crawler.RequestTimeout = d
		}
	}

	// Search configuration
	if endpoint := os.Getenv("INVENIO_SEARCH_ENDPOINT"); endpoint != "" {
		config.Search.Endpoint = endpoint
	}
	if retries := os.Getenv("INVENIO_SEARCH_MAX_RETRIES"); retries != "" {
		if n, err := strconv.Atoi(retries); err == nil && n > 0 {
			config.Search.MaxRetries = n
		}
	}

	// DNS configuration
	if resolver := os.Getenv("INVENIO_DNS_RESOLVER"); resolver != "" {
		config.DNS.Resolver = resolver
	}
	if timeout := os.Getenv("INVENIO_DNS_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.DNS.Timeout = d
		}
	}

	// Jobs configuration
	if workers := os.Getenv("INVENIO_JOBS_WORKERS"); workers != "" {
		if n, err := strconv.Atoi(workers); err == nil && n > 0 {
			config.Jobs.Workers = n
		}
	}
	if staleTimeout := os.Getenv("INVENIO_JOBS_STALE_TIMEOUT"); staleTimeout != "" {
		if d, err := time.ParseDuration(staleTimeout); err == nil {
			config.Jobs.StaleJobTimeout = d
		}
	}

	// Scheduler configuration
	if enabled := os.Getenv("INVENIO_SCHEDULER_ENABLED"); enabled != "" {
		if b, err := strconv.ParseBool(enabled); err == nil {
			config.Scheduler.Enabled = b
		}
	}
	if schedule := os.Getenv("INVENIO_SCHEDULER_CACHE_SWEEP"); schedule != "" {
		config.Scheduler.CacheSweepSchedule = schedule
	}
	if schedule := os.Getenv("INVENIO_SCHEDULER_BADGER_GC"); schedule != "" {
		config.Scheduler.BadgerGCSchedule = schedule
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, port int, host string) {
	// Command-line flags have highest priority
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Helper functions for string manipulation
func splitString(s, sep string) []string {
	result := []string{}
	start := 0
	for i := 0; i < len(s); i++ {
		if i+len(sep) <= len(s) && s[i:i+len(sep)] == sep {
			result = append(result, s[start:i])
			start = i + len(sep)
			i = start - 1
		}
	}
	result = append(result, s[start:])
	return result
}

func trimSpace(s string) string {
	start := 0
	end := len(s)
	for start < end && (s[start] == ' ' || s[start] == '\t' || s[start] == '\n' || s[start] == '\r') {
		start++
	}
	for end > start && (s[end-1] == ' ' || s[end-1] == '\t' || s[end-1] == '\n' || s[end-1] == '\r') {
		end--
	}
	return s[start:end]
}

// ValidateJobSchedule validates a cron schedule expression and enforces a minimum 5-minute interval
func ValidateJobSchedule(schedule string) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	_, err := parser.Parse(schedule)
	if err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}

	parts := strings.Fields(schedule)
	if len(parts) < 5 {
		return fmt.Errorf("invalid cron format: expected 5 fields")
	}

	minuteField := parts[0]

	if minuteField == "*" {
		return fmt.Errorf("schedule must have minimum 5-minute interval (every minute is not allowed)")
	}

	if strings.HasPrefix(minuteField, "*/") {
		intervalStr := strings.TrimPrefix(minuteField, "*/")
		interval, err := strconv.Atoi(intervalStr)
		if err == nil && interval < 5 {
			return fmt.Errorf("schedule interval must be at least 5 minutes, got %d", interval)
		}
	}

	return nil
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
