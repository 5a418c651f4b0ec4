package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Fetcher kinds accepted by FETCHER.
const (
	FetcherHTTP     = "http"
	FetcherChromedp = "chromedp"
)

// Config stores all configuration for the application.
type Config struct {
	ServerInterface string `mapstructure:"SERVER_INTERFACE"`
	ServerPort      int    `mapstructure:"SERVER_PORT"`
	ResponseTimeout int    `mapstructure:"RESPONSE_TIMEOUT"`

	LogLevel string `mapstructure:"LOG_LEVEL"`
	LogFile  string `mapstructure:"LOG_FILE"`

	SelectorConfig  string `mapstructure:"SELECTOR_CONFIG"`
	Fetcher         string `mapstructure:"FETCHER"`
	FetchTimeout    int    `mapstructure:"FETCH_TIMEOUT"`
	PageLoadTimeout int    `mapstructure:"PAGE_LOAD_TIMEOUT"`
	MaxConcurrency  int    `mapstructure:"MAX_CONCURRENCY"`
	Proxies         string `mapstructure:"PROXIES"`

	TrendsHL             string  `mapstructure:"TRENDS_HL"`
	TrendsTZ             int     `mapstructure:"TRENDS_TZ"`
	TrendsGeo            string  `mapstructure:"TRENDS_GEO"`
	TrendsConnectTimeout float64 `mapstructure:"TRENDS_CONNECT_TIMEOUT"`
	TrendsReadTimeout    float64 `mapstructure:"TRENDS_READ_TIMEOUT"`
	TrendsRetries        int     `mapstructure:"TRENDS_RETRIES"`
	TrendsBackoffFactor  float64 `mapstructure:"TRENDS_BACKOFF_FACTOR"`
	TrendsCacheTTL       int     `mapstructure:"TRENDS_CACHE_TTL"`

	PostgresURL   string `mapstructure:"POSTGRES_URL"`
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	WorkerInterval     int `mapstructure:"WORKER_INTERVAL"`
	DeduplicationHours int `mapstructure:"DEDUPLICATION_HOURS"`
	RetryBatch         int `mapstructure:"RETRY_BATCH"`
}

var defaults = map[string]any{
	"SERVER_INTERFACE":       "0.0.0.0",
	"SERVER_PORT":            6000,
	"RESPONSE_TIMEOUT":       3600,
	"LOG_LEVEL":              "info",
	"LOG_FILE":               "",
	"SELECTOR_CONFIG":        "configs/selectors.yaml",
	"FETCHER":                FetcherHTTP,
	"FETCH_TIMEOUT":          30,
	"PAGE_LOAD_TIMEOUT":      60,
	"MAX_CONCURRENCY":        2,
	"PROXIES":                "",
	"TRENDS_HL":              "vi-vn",
	"TRENDS_TZ":              360,
	"TRENDS_GEO":             "",
	"TRENDS_CONNECT_TIMEOUT": 2,
	"TRENDS_READ_TIMEOUT":    5,
	"TRENDS_RETRIES":         0,
	"TRENDS_BACKOFF_FACTOR":  0,
	"TRENDS_CACHE_TTL":       300,
	"POSTGRES_URL":           "",
	"REDIS_ADDR":             "",
	"REDIS_PASSWORD":         "",
	"REDIS_DB":               0,
	"WORKER_INTERVAL":        5,
	"DEDUPLICATION_HOURS":    48,
	"RETRY_BATCH":            10,
}

// flagKeys maps command line flags onto configuration keys.
var flagKeys = map[string]string{
	"interface":        "SERVER_INTERFACE",
	"port":             "SERVER_PORT",
	"response-timeout": "RESPONSE_TIMEOUT",
	"log-level":        "LOG_LEVEL",
	"log-file":         "LOG_FILE",
	"selector-config":  "SELECTOR_CONFIG",
	"fetcher":          "FETCHER",
}

// RegisterFlags adds the command line overrides to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("interface", defaults["SERVER_INTERFACE"].(string), "network interface to listen on")
	fs.IntP("port", "p", defaults["SERVER_PORT"].(int), "port to run the server at")
	fs.Int("response-timeout", defaults["RESPONSE_TIMEOUT"].(int), "maximum time a response can take to process (sec)")
	fs.String("log-level", defaults["LOG_LEVEL"].(string), "one of debug, info, warn, error")
	fs.String("log-file", "", "store logs in the specified file")
	fs.String("selector-config", defaults["SELECTOR_CONFIG"].(string), "YAML file with the per-domain selector rules")
	fs.String("fetcher", defaults["FETCHER"].(string), "page fetcher: http or chromedp")
}

func missingConfig(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.Is(err, os.ErrNotExist) || errors.As(err, &notFound)
}

// Load reads configuration from flags, the environment and the given env
// file, in that order of precedence. Flags may be nil.
func Load(envFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(envFile)
	v.SetConfigType("env")
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	// The file is optional; production runs on environment variables only.
	if err := v.ReadInConfig(); err != nil && !missingConfig(err) {
		return nil, fmt.Errorf("failed to read config file %s: %w", envFile, err)
	}

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports settings the service cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		errs = append(errs, fmt.Errorf("SERVER_PORT out of range: %d", c.ServerPort))
	}
	switch c.Fetcher {
	case FetcherHTTP, FetcherChromedp:
	default:
		errs = append(errs, fmt.Errorf("unknown FETCHER %q", c.Fetcher))
	}
	if c.MaxConcurrency <= 0 {
		errs = append(errs, fmt.Errorf("MAX_CONCURRENCY must be positive: %d", c.MaxConcurrency))
	}
	if c.SelectorConfig == "" {
		errs = append(errs, errors.New("SELECTOR_CONFIG is empty"))
	}
	return errors.Join(errs...)
}

// Addr is the listen address of the HTTP server.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.ServerInterface, strconv.Itoa(c.ServerPort))
}

// ProxyList splits PROXIES on commas, dropping blanks.
func (c *Config) ProxyList() []string {
	var out []string
	for _, p := range strings.Split(c.Proxies, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// StorageEnabled reports whether both Postgres and Redis are configured.
func (c *Config) StorageEnabled() bool {
	return c.PostgresURL != "" && c.RedisAddr != ""
}

func (c *Config) ResponseTimeoutDuration() time.Duration { return seconds(float64(c.ResponseTimeout)) }
func (c *Config) FetchTimeoutDuration() time.Duration    { return seconds(float64(c.FetchTimeout)) }
func (c *Config) PageLoadTimeoutDuration() time.Duration { return seconds(float64(c.PageLoadTimeout)) }
func (c *Config) TrendsCacheTTLDuration() time.Duration  { return seconds(float64(c.TrendsCacheTTL)) }
func (c *Config) WorkerIntervalDuration() time.Duration  { return seconds(float64(c.WorkerInterval)) }

// DeduplicationWindow is how long a crawled URL is not crawled again.
func (c *Config) DeduplicationWindow() time.Duration {
	return time.Duration(c.DeduplicationHours) * time.Hour
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
