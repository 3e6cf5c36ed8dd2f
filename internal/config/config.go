// Package config loads process configuration from flags, environment
// variables and an optional .env file. Flags win over the environment,
// and variables already set in the environment win over .env.
package config

import (
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"token-audit/internal/dextools"
	"token-audit/internal/goplus"
	"token-audit/internal/query"
	"token-audit/internal/upstream"
)

// DefaultEnvFile is loaded when present.
const DefaultEnvFile = ".env"

// Upstream configures the provider clients and the request cache.
type Upstream struct {
	GoPlusBaseURL   string
	DexToolsBaseURL string
	DexToolsAPIKey  string
	DexToolsRPS     float64
	Timeout         time.Duration
	QueryTTL        time.Duration
}

// Config is the audit server configuration.
type Config struct {
	HTTPAddr       string
	ChainsFile     string
	Upstream       Upstream
	RateLimitRPS   float64
	RateLimitBurst int
	TrustProxy     bool
	OTLPEndpoint   string
	OTLPInsecure   bool
}

// CLIConfig is the audit command configuration.
type CLIConfig struct {
	Chain      string
	Address    string
	Server     string
	Format     string
	ChainsFile string
	Upstream   Upstream
}

// Report formats supported by the audit command.
const (
	FormatMarkdown = "markdown"
	FormatCSV      = "csv"
)

// Load parses server configuration from args (without the program name).
func Load(args []string) (*Config, error) {
	if err := LoadEnvFile(DefaultEnvFile); err != nil {
		return nil, err
	}

	env := &envReader{}
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	cfg := &Config{}

	fs.StringVar(&cfg.HTTPAddr, "http-addr", env.String("HTTP_ADDR", ":8080"), "HTTP listen address")
	fs.StringVar(&cfg.ChainsFile, "chains-file", env.String("CHAINS_FILE", ""), "YAML chain registry (embedded registry when empty)")
	registerUpstream(fs, env, &cfg.Upstream)
	fs.Float64Var(&cfg.RateLimitRPS, "rate-limit-rps", env.Float("RATE_LIMIT_RPS", 5), "Per-IP request rate (0 disables)")
	fs.IntVar(&cfg.RateLimitBurst, "rate-limit-burst", env.Int("RATE_LIMIT_BURST", 10), "Per-IP request burst")
	fs.BoolVar(&cfg.TrustProxy, "trust-proxy", env.Bool("TRUST_PROXY", false), "Rate-limit on X-Forwarded-For / X-Real-IP (only behind a proxy that sets them)")
	fs.StringVar(&cfg.OTLPEndpoint, "otlp-endpoint", env.String("OTEL_EXPORTER_OTLP_ENDPOINT", ""), "OTLP gRPC endpoint (tracing disabled when empty)")
	fs.BoolVar(&cfg.OTLPInsecure, "otlp-insecure", env.Bool("OTEL_INSECURE", false), "Disable TLS for the OTLP exporter")

	if err := env.Err(); err != nil {
		return nil, err
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadCLI parses audit command configuration from args (without the program name).
func LoadCLI(args []string) (*CLIConfig, error) {
	if err := LoadEnvFile(DefaultEnvFile); err != nil {
		return nil, err
	}

	env := &envReader{}
	fs := flag.NewFlagSet("audit", flag.ContinueOnError)
	cfg := &CLIConfig{}

	fs.StringVar(&cfg.Chain, "chain", "", "Chain id (1, 56, 137, 42161, 43114, 8453, tron)")
	fs.StringVar(&cfg.Address, "address", "", "Token contract address")
	fs.StringVar(&cfg.Server, "server", env.String("AUDIT_SERVER", ""), "Audit server base URL; providers are called directly when empty")
	fs.StringVar(&cfg.Format, "format", FormatMarkdown, "Output format (markdown, csv)")
	fs.StringVar(&cfg.ChainsFile, "chains-file", env.String("CHAINS_FILE", ""), "YAML chain registry (embedded registry when empty)")
	registerUpstream(fs, env, &cfg.Upstream)

	if err := env.Err(); err != nil {
		return nil, err
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadEnvFile loads path into the environment without overriding variables
// that are already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func registerUpstream(fs *flag.FlagSet, env *envReader, u *Upstream) {
	fs.StringVar(&u.GoPlusBaseURL, "goplus-base-url", env.String("GOPLUS_BASE_URL", goplus.DefaultBaseURL), "Security-scan API base URL")
	fs.StringVar(&u.DexToolsBaseURL, "dextools-base-url", env.String("DEXTOOLS_BASE_URL", dextools.DefaultBaseURL), "Market-data API base URL")
	fs.StringVar(&u.DexToolsAPIKey, "dextools-api-key", env.String("DEXTOOLS_API_KEY", ""), "Market-data API key")
	fs.Float64Var(&u.DexToolsRPS, "dextools-rps", env.Float("DEXTOOLS_RPS", 1), "Market-data request rate (0 disables pacing)")
	fs.DurationVar(&u.Timeout, "upstream-timeout", env.Duration("UPSTREAM_TIMEOUT", upstream.DefaultTimeout), "Upstream request timeout")
	fs.DurationVar(&u.QueryTTL, "query-ttl", env.Duration("QUERY_TTL", query.DefaultTTL), "How long fetched results are reused")
}

// Validate checks the server configuration.
func (c *Config) Validate() error {
	if c.HTTPAddr == "" {
		return errors.New("http-addr is required")
	}
	if err := c.Upstream.Validate(); err != nil {
		return err
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("rate-limit-rps must be >= 0, got %v", c.RateLimitRPS)
	}
	if c.RateLimitRPS > 0 && c.RateLimitBurst < 1 {
		return fmt.Errorf("rate-limit-burst must be >= 1, got %d", c.RateLimitBurst)
	}
	return nil
}

// Validate checks the audit command configuration.
func (c *CLIConfig) Validate() error {
	if c.Chain == "" {
		return errors.New("--chain is required")
	}
	if c.Address == "" {
		return errors.New("--address is required")
	}
	if c.Format != FormatMarkdown && c.Format != FormatCSV {
		return fmt.Errorf("format must be %s or %s, got %q", FormatMarkdown, FormatCSV, c.Format)
	}
	if c.Server != "" {
		if err := validateBaseURL("server", c.Server); err != nil {
			return err
		}
	}
	return c.Upstream.Validate()
}

// Validate checks the upstream configuration.
func (u *Upstream) Validate() error {
	if err := validateBaseURL("goplus-base-url", u.GoPlusBaseURL); err != nil {
		return err
	}
	if err := validateBaseURL("dextools-base-url", u.DexToolsBaseURL); err != nil {
		return err
	}
	if u.DexToolsRPS < 0 {
		return fmt.Errorf("dextools-rps must be >= 0, got %v", u.DexToolsRPS)
	}
	if u.Timeout <= 0 {
		return fmt.Errorf("upstream-timeout must be > 0, got %v", u.Timeout)
	}
	if u.QueryTTL < 0 {
		return fmt.Errorf("query-ttl must be >= 0, got %v", u.QueryTTL)
	}
	return nil
}

func validateBaseURL(name, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s must be an absolute http(s) URL, got %q", name, raw)
	}
	return nil
}

// envReader reads typed defaults from the environment and collects parse errors.
type envReader struct {
	errs []error
}

func (e *envReader) String(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func (e *envReader) Float(key string, def float64) float64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: invalid number %q", key, v))
		return def
	}
	return f
}

func (e *envReader) Int(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: invalid integer %q", key, v))
		return def
	}
	return n
}

func (e *envReader) Bool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: invalid boolean %q", key, v))
		return def
	}
	return b
}

func (e *envReader) Duration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: invalid duration %q", key, v))
		return def
	}
	return d
}

func (e *envReader) Err() error {
	return errors.Join(e.errs...)
}
