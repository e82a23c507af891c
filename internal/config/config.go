package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/cardlink/internal/foundation/errors"
	"git.home.luguber.info/inful/cardlink/internal/foundation/normalization"
)

// CurrentVersion is the configuration format version written by Init and accepted by Load.
const CurrentVersion = "1.0"

// Config is the cardlink configuration file.
type Config struct {
	Version  string         `yaml:"version"`
	Enabled  bool           `yaml:"enabled"`
	Lookup   LookupConfig   `yaml:"lookup"`
	Resolver ResolverConfig `yaml:"resolver"`
	Rewrite  RewriteConfig  `yaml:"rewrite"`
	Preview  PreviewConfig  `yaml:"preview"`
	Server   ServerConfig   `yaml:"server"`
	Events   EventsConfig   `yaml:"events"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// LookupConfig names the card lookup service.
type LookupConfig struct {
	BaseURL string `yaml:"base_url"`
}

// ResolverConfig bounds redirect following.
type ResolverConfig struct {
	MaxRedirects      int              `yaml:"max_redirects"`
	Timeout           string           `yaml:"timeout"`
	MaxRetries        int              `yaml:"max_retries"`
	RetryBackoff      RetryBackoffMode `yaml:"retry_backoff"`
	RetryInitialDelay string           `yaml:"retry_initial_delay"`
	RetryMaxDelay     string           `yaml:"retry_max_delay,omitempty"`
}

// RetryBackoffMode selects how the follower spaces its retries.
type RetryBackoffMode string

const (
	RetryBackoffFixed       RetryBackoffMode = "fixed"
	RetryBackoffLinear      RetryBackoffMode = "linear"
	RetryBackoffExponential RetryBackoffMode = "exponential"
)

var retryBackoffNormalizer = normalization.NewNormalizer(map[string]RetryBackoffMode{
	"fixed":       RetryBackoffFixed,
	"linear":      RetryBackoffLinear,
	"exponential": RetryBackoffExponential,
}, "")

// NormalizeRetryBackoff maps raw onto a mode, or "" when it names none.
func NormalizeRetryBackoff(raw string) RetryBackoffMode {
	return retryBackoffNormalizer.Normalize(raw)
}

// RewriteConfig tunes the bracket reference rewriter.
type RewriteConfig struct {
	SkipCode bool `yaml:"skip_code"` // leave [[...]] inside code spans and blocks alone
}

// PreviewConfig holds the interactive preview settings.
type PreviewConfig struct {
	SiteURL       string `yaml:"site_url"` // base for a relative endpoint
	Endpoint      string `yaml:"endpoint"`
	HoverDelay    string `yaml:"hover_delay"`
	LeaveDelay    string `yaml:"leave_delay"`
	ViewportInset int    `yaml:"viewport_inset"`
	Gap           int    `yaml:"gap"`
}

// ServerConfig configures the hook HTTP server.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// EventsConfig configures resolution event publishing over NATS JetStream.
type EventsConfig struct {
	Enabled bool   `yaml:"enabled"`
	NATSURL string `yaml:"nats_url"`
	Subject string `yaml:"subject"`
	Stream  string `yaml:"stream"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// MetricsConfig toggles the Prometheus recorder and its scrape path.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Default returns a configuration with every field populated.
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		Enabled: true,
		Lookup:  LookupConfig{BaseURL: "https://scryfall.com"},
		Resolver: ResolverConfig{
			MaxRedirects:      5,
			Timeout:           "5s",
			MaxRetries:        1,
			RetryBackoff:      RetryBackoffFixed,
			RetryInitialDelay: "200ms",
			RetryMaxDelay:     "2s",
		},
		Preview: PreviewConfig{
			SiteURL:       "http://localhost:3000",
			Endpoint:      "/onebox",
			HoverDelay:    "300ms",
			LeaveDelay:    "200ms",
			ViewportInset: 10,
			Gap:           10,
		},
		Server: ServerConfig{Addr: ":8087"},
		Events: EventsConfig{
			NATSURL: "nats://127.0.0.1:4222",
			Subject: "cardlink.resolutions",
			Stream:  "CARDLINK",
		},
		Logging: LoggingConfig{Level: LogLevelInfo, Format: LogFormatText},
		Metrics: MetricsConfig{Enabled: true, Path: "/metrics"},
	}
}

// Load reads configPath on top of Default, expanding ${VAR} references after
// loading .env files, then normalizes and validates the result.
func Load(configPath string) (*Config, error) {
	loadEnvFiles()

	data, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		return nil, errors.ConfigError("configuration file not found").WithContext("path", configPath).Build()
	}
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to read config file").WithContext("path", configPath).Build()
	}
	return Parse(data)
}

// Parse decodes YAML configuration bytes on top of Default.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to unmarshal config").Fatal().Build()
	}
	if cfg.Version != CurrentVersion {
		return nil, errors.ConfigError(fmt.Sprintf("unsupported configuration version: %s (expected %s)", cfg.Version, CurrentVersion)).Build()
	}
	cfg.normalize()
	if err := Validate(cfg); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "configuration validation failed").Fatal().Build()
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.Logging.Level = NormalizeLogLevel(string(c.Logging.Level))
	c.Logging.Format = NormalizeLogFormat(string(c.Logging.Format))
	if m := NormalizeRetryBackoff(string(c.Resolver.RetryBackoff)); m != "" {
		c.Resolver.RetryBackoff = m
	}
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.ValidationError(fmt.Sprintf("configuration file already exists: %s (use --force to overwrite)", configPath)).Build()
	}

	example := Default()
	example.Events.NATSURL = "${NATS_URL}"

	data, err := yaml.Marshal(example)
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to marshal config").Build()
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write config file").WithContext("path", configPath).Build()
	}
	return nil
}

// Durations are stored as strings in YAML; the accessors below return the parsed
// value, or the default when the field does not parse.

func (r ResolverConfig) TimeoutDuration() time.Duration {
	return parseDuration(r.Timeout, 5*time.Second)
}

func (r ResolverConfig) RetryInitialDelayDuration() time.Duration {
	return parseDuration(r.RetryInitialDelay, 200*time.Millisecond)
}

func (r ResolverConfig) RetryMaxDelayDuration() time.Duration {
	return parseDuration(r.RetryMaxDelay, 2*time.Second)
}

// EndpointURL resolves Endpoint against SiteURL.
func (p PreviewConfig) EndpointURL() (string, error) {
	ep, err := url.Parse(p.Endpoint)
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryConfig, "invalid preview.endpoint").Build()
	}
	if ep.IsAbs() {
		return ep.String(), nil
	}
	base, err := url.Parse(p.SiteURL)
	if err != nil || !base.IsAbs() {
		return "", errors.ConfigError("preview.site_url must be absolute when preview.endpoint is relative").
			WithContext("site_url", p.SiteURL).Build()
	}
	return base.ResolveReference(ep).String(), nil
}

func (p PreviewConfig) HoverDelayDuration() time.Duration {
	return parseDuration(p.HoverDelay, 300*time.Millisecond)
}

func (p PreviewConfig) LeaveDelayDuration() time.Duration {
	return parseDuration(p.LeaveDelay, 200*time.Millisecond)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return fallback
	}
	return d
}
