package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. PHISHDETECT_SERVER_ADDR.
const EnvPrefix = "PHISHDETECT_"

// AppConfig holds runtime configuration. Values come from defaults, an
// optional YAML file, the environment (including .env) and CLI flags, in
// that order.
type AppConfig struct {
	Server  ServerConfig  `yaml:"server"`
	Model   ModelConfig   `yaml:"model"`
	Fetch   FetchConfig   `yaml:"fetch"`
	Whois   WhoisConfig   `yaml:"whois"`
	DNS     DNSConfig     `yaml:"dns"`
	TLS     TLSConfig     `yaml:"tls"`
	History HistoryConfig `yaml:"history"`
	Log     LogConfig     `yaml:"log"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type ModelConfig struct {
	Path string `yaml:"path"`
}

type FetchConfig struct {
	Timeout      time.Duration `yaml:"timeout"`
	MaxBodyBytes int64         `yaml:"max_body_bytes"`
	UserAgent    string        `yaml:"user_agent"`
}

// WhoisConfig: a zero Timeout leaves the whois client's own default in place.
type WhoisConfig struct {
	Timeout       time.Duration `yaml:"timeout"`
	RatePerMinute int           `yaml:"rate_per_minute"`
}

type DNSConfig struct {
	Enabled bool          `yaml:"enabled"`
	Server  string        `yaml:"server"`
	Timeout time.Duration `yaml:"timeout"`
}

// TLSConfig controls the certificate check run against https URLs. It only
// adds messages to a report.
type TLSConfig struct {
	Enabled bool          `yaml:"enabled"`
	Timeout time.Duration `yaml:"timeout"`
}

// HistoryConfig: MaxRecords 0 keeps every prediction for the life of the process.
type HistoryConfig struct {
	MaxRecords int `yaml:"max_records"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() AppConfig {
	return AppConfig{
		Server: ServerConfig{Addr: ":8080"},
		Model:  ModelConfig{Path: "data/phishing_model.yaml"},
		Fetch: FetchConfig{
			Timeout:      5 * time.Second,
			MaxBodyBytes: 5 << 20,
			UserAgent:    "Mozilla/5.0 (compatible; phishdetect/1.0)",
		},
		Whois: WhoisConfig{RatePerMinute: 30},
		DNS: DNSConfig{
			Enabled: true,
			Server:  "8.8.8.8:53",
			Timeout: 3 * time.Second,
		},
		TLS:     TLSConfig{Enabled: true, Timeout: 5 * time.Second},
		History: HistoryConfig{MaxRecords: 1000},
		Log:     LogConfig{Level: "info", Format: "text"},
	}
}

// Load builds the configuration. A missing file at path is not an error
// when path is empty; an explicit path must exist.
func Load(path string) (AppConfig, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("failed to load .env: %w", err)
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}

	return cfg, cfg.Validate()
}

func (c *AppConfig) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok && v != "" {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) error {
		v, ok := lookup(EnvPrefix + key)
		if !ok || v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
		}
		*dst = d
		return nil
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(EnvPrefix + key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
		}
		*dst = n
		return nil
	}

	flag := func(key string, dst *bool) error {
		v, ok := lookup(EnvPrefix + key)
		if !ok || v == "" {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
		}
		*dst = b
		return nil
	}

	str("SERVER_ADDR", &c.Server.Addr)
	str("MODEL_PATH", &c.Model.Path)
	str("FETCH_USER_AGENT", &c.Fetch.UserAgent)
	str("DNS_SERVER", &c.DNS.Server)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)

	for key, dst := range map[string]*bool{
		"DNS_ENABLED": &c.DNS.Enabled,
		"TLS_ENABLED": &c.TLS.Enabled,
	} {
		if err := flag(key, dst); err != nil {
			return err
		}
	}

	for key, dst := range map[string]*time.Duration{
		"FETCH_TIMEOUT": &c.Fetch.Timeout,
		"WHOIS_TIMEOUT": &c.Whois.Timeout,
		"DNS_TIMEOUT":   &c.DNS.Timeout,
		"TLS_TIMEOUT":   &c.TLS.Timeout,
	} {
		if err := dur(key, dst); err != nil {
			return err
		}
	}
	for key, dst := range map[string]*int{
		"WHOIS_RATE_PER_MINUTE": &c.Whois.RatePerMinute,
		"HISTORY_MAX_RECORDS":   &c.History.MaxRecords,
	} {
		if err := num(key, dst); err != nil {
			return err
		}
	}
	return nil
}

// Validate rejects values the pipeline cannot run with.
func (c AppConfig) Validate() error {
	var errs []error
	if c.Fetch.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("fetch.timeout must be positive, got %s", c.Fetch.Timeout))
	}
	if c.Fetch.MaxBodyBytes <= 0 {
		errs = append(errs, fmt.Errorf("fetch.max_body_bytes must be positive, got %d", c.Fetch.MaxBodyBytes))
	}
	if c.Whois.Timeout < 0 {
		errs = append(errs, fmt.Errorf("whois.timeout must not be negative"))
	}
	if c.Whois.RatePerMinute < 0 {
		errs = append(errs, fmt.Errorf("whois.rate_per_minute must not be negative"))
	}
	if c.DNS.Enabled && c.DNS.Server == "" {
		errs = append(errs, fmt.Errorf("dns.server is required when dns.enabled is set"))
	}
	if c.TLS.Enabled && c.TLS.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("tls.timeout must be positive when tls.enabled is set, got %s", c.TLS.Timeout))
	}
	if c.History.MaxRecords < 0 {
		errs = append(errs, fmt.Errorf("history.max_records must not be negative"))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json", "logfmt":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text, json or logfmt, got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}
