package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Guilhem-Bonnet/berriz-playback/internal/httpclient"
)

type Config struct {
	Addr           string        `yaml:"addr"`
	DBPath         string        `yaml:"dbPath"`
	APIBase        string        `yaml:"apiBase"`
	CacheSize      int           `yaml:"cacheSize"`
	CacheTTL       time.Duration `yaml:"cacheTTL"`
	HTTPTimeout    time.Duration `yaml:"httpTimeout"`
	MaxFetches     int           `yaml:"maxFetches"`
	TLSFingerprint string        `yaml:"tlsFingerprint"`
	LogLevel       string        `yaml:"logLevel"`
}

func builtin() Config {
	return Config{
		Addr:           "127.0.0.1:8787",
		DBPath:         "berriz.db",
		APIBase:        "https://svc-api.berriz.in/service/v1/medias",
		CacheSize:      7,
		CacheTTL:       30 * time.Second,
		HTTPTimeout:    20 * time.Second,
		MaxFetches:     4,
		TLSFingerprint: httpclient.FingerprintNone,
		LogLevel:       "info",
	}
}

// Default renvoie les valeurs intégrées surchargées par l'environnement.
// Les valeurs d'environnement invalides sont ignorées.
func Default() Config {
	cfg := builtin()
	cfg.applyEnv()
	return cfg
}

// Load applique dans l'ordre: valeurs intégrées, fichier YAML (si path != ""), environnement.
func Load(path string) (Config, error) {
	cfg := builtin()
	if path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return Config{}, err
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) overlayFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Addr = envOr("BERRIZ_ADDR", c.Addr)
	c.DBPath = envOr("BERRIZ_DB_PATH", c.DBPath)
	c.APIBase = envOr("BERRIZ_API_BASE", c.APIBase)
	c.CacheSize = envInt("BERRIZ_CACHE_SIZE", c.CacheSize)
	c.CacheTTL = envDuration("BERRIZ_CACHE_TTL", c.CacheTTL)
	c.HTTPTimeout = envDuration("BERRIZ_HTTP_TIMEOUT", c.HTTPTimeout)
	c.MaxFetches = envInt("BERRIZ_MAX_FETCHES", c.MaxFetches)
	c.TLSFingerprint = envOr("BERRIZ_TLS_FINGERPRINT", c.TLSFingerprint)
	c.LogLevel = envOr("BERRIZ_LOG_LEVEL", c.LogLevel)
}

func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Addr) == "" {
		errs = append(errs, errors.New("addr is required"))
	}
	if strings.TrimSpace(c.DBPath) == "" {
		errs = append(errs, errors.New("dbPath is required"))
	}
	if !strings.HasPrefix(c.APIBase, "http://") && !strings.HasPrefix(c.APIBase, "https://") {
		errs = append(errs, fmt.Errorf("apiBase must be an http(s) URL, got %q", c.APIBase))
	}
	if c.CacheSize <= 0 {
		errs = append(errs, fmt.Errorf("cacheSize must be positive, got %d", c.CacheSize))
	}
	if c.CacheTTL < 0 {
		errs = append(errs, fmt.Errorf("cacheTTL must not be negative, got %s", c.CacheTTL))
	}
	if c.HTTPTimeout <= 0 {
		errs = append(errs, fmt.Errorf("httpTimeout must be positive, got %s", c.HTTPTimeout))
	}
	// 0: pas de plafond au-dessus de maxConcurrentFetches.
	if c.MaxFetches < 0 {
		errs = append(errs, fmt.Errorf("maxFetches must not be negative, got %d", c.MaxFetches))
	}
	if !httpclient.ValidFingerprint(c.TLSFingerprint) {
		errs = append(errs, fmt.Errorf("unknown tlsFingerprint %q", c.TLSFingerprint))
	}
	return errors.Join(errs...)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
