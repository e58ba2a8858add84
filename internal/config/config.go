package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// Config holds the simdoc service configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Search   SearchConfig   `yaml:"search"`
	Storage  StorageConfig  `yaml:"storage"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"` // empty disables authentication
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int   `yaml:"port"`
	ReadTimeoutSec  int   `yaml:"read_timeout_sec"`
	WriteTimeoutSec int   `yaml:"write_timeout_sec"`
	ShutdownSec     int   `yaml:"shutdown_timeout_sec"`
	MaxBodyBytes    int64 `yaml:"max_body_bytes"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // valkey, redis (default: valkey)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	Standalone       bool     `yaml:"standalone"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// SearchConfig holds the defaults applied to runs that do not override them.
type SearchConfig struct {
	Mode         string  `yaml:"mode"` // char, word
	Ngram        int     `yaml:"ngram"`
	Delimiter    string  `yaml:"delimiter"`
	Bits         int     `yaml:"bits"`
	Threshold    float64 `yaml:"threshold"`
	Confidence   float64 `yaml:"confidence"`
	Rounds       int     `yaml:"rounds"`
	Window       int     `yaml:"window"`
	Seed         uint64  `yaml:"seed"`
	Workers      int     `yaml:"workers"` // 0 = GOMAXPROCS
	TF           string  `yaml:"tf"`
	IDF          string  `yaml:"idf"`
	MaxDocuments int     `yaml:"max_documents"`

	// Upper bounds on per-run overrides.
	MaxBits   int `yaml:"max_bits"`
	MaxRounds int `yaml:"max_rounds"`
	MaxWindow int `yaml:"max_window"`

	DefaultPageSize int `yaml:"default_page_size"`
	MaxPageSize     int `yaml:"max_page_size"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix    string `yaml:"key_prefix"`
	ResultTTLSec int    `yaml:"result_ttl_sec"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		c.HTTP.MaxBodyBytes = 32 << 20
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "valkey"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	c.Search.applyDefaults()
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "simdoc:"
	}
	if c.Storage.ResultTTLSec <= 0 {
		c.Storage.ResultTTLSec = 24 * 60 * 60
	}
}

func (s *SearchConfig) applyDefaults() {
	if s.Mode == "" {
		s.Mode = "char"
	}
	if s.Ngram <= 0 {
		s.Ngram = 5
	}
	if s.Delimiter == "" {
		s.Delimiter = " "
	}
	if s.Bits <= 0 {
		s.Bits = 128
	}
	if s.Threshold <= 0 {
		s.Threshold = 0.9
	}
	if s.Confidence == 0 {
		s.Confidence = 0.999
	}
	if s.Rounds <= 0 {
		s.Rounds = 16
	}
	if s.Window <= 0 {
		s.Window = 8
	}
	if s.Seed == 0 {
		s.Seed = 1
	}
	if s.TF == "" {
		s.TF = "standard"
	}
	if s.IDF == "" {
		s.IDF = "standard"
	}
	if s.MaxDocuments <= 0 {
		s.MaxDocuments = 100000
	}
	if s.MaxBits <= 0 {
		s.MaxBits = 4096
	}
	if s.MaxRounds <= 0 {
		s.MaxRounds = 256
	}
	if s.MaxWindow <= 0 {
		s.MaxWindow = 1024
	}
	if s.DefaultPageSize <= 0 {
		s.DefaultPageSize = 100
	}
	if s.MaxPageSize <= 0 {
		s.MaxPageSize = 1000
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	switch c.Database.Driver {
	case "valkey", "redis":
	default:
		return fmt.Errorf("database.driver must be \"valkey\" or \"redis\", got %q", c.Database.Driver)
	}
	switch c.Search.Mode {
	case "char", "word":
	default:
		return fmt.Errorf("search.mode must be \"char\" or \"word\", got %q", c.Search.Mode)
	}
	if utf8.RuneCountInString(c.Search.Delimiter) != 1 {
		return fmt.Errorf("search.delimiter must be a single character, got %q", c.Search.Delimiter)
	}
	if c.Search.Threshold > 1 {
		return fmt.Errorf("search.threshold must be in (0, 1], got %v", c.Search.Threshold)
	}
	if c.Search.Confidence < 0.5 || c.Search.Confidence >= 1 {
		return fmt.Errorf("search.confidence must be in [0.5, 1), got %v", c.Search.Confidence)
	}
	if c.Search.Bits > c.Search.MaxBits {
		return fmt.Errorf("search.bits %d exceeds search.max_bits %d", c.Search.Bits, c.Search.MaxBits)
	}
	if c.Search.Rounds > c.Search.MaxRounds {
		return fmt.Errorf("search.rounds %d exceeds search.max_rounds %d", c.Search.Rounds, c.Search.MaxRounds)
	}
	if c.Search.Window > c.Search.MaxWindow {
		return fmt.Errorf("search.window %d exceeds search.max_window %d", c.Search.Window, c.Search.MaxWindow)
	}
	if c.Search.DefaultPageSize > c.Search.MaxPageSize {
		return fmt.Errorf("search.default_page_size %d exceeds search.max_page_size %d",
			c.Search.DefaultPageSize, c.Search.MaxPageSize)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
