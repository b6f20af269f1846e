package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lexgen/lexgen/automaton"
	"github.com/lexgen/lexgen/tablestore"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration file.
type Config struct {
	Build buildConfig `yaml:"build" json:"build"`
	Cache cacheConfig `yaml:"cache" json:"cache"`
	Serve serveConfig `yaml:"serve" json:"serve"`
	Log   logConfig   `yaml:"log" json:"log"`
}

type buildConfig struct {
	MaxStates *int `yaml:"max_states" json:"max_states"`
	Workers   *int `yaml:"workers" json:"workers"`
}

type cacheConfig struct {
	Backend   string `yaml:"backend" json:"backend"`
	Dir       string `yaml:"dir" json:"dir"`
	RedisAddr string `yaml:"redis_addr" json:"redis_addr"`
	RedisTTL  string `yaml:"redis_ttl" json:"redis_ttl"`
	Size      *int   `yaml:"size" json:"size"`
}

type serveConfig struct {
	Addr    string `yaml:"addr" json:"addr"`
	Grammar string `yaml:"grammar" json:"grammar"`
}

type logConfig struct {
	Level string `yaml:"level" json:"level"`
}

// Settings are the effective values after flags and the config file are
// merged.
type Settings struct {
	MaxStates    int
	Workers      int
	CacheBackend string
	CacheDir     string
	RedisAddr    string
	RedisTTL     time.Duration
	CacheSize    int
	Addr         string
	Grammar      string
	LogLevel     string
	Verbose      bool
}

// Defaults returns the settings used when neither flags nor a config file
// say otherwise.
func Defaults() Settings {
	return Settings{
		MaxStates:    automaton.DefaultMaxStates,
		CacheBackend: "memory",
		CacheSize:    tablestore.DefaultSize,
		Addr:         ":8080",
		LogLevel:     "info",
	}
}

// Load reads a YAML config file, or JSON when the extension is .json.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := &Config{}
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config yaml: %w", err)
		}
	}
	return cfg, nil
}

// Apply copies values from cfg into s unless the matching flag was set
// explicitly on the command line.
func Apply(cfg *Config, s *Settings, setFlags map[string]bool) error {
	if cfg == nil {
		return nil
	}

	if cfg.Build.MaxStates != nil && !setFlags["max-states"] {
		s.MaxStates = *cfg.Build.MaxStates
	}
	if cfg.Build.Workers != nil && !setFlags["workers"] {
		s.Workers = *cfg.Build.Workers
	}

	if cfg.Cache.Backend != "" && !setFlags["cache"] {
		s.CacheBackend = cfg.Cache.Backend
	}
	if cfg.Cache.Dir != "" && !setFlags["cache-dir"] {
		s.CacheDir = cfg.Cache.Dir
	}
	if cfg.Cache.RedisAddr != "" && !setFlags["redis-addr"] {
		s.RedisAddr = cfg.Cache.RedisAddr
	}
	if cfg.Cache.RedisTTL != "" && !setFlags["redis-ttl"] {
		ttl, err := time.ParseDuration(cfg.Cache.RedisTTL)
		if err != nil {
			return fmt.Errorf("cache.redis_ttl: %w", err)
		}
		s.RedisTTL = ttl
	}
	if cfg.Cache.Size != nil && !setFlags["cache-size"] {
		s.CacheSize = *cfg.Cache.Size
	}

	if cfg.Serve.Addr != "" && !setFlags["addr"] {
		s.Addr = cfg.Serve.Addr
	}
	if cfg.Serve.Grammar != "" && !setFlags["grammar"] {
		s.Grammar = cfg.Serve.Grammar
	}

	if cfg.Log.Level != "" && !setFlags["log-level"] {
		if _, err := zapcore.ParseLevel(cfg.Log.Level); err != nil {
			return fmt.Errorf("log.level: %w", err)
		}
		s.LogLevel = cfg.Log.Level
	}

	return nil
}

// StoreConfig returns the table store configuration.
func (s Settings) StoreConfig() tablestore.Config {
	return tablestore.Config{
		Backend:   s.CacheBackend,
		Dir:       s.CacheDir,
		RedisAddr: s.RedisAddr,
		RedisTTL:  s.RedisTTL,
		Size:      s.CacheSize,
	}
}

// BuildOptions returns the automaton options the settings call for.
func (s Settings) BuildOptions(logger *zap.Logger) []automaton.Option {
	return []automaton.Option{
		automaton.WithMaxStates(s.MaxStates),
		automaton.WithWorkers(s.Workers),
		automaton.WithLogger(logger),
	}
}

// Logger builds a production logger at LogLevel, or a development logger
// when Verbose is set.
func (s Settings) Logger() (*zap.Logger, error) {
	if s.Verbose {
		return zap.NewDevelopment()
	}
	level, err := zapcore.ParseLevel(s.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	return cfg.Build()
}
