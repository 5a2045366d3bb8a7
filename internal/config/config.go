package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/visloom/internal/logging"
)

// Global configuration structure.
type Global struct {
	TopK      int    `mapstructure:"top_k" yaml:"top_k"`
	MaxRows   int    `mapstructure:"max_rows" yaml:"max_rows"`
	Delimiter string `mapstructure:"delimiter" yaml:"delimiter"`
	// ParseDates converts all-date text columns to datetime storage on load.
	ParseDates bool `mapstructure:"parse_dates" yaml:"parse_dates"`

	// Recommendation dispatch
	ParallelActions bool `mapstructure:"parallel_actions" yaml:"parallel_actions"`
	ActionTimeoutMs int  `mapstructure:"action_timeout_ms" yaml:"action_timeout_ms"`
	ProfileWorkers  int  `mapstructure:"profile_workers" yaml:"profile_workers"`

	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	ExportDir string `mapstructure:"export_dir" yaml:"export_dir"`

	// Default SQL source
	SQLDriver string `mapstructure:"sql_driver" yaml:"sql_driver"`
	SQLDSN    string `mapstructure:"sql_dsn" yaml:"sql_dsn"`
}

// Defaults returns the built-in configuration.
func Defaults() *Global {
	return &Global{
		TopK:           15,
		MaxRows:        100000,
		ProfileWorkers: 4,
		LogLevel:       "info",
	}
}

// ActionTimeout is the per-action limit; 0 means unbounded.
func (c *Global) ActionTimeout() time.Duration {
	return time.Duration(c.ActionTimeoutMs) * time.Millisecond
}

// DelimiterRune returns the configured CSV delimiter, or 0 to sniff.
func (c *Global) DelimiterRune() rune {
	switch c.Delimiter {
	case "":
		return 0
	case `\t`, "tab":
		return '\t'
	default:
		return []rune(c.Delimiter)[0]
	}
}

// Path resolves the config file location: cfgFile if set, else
// ~/.visloom/config.yaml.
func Path(cfgFile string) (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".visloom", "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.visloom/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path, err := Path(cfgFile)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("VISLOOM")
	v.AutomaticEnv()

	d := Defaults()
	v.SetDefault("top_k", d.TopK)
	v.SetDefault("max_rows", d.MaxRows)
	v.SetDefault("delimiter", "")
	v.SetDefault("parse_dates", false)
	v.SetDefault("parallel_actions", false)
	v.SetDefault("action_timeout_ms", 0)
	v.SetDefault("profile_workers", d.ProfileWorkers)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("export_dir", "")
	v.SetDefault("sql_driver", "")
	v.SetDefault("sql_dsn", "")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		v.AddConfigPath(filepath.Join(home, ".visloom"))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	if err := v.ReadInConfig(); err != nil {
		if _, missing := err.(viper.ConfigFileNotFoundError); !missing && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

// Set assigns one key from its text form.
func (c *Global) Set(key, val string) error {
	setInt := func(dst *int, floor int) error {
		i, err := strconv.Atoi(val)
		if err != nil || i < floor {
			return fmt.Errorf("invalid int for %s: %v", key, val)
		}
		*dst = i
		return nil
	}
	setBool := func(dst *bool) error {
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid bool for %s: %v", key, val)
		}
		*dst = b
		return nil
	}
	switch key {
	case "top_k":
		return setInt(&c.TopK, 1)
	case "max_rows":
		return setInt(&c.MaxRows, 0)
	case "delimiter":
		c.Delimiter = val
	case "parse_dates":
		return setBool(&c.ParseDates)
	case "parallel_actions":
		return setBool(&c.ParallelActions)
	case "action_timeout_ms":
		return setInt(&c.ActionTimeoutMs, 0)
	case "profile_workers":
		return setInt(&c.ProfileWorkers, 0)
	case "log_level":
		if _, err := logging.ParseLevel(val); err != nil {
			return err
		}
		c.LogLevel = val
	case "export_dir":
		c.ExportDir = val
	case "sql_driver":
		c.SQLDriver = val
	case "sql_dsn":
		c.SQLDSN = val
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}
