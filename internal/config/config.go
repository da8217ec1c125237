// Package config loads gorepl's settings. Values come from defaults, then an
// optional YAML file, then GOREPL_* environment variables; the CLI applies
// its flags last.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/itsmostafa/gorepl/internal/history"
	"github.com/itsmostafa/gorepl/internal/logging"
	"github.com/itsmostafa/gorepl/internal/repr"
	"github.com/itsmostafa/gorepl/internal/session"
	"github.com/itsmostafa/gorepl/internal/worker"
	"github.com/itsmostafa/gorepl/internal/workspace"
)

// EnvPrefix prefixes every environment variable the config reads.
const EnvPrefix = "GOREPL_"

// HistoryFile is the history database name under the user's home directory.
const HistoryFile = ".gorepl_history.db"

// Config is the full gorepl configuration.
type Config struct {
	Logger    logging.Config  `yaml:"logger"`
	History   HistoryConfig   `yaml:"history"`
	Workspace WorkspaceConfig `yaml:"workspace"`
	REPL      REPLConfig      `yaml:"repl"`
}

// HistoryConfig controls command history persistence.
type HistoryConfig struct {
	// Path is the SQLite history database; empty keeps history in memory
	Path string `yaml:"path"`

	// Limit is the number of commands kept (default: 100)
	Limit int `yaml:"limit"`
}

// WorkspaceConfig controls the files guest code can reach through fs.
type WorkspaceConfig struct {
	// Dir is the workspace root; empty keeps files in memory
	Dir string `yaml:"dir"`

	// MaxFileSize caps reads and writes, e.g. "1 MiB" (default: 1 MiB)
	MaxFileSize ByteSize `yaml:"max_file_size"`
}

// REPLConfig controls evaluation and display.
type REPLConfig struct {
	// ResultName is the global holding the last non-null result (default: "_")
	ResultName string `yaml:"result_name"`

	// ReprLimit is the longest result shown before truncation (default: 1000)
	ReprLimit int `yaml:"repr_limit"`

	// MaxCallStackSize bounds guest recursion depth (default: 10000)
	MaxCallStackSize int `yaml:"max_call_stack_size"`

	// Color enables styled terminal output (default: true)
	Color bool `yaml:"color"`
}

// ByteSize is a size in bytes that reads from YAML as a number or a
// human-readable string.
type ByteSize int64

// UnmarshalYAML accepts 1048576, "1048576" and "1 MiB".
func (b *ByteSize) UnmarshalYAML(value *yaml.Node) error {
	size, err := ParseByteSize(value.Value)
	if err != nil {
		return err
	}
	*b = size
	return nil
}

// String renders the size in IEC units.
func (b ByteSize) String() string {
	return humanize.IBytes(uint64(b))
}

// ParseByteSize parses a human-readable size.
func ParseByteSize(s string) (ByteSize, error) {
	n, err := humanize.ParseBytes(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	return ByteSize(n), nil
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Logger: logging.NewConfig(),
		History: HistoryConfig{
			Path:  DefaultHistoryPath(),
			Limit: history.MaxLength,
		},
		Workspace: WorkspaceConfig{
			MaxFileSize: workspace.DefaultMaxFileSize,
		},
		REPL: REPLConfig{
			ResultName:       session.DefaultConfig().ResultName,
			ReprLimit:        repr.DefaultLimit,
			MaxCallStackSize: session.DefaultConfig().MaxCallStackSize,
			Color:            true,
		},
	}
}

// DefaultHistoryPath returns the history database in the user's home
// directory, or "" when there is no home directory.
func DefaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, HistoryFile)
}

// Load reads the YAML file at path over the defaults. An empty path returns
// the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from GOREPL_* variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	var errs []error
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}
	num := func(name string, dst *int) {
		if v, ok := lookup(EnvPrefix + name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = n
		}
	}

	str("LOG_LEVEL", &c.Logger.LogLevel)
	str("LOG_FORMAT", &c.Logger.Format)
	str("HISTORY_PATH", &c.History.Path)
	num("HISTORY_LIMIT", &c.History.Limit)
	str("WORKSPACE_DIR", &c.Workspace.Dir)
	str("RESULT_NAME", &c.REPL.ResultName)
	num("REPR_LIMIT", &c.REPL.ReprLimit)
	num("MAX_CALL_STACK_SIZE", &c.REPL.MaxCallStackSize)

	if v, ok := lookup(EnvPrefix + "MAX_FILE_SIZE"); ok {
		size, err := ParseByteSize(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sMAX_FILE_SIZE: %w", EnvPrefix, err))
		} else {
			c.Workspace.MaxFileSize = size
		}
	}
	if v, ok := lookup(EnvPrefix + "COLOR"); ok {
		color, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sCOLOR: %w", EnvPrefix, err))
		} else {
			c.REPL.Color = color
		}
	}
	if _, ok := lookup("NO_COLOR"); ok {
		c.REPL.Color = false
	}

	return multierr.Combine(errs...)
}

// Worker returns the worker configuration described by c.
func (c Config) Worker() worker.Config {
	cfg := worker.DefaultConfig()
	cfg.Session.ResultName = c.REPL.ResultName
	cfg.Session.MaxCallStackSize = c.REPL.MaxCallStackSize
	cfg.ReprLimit = c.REPL.ReprLimit
	cfg.MaxFileSize = int64(c.Workspace.MaxFileSize)
	return cfg
}
