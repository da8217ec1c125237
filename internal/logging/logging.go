// Package logging builds the diagnostic logger. REPL output never goes
// through it; it only records what the interpreter host is doing.
package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// Config holds configuration for the logger.
type Config struct {
	// LogLevel is one of NONE, FATAL, ERROR, WARN, INFO, DEBUG, TRACE (default: WARN)
	LogLevel string `yaml:"level"`

	// Format is "logfmt" or "json" (default: logfmt)
	Format string `yaml:"format"`

	// AddTimeStamp prefixes each line with a timestamp (default: true)
	AddTimeStamp bool `yaml:"add_timestamp"`

	// LevelName and MessageName rename the level and message keys
	LevelName   string `yaml:"level_name"`
	MessageName string `yaml:"message_name"`

	// StaticFields are attached to every line
	StaticFields map[string]string `yaml:"static_fields"`
}

// NewConfig returns a Config with sensible defaults.
func NewConfig() Config {
	return Config{
		LogLevel:     "WARN",
		Format:       "logfmt",
		AddTimeStamp: true,
		LevelName:    "level",
		MessageName:  "msg",
		StaticFields: map[string]string{
			"@service": "gorepl",
		},
	}
}

// New creates a logger writing to w.
func New(w io.Writer, cfg Config) (logrus.FieldLogger, error) {
	logger := logrus.New()
	logger.SetOutput(w)

	if strings.EqualFold(cfg.LogLevel, "none") || strings.EqualFold(cfg.LogLevel, "off") {
		logger.SetOutput(io.Discard)
		logger.SetLevel(logrus.PanicLevel)
		return logger, nil
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	logger.SetLevel(level)

	fieldMap := logrus.FieldMap{}
	if cfg.LevelName != "" {
		fieldMap[logrus.FieldKeyLevel] = cfg.LevelName
	}
	if cfg.MessageName != "" {
		fieldMap[logrus.FieldKeyMsg] = cfg.MessageName
	}

	switch cfg.Format {
	case "", "logfmt":
		logger.SetFormatter(&logrus.TextFormatter{
			DisableColors:    true,
			DisableTimestamp: !cfg.AddTimeStamp,
			FullTimestamp:    true,
			FieldMap:         fieldMap,
		})
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{
			DisableTimestamp: !cfg.AddTimeStamp,
			FieldMap:         fieldMap,
		})
	default:
		return nil, fmt.Errorf("log format %q not recognised", cfg.Format)
	}

	if len(cfg.StaticFields) == 0 {
		return logger, nil
	}
	fields := make(logrus.Fields, len(cfg.StaticFields))
	for k, v := range cfg.StaticFields {
		fields[k] = v
	}
	return logger.WithFields(fields), nil
}
