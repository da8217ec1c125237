package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger(t *testing.T) {
	tests := []struct {
		name        string
		level       string
		format      string
		levelName   string
		messageName string
		expected    string
	}{
		{
			name:     "default level drops info",
			expected: "",
		},
		{
			name:  "info level",
			level: "INFO",
			expected: `level=info msg="Interpreter ready" @service=gorepl session=abc
`,
		},
		{
			name:  "debug level",
			level: "DEBUG",
			expected: `level=debug msg="debug message" @service=gorepl session=abc
level=info msg="Interpreter ready" @service=gorepl session=abc
`,
		},
		{
			name:        "renamed keys",
			level:       "INFO",
			levelName:   "severity",
			messageName: "message",
			expected: `severity=info message="Interpreter ready" @service=gorepl session=abc
`,
		},
		{
			name:   "json format",
			level:  "INFO",
			format: "json",
			expected: `{"@service":"gorepl","level":"info","msg":"Interpreter ready","session":"abc"}
`,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := NewConfig()
			cfg.AddTimeStamp = false
			if test.level != "" {
				cfg.LogLevel = test.level
			}
			if test.format != "" {
				cfg.Format = test.format
			}
			if test.levelName != "" {
				cfg.LevelName = test.levelName
			}
			if test.messageName != "" {
				cfg.MessageName = test.messageName
			}

			var buf bytes.Buffer
			logger, err := New(&buf, cfg)
			require.NoError(t, err)

			logger = logger.WithField("session", "abc")
			logger.Debug("debug message")
			logger.Info("Interpreter ready")

			assert.Equal(t, test.expected, buf.String())
		})
	}
}

type logCounter struct {
	count int
}

func (l *logCounter) Write(p []byte) (n int, err error) {
	l.count++
	return len(p), nil
}

func TestLogLevels(t *testing.T) {
	for i, lvl := range []string{"NONE", "ERROR", "WARN", "INFO", "DEBUG", "TRACE"} {
		cfg := NewConfig()
		cfg.LogLevel = lvl

		buf := logCounter{}
		logger, err := New(&buf, cfg)
		require.NoError(t, err)

		logger.Error("error test")
		logger.Warn("warn test")
		logger.Info("info test")
		logger.Debug("debug test")
		logger.WithField("k", "v").Trace("trace test")

		assert.Equal(t, i, buf.count, "level %s", lvl)
	}
}

func TestInvalidConfig(t *testing.T) {
	cfg := NewConfig()
	cfg.LogLevel = "LOUD"
	_, err := New(&bytes.Buffer{}, cfg)
	assert.Error(t, err)

	cfg = NewConfig()
	cfg.Format = "xml"
	_, err = New(&bytes.Buffer{}, cfg)
	assert.Error(t, err)
}
