package worker

import (
	"github.com/itsmostafa/gorepl/internal/repr"
	"github.com/itsmostafa/gorepl/internal/session"
	"github.com/itsmostafa/gorepl/internal/workspace"
)

// Config holds configuration for a Worker.
type Config struct {
	// Session configures the session the worker evaluates in
	Session session.Config

	// ReprLimit is the longest result shown before it is truncated (default: 1000)
	ReprLimit int

	// MaxFileSize caps files guest code reads or writes through fs (default: 1 MiB)
	MaxFileSize int64

	// NoEcho skips echoing REPL input back, for hosts whose terminal already shows it
	NoEcho bool

	// NoBanner skips the greeting when a session starts
	NoBanner bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Session:     session.DefaultConfig(),
		ReprLimit:   repr.DefaultLimit,
		MaxFileSize: workspace.DefaultMaxFileSize,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.ReprLimit <= 0 {
		c.ReprLimit = d.ReprLimit
	}
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = d.MaxFileSize
	}
	return c
}
