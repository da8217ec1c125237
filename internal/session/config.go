package session

import "github.com/itsmostafa/gorepl/internal/console"

// Config holds configuration for a Session.
type Config struct {
	// Filename is the script name shown in guest stack traces (default: "<console>")
	Filename string

	// ResultName is the global the last non-null result is bound to (default: "_")
	ResultName string

	// ConversionDepth is how deep results are converted for the host (default: 1)
	ConversionDepth int

	// MaxCallStackSize bounds guest recursion depth (default: 10000)
	MaxCallStackSize int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Filename:         console.DefaultFilename,
		ResultName:       "_",
		ConversionDepth:  1,
		MaxCallStackSize: 10000,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Filename == "" {
		c.Filename = d.Filename
	}
	if c.ResultName == "" {
		c.ResultName = d.ResultName
	}
	if c.ConversionDepth <= 0 {
		c.ConversionDepth = d.ConversionDepth
	}
	if c.MaxCallStackSize <= 0 {
		c.MaxCallStackSize = d.MaxCallStackSize
	}
	return c
}
