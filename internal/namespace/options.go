package namespace

import (
	"fmt"
	"io"
	"os"

	"github.com/dop251/goja_nodejs/require"
)

// DefaultName is the display name of a namespace created without WithName.
const DefaultName = "__main__"

// Option configures a Namespace.
type Option func(*options)

type options struct {
	name             string
	printer          *WriterPrinter
	modules          map[string]require.ModuleLoader
	globals          map[string]any
	maxCallStackSize int
}

func defaultOptions() options {
	return options{
		name:    DefaultName,
		printer: NewWriterPrinter(os.Stdout, os.Stderr),
		modules: make(map[string]require.ModuleLoader),
		globals: make(map[string]any),
	}
}

// WithName sets the namespace's display name.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithOutput routes guest console.log to stdout and console.warn/error to stderr.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(o *options) {
		o.printer = NewWriterPrinter(stdout, stderr)
	}
}

// WithModule registers a native module reachable through require(name).
func WithModule(name string, loader require.ModuleLoader) Option {
	return func(o *options) {
		o.modules[name] = loader
	}
}

// WithGlobal pre-binds a global before any code runs.
func WithGlobal(name string, value any) Option {
	return func(o *options) {
		o.globals[name] = value
	}
}

// WithMaxCallStackSize bounds guest recursion depth. Zero keeps goja's default.
func WithMaxCallStackSize(size int) Option {
	return func(o *options) {
		o.maxCallStackSize = size
	}
}

// WriterPrinter implements the goja_nodejs console printer over io.Writers.
type WriterPrinter struct {
	stdout io.Writer
	stderr io.Writer
}

// NewWriterPrinter creates a printer writing log lines to stdout and
// warnings and errors to stderr.
func NewWriterPrinter(stdout, stderr io.Writer) *WriterPrinter {
	return &WriterPrinter{stdout: stdout, stderr: stderr}
}

func (p *WriterPrinter) Log(s string)   { fmt.Fprintln(p.stdout, s) }
func (p *WriterPrinter) Warn(s string)  { fmt.Fprintln(p.stderr, s) }
func (p *WriterPrinter) Error(s string) { fmt.Fprintln(p.stderr, s) }
