// Package console implements the interactive console bound to a namespace.
// Input lines are buffered until they form a complete program, then evaluated
// on the namespace's event loop; each push yields a Future.
package console

import (
	"errors"
	"strings"
	"sync"

	"github.com/dop251/goja"

	"github.com/itsmostafa/gorepl/internal/namespace"
)

// DefaultFilename is the script name reported in guest stack traces.
const DefaultFilename = "<console>"

// ErrNilNamespace is returned when a console is created without a namespace.
var ErrNilNamespace = errors.New("console requires a namespace")

// Console buffers input and evaluates complete programs in its namespace.
type Console struct {
	ns       *namespace.Namespace
	filename string

	mu       sync.Mutex
	buffer   []string
	inflight *Future
}

// Option configures a Console.
type Option func(*Console)

// WithFilename sets the script name used in stack traces.
func WithFilename(name string) Option {
	return func(c *Console) {
		c.filename = name
	}
}

// New creates a console bound to ns. The namespace is not modified.
func New(ns *namespace.Namespace, opts ...Option) (*Console, error) {
	if ns == nil {
		return nil, ErrNilNamespace
	}
	if ns.Closed() {
		return nil, namespace.ErrClosed
	}
	c := &Console{
		ns:       ns,
		filename: DefaultFilename,
		buffer:   []string{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Clear discards any buffered, not yet submitted input. A nil console is
// ignored.
func Clear(c *Console) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buffer = []string{}
}

// Namespace returns the namespace the console evaluates in.
func (c *Console) Namespace() *namespace.Namespace {
	return c.ns
}

// Buffer returns a copy of the buffered input lines.
func (c *Console) Buffer() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.buffer...)
}

// Push appends line to the buffer and, once the buffer holds a complete
// program, schedules it for evaluation.
func (c *Console) Push(line string) *Future {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.buffer = append(c.buffer, line)
	source := strings.Join(c.buffer, "\n")

	prog, syntax, err := check(c.filename, source)
	switch syntax {
	case Incomplete:
		fut := newFuture(c.ns, Incomplete)
		fut.resolve(goja.Undefined())
		return fut
	case SyntaxError:
		c.buffer = []string{}
		fut := newFuture(c.ns, SyntaxError)
		fut.reject(err)
		return fut
	}

	c.buffer = []string{}
	fut := newFuture(c.ns, Complete)
	c.inflight = fut
	if err := c.ns.Go(func(vm *goja.Runtime) {
		evaluate(vm, prog, fut)
	}); err != nil {
		fut.reject(err)
	}
	return fut
}

// Exec evaluates source as a whole program in the console's namespace,
// bypassing the input buffer. The future is tracked like pushed input, so
// Interrupt reaches it even before it starts running.
func (c *Console) Exec(source string) *Future {
	c.mu.Lock()
	defer c.mu.Unlock()

	fut := prepare(c.ns, c.filename, source)
	if fut.Syntax() == Complete {
		c.inflight = fut
	}
	return fut
}

// Interrupt aborts the evaluation in progress, including one waiting on a
// top-level promise or one scheduled but not yet started.
func (c *Console) Interrupt() {
	c.mu.Lock()
	fut := c.inflight
	c.mu.Unlock()
	if fut != nil {
		fut.Interrupt()
	}

	c.ns.Interrupt(ErrInterrupted)
}

func evaluate(vm *goja.Runtime, prog *goja.Program, fut *Future) {
	vm.ClearInterrupt()
	if fut.settled() {
		return
	}

	v, err := vm.RunProgram(prog)
	if err != nil {
		fut.reject(err)
		return
	}

	if v == nil {
		fut.resolve(goja.Undefined())
		return
	}
	p, ok := v.Export().(*goja.Promise)
	if !ok {
		fut.resolve(v)
		return
	}
	awaitPromise(vm, v, p, fut)
}

// awaitPromise settles fut with the outcome of a top-level promise.
func awaitPromise(vm *goja.Runtime, v goja.Value, p *goja.Promise, fut *Future) {
	switch p.State() {
	case goja.PromiseStateFulfilled:
		fut.resolve(p.Result())
		return
	case goja.PromiseStateRejected:
		fut.reject(&RejectionError{Reason: p.Result()})
		return
	}

	then, ok := goja.AssertFunction(v.ToObject(vm).Get("then"))
	if !ok {
		fut.resolve(v)
		return
	}
	onFulfilled := vm.ToValue(func(call goja.FunctionCall) goja.Value {
		fut.resolve(call.Argument(0))
		return goja.Undefined()
	})
	onRejected := vm.ToValue(func(call goja.FunctionCall) goja.Value {
		fut.reject(&RejectionError{Reason: call.Argument(0)})
		return goja.Undefined()
	})
	if _, err := then(v, onFulfilled, onRejected); err != nil {
		fut.reject(err)
	}
}

// check compiles source and classifies it. Source that fails only because
// it ends too early is incomplete rather than wrong.
func check(filename, source string) (*goja.Program, SyntaxCheck, error) {
	prog, err := goja.Compile(filename, source, false)
	if err == nil {
		return prog, Complete, nil
	}
	msg := err.Error()
	if strings.Contains(msg, "Unexpected end of input") || strings.Contains(msg, "Unterminated template") {
		return nil, Incomplete, err
	}
	return nil, SyntaxError, err
}

// Exec evaluates a whole program in ns without going through a console
// buffer. Source that ends early is a syntax error here, not incomplete.
func Exec(ns *namespace.Namespace, filename, source string) *Future {
	if ns == nil {
		fut := newFuture(nil, SyntaxError)
		fut.reject(ErrNilNamespace)
		return fut
	}
	return prepare(ns, filename, source)
}

func prepare(ns *namespace.Namespace, filename, source string) *Future {
	prog, err := goja.Compile(filename, source, false)
	if err != nil {
		fut := newFuture(ns, SyntaxError)
		fut.reject(err)
		return fut
	}

	fut := newFuture(ns, Complete)
	if err := ns.Go(func(vm *goja.Runtime) {
		evaluate(vm, prog, fut)
	}); err != nil {
		fut.reject(err)
	}
	return fut
}
