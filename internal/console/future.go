package console

import (
	"errors"
	"strings"
	"sync"

	"github.com/dop251/goja"

	"github.com/itsmostafa/gorepl/internal/namespace"
)

// SyntaxCheck is the outcome of checking the buffered source before it runs.
type SyntaxCheck string

const (
	SyntaxError SyntaxCheck = "syntax-error"
	Incomplete  SyntaxCheck = "incomplete"
	Complete    SyntaxCheck = "complete"
)

// ErrInterrupted is the reason attached to an evaluation aborted by Interrupt.
var ErrInterrupted = errors.New("KeyboardInterrupt")

// RejectionError wraps the reason of a rejected top-level promise.
type RejectionError struct {
	Reason goja.Value
}

func (e *RejectionError) Error() string {
	if e.Reason == nil {
		return "Uncaught (in promise) undefined"
	}
	return "Uncaught (in promise) " + e.Reason.String()
}

// Future is the pending result of one pushed input. It settles exactly once.
type Future struct {
	syntax SyntaxCheck
	ns     *namespace.Namespace

	once      sync.Once
	done      chan struct{}
	value     goja.Value
	err       error
	formatted string

	awaited sync.Once
}

func newFuture(ns *namespace.Namespace, syntax SyntaxCheck) *Future {
	return &Future{
		syntax: syntax,
		ns:     ns,
		done:   make(chan struct{}),
	}
}

// Syntax reports how the pushed source was classified.
func (f *Future) Syntax() SyntaxCheck {
	return f.syntax
}

// Namespace returns the namespace the input was evaluated in.
func (f *Future) Namespace() *namespace.Namespace {
	return f.ns
}

// Done is closed once the future has settled.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the future settles and returns its value or failure.
// The error is whatever the evaluation raised, untouched.
func (f *Future) Wait() (goja.Value, error) {
	<-f.done
	return f.value, f.err
}

// FormattedError returns the guest-facing rendering of the failure, such as
// an exception with its stack trace. Empty until the future fails.
func (f *Future) FormattedError() string {
	select {
	case <-f.done:
		return f.formatted
	default:
		return ""
	}
}

// Claim marks the future as consumed. It returns false if it was claimed before.
func (f *Future) Claim() bool {
	claimed := false
	f.awaited.Do(func() {
		claimed = true
	})
	return claimed
}

// Interrupt fails the future with ErrInterrupted unless it has already
// settled. The evaluation itself is stopped by interrupting the namespace.
func (f *Future) Interrupt() {
	f.reject(ErrInterrupted)
}

func (f *Future) settled() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

func (f *Future) resolve(v goja.Value) {
	f.once.Do(func() {
		f.value = v
		close(f.done)
	})
}

func (f *Future) reject(err error) {
	f.once.Do(func() {
		f.err = err
		f.formatted = FormatError(err)
		close(f.done)
	})
}

// FormatError renders an evaluation failure the way a console shows it.
func FormatError(err error) string {
	var exception *goja.Exception
	var interrupted *goja.InterruptedError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInterrupted):
		return ErrInterrupted.Error()
	case errors.As(err, &interrupted):
		if reason, ok := interrupted.Value().(error); ok && errors.Is(reason, ErrInterrupted) {
			return ErrInterrupted.Error()
		}
		return interrupted.Error()
	case errors.As(err, &exception):
		return strings.TrimRight(exception.String(), "\n")
	default:
		return err.Error()
	}
}

// IsStackOverflow reports whether err came from exhausting the guest call stack.
func IsStackOverflow(err error) bool {
	if err == nil {
		return false
	}
	var overflow *goja.StackOverflowError
	if errors.As(err, &overflow) {
		return true
	}
	return strings.Contains(err.Error(), "Maximum call stack size exceeded")
}
