// Package session ties a REPL's namespaces, consoles and the last-result
// slot together. A Session is what the host holds on to: it creates and
// clears consoles and awaits their results.
package session

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dop251/goja"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"github.com/itsmostafa/gorepl/internal/console"
	"github.com/itsmostafa/gorepl/internal/interop"
	"github.com/itsmostafa/gorepl/internal/namespace"
)

// ErrAlreadyAwaited is returned when a future is awaited a second time.
var ErrAlreadyAwaited = errors.New("future has already been awaited")

// Session owns the main namespace and the last-result slot.
type Session struct {
	ID      string
	Globals *namespace.Namespace

	cfg    Config
	log    logrus.FieldLogger
	nsOpts []namespace.Option

	mu         sync.Mutex
	lastResult goja.Value
	owned      []*namespace.Namespace
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger used for diagnostics.
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Session) {
		s.log = log
	}
}

// WithNamespaceOptions applies opts to every namespace the session creates.
func WithNamespaceOptions(opts ...namespace.Option) Option {
	return func(s *Session) {
		s.nsOpts = append(s.nsOpts, opts...)
	}
}

// New creates a session and its main namespace.
func New(cfg Config, opts ...Option) (*Session, error) {
	s := &Session{
		ID:  uuid.New().String(),
		cfg: cfg.withDefaults(),
		log: logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithField("session", s.ID)

	globals, err := s.NewNamespace(namespace.DefaultName)
	if err != nil {
		return nil, fmt.Errorf("failed to create main namespace: %w", err)
	}
	s.Globals = globals

	s.log.Debug("Session started")
	return s, nil
}

// Config returns the effective session configuration.
func (s *Session) Config() Config {
	return s.cfg
}

// NewNamespace creates a fresh namespace owned by the session. It is closed
// together with the session.
func (s *Session) NewNamespace(name string) (*namespace.Namespace, error) {
	opts := append([]namespace.Option{
		namespace.WithName(name),
		namespace.WithMaxCallStackSize(s.cfg.MaxCallStackSize),
	}, s.nsOpts...)

	ns, err := namespace.New(opts...)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.owned = append(s.owned, ns)
	s.mu.Unlock()
	return ns, nil
}

// DropNamespace closes ns and stops tracking it. The main namespace cannot
// be dropped.
func (s *Session) DropNamespace(ns *namespace.Namespace) error {
	if ns == nil || ns == s.Globals {
		return nil
	}

	s.mu.Lock()
	for i, owned := range s.owned {
		if owned == ns {
			s.owned = append(s.owned[:i], s.owned[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
	return ns.Close()
}

// CreateConsole returns a console bound to ns, or to the main namespace when
// ns is nil. Construction failures are returned unchanged.
func (s *Session) CreateConsole(ns *namespace.Namespace) (*console.Console, error) {
	if ns == nil {
		ns = s.Globals
	}
	return console.New(ns, console.WithFilename(s.cfg.Filename))
}

// ClearConsole discards the console's buffered input. A nil console is ignored.
func (s *Session) ClearConsole(c *console.Console) {
	console.Clear(c)
}

// AwaitResult waits for f to settle. A non-null value is stored as the last
// result and bound to the result name in f's namespace. The value is returned
// wrapped in a one-element list converted one level deep, so a null result
// still yields a populated slot. Only a failed evaluation fails the call;
// failures are returned unchanged and leave the last result alone.
func (s *Session) AwaitResult(f *console.Future) (interop.List, error) {
	if !f.Claim() {
		return nil, ErrAlreadyAwaited
	}

	v, err := f.Wait()
	if err != nil {
		s.log.WithError(err).Debug("Evaluation failed")
		return nil, err
	}

	if !isNull(v) {
		s.setLastResult(v)
	}

	ns := f.Namespace()
	list := interop.List{nil}
	if doErr := ns.Do(func(vm *goja.Runtime) {
		if !isNull(v) {
			if bindErr := vm.Set(s.cfg.ResultName, v); bindErr != nil {
				s.log.WithError(bindErr).WithField("name", s.cfg.ResultName).Warn("Failed to bind last result")
			}
		}
		list = interop.Sequence(ns, vm, []goja.Value{v}, s.cfg.ConversionDepth)
	}); doErr != nil {
		s.log.WithError(doErr).Warn("Namespace closed before the result was converted")
		if !isNull(v) {
			list = interop.List{v.Export()}
		}
	}

	return list, nil
}

// LastResult returns the most recent non-null result, or nil before any.
func (s *Session) LastResult() goja.Value {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastResult
}

func (s *Session) setLastResult(v goja.Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastResult = v
}

// Close stops every namespace created by the session.
func (s *Session) Close() error {
	s.mu.Lock()
	owned := s.owned
	s.owned = nil
	s.mu.Unlock()

	var err error
	for _, ns := range owned {
		err = multierr.Append(err, ns.Close())
	}
	s.log.Debug("Session closed")
	return err
}

func isNull(v goja.Value) bool {
	return v == nil || goja.IsUndefined(v) || goja.IsNull(v)
}
