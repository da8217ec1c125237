// Package bridge keeps the consoles and pending results a foreign host holds
// by integer handle. It carries no host-specific types, so a browser shim
// only has to translate arguments.
package bridge

import (
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/itsmostafa/gorepl/internal/console"
	"github.com/itsmostafa/gorepl/internal/interop"
	"github.com/itsmostafa/gorepl/internal/session"
)

var (
	// ErrUnknownConsole is returned for a handle that names no live console.
	ErrUnknownConsole = errors.New("unknown console")

	// ErrUnknownFuture is returned for a handle that names no pending result,
	// including one that has already been awaited.
	ErrUnknownFuture = errors.New("unknown future")
)

// Pushed describes one pushed line.
type Pushed struct {
	Future int    `json:"future"`
	Syntax string `json:"syntax"`
}

// Registry maps handles to consoles and futures of one session.
type Registry struct {
	sess *session.Session
	log  logrus.FieldLogger

	mu       sync.Mutex
	nextID   int
	consoles map[int]*console.Console
	futures  map[int]*console.Future
}

// New creates a registry over sess.
func New(sess *session.Session, log logrus.FieldLogger) *Registry {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Registry{
		sess:     sess,
		log:      log,
		consoles: make(map[int]*console.Console),
		futures:  make(map[int]*console.Future),
	}
}

// CreateConsole creates a console over the session's globals and returns
// its handle.
func (r *Registry) CreateConsole() (int, error) {
	c, err := r.sess.CreateConsole(nil)
	if err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	r.consoles[r.nextID] = c
	return r.nextID, nil
}

// ClearConsole drops the buffered input of the console behind handle. An
// unknown handle is ignored, like clearing a nil console.
func (r *Registry) ClearConsole(handle int) {
	r.sess.ClearConsole(r.console(handle))
}

// DestroyConsole forgets the console behind handle and reports whether it
// existed. Futures it already produced stay awaitable.
func (r *Registry) DestroyConsole(handle int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.consoles[handle]; !ok {
		return false
	}
	delete(r.consoles, handle)
	r.log.WithField("console", handle).Debug("Console destroyed")
	return true
}

// Push feeds line to the console behind handle.
func (r *Registry) Push(handle int, line string) (Pushed, error) {
	c := r.console(handle)
	if c == nil {
		return Pushed{}, ErrUnknownConsole
	}
	fut := c.Push(line)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	r.futures[r.nextID] = fut
	return Pushed{Future: r.nextID, Syntax: string(fut.Syntax())}, nil
}

// Await waits for the future behind handle and releases the handle. A
// failed evaluation is reported with its formatted guest error.
func (r *Registry) Await(handle int) (interop.List, error) {
	r.mu.Lock()
	fut, ok := r.futures[handle]
	delete(r.futures, handle)
	r.mu.Unlock()
	if !ok {
		return nil, ErrUnknownFuture
	}

	list, err := r.sess.AwaitResult(fut)
	if err != nil {
		if formatted := fut.FormattedError(); formatted != "" {
			return nil, errors.New(formatted)
		}
		return nil, err
	}
	return list, nil
}

// Len returns the number of live console and future handles.
func (r *Registry) Len() (consoles, futures int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.consoles), len(r.futures)
}

func (r *Registry) console(handle int) *console.Console {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.consoles[handle]
}
