// Package namespace holds the global variable scope that REPL input is
// evaluated in. A Namespace owns a goja runtime driven by an event loop; the
// runtime's global object is the namespace itself, so every console bound to
// the same Namespace shares one evolving set of variables.
package namespace

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/console"
	"github.com/dop251/goja_nodejs/eventloop"
	"github.com/dop251/goja_nodejs/require"
)

// ErrClosed is returned when a closed namespace is used.
var ErrClosed = errors.New("namespace is closed")

// Namespace is a shared global scope backed by a single goja runtime.
// All access to guest values is serialised through the event loop.
type Namespace struct {
	name string
	loop *eventloop.EventLoop
	vm   *goja.Runtime

	mu     sync.RWMutex
	closed bool
}

// New starts an event loop and returns the namespace bound to its runtime.
func New(opts ...Option) (*Namespace, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	registry := require.NewRegistry()
	registry.RegisterNativeModule(console.ModuleName, console.RequireWithPrinter(o.printer))
	for name, loader := range o.modules {
		registry.RegisterNativeModule(name, loader)
	}

	loop := eventloop.NewEventLoop(
		eventloop.WithRegistry(registry),
		eventloop.EnableConsole(true),
	)
	loop.Start()

	type result struct {
		vm  *goja.Runtime
		err error
	}
	ready := make(chan result, 1)
	loop.RunOnLoop(func(vm *goja.Runtime) {
		if o.maxCallStackSize > 0 {
			vm.SetMaxCallStackSize(o.maxCallStackSize)
		}
		for name, value := range o.globals {
			if err := vm.Set(name, value); err != nil {
				ready <- result{err: fmt.Errorf("failed to set global %s: %w", name, err)}
				return
			}
		}
		ready <- result{vm: vm}
	})

	res := <-ready
	if res.err != nil {
		loop.Stop()
		return nil, res.err
	}

	return &Namespace{
		name: o.name,
		loop: loop,
		vm:   res.vm,
	}, nil
}

// Name returns the namespace's display name.
func (n *Namespace) Name() string {
	return n.name
}

// Do runs fn on the event loop and waits for it to return. It must not be
// called from code already running on the loop.
func (n *Namespace) Do(fn func(vm *goja.Runtime)) error {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		return ErrClosed
	}

	done := make(chan struct{})
	n.loop.RunOnLoop(func(vm *goja.Runtime) {
		defer close(done)
		fn(vm)
	})
	<-done
	return nil
}

// Go schedules fn on the event loop without waiting.
func (n *Namespace) Go(fn func(vm *goja.Runtime)) error {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		return ErrClosed
	}
	n.loop.RunOnLoop(fn)
	return nil
}

// Get returns the global bound to name, or nil if there is none.
func (n *Namespace) Get(name string) goja.Value {
	var v goja.Value
	_ = n.Do(func(vm *goja.Runtime) {
		v = vm.Get(name)
	})
	return v
}

// Set binds value to name in the global scope.
func (n *Namespace) Set(name string, value any) error {
	var err error
	if doErr := n.Do(func(vm *goja.Runtime) {
		err = vm.Set(name, value)
	}); doErr != nil {
		return doErr
	}
	return err
}

// Has reports whether name is bound in the global scope.
func (n *Namespace) Has(name string) bool {
	var ok bool
	_ = n.Do(func(vm *goja.Runtime) {
		ok = vm.GlobalObject().Get(name) != nil
	})
	return ok
}

// Delete removes name from the global scope.
func (n *Namespace) Delete(name string) error {
	var err error
	if doErr := n.Do(func(vm *goja.Runtime) {
		err = vm.GlobalObject().Delete(name)
	}); doErr != nil {
		return doErr
	}
	return err
}

// Names returns the sorted own property names of the global object.
func (n *Namespace) Names() []string {
	var names []string
	_ = n.Do(func(vm *goja.Runtime) {
		names = vm.GlobalObject().Keys()
	})
	sort.Strings(names)
	return names
}

// Interrupt aborts whatever is currently executing on the runtime. The
// running evaluation fails with a *goja.InterruptedError carrying reason.
// Safe to call from any goroutine.
func (n *Namespace) Interrupt(reason any) {
	n.vm.Interrupt(reason)
}

// ClearInterrupt drops a pending interrupt request.
func (n *Namespace) ClearInterrupt() {
	n.vm.ClearInterrupt()
}

// Closed reports whether Close has been called.
func (n *Namespace) Closed() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.closed
}

// Close interrupts any running evaluation and stops the event loop.
// Pending timers are discarded.
func (n *Namespace) Close() error {
	n.vm.Interrupt(ErrClosed)
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return nil
	}
	n.closed = true
	n.loop.Stop()
	return nil
}
