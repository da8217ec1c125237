//go:build js && wasm

// Command gorepl-wasm exposes the console to a browser page as
// globalThis.gorepl. Console and future handles live in a bridge.Registry;
// anything that waits returns a Promise.
package main

import (
	"errors"
	"fmt"
	"os"
	"syscall/js"

	"github.com/sirupsen/logrus"

	"github.com/itsmostafa/gorepl/internal/bridge"
	"github.com/itsmostafa/gorepl/internal/interop"
	"github.com/itsmostafa/gorepl/internal/logging"
	"github.com/itsmostafa/gorepl/internal/repr"
	"github.com/itsmostafa/gorepl/internal/session"
	"github.com/itsmostafa/gorepl/internal/worker"
)

type host struct {
	reg    *bridge.Registry
	worker *worker.Worker
}

func main() {
	logCfg := logging.NewConfig()
	logCfg.AddTimeStamp = false
	log, err := logging.New(os.Stderr, logCfg)
	if err != nil {
		log = logrus.StandardLogger()
	}

	sess, err := session.New(session.DefaultConfig(), session.WithLogger(log))
	if err != nil {
		js.Global().Get("console").Call("error", err.Error())
		return
	}

	h := &host{reg: bridge.New(sess, log)}
	h.worker, err = worker.New(worker.DefaultConfig(), worker.PosterFunc(h.post), worker.WithLogger(log))
	if err != nil {
		js.Global().Get("console").Call("error", err.Error())
		return
	}

	js.Global().Set("gorepl", map[string]any{
		"createConsole":  js.FuncOf(h.createConsole),
		"clearConsole":   js.FuncOf(h.clearConsole),
		"destroyConsole": js.FuncOf(h.destroyConsole),
		"push":           js.FuncOf(h.push),
		"awaitFut":       js.FuncOf(h.awaitFut),
		"shorten":        js.FuncOf(h.shorten),
		"dispatch":       js.FuncOf(h.dispatch),
		"interrupt":      js.FuncOf(h.interrupt),
	})

	select {}
}

// post forwards worker events to gorepl.onmessage when the page sets it.
func (h *host) post(e worker.Event) {
	handler := js.Global().Get("gorepl").Get("onmessage")
	if handler.Type() != js.TypeFunction {
		return
	}
	v, err := interop.ToJS(e)
	if err != nil {
		js.Global().Get("console").Call("error", err.Error())
		return
	}
	handler.Invoke(v)
}

// handle reads a console or future handle; anything else maps to 0, which
// no registry entry uses.
func handle(args []js.Value, i int) int {
	if len(args) <= i || args[i].Type() != js.TypeNumber {
		return 0
	}
	return args[i].Int()
}

func failure(err error) any {
	return map[string]any{"error": err.Error()}
}

// createConsole() -> console handle bound to the main namespace, or {error}
func (h *host) createConsole(_ js.Value, _ []js.Value) any {
	id, err := h.reg.CreateConsole()
	if err != nil {
		return failure(err)
	}
	return id
}

// clearConsole(handle) drops buffered input; an unknown or null handle is ignored
func (h *host) clearConsole(_ js.Value, args []js.Value) any {
	h.reg.ClearConsole(handle(args, 0))
	return nil
}

// destroyConsole(handle) -> whether the handle named a console
func (h *host) destroyConsole(_ js.Value, args []js.Value) any {
	return h.reg.DestroyConsole(handle(args, 0))
}

// push(handle, line) -> {future, syntax} or {error}
func (h *host) push(_ js.Value, args []js.Value) any {
	if len(args) != 2 || args[1].Type() != js.TypeString {
		return failure(errors.New("push expects (console, line)"))
	}
	pushed, err := h.reg.Push(handle(args, 0), args[1].String())
	if err != nil {
		return failure(err)
	}
	return map[string]any{"future": pushed.Future, "syntax": pushed.Syntax}
}

// awaitFut(future) -> Promise of a one-element array, rejected with the
// formatted guest error on failure
func (h *host) awaitFut(_ js.Value, args []js.Value) any {
	id := handle(args, 0)
	return promise(func() (any, error) {
		return h.reg.Await(id)
	})
}

// shorten(text, limit) -> text cut in the middle when longer than limit
func (h *host) shorten(_ js.Value, args []js.Value) any {
	if len(args) == 0 {
		return ""
	}
	limit := repr.DefaultLimit
	if len(args) > 1 && args[1].Type() == js.TypeNumber {
		limit = args[1].Int()
	}
	return repr.Shorten(args[0].String(), limit, 0, worker.TruncatedSeparator)
}

// dispatch(messageJSON) -> Promise of the message's result
func (h *host) dispatch(_ js.Value, args []js.Value) any {
	if len(args) != 1 || args[0].Type() != js.TypeString {
		return promise(func() (any, error) {
			return nil, errors.New("dispatch expects a JSON string")
		})
	}
	data := args[0].String()

	return promise(func() (any, error) {
		msg, err := worker.ParseMessage([]byte(data))
		if err != nil {
			return nil, err
		}
		return h.worker.Dispatch(msg)
	})
}

// interrupt() aborts the evaluation in progress without waiting for it
func (h *host) interrupt(_ js.Value, _ []js.Value) any {
	h.worker.Interrupt()
	return nil
}

// promise runs fn on its own goroutine so the browser's event loop keeps
// turning while guest code runs.
func promise(fn func() (any, error)) js.Value {
	var handler js.Func
	handler = js.FuncOf(func(_ js.Value, args []js.Value) any {
		resolve, reject := args[0], args[1]
		go func() {
			defer handler.Release()
			result, err := fn()
			if err != nil {
				reject.Invoke(js.Global().Get("Error").New(fmt.Sprint(err)))
				return
			}
			v, err := interop.ToJS(result)
			if err != nil {
				reject.Invoke(js.Global().Get("Error").New(fmt.Sprint(err)))
				return
			}
			resolve.Invoke(v)
		}()
		return nil
	})
	return js.Global().Get("Promise").New(handler)
}
