// Package repr renders guest values for display in the console.
package repr

import (
	"fmt"
	"math"
	"strconv"

	"github.com/Jeffail/gabs/v2"
	"github.com/dop251/goja"
)

const (
	// DefaultLimit is the longest rendering shown before it is shortened.
	DefaultLimit = 1000

	// DefaultSeparator joins the kept head and tail of a shortened rendering.
	DefaultSeparator = "..."
)

// Repr formats a guest value the way an interactive console echoes it. It
// must run on the event loop that owns vm.
func Repr(vm *goja.Runtime, v goja.Value) string {
	if v == nil || goja.IsUndefined(v) {
		return "undefined"
	}
	if goja.IsNull(v) {
		return "null"
	}

	obj, ok := v.(*goja.Object)
	if !ok {
		if s, isString := v.Export().(string); isString {
			return strconv.Quote(s)
		}
		return v.String()
	}

	if _, callable := goja.AssertFunction(obj); callable {
		name := obj.Get("name")
		if name == nil || name.String() == "" {
			return "[Function (anonymous)]"
		}
		return fmt.Sprintf("[Function: %s]", name.String())
	}

	switch obj.ClassName() {
	case "Error":
		return obj.String()
	case "Date", "RegExp":
		return obj.String()
	case "Promise":
		if p, isPromise := obj.Export().(*goja.Promise); isPromise {
			return formatPromise(vm, p)
		}
	}

	exported := obj.Export()
	switch exported.(type) {
	case []any, map[string]any:
		return gabs.Wrap(exported).String()
	}
	return obj.String()
}

// Host formats a value that has already crossed to the host. Values that
// implement fmt.Stringer (such as guest proxies) render themselves.
func Host(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(x)
	case bool:
		return strconv.FormatBool(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		switch {
		case math.IsInf(x, 1):
			return "Infinity"
		case math.IsInf(x, -1):
			return "-Infinity"
		}
		return strconv.FormatFloat(x, 'g', -1, 64)
	case fmt.Stringer:
		return x.String()
	case []any, map[string]any:
		return gabs.Wrap(x).String()
	default:
		return fmt.Sprint(x)
	}
}

func formatPromise(vm *goja.Runtime, p *goja.Promise) string {
	switch p.State() {
	case goja.PromiseStateFulfilled:
		return fmt.Sprintf("Promise { %s }", Repr(vm, p.Result()))
	case goja.PromiseStateRejected:
		return fmt.Sprintf("Promise { <rejected> %s }", Repr(vm, p.Result()))
	default:
		return "Promise { <pending> }"
	}
}

// Shorten keeps the first and last split runes of text when it is longer
// than limit, joined by separator. A split of zero or less uses limit/2.
func Shorten(text string, limit, split int, separator string) string {
	if limit <= 0 {
		return text
	}
	if split <= 0 {
		split = limit / 2
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	if separator == "" {
		separator = DefaultSeparator
	}
	return string(runes[:split]) + separator + string(runes[len(runes)-split:])
}
