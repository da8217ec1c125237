// Package interop converts guest values into host values at the boundary
// between the embedded interpreter and its host.
//
// Conversion is depth-limited. Primitives (numbers, strings, booleans) always
// cross as native Go values; null and undefined both become nil. Arrays and
// plain objects are materialised as []any and map[string]any while depth
// remains, and anything past the depth limit crosses as a *Proxy that still
// refers to the live guest value.
package interop

import (
	"strconv"

	"github.com/dop251/goja"

	"github.com/itsmostafa/gorepl/internal/namespace"
	"github.com/itsmostafa/gorepl/internal/repr"
)

// List is a host-side sequence produced from guest values.
type List []any

// First returns the first element, or nil for an empty list.
func (l List) First() any {
	if len(l) == 0 {
		return nil
	}
	return l[0]
}

// Plain returns the list with every proxy replaced by its rendering, so it
// can be serialised.
func (l List) Plain() []any {
	out := make([]any, len(l))
	for i, v := range l {
		out[i] = plain(v)
	}
	return out
}

func plain(v any) any {
	switch x := v.(type) {
	case *Proxy:
		return x.String()
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = plain(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = plain(e)
		}
		return out
	}
	return v
}

// ClosedRepr is how a proxy renders after its namespace has been closed.
const ClosedRepr = "<closed>"

// Proxy is a guest value handed to the host without conversion. Its methods
// run on the owning namespace's event loop.
type Proxy struct {
	ns    *namespace.Namespace
	value goja.Value
}

// Value returns the wrapped guest value. It must only be inspected on the
// namespace's event loop.
func (p *Proxy) Value() goja.Value {
	return p.value
}

// Export fully converts the guest value into Go values. It fails once the
// namespace is closed.
func (p *Proxy) Export() (any, error) {
	var out any
	if err := p.ns.Do(func(vm *goja.Runtime) {
		out = p.value.Export()
	}); err != nil {
		return nil, err
	}
	return out, nil
}

// Repr renders the value for display, shortened to limit runes when limit > 0.
// A proxy whose namespace is closed renders as ClosedRepr.
func (p *Proxy) Repr(limit int, separator string) string {
	var out string
	if err := p.ns.Do(func(vm *goja.Runtime) {
		out = repr.Repr(vm, p.value)
	}); err != nil {
		return ClosedRepr
	}
	if limit > 0 {
		out = repr.Shorten(out, limit, 0, separator)
	}
	return out
}

func (p *Proxy) String() string {
	return p.Repr(0, "")
}

// Sequence converts values into a host list. depth counts the list itself,
// so depth 1 materialises only the list and leaves non-primitive elements
// as proxies. Must run on the namespace's event loop.
func Sequence(ns *namespace.Namespace, vm *goja.Runtime, values []goja.Value, depth int) List {
	out := make(List, len(values))
	for i, v := range values {
		out[i] = ToHost(ns, vm, v, depth-1)
	}
	return out
}

// ToHost converts a single guest value, descending at most depth levels into
// arrays and objects. Must run on the namespace's event loop.
func ToHost(ns *namespace.Namespace, vm *goja.Runtime, v goja.Value, depth int) any {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}

	obj, isObject := v.(*goja.Object)
	if !isObject {
		return v.Export()
	}
	if depth <= 0 {
		return &Proxy{ns: ns, value: v}
	}

	if _, callable := goja.AssertFunction(obj); callable {
		return &Proxy{ns: ns, value: v}
	}

	switch obj.ClassName() {
	case "Array":
		length := int(obj.Get("length").ToInteger())
		out := make([]any, length)
		for i := 0; i < length; i++ {
			out[i] = ToHost(ns, vm, obj.Get(strconv.Itoa(i)), depth-1)
		}
		return out
	case "Object":
		keys := obj.Keys()
		out := make(map[string]any, len(keys))
		for _, k := range keys {
			out[k] = ToHost(ns, vm, obj.Get(k), depth-1)
		}
		return out
	}
	return &Proxy{ns: ns, value: v}
}
