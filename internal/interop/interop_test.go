package interop

import (
	"testing"

	"github.com/dop251/goja"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsmostafa/gorepl/internal/namespace"
)

func newTestNamespace(t *testing.T) *namespace.Namespace {
	t.Helper()
	ns, err := namespace.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = ns.Close() })
	return ns
}

func convert(t *testing.T, ns *namespace.Namespace, source string, depth int) any {
	t.Helper()
	var out any
	require.NoError(t, ns.Do(func(vm *goja.Runtime) {
		v, err := vm.RunString(source)
		require.NoError(t, err)
		out = ToHost(ns, vm, v, depth)
	}))
	return out
}

func TestToHostPrimitives(t *testing.T) {
	ns := newTestNamespace(t)

	tests := []struct {
		name     string
		source   string
		expected any
	}{
		{name: "integer", source: "42", expected: int64(42)},
		{name: "float", source: "0.5", expected: 0.5},
		{name: "string", source: `"hi"`, expected: "hi"},
		{name: "boolean", source: "false", expected: false},
		{name: "null", source: "null", expected: nil},
		{name: "undefined", source: "undefined", expected: nil},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expected, convert(t, ns, test.source, 0))
		})
	}
}

func TestToHostDepth(t *testing.T) {
	ns := newTestNamespace(t)

	shallow := convert(t, ns, "[1, [2, 3]]", 0)
	assert.IsType(t, &Proxy{}, shallow)

	one := convert(t, ns, "[1, [2, 3]]", 1)
	require.IsType(t, []any{}, one)
	assert.Equal(t, int64(1), one.([]any)[0])
	assert.IsType(t, &Proxy{}, one.([]any)[1])

	two := convert(t, ns, "[1, [2, 3]]", 2)
	assert.Equal(t, []any{int64(1), []any{int64(2), int64(3)}}, two)

	obj := convert(t, ns, `({a: 1, b: "x"})`, 1)
	assert.Equal(t, map[string]any{"a": int64(1), "b": "x"}, obj)
}

func TestToHostFunctionIsProxy(t *testing.T) {
	ns := newTestNamespace(t)
	assert.IsType(t, &Proxy{}, convert(t, ns, "(function named() {})", 3))
}

func TestSequence(t *testing.T) {
	ns := newTestNamespace(t)

	var list List
	require.NoError(t, ns.Do(func(vm *goja.Runtime) {
		v, err := vm.RunString("({n: 1})")
		require.NoError(t, err)
		list = Sequence(ns, vm, []goja.Value{v, vm.ToValue(7), goja.Null()}, 1)
	}))

	require.Len(t, list, 3)
	proxy, ok := list.First().(*Proxy)
	require.True(t, ok)
	exported, err := proxy.Export()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"n": int64(1)}, exported)
	assert.Equal(t, `{"n":1}`, proxy.String())
	assert.Equal(t, int64(7), list[1])
	assert.Nil(t, list[2])
}

func TestProxyRepr(t *testing.T) {
	ns := newTestNamespace(t)

	assert.Equal(t, "xxxxxxxxxxxxxxxxxxxx", convert(t, ns, `"x".repeat(20)`, 0))

	p := convert(t, ns, `["aaaaaaaaaa", "bbbbbbbbbb"]`, 0).(*Proxy)
	assert.Equal(t, `["aaa...bbb"]`, p.Repr(10, "..."))
}

func TestProxyClosedNamespace(t *testing.T) {
	ns, err := namespace.New()
	require.NoError(t, err)

	p := convert(t, ns, `({n: 1})`, 0).(*Proxy)
	require.NoError(t, ns.Close())

	_, err = p.Export()
	assert.ErrorIs(t, err, namespace.ErrClosed)
	assert.Equal(t, ClosedRepr, p.Repr(10, "..."))
	assert.Equal(t, ClosedRepr, p.String())
}

func TestListFirstEmpty(t *testing.T) {
	assert.Nil(t, List{}.First())
}

func TestPlain(t *testing.T) {
	ns := newTestNamespace(t)

	list := List{convert(t, ns, "[1, [2]]", 1), "s", nil}
	assert.Equal(t, []any{[]any{int64(1), "[2]"}, "s", nil}, list.Plain())
}
