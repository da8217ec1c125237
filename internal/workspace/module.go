package workspace

import (
	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/require"
)

// ModuleName is the name guest code passes to require.
const ModuleName = "fs"

// Module returns a require loader exposing ws to guest code:
//
//	fs.readFile(name) -> string
//	fs.writeFile(name, content)
//	fs.readdir() -> array of names
//	fs.list() -> array of {name, size}
//	fs.exists(name) -> boolean
//	fs.unlink(name)
//
// Reads and writes larger than maxFileSize bytes fail; zero disables the check.
func Module(ws Workspace, maxFileSize int64) require.ModuleLoader {
	return func(vm *goja.Runtime, module *goja.Object) {
		exports := module.Get("exports").(*goja.Object)

		arg := func(call goja.FunctionCall, fn string) string {
			if len(call.Arguments) < 1 {
				panic(vm.NewTypeError("fs." + fn + " requires a file name"))
			}
			return call.Argument(0).String()
		}

		_ = exports.Set("readFile", func(call goja.FunctionCall) goja.Value {
			name := arg(call, "readFile")
			data, err := ws.ReadFile(name)
			if err != nil {
				panic(vm.NewGoError(err))
			}
			if err := checkSize(name, int64(len(data)), maxFileSize); err != nil {
				panic(vm.NewGoError(err))
			}
			return vm.ToValue(string(data))
		})

		_ = exports.Set("writeFile", func(call goja.FunctionCall) goja.Value {
			name := arg(call, "writeFile")
			content := ""
			if len(call.Arguments) > 1 {
				content = call.Argument(1).String()
			}
			if err := checkSize(name, int64(len(content)), maxFileSize); err != nil {
				panic(vm.NewGoError(err))
			}
			if err := ws.WriteFile(name, []byte(content)); err != nil {
				panic(vm.NewGoError(err))
			}
			return goja.Undefined()
		})

		_ = exports.Set("readdir", func(call goja.FunctionCall) goja.Value {
			entries, err := ws.List()
			if err != nil {
				panic(vm.NewGoError(err))
			}
			names := make([]any, len(entries))
			for i, e := range entries {
				names[i] = e.Name
			}
			return vm.NewArray(names...)
		})

		_ = exports.Set("list", func(call goja.FunctionCall) goja.Value {
			entries, err := ws.List()
			if err != nil {
				panic(vm.NewGoError(err))
			}
			out := make([]any, len(entries))
			for i, e := range entries {
				out[i] = map[string]any{"name": e.Name, "size": e.Size}
			}
			return vm.NewArray(out...)
		})

		_ = exports.Set("exists", func(call goja.FunctionCall) goja.Value {
			return vm.ToValue(ws.Exists(arg(call, "exists")))
		})

		_ = exports.Set("unlink", func(call goja.FunctionCall) goja.Value {
			if err := ws.Remove(arg(call, "unlink")); err != nil {
				panic(vm.NewGoError(err))
			}
			return goja.Undefined()
		})
	}
}
