//go:build js && wasm

package interop

import "syscall/js"

// ToJS hands a host value to the browser. Values are first reduced with
// Portable; a value that cannot be represented is reported, never passed on.
func ToJS(data any) (js.Value, error) {
	v, err := Portable(data)
	if err != nil {
		return js.Undefined(), err
	}
	return js.ValueOf(v), nil
}
