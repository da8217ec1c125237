package interop

import (
	"encoding/json"
	"fmt"
)

// Portable reduces a host value to the shapes a JavaScript host accepts
// directly: nil, bool, string, numbers, []any and map[string]any. Lists and
// proxies are flattened with Plain. Numbers are kept as they are, so NaN and
// the infinities survive. Any other value is round-tripped through JSON.
func Portable(data any) (any, error) {
	switch x := data.(type) {
	case nil, bool, string,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return x, nil
	case List:
		return Portable(x.Plain())
	case *Proxy:
		return x.String(), nil
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			v, err := Portable(e)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			out[i] = v
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			v, err := Portable(e)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			out[k] = v
		}
		return out, nil
	}

	b, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %T: %w", data, err)
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("failed to decode %T: %w", data, err)
	}
	return out, nil
}
