package vars

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"

	"github.com/Jeffail/gabs/v2"
)

// Context is an immutable view over JSON-compatible runtime data.
// The zero value is an empty context.
//
// Values are deep-copied on the way in and on the way out, so two contexts
// never share mutable state even when one was derived from the other.
type Context struct {
	root map[string]any
}

// New builds a Context from host data. Typed slices and maps are normalized
// to []any and map[string]any; integral numbers become int and other numbers
// float64.
func New(data map[string]any) Context {
	if data == nil {
		return Context{}
	}
	root, _ := normalize(data).(map[string]any)
	return Context{root: root}
}

// Lookup resolves a dot-separated path ("company.address.city", "orders.0.id").
// Missing segments, or segments that cannot be indexed, resolve to (nil, false).
func (c Context) Lookup(path string) (any, bool) {
	path = strings.TrimSpace(path)
	if path == "" || c.root == nil {
		return nil, false
	}
	found := gabs.Wrap(c.root).Path(path)
	if found == nil {
		return nil, false
	}
	return clone(found.Data()), true
}

// Value is Lookup without the presence flag.
func (c Context) Value(path string) any {
	v, _ := c.Lookup(path)
	return v
}

// Has reports whether path resolves to a non-null value.
func (c Context) Has(path string) bool {
	v, ok := c.Lookup(path)
	return ok && v != nil
}

// With returns a new Context with name bound to value at the top level.
// The receiver is left untouched.
func (c Context) With(name string, value any) Context {
	next := make(map[string]any, len(c.root)+1)
	for k, v := range c.root {
		next[k] = v
	}
	next[name] = normalize(value)
	return Context{root: next}
}

// Map returns a deep copy of the underlying data.
func (c Context) Map() map[string]any {
	if c.root == nil {
		return map[string]any{}
	}
	return clone(c.root).(map[string]any)
}

// Keys returns the top-level keys in sorted order.
func (c Context) Keys() []string {
	keys := make([]string, 0, len(c.root))
	for k := range c.root {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of top-level keys.
func (c Context) Len() int {
	return len(c.root)
}

// Flatten returns every addressable dot path mapped to its value.
// Nested mappings contribute both their own path and the paths of their
// children; arrays are treated as leaves.
func (c Context) Flatten() map[string]any {
	out := make(map[string]any)
	flattenInto(out, "", c.root)
	return out
}

func flattenInto(out map[string]any, prefix string, m map[string]any) {
	for k, v := range m {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		out[path] = clone(v)
		if child, ok := v.(map[string]any); ok {
			flattenInto(out, path, child)
		}
	}
}

// MarshalJSON encodes the underlying data.
func (c Context) MarshalJSON() ([]byte, error) {
	if c.root == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(c.root)
}

// UnmarshalJSON decodes a JSON object into the context. Numbers are decoded
// exactly, so integers keep their int representation.
func (c *Context) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	*c = New(raw)
	return nil
}
