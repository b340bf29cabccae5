// Package datasource resolves the iteration array of repeated pages.
package datasource

import (
	"errors"
	"fmt"
	"sort"

	"github.com/aretw0/pageflow/internal/conditions"
	"github.com/aretw0/pageflow/pkg/domain"
	"github.com/aretw0/pageflow/pkg/vars"
)

var (
	// ErrNotFound is returned when the path does not resolve to a value.
	ErrNotFound = errors.New("path not found")
	// ErrNotArray is returned when a variable or array-path source is not an array.
	ErrNotArray = errors.New("value is not an array")
	// ErrNotObject is returned when an object-path source is not a mapping.
	ErrNotObject = errors.New("value is not an object")
	// ErrUnknownKind is returned for unsupported data source kinds.
	ErrUnknownKind = errors.New("unknown data source kind")
)

// Resolve returns the items addressed by ds. It always returns a non-nil
// slice; on error the slice is empty.
//
// Object-path sources yield the mapping's values ordered by key.
func Resolve(ds domain.DataSource, ctx vars.Context) ([]any, error) {
	value, found := ctx.Lookup(ds.Path)

	switch ds.Kind {
	case domain.DataSourceVariable, domain.DataSourceArrayPath:
		if !found || value == nil {
			return []any{}, fmt.Errorf("%w: %q", ErrNotFound, ds.Path)
		}
		items, ok := conditions.AsSlice(value)
		if !ok {
			return []any{}, fmt.Errorf("%w: %q holds %T", ErrNotArray, ds.Path, value)
		}
		return items, nil

	case domain.DataSourceObjectPath:
		if !found || value == nil {
			return []any{}, fmt.Errorf("%w: %q", ErrNotFound, ds.Path)
		}
		obj, ok := value.(map[string]any)
		if !ok {
			return []any{}, fmt.Errorf("%w: %q holds %T", ErrNotObject, ds.Path, value)
		}
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		items := make([]any, len(keys))
		for i, k := range keys {
			items[i] = obj[k]
		}
		return items, nil

	default:
		return []any{}, fmt.Errorf("%w: %q", ErrUnknownKind, ds.Kind)
	}
}
