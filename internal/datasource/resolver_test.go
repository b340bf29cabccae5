package datasource_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/pageflow/internal/datasource"
	"github.com/aretw0/pageflow/pkg/domain"
	"github.com/aretw0/pageflow/pkg/vars"
)

func TestResolve(t *testing.T) {
	ctx := vars.New(map[string]any{
		"orders": []any{map[string]any{"id": 1}, map[string]any{"id": 2}},
		"customer": map[string]any{
			"phones":  []string{"555-1", "555-2"},
			"address": map[string]any{"zip": "1000", "city": "Lisbon"},
		},
		"name":  "Ada",
		"empty": []any{},
	})

	tests := []struct {
		name string
		ds   domain.DataSource
		want []any
	}{
		{
			name: "variable",
			ds:   domain.DataSource{Kind: domain.DataSourceVariable, Path: "orders"},
			want: []any{map[string]any{"id": 1}, map[string]any{"id": 2}},
		},
		{
			name: "array path with typed slice",
			ds:   domain.DataSource{Kind: domain.DataSourceArrayPath, Path: "customer.phones"},
			want: []any{"555-1", "555-2"},
		},
		{
			name: "object path values ordered by key",
			ds:   domain.DataSource{Kind: domain.DataSourceObjectPath, Path: "customer.address"},
			want: []any{"Lisbon", "1000"},
		},
		{
			name: "empty array",
			ds:   domain.DataSource{Kind: domain.DataSourceVariable, Path: "empty"},
			want: []any{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := datasource.Resolve(tt.ds, ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_Errors(t *testing.T) {
	ctx := vars.New(map[string]any{
		"name":   "Ada",
		"orders": []any{1, 2},
	})

	tests := []struct {
		name string
		ds   domain.DataSource
		want error
	}{
		{"missing", domain.DataSource{Kind: domain.DataSourceVariable, Path: "nope"}, datasource.ErrNotFound},
		{"not an array", domain.DataSource{Kind: domain.DataSourceArrayPath, Path: "name"}, datasource.ErrNotArray},
		{"not an object", domain.DataSource{Kind: domain.DataSourceObjectPath, Path: "orders"}, datasource.ErrNotObject},
		{"unknown kind", domain.DataSource{Kind: "query", Path: "orders"}, datasource.ErrUnknownKind},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := datasource.Resolve(tt.ds, ctx)
			assert.ErrorIs(t, err, tt.want)
			assert.NotNil(t, got)
			assert.Empty(t, got)
		})
	}
}
