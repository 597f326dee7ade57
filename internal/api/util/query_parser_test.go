package util

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseQueryString(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []QueryFilter
		wantErr bool
	}{
		{name: "empty", input: "", want: nil},
		{
			name:  "implicit equality",
			input: "role|ROLE_ADMIN",
			want:  []QueryFilter{{Field: "role", Operator: OpEq, Value: "ROLE_ADMIN"}},
		},
		{
			name:  "null check",
			input: "modified_at|isnull",
			want:  []QueryFilter{{Field: "modified_at", Operator: OpIsNull}},
		},
		{
			name:  "explicit operator and list",
			input: "id|gte|10, username|in|a@x.io;b@x.io",
			want: []QueryFilter{
				{Field: "id", Operator: OpGte, Value: "10"},
				{Field: "username", Operator: OpIn, Value: []string{"a@x.io", "b@x.io"}},
			},
		},
		{name: "unknown operator", input: "id|like|1", wantErr: true},
		{name: "too many parts", input: "id|eq|1|2", wantErr: true},
		{name: "single token", input: "id", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseQueryString(tt.input)
			if tt.wantErr {
				var qe *QueryError
				require.True(t, errors.As(err, &qe), "expected QueryError, got %v", err)
				require.Equal(t, "query", qe.Param)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestParseOrderString(t *testing.T) {
	got, err := ParseOrderString("username|DESC,id|asc")
	require.NoError(t, err)
	require.Equal(t, []OrderClause{
		{Field: "username", Direction: OrderDesc},
		{Field: "id", Direction: OrderAsc},
	}, got)

	_, err = ParseOrderString("username|sideways")
	require.Error(t, err)

	_, err = ParseOrderString("username")
	require.Error(t, err)
}

func TestFieldSetValidate(t *testing.T) {
	fs := FieldSet{Query: []string{"id", "role"}, Order: []string{"id"}}

	require.NoError(t, fs.Validate(ListFilter{
		Filters: []QueryFilter{{Field: "role", Operator: OpEq, Value: "ROLE_ADMIN"}},
		Order:   []OrderClause{{Field: "id", Direction: OrderAsc}},
	}))
	require.Error(t, fs.Validate(ListFilter{Filters: []QueryFilter{{Field: "password", Operator: OpEq, Value: "x"}}}))
	require.Error(t, fs.Validate(ListFilter{Order: []OrderClause{{Field: "role", Direction: OrderAsc}}}))
}

func TestListFilterOffset(t *testing.T) {
	require.Equal(t, 0, ListFilter{}.Offset())
	require.Equal(t, 0, ListFilter{Page: 1, PerPage: 10}.Offset())
	require.Equal(t, 20, ListFilter{Page: 3, PerPage: 10}.Offset())
	require.False(t, ListFilter{Page: 3}.Paginated())
}
