package ddl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lakecat/internal/domain"
)

func TestRenderFilter_Terms(t *testing.T) {
	tests := []struct {
		name    string
		filter  domain.DataFilter
		want    string
		wantErr string
	}{
		{
			name:   "eq_string",
			filter: domain.Term("region", domain.CompareEq, "BR"),
			want:   `"region" = 'BR'`,
		},
		{
			name:   "neq_int",
			filter: domain.Term("year", domain.CompareNeq, 2024),
			want:   `"year" != 2024`,
		},
		{
			name:   "gt_float",
			filter: domain.Term("price", domain.CompareGt, 10.5),
			want:   `"price" > 10.5`,
		},
		{
			name:   "like",
			filter: domain.Term("name", domain.CompareLike, "%fund%"),
			want:   `"name" LIKE '%fund%'`,
		},
		{
			name:   "in_strings",
			filter: domain.Term("region", domain.CompareIn, []string{"BR", "US"}),
			want:   `"region" IN ('BR', 'US')`,
		},
		{
			name:   "not_in_ints",
			filter: domain.Term("year", domain.CompareNotIn, []int{2022, 2023}),
			want:   `"year" NOT IN (2022, 2023)`,
		},
		{
			name:   "between",
			filter: domain.Term("year", domain.CompareBetween, []int{2020, 2024}),
			want:   `"year" BETWEEN 2020 AND 2024`,
		},
		{
			name:   "is_null",
			filter: domain.Term("deleted_at", domain.CompareIsNull, nil),
			want:   `"deleted_at" IS NULL`,
		},
		{
			name:   "is_not_null",
			filter: domain.Term("region", domain.CompareIsNotNull, nil),
			want:   `"region" IS NOT NULL`,
		},
		{
			name:   "quote_escape_in_value",
			filter: domain.Term("name", domain.CompareEq, "it's"),
			want:   `"name" = 'it''s'`,
		},
		{
			name:    "invalid_field",
			filter:  domain.Term("bad field", domain.CompareEq, 1),
			wantErr: "invalid filter field",
		},
		{
			name:    "between_wrong_arity",
			filter:  domain.Term("year", domain.CompareBetween, []int{2020}),
			wantErr: "exactly two values",
		},
		{
			name:    "in_empty",
			filter:  domain.Term("region", domain.CompareIn, []string{}),
			wantErr: "at least one value",
		},
		{
			name:    "in_non_slice",
			filter:  domain.Term("region", domain.CompareIn, "BR"),
			wantErr: "must be a slice",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RenderFilter(tt.filter)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRenderFilter_Expressions(t *testing.T) {
	// region = 'BR' AND year >= 2024
	expr := domain.Expr(domain.Term("region", domain.CompareEq, "BR")).
		And(domain.Term("year", domain.CompareGte, 2024))
	got, err := RenderFilter(expr)
	require.NoError(t, err)
	assert.Equal(t, `"region" = 'BR' AND "year" >= 2024`, got)

	// a = 1 OR (b = 2 AND c = 3) — nested expressions parenthesize
	nested := domain.Expr(domain.Term("b", domain.CompareEq, 2)).
		And(domain.Term("c", domain.CompareEq, 3))
	outer := domain.Expr(domain.Term("a", domain.CompareEq, 1)).Or(nested)
	got, err = RenderFilter(outer)
	require.NoError(t, err)
	assert.Equal(t, `"a" = 1 OR ("b" = 2 AND "c" = 3)`, got)
}

func TestRenderQuery(t *testing.T) {
	q := domain.DataQuery{
		Filter: domain.Term("region", domain.CompareEq, "BR"),
		Sort:   &domain.SortTerm{Field: "year", Direction: domain.SortDesc},
		Offset: 20,
		Limit:  10,
	}
	got, err := RenderQuery(`SELECT * FROM "trades"`, q)
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "trades" WHERE "region" = 'BR' ORDER BY "year" DESC LIMIT 10 OFFSET 20`, got)
}

func TestRenderQuery_Defaults(t *testing.T) {
	// Zero limit means no LIMIT clause; empty sort direction defaults to ASC.
	q := domain.DataQuery{
		Sort: &domain.SortTerm{Field: "year"},
	}
	got, err := RenderQuery(`SELECT * FROM "trades"`, q)
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "trades" ORDER BY "year" ASC`, got)
}
