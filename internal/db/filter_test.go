package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterPredicate(t *testing.T) {
	tests := []struct {
		name     string
		d        dialect
		tables   []string
		schemas  []string
		wantSQL  string
		wantArgs []any
	}{
		{
			name:    "no filter",
			d:       sqlServerDialect,
			wantSQL: "",
		},
		{
			name:     "qualified and bare tables",
			d:        sqlServerDialect,
			tables:   []string{"dbo.Orders", "Products"},
			wantSQL:  " AND (t.name IN (@p1) OR (t.name IN (@p2) AND s.name + '.' + t.name IN (@p3)))",
			wantArgs: []any{"Products", "Orders", "dbo.Orders"},
		},
		{
			name:     "schemas or tables",
			d:        postgresDialect,
			tables:   []string{"Products"},
			schemas:  []string{"sales", "hr"},
			wantSQL:  " AND (s.name IN ($1, $2) OR t.name IN ($3))",
			wantArgs: []any{"sales", "hr", "Products"},
		},
		{
			name:     "mysql concatenation",
			d:        mysqlDialect,
			tables:   []string{"shop.orders"},
			wantSQL:  " AND ((t.name IN (?) AND CONCAT(s.name, '.', t.name) IN (?)))",
			wantArgs: []any{"orders", "shop.orders"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := BuildFilter(tt.tables, tt.schemas)
			require.NoError(t, err)

			b := newBinder(tt.d)
			assert.Equal(t, tt.wantSQL, f.and(b, "s.name", "t.name"))
			assert.Equal(t, tt.wantArgs, b.args)
		})
	}
}

func TestFilterSchemasOnly(t *testing.T) {
	f, err := BuildFilter([]string{"Orders"}, nil)
	require.NoError(t, err)

	b := newBinder(sqlServerDialect)
	assert.Empty(t, f.andSchemas(b, "s.name"), "table requests do not restrict sequences")

	f.Schemas = []string{"dbo"}
	assert.Equal(t, " AND s.name IN (@p1)", f.andSchemas(b, "s.name"))
}

func TestMatchesTableIsCaseSensitive(t *testing.T) {
	f, err := BuildFilter([]string{"dbo.Orders", "Products"}, nil)
	require.NoError(t, err)
	orders, products := f.Tables[0], f.Tables[1]

	assert.True(t, orders.matchesTable("dbo", "Orders", ""))
	assert.False(t, orders.matchesTable("sales", "Orders", ""))
	assert.True(t, products.matchesTable("sales", "Products", ""))
	assert.False(t, products.matchesTable("sales", "products", ""))

	mainOrders, err := ParseTableName("main.Orders")
	require.NoError(t, err)
	assert.True(t, mainOrders.matchesTable("", "Orders", "main"))
}
