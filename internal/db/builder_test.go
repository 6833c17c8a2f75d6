package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/dbscaffold/internal/logging"
	"github.com/tordrt/dbscaffold/internal/schema"
)

func testTable(schemaName, name string) *schema.DatabaseTable {
	return &schema.DatabaseTable{Schema: schemaName, Name: name}
}

func testColumns(schemaName, name string, cols ...string) []columnRow {
	rows := make([]columnRow, len(cols))
	for i, c := range cols {
		rows[i] = columnRow{schema: schemaName, table: name, column: &schema.DatabaseColumn{Name: c, StoreType: "int"}}
	}
	return rows
}

func newFixture(t *testing.T) (*modelBuilder, *logging.Recorder) {
	t.Helper()
	events, rec := logging.NewRecorder()
	b := newModelBuilder(events)
	b.addTables([]*schema.DatabaseTable{testTable("dbo", "Customers"), testTable("dbo", "Orders")})
	b.addColumns(testColumns("dbo", "Customers", "Id", "Code"))
	b.addColumns(testColumns("dbo", "Orders", "Id", "customer_id"))
	b.addKeys([]keyRow{{schema: "dbo", table: "Customers", name: "PK_Customers", primary: true, columns: []string{"Id"}}})
	return b, rec
}

func TestForeignKeyToMissingPrincipalTableIsDropped(t *testing.T) {
	b, rec := newFixture(t)

	b.addForeignKeys([]foreignKeyRow{{
		schema: "dbo", table: "Orders", name: "FK_Orders_Ghosts",
		principalSchema: "dbo", principalTable: "Ghosts",
		columns: []string{"customer_id"}, principalColumns: []string{"Id"},
	}})

	orders := b.table("dbo", "Orders")
	assert.Empty(t, orders.ForeignKeys)
	warnings := rec.Events(logging.EventForeignKeyReferencesMissingPrincipalTableWarning)
	require.Len(t, warnings, 1)
	assert.Equal(t, "FK_Orders_Ghosts", warnings[0].Attrs["foreign_key"])
	assert.Equal(t, "dbo.Ghosts", warnings[0].Attrs["principal_table"])
}

func TestForeignKeyWithMissingPrincipalColumnIsDropped(t *testing.T) {
	b, rec := newFixture(t)

	b.addForeignKeys([]foreignKeyRow{
		{schema: "dbo", table: "Orders", name: "FK_Composite", principalSchema: "dbo", principalTable: "Customers",
			columns: []string{"customer_id"}, principalColumns: []string{"Missing"}},
		{schema: "dbo", table: "Orders", name: "FK_Composite", principalSchema: "dbo", principalTable: "Customers",
			columns: []string{"Id"}, principalColumns: []string{"Id"}},
	})

	assert.Empty(t, b.table("dbo", "Orders").ForeignKeys)
	warnings := rec.Events(logging.EventForeignKeyPrincipalColumnMissingWarning)
	require.Len(t, warnings, 1, "processing stops at the first unresolved column")
	assert.Equal(t, "Missing", warnings[0].Attrs["principal_column"])
}

func TestColumnResolutionFallsBackToCaseInsensitive(t *testing.T) {
	b, rec := newFixture(t)

	b.addForeignKeys([]foreignKeyRow{{
		schema: "dbo", table: "Orders", name: "FK_Orders_Customers",
		principalSchema: "dbo", principalTable: "Customers", onDelete: "CASCADE",
		columns: []string{"Customer_ID"}, principalColumns: []string{"id"},
	}})

	fks := b.table("dbo", "Orders").ForeignKeys
	require.Len(t, fks, 1)
	assert.Equal(t, []int{1}, fks[0].Columns)
	assert.Equal(t, []int{0}, fks[0].PrincipalColumns)
	assert.Equal(t, schema.TableRef{Schema: "dbo", Name: "Customers"}, fks[0].PrincipalTable)
	require.NotNil(t, fks[0].OnDelete)
	assert.Equal(t, schema.Cascade, *fks[0].OnDelete)
	assert.Len(t, rec.Events(logging.EventForeignKeyFound), 1)
}

func TestTableGroupingIsCaseSensitive(t *testing.T) {
	b, rec := newFixture(t)

	b.addIndexes([]indexRow{{schema: "dbo", table: "orders", name: "IX_lower", columns: []string{"Id"}}})
	assert.Empty(t, b.table("dbo", "Orders").Indexes)
	assert.Empty(t, rec.Events(logging.EventIndexFound))
}

func TestIndexRowsAreMerged(t *testing.T) {
	b, _ := newFixture(t)

	b.addIndexes([]indexRow{
		{schema: "dbo", table: "Orders", name: "IX_Orders", unique: true, columns: []string{"customer_id"}},
		{schema: "dbo", table: "Orders", name: "IX_Orders", unique: true, columns: []string{"Id"}},
		{schema: "dbo", table: "Orders", name: "IX_Bad", columns: []string{"Nope"}},
	})

	idx := b.table("dbo", "Orders").Indexes
	require.Len(t, idx, 1)
	assert.Equal(t, []int{1, 0}, idx[0].Columns)
	assert.True(t, idx[0].IsUnique)
}

func TestWarnUnmatched(t *testing.T) {
	b, rec := newFixture(t)
	f, err := BuildFilter([]string{"dbo.Orders", "sales.Orders", "customers"}, []string{"dbo", "hr"})
	require.NoError(t, err)

	b.warnUnmatched(f, "")

	var schemas, tables []any
	for _, r := range rec.Events(logging.EventMissingSchemaWarning) {
		schemas = append(schemas, r.Attrs["schema"])
	}
	for _, r := range rec.Events(logging.EventMissingTableWarning) {
		tables = append(tables, r.Attrs["table"])
	}
	assert.Equal(t, []any{"hr"}, schemas)
	assert.Equal(t, []any{"sales.Orders", "customers"}, tables)
}
