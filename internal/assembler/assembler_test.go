package assembler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/dbscaffold/internal/annotation"
	"github.com/tordrt/dbscaffold/internal/db"
	"github.com/tordrt/dbscaffold/internal/logging"
	"github.com/tordrt/dbscaffold/internal/metadata"
	"github.com/tordrt/dbscaffold/internal/schema"
	"github.com/tordrt/dbscaffold/internal/typemap"
)

func col(name, storeType string, nullable bool) *schema.DatabaseColumn {
	return &schema.DatabaseColumn{Name: name, StoreType: storeType, IsNullable: nullable}
}

func strPtr(s string) *string { return &s }

func cascade() *schema.ReferentialAction {
	a := schema.Cascade
	return &a
}

// shopModel is a small catalog: customers with orders, orders tagged
// through a pure join table, and a table nothing can be mapped for.
func shopModel() *schema.DatabaseModel {
	customers := &schema.DatabaseTable{
		Schema: "dbo", Name: "Customers",
		Columns: []*schema.DatabaseColumn{
			col("Id", "int", false),
			col("Name", "nvarchar(50)", false),
			col("Location", "geography", true),
		},
		PrimaryKey: &schema.DatabasePrimaryKey{Name: "PK_Customers", Columns: []int{0}},
	}
	status := col("Status", "nvarchar(20)", false)
	status.DefaultValueSql = strPtr("(N'open')")
	orders := &schema.DatabaseTable{
		Schema: "dbo", Name: "Orders",
		Columns:    []*schema.DatabaseColumn{col("OrderId", "int", false), col("CustomerId", "int", false), status},
		PrimaryKey: &schema.DatabasePrimaryKey{Name: "PK_Orders", Columns: []int{0}},
		Indexes:    []*schema.DatabaseIndex{{Name: "IX_Orders_CustomerId", Columns: []int{1}}},
		ForeignKeys: []*schema.DatabaseForeignKey{{
			Name:             "FK_Orders_Customers",
			PrincipalTable:   schema.TableRef{Schema: "dbo", Name: "Customers"},
			OnDelete:         cascade(),
			Columns:          []int{1},
			PrincipalColumns: []int{0},
		}},
	}
	tags := &schema.DatabaseTable{
		Schema: "dbo", Name: "Tags",
		Columns:    []*schema.DatabaseColumn{col("TagId", "int", false), col("Label", "nvarchar(30)", false)},
		PrimaryKey: &schema.DatabasePrimaryKey{Name: "PK_Tags", Columns: []int{0}},
	}
	orderTags := &schema.DatabaseTable{
		Schema: "dbo", Name: "OrderTags",
		Columns:    []*schema.DatabaseColumn{col("OrderId", "int", false), col("TagId", "int", false)},
		PrimaryKey: &schema.DatabasePrimaryKey{Name: "PK_OrderTags", Columns: []int{0, 1}},
		ForeignKeys: []*schema.DatabaseForeignKey{
			{Name: "FK_OrderTags_Orders", PrincipalTable: schema.TableRef{Schema: "dbo", Name: "Orders"}, Columns: []int{0}, PrincipalColumns: []int{0}},
			{Name: "FK_OrderTags_Tags", PrincipalTable: schema.TableRef{Schema: "dbo", Name: "Tags"}, Columns: []int{1}, PrincipalColumns: []int{0}},
		},
	}
	shapes := &schema.DatabaseTable{
		Schema: "dbo", Name: "Shapes",
		Columns:    []*schema.DatabaseColumn{col("Shape", "geometry", false)},
		PrimaryKey: &schema.DatabasePrimaryKey{Name: "PK_Shapes", Columns: []int{0}},
	}
	return &schema.DatabaseModel{
		DatabaseName:  "shop",
		DefaultSchema: "dbo",
		Tables:        []*schema.DatabaseTable{customers, orders, tags, orderTags, shapes},
	}
}

func assemble(t *testing.T, dbm *schema.DatabaseModel, opts Options) (*metadata.Model, *logging.Recorder) {
	t.Helper()
	types, err := typemap.For(db.SQLServer)
	require.NoError(t, err)
	events, rec := logging.NewRecorder()
	m, err := New(types, opts, events).Assemble(dbm)
	require.NoError(t, err)
	return m, rec
}

func TestAssemble_Entities(t *testing.T) {
	m, rec := assemble(t, shopModel(), Options{ContextName: "ShopContext"})

	names := []string{}
	for _, e := range m.Entities {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"Customer", "Order", "Tag", "OrderTag"}, names)
	assert.Equal(t, "Customers", m.Entity("Customer").DbSetName)
	assert.Equal(t, "dbo", m.DefaultSchema())
	assert.Equal(t, "shop", m.Annotations[annotation.DatabaseName])

	customer := m.Entity("Customer")
	assert.Len(t, customer.Properties, 2, "geography column is skipped")
	skipped := rec.Events(logging.EventColumnSkippedWarning)
	require.Len(t, skipped, 2)
	assert.Equal(t, "Location", skipped[0].Attrs["column"])

	require.Len(t, m.Unmapped, 1)
	assert.Equal(t, "dbo.Shapes", m.Unmapped[0].Table)
	assert.Contains(t, m.Unmapped[0].Reason, "Shape")
	assert.Len(t, rec.Events(logging.EventUnableToGenerateEntityType), 1)
}

func TestAssemble_Properties(t *testing.T) {
	m, _ := assemble(t, shopModel(), Options{})
	order := m.Entity("Order")

	status := order.Property("Status")
	require.NotNil(t, status)
	assert.Equal(t, "string", status.ClrType)
	assert.Equal(t, "(N'open')", status.Annotations[annotation.DefaultValueSql])
	assert.Equal(t, "open", status.Annotations[annotation.DefaultValue])
	assert.Equal(t, 20, status.Annotations[annotation.MaxLength])
	assert.Equal(t, "Status", status.ColumnName())
	assert.Equal(t, "nvarchar(20)", status.ColumnType())
}

func TestAssemble_Relationships(t *testing.T) {
	m, _ := assemble(t, shopModel(), Options{})
	order := m.Entity("Order")

	require.Len(t, order.ForeignKeys, 1)
	fk := order.ForeignKeys[0]
	assert.Equal(t, "Customer", fk.PrincipalEntity)
	assert.Equal(t, []string{"CustomerId"}, fk.Properties)
	assert.True(t, fk.IsRequired)
	assert.False(t, fk.IsUnique)
	assert.True(t, fk.PrincipalKeyIsPrimary)
	assert.Equal(t, metadata.Cascade, fk.DeleteBehavior)
	assert.Equal(t, "Customer", fk.DependentNavigation)
	assert.Equal(t, "Orders", fk.PrincipalNavigation)
	assert.Equal(t, "FK_Orders_Customers", fk.ConstraintName())

	customer := m.Entity("Customer")
	require.Len(t, customer.Navigations, 1)
	assert.True(t, customer.Navigations[0].IsCollection)
}

func TestAssemble_JoinEntity(t *testing.T) {
	m, _ := assemble(t, shopModel(), Options{})

	join := m.Entity("OrderTag")
	require.NotNil(t, join)
	assert.True(t, join.IsJoinEntity)
	assert.Empty(t, join.DbSetName)
	assert.Empty(t, join.Navigations)

	order, tag := m.Entity("Order"), m.Entity("Tag")
	require.Len(t, order.SkipNavigations, 1)
	require.Len(t, tag.SkipNavigations, 1)
	assert.Equal(t, "Tags", order.SkipNavigations[0].Name)
	assert.Equal(t, "Orders", tag.SkipNavigations[0].Name)
	assert.True(t, order.SkipNavigations[0].IsLeft)
	assert.Equal(t, "OrderTag", tag.SkipNavigations[0].JoinEntity)
	assert.Len(t, order.Navigations, 1, "only the customer reference")
}

func TestAssemble_JoinEntityRequiresExactlyTwoKeys(t *testing.T) {
	dbm := shopModel()
	orderTags := dbm.Tables[3]
	orderTags.Columns = append(orderTags.Columns, col("Note", "nvarchar(10)", true))

	m, _ := assemble(t, dbm, Options{})
	join := m.Entity("OrderTag")
	assert.False(t, join.IsJoinEntity, "a payload column makes it a regular entity")
	assert.Equal(t, "OrderTags", join.DbSetName)
	assert.Len(t, join.Navigations, 2)
}

func TestAssemble_NamingOptions(t *testing.T) {
	dbm := &schema.DatabaseModel{Tables: []*schema.DatabaseTable{
		{Schema: "sales", Name: "order_lines", Columns: []*schema.DatabaseColumn{col("line_id", "int", false)}},
		{Schema: "archive", Name: "order_lines", Columns: []*schema.DatabaseColumn{col("line_id", "int", false)}},
	}}

	m, _ := assemble(t, dbm, Options{})
	assert.Equal(t, "SalesOrderLine", m.Entities[0].Name)
	assert.Equal(t, "ArchiveOrderLine", m.Entities[1].Name)
	assert.Equal(t, "LineId", m.Entities[0].Properties[0].Name)

	m, _ = assemble(t, dbm, Options{UseDatabaseNames: true})
	assert.Equal(t, "salesorder_lines", m.Entities[0].Name)
	assert.Equal(t, "line_id", m.Entities[0].Properties[0].Name)
}

func TestAssemble_Temporal(t *testing.T) {
	dbm := &schema.DatabaseModel{Tables: []*schema.DatabaseTable{{
		Schema: "dbo", Name: "Prices",
		Columns: []*schema.DatabaseColumn{
			col("Id", "int", false), col("ValidFrom", "datetime2", false), col("ValidTo", "datetime2", false),
		},
		PrimaryKey: &schema.DatabasePrimaryKey{Name: "PK_Prices", Columns: []int{0}},
		Annotations: map[string]any{
			annotation.SqlServerIsTemporal:                true,
			annotation.SqlServerTemporalPeriodStartColumn: "ValidFrom",
			annotation.SqlServerTemporalPeriodEndColumn:   "ValidTo",
		},
	}}}

	m, _ := assemble(t, dbm, Options{})
	price := m.Entity("Price")
	require.NotNil(t, price)
	assert.Len(t, price.Properties, 1)
	assert.Equal(t, "ValidFrom", price.Annotations[annotation.SqlServerTemporalPeriodStartProperty])
	assert.Equal(t, "ValidTo", price.Annotations[annotation.SqlServerTemporalPeriodEndProperty])
}

func TestAssemble_AlternateKey(t *testing.T) {
	dbm := &schema.DatabaseModel{Tables: []*schema.DatabaseTable{
		{
			Name:              "Products",
			Columns:           []*schema.DatabaseColumn{col("Id", "int", false), col("Sku", "nvarchar(20)", false)},
			PrimaryKey:        &schema.DatabasePrimaryKey{Name: "PK_Products", Columns: []int{0}},
			UniqueConstraints: []*schema.DatabaseUniqueConstraint{{Name: "AK_Products_Sku", Columns: []int{1}}},
		},
		{
			Name:    "Stock",
			Columns: []*schema.DatabaseColumn{col("Id", "int", false), col("ProductSku", "nvarchar(20)", true)},
			ForeignKeys: []*schema.DatabaseForeignKey{{
				Name: "FK_Stock_Products", PrincipalTable: schema.TableRef{Name: "Products"},
				Columns: []int{1}, PrincipalColumns: []int{1},
			}},
		},
	}}

	m, _ := assemble(t, dbm, Options{})
	product := m.Entity("Product")
	require.Len(t, product.Keys, 1)
	assert.Equal(t, []string{"Sku"}, product.Keys[0].Properties)
	assert.Equal(t, "AK_Products_Sku", product.Keys[0].Name())
	assert.Empty(t, product.Indexes, "the constraint became the key")

	fk := m.Entity("Stock").ForeignKeys[0]
	assert.False(t, fk.PrincipalKeyIsPrimary)
	assert.False(t, fk.IsRequired)
	assert.Equal(t, "Product", fk.DependentNavigation)
}
