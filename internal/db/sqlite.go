package db

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"github.com/tordrt/dbscaffold/internal/schema"
)

// sqliteCatalog reads sqlite_master through the table-valued pragma
// functions. SQLite has a single schema, main; tables carry no schema name.
type sqliteCatalog struct {
	db *sql.DB
}

const (
	sqliteSchemaExpr = "'main'"
	sqliteUserTables = `m.type = 'table' AND m.name NOT LIKE 'sqlite_%' AND m.name <> '__EFMigrationsHistory'`
)

func (c *sqliteCatalog) databaseName(context.Context) (string, error) { return "main", nil }

func (c *sqliteCatalog) defaultSchema(context.Context) (string, error) { return "", nil }

func (c *sqliteCatalog) implicitSchema() string { return "main" }

func (c *sqliteCatalog) sequences(context.Context, *Filter) ([]*schema.DatabaseSequence, error) {
	return nil, nil
}

func (c *sqliteCatalog) tables(ctx context.Context, f *Filter) ([]*schema.DatabaseTable, error) {
	b := newBinder(questionDialect)
	query := `
		SELECT m.name
		FROM sqlite_master AS m
		WHERE ` + sqliteUserTables + f.and(b, sqliteSchemaExpr, "m.name") + `
		ORDER BY m.name`

	rows, err := c.db.QueryContext(ctx, query, b.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []*schema.DatabaseTable
	for rows.Next() {
		t := &schema.DatabaseTable{}
		if err := rows.Scan(&t.Name); err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}

	return tables, rows.Err()
}

func (c *sqliteCatalog) columns(ctx context.Context, f *Filter) ([]columnRow, error) {
	b := newBinder(questionDialect)
	query := `
		SELECT m.name, p.name, p.type, p."notnull", p.dflt_value, p.hidden
		FROM sqlite_master AS m
		JOIN pragma_table_xinfo(m.name) AS p
		WHERE ` + sqliteUserTables + f.and(b, sqliteSchemaExpr, "m.name") + `
		ORDER BY m.name, p.cid`

	rows, err := c.db.QueryContext(ctx, query, b.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []columnRow
	for rows.Next() {
		var r columnRow
		var name, declared string
		var notNull, hidden int
		var def sql.NullString
		if err := rows.Scan(&r.table, &name, &declared, &notNull, &def, &hidden); err != nil {
			return nil, err
		}
		if hidden == 1 {
			// virtual table plumbing
			continue
		}

		col := &schema.DatabaseColumn{
			Name:       name,
			StoreType:  normalizeDeclaredType(declared),
			IsNullable: notNull == 0,
		}
		if def.Valid {
			col.DefaultValueSql = &def.String
		}
		if hidden == 2 || hidden == 3 {
			col.ValueGenerated = valueGenerated(schema.ValueGeneratedOnAddOrUpdate)
		}
		r.column = col
		cols = append(cols, r)
	}

	return cols, rows.Err()
}

func (c *sqliteCatalog) keys(ctx context.Context, f *Filter) ([]keyRow, error) {
	b := newBinder(questionDialect)
	pk := f.and(b, sqliteSchemaExpr, "m.name")
	unique := f.and(b, sqliteSchemaExpr, "m.name")
	query := `
		SELECT m.name, '' AS key_name, 1 AS is_primary, p.name, p.pk AS ord
		FROM sqlite_master AS m
		JOIN pragma_table_info(m.name) AS p
		WHERE ` + sqliteUserTables + ` AND p.pk > 0` + pk + `
		UNION ALL
		SELECT m.name, il.name, 0, ii.name, ii.seqno + 1
		FROM sqlite_master AS m
		JOIN pragma_index_list(m.name) AS il
		JOIN pragma_index_info(il.name) AS ii
		WHERE ` + sqliteUserTables + ` AND il.origin = 'u'` + unique + `
		ORDER BY 1, 2, 5`

	rows, err := c.db.QueryContext(ctx, query, b.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []keyRow
	for rows.Next() {
		var r keyRow
		var column string
		var ord int
		if err := rows.Scan(&r.table, &r.name, &r.primary, &column, &ord); err != nil {
			return nil, err
		}
		r.columns = []string{column}
		keys = append(keys, r)
	}

	return keys, rows.Err()
}

// sqliteExpressionColumn stands in for an index key that is an expression
const sqliteExpressionColumn = "(expression)"

func (c *sqliteCatalog) indexes(ctx context.Context, f *Filter) ([]indexRow, error) {
	b := newBinder(questionDialect)
	query := `
		SELECT
			m.name,
			il.name,
			il."unique",
			il.partial,
			ii.name,
			(SELECT s.sql FROM sqlite_master AS s WHERE s.type = 'index' AND s.name = il.name)
		FROM sqlite_master AS m
		JOIN pragma_index_list(m.name) AS il
		JOIN pragma_index_info(il.name) AS ii
		WHERE ` + sqliteUserTables + ` AND il.origin = 'c'` + f.and(b, sqliteSchemaExpr, "m.name") + `
		ORDER BY m.name, il.name, ii.seqno`

	rows, err := c.db.QueryContext(ctx, query, b.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var indexes []indexRow
	for rows.Next() {
		var r indexRow
		var partial bool
		var column, ddl sql.NullString
		if err := rows.Scan(&r.table, &r.name, &r.unique, &partial, &column, &ddl); err != nil {
			return nil, err
		}
		r.columns = []string{column.String}
		if !column.Valid {
			// an expression key column never resolves, dropping the whole index
			r.columns = []string{sqliteExpressionColumn}
		}
		if partial {
			r.filter = partialIndexFilter(ddl.String)
		}
		indexes = append(indexes, r)
	}

	return indexes, rows.Err()
}

// partialIndexFilter returns the WHERE clause of a CREATE INDEX statement
func partialIndexFilter(ddl string) string {
	i := strings.LastIndex(strings.ToUpper(ddl), " WHERE ")
	if i < 0 {
		return ""
	}
	return strings.TrimSpace(ddl[i+len(" WHERE "):])
}

func (c *sqliteCatalog) foreignKeys(ctx context.Context, f *Filter) ([]foreignKeyRow, error) {
	b := newBinder(questionDialect)
	query := `
		SELECT m.name, f.id, f."table", f."from", f."to", f.on_delete
		FROM sqlite_master AS m
		JOIN pragma_foreign_key_list(m.name) AS f
		WHERE ` + sqliteUserTables + f.and(b, sqliteSchemaExpr, "m.name") + `
		ORDER BY m.name, f.id, f.seq`

	rows, err := c.db.QueryContext(ctx, query, b.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fks []foreignKeyRow
	for rows.Next() {
		var r foreignKeyRow
		var id int
		var column string
		var principalColumn sql.NullString
		if err := rows.Scan(&r.table, &id, &r.principalTable, &column, &principalColumn, &r.onDelete); err != nil {
			return nil, err
		}
		// SQLite foreign keys are unnamed; rows of one key share its id
		r.id = strconv.Itoa(id)
		r.columns = []string{column}
		r.principalColumns = []string{principalColumn.String}
		fks = append(fks, r)
	}

	return fks, rows.Err()
}

// finishTable marks an INTEGER primary key as generated: it aliases rowid.
func (c *sqliteCatalog) finishTable(t *schema.DatabaseTable) {
	if t.PrimaryKey == nil || len(t.PrimaryKey.Columns) != 1 {
		return
	}
	col := t.Column(t.PrimaryKey.Columns[0])
	if strings.EqualFold(col.StoreType, "INTEGER") && col.ValueGenerated == nil {
		col.ValueGenerated = valueGenerated(schema.ValueGeneratedOnAdd)
	}
}
