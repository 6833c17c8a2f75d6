package db

import (
	"context"
	"database/sql"
	"strings"

	"github.com/tordrt/dbscaffold/internal/annotation"
	"github.com/tordrt/dbscaffold/internal/schema"
)

// mySQLCatalog reads information_schema. A MySQL schema is a database; the
// connection's current database is the default schema.
type mySQLCatalog struct {
	db *sql.DB
}

func (c *mySQLCatalog) databaseName(ctx context.Context) (string, error) {
	var name sql.NullString
	err := c.db.QueryRowContext(ctx, "SELECT DATABASE()").Scan(&name)
	return name.String, err
}

func (c *mySQLCatalog) defaultSchema(ctx context.Context) (string, error) {
	return c.databaseName(ctx)
}

func (c *mySQLCatalog) implicitSchema() string { return "" }

// scope restricts a query to the current database unless the filter names
// schemas explicitly.
func (c *mySQLCatalog) scope(f *Filter, b *binder, schemaExpr, nameExpr string) string {
	explicit := f != nil && len(f.Schemas) > 0
	if f != nil {
		for _, t := range f.Tables {
			explicit = explicit || t.Qualified()
		}
	}
	where := schemaExpr + " NOT IN ('mysql', 'information_schema', 'performance_schema', 'sys')"
	if !explicit {
		where = schemaExpr + " = DATABASE()"
	}
	return where + f.and(b, schemaExpr, nameExpr)
}

// MySQL sequences exist only in MariaDB and are not scaffolded
func (c *mySQLCatalog) sequences(context.Context, *Filter) ([]*schema.DatabaseSequence, error) {
	return nil, nil
}

func (c *mySQLCatalog) tables(ctx context.Context, f *Filter) ([]*schema.DatabaseTable, error) {
	b := newBinder(mysqlDialect)
	query := `
		SELECT t.table_schema, t.table_name, t.table_comment, t.table_collation
		FROM information_schema.tables AS t
		WHERE t.table_type = 'BASE TABLE'
			AND t.table_name <> '__EFMigrationsHistory'
			AND ` + c.scope(f, b, "t.table_schema", "t.table_name") + `
		ORDER BY t.table_schema, t.table_name`

	rows, err := c.db.QueryContext(ctx, query, b.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []*schema.DatabaseTable
	for rows.Next() {
		t := &schema.DatabaseTable{Annotations: map[string]any{}}
		var comment, collation sql.NullString
		if err := rows.Scan(&t.Schema, &t.Name, &comment, &collation); err != nil {
			return nil, err
		}
		t.Comment = comment.String
		if collation.Valid {
			t.Annotations[annotation.MySQLCollation] = collation.String
		}
		tables = append(tables, t)
	}

	return tables, rows.Err()
}

func (c *mySQLCatalog) columns(ctx context.Context, f *Filter) ([]columnRow, error) {
	b := newBinder(mysqlDialect)
	query := `
		SELECT
			c.table_schema,
			c.table_name,
			c.column_name,
			c.column_type,
			c.data_type,
			c.is_nullable,
			c.column_default,
			c.extra,
			c.generation_expression,
			c.column_comment,
			c.character_set_name,
			c.collation_name
		FROM information_schema.columns AS c
		JOIN information_schema.tables AS t
			ON t.table_schema = c.table_schema AND t.table_name = c.table_name AND t.table_type = 'BASE TABLE'
		WHERE ` + c.scope(f, b, "c.table_schema", "c.table_name") + `
		ORDER BY c.table_schema, c.table_name, c.ordinal_position`

	rows, err := c.db.QueryContext(ctx, query, b.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []columnRow
	for rows.Next() {
		var r columnRow
		var name, columnType, dataType, nullable, extra string
		var def, generation, comment, charSet, collation sql.NullString
		if err := rows.Scan(&r.schema, &r.table, &name, &columnType, &dataType, &nullable, &def, &extra,
			&generation, &comment, &charSet, &collation); err != nil {
			return nil, err
		}

		col := &schema.DatabaseColumn{
			Name:        name,
			StoreType:   columnType,
			IsNullable:  nullable == "YES",
			Comment:     comment.String,
			Collation:   collation.String,
			Annotations: map[string]any{},
		}
		if charSet.Valid {
			col.Annotations[annotation.MySQLCharSet] = charSet.String
		}

		extra = strings.ToLower(extra)
		switch {
		case strings.Contains(extra, "generated") && generation.String != "":
			stored := strings.Contains(extra, "stored")
			col.SetComputed(generation.String, &stored)
		case strings.Contains(extra, "auto_increment"):
			col.ValueGenerated = valueGenerated(schema.ValueGeneratedOnAdd)
		case strings.Contains(extra, "on update"):
			col.ValueGenerated = valueGenerated(schema.ValueGeneratedOnAddOrUpdate)
		}
		if def.Valid && col.ComputedColumnSql == nil {
			d := mySQLDefault(def.String, dataType, extra)
			col.DefaultValueSql = &d
		}
		r.column = col
		cols = append(cols, r)
	}

	return cols, rows.Err()
}

// mySQLDefault turns information_schema.columns.column_default into SQL.
// MySQL 8 reports literal defaults unquoted and expressions with the
// DEFAULT_GENERATED flag.
func mySQLDefault(def, dataType, extra string) string {
	if strings.Contains(extra, "default_generated") {
		return def
	}
	switch dataType {
	case "char", "varchar", "tinytext", "text", "mediumtext", "longtext", "enum", "set",
		"date", "datetime", "timestamp", "time", "year", "json":
		if strings.HasPrefix(def, "'") {
			return def
		}
		return "'" + strings.ReplaceAll(def, "'", "''") + "'"
	}
	return def
}

func (c *mySQLCatalog) keys(ctx context.Context, f *Filter) ([]keyRow, error) {
	b := newBinder(mysqlDialect)
	query := `
		SELECT
			kcu.table_schema,
			kcu.table_name,
			kcu.constraint_name,
			tc.constraint_type = 'PRIMARY KEY',
			kcu.column_name
		FROM information_schema.table_constraints AS tc
		JOIN information_schema.key_column_usage AS kcu
			ON kcu.constraint_schema = tc.constraint_schema
			AND kcu.constraint_name = tc.constraint_name
			AND kcu.table_name = tc.table_name
		WHERE tc.constraint_type IN ('PRIMARY KEY', 'UNIQUE')
			AND ` + c.scope(f, b, "kcu.table_schema", "kcu.table_name") + `
		ORDER BY kcu.table_schema, kcu.table_name, kcu.constraint_name, kcu.ordinal_position`

	rows, err := c.db.QueryContext(ctx, query, b.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []keyRow
	for rows.Next() {
		var r keyRow
		var column string
		if err := rows.Scan(&r.schema, &r.table, &r.name, &r.primary, &column); err != nil {
			return nil, err
		}
		r.columns = []string{column}
		keys = append(keys, r)
	}

	return keys, rows.Err()
}

func (c *mySQLCatalog) indexes(ctx context.Context, f *Filter) ([]indexRow, error) {
	b := newBinder(mysqlDialect)
	query := `
		SELECT
			s.table_schema,
			s.table_name,
			s.index_name,
			s.non_unique = 0,
			s.column_name
		FROM information_schema.statistics AS s
		WHERE s.index_name <> 'PRIMARY'
			AND NOT EXISTS (
				SELECT 1 FROM information_schema.table_constraints AS tc
				WHERE tc.table_schema = s.table_schema
					AND tc.table_name = s.table_name
					AND tc.constraint_name = s.index_name
					AND tc.constraint_type = 'UNIQUE'
			)
			AND ` + c.scope(f, b, "s.table_schema", "s.table_name") + `
		ORDER BY s.table_schema, s.table_name, s.index_name, s.seq_in_index`

	rows, err := c.db.QueryContext(ctx, query, b.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var indexes []indexRow
	for rows.Next() {
		var r indexRow
		var column sql.NullString
		if err := rows.Scan(&r.schema, &r.table, &r.name, &r.unique, &column); err != nil {
			return nil, err
		}
		if !column.Valid {
			// functional key part
			continue
		}
		r.columns = []string{column.String}
		indexes = append(indexes, r)
	}

	return indexes, rows.Err()
}

func (c *mySQLCatalog) foreignKeys(ctx context.Context, f *Filter) ([]foreignKeyRow, error) {
	b := newBinder(mysqlDialect)
	query := `
		SELECT
			kcu.table_schema,
			kcu.table_name,
			kcu.constraint_name,
			kcu.referenced_table_schema,
			kcu.referenced_table_name,
			rc.delete_rule,
			kcu.column_name,
			kcu.referenced_column_name
		FROM information_schema.key_column_usage AS kcu
		JOIN information_schema.referential_constraints AS rc
			ON rc.constraint_schema = kcu.constraint_schema
			AND rc.constraint_name = kcu.constraint_name
			AND rc.table_name = kcu.table_name
		WHERE kcu.referenced_table_name IS NOT NULL
			AND ` + c.scope(f, b, "kcu.table_schema", "kcu.table_name") + `
		ORDER BY kcu.table_schema, kcu.table_name, kcu.constraint_name, kcu.ordinal_position`

	rows, err := c.db.QueryContext(ctx, query, b.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fks []foreignKeyRow
	for rows.Next() {
		var r foreignKeyRow
		var column, principalColumn string
		if err := rows.Scan(&r.schema, &r.table, &r.name, &r.principalSchema, &r.principalTable, &r.onDelete,
			&column, &principalColumn); err != nil {
			return nil, err
		}
		r.columns = []string{column}
		r.principalColumns = []string{principalColumn}
		fks = append(fks, r)
	}

	return fks, rows.Err()
}
