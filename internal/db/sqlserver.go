package db

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"github.com/tordrt/dbscaffold/internal/annotation"
	"github.com/tordrt/dbscaffold/internal/schema"
)

// sqlServerCatalog reads the sys.* catalog views
type sqlServerCatalog struct {
	db *sql.DB
}

const sqlServerSchemaExpr = "SCHEMA_NAME(t.schema_id)"

func (c *sqlServerCatalog) databaseName(ctx context.Context) (string, error) {
	var name string
	err := c.db.QueryRowContext(ctx, "SELECT DB_NAME()").Scan(&name)
	return name, err
}

func (c *sqlServerCatalog) defaultSchema(ctx context.Context) (string, error) {
	var name sql.NullString
	err := c.db.QueryRowContext(ctx, "SELECT SCHEMA_NAME()").Scan(&name)
	return name.String, err
}

func (c *sqlServerCatalog) implicitSchema() string { return "" }

func (c *sqlServerCatalog) sequences(ctx context.Context, f *Filter) ([]*schema.DatabaseSequence, error) {
	b := newBinder(sqlServerDialect)
	query := `
		SELECT
			OBJECT_SCHEMA_NAME(s.object_id) AS [schema],
			s.name,
			TYPE_NAME(s.user_type_id) AS type_name,
			CAST(s.start_value AS bigint),
			CAST(s.increment AS bigint),
			CAST(s.minimum_value AS bigint),
			CAST(s.maximum_value AS bigint),
			s.is_cycling
		FROM sys.sequences AS s
		WHERE 1 = 1` + f.andSchemas(b, "OBJECT_SCHEMA_NAME(s.object_id)") + `
		ORDER BY [schema], s.name`

	rows, err := c.db.QueryContext(ctx, query, b.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var seqs []*schema.DatabaseSequence
	for rows.Next() {
		s := &schema.DatabaseSequence{}
		var start, inc, minV, maxV sql.NullInt64
		if err := rows.Scan(&s.Schema, &s.Name, &s.StoreType, &start, &inc, &minV, &maxV, &s.IsCyclic); err != nil {
			return nil, err
		}
		s.StartValue = int64Ptr(start)
		s.IncrementBy = int64Ptr(inc)
		s.MinValue = int64Ptr(minV)
		s.MaxValue = int64Ptr(maxV)
		seqs = append(seqs, s)
	}

	return seqs, rows.Err()
}

func (c *sqlServerCatalog) tables(ctx context.Context, f *Filter) ([]*schema.DatabaseTable, error) {
	b := newBinder(sqlServerDialect)
	query := `
		SELECT
			SCHEMA_NAME(t.schema_id) AS [schema],
			t.name,
			CAST(ep.value AS nvarchar(MAX)),
			t.temporal_type,
			OBJECT_SCHEMA_NAME(t.history_table_id),
			OBJECT_NAME(t.history_table_id),
			COL_NAME(p.object_id, p.start_column_id),
			COL_NAME(p.object_id, p.end_column_id),
			t.is_memory_optimized
		FROM sys.tables AS t
		LEFT JOIN sys.extended_properties AS ep
			ON ep.major_id = t.object_id AND ep.minor_id = 0 AND ep.class = 1 AND ep.name = N'MS_Description'
		LEFT JOIN sys.periods AS p ON p.object_id = t.object_id
		WHERE t.is_ms_shipped = 0
			AND t.name <> N'__EFMigrationsHistory'
			AND t.temporal_type <> 1` + f.and(b, sqlServerSchemaExpr, "t.name") + `
		ORDER BY [schema], t.name`

	rows, err := c.db.QueryContext(ctx, query, b.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []*schema.DatabaseTable
	for rows.Next() {
		t := &schema.DatabaseTable{Annotations: map[string]any{}}
		var comment, historySchema, historyName, periodStart, periodEnd sql.NullString
		var temporalType int
		var memoryOptimized bool
		if err := rows.Scan(&t.Schema, &t.Name, &comment, &temporalType, &historySchema, &historyName,
			&periodStart, &periodEnd, &memoryOptimized); err != nil {
			return nil, err
		}
		t.Comment = comment.String
		if temporalType == 2 {
			t.Annotations[annotation.SqlServerIsTemporal] = true
			t.Annotations[annotation.SqlServerTemporalHistoryTableName] = historyName.String
			t.Annotations[annotation.SqlServerTemporalHistoryTableSchema] = historySchema.String
			t.Annotations[annotation.SqlServerTemporalPeriodStartColumn] = periodStart.String
			t.Annotations[annotation.SqlServerTemporalPeriodEndColumn] = periodEnd.String
		}
		if memoryOptimized {
			t.Annotations[annotation.SqlServerMemoryOptimized] = true
		}
		tables = append(tables, t)
	}

	return tables, rows.Err()
}

func (c *sqlServerCatalog) columns(ctx context.Context, f *Filter) ([]columnRow, error) {
	b := newBinder(sqlServerDialect)
	query := `
		SELECT
			SCHEMA_NAME(t.schema_id) AS [schema],
			t.name,
			c.name,
			TYPE_NAME(c.user_type_id),
			c.max_length,
			c.precision,
			c.scale,
			c.is_nullable,
			c.is_identity,
			OBJECT_DEFINITION(c.default_object_id),
			cc.definition,
			cc.is_persisted,
			CAST(ep.value AS nvarchar(MAX)),
			c.collation_name,
			CAST(ic.seed_value AS bigint),
			CAST(ic.increment_value AS bigint)
		FROM sys.columns AS c
		JOIN sys.tables AS t ON c.object_id = t.object_id
		LEFT JOIN sys.computed_columns AS cc ON c.object_id = cc.object_id AND c.column_id = cc.column_id
		LEFT JOIN sys.identity_columns AS ic ON c.object_id = ic.object_id AND c.column_id = ic.column_id
		LEFT JOIN sys.extended_properties AS ep
			ON ep.major_id = c.object_id AND ep.minor_id = c.column_id AND ep.class = 1 AND ep.name = N'MS_Description'
		WHERE t.is_ms_shipped = 0` + f.and(b, sqlServerSchemaExpr, "t.name") + `
		ORDER BY [schema], t.name, c.column_id`

	rows, err := c.db.QueryContext(ctx, query, b.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []columnRow
	for rows.Next() {
		var (
			r                  columnRow
			name, typeName     string
			maxLength          int
			precision, scale   int
			nullable, identity bool
			def, computed      sql.NullString
			persisted          sql.NullBool
			comment, collation sql.NullString
			seed, increment    sql.NullInt64
		)
		if err := rows.Scan(&r.schema, &r.table, &name, &typeName, &maxLength, &precision, &scale,
			&nullable, &identity, &def, &computed, &persisted, &comment, &collation, &seed, &increment); err != nil {
			return nil, err
		}

		col := &schema.DatabaseColumn{
			Name:        name,
			StoreType:   sqlServerStoreType(typeName, maxLength, precision, scale),
			IsNullable:  nullable,
			Comment:     comment.String,
			Collation:   collation.String,
			Annotations: map[string]any{},
		}
		if def.Valid {
			d := stripParentheses(def.String)
			col.DefaultValueSql = &d
		}
		if computed.Valid {
			var stored *bool
			if persisted.Valid {
				stored = &persisted.Bool
			}
			col.SetComputed(stripParentheses(computed.String), stored)
		}
		switch {
		case identity:
			col.ValueGenerated = valueGenerated(schema.ValueGeneratedOnAdd)
			col.Annotations[annotation.SqlServerValueGenerationStrategy] = annotation.StrategyIdentityColumn
			col.Annotations[annotation.SqlServerIdentitySeed] = seed.Int64
			col.Annotations[annotation.SqlServerIdentityIncrement] = increment.Int64
		case typeName == "timestamp" || typeName == "rowversion":
			col.ValueGenerated = valueGenerated(schema.ValueGeneratedOnAddOrUpdate)
			col.Annotations[annotation.RowVersion] = true
		}
		r.column = col
		cols = append(cols, r)
	}

	return cols, rows.Err()
}

func sqlServerStoreType(typeName string, maxLength, precision, scale int) string {
	switch typeName {
	case "nvarchar", "nchar":
		if maxLength > 0 {
			// max_length counts bytes
			maxLength /= 2
		}
		return CharacterStoreType(typeName, maxLength)
	case "varchar", "char", "varbinary", "binary":
		return CharacterStoreType(typeName, maxLength)
	case "decimal", "numeric":
		// declared precision is exact here, the numeric clamp is for SQLite affinity types
		return typeName + "(" + strconv.Itoa(precision) + "," + strconv.Itoa(scale) + ")"
	case "datetime2", "datetimeoffset", "time":
		if scale != 7 {
			return typeName + "(" + strconv.Itoa(scale) + ")"
		}
	case "timestamp":
		return "rowversion"
	}
	return typeName
}

func (c *sqlServerCatalog) keys(ctx context.Context, f *Filter) ([]keyRow, error) {
	b := newBinder(sqlServerDialect)
	query := `
		SELECT
			SCHEMA_NAME(t.schema_id) AS [schema],
			t.name,
			i.name,
			i.is_primary_key,
			i.type_desc,
			c.name
		FROM sys.indexes AS i
		JOIN sys.tables AS t ON i.object_id = t.object_id
		JOIN sys.index_columns AS ic ON i.object_id = ic.object_id AND i.index_id = ic.index_id
		JOIN sys.columns AS c ON ic.object_id = c.object_id AND ic.column_id = c.column_id
		WHERE (i.is_primary_key = 1 OR i.is_unique_constraint = 1)` + f.and(b, sqlServerSchemaExpr, "t.name") + `
		ORDER BY [schema], t.name, i.name, ic.key_ordinal`

	rows, err := c.db.QueryContext(ctx, query, b.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []keyRow
	for rows.Next() {
		var r keyRow
		var typeDesc, column string
		if err := rows.Scan(&r.schema, &r.table, &r.name, &r.primary, &typeDesc, &column); err != nil {
			return nil, err
		}
		r.columns = []string{column}
		r.annotations = clusteredAnnotation(typeDesc, r.primary)
		keys = append(keys, r)
	}

	return keys, rows.Err()
}

// clusteredAnnotation records clustering only where it differs from the
// default: primary keys cluster, everything else does not.
func clusteredAnnotation(typeDesc string, clusteredByDefault bool) map[string]any {
	clustered := strings.EqualFold(typeDesc, "CLUSTERED")
	if clustered == clusteredByDefault {
		return nil
	}
	return map[string]any{annotation.SqlServerClustered: clustered}
}

func (c *sqlServerCatalog) indexes(ctx context.Context, f *Filter) ([]indexRow, error) {
	b := newBinder(sqlServerDialect)
	query := `
		SELECT
			SCHEMA_NAME(t.schema_id) AS [schema],
			t.name,
			i.name,
			i.is_unique,
			i.type_desc,
			i.filter_definition,
			i.fill_factor,
			c.name
		FROM sys.indexes AS i
		JOIN sys.tables AS t ON i.object_id = t.object_id
		JOIN sys.index_columns AS ic ON i.object_id = ic.object_id AND i.index_id = ic.index_id
		JOIN sys.columns AS c ON ic.object_id = c.object_id AND ic.column_id = c.column_id
		WHERE i.is_primary_key = 0
			AND i.is_unique_constraint = 0
			AND i.is_hypothetical = 0
			AND i.type <> 0
			AND ic.is_included_column = 0` + f.and(b, sqlServerSchemaExpr, "t.name") + `
		ORDER BY [schema], t.name, i.name, ic.key_ordinal`

	rows, err := c.db.QueryContext(ctx, query, b.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var indexes []indexRow
	for rows.Next() {
		var r indexRow
		var typeDesc, column string
		var filter sql.NullString
		var fillFactor int
		if err := rows.Scan(&r.schema, &r.table, &r.name, &r.unique, &typeDesc, &filter, &fillFactor, &column); err != nil {
			return nil, err
		}
		r.columns = []string{column}
		r.filter = filter.String
		r.annotations = clusteredAnnotation(typeDesc, false)
		if fillFactor > 0 && fillFactor < 100 {
			if r.annotations == nil {
				r.annotations = map[string]any{}
			}
			r.annotations[annotation.SqlServerFillFactor] = fillFactor
		}
		indexes = append(indexes, r)
	}

	return indexes, rows.Err()
}

func (c *sqlServerCatalog) foreignKeys(ctx context.Context, f *Filter) ([]foreignKeyRow, error) {
	b := newBinder(sqlServerDialect)
	query := `
		SELECT
			SCHEMA_NAME(t.schema_id) AS [schema],
			t.name,
			fk.name,
			SCHEMA_NAME(pt.schema_id),
			pt.name,
			fk.delete_referential_action_desc,
			c.name,
			pc.name
		FROM sys.foreign_keys AS fk
		JOIN sys.tables AS t ON fk.parent_object_id = t.object_id
		JOIN sys.tables AS pt ON fk.referenced_object_id = pt.object_id
		JOIN sys.foreign_key_columns AS fc ON fk.object_id = fc.constraint_object_id
		JOIN sys.columns AS c ON fc.parent_object_id = c.object_id AND fc.parent_column_id = c.column_id
		JOIN sys.columns AS pc ON fc.referenced_object_id = pc.object_id AND fc.referenced_column_id = pc.column_id
		WHERE 1 = 1` + f.and(b, sqlServerSchemaExpr, "t.name") + `
		ORDER BY [schema], t.name, fk.name, fc.constraint_column_id`

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

// stripParentheses removes the redundant outer parentheses SQL Server wraps
// around default and computed definitions.
func stripParentheses(s string) string {
	s = strings.TrimSpace(s)
	for len(s) >= 2 && s[0] == '(' && s[len(s)-1] == ')' && balanced(s[1:len(s)-1]) {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}

func balanced(s string) bool {
	depth := 0
	inString := false
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '\'':
			inString = !inString
		case inString:
		case s[i] == '(':
			depth++
		case s[i] == ')':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0
}
