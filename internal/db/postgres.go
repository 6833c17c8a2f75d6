package db

import (
	"context"
	"database/sql"
	"strings"

	"github.com/lib/pq"

	"github.com/tordrt/dbscaffold/internal/annotation"
	"github.com/tordrt/dbscaffold/internal/schema"
)

// postgresCatalog reads pg_catalog
type postgresCatalog struct {
	db *sql.DB
}

const postgresUserSchemas = `n.nspname NOT IN ('pg_catalog', 'information_schema') AND n.nspname NOT LIKE 'pg_toast%'`

func (c *postgresCatalog) databaseName(ctx context.Context) (string, error) {
	var name string
	err := c.db.QueryRowContext(ctx, "SELECT current_database()").Scan(&name)
	return name, err
}

func (c *postgresCatalog) defaultSchema(ctx context.Context) (string, error) {
	var name sql.NullString
	err := c.db.QueryRowContext(ctx, "SELECT current_schema()").Scan(&name)
	return name.String, err
}

func (c *postgresCatalog) implicitSchema() string { return "" }

func (c *postgresCatalog) sequences(ctx context.Context, f *Filter) ([]*schema.DatabaseSequence, error) {
	b := newBinder(postgresDialect)
	query := `
		SELECT
			s.schemaname,
			s.sequencename,
			s.data_type::text,
			s.start_value,
			s.increment_by,
			s.min_value,
			s.max_value,
			s.cycle
		FROM pg_sequences AS s
		JOIN pg_namespace AS n ON n.nspname = s.schemaname
		JOIN pg_class AS cl ON cl.relname = s.sequencename AND cl.relnamespace = n.oid
		WHERE NOT EXISTS (
			SELECT 1 FROM pg_depend AS d WHERE d.objid = cl.oid AND d.deptype IN ('a', 'i')
		)` + f.andSchemas(b, "s.schemaname") + `
		ORDER BY s.schemaname, s.sequencename`

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

func (c *postgresCatalog) tables(ctx context.Context, f *Filter) ([]*schema.DatabaseTable, error) {
	b := newBinder(postgresDialect)
	query := `
		SELECT n.nspname, cl.relname, obj_description(cl.oid, 'pg_class')
		FROM pg_class AS cl
		JOIN pg_namespace AS n ON n.oid = cl.relnamespace
		WHERE cl.relkind IN ('r', 'p')
			AND NOT cl.relispartition
			AND cl.relname <> '__EFMigrationsHistory'
			AND ` + postgresUserSchemas + f.and(b, "n.nspname", "cl.relname") + `
		ORDER BY n.nspname, cl.relname`

	rows, err := c.db.QueryContext(ctx, query, b.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []*schema.DatabaseTable
	for rows.Next() {
		t := &schema.DatabaseTable{}
		var comment sql.NullString
		if err := rows.Scan(&t.Schema, &t.Name, &comment); err != nil {
			return nil, err
		}
		t.Comment = comment.String
		tables = append(tables, t)
	}

	return tables, rows.Err()
}

func (c *postgresCatalog) columns(ctx context.Context, f *Filter) ([]columnRow, error) {
	b := newBinder(postgresDialect)
	query := `
		SELECT
			n.nspname,
			cl.relname,
			a.attname,
			format_type(a.atttypid, a.atttypmod),
			NOT a.attnotnull,
			pg_get_expr(d.adbin, d.adrelid),
			a.attidentity::text,
			a.attgenerated::text,
			col_description(cl.oid, a.attnum),
			co.collname
		FROM pg_attribute AS a
		JOIN pg_class AS cl ON cl.oid = a.attrelid
		JOIN pg_namespace AS n ON n.oid = cl.relnamespace
		LEFT JOIN pg_attrdef AS d ON d.adrelid = a.attrelid AND d.adnum = a.attnum
		LEFT JOIN pg_collation AS co ON co.oid = a.attcollation AND co.collname <> 'default'
		WHERE cl.relkind IN ('r', 'p')
			AND a.attnum > 0
			AND NOT a.attisdropped` + f.and(b, "n.nspname", "cl.relname") + `
		ORDER BY n.nspname, cl.relname, a.attnum`

	rows, err := c.db.QueryContext(ctx, query, b.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []columnRow
	for rows.Next() {
		var r columnRow
		var name, storeType string
		var nullable bool
		var def, identity, generated, comment, collation sql.NullString
		if err := rows.Scan(&r.schema, &r.table, &name, &storeType, &nullable, &def, &identity, &generated,
			&comment, &collation); err != nil {
			return nil, err
		}

		col := &schema.DatabaseColumn{
			Name:        name,
			StoreType:   storeType,
			IsNullable:  nullable,
			Comment:     comment.String,
			Collation:   collation.String,
			Annotations: map[string]any{},
		}
		switch {
		case generated.String == "s":
			stored := true
			col.SetComputed(def.String, &stored)
		case identity.String == "a":
			col.ValueGenerated = valueGenerated(schema.ValueGeneratedOnAdd)
			col.Annotations[annotation.NpgsqlValueGenerationStrategy] = annotation.StrategyIdentityAlwaysColumn
		case identity.String == "d":
			col.ValueGenerated = valueGenerated(schema.ValueGeneratedOnAdd)
			col.Annotations[annotation.NpgsqlValueGenerationStrategy] = annotation.StrategyIdentityByDefaultColumn
		case def.Valid && isSerialDefault(def.String, storeType):
			col.ValueGenerated = valueGenerated(schema.ValueGeneratedOnAdd)
			col.Annotations[annotation.NpgsqlValueGenerationStrategy] = annotation.StrategySerialColumn
		case def.Valid:
			col.DefaultValueSql = &def.String
		}
		r.column = col
		cols = append(cols, r)
	}

	return cols, rows.Err()
}

func isSerialDefault(def, storeType string) bool {
	switch storeType {
	case "smallint", "integer", "bigint":
		return strings.HasPrefix(def, "nextval(")
	}
	return false
}

func (c *postgresCatalog) keys(ctx context.Context, f *Filter) ([]keyRow, error) {
	b := newBinder(postgresDialect)
	query := `
		SELECT
			n.nspname,
			cl.relname,
			con.conname,
			con.contype = 'p',
			array_agg(a.attname ORDER BY k.ord)
		FROM pg_constraint AS con
		JOIN pg_class AS cl ON cl.oid = con.conrelid
		JOIN pg_namespace AS n ON n.oid = cl.relnamespace
		CROSS JOIN LATERAL unnest(con.conkey) WITH ORDINALITY AS k(attnum, ord)
		JOIN pg_attribute AS a ON a.attrelid = cl.oid AND a.attnum = k.attnum
		WHERE con.contype IN ('p', 'u')` + f.and(b, "n.nspname", "cl.relname") + `
		GROUP BY n.nspname, cl.relname, con.conname, con.contype
		ORDER BY n.nspname, cl.relname, con.conname`

	rows, err := c.db.QueryContext(ctx, query, b.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []keyRow
	for rows.Next() {
		var r keyRow
		if err := rows.Scan(&r.schema, &r.table, &r.name, &r.primary, pq.Array(&r.columns)); err != nil {
			return nil, err
		}
		keys = append(keys, r)
	}

	return keys, rows.Err()
}

func (c *postgresCatalog) indexes(ctx context.Context, f *Filter) ([]indexRow, error) {
	b := newBinder(postgresDialect)
	query := `
		SELECT
			n.nspname,
			t.relname,
			i.relname,
			ix.indisunique,
			am.amname,
			pg_get_expr(ix.indpred, ix.indrelid),
			array_agg(a.attname ORDER BY k.ord)
		FROM pg_index AS ix
		JOIN pg_class AS t ON t.oid = ix.indrelid
		JOIN pg_class AS i ON i.oid = ix.indexrelid
		JOIN pg_namespace AS n ON n.oid = t.relnamespace
		JOIN pg_am AS am ON am.oid = i.relam
		CROSS JOIN LATERAL unnest(ix.indkey) WITH ORDINALITY AS k(attnum, ord)
		JOIN pg_attribute AS a ON a.attrelid = t.oid AND a.attnum = k.attnum
		WHERE NOT ix.indisprimary
			AND NOT EXISTS (
				SELECT 1 FROM pg_constraint AS con WHERE con.conindid = ix.indexrelid AND con.contype IN ('p', 'u')
			)` + f.and(b, "n.nspname", "t.relname") + `
		GROUP BY n.nspname, t.relname, i.relname, ix.indisunique, am.amname, ix.indpred, ix.indrelid
		ORDER BY n.nspname, t.relname, i.relname`

	rows, err := c.db.QueryContext(ctx, query, b.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var indexes []indexRow
	for rows.Next() {
		var r indexRow
		var method string
		var filter sql.NullString
		if err := rows.Scan(&r.schema, &r.table, &r.name, &r.unique, &method, &filter, pq.Array(&r.columns)); err != nil {
			return nil, err
		}
		r.filter = filter.String
		if method != "btree" {
			r.annotations = map[string]any{annotation.NpgsqlIndexMethod: method}
		}
		indexes = append(indexes, r)
	}

	return indexes, rows.Err()
}

func (c *postgresCatalog) foreignKeys(ctx context.Context, f *Filter) ([]foreignKeyRow, error) {
	b := newBinder(postgresDialect)
	query := `
		SELECT
			n.nspname,
			cl.relname,
			con.conname,
			pn.nspname,
			pcl.relname,
			con.confdeltype::text,
			array_agg(a.attname ORDER BY k.ord),
			array_agg(pa.attname ORDER BY k.ord)
		FROM pg_constraint AS con
		JOIN pg_class AS cl ON cl.oid = con.conrelid
		JOIN pg_namespace AS n ON n.oid = cl.relnamespace
		JOIN pg_class AS pcl ON pcl.oid = con.confrelid
		JOIN pg_namespace AS pn ON pn.oid = pcl.relnamespace
		CROSS JOIN LATERAL unnest(con.conkey, con.confkey) WITH ORDINALITY AS k(attnum, pattnum, ord)
		JOIN pg_attribute AS a ON a.attrelid = cl.oid AND a.attnum = k.attnum
		JOIN pg_attribute AS pa ON pa.attrelid = pcl.oid AND pa.attnum = k.pattnum
		WHERE con.contype = 'f'` + f.and(b, "n.nspname", "cl.relname") + `
		GROUP BY n.nspname, cl.relname, con.conname, pn.nspname, pcl.relname, con.confdeltype
		ORDER BY n.nspname, cl.relname, con.conname`

	rows, err := c.db.QueryContext(ctx, query, b.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fks []foreignKeyRow
	for rows.Next() {
		var r foreignKeyRow
		if err := rows.Scan(&r.schema, &r.table, &r.name, &r.principalSchema, &r.principalTable, &r.onDelete,
			pq.Array(&r.columns), pq.Array(&r.principalColumns)); err != nil {
			return nil, err
		}
		fks = append(fks, r)
	}

	return fks, rows.Err()
}
