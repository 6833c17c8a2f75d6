package db

import (
	"strconv"
	"strings"
)

// Filter restricts introspection to requested schemas and tables. An empty
// filter matches every object.
type Filter struct {
	Schemas []string
	Tables  []TableName
}

// BuildFilter parses the table tokens and returns the combined filter. The
// first unparsable token aborts with a *FilterSyntaxError.
func BuildFilter(tables, schemas []string) (*Filter, error) {
	f := &Filter{Schemas: schemas}
	for _, tok := range tables {
		tn, err := ParseTableName(tok)
		if err != nil {
			return nil, err
		}
		f.Tables = append(f.Tables, tn)
	}
	return f, nil
}

// Empty reports whether the filter matches everything
func (f *Filter) Empty() bool {
	return f == nil || (len(f.Schemas) == 0 && len(f.Tables) == 0)
}

// dialect describes how a provider binds parameters and concatenates text.
type dialect struct {
	placeholder func(n int) string
	concat      func(parts ...string) string
}

var (
	questionDialect = dialect{
		placeholder: func(int) string { return "?" },
		concat:      func(parts ...string) string { return strings.Join(parts, " || ") },
	}
	mysqlDialect = dialect{
		placeholder: func(int) string { return "?" },
		concat:      func(parts ...string) string { return "CONCAT(" + strings.Join(parts, ", ") + ")" },
	}
	postgresDialect = dialect{
		placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
		concat:      func(parts ...string) string { return strings.Join(parts, " || ") },
	}
	sqlServerDialect = dialect{
		placeholder: func(n int) string { return "@p" + strconv.Itoa(n) },
		concat:      func(parts ...string) string { return strings.Join(parts, " + ") },
	}
)

// binder collects query arguments and renders their placeholders.
type binder struct {
	d    dialect
	args []any
}

func newBinder(d dialect) *binder {
	return &binder{d: d}
}

func (b *binder) bind(v any) string {
	b.args = append(b.args, v)
	return b.d.placeholder(len(b.args))
}

func (b *binder) list(values []string) string {
	ph := make([]string, len(values))
	for i, v := range values {
		ph[i] = b.bind(v)
	}
	return strings.Join(ph, ", ")
}

// and renders " AND <predicate>" over the given schema and table name
// expressions, or nothing for an empty filter. Schema and table requests are
// alternatives: an object matches when it is in a requested schema or is a
// requested table.
func (f *Filter) and(b *binder, schemaExpr, nameExpr string) string {
	if f.Empty() {
		return ""
	}
	var preds []string
	if len(f.Schemas) > 0 {
		preds = append(preds, schemaExpr+" IN ("+b.list(f.Schemas)+")")
	}
	if p := f.tablePredicate(b, schemaExpr, nameExpr); p != "" {
		preds = append(preds, p)
	}
	return " AND (" + strings.Join(preds, " OR ") + ")"
}

// andSchemas renders only the schema part of the filter, used for objects
// that do not belong to a table.
func (f *Filter) andSchemas(b *binder, schemaExpr string) string {
	if f == nil || len(f.Schemas) == 0 {
		return ""
	}
	return " AND " + schemaExpr + " IN (" + b.list(f.Schemas) + ")"
}

func (f *Filter) tablePredicate(b *binder, schemaExpr, nameExpr string) string {
	var bare, qualifiedNames, qualified []string
	for _, t := range f.Tables {
		if t.Qualified() {
			qualifiedNames = append(qualifiedNames, t.Name)
			qualified = append(qualified, t.Schema+"."+t.Name)
		} else {
			bare = append(bare, t.Name)
		}
	}
	var preds []string
	if len(bare) > 0 {
		preds = append(preds, nameExpr+" IN ("+b.list(bare)+")")
	}
	if len(qualified) > 0 {
		preds = append(preds, "("+nameExpr+" IN ("+b.list(qualifiedNames)+") AND "+
			b.d.concat(schemaExpr, "'.'", nameExpr)+" IN ("+b.list(qualified)+"))")
	}
	return strings.Join(preds, " OR ")
}

// matchesTable reports whether a requested table token names the table.
// Matching is case-sensitive.
func (t TableName) matchesTable(schemaName, name, implicitSchema string) bool {
	if t.Name != name {
		return false
	}
	if !t.Qualified() {
		return true
	}
	return t.Schema == schemaName || (schemaName == "" && t.Schema == implicitSchema)
}
