package schema

import "strings"

// DatabaseModel represents a complete introspected database catalog
type DatabaseModel struct {
	DatabaseName  string
	DefaultSchema string
	Tables        []*DatabaseTable
	Sequences     []*DatabaseSequence
}

// TableRef identifies a table inside a DatabaseModel
type TableRef struct {
	Schema string
	Name   string
}

// String renders the reference as schema.name, or name when unqualified
func (r TableRef) String() string {
	if r.Schema == "" {
		return r.Name
	}
	return r.Schema + "." + r.Name
}

// Table returns the table identified by ref, or nil
func (m *DatabaseModel) Table(ref TableRef) *DatabaseTable {
	for _, t := range m.Tables {
		if t.Schema == ref.Schema && t.Name == ref.Name {
			return t
		}
	}
	return nil
}

// DatabaseTable represents a database table
type DatabaseTable struct {
	Schema            string
	Name              string
	Comment           string
	Columns           []*DatabaseColumn
	PrimaryKey        *DatabasePrimaryKey
	UniqueConstraints []*DatabaseUniqueConstraint
	Indexes           []*DatabaseIndex
	ForeignKeys       []*DatabaseForeignKey
	Annotations       map[string]any
}

// Ref returns the identity of the table
func (t *DatabaseTable) Ref() TableRef {
	return TableRef{Schema: t.Schema, Name: t.Name}
}

// Column returns the column at ordinal i
func (t *DatabaseTable) Column(i int) *DatabaseColumn {
	return t.Columns[i]
}

// ColumnOrdinal resolves a column name. The exact-case match wins; when none
// exists the first case-insensitive match is used.
func (t *DatabaseTable) ColumnOrdinal(name string) (int, bool) {
	for i, c := range t.Columns {
		if c.Name == name {
			return i, true
		}
	}
	for i, c := range t.Columns {
		if strings.EqualFold(c.Name, name) {
			return i, true
		}
	}
	return -1, false
}

// ColumnsAt resolves ordinals to columns
func (t *DatabaseTable) ColumnsAt(ordinals []int) []*DatabaseColumn {
	cols := make([]*DatabaseColumn, len(ordinals))
	for i, o := range ordinals {
		cols[i] = t.Columns[o]
	}
	return cols
}

// ColumnNames returns the names of the columns at the given ordinals
func (t *DatabaseTable) ColumnNames(ordinals []int) []string {
	names := make([]string, len(ordinals))
	for i, o := range ordinals {
		names[i] = t.Columns[o].Name
	}
	return names
}

// ValueGenerated describes when the database generates a column value
type ValueGenerated int

const (
	ValueGeneratedNever ValueGenerated = iota
	ValueGeneratedOnAdd
	ValueGeneratedOnAddOrUpdate
)

// DatabaseColumn represents a table column
type DatabaseColumn struct {
	Name              string
	StoreType         string
	IsNullable        bool
	DefaultValueSql   *string
	ComputedColumnSql *string
	IsStored          *bool
	ValueGenerated    *ValueGenerated
	Comment           string
	Collation         string
	Annotations       map[string]any
}

// SetComputed records a computed column expression and clears any default,
// the two are mutually exclusive.
func (c *DatabaseColumn) SetComputed(sql string, stored *bool) {
	c.ComputedColumnSql = &sql
	c.IsStored = stored
	c.DefaultValueSql = nil
}

// DatabasePrimaryKey represents a primary key constraint
type DatabasePrimaryKey struct {
	Name        string
	Columns     []int
	Annotations map[string]any
}

// DatabaseUniqueConstraint represents a unique constraint
type DatabaseUniqueConstraint struct {
	Name        string
	Columns     []int
	Annotations map[string]any
}

// DatabaseIndex represents a database index
type DatabaseIndex struct {
	Name        string
	Columns     []int
	IsUnique    bool
	Filter      string
	Annotations map[string]any
}

// ReferentialAction is the action taken on delete of a principal row
type ReferentialAction int

const (
	NoAction ReferentialAction = iota
	Restrict
	Cascade
	SetNull
	SetDefault
)

// ParseReferentialAction maps catalog rule text (e.g. "SET NULL", "CASCADE")
// to a ReferentialAction. Unknown rules yield nil.
func ParseReferentialAction(rule string) *ReferentialAction {
	var a ReferentialAction
	rule = strings.TrimSpace(rule)
	if len(rule) == 1 {
		// pg_constraint.confdeltype codes
		rule = map[string]string{"a": "NO ACTION", "r": "RESTRICT", "c": "CASCADE", "n": "SET NULL", "d": "SET DEFAULT"}[rule]
	}
	switch strings.ToUpper(strings.ReplaceAll(rule, "_", " ")) {
	case "NO ACTION":
		a = NoAction
	case "RESTRICT":
		a = Restrict
	case "CASCADE":
		a = Cascade
	case "SET NULL":
		a = SetNull
	case "SET DEFAULT":
		a = SetDefault
	default:
		return nil
	}
	return &a
}

func (a ReferentialAction) String() string {
	switch a {
	case Restrict:
		return "RESTRICT"
	case Cascade:
		return "CASCADE"
	case SetNull:
		return "SET NULL"
	case SetDefault:
		return "SET DEFAULT"
	default:
		return "NO ACTION"
	}
}

// DatabaseForeignKey represents a foreign key constraint. Columns index into
// the owning table, PrincipalColumns into the principal table.
type DatabaseForeignKey struct {
	Name             string
	PrincipalTable   TableRef
	OnDelete         *ReferentialAction
	Columns          []int
	PrincipalColumns []int
	Annotations      map[string]any
}

// DatabaseSequence represents a database sequence
type DatabaseSequence struct {
	Schema      string
	Name        string
	StoreType   string
	StartValue  *int64
	IncrementBy *int64
	MinValue    *int64
	MaxValue    *int64
	IsCyclic    bool
}
