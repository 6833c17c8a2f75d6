package db

import (
	"github.com/tordrt/dbscaffold/internal/logging"
	"github.com/tordrt/dbscaffold/internal/schema"
)

// modelBuilder groups catalog rows by owning table and resolves column names
// into ordinals. Table lookup is case-sensitive; column lookup falls back to
// a case-insensitive match.
type modelBuilder struct {
	model  *schema.DatabaseModel
	tables map[schema.TableRef]*schema.DatabaseTable
	events *logging.Events
}

func newModelBuilder(events *logging.Events) *modelBuilder {
	return &modelBuilder{
		model:  &schema.DatabaseModel{},
		tables: map[schema.TableRef]*schema.DatabaseTable{},
		events: events,
	}
}

func (b *modelBuilder) table(schemaName, name string) *schema.DatabaseTable {
	return b.tables[schema.TableRef{Schema: schemaName, Name: name}]
}

func (b *modelBuilder) addSequences(seqs []*schema.DatabaseSequence) {
	for _, s := range seqs {
		b.events.SequenceFound(logging.Qualify(s.Schema, s.Name), s.StoreType)
		b.model.Sequences = append(b.model.Sequences, s)
	}
}

func (b *modelBuilder) addTables(ts []*schema.DatabaseTable) {
	for _, t := range ts {
		ref := t.Ref()
		if _, dup := b.tables[ref]; dup {
			continue
		}
		b.events.TableFound(t.Schema, t.Name)
		b.tables[ref] = t
		b.model.Tables = append(b.model.Tables, t)
	}
}

func (b *modelBuilder) addColumns(rows []columnRow) {
	for _, r := range rows {
		t := b.table(r.schema, r.table)
		if t == nil {
			continue
		}
		c := r.column
		b.events.ColumnFound(logging.Qualify(t.Schema, t.Name), c.Name, c.StoreType, c.IsNullable)
		t.Columns = append(t.Columns, c)
	}
}

// resolve maps column names to ordinals. It returns the first name that
// cannot be resolved.
func resolve(t *schema.DatabaseTable, names []string) ([]int, string, bool) {
	ordinals := make([]int, 0, len(names))
	for _, n := range names {
		i, ok := t.ColumnOrdinal(n)
		if !ok {
			return nil, n, false
		}
		ordinals = append(ordinals, i)
	}
	return ordinals, "", true
}

type objectKey struct {
	schema, table, name string
}

// mergeKeys joins rows of the same constraint, keeping first-seen order.
func mergeKeys(rows []keyRow) []keyRow {
	var out []keyRow
	at := map[objectKey]int{}
	for _, r := range rows {
		k := objectKey{r.schema, r.table, r.name}
		if i, ok := at[k]; ok {
			out[i].columns = append(out[i].columns, r.columns...)
			continue
		}
		at[k] = len(out)
		out = append(out, r)
	}
	return out
}

func (b *modelBuilder) addKeys(rows []keyRow) {
	for _, r := range mergeKeys(rows) {
		t := b.table(r.schema, r.table)
		if t == nil {
			continue
		}
		qualified := logging.Qualify(t.Schema, t.Name)
		ordinals, missing, ok := resolve(t, r.columns)
		if !ok {
			b.events.IndexColumnMissingWarning(r.name, qualified, missing)
			continue
		}
		if r.primary {
			b.events.PrimaryKeyFound(r.name, qualified)
			t.PrimaryKey = &schema.DatabasePrimaryKey{Name: r.name, Columns: ordinals, Annotations: r.annotations}
			continue
		}
		b.events.UniqueConstraintFound(r.name, qualified)
		t.UniqueConstraints = append(t.UniqueConstraints, &schema.DatabaseUniqueConstraint{
			Name:        r.name,
			Columns:     ordinals,
			Annotations: r.annotations,
		})
	}
}

func (b *modelBuilder) addIndexes(rows []indexRow) {
	var merged []indexRow
	at := map[objectKey]int{}
	for _, r := range rows {
		k := objectKey{r.schema, r.table, r.name}
		if i, ok := at[k]; ok {
			merged[i].columns = append(merged[i].columns, r.columns...)
			continue
		}
		at[k] = len(merged)
		merged = append(merged, r)
	}

	for _, r := range merged {
		t := b.table(r.schema, r.table)
		if t == nil {
			continue
		}
		ordinals, missing, ok := resolve(t, r.columns)
		if !ok {
			b.events.IndexColumnMissingWarning(r.name, logging.Qualify(t.Schema, t.Name), missing)
			continue
		}
		b.events.IndexFound(r.name, logging.Qualify(t.Schema, t.Name), r.unique)
		t.Indexes = append(t.Indexes, &schema.DatabaseIndex{
			Name:        r.name,
			Columns:     ordinals,
			IsUnique:    r.unique,
			Filter:      r.filter,
			Annotations: r.annotations,
		})
	}
}

func (b *modelBuilder) addForeignKeys(rows []foreignKeyRow) {
	type fkKey struct{ schema, table, id string }
	var merged []foreignKeyRow
	at := map[fkKey]int{}
	for _, r := range rows {
		k := fkKey{r.schema, r.table, r.groupID()}
		if i, ok := at[k]; ok {
			merged[i].columns = append(merged[i].columns, r.columns...)
			merged[i].principalColumns = append(merged[i].principalColumns, r.principalColumns...)
			continue
		}
		at[k] = len(merged)
		merged = append(merged, r)
	}

	for _, r := range merged {
		t := b.table(r.schema, r.table)
		if t == nil {
			continue
		}
		if fk := b.foreignKey(t, r); fk != nil {
			t.ForeignKeys = append(t.ForeignKeys, fk)
		}
	}
}

// foreignKey resolves one constraint or returns nil after reporting why it
// was dropped.
func (b *modelBuilder) foreignKey(t *schema.DatabaseTable, r foreignKeyRow) *schema.DatabaseForeignKey {
	qualified := logging.Qualify(t.Schema, t.Name)
	principalName := logging.Qualify(r.principalSchema, r.principalTable)

	principal := b.table(r.principalSchema, r.principalTable)
	if principal == nil {
		b.events.ForeignKeyReferencesMissingPrincipalTableWarning(r.name, qualified, principalName)
		return nil
	}

	fk := &schema.DatabaseForeignKey{
		Name:           r.name,
		PrincipalTable: principal.Ref(),
		OnDelete:       schema.ParseReferentialAction(r.onDelete),
	}
	for i, name := range r.columns {
		col, ok := t.ColumnOrdinal(name)
		if !ok {
			b.events.ForeignKeyColumnMissingWarning(r.name, qualified, name)
			return nil
		}

		var principalCol int
		if i < len(r.principalColumns) && r.principalColumns[i] != "" {
			principalCol, ok = principal.ColumnOrdinal(r.principalColumns[i])
		} else if principal.PrimaryKey != nil && i < len(principal.PrimaryKey.Columns) {
			// an omitted principal column refers to the primary key
			principalCol, ok = principal.PrimaryKey.Columns[i], true
		} else {
			ok = false
		}
		if !ok {
			missing := ""
			if i < len(r.principalColumns) {
				missing = r.principalColumns[i]
			}
			b.events.ForeignKeyPrincipalColumnMissingWarning(r.name, qualified, missing, principalName)
			return nil
		}

		fk.Columns = append(fk.Columns, col)
		fk.PrincipalColumns = append(fk.PrincipalColumns, principalCol)
	}

	onDelete := ""
	if fk.OnDelete != nil {
		onDelete = fk.OnDelete.String()
	}
	b.events.ForeignKeyFound(r.name, qualified, principalName, onDelete)
	return fk
}

// warnUnmatched reports requested schemas and tables the catalog did not
// return.
func (b *modelBuilder) warnUnmatched(f *Filter, implicitSchema string) {
	if f.Empty() {
		return
	}
	for _, s := range f.Schemas {
		if !b.hasSchema(s, implicitSchema) {
			b.events.MissingSchemaWarning(s)
		}
	}
	for _, tn := range f.Tables {
		found := false
		for _, t := range b.model.Tables {
			if tn.matchesTable(t.Schema, t.Name, implicitSchema) {
				found = true
				break
			}
		}
		if !found {
			b.events.MissingTableWarning(tn.String())
		}
	}
}

func (b *modelBuilder) hasSchema(s, implicitSchema string) bool {
	matches := func(objSchema string) bool {
		return objSchema == s || (objSchema == "" && s == implicitSchema)
	}
	for _, t := range b.model.Tables {
		if matches(t.Schema) {
			return true
		}
	}
	for _, seq := range b.model.Sequences {
		if matches(seq.Schema) {
			return true
		}
	}
	return false
}
