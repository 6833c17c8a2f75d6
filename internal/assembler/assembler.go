// Package assembler turns a DatabaseModel into a metadata Model: tables
// become entities, columns properties, constraints keys, indexes and
// relationships.
package assembler

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/tordrt/dbscaffold/internal/annotation"
	"github.com/tordrt/dbscaffold/internal/logging"
	"github.com/tordrt/dbscaffold/internal/metadata"
	"github.com/tordrt/dbscaffold/internal/naming"
	"github.com/tordrt/dbscaffold/internal/schema"
	"github.com/tordrt/dbscaffold/internal/typemap"
)

// Options control naming
type Options struct {
	// UseDatabaseNames keeps identifiers as in the database, only made
	// valid
	UseDatabaseNames bool
	// NoPluralize disables singular entity and plural DbSet names
	NoPluralize bool
	// ContextName is reserved so no entity or DbSet takes it
	ContextName string
}

// Assembler builds metadata models for one provider
type Assembler struct {
	types  *typemap.Source
	opts   Options
	events *logging.Events
}

// New creates an assembler. A nil events discards.
func New(types *typemap.Source, opts Options, events *logging.Events) *Assembler {
	if events == nil {
		events = logging.Discard()
	}
	return &Assembler{types: types, opts: opts, events: events}
}

// mapped links a table to its entity. columns holds the property name of
// each column ordinal, "" for skipped columns.
type mapped struct {
	table   *schema.DatabaseTable
	entity  *metadata.EntityType
	columns []string
	members *naming.Uniquifier
}

// properties resolves column ordinals to property names. It returns the
// first column that has no property.
func (m *mapped) properties(ordinals []int) ([]string, string, bool) {
	out := make([]string, len(ordinals))
	for i, o := range ordinals {
		if m.columns[o] == "" {
			return nil, m.table.Columns[o].Name, false
		}
		out[i] = m.columns[o]
	}
	return out, "", true
}

type assembly struct {
	*Assembler
	db     *schema.DatabaseModel
	model  *metadata.Model
	tables map[schema.TableRef]*mapped
	order  []*mapped
}

// Assemble builds the metadata model of dbm
func (a *Assembler) Assemble(dbm *schema.DatabaseModel) (*metadata.Model, error) {
	if dbm == nil {
		return nil, errors.New("assembler: nil database model")
	}
	as := &assembly{
		Assembler: a,
		db:        dbm,
		model:     &metadata.Model{Annotations: metadata.Annotations{}},
		tables:    map[schema.TableRef]*mapped{},
	}

	if dbm.DatabaseName != "" {
		as.model.Annotations[annotation.DatabaseName] = dbm.DatabaseName
	}
	if dbm.DefaultSchema != "" {
		as.model.Annotations[annotation.DefaultSchema] = dbm.DefaultSchema
	}
	as.modelDefaults()

	as.sequences()
	as.entities()
	for _, m := range as.order {
		as.keys(m)
	}
	for _, m := range as.order {
		as.foreignKeys(m)
	}
	as.joinEntities()
	for _, m := range as.order {
		if !m.entity.IsJoinEntity {
			as.navigations(m)
		}
	}

	return as.model, nil
}

// modelDefaults lifts the most common MySQL character set and collation to
// the model so only deviating tables and columns carry them.
func (as *assembly) modelDefaults() {
	collations := map[string]int{}
	charSets := map[string]int{}
	for _, t := range as.db.Tables {
		if c, ok := t.Annotations[annotation.MySQLCollation].(string); ok {
			collations[c]++
		}
		for _, col := range t.Columns {
			if c, ok := col.Annotations[annotation.MySQLCharSet].(string); ok {
				charSets[c]++
			}
		}
	}
	if c := mostCommon(collations); c != "" {
		as.model.Annotations[annotation.MySQLCollation] = c
	}
	if c := mostCommon(charSets); c != "" {
		as.model.Annotations[annotation.MySQLCharSet] = c
	}
}

func mostCommon(counts map[string]int) string {
	best := ""
	for _, k := range slices.Sorted(maps.Keys(counts)) {
		if best == "" || counts[k] > counts[best] {
			best = k
		}
	}
	return best
}

func (as *assembly) identifier(name string) string {
	if as.opts.UseDatabaseNames {
		return naming.Identifier(name)
	}
	return naming.Pascal(name)
}

func (as *assembly) sequences() {
	for _, s := range as.db.Sequences {
		clr := "long"
		if m, ok := as.types.Find(s.StoreType); ok {
			clr = m.ClrType
		}
		as.model.Sequences = append(as.model.Sequences, &metadata.Sequence{
			Name:        s.Name,
			Schema:      s.Schema,
			ClrType:     clr,
			StartValue:  s.StartValue,
			IncrementBy: s.IncrementBy,
			MinValue:    s.MinValue,
			MaxValue:    s.MaxValue,
			IsCyclic:    s.IsCyclic,
			Annotations: metadata.Annotations{},
		})
	}
}

func (as *assembly) entities() {
	nameCount := map[string]int{}
	for _, t := range as.db.Tables {
		nameCount[t.Name]++
	}

	entityNames := naming.NewUniquifier(as.opts.ContextName)
	dbSetNames := naming.NewUniquifier(as.opts.ContextName)

	for _, t := range as.db.Tables {
		qualified := logging.Qualify(t.Schema, t.Name)

		name := as.identifier(t.Name)
		if !as.opts.NoPluralize && !as.opts.UseDatabaseNames {
			name = naming.Singularize(name)
		}
		if nameCount[t.Name] > 1 && t.Schema != "" {
			name = as.identifier(t.Schema) + name
		}

		m := &mapped{table: t, columns: make([]string, len(t.Columns))}
		e := &metadata.EntityType{Annotations: metadata.Annotations{annotation.TableName: t.Name}}
		if t.Schema != "" {
			e.Annotations[annotation.Schema] = t.Schema
		}
		if t.Comment != "" {
			e.Annotations[annotation.Comment] = t.Comment
		}
		maps.Copy(e.Annotations, t.Annotations)
		m.entity = e

		// the name is claimed only once the table is known to map
		m.members = naming.NewUniquifier(name)
		if reason := as.properties(m); reason != "" {
			as.events.UnableToGenerateEntityType(qualified, reason)
			as.model.Unmapped = append(as.model.Unmapped, metadata.UnmappedTable{Table: qualified, Reason: reason})
			continue
		}

		e.Name = entityNames.Unique(name)
		m.members.Reserve(e.Name)
		dbSet := e.Name
		if !as.opts.NoPluralize && !as.opts.UseDatabaseNames {
			dbSet = naming.Pluralize(e.Name)
		}
		e.DbSetName = dbSetNames.Unique(dbSet)

		as.tables[t.Ref()] = m
		as.order = append(as.order, m)
		as.model.Entities = append(as.model.Entities, e)
	}
}

// properties maps the columns of m's table. It returns why the table cannot
// be mapped, or "".
func (as *assembly) properties(m *mapped) string {
	t := m.table
	qualified := logging.Qualify(t.Schema, t.Name)
	periods := periodColumns(t)

	for i, col := range t.Columns {
		if periods[col.Name] {
			continue
		}
		mapping, ok := as.types.Find(col.StoreType)
		if !ok {
			as.events.ColumnSkippedWarning(qualified, col.Name, col.StoreType)
			if t.PrimaryKey != nil && slices.Contains(t.PrimaryKey.Columns, i) {
				return fmt.Sprintf("primary key column %s has unsupported type %s", col.Name, col.StoreType)
			}
			continue
		}

		p := as.property(col, mapping)
		p.Name = m.members.Unique(as.identifier(col.Name))
		m.columns[i] = p.Name
		m.entity.Properties = append(m.entity.Properties, p)
	}

	if len(m.entity.Properties) == 0 {
		return "no columns could be mapped"
	}
	// period columns map to shadow properties
	for _, column := range []string{annotation.SqlServerTemporalPeriodStartColumn, annotation.SqlServerTemporalPeriodEndColumn} {
		if name, ok := t.Annotations[column].(string); ok && name != "" {
			m.entity.Annotations[periodProperty[column]] = m.members.Unique(as.identifier(name))
		}
	}
	return ""
}

var periodProperty = map[string]string{
	annotation.SqlServerTemporalPeriodStartColumn: annotation.SqlServerTemporalPeriodStartProperty,
	annotation.SqlServerTemporalPeriodEndColumn:   annotation.SqlServerTemporalPeriodEndProperty,
}

// periodColumns returns the names of t's temporal period columns
func periodColumns(t *schema.DatabaseTable) map[string]bool {
	out := map[string]bool{}
	for column := range periodProperty {
		if name, ok := t.Annotations[column].(string); ok && name != "" {
			out[name] = true
		}
	}
	return out
}

func (as *assembly) property(col *schema.DatabaseColumn, m typemap.Mapping) *metadata.Property {
	p := &metadata.Property{
		ClrType:     m.ClrType,
		GoType:      m.GoType,
		IsNullable:  col.IsNullable,
		IsValueType: m.IsValueType,
		Annotations: metadata.Annotations{
			annotation.ColumnName: col.Name,
			annotation.ColumnType: col.StoreType,
		},
	}
	a := p.Annotations
	maps.Copy(a, col.Annotations)

	if m.MaxLength != nil {
		a[annotation.MaxLength] = *m.MaxLength
	}
	if m.Precision != nil {
		a[annotation.Precision] = *m.Precision
	}
	if m.Scale != nil {
		a[annotation.Scale] = *m.Scale
	}
	if m.Unicode != nil {
		a[annotation.Unicode] = *m.Unicode
	}
	if m.FixedLength {
		a[annotation.FixedLength] = true
	}
	if m.RowVersion {
		a[annotation.RowVersion] = true
	}

	if col.DefaultValueSql != nil {
		a[annotation.DefaultValueSql] = *col.DefaultValueSql
		if v, ok := typemap.ParseDefault(m, *col.DefaultValueSql); ok {
			a[annotation.DefaultValue] = v
		}
	}
	if col.ComputedColumnSql != nil {
		a[annotation.ComputedColumnSql] = *col.ComputedColumnSql
		if col.IsStored != nil {
			a[annotation.IsStored] = *col.IsStored
		}
	}
	if col.ValueGenerated != nil {
		a[annotation.ValueGenerated] = valueGenerated(*col.ValueGenerated)
	}
	if col.Comment != "" {
		a[annotation.Comment] = col.Comment
	}
	if col.Collation != "" {
		a[annotation.Collation] = col.Collation
	}
	return p
}

func valueGenerated(v schema.ValueGenerated) annotation.ValueGeneratedKind {
	switch v {
	case schema.ValueGeneratedOnAdd:
		return annotation.OnAdd
	case schema.ValueGeneratedOnAddOrUpdate:
		return annotation.OnAddOrUpdate
	}
	return annotation.Never
}

// keys maps the primary key, unique constraints and indexes. Unique
// constraints become unique indexes here; foreignKeys promotes the ones
// relationships target to alternate keys.
func (as *assembly) keys(m *mapped) {
	t, e := m.table, m.entity
	qualified := logging.Qualify(t.Schema, t.Name)

	if pk := t.PrimaryKey; pk != nil {
		if props, _, ok := m.properties(pk.Columns); ok {
			e.PrimaryKey = &metadata.Key{Properties: props, Annotations: keyAnnotations(pk.Name, pk.Annotations)}
		}
	}

	for _, uc := range t.UniqueConstraints {
		props, missing, ok := m.properties(uc.Columns)
		if !ok {
			as.events.IndexColumnMissingWarning(uc.Name, qualified, missing)
			continue
		}
		e.Indexes = append(e.Indexes, &metadata.Index{
			Name:        uc.Name,
			Properties:  props,
			IsUnique:    true,
			Annotations: metadata.Annotations(uc.Annotations).Clone(),
		})
	}

	for _, ix := range t.Indexes {
		props, missing, ok := m.properties(ix.Columns)
		if !ok {
			as.events.IndexColumnMissingWarning(ix.Name, qualified, missing)
			continue
		}
		a := metadata.Annotations(ix.Annotations).Clone()
		if ix.Filter != "" {
			a[annotation.Filter] = ix.Filter
		}
		e.Indexes = append(e.Indexes, &metadata.Index{Name: ix.Name, Properties: props, IsUnique: ix.IsUnique, Annotations: a})
	}
}

func keyAnnotations(name string, extra map[string]any) metadata.Annotations {
	a := metadata.Annotations{annotation.Name: name}
	maps.Copy(a, extra)
	return a
}

func (as *assembly) foreignKeys(m *mapped) {
	t, e := m.table, m.entity
	qualified := logging.Qualify(t.Schema, t.Name)

	for _, dfk := range t.ForeignKeys {
		principal, ok := as.tables[dfk.PrincipalTable]
		if !ok {
			as.events.ForeignKeySkippedWarning(dfk.Name, qualified, "principal table "+dfk.PrincipalTable.String()+" is not mapped")
			continue
		}
		props, _, ok := m.properties(dfk.Columns)
		if !ok {
			as.events.ForeignKeySkippedWarning(dfk.Name, qualified, "a foreign key column is not mapped")
			continue
		}
		principalProps, _, ok := principal.properties(dfk.PrincipalColumns)
		if !ok {
			as.events.ForeignKeySkippedWarning(dfk.Name, qualified, "a principal column is not mapped")
			continue
		}

		isPrimary := principal.entity.PrimaryKey != nil && slices.Equal(principal.entity.PrimaryKey.Properties, principalProps)
		if !isPrimary && !as.alternateKey(principal, principalProps) {
			as.events.ForeignKeySkippedWarning(dfk.Name, qualified, "the principal columns are not a primary key or unique")
			continue
		}
		if duplicate(e, props, principal.entity.Name, principalProps) {
			continue
		}

		required := true
		for _, p := range e.PropertiesNamed(props) {
			required = required && !p.IsNullable
		}
		fk := &metadata.ForeignKey{
			DependentEntity:       e.Name,
			Properties:            props,
			PrincipalEntity:       principal.entity.Name,
			PrincipalProperties:   principalProps,
			PrincipalKeyIsPrimary: isPrimary,
			IsUnique:              isUniqueOn(e, props),
			IsRequired:            required,
			DeleteBehavior:        metadata.DeleteBehaviorFor(dfk.OnDelete),
			Annotations:           keyAnnotations(dfk.Name, dfk.Annotations),
		}
		e.ForeignKeys = append(e.ForeignKeys, fk)
	}
}

// alternateKey makes sure properties form a key of the principal,
// promoting a matching unique constraint or unique index
func (as *assembly) alternateKey(principal *mapped, properties []string) bool {
	e := principal.entity
	if e.FindKey(properties) != nil {
		return true
	}
	for i, ix := range e.Indexes {
		if !ix.IsUnique || !slices.Equal(ix.Properties, properties) {
			continue
		}
		key := &metadata.Key{Properties: properties, Annotations: keyAnnotations(ix.Name, nil)}
		if isConstraint(principal.table, ix.Name) {
			// the constraint is the key; it is not an index of its own
			e.Indexes = slices.Delete(e.Indexes, i, i+1)
			maps.Copy(key.Annotations, ix.Annotations)
		} else {
			key.Annotations[annotation.Name] = ""
		}
		e.Keys = append(e.Keys, key)
		return true
	}
	return false
}

func isConstraint(t *schema.DatabaseTable, name string) bool {
	for _, uc := range t.UniqueConstraints {
		if uc.Name == name {
			return true
		}
	}
	return false
}

func duplicate(e *metadata.EntityType, props []string, principal string, principalProps []string) bool {
	for _, fk := range e.ForeignKeys {
		if fk.PrincipalEntity == principal && slices.Equal(fk.Properties, props) && slices.Equal(fk.PrincipalProperties, principalProps) {
			return true
		}
	}
	return false
}

// isUniqueOn reports whether props are unique on e: its primary key, an
// alternate key or a unique index
func isUniqueOn(e *metadata.EntityType, props []string) bool {
	if e.FindKey(props) != nil {
		return true
	}
	for _, ix := range e.Indexes {
		if ix.IsUnique && slices.Equal(ix.Properties, props) {
			return true
		}
	}
	return false
}

// joinEntities marks pure join tables: a composite primary key made of
// exactly two required, non-unique, disjoint foreign keys, no other
// columns, and no relationship pointing at the table.
func (as *assembly) joinEntities() {
	for _, m := range as.order {
		e := m.entity
		if !isJoinEntity(as.model, e) {
			continue
		}
		e.IsJoinEntity = true
		e.DbSetName = ""

		left, right := e.ForeignKeys[0], e.ForeignKeys[1]
		leftEntity := as.model.Entity(left.PrincipalEntity)
		rightEntity := as.model.Entity(right.PrincipalEntity)
		leftMembers := as.tableOf(leftEntity).members
		rightMembers := as.tableOf(rightEntity).members

		leftNav := leftMembers.Unique(as.collectionName(rightEntity.Name))
		if leftEntity == rightEntity {
			rightMembers = leftMembers
		}
		rightNav := rightMembers.Unique(as.collectionName(leftEntity.Name))

		leftEntity.SkipNavigations = append(leftEntity.SkipNavigations, &metadata.SkipNavigation{
			Name:         leftNav,
			TargetEntity: rightEntity.Name,
			JoinEntity:   e.Name,
			Inverse:      rightNav,
			ForeignKey:   left,
			IsLeft:       true,
		})
		rightEntity.SkipNavigations = append(rightEntity.SkipNavigations, &metadata.SkipNavigation{
			Name:         rightNav,
			TargetEntity: leftEntity.Name,
			JoinEntity:   e.Name,
			Inverse:      leftNav,
			ForeignKey:   right,
		})
	}
}

func isJoinEntity(model *metadata.Model, e *metadata.EntityType) bool {
	if e.PrimaryKey == nil || len(e.PrimaryKey.Properties) < 2 {
		return false
	}
	if len(e.Properties) != len(e.PrimaryKey.Properties) {
		return false
	}
	if len(e.ForeignKeys) != 2 {
		return false
	}
	a, b := e.ForeignKeys[0], e.ForeignKeys[1]
	if !a.IsRequired || !b.IsRequired || a.IsUnique || b.IsUnique || a.Overlaps(b) {
		return false
	}
	if a.IsSelfReferencing() || b.IsSelfReferencing() {
		return false
	}
	union := append(slices.Clone(a.Properties), b.Properties...)
	slices.Sort(union)
	pk := slices.Sorted(slices.Values(e.PrimaryKey.Properties))
	if !slices.Equal(union, pk) {
		return false
	}
	return len(model.ReferencingForeignKeys(e.Name)) == 0
}

func (as *assembly) tableOf(e *metadata.EntityType) *mapped {
	for _, m := range as.order {
		if m.entity == e {
			return m
		}
	}
	return nil
}

func (as *assembly) collectionName(entity string) string {
	if as.opts.NoPluralize || as.opts.UseDatabaseNames {
		return entity
	}
	return naming.Pluralize(entity)
}

// navigations adds both ends of every relationship declared on m
func (as *assembly) navigations(m *mapped) {
	e := m.entity
	for _, fk := range e.ForeignKeys {
		principal := as.model.Entity(fk.PrincipalEntity)
		pm := as.tableOf(principal)

		dependentNav := m.members.Unique(dependentNavigationName(fk, principal.Name))
		fk.DependentNavigation = dependentNav
		e.Navigations = append(e.Navigations, &metadata.Navigation{
			Name:         dependentNav,
			TargetEntity: principal.Name,
			OnDependent:  true,
			ForeignKey:   fk,
		})

		var inverse string
		switch {
		case fk.IsSelfReferencing():
			inverse = "Inverse" + dependentNav
		case fk.IsUnique:
			inverse = e.Name
		case as.relationshipsBetween(e, principal.Name) > 1:
			inverse = dependentNav + as.collectionName(e.Name)
		default:
			inverse = as.collectionName(e.Name)
		}
		fk.PrincipalNavigation = pm.members.Unique(inverse)
		principal.Navigations = append(principal.Navigations, &metadata.Navigation{
			Name:         fk.PrincipalNavigation,
			TargetEntity: e.Name,
			IsCollection: !fk.IsUnique,
			ForeignKey:   fk,
		})
	}
}

func (as *assembly) relationshipsBetween(e *metadata.EntityType, principal string) int {
	n := 0
	for _, fk := range e.ForeignKeys {
		if fk.PrincipalEntity == principal {
			n++
		}
	}
	return n
}

// dependentNavigationName derives the reference navigation from a single
// foreign key property named like CustomerId, falling back to the
// principal's name
func dependentNavigationName(fk *metadata.ForeignKey, principal string) string {
	if len(fk.Properties) == 1 {
		p := fk.Properties[0]
		if len(p) > 2 && strings.EqualFold(p[len(p)-2:], "id") {
			stripped := strings.TrimRight(p[:len(p)-2], "_")
			if stripped != "" {
				return stripped
			}
		}
	}
	return principal
}
