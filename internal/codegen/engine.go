// Package codegen diffs the metadata model against the runtime conventions
// and renders what the conventions would not infer as configuration
// fragments: fluent calls and their attribute equivalents.
package codegen

import (
	"math"
	"slices"

	"github.com/tordrt/dbscaffold/internal/annotation"
	"github.com/tordrt/dbscaffold/internal/conventions"
	"github.com/tordrt/dbscaffold/internal/db"
	"github.com/tordrt/dbscaffold/internal/fragment"
	"github.com/tordrt/dbscaffold/internal/metadata"
	"github.com/tordrt/dbscaffold/internal/typemap"
)

// Engine produces the configuration of one model. It holds no state
// between calls.
type Engine struct {
	oracle   conventions.Oracle
	provider Provider
}

// NewEngine creates an engine for a model's oracle and provider
func NewEngine(oracle conventions.Oracle, provider Provider) *Engine {
	return &Engine{oracle: oracle, provider: provider}
}

// Member names a property or navigation of an entity class
type Member struct {
	Entity string
	Name   string
}

// Result is the configuration of one metadata object. Fluent calls are in
// rendering order. Attributes are class attributes; Members holds the
// attributes of class members.
type Result struct {
	Fluent     []fragment.FluentAPI
	Attributes []fragment.Attribute
	Members    map[Member][]fragment.Attribute
}

// Empty reports whether there is nothing to render
func (r Result) Empty() bool {
	return len(r.Fluent) == 0 && len(r.Attributes) == 0 && len(r.Members) == 0
}

func (r *Result) member(entity, name string, attrs ...fragment.Attribute) {
	if r.Members == nil {
		r.Members = map[Member][]fragment.Attribute{}
	}
	m := Member{Entity: entity, Name: name}
	r.Members[m] = append(r.Members[m], attrs...)
}

// UseProvider is the OnConfiguring options call for connString
func (g *Engine) UseProvider(connString string) *fragment.MethodCall {
	return g.provider.UseProvider(connString)
}

// workingSet clones obj's annotations minus those the conventions produce
func (g *Engine) workingSet(obj metadata.Annotatable) metadata.Annotations {
	ws := metadata.Annotations(obj.GetAnnotations()).Clone()
	for _, name := range ws.Names() {
		if g.oracle.IsHandledByConvention(obj, metadata.Annotation{Name: name, Value: ws[name]}) {
			delete(ws, name)
		}
	}
	return ws
}

// configure consumes ws: relational emitters, then the provider's, then
// HasAnnotation for whatever is left, by name.
func (g *Engine) configure(kind Kind, t Target, ws metadata.Annotations) ([]*fragment.MethodCall, error) {
	calls, err := apply(relational(kind), t, ws)
	if err != nil {
		return nil, err
	}
	provided, err := apply(g.provider.Emitters(kind), t, ws)
	if err != nil {
		return nil, err
	}
	calls = append(calls, provided...)
	for _, name := range ws.Names() {
		calls = append(calls, call("HasAnnotation", name, ws[name]))
		delete(ws, name)
	}
	return calls, nil
}

// Model returns the model level calls, to be chained on the model builder
func (g *Engine) Model(m *metadata.Model) (Result, error) {
	calls, err := g.configure(ModelKind, Target{Model: m}, g.workingSet(m))
	if err != nil {
		return Result{}, err
	}
	var r Result
	for _, c := range calls {
		r.Fluent = append(r.Fluent, fragment.Fluent(c))
	}
	return r, nil
}

// Entity returns the entity level statements such as ToTable and
// HasComment. Keys, indexes and relationships have their own methods.
func (g *Engine) Entity(m *metadata.Model, e *metadata.EntityType) (Result, error) {
	calls, err := g.configure(EntityKind, Target{Model: m, Entity: e}, g.workingSet(e))
	if err != nil {
		return Result{}, err
	}
	var r Result
	for _, c := range mergeToTable(calls) {
		f := fragment.Fluent(c)
		if attr, ok := entityAttribute(c); ok {
			r.Attributes = append(r.Attributes, attr)
			f = f.HandledByDataAnnotations()
		}
		r.Fluent = append(r.Fluent, f)
	}
	return r, nil
}

// mergeToTable folds several ToTable calls into the first one, so a table
// name and a table builder closure end up in one ToTable(name, schema, tb => ...)
func mergeToTable(calls []*fragment.MethodCall) []*fragment.MethodCall {
	first := -1
	var args []any
	out := calls[:0:0]
	for _, c := range calls {
		if c.Method != "ToTable" {
			out = append(out, c)
			continue
		}
		if first < 0 {
			first = len(out)
			out = append(out, c)
		}
		args = append(args, c.Args...)
	}
	if first >= 0 {
		out[first] = call("ToTable", args...)
	}
	return out
}

// Property returns the calls to chain after entity.Property(e => e.Name)
func (g *Engine) Property(m *metadata.Model, e *metadata.EntityType, p *metadata.Property) (Result, error) {
	ws := g.workingSet(p)
	applyDefaultRule(ws)
	calls, err := g.configure(PropertyKind, Target{Model: m, Entity: e, Property: p}, ws)
	if err != nil {
		return Result{}, err
	}
	if !p.IsNullable && !p.IsValueType && !e.IsPrimaryKeyProperty(p.Name) {
		calls = append([]*fragment.MethodCall{call("IsRequired")}, calls...)
	}

	var r Result
	var column fragment.Attribute
	var columnName, columnType any
	for _, c := range calls {
		f := fragment.Fluent(c)
		switch c.Method {
		case "HasColumnName":
			columnName = c.Args[0]
			f = f.HandledByDataAnnotations()
		case "HasColumnType":
			columnType = c.Args[0]
			f = f.HandledByDataAnnotations()
		default:
			if attr, ok := propertyAttribute(p, c); ok {
				r.member(e.Name, p.Name, attr)
				f = f.HandledByDataAnnotations()
			}
		}
		r.Fluent = append(r.Fluent, f)
	}
	if columnName != nil || columnType != nil {
		if columnName != nil {
			column = fragment.NewAttribute("Column", schemaAnnotations, columnName)
		} else {
			column = fragment.NewAttribute("Column", schemaAnnotations)
		}
		if columnType != nil {
			column = column.With("TypeName", columnType)
		}
		r.member(e.Name, p.Name, column)
	}
	return r, nil
}

// applyDefaultRule drops default values the runtime would assume anyway. A
// parsed default replaces its SQL; a parsed zero value is no default at all.
func applyDefaultRule(ws metadata.Annotations) {
	v, ok := ws[annotation.DefaultValue]
	if !ok {
		return
	}
	delete(ws, annotation.DefaultValueSql)
	if typemap.IsZero(v) {
		delete(ws, annotation.DefaultValue)
	}
}

// Key configures the primary key k of e, an alternate key, or, when k is
// nil, the absence of a key.
func (g *Engine) Key(m *metadata.Model, e *metadata.EntityType, k *metadata.Key) (Result, error) {
	var r Result
	if k == nil {
		r.Fluent = []fragment.FluentAPI{fragment.Fluent(call("HasNoKey")).HandledByDataAnnotations()}
		r.Attributes = []fragment.Attribute{fragment.NewAttribute("Keyless", efNamespace)}
		return r, nil
	}
	calls, err := g.configure(KeyKind, Target{Model: m, Entity: e}, g.workingSet(k))
	if err != nil {
		return Result{}, err
	}
	selector := fragment.Lambda("e", k.Properties...)
	if k != e.PrimaryKey {
		r.Fluent = []fragment.FluentAPI{fragment.Fluent(chain(call("HasAlternateKey", selector), calls))}
		return r, nil
	}

	if len(calls) == 0 && sameProperties(g.oracle.DiscoverKeyProperties(e, e.Properties), k.Properties) {
		return r, nil
	}
	f := fragment.Fluent(chain(call("HasKey", selector), calls))
	if len(calls) == 0 {
		if len(k.Properties) == 1 {
			r.member(e.Name, k.Properties[0], fragment.NewAttribute("Key", dataAnnotations))
		} else {
			r.Attributes = append(r.Attributes, fragment.NewAttribute("PrimaryKey", efNamespace, stringArgs(k.Properties)...))
		}
		f = f.HandledByDataAnnotations()
	}
	r.Fluent = []fragment.FluentAPI{f}
	return r, nil
}

func sameProperties(discovered []*metadata.Property, names []string) bool {
	if len(discovered) != len(names) {
		return false
	}
	for i, p := range discovered {
		if p.Name != names[i] {
			return false
		}
	}
	return true
}

// Index returns entity.HasIndex(...) with its configuration
func (g *Engine) Index(m *metadata.Model, e *metadata.EntityType, ix *metadata.Index) (Result, error) {
	calls, err := g.configure(IndexKind, Target{Model: m, Entity: e}, g.workingSet(ix))
	if err != nil {
		return Result{}, err
	}
	head := call("HasIndex", fragment.Lambda("e", ix.Properties...))
	if ix.Name != "" {
		head = call("HasIndex", fragment.Lambda("e", ix.Properties...), ix.Name)
	}
	if ix.IsUnique {
		calls = append([]*fragment.MethodCall{call("IsUnique")}, calls...)
	}

	var r Result
	f := fragment.Fluent(chain(head, calls))
	if !slices.ContainsFunc(calls, func(c *fragment.MethodCall) bool { return c.Method != "IsUnique" }) {
		attr := fragment.NewAttribute("Index", efNamespace, stringArgs(ix.Properties)...)
		if ix.Name != "" {
			attr = attr.With("Name", ix.Name)
		}
		if ix.IsUnique {
			attr = attr.With("IsUnique", true)
		}
		r.Attributes = append(r.Attributes, attr)
		f = f.HandledByDataAnnotations()
	}
	r.Fluent = []fragment.FluentAPI{f}
	return r, nil
}

// ForeignKey returns the relationship statement declared from the
// dependent side: HasOne(...).WithMany(...)...
func (g *Engine) ForeignKey(m *metadata.Model, e *metadata.EntityType, fk *metadata.ForeignKey) (Result, error) {
	calls, err := g.configure(ForeignKeyKind, Target{Model: m, Entity: e}, g.workingSet(fk))
	if err != nil {
		return Result{}, err
	}

	hasOne := call("HasOne").WithTypeArgs(fk.PrincipalEntity)
	if fk.DependentNavigation != "" {
		hasOne = call("HasOne", fragment.Lambda("d", fk.DependentNavigation))
	}
	withMethod := "WithMany"
	if fk.IsUnique {
		withMethod = "WithOne"
	}
	with := call(withMethod)
	if fk.PrincipalNavigation != "" {
		with = call(withMethod, fragment.Lambda("p", fk.PrincipalNavigation))
	}
	var principalKey *fragment.MethodCall
	if !fk.PrincipalKeyIsPrimary {
		principalKey = call("HasPrincipalKey", fragment.Lambda("p", fk.PrincipalProperties...))
		if fk.IsUnique {
			principalKey = principalKey.WithTypeArgs(fk.PrincipalEntity)
		}
	}
	hasForeignKey := call("HasForeignKey", fragment.Lambda("d", fk.Properties...))
	if fk.IsUnique {
		hasForeignKey = hasForeignKey.WithTypeArgs(e.Name)
	}
	var onDelete *fragment.MethodCall
	if fk.DeleteBehavior != metadata.DefaultDeleteBehavior(fk.IsRequired) {
		onDelete = call("OnDelete", fk.DeleteBehavior)
	}

	stmt := chain(fragment.Chain(hasOne, with, principalKey, hasForeignKey, onDelete), calls)
	f := fragment.Fluent(stmt)

	var r Result
	if fk.DependentNavigation != "" && principalKey == nil && onDelete == nil && len(calls) == 0 {
		r.member(e.Name, fk.DependentNavigation,
			fragment.NewAttribute("ForeignKey", schemaAnnotations, joinNames(fk.Properties)))
		if fk.PrincipalNavigation != "" {
			r.member(e.Name, fk.DependentNavigation,
				fragment.NewAttribute("InverseProperty", schemaAnnotations, fragment.NameOf(fk.PrincipalEntity+"."+fk.PrincipalNavigation)))
			r.member(fk.PrincipalEntity, fk.PrincipalNavigation,
				fragment.NewAttribute("InverseProperty", schemaAnnotations, fragment.NameOf(e.Name+"."+fk.DependentNavigation)))
		}
		f = f.HandledByDataAnnotations()
	}
	r.Fluent = []fragment.FluentAPI{f}
	return r, nil
}

// ManyToMany renders the relationship behind a left skip navigation of e:
// HasMany(...).WithMany(...).UsingEntity<Dictionary<string, object>>(...)
func (g *Engine) ManyToMany(m *metadata.Model, e *metadata.EntityType, skip *metadata.SkipNavigation) (Result, error) {
	join := m.Entity(skip.JoinEntity)
	if join == nil || len(join.ForeignKeys) != 2 {
		return Result{}, &InternalConsistencyError{Object: e.Name + "." + skip.Name, Message: "join entity " + skip.JoinEntity + " is not a pure join entity"}
	}
	left := skip.ForeignKey
	right := join.ForeignKeys[0]
	if right == left {
		right = join.ForeignKeys[1]
	}

	rightSide, err := g.joinSide(m, join, "r", right)
	if err != nil {
		return Result{}, err
	}
	leftSide, err := g.joinSide(m, join, "l", left)
	if err != nil {
		return Result{}, err
	}
	body, err := g.joinBody(m, join)
	if err != nil {
		return Result{}, err
	}

	using := call("UsingEntity", join.Name, rightSide, leftSide, fragment.Closure("j", body...)).
		WithTypeArgs("Dictionary<string, object>")
	stmt := fragment.Chain(
		call("HasMany", fragment.Lambda("d", skip.Name)),
		call("WithMany", fragment.Lambda("p", skip.Inverse)),
		using,
	)
	return Result{Fluent: []fragment.FluentAPI{fragment.Fluent(stmt)}}, nil
}

// joinSide renders one foreign key of a join entity as a closure over the
// join entity builder. Join entities are property bags, so properties are
// named by string.
func (g *Engine) joinSide(m *metadata.Model, join *metadata.EntityType, param string, fk *metadata.ForeignKey) (*fragment.NestedClosure, error) {
	calls, err := g.configure(ForeignKeyKind, Target{Model: m, Entity: join}, g.workingSet(fk))
	if err != nil {
		return nil, err
	}
	var principalKey, onDelete *fragment.MethodCall
	if !fk.PrincipalKeyIsPrimary {
		principalKey = call("HasPrincipalKey", stringArgs(fk.PrincipalProperties)...)
	}
	if fk.DeleteBehavior != metadata.DefaultDeleteBehavior(fk.IsRequired) {
		onDelete = call("OnDelete", fk.DeleteBehavior)
	}
	stmt := chain(fragment.Chain(
		call("HasOne").WithTypeArgs(fk.PrincipalEntity),
		call("WithMany"),
		principalKey,
		call("HasForeignKey", stringArgs(fk.Properties)...),
		onDelete,
	), calls)
	return fragment.Closure(param, stmt), nil
}

// joinBody configures the join entity itself: key, table, indexes and any
// property that needs configuration.
func (g *Engine) joinBody(m *metadata.Model, join *metadata.EntityType) ([]*fragment.MethodCall, error) {
	var body []*fragment.MethodCall
	if join.PrimaryKey != nil {
		calls, err := g.configure(KeyKind, Target{Model: m, Entity: join}, g.workingSet(join.PrimaryKey))
		if err != nil {
			return nil, err
		}
		body = append(body, chain(call("HasKey", stringArgs(join.PrimaryKey.Properties)...), calls))
	}

	table := call("ToTable", join.TableName())
	if schema := join.Schema(); schema != "" && schema != m.DefaultSchema() {
		table = call("ToTable", join.TableName(), schema)
	}
	entity, err := g.Entity(m, join)
	if err != nil {
		return nil, err
	}
	tableCalls := []*fragment.MethodCall{table}
	for _, f := range entity.Fluent {
		if f.Method == "ToTable" {
			// keep only what the explicit table name does not cover
			f = fragment.Fluent(call("ToTable", slices.DeleteFunc(slices.Clone(f.Args), isString)...))
			if len(f.Args) == 0 {
				continue
			}
		}
		tableCalls = append(tableCalls, f.MethodCall)
	}
	body = append(body, mergeToTable(tableCalls)...)

	for _, ix := range join.Indexes {
		calls, err := g.configure(IndexKind, Target{Model: m, Entity: join}, g.workingSet(ix))
		if err != nil {
			return nil, err
		}
		args := []any{ix.Properties}
		if ix.Name != "" {
			args = append(args, ix.Name)
		}
		if ix.IsUnique {
			calls = append([]*fragment.MethodCall{call("IsUnique")}, calls...)
		}
		body = append(body, chain(call("HasIndex", args...), calls))
	}

	for _, p := range join.Properties {
		prop, err := g.Property(m, join, p)
		if err != nil {
			return nil, err
		}
		var calls []*fragment.MethodCall
		for _, f := range prop.Fluent {
			if f.Method != "IsRequired" {
				calls = append(calls, f.MethodCall)
			}
		}
		if len(calls) > 0 {
			body = append(body, chain(call("IndexerProperty", p.Name).WithTypeArgs(p.TypeName()), calls))
		}
	}
	return body, nil
}

// Sequence returns modelBuilder.HasSequence(...) with its configuration
func (g *Engine) Sequence(m *metadata.Model, s *metadata.Sequence) (Result, error) {
	head := call("HasSequence", s.Name)
	if s.Schema != "" && s.Schema != m.DefaultSchema() {
		head = call("HasSequence", s.Name, s.Schema)
	}
	if s.ClrType != "" && s.ClrType != "long" {
		head = head.WithTypeArgs(s.ClrType)
	}
	var calls []*fragment.MethodCall
	if s.StartValue != nil && *s.StartValue != 1 {
		calls = append(calls, call("StartsAt", *s.StartValue))
	}
	if s.IncrementBy != nil && *s.IncrementBy != 1 {
		calls = append(calls, call("IncrementsBy", int(*s.IncrementBy)))
	}
	lo, hi, bounded := g.sequenceBounds(s)
	if s.MinValue != nil && !(bounded && *s.MinValue == lo) {
		calls = append(calls, call("HasMin", *s.MinValue))
	}
	if s.MaxValue != nil && !(bounded && *s.MaxValue == hi) {
		calls = append(calls, call("HasMax", *s.MaxValue))
	}
	if s.IsCyclic {
		calls = append(calls, call("IsCyclic"))
	}
	ws := g.workingSet(s)
	for _, name := range ws.Names() {
		calls = append(calls, call("HasAnnotation", name, ws[name]))
	}
	return Result{Fluent: []fragment.FluentAPI{fragment.Fluent(chain(head, calls))}}, nil
}

// sequenceBounds is the range a sequence gets when it declares none: the
// range of its type. PostgreSQL ascending sequences start at 1 and
// descending ones end at -1.
func (g *Engine) sequenceBounds(s *metadata.Sequence) (lo, hi int64, ok bool) {
	switch s.ClrType {
	case "", "long":
		lo, hi = math.MinInt64, math.MaxInt64
	case "int":
		lo, hi = math.MinInt32, math.MaxInt32
	case "short":
		lo, hi = math.MinInt16, math.MaxInt16
	case "byte":
		lo, hi = 0, math.MaxUint8
	default:
		return 0, 0, false
	}
	if g.provider.Name() == db.Postgres {
		if s.IncrementBy != nil && *s.IncrementBy < 0 {
			hi = -1
		} else {
			lo = 1
		}
	}
	return lo, hi, true
}

// chain appends calls to the end of the head chain
func chain(head *fragment.MethodCall, calls []*fragment.MethodCall) *fragment.MethodCall {
	return head.Append(fragment.Chain(calls...))
}

func stringArgs(names []string) []any {
	out := make([]any, len(names))
	for i, n := range names {
		out[i] = n
	}
	return out
}

func isString(v any) bool {
	_, ok := v.(string)
	return ok
}
