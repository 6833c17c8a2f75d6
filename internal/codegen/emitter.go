package codegen

import (
	"slices"

	"github.com/tordrt/dbscaffold/internal/annotation"
	"github.com/tordrt/dbscaffold/internal/fragment"
	"github.com/tordrt/dbscaffold/internal/metadata"
)

const efNamespace = "Microsoft.EntityFrameworkCore"

// Kind is the kind of metadata object an emitter table applies to
type Kind int

const (
	ModelKind Kind = iota
	EntityKind
	PropertyKind
	KeyKind
	IndexKind
	ForeignKeyKind
)

// Target is the object being rendered. Only the fields of its kind, and the
// owning entity, are set.
type Target struct {
	Model    *metadata.Model
	Entity   *metadata.EntityType
	Property *metadata.Property
}

// Emitter renders the annotations it is registered against into one call.
// It fires when any of them is left in the working set and consumes all of
// them. A nil call consumes without output.
type Emitter struct {
	Annotations []string
	Emit        func(t Target, ws metadata.Annotations) (*fragment.MethodCall, error)
}

// apply runs the emitters in order against ws, deleting what they consume
func apply(emitters []Emitter, t Target, ws metadata.Annotations) ([]*fragment.MethodCall, error) {
	var calls []*fragment.MethodCall
	for _, em := range emitters {
		if !slices.ContainsFunc(em.Annotations, func(n string) bool { _, ok := ws[n]; return ok }) {
			continue
		}
		call, err := em.Emit(t, ws)
		if err != nil {
			return nil, err
		}
		for _, n := range em.Annotations {
			delete(ws, n)
		}
		if call != nil {
			calls = append(calls, call)
		}
	}
	return calls, nil
}

func call(method string, args ...any) *fragment.MethodCall {
	return fragment.NewMethodCall(method, args...).Declared(efNamespace)
}

// single builds an emitter for one annotation rendered as method(value)
func single(name, method string) Emitter {
	return Emitter{
		Annotations: []string{name},
		Emit: func(_ Target, ws metadata.Annotations) (*fragment.MethodCall, error) {
			return call(method, ws[name]), nil
		},
	}
}

// flag builds an emitter for a boolean annotation rendered as method()
// when true
func flag(name, method string) Emitter {
	return Emitter{
		Annotations: []string{name},
		Emit: func(_ Target, ws metadata.Annotations) (*fragment.MethodCall, error) {
			if v, _ := ws[name].(bool); !v {
				return nil, nil
			}
			return call(method), nil
		},
	}
}

var relationalModel = []Emitter{
	single(annotation.DefaultSchema, "HasDefaultSchema"),
	single(annotation.Collation, "UseCollation"),
}

var relationalEntity = []Emitter{
	{
		Annotations: []string{annotation.TableName, annotation.Schema},
		Emit: func(t Target, _ metadata.Annotations) (*fragment.MethodCall, error) {
			if schema := t.Entity.Schema(); schema != "" && schema != t.Model.DefaultSchema() {
				return call("ToTable", t.Entity.TableName(), schema), nil
			}
			return call("ToTable", t.Entity.TableName()), nil
		},
	},
	single(annotation.Comment, "HasComment"),
}

var relationalProperty = []Emitter{
	{
		Annotations: []string{annotation.ValueGenerated},
		Emit: func(_ Target, ws metadata.Annotations) (*fragment.MethodCall, error) {
			switch ws[annotation.ValueGenerated] {
			case annotation.OnAdd:
				return call("ValueGeneratedOnAdd"), nil
			case annotation.OnAddOrUpdate:
				return call("ValueGeneratedOnAddOrUpdate"), nil
			case annotation.OnUpdate:
				return call("ValueGeneratedOnUpdate"), nil
			}
			return call("ValueGeneratedNever"), nil
		},
	},
	single(annotation.MaxLength, "HasMaxLength"),
	{
		Annotations: []string{annotation.Precision, annotation.Scale},
		Emit: func(_ Target, ws metadata.Annotations) (*fragment.MethodCall, error) {
			p, ok := ws[annotation.Precision]
			if !ok {
				return nil, nil
			}
			if s, ok := ws[annotation.Scale]; ok && s != 0 {
				return call("HasPrecision", p, s), nil
			}
			return call("HasPrecision", p), nil
		},
	},
	{
		Annotations: []string{annotation.Unicode},
		Emit: func(_ Target, ws metadata.Annotations) (*fragment.MethodCall, error) {
			if v, _ := ws[annotation.Unicode].(bool); v {
				return call("IsUnicode"), nil
			}
			return call("IsUnicode", false), nil
		},
	},
	flag(annotation.FixedLength, "IsFixedLength"),
	single(annotation.ColumnName, "HasColumnName"),
	single(annotation.ColumnType, "HasColumnType"),
	single(annotation.DefaultValueSql, "HasDefaultValueSql"),
	single(annotation.DefaultValue, "HasDefaultValue"),
	{
		Annotations: []string{annotation.ComputedColumnSql, annotation.IsStored},
		Emit: func(_ Target, ws metadata.Annotations) (*fragment.MethodCall, error) {
			sql, ok := ws[annotation.ComputedColumnSql]
			if !ok {
				return nil, nil
			}
			if stored, _ := ws[annotation.IsStored].(bool); stored {
				return call("HasComputedColumnSql", sql, true), nil
			}
			return call("HasComputedColumnSql", sql), nil
		},
	},
	single(annotation.Comment, "HasComment"),
	single(annotation.Collation, "UseCollation"),
	flag(annotation.RowVersion, "IsRowVersion"),
	flag(annotation.ConcurrencyToken, "IsConcurrencyToken"),
}

var relationalKey = []Emitter{
	single(annotation.Name, "HasName"),
}

var relationalIndex = []Emitter{
	single(annotation.Filter, "HasFilter"),
}

var relationalForeignKey = []Emitter{
	single(annotation.Name, "HasConstraintName"),
}

func relational(kind Kind) []Emitter {
	switch kind {
	case ModelKind:
		return relationalModel
	case EntityKind:
		return relationalEntity
	case PropertyKind:
		return relationalProperty
	case KeyKind:
		return relationalKey
	case IndexKind:
		return relationalIndex
	case ForeignKeyKind:
		return relationalForeignKey
	}
	return nil
}
