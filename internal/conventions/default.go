package conventions

import (
	"strings"

	"github.com/tordrt/dbscaffold/internal/annotation"
	"github.com/tordrt/dbscaffold/internal/db"
	"github.com/tordrt/dbscaffold/internal/metadata"
	"github.com/tordrt/dbscaffold/internal/typemap"
)

// defaultSchemas are the schemas a provider uses when none is configured
var defaultSchemas = map[db.Provider]string{
	db.SQLServer: "dbo",
	db.Postgres:  "public",
}

var integerTypes = map[string]bool{
	"byte": true, "sbyte": true, "short": true, "ushort": true,
	"int": true, "uint": true, "long": true, "ulong": true,
}

// Default mirrors the documented conventions of the runtime for one model.
// It indexes the model on construction and must not outlive it.
type Default struct {
	model *metadata.Model
	types *typemap.Source

	propertyOwner map[*metadata.Property]*metadata.EntityType
	keyOwner      map[*metadata.Key]*metadata.EntityType
	fkOwner       map[*metadata.ForeignKey]*metadata.EntityType
}

// NewDefault builds the oracle for model
func NewDefault(model *metadata.Model, types *typemap.Source) *Default {
	o := &Default{
		model:         model,
		types:         types,
		propertyOwner: map[*metadata.Property]*metadata.EntityType{},
		keyOwner:      map[*metadata.Key]*metadata.EntityType{},
		fkOwner:       map[*metadata.ForeignKey]*metadata.EntityType{},
	}
	for _, e := range model.Entities {
		for _, p := range e.Properties {
			o.propertyOwner[p] = e
		}
		if e.PrimaryKey != nil {
			o.keyOwner[e.PrimaryKey] = e
		}
		for _, k := range e.Keys {
			o.keyOwner[k] = e
		}
		for _, fk := range e.ForeignKeys {
			o.fkOwner[fk] = e
		}
	}
	return o
}

func (o *Default) DiscoverKeyProperties(entity *metadata.EntityType, candidates []*metadata.Property) []*metadata.Property {
	return DiscoverKey(entity, candidates)
}

func (o *Default) IsHandledByConvention(obj metadata.Annotatable, a metadata.Annotation) bool {
	if strings.HasPrefix(a.Name, "Scaffolding:") {
		return true
	}
	switch x := obj.(type) {
	case *metadata.Model:
		return o.modelFact(a)
	case *metadata.EntityType:
		return o.entity(x, a)
	case *metadata.Property:
		return o.property(x, a)
	case *metadata.Key:
		return o.key(x, a)
	case *metadata.ForeignKey:
		return o.foreignKey(x, a)
	}
	return false
}

func (o *Default) provider() db.Provider {
	return o.types.Provider()
}

func (o *Default) modelFact(a metadata.Annotation) bool {
	switch a.Name {
	case annotation.DefaultSchema:
		switch o.provider() {
		case db.MySQL, db.SQLite:
			// the schema is the database itself
			return true
		}
		return a.Value == defaultSchemas[o.provider()]
	}
	return false
}

func (o *Default) inModelDefault(name string, value any) bool {
	v, ok := o.model.Annotations[name]
	return ok && v == value
}

func (o *Default) entity(e *metadata.EntityType, a metadata.Annotation) bool {
	switch a.Name {
	case annotation.TableName:
		if e.DbSetName != "" {
			return a.Value == e.DbSetName
		}
		return a.Value == e.Name
	case annotation.Schema:
		return a.Value == "" || a.Value == o.model.DefaultSchema()
	case annotation.MySQLCharSet, annotation.MySQLCollation:
		return o.inModelDefault(a.Name, a.Value)
	}
	return false
}

func (o *Default) property(p *metadata.Property, a metadata.Annotation) bool {
	owner := o.propertyOwner[p]
	switch a.Name {
	case annotation.ColumnName:
		return a.Value == p.Name
	case annotation.ColumnType:
		storeType, _ := a.Value.(string)
		m, ok := o.types.Find(storeType)
		return ok && m.Conventional && m.ClrType == p.ClrType
	case annotation.ValueGenerated:
		kind, _ := a.Value.(annotation.ValueGeneratedKind)
		return o.valueGenerated(owner, p, kind)
	case annotation.SqlServerValueGenerationStrategy:
		return a.Value == annotation.StrategyIdentityColumn && o.isGeneratedKey(owner, p) &&
			isOne(p.Annotations[annotation.SqlServerIdentitySeed]) &&
			isOne(p.Annotations[annotation.SqlServerIdentityIncrement])
	case annotation.SqlServerIdentitySeed, annotation.SqlServerIdentityIncrement:
		return isOne(a.Value)
	case annotation.NpgsqlValueGenerationStrategy:
		return a.Value == annotation.StrategyIdentityByDefaultColumn && o.isGeneratedKey(owner, p)
	case annotation.MySQLCharSet, annotation.Collation:
		return o.inModelDefault(a.Name, a.Value)
	}
	return false
}

// isGeneratedKey reports whether p is the single integral primary key
// property the runtime generates values for
func (o *Default) isGeneratedKey(owner *metadata.EntityType, p *metadata.Property) bool {
	return owner != nil && owner.PrimaryKey != nil && len(owner.PrimaryKey.Properties) == 1 &&
		owner.PrimaryKey.Properties[0] == p.Name && integerTypes[p.ClrType] && !isForeignKeyProperty(owner, p.Name)
}

func isForeignKeyProperty(e *metadata.EntityType, name string) bool {
	for _, fk := range e.ForeignKeys {
		for _, n := range fk.Properties {
			if n == name {
				return true
			}
		}
	}
	return false
}

func (o *Default) valueGenerated(owner *metadata.EntityType, p *metadata.Property, kind annotation.ValueGeneratedKind) bool {
	_, hasDefault := p.Annotations[annotation.DefaultValueSql]
	_, hasValue := p.Annotations[annotation.DefaultValue]
	_, computed := p.Annotations[annotation.ComputedColumnSql]
	_, rowVersion := p.Annotations[annotation.RowVersion]
	_, sqlServerStrategy := p.Annotations[annotation.SqlServerValueGenerationStrategy]
	_, npgsqlStrategy := p.Annotations[annotation.NpgsqlValueGenerationStrategy]

	switch kind {
	case annotation.Never:
		return !o.isGeneratedKey(owner, p)
	case annotation.OnAdd:
		return o.isGeneratedKey(owner, p) || hasDefault || hasValue || sqlServerStrategy || npgsqlStrategy
	case annotation.OnAddOrUpdate:
		return computed || rowVersion
	}
	return false
}

func isOne(v any) bool {
	switch n := v.(type) {
	case nil:
		return true
	case int64:
		return n == 1
	case int:
		return n == 1
	}
	return false
}

func (o *Default) key(k *metadata.Key, a metadata.Annotation) bool {
	if a.Name != annotation.Name {
		return false
	}
	name, _ := a.Value.(string)
	owner := o.keyOwner[k]
	if name == "" || owner == nil {
		return name == ""
	}
	if owner.PrimaryKey == k {
		return name == "PK_"+owner.TableName() || (o.provider() == db.MySQL && name == "PRIMARY")
	}
	return name == "AK_"+owner.TableName()+"_"+o.columnNames(owner, k.Properties)
}

func (o *Default) foreignKey(fk *metadata.ForeignKey, a metadata.Annotation) bool {
	if a.Name != annotation.Name {
		return false
	}
	name, _ := a.Value.(string)
	owner := o.fkOwner[fk]
	principal := o.model.Entity(fk.PrincipalEntity)
	if name == "" || owner == nil || principal == nil {
		return name == ""
	}
	return name == "FK_"+owner.TableName()+"_"+principal.TableName()+"_"+o.columnNames(owner, fk.Properties)
}

func (o *Default) columnNames(e *metadata.EntityType, properties []string) string {
	cols := make([]string, 0, len(properties))
	for _, p := range e.PropertiesNamed(properties) {
		cols = append(cols, p.ColumnName())
	}
	return strings.Join(cols, "_")
}
