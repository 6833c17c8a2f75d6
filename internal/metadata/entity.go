package metadata

import (
	"slices"

	"github.com/tordrt/dbscaffold/internal/annotation"
)

// EntityType maps one table
type EntityType struct {
	Name string
	// DbSetName is empty for entities that get no DbSet (join entities)
	DbSetName       string
	Annotations     Annotations
	Properties      []*Property
	PrimaryKey      *Key
	Keys            []*Key
	Indexes         []*Index
	ForeignKeys     []*ForeignKey
	Navigations     []*Navigation
	SkipNavigations []*SkipNavigation
	IsJoinEntity    bool
}

func (e *EntityType) GetAnnotations() Annotations { return e.Annotations }

// TableName is the mapped table
func (e *EntityType) TableName() string {
	return e.Annotations.String(annotation.TableName)
}

// Schema is the mapped table's schema, empty when unqualified
func (e *EntityType) Schema() string {
	return e.Annotations.String(annotation.Schema)
}

// Property looks a property up by name
func (e *EntityType) Property(name string) *Property {
	for _, p := range e.Properties {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// PropertiesNamed resolves names to properties, skipping unknown names
func (e *EntityType) PropertiesNamed(names []string) []*Property {
	out := make([]*Property, 0, len(names))
	for _, n := range names {
		if p := e.Property(n); p != nil {
			out = append(out, p)
		}
	}
	return out
}

// IsKeyless reports whether the entity has no primary key
func (e *EntityType) IsKeyless() bool {
	return e.PrimaryKey == nil
}

// IsPrimaryKeyProperty reports whether the named property is part of the
// primary key
func (e *EntityType) IsPrimaryKeyProperty(name string) bool {
	return e.PrimaryKey != nil && slices.Contains(e.PrimaryKey.Properties, name)
}

// FindKey returns the primary or alternate key over exactly these
// properties
func (e *EntityType) FindKey(properties []string) *Key {
	if e.PrimaryKey != nil && slices.Equal(e.PrimaryKey.Properties, properties) {
		return e.PrimaryKey
	}
	for _, k := range e.Keys {
		if slices.Equal(k.Properties, properties) {
			return k
		}
	}
	return nil
}

// Navigation looks a reference or collection navigation up by name
func (e *EntityType) Navigation(name string) *Navigation {
	for _, n := range e.Navigations {
		if n.Name == name {
			return n
		}
	}
	return nil
}

// MemberNames are the names of everything declared on the entity class
func (e *EntityType) MemberNames() []string {
	names := []string{e.Name}
	for _, p := range e.Properties {
		names = append(names, p.Name)
	}
	for _, n := range e.Navigations {
		names = append(names, n.Name)
	}
	for _, n := range e.SkipNavigations {
		names = append(names, n.Name)
	}
	return names
}

// Property maps one column
type Property struct {
	Name        string
	ClrType     string
	GoType      string
	IsNullable  bool
	IsValueType bool
	Annotations Annotations
}

func (p *Property) GetAnnotations() Annotations { return p.Annotations }

// ColumnName is the mapped column
func (p *Property) ColumnName() string {
	return p.Annotations.String(annotation.ColumnName)
}

// ColumnType is the store type of the mapped column
func (p *Property) ColumnType() string {
	return p.Annotations.String(annotation.ColumnType)
}

// TypeName renders the property's C# type including nullability
func (p *Property) TypeName() string {
	if p.IsNullable && p.IsValueType {
		return p.ClrType + "?"
	}
	return p.ClrType
}

// Key is a primary or alternate key. Its constraint name is the
// annotation.Name annotation.
type Key struct {
	Properties  []string
	Annotations Annotations
}

func (k *Key) GetAnnotations() Annotations { return k.Annotations }

// Name is the constraint name
func (k *Key) Name() string {
	return k.Annotations.String(annotation.Name)
}

// Index is a database index. Name is the database name of the index.
type Index struct {
	Name        string
	Properties  []string
	IsUnique    bool
	Annotations Annotations
}

func (i *Index) GetAnnotations() Annotations { return i.Annotations }

// Navigation is a reference or collection navigation declared on an entity
type Navigation struct {
	Name         string
	TargetEntity string
	IsCollection bool
	// OnDependent is set for the dependent-to-principal side
	OnDependent bool
	ForeignKey  *ForeignKey
}

// SkipNavigation is one side of a many-to-many relationship that skips
// over a join entity
type SkipNavigation struct {
	Name         string
	TargetEntity string
	JoinEntity   string
	Inverse      string
	// ForeignKey is the join entity's foreign key to the declaring entity
	ForeignKey *ForeignKey
	// IsLeft marks the side whose writer renders the UsingEntity block
	IsLeft bool
}
