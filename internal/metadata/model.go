// Package metadata is the ORM-facing model assembled from a database
// catalog: entities, properties, keys, indexes and relationships. Objects
// refer to each other by name so a model can be inspected piecemeal.
package metadata

import (
	"maps"
	"slices"

	"github.com/tordrt/dbscaffold/internal/annotation"
)

// Annotations holds the facts attached to a metadata object
type Annotations map[string]any

// Clone returns a shallow copy; a nil map clones to an empty one
func (a Annotations) Clone() Annotations {
	out := make(Annotations, len(a))
	maps.Copy(out, a)
	return out
}

// String returns the annotation as a string, or ""
func (a Annotations) String(name string) string {
	s, _ := a[name].(string)
	return s
}

// Names returns the annotation names in sorted order
func (a Annotations) Names() []string {
	return slices.Sorted(maps.Keys(a))
}

// Annotatable is implemented by every metadata object
type Annotatable interface {
	GetAnnotations() Annotations
}

// Annotation is one name/value pair
type Annotation struct {
	Name  string
	Value any
}

// Model is the root of the metadata model
type Model struct {
	Annotations Annotations
	Entities    []*EntityType
	Sequences   []*Sequence
	Unmapped    []UnmappedTable
}

func (m *Model) GetAnnotations() Annotations { return m.Annotations }

// DefaultSchema is the schema objects without an explicit one live in
func (m *Model) DefaultSchema() string {
	return m.Annotations.String(annotation.DefaultSchema)
}

// Entity looks an entity up by name
func (m *Model) Entity(name string) *EntityType {
	for _, e := range m.Entities {
		if e.Name == name {
			return e
		}
	}
	return nil
}

// ReferencingForeignKeys returns the foreign keys whose principal is the
// named entity
func (m *Model) ReferencingForeignKeys(name string) []*ForeignKey {
	var out []*ForeignKey
	for _, e := range m.Entities {
		for _, fk := range e.ForeignKeys {
			if fk.PrincipalEntity == name {
				out = append(out, fk)
			}
		}
	}
	return out
}

// UnmappedTable is a table no entity could be generated for
type UnmappedTable struct {
	Table  string
	Reason string
}

// Sequence is a database sequence
type Sequence struct {
	Name        string
	Schema      string
	ClrType     string
	StartValue  *int64
	IncrementBy *int64
	MinValue    *int64
	MaxValue    *int64
	IsCyclic    bool
	Annotations Annotations
}

func (s *Sequence) GetAnnotations() Annotations { return s.Annotations }
