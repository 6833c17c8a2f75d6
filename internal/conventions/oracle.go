// Package conventions answers which model facts the ORM runtime would infer
// on its own. Facts it infers need no generated configuration.
package conventions

import (
	"strings"

	"github.com/tordrt/dbscaffold/internal/metadata"
)

// Oracle is the contract of the runtime convention engine
type Oracle interface {
	// IsHandledByConvention reports whether a on obj is what the conventions
	// would produce without configuration.
	IsHandledByConvention(obj metadata.Annotatable, a metadata.Annotation) bool

	// DiscoverKeyProperties returns the properties the key discovery
	// convention picks from candidates, or nil.
	DiscoverKeyProperties(entity *metadata.EntityType, candidates []*metadata.Property) []*metadata.Property
}

// DiscoverKey applies the key discovery convention: a property named Id or
// <Entity>Id, compared case-insensitively, Id first.
func DiscoverKey(entity *metadata.EntityType, candidates []*metadata.Property) []*metadata.Property {
	for _, name := range []string{"Id", entity.Name + "Id"} {
		for _, p := range candidates {
			if strings.EqualFold(p.Name, name) {
				return []*metadata.Property{p}
			}
		}
	}
	return nil
}
