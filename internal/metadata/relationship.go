package metadata

import (
	"slices"

	"github.com/tordrt/dbscaffold/internal/annotation"
	"github.com/tordrt/dbscaffold/internal/schema"
)

// DeleteBehavior is what happens to dependents when a principal is deleted
type DeleteBehavior int

const (
	ClientSetNull DeleteBehavior = iota
	Restrict
	SetNull
	Cascade
	ClientCascade
	NoAction
	ClientNoAction
)

var deleteBehaviorNames = [...]string{
	ClientSetNull:  "ClientSetNull",
	Restrict:       "Restrict",
	SetNull:        "SetNull",
	Cascade:        "Cascade",
	ClientCascade:  "ClientCascade",
	NoAction:       "NoAction",
	ClientNoAction: "ClientNoAction",
}

func (d DeleteBehavior) String() string {
	if d < 0 || int(d) >= len(deleteBehaviorNames) {
		return "ClientSetNull"
	}
	return deleteBehaviorNames[d]
}

// CSharp renders the enum member
func (d DeleteBehavior) CSharp() string {
	return "DeleteBehavior." + d.String()
}

// Namespace of the DeleteBehavior enum
func (d DeleteBehavior) Namespace() string {
	return "Microsoft.EntityFrameworkCore"
}

// DeleteBehaviorFor maps a referential action. Actions the runtime does not
// model map to ClientSetNull, which leaves the database to enforce them.
func DeleteBehaviorFor(action *schema.ReferentialAction) DeleteBehavior {
	if action == nil {
		return ClientSetNull
	}
	switch *action {
	case schema.Cascade:
		return Cascade
	case schema.SetNull:
		return SetNull
	case schema.Restrict:
		return Restrict
	}
	return ClientSetNull
}

// DefaultDeleteBehavior is what the runtime assumes when OnDelete is not
// configured
func DefaultDeleteBehavior(required bool) DeleteBehavior {
	if required {
		return Cascade
	}
	return ClientSetNull
}

// ForeignKey is a relationship from a dependent entity to a principal key
type ForeignKey struct {
	DependentEntity     string
	Properties          []string
	PrincipalEntity     string
	PrincipalProperties []string
	// PrincipalKeyIsPrimary is false when the principal key is an alternate
	// key
	PrincipalKeyIsPrimary bool
	IsUnique              bool
	IsRequired            bool
	DeleteBehavior        DeleteBehavior
	// DependentNavigation is declared on the dependent, PrincipalNavigation
	// on the principal. Either may be empty.
	DependentNavigation string
	PrincipalNavigation string
	Annotations         Annotations
}

func (fk *ForeignKey) GetAnnotations() Annotations { return fk.Annotations }

// ConstraintName is the database name of the constraint
func (fk *ForeignKey) ConstraintName() string {
	return fk.Annotations.String(annotation.Name)
}

// IsSelfReferencing reports whether dependent and principal are the same
// entity
func (fk *ForeignKey) IsSelfReferencing() bool {
	return fk.DependentEntity == fk.PrincipalEntity
}

// Overlaps reports whether the two keys share a dependent property
func (fk *ForeignKey) Overlaps(other *ForeignKey) bool {
	for _, p := range fk.Properties {
		if slices.Contains(other.Properties, p) {
			return true
		}
	}
	return false
}
