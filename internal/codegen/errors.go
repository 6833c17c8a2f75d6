package codegen

import (
	"errors"
	"strings"
)

// ErrInternalConsistency is returned when the model carries a fact the
// generators cannot render, such as an unknown value generation strategy.
var ErrInternalConsistency = errors.New("dbscaffold: internal consistency error")

// InternalConsistencyError names the annotation that could not be rendered
type InternalConsistencyError struct {
	Object     string
	Annotation string
	Value      any
	Message    string
}

func (e *InternalConsistencyError) Error() string {
	var b strings.Builder
	b.WriteString("dbscaffold: internal consistency error")
	if e.Object != "" {
		b.WriteString(" on ")
		b.WriteString(e.Object)
	}
	if e.Annotation != "" {
		b.WriteString(" annotation ")
		b.WriteString(e.Annotation)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Is reports whether target is ErrInternalConsistency.
func (e *InternalConsistencyError) Is(target error) bool {
	return target == ErrInternalConsistency
}
