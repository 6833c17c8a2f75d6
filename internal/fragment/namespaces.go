package fragment

import (
	"iter"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Namespacer is implemented by argument values that need a namespace in
// scope when rendered.
type Namespacer interface {
	Namespace() string
}

const systemNamespace = "System"

// argument types that render as System types
var systemTypes = map[reflect.Type]bool{
	reflect.TypeFor[time.Time]():       true,
	reflect.TypeFor[time.Duration]():   true,
	reflect.TypeFor[uuid.UUID]():       true,
	reflect.TypeFor[decimal.Decimal](): true,
}

// RequiredNamespaces lists the namespaces the given fragments need. It walks
// chains, arguments and nested closure bodies. The returned sequence is a
// pure function of the fragments: ranging it again yields the same values,
// each namespace once, in first-seen order.
func RequiredNamespaces(fragments ...any) iter.Seq[string] {
	return func(yield func(string) bool) {
		seen := map[string]bool{}
		emit := func(ns string) bool {
			if ns == "" || seen[ns] {
				return true
			}
			seen[ns] = true
			return yield(ns)
		}
		for _, f := range fragments {
			if !walk(f, emit) {
				return
			}
		}
	}
}

// RequiredNamespaces of a call chain
func (m *MethodCall) RequiredNamespaces() iter.Seq[string] {
	return RequiredNamespaces(m)
}

// RequiredNamespaces of an attribute
func (a Attribute) RequiredNamespaces() iter.Seq[string] {
	return RequiredNamespaces(a)
}

func walk(v any, emit func(string) bool) bool {
	switch f := v.(type) {
	case nil:
		return true
	case *MethodCall:
		for c := f; c != nil; c = c.next {
			if !emit(c.Namespace) {
				return false
			}
			for _, a := range c.Args {
				if !walk(a, emit) {
					return false
				}
			}
		}
		return true
	case FluentAPI:
		return walk(f.MethodCall, emit)
	case []FluentAPI:
		for _, c := range f {
			if !walk(c.MethodCall, emit) {
				return false
			}
		}
		return true
	case *NestedClosure:
		for _, c := range f.Body {
			if !walk(c, emit) {
				return false
			}
		}
		return true
	case Attribute:
		if !emit(f.Namespace) {
			return false
		}
		for _, a := range f.Args {
			if !walk(a, emit) {
				return false
			}
		}
		for _, a := range f.NamedArgs {
			if !walk(a.Value, emit) {
				return false
			}
		}
		return true
	case []Attribute:
		for _, a := range f {
			if !walk(a, emit) {
				return false
			}
		}
		return true
	case PropertyLambda:
		return true
	case []any:
		for _, a := range f {
			if !walk(a, emit) {
				return false
			}
		}
		return true
	case Namespacer:
		return emit(f.Namespace())
	}
	return emit(namespaceOf(v))
}

func namespaceOf(v any) string {
	t := reflect.TypeOf(v)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if systemTypes[t] {
		return systemNamespace
	}
	return ""
}
