// Package fragment is a small, emission-agnostic AST for configuration code:
// method calls with chaining, attributes, nested closures and the lambda
// arguments they take. Nodes are immutable once built; every operation that
// looks like a modification returns a new node.
package fragment

import "slices"

// MethodCall is one call of a fluent statement. Namespace is set for static or
// extension methods and names the namespace that declares them.
type MethodCall struct {
	Method    string
	Namespace string
	Args      []any
	TypeArgs  []string
	next      *MethodCall
}

// NewMethodCall creates a call with positional arguments
func NewMethodCall(method string, args ...any) *MethodCall {
	return &MethodCall{Method: method, Args: args}
}

// WithTypeArgs returns a copy of the call carrying generic type arguments
func (m *MethodCall) WithTypeArgs(typeArgs ...string) *MethodCall {
	c := *m
	c.TypeArgs = typeArgs
	return &c
}

// Declared returns a copy of the call declared in namespace ns
func (m *MethodCall) Declared(ns string) *MethodCall {
	c := *m
	c.Namespace = ns
	return &c
}

// Next returns the call chained after m, or nil
func (m *MethodCall) Next() *MethodCall {
	return m.next
}

// Chain returns a new head with the same call and next as its tail. The
// receiver is left untouched and any previous tail of the copy is replaced,
// so chains are built back to front (see Chain).
func (m *MethodCall) Chain(next *MethodCall) *MethodCall {
	c := *m
	c.next = next
	return &c
}

// Append returns a copy of the whole chain with call added at its end
func (m *MethodCall) Append(call *MethodCall) *MethodCall {
	if m == nil {
		return call
	}
	return m.Chain(m.next.Append(call))
}

// Calls flattens the chain starting at m
func (m *MethodCall) Calls() []*MethodCall {
	var out []*MethodCall
	for c := m; c != nil; c = c.next {
		out = append(out, c)
	}
	return out
}

// Len is the number of calls in the chain
func (m *MethodCall) Len() int {
	n := 0
	for c := m; c != nil; c = c.next {
		n++
	}
	return n
}

// Chain links calls into one statement, skipping nils. It returns nil when
// every call is nil.
func Chain(calls ...*MethodCall) *MethodCall {
	var tail *MethodCall
	for _, c := range slices.Backward(calls) {
		if c == nil {
			continue
		}
		tail = c.Chain(tail)
	}
	return tail
}

// FluentAPI is a configuration call produced by the convention diff. A fluent
// call whose fact is also expressed by an attribute is marked
// IsHandledByDataAnnotations so writers can drop it in attribute mode.
type FluentAPI struct {
	*MethodCall
	IsHandledByDataAnnotations bool
}

// Fluent wraps a call chain
func Fluent(call *MethodCall) FluentAPI {
	return FluentAPI{MethodCall: call}
}

// Chain keeps the data-annotation flag while chaining
func (f FluentAPI) Chain(next *MethodCall) FluentAPI {
	return FluentAPI{MethodCall: f.MethodCall.Chain(next), IsHandledByDataAnnotations: f.IsHandledByDataAnnotations}
}

// Append keeps the data-annotation flag while appending
func (f FluentAPI) Append(call *MethodCall) FluentAPI {
	return FluentAPI{MethodCall: f.MethodCall.Append(call), IsHandledByDataAnnotations: f.IsHandledByDataAnnotations}
}

// HandledByDataAnnotations returns a copy marked as expressed by attributes
func (f FluentAPI) HandledByDataAnnotations() FluentAPI {
	f.IsHandledByDataAnnotations = true
	return f
}

// NamedArg is a named attribute argument such as Schema = "dbo"
type NamedArg struct {
	Name  string
	Value any
}

// Attribute is an attribute applied to a class or a member
type Attribute struct {
	Type      string
	Namespace string
	Args      []any
	NamedArgs []NamedArg
}

// NewAttribute creates an attribute with positional arguments
func NewAttribute(typ, ns string, args ...any) Attribute {
	return Attribute{Type: typ, Namespace: ns, Args: args}
}

// With returns a copy with an extra named argument
func (a Attribute) With(name string, value any) Attribute {
	a.NamedArgs = append(slices.Clip(a.NamedArgs), NamedArg{Name: name, Value: value})
	return a
}

// NestedClosure is a lambda argument whose body is a list of statements, as
// in tb => tb.IsTemporal(...).
type NestedClosure struct {
	Param string
	Body  []*MethodCall
}

// Closure creates a nested closure
func Closure(param string, body ...*MethodCall) *NestedClosure {
	return &NestedClosure{Param: param, Body: body}
}

// PropertyLambda is a property selector argument: e => e.Id or
// e => new { e.A, e.B }.
type PropertyLambda struct {
	Param      string
	Properties []string
}

// Lambda creates a property selector
func Lambda(param string, properties ...string) PropertyLambda {
	return PropertyLambda{Param: param, Properties: properties}
}

// Expr is verbatim code used as an argument, e.g. an enum member. Ns is the
// namespace the expression needs imported.
type Expr struct {
	Code string
	Ns   string
}

// Namespace implements Namespacer
func (e Expr) Namespace() string { return e.Ns }

// NameOf renders nameof(member)
func NameOf(member string) Expr {
	return Expr{Code: "nameof(" + member + ")"}
}
