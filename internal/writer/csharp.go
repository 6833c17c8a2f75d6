package writer

import (
	"slices"
	"strings"

	"github.com/tordrt/dbscaffold/internal/fragment"
	"github.com/tordrt/dbscaffold/internal/naming"
)

const indent = "    "

// code collects C# source line by line
type code struct {
	b     strings.Builder
	depth int
}

func (c *code) line(parts ...string) {
	s := strings.Join(parts, "")
	if s != "" {
		c.b.WriteString(strings.Repeat(indent, c.depth))
		c.b.WriteString(s)
	}
	c.b.WriteByte('\n')
}

func (c *code) lines(ls []string) {
	for _, l := range ls {
		c.line(l)
	}
}

func (c *code) open() {
	c.line("{")
	c.depth++
}

func (c *code) close(suffix string) {
	c.depth--
	c.line("}" + suffix)
}

func (c *code) String() string { return c.b.String() }

// statement renders receiver.call chain as lines, the last ending in ";"
func statement(receiver string, call *fragment.MethodCall) []string {
	ls := chainLines(receiver, call)
	ls[len(ls)-1] += ";"
	return ls
}

// chainLines renders a call chain on receiver. Two single line calls share
// one line; otherwise the first call shares the receiver's line and every
// further call starts an indented line.
func chainLines(receiver string, call *fragment.MethodCall) []string {
	calls := call.Calls()
	if len(calls) <= 2 {
		parts := make([]string, 0, len(calls))
		for _, c := range calls {
			if cl := callLines(c); len(cl) == 1 {
				parts = append(parts, cl[0])
			}
		}
		if len(parts) == len(calls) {
			return []string{receiver + "." + strings.Join(parts, ".")}
		}
	}
	var out []string
	for i, c := range calls {
		cl := callLines(c)
		if i == 0 {
			cl[0] = receiver + "." + cl[0]
			out = append(out, cl...)
			continue
		}
		out = append(out, indent+"."+cl[0])
		for _, l := range cl[1:] {
			out = append(out, indent+l)
		}
	}
	return out
}

// callLines renders one call. Arguments that span lines put every argument
// on its own line.
func callLines(c *fragment.MethodCall) []string {
	head := c.Method
	if len(c.TypeArgs) > 0 {
		head += "<" + strings.Join(c.TypeArgs, ", ") + ">"
	}
	args := make([][]string, len(c.Args))
	multiline := false
	for i, a := range c.Args {
		args[i] = argLines(a)
		multiline = multiline || len(args[i]) > 1
	}
	if !multiline {
		flat := make([]string, len(args))
		for i, a := range args {
			flat[i] = a[0]
		}
		return []string{head + "(" + strings.Join(flat, ", ") + ")"}
	}
	if len(args) == 1 {
		// a lone closure stays on the call line: M(x => x.A(...)
		out := slices.Clone(args[0])
		out[0] = head + "(" + out[0]
		out[len(out)-1] += ")"
		return out
	}
	out := []string{head + "("}
	for i, a := range args {
		for j, l := range a {
			if j == len(a)-1 {
				if i < len(args)-1 {
					l += ","
				} else {
					l += ")"
				}
			}
			out = append(out, indent+l)
		}
	}
	return out
}

// argLines renders an argument expression
func argLines(v any) []string {
	switch a := v.(type) {
	case *fragment.NestedClosure:
		return closureLines(a)
	case fragment.PropertyLambda:
		return []string{lambda(a)}
	case fragment.Expr:
		return []string{a.Code}
	}
	return []string{naming.Literal(v)}
}

// closureLines renders a single statement closure as an expression lambda
// and anything longer as a block
func closureLines(cl *fragment.NestedClosure) []string {
	if len(cl.Body) == 1 {
		ls := chainLines(cl.Param, cl.Body[0])
		ls[0] = cl.Param + " => " + ls[0]
		return ls
	}
	out := []string{cl.Param + " =>", "{"}
	for _, c := range cl.Body {
		for _, l := range statement(cl.Param, c) {
			out = append(out, indent+l)
		}
	}
	return append(out, "}")
}

func lambda(l fragment.PropertyLambda) string {
	if len(l.Properties) == 1 {
		return l.Param + " => " + l.Param + "." + l.Properties[0]
	}
	members := make([]string, len(l.Properties))
	for i, p := range l.Properties {
		members[i] = l.Param + "." + p
	}
	return l.Param + " => new { " + strings.Join(members, ", ") + " }"
}

// attribute renders [Type(args, Name = value)]
func attribute(a fragment.Attribute) string {
	var args []string
	for _, v := range a.Args {
		args = append(args, argLines(v)[0])
	}
	for _, n := range a.NamedArgs {
		args = append(args, n.Name+" = "+argLines(n.Value)[0])
	}
	if len(args) == 0 {
		return "[" + a.Type + "]"
	}
	return "[" + a.Type + "(" + strings.Join(args, ", ") + ")]"
}

// usings orders namespaces System first, then alphabetically, dropping the
// file's own namespace
func usings(own string, namespaces ...string) []string {
	seen := map[string]bool{own: true, "": true}
	var out []string
	for _, ns := range namespaces {
		if !seen[ns] {
			seen[ns] = true
			out = append(out, ns)
		}
	}
	slices.SortFunc(out, func(a, b string) int {
		as, bs := isSystem(a), isSystem(b)
		switch {
		case as && !bs:
			return -1
		case bs && !as:
			return 1
		}
		return strings.Compare(a, b)
	})
	return out
}

func isSystem(ns string) bool {
	return ns == "System" || strings.HasPrefix(ns, "System.")
}
