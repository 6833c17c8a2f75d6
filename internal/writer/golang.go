package writer

import (
	"bytes"
	"fmt"
	"go/token"
	"go/types"
	"path"
	"strings"

	"github.com/dave/jennifer/jen"

	"github.com/tordrt/dbscaffold/internal/metadata"
	"github.com/tordrt/dbscaffold/internal/naming"
)

var goPackages = map[string]string{
	"decimal": "github.com/shopspring/decimal",
	"uuid":    "github.com/google/uuid",
	"time":    "time",
}

// renderGo generates one struct per table, join tables included, plus a
// table registry. The registry gives way to an entity of the same name.
func (w *Writer) renderGo(m *metadata.Model) (*Output, error) {
	pkg := goPackage(w.opts.Namespace)
	out := &Output{}

	typeNames, fileNames := naming.NewUniquifier(), naming.NewUniquifier()
	names := make([]string, len(m.Entities))
	for i, e := range m.Entities {
		names[i] = typeNames.Unique(goIdent(e.Name))
	}

	tables := jen.Dict{}
	for i, e := range m.Entities {
		f := jen.NewFile(pkg)
		f.HeaderComment("Code generated by dbscaffold. DO NOT EDIT.")
		goStruct(f, names[i], e)
		code, err := render(f)
		if err != nil {
			return nil, fmt.Errorf("entity %s: %w", e.Name, err)
		}
		out.EntityFiles = append(out.EntityFiles, File{Path: fileNames.Unique(fileName(names[i])) + ".go", Code: code})
		tables[jen.Lit(qualified(e))] = jen.Op("&").Id(names[i]).Values()
	}

	registry := typeNames.Unique("Tables")
	f := jen.NewFile(pkg)
	f.HeaderComment("Code generated by dbscaffold. DO NOT EDIT.")
	f.Commentf("%s maps every scaffolded table to an empty instance of its struct.", registry)
	f.Var().Id(registry).Op("=").Map(jen.String()).Interface().Values(tables)
	code, err := render(f)
	if err != nil {
		return nil, err
	}
	out.ContextFile = File{Path: fileNames.Unique("tables") + ".go", Code: code}
	return out, nil
}

func goStruct(f *jen.File, name string, e *metadata.EntityType) {
	if c := comment(e.Annotations); c != "" {
		for _, l := range splitLines(c) {
			f.Comment(l)
		}
	} else {
		f.Commentf("%s maps the %s table.", name, qualified(e))
	}
	fields := naming.NewUniquifier("TableName")
	f.Type().Id(name).StructFunc(func(g *jen.Group) {
		for _, p := range e.Properties {
			field := g.Id(fields.Unique(goIdent(p.Name))).Add(goFieldType(p)).Tag(map[string]string{"db": p.ColumnName()})
			if c := comment(p.Annotations); c != "" {
				field.Comment(strings.Join(splitLines(c), " "))
			}
		}
	})

	f.Line()
	f.Comment("TableName is the mapped table.")
	f.Func().Params(jen.Id(name)).Id("TableName").Params().String().Block(
		jen.Return(jen.Lit(qualified(e))),
	)
}

// goIdent turns a C# identifier into a Go one. The @ escape is dropped;
// Go keywords and predeclared names get a trailing underscore.
func goIdent(name string) string {
	name = strings.TrimPrefix(name, "@")
	if token.IsKeyword(name) || types.Universe.Lookup(name) != nil {
		return name + "_"
	}
	return name
}

// goFieldType qualifies the property's Go type, nullable scalars becoming
// pointers
func goFieldType(p *metadata.Property) *jen.Statement {
	s := &jen.Statement{}
	t := p.GoType
	if t == "" {
		t = "any"
	}
	if p.IsNullable && !strings.HasPrefix(t, "[]") && t != "any" {
		s.Op("*")
	}
	for strings.HasPrefix(t, "[]") {
		s.Index()
		t = t[2:]
	}
	if pkg, name, ok := strings.Cut(t, "."); ok {
		return s.Qual(goPackages[pkg], name)
	}
	return s.Id(t)
}

func qualified(e *metadata.EntityType) string {
	if s := e.Schema(); s != "" {
		return s + "." + e.TableName()
	}
	return e.TableName()
}

func goPackage(ns string) string {
	if ns == "" {
		return "models"
	}
	name := strings.ToLower(path.Base(strings.ReplaceAll(ns, ".", "/")))
	return strings.Map(func(r rune) rune {
		if r == '_' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, name)
}

// fileName turns OrderItem into order_item
func fileName(name string) string {
	var b strings.Builder
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

func render(f *jen.File) (string, error) {
	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
