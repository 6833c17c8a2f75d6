package writer

import (
	"github.com/tordrt/dbscaffold/internal/codegen"
	"github.com/tordrt/dbscaffold/internal/fragment"
	"github.com/tordrt/dbscaffold/internal/metadata"
)

// entityFile renders one entity class: properties, then reference and
// collection navigations, then skip navigations
func (w *Writer) entityFile(m *metadata.Model, ec *entityConfig, cfg *modelConfig) string {
	e := ec.entity
	namespaces := []string{"System", "System.Collections.Generic"}

	var attrs []fragment.Attribute
	members := map[string][]fragment.Attribute{}
	if w.opts.UseDataAnnotations {
		attrs = cfg.classAttributes[e.Name]
		for _, a := range attrs {
			namespaces = append(namespaces, a.Namespace)
		}
		for _, name := range e.MemberNames() {
			ms := cfg.memberAttributes[codegen.Member{Entity: e.Name, Name: name}]
			members[name] = ms
			for _, a := range ms {
				namespaces = append(namespaces, a.Namespace)
			}
		}
	}

	var c code
	for _, ns := range usings(w.opts.Namespace, namespaces...) {
		c.line("using ", ns, ";")
	}
	c.line()
	if w.opts.Namespace != "" {
		c.line("namespace ", w.opts.Namespace, ";")
		c.line()
	}

	summary(&c, comment(e.Annotations))
	for _, a := range attrs {
		c.line(attribute(a))
	}
	c.line("public partial class ", e.Name)
	c.open()

	first := true
	member := func(name, doc, decl string) {
		if !first {
			c.line()
		}
		first = false
		summary(&c, doc)
		for _, a := range members[name] {
			c.line(attribute(a))
		}
		c.line(decl)
	}

	for _, p := range e.Properties {
		member(p.Name, comment(p.Annotations), "public "+p.TypeName()+" "+p.Name+" { get; set; }")
	}
	for _, n := range e.Navigations {
		if n.IsCollection {
			member(n.Name, "", collection(n.TargetEntity, n.Name))
			continue
		}
		member(n.Name, "", "public virtual "+n.TargetEntity+" "+n.Name+" { get; set; }")
	}
	for _, s := range e.SkipNavigations {
		member(s.Name, "", collection(s.TargetEntity, s.Name))
	}
	c.close("")
	return c.String()
}

func collection(target, name string) string {
	return "public virtual ICollection<" + target + "> " + name + " { get; set; } = new List<" + target + ">();"
}
