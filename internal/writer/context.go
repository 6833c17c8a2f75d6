package writer

import (
	"slices"
	"strings"

	"github.com/tordrt/dbscaffold/internal/annotation"
	"github.com/tordrt/dbscaffold/internal/fragment"
	"github.com/tordrt/dbscaffold/internal/metadata"
)

const connectionStringWarning = "#warning To protect potentially sensitive information in your connection string, " +
	"you should move it out of source code. You can avoid scaffolding the connection string by using the " +
	"--no-onconfiguring option."

// contextFile renders the context class
func (w *Writer) contextFile(m *metadata.Model, cfg *modelConfig) string {
	var rendered []*fragment.MethodCall
	var body code
	body.depth = 2

	if calls := w.fluent(cfg.model); len(calls) > 0 {
		stmt := fragment.Chain(calls...)
		rendered = append(rendered, stmt)
		body.lines(statement("modelBuilder", stmt))
		body.line()
	}
	for _, s := range cfg.sequences {
		for _, stmt := range w.fluent(s) {
			rendered = append(rendered, stmt)
			body.lines(statement("modelBuilder", stmt))
		}
		body.line()
	}
	for _, e := range cfg.entities {
		stmts := w.entityStatements(e)
		if len(stmts) == 0 {
			continue
		}
		rendered = append(rendered, stmts...)
		body.line("modelBuilder.Entity<", e.entity.Name, ">(entity =>")
		body.open()
		for i, stmt := range stmts {
			if i > 0 {
				body.line()
			}
			body.lines(statement("entity", stmt))
		}
		body.close(");")
		body.line()
	}
	body.line("OnModelCreatingPartial(modelBuilder);")

	namespaces := []string{"System", "System.Collections.Generic", "Microsoft.EntityFrameworkCore"}
	if w.opts.Namespace != w.opts.ContextNamespace {
		namespaces = append(namespaces, w.opts.Namespace)
	}
	var use *fragment.MethodCall
	if !w.opts.SuppressOnConfiguring && w.opts.ConnectionString != "" {
		use = w.engine.UseProvider(w.opts.ConnectionString)
		rendered = append(rendered, use)
	}
	for _, stmt := range rendered {
		namespaces = slices.AppendSeq(namespaces, stmt.RequiredNamespaces())
	}

	var c code
	for _, ns := range usings(w.opts.ContextNamespace, namespaces...) {
		c.line("using ", ns, ";")
	}
	c.line()
	if w.opts.ContextNamespace != "" {
		c.line("namespace ", w.opts.ContextNamespace, ";")
		c.line()
	}

	name := w.opts.ContextName
	c.line("public partial class ", name, " : DbContext")
	c.open()
	c.line("public ", name, "()")
	c.open()
	c.close("")
	c.line()
	c.line("public ", name, "(DbContextOptions<", name, "> options)")
	c.line(indent, ": base(options)")
	c.open()
	c.close("")
	c.line()

	for _, e := range cfg.entities {
		if e.entity.DbSetName == "" {
			continue
		}
		c.line("public virtual DbSet<", e.entity.Name, "> ", e.entity.DbSetName, " { get; set; }")
		c.line()
	}

	if use != nil {
		c.line(connectionStringWarning)
		c.line("protected override void OnConfiguring(DbContextOptionsBuilder optionsBuilder)")
		ls := statement("optionsBuilder", use)
		ls[0] = "=> " + ls[0]
		for _, l := range ls {
			c.line(indent, l)
		}
		c.line()
	}

	c.line("protected override void OnModelCreating(ModelBuilder modelBuilder)")
	c.open()
	c.b.WriteString(body.String())
	c.close("")
	c.line()
	c.line("partial void OnModelCreatingPartial(ModelBuilder modelBuilder);")
	c.close("")

	if len(m.Unmapped) > 0 {
		c.line()
		c.line("// Could not scaffold the following tables:")
		for _, u := range m.Unmapped {
			c.line("//   ", u.Table, ": ", u.Reason)
		}
	}
	return c.String()
}

// entityStatements are the statements of an entity's configuration block:
// keys, table, indexes, properties, relationships, many-to-many
func (w *Writer) entityStatements(e *entityConfig) []*fragment.MethodCall {
	var stmts []*fragment.MethodCall
	for _, r := range e.keys {
		stmts = append(stmts, w.fluent(r)...)
	}
	stmts = append(stmts, w.fluent(e.table)...)
	for _, r := range e.indexes {
		stmts = append(stmts, w.fluent(r)...)
	}
	for _, p := range e.properties {
		if calls := w.fluent(p.result); len(calls) > 0 {
			head := fragment.NewMethodCall("Property", fragment.Lambda("e", p.property.Name))
			stmts = append(stmts, head.Append(fragment.Chain(calls...)))
		}
	}
	for _, r := range e.foreignKeys {
		stmts = append(stmts, w.fluent(r)...)
	}
	for _, r := range e.manyToMany {
		stmts = append(stmts, w.fluent(r)...)
	}
	return stmts
}

// summary renders a comment as an XML doc summary
func summary(c *code, comment string) {
	if comment == "" {
		return
	}
	c.line("/// <summary>")
	for _, l := range splitLines(comment) {
		c.line("/// ", l)
	}
	c.line("/// </summary>")
}

func comment(a metadata.Annotations) string {
	return a.String(annotation.Comment)
}

func splitLines(s string) []string {
	return strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
}
