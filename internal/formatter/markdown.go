package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/dbscaffold/internal/annotation"
	"github.com/tordrt/dbscaffold/internal/metadata"
)

// MarkdownFormatter formats the model as markdown
type MarkdownFormatter struct {
	writer io.Writer
}

// NewMarkdownFormatter creates a new markdown formatter
func NewMarkdownFormatter(w io.Writer) *MarkdownFormatter {
	return &MarkdownFormatter{writer: w}
}

// Format writes the model in markdown format
func (f *MarkdownFormatter) Format(m *metadata.Model) error {
	_, _ = fmt.Fprintln(f.writer, "# Scaffolded Model")
	_, _ = fmt.Fprintln(f.writer)

	for _, e := range m.Entities {
		f.formatEntity(e)
	}

	if len(m.Sequences) > 0 {
		_, _ = fmt.Fprintln(f.writer, "## Sequences")
		_, _ = fmt.Fprintln(f.writer)
		for _, s := range m.Sequences {
			_, _ = fmt.Fprintf(f.writer, "- %s (%s)\n", qualify(s.Schema, s.Name), s.ClrType)
		}
		_, _ = fmt.Fprintln(f.writer)
	}

	if len(m.Unmapped) > 0 {
		_, _ = fmt.Fprintln(f.writer, "## Skipped Tables")
		_, _ = fmt.Fprintln(f.writer)
		for _, u := range m.Unmapped {
			_, _ = fmt.Fprintf(f.writer, "- **%s:** %s\n", u.Table, u.Reason)
		}
		_, _ = fmt.Fprintln(f.writer)
	}
	return nil
}

func (f *MarkdownFormatter) formatEntity(e *metadata.EntityType) {
	_, _ = fmt.Fprintf(f.writer, "## %s\n\n", e.Name)
	_, _ = fmt.Fprintf(f.writer, "Table `%s`", qualify(e.Schema(), e.TableName()))
	if e.IsJoinEntity {
		_, _ = fmt.Fprint(f.writer, ", join table")
	}
	_, _ = fmt.Fprintln(f.writer)
	_, _ = fmt.Fprintln(f.writer)
	if c := e.Annotations.String(annotation.Comment); c != "" {
		_, _ = fmt.Fprintf(f.writer, "> %s\n\n", strings.ReplaceAll(c, "\n", " "))
	}

	_, _ = fmt.Fprintln(f.writer, "### Properties")
	_, _ = fmt.Fprintln(f.writer)
	for _, p := range e.Properties {
		typeStr := p.TypeName()
		if t := p.ColumnType(); t != "" {
			typeStr = fmt.Sprintf("%s (%s)", typeStr, t)
		}
		if c := f.formatConstraints(e, p); c != "" {
			_, _ = fmt.Fprintf(f.writer, "- **%s:** %s, %s\n", p.Name, typeStr, c)
		} else {
			_, _ = fmt.Fprintf(f.writer, "- **%s:** %s\n", p.Name, typeStr)
		}
	}
	_, _ = fmt.Fprintln(f.writer)

	if len(e.ForeignKeys) > 0 || len(e.SkipNavigations) > 0 {
		_, _ = fmt.Fprintln(f.writer, "### References")
		_, _ = fmt.Fprintln(f.writer)
		for _, fk := range e.ForeignKeys {
			_, _ = fmt.Fprintf(f.writer, "- %s → %s.%s (%s, on delete %s)\n",
				strings.Join(fk.Properties, ", "),
				fk.PrincipalEntity,
				strings.Join(fk.PrincipalProperties, ", "),
				cardinality(fk),
				fk.DeleteBehavior)
		}
		for _, s := range e.SkipNavigations {
			_, _ = fmt.Fprintf(f.writer, "- %s ↔ %s (many-to-many through %s)\n", s.Name, s.TargetEntity, s.JoinEntity)
		}
		_, _ = fmt.Fprintln(f.writer)
	}

	if len(e.Indexes) > 0 {
		_, _ = fmt.Fprintln(f.writer, "### Idx")
		_, _ = fmt.Fprintln(f.writer)
		for _, ix := range e.Indexes {
			if ix.IsUnique {
				_, _ = fmt.Fprintf(f.writer, "- %s on (%s), unique\n",
					ix.Name,
					strings.Join(ix.Properties, ", "))
			} else {
				_, _ = fmt.Fprintf(f.writer, "- %s on (%s)\n",
					ix.Name,
					strings.Join(ix.Properties, ", "))
			}
		}
		_, _ = fmt.Fprintln(f.writer)
	}
}

func (f *MarkdownFormatter) formatConstraints(e *metadata.EntityType, p *metadata.Property) string {
	var constraints []string

	if e.IsPrimaryKeyProperty(p.Name) {
		constraints = append(constraints, "PK")
	}

	if !p.IsNullable {
		constraints = append(constraints, "NOT NULL")
	}

	if sql := p.Annotations.String(annotation.DefaultValueSql); sql != "" {
		constraints = append(constraints, fmt.Sprintf("DEFAULT %s", sql))
	}

	if sql := p.Annotations.String(annotation.ComputedColumnSql); sql != "" {
		constraints = append(constraints, fmt.Sprintf("COMPUTED %s", sql))
	}

	return strings.Join(constraints, ", ")
}
