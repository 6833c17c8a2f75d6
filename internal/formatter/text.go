// Package formatter prints a summary of a scaffolded model: which table each
// entity maps, its properties, keys, relationships and the tables that could
// not be scaffolded.
package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/dbscaffold/internal/metadata"
)

// Formatter writes a model summary
type Formatter interface {
	Format(m *metadata.Model) error
}

// New returns the formatter for "text" or "markdown"
func New(format string, w io.Writer) (Formatter, error) {
	switch format {
	case "", "text":
		return NewTextFormatter(w), nil
	case "markdown", "md":
		return NewMarkdownFormatter(w), nil
	}
	return nil, fmt.Errorf("invalid report format: %s (must be 'text' or 'markdown')", format)
}

// TextFormatter formats the model as compact text
type TextFormatter struct {
	writer io.Writer
}

// NewTextFormatter creates a new text formatter
func NewTextFormatter(w io.Writer) *TextFormatter {
	return &TextFormatter{writer: w}
}

// Format writes the model in compact text format
func (f *TextFormatter) Format(m *metadata.Model) error {
	for i, e := range m.Entities {
		if i > 0 {
			_, _ = fmt.Fprintln(f.writer) // Blank line between entities
		}
		f.formatEntity(e)
	}

	if len(m.Sequences) > 0 {
		_, _ = fmt.Fprintln(f.writer)
		for _, s := range m.Sequences {
			_, _ = fmt.Fprintf(f.writer, "SEQUENCE %s\n", qualify(s.Schema, s.Name))
		}
	}

	if len(m.Unmapped) > 0 {
		_, _ = fmt.Fprintln(f.writer)
		_, _ = fmt.Fprintln(f.writer, "SKIPPED:")
		for _, u := range m.Unmapped {
			_, _ = fmt.Fprintf(f.writer, "  %s: %s\n", u.Table, u.Reason)
		}
	}
	return nil
}

func (f *TextFormatter) formatEntity(e *metadata.EntityType) {
	// Entity header with primary key
	pkStr := " (KEYLESS)"
	if e.PrimaryKey != nil {
		pkStr = fmt.Sprintf(" (PK: %s)", strings.Join(e.PrimaryKey.Properties, ", "))
	}
	kind := "ENTITY"
	if e.IsJoinEntity {
		kind = "JOIN"
	}
	_, _ = fmt.Fprintf(f.writer, "%s %s -> %s%s\n", kind, e.Name, qualify(e.Schema(), e.TableName()), pkStr)

	for _, p := range e.Properties {
		_, _ = fmt.Fprintf(f.writer, "  %s\n", formatProperty(p))
	}

	if len(e.ForeignKeys) > 0 || len(e.SkipNavigations) > 0 {
		_, _ = fmt.Fprintln(f.writer)
		_, _ = fmt.Fprintln(f.writer, "  RELATIONS:")
		for _, fk := range e.ForeignKeys {
			_, _ = fmt.Fprintf(f.writer, "    → %s (%s) via %s\n",
				fk.PrincipalEntity, cardinality(fk), strings.Join(fk.Properties, ", "))
		}
		for _, s := range e.SkipNavigations {
			_, _ = fmt.Fprintf(f.writer, "    ↔ %s (many-to-many) via %s\n", s.TargetEntity, s.JoinEntity)
		}
	}

	if len(e.Indexes) > 0 {
		_, _ = fmt.Fprintln(f.writer)
		_, _ = fmt.Fprintln(f.writer, "  INDEXES:")
		for _, ix := range e.Indexes {
			unique := ""
			if ix.IsUnique {
				unique = " UNIQUE"
			}
			_, _ = fmt.Fprintf(f.writer, "    %s (%s)%s\n", ix.Name, strings.Join(ix.Properties, ", "), unique)
		}
	}
}

func formatProperty(p *metadata.Property) string {
	parts := []string{p.Name + ":", p.TypeName()}

	if col := p.ColumnName(); col != "" && col != p.Name {
		parts = append(parts, "["+col+"]")
	}
	if t := p.ColumnType(); t != "" {
		parts = append(parts, t)
	}
	if !p.IsNullable {
		parts = append(parts, "NOT NULL")
	}
	return strings.Join(parts, " ")
}

func cardinality(fk *metadata.ForeignKey) string {
	if fk.IsUnique {
		return "one-to-one"
	}
	return "many-to-one"
}

func qualify(schema, name string) string {
	if schema == "" {
		return name
	}
	return schema + "." + name
}
