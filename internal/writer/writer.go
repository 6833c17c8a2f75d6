// Package writer renders a scaffolded model as source files: a context
// class with the fluent configuration plus one class per entity, or Go
// structs when the output language is Go.
package writer

import (
	"fmt"
	"path/filepath"
	"slices"

	"github.com/tordrt/dbscaffold/internal/codegen"
	"github.com/tordrt/dbscaffold/internal/fragment"
	"github.com/tordrt/dbscaffold/internal/metadata"
)

// Language selects the generated source language
type Language string

const (
	CSharp Language = "csharp"
	Go     Language = "go"
)

// ParseLanguage accepts a language name, "" meaning C#
func ParseLanguage(s string) (Language, error) {
	switch s {
	case "", "csharp", "cs", "c#":
		return CSharp, nil
	case "go", "golang":
		return Go, nil
	}
	return "", fmt.Errorf("unsupported language %q (must be csharp or go)", s)
}

// Options controls what is generated
type Options struct {
	ContextName string
	// Namespace of the entity classes, or the Go package path's last element
	Namespace string
	// ContextNamespace defaults to Namespace
	ContextNamespace string

	ConnectionString      string
	SuppressOnConfiguring bool
	UseDataAnnotations    bool
	Overwrite             bool
	Language              Language
}

// File is one generated file, Path relative to the output directory
type File struct {
	Path string
	Code string
}

// Output is everything generated for one model
type Output struct {
	ContextFile File
	EntityFiles []File
}

// Files lists the context file first
func (o *Output) Files() []File {
	files := []File{}
	if o.ContextFile.Path != "" {
		files = append(files, o.ContextFile)
	}
	return append(files, o.EntityFiles...)
}

// Writer renders models with one engine
type Writer struct {
	engine *codegen.Engine
	opts   Options
}

// New creates a writer
func New(engine *codegen.Engine, opts Options) *Writer {
	if opts.ContextName == "" {
		opts.ContextName = "AppDbContext"
	}
	if opts.ContextNamespace == "" {
		opts.ContextNamespace = opts.Namespace
	}
	if opts.Language == "" {
		opts.Language = CSharp
	}
	return &Writer{engine: engine, opts: opts}
}

// Write renders m and saves it under dir. Nothing is written when any
// target file conflicts.
func (w *Writer) Write(m *metadata.Model, dir string) ([]string, error) {
	out, err := w.Render(m)
	if err != nil {
		return nil, err
	}
	return out.Save(dir, w.opts.Overwrite)
}

// Render generates the files of m in memory
func (w *Writer) Render(m *metadata.Model) (*Output, error) {
	if w.opts.Language == Go {
		return w.renderGo(m)
	}
	cfg, err := w.configure(m)
	if err != nil {
		return nil, err
	}

	out := &Output{ContextFile: File{
		Path: w.opts.ContextName + ".cs",
		Code: w.contextFile(m, cfg),
	}}
	for _, e := range cfg.entities {
		out.EntityFiles = append(out.EntityFiles, File{
			Path: e.entity.Name + ".cs",
			Code: w.entityFile(m, e, cfg),
		})
	}
	return out, nil
}

type propertyConfig struct {
	property *metadata.Property
	result   codegen.Result
}

type entityConfig struct {
	entity      *metadata.EntityType
	keys        []codegen.Result
	table       codegen.Result
	indexes     []codegen.Result
	properties  []propertyConfig
	foreignKeys []codegen.Result
	manyToMany  []codegen.Result
}

func (e *entityConfig) results() []codegen.Result {
	out := slices.Concat(e.keys, []codegen.Result{e.table}, e.indexes)
	for _, p := range e.properties {
		out = append(out, p.result)
	}
	return slices.Concat(out, e.foreignKeys, e.manyToMany)
}

type modelConfig struct {
	model     codegen.Result
	sequences []codegen.Result
	entities  []*entityConfig

	classAttributes  map[string][]fragment.Attribute
	memberAttributes map[codegen.Member][]fragment.Attribute
}

// configure runs the engine over every object of m
func (w *Writer) configure(m *metadata.Model) (*modelConfig, error) {
	g := w.engine
	cfg := &modelConfig{
		classAttributes:  map[string][]fragment.Attribute{},
		memberAttributes: map[codegen.Member][]fragment.Attribute{},
	}
	var err error
	if cfg.model, err = g.Model(m); err != nil {
		return nil, err
	}
	for _, s := range m.Sequences {
		r, err := g.Sequence(m, s)
		if err != nil {
			return nil, err
		}
		cfg.sequences = append(cfg.sequences, r)
	}

	for _, e := range m.Entities {
		if e.IsJoinEntity {
			continue
		}
		ec, err := w.configureEntity(m, e)
		if err != nil {
			return nil, fmt.Errorf("entity %s: %w", e.Name, err)
		}
		cfg.entities = append(cfg.entities, ec)
		for _, r := range ec.results() {
			cfg.classAttributes[e.Name] = append(cfg.classAttributes[e.Name], r.Attributes...)
			for member, attrs := range r.Members {
				cfg.memberAttributes[member] = append(cfg.memberAttributes[member], attrs...)
			}
		}
	}
	return cfg, nil
}

func (w *Writer) configureEntity(m *metadata.Model, e *metadata.EntityType) (*entityConfig, error) {
	g := w.engine
	ec := &entityConfig{entity: e}

	key, err := g.Key(m, e, e.PrimaryKey)
	if err != nil {
		return nil, err
	}
	ec.keys = append(ec.keys, key)
	for _, k := range e.Keys {
		r, err := g.Key(m, e, k)
		if err != nil {
			return nil, err
		}
		ec.keys = append(ec.keys, r)
	}

	if ec.table, err = g.Entity(m, e); err != nil {
		return nil, err
	}
	for _, ix := range e.Indexes {
		r, err := g.Index(m, e, ix)
		if err != nil {
			return nil, err
		}
		ec.indexes = append(ec.indexes, r)
	}
	for _, p := range e.Properties {
		r, err := g.Property(m, e, p)
		if err != nil {
			return nil, err
		}
		ec.properties = append(ec.properties, propertyConfig{property: p, result: r})
	}
	for _, fk := range e.ForeignKeys {
		r, err := g.ForeignKey(m, e, fk)
		if err != nil {
			return nil, err
		}
		ec.foreignKeys = append(ec.foreignKeys, r)
	}
	for _, skip := range e.SkipNavigations {
		if !skip.IsLeft {
			continue
		}
		r, err := g.ManyToMany(m, e, skip)
		if err != nil {
			return nil, err
		}
		ec.manyToMany = append(ec.manyToMany, r)
	}
	return ec, nil
}

// fluent returns the calls to render, dropping those expressed by
// attributes when data annotations are on
func (w *Writer) fluent(r codegen.Result) []*fragment.MethodCall {
	var out []*fragment.MethodCall
	for _, f := range r.Fluent {
		if w.opts.UseDataAnnotations && f.IsHandledByDataAnnotations {
			continue
		}
		out = append(out, f.MethodCall)
	}
	return out
}

func relative(dir string, files []File) []string {
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = filepath.Join(dir, f.Path)
	}
	return paths
}
