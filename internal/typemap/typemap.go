// Package typemap maps provider store types to CLR and Go types and parses
// default value SQL into literal values.
package typemap

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/tordrt/dbscaffold/internal/db"
)

// Mapping is what a store type scaffolds to. Facet pointers are set only
// when the store type carries a facet that differs from the CLR type's
// default.
type Mapping struct {
	StoreType   string
	ClrType     string
	GoType      string
	IsValueType bool

	// Conventional reports whether the store type is what the provider
	// would pick for ClrType plus the facets below.
	Conventional bool

	MaxLength   *int
	Precision   *int
	Scale       *int
	Unicode     *bool
	FixedLength bool
	RowVersion  bool
}

// facet says which parenthesized arguments of a store type are meaningful
type facet int

const (
	noFacet facet = iota
	lengthFacet
	precisionFacet
	precisionScaleFacet
)

type entry struct {
	clr          string
	conventional bool
	facet        facet
	// default facet values; a store type carrying them needs no facet
	defaultPrecision int
	defaultScale     int
	nonUnicode       bool
	fixedLength      bool
	rowVersion       bool
}

// Source resolves store types for one provider
type Source struct {
	provider db.Provider
	exact    map[string]entry
	fallback func(base string, args []int) (entry, bool)
}

// For returns the type source of provider
func For(provider db.Provider) (*Source, error) {
	switch provider {
	case db.SQLServer:
		return &Source{provider: provider, exact: sqlServerTypes}, nil
	case db.Postgres:
		return &Source{provider: provider, exact: postgresTypes, fallback: postgresArray}, nil
	case db.MySQL:
		return &Source{provider: provider, exact: mySQLTypes}, nil
	case db.SQLite:
		return &Source{provider: provider, exact: sqliteTypes, fallback: sqliteAffinity}, nil
	}
	return nil, fmt.Errorf("no type mapping for provider %q", provider)
}

// Provider returns the provider the source maps for
func (s *Source) Provider() db.Provider {
	return s.provider
}

// Find maps a store type. It reports false for types with no CLR mapping,
// whose columns are skipped.
func (s *Source) Find(storeType string) (Mapping, bool) {
	base, args, full := splitStoreType(storeType)

	e, ok := s.exact[full]
	if !ok {
		e, ok = s.exact[base]
	}
	if !ok && s.fallback != nil {
		e, ok = s.fallback(base, args)
	}
	if !ok {
		return Mapping{}, false
	}

	m := Mapping{
		StoreType:    storeType,
		ClrType:      e.clr,
		GoType:       goType(e.clr),
		IsValueType:  isValueType(e.clr),
		Conventional: e.conventional,
		FixedLength:  e.fixedLength,
		RowVersion:   e.rowVersion,
	}
	if e.nonUnicode {
		f := false
		m.Unicode = &f
	}

	switch e.facet {
	case lengthFacet:
		if len(args) > 0 {
			m.MaxLength = intPtr(args[0])
		}
	case precisionFacet:
		p := e.defaultPrecision
		if len(args) > 0 {
			p = args[0]
		}
		if p != e.defaultPrecision {
			m.Precision = intPtr(p)
		}
	case precisionScaleFacet:
		p, sc := e.defaultPrecision, e.defaultScale
		if len(args) > 0 {
			p, sc = args[0], 0
		}
		if len(args) > 1 {
			sc = args[1]
		}
		if p != e.defaultPrecision || sc != e.defaultScale {
			m.Precision = intPtr(p)
			m.Scale = intPtr(sc)
		}
	}
	return m, true
}

func intPtr(i int) *int { return &i }

var (
	spaces      = regexp.MustCompile(`\s+`)
	parenthesis = regexp.MustCompile(`\(([^)]*)\)`)
)

// splitStoreType splits "character varying(50)" into its base name
// "character varying", its integer arguments and the normalized full type.
func splitStoreType(storeType string) (string, []int, string) {
	full := strings.ToLower(spaces.ReplaceAllString(strings.TrimSpace(storeType), " "))

	var args []int
	if m := parenthesis.FindStringSubmatch(full); m != nil {
		for _, part := range strings.Split(m[1], ",") {
			n, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				args = nil
				break
			}
			args = append(args, n)
		}
	}
	base := parenthesis.ReplaceAllString(full, "")
	base = strings.TrimSpace(spaces.ReplaceAllString(base, " "))
	full = strings.ReplaceAll(full, " (", "(")
	return base, args, full
}

var valueTypes = map[string]bool{
	"bool": true, "byte": true, "sbyte": true, "short": true, "ushort": true,
	"int": true, "uint": true, "long": true, "ulong": true, "float": true,
	"double": true, "decimal": true, "Guid": true, "DateTime": true,
	"DateTimeOffset": true, "DateOnly": true, "TimeOnly": true, "TimeSpan": true,
}

func isValueType(clr string) bool {
	return valueTypes[clr]
}

var goTypes = map[string]string{
	"bool":           "bool",
	"byte":           "uint8",
	"sbyte":          "int8",
	"short":          "int16",
	"ushort":         "uint16",
	"int":            "int32",
	"uint":           "uint32",
	"long":           "int64",
	"ulong":          "uint64",
	"float":          "float32",
	"double":         "float64",
	"decimal":        "decimal.Decimal",
	"string":         "string",
	"byte[]":         "[]byte",
	"Guid":           "uuid.UUID",
	"DateTime":       "time.Time",
	"DateTimeOffset": "time.Time",
	"DateOnly":       "time.Time",
	"TimeOnly":       "time.Duration",
	"TimeSpan":       "time.Duration",
}

// goType maps a CLR type name to the Go type the struct emitter uses
func goType(clr string) string {
	if elem, ok := strings.CutSuffix(clr, "[]"); ok && clr != "byte[]" {
		return "[]" + goType(elem)
	}
	if t, ok := goTypes[clr]; ok {
		return t
	}
	return "any"
}
