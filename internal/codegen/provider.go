package codegen

import (
	"fmt"

	"github.com/tordrt/dbscaffold/internal/annotation"
	"github.com/tordrt/dbscaffold/internal/db"
	"github.com/tordrt/dbscaffold/internal/fragment"
	"github.com/tordrt/dbscaffold/internal/metadata"
)

// Provider renders the provider specific part of the configuration
type Provider interface {
	Name() db.Provider
	// UseProvider is the options builder call OnConfiguring makes
	UseProvider(connString string) *fragment.MethodCall
	// Emitters is the ordered emitter table for kind, applied after the
	// relational one
	Emitters(kind Kind) []Emitter
}

// ProviderFor returns the generator for a provider
func ProviderFor(p db.Provider) (Provider, error) {
	switch p {
	case db.SQLServer:
		return sqlServer{}, nil
	case db.Postgres:
		return postgres{}, nil
	case db.MySQL:
		return mySQL{}, nil
	case db.SQLite:
		return sqlite{}, nil
	}
	return nil, fmt.Errorf("no code generator for provider %q", p)
}

// strategyOf reads a value generation strategy annotation. ok is false when
// the annotation is absent; a present value that is not a declared
// strategy is an error.
func strategyOf(t Target, ws metadata.Annotations, name string) (annotation.ValueGenerationStrategy, bool, error) {
	v, ok := ws[name]
	if !ok {
		return annotation.StrategyNone, false, nil
	}
	s, isStrategy := v.(annotation.ValueGenerationStrategy)
	if !isStrategy || !s.Valid() {
		return annotation.StrategyNone, false, &InternalConsistencyError{
			Object:     objectName(t),
			Annotation: name,
			Value:      v,
			Message:    fmt.Sprintf("unknown value generation strategy %v", v),
		}
	}
	return s, true, nil
}

func unsupportedStrategy(t Target, name string, s annotation.ValueGenerationStrategy) error {
	return &InternalConsistencyError{
		Object:     objectName(t),
		Annotation: name,
		Value:      s,
		Message:    fmt.Sprintf("value generation strategy %s is not supported here", s),
	}
}

func objectName(t Target) string {
	switch {
	case t.Property != nil && t.Entity != nil:
		return t.Entity.Name + "." + t.Property.Name
	case t.Entity != nil:
		return t.Entity.Name
	}
	return "model"
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint8:
		return int64(n), true
	case int16:
		return int64(n), true
	}
	return 0, false
}
