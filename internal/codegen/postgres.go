package codegen

import (
	"github.com/tordrt/dbscaffold/internal/annotation"
	"github.com/tordrt/dbscaffold/internal/db"
	"github.com/tordrt/dbscaffold/internal/fragment"
	"github.com/tordrt/dbscaffold/internal/metadata"
)

type postgres struct{}

func (postgres) Name() db.Provider { return db.Postgres }

func (postgres) UseProvider(connString string) *fragment.MethodCall {
	return call("UseNpgsql", connString)
}

func (postgres) Emitters(kind Kind) []Emitter {
	switch kind {
	case PropertyKind:
		return []Emitter{npgsqlStrategy}
	case IndexKind:
		return []Emitter{single(annotation.NpgsqlIndexMethod, "HasMethod")}
	}
	return nil
}

var npgsqlStrategy = Emitter{
	Annotations: []string{annotation.NpgsqlValueGenerationStrategy},
	Emit: func(t Target, ws metadata.Annotations) (*fragment.MethodCall, error) {
		name := annotation.NpgsqlValueGenerationStrategy
		strategy, _, err := strategyOf(t, ws, name)
		if err != nil {
			return nil, err
		}
		switch strategy {
		case annotation.StrategyIdentityByDefaultColumn:
			return call("UseIdentityByDefaultColumn"), nil
		case annotation.StrategyIdentityAlwaysColumn:
			return call("UseIdentityAlwaysColumn"), nil
		case annotation.StrategySerialColumn:
			return call("UseSerialColumn"), nil
		case annotation.StrategyNone:
			return call("HasAnnotation", name, strategy), nil
		}
		return nil, unsupportedStrategy(t, name, strategy)
	},
}
