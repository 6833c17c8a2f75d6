package codegen

import (
	"github.com/tordrt/dbscaffold/internal/annotation"
	"github.com/tordrt/dbscaffold/internal/db"
	"github.com/tordrt/dbscaffold/internal/fragment"
	"github.com/tordrt/dbscaffold/internal/metadata"
)

type sqlServer struct{}

func (sqlServer) Name() db.Provider { return db.SQLServer }

func (sqlServer) UseProvider(connString string) *fragment.MethodCall {
	return call("UseSqlServer", connString)
}

func (sqlServer) Emitters(kind Kind) []Emitter {
	switch kind {
	case ModelKind:
		return []Emitter{identityStrategy("UseIdentityColumns")}
	case EntityKind:
		return []Emitter{temporal, flag(annotation.SqlServerMemoryOptimized, "IsMemoryOptimized")}
	case PropertyKind:
		return []Emitter{identityStrategy("UseIdentityColumn")}
	case KeyKind:
		return []Emitter{clustered}
	case IndexKind:
		return []Emitter{clustered, single(annotation.SqlServerFillFactor, "HasFillFactor")}
	}
	return nil
}

var clustered = Emitter{
	Annotations: []string{annotation.SqlServerClustered},
	Emit: func(_ Target, ws metadata.Annotations) (*fragment.MethodCall, error) {
		if v, _ := ws[annotation.SqlServerClustered].(bool); v {
			return call("IsClustered"), nil
		}
		return call("IsClustered", false), nil
	},
}

// identityStrategy renders the value generation strategy together with the
// identity and sequence facts it owns. identity is the method used for
// identity columns: UseIdentityColumns on the model, UseIdentityColumn on a
// property.
func identityStrategy(identity string) Emitter {
	return Emitter{
		Annotations: []string{
			annotation.SqlServerValueGenerationStrategy,
			annotation.SqlServerIdentitySeed,
			annotation.SqlServerIdentityIncrement,
			annotation.SqlServerHiLoSequenceName,
			annotation.SqlServerHiLoSequenceSchema,
			annotation.SqlServerSequenceName,
			annotation.SqlServerSequenceSchema,
		},
		Emit: func(t Target, ws metadata.Annotations) (*fragment.MethodCall, error) {
			name := annotation.SqlServerValueGenerationStrategy
			strategy, ok, err := strategyOf(t, ws, name)
			if err != nil {
				return nil, err
			}
			if !ok {
				// seed or increment alone still means an identity column
				strategy = annotation.StrategyIdentityColumn
			}
			switch strategy {
			case annotation.StrategyIdentityColumn:
				seed, hasSeed := toInt64(ws[annotation.SqlServerIdentitySeed])
				increment, hasIncrement := toInt64(ws[annotation.SqlServerIdentityIncrement])
				if !hasSeed {
					seed = 1
				}
				if !hasIncrement {
					increment = 1
				}
				if seed == 1 && increment == 1 {
					return call(identity), nil
				}
				return call(identity, seed, int(increment)), nil
			case annotation.StrategySequenceHiLo:
				return sequenceCall("UseHiLo", ws.String(annotation.SqlServerHiLoSequenceName), ws.String(annotation.SqlServerHiLoSequenceSchema)), nil
			case annotation.StrategySequence:
				return sequenceCall("UseSequence", ws.String(annotation.SqlServerSequenceName), ws.String(annotation.SqlServerSequenceSchema)), nil
			case annotation.StrategyNone:
				return call("HasAnnotation", name, strategy), nil
			}
			return nil, unsupportedStrategy(t, name, strategy)
		},
	}
}

func sequenceCall(method, name, schema string) *fragment.MethodCall {
	switch {
	case name == "":
		return call(method)
	case schema == "":
		return call(method, name)
	}
	return call(method, name, schema)
}

// temporal renders a system-versioned table as
// ToTable(tb => tb.IsTemporal(ttb => { ... })). The engine merges it with
// a plain ToTable(name, schema) of the same entity.
var temporal = Emitter{
	Annotations: []string{
		annotation.SqlServerIsTemporal,
		annotation.SqlServerTemporalHistoryTableName,
		annotation.SqlServerTemporalHistoryTableSchema,
		annotation.SqlServerTemporalPeriodStartProperty,
		annotation.SqlServerTemporalPeriodEndProperty,
		annotation.SqlServerTemporalPeriodStartColumn,
		annotation.SqlServerTemporalPeriodEndColumn,
	},
	Emit: func(t Target, ws metadata.Annotations) (*fragment.MethodCall, error) {
		if v, _ := ws[annotation.SqlServerIsTemporal].(bool); !v {
			return nil, nil
		}
		var body []*fragment.MethodCall
		if history := ws.String(annotation.SqlServerTemporalHistoryTableName); history != "" {
			body = append(body, sequenceCall("UseHistoryTable", history, ws.String(annotation.SqlServerTemporalHistoryTableSchema)))
		}
		body = append(body,
			period("HasPeriodStart", ws.String(annotation.SqlServerTemporalPeriodStartProperty), ws.String(annotation.SqlServerTemporalPeriodStartColumn)),
			period("HasPeriodEnd", ws.String(annotation.SqlServerTemporalPeriodEndProperty), ws.String(annotation.SqlServerTemporalPeriodEndColumn)),
		)
		return call("ToTable", fragment.Closure("tb",
			call("IsTemporal", fragment.Closure("ttb", body...)),
		)), nil
	},
}

func period(method, property, column string) *fragment.MethodCall {
	if property == "" {
		property = column
	}
	c := call(method, property)
	if column != "" && column != property {
		return c.Chain(call("HasColumnName", column))
	}
	return c
}
