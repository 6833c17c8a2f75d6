package annotation

import "fmt"

// ValueGenerationStrategy is the value of the provider value generation
// strategy annotations.
type ValueGenerationStrategy int

const (
	StrategyNone ValueGenerationStrategy = iota
	StrategyIdentityColumn
	StrategySequenceHiLo
	StrategySequence
	StrategyIdentityByDefaultColumn
	StrategyIdentityAlwaysColumn
	StrategySerialColumn
)

var strategyNames = [...]string{
	StrategyNone:                    "None",
	StrategyIdentityColumn:          "IdentityColumn",
	StrategySequenceHiLo:            "SequenceHiLo",
	StrategySequence:                "Sequence",
	StrategyIdentityByDefaultColumn: "IdentityByDefaultColumn",
	StrategyIdentityAlwaysColumn:    "IdentityAlwaysColumn",
	StrategySerialColumn:            "SerialColumn",
}

// Valid reports whether s is one of the declared strategies.
func (s ValueGenerationStrategy) Valid() bool {
	return s >= 0 && int(s) < len(strategyNames)
}

func (s ValueGenerationStrategy) String() string {
	if !s.Valid() {
		return fmt.Sprintf("ValueGenerationStrategy(%d)", int(s))
	}
	return strategyNames[s]
}

// Namespace is the namespace of the generated enum reference.
func (s ValueGenerationStrategy) Namespace() string {
	return "Microsoft.EntityFrameworkCore.Metadata"
}

// CSharp renders the enum member reference used in HasAnnotation fallbacks.
func (s ValueGenerationStrategy) CSharp() string {
	if s >= StrategyIdentityByDefaultColumn {
		return "NpgsqlValueGenerationStrategy." + s.String()
	}
	return "SqlServerValueGenerationStrategy." + s.String()
}

// ValueGeneratedKind mirrors when a property value is generated.
type ValueGeneratedKind int

const (
	Never ValueGeneratedKind = iota
	OnAdd
	OnAddOrUpdate
	OnUpdate
)

func (v ValueGeneratedKind) String() string {
	switch v {
	case OnAdd:
		return "OnAdd"
	case OnAddOrUpdate:
		return "OnAddOrUpdate"
	case OnUpdate:
		return "OnUpdate"
	default:
		return "Never"
	}
}
