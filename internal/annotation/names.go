// Package annotation defines the annotation names shared by the catalog
// model, the metadata model and the code generators, together with the
// enumerated values some of them carry.
package annotation

// Core facts of a property.
const (
	MaxLength        = "MaxLength"
	Precision        = "Precision"
	Scale            = "Scale"
	Unicode          = "Unicode"
	FixedLength      = "FixedLength"
	ValueGenerated   = "ValueGenerated"
	ConcurrencyToken = "ConcurrencyToken"
	RowVersion       = "RowVersion"
)

// Relational facts shared by every provider.
const (
	TableName         = "Relational:TableName"
	Schema            = "Relational:Schema"
	DefaultSchema     = "Relational:DefaultSchema"
	ColumnName        = "Relational:ColumnName"
	ColumnType        = "Relational:ColumnType"
	DefaultValueSql   = "Relational:DefaultValueSql"
	DefaultValue      = "Relational:DefaultValue"
	ComputedColumnSql = "Relational:ComputedColumnSql"
	IsStored          = "Relational:IsStored"
	Comment           = "Relational:Comment"
	Collation         = "Relational:Collation"
	Name              = "Relational:Name"
	Filter            = "Relational:Filter"
	DatabaseName      = "Scaffolding:DatabaseName"
)

// SQL Server facts.
const (
	SqlServerValueGenerationStrategy     = "SqlServer:ValueGenerationStrategy"
	SqlServerIdentitySeed                = "SqlServer:IdentitySeed"
	SqlServerIdentityIncrement           = "SqlServer:IdentityIncrement"
	SqlServerHiLoSequenceName            = "SqlServer:HiLoSequenceName"
	SqlServerHiLoSequenceSchema          = "SqlServer:HiLoSequenceSchema"
	SqlServerSequenceName                = "SqlServer:SequenceName"
	SqlServerSequenceSchema              = "SqlServer:SequenceSchema"
	SqlServerClustered                   = "SqlServer:Clustered"
	SqlServerFillFactor                  = "SqlServer:FillFactor"
	SqlServerIsTemporal                  = "SqlServer:IsTemporal"
	SqlServerTemporalHistoryTableName    = "SqlServer:TemporalHistoryTableName"
	SqlServerTemporalHistoryTableSchema  = "SqlServer:TemporalHistoryTableSchema"
	SqlServerTemporalPeriodStartProperty = "SqlServer:TemporalPeriodStartPropertyName"
	SqlServerTemporalPeriodEndProperty   = "SqlServer:TemporalPeriodEndPropertyName"
	SqlServerTemporalPeriodStartColumn   = "SqlServer:TemporalPeriodStartColumnName"
	SqlServerTemporalPeriodEndColumn     = "SqlServer:TemporalPeriodEndColumnName"
	SqlServerMemoryOptimized             = "SqlServer:MemoryOptimized"
)

// PostgreSQL facts.
const (
	NpgsqlValueGenerationStrategy = "Npgsql:ValueGenerationStrategy"
	NpgsqlIndexMethod             = "Npgsql:IndexMethod"
)

// MySQL facts.
const (
	MySQLCharSet   = "MySql:CharSet"
	MySQLCollation = "MySql:Collation"
)
