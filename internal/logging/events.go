package logging

import (
	"context"
	"log/slog"
	"strings"
)

// Event names emitted while scaffolding.
const (
	EventDefaultSchemaFound                               = "DefaultSchemaFound"
	EventTableFound                                       = "TableFound"
	EventColumnFound                                      = "ColumnFound"
	EventPrimaryKeyFound                                  = "PrimaryKeyFound"
	EventUniqueConstraintFound                            = "UniqueConstraintFound"
	EventIndexFound                                       = "IndexFound"
	EventForeignKeyFound                                  = "ForeignKeyFound"
	EventSequenceFound                                    = "SequenceFound"
	EventMissingSchemaWarning                             = "MissingSchemaWarning"
	EventMissingTableWarning                              = "MissingTableWarning"
	EventForeignKeyReferencesMissingPrincipalTableWarning = "ForeignKeyReferencesMissingPrincipalTableWarning"
	EventForeignKeyPrincipalColumnMissingWarning          = "ForeignKeyPrincipalColumnMissingWarning"
	EventForeignKeyColumnMissingWarning                   = "ForeignKeyColumnMissingWarning"
	EventIndexColumnMissingWarning                        = "IndexColumnMissingWarning"
	EventColumnSkippedWarning                             = "ColumnSkippedWarning"
	EventUnableToGenerateEntityType                       = "UnableToGenerateEntityType"
	EventForeignKeySkippedWarning                         = "ForeignKeySkippedWarning"
)

// Events is the structured scaffolding logger. Every method writes one record
// carrying an "event" attribute with the event name. A nil *Events discards.
type Events struct {
	log *slog.Logger
}

// NewEvents wraps a slog logger
func NewEvents(l *slog.Logger) *Events {
	if l == nil {
		l = slog.New(discardHandler{})
	}
	return &Events{log: l}
}

// Discard returns Events that drop every record
func Discard() *Events {
	return NewEvents(nil)
}

func (e *Events) emit(level slog.Level, event, msg string, args ...any) {
	if e == nil || e.log == nil {
		return
	}
	e.log.Log(context.Background(), level, msg, append([]any{slog.String("event", event)}, args...)...)
}

func (e *Events) DefaultSchemaFound(schema string) {
	e.emit(slog.LevelDebug, EventDefaultSchemaFound, "found default schema", "schema", schema)
}

func (e *Events) TableFound(schema, table string) {
	e.emit(slog.LevelDebug, EventTableFound, "found table", "schema", schema, "table", table)
}

func (e *Events) ColumnFound(table, column, storeType string, nullable bool) {
	e.emit(slog.LevelDebug, EventColumnFound, "found column",
		"table", table, "column", column, "store_type", storeType, "nullable", nullable)
}

func (e *Events) PrimaryKeyFound(name, table string) {
	e.emit(slog.LevelDebug, EventPrimaryKeyFound, "found primary key", "name", name, "table", table)
}

func (e *Events) UniqueConstraintFound(name, table string) {
	e.emit(slog.LevelDebug, EventUniqueConstraintFound, "found unique constraint", "name", name, "table", table)
}

func (e *Events) IndexFound(name, table string, unique bool) {
	e.emit(slog.LevelDebug, EventIndexFound, "found index", "name", name, "table", table, "unique", unique)
}

func (e *Events) ForeignKeyFound(name, table, principalTable string, onDelete string) {
	e.emit(slog.LevelDebug, EventForeignKeyFound, "found foreign key",
		"name", name, "table", table, "principal_table", principalTable, "on_delete", onDelete)
}

func (e *Events) SequenceFound(name, storeType string) {
	e.emit(slog.LevelDebug, EventSequenceFound, "found sequence", "name", name, "store_type", storeType)
}

func (e *Events) MissingSchemaWarning(schema string) {
	e.emit(slog.LevelWarn, EventMissingSchemaWarning,
		"unable to find a schema in the database matching the selected schema", "schema", schema)
}

func (e *Events) MissingTableWarning(table string) {
	e.emit(slog.LevelWarn, EventMissingTableWarning,
		"unable to find a table in the database matching the selected table", "table", table)
}

func (e *Events) ForeignKeyReferencesMissingPrincipalTableWarning(foreignKey, table, principalTable string) {
	e.emit(slog.LevelWarn, EventForeignKeyReferencesMissingPrincipalTableWarning,
		"foreign key references a table that is not included in the model",
		"foreign_key", foreignKey, "table", table, "principal_table", principalTable)
}

func (e *Events) ForeignKeyPrincipalColumnMissingWarning(foreignKey, table, principalColumn, principalTable string) {
	e.emit(slog.LevelWarn, EventForeignKeyPrincipalColumnMissingWarning,
		"foreign key references a principal column that could not be found",
		"foreign_key", foreignKey, "table", table, "principal_column", principalColumn, "principal_table", principalTable)
}

func (e *Events) ForeignKeyColumnMissingWarning(foreignKey, table, column string) {
	e.emit(slog.LevelWarn, EventForeignKeyColumnMissingWarning,
		"foreign key column could not be found", "foreign_key", foreignKey, "table", table, "column", column)
}

func (e *Events) IndexColumnMissingWarning(index, table, column string) {
	e.emit(slog.LevelWarn, EventIndexColumnMissingWarning,
		"index or key column could not be found", "index", index, "table", table, "column", column)
}

func (e *Events) ColumnSkippedWarning(table, column, storeType string) {
	e.emit(slog.LevelWarn, EventColumnSkippedWarning,
		"could not find a type mapping for the column, skipping it",
		"table", table, "column", column, "store_type", storeType)
}

func (e *Events) UnableToGenerateEntityType(table, reason string) {
	e.emit(slog.LevelWarn, EventUnableToGenerateEntityType,
		"unable to generate entity type for table", "table", table, "reason", reason)
}

func (e *Events) ForeignKeySkippedWarning(foreignKey, table, reason string) {
	e.emit(slog.LevelWarn, EventForeignKeySkippedWarning,
		"could not scaffold the foreign key", "foreign_key", foreignKey, "table", table, "reason", reason)
}

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }

// Qualify joins a schema and table name for log output
func Qualify(schema, name string) string {
	if schema == "" {
		return name
	}
	return strings.Join([]string{schema, name}, ".")
}
