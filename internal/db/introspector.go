package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tordrt/dbscaffold/internal/logging"
	"github.com/tordrt/dbscaffold/internal/schema"
)

// catalog is the provider-specific half of introspection: one query per kind
// of object, each restricted by the same filter.
type catalog interface {
	databaseName(ctx context.Context) (string, error)
	defaultSchema(ctx context.Context) (string, error)
	// implicitSchema is the schema name a filter may use for tables the
	// provider reports without one.
	implicitSchema() string
	sequences(ctx context.Context, f *Filter) ([]*schema.DatabaseSequence, error)
	tables(ctx context.Context, f *Filter) ([]*schema.DatabaseTable, error)
	columns(ctx context.Context, f *Filter) ([]columnRow, error)
	keys(ctx context.Context, f *Filter) ([]keyRow, error)
	indexes(ctx context.Context, f *Filter) ([]indexRow, error)
	foreignKeys(ctx context.Context, f *Filter) ([]foreignKeyRow, error)
}

// tableFinisher is implemented by catalogs that derive facts once a table's
// columns and keys are known.
type tableFinisher interface {
	finishTable(t *schema.DatabaseTable)
}

type columnRow struct {
	schema, table string
	column        *schema.DatabaseColumn
}

type keyRow struct {
	schema, table, name string
	primary             bool
	columns             []string
	annotations         map[string]any
}

type indexRow struct {
	schema, table, name string
	unique              bool
	filter              string
	columns             []string
	annotations         map[string]any
}

// foreignKeyRow carries id for providers without constraint names; rows with
// the same id (or name) belong to the same key.
type foreignKeyRow struct {
	schema, table, name, id string
	principalSchema         string
	principalTable          string
	onDelete                string
	columns                 []string
	principalColumns        []string
}

func (r foreignKeyRow) groupID() string {
	if r.id != "" {
		return r.id
	}
	return r.name
}

// Introspector reads a provider's catalog into a DatabaseModel
type Introspector struct {
	provider Provider
	events   *logging.Events
}

// NewIntrospector creates an introspector for provider reporting through
// events. A nil events discards.
func NewIntrospector(provider Provider, events *logging.Events) *Introspector {
	if events == nil {
		events = logging.Discard()
	}
	return &Introspector{provider: provider, events: events}
}

func (in *Introspector) catalog(conn *sql.DB) (catalog, error) {
	switch in.provider {
	case SQLServer:
		return &sqlServerCatalog{db: conn}, nil
	case Postgres:
		return &postgresCatalog{db: conn}, nil
	case MySQL:
		return &mySQLCatalog{db: conn}, nil
	case SQLite:
		return &sqliteCatalog{db: conn}, nil
	}
	return nil, fmt.Errorf("unsupported provider %q", in.provider)
}

// Introspect builds the model of the tables and schemas selected by the
// filters. The connection is used as given and left open. Queries run one
// after another: later ones resolve names against earlier results.
func (in *Introspector) Introspect(ctx context.Context, conn *sql.DB, tables, schemas []string) (*schema.DatabaseModel, error) {
	filter, err := BuildFilter(tables, schemas)
	if err != nil {
		return nil, err
	}
	cat, err := in.catalog(conn)
	if err != nil {
		return nil, err
	}

	b := newModelBuilder(in.events)

	if b.model.DatabaseName, err = cat.databaseName(ctx); err != nil {
		return nil, fmt.Errorf("failed to read database name: %w", err)
	}
	if b.model.DefaultSchema, err = cat.defaultSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to read default schema: %w", err)
	}
	if b.model.DefaultSchema != "" {
		in.events.DefaultSchemaFound(b.model.DefaultSchema)
	}

	seqs, err := cat.sequences(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to read sequences: %w", err)
	}
	b.addSequences(seqs)

	ts, err := cat.tables(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to read tables: %w", err)
	}
	b.addTables(ts)

	cols, err := cat.columns(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}
	b.addColumns(cols)

	keys, err := cat.keys(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to read keys: %w", err)
	}
	b.addKeys(keys)

	idx, err := cat.indexes(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to read indexes: %w", err)
	}
	b.addIndexes(idx)

	fks, err := cat.foreignKeys(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to read foreign keys: %w", err)
	}
	b.addForeignKeys(fks)

	if fin, ok := cat.(tableFinisher); ok {
		for _, t := range b.model.Tables {
			fin.finishTable(t)
		}
	}

	b.warnUnmatched(filter, cat.implicitSchema())
	return b.model, nil
}
