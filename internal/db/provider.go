// Package db introspects live database catalogs into a schema.DatabaseModel.
// Each provider contributes the catalog queries; grouping, column
// resolution and anomaly reporting are shared.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	mssql "github.com/microsoft/go-mssqldb"

	_ "github.com/mattn/go-sqlite3"
)

// Provider names a supported database engine
type Provider string

const (
	SQLServer Provider = "sqlserver"
	Postgres  Provider = "postgres"
	MySQL     Provider = "mysql"
	SQLite    Provider = "sqlite"
)

// Providers lists every supported provider
var Providers = []Provider{SQLServer, Postgres, MySQL, SQLite}

// ParseProvider accepts a provider name or one of its common aliases.
func ParseProvider(name string) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sqlserver", "mssql":
		return SQLServer, nil
	case "postgres", "postgresql", "pg", "npgsql":
		return Postgres, nil
	case "mysql", "mariadb":
		return MySQL, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	}
	return "", fmt.Errorf("unsupported provider %q (must be one of sqlserver, postgres, mysql, sqlite)", name)
}

// ParseURL detects the provider from a database URL and returns the
// connection string its driver expects.
func ParseURL(url string) (Provider, string, error) {
	if url == "" {
		return "", "", fmt.Errorf("database URL is required")
	}

	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return Postgres, url, nil
	case strings.HasPrefix(url, "sqlserver://"):
		return SQLServer, url, nil
	case strings.HasPrefix(url, "mysql://"):
		// the MySQL driver takes a bare DSN
		return MySQL, strings.TrimPrefix(url, "mysql://"), nil
	case strings.HasPrefix(url, "sqlite://"):
		return SQLite, strings.TrimPrefix(url, "sqlite://"), nil
	}

	return "", "", fmt.Errorf("invalid database URL scheme (must start with postgres://, sqlserver://, mysql://, or sqlite://)")
}

// Resolve combines an optional provider name with a connection string or
// URL. Without a provider the connection must be a URL. A URL of the named
// provider is reduced to the connection string its driver expects.
func Resolve(provider, conn string) (Provider, string, error) {
	if provider == "" {
		return ParseURL(conn)
	}
	p, err := ParseProvider(provider)
	if err != nil {
		return "", "", err
	}
	if up, cs, err := ParseURL(conn); err == nil && up == p {
		return p, cs, nil
	}
	return p, conn, nil
}

// Open opens and pings a connection. Any failure is a *ConnectionError.
func Open(ctx context.Context, provider Provider, connString string) (*sql.DB, error) {
	conn, err := open(provider, connString)
	if err != nil {
		return nil, &ConnectionError{Provider: provider, Err: err}
	}

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, &ConnectionError{Provider: provider, Err: fmt.Errorf("failed to ping database: %w", err)}
	}

	return conn, nil
}

func open(provider Provider, connString string) (*sql.DB, error) {
	switch provider {
	case SQLServer:
		connector, err := mssql.NewConnector(connString)
		if err != nil {
			return nil, fmt.Errorf("invalid connection string: %w", err)
		}
		return sql.OpenDB(connector), nil
	case Postgres:
		cfg, err := pgx.ParseConfig(connString)
		if err != nil {
			return nil, fmt.Errorf("invalid connection string: %w", err)
		}
		return stdlib.OpenDB(*cfg), nil
	case MySQL:
		cfg, err := mysql.ParseDSN(connString)
		if err != nil {
			return nil, fmt.Errorf("invalid DSN: %w", err)
		}
		connector, err := mysql.NewConnector(cfg)
		if err != nil {
			return nil, err
		}
		return sql.OpenDB(connector), nil
	case SQLite:
		return sql.Open("sqlite3", connString)
	}
	return nil, fmt.Errorf("unsupported provider %q", provider)
}
