package db

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseURL(t *testing.T) {
	tests := []struct {
		url      string
		provider Provider
		conn     string
		wantErr  bool
	}{
		{url: "postgres://u:p@localhost/shop", provider: Postgres, conn: "postgres://u:p@localhost/shop"},
		{url: "postgresql://localhost/shop", provider: Postgres, conn: "postgresql://localhost/shop"},
		{url: "sqlserver://sa@localhost?database=shop", provider: SQLServer, conn: "sqlserver://sa@localhost?database=shop"},
		{url: "mysql://root@tcp(localhost:3306)/shop", provider: MySQL, conn: "root@tcp(localhost:3306)/shop"},
		{url: "sqlite://data/app.db", provider: SQLite, conn: "data/app.db"},
		{url: "", wantErr: true},
		{url: "oracle://localhost", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			p, conn, err := ParseURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.provider, p)
			assert.Equal(t, tt.conn, conn)
		})
	}
}

func TestParseProvider(t *testing.T) {
	for alias, want := range map[string]Provider{
		"mssql": SQLServer, "SqlServer": SQLServer, "npgsql": Postgres, "pg": Postgres,
		"mariadb": MySQL, "sqlite3": SQLite, " sqlite ": SQLite,
	} {
		got, err := ParseProvider(alias)
		require.NoError(t, err, alias)
		assert.Equal(t, want, got, alias)
	}
	_, err := ParseProvider("oracle")
	assert.ErrorContains(t, err, "unsupported provider")
}

func TestResolve(t *testing.T) {
	p, conn, err := Resolve("", "sqlite://app.db")
	require.NoError(t, err)
	assert.Equal(t, SQLite, p)
	assert.Equal(t, "app.db", conn)

	p, conn, err = Resolve("mysql", "mysql://root@/shop")
	require.NoError(t, err)
	assert.Equal(t, MySQL, p)
	assert.Equal(t, "root@/shop", conn)

	p, conn, err = Resolve("sqlserver", "Server=.;Database=shop")
	require.NoError(t, err)
	assert.Equal(t, SQLServer, p)
	assert.Equal(t, "Server=.;Database=shop", conn)

	_, _, err = Resolve("", "Server=.")
	assert.Error(t, err)
}

func TestOpen_ConnectionError(t *testing.T) {
	_, err := Open(context.Background(), MySQL, "not a dsn")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConnection))
	var cerr *ConnectionError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, MySQL, cerr.Provider)

	_, err = Open(context.Background(), Provider("oracle"), "x")
	assert.ErrorIs(t, err, ErrConnection)
}
