package typemap

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/dbscaffold/internal/db"
)

func source(t *testing.T, p db.Provider) *Source {
	t.Helper()
	s, err := For(p)
	require.NoError(t, err)
	return s
}

func TestFor_UnknownProvider(t *testing.T) {
	_, err := For(db.Provider("oracle"))
	assert.Error(t, err)
}

func TestSplitStoreType(t *testing.T) {
	tests := []struct {
		in   string
		base string
		args []int
		full string
	}{
		{"nvarchar(50)", "nvarchar", []int{50}, "nvarchar(50)"},
		{"DECIMAL(18, 2)", "decimal", []int{18, 2}, "decimal(18, 2)"},
		{"character varying(20)", "character varying", []int{20}, "character varying(20)"},
		{"timestamp(3) with time zone", "timestamp with time zone", []int{3}, "timestamp(3) with time zone"},
		{"int(10) unsigned", "int unsigned", []int{10}, "int(10) unsigned"},
		{"enum('a','b')", "enum", nil, "enum('a','b')"},
		{"  text ", "text", nil, "text"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			base, args, full := splitStoreType(tt.in)
			assert.Equal(t, tt.base, base)
			assert.Equal(t, tt.args, args)
			assert.Equal(t, tt.full, full)
		})
	}
}

func TestFind_SQLServer(t *testing.T) {
	s := source(t, db.SQLServer)

	m, ok := s.Find("nvarchar(50)")
	require.True(t, ok)
	assert.Equal(t, "string", m.ClrType)
	assert.True(t, m.Conventional)
	require.NotNil(t, m.MaxLength)
	assert.Equal(t, 50, *m.MaxLength)
	assert.Nil(t, m.Unicode)

	m, ok = s.Find("varchar(10)")
	require.True(t, ok)
	require.NotNil(t, m.Unicode)
	assert.False(t, *m.Unicode)

	m, ok = s.Find("decimal(18,2)")
	require.True(t, ok)
	assert.Nil(t, m.Precision, "default precision carries no facet")

	m, ok = s.Find("decimal(10,4)")
	require.True(t, ok)
	require.NotNil(t, m.Precision)
	assert.Equal(t, 10, *m.Precision)
	assert.Equal(t, 4, *m.Scale)
	assert.Equal(t, "decimal.Decimal", m.GoType)

	m, ok = s.Find("datetime")
	require.True(t, ok)
	assert.False(t, m.Conventional)
	assert.True(t, m.IsValueType)

	m, ok = s.Find("rowversion")
	require.True(t, ok)
	assert.True(t, m.RowVersion)
	assert.False(t, m.IsValueType)

	_, ok = s.Find("geography")
	assert.False(t, ok)
}

func TestFind_Postgres(t *testing.T) {
	s := source(t, db.Postgres)

	m, ok := s.Find("integer[]")
	require.True(t, ok)
	assert.Equal(t, "int[]", m.ClrType)
	assert.Equal(t, "[]int32", m.GoType)
	assert.False(t, m.IsValueType)

	m, ok = s.Find("timestamp(3) with time zone")
	require.True(t, ok)
	require.NotNil(t, m.Precision)
	assert.Equal(t, 3, *m.Precision)

	m, ok = s.Find("uuid")
	require.True(t, ok)
	assert.Equal(t, "uuid.UUID", m.GoType)

	_, ok = s.Find("tsvector")
	assert.False(t, ok)
}

func TestFind_MySQL(t *testing.T) {
	s := source(t, db.MySQL)

	m, ok := s.Find("tinyint(1)")
	require.True(t, ok)
	assert.Equal(t, "bool", m.ClrType)

	m, ok = s.Find("int(10) unsigned")
	require.True(t, ok)
	assert.Equal(t, "uint", m.ClrType)

	m, ok = s.Find("decimal(65,30)")
	require.True(t, ok)
	assert.Nil(t, m.Precision)
}

func TestFind_SQLiteAffinity(t *testing.T) {
	s := source(t, db.SQLite)

	tests := []struct {
		storeType string
		clr       string
	}{
		{"INTEGER", "long"},
		{"NUMBER(6)", "int"},
		{"NUMBER(15)", "long"},
		{"NUMERIC(29,4)", "decimal"},
		{"VARCHAR(20)", "string"},
		{"BLOB", "byte[]"},
		{"DOUBLE PRECISION", "double"},
		{"DATETIME", "DateTime"},
		{"WHATEVER", "string"},
	}

	for _, tt := range tests {
		t.Run(tt.storeType, func(t *testing.T) {
			m, ok := s.Find(tt.storeType)
			require.True(t, ok)
			assert.Equal(t, tt.clr, m.ClrType)
		})
	}
}

func TestParseDefault(t *testing.T) {
	s := source(t, db.SQLServer)
	mapping := func(storeType string) Mapping {
		m, ok := s.Find(storeType)
		require.True(t, ok, storeType)
		return m
	}

	tests := []struct {
		name      string
		storeType string
		sql       string
		want      any
		ok        bool
	}{
		{"wrapped int", "int", "((0))", int32(0), true},
		{"negative int", "int", "((-1))", int32(-1), true},
		{"bigint", "bigint", "(42)", int64(42), true},
		{"bit", "bit", "((1))", true, true},
		{"unicode string", "nvarchar(20)", "(N'it''s')", "it's", true},
		{"decimal", "decimal(18,2)", "((1.50))", decimal.RequireFromString("1.50"), true},
		{"null", "nvarchar(20)", "(NULL)", nil, true},
		{"function", "datetime2", "(getdate())", nil, false},
		{"guid", "uniqueidentifier", "('6f9619ff-8b86-d011-b42d-00c04fc964ff')",
			uuid.MustParse("6f9619ff-8b86-d011-b42d-00c04fc964ff"), true},
		{"date", "date", "('2020-01-02')", time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC), true},
		{"arithmetic", "int", "((1)+(2))", nil, false},
		{"int from decimal text", "int", "((1.0))", int32(1), true},
		{"overflowing tinyint", "tinyint", "((300))", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDefault(mapping(tt.storeType), tt.sql)
			require.Equal(t, tt.ok, ok)
			if d, isDecimal := tt.want.(decimal.Decimal); isDecimal {
				assert.True(t, d.Equal(got.(decimal.Decimal)))
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDefault_PostgresCast(t *testing.T) {
	s := source(t, db.Postgres)
	m, ok := s.Find("character varying(10)")
	require.True(t, ok)

	got, ok := ParseDefault(m, "'open'::character varying")
	require.True(t, ok)
	assert.Equal(t, "open", got)

	m, ok = s.Find("boolean")
	require.True(t, ok)
	got, ok = ParseDefault(m, "false")
	require.True(t, ok)
	assert.Equal(t, false, got)
}

func TestIsZero(t *testing.T) {
	assert.True(t, IsZero(nil))
	assert.True(t, IsZero(int32(0)))
	assert.True(t, IsZero(false))
	assert.True(t, IsZero(decimal.Zero))
	assert.True(t, IsZero(uuid.Nil))
	assert.True(t, IsZero(time.Time{}))

	assert.False(t, IsZero(""))
	assert.False(t, IsZero(int64(1)))
	assert.False(t, IsZero(true))
	assert.False(t, IsZero(decimal.RequireFromString("0.01")))
}
