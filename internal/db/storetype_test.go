package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeNumeric(t *testing.T) {
	tests := []struct {
		p, s         int
		wantP, wantS int
	}{
		{0, 0, 10, 0},
		{12, 2, 29, 4},
		{3, 0, 6, 0},
		{8, 2, 8, 2},
		{10, 0, 10, 0},
		{38, 0, 38, 0},
	}
	for _, tt := range tests {
		p, s := NormalizeNumeric(tt.p, tt.s)
		assert.Equal(t, tt.wantP, p, "precision of (%d,%d)", tt.p, tt.s)
		assert.Equal(t, tt.wantS, s, "scale of (%d,%d)", tt.p, tt.s)
	}
}

func TestStoreTypes(t *testing.T) {
	assert.Equal(t, "NUMBER(10)", NumericStoreType("NUMBER", 0, 0))
	assert.Equal(t, "NUMBER(29,4)", NumericStoreType("NUMBER", 15, 2))
	assert.Equal(t, "nvarchar(4000)", CharacterStoreType("nvarchar", -1))
	assert.Equal(t, "varbinary(16)", CharacterStoreType("varbinary", 16))
}

func TestNormalizeDeclaredType(t *testing.T) {
	assert.Equal(t, "NUMBER(10)", normalizeDeclaredType("NUMBER"))
	assert.Equal(t, "NUMERIC(8,2)", normalizeDeclaredType("numeric(8, 2)"))
	assert.Equal(t, "DECIMAL(6)", normalizeDeclaredType("decimal(4)"))
	assert.Equal(t, "TEXT", normalizeDeclaredType("TEXT"))
	assert.Equal(t, "VARCHAR(20)", normalizeDeclaredType("VARCHAR(20)"))
}

func TestSQLServerStoreType(t *testing.T) {
	assert.Equal(t, "nvarchar(50)", sqlServerStoreType("nvarchar", 100, 0, 0))
	assert.Equal(t, "nvarchar(4000)", sqlServerStoreType("nvarchar", -1, 0, 0))
	assert.Equal(t, "decimal(18,2)", sqlServerStoreType("decimal", 9, 18, 2))
	assert.Equal(t, "numeric(12,2)", sqlServerStoreType("numeric", 9, 12, 2), "declared precision is not clamped")
	assert.Equal(t, "datetime2(3)", sqlServerStoreType("datetime2", 8, 23, 3))
	assert.Equal(t, "datetime2", sqlServerStoreType("datetime2", 8, 27, 7))
	assert.Equal(t, "rowversion", sqlServerStoreType("timestamp", 8, 0, 0))
	assert.Equal(t, "int", sqlServerStoreType("int", 4, 10, 0))
}

func TestStripParentheses(t *testing.T) {
	assert.Equal(t, "0", stripParentheses("((0))"))
	assert.Equal(t, "getdate()", stripParentheses("(getdate())"))
	assert.Equal(t, "(1)+(2)", stripParentheses("((1)+(2))"))
	assert.Equal(t, "N'(x'", stripParentheses("(N'(x')"))
}
