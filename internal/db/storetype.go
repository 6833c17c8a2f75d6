package db

import (
	"regexp"
	"strconv"
	"strings"
)

// unboundedLength replaces the provider's "max" length sentinel
const unboundedLength = 4000

// NormalizeNumeric applies the precision/scale heuristic for numeric columns
// whose catalog precision is missing or oversized.
func NormalizeNumeric(precision, scale int) (int, int) {
	switch {
	case precision == 0 && scale == 0:
		return 10, 0
	case precision > 10 && scale > 0:
		return 29, 4
	case precision < 6 && scale == 0:
		return 6, 0
	}
	return precision, scale
}

// NumericStoreType renders typ with its normalized precision and scale.
func NumericStoreType(typ string, precision, scale int) string {
	p, s := NormalizeNumeric(precision, scale)
	if s == 0 {
		return typ + "(" + strconv.Itoa(p) + ")"
	}
	return typ + "(" + strconv.Itoa(p) + "," + strconv.Itoa(s) + ")"
}

// CharacterStoreType renders a character or binary type. A negative length is
// the provider's marker for an unbounded column.
func CharacterStoreType(typ string, maxLength int) string {
	if maxLength < 0 {
		maxLength = unboundedLength
	}
	return typ + "(" + strconv.Itoa(maxLength) + ")"
}

var declaredType = regexp.MustCompile(`^\s*([A-Za-z][A-Za-z0-9_ ]*?)\s*(?:\(\s*(-?\d+)\s*(?:,\s*(-?\d+)\s*)?\))?\s*$`)

// numericFamily lists declared type names that go through NumericStoreType
var numericFamily = map[string]bool{
	"NUMBER":  true,
	"NUMERIC": true,
	"DECIMAL": true,
}

// normalizeDeclaredType rewrites free-form declared types (SQLite) so the
// numeric family always carries a precision.
func normalizeDeclaredType(declared string) string {
	m := declaredType.FindStringSubmatch(declared)
	if m == nil {
		return declared
	}
	base := strings.ToUpper(m[1])
	if !numericFamily[base] {
		return declared
	}
	p, _ := strconv.Atoi(m[2])
	s, _ := strconv.Atoi(m[3])
	return NumericStoreType(base, p, s)
}
