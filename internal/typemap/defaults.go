package typemap

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ParseDefault turns a column's default value SQL into a value of the
// mapping's CLR type. It reports false for expressions (function calls,
// arithmetic) and for literals that do not fit the type. NULL parses to nil.
func ParseDefault(m Mapping, sql string) (any, bool) {
	s := unwrapParentheses(strings.TrimSpace(sql))
	if s == "" {
		return nil, false
	}
	if strings.EqualFold(s, "null") {
		return nil, true
	}

	if i := strings.Index(s, "::"); i > 0 {
		// 'abc'::character varying
		s = unwrapParentheses(s[:i])
	}

	text, quoted := unquote(s)
	if !quoted {
		text = s
	}

	switch m.ClrType {
	case "string":
		if !quoted {
			return nil, false
		}
		return text, true
	case "bool":
		return parseBool(text)
	case "byte":
		return parseUint(text, 8, func(v uint64) any { return uint8(v) })
	case "ushort":
		return parseUint(text, 16, func(v uint64) any { return uint16(v) })
	case "uint":
		return parseUint(text, 32, func(v uint64) any { return uint32(v) })
	case "ulong":
		return parseUint(text, 64, func(v uint64) any { return v })
	case "sbyte":
		return parseInt(text, 8, func(v int64) any { return int8(v) })
	case "short":
		return parseInt(text, 16, func(v int64) any { return int16(v) })
	case "int":
		return parseInt(text, 32, func(v int64) any { return int32(v) })
	case "long":
		return parseInt(text, 64, func(v int64) any { return v })
	case "decimal":
		d, err := decimal.NewFromString(text)
		if err != nil {
			return nil, false
		}
		return d, true
	case "double":
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, false
		}
		return f, true
	case "float":
		f, err := strconv.ParseFloat(text, 32)
		if err != nil {
			return nil, false
		}
		return float32(f), true
	case "Guid":
		if !quoted {
			return nil, false
		}
		id, err := uuid.Parse(text)
		if err != nil {
			return nil, false
		}
		return id, true
	case "DateTime", "DateOnly", "DateTimeOffset":
		if !quoted {
			return nil, false
		}
		return parseTime(text)
	}
	return nil, false
}

// unwrapParentheses strips parentheses wrapping the whole expression, as SQL
// Server reports ((0)).
func unwrapParentheses(s string) string {
	for len(s) >= 2 && s[0] == '(' && s[len(s)-1] == ')' && wraps(s) {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}

// wraps reports whether the opening parenthesis of s closes at its end
func wraps(s string) bool {
	depth := 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 && i != len(s)-1 {
				return false
			}
		}
	}
	return depth == 0
}

// unquote reads 'text' or N'text' with doubled quotes as escapes
func unquote(s string) (string, bool) {
	if strings.HasPrefix(s, "N'") || strings.HasPrefix(s, "n'") {
		s = s[1:]
	}
	if len(s) < 2 || s[0] != '\'' || s[len(s)-1] != '\'' {
		return "", false
	}
	body := s[1 : len(s)-1]
	if strings.Contains(strings.ReplaceAll(body, "''", ""), "'") {
		// two literals joined by an operator
		return "", false
	}
	return strings.ReplaceAll(body, "''", "'"), true
}

func parseBool(s string) (any, bool) {
	switch strings.ToLower(s) {
	case "1", "true", "b'1'", "'1'":
		return true, true
	case "0", "false", "b'0'", "'0'":
		return false, true
	}
	return nil, false
}

func parseInt(s string, bits int, conv func(int64) any) (any, bool) {
	v, err := strconv.ParseInt(s, 10, bits)
	if err != nil {
		// 1.0 style defaults on integral columns
		d, derr := decimal.NewFromString(s)
		if derr != nil || !d.IsInteger() {
			return nil, false
		}
		if v, err = strconv.ParseInt(d.Truncate(0).String(), 10, bits); err != nil {
			return nil, false
		}
	}
	return conv(v), true
}

func parseUint(s string, bits int, conv func(uint64) any) (any, bool) {
	v, err := strconv.ParseUint(s, 10, bits)
	if err != nil {
		return nil, false
	}
	return conv(v), true
}

var timeLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05Z07",
}

func parseTime(s string) (any, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return nil, false
}

// IsZero reports whether v is the CLR default of its type: null, 0, false,
// Guid.Empty or DateTime.MinValue. Strings and arrays are reference types;
// only null is their default.
func IsZero(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case bool:
		return !x
	case int8:
		return x == 0
	case int16:
		return x == 0
	case int32:
		return x == 0
	case int64:
		return x == 0
	case uint8:
		return x == 0
	case uint16:
		return x == 0
	case uint32:
		return x == 0
	case uint64:
		return x == 0
	case float32:
		return x == 0
	case float64:
		return x == 0
	case decimal.Decimal:
		return x.IsZero()
	case uuid.UUID:
		return x == uuid.Nil
	case time.Time:
		return x.IsZero()
	}
	return false
}
