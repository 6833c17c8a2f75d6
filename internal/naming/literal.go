package naming

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CSharper is implemented by values that render their own C# code, such as
// enum members.
type CSharper interface {
	CSharp() string
}

// Literal renders v as a C# literal expression.
func Literal(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case CSharper:
		return x.CSharp()
	case string:
		return String(x)
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10) + "L"
	case int16:
		return "(short)" + strconv.FormatInt(int64(x), 10)
	case int8:
		return "(sbyte)" + strconv.FormatInt(int64(x), 10)
	case uint8:
		return "(byte)" + strconv.FormatUint(uint64(x), 10)
	case uint16:
		return "(ushort)" + strconv.FormatUint(uint64(x), 10)
	case uint32:
		return strconv.FormatUint(uint64(x), 10) + "u"
	case uint64:
		return strconv.FormatUint(x, 10) + "ul"
	case float32:
		return floatLiteral(float64(x), 32) + "f"
	case float64:
		return floatLiteral(x, 64)
	case decimal.Decimal:
		return x.String() + "m"
	case uuid.UUID:
		return fmt.Sprintf("new Guid(%q)", x.String())
	case time.Time:
		return dateTimeLiteral(x)
	case time.Duration:
		return fmt.Sprintf("new TimeSpan(%d)", int64(x/100))
	case []byte:
		parts := make([]string, len(x))
		for i, b := range x {
			parts[i] = strconv.Itoa(int(b))
		}
		return "new byte[] { " + strings.Join(parts, ", ") + " }"
	case []string:
		parts := make([]string, len(x))
		for i, s := range x {
			parts[i] = String(s)
		}
		return "new[] { " + strings.Join(parts, ", ") + " }"
	case []any:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = Literal(e)
		}
		return "new object[] { " + strings.Join(parts, ", ") + " }"
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.String:
		return String(rv.String())
	case reflect.Pointer:
		if rv.IsNil() {
			return "null"
		}
		return Literal(rv.Elem().Interface())
	}
	return fmt.Sprint(v)
}

// String renders a regular C# string literal
func String(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case 0:
			b.WriteString(`\0`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func floatLiteral(f float64, bits int) string {
	s := strconv.FormatFloat(f, 'g', -1, bits)
	if !strings.ContainsAny(s, ".eEN") {
		s += ".0"
	}
	return s
}

func dateTimeLiteral(t time.Time) string {
	kind := "DateTimeKind.Unspecified"
	if t.Location() == time.UTC {
		kind = "DateTimeKind.Utc"
	}
	if ms := t.Nanosecond() / int(time.Millisecond); ms != 0 {
		return fmt.Sprintf("new DateTime(%d, %d, %d, %d, %d, %d, %d, %s)",
			t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second(), ms, kind)
	}
	return fmt.Sprintf("new DateTime(%d, %d, %d, %d, %d, %d, %s)",
		t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second(), kind)
}
