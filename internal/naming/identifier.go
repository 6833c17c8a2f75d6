// Package naming turns database identifiers into valid, idiomatic C#
// identifiers and renders C# literals.
package naming

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-openapi/inflect"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// read-only after init
var (
	identifierRegex = regexp.MustCompile(`^[\p{L}\p{Nl}_][\p{L}\p{Nl}\p{Nd}\p{Mn}\p{Mc}\p{Pc}]*$`)
	wordSplitter    = regexp.MustCompile(`[^\p{L}\p{Nd}]+`)

	csharpKeywords = toSet(
		"abstract", "as", "base", "bool", "break", "byte", "case", "catch", "char", "checked",
		"class", "const", "continue", "decimal", "default", "delegate", "do", "double", "else",
		"enum", "event", "explicit", "extern", "false", "finally", "fixed", "float", "for",
		"foreach", "goto", "if", "implicit", "in", "int", "interface", "internal", "is", "lock",
		"long", "namespace", "new", "null", "object", "operator", "out", "override", "params",
		"private", "protected", "public", "readonly", "ref", "return", "sbyte", "sealed",
		"short", "sizeof", "stackalloc", "static", "string", "struct", "switch", "this", "throw",
		"true", "try", "typeof", "uint", "ulong", "unchecked", "unsafe", "ushort", "using",
		"virtual", "void", "volatile", "while",
	)
)

func toSet(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

// IsValidIdentifier reports whether name is a valid C# identifier that is
// not a keyword.
func IsValidIdentifier(name string) bool {
	return identifierRegex.MatchString(name) && !csharpKeywords[name]
}

// IsKeyword reports whether name is a reserved C# keyword
func IsKeyword(name string) bool {
	return csharpKeywords[name]
}

// Identifier makes name a valid C# identifier: invalid characters become
// underscores, a leading digit gets an underscore prefix and keywords are
// escaped with @.
func Identifier(name string) string {
	if name == "" {
		return "_"
	}
	var b strings.Builder
	for i, r := range name {
		switch {
		case unicode.IsLetter(r), r == '_':
			b.WriteRune(r)
		case unicode.IsDigit(r):
			if i == 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	id := b.String()
	if csharpKeywords[id] {
		return "@" + id
	}
	return id
}

// Pascal converts a database name into a PascalCase candidate identifier:
// order_details → OrderDetails, ORDERS → Orders, customerID → CustomerID.
func Pascal(name string) string {
	words := wordSplitter.Split(name, -1)
	var b strings.Builder
	for _, w := range words {
		if w == "" {
			continue
		}
		// casers carry state, one per call keeps Pascal safe for concurrent use
		if isUpper(w) && len(w) > 1 {
			b.WriteString(cases.Title(language.Und).String(w))
		} else {
			b.WriteString(cases.Title(language.Und, cases.NoLower).String(w))
		}
	}
	if b.Len() == 0 {
		return Identifier(name)
	}
	return Identifier(b.String())
}

func isUpper(s string) bool {
	hasLetter := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			hasLetter = true
		}
	}
	return hasLetter
}

// Singularize returns the singular form of the last word of name
func Singularize(name string) string {
	if name == "" {
		return name
	}
	return inflect.Singularize(name)
}

// Pluralize returns the plural form of the last word of name
func Pluralize(name string) string {
	if name == "" {
		return name
	}
	return inflect.Pluralize(name)
}

// Uniquifier hands out names that do not clash with names already taken,
// appending 1, 2, ... as needed.
type Uniquifier struct {
	used map[string]bool
}

// NewUniquifier reserves the given names
func NewUniquifier(reserved ...string) *Uniquifier {
	u := &Uniquifier{used: map[string]bool{}}
	for _, r := range reserved {
		u.Reserve(r)
	}
	return u
}

// Reserve marks name as taken
func (u *Uniquifier) Reserve(name string) {
	u.used[strings.ToLower(name)] = true
}

// Taken reports whether name (compared case-insensitively) is taken
func (u *Uniquifier) Taken(name string) bool {
	return u.used[strings.ToLower(name)]
}

// Unique returns name, or name with the smallest numeric suffix not yet
// taken, and reserves the result.
func (u *Uniquifier) Unique(name string) string {
	candidate := name
	for i := 1; u.Taken(candidate); i++ {
		candidate = name + strconv.Itoa(i)
	}
	u.Reserve(candidate)
	return candidate
}
