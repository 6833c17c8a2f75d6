package db

import "strings"

// TableName is a parsed table filter token: name or schema.name, where each
// part may be bracket quoted. Quoting is remembered so String reproduces the
// token it was parsed from.
type TableName struct {
	Schema string
	Name   string

	schemaQuoted bool
	nameQuoted   bool
}

// Qualified reports whether the token named a schema
func (t TableName) Qualified() bool {
	return t.Schema != "" || t.schemaQuoted
}

// String renders the token. Parts that were quoted, or that cannot be
// written bare, are bracketed with ] doubled.
func (t TableName) String() string {
	name := renderPart(t.Name, t.nameQuoted)
	if !t.Qualified() {
		return name
	}
	return renderPart(t.Schema, t.schemaQuoted) + "." + name
}

func renderPart(s string, quoted bool) string {
	if !quoted && s != "" && !strings.ContainsAny(s, ".[]") {
		return s
	}
	return "[" + strings.ReplaceAll(s, "]", "]]") + "]"
}

// ParseTableName parses a table filter token.
func ParseTableName(token string) (TableName, error) {
	first, quoted1, pos, err := parsePart(token, 0)
	if err != nil {
		return TableName{}, err
	}
	if pos == len(token) {
		return TableName{Name: first, nameQuoted: quoted1}, nil
	}
	if token[pos] != '.' {
		return TableName{}, &FilterSyntaxError{Token: token, Pos: pos, Reason: "expected '.' or end of name"}
	}
	second, quoted2, end, err := parsePart(token, pos+1)
	if err != nil {
		return TableName{}, err
	}
	if end != len(token) {
		return TableName{}, &FilterSyntaxError{Token: token, Pos: end, Reason: "unexpected trailing characters"}
	}
	return TableName{Schema: first, schemaQuoted: quoted1, Name: second, nameQuoted: quoted2}, nil
}

// parsePart reads one part starting at pos and returns the unescaped value,
// whether it was bracketed and the offset just past it.
func parsePart(token string, pos int) (string, bool, int, error) {
	if pos >= len(token) {
		return "", false, pos, &FilterSyntaxError{Token: token, Pos: pos, Reason: "empty name"}
	}
	if token[pos] != '[' {
		end := pos
		for end < len(token) && token[end] != '.' && token[end] != '[' && token[end] != ']' {
			end++
		}
		if end == pos {
			return "", false, pos, &FilterSyntaxError{Token: token, Pos: pos, Reason: "empty name"}
		}
		if end < len(token) && token[end] != '.' {
			return "", false, end, &FilterSyntaxError{Token: token, Pos: end, Reason: "bracket in unquoted name"}
		}
		return token[pos:end], false, end, nil
	}

	var b strings.Builder
	for i := pos + 1; i < len(token); i++ {
		if token[i] != ']' {
			b.WriteByte(token[i])
			continue
		}
		if i+1 < len(token) && token[i+1] == ']' {
			b.WriteByte(']')
			i++
			continue
		}
		if b.Len() == 0 {
			return "", true, pos, &FilterSyntaxError{Token: token, Pos: pos, Reason: "empty name"}
		}
		return b.String(), true, i + 1, nil
	}
	return "", true, pos, &FilterSyntaxError{Token: token, Pos: pos, Reason: "unterminated bracket"}
}
