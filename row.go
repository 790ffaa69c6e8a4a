package xrec

import (
	"fmt"
	"iter"
	"strings"
)

// Row is an ordered collection of named values from one record. Duplicate
// column names are retained; lookup by name is case-insensitive and resolves
// to the first match, while positional access and iteration see every entry
// in statement (or literal) order.
//
// A row obtained from [Cursor.Row] borrows the cursor's scan buffer and is
// valid only until the cursor advances or closes. That is a contract, not
// something the type enforces; [Row.Copy] is the one safe way to retain row
// data across a step.
type Row struct {
	names []string
	vals  []Value
	decls []string // declared column types, cursor-built rows only
}

// NewRow builds a row from alternating name/value pairs, preserving order
// and duplicates:
//
//	r := xrec.NewRow("a", 0, "b", 1, "c", 2)
//
// Values go through [ValueOf]. NewRow panics on an odd number of arguments,
// a non-string name, or an unconvertible value; malformed literals are
// programmer errors, as with slog attributes.
func NewRow(pairs ...any) *Row {
	if len(pairs)%2 != 0 {
		panic("xrec: NewRow: odd number of arguments")
	}
	r := &Row{
		names: make([]string, 0, len(pairs)/2),
		vals:  make([]Value, 0, len(pairs)/2),
	}
	for i := 0; i < len(pairs); i += 2 {
		name, ok := pairs[i].(string)
		if !ok {
			panic(fmt.Sprintf("xrec: NewRow: name at index %d is %T, not string", i, pairs[i]))
		}
		v, err := ValueOf(pairs[i+1])
		if err != nil {
			panic(fmt.Sprintf("xrec: NewRow: column %q: %v", name, err))
		}
		r.names = append(r.names, name)
		r.vals = append(r.vals, v)
	}
	return r
}

// NewRowFromValues builds a row from parallel name and value slices, which
// it copies. It panics if the lengths differ.
func NewRowFromValues(names []string, vals []Value) *Row {
	if len(names) != len(vals) {
		panic("xrec: NewRowFromValues: length mismatch")
	}
	return &Row{
		names: append([]string(nil), names...),
		vals:  append([]Value(nil), vals...),
	}
}

// Len reports the number of entries, duplicates included.
func (r *Row) Len() int { return len(r.names) }

// Columns returns the column names in stored order and spelling.
func (r *Row) Columns() []string { return append([]string(nil), r.names...) }

// ValueAt returns the value at position i.
func (r *Row) ValueAt(i int) Value { return r.vals[i] }

// NameAt returns the column name at position i, as stored.
func (r *Row) NameAt(i int) string { return r.names[i] }

// Value looks a column up by name, case-insensitively; when the name occurs
// more than once, the first entry wins. ok is false when the row has no
// such column.
func (r *Row) Value(name string) (Value, bool) {
	if i := r.Index(name); i >= 0 {
		return r.vals[i], true
	}
	return Null, false
}

// Has reports whether the row has a column with the given name,
// case-insensitively.
func (r *Row) Has(name string) bool { return r.Index(name) >= 0 }

// Index returns the position of the first column matching name,
// case-insensitively, or -1.
func (r *Row) Index(name string) int {
	want := toLowerAscii(name)
	for i, n := range r.names {
		if toLowerAscii(n) == want {
			return i
		}
	}
	return -1
}

// DeclaredType returns the declared type of the column at position i, as
// reported by the source statement. Literal rows have no declarations and
// return "".
func (r *Row) DeclaredType(i int) string {
	if i < len(r.decls) {
		return r.decls[i]
	}
	return ""
}

// Scoped returns the sub-row of columns spelled "prefix.rest", with the
// prefix stripped, in stored order. The prefix matches case-insensitively.
// ok is false when no column carries the prefix. This is how joined or
// aliased entities are decoded from a single fetch:
//
//	row := xrec.NewRow("id", 1, "team.id", 7, "team.name", "reds")
//	team, ok := row.Scoped("team") // [id:7 name:reds]
func (r *Row) Scoped(prefix string) (*Row, bool) {
	want := toLowerAscii(prefix) + "."
	var sub Row
	for i, n := range r.names {
		if len(n) > len(want) && strings.HasPrefix(toLowerAscii(n), want) {
			sub.names = append(sub.names, n[len(want):])
			sub.vals = append(sub.vals, r.vals[i])
			if i < len(r.decls) {
				sub.decls = append(sub.decls, r.decls[i])
			}
		}
	}
	if len(sub.names) == 0 {
		return nil, false
	}
	return &sub, true
}

// All returns a restartable iterator over (name, value) pairs in stored
// order, duplicates included.
func (r *Row) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		for i, n := range r.names {
			if !yield(n, r.vals[i]) {
				return
			}
		}
	}
}

// Copy returns a row independent of whatever storage backed this one.
// Blob payloads are deep-copied, so the copy stays valid after the source
// cursor advances or closes.
func (r *Row) Copy() *Row {
	c := &Row{
		names: append([]string(nil), r.names...),
		vals:  make([]Value, len(r.vals)),
	}
	if r.decls != nil {
		c.decls = append([]string(nil), r.decls...)
	}
	for i, v := range r.vals {
		if v.kind == KindBlob {
			v.b = append([]byte(nil), v.b...)
		}
		c.vals[i] = v
	}
	return c
}

// Equal reports plain equality: same length, same names (compared as
// stored, order-sensitively), and [Value.Equal] per entry. It never applies
// database numeric equality; Integer(1) and Real(1.0) make rows differ.
func (r *Row) Equal(o *Row) bool {
	if r == nil || o == nil {
		return r == o
	}
	if len(r.names) != len(o.names) {
		return false
	}
	for i := range r.names {
		if r.names[i] != o.names[i] || !r.vals[i].Equal(o.vals[i]) {
			return false
		}
	}
	return true
}

// String renders the row as "[name:value name:value ...]" with each value
// in its [Value.String] display form; NULL renders as the literal NULL.
func (r *Row) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, n := range r.names {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(n)
		b.WriteByte(':')
		b.WriteString(r.vals[i].String())
	}
	b.WriteByte(']')
	return b.String()
}

// ---------------- Column name normalization (ASCII fast-path) ----------------

// stripQuotes removes one layer of "…", `…` or […] identifier quoting.
func stripQuotes(s string) string {
	if l := len(s); l >= 2 {
		switch s[0] {
		case '"':
			if s[l-1] == '"' {
				s = s[1 : l-1]
			}
		case '`':
			if s[l-1] == '`' {
				s = s[1 : l-1]
			}
		case '[':
			if s[l-1] == ']' {
				s = s[1 : l-1]
			}
		}
	}
	return s
}

func toLowerAscii(s string) string {
	var need bool
	for i := 0; i < len(s); i++ {
		c := s[i]
		if 'A' <= c && c <= 'Z' {
			need = true
			break
		}
	}
	if !need {
		return s
	}
	b := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if 'A' <= c && c <= 'Z' {
			c = c + ('a' - 'A')
		}
		b[i] = c
	}
	return string(b)
}
