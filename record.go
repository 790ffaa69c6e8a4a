package xrec

import (
	"fmt"
	"sort"
)

// Record is the contract a persistable entity implements: name its table
// and key, hand over its storage-facing state, and accept values back.
// Conformance is plain interface satisfaction; there is no registration.
//
// PersistedValues returns the canonical dictionary of persisted column name
// to current value. SetValue accepts a raw database value for a named
// column; it should ignore columns the entity does not persist and return
// an error only when a persisted column's value cannot be represented.
// With [Values] and [SetField] both methods are one-liners over `db` tags.
type Record interface {
	Table() string
	PrimaryKey() []string
	PersistedValues() map[string]Value
	SetValue(column string, v Value) error
}

// tracked is satisfied by embedding [Tracking]. The methods are unexported
// on purpose: the reference row is bookkeeping owned by this package, and
// promotion through the embedded struct is the only way to conform.
type tracked interface {
	referenceRow() *Row
	setReferenceRow(*Row)
}

// Tracking is the embeddable change-tracking state of a record. It holds
// the reference row: the last state the record is known to have been
// synchronized with the database ([Load], [Insert], [Update], [Save],
// [Reload] all set it). A freshly constructed record has none and counts
// as edited until it round-trips.
//
//	type Player struct {
//	    xrec.Tracking
//	    ID   *int64 `db:"id"`
//	    Name string `db:"name"`
//	}
type Tracking struct {
	ref *Row
}

func (t *Tracking) referenceRow() *Row     { return t.ref }
func (t *Tracking) setReferenceRow(r *Row) { t.ref = r }

// Edited reports whether writing rec now could change the database.
//
// It is true when rec has no reference row (never synchronized, or not a
// [Tracking] embedder at all); when any persisted column is missing from
// the reference row (a partial fetch cannot prove the unfetched columns
// unchanged, so it is conservatively edited); or when any persisted value
// differs from its reference under plain [Value.Equal]. Columns present in
// the reference but not persisted are ignored: fetching wider than the
// record never marks it edited.
func Edited(rec Record) bool {
	ref := reference(rec)
	if ref == nil {
		return true
	}
	for name, v := range rec.PersistedValues() {
		rv, ok := ref.Value(name)
		if !ok || !v.Equal(rv) {
			return true
		}
	}
	return false
}

// ChangedColumns returns the sorted names of persisted columns that
// diverge from the reference row, including columns the reference lacks.
// Without a reference row every persisted column is reported.
func ChangedColumns(rec Record) []string {
	ref := reference(rec)
	var out []string
	for name, v := range rec.PersistedValues() {
		if ref == nil {
			out = append(out, name)
			continue
		}
		rv, ok := ref.Value(name)
		if !ok || !v.Equal(rv) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Load populates rec from a fetched row: every row column is offered to
// SetValue (first entry wins for duplicate names), and the record's
// reference row becomes an independent copy of row. Whether the record is
// then clean or edited follows from how much of its state the row covered.
func Load(rec Record, row *Row) error {
	applied := make(map[string]struct{}, row.Len())
	for name, v := range row.All() {
		lc := toLowerAscii(name)
		if _, dup := applied[lc]; dup {
			continue
		}
		applied[lc] = struct{}{}
		if err := rec.SetValue(name, v); err != nil {
			return fmt.Errorf("xrec: loading %q: %w", rec.Table(), err)
		}
	}
	syncReference(rec, row.Copy())
	return nil
}

// CopyValuesFrom copies src's persisted values, primary key included, into
// dst via SetValue. dst's reference row is deliberately left untouched, so
// a copy that changes any value (the key in particular) makes dst report
// edited. This is the documented way to force a record dirty.
func CopyValuesFrom(dst, src Record) error {
	vals := src.PersistedValues()
	for _, name := range sortedColumns(vals) {
		if err := dst.SetValue(name, vals[name]); err != nil {
			return fmt.Errorf("xrec: copying %q: %w", name, err)
		}
	}
	return nil
}

func reference(rec Record) *Row {
	if tr, ok := rec.(tracked); ok {
		return tr.referenceRow()
	}
	return nil
}

func syncReference(rec Record, row *Row) {
	if tr, ok := rec.(tracked); ok {
		tr.setReferenceRow(row)
	}
}

// rowFromValues builds a reference row from a persisted dictionary in
// sorted column order.
func rowFromValues(vals map[string]Value) *Row {
	names := sortedColumns(vals)
	r := &Row{
		names: names,
		vals:  make([]Value, len(names)),
	}
	for i, n := range names {
		r.vals[i] = vals[n]
	}
	return r
}

func sortedColumns(vals map[string]Value) []string {
	names := make([]string, 0, len(vals))
	for n := range vals {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
