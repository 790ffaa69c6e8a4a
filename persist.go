package xrec

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/mattn/go-sqlite3"
)

// Exec executes a statement that does not return rows (INSERT, UPDATE,
// DELETE, DDL).
//
// It forwards to the underlying [Execer]. On success it returns the
// driver's [sql.Result] with LastInsertId and RowsAffected. Exec does not
// attempt SQL rendering; write your statement exactly as the driver
// expects. Use a transaction ([InTx]) around multiple Exec/Fetch calls
// when you need atomicity.
func Exec(ctx context.Context, e Execer, query string, args ...any) (sql.Result, error) {
	return e.ExecContext(ctx, query, args...)
}

// Insert writes rec's persisted values as a new database row.
//
// When rec has a single primary-key column whose value is NULL or absent,
// the engine assigns the rowid and Insert writes it back through SetValue.
// On success the reference row becomes a snapshot of what was written, so
// the record reports not edited. A uniqueness or foreign-key rejection
// surfaces as [ConstraintError]; nothing is retried.
func Insert(ctx context.Context, e Execer, rec Record) error {
	stored := rec.PersistedValues()
	if len(stored) == 0 {
		return errors.New("xrec: insert: record persists no columns")
	}
	cols := sortedColumns(stored)
	args := make([]any, len(cols))
	for i, c := range cols {
		args[i] = stored[c].Arg()
	}

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(quoteIdent(rec.Table()))
	b.WriteString(" (")
	for i, c := range cols {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(quoteIdent(c))
	}
	b.WriteString(") VALUES (")
	b.WriteString(placeholders(len(cols)))
	b.WriteByte(')')

	res, err := e.ExecContext(ctx, b.String(), args...)
	if err != nil {
		return wrapConstraint(rec.Table(), err)
	}

	if pk := rec.PrimaryKey(); len(pk) == 1 {
		v, ok := storedValue(stored, pk[0])
		if !ok || v.IsNull() {
			if id, err := res.LastInsertId(); err == nil {
				if err := rec.SetValue(pk[0], Integer(id)); err != nil {
					return err
				}
				stored = rec.PersistedValues()
			}
		}
	}
	syncReference(rec, rowFromValues(stored))
	return nil
}

// Update writes rec's persisted values against its primary key.
//
// It returns [ErrRecordNotFound] when no stored row matches the key, and
// [ErrMissingPrimaryKey] when the record's key values are absent or NULL.
// On success the reference row becomes a snapshot of what was written.
func Update(ctx context.Context, e Execer, rec Record) error {
	stored := rec.PersistedValues()
	pkCols, pkArgs, err := primaryKeyArgs(rec, stored)
	if err != nil {
		return err
	}

	isPK := make(map[string]bool, len(pkCols))
	for _, c := range pkCols {
		isPK[toLowerAscii(c)] = true
	}
	setCols := make([]string, 0, len(stored))
	for _, c := range sortedColumns(stored) {
		if !isPK[toLowerAscii(c)] {
			setCols = append(setCols, c)
		}
	}
	if len(setCols) == 0 {
		// Key-only record: write the key to itself so the statement still
		// reports whether the row exists.
		setCols = pkCols
	}

	var b strings.Builder
	b.WriteString("UPDATE ")
	b.WriteString(quoteIdent(rec.Table()))
	b.WriteString(" SET ")
	args := make([]any, 0, len(setCols)+len(pkArgs))
	for i, c := range setCols {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(quoteIdent(c))
		b.WriteString(" = ?")
		v, _ := storedValue(stored, c)
		args = append(args, v.Arg())
	}
	b.WriteString(" WHERE ")
	writeKeyPredicate(&b, pkCols)
	args = append(args, pkArgs...)

	res, err := e.ExecContext(ctx, b.String(), args...)
	if err != nil {
		return wrapConstraint(rec.Table(), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRecordNotFound
	}
	syncReference(rec, rowFromValues(stored))
	return nil
}

// Save inserts rec when it has no established identity (any primary-key
// value absent or NULL), otherwise updates it. An update that finds no
// matching row falls back to insert: the record carried an identity that
// is not in storage.
func Save(ctx context.Context, e Execer, rec Record) error {
	stored := rec.PersistedValues()
	pk := rec.PrimaryKey()
	if len(pk) == 0 {
		return ErrMissingPrimaryKey
	}
	for _, c := range pk {
		if v, ok := storedValue(stored, c); !ok || v.IsNull() {
			return Insert(ctx, e, rec)
		}
	}
	if err := Update(ctx, e, rec); err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return Insert(ctx, e, rec)
		}
		return err
	}
	return nil
}

// Delete removes rec's database row by primary key. found reports whether
// a row was actually removed; deleting an already-absent record is a
// normal result, not an error.
func Delete(ctx context.Context, e Execer, rec Record) (found bool, err error) {
	pkCols, pkArgs, err := primaryKeyArgs(rec, rec.PersistedValues())
	if err != nil {
		return false, err
	}
	var b strings.Builder
	b.WriteString("DELETE FROM ")
	b.WriteString(quoteIdent(rec.Table()))
	b.WriteString(" WHERE ")
	writeKeyPredicate(&b, pkCols)

	res, err := e.ExecContext(ctx, b.String(), pkArgs...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Reload re-fetches rec by primary key, replacing every persisted property
// through SetValue and resetting the reference row to the fresh fetch. It
// returns [ErrRecordNotFound] when the row no longer exists.
func Reload(ctx context.Context, q Querier, rec Record) error {
	pkCols, pkArgs, err := primaryKeyArgs(rec, rec.PersistedValues())
	if err != nil {
		return err
	}
	var b strings.Builder
	b.WriteString("SELECT * FROM ")
	b.WriteString(quoteIdent(rec.Table()))
	b.WriteString(" WHERE ")
	writeKeyPredicate(&b, pkCols)

	row, err := FetchOne(ctx, q, b.String(), pkArgs...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrRecordNotFound
		}
		return err
	}
	return Load(rec, row)
}

// ---------------- Statement assembly helpers ----------------

// quoteIdent double-quotes an identifier, escaping embedded quotes.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func placeholders(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('?')
	}
	return b.String()
}

func writeKeyPredicate(b *strings.Builder, pkCols []string) {
	for i, c := range pkCols {
		if i > 0 {
			b.WriteString(" AND ")
		}
		b.WriteString(quoteIdent(c))
		b.WriteString(" = ?")
	}
}

// storedValue looks a column up in a persisted dictionary, matching the
// way row lookup matches: ASCII case-insensitively.
func storedValue(stored map[string]Value, name string) (Value, bool) {
	if v, ok := stored[name]; ok {
		return v, true
	}
	want := toLowerAscii(name)
	for k, v := range stored {
		if toLowerAscii(k) == want {
			return v, true
		}
	}
	return Null, false
}

// primaryKeyArgs resolves the record's key columns to bind arguments,
// rejecting absent or NULL key values.
func primaryKeyArgs(rec Record, stored map[string]Value) ([]string, []any, error) {
	pk := rec.PrimaryKey()
	if len(pk) == 0 {
		return nil, nil, ErrMissingPrimaryKey
	}
	args := make([]any, len(pk))
	for i, c := range pk {
		v, ok := storedValue(stored, c)
		if !ok || v.IsNull() {
			return nil, nil, ErrMissingPrimaryKey
		}
		args[i] = v.Arg()
	}
	return pk, args, nil
}

// wrapConstraint types engine constraint rejections; every other engine
// error propagates verbatim.
func wrapConstraint(table string, err error) error {
	var se sqlite3.Error
	if errors.As(err, &se) && se.Code == sqlite3.ErrConstraint {
		return &ConstraintError{Table: table, Err: err}
	}
	return err
}
