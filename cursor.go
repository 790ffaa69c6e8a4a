package xrec

import (
	"context"
	"database/sql"
)

// Cursor steps through the rows of one executed statement. The row exposed
// by [Cursor.Row] is rebuilt in place on every [Cursor.Next]: it borrows
// the cursor's scan buffer and must not be read after the cursor advances
// or closes. Copy it to keep it.
type Cursor struct {
	rows  *sql.Rows
	names []string
	decls []string
	cells []any
	dests []any
	row   Row
	err   error
}

// Fetch executes the query and returns a cursor over its rows. Column
// names have one layer of identifier quoting stripped; declared column
// types are captured once per statement from the driver and drive the
// TEXT/BLOB split when decoding cells (see [Row.DeclaredType]).
//
//	cur, err := xrec.Fetch(ctx, db, `SELECT id, name FROM player`)
//	if err != nil { ... }
//	defer cur.Close()
//	for cur.Next() {
//	    row := cur.Row() // valid until the next cur.Next()
//	    fmt.Println(row)
//	}
//	if err := cur.Err(); err != nil { ... }
func Fetch(ctx context.Context, q Querier, query string, args ...any) (*Cursor, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	cols, err := rows.Columns()
	if err != nil {
		_ = rows.Close()
		return nil, err
	}
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = stripQuotes(c)
	}
	decls := make([]string, len(cols))
	if cts, err := rows.ColumnTypes(); err == nil {
		for i, ct := range cts {
			decls[i] = ct.DatabaseTypeName()
		}
	}
	c := &Cursor{
		rows:  rows,
		names: names,
		decls: decls,
		cells: make([]any, len(cols)),
		dests: make([]any, len(cols)),
	}
	for i := range c.cells {
		c.dests[i] = &c.cells[i]
	}
	c.row = Row{names: names, vals: make([]Value, len(cols)), decls: decls}
	return c, nil
}

// Next advances to the next row, reports whether one is available, and
// invalidates the row returned by any earlier [Cursor.Row] call.
func (c *Cursor) Next() bool {
	if c.err != nil {
		return false
	}
	if !c.rows.Next() {
		c.err = c.rows.Err()
		return false
	}
	if err := c.rows.Scan(c.dests...); err != nil {
		c.err = err
		return false
	}
	for i, cell := range c.cells {
		c.row.vals[i] = fromCell(cell, c.decls[i])
	}
	return true
}

// Row returns the current row. The returned pointer aliases cursor-owned
// storage: it is valid only until Next or Close. Use [Row.Copy] to retain.
func (c *Cursor) Row() *Row { return &c.row }

// Err returns the first error hit while stepping or scanning.
func (c *Cursor) Err() error { return c.err }

// Close releases the underlying statement. It is safe to call after a
// failed Next.
func (c *Cursor) Close() error { return c.rows.Close() }

// FetchOne executes the query and returns an independent copy of the first
// row.
//
// It returns [sql.ErrNoRows] if the query yields no rows and does not
// enforce "exactly one row" beyond the first; if more rows exist, they are
// ignored. Use LIMIT 1 (or an equivalent WHERE clause) when you require
// at-most-one row.
func FetchOne(ctx context.Context, q Querier, query string, args ...any) (row *Row, err error) {
	cur, err := Fetch(ctx, q, query, args...)
	if err != nil {
		return nil, err
	}
	// Ensure Close error is propagated if no earlier error occurred.
	defer func() {
		if cerr := cur.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if !cur.Next() {
		if ne := cur.Err(); ne != nil {
			return nil, ne
		}
		return nil, sql.ErrNoRows
	}
	return cur.Row().Copy(), nil
}

// FetchAll executes the query and returns independent copies of every row.
// An empty result is a nil slice and no error.
func FetchAll(ctx context.Context, q Querier, query string, args ...any) (out []Row, err error) {
	cur, err := Fetch(ctx, q, query, args...)
	if err != nil {
		return nil, err
	}
	// Propagate Close() error if nothing else failed.
	defer func() {
		if cerr := cur.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	for cur.Next() {
		out = append(out, *cur.Row().Copy())
	}
	if ne := cur.Err(); ne != nil {
		return nil, ne
	}
	return out, nil
}
