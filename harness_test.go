package xrec

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"testing"
)

type queryHandler func(query string, args []driver.NamedValue) (cols, decls []string, rows [][]driver.Value, err error)

type execHandler func(query string, args []driver.NamedValue) (lastID, affected int64, err error)

type testConnector struct {
	q queryHandler
	e execHandler
}

func (c *testConnector) Connect(context.Context) (driver.Conn, error) {
	return &testConn{q: c.q, e: c.e}, nil
}
func (c *testConnector) Driver() driver.Driver { return testDriver{} }

type testDriver struct{}

func (testDriver) Open(name string) (driver.Conn, error) {
	return nil, errors.New("testDriver.Open should not be called; use sql.OpenDB with connector")
}

type testConn struct {
	q queryHandler
	e execHandler
}

func (c *testConn) Prepare(string) (driver.Stmt, error) { return nil, driver.ErrSkip }
func (c *testConn) Close() error                        { return nil }
func (c *testConn) Begin() (driver.Tx, error)           { return nil, driver.ErrSkip }

func (c *testConn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	if c.q == nil {
		return nil, errors.New("no query handler")
	}
	cols, decls, data, err := c.q(query, args)
	if err != nil {
		return nil, err
	}
	return &testRows{cols: cols, decls: decls, data: data}, nil
}

func (c *testConn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	if c.e == nil {
		return nil, errors.New("no exec handler")
	}
	lastID, affected, err := c.e(query, args)
	if err != nil {
		return nil, err
	}
	return testResult{lastID: lastID, affected: affected}, nil
}

type testResult struct {
	lastID, affected int64
}

func (r testResult) LastInsertId() (int64, error) { return r.lastID, nil }
func (r testResult) RowsAffected() (int64, error) { return r.affected, nil }

type testRows struct {
	cols  []string
	decls []string
	data  [][]driver.Value
	i     int
}

func (r *testRows) Columns() []string { return append([]string(nil), r.cols...) }
func (r *testRows) Close() error      { return nil }
func (r *testRows) Next(dest []driver.Value) error {
	if r.i >= len(r.data) {
		return io.EOF
	}
	row := r.data[r.i]
	for i := range dest {
		if i < len(row) {
			dest[i] = row[i]
		} else {
			dest[i] = nil
		}
	}
	r.i++
	return nil
}

func (r *testRows) ColumnTypeDatabaseTypeName(i int) string {
	if i < len(r.decls) {
		return r.decls[i]
	}
	return ""
}

// newFakeDB creates a *sql.DB backed by the in-memory test driver.
func newFakeDB(t *testing.T, q queryHandler, e execHandler) *sql.DB {
	t.Helper()
	return sql.OpenDB(&testConnector{q: q, e: e})
}
