/*
Package xrec is a minimal, stdlib-style record and row layer over database/sql
for embedded SQLite databases. You write plain SQL (or let the package emit
the fixed CRUD shapes); xrec gives you a faithful row representation, typed
scalar values, and per-record change tracking with a tiny, predictable API.

# Overview

xrec preserves database/sql semantics while modeling what the engine actually
stores. A [Value] is exactly one of the five SQLite storage classes (NULL,
INTEGER, REAL, TEXT, BLOB). A [Row] is an ordered, duplicate-tolerant list of
named values with case-insensitive lookup. A [Record] is any type that can
hand over its persisted columns and accept values back; embedding [Tracking]
adds change detection against the last database-synchronized state.

It works with *sql.DB, *sql.Tx, and *sql.Conn through the [Querier], [Execer]
and [Beginner] interfaces. Nothing is global: every operation takes the
handle it runs on.

# Rows

Rows come from literals ([NewRow]) or from a live [Cursor]. A cursor-backed
row borrows the cursor's scan buffer and is only valid until the cursor
advances or closes; call [Row.Copy] to keep one. Lookup by name is
case-insensitive and resolves duplicates to the first match; iteration and
positional access see every entry in statement order.

# Change tracking

A record that embeds [Tracking] remembers the last row it was loaded from or
written as. [Edited] reports whether writing the record now could change the
database: true when the record was never synchronized, when the last fetch
did not cover every persisted column, or when any persisted value differs
from the reference row under plain value equality. Extra fetched columns are
ignored. [ChangedColumns] names the diverging columns.

# Persistence

[Insert], [Update], [Save], [Delete] and [Reload] generate single-table CRUD
statements from the record's persisted columns and primary key. Insert
backfills an engine-assigned rowid into a NULL single-column key. Update and
Reload report a missing target as [ErrRecordNotFound]; constraint rejections
surface as [ConstraintError]. No operation retries, and none swallows an
engine error.

# Error handling

  - Value conversions return (value, ok), not errors; absence means the
    combination is not representable.
  - [FetchOne] returns [sql.ErrNoRows] when the query yields nothing.
  - [InTx] rolls the transaction back before propagating any failure, panics
    included; no partial commit is possible.

# Usage notes

SQLite is a single-writer engine: keep one connection for writes
(db.SetMaxOpenConns(1) is the simple policy) and scope multi-statement
operations in [InTx]. Prefer explicit column lists over SELECT * when the
fetched shape matters for change tracking. xrec does not rewrite SQL or
placeholders; statements it generates use ? placeholders as the SQLite
driver expects.
*/
package xrec
