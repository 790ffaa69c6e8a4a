package xrec

import (
	"context"
	"database/sql"
)

// InTx runs fn inside a transaction on b.
//
// If fn returns an error or panics, the transaction is rolled back before
// the error (or panic) propagates; otherwise it is committed and the
// commit error, if any, is returned. No partial commit is possible.
//
//	err := xrec.InTx(ctx, db, func(tx *sql.Tx) error {
//	    if err := xrec.Insert(ctx, tx, &a); err != nil {
//	        return err
//	    }
//	    return xrec.Insert(ctx, tx, &b)
//	})
func InTx(ctx context.Context, b Beginner, fn func(tx *sql.Tx) error) error {
	tx, err := b.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	done := false
	defer func() {
		if !done {
			_ = tx.Rollback()
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	done = true
	return tx.Commit()
}
