package store

import (
	"database/sql"
	"fmt"
)

// NextID returns the next value of a named sequence, creating the
// sequence at 1 on first use. Runs in its own transaction; values are
// never reused, but a rolled-back caller may leave gaps.
func NextID(db *sql.DB, name string) (int64, error) {
	var next int64
	err := Transact(db, func(tx *sql.Tx) error {
		var err error
		next, err = NextIDTx(tx, name)
		return err
	})
	if err != nil {
		return 0, err
	}
	return next, nil
}

// NextIDTx allocates the next sequence value inside an existing transaction.
func NextIDTx(tx *sql.Tx, name string) (int64, error) {
	if name == "" {
		return 0, fmt.Errorf("sequence name is required")
	}

	// Seed the row if missing, then bump and read in one writer txn.
	if _, err := tx.Exec(`INSERT INTO sequences (name, value) VALUES (?, 0) ON CONFLICT(name) DO NOTHING`, name); err != nil {
		return 0, fmt.Errorf("failed to seed sequence %q: %w", name, err)
	}

	var next int64
	err := tx.QueryRow(`
		UPDATE sequences SET value = value + 1 WHERE name = ? RETURNING value
	`, name).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("failed to advance sequence %q: %w", name, err)
	}
	return next, nil
}
