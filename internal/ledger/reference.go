package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Seed currencies. Like transaction types, their ids are fixed.
var seedCurrencies = []Currency{
	{ID: 1, Code: "uah"},
	{ID: 2, Code: "usd"},
}

// EnsureReferenceData seeds the transaction_type and currency tables and
// verifies them against the in-process enumeration. A stored name that
// disagrees with the expected one for a given id is a fatal startup error.
func EnsureReferenceData(ctx context.Context, pool *pgxpool.Pool) error {
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("ledger: begin reference tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	for _, t := range AllTypes() {
		var stored string
		err := tx.QueryRow(ctx, `SELECT name FROM transaction_type WHERE id = $1`, int32(t)).Scan(&stored)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			if _, err := tx.Exec(ctx, `INSERT INTO transaction_type (id, name) VALUES ($1, $2)`, int32(t), t.String()); err != nil {
				return fmt.Errorf("ledger: seed transaction type %s: %w", t, err)
			}
		case err != nil:
			return fmt.Errorf("ledger: read transaction type %d: %w", int32(t), err)
		case stored != t.String():
			return fmt.Errorf("ledger: transaction type %d stored as %q, expected %q", int32(t), stored, t)
		}
	}

	var count int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM transaction_type`).Scan(&count); err != nil {
		return fmt.Errorf("ledger: count transaction types: %w", err)
	}
	if want := len(AllTypes()); count != want {
		return fmt.Errorf("ledger: transaction_type has %d rows, expected %d", count, want)
	}

	for _, c := range seedCurrencies {
		var stored string
		err := tx.QueryRow(ctx, `SELECT code FROM currency WHERE id = $1`, c.ID).Scan(&stored)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			if _, err := tx.Exec(ctx, `INSERT INTO currency (id, code) VALUES ($1, $2)`, c.ID, c.Code); err != nil {
				return fmt.Errorf("ledger: seed currency %s: %w", c.Code, err)
			}
		case err != nil:
			return fmt.Errorf("ledger: read currency %d: %w", c.ID, err)
		case stored != c.Code:
			return fmt.Errorf("ledger: currency %d stored as %q, expected %q", c.ID, stored, c.Code)
		}
	}

	return tx.Commit(ctx)
}
