// Package ledger implements the balance mutation engine: every write to an
// account balance happens together with its transaction row inside one atomic
// scope, so the stored balance stays equal to the signed sum of the account's
// history.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryInput describes one ledger entry to create. A zero CreatedAt lets the
// store assign the timestamp; the transfer path supplies it explicitly to
// align both legs.
type EntryInput struct {
	Type      TransactionType
	Amount    decimal.Decimal
	AccountID uuid.UUID
	TagID     *uuid.UUID
	CreatedAt time.Time
}

// Signed returns the amount with the direction implied by the type.
func Signed(t TransactionType, amount decimal.Decimal) decimal.Decimal {
	if t.Sign() < 0 {
		return amount.Neg()
	}
	return amount
}

// CreateEntry inserts one entry and co-mutates the account balance. The
// adjust-plus-insert pair runs under a savepoint: a failure in either step
// leaves neither applied.
func CreateEntry(ctx context.Context, tx TxRepository, in EntryInput) (Transaction, error) {
	if !in.Type.Known() {
		return Transaction{}, fmt.Errorf("%w: id %d", ErrTransactionTypeNotFound, int32(in.Type))
	}
	if in.Amount.IsNegative() {
		return Transaction{}, fmt.Errorf("%w: amount %s", ErrInvalidAmount, in.Amount)
	}
	if in.TagID != nil {
		if _, err := tx.GetTag(ctx, *in.TagID); err != nil {
			return Transaction{}, err
		}
	}

	var created Transaction
	err := tx.WithSavepoint(ctx, func(tx TxRepository) error {
		if err := tx.AdjustBalance(ctx, in.AccountID, Signed(in.Type, in.Amount)); err != nil {
			return err
		}
		var err error
		created, err = tx.InsertTransaction(ctx, Transaction{
			Type:      in.Type,
			Amount:    in.Amount,
			AccountID: in.AccountID,
			TagID:     in.TagID,
			CreatedAt: in.CreatedAt,
		})
		return err
	})
	if err != nil {
		return Transaction{}, err
	}
	return created, nil
}

// UpdateEntry applies a partial update to an entry. When amount or type
// changes, the balance is reconciled exactly once with
// diff = -(old_sign*old_amount) + (new_sign*new_amount), which covers all
// four combinations of sign and amount change.
func UpdateEntry(ctx context.Context, tx TxRepository, id uuid.UUID, patch TransactionPatch) (Transaction, error) {
	current, err := tx.GetTransaction(ctx, id)
	if err != nil {
		return Transaction{}, err
	}
	if current.Type.Reserved() {
		return Transaction{}, ErrReservedTransactionChange
	}
	if patch.Type.Set {
		if !patch.Type.Value.Known() {
			return Transaction{}, fmt.Errorf("%w: id %d", ErrTransactionTypeNotFound, int32(patch.Type.Value))
		}
		if patch.Type.Value.Reserved() {
			return Transaction{}, ErrReservedTransactionChange
		}
	}
	if patch.Amount.Set && patch.Amount.Value.IsNegative() {
		return Transaction{}, fmt.Errorf("%w: amount %s", ErrInvalidAmount, patch.Amount.Value)
	}
	if patch.TagID.Set && patch.TagID.Value != nil {
		if _, err := tx.GetTag(ctx, *patch.TagID.Value); err != nil {
			return Transaction{}, err
		}
	}
	if patch.Empty() {
		return Transaction{}, ErrEmptyUpdate
	}

	updated := current
	if patch.Type.Set {
		updated.Type = patch.Type.Value
	}
	if patch.Amount.Set {
		updated.Amount = patch.Amount.Value
	}
	if patch.TagID.Set {
		updated.TagID = patch.TagID.Value
	}

	if !patch.Type.Set && !patch.Amount.Set {
		// Plain field update, no balance impact.
		if err := tx.UpdateTransactionRow(ctx, id, patch); err != nil {
			return Transaction{}, err
		}
		return updated, nil
	}

	diff := Signed(updated.Type, updated.Amount).Sub(Signed(current.Type, current.Amount))
	err = tx.WithSavepoint(ctx, func(tx TxRepository) error {
		if err := tx.AdjustBalance(ctx, current.AccountID, diff); err != nil {
			return err
		}
		return tx.UpdateTransactionRow(ctx, id, patch)
	})
	if err != nil {
		return Transaction{}, err
	}
	return updated, nil
}

// DeleteEntry reverses the entry's balance effect and removes the row,
// atomically.
func DeleteEntry(ctx context.Context, tx TxRepository, id uuid.UUID) (uuid.UUID, error) {
	current, err := tx.GetTransaction(ctx, id)
	if err != nil {
		return uuid.Nil, err
	}
	if current.Type.Reserved() {
		return uuid.Nil, ErrReservedTransactionChange
	}

	err = tx.WithSavepoint(ctx, func(tx TxRepository) error {
		if err := tx.AdjustBalance(ctx, current.AccountID, Signed(current.Type, current.Amount).Neg()); err != nil {
			return err
		}
		return tx.DeleteTransactionRow(ctx, id)
	})
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}
