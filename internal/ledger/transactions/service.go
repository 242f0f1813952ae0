// Package transactions exposes the user-facing entry operations. Direct
// creation is limited to the non-reserved types; the reserved ones only appear
// through the transfer and credit/deposit orchestration.
package transactions

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/moneta-app/moneta/internal/ledger"
)

type Service struct {
	repo ledger.Repository
}

func NewService(repo ledger.Repository) *Service {
	return &Service{repo: repo}
}

// Create inserts one income/expense entry and its balance adjustment.
func (s *Service) Create(ctx context.Context, in ledger.EntryInput) (ledger.Transaction, error) {
	if in.Type.Known() && in.Type.Reserved() {
		return ledger.Transaction{}, ledger.ErrReservedTransactionChange
	}
	var created ledger.Transaction
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx ledger.TxRepository) error {
		var err error
		created, err = ledger.CreateEntry(ctx, tx, in)
		return err
	})
	if err != nil {
		return ledger.Transaction{}, err
	}
	return created, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (ledger.Transaction, error) {
	return s.repo.GetTransaction(ctx, id)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, patch ledger.TransactionPatch) (ledger.Transaction, error) {
	var updated ledger.Transaction
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx ledger.TxRepository) error {
		var err error
		updated, err = ledger.UpdateEntry(ctx, tx, id, patch)
		return err
	})
	if err != nil {
		return ledger.Transaction{}, err
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var deleted uuid.UUID
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx ledger.TxRepository) error {
		var err error
		deleted, err = ledger.DeleteEntry(ctx, tx, id)
		return err
	})
	if err != nil {
		return uuid.Nil, err
	}
	return deleted, nil
}

// List validates every present filter against the store before querying, so
// an unknown account/type/tag surfaces as its NotFound instead of an empty
// result.
func (s *Service) List(ctx context.Context, filter ledger.EntryFilter) ([]ledger.EntryView, error) {
	if filter.AccountID != nil {
		if _, err := s.repo.GetAccount(ctx, *filter.AccountID); err != nil {
			return nil, err
		}
	}
	if filter.Type != nil && !filter.Type.Known() {
		return nil, fmt.Errorf("%w: id %d", ledger.ErrTransactionTypeNotFound, int32(*filter.Type))
	}
	if filter.TagID != nil {
		if _, err := s.repo.GetTag(ctx, *filter.TagID); err != nil {
			return nil, err
		}
	}
	return s.repo.ListEntries(ctx, filter)
}

// GetType resolves a transaction type id against the fixed enumeration.
func (s *Service) GetType(ctx context.Context, id int32) (ledger.TransactionType, error) {
	typ := ledger.TransactionType(id)
	if !typ.Known() {
		return 0, fmt.Errorf("%w: id %d", ledger.ErrTransactionTypeNotFound, id)
	}
	return typ, nil
}
