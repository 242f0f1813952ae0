package accounts

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/moneta-app/moneta/internal/ledger"
)

type Service struct {
	repo   ledger.Repository
	logger *slog.Logger
}

func NewService(logger *slog.Logger, repo ledger.Repository) *Service {
	return &Service{logger: logger, repo: repo}
}

func (s *Service) Create(ctx context.Context, name string, balance decimal.Decimal, currencyID int32) (ledger.Account, error) {
	if balance.IsNegative() {
		return ledger.Account{}, fmt.Errorf("%w: initial balance %s", ledger.ErrInvalidAmount, balance)
	}
	var account ledger.Account
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx ledger.TxRepository) error {
		if _, err := tx.GetCurrency(ctx, currencyID); err != nil {
			return err
		}
		var err error
		account, err = tx.InsertAccount(ctx, name, balance, currencyID)
		return err
	})
	if err != nil {
		return ledger.Account{}, err
	}
	return account, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (ledger.AccountView, error) {
	account, err := s.repo.GetAccount(ctx, id)
	if err != nil {
		return ledger.AccountView{}, err
	}
	currency, err := s.repo.GetCurrency(ctx, account.CurrencyID)
	if err != nil {
		return ledger.AccountView{}, err
	}
	return ledger.AccountView{Account: account, Currency: currency}, nil
}

// Update applies a whitelist merge of the present fields. A present Balance is
// an administrative override: it rewrites the stored balance without touching
// the transaction history, so the derived invariant no longer holds for this
// account. It is logged to keep such edits auditable.
func (s *Service) Update(ctx context.Context, id uuid.UUID, patch ledger.AccountPatch) (uuid.UUID, error) {
	if patch.Empty() {
		return uuid.Nil, ledger.ErrEmptyUpdate
	}
	if patch.Balance.Set {
		s.logger.Warn("administrative balance override",
			slog.String("account_id", id.String()),
			slog.String("balance", patch.Balance.Value.String()))
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx ledger.TxRepository) error {
		return tx.UpdateAccount(ctx, id, patch)
	})
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx ledger.TxRepository) error {
		return tx.DeleteAccount(ctx, id)
	})
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func (s *Service) List(ctx context.Context) ([]ledger.AccountView, error) {
	return s.repo.ListAccounts(ctx)
}
