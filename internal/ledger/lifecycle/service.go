// Package lifecycle implements the open/close state machine shared by credits
// and deposits. The two differ only in sign convention and in which side of
// the lifecycle demands sufficient funds.
package lifecycle

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/moneta-app/moneta/internal/ledger"
)

// Definition fixes one instance of the state machine.
type Definition struct {
	Kind      ledger.HoldingKind
	OpenType  ledger.TransactionType
	CloseType ledger.TransactionType
	// RequireFundsToOpen: the open entry subtracts from the account, so the
	// balance must cover the amount up front (deposits).
	RequireFundsToOpen bool
	// RequireFundsToClose: the close entry subtracts, so the balance must
	// cover repayment (credits).
	RequireFundsToClose bool
	AlreadyClosed       error
}

// Credit adds money when opened and demands funds to repay on close.
var Credit = Definition{
	Kind:                ledger.HoldingCredit,
	OpenType:            ledger.TypeCreditOpen,
	CloseType:           ledger.TypeCreditClose,
	RequireFundsToClose: true,
	AlreadyClosed:       ledger.ErrCreditAlreadyClosed,
}

// Deposit locks money away when opened and releases it on close.
var Deposit = Definition{
	Kind:               ledger.HoldingDeposit,
	OpenType:           ledger.TypeDepositOpen,
	CloseType:          ledger.TypeDepositClose,
	RequireFundsToOpen: true,
	AlreadyClosed:      ledger.ErrDepositAlreadyClosed,
}

// OpenInput groups the fields required to open a holding.
type OpenInput struct {
	Name      string
	Amount    decimal.Decimal
	AccountID uuid.UUID
	TagID     *uuid.UUID
}

// OpenResult reports the created holding and its opening ledger entry.
type OpenResult struct {
	Holding     ledger.Holding
	Transaction ledger.Transaction
}

// CloseResult reports the closed holding id and the closing ledger entry.
type CloseResult struct {
	HoldingID   uuid.UUID
	Transaction ledger.Transaction
}

type Service struct {
	repo ledger.Repository
	def  Definition
}

func NewService(repo ledger.Repository, def Definition) *Service {
	return &Service{repo: repo, def: def}
}

// Open creates the holding row and its opening entry as one unit.
func (s *Service) Open(ctx context.Context, in OpenInput) (OpenResult, error) {
	if !in.Amount.IsPositive() {
		return OpenResult{}, fmt.Errorf("%w: amount %s", ledger.ErrInvalidAmount, in.Amount)
	}
	var result OpenResult
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx ledger.TxRepository) error {
		account, err := tx.GetAccountForUpdate(ctx, in.AccountID)
		if err != nil {
			return err
		}
		if s.def.RequireFundsToOpen && account.Balance.LessThan(in.Amount) {
			return fmt.Errorf("%w: balance %s below %s amount %s",
				ledger.ErrInsufficientFunds, account.Balance, s.def.Kind, in.Amount)
		}
		return tx.WithSavepoint(ctx, func(tx ledger.TxRepository) error {
			entry, err := ledger.CreateEntry(ctx, tx, ledger.EntryInput{
				Type:      s.def.OpenType,
				Amount:    in.Amount,
				AccountID: in.AccountID,
				TagID:     in.TagID,
			})
			if err != nil {
				return err
			}
			holding, err := tx.InsertHolding(ctx, s.def.Kind, in.Name, in.Amount, in.AccountID)
			if err != nil {
				return err
			}
			result = OpenResult{Holding: holding, Transaction: entry}
			return nil
		})
	})
	if err != nil {
		return OpenResult{}, err
	}
	return result, nil
}

// Close flips is_open exactly once and creates the closing entry atomically
// with the flip.
func (s *Service) Close(ctx context.Context, id uuid.UUID) (CloseResult, error) {
	var result CloseResult
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx ledger.TxRepository) error {
		holding, err := tx.GetHoldingForUpdate(ctx, s.def.Kind, id)
		if err != nil {
			return err
		}
		if !holding.IsOpen {
			return fmt.Errorf("%w: id %s", s.def.AlreadyClosed, id)
		}
		if s.def.RequireFundsToClose {
			account, err := tx.GetAccountForUpdate(ctx, holding.AccountID)
			if err != nil {
				return err
			}
			if account.Balance.LessThan(holding.Amount) {
				return fmt.Errorf("%w: balance %s below %s amount %s",
					ledger.ErrInsufficientFunds, account.Balance, s.def.Kind, holding.Amount)
			}
		}
		if err := tx.CloseHolding(ctx, s.def.Kind, id); err != nil {
			return err
		}
		entry, err := ledger.CreateEntry(ctx, tx, ledger.EntryInput{
			Type:      s.def.CloseType,
			Amount:    holding.Amount,
			AccountID: holding.AccountID,
		})
		if err != nil {
			return err
		}
		result = CloseResult{HoldingID: id, Transaction: entry}
		return nil
	})
	if err != nil {
		return CloseResult{}, err
	}
	return result, nil
}

// Rename updates the display name only; no balance effect.
func (s *Service) Rename(ctx context.Context, id uuid.UUID, name string) (uuid.UUID, error) {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx ledger.TxRepository) error {
		return tx.UpdateHoldingName(ctx, s.def.Kind, id, name)
	})
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (ledger.HoldingView, error) {
	holding, err := s.repo.GetHolding(ctx, s.def.Kind, id)
	if err != nil {
		return ledger.HoldingView{}, err
	}
	account, err := s.repo.GetAccount(ctx, holding.AccountID)
	if err != nil {
		return ledger.HoldingView{}, err
	}
	currency, err := s.repo.GetCurrency(ctx, account.CurrencyID)
	if err != nil {
		return ledger.HoldingView{}, err
	}
	return ledger.HoldingView{Holding: holding, Account: account, Currency: currency}, nil
}

func (s *Service) ListForAccount(ctx context.Context, accountID uuid.UUID) ([]ledger.HoldingView, error) {
	if _, err := s.repo.GetAccount(ctx, accountID); err != nil {
		return nil, err
	}
	return s.repo.ListHoldings(ctx, s.def.Kind, &accountID)
}

func (s *Service) ListAll(ctx context.Context) ([]ledger.HoldingView, error) {
	return s.repo.ListHoldings(ctx, s.def.Kind, nil)
}
