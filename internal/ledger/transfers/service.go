// Package transfers implements the cross-account, cross-currency double-entry
// operation: two ledger entries plus an external rate lookup, committed as one
// atomic unit.
package transfers

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/moneta-app/moneta/internal/ledger"
)

// RateSource converts an amount between two currency codes using an external
// exchange-rate service.
type RateSource interface {
	Convert(ctx context.Context, from, to string, amount decimal.Decimal) (decimal.Decimal, error)
}

// CreateInput groups the fields of a transfer request.
type CreateInput struct {
	FromAccountID uuid.UUID
	ToAccountID   uuid.UUID
	AmountFrom    decimal.Decimal
}

// Result reports the two created legs.
type Result struct {
	SenderTransactionID   uuid.UUID
	ReceiverTransactionID uuid.UUID
	AmountTo              decimal.Decimal
}

type Service struct {
	repo  ledger.Repository
	rates RateSource
	now   func() time.Time
}

func NewService(repo ledger.Repository, rates RateSource) *Service {
	return &Service{repo: repo, rates: rates, now: time.Now}
}

// WithNow overrides the timestamp source, for tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Create moves AmountFrom out of the source account and the converted amount
// into the destination account. Both legs share one created_at timestamp. Any
// failure, including at the rate lookup, leaves both accounts and the
// transaction table untouched.
func (s *Service) Create(ctx context.Context, in CreateInput) (Result, error) {
	if !in.AmountFrom.IsPositive() {
		return Result{}, fmt.Errorf("%w: amount %s", ledger.ErrInvalidAmount, in.AmountFrom)
	}
	var result Result
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx ledger.TxRepository) error {
		// Lock the source row so the funds check and the debit are one
		// serialized step under concurrent transfers.
		from, err := tx.GetAccountForUpdate(ctx, in.FromAccountID)
		if err != nil {
			return err
		}
		to, err := tx.GetAccount(ctx, in.ToAccountID)
		if err != nil {
			return err
		}
		if from.Balance.LessThan(in.AmountFrom) {
			return fmt.Errorf("%w: balance %s below transfer amount %s",
				ledger.ErrInsufficientFunds, from.Balance, in.AmountFrom)
		}

		fromCurrency, err := tx.GetCurrency(ctx, from.CurrencyID)
		if err != nil {
			return err
		}
		toCurrency, err := tx.GetCurrency(ctx, to.CurrencyID)
		if err != nil {
			return err
		}

		amountTo, err := s.rates.Convert(ctx, fromCurrency.Code, toCurrency.Code, in.AmountFrom)
		if err != nil {
			return fmt.Errorf("%w: %v", ledger.ErrExchangeUnavailable, err)
		}

		stamp := s.now().UTC()
		return tx.WithSavepoint(ctx, func(tx ledger.TxRepository) error {
			sender, err := ledger.CreateEntry(ctx, tx, ledger.EntryInput{
				Type:      ledger.TypeTransferSender,
				Amount:    in.AmountFrom,
				AccountID: in.FromAccountID,
				CreatedAt: stamp,
			})
			if err != nil {
				return err
			}
			receiver, err := ledger.CreateEntry(ctx, tx, ledger.EntryInput{
				Type:      ledger.TypeTransferReceiver,
				Amount:    amountTo,
				AccountID: in.ToAccountID,
				CreatedAt: stamp,
			})
			if err != nil {
				return err
			}
			result = Result{
				SenderTransactionID:   sender.ID,
				ReceiverTransactionID: receiver.ID,
				AmountTo:              amountTo,
			}
			return nil
		})
	})
	if err != nil {
		return Result{}, err
	}
	return result, nil
}
