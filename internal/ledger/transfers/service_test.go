package transfers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moneta-app/moneta/internal/ledger"
	"github.com/moneta-app/moneta/internal/ledger/ledgertest"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fixedRate struct {
	rate decimal.Decimal
	err  error
}

func (f fixedRate) Convert(ctx context.Context, from, to string, amount decimal.Decimal) (decimal.Decimal, error) {
	if f.err != nil {
		return decimal.Zero, f.err
	}
	return amount.Mul(f.rate), nil
}

func TestCreateTransferCrossCurrency(t *testing.T) {
	repo := ledgertest.New()
	usd := repo.AddAccount("usd account", dec("1000"), 2)
	uah := repo.AddAccount("uah account", dec("0"), 1)

	svc := NewService(repo, fixedRate{rate: dec("38.0")})
	stamp := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.WithNow(func() time.Time { return stamp })

	result, err := svc.Create(context.Background(), CreateInput{
		FromAccountID: usd.ID,
		ToAccountID:   uah.ID,
		AmountFrom:    dec("100"),
	})
	require.NoError(t, err)

	assert.True(t, repo.Account(usd.ID).Balance.Equal(dec("900")))
	assert.True(t, repo.Account(uah.ID).Balance.Equal(dec("3800")))
	assert.True(t, result.AmountTo.Equal(dec("3800")))

	entries := repo.Transactions()
	require.Len(t, entries, 2)
	assert.Equal(t, ledger.TypeTransferSender, entries[0].Type)
	assert.Equal(t, ledger.TypeTransferReceiver, entries[1].Type)
	assert.Equal(t, entries[0].CreatedAt, entries[1].CreatedAt)
	assert.Equal(t, result.SenderTransactionID, entries[0].ID)
	assert.Equal(t, result.ReceiverTransactionID, entries[1].ID)
}

func TestCreateTransferInsufficientFunds(t *testing.T) {
	repo := ledgertest.New()
	from := repo.AddAccount("from", dec("50"), 2)
	to := repo.AddAccount("to", dec("0"), 1)

	svc := NewService(repo, fixedRate{rate: dec("38.0")})
	_, err := svc.Create(context.Background(), CreateInput{
		FromAccountID: from.ID, ToAccountID: to.ID, AmountFrom: dec("100"),
	})
	require.ErrorIs(t, err, ledger.ErrInsufficientFunds)
	assert.True(t, repo.Account(from.ID).Balance.Equal(dec("50")))
	assert.Empty(t, repo.Transactions())
}

func TestCreateTransferRateFailureLeavesNoTrace(t *testing.T) {
	repo := ledgertest.New()
	from := repo.AddAccount("from", dec("1000"), 2)
	to := repo.AddAccount("to", dec("0"), 1)

	svc := NewService(repo, fixedRate{err: errors.New("upstream 503")})
	_, err := svc.Create(context.Background(), CreateInput{
		FromAccountID: from.ID, ToAccountID: to.ID, AmountFrom: dec("100"),
	})
	require.ErrorIs(t, err, ledger.ErrExchangeUnavailable)

	assert.True(t, repo.Account(from.ID).Balance.Equal(dec("1000")))
	assert.True(t, repo.Account(to.ID).Balance.Equal(dec("0")))
	assert.Empty(t, repo.Transactions())
}

func TestCreateTransferSecondLegFailureRollsBackFirst(t *testing.T) {
	repo := ledgertest.New()
	from := repo.AddAccount("from", dec("1000"), 2)
	to := repo.AddAccount("to", dec("0"), 1)

	svc := NewService(repo, fixedRate{rate: dec("2")})
	// Fail every insert: the first leg's failure aborts the whole transfer.
	repo.InsertTransactionErr = errors.New("disk full")

	_, err := svc.Create(context.Background(), CreateInput{
		FromAccountID: from.ID, ToAccountID: to.ID, AmountFrom: dec("100"),
	})
	require.Error(t, err)
	assert.True(t, repo.Account(from.ID).Balance.Equal(dec("1000")))
	assert.True(t, repo.Account(to.ID).Balance.Equal(dec("0")))
	assert.Empty(t, repo.Transactions())
}

func TestCreateTransferUnknownAccount(t *testing.T) {
	repo := ledgertest.New()
	from := repo.AddAccount("from", dec("1000"), 2)

	svc := NewService(repo, fixedRate{rate: dec("2")})
	_, err := svc.Create(context.Background(), CreateInput{
		FromAccountID: from.ID, ToAccountID: uuid.New(), AmountFrom: dec("10"),
	})
	require.ErrorIs(t, err, ledger.ErrAccountNotFound)
}
