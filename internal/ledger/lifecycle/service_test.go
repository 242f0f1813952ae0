package lifecycle

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moneta-app/moneta/internal/ledger"
	"github.com/moneta-app/moneta/internal/ledger/ledgertest"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCreditOpenAddsBalanceWithoutFundsCheck(t *testing.T) {
	repo := ledgertest.New()
	account := repo.AddAccount("main", dec("0"), 2)
	svc := NewService(repo, Credit)

	result, err := svc.Open(context.Background(), OpenInput{Name: "car loan", Amount: dec("5000"), AccountID: account.ID})
	require.NoError(t, err)

	assert.True(t, repo.Account(account.ID).Balance.Equal(dec("5000")))
	assert.True(t, result.Holding.IsOpen)
	assert.Equal(t, ledger.TypeCreditOpen, result.Transaction.Type)
	assert.Len(t, repo.Transactions(), 1)
}

func TestCreditCloseRequiresFunds(t *testing.T) {
	repo := ledgertest.New()
	account := repo.AddAccount("main", dec("0"), 2)
	svc := NewService(repo, Credit)

	opened, err := svc.Open(context.Background(), OpenInput{Name: "loan", Amount: dec("500"), AccountID: account.ID})
	require.NoError(t, err)

	// Spend down below the repayment amount.
	err = repo.WithTx(context.Background(), func(ctx context.Context, tx ledger.TxRepository) error {
		_, err := ledger.CreateEntry(ctx, tx, ledger.EntryInput{Type: ledger.TypeExpense, Amount: dec("100"), AccountID: account.ID})
		return err
	})
	require.NoError(t, err)
	require.True(t, repo.Account(account.ID).Balance.Equal(dec("400")))

	_, err = svc.Close(context.Background(), opened.Holding.ID)
	require.ErrorIs(t, err, ledger.ErrInsufficientFunds)

	// Balance and is_open unchanged.
	assert.True(t, repo.Account(account.ID).Balance.Equal(dec("400")))
	assert.True(t, repo.Holding(ledger.HoldingCredit, opened.Holding.ID).IsOpen)
}

func TestCreditCloseSubtractsAndFlipsOnce(t *testing.T) {
	repo := ledgertest.New()
	account := repo.AddAccount("main", dec("1000"), 2)
	svc := NewService(repo, Credit)

	opened, err := svc.Open(context.Background(), OpenInput{Name: "loan", Amount: dec("500"), AccountID: account.ID})
	require.NoError(t, err)
	require.True(t, repo.Account(account.ID).Balance.Equal(dec("1500")))

	closed, err := svc.Close(context.Background(), opened.Holding.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.TypeCreditClose, closed.Transaction.Type)
	assert.True(t, repo.Account(account.ID).Balance.Equal(dec("1000")))
	assert.False(t, repo.Holding(ledger.HoldingCredit, opened.Holding.ID).IsOpen)

	_, err = svc.Close(context.Background(), opened.Holding.ID)
	require.ErrorIs(t, err, ledger.ErrCreditAlreadyClosed)
}

func TestDepositOpenRequiresFunds(t *testing.T) {
	repo := ledgertest.New()
	account := repo.AddAccount("main", dec("150"), 2)
	svc := NewService(repo, Deposit)

	_, err := svc.Open(context.Background(), OpenInput{Name: "savings", Amount: dec("200"), AccountID: account.ID})
	require.ErrorIs(t, err, ledger.ErrInsufficientFunds)

	// Nothing created.
	assert.True(t, repo.Account(account.ID).Balance.Equal(dec("150")))
	assert.Empty(t, repo.Transactions())
	holdings, err := repo.ListHoldings(context.Background(), ledger.HoldingDeposit, nil)
	require.NoError(t, err)
	assert.Empty(t, holdings)
}

func TestDepositLifecycleRoundTrip(t *testing.T) {
	repo := ledgertest.New()
	account := repo.AddAccount("main", dec("1000"), 2)
	svc := NewService(repo, Deposit)

	opened, err := svc.Open(context.Background(), OpenInput{Name: "savings", Amount: dec("300"), AccountID: account.ID})
	require.NoError(t, err)
	assert.Equal(t, ledger.TypeDepositOpen, opened.Transaction.Type)
	assert.True(t, repo.Account(account.ID).Balance.Equal(dec("700")))

	closed, err := svc.Close(context.Background(), opened.Holding.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.TypeDepositClose, closed.Transaction.Type)
	assert.True(t, repo.Account(account.ID).Balance.Equal(dec("1000")))

	_, err = svc.Close(context.Background(), opened.Holding.ID)
	require.ErrorIs(t, err, ledger.ErrDepositAlreadyClosed)
}

func TestOpenRollsBackEntryWhenHoldingInsertFails(t *testing.T) {
	repo := ledgertest.New()
	account := repo.AddAccount("main", dec("1000"), 2)
	repo.InsertHoldingErr = errors.New("boom")
	svc := NewService(repo, Credit)

	_, err := svc.Open(context.Background(), OpenInput{Name: "loan", Amount: dec("500"), AccountID: account.ID})
	require.Error(t, err)

	assert.True(t, repo.Account(account.ID).Balance.Equal(dec("1000")))
	assert.Empty(t, repo.Transactions())
}

func TestCloseRollsBackFlagWhenEntryInsertFails(t *testing.T) {
	repo := ledgertest.New()
	account := repo.AddAccount("main", dec("1000"), 2)
	svc := NewService(repo, Credit)

	opened, err := svc.Open(context.Background(), OpenInput{Name: "loan", Amount: dec("500"), AccountID: account.ID})
	require.NoError(t, err)
	require.True(t, repo.Account(account.ID).Balance.Equal(dec("1500")))
	repo.InsertTransactionErr = errors.New("boom")

	_, err = svc.Close(context.Background(), opened.Holding.ID)
	require.Error(t, err)

	// The flag flip rides the same transaction as the closing entry, so the
	// failed insert leaves the holding open and the balance untouched.
	assert.True(t, repo.Holding(ledger.HoldingCredit, opened.Holding.ID).IsOpen)
	assert.True(t, repo.Account(account.ID).Balance.Equal(dec("1500")))
	assert.Len(t, repo.Transactions(), 1)
}

func TestCloseFailureLeavesHoldingOpen(t *testing.T) {
	repo := ledgertest.New()
	account := repo.AddAccount("main", dec("1000"), 2)
	svc := NewService(repo, Deposit)

	opened, err := svc.Open(context.Background(), OpenInput{Name: "savings", Amount: dec("300"), AccountID: account.ID})
	require.NoError(t, err)
	require.True(t, repo.Account(account.ID).Balance.Equal(dec("700")))
	repo.CloseHoldingErr = errors.New("boom")

	_, err = svc.Close(context.Background(), opened.Holding.ID)
	require.Error(t, err)

	assert.True(t, repo.Holding(ledger.HoldingDeposit, opened.Holding.ID).IsOpen)
	assert.True(t, repo.Account(account.ID).Balance.Equal(dec("700")))
	assert.Len(t, repo.Transactions(), 1)
}

func TestOpenNonPositiveAmount(t *testing.T) {
	repo := ledgertest.New()
	account := repo.AddAccount("main", dec("1000"), 2)
	svc := NewService(repo, Credit)

	_, err := svc.Open(context.Background(), OpenInput{Name: "loan", Amount: dec("0"), AccountID: account.ID})
	require.ErrorIs(t, err, ledger.ErrInvalidAmount)
}
