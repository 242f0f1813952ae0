package transactions

import (
	"context"
	"testing"

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

func TestCreateRejectsReservedTypes(t *testing.T) {
	repo := ledgertest.New()
	account := repo.AddAccount("main", dec("100"), 2)
	svc := NewService(repo)

	_, err := svc.Create(context.Background(), ledger.EntryInput{
		Type: ledger.TypeTransferSender, Amount: dec("10"), AccountID: account.ID,
	})
	require.ErrorIs(t, err, ledger.ErrReservedTransactionChange)
	assert.Empty(t, repo.Transactions())
}

func TestCreateIncome(t *testing.T) {
	repo := ledgertest.New()
	account := repo.AddAccount("main", dec("100"), 2)
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), ledger.EntryInput{
		Type: ledger.TypeIncome, Amount: dec("10"), AccountID: account.ID,
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.False(t, created.CreatedAt.IsZero())
	assert.True(t, repo.Account(account.ID).Balance.Equal(dec("110")))
}

func TestListValidatesFilters(t *testing.T) {
	repo := ledgertest.New()
	svc := NewService(repo)

	missing := uuid.New()
	_, err := svc.List(context.Background(), ledger.EntryFilter{AccountID: &missing})
	require.ErrorIs(t, err, ledger.ErrAccountNotFound)

	unknown := ledger.TransactionType(42)
	_, err = svc.List(context.Background(), ledger.EntryFilter{Type: &unknown})
	require.ErrorIs(t, err, ledger.ErrTransactionTypeNotFound)

	_, err = svc.List(context.Background(), ledger.EntryFilter{TagID: &missing})
	require.ErrorIs(t, err, ledger.ErrTagNotFound)
}

func TestListOrdering(t *testing.T) {
	repo := ledgertest.New()
	account := repo.AddAccount("main", dec("0"), 2)
	svc := NewService(repo)

	for _, amount := range []string{"1", "2", "3"} {
		_, err := svc.Create(context.Background(), ledger.EntryInput{
			Type: ledger.TypeIncome, Amount: dec(amount), AccountID: account.ID,
		})
		require.NoError(t, err)
	}

	asc, err := svc.List(context.Background(), ledger.EntryFilter{Order: ledger.OrderChronological})
	require.NoError(t, err)
	require.Len(t, asc, 3)

	desc, err := svc.List(context.Background(), ledger.EntryFilter{Order: ledger.OrderReverseChronological})
	require.NoError(t, err)
	require.Len(t, desc, 3)
	assert.Equal(t, asc[0].Transaction.ID, desc[2].Transaction.ID)
}

func TestGetType(t *testing.T) {
	svc := NewService(ledgertest.New())

	typ, err := svc.GetType(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, ledger.TypeIncome, typ)

	_, err = svc.GetType(context.Background(), 99)
	require.ErrorIs(t, err, ledger.ErrTransactionTypeNotFound)
}
