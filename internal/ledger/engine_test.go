package ledger_test

import (
	"context"
	"errors"
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

func createEntry(t *testing.T, repo *ledgertest.Repo, in ledger.EntryInput) ledger.Transaction {
	t.Helper()
	var created ledger.Transaction
	err := repo.WithTx(context.Background(), func(ctx context.Context, tx ledger.TxRepository) error {
		var err error
		created, err = ledger.CreateEntry(ctx, tx, in)
		return err
	})
	require.NoError(t, err)
	return created
}

func TestCreateEntryAdjustsBalanceBySign(t *testing.T) {
	repo := ledgertest.New()
	account := repo.AddAccount("main", dec("1000"), 2)

	createEntry(t, repo, ledger.EntryInput{Type: ledger.TypeIncome, Amount: dec("250"), AccountID: account.ID})
	assert.True(t, repo.Account(account.ID).Balance.Equal(dec("1250")))

	createEntry(t, repo, ledger.EntryInput{Type: ledger.TypeExpense, Amount: dec("100"), AccountID: account.ID})
	assert.True(t, repo.Account(account.ID).Balance.Equal(dec("1150")))
}

func TestCreateEntryUnknownTag(t *testing.T) {
	repo := ledgertest.New()
	account := repo.AddAccount("main", dec("1000"), 2)
	missing := uuid.New()

	err := repo.WithTx(context.Background(), func(ctx context.Context, tx ledger.TxRepository) error {
		_, err := ledger.CreateEntry(ctx, tx, ledger.EntryInput{
			Type: ledger.TypeIncome, Amount: dec("10"), AccountID: account.ID, TagID: &missing,
		})
		return err
	})
	require.ErrorIs(t, err, ledger.ErrTagNotFound)
	assert.True(t, repo.Account(account.ID).Balance.Equal(dec("1000")))
	assert.Empty(t, repo.Transactions())
}

func TestCreateEntryUnknownType(t *testing.T) {
	repo := ledgertest.New()
	account := repo.AddAccount("main", dec("0"), 1)

	err := repo.WithTx(context.Background(), func(ctx context.Context, tx ledger.TxRepository) error {
		_, err := ledger.CreateEntry(ctx, tx, ledger.EntryInput{
			Type: ledger.TransactionType(99), Amount: dec("10"), AccountID: account.ID,
		})
		return err
	})
	require.ErrorIs(t, err, ledger.ErrTransactionTypeNotFound)
}

func TestCreateEntryRollsBackBalanceWhenInsertFails(t *testing.T) {
	repo := ledgertest.New()
	account := repo.AddAccount("main", dec("500"), 2)
	repo.InsertTransactionErr = errors.New("boom")

	err := repo.WithTx(context.Background(), func(ctx context.Context, tx ledger.TxRepository) error {
		_, err := ledger.CreateEntry(ctx, tx, ledger.EntryInput{
			Type: ledger.TypeIncome, Amount: dec("50"), AccountID: account.ID,
		})
		return err
	})
	require.Error(t, err)
	assert.True(t, repo.Account(account.ID).Balance.Equal(dec("500")))
	assert.Empty(t, repo.Transactions())
}

func TestCreateEntryFailsWhenBalanceAdjustFails(t *testing.T) {
	repo := ledgertest.New()
	account := repo.AddAccount("main", dec("500"), 2)
	repo.AdjustBalanceErr = errors.New("boom")

	err := repo.WithTx(context.Background(), func(ctx context.Context, tx ledger.TxRepository) error {
		_, err := ledger.CreateEntry(ctx, tx, ledger.EntryInput{
			Type: ledger.TypeExpense, Amount: dec("50"), AccountID: account.ID,
		})
		return err
	})
	require.Error(t, err)
	assert.True(t, repo.Account(account.ID).Balance.Equal(dec("500")))
	assert.Empty(t, repo.Transactions())
}

func TestUpdateEntryReconcilesDiffAcrossSignChange(t *testing.T) {
	// Old income 100 (sign +1), new expense 30 (sign -1) on balance 1000:
	// reverse the old, apply the new: 1000 - 100 - 30 = 870.
	repo := ledgertest.New()
	account := repo.AddAccount("main", dec("1000"), 2)
	created := createEntry(t, repo, ledger.EntryInput{Type: ledger.TypeIncome, Amount: dec("100"), AccountID: account.ID})
	require.True(t, repo.Account(account.ID).Balance.Equal(dec("1100")))

	err := repo.WithTx(context.Background(), func(ctx context.Context, tx ledger.TxRepository) error {
		_, err := ledger.UpdateEntry(ctx, tx, created.ID, ledger.TransactionPatch{
			Type:   ledger.Some(ledger.TypeExpense),
			Amount: ledger.Some(dec("30")),
		})
		return err
	})
	require.NoError(t, err)
	assert.True(t, repo.Account(account.ID).Balance.Equal(dec("870")))
}

func TestUpdateEntryAmountOnly(t *testing.T) {
	repo := ledgertest.New()
	account := repo.AddAccount("main", dec("1000"), 2)
	created := createEntry(t, repo, ledger.EntryInput{Type: ledger.TypeExpense, Amount: dec("200"), AccountID: account.ID})
	require.True(t, repo.Account(account.ID).Balance.Equal(dec("800")))

	err := repo.WithTx(context.Background(), func(ctx context.Context, tx ledger.TxRepository) error {
		_, err := ledger.UpdateEntry(ctx, tx, created.ID, ledger.TransactionPatch{Amount: ledger.Some(dec("50"))})
		return err
	})
	require.NoError(t, err)
	// -200 reversed, -50 applied.
	assert.True(t, repo.Account(account.ID).Balance.Equal(dec("950")))
}

func TestUpdateEntryTagOnlyLeavesBalanceAlone(t *testing.T) {
	repo := ledgertest.New()
	account := repo.AddAccount("main", dec("1000"), 2)
	tag := repo.AddTag("groceries")
	created := createEntry(t, repo, ledger.EntryInput{Type: ledger.TypeExpense, Amount: dec("75"), AccountID: account.ID})

	err := repo.WithTx(context.Background(), func(ctx context.Context, tx ledger.TxRepository) error {
		updated, err := ledger.UpdateEntry(ctx, tx, created.ID, ledger.TransactionPatch{TagID: ledger.Some(&tag.ID)})
		if err == nil {
			require.NotNil(t, updated.TagID)
		}
		return err
	})
	require.NoError(t, err)
	assert.True(t, repo.Account(account.ID).Balance.Equal(dec("925")))
}

func TestUpdateEntryRollsBackBalanceWhenRowUpdateFails(t *testing.T) {
	repo := ledgertest.New()
	account := repo.AddAccount("main", dec("1000"), 2)
	created := createEntry(t, repo, ledger.EntryInput{Type: ledger.TypeExpense, Amount: dec("200"), AccountID: account.ID})
	require.True(t, repo.Account(account.ID).Balance.Equal(dec("800")))
	repo.UpdateRowErr = errors.New("boom")

	err := repo.WithTx(context.Background(), func(ctx context.Context, tx ledger.TxRepository) error {
		_, err := ledger.UpdateEntry(ctx, tx, created.ID, ledger.TransactionPatch{Amount: ledger.Some(dec("50"))})
		return err
	})
	require.Error(t, err)

	// The balance adjustment inside the savepoint is undone with the failed row
	// update, and the stored entry keeps its original amount.
	assert.True(t, repo.Account(account.ID).Balance.Equal(dec("800")))
	require.Len(t, repo.Transactions(), 1)
	assert.True(t, repo.Transactions()[0].Amount.Equal(dec("200")))
}

func TestUpdateEntryEmptyPatch(t *testing.T) {
	repo := ledgertest.New()
	account := repo.AddAccount("main", dec("1000"), 2)
	created := createEntry(t, repo, ledger.EntryInput{Type: ledger.TypeIncome, Amount: dec("10"), AccountID: account.ID})

	err := repo.WithTx(context.Background(), func(ctx context.Context, tx ledger.TxRepository) error {
		_, err := ledger.UpdateEntry(ctx, tx, created.ID, ledger.TransactionPatch{})
		return err
	})
	require.ErrorIs(t, err, ledger.ErrEmptyUpdate)
}

func TestReservedEntriesRejectDirectMutation(t *testing.T) {
	reserved := []ledger.TransactionType{
		ledger.TypeTransferSender, ledger.TypeTransferReceiver,
		ledger.TypeCreditOpen, ledger.TypeCreditClose,
		ledger.TypeDepositOpen, ledger.TypeDepositClose,
	}
	for _, typ := range reserved {
		t.Run(typ.String(), func(t *testing.T) {
			repo := ledgertest.New()
			account := repo.AddAccount("main", dec("1000"), 2)
			created := createEntry(t, repo, ledger.EntryInput{Type: typ, Amount: dec("100"), AccountID: account.ID})
			balance := repo.Account(account.ID).Balance

			err := repo.WithTx(context.Background(), func(ctx context.Context, tx ledger.TxRepository) error {
				_, err := ledger.UpdateEntry(ctx, tx, created.ID, ledger.TransactionPatch{Amount: ledger.Some(dec("1"))})
				return err
			})
			require.ErrorIs(t, err, ledger.ErrReservedTransactionChange)

			err = repo.WithTx(context.Background(), func(ctx context.Context, tx ledger.TxRepository) error {
				_, err := ledger.DeleteEntry(ctx, tx, created.ID)
				return err
			})
			require.ErrorIs(t, err, ledger.ErrReservedTransactionChange)

			assert.True(t, repo.Account(account.ID).Balance.Equal(balance))
			assert.Len(t, repo.Transactions(), 1)
		})
	}
}

func TestUpdateEntryIntoReservedType(t *testing.T) {
	repo := ledgertest.New()
	account := repo.AddAccount("main", dec("1000"), 2)
	created := createEntry(t, repo, ledger.EntryInput{Type: ledger.TypeIncome, Amount: dec("100"), AccountID: account.ID})

	err := repo.WithTx(context.Background(), func(ctx context.Context, tx ledger.TxRepository) error {
		_, err := ledger.UpdateEntry(ctx, tx, created.ID, ledger.TransactionPatch{Type: ledger.Some(ledger.TypeTransferSender)})
		return err
	})
	require.ErrorIs(t, err, ledger.ErrReservedTransactionChange)
}

func TestDeleteEntryReversesEffect(t *testing.T) {
	repo := ledgertest.New()
	account := repo.AddAccount("main", dec("1000"), 2)
	created := createEntry(t, repo, ledger.EntryInput{Type: ledger.TypeExpense, Amount: dec("400"), AccountID: account.ID})
	require.True(t, repo.Account(account.ID).Balance.Equal(dec("600")))

	err := repo.WithTx(context.Background(), func(ctx context.Context, tx ledger.TxRepository) error {
		_, err := ledger.DeleteEntry(ctx, tx, created.ID)
		return err
	})
	require.NoError(t, err)
	assert.True(t, repo.Account(account.ID).Balance.Equal(dec("1000")))
	assert.Empty(t, repo.Transactions())
}

func TestBalanceEqualsSignedSumAfterMixedOperations(t *testing.T) {
	repo := ledgertest.New()
	account := repo.AddAccount("main", dec("0"), 2)

	createEntry(t, repo, ledger.EntryInput{Type: ledger.TypeIncome, Amount: dec("1000"), AccountID: account.ID})
	second := createEntry(t, repo, ledger.EntryInput{Type: ledger.TypeExpense, Amount: dec("120.50"), AccountID: account.ID})
	createEntry(t, repo, ledger.EntryInput{Type: ledger.TypeIncome, Amount: dec("19.50"), AccountID: account.ID})

	err := repo.WithTx(context.Background(), func(ctx context.Context, tx ledger.TxRepository) error {
		_, err := ledger.UpdateEntry(ctx, tx, second.ID, ledger.TransactionPatch{Amount: ledger.Some(dec("20"))})
		return err
	})
	require.NoError(t, err)

	sum := decimal.Zero
	for _, tr := range repo.Transactions() {
		sum = sum.Add(ledger.Signed(tr.Type, tr.Amount))
	}
	assert.True(t, repo.Account(account.ID).Balance.Equal(sum),
		"balance %s != signed sum %s", repo.Account(account.ID).Balance, sum)
}
