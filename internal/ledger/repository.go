package ledger

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// OrderBy selects the sort order for entry listings.
type OrderBy string

const (
	OrderInsertion            OrderBy = "insertion"
	OrderChronological        OrderBy = "chronological"
	OrderReverseChronological OrderBy = "reverse_chronological"
)

// ParseOrderBy maps a query-string value to an OrderBy, defaulting to insertion order.
func ParseOrderBy(raw string) (OrderBy, error) {
	switch OrderBy(raw) {
	case "", OrderInsertion:
		return OrderInsertion, nil
	case OrderChronological:
		return OrderChronological, nil
	case OrderReverseChronological:
		return OrderReverseChronological, nil
	default:
		return "", fmt.Errorf("ledger: unknown order_by %q", raw)
	}
}

// EntryFilter narrows entry listings. Nil fields are not applied.
type EntryFilter struct {
	AccountID *uuid.UUID
	Type      *TransactionType
	TagID     *uuid.UUID
	Order     OrderBy
}

// Repository encapsulates DB operations for the ledger. Reads outside a
// transaction run against the pool; all mutations go through WithTx.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error

	GetAccount(ctx context.Context, id uuid.UUID) (Account, error)
	ListAccounts(ctx context.Context) ([]AccountView, error)
	GetCurrency(ctx context.Context, id int32) (Currency, error)
	ListCurrencies(ctx context.Context) ([]Currency, error)
	GetTag(ctx context.Context, id uuid.UUID) (Tag, error)
	ListTags(ctx context.Context) ([]Tag, error)
	GetTransaction(ctx context.Context, id uuid.UUID) (Transaction, error)
	ListEntries(ctx context.Context, filter EntryFilter) ([]EntryView, error)
	GetHolding(ctx context.Context, kind HoldingKind, id uuid.UUID) (Holding, error)
	ListHoldings(ctx context.Context, kind HoldingKind, accountID *uuid.UUID) ([]HoldingView, error)
}

// TxRepository exposes operations available within one atomic unit of work.
// WithSavepoint opens a nested scope: on error only that scope's writes are
// rolled back before the error propagates to abort the outer transaction.
type TxRepository interface {
	WithSavepoint(ctx context.Context, fn func(TxRepository) error) error

	InsertAccount(ctx context.Context, name string, balance decimal.Decimal, currencyID int32) (Account, error)
	GetAccount(ctx context.Context, id uuid.UUID) (Account, error)
	GetAccountForUpdate(ctx context.Context, id uuid.UUID) (Account, error)
	UpdateAccount(ctx context.Context, id uuid.UUID, patch AccountPatch) error
	DeleteAccount(ctx context.Context, id uuid.UUID) error
	AdjustBalance(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error

	GetCurrency(ctx context.Context, id int32) (Currency, error)

	InsertTag(ctx context.Context, name string) (Tag, error)
	GetTag(ctx context.Context, id uuid.UUID) (Tag, error)
	UpdateTagName(ctx context.Context, id uuid.UUID, name string) error
	DeleteTag(ctx context.Context, id uuid.UUID) error

	InsertTransaction(ctx context.Context, t Transaction) (Transaction, error)
	GetTransaction(ctx context.Context, id uuid.UUID) (Transaction, error)
	UpdateTransactionRow(ctx context.Context, id uuid.UUID, patch TransactionPatch) error
	DeleteTransactionRow(ctx context.Context, id uuid.UUID) error

	InsertHolding(ctx context.Context, kind HoldingKind, name string, amount decimal.Decimal, accountID uuid.UUID) (Holding, error)
	GetHoldingForUpdate(ctx context.Context, kind HoldingKind, id uuid.UUID) (Holding, error)
	CloseHolding(ctx context.Context, kind HoldingKind, id uuid.UUID) error
	UpdateHoldingName(ctx context.Context, kind HoldingKind, id uuid.UUID, name string) error
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository builds the pgx-backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return fmt.Errorf("ledger: begin tx: %w", err)
	}
	if err := fn(ctx, &txRepository{tx: tx}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("ledger: commit tx: %w", err)
	}
	return nil
}

func (r *repository) GetAccount(ctx context.Context, id uuid.UUID) (Account, error) {
	return getAccount(ctx, r.db, id, false)
}

func (r *repository) ListAccounts(ctx context.Context) ([]AccountView, error) {
	rows, err := r.db.Query(ctx, `SELECT a.id, a.name, a.balance, a.currency_id, a.created_at, c.id, c.code
FROM account a JOIN currency c ON c.id = a.currency_id ORDER BY a.created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var views []AccountView
	for rows.Next() {
		var v AccountView
		if err := rows.Scan(&v.Account.ID, &v.Account.Name, &v.Account.Balance,
			&v.Account.CurrencyID, &v.Account.CreatedAt, &v.Currency.ID, &v.Currency.Code); err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, rows.Err()
}

func (r *repository) GetCurrency(ctx context.Context, id int32) (Currency, error) {
	return getCurrency(ctx, r.db, id)
}

func (r *repository) ListCurrencies(ctx context.Context) ([]Currency, error) {
	rows, err := r.db.Query(ctx, `SELECT id, code FROM currency ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var currencies []Currency
	for rows.Next() {
		var c Currency
		if err := rows.Scan(&c.ID, &c.Code); err != nil {
			return nil, err
		}
		currencies = append(currencies, c)
	}
	return currencies, rows.Err()
}

func (r *repository) GetTag(ctx context.Context, id uuid.UUID) (Tag, error) {
	return getTag(ctx, r.db, id)
}

func (r *repository) ListTags(ctx context.Context) ([]Tag, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name FROM tag ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var tags []Tag
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

func (r *repository) GetTransaction(ctx context.Context, id uuid.UUID) (Transaction, error) {
	return getTransaction(ctx, r.db, id)
}

func (r *repository) ListEntries(ctx context.Context, filter EntryFilter) ([]EntryView, error) {
	query := `SELECT t.id, t.type_id, t.amount, t.account_id, t.tag_id, t.created_at,
a.id, a.name, a.balance, a.currency_id, a.created_at,
c.id, c.code, g.id, g.name
FROM transaction t
JOIN account a ON a.id = t.account_id
JOIN currency c ON c.id = a.currency_id
LEFT JOIN tag g ON g.id = t.tag_id
WHERE 1=1`
	var args []any
	if filter.AccountID != nil {
		args = append(args, *filter.AccountID)
		query += ` AND t.account_id = $` + strconv.Itoa(len(args))
	}
	if filter.Type != nil {
		args = append(args, int32(*filter.Type))
		query += ` AND t.type_id = $` + strconv.Itoa(len(args))
	}
	if filter.TagID != nil {
		args = append(args, *filter.TagID)
		query += ` AND t.tag_id = $` + strconv.Itoa(len(args))
	}
	switch filter.Order {
	case OrderChronological:
		query += ` ORDER BY t.created_at`
	case OrderReverseChronological:
		query += ` ORDER BY t.created_at DESC`
	default:
		query += ` ORDER BY t.created_at, t.id`
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var views []EntryView
	for rows.Next() {
		var v EntryView
		var tagID *uuid.UUID
		var tagName *string
		if err := rows.Scan(&v.Transaction.ID, &v.Transaction.Type, &v.Transaction.Amount,
			&v.Transaction.AccountID, &v.Transaction.TagID, &v.Transaction.CreatedAt,
			&v.Account.ID, &v.Account.Name, &v.Account.Balance, &v.Account.CurrencyID, &v.Account.CreatedAt,
			&v.Currency.ID, &v.Currency.Code, &tagID, &tagName); err != nil {
			return nil, err
		}
		if tagID != nil && tagName != nil {
			v.Tag = &Tag{ID: *tagID, Name: *tagName}
		}
		views = append(views, v)
	}
	return views, rows.Err()
}

func (r *repository) GetHolding(ctx context.Context, kind HoldingKind, id uuid.UUID) (Holding, error) {
	return getHolding(ctx, r.db, kind, id, false)
}

func (r *repository) ListHoldings(ctx context.Context, kind HoldingKind, accountID *uuid.UUID) ([]HoldingView, error) {
	table, err := holdingTable(kind)
	if err != nil {
		return nil, err
	}
	query := `SELECT h.id, h.name, h.amount, h.account_id, h.is_open,
a.id, a.name, a.balance, a.currency_id, a.created_at, c.id, c.code
FROM ` + table + ` h
JOIN account a ON a.id = h.account_id
JOIN currency c ON c.id = a.currency_id`
	var args []any
	if accountID != nil {
		query += ` WHERE h.account_id = $1`
		args = append(args, *accountID)
	}
	query += ` ORDER BY h.id`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var views []HoldingView
	for rows.Next() {
		var v HoldingView
		if err := rows.Scan(&v.Holding.ID, &v.Holding.Name, &v.Holding.Amount,
			&v.Holding.AccountID, &v.Holding.IsOpen,
			&v.Account.ID, &v.Account.Name, &v.Account.Balance, &v.Account.CurrencyID,
			&v.Account.CreatedAt, &v.Currency.ID, &v.Currency.Code); err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, rows.Err()
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) WithSavepoint(ctx context.Context, fn func(TxRepository) error) error {
	inner, err := r.tx.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ledger: begin savepoint: %w", err)
	}
	if err := fn(&txRepository{tx: inner}); err != nil {
		_ = inner.Rollback(ctx)
		return err
	}
	if err := inner.Commit(ctx); err != nil {
		return fmt.Errorf("ledger: release savepoint: %w", err)
	}
	return nil
}

func (r *txRepository) InsertAccount(ctx context.Context, name string, balance decimal.Decimal, currencyID int32) (Account, error) {
	account := Account{ID: uuid.New(), Name: name, Balance: balance, CurrencyID: currencyID}
	err := r.tx.QueryRow(ctx, `INSERT INTO account (id, name, balance, currency_id, created_at)
VALUES ($1, $2, $3, $4, NOW()) RETURNING created_at`,
		account.ID, account.Name, account.Balance, account.CurrencyID).Scan(&account.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return Account{}, fmt.Errorf("%w: id %d", ErrCurrencyNotFound, currencyID)
		}
		return Account{}, err
	}
	return account, nil
}

func (r *txRepository) GetAccount(ctx context.Context, id uuid.UUID) (Account, error) {
	return getAccount(ctx, r.tx, id, false)
}

func (r *txRepository) GetAccountForUpdate(ctx context.Context, id uuid.UUID) (Account, error) {
	return getAccount(ctx, r.tx, id, true)
}

func (r *txRepository) UpdateAccount(ctx context.Context, id uuid.UUID, patch AccountPatch) error {
	sets, args := []string{}, []any{id}
	if patch.Name.Set {
		args = append(args, patch.Name.Value)
		sets = append(sets, "name = $"+strconv.Itoa(len(args)))
	}
	if patch.Balance.Set {
		args = append(args, patch.Balance.Value)
		sets = append(sets, "balance = $"+strconv.Itoa(len(args)))
	}
	if patch.CurrencyID.Set {
		args = append(args, patch.CurrencyID.Value)
		sets = append(sets, "currency_id = $"+strconv.Itoa(len(args)))
	}
	if len(sets) == 0 {
		return ErrEmptyUpdate
	}
	cmd, err := r.tx.Exec(ctx, `UPDATE account SET `+joinSets(sets)+` WHERE id = $1`, args...)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: id %d", ErrCurrencyNotFound, patch.CurrencyID.Value)
		}
		return err
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: id %s", ErrAccountNotFound, id)
	}
	return nil
}

func (r *txRepository) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	cmd, err := r.tx.Exec(ctx, `DELETE FROM account WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: id %s", ErrAccountInUse, id)
		}
		return err
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: id %s", ErrAccountNotFound, id)
	}
	return nil
}

// AdjustBalance serializes concurrent balance mutations on the account row.
// The FOR UPDATE read and the write must stay in the same transaction.
func (r *txRepository) AdjustBalance(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error {
	var balance decimal.Decimal
	err := r.tx.QueryRow(ctx, `SELECT balance FROM account WHERE id = $1 FOR UPDATE`, id).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: id %s", ErrAccountNotFound, id)
		}
		return err
	}
	_, err = r.tx.Exec(ctx, `UPDATE account SET balance = $2 WHERE id = $1`, id, balance.Add(delta))
	return err
}

func (r *txRepository) GetCurrency(ctx context.Context, id int32) (Currency, error) {
	return getCurrency(ctx, r.tx, id)
}

func (r *txRepository) InsertTag(ctx context.Context, name string) (Tag, error) {
	tag := Tag{ID: uuid.New(), Name: name}
	if _, err := r.tx.Exec(ctx, `INSERT INTO tag (id, name) VALUES ($1, $2)`, tag.ID, tag.Name); err != nil {
		return Tag{}, err
	}
	return tag, nil
}

func (r *txRepository) GetTag(ctx context.Context, id uuid.UUID) (Tag, error) {
	return getTag(ctx, r.tx, id)
}

func (r *txRepository) UpdateTagName(ctx context.Context, id uuid.UUID, name string) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE tag SET name = $2 WHERE id = $1`, id, name)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: id %s", ErrTagNotFound, id)
	}
	return nil
}

func (r *txRepository) DeleteTag(ctx context.Context, id uuid.UUID) error {
	cmd, err := r.tx.Exec(ctx, `DELETE FROM tag WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: id %s", ErrTagNotFound, id)
	}
	return nil
}

func (r *txRepository) InsertTransaction(ctx context.Context, t Transaction) (Transaction, error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	_, err := r.tx.Exec(ctx, `INSERT INTO transaction (id, type_id, amount, account_id, tag_id, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`, t.ID, int32(t.Type), t.Amount, t.AccountID, t.TagID, t.CreatedAt)
	if err != nil {
		return Transaction{}, err
	}
	return t, nil
}

func (r *txRepository) GetTransaction(ctx context.Context, id uuid.UUID) (Transaction, error) {
	return getTransaction(ctx, r.tx, id)
}

func (r *txRepository) UpdateTransactionRow(ctx context.Context, id uuid.UUID, patch TransactionPatch) error {
	sets, args := []string{}, []any{id}
	if patch.Type.Set {
		args = append(args, int32(patch.Type.Value))
		sets = append(sets, "type_id = $"+strconv.Itoa(len(args)))
	}
	if patch.Amount.Set {
		args = append(args, patch.Amount.Value)
		sets = append(sets, "amount = $"+strconv.Itoa(len(args)))
	}
	if patch.TagID.Set {
		args = append(args, patch.TagID.Value)
		sets = append(sets, "tag_id = $"+strconv.Itoa(len(args)))
	}
	if len(sets) == 0 {
		return ErrEmptyUpdate
	}
	cmd, err := r.tx.Exec(ctx, `UPDATE transaction SET `+joinSets(sets)+` WHERE id = $1`, args...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: id %s", ErrTransactionNotFound, id)
	}
	return nil
}

func (r *txRepository) DeleteTransactionRow(ctx context.Context, id uuid.UUID) error {
	cmd, err := r.tx.Exec(ctx, `DELETE FROM transaction WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: id %s", ErrTransactionNotFound, id)
	}
	return nil
}

func (r *txRepository) InsertHolding(ctx context.Context, kind HoldingKind, name string, amount decimal.Decimal, accountID uuid.UUID) (Holding, error) {
	table, err := holdingTable(kind)
	if err != nil {
		return Holding{}, err
	}
	holding := Holding{ID: uuid.New(), Name: name, Amount: amount, AccountID: accountID, IsOpen: true}
	_, err = r.tx.Exec(ctx, `INSERT INTO `+table+` (id, name, amount, account_id, is_open)
VALUES ($1, $2, $3, $4, TRUE)`, holding.ID, holding.Name, holding.Amount, holding.AccountID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return Holding{}, fmt.Errorf("%w: id %s", ErrAccountNotFound, accountID)
		}
		return Holding{}, err
	}
	return holding, nil
}

func (r *txRepository) GetHoldingForUpdate(ctx context.Context, kind HoldingKind, id uuid.UUID) (Holding, error) {
	return getHolding(ctx, r.tx, kind, id, true)
}

func (r *txRepository) CloseHolding(ctx context.Context, kind HoldingKind, id uuid.UUID) error {
	table, err := holdingTable(kind)
	if err != nil {
		return err
	}
	cmd, err := r.tx.Exec(ctx, `UPDATE `+table+` SET is_open = FALSE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: id %s", holdingNotFound(kind), id)
	}
	return nil
}

func (r *txRepository) UpdateHoldingName(ctx context.Context, kind HoldingKind, id uuid.UUID, name string) error {
	table, err := holdingTable(kind)
	if err != nil {
		return err
	}
	cmd, err := r.tx.Exec(ctx, `UPDATE `+table+` SET name = $2 WHERE id = $1`, id, name)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: id %s", holdingNotFound(kind), id)
	}
	return nil
}

// Shared query helpers, usable both pool- and tx-side.

func getAccount(ctx context.Context, q querier, id uuid.UUID, forUpdate bool) (Account, error) {
	query := `SELECT id, name, balance, currency_id, created_at FROM account WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	var a Account
	err := q.QueryRow(ctx, query, id).Scan(&a.ID, &a.Name, &a.Balance, &a.CurrencyID, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, fmt.Errorf("%w: id %s", ErrAccountNotFound, id)
		}
		return Account{}, err
	}
	return a, nil
}

func getCurrency(ctx context.Context, q querier, id int32) (Currency, error) {
	var c Currency
	err := q.QueryRow(ctx, `SELECT id, code FROM currency WHERE id = $1`, id).Scan(&c.ID, &c.Code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Currency{}, fmt.Errorf("%w: id %d", ErrCurrencyNotFound, id)
		}
		return Currency{}, err
	}
	return c, nil
}

func getTag(ctx context.Context, q querier, id uuid.UUID) (Tag, error) {
	var t Tag
	err := q.QueryRow(ctx, `SELECT id, name FROM tag WHERE id = $1`, id).Scan(&t.ID, &t.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Tag{}, fmt.Errorf("%w: id %s", ErrTagNotFound, id)
		}
		return Tag{}, err
	}
	return t, nil
}

func getTransaction(ctx context.Context, q querier, id uuid.UUID) (Transaction, error) {
	var t Transaction
	err := q.QueryRow(ctx, `SELECT id, type_id, amount, account_id, tag_id, created_at
FROM transaction WHERE id = $1`, id).Scan(&t.ID, &t.Type, &t.Amount, &t.AccountID, &t.TagID, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transaction{}, fmt.Errorf("%w: id %s", ErrTransactionNotFound, id)
		}
		return Transaction{}, err
	}
	return t, nil
}

func getHolding(ctx context.Context, q querier, kind HoldingKind, id uuid.UUID, forUpdate bool) (Holding, error) {
	table, err := holdingTable(kind)
	if err != nil {
		return Holding{}, err
	}
	query := `SELECT id, name, amount, account_id, is_open FROM ` + table + ` WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	var h Holding
	err = q.QueryRow(ctx, query, id).Scan(&h.ID, &h.Name, &h.Amount, &h.AccountID, &h.IsOpen)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Holding{}, fmt.Errorf("%w: id %s", holdingNotFound(kind), id)
		}
		return Holding{}, err
	}
	return h, nil
}

func holdingTable(kind HoldingKind) (string, error) {
	switch kind {
	case HoldingCredit:
		return "credit", nil
	case HoldingDeposit:
		return "deposit", nil
	default:
		return "", fmt.Errorf("ledger: unknown holding kind %q", kind)
	}
}

func holdingNotFound(kind HoldingKind) error {
	if kind == HoldingDeposit {
		return ErrDepositNotFound
	}
	return ErrCreditNotFound
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

func joinSets(sets []string) string {
	out := sets[0]
	for _, s := range sets[1:] {
		out += ", " + s
	}
	return out
}
