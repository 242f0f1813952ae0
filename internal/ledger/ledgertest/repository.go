// Package ledgertest provides an in-memory ledger.Repository for service
// tests. WithTx and WithSavepoint snapshot the state and restore it on error,
// so tests observe the same all-or-nothing behavior the pgx repository
// guarantees.
package ledgertest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/moneta-app/moneta/internal/ledger"
)

type state struct {
	accounts     map[uuid.UUID]ledger.Account
	tags         map[uuid.UUID]ledger.Tag
	transactions map[uuid.UUID]ledger.Transaction
	txOrder      []uuid.UUID
	holdings     map[ledger.HoldingKind]map[uuid.UUID]ledger.Holding
}

// Repo is the in-memory repository. Error fields inject failures into
// specific operations.
type Repo struct {
	mu         sync.Mutex
	st         state
	currencies map[int32]ledger.Currency

	AdjustBalanceErr     error
	InsertTransactionErr error
	InsertHoldingErr     error
	CloseHoldingErr      error
	UpdateRowErr         error

	Now func() time.Time
}

// New seeds the reference currencies (1=uah, 2=usd).
func New() *Repo {
	return &Repo{
		st: state{
			accounts:     map[uuid.UUID]ledger.Account{},
			tags:         map[uuid.UUID]ledger.Tag{},
			transactions: map[uuid.UUID]ledger.Transaction{},
			holdings: map[ledger.HoldingKind]map[uuid.UUID]ledger.Holding{
				ledger.HoldingCredit:  {},
				ledger.HoldingDeposit: {},
			},
		},
		currencies: map[int32]ledger.Currency{
			1: {ID: 1, Code: "uah"},
			2: {ID: 2, Code: "usd"},
		},
		Now: func() time.Time { return time.Now().UTC() },
	}
}

// AddAccount seeds an account and returns it.
func (r *Repo) AddAccount(name string, balance decimal.Decimal, currencyID int32) ledger.Account {
	r.mu.Lock()
	defer r.mu.Unlock()
	a := ledger.Account{ID: uuid.New(), Name: name, Balance: balance, CurrencyID: currencyID, CreatedAt: r.Now()}
	r.st.accounts[a.ID] = a
	return a
}

// AddTag seeds a tag and returns it.
func (r *Repo) AddTag(name string) ledger.Tag {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := ledger.Tag{ID: uuid.New(), Name: name}
	r.st.tags[t.ID] = t
	return t
}

// Account returns the current stored account.
func (r *Repo) Account(id uuid.UUID) ledger.Account {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.st.accounts[id]
}

// Transactions returns all stored entries in insertion order.
func (r *Repo) Transactions() []ledger.Transaction {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []ledger.Transaction
	for _, id := range r.st.txOrder {
		out = append(out, r.st.transactions[id])
	}
	return out
}

// Holding returns the current stored holding.
func (r *Repo) Holding(kind ledger.HoldingKind, id uuid.UUID) ledger.Holding {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.st.holdings[kind][id]
}

func (r *Repo) snapshot() state {
	snap := state{
		accounts:     make(map[uuid.UUID]ledger.Account, len(r.st.accounts)),
		tags:         make(map[uuid.UUID]ledger.Tag, len(r.st.tags)),
		transactions: make(map[uuid.UUID]ledger.Transaction, len(r.st.transactions)),
		txOrder:      append([]uuid.UUID(nil), r.st.txOrder...),
		holdings:     map[ledger.HoldingKind]map[uuid.UUID]ledger.Holding{},
	}
	for k, v := range r.st.accounts {
		snap.accounts[k] = v
	}
	for k, v := range r.st.tags {
		snap.tags[k] = v
	}
	for k, v := range r.st.transactions {
		snap.transactions[k] = v
	}
	for kind, m := range r.st.holdings {
		cp := make(map[uuid.UUID]ledger.Holding, len(m))
		for k, v := range m {
			cp[k] = v
		}
		snap.holdings[kind] = cp
	}
	return snap
}

// WithTx runs fn against the shared state, restoring the snapshot on error.
func (r *Repo) WithTx(ctx context.Context, fn func(context.Context, ledger.TxRepository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := r.snapshot()
	if err := fn(ctx, (*txRepo)(r)); err != nil {
		r.st = snap
		return err
	}
	return nil
}

func (r *Repo) GetAccount(ctx context.Context, id uuid.UUID) (ledger.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return (*txRepo)(r).GetAccount(ctx, id)
}

func (r *Repo) ListAccounts(ctx context.Context) ([]ledger.AccountView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var views []ledger.AccountView
	for _, a := range r.st.accounts {
		views = append(views, ledger.AccountView{Account: a, Currency: r.currencies[a.CurrencyID]})
	}
	sort.Slice(views, func(i, j int) bool {
		return views[i].Account.CreatedAt.Before(views[j].Account.CreatedAt)
	})
	return views, nil
}

func (r *Repo) GetCurrency(ctx context.Context, id int32) (ledger.Currency, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return (*txRepo)(r).GetCurrency(ctx, id)
}

func (r *Repo) ListCurrencies(ctx context.Context) ([]ledger.Currency, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []ledger.Currency
	for _, c := range r.currencies {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *Repo) GetTag(ctx context.Context, id uuid.UUID) (ledger.Tag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return (*txRepo)(r).GetTag(ctx, id)
}

func (r *Repo) ListTags(ctx context.Context) ([]ledger.Tag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []ledger.Tag
	for _, t := range r.st.tags {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *Repo) GetTransaction(ctx context.Context, id uuid.UUID) (ledger.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return (*txRepo)(r).GetTransaction(ctx, id)
}

func (r *Repo) ListEntries(ctx context.Context, filter ledger.EntryFilter) ([]ledger.EntryView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var views []ledger.EntryView
	for _, id := range r.st.txOrder {
		t := r.st.transactions[id]
		if filter.AccountID != nil && t.AccountID != *filter.AccountID {
			continue
		}
		if filter.Type != nil && t.Type != *filter.Type {
			continue
		}
		if filter.TagID != nil && (t.TagID == nil || *t.TagID != *filter.TagID) {
			continue
		}
		account := r.st.accounts[t.AccountID]
		view := ledger.EntryView{
			Transaction: t,
			Account:     account,
			Currency:    r.currencies[account.CurrencyID],
		}
		if t.TagID != nil {
			tag := r.st.tags[*t.TagID]
			view.Tag = &tag
		}
		views = append(views, view)
	}
	switch filter.Order {
	case ledger.OrderChronological:
		sort.SliceStable(views, func(i, j int) bool {
			return views[i].Transaction.CreatedAt.Before(views[j].Transaction.CreatedAt)
		})
	case ledger.OrderReverseChronological:
		sort.SliceStable(views, func(i, j int) bool {
			return views[j].Transaction.CreatedAt.Before(views[i].Transaction.CreatedAt)
		})
	}
	return views, nil
}

func (r *Repo) GetHolding(ctx context.Context, kind ledger.HoldingKind, id uuid.UUID) (ledger.Holding, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return (*txRepo)(r).getHolding(kind, id)
}

func (r *Repo) ListHoldings(ctx context.Context, kind ledger.HoldingKind, accountID *uuid.UUID) ([]ledger.HoldingView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var views []ledger.HoldingView
	for _, h := range r.st.holdings[kind] {
		if accountID != nil && h.AccountID != *accountID {
			continue
		}
		account := r.st.accounts[h.AccountID]
		views = append(views, ledger.HoldingView{
			Holding:  h,
			Account:  account,
			Currency: r.currencies[account.CurrencyID],
		})
	}
	sort.Slice(views, func(i, j int) bool {
		return views[i].Holding.ID.String() < views[j].Holding.ID.String()
	})
	return views, nil
}

// txRepo is the transactional view over the same state. The caller already
// holds the mutex.
type txRepo Repo

func (t *txRepo) WithSavepoint(ctx context.Context, fn func(ledger.TxRepository) error) error {
	snap := (*Repo)(t).snapshot()
	if err := fn(t); err != nil {
		t.st = snap
		return err
	}
	return nil
}

func (t *txRepo) InsertAccount(ctx context.Context, name string, balance decimal.Decimal, currencyID int32) (ledger.Account, error) {
	if _, ok := t.currencies[currencyID]; !ok {
		return ledger.Account{}, fmt.Errorf("%w: id %d", ledger.ErrCurrencyNotFound, currencyID)
	}
	a := ledger.Account{ID: uuid.New(), Name: name, Balance: balance, CurrencyID: currencyID, CreatedAt: t.Now()}
	t.st.accounts[a.ID] = a
	return a, nil
}

func (t *txRepo) GetAccount(ctx context.Context, id uuid.UUID) (ledger.Account, error) {
	a, ok := t.st.accounts[id]
	if !ok {
		return ledger.Account{}, fmt.Errorf("%w: id %s", ledger.ErrAccountNotFound, id)
	}
	return a, nil
}

func (t *txRepo) GetAccountForUpdate(ctx context.Context, id uuid.UUID) (ledger.Account, error) {
	return t.GetAccount(ctx, id)
}

func (t *txRepo) UpdateAccount(ctx context.Context, id uuid.UUID, patch ledger.AccountPatch) error {
	a, ok := t.st.accounts[id]
	if !ok {
		return fmt.Errorf("%w: id %s", ledger.ErrAccountNotFound, id)
	}
	if patch.Empty() {
		return ledger.ErrEmptyUpdate
	}
	if patch.Name.Set {
		a.Name = patch.Name.Value
	}
	if patch.Balance.Set {
		a.Balance = patch.Balance.Value
	}
	if patch.CurrencyID.Set {
		if _, ok := t.currencies[patch.CurrencyID.Value]; !ok {
			return fmt.Errorf("%w: id %d", ledger.ErrCurrencyNotFound, patch.CurrencyID.Value)
		}
		a.CurrencyID = patch.CurrencyID.Value
	}
	t.st.accounts[id] = a
	return nil
}

func (t *txRepo) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	if _, ok := t.st.accounts[id]; !ok {
		return fmt.Errorf("%w: id %s", ledger.ErrAccountNotFound, id)
	}
	for _, tr := range t.st.transactions {
		if tr.AccountID == id {
			return fmt.Errorf("%w: id %s", ledger.ErrAccountInUse, id)
		}
	}
	delete(t.st.accounts, id)
	return nil
}

func (t *txRepo) AdjustBalance(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error {
	if t.AdjustBalanceErr != nil {
		return t.AdjustBalanceErr
	}
	a, ok := t.st.accounts[id]
	if !ok {
		return fmt.Errorf("%w: id %s", ledger.ErrAccountNotFound, id)
	}
	a.Balance = a.Balance.Add(delta)
	t.st.accounts[id] = a
	return nil
}

func (t *txRepo) GetCurrency(ctx context.Context, id int32) (ledger.Currency, error) {
	c, ok := t.currencies[id]
	if !ok {
		return ledger.Currency{}, fmt.Errorf("%w: id %d", ledger.ErrCurrencyNotFound, id)
	}
	return c, nil
}

func (t *txRepo) InsertTag(ctx context.Context, name string) (ledger.Tag, error) {
	tag := ledger.Tag{ID: uuid.New(), Name: name}
	t.st.tags[tag.ID] = tag
	return tag, nil
}

func (t *txRepo) GetTag(ctx context.Context, id uuid.UUID) (ledger.Tag, error) {
	tag, ok := t.st.tags[id]
	if !ok {
		return ledger.Tag{}, fmt.Errorf("%w: id %s", ledger.ErrTagNotFound, id)
	}
	return tag, nil
}

func (t *txRepo) UpdateTagName(ctx context.Context, id uuid.UUID, name string) error {
	tag, ok := t.st.tags[id]
	if !ok {
		return fmt.Errorf("%w: id %s", ledger.ErrTagNotFound, id)
	}
	tag.Name = name
	t.st.tags[id] = tag
	return nil
}

func (t *txRepo) DeleteTag(ctx context.Context, id uuid.UUID) error {
	if _, ok := t.st.tags[id]; !ok {
		return fmt.Errorf("%w: id %s", ledger.ErrTagNotFound, id)
	}
	delete(t.st.tags, id)
	return nil
}

func (t *txRepo) InsertTransaction(ctx context.Context, tr ledger.Transaction) (ledger.Transaction, error) {
	if t.InsertTransactionErr != nil {
		return ledger.Transaction{}, t.InsertTransactionErr
	}
	if tr.ID == uuid.Nil {
		tr.ID = uuid.New()
	}
	if tr.CreatedAt.IsZero() {
		tr.CreatedAt = t.Now()
	}
	t.st.transactions[tr.ID] = tr
	t.st.txOrder = append(t.st.txOrder, tr.ID)
	return tr, nil
}

func (t *txRepo) GetTransaction(ctx context.Context, id uuid.UUID) (ledger.Transaction, error) {
	tr, ok := t.st.transactions[id]
	if !ok {
		return ledger.Transaction{}, fmt.Errorf("%w: id %s", ledger.ErrTransactionNotFound, id)
	}
	return tr, nil
}

func (t *txRepo) UpdateTransactionRow(ctx context.Context, id uuid.UUID, patch ledger.TransactionPatch) error {
	if t.UpdateRowErr != nil {
		return t.UpdateRowErr
	}
	tr, ok := t.st.transactions[id]
	if !ok {
		return fmt.Errorf("%w: id %s", ledger.ErrTransactionNotFound, id)
	}
	if patch.Empty() {
		return ledger.ErrEmptyUpdate
	}
	if patch.Type.Set {
		tr.Type = patch.Type.Value
	}
	if patch.Amount.Set {
		tr.Amount = patch.Amount.Value
	}
	if patch.TagID.Set {
		tr.TagID = patch.TagID.Value
	}
	t.st.transactions[id] = tr
	return nil
}

func (t *txRepo) DeleteTransactionRow(ctx context.Context, id uuid.UUID) error {
	if _, ok := t.st.transactions[id]; !ok {
		return fmt.Errorf("%w: id %s", ledger.ErrTransactionNotFound, id)
	}
	delete(t.st.transactions, id)
	for i, existing := range t.st.txOrder {
		if existing == id {
			t.st.txOrder = append(t.st.txOrder[:i], t.st.txOrder[i+1:]...)
			break
		}
	}
	return nil
}

func (t *txRepo) InsertHolding(ctx context.Context, kind ledger.HoldingKind, name string, amount decimal.Decimal, accountID uuid.UUID) (ledger.Holding, error) {
	if t.InsertHoldingErr != nil {
		return ledger.Holding{}, t.InsertHoldingErr
	}
	if _, ok := t.st.accounts[accountID]; !ok {
		return ledger.Holding{}, fmt.Errorf("%w: id %s", ledger.ErrAccountNotFound, accountID)
	}
	h := ledger.Holding{ID: uuid.New(), Name: name, Amount: amount, AccountID: accountID, IsOpen: true}
	t.st.holdings[kind][h.ID] = h
	return h, nil
}

func (t *txRepo) getHolding(kind ledger.HoldingKind, id uuid.UUID) (ledger.Holding, error) {
	h, ok := t.st.holdings[kind][id]
	if !ok {
		if kind == ledger.HoldingDeposit {
			return ledger.Holding{}, fmt.Errorf("%w: id %s", ledger.ErrDepositNotFound, id)
		}
		return ledger.Holding{}, fmt.Errorf("%w: id %s", ledger.ErrCreditNotFound, id)
	}
	return h, nil
}

func (t *txRepo) GetHoldingForUpdate(ctx context.Context, kind ledger.HoldingKind, id uuid.UUID) (ledger.Holding, error) {
	return t.getHolding(kind, id)
}

func (t *txRepo) CloseHolding(ctx context.Context, kind ledger.HoldingKind, id uuid.UUID) error {
	if t.CloseHoldingErr != nil {
		return t.CloseHoldingErr
	}
	h, err := t.getHolding(kind, id)
	if err != nil {
		return err
	}
	h.IsOpen = false
	t.st.holdings[kind][id] = h
	return nil
}

func (t *txRepo) UpdateHoldingName(ctx context.Context, kind ledger.HoldingKind, id uuid.UUID, name string) error {
	h, err := t.getHolding(kind, id)
	if err != nil {
		return err
	}
	h.Name = name
	t.st.holdings[kind][id] = h
	return nil
}
