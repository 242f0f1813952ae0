package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Currency is immutable reference data seeded at startup.
type Currency struct {
	ID   int32
	Code string
}

// Account holds a balance in one currency. The balance is derived-but-stored:
// outside of explicit administrative overrides it equals the signed sum of the
// account's transactions.
type Account struct {
	ID         uuid.UUID
	Name       string
	Balance    decimal.Decimal
	CurrencyID int32
	CreatedAt  time.Time
}

// Tag is an optional label attached to transactions.
type Tag struct {
	ID   uuid.UUID
	Name string
}

// Transaction is one signed ledger entry. Amount is always a non-negative
// magnitude; direction comes from the type's sign.
type Transaction struct {
	ID        uuid.UUID
	Type      TransactionType
	Amount    decimal.Decimal
	AccountID uuid.UUID
	TagID     *uuid.UUID
	CreatedAt time.Time
}

// HoldingKind selects between the two lifecycle tables.
type HoldingKind string

const (
	HoldingCredit  HoldingKind = "credit"
	HoldingDeposit HoldingKind = "deposit"
)

// Holding is a credit or deposit row. IsOpen transitions true->false exactly once.
type Holding struct {
	ID        uuid.UUID
	Name      string
	Amount    decimal.Decimal
	AccountID uuid.UUID
	IsOpen    bool
}

// AccountView joins an account with its currency for display.
type AccountView struct {
	Account  Account
	Currency Currency
}

// EntryView is the joined projection returned by entry listings.
type EntryView struct {
	Transaction Transaction
	Account     Account
	Currency    Currency
	Tag         *Tag
}

// HoldingView joins a holding with its account and currency.
type HoldingView struct {
	Holding  Holding
	Account  Account
	Currency Currency
}
