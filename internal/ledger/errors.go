package ledger

import "errors"

var (
	// ErrAccountNotFound indicates a missing account.
	ErrAccountNotFound = errors.New("ledger: account not found")
	// ErrTransactionNotFound indicates a missing entry.
	ErrTransactionNotFound = errors.New("ledger: transaction not found")
	// ErrTransactionTypeNotFound indicates an id outside the enumeration.
	ErrTransactionTypeNotFound = errors.New("ledger: transaction type not found")
	// ErrTagNotFound indicates a missing tag.
	ErrTagNotFound = errors.New("ledger: tag not found")
	// ErrCurrencyNotFound indicates a missing currency.
	ErrCurrencyNotFound = errors.New("ledger: currency not found")
	// ErrCreditNotFound indicates a missing credit.
	ErrCreditNotFound = errors.New("ledger: credit not found")
	// ErrDepositNotFound indicates a missing deposit.
	ErrDepositNotFound = errors.New("ledger: deposit not found")
	// ErrReservedTransactionChange indicates an attempted direct mutation of a
	// system-generated entry, or an update into a reserved type.
	ErrReservedTransactionChange = errors.New("ledger: reserved transactions cannot be created, updated or deleted directly")
	// ErrCreditAlreadyClosed indicates a second close of the same credit.
	ErrCreditAlreadyClosed = errors.New("ledger: credit already closed")
	// ErrDepositAlreadyClosed indicates a second close of the same deposit.
	ErrDepositAlreadyClosed = errors.New("ledger: deposit already closed")
	// ErrInsufficientFunds indicates the account balance is below the requested amount.
	ErrInsufficientFunds = errors.New("ledger: insufficient funds")
	// ErrExchangeUnavailable indicates the exchange-rate service failed or timed out.
	ErrExchangeUnavailable = errors.New("ledger: exchange rate service unavailable")
	// ErrEmptyUpdate indicates an update request with no fields set.
	ErrEmptyUpdate = errors.New("ledger: update request has no fields")
	// ErrInvalidAmount indicates a negative amount magnitude.
	ErrInvalidAmount = errors.New("ledger: amount must be non-negative")
	// ErrAccountInUse indicates the account still has dependent rows.
	ErrAccountInUse = errors.New("ledger: account has transactions and cannot be deleted")
)
