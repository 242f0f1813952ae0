package ledger

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Optional tags a partial-update field as present or absent. A zero Optional
// means the field was not part of the request.
type Optional[T any] struct {
	Value T
	Set   bool
}

// Some wraps a value as a present Optional.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Set: true}
}

// AccountPatch is a whitelist merge against a stored account. Balance is the
// administrative override path: it bypasses the transaction-derived invariant
// and is logged by the accounts service.
type AccountPatch struct {
	Name       Optional[string]
	Balance    Optional[decimal.Decimal]
	CurrencyID Optional[int32]
}

// Empty reports whether no field is present.
func (p AccountPatch) Empty() bool {
	return !p.Name.Set && !p.Balance.Set && !p.CurrencyID.Set
}

// TransactionPatch is a whitelist merge against a stored entry. TagID carries
// a pointer value so a present-nil clears the tag.
type TransactionPatch struct {
	Type   Optional[TransactionType]
	Amount Optional[decimal.Decimal]
	TagID  Optional[*uuid.UUID]
}

// Empty reports whether no field is present.
func (p TransactionPatch) Empty() bool {
	return !p.Type.Set && !p.Amount.Set && !p.TagID.Set
}
