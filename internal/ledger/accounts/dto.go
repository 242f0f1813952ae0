package accounts

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/moneta-app/moneta/internal/ledger"
)

type createRequest struct {
	Name       string          `json:"name" validate:"required,max=100"`
	Balance    decimal.Decimal `json:"balance"`
	CurrencyID int32           `json:"currency_id" validate:"required,min=1"`
}

type updateRequest struct {
	Name       *string          `json:"name" validate:"omitempty,max=100"`
	Balance    *decimal.Decimal `json:"balance"`
	CurrencyID *int32           `json:"currency_id" validate:"omitempty,min=1"`
}

func (r updateRequest) patch() ledger.AccountPatch {
	var p ledger.AccountPatch
	if r.Name != nil {
		p.Name = ledger.Some(*r.Name)
	}
	if r.Balance != nil {
		p.Balance = ledger.Some(*r.Balance)
	}
	if r.CurrencyID != nil {
		p.CurrencyID = ledger.Some(*r.CurrencyID)
	}
	return p
}

type currencyResponse struct {
	ID   int32  `json:"id"`
	Code string `json:"code"`
}

type accountResponse struct {
	ID        uuid.UUID        `json:"id"`
	Name      string           `json:"name"`
	Balance   decimal.Decimal  `json:"balance"`
	Currency  currencyResponse `json:"currency"`
	CreatedAt time.Time        `json:"created_at"`
}

type idResponse struct {
	ID uuid.UUID `json:"id"`
}

func toAccountResponse(v ledger.AccountView) accountResponse {
	return accountResponse{
		ID:      v.Account.ID,
		Name:    v.Account.Name,
		Balance: v.Account.Balance,
		Currency: currencyResponse{
			ID:   v.Currency.ID,
			Code: v.Currency.Code,
		},
		CreatedAt: v.Account.CreatedAt,
	}
}
