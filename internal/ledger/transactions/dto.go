package transactions

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/moneta-app/moneta/internal/ledger"
)

type createRequest struct {
	TypeID    int32           `json:"type_id" validate:"required,min=1"`
	Amount    decimal.Decimal `json:"amount"`
	AccountID uuid.UUID       `json:"account_id" validate:"required"`
	TagID     *uuid.UUID      `json:"tag_id"`
}

// updateRequest distinguishes "field absent" from "field null": tag_id may be
// set to null to detach the tag, so its presence is tracked during decoding.
type updateRequest struct {
	TypeID *int32           `json:"type_id" validate:"omitempty,min=1"`
	Amount *decimal.Decimal `json:"amount"`
	TagID  *uuid.UUID       `json:"tag_id"`

	tagSet bool
}

func (r *updateRequest) UnmarshalJSON(data []byte) error {
	type plain updateRequest
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}
	*r = updateRequest(p)
	_, r.tagSet = keys["tag_id"]
	return nil
}

func (r updateRequest) patch() ledger.TransactionPatch {
	var p ledger.TransactionPatch
	if r.TypeID != nil {
		p.Type = ledger.Some(ledger.TransactionType(*r.TypeID))
	}
	if r.Amount != nil {
		p.Amount = ledger.Some(*r.Amount)
	}
	if r.tagSet {
		p.TagID = ledger.Some(r.TagID)
	}
	return p
}

type tagResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type transactionResponse struct {
	ID        uuid.UUID       `json:"id"`
	TypeID    int32           `json:"type_id"`
	TypeName  string          `json:"type_name"`
	Amount    decimal.Decimal `json:"amount"`
	AccountID uuid.UUID       `json:"account_id"`
	TagID     *uuid.UUID      `json:"tag_id"`
	CreatedAt time.Time       `json:"created_at"`
}

type entryResponse struct {
	ID          uuid.UUID       `json:"id"`
	TypeID      int32           `json:"type_id"`
	TypeName    string          `json:"type_name"`
	Amount      decimal.Decimal `json:"amount"`
	AccountID   uuid.UUID       `json:"account_id"`
	AccountName string          `json:"account_name"`
	Currency    string          `json:"currency"`
	Tag         *tagResponse    `json:"tag"`
	CreatedAt   time.Time       `json:"created_at"`
}

type typeResponse struct {
	ID       int32  `json:"id"`
	Name     string `json:"name"`
	Reserved bool   `json:"reserved"`
}

type idResponse struct {
	ID uuid.UUID `json:"id"`
}

func toTransactionResponse(t ledger.Transaction) transactionResponse {
	return transactionResponse{
		ID:        t.ID,
		TypeID:    int32(t.Type),
		TypeName:  t.Type.String(),
		Amount:    t.Amount,
		AccountID: t.AccountID,
		TagID:     t.TagID,
		CreatedAt: t.CreatedAt,
	}
}

func toEntryResponse(v ledger.EntryView) entryResponse {
	resp := entryResponse{
		ID:          v.Transaction.ID,
		TypeID:      int32(v.Transaction.Type),
		TypeName:    v.Transaction.Type.String(),
		Amount:      v.Transaction.Amount,
		AccountID:   v.Account.ID,
		AccountName: v.Account.Name,
		Currency:    v.Currency.Code,
		CreatedAt:   v.Transaction.CreatedAt,
	}
	if v.Tag != nil {
		resp.Tag = &tagResponse{ID: v.Tag.ID, Name: v.Tag.Name}
	}
	return resp
}
