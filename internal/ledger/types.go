package ledger

import "fmt"

// TransactionType enumerates the fixed set of entry kinds. The ids are part of
// the persisted schema and must never be renumbered.
type TransactionType int32

const (
	TypeIncome           TransactionType = 1
	TypeExpense          TransactionType = 2
	TypeTransferSender   TransactionType = 3
	TypeTransferReceiver TransactionType = 4
	TypeCreditOpen       TransactionType = 5
	TypeCreditClose      TransactionType = 6
	TypeDepositOpen      TransactionType = 7
	TypeDepositClose     TransactionType = 8
)

type typeInfo struct {
	name     string
	plus     bool
	reserved bool
}

// typeTable is the in-process transaction-type reference table. The DB table
// mirrors it and is verified against it at startup.
var typeTable = map[TransactionType]typeInfo{
	TypeIncome:           {name: "income", plus: true},
	TypeExpense:          {name: "expense"},
	TypeTransferSender:   {name: "transfer_sender", reserved: true},
	TypeTransferReceiver: {name: "transfer_receiver", plus: true, reserved: true},
	TypeCreditOpen:       {name: "credit_open", plus: true, reserved: true},
	TypeCreditClose:      {name: "credit_close", reserved: true},
	TypeDepositOpen:      {name: "deposit_open", reserved: true},
	TypeDepositClose:     {name: "deposit_close", plus: true, reserved: true},
}

// Known reports whether t is a member of the enumeration.
func (t TransactionType) Known() bool {
	_, ok := typeTable[t]
	return ok
}

func (t TransactionType) String() string {
	if info, ok := typeTable[t]; ok {
		return info.name
	}
	return fmt.Sprintf("transaction_type(%d)", int32(t))
}

// Sign returns +1 for types that add to the account balance and -1 otherwise.
func (t TransactionType) Sign() int32 {
	if typeTable[t].plus {
		return 1
	}
	return -1
}

// Reserved reports whether entries of this type may only be produced by the
// transfer/credit/deposit orchestration paths.
func (t TransactionType) Reserved() bool {
	return typeTable[t].reserved
}

// AllTypes returns the enumeration in id order.
func AllTypes() []TransactionType {
	return []TransactionType{
		TypeIncome, TypeExpense,
		TypeTransferSender, TypeTransferReceiver,
		TypeCreditOpen, TypeCreditClose,
		TypeDepositOpen, TypeDepositClose,
	}
}

// PlusTypeIDs returns the ids of all plus-signed types. The integrity job uses
// it to recompute balances in SQL.
func PlusTypeIDs() []int32 {
	var ids []int32
	for _, t := range AllTypes() {
		if typeTable[t].plus {
			ids = append(ids, int32(t))
		}
	}
	return ids
}
