package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountType is an open tag; new members (CURRENT, LOAN, ...) are additive.
type AccountType string

const (
	Savings AccountType = "SAVINGS"
)

type TransactionType string

const (
	Credit   TransactionType = "CREDIT"
	Debit    TransactionType = "DEBIT"
	Transfer TransactionType = "TRANSFER"
)

type Customer struct {
	CustomerID   uuid.UUID `json:"customer_id"`
	CustomerName string    `json:"customer_name"`
}

// Account is a snapshot of persisted state at commit time of the most
// recent mutation observable by the caller. Mutating it changes nothing;
// balance updates go through Store.ApplyLedgerEntry only.
type Account struct {
	AccountNo   uuid.UUID       `json:"account_no"`
	Balance     decimal.Decimal `json:"balance"`
	AccountType AccountType     `json:"account_type"`
	CustomerID  uuid.UUID       `json:"customer_id"`
}

// Transaction is an immutable record of one balance-changing event.
// CREDIT sets only ToAccount, DEBIT only FromAccount, TRANSFER both.
type Transaction struct {
	TransactionID   uuid.UUID       `json:"transaction_id"`
	TransactionType TransactionType `json:"transaction_type"`
	Datetime        time.Time       `json:"datetime"`
	FromAccount     *uuid.UUID      `json:"from_account,omitempty"`
	ToAccount       *uuid.UUID      `json:"to_account,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
}

// LedgerEntry is the bundle handed to a Store: one transaction plus the
// balance deltas it implies. AmountMinor is in minor units (see money).
// From/To are uuid.Nil when the side is not involved.
type LedgerEntry struct {
	Type        TransactionType
	From        uuid.UUID
	To          uuid.UUID
	AmountMinor int64
}

// LockOrder returns the account ids the entry touches, in fixed ascending
// order so two concurrent entries over the same pair never acquire row
// locks in opposite order.
func (e LedgerEntry) LockOrder() []uuid.UUID {
	ids := make([]uuid.UUID, 0, 2)
	switch e.Type {
	case Credit:
		ids = append(ids, e.To)
	case Debit:
		ids = append(ids, e.From)
	case Transfer:
		if lessUUID(e.From, e.To) {
			ids = append(ids, e.From, e.To)
		} else {
			ids = append(ids, e.To, e.From)
		}
	}
	return ids
}

func lessUUID(a, b uuid.UUID) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
