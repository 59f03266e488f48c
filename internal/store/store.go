// Package store defines the persistence port of the banking core.
// Two backends implement it: memstore (in-process reference) and
// pgstore (PostgreSQL).
package store

import (
	"context"

	"github.com/google/uuid"

	"bank-core/internal/domain"
)

// Store owns all persisted state. Values it hands out are snapshots;
// callers effect change only through these operations.
//
// ApplyLedgerEntry is the single mutating path for balances. A backend
// must make the balance read, the overdraft predicate, the balance
// writes and the transaction append indivisible with respect to any
// other ApplyLedgerEntry touching the same account(s), and must leave
// no partial state on abort.
type Store interface {
	// InsertAccount persists a new Customer+Account pair with zero
	// balance and assigns both ids.
	InsertAccount(ctx context.Context, customerName string, accType domain.AccountType) (domain.Account, error)

	// LoadAccount returns the current snapshot, or ErrNotFound.
	LoadAccount(ctx context.Context, accountNo uuid.UUID) (domain.Account, error)

	// ApplyLedgerEntry applies one entry atomically and returns the
	// persisted Transaction with id and datetime filled. Debit and
	// Transfer fail with ErrInsufficientFunds rather than take the
	// source balance negative.
	ApplyLedgerEntry(ctx context.Context, entry domain.LedgerEntry) (domain.Transaction, error)

	// RecentTransactions returns up to limit transactions naming
	// accountNo on either side, ordered by datetime descending, ties
	// broken by transaction id descending. The account's existence is
	// not checked; an unknown account yields an empty result.
	RecentTransactions(ctx context.Context, accountNo uuid.UUID, limit int) ([]domain.Transaction, error)
}
