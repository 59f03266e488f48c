// Package memstore is the in-process reference Store backend. One lock
// serializes every ledger apply, which makes the whole entry (existence
// checks, overdraft predicate, balance writes, transaction append) a
// single atomic section.
package memstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"bank-core/internal/domain"
	"bank-core/internal/money"
	"bank-core/internal/store"
)

type accountRow struct {
	customer     domain.Customer
	accType      domain.AccountType
	balanceMinor int64
}

type txRow struct {
	id          uuid.UUID
	txType      domain.TransactionType
	at          time.Time
	from        uuid.UUID // uuid.Nil when absent
	to          uuid.UUID
	amountMinor int64
}

type Store struct {
	scale int32

	mu       sync.RWMutex
	accounts map[uuid.UUID]*accountRow
	// Append-only. Entries are appended in commit order, which is also
	// (datetime, transaction id) order because both are assigned under mu.
	log []txRow
}

func New(scale int32) *Store {
	if scale < 0 {
		scale = money.DefaultScale
	}
	return &Store{
		scale:    scale,
		accounts: make(map[uuid.UUID]*accountRow),
	}
}

func (s *Store) InsertAccount(ctx context.Context, customerName string, accType domain.AccountType) (domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return domain.Account{}, err
	}

	row := &accountRow{
		customer: domain.Customer{
			CustomerID:   uuid.New(),
			CustomerName: customerName,
		},
		accType: accType,
	}
	accountNo := uuid.New()

	s.mu.Lock()
	s.accounts[accountNo] = row
	s.mu.Unlock()

	return domain.Account{
		AccountNo:   accountNo,
		Balance:     money.FromMinor(0, s.scale),
		AccountType: accType,
		CustomerID:  row.customer.CustomerID,
	}, nil
}

func (s *Store) LoadAccount(ctx context.Context, accountNo uuid.UUID) (domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return domain.Account{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.accounts[accountNo]
	if !ok {
		return domain.Account{}, domain.ErrNotFound
	}
	return domain.Account{
		AccountNo:   accountNo,
		Balance:     money.FromMinor(row.balanceMinor, s.scale),
		AccountType: row.accType,
		CustomerID:  row.customer.CustomerID,
	}, nil
}

func (s *Store) ApplyLedgerEntry(ctx context.Context, entry domain.LedgerEntry) (domain.Transaction, error) {
	// Cancellation is honored up to the atomic section; once inside, the
	// entry commits or aborts as a unit.
	if err := ctx.Err(); err != nil {
		return domain.Transaction{}, err
	}
	if entry.AmountMinor <= 0 {
		return domain.Transaction{}, domain.ErrInvalidAmount
	}
	if entry.Type == domain.Transfer && entry.From == entry.To {
		return domain.Transaction{}, domain.ErrInvalidTransfer
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var from, to *accountRow
	if entry.Type == domain.Debit || entry.Type == domain.Transfer {
		if from = s.accounts[entry.From]; from == nil {
			return domain.Transaction{}, domain.ErrNotFound
		}
	}
	if entry.Type == domain.Credit || entry.Type == domain.Transfer {
		if to = s.accounts[entry.To]; to == nil {
			return domain.Transaction{}, domain.ErrNotFound
		}
	}

	if from != nil && from.balanceMinor < entry.AmountMinor {
		return domain.Transaction{}, domain.ErrInsufficientFunds
	}

	id, err := uuid.NewV7()
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("%w: assign transaction id: %v", domain.ErrStore, err)
	}

	if from != nil {
		from.balanceMinor -= entry.AmountMinor
	}
	if to != nil {
		to.balanceMinor += entry.AmountMinor
	}

	row := txRow{
		id:          id,
		txType:      entry.Type,
		at:          time.Now().UTC(),
		from:        entry.From,
		to:          entry.To,
		amountMinor: entry.AmountMinor,
	}
	s.log = append(s.log, row)

	return s.snapshot(row), nil
}

func (s *Store) RecentTransactions(ctx context.Context, accountNo uuid.UUID, limit int) ([]domain.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// uuid.Nil would match the absent side of CREDIT and DEBIT rows.
	if limit <= 0 || accountNo == uuid.Nil {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	// Newest first is a backwards scan: append order is commit order.
	out := make([]domain.Transaction, 0, limit)
	for i := len(s.log) - 1; i >= 0 && len(out) < limit; i-- {
		row := s.log[i]
		if row.from == accountNo || row.to == accountNo {
			out = append(out, s.snapshot(row))
		}
	}
	return out, nil
}

func (s *Store) snapshot(row txRow) domain.Transaction {
	t := domain.Transaction{
		TransactionID:   row.id,
		TransactionType: row.txType,
		Datetime:        row.at,
		Amount:          money.FromMinor(row.amountMinor, s.scale),
	}
	if row.from != uuid.Nil {
		from := row.from
		t.FromAccount = &from
	}
	if row.to != uuid.Nil {
		to := row.to
		t.ToAccount = &to
	}
	return t
}

var _ store.Store = (*Store)(nil)
