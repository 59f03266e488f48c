package memstore

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"bank-core/internal/domain"
)

func newAccount(t *testing.T, s *Store) domain.Account {
	t.Helper()
	acct, err := s.InsertAccount(context.Background(), "Test Customer", domain.Savings)
	if err != nil {
		t.Fatalf("InsertAccount: %v", err)
	}
	return acct
}

func credit(t *testing.T, s *Store, to uuid.UUID, minor int64) domain.Transaction {
	t.Helper()
	txn, err := s.ApplyLedgerEntry(context.Background(), domain.LedgerEntry{
		Type:        domain.Credit,
		To:          to,
		AmountMinor: minor,
	})
	if err != nil {
		t.Fatalf("credit %d: %v", minor, err)
	}
	return txn
}

func balanceMinor(t *testing.T, s *Store, accountNo uuid.UUID) int64 {
	t.Helper()
	acct, err := s.LoadAccount(context.Background(), accountNo)
	if err != nil {
		t.Fatalf("LoadAccount: %v", err)
	}
	n := acct.Balance.Shift(2).IntPart()
	return n
}

func TestInsertAndLoad(t *testing.T) {
	s := New(2)
	acct := newAccount(t, s)

	if acct.AccountNo == uuid.Nil || acct.CustomerID == uuid.Nil {
		t.Fatalf("ids not assigned: %+v", acct)
	}
	if acct.AccountType != domain.Savings {
		t.Fatalf("account type = %s", acct.AccountType)
	}
	if !acct.Balance.IsZero() {
		t.Fatalf("opening balance = %s, want 0", acct.Balance)
	}

	loaded, err := s.LoadAccount(context.Background(), acct.AccountNo)
	if err != nil {
		t.Fatalf("LoadAccount: %v", err)
	}
	if loaded.CustomerID != acct.CustomerID {
		t.Fatalf("customer id mismatch: %s vs %s", loaded.CustomerID, acct.CustomerID)
	}

	if _, err := s.LoadAccount(context.Background(), uuid.New()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unknown account: err = %v, want ErrNotFound", err)
	}
}

func TestApplyRejectsUnknownAccounts(t *testing.T) {
	s := New(2)
	acct := newAccount(t, s)
	ghost := uuid.New()

	cases := []struct {
		name  string
		entry domain.LedgerEntry
	}{
		{"credit unknown", domain.LedgerEntry{Type: domain.Credit, To: ghost, AmountMinor: 100}},
		{"debit unknown", domain.LedgerEntry{Type: domain.Debit, From: ghost, AmountMinor: 100}},
		{"transfer from unknown", domain.LedgerEntry{Type: domain.Transfer, From: ghost, To: acct.AccountNo, AmountMinor: 100}},
		{"transfer to unknown", domain.LedgerEntry{Type: domain.Transfer, From: acct.AccountNo, To: ghost, AmountMinor: 100}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := s.ApplyLedgerEntry(context.Background(), tc.entry); !errors.Is(err, domain.ErrNotFound) {
				t.Fatalf("err = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestFailedEntryLeavesNoTrace(t *testing.T) {
	s := New(2)
	acct := newAccount(t, s)
	credit(t, s, acct.AccountNo, 10000)

	_, err := s.ApplyLedgerEntry(context.Background(), domain.LedgerEntry{
		Type:        domain.Debit,
		From:        acct.AccountNo,
		AmountMinor: 15000,
	})
	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("overdraft err = %v, want ErrInsufficientFunds", err)
	}

	if got := balanceMinor(t, s, acct.AccountNo); got != 10000 {
		t.Fatalf("balance changed on abort: %d", got)
	}
	txs, err := s.RecentTransactions(context.Background(), acct.AccountNo, 10)
	if err != nil {
		t.Fatalf("RecentTransactions: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("aborted entry left a transaction row: %d rows", len(txs))
	}
}

func TestTransferMovesBothSidesTogether(t *testing.T) {
	s := New(2)
	a := newAccount(t, s)
	b := newAccount(t, s)
	credit(t, s, a.AccountNo, 6000)

	txn, err := s.ApplyLedgerEntry(context.Background(), domain.LedgerEntry{
		Type:        domain.Transfer,
		From:        a.AccountNo,
		To:          b.AccountNo,
		AmountMinor: 2500,
	})
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if txn.TransactionType != domain.Transfer {
		t.Fatalf("type = %s", txn.TransactionType)
	}
	if txn.FromAccount == nil || *txn.FromAccount != a.AccountNo {
		t.Fatalf("from = %v", txn.FromAccount)
	}
	if txn.ToAccount == nil || *txn.ToAccount != b.AccountNo {
		t.Fatalf("to = %v", txn.ToAccount)
	}

	// Conservation: what left A arrived at B.
	if got := balanceMinor(t, s, a.AccountNo); got != 3500 {
		t.Fatalf("A balance = %d, want 3500", got)
	}
	if got := balanceMinor(t, s, b.AccountNo); got != 2500 {
		t.Fatalf("B balance = %d, want 2500", got)
	}

	// One TRANSFER row visible from both sides.
	for _, accountNo := range []uuid.UUID{a.AccountNo, b.AccountNo} {
		txs, err := s.RecentTransactions(context.Background(), accountNo, 10)
		if err != nil {
			t.Fatalf("RecentTransactions: %v", err)
		}
		if txs[0].TransactionID != txn.TransactionID {
			t.Fatalf("newest transaction for %s is %s, want %s", accountNo, txs[0].TransactionID, txn.TransactionID)
		}
	}
}

func TestRecentTransactionsOrderAndLimit(t *testing.T) {
	s := New(2)
	acct := newAccount(t, s)

	var ids []uuid.UUID
	for i := 0; i < 12; i++ {
		ids = append(ids, credit(t, s, acct.AccountNo, 100).TransactionID)
	}

	txs, err := s.RecentTransactions(context.Background(), acct.AccountNo, 10)
	if err != nil {
		t.Fatalf("RecentTransactions: %v", err)
	}
	if len(txs) != 10 {
		t.Fatalf("got %d rows, want 10", len(txs))
	}

	for i, txn := range txs {
		want := ids[len(ids)-1-i]
		if txn.TransactionID != want {
			t.Fatalf("row %d = %s, want %s", i, txn.TransactionID, want)
		}
		if i > 0 && txn.Datetime.After(txs[i-1].Datetime) {
			t.Fatalf("datetime not non-increasing at row %d", i)
		}
	}
}

func TestConcurrentOverdraftSafety(t *testing.T) {
	s := New(2)
	acct := newAccount(t, s)
	credit(t, s, acct.AccountNo, 10000)

	const n = 10
	var wg sync.WaitGroup
	wg.Add(n)

	errs := make([]error, n)
	for i := 0; i < n; i++ {
		i := i
		go func() {
			defer wg.Done()
			_, errs[i] = s.ApplyLedgerEntry(context.Background(), domain.LedgerEntry{
				Type:        domain.Debit,
				From:        acct.AccountNo,
				AmountMinor: 10000,
			})
		}()
	}
	wg.Wait()

	var committed, rejected int
	for _, err := range errs {
		switch {
		case err == nil:
			committed++
		case errors.Is(err, domain.ErrInsufficientFunds):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if committed != 1 || rejected != n-1 {
		t.Fatalf("committed=%d rejected=%d, want 1 and %d", committed, rejected, n-1)
	}
	if got := balanceMinor(t, s, acct.AccountNo); got != 0 {
		t.Fatalf("final balance = %d, want 0", got)
	}
}

func TestCancelledContextLeavesNoTrace(t *testing.T) {
	s := New(2)
	acct := newAccount(t, s)
	credit(t, s, acct.AccountNo, 10000)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.ApplyLedgerEntry(ctx, domain.LedgerEntry{
		Type:        domain.Debit,
		From:        acct.AccountNo,
		AmountMinor: 100,
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if got := balanceMinor(t, s, acct.AccountNo); got != 10000 {
		t.Fatalf("balance changed on cancelled apply: %d", got)
	}
}

func TestSnapshotsAreCopies(t *testing.T) {
	s := New(2)
	acct := newAccount(t, s)
	credit(t, s, acct.AccountNo, 5000)

	snap, err := s.LoadAccount(context.Background(), acct.AccountNo)
	if err != nil {
		t.Fatalf("LoadAccount: %v", err)
	}
	snap.Balance = snap.Balance.Add(snap.Balance)

	if got := balanceMinor(t, s, acct.AccountNo); got != 5000 {
		t.Fatalf("mutating a snapshot changed stored balance: %d", got)
	}
}
