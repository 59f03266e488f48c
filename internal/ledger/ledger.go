// Package ledger translates the high-level balance operations into
// single LedgerEntry bundles and hands them to the Store. It is
// stateless and re-entrant, performs no I/O of its own, and never reads
// balances: the overdraft check belongs to the Store's atomic section,
// where its result is consistent with the applied write.
package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bank-core/internal/domain"
	"bank-core/internal/money"
	"bank-core/internal/store"
)

type Ledger struct {
	st    store.Store
	scale int32
}

func New(st store.Store, scale int32) *Ledger {
	if scale < 0 {
		scale = money.DefaultScale
	}
	return &Ledger{st: st, scale: scale}
}

// amountMinor validates and converts an operation amount. Zero,
// negative and over-precise amounts are all invalid; nothing is rounded.
func (l *Ledger) amountMinor(amount decimal.Decimal) (int64, error) {
	if amount.Sign() <= 0 {
		return 0, domain.ErrInvalidAmount
	}
	n, err := money.ToMinor(amount, l.scale)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrInvalidAmount, err)
	}
	return n, nil
}

func (l *Ledger) Deposit(ctx context.Context, accountNo uuid.UUID, amount decimal.Decimal) (domain.Transaction, error) {
	n, err := l.amountMinor(amount)
	if err != nil {
		return domain.Transaction{}, err
	}
	return l.st.ApplyLedgerEntry(ctx, domain.LedgerEntry{
		Type:        domain.Credit,
		To:          accountNo,
		AmountMinor: n,
	})
}

func (l *Ledger) Withdraw(ctx context.Context, accountNo uuid.UUID, amount decimal.Decimal) (domain.Transaction, error) {
	n, err := l.amountMinor(amount)
	if err != nil {
		return domain.Transaction{}, err
	}
	return l.st.ApplyLedgerEntry(ctx, domain.LedgerEntry{
		Type:        domain.Debit,
		From:        accountNo,
		AmountMinor: n,
	})
}

func (l *Ledger) Transfer(ctx context.Context, fromNo, toNo uuid.UUID, amount decimal.Decimal) (domain.Transaction, error) {
	n, err := l.amountMinor(amount)
	if err != nil {
		return domain.Transaction{}, err
	}
	return l.st.ApplyLedgerEntry(ctx, domain.LedgerEntry{
		Type:        domain.Transfer,
		From:        fromNo,
		To:          toNo,
		AmountMinor: n,
	})
}
