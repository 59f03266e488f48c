// Package service is the public facade over the banking core: six
// operations, structural validation only, every state-dependent check
// delegated to the Store's atomic section.
package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bank-core/internal/domain"
	"bank-core/internal/ledger"
	"bank-core/internal/store"
)

// DefaultRecentLimit caps GetRecentTransactions when no limit is configured.
const DefaultRecentLimit = 10

type Service struct {
	st          store.Store
	ledger      *ledger.Ledger
	recentLimit int
}

func New(st store.Store, lg *ledger.Ledger, recentLimit int) *Service {
	if recentLimit <= 0 {
		recentLimit = DefaultRecentLimit
	}
	return &Service{st: st, ledger: lg, recentLimit: recentLimit}
}

// CreateAccount opens a zero-balance savings account for a new customer.
func (s *Service) CreateAccount(ctx context.Context, customerName string) (domain.Account, error) {
	customerName = strings.TrimSpace(customerName)
	if customerName == "" {
		return domain.Account{}, fmt.Errorf("%w: customer name", domain.ErrInvalidInput)
	}
	return s.st.InsertAccount(ctx, customerName, domain.Savings)
}

func (s *Service) ShowBalance(ctx context.Context, accountNo uuid.UUID) (decimal.Decimal, error) {
	acct, err := s.st.LoadAccount(ctx, accountNo)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return acct.Balance, nil
}

func (s *Service) Deposit(ctx context.Context, accountNo uuid.UUID, amount decimal.Decimal) (domain.Transaction, error) {
	return s.ledger.Deposit(ctx, accountNo, amount)
}

func (s *Service) Withdraw(ctx context.Context, accountNo uuid.UUID, amount decimal.Decimal) (domain.Transaction, error) {
	return s.ledger.Withdraw(ctx, accountNo, amount)
}

// FundTransfer moves amount between two distinct accounts. Whether the
// source can cover it is decided inside the Store; a pre-check here
// would only race.
func (s *Service) FundTransfer(ctx context.Context, fromNo, toNo uuid.UUID, amount decimal.Decimal) (domain.Transaction, error) {
	if fromNo == uuid.Nil || toNo == uuid.Nil {
		return domain.Transaction{}, fmt.Errorf("%w: both account numbers are required", domain.ErrInvalidTransfer)
	}
	if fromNo == toNo {
		return domain.Transaction{}, domain.ErrInvalidTransfer
	}
	return s.ledger.Transfer(ctx, fromNo, toNo, amount)
}

// GetRecentTransactions returns the newest transactions naming the
// account, up to the configured limit. An account with no history is
// ErrNoTransactions, which requires the existence check first:
// an unknown account is ErrNotFound, never an empty list.
func (s *Service) GetRecentTransactions(ctx context.Context, accountNo uuid.UUID) ([]domain.Transaction, error) {
	if _, err := s.st.LoadAccount(ctx, accountNo); err != nil {
		return nil, err
	}
	txs, err := s.st.RecentTransactions(ctx, accountNo, s.recentLimit)
	if err != nil {
		return nil, err
	}
	if len(txs) == 0 {
		return nil, domain.ErrNoTransactions
	}
	return txs, nil
}
