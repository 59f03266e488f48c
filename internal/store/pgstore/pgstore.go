// Package pgstore is the PostgreSQL Store backend. Every ledger apply
// runs in one transaction that locks the touched account rows in a
// fixed order, checks the overdraft predicate against the locked
// balance, writes both sides and the transaction row, and appends an
// audit event — one commit boundary, no partial state on abort.
package pgstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gowebpki/jcs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bank-core/internal/domain"
	"bank-core/internal/money"
	"bank-core/internal/store"
)

type Store struct {
	db    *pgxpool.Pool
	scale int32
}

func New(db *pgxpool.Pool, scale int32) *Store {
	if scale < 0 {
		scale = money.DefaultScale
	}
	return &Store{db: db, scale: scale}
}

// storeErr wraps a persistence fault into the public taxonomy without
// leaking driver detail into the error kind.
func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", domain.ErrStore, op, err)
}

// jcsPayload returns both representations kept in event_log:
// payload_json (cast to jsonb in SQL) and the RFC 8785 canonical string.
func jcsPayload(v any) (payloadJSON json.RawMessage, payloadCanonical string, err error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, "", err
	}
	canon, err := jcs.Transform(raw)
	if err != nil {
		return nil, "", err
	}
	return json.RawMessage(raw), string(canon), nil
}

// insertEvent is the single entry point for event_log appends.
func insertEvent(ctx context.Context, tx pgx.Tx, eventType, aggregateType, aggregateID string, payload any) error {
	payloadJSON, payloadCanonical, err := jcsPayload(payload)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO event_log(
			event_id, event_type, aggregate_type, aggregate_id, payload_json, payload_canonical
		) VALUES($1,$2,$3,$4,$5::jsonb,$6)`,
		uuid.New(), eventType, aggregateType, aggregateID, payloadJSON, payloadCanonical,
	)
	return err
}

type accountOpenedPayload struct {
	AccountNo    string `json:"account_no"`
	CustomerID   string `json:"customer_id"`
	CustomerName string `json:"customer_name"`
	AccountType  string `json:"account_type"`
}

type transactionPostedPayload struct {
	TransactionID string `json:"transaction_id"`
	Type          string `json:"type"`
	From          string `json:"from,omitempty"`
	To            string `json:"to,omitempty"`
	AmountMinor   int64  `json:"amount_minor"`
}

func (s *Store) InsertAccount(ctx context.Context, customerName string, accType domain.AccountType) (domain.Account, error) {
	customerID := uuid.New()
	accountNo := uuid.New()

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.ReadCommitted,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return domain.Account{}, storeErr("begin insert account", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO customers(customer_id, customer_name) VALUES($1,$2)`,
		customerID, customerName,
	)
	if err != nil {
		return domain.Account{}, storeErr("insert customer", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO accounts(account_no, customer_id, account_type, balance_minor) VALUES($1,$2,$3,0)`,
		accountNo, customerID, string(accType),
	)
	if err != nil {
		return domain.Account{}, storeErr("insert account", err)
	}

	payload := accountOpenedPayload{
		AccountNo:    accountNo.String(),
		CustomerID:   customerID.String(),
		CustomerName: customerName,
		AccountType:  string(accType),
	}
	if err := insertEvent(ctx, tx, "ACCOUNT_OPENED", "ACCOUNT", accountNo.String(), payload); err != nil {
		return domain.Account{}, storeErr("event account opened", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Account{}, storeErr("commit insert account", err)
	}

	return domain.Account{
		AccountNo:   accountNo,
		Balance:     money.FromMinor(0, s.scale),
		AccountType: accType,
		CustomerID:  customerID,
	}, nil
}

func (s *Store) LoadAccount(ctx context.Context, accountNo uuid.UUID) (domain.Account, error) {
	var (
		customerID   uuid.UUID
		accType      string
		balanceMinor int64
	)
	err := s.db.QueryRow(ctx,
		`SELECT customer_id, account_type, balance_minor FROM accounts WHERE account_no=$1`,
		accountNo,
	).Scan(&customerID, &accType, &balanceMinor)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Account{}, domain.ErrNotFound
		}
		return domain.Account{}, storeErr("load account", err)
	}

	return domain.Account{
		AccountNo:   accountNo,
		Balance:     money.FromMinor(balanceMinor, s.scale),
		AccountType: domain.AccountType(accType),
		CustomerID:  customerID,
	}, nil
}

func (s *Store) ApplyLedgerEntry(ctx context.Context, entry domain.LedgerEntry) (domain.Transaction, error) {
	if entry.AmountMinor <= 0 {
		return domain.Transaction{}, domain.ErrInvalidAmount
	}
	if entry.Type == domain.Transfer && entry.From == entry.To {
		return domain.Transaction{}, domain.ErrInvalidTransfer
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.ReadCommitted,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return domain.Transaction{}, storeErr("begin apply", err)
	}
	defer tx.Rollback(ctx)

	// Row locks in fixed order; the balances read here are the ones the
	// overdraft predicate and the writes below see.
	balances := make(map[uuid.UUID]int64, 2)
	for _, id := range entry.LockOrder() {
		var bal int64
		err := tx.QueryRow(ctx,
			`SELECT balance_minor FROM accounts WHERE account_no=$1 FOR UPDATE`,
			id,
		).Scan(&bal)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.Transaction{}, domain.ErrNotFound
			}
			return domain.Transaction{}, storeErr("lock account", err)
		}
		balances[id] = bal
	}

	if entry.Type == domain.Debit || entry.Type == domain.Transfer {
		if balances[entry.From] < entry.AmountMinor {
			return domain.Transaction{}, domain.ErrInsufficientFunds
		}
		_, err = tx.Exec(ctx,
			`UPDATE accounts SET balance_minor = balance_minor - $2 WHERE account_no=$1`,
			entry.From, entry.AmountMinor,
		)
		if err != nil {
			return domain.Transaction{}, storeErr("debit account", err)
		}
	}
	if entry.Type == domain.Credit || entry.Type == domain.Transfer {
		_, err = tx.Exec(ctx,
			`UPDATE accounts SET balance_minor = balance_minor + $2 WHERE account_no=$1`,
			entry.To, entry.AmountMinor,
		)
		if err != nil {
			return domain.Transaction{}, storeErr("credit account", err)
		}
	}

	// UUIDv7 assigned inside the atomic section, so id order follows
	// commit order and the (datetime, id) sort stays deterministic under
	// coarse clocks.
	txID, err := uuid.NewV7()
	if err != nil {
		return domain.Transaction{}, storeErr("assign transaction id", err)
	}

	var fromCol, toCol uuid.NullUUID
	if entry.From != uuid.Nil {
		fromCol = uuid.NullUUID{UUID: entry.From, Valid: true}
	}
	if entry.To != uuid.Nil {
		toCol = uuid.NullUUID{UUID: entry.To, Valid: true}
	}

	var createdAt time.Time
	err = tx.QueryRow(ctx,
		`INSERT INTO transactions(transaction_id, transaction_type, from_account, to_account, amount_minor)
		 VALUES($1,$2,$3,$4,$5)
		 RETURNING created_at`,
		txID, string(entry.Type), fromCol, toCol, entry.AmountMinor,
	).Scan(&createdAt)
	if err != nil {
		return domain.Transaction{}, storeErr("insert transaction", err)
	}

	payload := transactionPostedPayload{
		TransactionID: txID.String(),
		Type:          string(entry.Type),
		AmountMinor:   entry.AmountMinor,
	}
	if fromCol.Valid {
		payload.From = entry.From.String()
	}
	if toCol.Valid {
		payload.To = entry.To.String()
	}
	if err := insertEvent(ctx, tx, "TRANSACTION_POSTED", "TRANSACTION", txID.String(), payload); err != nil {
		return domain.Transaction{}, storeErr("event transaction posted", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Transaction{}, storeErr("commit apply", err)
	}

	out := domain.Transaction{
		TransactionID:   txID,
		TransactionType: entry.Type,
		Datetime:        createdAt.UTC(),
		Amount:          money.FromMinor(entry.AmountMinor, s.scale),
	}
	if fromCol.Valid {
		from := entry.From
		out.FromAccount = &from
	}
	if toCol.Valid {
		to := entry.To
		out.ToAccount = &to
	}
	return out, nil
}

func (s *Store) RecentTransactions(ctx context.Context, accountNo uuid.UUID, limit int) ([]domain.Transaction, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.db.Query(ctx,
		`SELECT transaction_id, transaction_type, created_at, from_account, to_account, amount_minor
		   FROM transactions
		  WHERE from_account=$1 OR to_account=$1
		  ORDER BY created_at DESC, transaction_id DESC
		  LIMIT $2`,
		accountNo, limit,
	)
	if err != nil {
		return nil, storeErr("query transactions", err)
	}
	defer rows.Close()

	var out []domain.Transaction
	for rows.Next() {
		var (
			t           domain.Transaction
			txType      string
			from, to    uuid.NullUUID
			amountMinor int64
		)
		if err := rows.Scan(&t.TransactionID, &txType, &t.Datetime, &from, &to, &amountMinor); err != nil {
			return nil, storeErr("scan transaction", err)
		}
		t.TransactionType = domain.TransactionType(txType)
		t.Datetime = t.Datetime.UTC()
		t.Amount = money.FromMinor(amountMinor, s.scale)
		if from.Valid {
			f := from.UUID
			t.FromAccount = &f
		}
		if to.Valid {
			v := to.UUID
			t.ToAccount = &v
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate transactions", err)
	}
	return out, nil
}

var _ store.Store = (*Store)(nil)
