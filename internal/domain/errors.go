package domain

import "errors"

// Error taxonomy surfaced to callers. Operations either succeed with a
// snapshot or fail with exactly one of these kinds; there is no partial
// success. Wrap with fmt.Errorf("%w: ...") to add detail, match with
// errors.Is at boundaries.
var (
	// ErrInvalidInput covers a missing or empty required string.
	ErrInvalidInput = errors.New("required input is missing or empty")

	// ErrInvalidAmount covers an absent, zero or negative amount, and an
	// amount carrying more fractional digits than the monetary scale.
	ErrInvalidAmount = errors.New("amount cannot be negative or zero")

	// ErrInvalidTransfer covers a transfer to the same account number or
	// a transfer missing either endpoint.
	ErrInvalidTransfer = errors.New("cannot transfer funds to the same account number")

	// ErrNotFound means the referenced account does not exist.
	ErrNotFound = errors.New("account not found")

	// ErrInsufficientFunds means the source balance was below the amount
	// at commit time. Only a Store may raise it.
	ErrInsufficientFunds = errors.New("balance is insufficient")

	// ErrNoTransactions means the account exists but has no history.
	ErrNoTransactions = errors.New("no transactions found")

	// ErrStore covers any other persistence fault, transient or permanent.
	ErrStore = errors.New("transaction failed")
)
