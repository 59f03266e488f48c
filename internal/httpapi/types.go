package httpapi

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Amounts cross the wire as decimal strings ("100.00"); shopspring
// decimal also accepts bare JSON numbers on the way in.

type createAccountRequest struct {
	CustomerName string `json:"customer_name"`
}

type amountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type transferRequest struct {
	FromAccountNo uuid.UUID       `json:"from_account_no"`
	ToAccountNo   uuid.UUID       `json:"to_account_no"`
	Amount        decimal.Decimal `json:"amount"`
}

type balanceResponse struct {
	AccountNo uuid.UUID       `json:"account_no"`
	Balance   decimal.Decimal `json:"balance"`
}
