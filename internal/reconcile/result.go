package reconcile

import "github.com/shopspring/decimal"

// RecordError describes one record or group that could not be reconciled.
// Index is set for record-level problems found before grouping.
type RecordError struct {
	Index *int   `json:"index,omitempty"`
	User  string `json:"user"`
	Phone string `json:"phone"`
	Error string `json:"error"`
}

type NewUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type ProcessedPayment struct {
	TransactionID    string          `json:"transactionId"`
	Borrower         string          `json:"borrower"`
	Amount           decimal.Decimal `json:"amount"`
	PaymentID        string          `json:"paymentId"`
	PaymentReference string          `json:"paymentReference"`
	LoanID           string          `json:"loanId"`
}

// Result is returned even when Errors is non-empty. Processed counts
// payment rows written.
type Result struct {
	Processed         int                `json:"processed"`
	NewUsers          int                `json:"newUsers"`
	MatchedUsers      int                `json:"matchedUsers"`
	Errors            []RecordError      `json:"errors"`
	NewUsersList      []NewUser          `json:"newUsersList"`
	ProcessedPayments []ProcessedPayment `json:"processedPayments"`
}

func newResult() *Result {
	return &Result{
		Errors:            []RecordError{},
		NewUsersList:      []NewUser{},
		ProcessedPayments: []ProcessedPayment{},
	}
}
