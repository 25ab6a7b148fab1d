// Package models holds the read models for the banking dataset. The data
// store owns the lifecycle of every record here; the chat core only reads.
package models

import (
	"time"

	"bank-chatbot/internal/money"
)

// Customer is the identity anchor for all queries.
type Customer struct {
	ID       int    `json:"customerId"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

// Transaction is a single money movement on one of a customer's accounts.
type Transaction struct {
	Timestamp   time.Time    `json:"timestamp"`
	Amount      money.Amount `json:"amount"`
	Type        string       `json:"type"`
	Description string       `json:"description"`
}

// LoanStatus is the loan summary surfaced in replies. Status is upper-cased
// at the handler, never here.
type LoanStatus struct {
	LoanID int          `json:"loanId"`
	Status string       `json:"status"`
	Amount money.Amount `json:"amount"`
}
