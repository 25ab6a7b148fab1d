// Package bankstore is the read-only query layer over the relational banking
// dataset. Every method maps to one query contract; the store never mutates
// the dataset.
package bankstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"bank-chatbot/internal/models"
	"bank-chatbot/internal/money"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// FindCustomerIDByName finds a customer by exact full name, case-insensitive
// and whitespace-trimmed. Full names are assumed unique; when duplicates
// exist anyway, the lowest customer ID wins.
func (s *Store) FindCustomerIDByName(ctx context.Context, fullName string) (int, bool, error) {
	const q = `
		SELECT customer_id
		FROM customers
		WHERE UPPER(TRIM(full_name)) = UPPER(TRIM($1))
		ORDER BY customer_id
		LIMIT 1`

	var id int
	err := s.db.QueryRowContext(ctx, q, fullName).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("find customer by name: %w", err)
	}
	return id, true, nil
}

// LatestBalance returns the balance of the customer's most recently created
// account.
func (s *Store) LatestBalance(ctx context.Context, customerID int) (money.Amount, bool, error) {
	const q = `
		SELECT balance
		FROM accounts
		WHERE customer_id = $1
		ORDER BY created_at DESC
		LIMIT 1`

	var balance decimal.Decimal
	err := s.db.QueryRowContext(ctx, q, customerID).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return money.Amount{}, false, nil
	}
	if err != nil {
		return money.Amount{}, false, fmt.Errorf("latest balance: %w", err)
	}
	return money.FromDecimal(balance), true, nil
}

// TransactionsByCustomerID returns the customer's n most recent transactions
// across all accounts, newest first.
func (s *Store) TransactionsByCustomerID(ctx context.Context, customerID, n int) ([]models.Transaction, error) {
	const q = `
		SELECT t.transaction_date, t.amount, t.type, t.description
		FROM transactions t
		JOIN accounts a ON a.account_id = t.account_id
		WHERE a.customer_id = $1
		ORDER BY t.transaction_date DESC
		LIMIT $2`

	rows, err := s.db.QueryContext(ctx, q, customerID, n)
	if err != nil {
		return nil, fmt.Errorf("transactions by customer: %w", err)
	}
	defer rows.Close()

	var txs []models.Transaction
	for rows.Next() {
		var (
			ts          sql.NullTime
			amount      decimal.Decimal
			txType      sql.NullString
			description sql.NullString
		)
		if err := rows.Scan(&ts, &amount, &txType, &description); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, models.Transaction{
			Timestamp:   ts.Time,
			Amount:      money.FromDecimal(amount),
			Type:        txType.String,
			Description: description.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("transactions by customer: %w", err)
	}
	return txs, nil
}

// LatestLoanStatus returns the loan with the most recent end date for the
// customer, ties broken by highest loan ID. Nil means no loans.
func (s *Store) LatestLoanStatus(ctx context.Context, customerID int) (*models.LoanStatus, error) {
	const q = `
		SELECT loan_id, status, amount
		FROM loans
		WHERE customer_id = $1
		ORDER BY end_date DESC, loan_id DESC
		LIMIT 1`

	var (
		loanID int
		status sql.NullString
		amount decimal.Decimal
	)
	err := s.db.QueryRowContext(ctx, q, customerID).Scan(&loanID, &status, &amount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest loan status: %w", err)
	}
	return &models.LoanStatus{
		LoanID: loanID,
		Status: status.String,
		Amount: money.FromDecimal(amount),
	}, nil
}

// LoansByCustomerID returns all loans for the customer, most recent end date
// first, ties broken by highest loan ID.
func (s *Store) LoansByCustomerID(ctx context.Context, customerID int) ([]models.LoanStatus, error) {
	const q = `
		SELECT loan_id, status, amount
		FROM loans
		WHERE customer_id = $1
		ORDER BY end_date DESC, loan_id DESC`

	rows, err := s.db.QueryContext(ctx, q, customerID)
	if err != nil {
		return nil, fmt.Errorf("loans by customer: %w", err)
	}
	defer rows.Close()

	var loans []models.LoanStatus
	for rows.Next() {
		var (
			loanID int
			status sql.NullString
			amount decimal.Decimal
		)
		if err := rows.Scan(&loanID, &status, &amount); err != nil {
			return nil, fmt.Errorf("scan loan: %w", err)
		}
		loans = append(loans, models.LoanStatus{
			LoanID: loanID,
			Status: status.String,
			Amount: money.FromDecimal(amount),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("loans by customer: %w", err)
	}
	return loans, nil
}

// ListCustomers returns the full customer directory ordered by ID.
func (s *Store) ListCustomers(ctx context.Context) ([]models.Customer, error) {
	const q = `
		SELECT customer_id, full_name, email
		FROM customers
		ORDER BY customer_id`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	var customers []models.Customer
	for rows.Next() {
		var c models.Customer
		if err := rows.Scan(&c.ID, &c.FullName, &c.Email); err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return customers, nil
}
