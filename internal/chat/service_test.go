package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bank-chatbot/internal/common/logger"
	"bank-chatbot/internal/models"
	"bank-chatbot/internal/money"
	"bank-chatbot/internal/nlp"
)

// ==========================
// Test Helper Functions
// ==========================

type fakeParser struct {
	result *nlp.ParseResult
	err    error
}

func (f *fakeParser) Parse(_ context.Context, _ string) (*nlp.ParseResult, error) {
	return f.result, f.err
}

// fakeStore records which queries ran so tests can assert that unresolved
// references never hit the store.
type fakeStore struct {
	calls []string

	customerID    int
	customerFound bool
	balance       money.Amount
	balanceFound  bool
	transactions  []models.Transaction
	loan          *models.LoanStatus
	loans         []models.LoanStatus
	err           error
}

func (f *fakeStore) FindCustomerIDByName(_ context.Context, _ string) (int, bool, error) {
	f.calls = append(f.calls, "FindCustomerIDByName")
	return f.customerID, f.customerFound, f.err
}

func (f *fakeStore) LatestBalance(_ context.Context, _ int) (money.Amount, bool, error) {
	f.calls = append(f.calls, "LatestBalance")
	return f.balance, f.balanceFound, f.err
}

func (f *fakeStore) TransactionsByCustomerID(_ context.Context, _, _ int) ([]models.Transaction, error) {
	f.calls = append(f.calls, "TransactionsByCustomerID")
	return f.transactions, f.err
}

func (f *fakeStore) LatestLoanStatus(_ context.Context, _ int) (*models.LoanStatus, error) {
	f.calls = append(f.calls, "LatestLoanStatus")
	return f.loan, f.err
}

func (f *fakeStore) LoansByCustomerID(_ context.Context, _ int) ([]models.LoanStatus, error) {
	f.calls = append(f.calls, "LoansByCustomerID")
	return f.loans, f.err
}

func parsed(intent string, slots map[string]interface{}) *nlp.ParseResult {
	return &nlp.ParseResult{Intent: intent, Confidence: 0.9, Slots: slots}
}

func mustAmount(t *testing.T, s string) money.Amount {
	t.Helper()
	a, err := money.Parse(s)
	require.NoError(t, err)
	return a
}

func newTestService(parser Parser, store BankStore) *Service {
	return NewService(parser, store, logger.NewNoOpLogger())
}

// ==========================
// Request Boundary Tests
// ==========================

func TestRespond_BlankMessage(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(&fakeParser{}, store)

	for _, msg := range []string{"", "   ", "\n\t"} {
		env := svc.Respond(context.Background(), msg)
		assert.Equal(t, "Your request is missing the 'message' field.", env.Reply)
		assert.Equal(t, "ValidationError", env.Data["error"])
	}
	assert.Empty(t, store.calls, "validation failures must not touch the store")
}

func TestRespond_ParserFailure(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(&fakeParser{err: errors.New("NLP_API_TIMEOUT")}, store)

	env := svc.Respond(context.Background(), "balance for customer id 42")

	assert.Equal(t, "Sorry, I’m having trouble right now.", env.Reply)
	assert.Equal(t, "CollaboratorFailure", env.Data["error"])
	assert.Empty(t, store.calls, "a parse failure resolves to a reply, not to a heuristic query")
}

func TestRespond_StoreFailure(t *testing.T) {
	store := &fakeStore{err: errors.New("connection refused")}
	svc := newTestService(&fakeParser{result: parsed("GET_BALANCE_BY_ID", map[string]interface{}{"customer_id": float64(42)})}, store)

	env := svc.Respond(context.Background(), "balance for customer id 42")

	assert.Equal(t, "Sorry, I’m having trouble right now.", env.Reply)
	assert.Equal(t, "CollaboratorFailure", env.Data["error"])
}

// ==========================
// Routing Tests
// ==========================

func TestRespond_UnknownIntent_FollowUp(t *testing.T) {
	svc := newTestService(&fakeParser{result: &nlp.ParseResult{
		Intent:   "UNKNOWN",
		FollowUp: "Did you mean your checking account?",
	}}, &fakeStore{})

	env := svc.Respond(context.Background(), "something about my money")

	assert.Equal(t, "Did you mean your checking account?", env.Reply)
	assert.Equal(t, "UNKNOWN", env.Data["intent"])
}

func TestRespond_UnknownIntent_HelpText(t *testing.T) {
	svc := newTestService(&fakeParser{result: parsed("UNKNOWN", nil)}, &fakeStore{})

	env := svc.Respond(context.Background(), "tell me a joke")

	assert.Equal(t, "I didn't get that. Try: 'balance for customer 101' or 'last 5 transactions for John Doe'.", env.Reply)
	assert.Equal(t, "UNKNOWN", env.Data["intent"])
}

func TestRespond_UnrecognizedIntentNameCollapsesToUnknown(t *testing.T) {
	svc := newTestService(&fakeParser{result: parsed("TRANSFER_FUNDS", nil)}, &fakeStore{})

	env := svc.Respond(context.Background(), "transfer money somewhere")

	assert.Equal(t, "UNKNOWN", env.Data["intent"])
}

func TestRespond_HeuristicFallback(t *testing.T) {
	store := &fakeStore{balance: mustAmount(t, "2500"), balanceFound: true}
	svc := newTestService(&fakeParser{result: parsed("UNKNOWN", nil)}, store)

	env := svc.Respond(context.Background(), "balance for customer id 42")

	assert.Equal(t, "Balance for customer 42 is $2500.00", env.Reply)
	assert.Equal(t, []string{"LatestBalance"}, store.calls)
}

func TestRespond_ConfidentParseNotOverriddenByHeuristic(t *testing.T) {
	// The text looks like a balance question, but the parser was confident
	// it is a loan status question. The parse wins.
	store := &fakeStore{loan: &models.LoanStatus{LoanID: 3, Status: "active", Amount: mustAmount(t, "900")}}
	svc := newTestService(&fakeParser{result: parsed("LOAN_STATUS", map[string]interface{}{"customer_id": float64(42)})}, store)

	env := svc.Respond(context.Background(), "balance for customer id 42")

	assert.Equal(t, "Loan status is ACTIVE with outstanding $900.00.", env.Reply)
	assert.Equal(t, []string{"LatestLoanStatus"}, store.calls)
}

// ==========================
// Handler Tests
// ==========================

func TestHandleBalance(t *testing.T) {
	tests := []struct {
		name      string
		slots     map[string]interface{}
		store     *fakeStore
		wantReply string
		wantCalls []string
		checkData func(t *testing.T, data map[string]interface{})
	}{
		{
			name:      "found by id",
			slots:     map[string]interface{}{"customer_id": float64(101)},
			store:     &fakeStore{balance: mustAmount(t, "2500.005"), balanceFound: true},
			wantReply: "Balance for customer 101 is $2500.01",
			wantCalls: []string{"LatestBalance"},
			checkData: func(t *testing.T, data map[string]interface{}) {
				assert.Equal(t, 101, data["customerId"])
			},
		},
		{
			name:      "found by name",
			slots:     map[string]interface{}{"name": "John Doe"},
			store:     &fakeStore{customerID: 7, customerFound: true, balance: mustAmount(t, "10"), balanceFound: true},
			wantReply: "Balance for customer 7 is $10.00",
			wantCalls: []string{"FindCustomerIDByName", "LatestBalance"},
		},
		{
			name:      "id takes precedence over name",
			slots:     map[string]interface{}{"customer_id": float64(5), "name": "John Doe"},
			store:     &fakeStore{balance: mustAmount(t, "1"), balanceFound: true},
			wantReply: "Balance for customer 5 is $1.00",
			wantCalls: []string{"LatestBalance"},
		},
		{
			name:      "no customer reference",
			slots:     nil,
			store:     &fakeStore{},
			wantReply: "Whose balance? Provide a customer ID or name.",
			wantCalls: nil,
		},
		{
			name:      "name not found",
			slots:     map[string]interface{}{"name": "Nobody Here"},
			store:     &fakeStore{customerFound: false},
			wantReply: "Whose balance? Provide a customer ID or name.",
			wantCalls: []string{"FindCustomerIDByName"},
		},
		{
			name:      "no account for customer",
			slots:     map[string]interface{}{"customer_id": float64(42)},
			store:     &fakeStore{balanceFound: false},
			wantReply: "No account found for that customer.",
			wantCalls: []string{"LatestBalance"},
			checkData: func(t *testing.T, data map[string]interface{}) {
				assert.Equal(t, 42, data["customerId"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(&fakeParser{result: parsed("GET_BALANCE_BY_ID", tt.slots)}, tt.store)

			env := svc.Respond(context.Background(), "balance question")

			assert.Equal(t, tt.wantReply, env.Reply)
			assert.Equal(t, tt.wantCalls, tt.store.calls)
			if tt.checkData != nil {
				tt.checkData(t, env.Data)
			}
		})
	}
}

func TestHandleTransactions(t *testing.T) {
	txs := []models.Transaction{
		{Timestamp: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), Amount: mustAmount(t, "-42.50"), Type: "DEBIT", Description: "groceries"},
		{Timestamp: time.Date(2024, 4, 28, 9, 30, 0, 0, time.UTC), Amount: mustAmount(t, "1000"), Type: "CREDIT", Description: "salary"},
	}

	t.Run("found", func(t *testing.T) {
		store := &fakeStore{transactions: txs}
		svc := newTestService(&fakeParser{result: parsed("LAST_N_TRANSACTIONS", map[string]interface{}{
			"customer_id": float64(7),
			"n":           float64(2),
		})}, store)

		env := svc.Respond(context.Background(), "last 2 transactions for customer 7")

		assert.Equal(t, "Here are the last 2 transactions.", env.Reply)
		assert.Equal(t, txs, env.Data["transactions"])
	})

	t.Run("default count", func(t *testing.T) {
		store := &fakeStore{transactions: txs}
		svc := newTestService(&fakeParser{result: parsed("LAST_N_TRANSACTIONS", map[string]interface{}{
			"customer_id": float64(7),
		})}, store)

		env := svc.Respond(context.Background(), "transactions for customer 7")

		assert.Equal(t, "Here are the last 5 transactions.", env.Reply)
	})

	t.Run("none found", func(t *testing.T) {
		store := &fakeStore{}
		svc := newTestService(&fakeParser{result: parsed("LAST_N_TRANSACTIONS", map[string]interface{}{
			"customer_id": float64(7),
		})}, store)

		env := svc.Respond(context.Background(), "transactions for customer 7")

		assert.Equal(t, "No transactions found for that customer.", env.Reply)
		// The payload carries an empty list, not null.
		assert.Equal(t, []models.Transaction{}, env.Data["transactions"])
	})

	t.Run("unresolved customer", func(t *testing.T) {
		store := &fakeStore{}
		svc := newTestService(&fakeParser{result: parsed("LAST_N_TRANSACTIONS", nil)}, store)

		env := svc.Respond(context.Background(), "show my transactions")

		assert.Equal(t, "Whose transactions? Provide a customer ID or name.", env.Reply)
		assert.Empty(t, store.calls)
	})
}

func TestHandleLoanStatus(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		store := &fakeStore{loan: &models.LoanStatus{LoanID: 12, Status: "active", Amount: mustAmount(t, "1200.505")}}
		svc := newTestService(&fakeParser{result: parsed("LOAN_STATUS", map[string]interface{}{"customer_id": float64(9)})}, store)

		env := svc.Respond(context.Background(), "loan status for id 9")

		assert.Equal(t, "Loan status is ACTIVE with outstanding $1200.51.", env.Reply)
		assert.Equal(t, "ACTIVE", env.Data["status"])
		assert.Equal(t, 12, env.Data["loanId"])
		assert.Equal(t, 9, env.Data["customerId"])
	})

	t.Run("blank status normalized", func(t *testing.T) {
		store := &fakeStore{loan: &models.LoanStatus{LoanID: 12, Status: "  ", Amount: mustAmount(t, "100")}}
		svc := newTestService(&fakeParser{result: parsed("LOAN_STATUS", map[string]interface{}{"customer_id": float64(9)})}, store)

		env := svc.Respond(context.Background(), "loan status for id 9")

		assert.Equal(t, "Loan status is UNKNOWN with outstanding $100.00.", env.Reply)
	})

	t.Run("no loans", func(t *testing.T) {
		store := &fakeStore{}
		svc := newTestService(&fakeParser{result: parsed("LOAN_STATUS", map[string]interface{}{"customer_id": float64(9)})}, store)

		env := svc.Respond(context.Background(), "loan status for id 9")

		assert.Equal(t, "No loans found for that customer.", env.Reply)
	})

	t.Run("unresolved customer", func(t *testing.T) {
		svc := newTestService(&fakeParser{result: parsed("LOAN_STATUS", nil)}, &fakeStore{})

		env := svc.Respond(context.Background(), "loan status please")

		assert.Equal(t, "Whose loan status? Provide a customer ID or name.", env.Reply)
	})
}

func TestHandleLoans(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		store := &fakeStore{loans: []models.LoanStatus{
			{LoanID: 1, Status: "active", Amount: mustAmount(t, "500")},
			{LoanID: 2, Status: "closed", Amount: mustAmount(t, "0")},
		}}
		svc := newTestService(&fakeParser{result: parsed("LIST_LOANS", map[string]interface{}{"customer_id": float64(4)})}, store)

		env := svc.Respond(context.Background(), "list loans for customer 4")

		assert.Equal(t, "Here are the loans.", env.Reply)
		loans, ok := env.Data["loans"].([]map[string]interface{})
		require.True(t, ok)
		require.Len(t, loans, 2)
		assert.Equal(t, "ACTIVE", loans[0]["status"])
		assert.Equal(t, "CLOSED", loans[1]["status"])
	})

	t.Run("none found", func(t *testing.T) {
		store := &fakeStore{}
		svc := newTestService(&fakeParser{result: parsed("LIST_LOANS", map[string]interface{}{"customer_id": float64(4)})}, store)

		env := svc.Respond(context.Background(), "list loans for customer 4")

		assert.Equal(t, "No loans found for that customer.", env.Reply)
	})
}

func TestHandleAccounts_Stub(t *testing.T) {
	svc := newTestService(&fakeParser{result: parsed("GET_ACCOUNTS_BY_ID", map[string]interface{}{"customer_id": float64(3)})}, &fakeStore{})

	env := svc.Respond(context.Background(), "accounts for id 3")

	assert.Equal(t, "Account listing for customer 3 - feature coming soon!", env.Reply)
	assert.Equal(t, 3, env.Data["customerId"])
}
