// Package chat implements the intent resolution and fallback-routing core:
// primary structured parse, heuristic fallback, slot resolution, domain
// handlers and reply normalization.
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	chaterrors "bank-chatbot/internal/common/errors"
	"bank-chatbot/internal/common/logger"
	"bank-chatbot/internal/common/metrics"
	"bank-chatbot/internal/models"
	"bank-chatbot/internal/money"
	"bank-chatbot/internal/nlp"
)

const (
	missingMessageReply = "Your request is missing the 'message' field."
	troubleReply        = "Sorry, I’m having trouble right now."
	helpReply           = "I didn't get that. Try: 'balance for customer 101' or 'last 5 transactions for John Doe'."
)

// Parser is the NLP collaborator contract.
type Parser interface {
	Parse(ctx context.Context, message string) (*nlp.ParseResult, error)
}

// BankStore is the data collaborator contract. All queries are read-only.
type BankStore interface {
	FindCustomerIDByName(ctx context.Context, fullName string) (int, bool, error)
	LatestBalance(ctx context.Context, customerID int) (money.Amount, bool, error)
	TransactionsByCustomerID(ctx context.Context, customerID, n int) ([]models.Transaction, error)
	LatestLoanStatus(ctx context.Context, customerID int) (*models.LoanStatus, error)
	LoansByCustomerID(ctx context.Context, customerID int) ([]models.LoanStatus, error)
}

type handlerFunc func(ctx context.Context, slots Slots) (Envelope, error)

// Service routes chat messages through parse, heuristic fallback, slot
// resolution and the domain handlers. Requests are stateless end-to-end.
type Service struct {
	parser   Parser
	store    BankStore
	logger   logger.Logger
	handlers map[Intent]handlerFunc
}

func NewService(parser Parser, store BankStore, log logger.Logger) *Service {
	s := &Service{
		parser: parser,
		store:  store,
		logger: log.WithFields(map[string]interface{}{"component": "chat"}),
	}
	s.handlers = map[Intent]handlerFunc{
		IntentBalanceByID:        s.handleBalance,
		IntentBalanceForCustomer: s.handleBalance,
		IntentAccountsByID:       s.handleAccounts,
		IntentLastNTransactions:  s.handleTransactions,
		IntentLoanStatus:         s.handleLoanStatus,
		IntentListLoans:          s.handleLoans,
	}
	return s
}

// Respond is the request boundary. It always produces a well-formed envelope:
// validation problems and collaborator failures are resolved to conversational
// replies here, never propagated as transport errors.
func (s *Service) Respond(ctx context.Context, message string) Envelope {
	msg := strings.TrimSpace(message)
	if msg == "" {
		verr := chaterrors.NewValidationError("message field is required")
		s.logger.Debug("request rejected", map[string]interface{}{
			"category": string(verr.Category),
		})
		return NewEnvelope(missingMessageReply, map[string]interface{}{
			"error": string(verr.Category),
		})
	}

	env, err := s.respond(ctx, msg)
	if err != nil {
		category := chaterrors.CategoryOf(err)
		s.logger.WithError(err).Error("chat request failed", map[string]interface{}{
			"category": string(category),
		})
		return NewEnvelope(troubleReply, map[string]interface{}{
			"error": string(category),
		})
	}
	return env
}

func (s *Service) respond(ctx context.Context, msg string) (Envelope, error) {
	parsed, err := s.parser.Parse(ctx, msg)
	if err != nil {
		metrics.CollaboratorFailures.WithLabelValues("nlp").Inc()
		return Envelope{}, chaterrors.NewCollaboratorFailure("nlp", err)
	}

	intent := CanonicalIntent(parsed.Intent)

	// The heuristic only runs as a fallback for an inconclusive parse; a
	// confident structured intent goes straight to its handler.
	if intent == IntentUnknown {
		if hIntent, hSlots, ok := MatchHeuristic(msg); ok {
			metrics.HeuristicMatches.WithLabelValues(string(hIntent)).Inc()
			s.logger.Debug("heuristic fallback matched", map[string]interface{}{
				"intent": string(hIntent),
			})
			return s.dispatch(ctx, hIntent, hSlots, parsed)
		}
	}

	return s.dispatch(ctx, intent, CoerceSlots(parsed.Slots), parsed)
}

func (s *Service) dispatch(ctx context.Context, intent Intent, slots Slots, parsed *nlp.ParseResult) (Envelope, error) {
	metrics.ChatRequestsTotal.WithLabelValues(string(intent)).Inc()
	start := time.Now()
	defer func() {
		metrics.ChatRequestDuration.WithLabelValues(string(intent)).Observe(time.Since(start).Seconds())
	}()

	handler, ok := s.handlers[intent]
	if !ok {
		// Default arm: surface the parser's suggested follow-up when it
		// offered one, otherwise the fixed help text.
		follow := strings.TrimSpace(parsed.FollowUp)
		if follow == "" {
			follow = helpReply
		}
		return NewEnvelope(follow, map[string]interface{}{
			"intent": string(IntentUnknown),
		}), nil
	}
	return handler(ctx, slots)
}

// resolveCustomer resolves a customer ID from the slots: a numeric
// customer_id is used directly (existence is the handler's concern), else a
// non-blank name is looked up in the store. No store call happens when both
// are absent.
func (s *Service) resolveCustomer(ctx context.Context, slots Slots) (int, bool, error) {
	if slots.CustomerID != nil {
		return *slots.CustomerID, true, nil
	}

	name := strings.TrimSpace(slots.Name)
	if name == "" {
		return 0, false, nil
	}

	id, found, err := s.store.FindCustomerIDByName(ctx, name)
	if err != nil {
		metrics.CollaboratorFailures.WithLabelValues("store").Inc()
		return 0, false, chaterrors.NewCollaboratorFailure("store", err)
	}
	return id, found, nil
}

func (s *Service) clarify(prompt string) Envelope {
	s.logger.Debug("customer unresolved", map[string]interface{}{
		"category": string(chaterrors.CategoryUnresolvedReference),
	})
	return NewEnvelope(prompt, nil)
}

func (s *Service) notFound(reply string, data map[string]interface{}) Envelope {
	s.logger.Debug("no records for customer", map[string]interface{}{
		"category": string(chaterrors.CategoryNotFound),
	})
	return NewEnvelope(reply, data)
}

func (s *Service) storeFailure(err error) error {
	metrics.CollaboratorFailures.WithLabelValues("store").Inc()
	return chaterrors.NewCollaboratorFailure("store", err)
}

// ----------------------------- Domain handlers -----------------------------

func (s *Service) handleBalance(ctx context.Context, slots Slots) (Envelope, error) {
	id, ok, err := s.resolveCustomer(ctx, slots)
	if err != nil {
		return Envelope{}, err
	}
	if !ok {
		return s.clarify("Whose balance? Provide a customer ID or name."), nil
	}

	amount, found, err := s.store.LatestBalance(ctx, id)
	if err != nil {
		return Envelope{}, s.storeFailure(err)
	}
	if !found {
		return s.notFound("No account found for that customer.", map[string]interface{}{
			"customerId": id,
		}), nil
	}

	return NewEnvelope(
		fmt.Sprintf("Balance for customer %d is $%s", id, amount),
		map[string]interface{}{
			"customerId": id,
			"amount":     amount,
		},
	), nil
}

func (s *Service) handleTransactions(ctx context.Context, slots Slots) (Envelope, error) {
	id, ok, err := s.resolveCustomer(ctx, slots)
	if err != nil {
		return Envelope{}, err
	}
	if !ok {
		return s.clarify("Whose transactions? Provide a customer ID or name."), nil
	}

	n := slots.TxCount()
	txs, err := s.store.TransactionsByCustomerID(ctx, id, n)
	if err != nil {
		return Envelope{}, s.storeFailure(err)
	}
	if len(txs) == 0 {
		return s.notFound("No transactions found for that customer.", map[string]interface{}{
			"customerId":   id,
			"transactions": []models.Transaction{},
		}), nil
	}

	return NewEnvelope(
		fmt.Sprintf("Here are the last %d transactions.", n),
		map[string]interface{}{
			"customerId":   id,
			"transactions": txs,
		},
	), nil
}

func (s *Service) handleLoanStatus(ctx context.Context, slots Slots) (Envelope, error) {
	id, ok, err := s.resolveCustomer(ctx, slots)
	if err != nil {
		return Envelope{}, err
	}
	if !ok {
		return s.clarify("Whose loan status? Provide a customer ID or name."), nil
	}

	loan, err := s.store.LatestLoanStatus(ctx, id)
	if err != nil {
		return Envelope{}, s.storeFailure(err)
	}
	if loan == nil {
		return s.notFound("No loans found for that customer.", map[string]interface{}{
			"customerId": id,
		}), nil
	}

	status := normalizeStatus(loan.Status)
	return NewEnvelope(
		fmt.Sprintf("Loan status is %s with outstanding $%s.", status, loan.Amount),
		map[string]interface{}{
			"customerId":  id,
			"status":      status,
			"outstanding": loan.Amount,
			"loanId":      loan.LoanID,
		},
	), nil
}

func (s *Service) handleLoans(ctx context.Context, slots Slots) (Envelope, error) {
	id, ok, err := s.resolveCustomer(ctx, slots)
	if err != nil {
		return Envelope{}, err
	}
	if !ok {
		return s.clarify("Whose loans? Provide a customer ID or name."), nil
	}

	loans, err := s.store.LoansByCustomerID(ctx, id)
	if err != nil {
		return Envelope{}, s.storeFailure(err)
	}

	normalized := make([]map[string]interface{}, 0, len(loans))
	for _, l := range loans {
		normalized = append(normalized, map[string]interface{}{
			"loanId": l.LoanID,
			"status": normalizeStatus(l.Status),
			"amount": l.Amount,
		})
	}

	if len(normalized) == 0 {
		return s.notFound("No loans found for that customer.", map[string]interface{}{
			"customerId": id,
			"loans":      []map[string]interface{}{},
		}), nil
	}

	return NewEnvelope("Here are the loans.", map[string]interface{}{
		"customerId": id,
		"loans":      normalized,
	}), nil
}

func (s *Service) handleAccounts(ctx context.Context, slots Slots) (Envelope, error) {
	id, ok, err := s.resolveCustomer(ctx, slots)
	if err != nil {
		return Envelope{}, err
	}
	if !ok {
		return s.clarify("Whose accounts? Provide a customer ID or name."), nil
	}

	// Full account enumeration is not implemented yet; the envelope is
	// still well-formed so the conversation keeps flowing.
	return NewEnvelope(
		fmt.Sprintf("Account listing for customer %d - feature coming soon!", id),
		map[string]interface{}{
			"customerId": id,
		},
	), nil
}

func normalizeStatus(status string) string {
	if strings.TrimSpace(status) == "" {
		return "UNKNOWN"
	}
	return strings.ToUpper(status)
}
