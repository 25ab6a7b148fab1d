package chat

import "strings"

// Intent is the categorical action a user message requests. Values mirror
// the canonical intent names emitted by the parse service.
type Intent string

const (
	IntentBalanceByID        Intent = "GET_BALANCE_BY_ID"
	IntentBalanceForCustomer Intent = "GET_BALANCE_FOR_CUSTOMER"
	IntentAccountsByID       Intent = "GET_ACCOUNTS_BY_ID"
	IntentLastNTransactions  Intent = "LAST_N_TRANSACTIONS"
	IntentLoanStatus         Intent = "LOAN_STATUS"
	IntentListLoans          Intent = "LIST_LOANS"
	IntentUnknown            Intent = "UNKNOWN"
)

// CanonicalIntent maps a raw intent string from the parse service onto the
// known enumeration. Anything unrecognized, including future intents from a
// newer parser, collapses to IntentUnknown so the default arm handles it.
func CanonicalIntent(raw string) Intent {
	switch Intent(strings.ToUpper(strings.TrimSpace(raw))) {
	case IntentBalanceByID:
		return IntentBalanceByID
	case IntentBalanceForCustomer:
		return IntentBalanceForCustomer
	case IntentAccountsByID:
		return IntentAccountsByID
	case IntentLastNTransactions:
		return IntentLastNTransactions
	case IntentLoanStatus:
		return IntentLoanStatus
	case IntentListLoans:
		return IntentListLoans
	default:
		return IntentUnknown
	}
}
