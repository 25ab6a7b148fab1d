package chat

import (
	"regexp"
	"strconv"
	"strings"
)

// The heuristic matcher recovers (intent, slots) from the raw text when the
// parse service comes back inconclusive. Rules are independent pattern/
// extractor pairs tried in a fixed order; the first rule that both matches
// and yields usable slots wins. A confident structured parse is never
// overridden by a heuristic.
//
// Covered phrasings:
//   - "balance for customer id 3" / "balance for id 3" / "balance for customer 3"
//   - "balance for <name>"
//   - "last 5 transactions for id 3"
//   - "loan status for id 3"
//   - "list loans for id 3"
var (
	reBalanceByID = regexp.MustCompile(
		`(?i)\bbalance\b.*?\b(?:customer\s*id|id|customer)\s*(\d+)\b`)
	reBalanceByName = regexp.MustCompile(
		`(?i)\bbalance\b.*?\bfor\s+([a-z][a-z '\-]{1,80})\s*$`)
	reTxLastN = regexp.MustCompile(
		`(?i)\b(?:last|recent)\s+(\d{1,2})\s+(?:tx|transactions)\b.*?\b(?:customer\s*id|id|customer)\s*(\d+)\b`)
	reLoanStatus = regexp.MustCompile(
		`(?i)\bloan\s*status\b.*?\b(?:customer\s*id|id|customer)\s*(\d+)\b`)
	reListLoans = regexp.MustCompile(
		`(?i)\b(?:list|show)\s+loans\b.*?\b(?:customer\s*id|id|customer)\s*(\d+)\b`)
)

type heuristicRule struct {
	intent  Intent
	pattern *regexp.Regexp
	extract func(groups []string) (Slots, bool)
}

var heuristicRules = []heuristicRule{
	{
		intent:  IntentBalanceByID,
		pattern: reBalanceByID,
		extract: func(groups []string) (Slots, bool) {
			id, ok := parseCapturedInt(groups[1])
			if !ok {
				return Slots{}, false
			}
			return Slots{CustomerID: &id}, true
		},
	},
	{
		intent:  IntentBalanceForCustomer,
		pattern: reBalanceByName,
		extract: func(groups []string) (Slots, bool) {
			name := strings.TrimSpace(groups[1])
			if name == "" {
				return Slots{}, false
			}
			return Slots{Name: name}, true
		},
	},
	{
		intent:  IntentLastNTransactions,
		pattern: reTxLastN,
		extract: func(groups []string) (Slots, bool) {
			id, ok := parseCapturedInt(groups[2])
			if !ok {
				return Slots{}, false
			}
			slots := Slots{CustomerID: &id}
			if n, ok := parseCapturedInt(groups[1]); ok {
				n = clampN(n)
				slots.N = &n
			}
			return slots, true
		},
	},
	{
		intent:  IntentLoanStatus,
		pattern: reLoanStatus,
		extract: func(groups []string) (Slots, bool) {
			id, ok := parseCapturedInt(groups[1])
			if !ok {
				return Slots{}, false
			}
			return Slots{CustomerID: &id}, true
		},
	},
	{
		intent:  IntentListLoans,
		pattern: reListLoans,
		extract: func(groups []string) (Slots, bool) {
			id, ok := parseCapturedInt(groups[1])
			if !ok {
				return Slots{}, false
			}
			return Slots{CustomerID: &id}, true
		},
	},
}

// MatchHeuristic applies the rule set to the raw message. It never errors;
// a malformed numeric capture only disqualifies that rule.
func MatchHeuristic(text string) (Intent, Slots, bool) {
	for _, rule := range heuristicRules {
		groups := rule.pattern.FindStringSubmatch(text)
		if groups == nil {
			continue
		}
		slots, ok := rule.extract(groups)
		if !ok {
			continue
		}
		return rule.intent, slots, true
	}
	return IntentUnknown, Slots{}, false
}

func parseCapturedInt(s string) (int, bool) {
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return i, true
}
