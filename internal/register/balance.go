// Package register manages cash drawer sessions: opening, the movement
// ledger, manual deposits and withdrawals, and the expected-vs-counted
// reconciliation at close. Balance math lives in pure functions over the
// session and its movements; persistence and locking live in the repository.
package register

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/registra-pos/registra-backend/pkg/db/models"
	"github.com/registra-pos/registra-backend/pkg/enums"
	"github.com/registra-pos/registra-backend/pkg/money"
)

// ExpectedCash is the drawer total the operator's count is compared against:
// the opening balance plus the signed sum of cash-affecting movements. The
// result is order independent.
func ExpectedCash(openingBalance decimal.Decimal, movements []models.CashMovement) decimal.Decimal {
	total := openingBalance
	for _, m := range movements {
		if !m.AffectsDrawer() {
			continue
		}
		total = total.Add(m.SignedAmount())
	}
	return total
}

// BalanceSinceOpening sums every movement since the session opened, cash
// affecting or not, on top of the opening balance.
func BalanceSinceOpening(openingBalance decimal.Decimal, movements []models.CashMovement) decimal.Decimal {
	total := openingBalance
	for _, m := range movements {
		total = total.Add(m.SignedAmount())
	}
	return total
}

// DayFlows splits the movements that occurred on the same calendar day as
// day into total inflow and total outflow. Both figures are non-negative.
func DayFlows(movements []models.CashMovement, day time.Time) (income, expenses decimal.Decimal) {
	income = decimal.Zero
	expenses = decimal.Zero
	for _, m := range movements {
		if !sameDay(m.OccurredAt, day) {
			continue
		}
		if m.Direction == enums.MovementDirectionOut {
			expenses = expenses.Add(m.Amount)
		} else {
			income = income.Add(m.Amount)
		}
	}
	return income, expenses
}

// Classify maps a counted-minus-expected difference to its drawer verdict.
// Differences within the tolerance count as balanced in either direction.
func Classify(difference decimal.Decimal) enums.BalanceClassification {
	switch {
	case difference.Abs().LessThan(money.BalancedTolerance):
		return enums.BalanceBalanced
	case difference.IsPositive():
		return enums.BalanceSurplus
	default:
		return enums.BalanceShortage
	}
}

// DeviationPercent expresses the absolute difference as a percentage of the
// expected balance, rounded to two places. A zero expected balance yields
// zero rather than a division error.
func DeviationPercent(difference, expected decimal.Decimal) decimal.Decimal {
	if expected.IsZero() {
		return decimal.Zero
	}
	return money.Round2(money.RatioAsPercent(difference.Abs().Div(expected.Abs())))
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.In(b.Location()).Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// dayBounds returns the half-open [start, end) range of t's calendar day.
func dayBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1)
}
