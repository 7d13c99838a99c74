package register

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
)

// BranchBalance is the drawer state of one branch. All figures are zero when
// the branch has no open session.
type BranchBalance struct {
	BranchID      uuid.UUID
	Open          bool
	SessionID     *uuid.UUID
	Expected      decimal.Decimal
	SinceOpening  decimal.Decimal
	IncomeToday   decimal.Decimal
	ExpensesToday decimal.Decimal
}

// BranchResult pairs a branch with either its balance or its fetch error.
type BranchResult struct {
	BranchID uuid.UUID
	Balance  *BranchBalance
	Err      error
}

// Report aggregates drawer state across branches. Totals cover only the
// branches that resolved; failed branches keep their error in Branches.
type Report struct {
	Branches []BranchResult
	Totals   BranchBalance
}

// Err combines every per-branch failure, or returns nil when all resolved.
func (r *Report) Err() error {
	var combined error
	for _, b := range r.Branches {
		if b.Err != nil {
			combined = multierr.Append(combined, b.Err)
		}
	}
	return combined
}

// BranchReport resolves each branch independently. One branch failing never
// blanks out the others; its error rides along in the report instead.
func (s *service) BranchReport(ctx context.Context, branchIDs []uuid.UUID) *Report {
	report := &Report{
		Branches: make([]BranchResult, 0, len(branchIDs)),
		Totals: BranchBalance{
			Expected:      decimal.Zero,
			SinceOpening:  decimal.Zero,
			IncomeToday:   decimal.Zero,
			ExpensesToday: decimal.Zero,
		},
	}

	for _, branchID := range branchIDs {
		balance, err := s.Snapshot(ctx, branchID)
		if err != nil {
			s.logg.Error(s.logg.WithBranchID(ctx, branchID.String()), "branch balance fetch failed", err)
			report.Branches = append(report.Branches, BranchResult{BranchID: branchID, Err: err})
			continue
		}
		report.Branches = append(report.Branches, BranchResult{BranchID: branchID, Balance: balance})
		report.Totals.Expected = report.Totals.Expected.Add(balance.Expected)
		report.Totals.SinceOpening = report.Totals.SinceOpening.Add(balance.SinceOpening)
		report.Totals.IncomeToday = report.Totals.IncomeToday.Add(balance.IncomeToday)
		report.Totals.ExpensesToday = report.Totals.ExpensesToday.Add(balance.ExpensesToday)
	}

	return report
}
