package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/registra-pos/registra-backend/api/responses"
	"github.com/registra-pos/registra-backend/api/validators"
	registersvc "github.com/registra-pos/registra-backend/internal/register"
	pkgerrors "github.com/registra-pos/registra-backend/pkg/errors"
	"github.com/registra-pos/registra-backend/pkg/logger"
)

// RegisterReport aggregates drawer state across a set of branches. Branches
// that fail to resolve are reported inline; the totals cover the rest.
func RegisterReport(svc registersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "register service unavailable"))
			return
		}

		branchIDs, err := validators.ParseQueryUUIDs(r, "branch_id", true)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		report := svc.BranchReport(r.Context(), branchIDs)
		if err := report.Err(); err != nil && logg != nil {
			logg.Warn(r.Context(), "register report resolved with partial failures")
		}

		responses.WriteSuccess(w, newReportResponse(report))
	}
}

type branchResultResponse struct {
	BranchID uuid.UUID        `json:"branch_id"`
	Balance  *balanceResponse `json:"balance,omitempty"`
	Error    string           `json:"error,omitempty"`
}

type reportTotalsResponse struct {
	Expected      decimal.Decimal `json:"expected"`
	SinceOpening  decimal.Decimal `json:"since_opening"`
	IncomeToday   decimal.Decimal `json:"income_today"`
	ExpensesToday decimal.Decimal `json:"expenses_today"`
}

type reportResponse struct {
	Branches []branchResultResponse `json:"branches"`
	Totals   reportTotalsResponse   `json:"totals"`
}

func newReportResponse(report *registersvc.Report) reportResponse {
	branches := make([]branchResultResponse, 0, len(report.Branches))
	for _, branch := range report.Branches {
		result := branchResultResponse{BranchID: branch.BranchID}
		if branch.Err != nil {
			result.Error = branch.Err.Error()
		}
		if branch.Balance != nil {
			balance := newBalanceResponse(branch.Balance)
			result.Balance = &balance
		}
		branches = append(branches, result)
	}
	return reportResponse{
		Branches: branches,
		Totals: reportTotalsResponse{
			Expected:      report.Totals.Expected,
			SinceOpening:  report.Totals.SinceOpening,
			IncomeToday:   report.Totals.IncomeToday,
			ExpensesToday: report.Totals.ExpensesToday,
		},
	}
}
