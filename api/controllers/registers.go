package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/registra-pos/registra-backend/api/responses"
	"github.com/registra-pos/registra-backend/api/validators"
	registersvc "github.com/registra-pos/registra-backend/internal/register"
	"github.com/registra-pos/registra-backend/pkg/db/models"
	"github.com/registra-pos/registra-backend/pkg/enums"
	pkgerrors "github.com/registra-pos/registra-backend/pkg/errors"
	"github.com/registra-pos/registra-backend/pkg/logger"
)

// RegisterOpen starts a drawer session for a branch.
func RegisterOpen(svc registersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "register service unavailable"))
			return
		}

		var payload openRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.Open(r.Context(), payload.BranchID, payload.OpeningBalance)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newSessionResponse(session))
	}
}

// RegisterDeposit records a manual cash-in movement.
func RegisterDeposit(svc registersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return manualMovement(svc, logg, func(r *http.Request, svc registersvc.Service, p movementRequest) (*models.CashMovement, error) {
		return svc.Deposit(r.Context(), p.BranchID, p.Amount, p.Description)
	})
}

// RegisterWithdraw records a manual cash-out movement.
func RegisterWithdraw(svc registersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return manualMovement(svc, logg, func(r *http.Request, svc registersvc.Service, p movementRequest) (*models.CashMovement, error) {
		return svc.Withdraw(r.Context(), p.BranchID, p.Amount, p.Description)
	})
}

func manualMovement(
	svc registersvc.Service,
	logg *logger.Logger,
	apply func(*http.Request, registersvc.Service, movementRequest) (*models.CashMovement, error),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "register service unavailable"))
			return
		}

		var payload movementRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		movement, err := apply(r, svc, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newMovementResponse(movement))
	}
}

// RegisterClose reconciles and closes a session. A session_id closes that
// exact session; without one the branch's current open session is closed.
func RegisterClose(svc registersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "register service unavailable"))
			return
		}

		var payload closeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var (
			result *registersvc.CloseResult
			err    error
		)
		switch {
		case payload.SessionID != nil:
			result, err = svc.Close(r.Context(), *payload.SessionID, payload.CountedAmount)
		case payload.BranchID != nil:
			result, err = svc.CloseCurrent(r.Context(), *payload.BranchID, payload.CountedAmount)
		default:
			err = pkgerrors.New(pkgerrors.CodeValidation, "either session_id or branch_id is required")
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, closeResponse{
			Session:        newSessionResponse(result.Session),
			Expected:       result.Expected,
			Counted:        payload.CountedAmount,
			Difference:     result.Difference,
			DifferencePct:  result.DifferencePct,
			Classification: result.Classification,
		})
	}
}

// RegisterSnapshot reports the live drawer state for one branch.
func RegisterSnapshot(svc registersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "register service unavailable"))
			return
		}

		branchID, err := validators.ParsePathUUID(r, "branchId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		balance, err := svc.Snapshot(r.Context(), branchID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newBalanceResponse(balance))
	}
}

type openRequest struct {
	BranchID       uuid.UUID       `json:"branch_id" validate:"required"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
}

type movementRequest struct {
	BranchID    uuid.UUID       `json:"branch_id" validate:"required"`
	Amount      decimal.Decimal `json:"amount" validate:"required"`
	Description string          `json:"description" validate:"max=255"`
}

type closeRequest struct {
	SessionID     *uuid.UUID      `json:"session_id,omitempty"`
	BranchID      *uuid.UUID      `json:"branch_id,omitempty"`
	CountedAmount decimal.Decimal `json:"counted_amount" validate:"required"`
}

type sessionResponse struct {
	ID             uuid.UUID           `json:"id"`
	BranchID       uuid.UUID           `json:"branch_id"`
	Status         enums.SessionStatus `json:"status"`
	OpeningBalance decimal.Decimal     `json:"opening_balance"`
	OpenedAt       time.Time           `json:"opened_at"`

	ClosingBalance  *decimal.Decimal             `json:"closing_balance,omitempty"`
	ExpectedBalance *decimal.Decimal             `json:"expected_balance,omitempty"`
	Difference      *decimal.Decimal             `json:"difference,omitempty"`
	DifferencePct   *decimal.Decimal             `json:"difference_pct,omitempty"`
	Classification  *enums.BalanceClassification `json:"classification,omitempty"`
	ClosedAt        *time.Time                   `json:"closed_at,omitempty"`
}

func newSessionResponse(session *models.RegisterSession) sessionResponse {
	return sessionResponse{
		ID:              session.ID,
		BranchID:        session.BranchID,
		Status:          session.Status,
		OpeningBalance:  session.OpeningBalance,
		OpenedAt:        session.OpenedAt,
		ClosingBalance:  session.ClosingBalance,
		ExpectedBalance: session.ExpectedBalance,
		Difference:      session.Difference,
		DifferencePct:   session.DifferencePct,
		Classification:  session.Classification,
		ClosedAt:        session.ClosedAt,
	}
}

type movementResponse struct {
	ID          uuid.UUID               `json:"id"`
	SessionID   uuid.UUID               `json:"session_id"`
	BranchID    uuid.UUID               `json:"branch_id"`
	Type        enums.MovementType      `json:"type"`
	Direction   enums.MovementDirection `json:"direction"`
	Amount      decimal.Decimal         `json:"amount"`
	SaleID      *uuid.UUID              `json:"sale_id,omitempty"`
	Description string                  `json:"description,omitempty"`
	OccurredAt  time.Time               `json:"occurred_at"`
}

func newMovementResponse(movement *models.CashMovement) movementResponse {
	return movementResponse{
		ID:          movement.ID,
		SessionID:   movement.SessionID,
		BranchID:    movement.BranchID,
		Type:        movement.Type,
		Direction:   movement.Direction,
		Amount:      movement.Amount,
		SaleID:      movement.SaleID,
		Description: movement.Description,
		OccurredAt:  movement.OccurredAt,
	}
}

type closeResponse struct {
	Session        sessionResponse             `json:"session"`
	Expected       decimal.Decimal             `json:"expected"`
	Counted        decimal.Decimal             `json:"counted"`
	Difference     decimal.Decimal             `json:"difference"`
	DifferencePct  decimal.Decimal             `json:"difference_pct"`
	Classification enums.BalanceClassification `json:"classification"`
}

type balanceResponse struct {
	BranchID      uuid.UUID       `json:"branch_id"`
	Open          bool            `json:"open"`
	SessionID     *uuid.UUID      `json:"session_id,omitempty"`
	Expected      decimal.Decimal `json:"expected"`
	SinceOpening  decimal.Decimal `json:"since_opening"`
	IncomeToday   decimal.Decimal `json:"income_today"`
	ExpensesToday decimal.Decimal `json:"expenses_today"`
}

func newBalanceResponse(balance *registersvc.BranchBalance) balanceResponse {
	return balanceResponse{
		BranchID:      balance.BranchID,
		Open:          balance.Open,
		SessionID:     balance.SessionID,
		Expected:      balance.Expected,
		SinceOpening:  balance.SinceOpening,
		IncomeToday:   balance.IncomeToday,
		ExpensesToday: balance.ExpensesToday,
	}
}
