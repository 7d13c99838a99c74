package register

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/registra-pos/registra-backend/pkg/db"
	"github.com/registra-pos/registra-backend/pkg/db/models"
	"github.com/registra-pos/registra-backend/pkg/enums"
	pkgerrors "github.com/registra-pos/registra-backend/pkg/errors"
	"github.com/registra-pos/registra-backend/pkg/logger"
	"github.com/registra-pos/registra-backend/pkg/money"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// CloseResult is the reconciliation report produced exactly once, at close.
type CloseResult struct {
	Session        *models.RegisterSession
	Expected       decimal.Decimal
	Difference     decimal.Decimal
	DifferencePct  decimal.Decimal
	Classification enums.BalanceClassification
}

// SaleMovementRow is one drawer-affecting payment leg of a committed sale.
type SaleMovementRow struct {
	PaymentMethodID uuid.UUID
	Amount          decimal.Decimal
}

// Service exposes register session lifecycle and ledger operations.
type Service interface {
	Open(ctx context.Context, branchID uuid.UUID, openingBalance decimal.Decimal) (*models.RegisterSession, error)
	Deposit(ctx context.Context, branchID uuid.UUID, amount decimal.Decimal, description string) (*models.CashMovement, error)
	Withdraw(ctx context.Context, branchID uuid.UUID, amount decimal.Decimal, description string) (*models.CashMovement, error)
	Close(ctx context.Context, sessionID uuid.UUID, countedAmount decimal.Decimal) (*CloseResult, error)
	CloseCurrent(ctx context.Context, branchID uuid.UUID, countedAmount decimal.Decimal) (*CloseResult, error)
	Snapshot(ctx context.Context, branchID uuid.UUID) (*BranchBalance, error)
	BranchReport(ctx context.Context, branchIDs []uuid.UUID) *Report

	// AppendSaleMovements and ReverseSaleMovements run inside the caller's
	// sale transaction so the ledger write commits or rolls back with the
	// sale itself.
	AppendSaleMovements(ctx context.Context, tx *gorm.DB, branchID, saleID uuid.UUID, rows []SaleMovementRow) (uuid.UUID, error)
	ReverseSaleMovements(ctx context.Context, tx *gorm.DB, branchID, saleID uuid.UUID) error
}

type service struct {
	repo    Store
	tx      txRunner
	logg    *logger.Logger
	metrics Recorder
	now     func() time.Time
}

// NewService builds a register service backed by the provided stack.
func NewService(repo Store, tx txRunner, logg *logger.Logger, metrics Recorder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("register store required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if metrics == nil {
		metrics = NopRecorder{}
	}
	return &service{
		repo:    repo,
		tx:      tx,
		logg:    logg,
		metrics: metrics,
		now:     time.Now,
	}, nil
}

// Open starts a new session for the branch. At most one session per branch
// may be open at a time.
func (s *service) Open(ctx context.Context, branchID uuid.UUID, openingBalance decimal.Decimal) (*models.RegisterSession, error) {
	if branchID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "branch id is required")
	}
	if openingBalance.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "opening balance cannot be negative")
	}

	var session *models.RegisterSession
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		existing, err := repo.LockOpenByBranch(ctx, branchID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup open session")
		}
		if existing != nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "branch already has an open register session").
				WithDetails(map[string]string{"session_id": existing.ID.String()})
		}

		session = &models.RegisterSession{
			ID:             uuid.New(),
			BranchID:       branchID,
			OpeningBalance: money.Round2(openingBalance),
			Status:         enums.SessionStatusOpen,
			OpenedAt:       s.now(),
		}
		if err := repo.Create(ctx, session); err != nil {
			// A concurrent open slips past the advisory lookup; the partial
			// unique index on open sessions is the backstop.
			if db.IsUniqueViolation(err, "idx_register_sessions_branch_open") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "branch already has an open register session")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create session")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithSessionID(s.logg.WithBranchID(ctx, branchID.String()), session.ID.String())
	s.logg.Info(ctx, "register session opened")
	return session, nil
}

// Deposit records a manual cash inflow against the branch's open session.
func (s *service) Deposit(ctx context.Context, branchID uuid.UUID, amount decimal.Decimal, description string) (*models.CashMovement, error) {
	return s.manualMovement(ctx, branchID, amount, description, enums.MovementTypeDeposit, enums.MovementDirectionIn)
}

// Withdraw records a manual cash outflow against the branch's open session.
func (s *service) Withdraw(ctx context.Context, branchID uuid.UUID, amount decimal.Decimal, description string) (*models.CashMovement, error) {
	return s.manualMovement(ctx, branchID, amount, description, enums.MovementTypeWithdrawal, enums.MovementDirectionOut)
}

func (s *service) manualMovement(ctx context.Context, branchID uuid.UUID, amount decimal.Decimal, description string, kind enums.MovementType, direction enums.MovementDirection) (*models.CashMovement, error) {
	if branchID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "branch id is required")
	}
	if !amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "movement amount must be positive")
	}

	var movement *models.CashMovement
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		session, err := repo.LockOpenByBranch(ctx, branchID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNoOpenRegister, "no open register session for the branch")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup open session")
		}

		movement = &models.CashMovement{
			ID:          uuid.New(),
			SessionID:   session.ID,
			BranchID:    branchID,
			Type:        kind,
			Direction:   direction,
			Amount:      money.Round2(amount),
			Description: description,
			OccurredAt:  s.now(),
		}
		if err := repo.CreateMovement(ctx, movement); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create movement")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithBranchID(ctx, branchID.String()), fmt.Sprintf("manual %s recorded", kind))
	return movement, nil
}

// AppendSaleMovements writes one inflow per drawer-affecting payment leg of
// a sale, under the branch's open session. The session row is locked so the
// movements cannot race a concurrent close. Returns the session the sale
// landed on.
func (s *service) AppendSaleMovements(ctx context.Context, tx *gorm.DB, branchID, saleID uuid.UUID, rows []SaleMovementRow) (uuid.UUID, error) {
	repo := s.repo.WithTx(tx)
	session, err := repo.LockOpenByBranch(ctx, branchID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, pkgerrors.New(pkgerrors.CodeNoOpenRegister, "no open register session for the branch")
		}
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup open session")
	}

	occurredAt := s.now()
	for _, row := range rows {
		if row.Amount.IsZero() {
			continue
		}
		methodID := row.PaymentMethodID
		movement := &models.CashMovement{
			ID:              uuid.New(),
			SessionID:       session.ID,
			BranchID:        branchID,
			Type:            enums.MovementTypeSale,
			Direction:       enums.MovementDirectionIn,
			Amount:          money.Round2(row.Amount),
			PaymentMethodID: &methodID,
			SaleID:          &saleID,
			OccurredAt:      occurredAt,
		}
		if err := repo.CreateMovement(ctx, movement); err != nil {
			return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create sale movement")
		}
	}
	return session.ID, nil
}

// ReverseSaleMovements appends an inverse movement for every ledger entry of
// the sale. History is never edited; a void is its own audit trail.
func (s *service) ReverseSaleMovements(ctx context.Context, tx *gorm.DB, branchID, saleID uuid.UUID) error {
	repo := s.repo.WithTx(tx)
	session, err := repo.LockOpenByBranch(ctx, branchID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNoOpenRegister, "no open register session for the branch")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup open session")
	}

	originals, err := repo.ListMovementsBySale(ctx, saleID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list sale movements")
	}

	occurredAt := s.now()
	for _, original := range originals {
		if original.Type == enums.MovementTypeVoid {
			continue
		}
		inverse := &models.CashMovement{
			ID:              uuid.New(),
			SessionID:       session.ID,
			BranchID:        branchID,
			Type:            enums.MovementTypeVoid,
			Direction:       invert(original.Direction),
			Amount:          original.Amount,
			PaymentMethodID: original.PaymentMethodID,
			SaleID:          original.SaleID,
			Description:     "void of sale " + saleID.String(),
			OccurredAt:      occurredAt,
		}
		if err := repo.CreateMovement(ctx, inverse); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create void movement")
		}
	}
	return nil
}

func invert(d enums.MovementDirection) enums.MovementDirection {
	if d == enums.MovementDirectionIn {
		return enums.MovementDirectionOut
	}
	return enums.MovementDirectionIn
}

// Close reconciles and finalizes the session in one transaction. The row
// lock guarantees that every movement either lands before the close and
// counts toward the expected balance, or fails against the closed session.
func (s *service) Close(ctx context.Context, sessionID uuid.UUID, countedAmount decimal.Decimal) (*CloseResult, error) {
	if countedAmount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "counted amount cannot be negative")
	}

	var result *CloseResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		session, err := repo.LockByID(ctx, sessionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "register session not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup session")
		}
		result, err = s.closeLocked(ctx, repo, session, countedAmount)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CloseCurrent reconciles and finalizes the branch's open session.
func (s *service) CloseCurrent(ctx context.Context, branchID uuid.UUID, countedAmount decimal.Decimal) (*CloseResult, error) {
	if branchID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "branch id is required")
	}
	if countedAmount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "counted amount cannot be negative")
	}

	var result *CloseResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		session, err := repo.LockOpenByBranch(ctx, branchID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNoOpenRegister, "no open register session for the branch")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup open session")
		}
		result, err = s.closeLocked(ctx, repo, session, countedAmount)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) closeLocked(ctx context.Context, repo Store, session *models.RegisterSession, countedAmount decimal.Decimal) (*CloseResult, error) {
	if !session.IsOpen() {
		return nil, pkgerrors.New(pkgerrors.CodeAlreadyClosed, "register session already closed").
			WithDetails(map[string]string{"session_id": session.ID.String()})
	}

	movements, err := repo.ListMovements(ctx, session.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list movements")
	}

	// The operator count is recorded verbatim, not rounded, so a count
	// within the tolerance of the expected figure classifies as balanced.
	expected := money.Round2(ExpectedCash(session.OpeningBalance, movements))
	counted := countedAmount
	difference := counted.Sub(expected)
	classification := Classify(difference)
	deviationPct := DeviationPercent(difference, expected)
	closedAt := s.now()

	session.Status = enums.SessionStatusClosed
	session.ClosingBalance = &counted
	session.ExpectedBalance = &expected
	session.Difference = &difference
	session.DifferencePct = &deviationPct
	session.Classification = &classification
	session.ClosedAt = &closedAt

	if err := repo.Update(ctx, session); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "finalize session")
	}

	ctx = s.logg.WithSessionID(s.logg.WithBranchID(ctx, session.BranchID.String()), session.ID.String())
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"expected":       expected.StringFixed(2),
		"counted":        counted.StringFixed(2),
		"difference":     difference.StringFixed(2),
		"classification": classification.String(),
	}), "register session closed")
	s.metrics.SessionClosed(classification)

	return &CloseResult{
		Session:        session,
		Expected:       expected,
		Difference:     difference,
		DifferencePct:  deviationPct,
		Classification: classification,
	}, nil
}

// Snapshot reports the branch's current drawer state. A branch with no open
// session contributes zeros rather than an error.
func (s *service) Snapshot(ctx context.Context, branchID uuid.UUID) (*BranchBalance, error) {
	if branchID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "branch id is required")
	}

	balance := &BranchBalance{BranchID: branchID}

	session, err := s.repo.FindOpenByBranch(ctx, branchID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return balance, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup open session")
	}

	movements, err := s.repo.ListMovements(ctx, session.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list movements")
	}

	now := s.now()
	balance.Open = true
	balance.SessionID = &session.ID
	balance.Expected = money.Round2(ExpectedCash(session.OpeningBalance, movements))
	balance.SinceOpening = money.Round2(BalanceSinceOpening(session.OpeningBalance, movements))

	// A drawer open since a prior day reports today's flows branch wide,
	// not the single stale session's.
	dayMovements := movements
	if !sameDay(session.OpenedAt, now) {
		from, to := dayBounds(now)
		dayMovements, err = s.repo.ListBranchMovementsBetween(ctx, branchID, from, to)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list branch movements")
		}
	}
	income, expenses := DayFlows(dayMovements, now)
	balance.IncomeToday = money.Round2(income)
	balance.ExpensesToday = money.Round2(expenses)

	return balance, nil
}
