package register

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/registra-pos/registra-backend/pkg/db/models"
	"github.com/registra-pos/registra-backend/pkg/enums"
)

func setupRegisterTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	paymentMethods := `
CREATE TABLE IF NOT EXISTS payment_methods (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  discount_percent TEXT NOT NULL DEFAULT '0',
  affects_cash_drawer INTEGER NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	registerSessions := `
CREATE TABLE IF NOT EXISTS register_sessions (
  id TEXT PRIMARY KEY,
  branch_id TEXT NOT NULL,
  opening_balance TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'open',
  opened_at DATETIME NOT NULL,
  closing_balance TEXT,
  expected_balance TEXT,
  difference TEXT,
  difference_pct TEXT,
  classification TEXT,
  closed_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	cashMovements := `
CREATE TABLE IF NOT EXISTS cash_movements (
  id TEXT PRIMARY KEY,
  session_id TEXT NOT NULL,
  branch_id TEXT NOT NULL,
  type TEXT NOT NULL,
  direction TEXT NOT NULL,
  amount TEXT NOT NULL,
  payment_method_id TEXT,
  sale_id TEXT,
  description TEXT NOT NULL DEFAULT '',
  occurred_at DATETIME NOT NULL,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(paymentMethods).Error)
	require.NoError(t, db.Exec(registerSessions).Error)
	require.NoError(t, db.Exec(cashMovements).Error)
	return db
}

func newTestSession(t *testing.T, db *gorm.DB, branchID uuid.UUID, openedAt time.Time) *models.RegisterSession {
	t.Helper()

	session := &models.RegisterSession{
		ID:             uuid.New(),
		BranchID:       branchID,
		OpeningBalance: decimal.NewFromInt(100),
		Status:         enums.SessionStatusOpen,
		OpenedAt:       openedAt,
	}
	require.NoError(t, db.Create(session).Error)
	return session
}

func newTestMethod(t *testing.T, db *gorm.DB, name string, affectsDrawer bool) *models.PaymentMethod {
	t.Helper()

	method := &models.PaymentMethod{
		ID:                uuid.New(),
		Name:              name,
		DiscountPercent:   decimal.Zero,
		AffectsCashDrawer: affectsDrawer,
		IsActive:          true,
	}
	require.NoError(t, db.Create(method).Error)
	return method
}

func appendTestMovement(t *testing.T, db *gorm.DB, session *models.RegisterSession, direction enums.MovementDirection, amount int64, occurredAt time.Time, methodID, saleID *uuid.UUID) *models.CashMovement {
	t.Helper()

	movement := &models.CashMovement{
		ID:              uuid.New(),
		SessionID:       session.ID,
		BranchID:        session.BranchID,
		Type:            enums.MovementTypeSale,
		Direction:       direction,
		Amount:          decimal.NewFromInt(amount),
		PaymentMethodID: methodID,
		SaleID:          saleID,
		OccurredAt:      occurredAt,
	}
	require.NoError(t, db.Create(movement).Error)
	return movement
}

func TestRepositoryFindOpenByBranch(t *testing.T) {
	db := setupRegisterTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	branchID := uuid.New()
	otherBranch := uuid.New()
	opened := newTestSession(t, db, branchID, time.Now().Add(-2*time.Hour))
	newTestSession(t, db, otherBranch, time.Now().Add(-time.Hour))

	found, err := repo.FindOpenByBranch(ctx, branchID)
	require.NoError(t, err)
	assert.Equal(t, opened.ID, found.ID)
	assert.True(t, found.IsOpen())

	// A closed session must not be returned as open.
	now := time.Now()
	counted := decimal.NewFromInt(150)
	opened.Status = enums.SessionStatusClosed
	opened.ClosingBalance = &counted
	opened.ClosedAt = &now
	require.NoError(t, repo.Update(ctx, opened))

	_, err = repo.FindOpenByBranch(ctx, branchID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryUpdatePersistsCloseFields(t *testing.T) {
	db := setupRegisterTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	session := newTestSession(t, db, uuid.New(), time.Now().Add(-time.Hour))

	now := time.Now().UTC().Truncate(time.Second)
	counted := decimal.RequireFromString("148.50")
	expected := decimal.RequireFromString("150.00")
	difference := decimal.RequireFromString("-1.50")
	differencePct := decimal.RequireFromString("-1.00")
	classification := enums.BalanceShortage

	session.Status = enums.SessionStatusClosed
	session.ClosingBalance = &counted
	session.ExpectedBalance = &expected
	session.Difference = &difference
	session.DifferencePct = &differencePct
	session.Classification = &classification
	session.ClosedAt = &now
	require.NoError(t, repo.Update(ctx, session))

	var reloaded models.RegisterSession
	require.NoError(t, db.Where("id = ?", session.ID).First(&reloaded).Error)
	assert.Equal(t, enums.SessionStatusClosed, reloaded.Status)
	require.NotNil(t, reloaded.ClosingBalance)
	assert.True(t, reloaded.ClosingBalance.Equal(counted))
	require.NotNil(t, reloaded.Difference)
	assert.True(t, reloaded.Difference.Equal(difference))
	require.NotNil(t, reloaded.Classification)
	assert.Equal(t, enums.BalanceShortage, *reloaded.Classification)
}

func TestRepositoryListMovementsOrdersAndPreloads(t *testing.T) {
	db := setupRegisterTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	session := newTestSession(t, db, uuid.New(), time.Now().Add(-3*time.Hour))
	cash := newTestMethod(t, db, "Cash", true)

	base := time.Now().Add(-2 * time.Hour)
	second := appendTestMovement(t, db, session, enums.MovementDirectionIn, 50, base.Add(time.Hour), &cash.ID, nil)
	first := appendTestMovement(t, db, session, enums.MovementDirectionOut, 20, base, nil, nil)

	movements, err := repo.ListMovements(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, movements, 2)
	assert.Equal(t, first.ID, movements[0].ID)
	assert.Equal(t, second.ID, movements[1].ID)

	require.NotNil(t, movements[1].PaymentMethod)
	assert.Equal(t, "Cash", movements[1].PaymentMethod.Name)
	assert.True(t, movements[1].AffectsDrawer())
	// Manual movements carry no method and always hit the drawer.
	assert.Nil(t, movements[0].PaymentMethod)
	assert.True(t, movements[0].AffectsDrawer())
}

func TestRepositoryListMovementsBySale(t *testing.T) {
	db := setupRegisterTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	session := newTestSession(t, db, uuid.New(), time.Now().Add(-time.Hour))
	cash := newTestMethod(t, db, "Cash", true)
	saleID := uuid.New()
	otherSale := uuid.New()

	appendTestMovement(t, db, session, enums.MovementDirectionIn, 80, time.Now(), &cash.ID, &saleID)
	appendTestMovement(t, db, session, enums.MovementDirectionIn, 30, time.Now(), &cash.ID, &otherSale)

	movements, err := repo.ListMovementsBySale(ctx, saleID)
	require.NoError(t, err)
	require.Len(t, movements, 1)
	require.NotNil(t, movements[0].SaleID)
	assert.Equal(t, saleID, *movements[0].SaleID)
	assert.True(t, movements[0].Amount.Equal(decimal.NewFromInt(80)))
}

func TestRepositoryListBranchMovementsBetween(t *testing.T) {
	db := setupRegisterTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	branchID := uuid.New()
	dayStart := time.Date(2026, time.August, 28, 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)

	yesterday := newTestSession(t, db, branchID, dayStart.Add(-10*time.Hour))
	today := newTestSession(t, db, uuid.New(), dayStart.Add(8*time.Hour))
	today.BranchID = branchID
	require.NoError(t, db.Save(today).Error)

	// Spans two sessions of the same branch plus boundary rows.
	appendTestMovement(t, db, yesterday, enums.MovementDirectionIn, 10, dayStart.Add(-time.Hour), nil, nil)
	inRangeEarly := appendTestMovement(t, db, yesterday, enums.MovementDirectionIn, 25, dayStart, nil, nil)
	inRangeLate := appendTestMovement(t, db, today, enums.MovementDirectionOut, 5, dayStart.Add(9*time.Hour), nil, nil)
	appendTestMovement(t, db, today, enums.MovementDirectionIn, 40, dayEnd, nil, nil)

	movements, err := repo.ListBranchMovementsBetween(ctx, branchID, dayStart, dayEnd)
	require.NoError(t, err)
	require.Len(t, movements, 2)
	assert.Equal(t, inRangeEarly.ID, movements[0].ID)
	assert.Equal(t, inRangeLate.ID, movements[1].ID)
}
