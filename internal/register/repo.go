package register

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/registra-pos/registra-backend/pkg/db/models"
	"github.com/registra-pos/registra-backend/pkg/enums"
)

// Store encapsulates register session and cash movement persistence.
type Store interface {
	WithTx(tx *gorm.DB) Store
	FindOpenByBranch(ctx context.Context, branchID uuid.UUID) (*models.RegisterSession, error)
	LockOpenByBranch(ctx context.Context, branchID uuid.UUID) (*models.RegisterSession, error)
	LockByID(ctx context.Context, id uuid.UUID) (*models.RegisterSession, error)
	Create(ctx context.Context, session *models.RegisterSession) error
	Update(ctx context.Context, session *models.RegisterSession) error
	CreateMovement(ctx context.Context, movement *models.CashMovement) error
	ListMovements(ctx context.Context, sessionID uuid.UUID) ([]models.CashMovement, error)
	ListMovementsBySale(ctx context.Context, saleID uuid.UUID) ([]models.CashMovement, error)
	ListBranchMovementsBetween(ctx context.Context, branchID uuid.UUID, from, to time.Time) ([]models.CashMovement, error)
}

// Repository is the GORM-backed Store.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repository to the provided GORM handle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx scopes the repository to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) Store {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindOpenByBranch returns the branch's open session without locking it.
func (r *Repository) FindOpenByBranch(ctx context.Context, branchID uuid.UUID) (*models.RegisterSession, error) {
	var session models.RegisterSession
	err := r.db.WithContext(ctx).
		Where("branch_id = ? AND status = ?", branchID, enums.SessionStatusOpen).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// LockOpenByBranch returns the branch's open session under a row lock so a
// movement insert and a concurrent close serialize against each other. Must
// run inside a transaction.
func (r *Repository) LockOpenByBranch(ctx context.Context, branchID uuid.UUID) (*models.RegisterSession, error) {
	var session models.RegisterSession
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("branch_id = ? AND status = ?", branchID, enums.SessionStatusOpen).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// LockByID returns the session, open or closed, under a row lock.
func (r *Repository) LockByID(ctx context.Context, id uuid.UUID) (*models.RegisterSession, error) {
	var session models.RegisterSession
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// Create inserts a new session row.
func (r *Repository) Create(ctx context.Context, session *models.RegisterSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

// Update persists the session's close-time fields.
func (r *Repository) Update(ctx context.Context, session *models.RegisterSession) error {
	return r.db.WithContext(ctx).Save(session).Error
}

// CreateMovement appends one ledger entry. Movements are never updated.
func (r *Repository) CreateMovement(ctx context.Context, movement *models.CashMovement) error {
	return r.db.WithContext(ctx).Create(movement).Error
}

// ListMovements returns every movement of the session with its payment
// method preloaded, oldest first.
func (r *Repository) ListMovements(ctx context.Context, sessionID uuid.UUID) ([]models.CashMovement, error) {
	var movements []models.CashMovement
	err := r.db.WithContext(ctx).
		Preload("PaymentMethod").
		Where("session_id = ?", sessionID).
		Order("occurred_at ASC, created_at ASC").
		Find(&movements).Error
	if err != nil {
		return nil, err
	}
	return movements, nil
}

// ListMovementsBySale returns the ledger entries written for one sale.
func (r *Repository) ListMovementsBySale(ctx context.Context, saleID uuid.UUID) ([]models.CashMovement, error) {
	var movements []models.CashMovement
	err := r.db.WithContext(ctx).
		Preload("PaymentMethod").
		Where("sale_id = ?", saleID).
		Order("created_at ASC").
		Find(&movements).Error
	if err != nil {
		return nil, err
	}
	return movements, nil
}

// ListBranchMovementsBetween returns branch movements across all sessions
// with occurred_at in the half-open range [from, to).
func (r *Repository) ListBranchMovementsBetween(ctx context.Context, branchID uuid.UUID, from, to time.Time) ([]models.CashMovement, error) {
	var movements []models.CashMovement
	err := r.db.WithContext(ctx).
		Preload("PaymentMethod").
		Where("branch_id = ? AND occurred_at >= ? AND occurred_at < ?", branchID, from, to).
		Order("occurred_at ASC").
		Find(&movements).Error
	if err != nil {
		return nil, err
	}
	return movements, nil
}
