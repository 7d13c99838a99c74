// Package sales orchestrates checkout: combo expansion, the pricing
// pipeline, payment settlement and the atomic commit of the sale with its
// cash movements, plus void handling afterwards.
package sales

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/registra-pos/registra-backend/pkg/db/models"
)

// Store encapsulates sale persistence.
type Store interface {
	WithTx(tx *gorm.DB) Store
	Create(ctx context.Context, sale *models.Sale) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Sale, error)
	LockByID(ctx context.Context, id uuid.UUID) (*models.Sale, error)
	Update(ctx context.Context, sale *models.Sale) error
}

// Repository is the GORM-backed Store. Lines and payments persist through
// the sale's associations in the same statement batch.
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

// Create inserts the sale with its lines and payments.
func (r *Repository) Create(ctx context.Context, sale *models.Sale) error {
	return r.db.WithContext(ctx).Create(sale).Error
}

// FindByID returns the sale with lines and payments preloaded.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Sale, error) {
	var sale models.Sale
	err := r.db.WithContext(ctx).
		Preload("Lines").
		Preload("Payments").
		Where("id = ?", id).
		First(&sale).Error
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

// LockByID returns the sale under a row lock for void processing.
func (r *Repository) LockByID(ctx context.Context, id uuid.UUID) (*models.Sale, error) {
	var sale models.Sale
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&sale).Error
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

// Update persists status changes on the sale row.
func (r *Repository) Update(ctx context.Context, sale *models.Sale) error {
	return r.db.WithContext(ctx).Save(sale).Error
}
