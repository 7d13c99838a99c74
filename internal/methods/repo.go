// Package methods is the payment-method registry: tender types, their
// payment discounts and whether they touch the physical drawer. Reads are
// served through a short-lived cache since the registry changes rarely but
// is consulted on every settlement.
package methods

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/registra-pos/registra-backend/pkg/db/models"
)

// Store encapsulates payment method persistence.
type Store interface {
	WithTx(tx *gorm.DB) Store
	ListActive(ctx context.Context) ([]models.PaymentMethod, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.PaymentMethod, error)
	Save(ctx context.Context, method *models.PaymentMethod) error
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

// ListActive returns the active methods, stable by name.
func (r *Repository) ListActive(ctx context.Context) ([]models.PaymentMethod, error) {
	var out []models.PaymentMethod
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// FindByID returns the method regardless of its active flag.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.PaymentMethod, error) {
	var method models.PaymentMethod
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&method).Error
	if err != nil {
		return nil, err
	}
	return &method, nil
}

// Save inserts or updates the method.
func (r *Repository) Save(ctx context.Context, method *models.PaymentMethod) error {
	return r.db.WithContext(ctx).Save(method).Error
}
