package combo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/registra-pos/registra-backend/pkg/db/models"
)

// Repository loads combo definitions for expansion.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repository to the provided GORM handle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx scopes the repository to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindActiveByID returns the combo with its items preloaded.
func (r *Repository) FindActiveByID(ctx context.Context, id uuid.UUID) (*models.ComboDefinition, error) {
	var def models.ComboDefinition
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ? AND is_active = ?", id, true).
		First(&def).Error
	if err != nil {
		return nil, err
	}
	return &def, nil
}
