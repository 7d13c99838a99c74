package methods

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/registra-pos/registra-backend/internal/settlement"
	"github.com/registra-pos/registra-backend/pkg/db/models"
	pkgerrors "github.com/registra-pos/registra-backend/pkg/errors"
	"github.com/registra-pos/registra-backend/pkg/logger"
)

const cacheScope = "payment_methods"

var hundred = decimal.NewFromInt(100)

type cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CacheKey(parts ...string) string
}

type missDetector func(error) bool

// Service exposes the payment-method registry.
type Service interface {
	ListActive(ctx context.Context) ([]models.PaymentMethod, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.PaymentMethod, error)
	SettlementMethods(ctx context.Context) (map[uuid.UUID]settlement.Method, error)
	Upsert(ctx context.Context, method *models.PaymentMethod) error
}

type service struct {
	repo     Store
	cache    cache
	isMiss   missDetector
	cacheTTL time.Duration
	logg     *logger.Logger
}

// NewService builds a registry service. The cache is optional; without one
// every read goes to the database.
func NewService(repo Store, c cache, isMiss missDetector, cacheTTL time.Duration, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("methods store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if c != nil && isMiss == nil {
		return nil, fmt.Errorf("cache miss detector required")
	}
	return &service{
		repo:     repo,
		cache:    c,
		isMiss:   isMiss,
		cacheTTL: cacheTTL,
		logg:     logg,
	}, nil
}

// ListActive serves the active methods, read through the cache when present.
// A cache failure degrades to a database read, never to an error.
func (s *service) ListActive(ctx context.Context) ([]models.PaymentMethod, error) {
	if s.cache != nil {
		payload, err := s.cache.Get(ctx, s.activeKey())
		switch {
		case err == nil:
			var cached []models.PaymentMethod
			if jsonErr := json.Unmarshal([]byte(payload), &cached); jsonErr == nil {
				return cached, nil
			}
			s.logg.Warn(ctx, "payment method cache payload unreadable, falling back to db")
		case !s.isMiss(err):
			s.logg.Warn(ctx, "payment method cache read failed, falling back to db")
		}
	}

	out, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list payment methods")
	}

	if s.cache != nil {
		if payload, err := json.Marshal(out); err == nil {
			if err := s.cache.Set(ctx, s.activeKey(), string(payload), s.cacheTTL); err != nil {
				s.logg.Warn(ctx, "payment method cache write failed")
			}
		}
	}
	return out, nil
}

// GetByID loads one method, bypassing the cache.
func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*models.PaymentMethod, error) {
	method, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment method not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find payment method")
	}
	return method, nil
}

// SettlementMethods projects the active registry into the settlement engine's
// method table.
func (s *service) SettlementMethods(ctx context.Context) (map[uuid.UUID]settlement.Method, error) {
	active, err := s.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]settlement.Method, len(active))
	for _, m := range active {
		out[m.ID] = settlement.Method{
			ID:                m.ID,
			Name:              m.Name,
			DiscountPercent:   m.DiscountPercent,
			AffectsCashDrawer: m.AffectsCashDrawer,
		}
	}
	return out, nil
}

// Upsert validates and persists a method, then invalidates the cached list.
func (s *service) Upsert(ctx context.Context, method *models.PaymentMethod) error {
	if method == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment method is required")
	}
	if method.Name == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment method name is required")
	}
	if method.DiscountPercent.IsNegative() || method.DiscountPercent.GreaterThan(hundred) {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment discount percent must be between 0 and 100")
	}
	if method.ID == uuid.Nil {
		method.ID = uuid.New()
	}

	if err := s.repo.Save(ctx, method); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save payment method")
	}

	if s.cache != nil {
		if err := s.cache.Del(ctx, s.activeKey()); err != nil {
			s.logg.Warn(ctx, "payment method cache invalidation failed")
		}
	}
	return nil
}

func (s *service) activeKey() string {
	return s.cache.CacheKey(cacheScope, "active")
}
