package methods

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/registra-pos/registra-backend/pkg/db/models"
	pkgerrors "github.com/registra-pos/registra-backend/pkg/errors"
	"github.com/registra-pos/registra-backend/pkg/logger"
)

type stubStore struct {
	methods   []models.PaymentMethod
	listCalls int
	saved     []*models.PaymentMethod
}

func (s *stubStore) WithTx(tx *gorm.DB) Store { return s }

func (s *stubStore) ListActive(ctx context.Context) ([]models.PaymentMethod, error) {
	s.listCalls++
	return s.methods, nil
}

func (s *stubStore) FindByID(ctx context.Context, id uuid.UUID) (*models.PaymentMethod, error) {
	for i := range s.methods {
		if s.methods[i].ID == id {
			return &s.methods[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubStore) Save(ctx context.Context, method *models.PaymentMethod) error {
	s.saved = append(s.saved, method)
	return nil
}

type memCache struct {
	data map[string]string
}

var errCacheMiss = gorm.ErrRecordNotFound

func newMemCache() *memCache {
	return &memCache{data: map[string]string{}}
}

func (c *memCache) Get(ctx context.Context, key string) (string, error) {
	if v, ok := c.data[key]; ok {
		return v, nil
	}
	return "", errCacheMiss
}

func (c *memCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	c.data[key] = value.(string)
	return nil
}

func (c *memCache) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(c.data, key)
	}
	return nil
}

func (c *memCache) CacheKey(parts ...string) string {
	return "test:" + strings.Join(parts, ":")
}

func isMiss(err error) bool { return err == errCacheMiss }

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func seedMethods() []models.PaymentMethod {
	return []models.PaymentMethod{
		{ID: uuid.New(), Name: "card", DiscountPercent: decimal.RequireFromString("3"), AffectsCashDrawer: false, IsActive: true},
		{ID: uuid.New(), Name: "cash", DiscountPercent: decimal.Zero, AffectsCashDrawer: true, IsActive: true},
	}
}

func TestListActiveReadThrough(t *testing.T) {
	t.Parallel()

	store := &stubStore{methods: seedMethods()}
	svc, err := NewService(store, newMemCache(), isMiss, time.Minute, testLogger())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	first, err := svc.ListActive(context.Background())
	if err != nil {
		t.Fatalf("first list: %v", err)
	}
	second, err := svc.ListActive(context.Background())
	if err != nil {
		t.Fatalf("second list: %v", err)
	}

	if store.listCalls != 1 {
		t.Fatalf("second read should come from cache, db hit %d times", store.listCalls)
	}
	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("unexpected result sizes %d/%d", len(first), len(second))
	}
	if !second[0].DiscountPercent.Equal(first[0].DiscountPercent) {
		t.Fatal("cached discount percent must round-trip")
	}
}

func TestUpsertInvalidatesCache(t *testing.T) {
	t.Parallel()

	store := &stubStore{methods: seedMethods()}
	svc, err := NewService(store, newMemCache(), isMiss, time.Minute, testLogger())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if _, err := svc.ListActive(context.Background()); err != nil {
		t.Fatalf("warm cache: %v", err)
	}
	if err := svc.Upsert(context.Background(), &models.PaymentMethod{
		Name:            "transfer",
		DiscountPercent: decimal.Zero,
	}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if _, err := svc.ListActive(context.Background()); err != nil {
		t.Fatalf("list after upsert: %v", err)
	}

	if store.listCalls != 2 {
		t.Fatalf("upsert should invalidate the cached list, db hit %d times", store.listCalls)
	}
	if len(store.saved) != 1 || store.saved[0].ID == uuid.Nil {
		t.Fatalf("saved method should receive an id: %+v", store.saved)
	}
}

func TestUpsertValidation(t *testing.T) {
	t.Parallel()

	svc, err := NewService(&stubStore{}, nil, nil, 0, testLogger())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	cases := []*models.PaymentMethod{
		nil,
		{Name: "", DiscountPercent: decimal.Zero},
		{Name: "card", DiscountPercent: decimal.RequireFromString("-1")},
		{Name: "card", DiscountPercent: decimal.RequireFromString("100.01")},
	}
	for i, method := range cases {
		err := svc.Upsert(context.Background(), method)
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
	}
}

func TestSettlementMethodsProjection(t *testing.T) {
	t.Parallel()

	seed := seedMethods()
	svc, err := NewService(&stubStore{methods: seed}, nil, nil, 0, testLogger())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	table, err := svc.SettlementMethods(context.Background())
	if err != nil {
		t.Fatalf("settlement methods: %v", err)
	}
	if len(table) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(table))
	}
	card := table[seed[0].ID]
	if card.Name != "card" || !card.DiscountPercent.Equal(decimal.RequireFromString("3")) || card.AffectsCashDrawer {
		t.Fatalf("unexpected projection: %+v", card)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	t.Parallel()

	svc, err := NewService(&stubStore{}, nil, nil, 0, testLogger())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	_, err = svc.GetByID(context.Background(), uuid.New())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not-found, got %v", err)
	}
}
