package sales

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/registra-pos/registra-backend/internal/pricing"
	"github.com/registra-pos/registra-backend/internal/register"
	"github.com/registra-pos/registra-backend/internal/settlement"
	"github.com/registra-pos/registra-backend/pkg/db/models"
	"github.com/registra-pos/registra-backend/pkg/enums"
	pkgerrors "github.com/registra-pos/registra-backend/pkg/errors"
	"github.com/registra-pos/registra-backend/pkg/logger"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type memSaleStore struct {
	sales map[uuid.UUID]*models.Sale
}

func newMemSaleStore() *memSaleStore {
	return &memSaleStore{sales: map[uuid.UUID]*models.Sale{}}
}

func (m *memSaleStore) WithTx(tx *gorm.DB) Store { return m }

func (m *memSaleStore) Create(ctx context.Context, sale *models.Sale) error {
	m.sales[sale.ID] = sale
	return nil
}

func (m *memSaleStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Sale, error) {
	if sale, ok := m.sales[id]; ok {
		return sale, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memSaleStore) LockByID(ctx context.Context, id uuid.UUID) (*models.Sale, error) {
	return m.FindByID(ctx, id)
}

func (m *memSaleStore) Update(ctx context.Context, sale *models.Sale) error {
	m.sales[sale.ID] = sale
	return nil
}

type stubProducts struct {
	products map[uuid.UUID]models.Product
}

func (s *stubProducts) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	out := map[uuid.UUID]models.Product{}
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

type stubCombos struct {
	combos map[uuid.UUID]*models.ComboDefinition
}

func (s *stubCombos) FindActiveByID(ctx context.Context, id uuid.UUID) (*models.ComboDefinition, error) {
	if def, ok := s.combos[id]; ok {
		return def, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type stubMethods struct {
	table map[uuid.UUID]settlement.Method
}

func (s *stubMethods) SettlementMethods(ctx context.Context) (map[uuid.UUID]settlement.Method, error) {
	return s.table, nil
}

type stubLedger struct {
	sessionID uuid.UUID
	appended  []register.SaleMovementRow
	reversed  []uuid.UUID
	appendErr error
}

func (s *stubLedger) AppendSaleMovements(ctx context.Context, tx *gorm.DB, branchID, saleID uuid.UUID, rows []register.SaleMovementRow) (uuid.UUID, error) {
	if s.appendErr != nil {
		return uuid.Nil, s.appendErr
	}
	s.appended = append(s.appended, rows...)
	return s.sessionID, nil
}

func (s *stubLedger) ReverseSaleMovements(ctx context.Context, tx *gorm.DB, branchID, saleID uuid.UUID) error {
	s.reversed = append(s.reversed, saleID)
	return nil
}

type recordingMetrics struct {
	committed int
	voided    int
	rejected  []string
}

func (r *recordingMetrics) SaleCommitted()                       { r.committed++ }
func (r *recordingMetrics) SaleVoided()                          { r.voided++ }
func (r *recordingMetrics) SaleRejected(reason string)           { r.rejected = append(r.rejected, reason) }
func (r *recordingMetrics) ObserveConfirmDuration(time.Duration) {}

type fixture struct {
	svc      Service
	store    *memSaleStore
	products *stubProducts
	combos   *stubCombos
	ledger   *stubLedger
	metrics  *recordingMetrics

	branch  uuid.UUID
	cash    settlement.Method
	card    settlement.Method
	product models.Product
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		store:   newMemSaleStore(),
		ledger:  &stubLedger{sessionID: uuid.New()},
		metrics: &recordingMetrics{},
		branch:  uuid.New(),
	}
	f.cash = settlement.Method{ID: uuid.New(), Name: "cash", DiscountPercent: decimal.Zero, AffectsCashDrawer: true}
	f.card = settlement.Method{ID: uuid.New(), Name: "card", DiscountPercent: dec("3"), AffectsCashDrawer: false}
	f.product = models.Product{ID: uuid.New(), SKU: "SKU-1", Name: "widget", UnitPriceNet: dec("100"), TaxRate: dec("21"), IsActive: true}
	f.products = &stubProducts{products: map[uuid.UUID]models.Product{f.product.ID: f.product}}
	f.combos = &stubCombos{combos: map[uuid.UUID]*models.ComboDefinition{}}

	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	svc, err := NewService(
		f.store,
		stubTxRunner{},
		f.products,
		f.combos,
		&stubMethods{table: map[uuid.UUID]settlement.Method{f.cash.ID: f.cash, f.card.ID: f.card}},
		f.ledger,
		logg,
		f.metrics,
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	f.svc = svc
	return f
}

func (f *fixture) addProduct(p models.Product) {
	f.products.products[p.ID] = p
}

func (f *fixture) addCombo(def *models.ComboDefinition) {
	f.combos.combos[def.ID] = def
}

func TestConfirmPersistsSaleAndMovements(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	// 100 net, 10% item discount, 21% tax, 5% global: grand total 103.46.
	out, err := f.svc.Confirm(context.Background(), ConfirmInput{
		BranchID: f.branch,
		Cart: CartInput{
			Lines: []LineInput{
				{ProductID: f.product.ID, Quantity: 1, Discount: pricing.PercentDiscount(dec("10"))},
			},
			GlobalDiscount: pricing.PercentDiscount(dec("5")),
		},
		Payments: []PaymentInput{{MethodID: f.cash.ID, Amount: dec("103.46")}},
	})
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}

	if !out.Sale.GrandTotal.Equal(dec("103.46")) {
		t.Fatalf("grand total = %s", out.Sale.GrandTotal)
	}
	if !out.Change.IsZero() {
		t.Fatalf("change = %s", out.Change)
	}
	if out.Sale.SessionID != f.ledger.sessionID {
		t.Fatalf("sale should carry the ledger session")
	}
	if len(out.Sale.Lines) != 1 || len(out.Sale.Payments) != 1 {
		t.Fatalf("unexpected persisted shape: %d lines, %d payments", len(out.Sale.Lines), len(out.Sale.Payments))
	}
	if !out.Sale.Lines[0].DiscountPercent.Equal(dec("10")) {
		t.Fatalf("line discount percent = %s", out.Sale.Lines[0].DiscountPercent)
	}
	if len(f.ledger.appended) != 1 || !f.ledger.appended[0].Amount.Equal(dec("103.46")) {
		t.Fatalf("unexpected cash movements: %+v", f.ledger.appended)
	}
	if f.metrics.committed != 1 {
		t.Fatalf("committed counter = %d", f.metrics.committed)
	}
	if _, ok := f.store.sales[out.Sale.ID]; !ok {
		t.Fatal("sale not persisted")
	}
}

func TestConfirmSplitPaymentWithChange(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	// Plain 1000 total: qty 10 at 100 net, no tax, no discounts.
	plain := models.Product{ID: uuid.New(), SKU: "SKU-2", Name: "flat", UnitPriceNet: dec("100"), TaxRate: decimal.Zero, IsActive: true}
	f.addProduct(plain)

	out, err := f.svc.Confirm(context.Background(), ConfirmInput{
		BranchID: f.branch,
		Cart: CartInput{
			Lines: []LineInput{{ProductID: plain.ID, Quantity: 10}},
		},
		Payments: []PaymentInput{
			{MethodID: f.card.ID, Amount: dec("500")},
			{MethodID: f.cash.ID, Amount: dec("600")},
		},
	})
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}

	if !out.Sale.PaymentDiscountTotal.Equal(dec("15")) {
		t.Fatalf("payment discount = %s", out.Sale.PaymentDiscountTotal)
	}
	if !out.Sale.FinalTotal.Equal(dec("985")) {
		t.Fatalf("final total = %s", out.Sale.FinalTotal)
	}
	if !out.Change.Equal(dec("115")) || !out.Sale.ChangeGiven.Equal(dec("115")) {
		t.Fatalf("change = %s / %s", out.Change, out.Sale.ChangeGiven)
	}

	// Only the cash leg reaches the drawer, already net of change.
	if len(f.ledger.appended) != 1 || !f.ledger.appended[0].Amount.Equal(dec("485")) {
		t.Fatalf("unexpected drawer movements: %+v", f.ledger.appended)
	}
	// The payment breakdown keeps both legs with tendered amounts intact.
	if len(out.Sale.Payments) != 2 {
		t.Fatalf("expected 2 payment rows, got %d", len(out.Sale.Payments))
	}
	cashRow := out.Sale.Payments[1]
	if !cashRow.Amount.Equal(dec("485")) || !cashRow.TenderedAmount.Equal(dec("600")) {
		t.Fatalf("cash row = %+v", cashRow)
	}
}

func TestConfirmInsufficientPayment(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, err := f.svc.Confirm(context.Background(), ConfirmInput{
		BranchID: f.branch,
		Cart: CartInput{
			Lines: []LineInput{{ProductID: f.product.ID, Quantity: 1}},
		},
		Payments: []PaymentInput{{MethodID: f.cash.ID, Amount: dec("1")}},
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeInsufficientPayment {
		t.Fatalf("expected insufficient payment, got %v", err)
	}
	if len(f.store.sales) != 0 || len(f.ledger.appended) != 0 {
		t.Fatal("nothing may persist on rejection")
	}
	if len(f.metrics.rejected) != 1 {
		t.Fatalf("rejected counter = %d", len(f.metrics.rejected))
	}
}

func TestConfirmComboCart(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	burger := models.Product{ID: uuid.New(), SKU: "SKU-B", Name: "burger", UnitPriceNet: dec("60"), TaxRate: decimal.Zero, IsActive: true}
	fries := models.Product{ID: uuid.New(), SKU: "SKU-F", Name: "fries", UnitPriceNet: dec("40"), TaxRate: decimal.Zero, IsActive: true}
	f.addProduct(burger)
	f.addProduct(fries)

	comboID := uuid.New()
	f.addCombo(&models.ComboDefinition{
		ID:            comboID,
		Name:          "meal",
		DiscountKind:  enums.DiscountKindAmount,
		DiscountValue: dec("10"),
		IsActive:      true,
		Items: []models.ComboItem{
			{ID: uuid.New(), ComboID: comboID, ProductID: burger.ID, Quantity: 1, UnitPrice: dec("60")},
			{ID: uuid.New(), ComboID: comboID, ProductID: fries.ID, Quantity: 1, UnitPrice: dec("40")},
		},
	})

	// 10 off a 100 base is 10% on every constituent: 54 + 36 = 90.
	out, err := f.svc.Confirm(context.Background(), ConfirmInput{
		BranchID: f.branch,
		Cart: CartInput{
			Combos: []ComboInput{{ComboID: comboID, Quantity: 1}},
		},
		Payments: []PaymentInput{{MethodID: f.cash.ID, Amount: dec("90")}},
	})
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}

	if !out.Sale.GrandTotal.Equal(dec("90")) {
		t.Fatalf("grand total = %s", out.Sale.GrandTotal)
	}
	if len(out.Sale.Lines) != 2 {
		t.Fatalf("expected 2 expanded lines, got %d", len(out.Sale.Lines))
	}
	for _, line := range out.Sale.Lines {
		if line.ComboID == nil || *line.ComboID != comboID {
			t.Fatalf("expanded line should reference the combo: %+v", line)
		}
		if !line.DiscountPercent.Equal(dec("10")) {
			t.Fatalf("allocated percent = %s", line.DiscountPercent)
		}
	}
}

func TestConfirmUnknownProduct(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, err := f.svc.Confirm(context.Background(), ConfirmInput{
		BranchID: f.branch,
		Cart: CartInput{
			Lines: []LineInput{{ProductID: uuid.New(), Quantity: 1}},
		},
		Payments: []PaymentInput{{MethodID: f.cash.ID, Amount: dec("1")}},
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestConfirmRequiresOpenRegister(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.ledger.appendErr = pkgerrors.New(pkgerrors.CodeNoOpenRegister, "no open register session for the branch")

	_, err := f.svc.Confirm(context.Background(), ConfirmInput{
		BranchID: f.branch,
		Cart: CartInput{
			Lines: []LineInput{{ProductID: f.product.ID, Quantity: 1}},
		},
		Payments: []PaymentInput{{MethodID: f.cash.ID, Amount: dec("121")}},
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNoOpenRegister {
		t.Fatalf("expected no-open-register, got %v", err)
	}
	if len(f.store.sales) != 0 {
		t.Fatal("sale must not persist without a session")
	}
}

func TestVoidSale(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	out, err := f.svc.Confirm(context.Background(), ConfirmInput{
		BranchID: f.branch,
		Cart: CartInput{
			Lines: []LineInput{{ProductID: f.product.ID, Quantity: 1}},
		},
		Payments: []PaymentInput{{MethodID: f.cash.ID, Amount: dec("121")}},
	})
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}

	voided, err := f.svc.Void(context.Background(), out.Sale.ID)
	if err != nil {
		t.Fatalf("void: %v", err)
	}
	if voided.Status != enums.SaleStatusVoided || voided.VoidedAt == nil {
		t.Fatalf("sale not voided: %+v", voided)
	}
	if len(f.ledger.reversed) != 1 || f.ledger.reversed[0] != out.Sale.ID {
		t.Fatalf("ledger reversal missing: %+v", f.ledger.reversed)
	}

	_, err = f.svc.Void(context.Background(), out.Sale.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict on double void, got %v", err)
	}
}

func TestQuoteDoesNotPersist(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	totals, err := f.svc.Quote(context.Background(), CartInput{
		Lines: []LineInput{{ProductID: f.product.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if !totals.GrandTotal.Equal(dec("121")) {
		t.Fatalf("grand total = %s", totals.GrandTotal)
	}
	if len(f.store.sales) != 0 || len(f.ledger.appended) != 0 {
		t.Fatal("quote must not persist anything")
	}
}

