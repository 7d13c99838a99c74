package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/registra-pos/registra-backend/internal/combo"
	"github.com/registra-pos/registra-backend/internal/pricing"
	"github.com/registra-pos/registra-backend/internal/register"
	"github.com/registra-pos/registra-backend/internal/settlement"
	"github.com/registra-pos/registra-backend/pkg/db/models"
	"github.com/registra-pos/registra-backend/pkg/enums"
	pkgerrors "github.com/registra-pos/registra-backend/pkg/errors"
	"github.com/registra-pos/registra-backend/pkg/logger"
	"github.com/registra-pos/registra-backend/pkg/money"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productLoader interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
}

type comboLoader interface {
	FindActiveByID(ctx context.Context, id uuid.UUID) (*models.ComboDefinition, error)
}

type methodProvider interface {
	SettlementMethods(ctx context.Context) (map[uuid.UUID]settlement.Method, error)
}

type ledger interface {
	AppendSaleMovements(ctx context.Context, tx *gorm.DB, branchID, saleID uuid.UUID, rows []register.SaleMovementRow) (uuid.UUID, error)
	ReverseSaleMovements(ctx context.Context, tx *gorm.DB, branchID, saleID uuid.UUID) error
}

// LineInput is one directly selected product.
type LineInput struct {
	ProductID uuid.UUID
	Quantity  int
	Discount  pricing.Discount
}

// ExtraInput is an add-on selection inside a combo.
type ExtraInput struct {
	ProductID uuid.UUID
	Quantity  int
}

// ComboInput selects a combo offer, optionally with extras.
type ComboInput struct {
	ComboID  uuid.UUID
	Quantity int
	Extras   []ExtraInput
}

// CartInput is the full cart as rung up on the POS.
type CartInput struct {
	Lines          []LineInput
	Combos         []ComboInput
	GlobalDiscount pricing.Discount
}

// PaymentInput is one tender row.
type PaymentInput struct {
	MethodID uuid.UUID
	Amount   decimal.Decimal
}

// ConfirmInput carries everything needed to commit a sale.
type ConfirmInput struct {
	BranchID       uuid.UUID
	Cart           CartInput
	Payments       []PaymentInput
	ChangeRowIndex *int
}

// ConfirmOutput is the committed sale plus the change to hand back.
type ConfirmOutput struct {
	Sale   *models.Sale
	Totals pricing.Totals
	Change decimal.Decimal
}

// Service exposes checkout operations.
type Service interface {
	Quote(ctx context.Context, cart CartInput) (*pricing.Totals, error)
	Confirm(ctx context.Context, input ConfirmInput) (*ConfirmOutput, error)
	Void(ctx context.Context, saleID uuid.UUID) (*models.Sale, error)
	GetByID(ctx context.Context, saleID uuid.UUID) (*models.Sale, error)
}

type service struct {
	repo     Store
	tx       txRunner
	products productLoader
	combos   comboLoader
	methods  methodProvider
	ledger   ledger
	logg     *logger.Logger
	metrics  Recorder
	now      func() time.Time
}

// NewService builds a sales service backed by the provided stack.
func NewService(repo Store, tx txRunner, products productLoader, combos comboLoader, methods methodProvider, drawer ledger, logg *logger.Logger, metrics Recorder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("sales store required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if combos == nil {
		return nil, fmt.Errorf("combo loader required")
	}
	if methods == nil {
		return nil, fmt.Errorf("method provider required")
	}
	if drawer == nil {
		return nil, fmt.Errorf("register ledger required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if metrics == nil {
		metrics = NopRecorder{}
	}
	return &service{
		repo:     repo,
		tx:       tx,
		products: products,
		combos:   combos,
		methods:  methods,
		ledger:   drawer,
		logg:     logg,
		metrics:  metrics,
		now:      time.Now,
	}, nil
}

// Quote prices the cart without touching the register or persisting
// anything. The POS uses it for the running total display.
func (s *service) Quote(ctx context.Context, cart CartInput) (*pricing.Totals, error) {
	lines, err := s.buildCartLines(ctx, cart)
	if err != nil {
		return nil, err
	}
	totals, err := pricing.ComputeTotals(lines, cart.GlobalDiscount)
	if err != nil {
		return nil, err
	}
	return &totals, nil
}

// Confirm prices the cart, settles the payments and commits the sale in one
// transaction together with its cash movements. The register session lock
// inside the transaction guarantees the movements land before any concurrent
// close, or the whole sale fails.
func (s *service) Confirm(ctx context.Context, input ConfirmInput) (*ConfirmOutput, error) {
	if input.BranchID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "branch id is required")
	}

	start := time.Now()
	defer func() {
		s.metrics.ObserveConfirmDuration(time.Since(start))
	}()

	lines, err := s.buildCartLines(ctx, input.Cart)
	if err != nil {
		return nil, err
	}
	totals, err := pricing.ComputeTotals(lines, input.Cart.GlobalDiscount)
	if err != nil {
		return nil, err
	}

	methodTable, err := s.methods.SettlementMethods(ctx)
	if err != nil {
		return nil, err
	}
	paymentRows := make([]settlement.PaymentLine, len(input.Payments))
	for i, p := range input.Payments {
		paymentRows[i] = settlement.PaymentLine{MethodID: p.MethodID, Amount: p.Amount}
	}
	conf, err := settlement.Confirm(settlement.ConfirmInput{
		GrandTotal:     totals.GrandTotal,
		Rows:           paymentRows,
		Methods:        methodTable,
		ChangeRowIndex: input.ChangeRowIndex,
	})
	if err != nil {
		s.metrics.SaleRejected(rejectionReason(err))
		return nil, err
	}

	sale := s.buildSale(input.BranchID, totals, conf)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		movements := drawerMovements(conf.Rows, methodTable)
		sessionID, err := s.ledger.AppendSaleMovements(ctx, tx, input.BranchID, sale.ID, movements)
		if err != nil {
			return err
		}
		sale.SessionID = sessionID
		if err := s.repo.WithTx(tx).Create(ctx, sale); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create sale")
		}
		return nil
	})
	if err != nil {
		s.metrics.SaleRejected(rejectionReason(err))
		return nil, err
	}

	ctx = s.logg.WithSaleID(s.logg.WithBranchID(ctx, input.BranchID.String()), sale.ID.String())
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"grand_total": totals.GrandTotal.StringFixed(2),
		"final_total": conf.Result.FinalTotal.StringFixed(2),
		"change":      conf.Change.StringFixed(2),
	}), "sale committed")
	s.metrics.SaleCommitted()

	return &ConfirmOutput{Sale: sale, Totals: totals, Change: conf.Change}, nil
}

// Void reverses a committed sale: the ledger gains inverse movements and the
// sale flips to voided. The original rows are never edited.
func (s *service) Void(ctx context.Context, saleID uuid.UUID) (*models.Sale, error) {
	var sale *models.Sale
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var err error
		sale, err = repo.LockByID(ctx, saleID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "sale not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup sale")
		}
		if sale.Status == enums.SaleStatusVoided {
			return pkgerrors.New(pkgerrors.CodeConflict, "sale already voided")
		}

		if err := s.ledger.ReverseSaleMovements(ctx, tx, sale.BranchID, sale.ID); err != nil {
			return err
		}

		voidedAt := s.now()
		sale.Status = enums.SaleStatusVoided
		sale.VoidedAt = &voidedAt
		if err := repo.Update(ctx, sale); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "void sale")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithSaleID(ctx, saleID.String()), "sale voided")
	s.metrics.SaleVoided()
	return sale, nil
}

// GetByID returns the sale with lines and payments.
func (s *service) GetByID(ctx context.Context, saleID uuid.UUID) (*models.Sale, error) {
	sale, err := s.repo.FindByID(ctx, saleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sale not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find sale")
	}
	return sale, nil
}

// buildCartLines resolves catalog data and expands combos into plain lines.
func (s *service) buildCartLines(ctx context.Context, cart CartInput) ([]pricing.CartLine, error) {
	if len(cart.Lines) == 0 && len(cart.Combos) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart must contain at least one line")
	}

	defs := make([]*models.ComboDefinition, len(cart.Combos))
	idSet := map[uuid.UUID]struct{}{}
	for _, line := range cart.Lines {
		idSet[line.ProductID] = struct{}{}
	}
	for i, c := range cart.Combos {
		def, err := s.combos.FindActiveByID(ctx, c.ComboID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown or inactive combo").
					WithDetails(map[string]string{"combo_id": c.ComboID.String()})
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load combo")
		}
		defs[i] = def
		for _, item := range def.Items {
			idSet[item.ProductID] = struct{}{}
		}
		for _, extra := range c.Extras {
			idSet[extra.ProductID] = struct{}{}
		}
	}

	ids := make([]uuid.UUID, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}
	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load products")
	}

	var lines []pricing.CartLine
	for _, line := range cart.Lines {
		product, ok := products[line.ProductID]
		if !ok {
			return nil, unknownProduct(line.ProductID)
		}
		lines = append(lines, pricing.CartLine{
			ProductID:    product.ID,
			Quantity:     line.Quantity,
			UnitPriceNet: product.UnitPriceNet,
			TaxRate:      product.TaxRate,
			Discount:     line.Discount,
		})
	}

	for i, c := range cart.Combos {
		def := defs[i]
		items := make([]combo.Item, 0, len(def.Items))
		for _, item := range def.Items {
			product, ok := products[item.ProductID]
			if !ok {
				return nil, unknownProduct(item.ProductID)
			}
			items = append(items, combo.Item{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				UnitPrice: item.UnitPrice,
				TaxRate:   product.TaxRate,
			})
		}
		extras := make([]combo.Item, 0, len(c.Extras))
		for _, extra := range c.Extras {
			product, ok := products[extra.ProductID]
			if !ok {
				return nil, unknownProduct(extra.ProductID)
			}
			extras = append(extras, combo.Item{
				ProductID: extra.ProductID,
				Quantity:  extra.Quantity,
				UnitPrice: product.UnitPriceNet,
				TaxRate:   product.TaxRate,
			})
		}

		expanded, err := combo.Expand(combo.FromModel(def.ID, def.DiscountKind, def.DiscountValue, items), extras, c.Quantity)
		if err != nil {
			return nil, err
		}
		lines = append(lines, expanded...)
	}

	return lines, nil
}

func (s *service) buildSale(branchID uuid.UUID, totals pricing.Totals, conf settlement.Confirmation) *models.Sale {
	sale := &models.Sale{
		ID:                   uuid.New(),
		BranchID:             branchID,
		Status:               enums.SaleStatusCommitted,
		ItemDiscountTotal:    money.Round2(totals.ItemDiscountTotal),
		SubtotalNet:          money.Round2(totals.SubtotalNet),
		TotalTax:             money.Round2(totals.TotalTax),
		GlobalDiscountAmount: money.Round2(totals.GlobalDiscountAmount),
		GrandTotal:           totals.GrandTotal,
		PaymentDiscountTotal: money.Round2(conf.Result.PaymentDiscountTotal),
		FinalTotal:           conf.Result.FinalTotal,
		ChangeGiven:          conf.Change,
		CommittedAt:          s.now(),
	}

	for _, lt := range totals.Lines {
		line := models.SaleLine{
			ID:              uuid.New(),
			ProductID:       lt.Line.ProductID,
			ComboID:         lt.Line.ComboID,
			Quantity:        lt.Line.Quantity,
			UnitPriceNet:    lt.Line.UnitPriceNet,
			DiscountedNet:   lt.DiscountedNet.Round(4),
			TaxRate:         lt.Line.TaxRate,
			LineTax:         lt.LineTax.Round(4),
			LineGross:       money.Round2(lt.LineGross),
			DiscountPercent: effectivePercent(lt.Line),
		}
		sale.Lines = append(sale.Lines, line)
	}

	for _, row := range conf.Rows {
		sale.Payments = append(sale.Payments, models.SalePayment{
			ID:              uuid.New(),
			PaymentMethodID: row.MethodID,
			Amount:          row.Amount,
			TenderedAmount:  row.TenderedAmount,
		})
	}

	return sale
}

// effectivePercent reports the line discount as a percent of the unit price,
// regardless of how it was expressed.
func effectivePercent(line pricing.CartLine) decimal.Decimal {
	if line.Discount.IsZero() || line.UnitPriceNet.IsZero() {
		return decimal.Zero
	}
	off := line.Discount.AmountOff(line.UnitPriceNet)
	return money.Round2(money.RatioAsPercent(off.Div(line.UnitPriceNet)))
}

// drawerMovements keeps only the payment legs that put cash in the drawer.
func drawerMovements(rows []settlement.SettledRow, methodTable map[uuid.UUID]settlement.Method) []register.SaleMovementRow {
	var out []register.SaleMovementRow
	for _, row := range rows {
		if !methodTable[row.MethodID].AffectsCashDrawer {
			continue
		}
		out = append(out, register.SaleMovementRow{
			PaymentMethodID: row.MethodID,
			Amount:          row.Amount,
		})
	}
	return out
}

func unknownProduct(id uuid.UUID) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "unknown or inactive product").
		WithDetails(map[string]string{"product_id": id.String()})
}

func rejectionReason(err error) string {
	if typed := pkgerrors.As(err); typed != nil {
		return string(typed.Code())
	}
	return string(pkgerrors.CodeInternal)
}
