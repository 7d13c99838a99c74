package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/registra-pos/registra-backend/api/responses"
	"github.com/registra-pos/registra-backend/api/validators"
	"github.com/registra-pos/registra-backend/internal/pricing"
	salessvc "github.com/registra-pos/registra-backend/internal/sales"
	"github.com/registra-pos/registra-backend/pkg/db/models"
	"github.com/registra-pos/registra-backend/pkg/enums"
	pkgerrors "github.com/registra-pos/registra-backend/pkg/errors"
	"github.com/registra-pos/registra-backend/pkg/logger"
)

// SaleQuote prices a cart without persisting anything.
func SaleQuote(svc salessvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sales service unavailable"))
			return
		}

		var payload quoteRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := payload.Cart.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		totals, err := svc.Quote(r.Context(), cart)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newTotalsResponse(*totals))
	}
}

// SaleConfirm commits a sale: settles payments, persists it, and appends the
// drawer movements in one transaction.
func SaleConfirm(svc salessvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sales service unavailable"))
			return
		}

		var payload confirmRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out, err := svc.Confirm(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, confirmResponse{
			Sale:   newSaleResponse(out.Sale),
			Totals: newTotalsResponse(out.Totals),
			Change: out.Change,
		})
	}
}

// SaleVoid reverses a committed sale and its drawer movements.
func SaleVoid(svc salessvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sales service unavailable"))
			return
		}

		saleID, err := validators.ParsePathUUID(r, "saleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sale, err := svc.Void(r.Context(), saleID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newSaleResponse(sale))
	}
}

// SaleDetail fetches a sale with its lines and payment breakdown.
func SaleDetail(svc salessvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sales service unavailable"))
			return
		}

		saleID, err := validators.ParsePathUUID(r, "saleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sale, err := svc.GetByID(r.Context(), saleID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newSaleResponse(sale))
	}
}

type discountPayload struct {
	Kind  string          `json:"kind" validate:"required"`
	Value decimal.Decimal `json:"value"`
}

func (p *discountPayload) toDiscount() (pricing.Discount, error) {
	if p == nil {
		return pricing.NoDiscount(), nil
	}
	kind, err := enums.ParseDiscountKind(p.Kind)
	if err != nil {
		return pricing.Discount{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount kind")
	}
	return pricing.Discount{Kind: kind, Value: p.Value}, nil
}

type linePayload struct {
	ProductID uuid.UUID        `json:"product_id" validate:"required"`
	Quantity  int              `json:"quantity" validate:"required,min=1"`
	Discount  *discountPayload `json:"discount,omitempty"`
}

type extraPayload struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
}

type comboPayload struct {
	ComboID  uuid.UUID      `json:"combo_id" validate:"required"`
	Quantity int            `json:"quantity" validate:"required,min=1"`
	Extras   []extraPayload `json:"extras,omitempty" validate:"omitempty,dive"`
}

type cartPayload struct {
	Lines          []linePayload    `json:"lines" validate:"omitempty,dive"`
	Combos         []comboPayload   `json:"combos,omitempty" validate:"omitempty,dive"`
	GlobalDiscount *discountPayload `json:"global_discount,omitempty"`
}

func (p cartPayload) toInput() (salessvc.CartInput, error) {
	cart := salessvc.CartInput{
		Lines:  make([]salessvc.LineInput, 0, len(p.Lines)),
		Combos: make([]salessvc.ComboInput, 0, len(p.Combos)),
	}

	for _, line := range p.Lines {
		discount, err := line.Discount.toDiscount()
		if err != nil {
			return salessvc.CartInput{}, err
		}
		cart.Lines = append(cart.Lines, salessvc.LineInput{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Discount:  discount,
		})
	}

	for _, combo := range p.Combos {
		extras := make([]salessvc.ExtraInput, 0, len(combo.Extras))
		for _, extra := range combo.Extras {
			extras = append(extras, salessvc.ExtraInput{
				ProductID: extra.ProductID,
				Quantity:  extra.Quantity,
			})
		}
		cart.Combos = append(cart.Combos, salessvc.ComboInput{
			ComboID:  combo.ComboID,
			Quantity: combo.Quantity,
			Extras:   extras,
		})
	}

	global, err := p.GlobalDiscount.toDiscount()
	if err != nil {
		return salessvc.CartInput{}, err
	}
	cart.GlobalDiscount = global

	return cart, nil
}

type quoteRequest struct {
	Cart cartPayload `json:"cart" validate:"required"`
}

type paymentPayload struct {
	MethodID uuid.UUID       `json:"method_id" validate:"required"`
	Amount   decimal.Decimal `json:"amount" validate:"required"`
}

type confirmRequest struct {
	BranchID       uuid.UUID        `json:"branch_id" validate:"required"`
	Cart           cartPayload      `json:"cart" validate:"required"`
	Payments       []paymentPayload `json:"payments" validate:"required,min=1,dive"`
	ChangeRowIndex *int             `json:"change_row_index,omitempty"`
}

func (p confirmRequest) toInput() (salessvc.ConfirmInput, error) {
	cart, err := p.Cart.toInput()
	if err != nil {
		return salessvc.ConfirmInput{}, err
	}

	payments := make([]salessvc.PaymentInput, 0, len(p.Payments))
	for _, row := range p.Payments {
		payments = append(payments, salessvc.PaymentInput{
			MethodID: row.MethodID,
			Amount:   row.Amount,
		})
	}

	return salessvc.ConfirmInput{
		BranchID:       p.BranchID,
		Cart:           cart,
		Payments:       payments,
		ChangeRowIndex: p.ChangeRowIndex,
	}, nil
}

type lineTotalsResponse struct {
	ProductID     uuid.UUID       `json:"product_id"`
	ComboID       *uuid.UUID      `json:"combo_id,omitempty"`
	Quantity      int             `json:"quantity"`
	DiscountedNet decimal.Decimal `json:"discounted_net"`
	LineTax       decimal.Decimal `json:"line_tax"`
	LineGross     decimal.Decimal `json:"line_gross"`
}

type totalsResponse struct {
	Lines                []lineTotalsResponse `json:"lines"`
	ItemDiscountTotal    decimal.Decimal      `json:"item_discount_total"`
	SubtotalNet          decimal.Decimal      `json:"subtotal_net"`
	TotalTax             decimal.Decimal      `json:"total_tax"`
	GlobalDiscountAmount decimal.Decimal      `json:"global_discount_amount"`
	GrandTotal           decimal.Decimal      `json:"grand_total"`
}

func newTotalsResponse(totals pricing.Totals) totalsResponse {
	lines := make([]lineTotalsResponse, 0, len(totals.Lines))
	for _, line := range totals.Lines {
		lines = append(lines, lineTotalsResponse{
			ProductID:     line.Line.ProductID,
			ComboID:       line.Line.ComboID,
			Quantity:      line.Line.Quantity,
			DiscountedNet: line.DiscountedNet,
			LineTax:       line.LineTax,
			LineGross:     line.LineGross,
		})
	}
	return totalsResponse{
		Lines:                lines,
		ItemDiscountTotal:    totals.ItemDiscountTotal,
		SubtotalNet:          totals.SubtotalNet,
		TotalTax:             totals.TotalTax,
		GlobalDiscountAmount: totals.GlobalDiscountAmount,
		GrandTotal:           totals.GrandTotal,
	}
}

type saleLineResponse struct {
	ID              uuid.UUID       `json:"id"`
	ProductID       uuid.UUID       `json:"product_id"`
	ComboID         *uuid.UUID      `json:"combo_id,omitempty"`
	Quantity        int             `json:"quantity"`
	UnitPriceNet    decimal.Decimal `json:"unit_price_net"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	LineGross       decimal.Decimal `json:"line_gross"`
}

type salePaymentResponse struct {
	ID              uuid.UUID       `json:"id"`
	PaymentMethodID uuid.UUID       `json:"payment_method_id"`
	Amount          decimal.Decimal `json:"amount"`
	TenderedAmount  decimal.Decimal `json:"tendered_amount"`
}

type saleResponse struct {
	ID        uuid.UUID        `json:"id"`
	BranchID  uuid.UUID        `json:"branch_id"`
	SessionID uuid.UUID        `json:"session_id"`
	Status    enums.SaleStatus `json:"status"`

	ItemDiscountTotal    decimal.Decimal `json:"item_discount_total"`
	SubtotalNet          decimal.Decimal `json:"subtotal_net"`
	TotalTax             decimal.Decimal `json:"total_tax"`
	GlobalDiscountAmount decimal.Decimal `json:"global_discount_amount"`
	GrandTotal           decimal.Decimal `json:"grand_total"`
	PaymentDiscountTotal decimal.Decimal `json:"payment_discount_total"`
	FinalTotal           decimal.Decimal `json:"final_total"`
	ChangeGiven          decimal.Decimal `json:"change_given"`

	CommittedAt time.Time  `json:"committed_at"`
	VoidedAt    *time.Time `json:"voided_at,omitempty"`

	Lines    []saleLineResponse    `json:"lines"`
	Payments []salePaymentResponse `json:"payments"`
}

type confirmResponse struct {
	Sale   saleResponse    `json:"sale"`
	Totals totalsResponse  `json:"totals"`
	Change decimal.Decimal `json:"change"`
}

func newSaleResponse(sale *models.Sale) saleResponse {
	resp := saleResponse{
		ID:                   sale.ID,
		BranchID:             sale.BranchID,
		SessionID:            sale.SessionID,
		Status:               sale.Status,
		ItemDiscountTotal:    sale.ItemDiscountTotal,
		SubtotalNet:          sale.SubtotalNet,
		TotalTax:             sale.TotalTax,
		GlobalDiscountAmount: sale.GlobalDiscountAmount,
		GrandTotal:           sale.GrandTotal,
		PaymentDiscountTotal: sale.PaymentDiscountTotal,
		FinalTotal:           sale.FinalTotal,
		ChangeGiven:          sale.ChangeGiven,
		CommittedAt:          sale.CommittedAt,
		VoidedAt:             sale.VoidedAt,
		Lines:                make([]saleLineResponse, 0, len(sale.Lines)),
		Payments:             make([]salePaymentResponse, 0, len(sale.Payments)),
	}
	for _, line := range sale.Lines {
		resp.Lines = append(resp.Lines, saleLineResponse{
			ID:              line.ID,
			ProductID:       line.ProductID,
			ComboID:         line.ComboID,
			Quantity:        line.Quantity,
			UnitPriceNet:    line.UnitPriceNet,
			DiscountPercent: line.DiscountPercent,
			LineGross:       line.LineGross,
		})
	}
	for _, payment := range sale.Payments {
		resp.Payments = append(resp.Payments, salePaymentResponse{
			ID:              payment.ID,
			PaymentMethodID: payment.PaymentMethodID,
			Amount:          payment.Amount,
			TenderedAmount:  payment.TenderedAmount,
		})
	}
	return resp
}
