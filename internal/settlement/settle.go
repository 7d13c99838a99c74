// Package settlement turns a grand total and a set of payment rows into the
// final charge, the pending amount, and the change decision. There is exactly
// one authoritative Settle; any debounced figure shown while the operator is
// typing is a presentation cache on top of it, never a second source of truth.
package settlement

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/registra-pos/registra-backend/pkg/errors"
	"github.com/registra-pos/registra-backend/pkg/money"
)

// Method is the engine's projection of a payment-method registry record.
type Method struct {
	ID                uuid.UUID
	Name              string
	DiscountPercent   decimal.Decimal
	AffectsCashDrawer bool
}

// PaymentLine is one tender row as submitted by the operator.
type PaymentLine struct {
	MethodID uuid.UUID
	Amount   decimal.Decimal
}

// Result is the outcome of settling a total against the payment rows.
type Result struct {
	PaymentDiscountTotal decimal.Decimal
	FinalTotal           decimal.Decimal
	Pending              decimal.Decimal
}

// Settle computes the per-method payment discounts over every row, the final
// total, and the pending amount. finalTotal − Σ amounts == pending holds by
// construction.
func Settle(grandTotal decimal.Decimal, rows []PaymentLine, methods map[uuid.UUID]Method) (Result, error) {
	if grandTotal.IsNegative() {
		return Result{}, pkgerrors.New(pkgerrors.CodeValidation, "grand total cannot be negative")
	}

	discountTotal := decimal.Zero
	paid := decimal.Zero
	for _, row := range rows {
		method, ok := methods[row.MethodID]
		if !ok {
			return Result{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method").
				WithDetails(map[string]string{"method_id": row.MethodID.String()})
		}
		if row.Amount.IsNegative() {
			return Result{}, pkgerrors.New(pkgerrors.CodeValidation, "payment amount cannot be negative")
		}
		discountTotal = discountTotal.Add(money.PercentOf(row.Amount, method.DiscountPercent))
		paid = paid.Add(row.Amount)
	}

	finalTotal := money.Round2(grandTotal.Sub(discountTotal))
	return Result{
		PaymentDiscountTotal: discountTotal,
		FinalTotal:           finalTotal,
		Pending:              money.Round2(finalTotal.Sub(paid)),
	}, nil
}

// SettledRow is one persisted payment row: the tendered amount as submitted
// and the amount actually kept after any change adjustment.
type SettledRow struct {
	MethodID       uuid.UUID
	TenderedAmount decimal.Decimal
	Amount         decimal.Decimal
}

// ConfirmInput carries the live (non-debounced) state used at confirmation.
// ChangeRowIndex designates which row absorbs change on overpayment; when
// nil, the last cash-drawer-affecting row is used.
type ConfirmInput struct {
	GrandTotal     decimal.Decimal
	Rows           []PaymentLine
	Methods        map[uuid.UUID]Method
	ChangeRowIndex *int
}

// Confirmation is the committed settlement: adjusted rows plus the
// customer-facing change to surface before the sale is persisted.
type Confirmation struct {
	Result Result
	Rows   []SettledRow
	Change decimal.Decimal
}

// Confirm applies the decision logic at confirmation time. Underpayment and
// cash-free overpayment are rejected with the exact missing/excess amount;
// an allowed overpayment reduces the designated cash row by the change,
// clamped at zero.
func Confirm(in ConfirmInput) (Confirmation, error) {
	if len(in.Rows) == 0 {
		return Confirmation{}, pkgerrors.New(pkgerrors.CodeValidation, "at least one payment row is required")
	}

	result, err := Settle(in.GrandTotal, in.Rows, in.Methods)
	if err != nil {
		return Confirmation{}, err
	}

	rows := make([]SettledRow, len(in.Rows))
	for i, row := range in.Rows {
		rows[i] = SettledRow{
			MethodID:       row.MethodID,
			TenderedAmount: row.Amount,
			Amount:         row.Amount,
		}
	}

	switch {
	case result.Pending.IsZero():
		return Confirmation{Result: result, Rows: rows, Change: decimal.Zero}, nil

	case result.Pending.IsPositive():
		return Confirmation{}, pkgerrors.New(pkgerrors.CodeInsufficientPayment, "payment does not cover the total").
			WithDetails(map[string]string{"missing": result.Pending.StringFixed(2)})

	default:
		change := result.Pending.Abs()
		idx, err := changeRow(in)
		if err != nil {
			return Confirmation{}, err
		}
		rows[idx].Amount = money.ClampNonNegative(rows[idx].TenderedAmount.Sub(change))
		return Confirmation{Result: result, Rows: rows, Change: change}, nil
	}
}

// changeRow resolves which row absorbs change: the caller-designated row
// when provided, otherwise the last cash-affecting row. Overpayment with no
// cash-affecting row at all is rejected, since non-cash tenders are exact.
func changeRow(in ConfirmInput) (int, error) {
	if in.ChangeRowIndex != nil {
		idx := *in.ChangeRowIndex
		if idx < 0 || idx >= len(in.Rows) {
			return 0, pkgerrors.New(pkgerrors.CodeValidation, "change row index out of range")
		}
		if !in.Methods[in.Rows[idx].MethodID].AffectsCashDrawer {
			return 0, pkgerrors.New(pkgerrors.CodeChangeNotAllowed, "designated change row is not a cash tender")
		}
		return idx, nil
	}

	for i := len(in.Rows) - 1; i >= 0; i-- {
		if in.Methods[in.Rows[i].MethodID].AffectsCashDrawer {
			return i, nil
		}
	}
	return 0, pkgerrors.New(pkgerrors.CodeChangeNotAllowed, "overpayment requires a cash payment leg")
}
