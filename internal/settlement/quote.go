package settlement

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/registra-pos/registra-backend/pkg/money"
)

// Quote holds the in-progress payment entry state for one sale. The payment
// discount total is frozen between structural changes: editing a row's amount
// must not make the displayed total jump while the operator is typing, so the
// discount recomputes only on base-total changes, row add/remove, or a row's
// method change. The pending amount always tracks the live amounts.
type Quote struct {
	grandTotal     decimal.Decimal
	rows           []PaymentLine
	methods        map[uuid.UUID]Method
	frozenDiscount decimal.Decimal
}

// NewQuote starts payment entry for the given grand total.
func NewQuote(grandTotal decimal.Decimal, methods map[uuid.UUID]Method) *Quote {
	q := &Quote{
		grandTotal: grandTotal,
		methods:    methods,
	}
	q.recomputeDiscount()
	return q
}

// SetBaseTotal replaces the grand total. Structural trigger.
func (q *Quote) SetBaseTotal(grandTotal decimal.Decimal) {
	q.grandTotal = grandTotal
	q.recomputeDiscount()
}

// AddRow appends a payment row. Structural trigger.
func (q *Quote) AddRow(row PaymentLine) {
	q.rows = append(q.rows, row)
	q.recomputeDiscount()
}

// RemoveRow deletes the row at index. Structural trigger.
func (q *Quote) RemoveRow(index int) {
	if index < 0 || index >= len(q.rows) {
		return
	}
	q.rows = append(q.rows[:index], q.rows[index+1:]...)
	q.recomputeDiscount()
}

// SetRowMethod switches the tender of an existing row. Structural trigger.
func (q *Quote) SetRowMethod(index int, methodID uuid.UUID) {
	if index < 0 || index >= len(q.rows) {
		return
	}
	q.rows[index].MethodID = methodID
	q.recomputeDiscount()
}

// SetRowAmount edits a row's amount. Deliberately NOT a recompute trigger:
// the frozen discount stays as-is until the next structural change.
func (q *Quote) SetRowAmount(index int, amount decimal.Decimal) {
	if index < 0 || index >= len(q.rows) {
		return
	}
	q.rows[index].Amount = amount
}

// Rows returns a copy of the current payment rows.
func (q *Quote) Rows() []PaymentLine {
	return append([]PaymentLine{}, q.rows...)
}

// PaymentDiscountTotal returns the frozen discount figure.
func (q *Quote) PaymentDiscountTotal() decimal.Decimal {
	return q.frozenDiscount
}

// FinalTotal is the grand total net of the frozen discount.
func (q *Quote) FinalTotal() decimal.Decimal {
	return money.Round2(q.grandTotal.Sub(q.frozenDiscount))
}

// Pending reports how much is still owed (positive) or overpaid (negative)
// against the live row amounts.
func (q *Quote) Pending() decimal.Decimal {
	paid := decimal.Zero
	for _, row := range q.rows {
		paid = paid.Add(row.Amount)
	}
	return money.Round2(q.FinalTotal().Sub(paid))
}

// Confirm runs the authoritative settlement over the live rows. The frozen
// display figure plays no part here: confirmation always re-settles.
func (q *Quote) Confirm(changeRowIndex *int) (Confirmation, error) {
	return Confirm(ConfirmInput{
		GrandTotal:     q.grandTotal,
		Rows:           q.Rows(),
		Methods:        q.methods,
		ChangeRowIndex: changeRowIndex,
	})
}

func (q *Quote) recomputeDiscount() {
	total := decimal.Zero
	for _, row := range q.rows {
		method, ok := q.methods[row.MethodID]
		if !ok {
			continue
		}
		total = total.Add(money.PercentOf(row.Amount, method.DiscountPercent))
	}
	q.frozenDiscount = total
}
