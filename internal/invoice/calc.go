package invoice

import "github.com/shopspring/decimal"

type Status string

const (
	StatusUnpaid  Status = "unpaid"
	StatusPartial Status = "partial"
	StatusPaid    Status = "paid"
)

type Totals struct {
	GrossTotal         decimal.Decimal `json:"gross_total"`
	TotalDiscount      decimal.Decimal `json:"total_discount"`
	SubTotal           decimal.Decimal `json:"sub_total"`
	SettlementDiscount decimal.Decimal `json:"settlement_discount"`
	FinalPayable       decimal.Decimal `json:"final_payable"`
	TotalPaid          decimal.Decimal `json:"total_paid"`
	BalanceDue         decimal.Decimal `json:"balance_due"`
	Status             Status          `json:"status"`
}

// Calculate derives every invoice total from its lines, payments and the
// settlement discount.
func Calculate(services []ServiceLine, payments []Payment, settlementDiscount decimal.Decimal) Totals {
	t := Totals{
		GrossTotal:         decimal.Zero,
		TotalDiscount:      decimal.Zero,
		TotalPaid:          decimal.Zero,
		SettlementDiscount: settlementDiscount,
	}

	for _, s := range services {
		t.GrossTotal = t.GrossTotal.Add(s.Charges)
		t.TotalDiscount = t.TotalDiscount.Add(s.Discount)
	}
	for _, p := range payments {
		t.TotalPaid = t.TotalPaid.Add(p.Amount)
	}

	t.SubTotal = t.GrossTotal.Sub(t.TotalDiscount)
	t.FinalPayable = t.SubTotal.Sub(settlementDiscount)
	t.BalanceDue = t.FinalPayable.Sub(t.TotalPaid)
	t.Status = DeriveStatus(t.FinalPayable, t.TotalPaid, t.BalanceDue)

	return t
}

// DeriveStatus: paid when nothing is due on a positive bill, partial when
// something was paid and something is still due, unpaid otherwise.
func DeriveStatus(finalPayable, totalPaid, balanceDue decimal.Decimal) Status {
	switch {
	case balanceDue.IsZero() && finalPayable.IsPositive():
		return StatusPaid
	case totalPaid.IsPositive() && balanceDue.IsPositive():
		return StatusPartial
	}
	return StatusUnpaid
}

// LineSubTotal is charges less discount for one service line.
func LineSubTotal(s ServiceLine) decimal.Decimal {
	return s.Charges.Sub(s.Discount)
}
