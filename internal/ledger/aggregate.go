package ledger

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"drawerledger/internal/model"
)

// debtPaymentHint identifies debt collections recorded before the dedicated
// cash_receipt category existed. Compatibility shim — removing it would
// misclassify historical entries during a migration.
const debtPaymentHint = "debt payment"

// Summary holds per-category totals plus the derived aggregates for a window.
type Summary struct {
	Sales             decimal.Decimal `json:"sales"`
	Returns           decimal.Decimal `json:"returns"`
	Expenses          decimal.Decimal `json:"expenses"`
	SupplierPayments  decimal.Decimal `json:"supplier_payments"`
	DebtCollections   decimal.Decimal `json:"debt_collections"`
	SalaryWithdrawals decimal.Decimal `json:"salary_withdrawals"`

	NetSales    decimal.Decimal `json:"net_sales"`
	NetCashFlow decimal.Decimal `json:"net_cash_flow"`
	NetEarnings decimal.Decimal `json:"net_earnings"`
}

// Summarize classifies entries into reporting buckets and sums them.
// Regular movements sum their magnitude; modification-tagged movements add
// their signed amount on top, modeling "this value was corrected after the
// fact". Voided entries are excluded.
func Summarize(entries []model.LedgerEntry) Summary {
	s := Summary{
		Sales:             decimal.Zero,
		Returns:           decimal.Zero,
		Expenses:          decimal.Zero,
		SupplierPayments:  decimal.Zero,
		DebtCollections:   decimal.Zero,
		SalaryWithdrawals: decimal.Zero,
	}

	for _, e := range entries {
		if e.Voided {
			continue
		}
		modified := e.Action != nil && *e.Action == ActionModification
		amount := e.Amount.Abs()
		if modified {
			amount = e.Amount // signed
		}

		// Debt collections win over the plain category switch: the
		// description heuristic must catch entries of any category.
		if isDebtCollection(e) {
			s.DebtCollections = s.DebtCollections.Add(amount)
			continue
		}

		switch e.Category {
		case CategoryCashSale:
			s.Sales = s.Sales.Add(amount)
		case CategoryReturn:
			s.Returns = s.Returns.Add(amount)
		case CategoryExpense:
			s.Expenses = s.Expenses.Add(amount)
		case CategorySupplierPayment:
			s.SupplierPayments = s.SupplierPayments.Add(amount)
		case CategorySalaryWithdrawal:
			s.SalaryWithdrawals = s.SalaryWithdrawals.Add(amount)
		}
	}

	outflows := s.Expenses.Add(s.SalaryWithdrawals).Add(s.SupplierPayments)
	s.NetSales = s.Sales.Sub(s.Returns)
	s.NetCashFlow = s.Sales.Add(s.DebtCollections).Sub(outflows.Add(s.Returns))
	s.NetEarnings = s.Sales.Sub(s.Returns).Sub(outflows)
	return s
}

// SummarizeWindow restricts Summarize to entries within [from, to).
func SummarizeWindow(entries []model.LedgerEntry, from, to time.Time) Summary {
	var windowed []model.LedgerEntry
	for _, e := range entries {
		if e.CreatedAt.Before(from) || !e.CreatedAt.Before(to) {
			continue
		}
		windowed = append(windowed, e)
	}
	return Summarize(windowed)
}

// SummarizeDay restricts Summarize to entries on the calendar day of ref.
func SummarizeDay(entries []model.LedgerEntry, ref time.Time) Summary {
	start := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, ref.Location())
	return SummarizeWindow(entries, start, start.AddDate(0, 0, 1))
}

func isDebtCollection(e model.LedgerEntry) bool {
	if e.Category == CategoryCashReceipt {
		return true
	}
	return strings.Contains(strings.ToLower(e.Description), debtPaymentHint)
}
