package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"drawerledger/internal/model"
)

func TestSummarizeBuckets(t *testing.T) {
	entries := []model.LedgerEntry{
		entry(CategoryOpen, 100, 0),
		entry(CategoryCashSale, 200, 1),
		entry(CategoryCashSale, 300, 2),
		entry(CategoryReturn, 50, 3),
		entry(CategoryExpense, 40, 4),
		entry(CategorySupplierPayment, 60, 5),
		entry(CategoryCashReceipt, 25, 6),
		entry(CategorySalaryWithdrawal, 80, 7),
	}
	s := Summarize(entries)

	assert.Equal(t, "500", s.Sales.String())
	assert.Equal(t, "50", s.Returns.String())
	assert.Equal(t, "40", s.Expenses.String())
	assert.Equal(t, "60", s.SupplierPayments.String())
	assert.Equal(t, "25", s.DebtCollections.String())
	assert.Equal(t, "80", s.SalaryWithdrawals.String())

	// netSales = 500 - 50
	assert.Equal(t, "450", s.NetSales.String())
	// netCashFlow = 500 + 25 - (40 + 80 + 60 + 50)
	assert.Equal(t, "295", s.NetCashFlow.String())
	// netEarnings = 500 - 50 - (40 + 80 + 60)
	assert.Equal(t, "270", s.NetEarnings.String())
}

func TestSummarizeModificationSigned(t *testing.T) {
	entries := []model.LedgerEntry{
		entry(CategoryCashSale, 40, 0),
		correction(CategoryCashSale, -10, 1),
		entry(CategoryExpense, 20, 2),
		correction(CategoryExpense, 5, 3),
	}
	s := Summarize(entries)
	assert.Equal(t, "30", s.Sales.String())
	assert.Equal(t, "25", s.Expenses.String())
}

func TestSummarizeDebtPaymentHeuristic(t *testing.T) {
	// cash_in entry recorded before the dedicated category existed —
	// the description shim must still classify it as a debt collection.
	legacy := entry(CategoryCashIn, 120, 0)
	legacy.Description = "Customer Debt Payment - J. Alvarez"
	entries := []model.LedgerEntry{
		legacy,
		entry(CategoryCashReceipt, 30, 1),
		entry(CategoryCashIn, 10, 2), // plain cash-in, not a debt collection
	}
	s := Summarize(entries)
	assert.Equal(t, "150", s.DebtCollections.String())
}

func TestSummarizeSkipsVoided(t *testing.T) {
	voided := entry(CategoryCashSale, 999, 0)
	voided.Voided = true
	s := Summarize([]model.LedgerEntry{voided, entry(CategoryCashSale, 10, 1)})
	assert.Equal(t, "10", s.Sales.String())
}

func TestSummarizeDay(t *testing.T) {
	today := entry(CategoryCashSale, 100, 0)
	yesterday := entry(CategoryCashSale, 900, 0)
	yesterday.CreatedAt = testBase.AddDate(0, 0, -1)
	tomorrow := entry(CategoryCashSale, 700, 0)
	tomorrow.CreatedAt = testBase.AddDate(0, 0, 1)

	s := SummarizeDay([]model.LedgerEntry{yesterday, today, tomorrow}, testBase)
	assert.Equal(t, "100", s.Sales.String())
}

func TestSummarizeWindowBounds(t *testing.T) {
	entries := []model.LedgerEntry{
		entry(CategoryCashSale, 1, 0),
		entry(CategoryCashSale, 2, 10),
		entry(CategoryCashSale, 4, 20),
	}
	from := testBase.Add(5 * time.Minute)
	to := testBase.Add(20 * time.Minute) // exclusive
	s := SummarizeWindow(entries, from, to)
	assert.Equal(t, "2", s.Sales.String())
}
