// Package ledger implements the balance replay engine, the financial
// aggregator and the reconciliation rules for cash drawer sessions.
//
// The ledger is the single source of truth: any stored balance is a cache
// that must equal the result of replaying the session's entries in order.
package ledger

// Entry categories. The replay rule table in replay.go assigns each
// category its effect on the running balance.
const (
	CategoryOpen             = "open"
	CategoryCashIn           = "cash_in"
	CategoryCashOut          = "cash_out"
	CategoryCashSale         = "cash_sale"
	CategoryCashReceipt      = "cash_receipt"
	CategoryExpense          = "expense"
	CategoryReturn           = "return"
	CategorySupplierPayment  = "supplier_payment"
	CategorySalaryWithdrawal = "salary_withdrawal"
	CategoryAdjustment       = "adjustment"
)

// ActionModification tags an entry that retroactively corrects a previously
// recorded movement. Its Amount is signed and applied directly at replay,
// regardless of category.
const ActionModification = "modification"

var knownCategories = map[string]bool{
	CategoryOpen:             true,
	CategoryCashIn:           true,
	CategoryCashOut:          true,
	CategoryCashSale:         true,
	CategoryCashReceipt:      true,
	CategoryExpense:          true,
	CategoryReturn:           true,
	CategorySupplierPayment:  true,
	CategorySalaryWithdrawal: true,
	CategoryAdjustment:       true,
}

// ValidCategory reports whether c is one of the known entry categories.
func ValidCategory(c string) bool { return knownCategories[c] }
