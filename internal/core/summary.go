package core

// PaymentStatus is the reconciled state of a billed item.
type PaymentStatus string

const (
	StatusUnpaid      PaymentStatus = "unpaid"
	StatusPaid        PaymentStatus = "paid"
	StatusDiscrepancy PaymentStatus = "discrepancy"
)

// Label returns the Japanese display label
func (s PaymentStatus) Label() string {
	switch s {
	case StatusPaid:
		return "入金済"
	case StatusDiscrepancy:
		return "差異あり"
	default:
		return "未入金"
	}
}

// MonthlySummary is the collection overview of one billing period.
type MonthlySummary struct {
	Year             int
	Month            int // 1-12
	TotalBilled      Yen
	TotalPaid        Yen
	PaidCount        int
	UnpaidCount      int
	DiscrepancyCount int
	TotalItems       int
	CollectionRate   float64 // percent, one decimal place
}

// LedgerEntry is one billed item of a student ledger.
type LedgerEntry struct {
	Year         int
	Month        int
	BillingType  BillingType
	RefID        int64
	BilledAmount Yen
	PaidAmount   Yen
	Status       PaymentStatus
	Method       PaymentMethod
}

// StudentSummary is the ledger of one student across the requested periods.
type StudentSummary struct {
	StudentID     int64
	StudentName   string
	StudentNumber string
	Months        []LedgerEntry
	TotalBilled   Yen
	TotalPaid     Yen
	Outstanding   Yen
}
