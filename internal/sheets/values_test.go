package sheets

import (
	"testing"

	"juku/internal/core"
)

func TestMonthlyValues(t *testing.T) {
	got := MonthlyValues([]core.MonthlySummary{
		{Year: 2026, Month: 4, TotalBilled: 62300, TotalPaid: 58300, PaidCount: 1, DiscrepancyCount: 1, TotalItems: 2, CollectionRate: 93.6},
	})
	if len(got) != 2 {
		t.Fatalf("rows = %d, want 2", len(got))
	}
	row := got[1]
	if row[0] != "2026-04" || row[1] != int64(62300) || row[7] != "93.6%" {
		t.Fatalf("row = %v", row)
	}
}

func TestLedgerValues(t *testing.T) {
	got := LedgerValues([]core.StudentSummary{{
		StudentID: 1, StudentName: "Sato", StudentNumber: "S001",
		Months: []core.LedgerEntry{
			{Year: 2026, Month: 4, BillingType: core.BillingContract, BilledAmount: 50000, PaidAmount: 45000, Status: core.StatusDiscrepancy, Method: core.BankTransfer},
			{Year: 2026, Month: 5, BillingType: core.BillingLecture, BilledAmount: 24000, Status: core.StatusUnpaid, Method: core.DirectDebit},
		},
		TotalBilled: 74000, TotalPaid: 45000, Outstanding: 29000,
	}})
	if len(got) != 4 {
		t.Fatalf("rows = %d, want header + 2 items + total", len(got))
	}
	if got[1][3] != "月謝" || got[1][6] != "差異あり" || got[1][8] != "不足 -¥5,000" {
		t.Fatalf("discrepancy row = %v", got[1])
	}
	if got[2][7] != "口座振替" || got[2][8] != "" {
		t.Fatalf("unpaid row = %v", got[2])
	}
	if got[3][2] != "合計" || got[3][8] != "未収 ¥29,000" {
		t.Fatalf("total row = %v", got[3])
	}
}

func TestSheetName(t *testing.T) {
	tests := []struct {
		base string
		year int
		want string
	}{
		{"Summary", 2026, "2026 Summary"},
		{"  Ledger ", 2027, "2027 Ledger"},
		{"2025 Summary", 2026, "2025 Summary"},
		{"", 2026, ""},
		{"1234", 2026, "2026 1234"},
	}
	for _, tt := range tests {
		if got := SheetName(tt.base, tt.year); got != tt.want {
			t.Errorf("SheetName(%q, %d) = %q, want %q", tt.base, tt.year, got, tt.want)
		}
	}
}
