package report

import (
	"testing"
	"time"

	"juku/internal/billing"
	"juku/internal/core"
	"juku/internal/log"
	"juku/internal/pricing"
	"juku/internal/reconcile"
)

func newReporter(t *testing.T) *Reporter {
	t.Helper()
	tbl, err := pricing.New(pricing.Data{
		SchoolYear:           2026,
		TaxRatePercent:       10,
		FacilityFeeMonthly:   3300,
		FacilityFeeHalfMonth: 1650,
		EnrollmentFee:        22000,
		UnitPrices: map[core.Course]map[core.GradeCategory]core.Yen{
			"kobetsu_1to2": {core.CategoryJunior12: 35000},
		},
		LessonDiscounts: map[int]core.Yen{2: 2000, 3: 3000},
	})
	if err != nil {
		t.Fatalf("build table: %v", err)
	}
	return NewReporter(billing.NewCalculator(tbl, billing.WithLogger(log.Discard())))
}

var (
	apr = core.NewPeriod(2026, 4)
	may = core.NewPeriod(2026, 5)
)

func fixture() Snapshot {
	ddStart := may
	return Snapshot{
		Students: []core.Student{
			{ID: 1, Name: "Sato", Number: "S001", DirectDebitStart: &ddStart},
			{ID: 2, Name: "Ito", Number: "S002"},
		},
		Contracts: []core.Contract{{
			ID:        1,
			StudentID: 1,
			Grade:     core.J1,
			StartDate: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
			Courses:   []core.CourseEntry{{Course: "kobetsu_1to2", LessonsPerWeek: 1}},
		}},
		Lectures: []core.Lecture{{
			ID:        2,
			StudentID: 2,
			Grade:     core.J2,
			Courses: []core.LectureCourse{{
				Course:       "spring",
				UnitPrice:    8000,
				TotalLessons: 3,
				Allocation:   []core.AllocationRow{{Period: apr, Lessons: 3}},
			}},
		}},
		Materials: []core.MaterialSale{{
			ID: 3, StudentID: 2, Name: "workbook", UnitPrice: 2000, Quantity: 2, Billing: may,
		}},
		Payments: []reconcile.PaymentRecord{
			{Key: core.ItemKey{Type: core.BillingContract, RefID: 1, Period: apr}, PaidAmount: 41800},
			{Key: core.ItemKey{Type: core.BillingLecture, RefID: 2, Period: apr}, PaidAmount: 20000},
		},
		Overrides: []reconcile.MethodOverride{
			{Key: core.ItemKey{Type: core.BillingMaterial, RefID: 3, Period: may}, Method: core.DirectDebit},
		},
	}
}

func TestItems(t *testing.T) {
	r := newReporter(t)
	items, err := r.Items(fixture(), apr)
	if err != nil {
		t.Fatalf("Items: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("april items = %d, want 2", len(items))
	}
	if items[0].BilledAmount != 41800 || items[0].DefaultMethod != core.BankTransfer {
		t.Fatalf("contract item = %+v", items[0])
	}
	if items[1].BilledAmount != 24000 {
		t.Fatalf("lecture item = %+v", items[1])
	}

	items, err = r.Items(fixture(), may)
	if err != nil {
		t.Fatalf("Items: %v", err)
	}
	if len(items) != 2 || items[0].DefaultMethod != core.DirectDebit || items[1].BilledAmount != 4000 {
		t.Fatalf("may items = %+v", items)
	}
}

func TestMonthly(t *testing.T) {
	r := newReporter(t)
	got, err := r.Monthly(fixture(), []core.Period{apr, may, core.NewPeriod(2026, 6)})
	if err != nil {
		t.Fatalf("Monthly: %v", err)
	}
	want := []core.MonthlySummary{
		{Year: 2026, Month: 4, TotalBilled: 65800, TotalPaid: 61800, PaidCount: 1, DiscrepancyCount: 1, TotalItems: 2, CollectionRate: 93.9},
		{Year: 2026, Month: 5, TotalBilled: 45800, UnpaidCount: 2, TotalItems: 2},
		{Year: 2026, Month: 6, TotalBilled: 41800, UnpaidCount: 1, TotalItems: 1},
	}
	if len(got) != len(want) {
		t.Fatalf("rows = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("row %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestStudents(t *testing.T) {
	r := newReporter(t)
	got, err := r.Students(fixture(), []core.Period{apr, may})
	if err != nil {
		t.Fatalf("Students: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("students = %d, want 2", len(got))
	}

	sato := got[0]
	if sato.StudentID != 1 || sato.TotalBilled != 83600 || sato.TotalPaid != 41800 || sato.Outstanding != 41800 {
		t.Fatalf("first = %+v", sato)
	}
	if len(sato.Months) != 2 {
		t.Fatalf("sato months = %d", len(sato.Months))
	}
	if sato.Months[0].Status != core.StatusPaid || sato.Months[0].Method != core.BankTransfer {
		t.Fatalf("sato april = %+v", sato.Months[0])
	}
	if sato.Months[1].Status != core.StatusUnpaid || sato.Months[1].Method != core.DirectDebit {
		t.Fatalf("sato may = %+v", sato.Months[1])
	}

	ito := got[1]
	if ito.Outstanding != 8000 || ito.StudentName != "Ito" || ito.StudentNumber != "S002" {
		t.Fatalf("second = %+v", ito)
	}
	if ito.Months[0].Status != core.StatusDiscrepancy {
		t.Fatalf("ito lecture = %+v", ito.Months[0])
	}
	if m := ito.Months[1]; m.BillingType != core.BillingMaterial || m.Method != core.DirectDebit {
		t.Fatalf("ito material = %+v", m)
	}
}

func TestStudentsTieBreaksByNumber(t *testing.T) {
	r := newReporter(t)
	snap := Snapshot{
		Students: []core.Student{
			{ID: 1, Name: "B", Number: "S002"},
			{ID: 2, Name: "A", Number: "S001"},
		},
		Materials: []core.MaterialSale{
			{ID: 1, StudentID: 1, UnitPrice: 1000, Quantity: 1, Billing: apr},
			{ID: 2, StudentID: 2, UnitPrice: 1000, Quantity: 1, Billing: apr},
		},
	}
	got, err := r.Students(snap, []core.Period{apr})
	if err != nil {
		t.Fatalf("Students: %v", err)
	}
	if got[0].StudentNumber != "S001" || got[1].StudentNumber != "S002" {
		t.Fatalf("order = %s, %s", got[0].StudentNumber, got[1].StudentNumber)
	}
}

func TestStrictPricingFailsReport(t *testing.T) {
	tbl := pricing.Default()
	r := NewReporter(billing.NewCalculator(tbl, billing.WithStrict(true), billing.WithLogger(log.Discard())))
	snap := Snapshot{Contracts: []core.Contract{{
		ID:        1,
		Grade:     core.H3,
		StartDate: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		Courses:   []core.CourseEntry{{Course: "group", LessonsPerWeek: 1}},
	}}}
	if _, err := r.Monthly(snap, []core.Period{apr}); err == nil {
		t.Fatal("expected a pricing error")
	}
}

func TestCollectionRate(t *testing.T) {
	tests := []struct {
		paid, billed core.Yen
		want         float64
	}{
		{0, 0, 0},
		{500, 0, 0},
		{100000, 100000, 100.0},
		{1, 3, 33.3},
		{2, 3, 66.7},
		{0, 50000, 0},
		{55000, 50000, 110.0},
	}
	for _, tt := range tests {
		if got := CollectionRate(tt.paid, tt.billed); got != tt.want {
			t.Errorf("CollectionRate(%d, %d) = %v, want %v", tt.paid, tt.billed, got, tt.want)
		}
	}
}
