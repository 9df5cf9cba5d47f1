package billing

import (
	"testing"

	"juku/internal/core"
)

func TestLectureAmount(t *testing.T) {
	calc := newCalc(t)
	course, err := core.NewLectureCourse("summer_math", 8000, 5, []core.AllocationRow{
		{Period: core.NewPeriod(2026, 7), Lessons: 3},
		{Period: core.NewPeriod(2026, 8), Lessons: 2},
	})
	if err != nil {
		t.Fatalf("course: %v", err)
	}
	l := core.Lecture{ID: 1, Grade: core.J3, Label: "夏期講習", Courses: []core.LectureCourse{course}}

	cases := []struct {
		p    core.Period
		want core.Yen
	}{
		{core.NewPeriod(2026, 7), 24000},
		{core.NewPeriod(2026, 8), 16000},
		{core.NewPeriod(2026, 9), 0},
	}
	for _, tc := range cases {
		if got := calc.LectureAmount(l, tc.p); got != tc.want {
			t.Fatalf("%s: got %d, want %d", tc.p, got, tc.want)
		}
	}
}

func TestLectureAmountMultipleCourses(t *testing.T) {
	calc := newCalc(t)
	l := core.Lecture{Courses: []core.LectureCourse{
		{Course: "math", UnitPrice: 8000, TotalLessons: 4, Allocation: []core.AllocationRow{
			{Period: core.NewPeriod(2026, 12), Lessons: 4},
		}},
		{Course: "english", UnitPrice: 7500, TotalLessons: 6, Allocation: []core.AllocationRow{
			{Period: core.NewPeriod(2026, 12), Lessons: 2},
			{Period: core.NewPeriod(2027, 1), Lessons: 4},
		}},
	}}
	if got := calc.LectureAmount(l, core.NewPeriod(2026, 12)); got != 32000+15000 {
		t.Fatalf("unexpected December amount %d", got)
	}
	if got := calc.LectureAmount(l, core.NewPeriod(2027, 1)); got != 30000 {
		t.Fatalf("unexpected January amount %d", got)
	}
}

func TestLectureBillsAllocationAsStored(t *testing.T) {
	calc := newCalc(t)
	// Allocation sums to 3 while the total says 10; the calculator bills what is allocated.
	l := core.Lecture{Courses: []core.LectureCourse{
		{Course: "math", UnitPrice: 1000, TotalLessons: 10, Allocation: []core.AllocationRow{
			{Period: core.NewPeriod(2026, 7), Lessons: 3},
		}},
	}}
	if got := calc.LectureAmount(l, core.NewPeriod(2026, 7)); got != 3000 {
		t.Fatalf("got %d", got)
	}
}

func TestMaterialAmount(t *testing.T) {
	calc := newCalc(t)
	m := core.MaterialSale{ID: 4, UnitPrice: 1980, Quantity: 3, Billing: core.NewPeriod(2026, 5)}
	if got := calc.MaterialAmount(m, core.NewPeriod(2026, 5)); got != 5940 {
		t.Fatalf("got %d", got)
	}
	if got := calc.MaterialAmount(m, core.NewPeriod(2026, 6)); got != 0 {
		t.Fatalf("material billed outside its period: %d", got)
	}
}

func TestSourceDispatch(t *testing.T) {
	calc := newCalc(t)
	ct := mustContract(t, calc, core.Contract{
		ID: 10, StudentID: 1, Grade: core.J1, StartDate: date(2026, 4, 1),
		Courses: []core.CourseEntry{{Course: "group", LessonsPerWeek: 1}},
	})
	lec := core.Lecture{ID: 20, StudentID: 1, Courses: []core.LectureCourse{
		{Course: "math", UnitPrice: 8000, TotalLessons: 1, Allocation: []core.AllocationRow{{Period: core.NewPeriod(2026, 7), Lessons: 1}}},
	}}
	mat := core.MaterialSale{ID: 30, StudentID: 1, UnitPrice: 500, Quantity: 2, Billing: core.NewPeriod(2026, 7)}

	july := core.NewPeriod(2026, 7)
	cases := []struct {
		src  Source
		typ  core.BillingType
		want core.Yen
	}{
		{ContractSource{ct}, core.BillingContract, 19800 + 3300},
		{LectureSource{lec}, core.BillingLecture, 8000},
		{MaterialSource{mat}, core.BillingMaterial, 1000},
	}
	for _, tc := range cases {
		got, err := calc.Amount(tc.src, july)
		if err != nil || got != tc.want {
			t.Fatalf("%s: got %d (err=%v), want %d", tc.typ, got, err, tc.want)
		}
		if !calc.Billable(tc.src, july) {
			t.Fatalf("%s should be billable in July", tc.typ)
		}
		if k := Key(tc.src, july); k.Type != tc.typ || k.RefID != tc.src.RefID() || k.Period != july {
			t.Fatalf("unexpected key %v", k)
		}
	}

	aug := core.NewPeriod(2026, 8)
	if calc.Billable(LectureSource{lec}, aug) || calc.Billable(MaterialSource{mat}, aug) {
		t.Fatalf("lecture and material should not be billable in August")
	}
	if !calc.Billable(ContractSource{ct}, aug) {
		t.Fatalf("open contract should be billable in August")
	}
}
