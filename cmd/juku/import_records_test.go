package main

import (
	"context"
	"errors"
	"strings"
	"testing"

	"juku/internal/billing"
	"juku/internal/core"
	"juku/internal/log"
	"juku/internal/pricing"
)

const recordsYAML = `
students:
  - number: S001
    name: Sato
    direct_debit_start: 2026-05
contracts:
  - student: S001
    grade: J1
    start_date: 2026-04-20
    campaign: full
    courses:
      - {course: kobetsu_1to2, lessons_per_week: 2}
  - student_id: 40
    grade: J2
    start_date: 2027-04-01
    renews: 12
    courses:
      - {course: kobetsu_1to2, lessons_per_week: 1}
lectures:
  - student: S001
    grade: J1
    label: summer
    courses:
      - course: summer_math
        unit_price: 8000
        total_lessons: 5
        allocation:
          - {period: 2026-07, lessons: 3}
          - {period: 2026-08, lessons: 2}
materials:
  - student: S001
    name: workbook
    unit_price: 2970
    quantity: 2
    sale_date: 2026-05-10
    billing_period: 2026-05
`

// memStore records what an import writes.
type memStore struct {
	students  []core.Student
	contracts []core.Contract
	lectures  []core.Lecture
	materials []core.MaterialSale
}

func (m *memStore) SaveStudent(_ context.Context, s core.Student) (int64, error) {
	m.students = append(m.students, s)
	return int64(100 + len(m.students)), nil
}

func (m *memStore) SaveContract(_ context.Context, ct core.Contract) (int64, error) {
	m.contracts = append(m.contracts, ct)
	return int64(len(m.contracts)), nil
}

func (m *memStore) SaveLecture(_ context.Context, l core.Lecture) (int64, error) {
	m.lectures = append(m.lectures, l)
	return int64(len(m.lectures)), nil
}

func (m *memStore) SaveMaterial(_ context.Context, ms core.MaterialSale) (int64, error) {
	m.materials = append(m.materials, ms)
	return int64(len(m.materials)), nil
}

func testCalculator(t *testing.T) *billing.Calculator {
	t.Helper()
	tbl, err := pricing.New(pricing.Data{
		TaxRatePercent:       10,
		FacilityFeeMonthly:   3300,
		FacilityFeeHalfMonth: 1650,
		EnrollmentFee:        22000,
		UnitPrices: map[core.Course]map[core.GradeCategory]core.Yen{
			"kobetsu_1to2": {core.CategoryJunior12: 35000},
		},
		LessonDiscounts: map[int]core.Yen{2: 2000},
		CampaignDiscounts: map[core.Course]map[core.GradeCategory]core.Yen{
			"kobetsu_1to2": {core.CategoryJunior12: 11000},
		},
	})
	if err != nil {
		t.Fatalf("table: %v", err)
	}
	return billing.NewCalculator(tbl, billing.WithLogger(log.Discard()))
}

func TestImportRecords(t *testing.T) {
	batch, err := decodeRecords(strings.NewReader(recordsYAML))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	store := &memStore{}
	n, err := importRecords(context.Background(), store, testCalculator(t), batch)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if n != (importCounts{Students: 1, Contracts: 2, Lectures: 1, Materials: 1}) {
		t.Fatalf("counts = %+v", n)
	}

	s := store.students[0]
	if s.Number != "S001" || s.DirectDebitStart == nil || *s.DirectDebitStart != core.NewPeriod(2026, 5) {
		t.Fatalf("student = %+v", s)
	}

	// Fees are fixed by the calculator, not taken from the file.
	ct := store.contracts[0]
	if ct.StudentID != 101 || ct.MonthlyAmount != 78100 || ct.EnrollmentFee != 0 || ct.CampaignDiscount != 11000 {
		t.Fatalf("contract = %+v", ct)
	}
	renewal := store.contracts[1]
	if renewal.StudentID != 40 || renewal.PredecessorID != 12 || renewal.EnrollmentFee != 0 || renewal.MonthlyAmount != 38500+3300 {
		t.Fatalf("renewal = %+v", renewal)
	}

	l := store.lectures[0]
	if l.StudentID != 101 || len(l.Courses) != 1 || l.Courses[0].LessonsIn(core.NewPeriod(2026, 8)) != 2 {
		t.Fatalf("lecture = %+v", l)
	}
	m := store.materials[0]
	if m.StudentID != 101 || m.Total() != 5940 || m.Billing != core.NewPeriod(2026, 5) || m.SaleDate.Day() != 10 {
		t.Fatalf("material = %+v", m)
	}
}

func TestImportRecordsUnknownStudent(t *testing.T) {
	batch, err := decodeRecords(strings.NewReader(`
materials:
  - student: S404
    name: workbook
    unit_price: 100
    quantity: 1
    billing_period: 2026-05
`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	store := &memStore{}
	if _, err := importRecords(context.Background(), store, testCalculator(t), batch); !errors.Is(err, errUnknownStudent) {
		t.Fatalf("error = %v, want errUnknownStudent", err)
	}
	if len(store.materials) != 0 {
		t.Fatal("nothing should be written for an unknown student")
	}
}

func TestDecodeRecordsRejects(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want error
		msg  string
	}{
		{
			name: "allocation mismatch",
			in:   "lectures:\n  - student: S001\n    grade: J1\n    courses:\n      - {course: math, unit_price: 1000, total_lessons: 4, allocation: [{period: 2026-07, lessons: 3}]}\n",
			want: core.ErrAllocationMismatch,
			msg:  "lecture 1",
		},
		{
			name: "too many lessons",
			in:   "contracts:\n  - student: S001\n    grade: J1\n    start_date: 2026-04-01\n    courses: [{course: group, lessons_per_week: 8}]\n",
			want: core.ErrInvalidLessons,
			msg:  "contract 1",
		},
		{
			name: "missing start date",
			in:   "contracts:\n  - student: S001\n    grade: J1\n    courses: [{course: group, lessons_per_week: 1}]\n",
			msg:  "start_date is required",
		},
		{
			name: "unknown field",
			in:   "students:\n  - number: S001\n    name: Sato\n    grade: J1\n",
			msg:  "parse records yaml",
		},
		{
			name: "bad billing period",
			in:   "materials:\n  - student: S001\n    name: pen\n    unit_price: 100\n    quantity: 1\n    billing_period: May\n",
			msg:  "material 1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeRecords(strings.NewReader(tt.in))
			if err == nil || !strings.Contains(err.Error(), tt.msg) {
				t.Fatalf("error = %v, want containing %q", err, tt.msg)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDecodeRecordsEmpty(t *testing.T) {
	b, err := decodeRecords(strings.NewReader(""))
	if err != nil || len(b.Students)+len(b.Contracts)+len(b.Lectures)+len(b.Materials) != 0 {
		t.Fatalf("empty = %+v, %v", b, err)
	}
}
