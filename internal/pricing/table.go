// Package pricing holds the school-year pricing table: unit tuition by course
// and grade category, multi-lesson discount tiers, fixed fees, campaign
// discounts and the consumption-tax rate.
//
// A Table is immutable once built. Calculators receive it at construction, so
// a different school year is a different Table rather than a code change.
package pricing

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"juku/internal/core"
)

const (
	MinDiscountLessons = 2
	MaxDiscountLessons = 7
)

var (
	ErrPriceNotDefined = errors.New("price not defined")
	ErrInvalidTable    = errors.New("invalid pricing table")
)

// Data is the raw, serialisable form of a pricing table.
type Data struct {
	SchoolYear           int                                             `yaml:"school_year"`
	TaxRatePercent       int64                                           `yaml:"tax_rate_percent"`
	FacilityFeeMonthly   core.Yen                                        `yaml:"facility_fee_monthly"`
	FacilityFeeHalfMonth core.Yen                                        `yaml:"facility_fee_half_month"`
	EnrollmentFee        core.Yen                                        `yaml:"enrollment_fee"`
	UnitPrices           map[core.Course]map[core.GradeCategory]core.Yen `yaml:"unit_prices"`
	LessonDiscounts      map[int]core.Yen                                `yaml:"lesson_discounts"`
	CampaignDiscounts    map[core.Course]map[core.GradeCategory]core.Yen `yaml:"campaign_discounts"`
}

type priceKey struct {
	course   core.Course
	category core.GradeCategory
}

// Table is a validated, read-only pricing table.
type Table struct {
	schoolYear      int
	taxRate         decimal.Decimal // e.g. 1.10
	taxPercent      int64
	facilityMonthly core.Yen
	facilityHalf    core.Yen
	enrollmentFee   core.Yen
	unitPrices      map[priceKey]core.Yen
	discounts       map[int]core.Yen
	campaigns       map[priceKey]core.Yen
	courses         []core.Course
}

// New validates d and builds a Table. Maps are copied.
func New(d Data) (*Table, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	t := &Table{
		schoolYear:      d.SchoolYear,
		taxPercent:      d.TaxRatePercent,
		taxRate:         decimal.NewFromInt(100 + d.TaxRatePercent).Div(decimal.NewFromInt(100)),
		facilityMonthly: d.FacilityFeeMonthly,
		facilityHalf:    d.FacilityFeeHalfMonth,
		enrollmentFee:   d.EnrollmentFee,
		unitPrices:      make(map[priceKey]core.Yen),
		discounts:       make(map[int]core.Yen, len(d.LessonDiscounts)),
		campaigns:       make(map[priceKey]core.Yen),
	}
	for course, byCat := range d.UnitPrices {
		t.courses = append(t.courses, course)
		for cat, price := range byCat {
			t.unitPrices[priceKey{course, cat}] = price
		}
	}
	sort.Slice(t.courses, func(i, j int) bool { return t.courses[i] < t.courses[j] })
	for n, amount := range d.LessonDiscounts {
		t.discounts[n] = amount
	}
	for course, byCat := range d.CampaignDiscounts {
		for cat, amount := range byCat {
			t.campaigns[priceKey{course, cat}] = amount
		}
	}
	return t, nil
}

// Validate checks the table data and reports every problem at once.
func (d Data) Validate() error {
	var problems []error
	if d.TaxRatePercent < 0 || d.TaxRatePercent > 100 {
		problems = append(problems, fmt.Errorf("tax rate %d%% out of range", d.TaxRatePercent))
	}
	if d.FacilityFeeMonthly < 0 || d.FacilityFeeHalfMonth < 0 || d.EnrollmentFee < 0 {
		problems = append(problems, errors.New("fees must not be negative"))
	}
	if d.FacilityFeeHalfMonth > d.FacilityFeeMonthly {
		problems = append(problems, errors.New("half-month facility fee exceeds monthly fee"))
	}
	if len(d.UnitPrices) == 0 {
		problems = append(problems, errors.New("no unit prices"))
	}
	for course, byCat := range d.UnitPrices {
		for cat, price := range byCat {
			if err := cat.Validate(); err != nil {
				problems = append(problems, fmt.Errorf("unit price %s/%s: %w", course, cat, err))
			}
			if price <= 0 {
				problems = append(problems, fmt.Errorf("unit price %s/%s must be positive", course, cat))
			}
		}
	}
	var prev core.Yen
	for n := MinDiscountLessons; n <= MaxDiscountLessons; n++ {
		amount, ok := d.LessonDiscounts[n]
		if !ok {
			continue
		}
		if amount < prev {
			problems = append(problems, fmt.Errorf("lesson discount for %d lessons decreases (%d < %d)", n, amount, prev))
		}
		prev = amount
	}
	for n := range d.LessonDiscounts {
		if n < MinDiscountLessons || n > MaxDiscountLessons {
			problems = append(problems, fmt.Errorf("lesson discount tier %d outside %d-%d", n, MinDiscountLessons, MaxDiscountLessons))
		}
	}
	for course, byCat := range d.CampaignDiscounts {
		for cat, amount := range byCat {
			if err := cat.Validate(); err != nil {
				problems = append(problems, fmt.Errorf("campaign discount %s/%s: %w", course, cat, err))
			}
			if amount < 0 {
				problems = append(problems, fmt.Errorf("campaign discount %s/%s must not be negative", course, cat))
			}
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidTable, errors.Join(problems...))
	}
	return nil
}

// SchoolYear is the year the table applies to
func (t *Table) SchoolYear() int { return t.schoolYear }

// Courses lists the courses with at least one unit price, sorted.
func (t *Table) Courses() []core.Course {
	return append([]core.Course(nil), t.courses...)
}

// UnitPrice returns the tax-excluded monthly price of one weekly lesson slot.
func (t *Table) UnitPrice(course core.Course, cat core.GradeCategory) (core.Yen, error) {
	price, ok := t.unitPrices[priceKey{course, cat}]
	if !ok {
		return 0, fmt.Errorf("%w: %s/%s", ErrPriceNotDefined, course, cat)
	}
	return price, nil
}

// LessonDiscount is the monthly discount for a course entry with n lessons per
// week. It is 0 for one lesson or anything outside the defined tiers.
func (t *Table) LessonDiscount(n int) core.Yen {
	if n < MinDiscountLessons || n > MaxDiscountLessons {
		return 0
	}
	return t.discounts[n]
}

func (t *Table) FacilityFeeMonthly() core.Yen { return t.facilityMonthly }

func (t *Table) FacilityFeeHalfMonth() core.Yen { return t.facilityHalf }

func (t *Table) EnrollmentFee() core.Yen { return t.enrollmentFee }

// CampaignDiscount returns the tax-inclusive first-month discount, if the
// campaign applies to the pair.
func (t *Table) CampaignDiscount(course core.Course, cat core.GradeCategory) (core.Yen, bool) {
	amount, ok := t.campaigns[priceKey{course, cat}]
	return amount, ok
}

// TaxRatePercent returns the consumption-tax rate, e.g. 10
func (t *Table) TaxRatePercent() int64 { return t.taxPercent }

// WithTax converts a tax-excluded amount to tax-included, flooring to whole yen.
func (t *Table) WithTax(amount core.Yen) core.Yen {
	v := decimal.NewFromInt(int64(amount)).Mul(t.taxRate).Floor()
	return core.Yen(v.IntPart())
}

// Tax returns the tax portion added by WithTax
func (t *Table) Tax(amount core.Yen) core.Yen {
	return t.WithTax(amount) - amount
}
