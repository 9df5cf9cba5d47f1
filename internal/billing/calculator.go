// Package billing turns contracts, lectures and material sales into the amount
// billed for one period.
//
// Only the first month of a contract can be partial or carry one-time charges;
// every later month is the same flat recurring charge.
package billing

import (
	"errors"
	"fmt"
	"sync"

	"juku/internal/core"
	"juku/internal/log"
	"juku/internal/pricing"
)

var ErrOutsideContract = errors.New("period outside contract")

// Calculator computes billed amounts from a pricing table.
type Calculator struct {
	table  *pricing.Table
	strict bool
	logger *log.Logger
	warned sync.Map // unpriced (course, category) pairs already warned about
}

type Option func(*Calculator)

// WithStrict makes undefined (course, category) prices an error instead of 0.
func WithStrict(strict bool) Option {
	return func(c *Calculator) { c.strict = strict }
}

func WithLogger(l *log.Logger) Option {
	return func(c *Calculator) {
		if l != nil {
			c.logger = l.WithComponent(log.ComponentBilling)
		}
	}
}

func NewCalculator(table *pricing.Table, opts ...Option) *Calculator {
	c := &Calculator{
		table:  table,
		logger: log.Default(log.ComponentBilling),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Table returns the pricing table the calculator was built with
func (c *Calculator) Table() *pricing.Table { return c.table }

// CourseLine is the priced form of one contract course entry.
type CourseLine struct {
	Course         core.Course
	LessonsPerWeek int
	UnitPrice      core.Yen // tax-excluded, per weekly slot
	Amount         core.Yen // UnitPrice × LessonsPerWeek
	Discount       core.Yen // multi-lesson discount for the entry
	Priced         bool     // false when the pair has no price
}

// Lines prices every course entry for the grade. In lenient mode an undefined
// pair is priced at 0 and logged; in strict mode it is returned as an error.
func (c *Calculator) Lines(grade core.Grade, courses []core.CourseEntry) ([]CourseLine, error) {
	cat := grade.Category()
	lines := make([]CourseLine, 0, len(courses))
	for _, e := range courses {
		line := CourseLine{
			Course:         e.Course,
			LessonsPerWeek: e.LessonsPerWeek,
			Discount:       c.table.LessonDiscount(e.LessonsPerWeek),
		}
		price, err := c.table.UnitPrice(e.Course, cat)
		switch {
		case err == nil:
			line.UnitPrice = price
			line.Priced = true
		case c.strict:
			return nil, fmt.Errorf("grade %s: %w", grade, err)
		default:
			c.warnUnpriced(e.Course, cat)
		}
		line.Amount = line.UnitPrice * core.Yen(e.LessonsPerWeek)
		lines = append(lines, line)
	}
	return lines, nil
}

type pricePair struct {
	course   core.Course
	category core.GradeCategory
}

// warnUnpriced warns the first time a pair is seen; repeats go to debug.
func (c *Calculator) warnUnpriced(course core.Course, cat core.GradeCategory) {
	args := []any{log.FieldCourse, string(course), log.FieldCategory, string(cat)}
	if _, seen := c.warned.LoadOrStore(pricePair{course, cat}, struct{}{}); seen {
		c.logger.Debug("No unit price defined, billing 0", args...)
		return
	}
	c.logger.Warn("No unit price defined, billing 0", args...)
}

// Charge is the itemised monthly charge of a contract.
type Charge struct {
	Period           core.Period
	FirstMonth       bool
	HalfMonth        bool
	Tuition          core.Yen
	Discount         core.Yen // multi-lesson discount
	TaxExcluded      core.Yen // Tuition - Discount
	Tax              core.Yen
	EnrollmentFee    core.Yen
	FacilityFee      core.Yen
	CampaignDiscount core.Yen
	Total            core.Yen
}

// ContractCharge itemises the amount billed for ct in p. From the third month
// on Total equals the quoted MonthlyAmount; the first month adds the stored
// enrollment fee and subtracts the stored campaign discount.
func (c *Calculator) ContractCharge(ct core.Contract, p core.Period) (Charge, error) {
	if !ct.ActiveIn(p) {
		return Charge{}, fmt.Errorf("%w: %s not in %s..%s", ErrOutsideContract, p, ct.FirstPeriod(), ct.LastPeriod())
	}
	lines, err := c.Lines(ct.Grade, ct.Courses)
	if err != nil {
		return Charge{}, err
	}

	ch := Charge{Period: p}
	ch.FirstMonth = p == ct.FirstPeriod()
	ch.HalfMonth = ch.FirstMonth && ct.IsHalfMonthStart()

	b := c.block(lines, ch.HalfMonth)
	ch.Tuition = b.Tuition
	ch.Discount = b.Discount
	ch.TaxExcluded = b.TaxExcluded
	ch.Tax = b.Tax
	ch.FacilityFee = b.FacilityFee
	if ch.FirstMonth {
		ch.EnrollmentFee = ct.EnrollmentFee
		ch.CampaignDiscount = ct.CampaignDiscount
	}
	ch.Total = b.TaxIncluded + ch.EnrollmentFee - ch.CampaignDiscount
	return ch, nil
}

// ContractAmount is the tax-included amount billed for ct in p.
func (c *Calculator) ContractAmount(ct core.Contract, p core.Period) (core.Yen, error) {
	ch, err := c.ContractCharge(ct, p)
	if err != nil {
		return 0, err
	}
	return ch.Total, nil
}

// LectureAmount sums unit price × allocated lessons for p over every course.
// Months without allocation bill 0. Allocations are billed as stored.
func (c *Calculator) LectureAmount(l core.Lecture, p core.Period) core.Yen {
	var total core.Yen
	for _, course := range l.Courses {
		for _, row := range course.Allocation {
			if row.Period == p && row.Lessons > 0 {
				total += course.UnitPrice * core.Yen(row.Lessons)
			}
		}
	}
	return total
}

// MaterialAmount bills the whole sale in its billing period and 0 elsewhere.
func (c *Calculator) MaterialAmount(m core.MaterialSale, p core.Period) core.Yen {
	if m.Billing != p {
		return 0
	}
	return m.Total()
}
