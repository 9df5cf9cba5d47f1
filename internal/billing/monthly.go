package billing

import "juku/internal/core"

// MonthlyBlock is the steady-state monthly figure of a set of course entries,
// as printed on contract documents.
type MonthlyBlock struct {
	Lines       []CourseLine
	Tuition     core.Yen
	FacilityFee core.Yen
	Discount    core.Yen
	TaxExcluded core.Yen // Tuition - Discount
	Tax         core.Yen
	TaxIncluded core.Yen // WithTax(TaxExcluded) + FacilityFee
}

// Monthly computes the steady-state block for grade and courses.
func (c *Calculator) Monthly(grade core.Grade, courses []core.CourseEntry) (MonthlyBlock, error) {
	lines, err := c.Lines(grade, courses)
	if err != nil {
		return MonthlyBlock{}, err
	}
	return c.block(lines, false), nil
}

// block totals priced lines for one month. A half month bills half the
// summed tuition and discount, each floored, and the half-month facility fee.
func (c *Calculator) block(lines []CourseLine, half bool) MonthlyBlock {
	b := MonthlyBlock{Lines: lines, FacilityFee: c.table.FacilityFeeMonthly()}
	for _, l := range lines {
		b.Tuition += l.Amount
		b.Discount += l.Discount
	}
	if half {
		b.Tuition /= 2
		b.Discount /= 2
		b.FacilityFee = c.table.FacilityFeeHalfMonth()
	}
	b.TaxExcluded = b.Tuition - b.Discount
	if b.TaxExcluded < 0 {
		b.TaxExcluded = 0
	}
	b.Tax = c.table.Tax(b.TaxExcluded)
	b.TaxIncluded = b.TaxExcluded + b.Tax + b.FacilityFee
	return b
}
