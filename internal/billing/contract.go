package billing

import (
	"fmt"

	"juku/internal/core"
)

// NewContract validates ct and fills the figures fixed at enrollment time:
// enrollment fee, campaign discount and the quoted monthly amount. They are
// stored on the contract so later pricing changes never alter a quote.
func (c *Calculator) NewContract(ct core.Contract) (core.Contract, error) {
	if err := ct.Validate(); err != nil {
		return core.Contract{}, fmt.Errorf("invalid contract: %w", err)
	}

	block, err := c.Monthly(ct.Grade, ct.Courses)
	if err != nil {
		return core.Contract{}, err
	}
	ct.MonthlyAmount = block.TaxIncluded

	ct.EnrollmentFee = c.table.EnrollmentFee()
	if ct.Campaign.WaivesEnrollmentFee() {
		ct.EnrollmentFee = 0
	}
	// Renewals carry no enrollment fee.
	if ct.PredecessorID != 0 {
		ct.EnrollmentFee = 0
	}

	ct.CampaignDiscount = 0
	if ct.Campaign.DiscountsTuition() {
		cat := ct.Grade.Category()
		for _, e := range ct.Courses {
			if amount, ok := c.table.CampaignDiscount(e.Course, cat); ok {
				ct.CampaignDiscount += amount
			}
		}
	}
	return ct, nil
}
