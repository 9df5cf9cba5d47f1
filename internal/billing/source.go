package billing

import (
	"fmt"

	"juku/internal/core"
)

// Source is a billable record: ContractSource, LectureSource or MaterialSource.
type Source interface {
	BillingType() core.BillingType
	RefID() int64
	StudentID() int64
	sealed()
}

type ContractSource struct{ Contract core.Contract }

type LectureSource struct{ Lecture core.Lecture }

type MaterialSource struct{ Sale core.MaterialSale }

func (ContractSource) BillingType() core.BillingType { return core.BillingContract }
func (s ContractSource) RefID() int64                { return s.Contract.ID }
func (s ContractSource) StudentID() int64            { return s.Contract.StudentID }
func (ContractSource) sealed()                       {}

func (LectureSource) BillingType() core.BillingType { return core.BillingLecture }
func (s LectureSource) RefID() int64                { return s.Lecture.ID }
func (s LectureSource) StudentID() int64            { return s.Lecture.StudentID }
func (LectureSource) sealed()                       {}

func (MaterialSource) BillingType() core.BillingType { return core.BillingMaterial }
func (s MaterialSource) RefID() int64                { return s.Sale.ID }
func (s MaterialSource) StudentID() int64            { return s.Sale.StudentID }
func (MaterialSource) sealed()                       {}

// Key returns the reconciliation key of src for p
func Key(src Source, p core.Period) core.ItemKey {
	return core.ItemKey{Type: src.BillingType(), RefID: src.RefID(), Period: p}
}

// Billable reports whether src produces an item in p: contracts within their
// active range, lectures with lessons allocated, materials in their billing month.
func (c *Calculator) Billable(src Source, p core.Period) bool {
	switch s := src.(type) {
	case ContractSource:
		return s.Contract.ActiveIn(p)
	case LectureSource:
		for _, course := range s.Lecture.Courses {
			if course.LessonsIn(p) > 0 {
				return true
			}
		}
		return false
	case MaterialSource:
		return s.Sale.Billing == p
	}
	return false
}

// Amount dispatches to the calculator for the source's type.
func (c *Calculator) Amount(src Source, p core.Period) (core.Yen, error) {
	switch s := src.(type) {
	case ContractSource:
		return c.ContractAmount(s.Contract, p)
	case LectureSource:
		return c.LectureAmount(s.Lecture, p), nil
	case MaterialSource:
		return c.MaterialAmount(s.Sale, p), nil
	}
	return 0, fmt.Errorf("%w: %T", core.ErrInvalidBillingType, src)
}
