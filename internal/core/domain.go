package core

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

const (
	BillingContract BillingType = "contract"
	BillingLecture  BillingType = "lecture"
	BillingMaterial BillingType = "material"
)

const (
	BankTransfer PaymentMethod = "bank_transfer"
	DirectDebit  PaymentMethod = "direct_debit"
)

const (
	CampaignNone           Campaign = ""
	CampaignEnrollmentFree Campaign = "enrollment_free"
	CampaignTuitionOff     Campaign = "tuition_off"
	CampaignFull           Campaign = "full"
)

const (
	FollowupNone      FollowupStatus = "none"
	FollowupContacted FollowupStatus = "contacted"
	FollowupPromised  FollowupStatus = "promised"
	FollowupResolved  FollowupStatus = "resolved"
)

const (
	MaxContractCourses = 3
	MaxLectureCourses  = 3
	MaxLessonsPerWeek  = 7
)

type (
	BillingType    string
	PaymentMethod  string
	Campaign       string
	FollowupStatus string

	// Course identifies a recurring or intensive course offering.
	Course string

	// CourseEntry is one course line of a contract.
	CourseEntry struct {
		Course         Course
		LessonsPerWeek int
	}

	// Contract is a recurring monthly-tuition enrollment for one student.
	Contract struct {
		ID            int64
		StudentID     int64
		PredecessorID int64 // 0 for a new enrollment
		Grade         Grade
		StartDate     time.Time
		EndDate       time.Time
		Courses       []CourseEntry
		Campaign      Campaign

		// Derived once at creation; never recomputed per period.
		MonthlyAmount    Yen
		EnrollmentFee    Yen
		CampaignDiscount Yen
	}

	// AllocationRow is the number of lessons of a lecture course held in a month.
	AllocationRow struct {
		Period  Period
		Lessons int
	}

	// LectureCourse is one sub-course of an intensive lecture.
	LectureCourse struct {
		Course       Course
		UnitPrice    Yen // tax-included, per lesson
		TotalLessons int
		Allocation   []AllocationRow
	}

	// Lecture is an intensive/seasonal course billed by allocated lesson-month.
	Lecture struct {
		ID        int64
		StudentID int64
		Grade     Grade
		Label     string
		Courses   []LectureCourse
	}

	// MaterialSale is a one-off charge billed entirely in its billing period.
	MaterialSale struct {
		ID        int64
		StudentID int64
		Name      string
		UnitPrice Yen
		Quantity  int
		SaleDate  time.Time
		Billing   Period
	}

	Student struct {
		ID     int64
		Name   string
		Number string
		// DirectDebitStart is the first period billed by direct debit; nil means never.
		DirectDebitStart *Period
	}

	// ItemKey identifies a billed item for one period. At most one payment
	// and one method override exist per key.
	ItemKey struct {
		Type   BillingType
		RefID  int64
		Period Period
	}

	// Payment is the single-row representation stored by the data layer.
	// A row with PaidAmount 0 and no PaymentDate only records a method.
	Payment struct {
		ID           int64
		Key          ItemKey
		BilledAmount Yen
		PaidAmount   Yen
		PaymentDate  *time.Time
		Method       PaymentMethod
		Followup     FollowupStatus
		Notes        string
	}
)

var (
	ErrInvalidGrade       = errors.New("invalid grade")
	ErrInvalidPeriod      = errors.New("invalid period")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidLessons     = errors.New("invalid lessons per week")
	ErrNoCourses          = errors.New("no courses")
	ErrTooManyCourses     = errors.New("too many courses")
	ErrEmptyCourse        = errors.New("empty course name")
	ErrInvalidDateRange   = errors.New("end date before start date")
	ErrAllocationMismatch = errors.New("allocation lessons do not sum to total lessons")
	ErrDuplicateMonth     = errors.New("duplicate allocation month")
	ErrInvalidQuantity    = errors.New("invalid quantity")
	ErrInvalidBillingType = errors.New("invalid billing type")
	ErrInvalidMethod      = errors.New("invalid payment method")
	ErrInvalidCampaign    = errors.New("invalid campaign")
)

func (t BillingType) Validate() error {
	switch t {
	case BillingContract, BillingLecture, BillingMaterial:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidBillingType, string(t))
}

func (m PaymentMethod) Validate() error {
	switch m {
	case BankTransfer, DirectDebit:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidMethod, string(m))
}

// Other returns the opposite method; used when staff flip the method of an item.
func (m PaymentMethod) Other() PaymentMethod {
	if m == DirectDebit {
		return BankTransfer
	}
	return DirectDebit
}

// Label returns the Japanese display label
func (m PaymentMethod) Label() string {
	switch m {
	case DirectDebit:
		return "口座振替"
	case BankTransfer:
		return "銀行振込"
	}
	return string(m)
}

func (c Campaign) Validate() error {
	switch c {
	case CampaignNone, CampaignEnrollmentFree, CampaignTuitionOff, CampaignFull:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidCampaign, string(c))
}

// WaivesEnrollmentFee reports whether the campaign removes the enrollment fee
func (c Campaign) WaivesEnrollmentFee() bool {
	return c == CampaignEnrollmentFree || c == CampaignFull
}

// DiscountsTuition reports whether the campaign grants the first-month discount
func (c Campaign) DiscountsTuition() bool {
	return c == CampaignTuitionOff || c == CampaignFull
}

func (e CourseEntry) Validate() error {
	if strings.TrimSpace(string(e.Course)) == "" {
		return ErrEmptyCourse
	}
	if e.LessonsPerWeek < 1 || e.LessonsPerWeek > MaxLessonsPerWeek {
		return fmt.Errorf("%w: %d", ErrInvalidLessons, e.LessonsPerWeek)
	}
	return nil
}

func (c Contract) Validate() error {
	if err := c.Grade.Validate(); err != nil {
		return err
	}
	if c.StartDate.IsZero() {
		return errors.New("start date cannot be zero")
	}
	if !c.EndDate.IsZero() && c.EndDate.Before(c.StartDate) {
		return ErrInvalidDateRange
	}
	if len(c.Courses) == 0 {
		return ErrNoCourses
	}
	if len(c.Courses) > MaxContractCourses {
		return fmt.Errorf("%w: %d (max %d)", ErrTooManyCourses, len(c.Courses), MaxContractCourses)
	}
	for _, e := range c.Courses {
		if err := e.Validate(); err != nil {
			return err
		}
	}
	return c.Campaign.Validate()
}

// FirstPeriod is the month of the start date
func (c Contract) FirstPeriod() Period {
	return PeriodOf(c.StartDate)
}

// LastPeriod is the month of the end date; zero when the contract is open-ended.
func (c Contract) LastPeriod() Period {
	if c.EndDate.IsZero() {
		return Period{}
	}
	return PeriodOf(c.EndDate)
}

// ActiveIn reports whether p lies within [start month, end month].
func (c Contract) ActiveIn(p Period) bool {
	if p.Before(c.FirstPeriod()) {
		return false
	}
	if last := c.LastPeriod(); !last.IsZero() && p.After(last) {
		return false
	}
	return true
}

// IsHalfMonthStart reports whether enrollment starts on or after the 16th.
func (c Contract) IsHalfMonthStart() bool {
	return c.StartDate.Day() >= 16
}

// NewLectureCourse builds a lecture course and rejects allocations whose lessons
// do not add up to the total.
func NewLectureCourse(course Course, unitPrice Yen, totalLessons int, allocation []AllocationRow) (LectureCourse, error) {
	lc := LectureCourse{
		Course:       course,
		UnitPrice:    unitPrice,
		TotalLessons: totalLessons,
		Allocation:   append([]AllocationRow(nil), allocation...),
	}
	if err := lc.Validate(); err != nil {
		return LectureCourse{}, err
	}
	return lc, nil
}

func (lc LectureCourse) Validate() error {
	if strings.TrimSpace(string(lc.Course)) == "" {
		return ErrEmptyCourse
	}
	if lc.UnitPrice < 0 {
		return ErrInvalidAmount
	}
	if lc.TotalLessons < 0 {
		return fmt.Errorf("%w: total %d", ErrInvalidLessons, lc.TotalLessons)
	}
	seen := make(map[Period]struct{}, len(lc.Allocation))
	sum := 0
	for _, row := range lc.Allocation {
		if err := row.Period.Validate(); err != nil {
			return err
		}
		if row.Lessons < 0 {
			return fmt.Errorf("%w: %d lessons in %s", ErrInvalidLessons, row.Lessons, row.Period)
		}
		if _, dup := seen[row.Period]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateMonth, row.Period)
		}
		seen[row.Period] = struct{}{}
		sum += row.Lessons
	}
	if sum != lc.TotalLessons {
		return fmt.Errorf("%w: allocated %d, total %d", ErrAllocationMismatch, sum, lc.TotalLessons)
	}
	return nil
}

// TotalAmount is unit price × total lessons, for display only.
func (lc LectureCourse) TotalAmount() Yen {
	return lc.UnitPrice * Yen(lc.TotalLessons)
}

// LessonsIn returns the lessons allocated to p, 0 when the month has no row.
func (lc LectureCourse) LessonsIn(p Period) int {
	for _, row := range lc.Allocation {
		if row.Period == p {
			return row.Lessons
		}
	}
	return 0
}

func (l Lecture) Validate() error {
	if err := l.Grade.Validate(); err != nil {
		return err
	}
	if len(l.Courses) == 0 {
		return ErrNoCourses
	}
	if len(l.Courses) > MaxLectureCourses {
		return fmt.Errorf("%w: %d (max %d)", ErrTooManyCourses, len(l.Courses), MaxLectureCourses)
	}
	for _, c := range l.Courses {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("course %s: %w", c.Course, err)
		}
	}
	return nil
}

// TotalAmount sums every course's display total
func (l Lecture) TotalAmount() Yen {
	var total Yen
	for _, c := range l.Courses {
		total += c.TotalAmount()
	}
	return total
}

// Periods returns the distinct months in which any course has lessons, in order.
func (l Lecture) Periods() []Period {
	seen := map[Period]struct{}{}
	var out []Period
	for _, c := range l.Courses {
		for _, row := range c.Allocation {
			if row.Lessons <= 0 {
				continue
			}
			if _, ok := seen[row.Period]; ok {
				continue
			}
			seen[row.Period] = struct{}{}
			out = append(out, row.Period)
		}
	}
	sortPeriods(out)
	return out
}

func (m MaterialSale) Validate() error {
	if m.UnitPrice < 0 {
		return ErrInvalidAmount
	}
	if m.Quantity < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidQuantity, m.Quantity)
	}
	return m.Billing.Validate()
}

// Total is unit price × quantity
func (m MaterialSale) Total() Yen {
	return m.UnitPrice * Yen(m.Quantity)
}

func (s Student) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return errors.New("empty student name")
	}
	if s.DirectDebitStart != nil {
		if err := s.DirectDebitStart.Validate(); err != nil {
			return fmt.Errorf("direct debit start: %w", err)
		}
	}
	return nil
}

func (k ItemKey) Validate() error {
	if err := k.Type.Validate(); err != nil {
		return err
	}
	if k.RefID <= 0 {
		return fmt.Errorf("invalid reference id %d", k.RefID)
	}
	return k.Period.Validate()
}

func (k ItemKey) String() string {
	return fmt.Sprintf("%s:%d@%s", k.Type, k.RefID, k.Period)
}

func sortPeriods(ps []Period) {
	slices.SortFunc(ps, func(a, b Period) int { return a.Compare(b) })
}
