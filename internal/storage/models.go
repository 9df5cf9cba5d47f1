package storage

import (
	"database/sql"
)

type Student struct {
	ID               int64
	Name             string
	Number           string
	DirectDebitStart sql.NullString
}

type Contract struct {
	ID               int64
	StudentID        int64
	PredecessorID    sql.NullInt64
	Grade            string
	StartDate        string
	EndDate          sql.NullString
	Campaign         string
	MonthlyAmount    int64
	EnrollmentFee    int64
	CampaignDiscount int64
}

type ContractCourse struct {
	ContractID     int64
	Position       int64
	Course         string
	LessonsPerWeek int64
}

type Lecture struct {
	ID        int64
	StudentID int64
	Grade     string
	Label     string
}

type LectureCourse struct {
	ID           int64
	LectureID    int64
	Position     int64
	Course       string
	UnitPrice    int64
	TotalLessons int64
}

type LectureAllocation struct {
	LectureCourseID int64
	Year            int64
	Month           int64
	Lessons         int64
}

type MaterialSale struct {
	ID           int64
	StudentID    int64
	Name         string
	UnitPrice    int64
	Quantity     int64
	SaleDate     sql.NullString
	BillingYear  int64
	BillingMonth int64
}

type Payment struct {
	ID             int64
	BillingType    string
	RefID          int64
	Year           int64
	Month          int64
	BilledAmount   int64
	PaidAmount     int64
	PaymentDate    sql.NullString
	PaymentMethod  sql.NullString
	FollowupStatus string
	Notes          string
}

type MethodOverride struct {
	BillingType   string
	RefID         int64
	Year          int64
	Month         int64
	PaymentMethod string
}
