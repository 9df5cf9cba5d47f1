package storage

import (
	"context"
	"database/sql"
)

const createStudent = `-- name: CreateStudent :one
INSERT INTO students (name, number, direct_debit_start)
VALUES (?, ?, ?)
RETURNING id
`

type CreateStudentParams struct {
	Name             string
	Number           string
	DirectDebitStart sql.NullString
}

func (q *Queries) CreateStudent(ctx context.Context, arg CreateStudentParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, createStudent, arg.Name, arg.Number, arg.DirectDebitStart)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const updateStudent = `-- name: UpdateStudent :execrows
UPDATE students SET name = ?, number = ?, direct_debit_start = ?
WHERE id = ?
`

func (q *Queries) UpdateStudent(ctx context.Context, arg Student) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateStudent, arg.Name, arg.Number, arg.DirectDebitStart, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const listStudents = `-- name: ListStudents :many
SELECT id, name, number, direct_debit_start
FROM students
ORDER BY id
`

func (q *Queries) ListStudents(ctx context.Context) ([]Student, error) {
	rows, err := q.db.QueryContext(ctx, listStudents)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Student
	for rows.Next() {
		var i Student
		if err := rows.Scan(&i.ID, &i.Name, &i.Number, &i.DirectDebitStart); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createContract = `-- name: CreateContract :one
INSERT INTO contracts (
    student_id, predecessor_id, grade, start_date, end_date, campaign,
    monthly_amount, enrollment_fee, campaign_discount
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING id
`

func (q *Queries) CreateContract(ctx context.Context, arg Contract) (int64, error) {
	row := q.db.QueryRowContext(ctx, createContract,
		arg.StudentID,
		arg.PredecessorID,
		arg.Grade,
		arg.StartDate,
		arg.EndDate,
		arg.Campaign,
		arg.MonthlyAmount,
		arg.EnrollmentFee,
		arg.CampaignDiscount,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const updateContract = `-- name: UpdateContract :execrows
UPDATE contracts SET
    student_id = ?, predecessor_id = ?, grade = ?, start_date = ?, end_date = ?,
    campaign = ?, monthly_amount = ?, enrollment_fee = ?, campaign_discount = ?
WHERE id = ?
`

func (q *Queries) UpdateContract(ctx context.Context, arg Contract) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateContract,
		arg.StudentID,
		arg.PredecessorID,
		arg.Grade,
		arg.StartDate,
		arg.EndDate,
		arg.Campaign,
		arg.MonthlyAmount,
		arg.EnrollmentFee,
		arg.CampaignDiscount,
		arg.ID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const getContract = `-- name: GetContract :one
SELECT id, student_id, predecessor_id, grade, start_date, end_date, campaign,
       monthly_amount, enrollment_fee, campaign_discount
FROM contracts
WHERE id = ?
`

func (q *Queries) GetContract(ctx context.Context, id int64) (Contract, error) {
	row := q.db.QueryRowContext(ctx, getContract, id)
	var i Contract
	err := row.Scan(
		&i.ID,
		&i.StudentID,
		&i.PredecessorID,
		&i.Grade,
		&i.StartDate,
		&i.EndDate,
		&i.Campaign,
		&i.MonthlyAmount,
		&i.EnrollmentFee,
		&i.CampaignDiscount,
	)
	return i, err
}

const listContractsInRange = `-- name: ListContractsInRange :many
SELECT id, student_id, predecessor_id, grade, start_date, end_date, campaign,
       monthly_amount, enrollment_fee, campaign_discount
FROM contracts
WHERE start_date < ?1 AND (end_date IS NULL OR end_date >= ?2)
ORDER BY id
`

// ListContractsInRange returns contracts starting before endExclusive and not
// ended before start. Both bounds are YYYY-MM-DD.
func (q *Queries) ListContractsInRange(ctx context.Context, endExclusive, start string) ([]Contract, error) {
	rows, err := q.db.QueryContext(ctx, listContractsInRange, endExclusive, start)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Contract
	for rows.Next() {
		var i Contract
		if err := rows.Scan(
			&i.ID,
			&i.StudentID,
			&i.PredecessorID,
			&i.Grade,
			&i.StartDate,
			&i.EndDate,
			&i.Campaign,
			&i.MonthlyAmount,
			&i.EnrollmentFee,
			&i.CampaignDiscount,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteContractCourses = `-- name: DeleteContractCourses :exec
DELETE FROM contract_courses WHERE contract_id = ?
`

func (q *Queries) DeleteContractCourses(ctx context.Context, contractID int64) error {
	_, err := q.db.ExecContext(ctx, deleteContractCourses, contractID)
	return err
}

const insertContractCourse = `-- name: InsertContractCourse :exec
INSERT INTO contract_courses (contract_id, position, course, lessons_per_week)
VALUES (?, ?, ?, ?)
`

func (q *Queries) InsertContractCourse(ctx context.Context, arg ContractCourse) error {
	_, err := q.db.ExecContext(ctx, insertContractCourse, arg.ContractID, arg.Position, arg.Course, arg.LessonsPerWeek)
	return err
}

const listContractCourses = `-- name: ListContractCourses :many
SELECT contract_id, position, course, lessons_per_week
FROM contract_courses
WHERE contract_id = ?
ORDER BY position
`

func (q *Queries) ListContractCourses(ctx context.Context, contractID int64) ([]ContractCourse, error) {
	return q.scanContractCourses(ctx, listContractCourses, contractID)
}

const listContractCoursesInRange = `-- name: ListContractCoursesInRange :many
SELECT cc.contract_id, cc.position, cc.course, cc.lessons_per_week
FROM contract_courses cc
JOIN contracts c ON c.id = cc.contract_id
WHERE c.start_date < ?1 AND (c.end_date IS NULL OR c.end_date >= ?2)
ORDER BY cc.contract_id, cc.position
`

func (q *Queries) ListContractCoursesInRange(ctx context.Context, endExclusive, start string) ([]ContractCourse, error) {
	return q.scanContractCourses(ctx, listContractCoursesInRange, endExclusive, start)
}

func (q *Queries) scanContractCourses(ctx context.Context, query string, args ...interface{}) ([]ContractCourse, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ContractCourse
	for rows.Next() {
		var i ContractCourse
		if err := rows.Scan(&i.ContractID, &i.Position, &i.Course, &i.LessonsPerWeek); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createLecture = `-- name: CreateLecture :one
INSERT INTO lectures (student_id, grade, label)
VALUES (?, ?, ?)
RETURNING id
`

func (q *Queries) CreateLecture(ctx context.Context, arg Lecture) (int64, error) {
	row := q.db.QueryRowContext(ctx, createLecture, arg.StudentID, arg.Grade, arg.Label)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const updateLecture = `-- name: UpdateLecture :execrows
UPDATE lectures SET student_id = ?, grade = ?, label = ?
WHERE id = ?
`

func (q *Queries) UpdateLecture(ctx context.Context, arg Lecture) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateLecture, arg.StudentID, arg.Grade, arg.Label, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteLectureCourses = `-- name: DeleteLectureCourses :exec
DELETE FROM lecture_courses WHERE lecture_id = ?
`

func (q *Queries) DeleteLectureCourses(ctx context.Context, lectureID int64) error {
	_, err := q.db.ExecContext(ctx, deleteLectureCourses, lectureID)
	return err
}

const createLectureCourse = `-- name: CreateLectureCourse :one
INSERT INTO lecture_courses (lecture_id, position, course, unit_price, total_lessons)
VALUES (?, ?, ?, ?, ?)
RETURNING id
`

func (q *Queries) CreateLectureCourse(ctx context.Context, arg LectureCourse) (int64, error) {
	row := q.db.QueryRowContext(ctx, createLectureCourse,
		arg.LectureID,
		arg.Position,
		arg.Course,
		arg.UnitPrice,
		arg.TotalLessons,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const insertLectureAllocation = `-- name: InsertLectureAllocation :exec
INSERT INTO lecture_allocations (lecture_course_id, year, month, lessons)
VALUES (?, ?, ?, ?)
`

func (q *Queries) InsertLectureAllocation(ctx context.Context, arg LectureAllocation) error {
	_, err := q.db.ExecContext(ctx, insertLectureAllocation, arg.LectureCourseID, arg.Year, arg.Month, arg.Lessons)
	return err
}

// Lectures are in range when any of their courses has lessons allocated to a
// month between the two year*100+month bounds.
const lecturesInRange = `
SELECT DISTINCT lc.lecture_id
FROM lecture_courses lc
JOIN lecture_allocations la ON la.lecture_course_id = lc.id
WHERE la.lessons > 0 AND (la.year * 100 + la.month) BETWEEN ?1 AND ?2
`

const listLecturesInRange = `-- name: ListLecturesInRange :many
SELECT id, student_id, grade, label
FROM lectures
WHERE id IN (` + lecturesInRange + `)
ORDER BY id
`

func (q *Queries) ListLecturesInRange(ctx context.Context, fromYM, toYM int64) ([]Lecture, error) {
	rows, err := q.db.QueryContext(ctx, listLecturesInRange, fromYM, toYM)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Lecture
	for rows.Next() {
		var i Lecture
		if err := rows.Scan(&i.ID, &i.StudentID, &i.Grade, &i.Label); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listLectureCoursesInRange = `-- name: ListLectureCoursesInRange :many
SELECT id, lecture_id, position, course, unit_price, total_lessons
FROM lecture_courses
WHERE lecture_id IN (` + lecturesInRange + `)
ORDER BY lecture_id, position
`

func (q *Queries) ListLectureCoursesInRange(ctx context.Context, fromYM, toYM int64) ([]LectureCourse, error) {
	rows, err := q.db.QueryContext(ctx, listLectureCoursesInRange, fromYM, toYM)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []LectureCourse
	for rows.Next() {
		var i LectureCourse
		if err := rows.Scan(&i.ID, &i.LectureID, &i.Position, &i.Course, &i.UnitPrice, &i.TotalLessons); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listLectureAllocationsInRange = `-- name: ListLectureAllocationsInRange :many
SELECT la.lecture_course_id, la.year, la.month, la.lessons
FROM lecture_allocations la
JOIN lecture_courses lc ON lc.id = la.lecture_course_id
WHERE lc.lecture_id IN (` + lecturesInRange + `)
ORDER BY la.lecture_course_id, la.year, la.month
`

func (q *Queries) ListLectureAllocationsInRange(ctx context.Context, fromYM, toYM int64) ([]LectureAllocation, error) {
	rows, err := q.db.QueryContext(ctx, listLectureAllocationsInRange, fromYM, toYM)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []LectureAllocation
	for rows.Next() {
		var i LectureAllocation
		if err := rows.Scan(&i.LectureCourseID, &i.Year, &i.Month, &i.Lessons); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createMaterialSale = `-- name: CreateMaterialSale :one
INSERT INTO material_sales (student_id, name, unit_price, quantity, sale_date, billing_year, billing_month)
VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING id
`

func (q *Queries) CreateMaterialSale(ctx context.Context, arg MaterialSale) (int64, error) {
	row := q.db.QueryRowContext(ctx, createMaterialSale,
		arg.StudentID,
		arg.Name,
		arg.UnitPrice,
		arg.Quantity,
		arg.SaleDate,
		arg.BillingYear,
		arg.BillingMonth,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const updateMaterialSale = `-- name: UpdateMaterialSale :execrows
UPDATE material_sales SET
    student_id = ?, name = ?, unit_price = ?, quantity = ?, sale_date = ?,
    billing_year = ?, billing_month = ?
WHERE id = ?
`

func (q *Queries) UpdateMaterialSale(ctx context.Context, arg MaterialSale) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateMaterialSale,
		arg.StudentID,
		arg.Name,
		arg.UnitPrice,
		arg.Quantity,
		arg.SaleDate,
		arg.BillingYear,
		arg.BillingMonth,
		arg.ID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const listMaterialSalesInRange = `-- name: ListMaterialSalesInRange :many
SELECT id, student_id, name, unit_price, quantity, sale_date, billing_year, billing_month
FROM material_sales
WHERE (billing_year * 100 + billing_month) BETWEEN ?1 AND ?2
ORDER BY id
`

func (q *Queries) ListMaterialSalesInRange(ctx context.Context, fromYM, toYM int64) ([]MaterialSale, error) {
	rows, err := q.db.QueryContext(ctx, listMaterialSalesInRange, fromYM, toYM)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []MaterialSale
	for rows.Next() {
		var i MaterialSale
		if err := rows.Scan(
			&i.ID,
			&i.StudentID,
			&i.Name,
			&i.UnitPrice,
			&i.Quantity,
			&i.SaleDate,
			&i.BillingYear,
			&i.BillingMonth,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const upsertPayment = `-- name: UpsertPayment :one
INSERT INTO payments (
    billing_type, ref_id, year, month, billed_amount, paid_amount,
    payment_date, payment_method, followup_status, notes
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (billing_type, ref_id, year, month) DO UPDATE SET
    billed_amount = excluded.billed_amount,
    paid_amount = excluded.paid_amount,
    payment_date = excluded.payment_date,
    payment_method = excluded.payment_method,
    followup_status = excluded.followup_status,
    notes = excluded.notes,
    updated_at = CURRENT_TIMESTAMP
RETURNING id
`

func (q *Queries) UpsertPayment(ctx context.Context, arg Payment) (int64, error) {
	row := q.db.QueryRowContext(ctx, upsertPayment,
		arg.BillingType,
		arg.RefID,
		arg.Year,
		arg.Month,
		arg.BilledAmount,
		arg.PaidAmount,
		arg.PaymentDate,
		arg.PaymentMethod,
		arg.FollowupStatus,
		arg.Notes,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

type ItemKeyParams struct {
	BillingType string
	RefID       int64
	Year        int64
	Month       int64
}

const getPayment = `-- name: GetPayment :one
SELECT id, billing_type, ref_id, year, month, billed_amount, paid_amount,
       payment_date, payment_method, followup_status, notes
FROM payments
WHERE billing_type = ? AND ref_id = ? AND year = ? AND month = ?
`

func (q *Queries) GetPayment(ctx context.Context, arg ItemKeyParams) (Payment, error) {
	row := q.db.QueryRowContext(ctx, getPayment, arg.BillingType, arg.RefID, arg.Year, arg.Month)
	var i Payment
	err := row.Scan(
		&i.ID,
		&i.BillingType,
		&i.RefID,
		&i.Year,
		&i.Month,
		&i.BilledAmount,
		&i.PaidAmount,
		&i.PaymentDate,
		&i.PaymentMethod,
		&i.FollowupStatus,
		&i.Notes,
	)
	return i, err
}

const deletePayment = `-- name: DeletePayment :execrows
DELETE FROM payments
WHERE billing_type = ? AND ref_id = ? AND year = ? AND month = ?
`

func (q *Queries) DeletePayment(ctx context.Context, arg ItemKeyParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, deletePayment, arg.BillingType, arg.RefID, arg.Year, arg.Month)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const listPaymentsInRange = `-- name: ListPaymentsInRange :many
SELECT id, billing_type, ref_id, year, month, billed_amount, paid_amount,
       payment_date, payment_method, followup_status, notes
FROM payments
WHERE (year * 100 + month) BETWEEN ?1 AND ?2
ORDER BY id
`

func (q *Queries) ListPaymentsInRange(ctx context.Context, fromYM, toYM int64) ([]Payment, error) {
	rows, err := q.db.QueryContext(ctx, listPaymentsInRange, fromYM, toYM)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Payment
	for rows.Next() {
		var i Payment
		if err := rows.Scan(
			&i.ID,
			&i.BillingType,
			&i.RefID,
			&i.Year,
			&i.Month,
			&i.BilledAmount,
			&i.PaidAmount,
			&i.PaymentDate,
			&i.PaymentMethod,
			&i.FollowupStatus,
			&i.Notes,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const upsertMethodOverride = `-- name: UpsertMethodOverride :exec
INSERT INTO method_overrides (billing_type, ref_id, year, month, payment_method)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (billing_type, ref_id, year, month) DO UPDATE SET
    payment_method = excluded.payment_method,
    updated_at = CURRENT_TIMESTAMP
`

func (q *Queries) UpsertMethodOverride(ctx context.Context, arg MethodOverride) error {
	_, err := q.db.ExecContext(ctx, upsertMethodOverride, arg.BillingType, arg.RefID, arg.Year, arg.Month, arg.PaymentMethod)
	return err
}

const getMethodOverride = `-- name: GetMethodOverride :one
SELECT billing_type, ref_id, year, month, payment_method
FROM method_overrides
WHERE billing_type = ? AND ref_id = ? AND year = ? AND month = ?
`

func (q *Queries) GetMethodOverride(ctx context.Context, arg ItemKeyParams) (MethodOverride, error) {
	row := q.db.QueryRowContext(ctx, getMethodOverride, arg.BillingType, arg.RefID, arg.Year, arg.Month)
	var i MethodOverride
	err := row.Scan(&i.BillingType, &i.RefID, &i.Year, &i.Month, &i.PaymentMethod)
	return i, err
}

const deleteMethodOverride = `-- name: DeleteMethodOverride :execrows
DELETE FROM method_overrides
WHERE billing_type = ? AND ref_id = ? AND year = ? AND month = ?
`

func (q *Queries) DeleteMethodOverride(ctx context.Context, arg ItemKeyParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteMethodOverride, arg.BillingType, arg.RefID, arg.Year, arg.Month)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const listMethodOverridesInRange = `-- name: ListMethodOverridesInRange :many
SELECT billing_type, ref_id, year, month, payment_method
FROM method_overrides
WHERE (year * 100 + month) BETWEEN ?1 AND ?2
ORDER BY billing_type, ref_id, year, month
`

func (q *Queries) ListMethodOverridesInRange(ctx context.Context, fromYM, toYM int64) ([]MethodOverride, error) {
	rows, err := q.db.QueryContext(ctx, listMethodOverridesInRange, fromYM, toYM)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []MethodOverride
	for rows.Next() {
		var i MethodOverride
		if err := rows.Scan(&i.BillingType, &i.RefID, &i.Year, &i.Month, &i.PaymentMethod); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
