package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"juku/internal/core"
	"juku/internal/log"
	"juku/internal/reconcile"
	"juku/internal/report"

	_ "modernc.org/sqlite"
)

const dateLayout = "2006-01-02"

var ErrNotFound = errors.New("not found")

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) withTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(r.queries.WithTx(tx)); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// LoadSnapshot reads everything billable between from and to inclusive in a
// single transaction.
func (r *SQLiteRepository) LoadSnapshot(ctx context.Context, from, to core.Period) (report.Snapshot, error) {
	var snap report.Snapshot
	if to.Before(from) {
		return snap, fmt.Errorf("%w: %s after %s", core.ErrInvalidPeriod, from, to)
	}
	start := firstDay(from)
	endExclusive := firstDay(to.Next())
	fromYM, toYM := ym(from), ym(to)

	begin := time.Now()
	err := r.withTx(ctx, func(q *Queries) error {
		students, err := q.ListStudents(ctx)
		if err != nil {
			return fmt.Errorf("list students: %w", err)
		}
		for _, s := range students {
			st, err := studentFromRow(s)
			if err != nil {
				return err
			}
			snap.Students = append(snap.Students, st)
		}

		contracts, err := q.ListContractsInRange(ctx, endExclusive, start)
		if err != nil {
			return fmt.Errorf("list contracts: %w", err)
		}
		courses, err := q.ListContractCoursesInRange(ctx, endExclusive, start)
		if err != nil {
			return fmt.Errorf("list contract courses: %w", err)
		}
		byContract := make(map[int64][]core.CourseEntry, len(contracts))
		for _, c := range courses {
			byContract[c.ContractID] = append(byContract[c.ContractID], core.CourseEntry{
				Course:         core.Course(c.Course),
				LessonsPerWeek: int(c.LessonsPerWeek),
			})
		}
		for _, c := range contracts {
			ct, err := contractFromRow(c, byContract[c.ID])
			if err != nil {
				return err
			}
			snap.Contracts = append(snap.Contracts, ct)
		}

		snap.Lectures, err = loadLectures(ctx, q, fromYM, toYM)
		if err != nil {
			return err
		}

		materials, err := q.ListMaterialSalesInRange(ctx, fromYM, toYM)
		if err != nil {
			return fmt.Errorf("list material sales: %w", err)
		}
		for _, m := range materials {
			sale, err := materialFromRow(m)
			if err != nil {
				return err
			}
			snap.Materials = append(snap.Materials, sale)
		}

		payments, err := q.ListPaymentsInRange(ctx, fromYM, toYM)
		if err != nil {
			return fmt.Errorf("list payments: %w", err)
		}
		for _, p := range payments {
			rec, err := recordFromRow(p)
			if err != nil {
				return err
			}
			snap.Payments = append(snap.Payments, rec)
		}

		overrides, err := q.ListMethodOverridesInRange(ctx, fromYM, toYM)
		if err != nil {
			return fmt.Errorf("list method overrides: %w", err)
		}
		for _, o := range overrides {
			snap.Overrides = append(snap.Overrides, overrideFromRow(o))
		}
		return nil
	})
	if err != nil {
		return report.Snapshot{}, fmt.Errorf("load snapshot: %w", err)
	}

	slog.DebugContext(ctx, "Snapshot loaded",
		log.FieldComponent, log.ComponentStorage,
		"from", from.String(),
		"to", to.String(),
		"contracts", len(snap.Contracts),
		"lectures", len(snap.Lectures),
		"payments", len(snap.Payments),
		log.FieldDuration, time.Since(begin).Milliseconds())
	return snap, nil
}

func loadLectures(ctx context.Context, q *Queries, fromYM, toYM int64) ([]core.Lecture, error) {
	lectures, err := q.ListLecturesInRange(ctx, fromYM, toYM)
	if err != nil {
		return nil, fmt.Errorf("list lectures: %w", err)
	}
	if len(lectures) == 0 {
		return nil, nil
	}
	courses, err := q.ListLectureCoursesInRange(ctx, fromYM, toYM)
	if err != nil {
		return nil, fmt.Errorf("list lecture courses: %w", err)
	}
	allocs, err := q.ListLectureAllocationsInRange(ctx, fromYM, toYM)
	if err != nil {
		return nil, fmt.Errorf("list lecture allocations: %w", err)
	}

	byCourse := make(map[int64][]core.AllocationRow, len(courses))
	for _, a := range allocs {
		byCourse[a.LectureCourseID] = append(byCourse[a.LectureCourseID], core.AllocationRow{
			Period:  core.NewPeriod(int(a.Year), int(a.Month)),
			Lessons: int(a.Lessons),
		})
	}
	byLecture := make(map[int64][]core.LectureCourse, len(lectures))
	for _, c := range courses {
		byLecture[c.LectureID] = append(byLecture[c.LectureID], core.LectureCourse{
			Course:       core.Course(c.Course),
			UnitPrice:    core.Yen(c.UnitPrice),
			TotalLessons: int(c.TotalLessons),
			Allocation:   byCourse[c.ID],
		})
	}

	out := make([]core.Lecture, 0, len(lectures))
	for _, l := range lectures {
		out = append(out, core.Lecture{
			ID:        l.ID,
			StudentID: l.StudentID,
			Grade:     core.Grade(l.Grade),
			Label:     l.Label,
			Courses:   byLecture[l.ID],
		})
	}
	return out, nil
}

// Entry returns whatever is recorded against key.
func (r *SQLiteRepository) Entry(ctx context.Context, key core.ItemKey) (reconcile.Entry, error) {
	var e reconcile.Entry
	arg := keyParams(key)

	p, err := r.queries.GetPayment(ctx, arg)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return e, fmt.Errorf("get payment %s: %w", key, err)
	default:
		rec, err := recordFromRow(p)
		if err != nil {
			return e, err
		}
		e.Record = &rec
	}

	o, err := r.queries.GetMethodOverride(ctx, arg)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return e, fmt.Errorf("get method override %s: %w", key, err)
	default:
		ov := overrideFromRow(o)
		e.Override = &ov
	}
	return e, nil
}

// SaveEntry replaces everything recorded against key with e. An empty entry
// deletes both the payment and the override.
func (r *SQLiteRepository) SaveEntry(ctx context.Context, key core.ItemKey, e reconcile.Entry) (reconcile.Entry, error) {
	if err := key.Validate(); err != nil {
		return e, err
	}
	if e.Override != nil {
		if err := e.Override.Method.Validate(); err != nil {
			return e, err
		}
	}
	arg := keyParams(key)
	err := r.withTx(ctx, func(q *Queries) error {
		if e.Record == nil {
			if _, err := q.DeletePayment(ctx, arg); err != nil {
				return fmt.Errorf("delete payment: %w", err)
			}
		} else {
			rec := *e.Record
			rec.Key = key
			id, err := q.UpsertPayment(ctx, recordToRow(rec))
			if err != nil {
				return fmt.Errorf("upsert payment: %w", err)
			}
			rec.ID = id
			e.Record = &rec
		}

		if e.Override == nil {
			if _, err := q.DeleteMethodOverride(ctx, arg); err != nil {
				return fmt.Errorf("delete method override: %w", err)
			}
			return nil
		}
		ov := *e.Override
		ov.Key = key
		if err := q.UpsertMethodOverride(ctx, overrideToRow(ov)); err != nil {
			return fmt.Errorf("upsert method override: %w", err)
		}
		e.Override = &ov
		return nil
	})
	if err != nil {
		return reconcile.Entry{}, fmt.Errorf("save entry %s: %w", key, err)
	}
	if e.Record != nil {
		slog.InfoContext(ctx, "Payment saved",
			log.FieldComponent, log.ComponentStorage,
			"id", e.Record.ID,
			log.FieldBillingType, string(key.Type),
			log.FieldRefID, key.RefID,
			log.FieldPeriod, key.Period.String(),
			log.FieldPaidAmount, int64(e.Record.PaidAmount))
	}
	return e, nil
}

// DeletePayment removes the payment and the method override of key. It
// reports whether anything was removed.
func (r *SQLiteRepository) DeletePayment(ctx context.Context, key core.ItemKey) (bool, error) {
	arg := keyParams(key)
	var removed int64
	err := r.withTx(ctx, func(q *Queries) error {
		n, err := q.DeletePayment(ctx, arg)
		if err != nil {
			return err
		}
		m, err := q.DeleteMethodOverride(ctx, arg)
		if err != nil {
			return err
		}
		removed = n + m
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("delete payment %s: %w", key, err)
	}
	return removed > 0, nil
}

// ImportStats counts what ImportLegacy wrote
type ImportStats struct {
	Records   int
	Overrides int
	Skipped   int
}

// ImportLegacy loads single-row payments, splitting method-only rows into
// overrides.
func (r *SQLiteRepository) ImportLegacy(ctx context.Context, payments []core.Payment) (ImportStats, error) {
	var stats ImportStats
	err := r.withTx(ctx, func(q *Queries) error {
		for _, p := range payments {
			if err := p.Key.Validate(); err != nil {
				return fmt.Errorf("payment %d: %w", p.ID, err)
			}
			rec, ov := reconcile.SplitLegacy(p)
			switch {
			case rec != nil:
				if _, err := q.UpsertPayment(ctx, recordToRow(*rec)); err != nil {
					return fmt.Errorf("payment %s: %w", p.Key, err)
				}
				stats.Records++
			case ov != nil:
				if err := q.UpsertMethodOverride(ctx, overrideToRow(*ov)); err != nil {
					return fmt.Errorf("override %s: %w", p.Key, err)
				}
				stats.Overrides++
			default:
				stats.Skipped++
			}
		}
		return nil
	})
	if err != nil {
		return ImportStats{}, fmt.Errorf("import legacy payments: %w", err)
	}
	slog.InfoContext(ctx, "Legacy payments imported",
		log.FieldComponent, log.ComponentStorage,
		"records", stats.Records,
		"overrides", stats.Overrides,
		"skipped", stats.Skipped)
	return stats, nil
}

// SaveStudent inserts s when its ID is 0 and updates it otherwise.
func (r *SQLiteRepository) SaveStudent(ctx context.Context, s core.Student) (int64, error) {
	if err := s.Validate(); err != nil {
		return 0, err
	}
	row := Student{ID: s.ID, Name: s.Name, Number: s.Number, DirectDebitStart: periodToNull(s.DirectDebitStart)}
	if s.ID == 0 {
		id, err := r.queries.CreateStudent(ctx, CreateStudentParams{
			Name:             row.Name,
			Number:           row.Number,
			DirectDebitStart: row.DirectDebitStart,
		})
		if err != nil {
			return 0, fmt.Errorf("create student: %w", err)
		}
		return id, nil
	}
	n, err := r.queries.UpdateStudent(ctx, row)
	if err != nil {
		return 0, fmt.Errorf("update student: %w", err)
	}
	if n == 0 {
		return 0, fmt.Errorf("student %d: %w", s.ID, ErrNotFound)
	}
	return s.ID, nil
}

// SaveContract stores the contract with its courses. Derived amounts are
// stored as given.
func (r *SQLiteRepository) SaveContract(ctx context.Context, ct core.Contract) (int64, error) {
	if err := ct.Validate(); err != nil {
		return 0, err
	}
	row := contractToRow(ct)
	id := ct.ID
	err := r.withTx(ctx, func(q *Queries) error {
		if id == 0 {
			newID, err := q.CreateContract(ctx, row)
			if err != nil {
				return fmt.Errorf("create contract: %w", err)
			}
			id = newID
		} else {
			n, err := q.UpdateContract(ctx, row)
			if err != nil {
				return fmt.Errorf("update contract: %w", err)
			}
			if n == 0 {
				return fmt.Errorf("contract %d: %w", id, ErrNotFound)
			}
			if err := q.DeleteContractCourses(ctx, id); err != nil {
				return fmt.Errorf("clear contract courses: %w", err)
			}
		}
		for i, c := range ct.Courses {
			if err := q.InsertContractCourse(ctx, ContractCourse{
				ContractID:     id,
				Position:       int64(i),
				Course:         string(c.Course),
				LessonsPerWeek: int64(c.LessonsPerWeek),
			}); err != nil {
				return fmt.Errorf("insert contract course: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// GetContract loads a contract with its courses.
func (r *SQLiteRepository) GetContract(ctx context.Context, id int64) (core.Contract, error) {
	row, err := r.queries.GetContract(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Contract{}, fmt.Errorf("contract %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return core.Contract{}, fmt.Errorf("get contract %d: %w", id, err)
	}
	rows, err := r.queries.ListContractCourses(ctx, id)
	if err != nil {
		return core.Contract{}, fmt.Errorf("list contract courses: %w", err)
	}
	courses := make([]core.CourseEntry, 0, len(rows))
	for _, c := range rows {
		courses = append(courses, core.CourseEntry{Course: core.Course(c.Course), LessonsPerWeek: int(c.LessonsPerWeek)})
	}
	return contractFromRow(row, courses)
}

// SaveLecture stores the lecture, its courses and their allocations. The
// allocation is validated before anything is written.
func (r *SQLiteRepository) SaveLecture(ctx context.Context, l core.Lecture) (int64, error) {
	if err := l.Validate(); err != nil {
		return 0, err
	}
	id := l.ID
	err := r.withTx(ctx, func(q *Queries) error {
		row := Lecture{ID: id, StudentID: l.StudentID, Grade: string(l.Grade), Label: l.Label}
		if id == 0 {
			newID, err := q.CreateLecture(ctx, row)
			if err != nil {
				return fmt.Errorf("create lecture: %w", err)
			}
			id = newID
		} else {
			n, err := q.UpdateLecture(ctx, row)
			if err != nil {
				return fmt.Errorf("update lecture: %w", err)
			}
			if n == 0 {
				return fmt.Errorf("lecture %d: %w", id, ErrNotFound)
			}
			if err := q.DeleteLectureCourses(ctx, id); err != nil {
				return fmt.Errorf("clear lecture courses: %w", err)
			}
		}
		for i, c := range l.Courses {
			courseID, err := q.CreateLectureCourse(ctx, LectureCourse{
				LectureID:    id,
				Position:     int64(i),
				Course:       string(c.Course),
				UnitPrice:    int64(c.UnitPrice),
				TotalLessons: int64(c.TotalLessons),
			})
			if err != nil {
				return fmt.Errorf("create lecture course: %w", err)
			}
			for _, a := range c.Allocation {
				if err := q.InsertLectureAllocation(ctx, LectureAllocation{
					LectureCourseID: courseID,
					Year:            int64(a.Period.Year),
					Month:           int64(a.Period.Month),
					Lessons:         int64(a.Lessons),
				}); err != nil {
					return fmt.Errorf("insert allocation %s: %w", a.Period, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// SaveMaterial stores a material sale
func (r *SQLiteRepository) SaveMaterial(ctx context.Context, m core.MaterialSale) (int64, error) {
	if err := m.Validate(); err != nil {
		return 0, err
	}
	row := MaterialSale{
		ID:           m.ID,
		StudentID:    m.StudentID,
		Name:         m.Name,
		UnitPrice:    int64(m.UnitPrice),
		Quantity:     int64(m.Quantity),
		SaleDate:     dateToNull(m.SaleDate),
		BillingYear:  int64(m.Billing.Year),
		BillingMonth: int64(m.Billing.Month),
	}
	if m.ID == 0 {
		id, err := r.queries.CreateMaterialSale(ctx, row)
		if err != nil {
			return 0, fmt.Errorf("create material sale: %w", err)
		}
		return id, nil
	}
	n, err := r.queries.UpdateMaterialSale(ctx, row)
	if err != nil {
		return 0, fmt.Errorf("update material sale: %w", err)
	}
	if n == 0 {
		return 0, fmt.Errorf("material sale %d: %w", m.ID, ErrNotFound)
	}
	return m.ID, nil
}
