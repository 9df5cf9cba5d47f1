package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"juku/internal/billing"
	"juku/internal/core"
)

var importRecordsCmd = &cobra.Command{
	Use:   "import-records <file.yaml>",
	Short: "Import students, contracts, lectures and material sales",
	Long: `Import billing records from YAML. Students are created first; later
sections refer to them by number, or to an existing student by student_id.
Contract fees and the quoted monthly amount are computed from the pricing
table at import time. Records are written in file order and a failing
record stops the import.

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
      billing_period: 2026-05`,
	Args: cobra.ExactArgs(1),
	RunE: withApp(runImportRecords),
}

func init() {
	rootCmd.AddCommand(importRecordsCmd)
}

var errUnknownStudent = errors.New("unknown student")

type recordsFile struct {
	Students  []studentRow  `yaml:"students"`
	Contracts []contractRow `yaml:"contracts"`
	Lectures  []lectureRow  `yaml:"lectures"`
	Materials []materialRow `yaml:"materials"`
}

// studentRef names the owner of a record: a student from the same file by
// number, or an existing one by id.
type studentRef struct {
	Number string `yaml:"student"`
	ID     int64  `yaml:"student_id"`
}

type studentRow struct {
	Number           string `yaml:"number"`
	Name             string `yaml:"name"`
	DirectDebitStart string `yaml:"direct_debit_start"`
}

type courseRow struct {
	Course         string `yaml:"course"`
	LessonsPerWeek int    `yaml:"lessons_per_week"`
}

type contractRow struct {
	studentRef `yaml:",inline"`
	Grade      string      `yaml:"grade"`
	StartDate  string      `yaml:"start_date"`
	EndDate    string      `yaml:"end_date"`
	Campaign   string      `yaml:"campaign"`
	Renews     int64       `yaml:"renews"`
	Courses    []courseRow `yaml:"courses"`
}

type allocationRow struct {
	Period  string `yaml:"period"`
	Lessons int    `yaml:"lessons"`
}

type lectureCourseRow struct {
	Course       string          `yaml:"course"`
	UnitPrice    int64           `yaml:"unit_price"`
	TotalLessons int             `yaml:"total_lessons"`
	Allocation   []allocationRow `yaml:"allocation"`
}

type lectureRow struct {
	studentRef `yaml:",inline"`
	Grade      string             `yaml:"grade"`
	Label      string             `yaml:"label"`
	Courses    []lectureCourseRow `yaml:"courses"`
}

type materialRow struct {
	studentRef    `yaml:",inline"`
	Name          string `yaml:"name"`
	UnitPrice     int64  `yaml:"unit_price"`
	Quantity      int    `yaml:"quantity"`
	SaleDate      string `yaml:"sale_date"`
	BillingPeriod string `yaml:"billing_period"`
}

// ownedContract and friends carry the unresolved owner next to the record.
type ownedContract struct {
	owner    studentRef
	contract core.Contract
}

type ownedLecture struct {
	owner   studentRef
	lecture core.Lecture
}

type ownedMaterial struct {
	owner    studentRef
	material core.MaterialSale
}

// recordBatch is a decoded import file. Lecture allocations have already
// been checked against their totals.
type recordBatch struct {
	Students  []core.Student
	Contracts []ownedContract
	Lectures  []ownedLecture
	Materials []ownedMaterial
}

func decodeRecords(r io.Reader) (recordBatch, error) {
	var f recordsFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return recordBatch{}, nil
		}
		return recordBatch{}, fmt.Errorf("parse records yaml: %w", err)
	}

	var b recordBatch
	for i, row := range f.Students {
		s, err := row.toStudent()
		if err != nil {
			return recordBatch{}, fmt.Errorf("student %d: %w", i+1, err)
		}
		b.Students = append(b.Students, s)
	}
	for i, row := range f.Contracts {
		ct, err := row.toContract()
		if err != nil {
			return recordBatch{}, fmt.Errorf("contract %d: %w", i+1, err)
		}
		b.Contracts = append(b.Contracts, ownedContract{row.studentRef, ct})
	}
	for i, row := range f.Lectures {
		l, err := row.toLecture()
		if err != nil {
			return recordBatch{}, fmt.Errorf("lecture %d: %w", i+1, err)
		}
		b.Lectures = append(b.Lectures, ownedLecture{row.studentRef, l})
	}
	for i, row := range f.Materials {
		m, err := row.toMaterial()
		if err != nil {
			return recordBatch{}, fmt.Errorf("material %d: %w", i+1, err)
		}
		b.Materials = append(b.Materials, ownedMaterial{row.studentRef, m})
	}
	return b, nil
}

func (r studentRow) toStudent() (core.Student, error) {
	s := core.Student{Name: r.Name, Number: r.Number}
	if r.DirectDebitStart != "" {
		p, err := core.ParsePeriod(r.DirectDebitStart)
		if err != nil {
			return core.Student{}, err
		}
		s.DirectDebitStart = &p
	}
	return s, s.Validate()
}

func (r contractRow) toContract() (core.Contract, error) {
	start, err := parseDate(r.StartDate)
	if err != nil {
		return core.Contract{}, err
	}
	if start == nil {
		return core.Contract{}, errors.New("start_date is required")
	}
	end, err := parseDate(r.EndDate)
	if err != nil {
		return core.Contract{}, err
	}
	ct := core.Contract{
		PredecessorID: r.Renews,
		Grade:         core.Grade(r.Grade),
		StartDate:     *start,
		Campaign:      core.Campaign(r.Campaign),
	}
	if end != nil {
		ct.EndDate = *end
	}
	for _, c := range r.Courses {
		ct.Courses = append(ct.Courses, core.CourseEntry{Course: core.Course(c.Course), LessonsPerWeek: c.LessonsPerWeek})
	}
	return ct, ct.Validate()
}

func (r lectureRow) toLecture() (core.Lecture, error) {
	l := core.Lecture{Grade: core.Grade(r.Grade), Label: r.Label}
	for _, c := range r.Courses {
		alloc := make([]core.AllocationRow, 0, len(c.Allocation))
		for _, a := range c.Allocation {
			p, err := core.ParsePeriod(a.Period)
			if err != nil {
				return core.Lecture{}, fmt.Errorf("course %s: %w", c.Course, err)
			}
			alloc = append(alloc, core.AllocationRow{Period: p, Lessons: a.Lessons})
		}
		lc, err := core.NewLectureCourse(core.Course(c.Course), core.Yen(c.UnitPrice), c.TotalLessons, alloc)
		if err != nil {
			return core.Lecture{}, fmt.Errorf("course %s: %w", c.Course, err)
		}
		l.Courses = append(l.Courses, lc)
	}
	return l, l.Validate()
}

func (r materialRow) toMaterial() (core.MaterialSale, error) {
	period, err := core.ParsePeriod(r.BillingPeriod)
	if err != nil {
		return core.MaterialSale{}, err
	}
	sold, err := parseDate(r.SaleDate)
	if err != nil {
		return core.MaterialSale{}, err
	}
	m := core.MaterialSale{
		Name:      r.Name,
		UnitPrice: core.Yen(r.UnitPrice),
		Quantity:  r.Quantity,
		Billing:   period,
	}
	if sold != nil {
		m.SaleDate = *sold
	}
	return m, m.Validate()
}

// recordStore is the part of the repository the import writes to.
type recordStore interface {
	SaveStudent(ctx context.Context, s core.Student) (int64, error)
	SaveContract(ctx context.Context, ct core.Contract) (int64, error)
	SaveLecture(ctx context.Context, l core.Lecture) (int64, error)
	SaveMaterial(ctx context.Context, m core.MaterialSale) (int64, error)
}

type importCounts struct {
	Students, Contracts, Lectures, Materials int
}

// importRecords writes b in order. Contracts go through calc so their
// enrollment fee, campaign discount and monthly amount are fixed now.
func importRecords(ctx context.Context, store recordStore, calc *billing.Calculator, b recordBatch) (importCounts, error) {
	var n importCounts
	ids := make(map[string]int64, len(b.Students))
	resolve := func(ref studentRef) (int64, error) {
		if ref.ID != 0 {
			return ref.ID, nil
		}
		if id, ok := ids[ref.Number]; ok {
			return id, nil
		}
		return 0, fmt.Errorf("%w: %q", errUnknownStudent, ref.Number)
	}

	for _, s := range b.Students {
		id, err := store.SaveStudent(ctx, s)
		if err != nil {
			return n, fmt.Errorf("student %s: %w", s.Number, err)
		}
		ids[s.Number] = id
		n.Students++
	}
	for i, oc := range b.Contracts {
		studentID, err := resolve(oc.owner)
		if err != nil {
			return n, fmt.Errorf("contract %d: %w", i+1, err)
		}
		ct := oc.contract
		ct.StudentID = studentID
		ct, err = calc.NewContract(ct)
		if err != nil {
			return n, fmt.Errorf("contract %d: %w", i+1, err)
		}
		if _, err := store.SaveContract(ctx, ct); err != nil {
			return n, fmt.Errorf("contract %d: %w", i+1, err)
		}
		n.Contracts++
	}
	for i, ol := range b.Lectures {
		studentID, err := resolve(ol.owner)
		if err != nil {
			return n, fmt.Errorf("lecture %d: %w", i+1, err)
		}
		l := ol.lecture
		l.StudentID = studentID
		if _, err := store.SaveLecture(ctx, l); err != nil {
			return n, fmt.Errorf("lecture %d: %w", i+1, err)
		}
		n.Lectures++
	}
	for i, om := range b.Materials {
		studentID, err := resolve(om.owner)
		if err != nil {
			return n, fmt.Errorf("material %d: %w", i+1, err)
		}
		m := om.material
		m.StudentID = studentID
		if _, err := store.SaveMaterial(ctx, m); err != nil {
			return n, fmt.Errorf("material %d: %w", i+1, err)
		}
		n.Materials++
	}
	return n, nil
}

func runImportRecords(ctx context.Context, a *app, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	batch, err := decodeRecords(bytes.NewReader(data))
	if err != nil {
		return err
	}
	n, err := importRecords(ctx, a.repo, a.calc, batch)
	fmt.Printf("Imported %d students, %d contracts, %d lectures, %d material sales\n",
		n.Students, n.Contracts, n.Lectures, n.Materials)
	return err
}
