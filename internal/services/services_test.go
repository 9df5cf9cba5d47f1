package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"juku/internal/amqp"
	"juku/internal/billing"
	"juku/internal/core"
	"juku/internal/log"
	"juku/internal/pricing"
	"juku/internal/report"
	"juku/internal/storage"
)

type published struct {
	key    core.ItemKey
	action string
}

type fakePublisher struct {
	events []published
	err    error
}

func (f *fakePublisher) PublishPaymentChanged(_ context.Context, key core.ItemKey, action string) error {
	f.events = append(f.events, published{key, action})
	return f.err
}

// countingLoader counts snapshot reads
type countingLoader struct {
	SnapshotLoader
	calls int
}

func (c *countingLoader) LoadSnapshot(ctx context.Context, from, to core.Period) (report.Snapshot, error) {
	c.calls++
	return c.SnapshotLoader.LoadSnapshot(ctx, from, to)
}

func newReporter(t *testing.T) *report.Reporter {
	t.Helper()
	tbl, err := pricing.New(pricing.Data{
		SchoolYear:           2026,
		TaxRatePercent:       10,
		FacilityFeeMonthly:   3300,
		FacilityFeeHalfMonth: 1650,
		EnrollmentFee:        22000,
		UnitPrices: map[core.Course]map[core.GradeCategory]core.Yen{
			"kobetsu_1to2": {core.CategoryJunior12: 35000},
		},
	})
	if err != nil {
		t.Fatalf("build table: %v", err)
	}
	return report.NewReporter(billing.NewCalculator(tbl, billing.WithLogger(log.Discard())))
}

func newRepo(t *testing.T) (*storage.SQLiteRepository, int64) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "juku.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	ctx := context.Background()
	dd := core.NewPeriod(2026, 5)
	studentID, err := repo.SaveStudent(ctx, core.Student{Name: "Sato", Number: "S001", DirectDebitStart: &dd})
	if err != nil {
		t.Fatalf("SaveStudent: %v", err)
	}
	contractID, err := repo.SaveContract(ctx, core.Contract{
		StudentID: studentID,
		Grade:     core.J1,
		StartDate: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		Courses:   []core.CourseEntry{{Course: "kobetsu_1to2", LessonsPerWeek: 1}},
	})
	if err != nil {
		t.Fatalf("SaveContract: %v", err)
	}
	return repo, contractID
}

func contractKey(id int64, month int) core.ItemKey {
	return core.ItemKey{Type: core.BillingContract, RefID: id, Period: core.NewPeriod(2026, month)}
}

func TestPaymentServiceRecord(t *testing.T) {
	repo, id := newRepo(t)
	pub := &fakePublisher{}
	svc := NewPaymentService(repo, newReporter(t), pub, nil, log.Discard())
	ctx := context.Background()
	paidOn := time.Date(2026, 4, 27, 0, 0, 0, 0, time.UTC)

	res, err := svc.Record(ctx, RecordRequest{Key: contractKey(id, 4), PaidAmount: 41800, PaymentDate: &paidOn})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if res.Status != core.StatusPaid || res.Method != core.BankTransfer {
		t.Fatalf("result = %s/%s", res.Status, res.Method)
	}
	if res.Record.BilledAmount != 41800 || res.Record.Followup != core.FollowupNone {
		t.Fatalf("record = %+v", res.Record)
	}

	res, err = svc.Record(ctx, RecordRequest{Key: contractKey(id, 5), PaidAmount: 30000})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if res.Status != core.StatusDiscrepancy || res.Difference != -11800 || res.Method != core.DirectDebit {
		t.Fatalf("short payment = %s %d %s", res.Status, res.Difference, res.Method)
	}

	if len(pub.events) != 2 || pub.events[0].action != amqp.ActionRecorded {
		t.Fatalf("events = %+v", pub.events)
	}
}

func TestPaymentServiceRejects(t *testing.T) {
	repo, id := newRepo(t)
	svc := NewPaymentService(repo, newReporter(t), nil, nil, log.Discard())
	ctx := context.Background()

	if _, err := svc.Record(ctx, RecordRequest{Key: contractKey(id, 3), PaidAmount: 100}); !errors.Is(err, ErrNotBilled) {
		t.Fatalf("before contract start error = %v", err)
	}
	if _, err := svc.Record(ctx, RecordRequest{Key: contractKey(id, 4), PaidAmount: -1}); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("negative amount error = %v", err)
	}
	if _, err := svc.Record(ctx, RecordRequest{Key: contractKey(id, 4), PaidAmount: 1, Method: "cash"}); !errors.Is(err, core.ErrInvalidMethod) {
		t.Fatalf("bad method error = %v", err)
	}
	if _, err := svc.ToggleMethod(ctx, core.ItemKey{Type: core.BillingLecture, RefID: 99, Period: core.NewPeriod(2026, 4)}); !errors.Is(err, ErrNotBilled) {
		t.Fatalf("unknown lecture error = %v", err)
	}
}

func TestPaymentServiceToggleAndDelete(t *testing.T) {
	repo, id := newRepo(t)
	pub := &fakePublisher{err: errors.New("broker down")}
	svc := NewPaymentService(repo, newReporter(t), pub, nil, log.Discard())
	ctx := context.Background()
	key := contractKey(id, 5)

	res, err := svc.ToggleMethod(ctx, key)
	if err != nil {
		t.Fatalf("ToggleMethod: %v", err)
	}
	if res.Status != core.StatusUnpaid || res.Method != core.BankTransfer {
		t.Fatalf("after toggle = %s/%s", res.Status, res.Method)
	}

	// The chosen method survives recording the payment.
	res, err = svc.Record(ctx, RecordRequest{Key: key, PaidAmount: 41800})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if res.Status != core.StatusPaid || res.Method != core.BankTransfer {
		t.Fatalf("after record = %s/%s", res.Status, res.Method)
	}

	res, err = svc.ToggleMethod(ctx, key)
	if err != nil {
		t.Fatalf("ToggleMethod: %v", err)
	}
	if res.Status != core.StatusPaid || res.Method != core.DirectDebit || res.PaidAmount != 41800 {
		t.Fatalf("toggle with payment = %+v", res)
	}

	removed, err := svc.Delete(ctx, key)
	if err != nil || !removed {
		t.Fatalf("Delete = %v, %v", removed, err)
	}
	e, err := repo.Entry(ctx, key)
	if err != nil || !e.IsEmpty() {
		t.Fatalf("entry after delete = %+v, %v", e, err)
	}
	removed, err = svc.Delete(ctx, key)
	if err != nil || removed {
		t.Fatalf("second Delete = %v, %v", removed, err)
	}

	// Publish failures are logged, not returned.
	if len(pub.events) != 4 || pub.events[3].action != amqp.ActionDeleted {
		t.Fatalf("events = %+v", pub.events)
	}
}

func TestPaymentServiceSetMethod(t *testing.T) {
	repo, id := newRepo(t)
	pub := &fakePublisher{}
	svc := NewPaymentService(repo, newReporter(t), pub, nil, log.Discard())
	ctx := context.Background()
	key := contractKey(id, 6)

	res, err := svc.SetMethod(ctx, key, core.BankTransfer)
	if err != nil {
		t.Fatalf("SetMethod: %v", err)
	}
	if res.Status != core.StatusUnpaid || res.Method != core.BankTransfer {
		t.Fatalf("unpaid after set = %s/%s", res.Status, res.Method)
	}
	e, _ := repo.Entry(ctx, key)
	if e.Record != nil || e.Override == nil || e.Override.Method != core.BankTransfer {
		t.Fatalf("entry = %+v", e)
	}

	if _, err := svc.Record(ctx, RecordRequest{Key: key, PaidAmount: 41800}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	res, err = svc.SetMethod(ctx, key, core.DirectDebit)
	if err != nil {
		t.Fatalf("SetMethod: %v", err)
	}
	if res.Status != core.StatusPaid || res.Method != core.DirectDebit || res.PaidAmount != 41800 {
		t.Fatalf("paid after set = %+v", res)
	}

	if _, err := svc.SetMethod(ctx, key, "cash"); !errors.Is(err, core.ErrInvalidMethod) {
		t.Fatalf("bad method error = %v", err)
	}
	if len(pub.events) != 3 || pub.events[2].action != amqp.ActionMethodToggled {
		t.Fatalf("events = %+v", pub.events)
	}
}

func TestReportServiceCaching(t *testing.T) {
	repo, id := newRepo(t)
	loader := &countingLoader{SnapshotLoader: repo}
	reporter := newReporter(t)
	reports := NewReportService(loader, reporter, WithReportCache(8, time.Minute), WithReportLogger(log.Discard()))
	payments := NewPaymentService(repo, reporter, nil, reports, log.Discard())
	ctx := context.Background()
	apr, jun := core.NewPeriod(2026, 4), core.NewPeriod(2026, 6)

	rows, err := reports.Monthly(ctx, apr, jun)
	if err != nil {
		t.Fatalf("Monthly: %v", err)
	}
	if len(rows) != 3 || rows[0].TotalBilled != 41800 || rows[0].CollectionRate != 0 {
		t.Fatalf("rows = %+v", rows)
	}
	if _, err := reports.Monthly(ctx, apr, jun); err != nil {
		t.Fatalf("Monthly: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("snapshot loads = %d, want 1 (cached)", loader.calls)
	}

	if _, err := payments.Record(ctx, RecordRequest{Key: contractKey(id, 5), PaidAmount: 41800}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	rows, err = reports.Monthly(ctx, apr, jun)
	if err != nil {
		t.Fatalf("Monthly: %v", err)
	}
	if rows[1].PaidCount != 1 || rows[1].CollectionRate != 100 {
		t.Fatalf("may after payment = %+v", rows[1])
	}

	students, err := reports.Students(ctx, apr, jun)
	if err != nil {
		t.Fatalf("Students: %v", err)
	}
	if len(students) != 1 || students[0].Outstanding != 2*41800 {
		t.Fatalf("students = %+v", students)
	}

	if n := reports.InvalidatePeriod(core.NewPeriod(2027, 1)); n != 0 {
		t.Fatalf("unrelated period invalidated %d entries", n)
	}
	if n := reports.InvalidatePeriod(jun); n != 2 {
		t.Fatalf("invalidated %d entries, want 2", n)
	}

	if _, err := reports.Monthly(ctx, jun, apr); !errors.Is(err, core.ErrInvalidPeriod) {
		t.Fatalf("inverted range error = %v", err)
	}
}

func TestReportServicePeriod(t *testing.T) {
	repo, _ := newRepo(t)
	reports := NewReportService(repo, newReporter(t))
	results, err := reports.Period(context.Background(), core.NewPeriod(2026, 5))
	if err != nil {
		t.Fatalf("Period: %v", err)
	}
	if len(results) != 1 || results[0].Method != core.DirectDebit || results[0].Status != core.StatusUnpaid {
		t.Fatalf("results = %+v", results)
	}
	if reports.Cleaner() != nil {
		t.Fatal("cache should be disabled without WithReportCache")
	}
}
