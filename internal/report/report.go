// Package report builds the monthly collection summary and the per-student
// ledger from a snapshot read once per request.
package report

import (
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"juku/internal/billing"
	"juku/internal/core"
	"juku/internal/reconcile"
)

// Snapshot is everything needed to reconcile a range of periods.
type Snapshot struct {
	Students  []core.Student
	Contracts []core.Contract
	Lectures  []core.Lecture
	Materials []core.MaterialSale
	Payments  []reconcile.PaymentRecord
	Overrides []reconcile.MethodOverride
}

// Reporter reconciles snapshots using a billing calculator.
type Reporter struct {
	calc *billing.Calculator
}

func NewReporter(calc *billing.Calculator) *Reporter {
	return &Reporter{calc: calc}
}

type index struct {
	students map[int64]core.Student
	sources  []billing.Source
	book     *reconcile.Book
}

func newIndex(s Snapshot) *index {
	idx := &index{
		students: make(map[int64]core.Student, len(s.Students)),
		sources:  make([]billing.Source, 0, len(s.Contracts)+len(s.Lectures)+len(s.Materials)),
		book:     reconcile.NewBook(s.Payments, s.Overrides),
	}
	for _, st := range s.Students {
		idx.students[st.ID] = st
	}
	for _, c := range s.Contracts {
		idx.sources = append(idx.sources, billing.ContractSource{Contract: c})
	}
	for _, l := range s.Lectures {
		idx.sources = append(idx.sources, billing.LectureSource{Lecture: l})
	}
	for _, m := range s.Materials {
		idx.sources = append(idx.sources, billing.MaterialSource{Sale: m})
	}
	return idx
}

func (r *Reporter) items(idx *index, p core.Period) ([]reconcile.Item, error) {
	var out []reconcile.Item
	for _, src := range idx.sources {
		if !r.calc.Billable(src, p) {
			continue
		}
		amount, err := r.calc.Amount(src, p)
		if err != nil {
			return nil, fmt.Errorf("%s %d %s: %w", src.BillingType(), src.RefID(), p, err)
		}
		out = append(out, reconcile.Item{
			Key:           billing.Key(src, p),
			StudentID:     src.StudentID(),
			BilledAmount:  amount,
			DefaultMethod: reconcile.DefaultMethod(idx.students[src.StudentID()], p),
		})
	}
	return out, nil
}

// Items lists every item billed in p with its default payment method.
func (r *Reporter) Items(s Snapshot, p core.Period) ([]reconcile.Item, error) {
	return r.items(newIndex(s), p)
}

// Reconcile lists every item billed in p with its reconciled state.
func (r *Reporter) Reconcile(s Snapshot, p core.Period) ([]reconcile.Result, error) {
	idx := newIndex(s)
	items, err := r.items(idx, p)
	if err != nil {
		return nil, err
	}
	out := make([]reconcile.Result, 0, len(items))
	for _, it := range items {
		out = append(out, idx.book.Reconcile(it))
	}
	return out, nil
}

// Monthly returns one summary row per period, in the order given.
func (r *Reporter) Monthly(s Snapshot, periods []core.Period) ([]core.MonthlySummary, error) {
	idx := newIndex(s)
	out := make([]core.MonthlySummary, 0, len(periods))
	for _, p := range periods {
		items, err := r.items(idx, p)
		if err != nil {
			return nil, err
		}
		sum := core.MonthlySummary{Year: p.Year, Month: p.Month, TotalItems: len(items)}
		for _, it := range items {
			res := idx.book.Reconcile(it)
			sum.TotalBilled += it.BilledAmount
			sum.TotalPaid += res.PaidAmount
			switch res.Status {
			case core.StatusPaid:
				sum.PaidCount++
			case core.StatusDiscrepancy:
				sum.DiscrepancyCount++
			default:
				sum.UnpaidCount++
			}
		}
		sum.CollectionRate = CollectionRate(sum.TotalPaid, sum.TotalBilled)
		out = append(out, sum)
	}
	return out, nil
}

// Students returns the ledger of every student billed in the periods, largest
// outstanding balance first. Students with nothing billed are left out.
func (r *Reporter) Students(s Snapshot, periods []core.Period) ([]core.StudentSummary, error) {
	idx := newIndex(s)
	byStudent := map[int64]*core.StudentSummary{}
	for _, p := range periods {
		items, err := r.items(idx, p)
		if err != nil {
			return nil, err
		}
		for _, it := range items {
			res := idx.book.Reconcile(it)
			sum, ok := byStudent[it.StudentID]
			if !ok {
				st := idx.students[it.StudentID]
				sum = &core.StudentSummary{
					StudentID:     it.StudentID,
					StudentName:   st.Name,
					StudentNumber: st.Number,
				}
				byStudent[it.StudentID] = sum
			}
			sum.Months = append(sum.Months, core.LedgerEntry{
				Year:         p.Year,
				Month:        p.Month,
				BillingType:  it.Key.Type,
				RefID:        it.Key.RefID,
				BilledAmount: it.BilledAmount,
				PaidAmount:   res.PaidAmount,
				Status:       res.Status,
				Method:       res.Method,
			})
			sum.TotalBilled += it.BilledAmount
			sum.TotalPaid += res.PaidAmount
		}
	}

	out := make([]core.StudentSummary, 0, len(byStudent))
	for _, sum := range byStudent {
		sum.Outstanding = sum.TotalBilled - sum.TotalPaid
		out = append(out, *sum)
	}
	slices.SortFunc(out, func(a, b core.StudentSummary) int {
		if a.Outstanding != b.Outstanding {
			if a.Outstanding > b.Outstanding {
				return -1
			}
			return 1
		}
		if c := strings.Compare(a.StudentNumber, b.StudentNumber); c != 0 {
			return c
		}
		switch {
		case a.StudentID < b.StudentID:
			return -1
		case a.StudentID > b.StudentID:
			return 1
		}
		return 0
	})
	return out, nil
}

// CollectionRate is paid/billed as a percentage rounded to one decimal place,
// 0 when nothing was billed.
func CollectionRate(paid, billed core.Yen) float64 {
	if billed == 0 {
		return 0
	}
	rate := decimal.NewFromInt(int64(paid)).
		Mul(decimal.NewFromInt(1000)).
		Div(decimal.NewFromInt(int64(billed))).
		Round(0).
		Div(decimal.NewFromInt(10))
	f, _ := rate.Float64()
	return f
}
