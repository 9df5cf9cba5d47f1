package sheets

import (
	"fmt"

	"juku/internal/core"
	"juku/internal/reconcile"
)

var (
	MonthlyHeader = []interface{}{"年月", "請求額", "入金額", "入金済", "未入金", "差異あり", "件数", "回収率"}
	LedgerHeader  = []interface{}{"生徒番号", "生徒名", "年月", "種別", "請求額", "入金額", "状態", "支払方法", "差額"}
)

var billingTypeLabels = map[core.BillingType]string{
	core.BillingContract: "月謝",
	core.BillingLecture:  "講習",
	core.BillingMaterial: "教材",
}

// MonthlyValues renders summary rows as a sheet grid with a header row.
// Amounts are plain numbers so the sheet can sum them.
func MonthlyValues(rows []core.MonthlySummary) [][]interface{} {
	out := make([][]interface{}, 0, len(rows)+1)
	out = append(out, MonthlyHeader)
	for _, r := range rows {
		out = append(out, []interface{}{
			core.NewPeriod(r.Year, r.Month).String(),
			int64(r.TotalBilled),
			int64(r.TotalPaid),
			r.PaidCount,
			r.UnpaidCount,
			r.DiscrepancyCount,
			r.TotalItems,
			fmt.Sprintf("%.1f%%", r.CollectionRate),
		})
	}
	return out
}

// LedgerValues renders one row per billed item, students in the given order,
// followed by a total row per student.
func LedgerValues(rows []core.StudentSummary) [][]interface{} {
	out := [][]interface{}{LedgerHeader}
	for _, s := range rows {
		for _, m := range s.Months {
			diff := ""
			if m.Status == core.StatusDiscrepancy {
				d := m.PaidAmount - m.BilledAmount
				diff = fmt.Sprintf("%s %s", reconcile.DifferenceLabel(d), d.String())
			}
			out = append(out, []interface{}{
				s.StudentNumber,
				s.StudentName,
				core.NewPeriod(m.Year, m.Month).String(),
				billingTypeLabels[m.BillingType],
				int64(m.BilledAmount),
				int64(m.PaidAmount),
				m.Status.Label(),
				m.Method.Label(),
				diff,
			})
		}
		out = append(out, []interface{}{
			s.StudentNumber,
			s.StudentName,
			"合計",
			"",
			int64(s.TotalBilled),
			int64(s.TotalPaid),
			"",
			"",
			fmt.Sprintf("未収 %s", s.Outstanding.String()),
		})
	}
	return out
}
