package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"juku/internal/core"
	"juku/internal/reconcile"
)

var summaryCmd = &cobra.Command{
	Use:   "summary <from> [to]",
	Short: "Monthly collection summary",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  withApp(runSummary),
}

var studentsCmd = &cobra.Command{
	Use:   "students <from> [to]",
	Short: "Per-student ledgers, largest outstanding first",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  withApp(runStudents),
}

var billCmd = &cobra.Command{
	Use:   "bill <YYYY-MM>",
	Short: "List every billed item of a month with its payment status",
	Args:  cobra.ExactArgs(1),
	RunE:  withApp(runBill),
}

var (
	studentsDetail bool
	billUnpaidOnly bool
)

func init() {
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(studentsCmd)
	rootCmd.AddCommand(billCmd)

	studentsCmd.Flags().BoolVar(&studentsDetail, "detail", false, "show every billed item")
	billCmd.Flags().BoolVar(&billUnpaidOnly, "unpaid", false, "only items not fully paid")
}

func runSummary(ctx context.Context, a *app, args []string) error {
	from, to, err := parseRange(args)
	if err != nil {
		return err
	}
	rows, err := a.reports.Monthly(ctx, from, to)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "PERIOD\tBILLED\tPAID\tPAID#\tUNPAID#\tDIFF#\tITEMS\tRATE\t")
	var billed, paid core.Yen
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%.1f%%\t\n",
			core.NewPeriod(r.Year, r.Month), r.TotalBilled, r.TotalPaid,
			r.PaidCount, r.UnpaidCount, r.DiscrepancyCount, r.TotalItems, r.CollectionRate)
		billed += r.TotalBilled
		paid += r.TotalPaid
	}
	fmt.Fprintf(w, "TOTAL\t%s\t%s\t\t\t\t\t\t\n", billed, paid)
	return w.Flush()
}

func runStudents(ctx context.Context, a *app, args []string) error {
	from, to, err := parseRange(args)
	if err != nil {
		return err
	}
	rows, err := a.reports.Students(ctx, from, to)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Println("No billed items in range.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NUMBER\tNAME\tBILLED\tPAID\tOUTSTANDING")
	for _, s := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", s.StudentNumber, s.StudentName, s.TotalBilled, s.TotalPaid, s.Outstanding)
		if !studentsDetail {
			continue
		}
		for _, m := range s.Months {
			fmt.Fprintf(w, "\t  %s %s #%d\t%s\t%s\t%s %s\n",
				core.NewPeriod(m.Year, m.Month), m.BillingType, m.RefID,
				m.BilledAmount, m.PaidAmount, m.Status.Label(), m.Method.Label())
		}
	}
	return w.Flush()
}

func runBill(ctx context.Context, a *app, args []string) error {
	p, err := core.ParsePeriod(args[0])
	if err != nil {
		return err
	}
	results, err := a.reports.Period(ctx, p)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TYPE\tREF\tSTUDENT\tBILLED\tPAID\tSTATUS\tMETHOD\tDIFF")
	shown := 0
	for _, r := range results {
		if billUnpaidOnly && r.Status == core.StatusPaid {
			continue
		}
		diff := ""
		if r.Status == core.StatusDiscrepancy {
			diff = fmt.Sprintf("%s %s", reconcile.DifferenceLabel(r.Difference), r.Difference)
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%s\t%s\t%s\t%s\n",
			r.Item.Key.Type, r.Item.Key.RefID, r.Item.StudentID,
			r.Item.BilledAmount, r.PaidAmount, r.Status.Label(), r.Method.Label(), diff)
		shown++
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("%d of %d items\n", shown, len(results))
	return nil
}
